// Command kinshipviz runs the kinship cultures visualization engine.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/kinship-viz/internal/api"
	"github.com/talgya/kinship-viz/internal/engine"
	"github.com/talgya/kinship-viz/internal/entropy"
	"github.com/talgya/kinship-viz/internal/ingest"
	"github.com/talgya/kinship-viz/internal/persistence"
)

func main() {
	dataPath := flag.String("data", "data/cultures.csv", "path to the processed cultures CSV")
	dbPath := flag.String("db", "data/kinshipviz.db", "path to the run-history database")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	apiPort := flag.Int("port", 8080, "HTTP API port")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Kinship Viz — culture visualization engine")

	// ── Dataset ───────────────────────────────────────────────────────
	records, err := ingest.Load(*dataPath)
	if err != nil {
		slog.Error("failed to load dataset", "path", *dataPath, "error", err)
		os.Exit(1)
	}
	slog.Info("dataset loaded", "path", *dataPath, "cultures", len(records))

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	db.SaveMeta("dataset", *dataPath)
	db.SaveMeta("seed", fmt.Sprintf("%d", *seed))
	db.SaveMeta("started_at", time.Now().UTC().Format(time.RFC3339))

	// ── Simulation ────────────────────────────────────────────────────
	src := entropy.NewSource(*seed)
	sim := engine.NewSimulation(records, engine.DefaultParams(), src)
	slog.Info("simulation ready", "cultures", len(sim.Cultures), "particles", len(sim.Particles))

	eng := engine.NewEngine()
	eng.OnFrame = sim.Advance
	eng.OnSecond = func(tick uint64) {
		focused := sim.LatestSnapshot().Focused
		if err := db.SaveStats(tick, sim.Stats, focused); err != nil {
			slog.Error("stats save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("KINSHIPVIZ_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("KINSHIPVIZ_ADMIN_KEY not set — control POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     *apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\n%d cultures, %d particles.\n", len(sim.Cultures), len(sim.Particles))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", *apiPort)
	fmt.Println("Starting visualization... (Ctrl+C to stop)")

	eng.Run()

	fmt.Println("Visualization stopped.")
}
