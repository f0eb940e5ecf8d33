// Package api provides the HTTP API for the visualization.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (collaborator control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/kinship-viz/internal/culture"
	"github.com/talgya/kinship-viz/internal/engine"
	"github.com/talgya/kinship-viz/internal/persistence"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The full-frame snapshot is the heavy payload; cap per-client polling.
	snapshotLimiter := NewRateLimiter(1200, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/snapshot", RateLimitMiddleware(snapshotLimiter, s.handleSnapshot))
	mux.HandleFunc("/api/v1/cultures", s.handleCultures)
	mux.HandleFunc("/api/v1/culture/", s.handleCultureDetail)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)

	// Control endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/focus", s.adminOnly(s.handleFocus))
	mux.HandleFunc("/api/v1/exit-focus", s.adminOnly(s.handleExitFocus))
	mux.HandleFunc("/api/v1/filter", s.adminOnly(s.handleFilter))
	mux.HandleFunc("/api/v1/viewport", s.adminOnly(s.handleViewport))
	mux.HandleFunc("/api/v1/camera/pan", s.adminOnly(s.handleCameraPan))
	mux.HandleFunc("/api/v1/camera/zoom", s.adminOnly(s.handleCameraZoom))
	mux.HandleFunc("/api/v1/camera/move-to", s.adminOnly(s.handleCameraMoveTo))
	mux.HandleFunc("/api/v1/mode", s.adminOnly(s.handleMode))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "control endpoints disabled (no KINSHIPVIZ_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.LatestSnapshot()
	status := map[string]any{
		"name":      "Kinship Viz",
		"tick":      snap.Tick,
		"uptime":    engine.Uptime(snap.Tick),
		"speed":     s.Eng.Speed,
		"running":   s.Eng.Running,
		"mode":      snap.Mode,
		"focused":   snap.Focused,
		"filter":    snap.Filter,
		"cultures":  len(snap.Cultures),
		"groups":    len(snap.Groups),
		"particles": len(snap.Particles),
		"camera":    snap.Camera,
	}
	writeJSON(w, status)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.LatestSnapshot())
}

func (s *Server) handleCultures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.LatestSnapshot().Cultures)
}

func (s *Server) handleCultureDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing culture id", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(parts[4])
	if err != nil {
		http.Error(w, "invalid culture id", http.StatusBadRequest)
		return
	}

	snap := s.Sim.LatestSnapshot()
	var found *engine.CultureView
	for i := range snap.Cultures {
		if snap.Cultures[i].ID == id {
			found = &snap.Cultures[i]
			break
		}
	}
	if found == nil {
		http.Error(w, "culture not found", http.StatusNotFound)
		return
	}

	// Resolve kinship IDs to names and count resident particles from the same
	// frame so the detail view is self-consistent.
	nameByID := make(map[int]string, len(snap.Cultures))
	for _, c := range snap.Cultures {
		nameByID[c.ID] = c.Name
	}
	var kinNames []string
	for _, k := range found.Kinships {
		kinNames = append(kinNames, nameByID[k])
	}
	particles := 0
	states := make(map[string]int)
	for _, p := range snap.Particles {
		if p.Culture != id {
			continue
		}
		particles++
		states[p.State]++
	}

	writeJSON(w, map[string]any{
		"culture":         found,
		"kin_names":       kinNames,
		"particle_count":  particles,
		"particle_states": states,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.LatestSnapshot().Stats)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	fromTick := uint64(0)
	toTick := uint64(1<<63 - 1) // max int64, the driver rejects uint64 high-bit values
	limit := 30

	if f := r.URL.Query().Get("from"); f != "" {
		if v, err := strconv.ParseUint(f, 10, 64); err == nil {
			fromTick = v
		}
	}
	if t := r.URL.Query().Get("to"); t != "" {
		if v, err := strconv.ParseUint(t, 10, 64); err == nil {
			toTick = v
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.DB.LoadStatsHistory(fromTick, toTick, limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// Return empty array instead of error — table may not have data yet.
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Culture string `json:"culture"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	c, ok := s.Sim.ByName[req.Culture]
	if !ok {
		http.Error(w, "culture not found", http.StatusNotFound)
		return
	}
	id := c.ID
	s.Sim.Do(func(sim *engine.Simulation) { sim.Focus(id) })
	writeJSON(w, map[string]any{"success": true, "focused": req.Culture})
}

func (s *Server) handleExitFocus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.ExitFocus() })
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Scope string `json:"scope"` // empty clears the filter
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var level *culture.ScopeLevel
	if req.Scope != "" {
		parsed, ok := scopeByName(req.Scope)
		if !ok {
			http.Error(w, "unknown scope (use: family, local, regional, national, global)", http.StatusBadRequest)
			return
		}
		level = &parsed
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.SetScopeFilter(level) })
	writeJSON(w, map[string]any{"success": true, "scope": req.Scope})
}

func scopeByName(name string) (culture.ScopeLevel, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, lvl := range []culture.ScopeLevel{
		culture.ScopeFamily, culture.ScopeLocal, culture.ScopeRegional,
		culture.ScopeNational, culture.ScopeGlobal,
	} {
		if culture.ScopeName(lvl) == name {
			return lvl, true
		}
	}
	return 0, false
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		http.Error(w, "width and height must be positive", http.StatusBadRequest)
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.SetViewport(req.Width, req.Height) })
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleCameraPan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.Camera.Pan(req.DX, req.DY) })
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleCameraZoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Factor float64 `json:"factor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Factor <= 0 {
		http.Error(w, "factor must be positive", http.StatusBadRequest)
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.Camera.ZoomBy(req.Factor) })
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleCameraMoveTo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Culture string  `json:"culture"` // takes precedence over x/y
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		Zoom    float64 `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Zoom <= 0 {
		req.Zoom = 1
	}
	if req.Culture != "" {
		c, ok := s.Sim.ByName[req.Culture]
		if !ok {
			http.Error(w, "culture not found", http.StatusNotFound)
			return
		}
		id := c.ID
		zoom := req.Zoom
		s.Sim.Do(func(sim *engine.Simulation) { sim.MoveCameraToCulture(id, zoom) })
		writeJSON(w, map[string]any{"success": true, "culture": req.Culture})
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.Camera.MoveTo(req.X, req.Y, req.Zoom) })
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var mode engine.VisualMode
	switch req.Mode {
	case "bordered":
		mode = engine.ModeBordered
	case "borderless":
		mode = engine.ModeBorderless
	default:
		http.Error(w, "unknown mode (use: bordered, borderless)", http.StatusBadRequest)
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.SetVisualMode(mode) })
	writeJSON(w, map[string]any{"success": true, "mode": req.Mode})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Sim.Do(func(sim *engine.Simulation) { sim.ResetPositions() })
	writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 10 {
			http.Error(w, "speed must be 0-10", http.StatusBadRequest)
			return
		}
		s.Eng.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
