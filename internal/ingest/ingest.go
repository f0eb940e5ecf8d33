// Package ingest loads culture records from the processed dataset CSV.
// The upstream pipeline emits one row per culture:
//
//	Name, Kinships, Affiliation, Knowledgebase, Openness, Scope,
//	Sides, InteriorParticleCount, ParticlesPerEdge, BorderParticleCount,
//	TotalParticleCount, Color
//
// Kinship and affiliation fields are kept as names here; resolution against
// the full dataset happens when the simulation is built.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/kinship-viz/internal/culture"
)

// Record is one validated culture row.
type Record struct {
	Name        string
	Kinships    []string
	Affiliation string // empty when unaffiliated
	Knowledge   int
	Openness    int
	Language    int
	Scope       culture.ScopeLevel
	Sides       int
	Interior    int
	PerEdge     int
	Border      int
	Hue         float64 // degrees, derived from the hex color column
}

// column aliases, matched case-insensitively against the header row.
var aliases = map[string][]string{
	"name":        {"name", "culture", "label"},
	"kinships":    {"kinships", "peers", "kin"},
	"affiliation": {"affiliation", "affiliations", "parent"},
	"knowledge":   {"knowledgebase", "knowledge", "kb"},
	"openness":    {"openness", "openess"},
	"language":    {"language", "languagestability"},
	"scope":       {"scope", "level"},
	"sides":       {"sides"},
	"interior":    {"interiorparticlecount", "interior"},
	"peredge":     {"particlesperedge", "peredge"},
	"border":      {"borderparticlecount", "border"},
	"total":       {"totalparticlecount", "total"},
	"color":       {"color", "colour", "hex"},
}

// Load reads and parses a dataset CSV from disk.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads culture records from CSV data. Degenerate geometry is clamped
// rather than rejected; duplicate names keep the first occurrence.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	seen := make(map[string]bool)
	line := 1

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++

		get := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := get("name")
		if name == "" {
			slog.Warn("skipping row with empty name", "line", line)
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			slog.Warn("duplicate culture name, keeping first", "name", name, "line", line)
			continue
		}
		seen[key] = true

		rec := Record{
			Name:        name,
			Kinships:    splitList(get("kinships")),
			Affiliation: get("affiliation"),
			Knowledge:   parseScore(get("knowledge"), 5),
			Openness:    parseScore(get("openness"), 5),
			Language:    parseScore(get("language"), 5),
			Scope:       ParseScope(get("scope")),
			Sides:       atoi(get("sides"), 3),
			Interior:    atoi(get("interior"), 0),
			PerEdge:     atoi(get("peredge"), 1),
			Border:      atoi(get("border"), 0),
		}

		// Degenerate geometry is clamped, never fatal.
		if rec.Sides < 3 {
			slog.Warn("clamping sides to 3", "name", name, "sides", rec.Sides)
			rec.Sides = 3
		}
		if rec.Interior < 0 {
			rec.Interior = 0
		}
		if rec.Border < 0 {
			rec.Border = 0
		}
		if total := atoi(get("total"), rec.Interior+rec.Border); total != rec.Interior+rec.Border {
			slog.Warn("particle total mismatch, using interior+border",
				"name", name, "declared", total, "computed", rec.Interior+rec.Border)
		}
		// The upstream pipeline guarantees at least 50 particles per culture.
		if rec.Interior+rec.Border < 50 {
			slog.Warn("particle count below pipeline minimum",
				"name", name, "total", rec.Interior+rec.Border)
		}

		hue, err := HueFromHex(get("color"))
		if err != nil {
			slog.Warn("invalid color, using name-derived hue", "name", name, "error", err)
			hue = fallbackHue(name)
		}
		rec.Hue = hue

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("dataset contains no culture rows")
	}
	return records, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for key, names := range aliases {
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(h))
			for _, alias := range names {
				if h == alias {
					cols[key] = i
				}
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("dataset header has no name column: %v", header)
	}
	return cols, nil
}

// ParseScope maps a free-form scope string to a ScopeLevel. Unrecognized
// values default to local, the smallest plausible shared scope.
func ParseScope(s string) culture.ScopeLevel {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(t, "family") || strings.Contains(t, "household"):
		return culture.ScopeFamily
	case strings.Contains(t, "global") || strings.Contains(t, "world") || strings.Contains(t, "inter"):
		return culture.ScopeGlobal
	case strings.Contains(t, "nation") || strings.Contains(t, "country") || strings.Contains(t, "federal"):
		return culture.ScopeNational
	case strings.Contains(t, "region") || strings.Contains(t, "state") || strings.Contains(t, "province") || strings.Contains(t, "district"):
		return culture.ScopeRegional
	default:
		return culture.ScopeLocal
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.TrimSpace(part)
		if part == "" || seen[strings.ToLower(part)] {
			continue
		}
		seen[strings.ToLower(part)] = true
		out = append(out, part)
	}
	return out
}

func parseScore(s string, def int) int {
	v := atoi(s, def)
	if v < 1 || v > 10 {
		return def
	}
	return v
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return int(v)
}

// HueFromHex converts a #RRGGBB color to its HSL hue in degrees.
func HueFromHex(hex string) (float64, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q is not #RRGGBB", hex)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", hex, err)
	}
	r := float64(n>>16&0xFF) / 255
	g := float64(n>>8&0xFF) / 255
	b := float64(n&0xFF) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	if max == min {
		return 0, nil // achromatic
	}

	d := max - min
	var h float64
	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, nil
}

// fallbackHue derives a stable hue from a name when the color column is
// missing or malformed.
func fallbackHue(name string) float64 {
	var sum uint32
	for _, r := range strings.ToLower(name) {
		sum = sum*31 + uint32(r)
	}
	return float64(sum % 360)
}
