package engine

import (
	"log/slog"

	"github.com/talgya/kinship-viz/internal/culture"
)

// exitSequence runs the phased teardown of a focus episode: shrink the scene
// back to rest, fade everything out, re-randomize particle positions while
// invisible, fade back in. Starting a new focus cancels it.
type exitSequence struct {
	phase   int
	started float64 // sim-clock time the current phase began
}

const (
	phaseShrink = iota
	phaseFadeOut
	phaseRandomize
	phaseFadeIn
)

func newExitSequence(s *Simulation) *exitSequence {
	seq := &exitSequence{started: s.now}
	seq.enterShrink(s)
	return seq
}

func (q *exitSequence) duration(s *Simulation) float64 {
	switch q.phase {
	case phaseShrink:
		return s.Params.ExitShrink
	case phaseFadeOut:
		return s.Params.ExitFadeOut
	case phaseRandomize:
		return s.Params.ExitRandomize
	default:
		return s.Params.ExitFadeIn
	}
}

// step advances the sequence, entering the next phase when the current one
// has run its course. Called once per frame.
func (q *exitSequence) step(s *Simulation) {
	if s.now-q.started < q.duration(s) {
		return
	}
	q.phase++
	q.started = s.now

	switch q.phase {
	case phaseFadeOut:
		for _, c := range s.Cultures {
			c.TargetOpacity = 0
		}
	case phaseRandomize:
		s.ResetPositions()
	case phaseFadeIn:
		p := s.Params
		for _, c := range s.Cultures {
			if s.Filter != nil && c.Scope > *s.Filter {
				c.TargetOpacity = p.HiddenOpacity
				continue
			}
			c.TargetOpacity = p.RestOpacity
		}
	default:
		s.seq = nil
		slog.Info("focus exit complete")
	}
}

// enterShrink ends all flows and sends every culture back toward its original
// home at rest scale.
func (q *exitSequence) enterShrink(s *Simulation) {
	p := s.Params
	s.deactivateFlows()
	s.Focused = culture.NoCulture
	for i, c := range s.Cultures {
		c.TargetX, c.TargetY = s.baseHomes[i].X, s.baseHomes[i].Y
		c.HomeX, c.HomeY = s.baseHomes[i].X, s.baseHomes[i].Y
		c.Transitioning = true
		c.TargetScale = p.RestScale
		c.Layer = p.RestLayer
	}
}
