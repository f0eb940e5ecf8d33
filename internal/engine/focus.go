// Focus scenario: arranging the focused culture and its kin on screen,
// allocating directed particle flows and color exchanges, and tearing the
// scenario down again.
package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/kinship-viz/internal/culture"
)

// Focus starts a focus episode on the given culture. A previous episode is
// deactivated first; an in-flight exit sequence is cancelled.
func (s *Simulation) Focus(id culture.ID) {
	target := s.cultureByID(id)
	if target == nil {
		slog.Warn("focus on unknown culture", "id", int(id))
		return
	}
	if s.seq != nil {
		s.seq = nil
	}
	if s.Focused != culture.NoCulture {
		s.deactivateFlows()
		s.restoreHomes()
	}
	s.Focused = id
	s.Stats.Episodes++

	p := s.Params
	cx, cy := p.WorldWidth/2, p.WorldHeight/2
	kin := make(map[culture.ID]bool, len(target.Kinships))
	for _, k := range target.Kinships {
		kin[k] = true
	}

	s.arrange(target, cx, cy, p.FocusScale, p.FocusOpacity, p.FocusLayer)
	for i, kid := range target.Kinships {
		k := s.cultureByID(kid)
		if k == nil {
			continue
		}
		ang := 2 * math.Pi * float64(i) / float64(len(target.Kinships))
		s.arrange(k,
			cx+math.Cos(ang)*p.KinRingRadius,
			cy+math.Sin(ang)*p.KinRingRadius,
			p.KinScale, p.KinOpacity, p.KinLayer)
	}
	for _, c := range s.Cultures {
		if c.ID == id || kin[c.ID] {
			continue
		}
		c.TargetScale = p.DimScale
		c.TargetOpacity = p.DimOpacity
		c.Layer = p.DimLayer
	}

	s.allocateFlows(target)
	s.Camera.MoveTo(cx, cy, p.FocusZoom)

	slog.Info("focus started", "culture", target.Name, "kin", len(target.Kinships))
}

// arrange moves a culture to a scene position, parking its home there so the
// spring holds it in place after the transition completes.
func (s *Simulation) arrange(c *culture.Culture, x, y, scale, opacity float64, layer int) {
	c.TargetX, c.TargetY = x, y
	c.HomeX, c.HomeY = x, y
	c.Transitioning = true
	c.VX, c.VY = 0, 0
	c.TargetScale = scale
	c.TargetOpacity = opacity
	c.Layer = layer
}

// restoreHomes puts every culture's home back at its original placement.
func (s *Simulation) restoreHomes() {
	for i, c := range s.Cultures {
		c.HomeX, c.HomeY = s.baseHomes[i].X, s.baseHomes[i].Y
		c.Transitioning = false
	}
}

// allocateFlows selects which contained interior particles of the focused
// culture travel out to kin, which of those carry a color exchange, and the
// smaller reverse flow from each kin back to the focused culture.
func (s *Simulation) allocateFlows(target *culture.Culture) {
	p := s.Params
	if len(target.Kinships) == 0 {
		return
	}

	pool := s.flowPool(target.ID)
	flowCount := int(math.Floor(float64(len(pool)) * p.FlowFraction))
	order := s.Rand.Perm(len(pool))

	// Exchange quotas per kin: even split of the exchange total, earlier kin
	// absorb the remainder.
	n := len(target.Kinships)
	exchangeTotal := int(math.Floor(float64(flowCount) * p.ExchangeRatio))
	quota := make(map[culture.ID]int, n)
	for i, kid := range target.Kinships {
		q := exchangeTotal / n
		if i < exchangeTotal%n {
			q++
		}
		quota[kid] = q
	}

	assigned := 0
	for i := 0; i < flowCount; i++ {
		prt := pool[order[i]]
		kid := target.Kinships[s.Rand.Intn(n)]

		st := culture.Activating{
			Delay:     s.Rand.Float() * p.MaxActivationDelay,
			StartedAt: s.now,
			Target:    kid,
			Partner:   target.ID,
		}
		if quota[kid] > 0 {
			quota[kid]--
			assigned++
			ex := kid
			st.Exchange = &ex
		}
		prt.State = st
	}
	// Quotas a kin never drew roll over onto remaining flowing particles so
	// the exchange total stays exact.
	for i := 0; i < flowCount && assigned < exchangeTotal; i++ {
		prt := pool[order[i]]
		st, ok := prt.State.(culture.Activating)
		if !ok || st.Exchange != nil {
			continue
		}
		ex := st.Target
		st.Exchange = &ex
		prt.State = st
		assigned++
	}

	for _, kid := range target.Kinships {
		k := s.cultureByID(kid)
		if k == nil {
			continue
		}
		kpool := s.flowPool(kid)
		rev := int(math.Floor(float64(len(kpool)) * p.ReverseFraction))
		revOrder := s.Rand.Perm(len(kpool))
		revExchanges := int(math.Floor(float64(rev) * p.ReverseExchangeRatio))
		if p.ReverseExchangePerKin && n > 0 {
			revExchanges = int(math.Floor(float64(rev) * p.ReverseExchangeRatio / float64(n)))
		}
		for i := 0; i < rev; i++ {
			prt := kpool[revOrder[i]]
			st := culture.Activating{
				Delay:     s.Rand.Float() * p.MaxActivationDelay,
				StartedAt: s.now,
				Target:    target.ID,
				Partner:   kid,
			}
			if i < revExchanges {
				ex := target.ID
				st.Exchange = &ex
			}
			prt.State = st
		}
	}
}

// flowPool returns the contained interior particles currently homed at a
// culture. Border particles never flow.
func (s *Simulation) flowPool(id culture.ID) []*culture.Particle {
	var pool []*culture.Particle
	for _, prt := range s.Particles {
		if prt.Border || prt.Culture != id || !prt.Contained() {
			continue
		}
		pool = append(pool, prt)
	}
	return pool
}

// deactivateFlows ends every in-flight particle episode. Pending exchanges
// apply their color immediately so counts stay exact; everything else turns
// for home. Border particles snap straight back to the boundary.
func (s *Simulation) deactivateFlows() {
	for _, prt := range s.Particles {
		if prt.Contained() {
			continue
		}
		if prt.Border {
			if home := s.cultureByID(prt.Home); home != nil {
				s.reparentHome(prt, home)
				s.settle(prt, home)
			}
			continue
		}
		switch st := prt.State.(type) {
		case culture.Activating:
			s.flushExchange(prt, st.Exchange)
			if s.now < st.StartedAt+st.Delay {
				// Never left the container.
				prt.State = culture.Contained{}
				continue
			}
		case culture.Flowing:
			s.flushExchange(prt, st.Exchange)
		case culture.Returning:
			// Already heading home.
			continue
		}
		prt.State = culture.Returning{Target: prt.Home}
	}
}

// flushExchange applies a pending color exchange without requiring arrival.
// The particle takes the donor's hue with fresh saturation/lightness jitter.
func (s *Simulation) flushExchange(prt *culture.Particle, ex *culture.ID) {
	if ex == nil {
		return
	}
	if donor := s.cultureByID(*ex); donor != nil {
		prt.Color = s.jitteredColor(donor.Hue)
	}
	s.Stats.Exchanges++
}

func (s *Simulation) reparentHome(prt *culture.Particle, home *culture.Culture) {
	if cur := s.cultureByID(prt.Culture); cur != nil && cur.ID != home.ID {
		s.reparent(prt, cur, home)
	} else {
		prt.Culture = home.ID
	}
}

// ExitFocus starts the phased exit sequence. A no-op when nothing is focused
// and no sequence is running.
func (s *Simulation) ExitFocus() {
	if s.Focused == culture.NoCulture && s.seq == nil {
		return
	}
	s.seq = newExitSequence(s)
	slog.Info("focus exit started")
}

// SetScopeFilter installs or clears the scope filter. Cultures above the
// filter level fade out; the aggregation pass maintains synthetic groups for
// their hidden parents.
func (s *Simulation) SetScopeFilter(level *culture.ScopeLevel) {
	s.Filter = level
	p := s.Params
	for _, c := range s.Cultures {
		if level != nil && c.Scope > *level {
			c.TargetOpacity = p.HiddenOpacity
			continue
		}
		if s.Focused == culture.NoCulture && c.TargetOpacity == p.HiddenOpacity {
			c.TargetOpacity = p.RestOpacity
		}
	}
	if level == nil {
		slog.Info("scope filter cleared")
	} else {
		slog.Info("scope filter set", "level", culture.ScopeName(*level))
	}
}
