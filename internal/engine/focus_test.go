package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kinship-viz/internal/culture"
)

func TestFocusArrangesScene(t *testing.T) {
	s := newTestSim(t, testRecords())
	p := s.Params
	alpha := s.ByName["Alpha"]

	s.Focus(alpha.ID)

	cx, cy := p.WorldWidth/2, p.WorldHeight/2
	assert.Equal(t, p.FocusScale, alpha.TargetScale)
	assert.Equal(t, p.FocusOpacity, alpha.TargetOpacity)
	assert.Equal(t, p.FocusLayer, alpha.Layer)
	assert.Equal(t, cx, alpha.TargetX)
	assert.Equal(t, cy, alpha.TargetY)
	assert.True(t, alpha.Transitioning)

	for _, name := range []string{"Beta", "Gamma"} {
		k := s.ByName[name]
		assert.Equal(t, p.KinScale, k.TargetScale, name)
		assert.Equal(t, p.KinOpacity, k.TargetOpacity, name)
		assert.Equal(t, p.KinLayer, k.Layer, name)
		dist := math.Hypot(k.TargetX-cx, k.TargetY-cy)
		assert.InDelta(t, p.KinRingRadius, dist, 1e-6, name)
	}

	delta := s.ByName["Delta"]
	assert.Equal(t, p.DimScale, delta.TargetScale)
	assert.Equal(t, p.DimOpacity, delta.TargetOpacity)
	assert.Equal(t, p.DimLayer, delta.Layer)

	assert.Equal(t, alpha.ID, s.Focused)
	assert.Equal(t, uint64(1), s.Stats.Episodes)
}

func TestFocusAllocatesFlows(t *testing.T) {
	s := newTestSim(t, testRecords())
	p := s.Params
	alpha := s.ByName["Alpha"]
	beta := s.ByName["Beta"]
	gamma := s.ByName["Gamma"]

	s.Focus(alpha.ID)

	// floor(40 * 0.5) outbound from the focused culture.
	wantOut := int(math.Floor(40 * p.FlowFraction))
	wantExchanges := int(math.Floor(float64(wantOut) * p.ExchangeRatio))

	out, exchanges := 0, 0
	for _, prt := range s.Particles {
		st, ok := prt.State.(culture.Activating)
		if !ok || prt.Home != alpha.ID {
			continue
		}
		out++
		assert.Contains(t, []culture.ID{beta.ID, gamma.ID}, st.Target)
		assert.Equal(t, alpha.ID, st.Partner)
		assert.GreaterOrEqual(t, st.Delay, 0.0)
		assert.Less(t, st.Delay, p.MaxActivationDelay)
		if st.Exchange != nil {
			exchanges++
			assert.Equal(t, st.Target, *st.Exchange)
		}
	}
	assert.Equal(t, wantOut, out)
	assert.Equal(t, wantExchanges, exchanges)

	// Reverse flows: floor(pool * 0.1) from each kin, targeting the focused.
	for _, kin := range []*culture.Culture{beta, gamma} {
		wantRev := int(math.Floor(float64(kin.InteriorCount) * p.ReverseFraction))
		rev := 0
		for _, prt := range s.Particles {
			st, ok := prt.State.(culture.Activating)
			if !ok || prt.Home != kin.ID {
				continue
			}
			rev++
			assert.Equal(t, alpha.ID, st.Target)
			assert.Equal(t, kin.ID, st.Partner)
		}
		assert.Equal(t, wantRev, rev, kin.Name)
	}

	// Border particles never join a flow.
	for _, prt := range s.Particles {
		if prt.Border {
			assert.True(t, prt.Contained())
		}
	}
}

func TestFocusWithoutKinAllocatesNothing(t *testing.T) {
	s := newTestSim(t, testRecords())
	delta := s.ByName["Delta"]

	s.Focus(delta.ID)

	for _, prt := range s.Particles {
		assert.True(t, prt.Contained())
	}
	assert.Equal(t, delta.ID, s.Focused)
}

func TestFocusUnknownCultureIsNoop(t *testing.T) {
	s := newTestSim(t, testRecords())
	s.Focus(culture.ID(999))
	assert.Equal(t, culture.NoCulture, s.Focused)
	assert.Zero(t, s.Stats.Episodes)
}

func TestRefocusDeactivatesPreviousEpisode(t *testing.T) {
	s := newTestSim(t, testRecords())
	alpha := s.ByName["Alpha"]
	delta := s.ByName["Delta"]

	s.Focus(alpha.ID)
	s.Focus(delta.ID)

	// Alpha's staged particles never left their container, so the second
	// focus drops them straight back to contained. Delta has no kin.
	for _, prt := range s.Particles {
		assert.True(t, prt.Contained())
	}
	assert.Equal(t, delta.ID, s.Focused)
	assert.Equal(t, uint64(2), s.Stats.Episodes)
}

func TestFlowingParticlesEventuallyExchange(t *testing.T) {
	s := newTestSim(t, testRecords())
	p := s.Params
	alpha := s.ByName["Alpha"]

	s.Focus(alpha.ID)
	wantOut := int(math.Floor(40 * p.FlowFraction))
	wantExchanges := int(math.Floor(float64(wantOut) * p.ExchangeRatio))

	// Long enough for transitions, travel both ways, and stragglers.
	for i := 0; i < 60*60 && s.Stats.Exchanges < uint64(wantExchanges); i++ {
		s.Advance(1.0 / 60)
	}
	assert.GreaterOrEqual(t, s.Stats.Exchanges, uint64(wantExchanges))
}

func TestExitFocusRestoresRestState(t *testing.T) {
	s := newTestSim(t, testRecords())
	p := s.Params
	alpha := s.ByName["Alpha"]

	s.Focus(alpha.ID)
	for i := 0; i < 180; i++ {
		s.Advance(1.0 / 60)
	}

	s.ExitFocus()
	require.NotNil(t, s.seq)
	for i := 0; i < 600; i++ {
		s.Advance(1.0 / 60)
	}

	assert.Nil(t, s.seq)
	assert.Equal(t, culture.NoCulture, s.Focused)

	for i, c := range s.Cultures {
		assert.InDelta(t, p.RestScale, c.Scale, 0.01, c.Name)
		assert.InDelta(t, p.RestOpacity, c.Opacity, 0.01, c.Name)
		assert.Equal(t, p.RestLayer, c.Layer, c.Name)
		assert.Equal(t, s.baseHomes[i].X, c.HomeX, c.Name)
		assert.Equal(t, s.baseHomes[i].Y, c.HomeY, c.Name)
	}
	for _, prt := range s.Particles {
		assert.True(t, prt.Contained())
		assert.Equal(t, prt.Home, prt.Culture)
	}
}

func TestExitFocusFlushesPendingExchanges(t *testing.T) {
	s := newTestSim(t, testRecords())
	p := s.Params
	alpha := s.ByName["Alpha"]

	s.Focus(alpha.ID)
	// Past every activation delay so exchanges are committed to flows.
	for i := 0; i < int(60*(p.MaxActivationDelay+1)); i++ {
		s.Advance(1.0 / 60)
	}

	already := s.Stats.Exchanges
	s.ExitFocus()
	s.Advance(1.0 / 60)

	wantOut := int(math.Floor(40 * p.FlowFraction))
	wantExchanges := uint64(int(math.Floor(float64(wantOut) * p.ExchangeRatio)))
	_ = already
	assert.Equal(t, wantExchanges, s.Stats.Exchanges,
		"every allocated exchange lands exactly once, delivered or flushed")
}

func TestExitBeforeActivationFlushesExchanges(t *testing.T) {
	s := newTestSim(t, testRecords())
	p := s.Params
	alpha := s.ByName["Alpha"]

	s.Focus(alpha.ID)
	wantOut := int(math.Floor(40 * p.FlowFraction))
	want := uint64(int(math.Floor(float64(wantOut) * p.ExchangeRatio)))

	// Exit immediately, before any activation delay has elapsed. Particles
	// that never left home still deliver their allocated exchange.
	s.ExitFocus()
	assert.Equal(t, want, s.Stats.Exchanges)
	for _, prt := range s.Particles {
		assert.True(t, prt.Contained())
	}
}

func TestExchangeAppliesJitteredColor(t *testing.T) {
	s := newTestSim(t, testRecords())
	alpha := s.ByName["Alpha"]

	s.Focus(alpha.ID)

	type pending struct {
		prt    *culture.Particle
		before culture.Color
		donor  culture.ID
	}
	var marked []pending
	for _, prt := range s.Particles {
		if st, ok := prt.State.(culture.Activating); ok && st.Exchange != nil {
			marked = append(marked, pending{prt, prt.Color, *st.Exchange})
		}
	}
	require.NotEmpty(t, marked)

	s.ExitFocus()
	for _, m := range marked {
		donor := s.cultureByID(m.donor)
		assert.Equal(t, donor.Hue, m.prt.Color.Hue)
		assert.NotEqual(t, m.before, m.prt.Color, "saturation/lightness re-roll on exchange")
		assert.InDelta(t, 0.62, m.prt.Color.Saturation, 0.15+1e-9)
		assert.InDelta(t, 0.55, m.prt.Color.Lightness, 0.12+1e-9)
	}
}

func TestExitFocusWithoutFocusIsNoop(t *testing.T) {
	s := newTestSim(t, testRecords())
	s.ExitFocus()
	assert.Nil(t, s.seq)
}
