package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kinship-viz/internal/culture"
	"github.com/talgya/kinship-viz/internal/ingest"
)

func hierarchyRecords() []ingest.Record {
	return []ingest.Record{
		{Name: "Nation", Scope: culture.ScopeNational, Interior: 20, PerEdge: 1, Hue: 40},
		{Name: "Town1", Scope: culture.ScopeLocal, Affiliation: "Nation", Interior: 10, PerEdge: 1, Hue: 80},
		{Name: "Town2", Scope: culture.ScopeLocal, Affiliation: "Nation", Interior: 10, PerEdge: 1, Hue: 160},
		{Name: "Lone", Scope: culture.ScopeLocal, Interior: 10, PerEdge: 1, Hue: 240},
	}
}

func TestScopeFilterCreatesSyntheticGroup(t *testing.T) {
	s := newTestSim(t, hierarchyRecords())
	p := s.Params

	local := culture.ScopeLocal
	s.SetScopeFilter(&local)
	s.Advance(1.0 / 60)

	require.Len(t, s.Groups, 1)
	g, ok := s.Groups["Nation"]
	require.True(t, ok)

	nation := s.ByName["Nation"]
	assert.Equal(t, p.HiddenOpacity, nation.TargetOpacity, "hidden parent fades out")
	assert.Equal(t, nation.Sides, g.Sides)
	assert.Equal(t, nation.Hue, g.Hue)
	assert.Len(t, g.Children, 2)
	assert.Len(t, g.Particles, p.GroupParticleCount)

	// Visible cultures keep their rest opacity.
	assert.Equal(t, p.RestOpacity, s.ByName["Lone"].TargetOpacity)

	assert.Equal(t, 1, s.Stats.Groups)
	total := s.Stats.Contained + s.Stats.Activating + s.Stats.Flowing + s.Stats.Returning
	assert.Equal(t, len(s.Particles)+p.GroupParticleCount, total)
}

func TestGroupSizeScalesWithChildren(t *testing.T) {
	s := newTestSim(t, hierarchyRecords())
	p := s.Params

	local := culture.ScopeLocal
	s.SetScopeFilter(&local)
	s.Advance(1.0 / 60)

	g := s.Groups["Nation"]
	require.NotNil(t, g)
	assert.GreaterOrEqual(t, g.Size, p.GroupBaseSize+p.GroupSizeIncrement*2-1)
}

func TestClearingFilterRemovesGroups(t *testing.T) {
	s := newTestSim(t, hierarchyRecords())
	p := s.Params

	local := culture.ScopeLocal
	s.SetScopeFilter(&local)
	s.Advance(1.0 / 60)
	require.Len(t, s.Groups, 1)

	s.SetScopeFilter(nil)
	s.Advance(1.0 / 60)
	assert.Empty(t, s.Groups)
	assert.Equal(t, p.RestOpacity, s.ByName["Nation"].TargetOpacity)
	assert.Zero(t, s.Stats.Groups)
}

func TestFamilyFilterHidesEverythingAboveFamily(t *testing.T) {
	s := newTestSim(t, hierarchyRecords())
	p := s.Params

	family := culture.ScopeFamily
	s.SetScopeFilter(&family)
	s.Advance(1.0 / 60)

	// No family-scope cultures exist, so everything hides and no group has
	// visible children to stand in for.
	for _, c := range s.Cultures {
		assert.Equal(t, p.HiddenOpacity, c.TargetOpacity, c.Name)
	}
	assert.Empty(t, s.Groups)
}

func TestGroupHoldsChildrenInside(t *testing.T) {
	s := newTestSim(t, hierarchyRecords())
	p := s.Params

	local := culture.ScopeLocal
	s.SetScopeFilter(&local)
	for i := 0; i < 300; i++ {
		s.Advance(1.0 / 60)
	}

	g := s.Groups["Nation"]
	require.NotNil(t, g)
	for _, kid := range g.Children {
		c := s.Cultures[int(kid)]
		dist := math.Hypot(c.X-g.X, c.Y-g.Y)
		assert.LessOrEqual(t, dist, g.Size/2-c.Radius()-p.GroupChildMargin+1e-6, c.Name)
	}

	// Clearing the filter releases the children back to their original homes.
	s.SetScopeFilter(nil)
	s.Advance(1.0 / 60)
	for _, name := range []string{"Town1", "Town2"} {
		c := s.ByName[name]
		assert.Equal(t, s.baseHomes[int(c.ID)].X, c.HomeX, name)
		assert.Equal(t, s.baseHomes[int(c.ID)].Y, c.HomeY, name)
	}
}

func TestGroupTracksChildCentroid(t *testing.T) {
	s := newTestSim(t, hierarchyRecords())

	local := culture.ScopeLocal
	s.SetScopeFilter(&local)
	for i := 0; i < 120; i++ {
		s.Advance(1.0 / 60)
	}

	g := s.Groups["Nation"]
	require.NotNil(t, g)
	t1 := s.ByName["Town1"]
	t2 := s.ByName["Town2"]
	cx := (t1.X + t2.X) / 2
	cy := (t1.Y + t2.Y) / 2

	// The group recenters toward the centroid a little every frame; after two
	// seconds it should be in the neighborhood.
	assert.InDelta(t, cx, g.X, g.Size)
	assert.InDelta(t, cy, g.Y, g.Size)
}
