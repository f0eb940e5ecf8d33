package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCamera() Camera {
	c := newCamera(DefaultParams())
	c.setViewport(800, 600)
	return c
}

func TestCameraOpsNoopWithoutViewport(t *testing.T) {
	c := newCamera(DefaultParams())

	c.Pan(100, 100)
	c.ZoomBy(2)
	c.MoveTo(500, 500, 2)
	c.update(1.0 / 60)

	assert.Zero(t, c.OffsetX)
	assert.Zero(t, c.OffsetY)
	assert.Equal(t, 1.0, c.Zoom)
	assert.False(t, c.State().Moving)
}

func TestCameraPanClamps(t *testing.T) {
	p := DefaultParams()
	c := testCamera()

	c.Pan(-1e6, -1e6)
	assert.Zero(t, c.OffsetX)
	assert.Zero(t, c.OffsetY)

	c.Pan(1e6, 1e6)
	assert.InDelta(t, p.WorldWidth-800/c.Zoom, c.OffsetX, 1e-9)
	assert.InDelta(t, p.WorldHeight-600/c.Zoom, c.OffsetY, 1e-9)
}

func TestCameraZoomAnchorsViewportCenter(t *testing.T) {
	c := testCamera()
	c.Pan(400, 300)

	cx := c.OffsetX + 400/c.Zoom
	cy := c.OffsetY + 300/c.Zoom

	c.ZoomBy(1.5)
	require.InDelta(t, 1.5, c.Zoom, 1e-9)
	assert.InDelta(t, cx, c.OffsetX+400/c.Zoom, 1e-9)
	assert.InDelta(t, cy, c.OffsetY+300/c.Zoom, 1e-9)
}

func TestCameraZoomClampsToRange(t *testing.T) {
	p := DefaultParams()
	c := testCamera()

	c.ZoomBy(1000)
	assert.Equal(t, p.MaxZoom, c.Zoom)

	c.ZoomBy(1e-6)
	assert.Equal(t, p.MinZoom, c.Zoom)
}

func TestCameraMoveToConverges(t *testing.T) {
	c := testCamera()
	c.MoveTo(2000, 1200, 1.5)
	require.True(t, c.State().Moving)

	for i := 0; i < 600 && c.State().Moving; i++ {
		c.update(1.0 / 60)
	}
	require.False(t, c.State().Moving)

	assert.InDelta(t, 1.5, c.Zoom, 1e-9)
	assert.InDelta(t, 2000, c.OffsetX+400/c.Zoom, 1e-6)
	assert.InDelta(t, 1200, c.OffsetY+300/c.Zoom, 1e-6)
}

func TestCameraPanCancelsMove(t *testing.T) {
	c := testCamera()
	c.MoveTo(2000, 1200, 1.5)
	require.True(t, c.State().Moving)

	c.Pan(10, 10)
	assert.False(t, c.State().Moving)

	z := c.Zoom
	c.update(1.0 / 60)
	assert.Equal(t, z, c.Zoom, "cancelled move must not keep zooming")
}

func TestCameraCoordinateRoundTrip(t *testing.T) {
	c := testCamera()
	c.Pan(250, 125)
	c.ZoomBy(1.4)

	wx, wy := c.ScreenToWorld(123, 456)
	sx, sy := c.WorldToScreen(wx, wy)
	assert.InDelta(t, 123, sx, 1e-9)
	assert.InDelta(t, 456, sy, 1e-9)
}
