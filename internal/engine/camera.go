package engine

import (
	"math"

	"github.com/talgya/kinship-viz/internal/culture"
)

// Camera maps world coordinates to the collaborator's viewport through a
// top-left offset and a zoom factor. All camera operations are no-ops until a
// viewport size has been reported.
type Camera struct {
	OffsetX float64 // world x of the viewport top-left
	OffsetY float64
	Zoom    float64

	ViewW float64
	ViewH float64

	worldW  float64
	worldH  float64
	minZoom float64
	maxZoom float64
	rate    float64
	epsilon float64

	// Smooth move-to state. A manual pan cancels an in-flight move.
	moving  bool
	targetX float64 // world point to center on
	targetY float64
	targetZ float64
}

func newCamera(p Params) Camera {
	return Camera{
		Zoom:    1,
		worldW:  p.WorldWidth,
		worldH:  p.WorldHeight,
		minZoom: p.MinZoom,
		maxZoom: p.MaxZoom,
		rate:    p.CameraRate,
		epsilon: p.CameraEpsilon,
	}
}

func (c *Camera) setViewport(w, h float64) {
	c.ViewW, c.ViewH = w, h
	c.clampOffset()
}

func (c *Camera) ready() bool { return c.ViewW > 0 && c.ViewH > 0 }

// Pan moves the camera by a screen-space delta. Cancels any smooth move.
func (c *Camera) Pan(dx, dy float64) {
	if !c.ready() {
		return
	}
	c.moving = false
	c.OffsetX += dx / c.Zoom
	c.OffsetY += dy / c.Zoom
	c.clampOffset()
}

// ZoomBy scales the zoom factor, keeping the world point at the viewport
// center fixed on screen.
func (c *Camera) ZoomBy(factor float64) {
	if !c.ready() || factor <= 0 {
		return
	}
	cx := c.OffsetX + c.ViewW/2/c.Zoom
	cy := c.OffsetY + c.ViewH/2/c.Zoom

	z := c.Zoom * factor
	if z < c.minZoom {
		z = c.minZoom
	} else if z > c.maxZoom {
		z = c.maxZoom
	}
	c.Zoom = z

	c.OffsetX = cx - c.ViewW/2/c.Zoom
	c.OffsetY = cy - c.ViewH/2/c.Zoom
	c.clampOffset()
}

// MoveTo starts a smooth pan/zoom toward centering the given world point at
// the given zoom.
func (c *Camera) MoveTo(worldX, worldY, zoom float64) {
	if !c.ready() {
		return
	}
	if zoom < c.minZoom {
		zoom = c.minZoom
	} else if zoom > c.maxZoom {
		zoom = c.maxZoom
	}
	c.moving = true
	c.targetX, c.targetY, c.targetZ = worldX, worldY, zoom
}

// update advances an in-flight smooth move, snapping once both offset and zoom
// are within epsilon of their targets.
func (c *Camera) update(dt float64) {
	if !c.moving || !c.ready() {
		return
	}

	f := c.rate * dt
	if f > 1 {
		f = 1
	}
	c.Zoom += (c.targetZ - c.Zoom) * f

	wantX := c.targetX - c.ViewW/2/c.Zoom
	wantY := c.targetY - c.ViewH/2/c.Zoom
	c.OffsetX += (wantX - c.OffsetX) * f
	c.OffsetY += (wantY - c.OffsetY) * f
	c.clampOffset()

	if math.Abs(c.OffsetX-wantX) < c.epsilon &&
		math.Abs(c.OffsetY-wantY) < c.epsilon &&
		math.Abs(c.Zoom-c.targetZ) < 0.01 {
		c.Zoom = c.targetZ
		c.OffsetX = c.targetX - c.ViewW/2/c.Zoom
		c.OffsetY = c.targetY - c.ViewH/2/c.Zoom
		c.clampOffset()
		c.moving = false
	}
}

// clampOffset keeps the viewport inside the world. When the visible span
// exceeds the world the offset pins to zero.
func (c *Camera) clampOffset() {
	if !c.ready() {
		return
	}
	maxX := c.worldW - c.ViewW/c.Zoom
	maxY := c.worldH - c.ViewH/c.Zoom
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	c.OffsetX = clamp(c.OffsetX, 0, maxX)
	c.OffsetY = clamp(c.OffsetY, 0, maxY)
}

// ScreenToWorld converts viewport coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return c.OffsetX + sx/c.Zoom, c.OffsetY + sy/c.Zoom
}

// WorldToScreen converts world coordinates to viewport coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	return (wx - c.OffsetX) * c.Zoom, (wy - c.OffsetY) * c.Zoom
}

// MoveCameraToCulture starts a smooth move centering the given culture at its
// current position. Unknown IDs are ignored.
func (s *Simulation) MoveCameraToCulture(id culture.ID, zoom float64) {
	c := s.cultureByID(id)
	if c == nil {
		return
	}
	s.Camera.MoveTo(c.X, c.Y, zoom)
}

// CameraState is the wire representation of the camera.
type CameraState struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Zoom    float64 `json:"zoom"`
	Moving  bool    `json:"moving"`
}

// State returns the camera's wire representation.
func (c *Camera) State() CameraState {
	return CameraState{OffsetX: c.OffsetX, OffsetY: c.OffsetY, Zoom: c.Zoom, Moving: c.moving}
}
