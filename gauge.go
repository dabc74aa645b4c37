package gauge

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/flavioheleno/gaugesprite/internal/logger"
	"github.com/flavioheleno/gaugesprite/rgb565"
	"github.com/flavioheleno/gaugesprite/sprite"
)

// Dial geometry, in degrees clockwise from 12 o'clock.
const (
	StartAngle = 45
	EndAngle   = 315
	Sweep      = EndAngle - StartAngle
)

const (
	arcInset    = 2  // Arc radius below the gauge radius
	needleInset = 10 // Needle length below the gauge radius
	hubRadius   = 5
	textOffset  = 20 // Distance of the label and value from the centre
)

var (
	// ErrInvalidRadius is returned by New for a radius below 1 or too large
	// to double.
	ErrInvalidRadius = errors.New("gauge: radius must be positive")
	// ErrInvalidRange is returned by New unless Min < Max, both finite.
	ErrInvalidRange = errors.New("gauge: min must be less than max")
	// ErrClosed is returned when using a gauge after Close.
	ErrClosed = errors.New("gauge: closed")
)

// Sprite is the off-screen buffer a gauge paints into.
//
// *sprite.Sprite implements it.
type Sprite interface {
	Fill(c rgb565.Color)
	DrawLine(x0, y0, x1, y1 int, c rgb565.Color)
	FillCircle(x, y, r int, c rgb565.Color)
	SetTextColor(c rgb565.Color)
	SetTextDatum(d sprite.Datum)
	DrawString(s string, x, y int) int
	Push(x, y int) error
	Delete() error
}

var _ Sprite = (*sprite.Sprite)(nil)

// Allocator hands out sprites.
type Allocator interface {
	NewSprite(w, h int) (Sprite, error)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(w, h int) (Sprite, error)

// NewSprite calls f(w, h).
func (f AllocatorFunc) NewSprite(w, h int) (Sprite, error) {
	return f(w, h)
}

// OnCanvas returns an Allocator backed by c.
func OnCanvas(c *sprite.Canvas) Allocator {
	return AllocatorFunc(func(w, h int) (Sprite, error) {
		s, err := c.NewSprite(w, h)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Opts is the configuration for a Gauge.
type Opts struct {
	X, Y int // Centre on the display
	R    int // Radius

	Label string // Drawn above the centre
	Units string // Appended to the value below the centre

	Min, Max float64

	Background rgb565.Color // default: black
}

// Gauge is a radial gauge drawn into its own sprite.
//
// A Gauge is not safe for concurrent use.
type Gauge struct {
	s Sprite

	x, y, r int

	min, max float64
	value    float64

	background rgb565.Color
	arc        rgb565.Color
	needle     rgb565.Color

	label string
	units string
}

// New allocates a (2·R)×(2·R) sprite from a and returns a gauge showing
// opts.Min.
func New(a Allocator, opts *Opts) (*Gauge, error) {
	if opts == nil || opts.R <= 0 || opts.R > math.MaxInt/2 {
		return nil, ErrInvalidRadius
	}
	if !(opts.Min < opts.Max) || math.IsInf(opts.Min, 0) || math.IsInf(opts.Max, 0) {
		return nil, fmt.Errorf("%w: got [%g, %g]", ErrInvalidRange, opts.Min, opts.Max)
	}

	s, err := a.NewSprite(opts.R*2, opts.R*2)
	if err != nil {
		return nil, fmt.Errorf("gauge: allocating %dx%d sprite: %w", opts.R*2, opts.R*2, err)
	}
	s.SetTextDatum(sprite.MiddleCentre)

	return &Gauge{
		s:          s,
		x:          opts.X,
		y:          opts.Y,
		r:          opts.R,
		min:        opts.Min,
		max:        opts.Max,
		value:      opts.Min,
		background: opts.Background,
		arc:        rgb565.Blue,
		needle:     rgb565.Red,
		label:      opts.Label,
		units:      opts.Units,
	}, nil
}

// SetValue stores v clamped to [Min, Max]. NaN is treated as Min.
//
// It does not redraw.
func (g *Gauge) SetValue(v float64) {
	switch {
	case math.IsNaN(v), v < g.min:
		v = g.min
	case v > g.max:
		v = g.max
	}
	g.value = v
}

// Value returns the current value.
func (g *Gauge) Value() float64 {
	return g.value
}

// SetColors sets the arc and needle colours used by the next Draw.
func (g *Gauge) SetColors(arc, needle rgb565.Color) {
	g.arc = arc
	g.needle = needle
}

// NeedleAngle returns the needle position for the current value.
func (g *Gauge) NeedleAngle() float64 {
	percent := (g.value - g.min) / (g.max - g.min)
	return StartAngle + percent*Sweep
}

// Bounds returns the display area covered by the gauge.
func (g *Gauge) Bounds() image.Rectangle {
	return image.Rect(g.x-g.r, g.y-g.r, g.x+g.r, g.y+g.r)
}

// Draw repaints the sprite and pushes it to the display.
func (g *Gauge) Draw() error {
	if g.s == nil {
		return ErrClosed
	}
	c := g.r // Centre in sprite coordinates
	angle := g.NeedleAngle()

	g.s.Fill(g.background)
	g.drawArc(c, c, g.r-arcInset, StartAngle, EndAngle, g.arc)

	nx, ny := polar(c, c, g.r-needleInset, angle)
	g.s.DrawLine(c, c, nx, ny, g.needle)
	g.s.FillCircle(c, c, hubRadius, g.needle)

	g.s.SetTextColor(rgb565.White)
	g.s.DrawString(strconv.FormatFloat(g.value, 'f', 1, 64)+g.units, c, c+textOffset)
	g.s.DrawString(g.label, c, c-textOffset)

	logger.L().Debug("gauge: draw", "label", g.label, "value", g.value, "angle", angle)
	if err := g.s.Push(g.x-g.r, g.y-g.r); err != nil {
		return fmt.Errorf("gauge: push: %w", err)
	}
	return nil
}

// drawArc chains one-degree segments from start to end.
func (g *Gauge) drawArc(cx, cy, r, start, end int, c rgb565.Color) {
	x1, y1 := polar(cx, cy, r, float64(start))
	for i := start; i < end; i++ {
		x2, y2 := polar(cx, cy, r, float64(i+1))
		g.s.DrawLine(x1, y1, x2, y2, c)
		x1, y1 = x2, y2
	}
}

// Close releases the sprite. The gauge cannot be drawn afterwards.
func (g *Gauge) Close() error {
	if g.s == nil {
		return ErrClosed
	}
	s := g.s
	g.s = nil
	if err := s.Delete(); err != nil {
		logger.L().Warn("gauge: releasing sprite", "label", g.label, "err", err)
		return fmt.Errorf("gauge: releasing sprite: %w", err)
	}
	logger.L().Debug("gauge: closed", "label", g.label)
	return nil
}

// polar returns the point at distance r from (cx, cy) along deg, measured
// clockwise from 12 o'clock. Coordinates are truncated.
func polar(cx, cy, r int, deg float64) (int, int) {
	s, c := math.Sincos((deg - 90) * math.Pi / 180)
	return int(float64(cx) + float64(r)*c), int(float64(cy) + float64(r)*s)
}
