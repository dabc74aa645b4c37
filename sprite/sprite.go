// Package sprite provides off-screen RGB565 buffers with simple drawing
// primitives, composited onto a display as one unit.
//
// A Canvas hands out sprites from a fixed memory budget, the way a
// microcontroller hands out heap for frame buffers. A sprite is drawn into
// with pixel, line, circle and text primitives and then pushed to the
// display at a pixel offset.
//
//	c := sprite.NewCanvas(dev, &sprite.Opts{MaxBytes: 64 << 10})
//	s, err := c.NewSprite(100, 100)
//	if err != nil {
//		return err
//	}
//	defer s.Delete()
//	s.Fill(rgb565.Black)
//	s.DrawLine(0, 0, 99, 99, rgb565.Red)
//	s.SetTextDatum(sprite.MiddleCentre)
//	s.DrawString("hello", 50, 50)
//	err = s.Push(70, 110)
package sprite

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/flavioheleno/gaugesprite/internal/logger"
	"github.com/flavioheleno/gaugesprite/rgb565"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
)

var (
	// ErrInvalidSize is returned when a sprite has no area.
	ErrInvalidSize = errors.New("sprite: width and height must be positive")
	// ErrNoMemory is returned when the canvas budget cannot fit a new sprite.
	ErrNoMemory = errors.New("sprite: not enough memory")
	// ErrDeleted is returned when using a sprite after Delete.
	ErrDeleted = errors.New("sprite: deleted")
	// ErrNoDisplay is returned by Push on a canvas without a display.
	ErrNoDisplay = errors.New("sprite: no display")
)

// Opts is the configuration for a Canvas.
type Opts struct {
	// MaxBytes caps the memory held by live sprites (0: unlimited).
	MaxBytes int
}

// Canvas allocates sprites and owns the display they are pushed to.
type Canvas struct {
	dst  display.Drawer
	max  int
	used int
}

// NewCanvas returns a canvas pushing sprites to dst.
//
// opts can be nil for an unlimited budget.
func NewCanvas(dst display.Drawer, opts *Opts) *Canvas {
	c := &Canvas{dst: dst}
	if opts != nil {
		c.max = opts.MaxBytes
	}
	return c
}

// Used returns the number of bytes held by live sprites.
func (c *Canvas) Used() int {
	return c.used
}

// NewSprite allocates a w×h sprite, cleared to black.
func (c *Canvas) NewSprite(w, h int) (*Sprite, error) {
	if w <= 0 || h <= 0 || w > math.MaxInt/2/h {
		return nil, ErrInvalidSize
	}
	n := w * h * 2
	if c.max > 0 && c.used+n > c.max {
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrNoMemory, n, c.used, c.max)
	}
	c.used += n
	logger.L().Debug("sprite: allocated", "w", w, "h", h, "bytes", n, "used", c.used)

	return &Sprite{
		c:         c,
		img:       rgb565.NewImage(image.Rect(0, 0, w, h)),
		textColor: rgb565.White,
		face:      basicfont.Face7x13,
	}, nil
}

func (c *Canvas) release(n int) {
	c.used -= n
	logger.L().Debug("sprite: released", "bytes", n, "used", c.used)
}

// Datum selects which point of a string's bounding box DrawString anchors
// to the given coordinates.
type Datum uint8

// Text datums.
const (
	TopLeft Datum = iota
	TopCentre
	TopRight
	MiddleLeft
	MiddleCentre
	MiddleRight
	BottomLeft
	BottomCentre
	BottomRight
)

// Sprite is an off-screen RGB565 buffer.
//
// Primitives clip to the sprite bounds and do nothing after Delete.
type Sprite struct {
	c         *Canvas
	img       *rgb565.Image
	textColor rgb565.Color
	datum     Datum
	face      font.Face
}

// Bounds returns the sprite bounds, always anchored at (0, 0).
func (s *Sprite) Bounds() image.Rectangle {
	if s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Rect
}

// Image returns the backing image, nil after Delete.
func (s *Sprite) Image() *rgb565.Image {
	return s.img
}

// Fill sets every pixel to c.
func (s *Sprite) Fill(c rgb565.Color) {
	if s.img == nil {
		return
	}
	s.img.Fill(c)
}

// DrawPixel sets the pixel at (x, y).
func (s *Sprite) DrawPixel(x, y int, c rgb565.Color) {
	if s.img == nil {
		return
	}
	s.img.SetRGB565(x, y, c)
}

// DrawFastHLine draws w pixels to the right of (x, y).
func (s *Sprite) DrawFastHLine(x, y, w int, c rgb565.Color) {
	if s.img == nil {
		return
	}
	for i := 0; i < w; i++ {
		s.img.SetRGB565(x+i, y, c)
	}
}

// DrawFastVLine draws h pixels below (x, y).
func (s *Sprite) DrawFastVLine(x, y, h int, c rgb565.Color) {
	if s.img == nil {
		return
	}
	for i := 0; i < h; i++ {
		s.img.SetRGB565(x, y+i, c)
	}
}

// DrawLine draws a one pixel line from (x0, y0) to (x1, y1), both ends
// included.
func (s *Sprite) DrawLine(x0, y0, x1, y1 int, c rgb565.Color) {
	if s.img == nil {
		return
	}
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		s.img.SetRGB565(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawCircle draws the outline of a circle centred on (x0, y0).
func (s *Sprite) DrawCircle(x0, y0, r int, c rgb565.Color) {
	if s.img == nil || r < 0 {
		return
	}
	f := 1 - r
	ddx := 1
	ddy := -2 * r
	x, y := 0, r

	s.img.SetRGB565(x0, y0+r, c)
	s.img.SetRGB565(x0, y0-r, c)
	s.img.SetRGB565(x0+r, y0, c)
	s.img.SetRGB565(x0-r, y0, c)

	for x < y {
		if f >= 0 {
			y--
			ddy += 2
			f += ddy
		}
		x++
		ddx += 2
		f += ddx

		s.img.SetRGB565(x0+x, y0+y, c)
		s.img.SetRGB565(x0-x, y0+y, c)
		s.img.SetRGB565(x0+x, y0-y, c)
		s.img.SetRGB565(x0-x, y0-y, c)
		s.img.SetRGB565(x0+y, y0+x, c)
		s.img.SetRGB565(x0-y, y0+x, c)
		s.img.SetRGB565(x0+y, y0-x, c)
		s.img.SetRGB565(x0-y, y0-x, c)
	}
}

// FillCircle fills every pixel within r of (x0, y0).
func (s *Sprite) FillCircle(x0, y0, r int, c rgb565.Color) {
	if s.img == nil || r < 0 {
		return
	}
	dx := r
	for dy := 0; dy <= r; dy++ {
		for dx*dx+dy*dy > r*r {
			dx--
		}
		s.DrawFastHLine(x0-dx, y0+dy, 2*dx+1, c)
		if dy != 0 {
			s.DrawFastHLine(x0-dx, y0-dy, 2*dx+1, c)
		}
	}
}

// SetTextColor sets the colour used by DrawString.
func (s *Sprite) SetTextColor(c rgb565.Color) {
	s.textColor = c
}

// SetTextDatum sets the anchor used by DrawString.
func (s *Sprite) SetTextDatum(d Datum) {
	s.datum = d
}

// DrawString renders str anchored at (x, y) according to the text datum and
// returns its width in pixels.
func (s *Sprite) DrawString(str string, x, y int) int {
	w := font.MeasureString(s.face, str).Ceil()
	if s.img == nil || str == "" {
		return w
	}
	m := s.face.Metrics()
	ascent := m.Ascent.Ceil()
	h := ascent + m.Descent.Ceil()

	left, top := x, y
	switch s.datum {
	case TopCentre, MiddleCentre, BottomCentre:
		left -= w / 2
	case TopRight, MiddleRight, BottomRight:
		left -= w
	}
	switch s.datum {
	case MiddleLeft, MiddleCentre, MiddleRight:
		top -= h / 2
	case BottomLeft, BottomCentre, BottomRight:
		top -= h
	}

	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(s.textColor),
		Face: s.face,
		Dot:  fixed.P(left, top+ascent),
	}
	d.DrawString(str)
	return w
}

// Push copies the sprite to the display with its top-left corner at (x, y).
func (s *Sprite) Push(x, y int) error {
	if s.img == nil {
		return ErrDeleted
	}
	if s.c.dst == nil {
		return ErrNoDisplay
	}
	return s.c.dst.Draw(s.img.Rect.Add(image.Pt(x, y)), s.img, s.img.Rect.Min)
}

// Delete releases the sprite memory back to its canvas.
func (s *Sprite) Delete() error {
	if s.img == nil {
		return ErrDeleted
	}
	s.c.release(len(s.img.Pix))
	s.img = nil
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
