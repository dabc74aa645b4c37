package gauge_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	gauge "github.com/flavioheleno/gaugesprite"
	"github.com/flavioheleno/gaugesprite/ili9341"
	"github.com/flavioheleno/gaugesprite/rgb565"
	"github.com/flavioheleno/gaugesprite/sprite"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

// screen is a display.Drawer that keeps what it was sent.
type screen struct {
	img   *rgb565.Image
	draws []image.Rectangle
}

func newScreen(w, h int) *screen {
	return &screen{img: rgb565.NewImage(image.Rect(0, 0, w, h))}
}

func (s *screen) String() string          { return "screen" }
func (s *screen) Halt() error             { return nil }
func (s *screen) ColorModel() color.Model { return rgb565.Model }
func (s *screen) Bounds() image.Rectangle { return s.img.Rect }

func (s *screen) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	s.draws = append(s.draws, dst)
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			s.img.Set(x, y, src.At(sp.X+x-dst.Min.X, sp.Y+y-dst.Min.Y))
		}
	}
	return nil
}

func TestDrawPixels(t *testing.T) {
	scr := newScreen(240, 320)
	canvas := sprite.NewCanvas(scr, nil)

	g, err := gauge.New(gauge.OnCanvas(canvas), &gauge.Opts{
		X: 120, Y: 160, R: 50,
		Label: "RPM", Units: "k",
		Min: 0, Max: 8,
		Background: rgb565.Navy,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	g.SetColors(rgb565.Cyan, rgb565.Orange)
	if err := g.Draw(); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	if len(scr.draws) != 1 || scr.draws[0] != image.Rect(70, 110, 170, 210) {
		t.Fatalf("draws = %v, want one at (70,110)-(170,210)", scr.draws)
	}

	// Screen coordinates are sprite coordinates offset by (70, 110).
	tests := []struct {
		name string
		x, y int
		want rgb565.Color
	}{
		{"outside the gauge", 10, 10, rgb565.Black},
		{"sprite corner", 70, 110, rgb565.Navy},
		{"hub", 120, 160, rgb565.Orange},
		{"hub edge", 125, 160, rgb565.Orange},
		{"arc bottom", 120, 208, rgb565.Cyan},
		{"arc right", 168, 160, rgb565.Cyan},
		{"needle tip at min", 70 + 78, 110 + 21, rgb565.Orange},
	}
	for _, tt := range tests {
		if got := scr.img.RGB565At(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d, %d) = %#04x, want %#04x", tt.name, tt.x, tt.y, got, tt.want)
		}
	}

	// The label and value leave white pixels above and below the hub.
	above, below := 0, 0
	for y := 110; y < 210; y++ {
		for x := 70; x < 170; x++ {
			if scr.img.RGB565At(x, y) != rgb565.White {
				continue
			}
			if y < 160 {
				above++
			} else {
				below++
			}
		}
	}
	if above == 0 || below == 0 {
		t.Errorf("white text pixels above = %d, below = %d, want both > 0", above, below)
	}
}

func TestDrawOnILI9341(t *testing.T) {
	rec := &spitest.Record{}
	dev, err := ili9341.NewSPI(rec, &gpiotest.Pin{N: "DC"}, &ili9341.Opts{
		W:   240,
		H:   320,
		RST: &gpiotest.Pin{N: "RST"},
	})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}

	g, err := gauge.New(gauge.OnCanvas(sprite.NewCanvas(dev, nil)), &gauge.Opts{
		X: 120, Y: 160, R: 50, Label: "Temp", Units: "C", Min: -40, Max: 120,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	rec.Ops = nil
	g.SetValue(85)
	if err := g.Draw(); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	// The changed window must lie within the gauge.
	var caset, paset []byte
	for i, op := range rec.Ops {
		if i+1 >= len(rec.Ops) {
			break
		}
		switch {
		case bytes.Equal(op.W, []byte{0x2A}):
			caset = rec.Ops[i+1].W
		case bytes.Equal(op.W, []byte{0x2B}):
			paset = rec.Ops[i+1].W
		}
	}
	if len(caset) != 4 || len(paset) != 4 {
		t.Fatalf("no address window sent, ops = %d", len(rec.Ops))
	}
	x0, x1 := int(caset[0])<<8|int(caset[1]), int(caset[2])<<8|int(caset[3])
	y0, y1 := int(paset[0])<<8|int(paset[1]), int(paset[2])<<8|int(paset[3])
	window := image.Rect(x0, y0, x1+1, y1+1)
	if !window.In(g.Bounds()) {
		t.Errorf("window %v is not within the gauge %v", window, g.Bounds())
	}

	// Redrawing the same value sends nothing.
	rec.Ops = nil
	if err := g.Draw(); err != nil {
		t.Fatalf("second Draw() error = %v", err)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("unchanged Draw sent %d writes, want 0", len(rec.Ops))
	}
}
