// Package ili9341 controls an ILI9341 TFT display via SPI.
//
// The ILI9341 is a 262K colour controller for 240x320 panels. This driver
// runs it in 16-bit RGB565 mode.
//
// See the examples for how to use this package.
package ili9341

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/flavioheleno/gaugesprite/internal/logger"
	"github.com/flavioheleno/gaugesprite/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Native panel size, in portrait orientation.
const (
	nativeW = 240
	nativeH = 320
)

var (
	// ErrHalted is returned by every operation after Halt.
	ErrHalted = errors.New("ili9341: halted")
	// ErrBufferSize is returned by Write when the frame has the wrong length.
	ErrBufferSize = errors.New("ili9341: invalid buffer size")
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Rotation is the panel orientation, clockwise from portrait.
type Rotation uint8

// Supported rotations.
const (
	Rotate0   Rotation = iota // Portrait, 240x320
	Rotate90                  // Landscape, 320x240
	Rotate180                 // Portrait upside down
	Rotate270                 // Landscape upside down
)

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Display dimensions in pixels, after rotation
	W int // Width (default: 240 portrait or 320 landscape)
	H int // Height (default: 320 portrait or 240 landscape)

	Rotation Rotation
	BGR      bool // Panel wired with blue and red swapped

	// SPI clock (default: 32MHz)
	Hz physic.Frequency

	// Optional hardware reset pin
	RST gpio.PinOut // Reset pin (optional, nil if not used)
}

// Dev is the device handle for the ILI9341 display.
type Dev struct {
	// Communication
	c     conn.Conn   // SPI connection
	dc    gpio.PinOut // Data/Command pin
	rst   gpio.PinOut // Reset pin (optional)
	maxTx int         // Largest single transfer, 0 if unlimited

	rect image.Rectangle

	// Pixel buffers
	buffer []byte        // Frame currently in display RAM
	next   *rgb565.Image // For lazy double buffering

	halted bool
}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (240x320 portrait display). A zero W or H
// takes the full panel size for the rotation.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	hz := opts.Hz
	if hz == 0 {
		hz = 32 * physic.MegaHertz
	}
	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: %w", err)
	}

	d := &Dev{
		c:      c,
		dc:     dc,
		rst:    opts.RST,
		rect:   image.Rect(0, 0, opts.W, opts.H),
		buffer: make([]byte, opts.W*opts.H*2),
	}
	if l, ok := c.(conn.Limits); ok {
		d.maxTx = l.MaxTxSize()
	}

	if err := d.init(opts); err != nil {
		return nil, err
	}
	logger.L().Debug("ili9341: initialized", "w", opts.W, "h", opts.H, "rotation", opts.Rotation, "hz", hz)
	return d, nil
}

// withDefaults returns a copy of o with a zero W or H set to the full panel
// size for the rotation.
func (o *Opts) withDefaults() *Opts {
	c := *o
	w, h := nativeW, nativeH
	if c.Rotation == Rotate90 || c.Rotation == Rotate270 {
		w, h = nativeH, nativeW
	}
	if c.W == 0 {
		c.W = w
	}
	if c.H == 0 {
		c.H = h
	}
	return &c
}

func (o *Opts) validate() error {
	maxW, maxH := nativeW, nativeH
	switch o.Rotation {
	case Rotate0, Rotate180:
	case Rotate90, Rotate270:
		maxW, maxH = nativeH, nativeW
	default:
		return errors.New("ili9341: invalid rotation")
	}
	if o.W <= 0 || o.W > maxW {
		return fmt.Errorf("ili9341: width must be between 1 and %d", maxW)
	}
	if o.H <= 0 || o.H > maxH {
		return fmt.Errorf("ili9341: height must be between 1 and %d", maxH)
	}
	return nil
}

// madctl returns the memory access control byte for the orientation.
func madctl(opts *Opts) byte {
	var m byte
	switch opts.Rotation {
	case Rotate0:
		m = 0x40 // MX
	case Rotate90:
		m = 0x20 // MV
	case Rotate180:
		m = 0x80 // MY
	case Rotate270:
		m = 0xE0 // MY | MX | MV
	}
	if opts.BGR {
		m |= 0x08
	}
	return m
}

// init sends the initialization sequence to the display.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST low: %w", err)
		}
		sleep(10 * time.Millisecond)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
		}
		sleep(120 * time.Millisecond)
	} else {
		if err := d.command(0x01); err != nil { // Software reset
			return err
		}
		sleep(150 * time.Millisecond)
	}

	if err := d.command(0x11); err != nil { // Sleep out
		return err
	}
	sleep(120 * time.Millisecond)

	cmds := [][]byte{
		{0x3A, 0x55},         // Pixel format: 16 bits per pixel
		{0x36, madctl(opts)}, // Memory access control
		{0xB1, 0x00, 0x18},   // Frame rate: 79Hz
		{0x26, 0x01},         // Gamma curve 1
		{0x13},               // Normal display mode
	}
	for _, c := range cmds {
		if err := d.command(c[0], c[1:]...); err != nil {
			return err
		}
	}

	if err := d.clearRAM(); err != nil {
		return err
	}

	return d.command(0x29) // Display ON
}

// clearRAM sets every pixel in the display RAM to black.
func (d *Dev) clearRAM() error {
	return d.writeFullFrame(make([]byte, len(d.buffer)))
}

// command sends a command byte followed by its parameters.
func (d *Dev) command(cmd byte, args ...byte) error {
	logger.L().Debug("ili9341: command", "cmd", cmd, "args", args)
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return d.sendData(args)
}

// sendData sends data bytes, split to the largest transfer the bus accepts.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := len(data)
		if d.maxTx > 0 && n > d.maxTx {
			n = d.maxTx
		}
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// writeRect writes pixel data to a rectangular region of the display.
func (d *Dev) writeRect(x, y, width, height int, pixels []byte) error {
	x1 := x + width - 1
	y1 := y + height - 1

	if err := d.command(0x2A, byte(x>>8), byte(x), byte(x1>>8), byte(x1)); err != nil { // Column address
		return err
	}
	if err := d.command(0x2B, byte(y>>8), byte(y), byte(y1>>8), byte(y1)); err != nil { // Page address
		return err
	}
	if err := d.command(0x2C); err != nil { // Memory write
		return err
	}
	return d.sendData(pixels)
}

// writeFullFrame writes the entire frame buffer to the display.
func (d *Dev) writeFullFrame(pixels []byte) error {
	return d.writeRect(0, 0, d.rect.Dx(), d.rect.Dy(), pixels)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write writes raw RGB565 pixel data, high byte first, to the display.
// The data must be exactly d.rect.Dx() * d.rect.Dy() * 2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != len(d.buffer) {
		return 0, ErrBufferSize
	}
	if err := d.writeFullFrame(pixels); err != nil {
		return 0, err
	}
	d.remember(pixels)
	return len(pixels), nil
}

// Draw draws an image onto the display with differential update optimization.
// The dst rectangle specifies the destination region on the display.
// The src image is positioned at src point sp within the destination.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}

	// Clip to display bounds, moving the source point along
	r := dst.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	sp = sp.Add(r.Min.Sub(dst.Min))

	srcImg, isRGB565 := src.(*rgb565.Image)

	// Fast path: full frame already in wire format
	if isRGB565 && r == d.rect && sp == (image.Point{}) && srcImg.Rect == d.rect {
		if err := d.writeFullFrame(srcImg.Pix); err != nil {
			return err
		}
		d.remember(srcImg.Pix)
		return nil
	}

	// Slow path: render to buffer with differential updates
	if d.next == nil {
		d.next = rgb565.NewImage(d.rect)
		copy(d.next.Pix, d.buffer)
	}

	if isRGB565 && (image.Rectangle{Min: sp, Max: sp.Add(r.Size())}).In(srcImg.Rect) {
		copyRows(d.next, r, srcImg, sp)
	} else {
		draw.Draw(d.next, r, src, sp, draw.Src)
	}

	minCol, maxCol, minRow, maxRow := d.calculateDiff()
	if minCol > maxCol {
		return nil
	}

	changed := d.extractRegion(minCol, maxCol, minRow, maxRow)
	if err := d.writeRect(minCol, minRow, maxCol-minCol+1, maxRow-minRow+1, changed); err != nil {
		return err
	}

	copy(d.buffer, d.next.Pix)
	return nil
}

// remember records a full frame written to display RAM.
func (d *Dev) remember(pixels []byte) {
	copy(d.buffer, pixels)
	if d.next != nil {
		copy(d.next.Pix, pixels)
	}
}

// copyRows copies the r area of dst from src starting at sp, row by row.
// The source area must lie within src.
func copyRows(dst *rgb565.Image, r image.Rectangle, src *rgb565.Image, sp image.Point) {
	n := r.Dx() * 2
	for y := 0; y < r.Dy(); y++ {
		di := (r.Min.Y+y-dst.Rect.Min.Y)*dst.Stride + (r.Min.X-dst.Rect.Min.X)*2
		si := (sp.Y+y-src.Rect.Min.Y)*src.Stride + (sp.X-src.Rect.Min.X)*2
		copy(dst.Pix[di:di+n], src.Pix[si:si+n])
	}
}

// calculateDiff compares the current and next buffers to find the minimal
// changed region. Returns (minCol, maxCol, minRow, maxRow) with minCol > maxCol
// if nothing changed.
func (d *Dev) calculateDiff() (minCol, maxCol, minRow, maxRow int) {
	width := d.rect.Dx()
	height := d.rect.Dy()
	stride := width * 2

	minRow = height
	maxRow = -1
	minCol = width
	maxCol = -1

	for y := 0; y < height; y++ {
		rowStart := y * stride
		rowEnd := rowStart + stride

		if bytes.Equal(d.buffer[rowStart:rowEnd], d.next.Pix[rowStart:rowEnd]) {
			continue
		}
		if y < minRow {
			minRow = y
		}
		if y > maxRow {
			maxRow = y
		}

		for x := 0; x < width; x++ {
			i := rowStart + x*2
			if d.buffer[i] != d.next.Pix[i] || d.buffer[i+1] != d.next.Pix[i+1] {
				if x < minCol {
					minCol = x
				}
				if x > maxCol {
					maxCol = x
				}
			}
		}
	}

	return
}

// extractRegion extracts the pixel data for a rectangular region.
func (d *Dev) extractRegion(minCol, maxCol, minRow, maxRow int) []byte {
	stride := d.rect.Dx() * 2
	rowBytes := (maxCol - minCol + 1) * 2

	result := make([]byte, rowBytes*(maxRow-minRow+1))
	dstIdx := 0

	for y := minRow; y <= maxRow; y++ {
		srcStart := y*stride + minCol*2
		copy(result[dstIdx:], d.next.Pix[srcStart:srcStart+rowBytes])
		dstIdx += rowBytes
	}

	return result
}

// SetBrightness sets the display brightness (0-255).
// Panels without a brightness control circuit ignore it.
func (d *Dev) SetBrightness(level byte) error {
	if d.halted {
		return ErrHalted
	}
	return d.command(0x51, level)
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	mode := byte(0x20) // Inversion OFF
	if invert {
		mode = 0x21 // Inversion ON
	}
	return d.command(mode)
}

// SetScrollArea defines the vertical scrolling area, in native portrait
// lines: top and bottom lines stay fixed, the lines in between scroll.
func (d *Dev) SetScrollArea(top, bottom int) error {
	if d.halted {
		return ErrHalted
	}
	if top < 0 || bottom < 0 || top+bottom >= nativeH {
		return errors.New("ili9341: scroll area out of range")
	}
	scroll := nativeH - top - bottom
	return d.command(0x33, // Vertical scrolling definition
		byte(top>>8), byte(top),
		byte(scroll>>8), byte(scroll),
		byte(bottom>>8), byte(bottom),
	)
}

// Scroll sets the first line of display RAM shown at the top of the
// scrolling area.
func (d *Dev) Scroll(line int) error {
	if d.halted {
		return ErrHalted
	}
	if line < 0 || line >= nativeH {
		return errors.New("ili9341: scroll line out of range")
	}
	return d.command(0x37, byte(line>>8), byte(line)) // Vertical scrolling start address
}

// StopScroll resets the scroll position and returns to normal display mode.
func (d *Dev) StopScroll() error {
	if d.halted {
		return ErrHalted
	}
	if err := d.command(0x37, 0x00, 0x00); err != nil {
		return err
	}
	return d.command(0x13) // Normal display mode
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	if err := d.command(0x28); err != nil { // Display OFF
		return err
	}
	return d.command(0x10) // Sleep in
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
