// Package gauge draws radial gauges on small TFT displays.
//
// A gauge owns an off-screen sprite the size of its bounding box. Every
// Draw repaints the whole sprite and pushes it to the display in one
// transfer, so the panel never shows a half drawn needle.
//
// # Dial Layout
//
// Angles are measured in degrees clockwise from 12 o'clock. The dial arc
// runs from 45° to 315°, leaving the top quarter open, and is drawn as
// 270 one-degree line segments two pixels inside the radius. The value maps
// linearly onto that sweep:
//
//	angle = 45 + (value - Min) / (Max - Min) * 270
//
// The needle ends ten pixels inside the radius and sits on a filled hub of
// radius 5. The label is centred 20 pixels above the hub and the value,
// with one decimal and the units appended, 20 pixels below it.
//
// # Basic Usage
//
//	dev, _ := ili9341.NewSPI(spiBus, dcPin, nil)
//	canvas := sprite.NewCanvas(dev, nil)
//
//	g, err := gauge.New(gauge.OnCanvas(canvas), &gauge.Opts{
//		X: 120, Y: 160, R: 60,
//		Label: "RPM", Units: "k",
//		Min: 0, Max: 8,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//
//	g.SetColors(rgb565.Cyan, rgb565.Orange)
//	g.SetValue(3.2)
//	if err := g.Draw(); err != nil {
//		log.Fatal(err)
//	}
//
// # Values
//
// SetValue never fails: values below Min show as Min and values above Max
// show as Max. It does not redraw, call Draw when the display should
// catch up.
//
// # Ownership
//
// New allocates the sprite and Close releases it. After Close, Draw and a
// second Close return ErrClosed. A gauge is not safe for concurrent use;
// update it from the goroutine that draws it.
//
// # Logging
//
// The package is silent by default. SetLogger enables log/slog output for
// this package and its sub-packages.
package gauge
