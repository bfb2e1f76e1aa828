// Package signature captures freehand ink strokes and exports them as a PNG
// data URL.
package signature

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/mrsinham/oeukintake/internal/dataurl"
)

// Canvas and stroke style. The style is fixed.
const (
	DefaultWidth  = 600
	DefaultHeight = 200
	StrokeWidth   = 2.0
	capSegments   = 12
)

// Ink is the stroke colour.
var Ink = color.RGBA{0, 0, 0, 255}

// Point is a position on the canvas in pixels.
type Point struct {
	X, Y float64
}

// Pad is a drawing surface. It is not safe for concurrent use; the UI feeds
// it pointer events one at a time.
type Pad struct {
	width, height int
	base          *image.RGBA
	strokes       [][]Point
	active        []Point
	drawing       bool
	hasContent    bool
	encoding      string
	onSave        func(string)
	err           error
}

// Option configures a Pad.
type Option func(*Pad)

// WithSize overrides the canvas size.
func WithSize(w, h int) Option {
	return func(p *Pad) {
		if w > 0 && h > 0 {
			p.width, p.height = w, h
		}
	}
}

// New returns an empty pad. onSave receives the full re-encoding after every
// completed stroke and "" after Clear.
func New(onSave func(string), opts ...Option) *Pad {
	p := &Pad{width: DefaultWidth, height: DefaultHeight, onSave: onSave}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load pre-renders a previously exported encoding so a revisited step keeps
// its ink. An empty string leaves the pad blank.
func (p *Pad) Load(initial string) error {
	if initial == "" {
		return nil
	}
	img, err := dataurl.DecodeImage(initial)
	if err != nil {
		return fmt.Errorf("load signature: %w", err)
	}
	base := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	if img.Bounds().Dx() == p.width && img.Bounds().Dy() == p.height {
		draw.Draw(base, base.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.BiLinear.Scale(base, base.Bounds(), img, img.Bounds(), draw.Src, nil)
	}
	p.base = base
	p.strokes = nil
	p.hasContent = true
	p.encoding = initial
	return nil
}

// PointerDown starts a stroke.
func (p *Pad) PointerDown(pt Point) {
	p.drawing = true
	p.active = []Point{p.clamp(pt)}
}

// PointerMove extends the current stroke. Moves without a pressed pointer
// are ignored.
func (p *Pad) PointerMove(pt Point) {
	if !p.drawing {
		return
	}
	p.active = append(p.active, p.clamp(pt))
	p.hasContent = true
}

// PointerUp completes the stroke and saves.
func (p *Pad) PointerUp() {
	p.finish()
}

// PointerLeave completes the stroke when the pointer exits the surface.
func (p *Pad) PointerLeave() {
	p.finish()
}

func (p *Pad) finish() {
	if !p.drawing {
		return
	}
	p.drawing = false
	p.strokes = append(p.strokes, p.active)
	p.active = nil
	p.hasContent = true
	p.save()
}

func (p *Pad) save() {
	enc, err := dataurl.EncodePNG(p.Image())
	if err != nil {
		p.err = err
		return
	}
	p.err = nil
	p.encoding = enc
	if p.onSave != nil {
		p.onSave(enc)
	}
}

// Clear erases everything, including a loaded initial value, and reports an
// empty encoding.
func (p *Pad) Clear() {
	p.base = nil
	p.strokes = nil
	p.active = nil
	p.drawing = false
	p.hasContent = false
	p.encoding = ""
	p.err = nil
	if p.onSave != nil {
		p.onSave("")
	}
}

// HasContent distinguishes a cleared pad from one with ink. Both may carry
// an empty encoding before the first save.
func (p *Pad) HasContent() bool { return p.hasContent }

// Encoding returns the last exported data URL.
func (p *Pad) Encoding() string { return p.encoding }

// Err returns the last encoding error.
func (p *Pad) Err() error { return p.err }

// Drawing reports whether a stroke is in progress.
func (p *Pad) Drawing() bool { return p.drawing }

// StrokeCount returns the number of completed strokes since the last Clear or Load.
func (p *Pad) StrokeCount() int { return len(p.strokes) }

// Size returns the canvas dimensions.
func (p *Pad) Size() (int, int) { return p.width, p.height }

func (p *Pad) clamp(pt Point) Point {
	return Point{
		X: math.Max(0, math.Min(pt.X, float64(p.width-1))),
		Y: math.Max(0, math.Min(pt.Y, float64(p.height-1))),
	}
}

// Image renders the base image, completed strokes and the stroke in progress
// on a transparent canvas.
func (p *Pad) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	if p.base != nil {
		draw.Draw(img, img.Bounds(), p.base, image.Point{}, draw.Src)
	}

	z := vector.NewRasterizer(p.width, p.height)
	z.DrawOp = draw.Over
	shapes := 0
	for _, s := range p.strokes {
		shapes += addStroke(z, s, StrokeWidth/2)
	}
	if p.drawing {
		shapes += addStroke(z, p.active, StrokeWidth/2)
	}
	if shapes > 0 {
		z.Draw(img, img.Bounds(), image.NewUniform(Ink), image.Point{})
	}
	return img
}

// addStroke adds one quad per segment and a disc at every vertex, which
// gives round caps and round joins.
func addStroke(z *vector.Rasterizer, pts []Point, r float64) int {
	n := 0
	for i, pt := range pts {
		addPolygon(z, disc(pt, r))
		n++
		if i == 0 {
			continue
		}
		if q, ok := segment(pts[i-1], pt, r); ok {
			addPolygon(z, q)
			n++
		}
	}
	return n
}

func segment(a, b Point, r float64) ([]Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil, false
	}
	nx, ny := -dy/l*r, dx/l*r
	return []Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}, true
}

func disc(c Point, r float64) []Point {
	pts := make([]Point, capSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / capSegments
		pts[i] = Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return pts
}

// addPolygon adds pts with a fixed winding. The rasterizer sums signed
// coverage, so overlapping shapes must share an orientation or they cancel.
func addPolygon(z *vector.Rasterizer, pts []Point) {
	if signedArea(pts) > 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		z.LineTo(float32(pt.X), float32(pt.Y))
	}
	z.ClosePath()
}

func signedArea(pts []Point) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}
