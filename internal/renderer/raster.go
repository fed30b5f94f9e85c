package renderer

import (
	"image"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/system"
)

// flattenSteps is the number of line segments per cubic.
const flattenSteps = 24

// RasterOptions configures Rasterize.
type RasterOptions struct {
	Width, Height int
	StrokeWidth   float64
	Margin        float64
}

// Rasterize strokes every curve set into a coverage mask. The drawing is
// scaled uniformly to fit the image minus the margin. The result comes from
// a pool; hand it back with system.PutAlpha when done.
func Rasterize(sets [][]bezier.Cubic, opts RasterOptions) *image.Alpha {
	rect := image.Rect(0, 0, opts.Width, opts.Height)
	img := system.GetAlpha(rect)
	clear(img.Pix)

	var pts []bezier.Point
	for _, curves := range sets {
		for _, c := range curves {
			pts = append(pts, c[:]...)
		}
	}
	if len(pts) == 0 {
		return img
	}
	fit := fitTransform(pts, opts)

	ras := vector.NewRasterizer(opts.Width, opts.Height)
	half := max(opts.StrokeWidth, 0.5) / 2
	for _, curves := range sets {
		for _, c := range curves {
			prev := fit(c[0])
			for i := 1; i <= flattenSteps; i++ {
				next := fit(c.Eval(float64(i) / flattenSteps))
				strokeSegment(ras, prev, next, half)
				prev = next
			}
		}
	}
	ras.Draw(img, rect, image.Opaque, image.Point{})
	return img
}

func fitTransform(pts []bezier.Point, opts RasterOptions) func(bezier.Point) bezier.Point {
	lo, hi := bezier.Bounds(pts)
	w := max(hi.X-lo.X, 1e-9)
	h := max(hi.Y-lo.Y, 1e-9)
	availW := max(float64(opts.Width)-2*opts.Margin, 1)
	availH := max(float64(opts.Height)-2*opts.Margin, 1)
	scale := min(availW/w, availH/h)
	offX := (float64(opts.Width) - w*scale) / 2
	offY := (float64(opts.Height) - h*scale) / 2
	return func(p bezier.Point) bezier.Point {
		return bezier.Pt(offX+(p.X-lo.X)*scale, offY+(p.Y-lo.Y)*scale)
	}
}

// strokeSegment adds the quad covering the segment a-b with half-width
// half. All quads share one winding, so overlaps at joints saturate
// instead of cancelling.
func strokeSegment(ras *vector.Rasterizer, a, b bezier.Point, half float64) {
	d := b.Sub(a)
	l := d.Hypot()
	if l == 0 {
		d, l = bezier.Vec(1, 0), 1
	}
	n := bezier.Vec(-d.Y, d.X).Mul(half / l)
	e := d.Mul(half / l)
	a = a.Translate(e.Mul(-1))
	b = b.Translate(e)
	ras.MoveTo(float32(a.X+n.X), float32(a.Y+n.Y))
	ras.LineTo(float32(b.X+n.X), float32(b.Y+n.Y))
	ras.LineTo(float32(b.X-n.X), float32(b.Y-n.Y))
	ras.LineTo(float32(a.X-n.X), float32(a.Y-n.Y))
	ras.ClosePath()
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
