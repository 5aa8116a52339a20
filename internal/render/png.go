package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/bungeesim/internal/jump"
)

type Options struct {
	WidthIn  float64
	HeightIn float64
	DPI      int
}

func DefaultOptions() Options {
	return Options{WidthIn: 10, HeightIn: 6, DPI: 100}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.WidthIn <= 0 {
		o.WidthIn = def.WidthIn
	}
	if o.HeightIn <= 0 {
		o.HeightIn = def.HeightIn
	}
	if o.DPI <= 0 {
		o.DPI = def.DPI
	}
	return o
}

var (
	heightColor   = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	velocityColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	ropeColor     = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	zeroColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	dashes        = []vg.Length{vg.Points(6), vg.Points(4)}
)

// Plots builds the height chart, with the rope's natural length marked,
// and the velocity chart, with zero velocity marked. Both share the time
// axis.
func Plots(res *jump.Result) (*plot.Plot, *plot.Plot, error) {
	if len(res.Times) == 0 || len(res.Times) != len(res.Trajectory) {
		return nil, nil, fmt.Errorf("render: %d times for %d states", len(res.Times), len(res.Trajectory))
	}
	tEnd := res.Times[len(res.Times)-1]

	hp := plot.New()
	hp.Title.Text = "Bungee jump"
	hp.Y.Label.Text = "height (m)"
	hp.X.Min, hp.X.Max = 0, tEnd
	hp.Y.Min, hp.Y.Max = 0, math.Max(res.StartHeight, 1)
	hp.Add(plotter.NewGrid())

	heights, err := series(res.Times, res.Trajectory.Heights(), heightColor)
	if err != nil {
		return nil, nil, err
	}
	rope, err := level(res.Params.NaturalLength, tEnd, ropeColor)
	if err != nil {
		return nil, nil, err
	}
	hp.Add(heights, rope)
	hp.Legend.Add("height (m)", heights)
	hp.Legend.Add("bungee length", rope)
	hp.Legend.Top = true

	vp := plot.New()
	vp.X.Label.Text = "time (s)"
	vp.Y.Label.Text = "velocity (m/s)"
	vp.X.Min, vp.X.Max = 0, tEnd
	limit := velocityLimit(res.Trajectory.Velocities())
	vp.Y.Min, vp.Y.Max = -limit, limit
	vp.Add(plotter.NewGrid())

	velocities, err := series(res.Times, res.Trajectory.Velocities(), velocityColor)
	if err != nil {
		return nil, nil, err
	}
	zero, err := level(0, tEnd, zeroColor)
	if err != nil {
		return nil, nil, err
	}
	vp.Add(velocities, zero)
	vp.Legend.Add("velocity (m/s)", velocities)
	vp.Legend.Add("zero velocity", zero)
	vp.Legend.Top = true

	return hp, vp, nil
}

// velocityLimit is 10% above the fastest fall, so the zero line sits in the
// middle of the chart.
func velocityLimit(vs []float64) float64 {
	lowest := 0.0
	for _, v := range vs {
		lowest = math.Min(lowest, v)
	}
	if limit := math.Abs(lowest) * 1.1; limit > 0 {
		return limit
	}
	return 1
}

func series(xs, ys []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c
	return line, nil
}

func level(y, tEnd float64, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: y}, {X: tEnd, Y: y}})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = c
	line.LineStyle.Dashes = dashes
	return line, nil
}

// WritePNG draws the height and velocity charts stacked on one image.
func WritePNG(w io.Writer, res *jump.Result, opts Options) error {
	opts = opts.withDefaults()

	hp, vp, err := Plots(res)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	dc := draw.New(c)

	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(6)}
	canvases := plot.Align([][]*plot.Plot{{hp}, {vp}}, tiles, dc)
	hp.Draw(canvases[0][0])
	vp.Draw(canvases[1][0])

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("render: write png: %w", err)
	}
	return nil
}
