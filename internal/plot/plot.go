// Package plot renders recorded signal tables as PNG line charts and as
// terminal charts.
package plot

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/series"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var ErrNoFiniteSamples = errors.New("plot: no finite samples")

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
	DefaultDPI    = 150
)

// PNG writes one line chart per non-time signal into Dir, which is created
// if needed. Non-finite samples are left out of the chart.
type PNG struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// Render charts every signal of st against its time column and returns the
// written paths in signal order. Signals with no finite samples are skipped.
func (p PNG) Render(st *series.Store) ([]string, error) {
	times, ok := st.Series(series.TimeKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", series.ErrUnknownName, series.TimeKey)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, &dynamo.IOError{Op: "mkdir", Path: p.Dir, Err: err}
	}

	var written []string
	for _, name := range st.Names() {
		if name == series.TimeKey {
			continue
		}
		values, _ := st.Series(name)
		chart, err := lineChart(name, times, values)
		if errors.Is(err, ErrNoFiniteSamples) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", name, err)
		}

		path := filepath.Join(p.Dir, fileName(name)+".png")
		if err := p.save(chart, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func lineChart(name string, times, values []float64) (*gplot.Plot, error) {
	n := min(len(times), len(values))
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if finite(times[i]) && finite(values[i]) {
			pts = append(pts, plotter.XY{X: times[i], Y: values[i]})
		}
	}
	if len(pts) == 0 {
		return nil, ErrNoFiniteSamples
	}

	p := gplot.New()
	p.Title.Text = name
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = name
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(line)

	lo, hi, _ := FiniteRange(values)
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.1, 0.5)
		lo, hi = lo-pad, hi+pad
	}
	p.Y.Min, p.Y.Max = lo, hi
	return p, nil
}

func (p PNG) save(chart *gplot.Plot, path string) error {
	w, h, dpi := p.Width, p.Height, p.DPI
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	chart.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return &dynamo.IOError{Op: "create", Path: path, Err: err}
	}
	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		f.Close()
		return &dynamo.IOError{Op: "write", Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return &dynamo.IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &dynamo.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// FiniteRange returns the smallest and largest finite values. ok is false
// when there are none.
func FiniteRange(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if !finite(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}

// ASCII draws one signal as a terminal chart. Infinite samples are drawn as
// gaps.
func ASCII(values []float64, caption string, width, height int) (string, error) {
	if _, _, ok := FiniteRange(values); !ok {
		return "", ErrNoFiniteSamples
	}
	data := make([]float64, len(values))
	for i, v := range values {
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		data[i] = v
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func fileName(signal string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, signal)
}
