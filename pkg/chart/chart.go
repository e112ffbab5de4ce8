// Package chart describes figures produced by generated code and renders them with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// TraceKind is the mark used to draw a trace.
type TraceKind string

const (
	LineTrace    TraceKind = "line"
	ScatterTrace TraceKind = "scatter"
	BarTrace     TraceKind = "bar"
)

// ErrEmptyFigure is returned when rendering a figure without traces.
var ErrEmptyFigure = errors.New("figure has no traces")

// Trace is one data series on a figure.
type Trace struct {
	Kind   TraceKind `json:"kind"`
	Name   string    `json:"name"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y"`
	Labels []string  `json:"labels,omitempty"`
}

// Figure is a declarative chart: a title, axis labels and traces.
type Figure struct {
	Title  string  `json:"title"`
	XLabel string  `json:"x_label,omitempty"`
	YLabel string  `json:"y_label,omitempty"`
	Traces []Trace `json:"traces"`
}

// NewFigure creates an empty figure.
func NewFigure(title string) *Figure {
	return &Figure{Title: title}
}

// Labels sets the axis labels.
func (f *Figure) Labels(x, y string) *Figure {
	f.XLabel, f.YLabel = x, y
	return f
}

// Line adds a line trace.
func (f *Figure) Line(name string, x, y []float64) *Figure {
	f.Traces = append(f.Traces, Trace{Kind: LineTrace, Name: name, X: clone(x), Y: clone(y)})
	return f
}

// Scatter adds a scatter trace.
func (f *Figure) Scatter(name string, x, y []float64) *Figure {
	f.Traces = append(f.Traces, Trace{Kind: ScatterTrace, Name: name, X: clone(x), Y: clone(y)})
	return f
}

// Bar adds a bar trace with one category label per value.
func (f *Figure) Bar(name string, labels []string, values []float64) *Figure {
	f.Traces = append(f.Traces, Trace{Kind: BarTrace, Name: name, Labels: append([]string(nil), labels...), Y: clone(values)})
	return f
}

// Validate checks that every trace is internally consistent.
func (f *Figure) Validate() error {
	if len(f.Traces) == 0 {
		return ErrEmptyFigure
	}
	for i, t := range f.Traces {
		switch t.Kind {
		case LineTrace, ScatterTrace:
			if len(t.X) != len(t.Y) {
				return fmt.Errorf("trace %d (%s): %d x values, %d y values", i, t.Name, len(t.X), len(t.Y))
			}
		case BarTrace:
			if len(t.Labels) != 0 && len(t.Labels) != len(t.Y) {
				return fmt.Errorf("trace %d (%s): %d labels, %d values", i, t.Name, len(t.Labels), len(t.Y))
			}
		default:
			return fmt.Errorf("trace %d: unknown kind %q", i, t.Kind)
		}
	}
	return nil
}

// Render draws the figure in the given format ("png", "svg", "pdf") at width x height inches.
func Render(f *Figure, w io.Writer, format string, width, height float64) error {
	if err := f.Validate(); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel

	for i, t := range f.Traces {
		switch t.Kind {
		case LineTrace:
			l, err := plotter.NewLine(xys(t))
			if err != nil {
				return fmt.Errorf("line %q: %w", t.Name, err)
			}
			l.Color = plotutil.Color(i)
			p.Add(l)
			p.Legend.Add(t.Name, l)
		case ScatterTrace:
			s, err := plotter.NewScatter(xys(t))
			if err != nil {
				return fmt.Errorf("scatter %q: %w", t.Name, err)
			}
			s.GlyphStyle.Color = plotutil.Color(i)
			p.Add(s)
			p.Legend.Add(t.Name, s)
		case BarTrace:
			b, err := plotter.NewBarChart(plotter.Values(t.Y), vg.Points(20))
			if err != nil {
				return fmt.Errorf("bar %q: %w", t.Name, err)
			}
			b.Color = plotutil.Color(i)
			p.Add(b)
			p.Legend.Add(t.Name, b)
			if len(t.Labels) > 0 {
				p.NominalX(t.Labels...)
			}
		}
	}

	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("create %s writer: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func xys(t Trace) plotter.XYs {
	pts := make(plotter.XYs, len(t.Y))
	for i := range t.Y {
		pts[i].X = t.X[i]
		pts[i].Y = t.Y[i]
	}
	return pts
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
