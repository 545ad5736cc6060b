package gifsink

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"

	"nabot/internal/domain/ports"
	"nabot/internal/fem"
)

// ErrFrameSize is returned when a frame does not carry one value per mesh vertex.
var ErrFrameSize = errors.New("frame size does not match mesh")

const (
	backgroundIndex = 0
	edgeIndex       = 1
	firstColorIndex = 2
	colorLevels     = 254
)

// Options controls the rendering of each frame.
type Options struct {
	Width     int
	Height    int
	FPS       float64
	Min, Max  float64
	ShowEdges bool
	// Clip hides the upper half of the domain and keeps only its wireframe.
	Clip bool
}

// DefaultOptions renders 400×400 frames with colour limits [-1, 1] and mesh edges.
func DefaultOptions(fps float64) Options {
	return Options{
		Width:     400,
		Height:    400,
		FPS:       fps,
		Min:       -1,
		Max:       1,
		ShowEdges: true,
	}
}

// Sink rasterises P1 fields on a fixed mesh into an animated GIF written on Close.
type Sink struct {
	path    string
	opts    Options
	nverts  int
	pixels  []pixel
	edges   []bool
	palette color.Palette
	anim    gif.GIF
	logger  ports.Logger
}

var _ ports.FrameSink = (*Sink)(nil)

type pixel struct {
	cell    int32
	weights [3]float64
	verts   [3]int32
}

// New precomputes the pixel-to-triangle map of mesh.
func New(path string, mesh *fem.Mesh, opts Options, logger ports.Logger) (*Sink, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("gif %s: invalid size %dx%d", path, opts.Width, opts.Height)
	}
	if opts.FPS <= 0 || math.IsInf(opts.FPS, 0) || math.IsNaN(opts.FPS) {
		return nil, fmt.Errorf("gif %s: invalid frame rate %g", path, opts.FPS)
	}
	if opts.Max <= opts.Min {
		return nil, fmt.Errorf("gif %s: colour limits [%g, %g] are empty", path, opts.Min, opts.Max)
	}

	s := &Sink{
		path:    path,
		opts:    opts,
		nverts:  mesh.NumVertices(),
		palette: buildPalette(),
		logger:  logger,
	}
	s.rasterize(mesh)
	if opts.ShowEdges {
		s.traceEdges(mesh)
	}
	return s, nil
}

// Path returns the output file name.
func (s *Sink) Path() string { return s.path }

// Frames returns the number of frames recorded so far.
func (s *Sink) Frames() int { return len(s.anim.Image) }

// WriteFrame renders values, one per mesh vertex, as the next frame.
func (s *Sink) WriteFrame(_ context.Context, values []float64) error {
	if len(values) != s.nverts {
		return fmt.Errorf("%w: %d values for %d vertices", ErrFrameSize, len(values), s.nverts)
	}

	img := image.NewPaletted(image.Rect(0, 0, s.opts.Width, s.opts.Height), s.palette)
	for i, px := range s.pixels {
		switch {
		case s.edges != nil && s.edges[i]:
			img.Pix[i] = edgeIndex
		case px.cell < 0:
			img.Pix[i] = backgroundIndex
		default:
			v := px.weights[0]*values[px.verts[0]] +
				px.weights[1]*values[px.verts[1]] +
				px.weights[2]*values[px.verts[2]]
			img.Pix[i] = s.colorIndex(v)
		}
	}

	s.anim.Image = append(s.anim.Image, img)
	s.anim.Delay = append(s.anim.Delay, s.delay())
	return nil
}

// Close encodes the recorded frames. Without frames no file is written.
func (s *Sink) Close() error {
	if len(s.anim.Image) == 0 {
		if s.logger != nil {
			s.logger.Warn(context.Background(), "no frames recorded, gif not written", "path", s.path)
		}
		return nil
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	if err := gif.EncodeAll(f, &s.anim); err != nil {
		f.Close()
		return fmt.Errorf("encode gif %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close gif %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Info(context.Background(), "gif written", "path", s.path, "frames", len(s.anim.Image))
	}
	return nil
}

// delay converts the frame rate to GIF hundredths of a second.
func (s *Sink) delay() int {
	d := int(math.Round(100 / s.opts.FPS))
	if d < 1 {
		d = 1
	}
	return d
}

func (s *Sink) colorIndex(v float64) uint8 {
	if math.IsNaN(v) {
		v = s.opts.Min
	}
	t := (v - s.opts.Min) / (s.opts.Max - s.opts.Min)
	t = math.Max(0, math.Min(1, t))
	return uint8(firstColorIndex + int(math.Round(t*float64(colorLevels-1))))
}

// rasterize assigns each pixel centre to the first triangle containing it.
func (s *Sink) rasterize(mesh *fem.Mesh) {
	w, h := s.opts.Width, s.opts.Height
	s.pixels = make([]pixel, w*h)
	for i := range s.pixels {
		s.pixels[i].cell = -1
	}

	lo, hi := mesh.Bounds()
	midY := (lo.Y + hi.Y) / 2
	toPixel := func(p fem.Point) (float64, float64) {
		return (p.X - lo.X) / (hi.X - lo.X) * float64(w), (hi.Y - p.Y) / (hi.Y - lo.Y) * float64(h)
	}
	toWorld := func(px, py int) fem.Point {
		return fem.Point{
			X: lo.X + (float64(px)+0.5)/float64(w)*(hi.X-lo.X),
			Y: hi.Y - (float64(py)+0.5)/float64(h)*(hi.Y-lo.Y),
		}
	}

	for c, cell := range mesh.Cells {
		a, b, d := mesh.Vertices[cell[0]], mesh.Vertices[cell[1]], mesh.Vertices[cell[2]]
		det := (b.X-a.X)*(d.Y-a.Y) - (d.X-a.X)*(b.Y-a.Y)
		if det == 0 {
			continue
		}

		minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
		for _, p := range []fem.Point{a, b, d} {
			x, y := toPixel(p)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}

		for py := clampInt(int(minY)-1, 0, h-1); py <= clampInt(int(maxY)+1, 0, h-1); py++ {
			for px := clampInt(int(minX)-1, 0, w-1); px <= clampInt(int(maxX)+1, 0, w-1); px++ {
				idx := py*w + px
				if s.pixels[idx].cell >= 0 {
					continue
				}
				p := toWorld(px, py)
				if s.opts.Clip && p.Y > midY {
					continue
				}
				l1 := ((p.X-a.X)*(d.Y-a.Y) - (d.X-a.X)*(p.Y-a.Y)) / det
				l2 := ((b.X-a.X)*(p.Y-a.Y) - (p.X-a.X)*(b.Y-a.Y)) / det
				l0 := 1 - l1 - l2
				const tol = -1e-12
				if l0 < tol || l1 < tol || l2 < tol {
					continue
				}
				s.pixels[idx] = pixel{
					cell:    int32(c),
					weights: [3]float64{l0, l1, l2},
					verts:   [3]int32{int32(cell[0]), int32(cell[1]), int32(cell[2])},
				}
			}
		}
	}
}

// traceEdges marks the pixels crossed by any mesh edge.
func (s *Sink) traceEdges(mesh *fem.Mesh) {
	w, h := s.opts.Width, s.opts.Height
	s.edges = make([]bool, w*h)
	lo, hi := mesh.Bounds()

	toPixel := func(p fem.Point) (float64, float64) {
		x := (p.X - lo.X) / (hi.X - lo.X) * float64(w-1)
		y := (hi.Y - p.Y) / (hi.Y - lo.Y) * float64(h-1)
		return x, y
	}

	for _, cell := range mesh.Cells {
		for k := 0; k < 3; k++ {
			x0, y0 := toPixel(mesh.Vertices[cell[k]])
			x1, y1 := toPixel(mesh.Vertices[cell[(k+1)%3]])
			steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
			if steps == 0 {
				steps = 1
			}
			for i := 0; i <= steps; i++ {
				t := float64(i) / float64(steps)
				px := clampInt(int(math.Round(x0+t*(x1-x0))), 0, w-1)
				py := clampInt(int(math.Round(y0+t*(y1-y0))), 0, h-1)
				s.edges[py*w+px] = true
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
