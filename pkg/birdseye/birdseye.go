package birdseye

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/chenBenjamin97/social-distance/pkg/utils"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var backgroundColor = color.RGBA{0x3a, 0x2e, 0x39, 0xff}
var clearFill = color.NRGBA{0x00, 0x81, 0x48, 0x4c}      //#008148, alpha 0.3
var overlappedFill = color.NRGBA{0xf7, 0x17, 0x35, 0x4c} //#f71735, alpha 0.3
var white = color.RGBA{0xff, 0xff, 0xff, 0xff}

const ellipseSegments = 48

//Scene is what the bird's-eye view of one frame shows
type Scene struct {
	Frame       int
	VideoWidth  float64
	VideoHeight float64
	Footprints  []footprint.Footprint
	Overlapped  []bool
}

//Size of the rendered picture
type Size struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

//DefaultSize is a 4x6 inches portrait picture
var DefaultSize = Size{Width: 4 * vg.Inch, Height: 6 * vg.Inch, DPI: 96}

//NewPlot builds the bird's-eye plot of a scene. The y axis is flipped so the picture has the video orientation.
func NewPlot(s Scene) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Bird's-eye view - frame %d", s.Frame)
	p.BackgroundColor = backgroundColor
	p.Title.TextStyle.Color = white
	p.X.Min, p.X.Max = 0, s.VideoWidth
	p.Y.Min, p.Y.Max = 0, s.VideoHeight
	p.HideAxes()

	centers := make(plotter.XYs, 0, len(s.Footprints))
	for i, fp := range s.Footprints {
		overlapped := i < len(s.Overlapped) && s.Overlapped[i]

		poly, err := plotter.NewPolygon(EllipsePoints(fp, s.VideoHeight))
		if err != nil {
			return nil, errors.Wrapf(err, "ellipse %d", i)
		}
		poly.Color = clearFill
		if overlapped {
			poly.Color = overlappedFill
		}
		poly.LineStyle.Color = white
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)

		centers = append(centers, plotter.XY{X: fp.CenterX, Y: s.VideoHeight - fp.CenterY})
	}

	if len(centers) > 0 {
		scatter, err := plotter.NewScatter(centers)
		if err != nil {
			return nil, errors.Wrap(err, "centers")
		}
		scatter.GlyphStyle.Color = white
		scatter.GlyphStyle.Radius = vg.Points(2)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
	}

	return p, nil
}

//EllipsePoints returns the outline of a footprint's ellipse, stretched by the bird's-eye scales
//and flipped vertically inside a video of given height
func EllipsePoints(fp footprint.Footprint, videoHeight float64) plotter.XYs {
	//the scales apply to the full width and height of the ellipse
	rx := fp.RadiusX * utils.EllipseWidthScale / 2
	ry := fp.RadiusY * utils.EllipseHeightScale / 2

	pts := make(plotter.XYs, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i].X = fp.CenterX + rx*math.Cos(a)
		pts[i].Y = videoHeight - (fp.CenterY + ry*math.Sin(a))
	}
	return pts
}

//Render writes the scene as a PNG picture
func Render(w io.Writer, s Scene, size Size) error {
	p, err := NewPlot(s)
	if err != nil {
		return err
	}

	dpi := size.DPI
	if dpi <= 0 {
		dpi = DefaultSize.DPI
	}

	c := vgimg.NewWith(vgimg.UseWH(size.Width, size.Height), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return errors.Wrap(err, "writing bird's-eye png")
	}
	return nil
}

//RenderFile writes the scene as frame_<n>.png inside dir and returns the file path
func RenderFile(dir string, s Scene, size Size) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating '%s'", dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", s.Frame))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Render(f, s, size); err != nil {
		return "", err
	}

	return path, f.Close()
}
