package footprint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chenBenjamin97/social-distance/pkg/detections"
)

var clearColor = color.RGBA{0, 255, 0, 0}
var overlappedColor = color.RGBA{255, 0, 0, 0}

const (
	ellipseThickness = 2
	rectThickness    = 1
)

//Ellipse is an instruction to trace an ellipse on a frame
type Ellipse struct {
	Center    image.Point
	Axes      image.Point
	Color     color.RGBA
	Thickness int
}

//Rect is an instruction to trace a rectangle on a frame
type Rect struct {
	Rect      image.Rectangle
	Color     color.RGBA
	Thickness int
}

//Annotations holds everything to draw over one frame
type Annotations struct {
	Ellipses []Ellipse
	Rects    []Rect
}

//ColorFor returns the drawing color of a detection
func ColorFor(overlapped bool) color.RGBA {
	if overlapped {
		return overlappedColor
	}
	return clearColor
}

//Annotate returns an ellipse and a box outline per detection, red when its footprint overlaps another one.
//The three slices are indexed by detection, it panics when their lengths differ.
func Annotate(dets []detections.Detection, fps []Footprint, overlapped []bool) Annotations {
	n := len(dets)
	if len(fps) != n || len(overlapped) != n {
		panic(fmt.Sprintf("footprint: annotating %d detections with %d footprints and %d overlap flags", n, len(fps), len(overlapped)))
	}

	a := Annotations{
		Ellipses: make([]Ellipse, 0, n),
		Rects:    make([]Rect, 0, n),
	}

	for i := 0; i < n; i++ {
		c := ColorFor(overlapped[i])

		a.Ellipses = append(a.Ellipses, Ellipse{
			Center:    image.Pt(int(fps[i].CenterX), int(fps[i].CenterY)),
			Axes:      image.Pt(int(fps[i].RadiusX), int(fps[i].RadiusY)),
			Color:     c,
			Thickness: ellipseThickness,
		})

		//drawn from (left, top) to (right, bottom), image.Rect canonicalizes the corners
		a.Rects = append(a.Rects, Rect{
			Rect:      image.Rect(int(dets[i].Left), int(dets[i].Top), int(dets[i].Right), int(dets[i].Bottom)),
			Color:     c,
			Thickness: rectThickness,
		})
	}

	return a
}
