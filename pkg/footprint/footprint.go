package footprint

import (
	"math"

	"github.com/chenBenjamin97/social-distance/pkg/detections"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/golang/geo/r2"
)

//Params holds the scale used to turn a bounding box height into a personal space radius.
//PhysicalDistance is the wanted separation and ReferenceHeight the height of an average
//bounding box, both in the same unit (cm).
type Params struct {
	PhysicalDistance float64
	ReferenceHeight  float64
}

//ScaleFactor returns PhysicalDistance / ReferenceHeight
func (p Params) ScaleFactor() float64 {
	return p.PhysicalDistance / p.ReferenceHeight
}

//Footprint is the ellipse estimated around one detection. The center sits on the box bottom edge,
//RadiusX is in image pixels and RadiusY in bird's-eye units.
type Footprint struct {
	CenterX float64
	CenterY float64
	RadiusX float64
	RadiusY float64
	Box     geometry.Box
}

//Estimate computes the footprint of every detection of a frame, in the same order
func Estimate(dets []detections.Detection, p Params, h *geometry.Homography) []Footprint {
	res := make([]Footprint, 0, len(dets))
	scale := p.ScaleFactor()

	for _, d := range dets {
		centerX := (d.Left + d.Right) / 2
		heightOfBox := d.Top - d.Bottom

		//inverted boxes would give a negative radius
		radius := math.Max(round2(scale*heightOfBox), 0)

		top := h.Apply(r2.Point{X: centerX, Y: d.Top})
		bottom := h.Apply(r2.Point{X: centerX, Y: d.Bottom})
		width := math.Abs(top.Y - bottom.Y)
		if math.IsNaN(width) || math.IsInf(width, 0) {
			width = 0
		}

		res = append(res, Footprint{
			CenterX: centerX,
			CenterY: d.Bottom,
			RadiusX: radius,
			RadiusY: width,
			Box: geometry.Box{
				XMin: centerX - radius,
				XMax: centerX + radius,
				YMin: d.Bottom - width,
				YMax: d.Bottom + width,
			},
		})
	}

	return res
}

//DetectOverlaps returns a flag per box, set when the box overlaps at least one other box
func DetectOverlaps(boxes []geometry.Box) []bool {
	overlapped := make([]bool, len(boxes))

	//TODO: sort boxes on XMin and sweep, crowded scenes spend most of the frame here
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if boxes[i].Overlaps(boxes[j]) {
				overlapped[i] = true
				overlapped[j] = true
			}
		}
	}

	return overlapped
}

//Boxes returns the bounding boxes of given footprints
func Boxes(fps []Footprint) []geometry.Box {
	boxes := make([]geometry.Box, len(fps))
	for i, fp := range fps {
		boxes[i] = fp.Box
	}
	return boxes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
