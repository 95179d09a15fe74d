package video

import (
	"image"
	"image/color"

	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/chenBenjamin97/social-distance/pkg/utils"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var markerColor = color.RGBA{0, 255, 0, 0}

//plotAnnotations traces the footprint ellipses and the detection boxes on given frame
func plotAnnotations(frame *gocv.Mat, a footprint.Annotations) {
	for _, e := range a.Ellipses {
		gocv.Ellipse(frame, e.Center, e.Axes, 0, 0, 360, e.Color, e.Thickness)
	}

	for _, r := range a.Rects {
		gocv.Rectangle(frame, r.Rect, r.Color, r.Thickness)
	}
}

//plotMarker places a filled green dot where a calibration point was picked
func plotMarker(frame *gocv.Mat, pt r2.Point) {
	gocv.Circle(frame, image.Pt(int(pt.X), int(pt.Y)), utils.CalibrationMarkerRadius, markerColor, -1)
}

//homographyMat copies the transform into a 3x3 double precision Mat, caller closes it
func homographyMat(h *geometry.Homography) gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, h.At(r, c))
		}
	}
	return m
}

//writeRectified warps the frame to the bird's-eye plane and saves it, only used to check a calibration by eye
func writeRectified(frame gocv.Mat, h *geometry.Homography, path string) error {
	m := homographyMat(h)
	defer m.Close()

	warped := gocv.NewMat()
	defer warped.Close()

	gocv.WarpPerspective(frame, &warped, m, image.Pt(h.Width, h.Height))
	if !gocv.IMWrite(path, warped) {
		return errors.Errorf("could not write rectified frame to '%s'", path)
	}
	return nil
}
