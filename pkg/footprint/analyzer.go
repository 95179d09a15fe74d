package footprint

import (
	"github.com/chenBenjamin97/social-distance/pkg/detections"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
)

//FrameResult is everything computed for one frame
type FrameResult struct {
	Frame       int
	Detections  []detections.Detection
	Footprints  []Footprint
	Overlapped  []bool
	Annotations Annotations
}

//OverlappedCount returns how many detections of the frame are too close to someone
func (r FrameResult) OverlappedCount() int {
	n := 0
	for _, o := range r.Overlapped {
		if o {
			n++
		}
	}
	return n
}

//Analyzer runs footprint estimation, overlap detection and annotation over frames.
//The homography is only read, an Analyzer can be shared between goroutines.
type Analyzer struct {
	params Params
	h      *geometry.Homography
}

//NewAnalyzer creates an analyzer for a calibrated camera
func NewAnalyzer(p Params, h *geometry.Homography) *Analyzer {
	return &Analyzer{params: p, h: h}
}

//Homography returns the transform the analyzer projects with
func (a *Analyzer) Homography() *geometry.Homography {
	return a.h
}

//Process analyzes the detections of one frame
func (a *Analyzer) Process(frameNumber int, dets []detections.Detection) FrameResult {
	fps := Estimate(dets, a.params, a.h)
	overlapped := DetectOverlaps(Boxes(fps))

	return FrameResult{
		Frame:       frameNumber,
		Detections:  dets,
		Footprints:  fps,
		Overlapped:  overlapped,
		Annotations: Annotate(dets, fps, overlapped),
	}
}
