package video

import (
	"io"

	"gocv.io/x/gocv"
)

//Job is one video to analyze
type Job struct {
	//Name identifies the video in the results store and names its calibration and detections files
	Name       string
	SourcePath string
	OutputPath string

	//Input is where calibration points are typed when the video has no saved calibration,
	//a window shows the first frame meanwhile. nil fails instead.
	Input io.Reader
}

//Result of an analysis
type Result struct {
	RunID           string
	ProcessedFrames int
	OverlapFrames   int
	OutputPath      string
}

type videoInfo struct {
	width       int
	height      int
	fps         float64
	totalFrames int
}

func newVideoInfo(cap *gocv.VideoCapture) videoInfo {
	return videoInfo{
		width:       int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height:      int(cap.Get(gocv.VideoCaptureFrameHeight)),
		fps:         cap.Get(gocv.VideoCaptureFPS),
		totalFrames: int(cap.Get(gocv.VideoCaptureFrameCount)),
	}
}
