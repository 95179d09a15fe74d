package detections

import "github.com/pkg/errors"

//Frames holds the detections of every frame of a video, index 0 is frame number 1.
//Every frame has an entry, frames without detections hold an empty slice.
type Frames [][]Detection

//Group sorts detections into their frames. totalFrames is the number of frames the video has,
//a detection outside [1, totalFrames] is an error.
func Group(dets []Detection, totalFrames int) (Frames, error) {
	if totalFrames < 0 {
		return nil, errors.Errorf("negative frames count %d", totalFrames)
	}

	frames := make(Frames, totalFrames)
	for i := range frames {
		frames[i] = make([]Detection, 0)
	}

	for i, d := range dets {
		if d.Frame < 1 || d.Frame > totalFrames {
			return nil, errors.Wrapf(ErrFrameOutOfRange, "record %d: frame %d, video has %d frames", i, d.Frame, totalFrames)
		}
		frames[d.Frame-1] = append(frames[d.Frame-1], d)
	}

	return frames, nil
}

//Len returns the number of frames
func (f Frames) Len() int {
	return len(f)
}

//At returns the detections of given frame number (1 based), nil if the frame does not exist
func (f Frames) At(frameNumber int) []Detection {
	if frameNumber < 1 || frameNumber > len(f) {
		return nil
	}
	return f[frameNumber-1]
}

//Count returns the number of detections over all frames
func (f Frames) Count() int {
	n := 0
	for _, dets := range f {
		n += len(dets)
	}
	return n
}
