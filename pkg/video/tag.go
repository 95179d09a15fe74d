package video

import (
	"io"
	"log"
	"os"
	"os/exec"
	"path"

	"github.com/chenBenjamin97/social-distance/pkg/birdseye"
	"github.com/chenBenjamin97/social-distance/pkg/calibration"
	"github.com/chenBenjamin97/social-distance/pkg/config"
	"github.com/chenBenjamin97/social-distance/pkg/detections"
	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/chenBenjamin97/social-distance/pkg/store"
	"github.com/chenBenjamin97/social-distance/pkg/utils"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

//Tag analyzes a video from the 'source' directory and saves the annotated video (video.prod_format) in the 'ready' directory.
//The video must have a saved calibration, nobody is there to pick points. Errors are logged.
//srcVideoName should include file's extension ('.mp4', etc.)
func Tag(s *config.Settings, db *store.DB, srcVideoName string) {
	job := Job{
		Name:       srcVideoName,
		SourcePath: path.Join(s.Directory.Source, srcVideoName),
		OutputPath: path.Join(s.Directory.Ready, config.BaseName(srcVideoName)+"."+s.Video.ProdFormat),
	}

	res, err := Analyze(s, db, job)
	if err != nil {
		log.Printf("Tag: Error, got '%v'", err)
		return
	}

	log.Printf("Tag: '%s' done, %d frames, %d with overlapping footprints", srcVideoName, res.ProcessedFrames, res.OverlapFrames)
}

//Analyze runs the whole pipeline on one video: calibration, homography, detections, then for every frame the footprints,
//their overlaps and the annotations drawn on the frame. Results are recorded in db when it is not nil.
//A failed calibration stops before any frame is processed, a frame which can not be recorded is logged and skipped.
func Analyze(s *config.Settings, db *store.DB, job Job) (*Result, error) {
	cap, err := gocv.VideoCaptureFile(job.SourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening '%s'", job.SourcePath)
	}
	defer cap.Close()

	info := newVideoInfo(cap)

	frameMat := gocv.NewMat()
	defer frameMat.Close()

	if !cap.Read(&frameMat) || frameMat.Empty() {
		return nil, errors.Errorf("could not read first frame of '%s'", job.SourcePath)
	}

	h, err := homographyFor(s, job, frameMat)
	if err != nil {
		return nil, err
	}

	if s.Rectified.Write {
		rectifiedPath := path.Join(s.Directory.Temp, config.BaseName(job.Name)+"_rectified.jpg")
		if err := writeRectified(frameMat, h, rectifiedPath); err != nil {
			log.Printf("Analyze: Error, got '%v'", err)
		}
	}

	dets, err := loadDetections(s, job)
	if err != nil {
		return nil, err
	}

	totalFrames := info.totalFrames
	if totalFrames <= 0 { //some containers do not report it
		totalFrames = lastFrame(dets)
	}

	frames, err := detections.Group(dets, totalFrames)
	if err != nil {
		return nil, err
	}

	res := &Result{OutputPath: job.OutputPath}
	if db != nil {
		if res.RunID, err = db.CreateRun(job.Name, totalFrames, info.width, info.height, h); err != nil {
			return nil, errors.Wrap(err, "creating run")
		}
	}

	//back to the first frame, it was consumed by calibration
	cap.Set(gocv.VideoCapturePosFrames, 0)

	tmpVideoPath := path.Join(s.Directory.Temp, config.BaseName(job.Name)+"."+utils.TempVideoFormat)
	defer os.Remove(tmpVideoPath) //remove temp file at the end of this function

	if err := writeAnnotated(s, db, cap, info, frames, footprint.NewAnalyzer(s.Params(), h), tmpVideoPath, res); err != nil {
		return nil, err
	}

	//convert from 'avi' to the production format. example: ffmpeg -y -i video.avi video.mp4
	cmd := exec.Command("ffmpeg", "-y", "-i", tmpVideoPath, job.OutputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return res, errors.Wrapf(err, "ffmpeg: %s", lastLine(out))
	}

	return res, nil
}

//CalibrateVideo makes sure a video has a calibration, picking its points on the first frame when needed
func CalibrateVideo(s *config.Settings, name, sourcePath string, in io.Reader) (geometry.Quad, error) {
	cap, err := gocv.VideoCaptureFile(sourcePath)
	if err != nil {
		return geometry.Quad{}, errors.Wrapf(err, "opening '%s'", sourcePath)
	}
	defer cap.Close()

	frameMat := gocv.NewMat()
	defer frameMat.Close()

	if !cap.Read(&frameMat) || frameMat.Empty() {
		return geometry.Quad{}, errors.Errorf("could not read first frame of '%s'", sourcePath)
	}

	return calibrate(s, name, frameMat, in)
}

//homographyFor returns the homography of a job, calibrating it first if needed
func homographyFor(s *config.Settings, job Job, firstFrame gocv.Mat) (*geometry.Homography, error) {
	quad, err := calibrate(s, job.Name, firstFrame, job.Input)
	if err != nil {
		return nil, errors.Wrap(err, "calibration")
	}

	h, err := geometry.BuildHomography(quad)
	if err != nil {
		return nil, errors.Wrapf(err, "homography of %v", quad.Points())
	}

	log.Printf("Analyze: Bird's-eye plane of '%s' is %dx%d", job.Name, h.Width, h.Height)
	return h, nil
}

func calibrate(s *config.Settings, name string, firstFrame gocv.Mat, in io.Reader) (geometry.Quad, error) {
	st := calibration.NewStore(s.CalibrationPath(name))

	if in == nil || st.Exists() {
		return calibration.Calibrate(st, nil, nil)
	}

	ws := NewWindowSource(firstFrame, in)
	defer ws.Close()

	log.Printf("Calibration: type 4 points as 'x y' lines, '%c' cancels", utils.CancelCalibrationKey)
	return calibration.Calibrate(st, ws, ws.Mark)
}

//writeAnnotated reads every frame left in cap, annotates it and writes it to a temporary video
func writeAnnotated(s *config.Settings, db *store.DB, cap *gocv.VideoCapture, info videoInfo, frames detections.Frames,
	analyzer *footprint.Analyzer, tmpVideoPath string, res *Result) error {
	videoWriter, err := gocv.VideoWriterFile(tmpVideoPath, utils.TempVideoCodec, info.fps, info.width, info.height, true)
	if err != nil {
		return errors.Wrapf(err, "opening '%s'", tmpVideoPath)
	}
	defer videoWriter.Close()

	frameMat := gocv.NewMat()
	defer frameMat.Close()

	birdsEyeSize := birdseye.DefaultSize
	birdsEyeSize.DPI = s.BirdsEye.DPI

	for frameNumber := 1; frameNumber <= frames.Len(); frameNumber++ {
		if !cap.Read(&frameMat) || frameMat.Empty() { //finished to read all video's frames
			log.Printf("Analyze: Video ended at frame %d of %d", frameNumber-1, frames.Len())
			break
		}

		fr := analyzer.Process(frameNumber, frames.At(frameNumber))
		plotAnnotations(&frameMat, fr.Annotations)

		if err := videoWriter.Write(frameMat); err != nil {
			log.Printf("Analyze: Error writing frame %d, got '%v'. Skipping.", frameNumber, err)
		}

		res.ProcessedFrames++
		if fr.OverlappedCount() > 0 {
			res.OverlapFrames++
		}

		if db != nil {
			if err := db.RecordFrame(res.RunID, fr); err != nil {
				log.Printf("Analyze: Error recording frame %d, got '%v'. Skipping.", frameNumber, err)
			}
		}

		if s.BirdsEye.Every > 0 && frameNumber%s.BirdsEye.Every == 0 {
			scene := birdseye.Scene{
				Frame:       frameNumber,
				VideoWidth:  float64(info.width),
				VideoHeight: float64(info.height),
				Footprints:  fr.Footprints,
				Overlapped:  fr.Overlapped,
			}
			dir := path.Join(s.Directory.BirdsEye, config.BaseName(tmpVideoPath))
			if _, err := birdseye.RenderFile(dir, scene, birdsEyeSize); err != nil {
				log.Printf("Analyze: Error rendering bird's-eye view of frame %d, got '%v'", frameNumber, err)
			}
		}

		if frameNumber%utils.ProgressEveryFrames == 0 {
			log.Printf("Analyze: Processed frame %d of %d", frameNumber, frames.Len())
		}
	}

	return nil
}

//lastLine returns the last non empty line of a command's output, where ffmpeg writes its error
func lastLine(out []byte) string {
	end := len(out)
	for end > 0 && (out[end-1] == '\n' || out[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && out[start-1] != '\n' {
		start--
	}
	return string(out[start:end])
}
