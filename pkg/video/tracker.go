package video

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"os/exec"
	"strings"

	"github.com/chenBenjamin97/social-distance/pkg/config"
	"github.com/chenBenjamin97/social-distance/pkg/detections"
	"github.com/pkg/errors"
)

//RunDetector executes the external person detector on given video and collects the bounding boxes it prints.
//The detector is expected to print one JSON record per detection, in the detections file format. Other lines
//(progress, "FPS: " prints) are skipped and an "EOF" line ends the output.
func RunDetector(command, videoPath string) ([]detections.Detection, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("RunDetector: empty detector command")
	}

	cmd := exec.Command(args[0], append(args[1:], "--video", videoPath)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "RunDetector: getting detector's standard output")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "RunDetector: executing '%s'", args[0])
	}

	dets, readErr := readDetectorOutput(stdout)

	//drain whatever is left so the detector never blocks on a full pipe
	io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		return nil, errors.Wrap(err, "RunDetector: waiting for detector")
	}

	return dets, readErr
}

//readDetectorOutput keeps the JSON lines of the detector's output and decodes them
func readDetectorOutput(r io.Reader) ([]detections.Detection, error) {
	var records bytes.Buffer
	skipped := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "EOF" {
			break
		}

		if !strings.HasPrefix(line, "{") { //a log print, skip it
			if line != "" {
				skipped++
			}
			continue
		}

		records.WriteString(line)
		records.WriteByte('\n')
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading detector output")
	}

	if skipped > 0 {
		log.Printf("RunDetector: Skipped %d non detection lines", skipped)
	}

	return detections.DecodeLines(&records)
}

//loadDetections reads the detections of a job from its detections file, or runs the detector when not local
func loadDetections(s *config.Settings, job Job) ([]detections.Detection, error) {
	if s.Detections.Local {
		path := s.DetectionsPath(job.Name)
		dets, err := detections.LoadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "loading detections from '%s'", path)
		}
		return dets, nil
	}

	return RunDetector(s.Detections.Command, job.SourcePath)
}

//lastFrame returns the highest frame number referenced by given detections
func lastFrame(dets []detections.Detection) int {
	last := 0
	for _, d := range dets {
		if d.Frame > last {
			last = d.Frame
		}
	}
	return last
}
