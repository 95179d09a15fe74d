package video

import (
	"bufio"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/chenBenjamin97/social-distance/pkg/calibration"
	"github.com/chenBenjamin97/social-distance/pkg/utils"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

//WindowSource shows a frame in an OpenCV window and reads calibration points from a terminal, one "x y" pair per line.
//Typing 'c' on the terminal or pressing it in the window cancels.
type WindowSource struct {
	window *gocv.Window
	frame  gocv.Mat
	lines  chan string
	errs   chan error
	done   chan struct{}
}

//NewWindowSource opens the calibration window over a copy of given frame, Close it when done
func NewWindowSource(frame gocv.Mat, in io.Reader) *WindowSource {
	ws := &WindowSource{
		window: gocv.NewWindow(utils.CalibrationWindowName),
		frame:  frame.Clone(),
		lines:  make(chan string),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}

	go readLines(in, ws.lines, ws.errs, ws.done)

	return ws
}

//readLines sends every line of in until it ends or done is closed, then reports why on errs and closes lines
func readLines(in io.Reader, lines chan<- string, errs chan<- error, done <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			errs <- io.EOF
			return
		}
	}

	if err := scanner.Err(); err != nil {
		errs <- err
	} else {
		errs <- io.EOF
	}
}

//NextEvent refreshes the window until a line is typed or the cancel key is pressed
func (ws *WindowSource) NextEvent() (calibration.Event, error) {
	for {
		ws.window.IMShow(ws.frame)
		if ws.window.WaitKey(30) == utils.CancelCalibrationKey {
			return calibration.CancelEvent(), nil
		}

		select {
		case line, ok := <-ws.lines:
			if !ok {
				return calibration.Event{}, <-ws.errs
			}

			e, err := parsePointLine(line)
			if err != nil {
				log.Printf("WindowSource: Error, got '%v'", err)
				continue
			}
			return e, nil
		default:
		}
	}
}

//Mark draws the n-th picked point on the shown frame
func (ws *WindowSource) Mark(pt r2.Point, n int) {
	plotMarker(&ws.frame, pt)
	log.Printf("Calibration: point %d/%d at (%.0f, %.0f)", n, calibration.PointsNeeded, pt.X, pt.Y)
}

//Close closes the window and releases the frame
func (ws *WindowSource) Close() error {
	close(ws.done)
	ws.frame.Close()
	return ws.window.Close()
}

//parsePointLine reads "x y" (or "x,y") as a click, and the cancel key as a cancel
func parsePointLine(line string) (calibration.Event, error) {
	line = strings.TrimSpace(line)
	if line == string(utils.CancelCalibrationKey) {
		return calibration.CancelEvent(), nil
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) != 2 {
		return calibration.Event{}, errors.Errorf("expected 'x y', got '%s'", line)
	}

	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return calibration.Event{}, errors.Wrapf(err, "x of '%s'", line)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return calibration.Event{}, errors.Wrapf(err, "y of '%s'", line)
	}

	return calibration.ClickAt(x, y), nil
}
