package video

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chenBenjamin97/social-distance/pkg/calibration"
	"github.com/chenBenjamin97/social-distance/pkg/detections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePointLine(t *testing.T) {
	tests := []struct {
		line string
		want calibration.Event
	}{
		{"10 20", calibration.ClickAt(10, 20)},
		{"  10.5,20.25 ", calibration.ClickAt(10.5, 20.25)},
		{"3\t4", calibration.ClickAt(3, 4)},
		{"c", calibration.CancelEvent()},
		{" c\n", calibration.CancelEvent()},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parsePointLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePointLineErrors(t *testing.T) {
	for _, line := range []string{"", "10", "1 2 3", "x 2", "1 y"} {
		_, err := parsePointLine(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestReadDetectorOutput(t *testing.T) {
	out := strings.Join([]string{
		"loading model",
		`{"xmin": 10, "xmax": 40, "ymin": 60, "ymax": 120, "frame_number": "1", "confidence": 0.9, "label": "person"}`,
		"FPS: 12.3",
		`{"xmin": 50, "xmax": 80, "ymin": 60, "ymax": 120, "frame_number": 2, "confidence": 0.8, "label": "person"}`,
		"EOF",
		`{"xmin": 1, "xmax": 2, "ymin": 3, "ymax": 4, "frame_number": 3}`,
	}, "\n")

	dets, err := readDetectorOutput(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, 1, dets[0].Frame)
	assert.Equal(t, 40.0, dets[0].Left)
	assert.Equal(t, 10.0, dets[0].Right)
	assert.Equal(t, 2, dets[1].Frame)
}

func TestReadDetectorOutputMalformed(t *testing.T) {
	_, err := readDetectorOutput(strings.NewReader(`{"xmin": 10, "frame_number": 1}`))
	assert.ErrorIs(t, err, detections.ErrMalformedDetection)
}

func TestRunDetectorEmptyCommand(t *testing.T) {
	_, err := RunDetector("  ", "video.mp4")
	assert.Error(t, err)
}

func TestLastFrame(t *testing.T) {
	assert.Equal(t, 0, lastFrame(nil))
	assert.Equal(t, 7, lastFrame([]detections.Detection{{Frame: 3}, {Frame: 7}, {Frame: 1}}))
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "", lastLine(nil))
	assert.Equal(t, "no such file", lastLine([]byte("ffmpeg version 4\nno such file\n")))
	assert.Equal(t, "single", lastLine([]byte("single")))
}

func TestReadLines(t *testing.T) {
	lines := make(chan string)
	errs := make(chan error, 1)

	go readLines(strings.NewReader("10 20\nc\n"), lines, errs, make(chan struct{}))

	assert.Equal(t, "10 20", <-lines)
	assert.Equal(t, "c", <-lines)
	_, ok := <-lines
	assert.False(t, ok)
	assert.Equal(t, io.EOF, <-errs)
}

func TestReadLinesStopsWhenDone(t *testing.T) {
	lines := make(chan string)
	errs := make(chan error, 1)
	done := make(chan struct{})

	finished := make(chan struct{})
	go func() {
		readLines(strings.NewReader("10 20\n30 40\n"), lines, errs, done)
		close(finished)
	}()

	assert.Equal(t, "10 20", <-lines)
	close(done)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after done was closed")
	}
	assert.Equal(t, io.EOF, <-errs)
}
