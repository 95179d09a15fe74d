package detections

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDetections = `[
	{"_id": "placeholder", "confidence": 1.0, "ymax": 120, "label": "person", "xmax": 40, "xmin": 10, "ymin": 60, "frame_number": "1"},
	{"_id": "placeholder", "confidence": 0.8, "ymax": 220, "label": "person", "xmax": 340, "xmin": 300, "ymin": 150, "frame_number": 3}
]`

func TestDecode(t *testing.T) {
	dets, err := Decode(strings.NewReader(sampleDetections))
	require.NoError(t, err)

	want := []Detection{
		{Left: 40, Right: 10, Top: 120, Bottom: 60, Frame: 1, Confidence: 1.0, Label: "person"},
		{Left: 340, Right: 300, Top: 220, Bottom: 150, Frame: 3, Confidence: 0.8, Label: "person"},
	}
	if diff := cmp.Diff(want, dets); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"missing xmin", `[{"xmax": 1, "ymin": 1, "ymax": 2, "frame_number": "1"}]`, "xmin"},
		{"missing frame", `[{"xmin": 0, "xmax": 1, "ymin": 1, "ymax": 2}]`, "frame_number"},
		{"second record", `[{"xmin": 0, "xmax": 1, "ymin": 1, "ymax": 2, "frame_number": 1}, {"xmin": 0, "xmax": 1, "ymax": 2, "frame_number": 7}]`, "record 1 (frame 7)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedDetection))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFrameNumber(t *testing.T) {
	_, err := Decode(strings.NewReader(`[{"xmin": 0, "xmax": 1, "ymin": 1, "ymax": 2, "frame_number": "one"}]`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`[{"xmin": 0, "xmax": 1, "ymin": 1, "ymax": 2, "frame_number": 1.5}]`))
	assert.Error(t, err)
}

func TestDecodeLines(t *testing.T) {
	input := `{"xmin": 10, "xmax": 40, "ymin": 60, "ymax": 120, "frame_number": "2", "label": "person"}

{"xmin": 11, "xmax": 41, "ymin": 61, "ymax": 121, "frame_number": "2", "label": "person"}
`
	dets, err := DecodeLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, 2, dets[1].Frame)
	assert.Equal(t, 41.0, dets[1].Left)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	arrayPath := filepath.Join(dir, "detections.json")
	require.NoError(t, os.WriteFile(arrayPath, []byte(sampleDetections), 0644))
	dets, err := LoadFile(arrayPath)
	require.NoError(t, err)
	assert.Len(t, dets, 2)

	linesPath := filepath.Join(dir, "detections.jsonl")
	require.NoError(t, os.WriteFile(linesPath, []byte(`{"xmin": 1, "xmax": 2, "ymin": 3, "ymax": 4, "frame_number": 1}`+"\n"), 0644))
	dets, err = LoadFile(linesPath)
	require.NoError(t, err)
	assert.Len(t, dets, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestGroup(t *testing.T) {
	dets := []Detection{{Frame: 3, Label: "a"}, {Frame: 1, Label: "b"}, {Frame: 3, Label: "c"}}

	frames, err := Group(dets, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, frames.Len())
	assert.Equal(t, 3, frames.Count())
	assert.Len(t, frames.At(1), 1)
	assert.NotNil(t, frames.At(2))
	assert.Empty(t, frames.At(2))
	assert.Equal(t, []string{"a", "c"}, []string{frames.At(3)[0].Label, frames.At(3)[1].Label})
	assert.Empty(t, frames.At(4))
	assert.Nil(t, frames.At(0))
	assert.Nil(t, frames.At(5))
}

func TestGroupOutOfRange(t *testing.T) {
	_, err := Group([]Detection{{Frame: 5}}, 4)
	assert.True(t, errors.Is(err, ErrFrameOutOfRange))

	_, err = Group([]Detection{{Frame: 0}}, 4)
	assert.True(t, errors.Is(err, ErrFrameOutOfRange))

	frames, err := Group(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, frames.Len())
}
