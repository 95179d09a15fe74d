package birdseye

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScene() Scene {
	return Scene{
		Frame:       12,
		VideoWidth:  1280,
		VideoHeight: 720,
		Footprints: []footprint.Footprint{
			{CenterX: 100, CenterY: 600, RadiusX: 30, RadiusY: 12},
			{CenterX: 120, CenterY: 610, RadiusX: 30, RadiusY: 12},
			{CenterX: 900, CenterY: 300, RadiusX: 0, RadiusY: 0},
		},
		Overlapped: []bool{true, true, false},
	}
}

func TestEllipsePoints(t *testing.T) {
	pts := EllipsePoints(footprint.Footprint{CenterX: 100, CenterY: 200, RadiusX: 10, RadiusY: 4}, 720)
	require.Len(t, pts, ellipseSegments)

	//angle 0 is the right end, scaled by 3/2 horizontally
	assert.InDelta(t, 115, pts[0].X, 1e-9)
	assert.InDelta(t, 520, pts[0].Y, 1e-9)

	//a quarter turn is the lower end in image space, scaled by 2/2 vertically
	q := ellipseSegments / 4
	assert.InDelta(t, 100, pts[q].X, 1e-9)
	assert.InDelta(t, 720-204, pts[q].Y, 1e-9)
}

func TestNewPlot(t *testing.T) {
	p, err := NewPlot(testScene())
	require.NoError(t, err)

	assert.Equal(t, "Bird's-eye view - frame 12", p.Title.Text)
	assert.Equal(t, 1280.0, p.X.Max)
	assert.Equal(t, 720.0, p.Y.Max)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testScene(), DefaultSize))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 384, cfg.Width)
	assert.Equal(t, 576, cfg.Height)
}

func TestRenderEmptyScene(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Scene{Frame: 1, VideoWidth: 640, VideoHeight: 480}, Size{Width: DefaultSize.Width, Height: DefaultSize.Height}))
	assert.NotZero(t, buf.Len())
}

func TestRenderFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "birdseye")

	path, err := RenderFile(dir, testScene(), DefaultSize)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "frame_000012.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}
