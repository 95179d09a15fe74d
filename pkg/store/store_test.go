package store

import (
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/social-distance/pkg/detections"
	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testHomography() *geometry.Homography {
	return &geometry.Homography{M: [3][3]float64{{0.5, 0, 3}, {0, 0.5, 4}, {0, 0.001, 1}}, Width: 400, Height: 300}
}

func frameResult(frame int, dets ...detections.Detection) footprint.FrameResult {
	a := footprint.NewAnalyzer(footprint.Params{PhysicalDistance: 20, ReferenceHeight: 100}, &geometry.Homography{
		M: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	})
	return a.Process(frame, dets)
}

func TestCreateAndGetRun(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateRun("street.mp4", 120, 1280, 720, testHomography())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	run, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, "street.mp4", run.Video)
	assert.Equal(t, 120, run.TotalFrames)
	assert.Equal(t, 1280, run.Width)
	assert.Equal(t, 720, run.Height)
	assert.Equal(t, *testHomography(), run.Homography)

	_, err = db.GetRun(uuid.New().String())
	assert.Equal(t, ErrRunNotFound, err)
}

func TestLatestRun(t *testing.T) {
	db := newTestDB(t)

	_, err := db.LatestRun("street.mp4")
	assert.Equal(t, ErrRunNotFound, err)

	first, err := db.CreateRun("street.mp4", 10, 640, 480, testHomography())
	require.NoError(t, err)
	second, err := db.CreateRun("street.mp4", 10, 640, 480, testHomography())
	require.NoError(t, err)
	_, err = db.CreateRun("other.mp4", 10, 640, 480, testHomography())
	require.NoError(t, err)

	run, err := db.LatestRun("street.mp4")
	require.NoError(t, err)
	assert.Equal(t, second, run.ID)
	assert.NotEqual(t, first, run.ID)
}

func TestRecordFrameAndSummary(t *testing.T) {
	db := newTestDB(t)
	id, err := db.CreateRun("street.mp4", 3, 640, 480, testHomography())
	require.NoError(t, err)

	close1 := detections.Detection{Left: 0, Right: 10, Top: 50, Bottom: 0}
	close2 := detections.Detection{Left: 5, Right: 15, Top: 50, Bottom: 0}
	far := detections.Detection{Left: 300, Right: 310, Top: 50, Bottom: 0}

	require.NoError(t, db.RecordFrame(id, frameResult(1, close1, close2, far)))
	require.NoError(t, db.RecordFrame(id, frameResult(2)))
	require.NoError(t, db.RecordFrame(id, frameResult(3, far)))

	fps, err := db.FrameFootprints(id, 1)
	require.NoError(t, err)
	require.Len(t, fps, 3)
	assert.True(t, fps[0].Overlapped)
	assert.True(t, fps[1].Overlapped)
	assert.False(t, fps[2].Overlapped)
	assert.Equal(t, 2, fps[2].Index)
	assert.Equal(t, 305.0, fps[2].Footprint.CenterX)
	assert.Equal(t, 10.0, fps[2].Footprint.RadiusX)
	assert.Equal(t, geometry.Box{XMin: 295, XMax: 315, YMin: -50, YMax: 50}, fps[2].Footprint.Box)

	empty, err := db.FrameFootprints(id, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	s, err := db.Summary(id)
	require.NoError(t, err)
	assert.Equal(t, Summary{
		RunID:                id,
		Video:                "street.mp4",
		TotalFrames:          3,
		RecordedFrames:       3,
		Detections:           4,
		OverlappedDetections: 2,
		FramesWithOverlap:    1,
	}, *s)
}

func TestRecordFrameReplaces(t *testing.T) {
	db := newTestDB(t)
	id, err := db.CreateRun("street.mp4", 1, 640, 480, testHomography())
	require.NoError(t, err)

	d := detections.Detection{Left: 0, Right: 10, Top: 50, Bottom: 0}
	require.NoError(t, db.RecordFrame(id, frameResult(1, d, d)))
	require.NoError(t, db.RecordFrame(id, frameResult(1, d)))

	fps, err := db.FrameFootprints(id, 1)
	require.NoError(t, err)
	assert.Len(t, fps, 1)

	s, err := db.Summary(id)
	require.NoError(t, err)
	assert.Equal(t, 1, s.RecordedFrames)
	assert.Equal(t, 1, s.Detections)
	assert.Equal(t, 0, s.OverlappedDetections)
}
