package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

//ErrRunNotFound is returned when a video was never analyzed
var ErrRunNotFound = errors.New("no analysis run found")

//DB keeps the footprints computed for every analyzed video
type DB struct {
	*sql.DB
}

//Run is one analysis of one video
type Run struct {
	ID          string
	Video       string
	TotalFrames int
	Width       int
	Height      int
	Homography  geometry.Homography
	CreatedAt   time.Time
}

//Summary is the aggregate of a run
type Summary struct {
	RunID                string `json:"run_id"`
	Video                string `json:"video"`
	TotalFrames          int    `json:"total_frames"`
	RecordedFrames       int    `json:"recorded_frames"`
	Detections           int    `json:"detections"`
	OverlappedDetections int    `json:"overlapped_detections"`
	FramesWithOverlap    int    `json:"frames_with_overlap"`
}

//StoredFootprint is a footprint as read back from the database
type StoredFootprint struct {
	Index      int
	Footprint  footprint.Footprint
	Overlapped bool
}

//NewDB opens (and creates if needed) the sqlite database at path
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	//one writer at a time, sqlite locks the whole file anyway
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			video TEXT NOT NULL,
			total_frames INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			homography TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS frames (
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			detections INTEGER NOT NULL,
			overlapped INTEGER NOT NULL,
			PRIMARY KEY (run_id, frame),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS footprints (
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			center_x DOUBLE,
			center_y DOUBLE,
			radius_x DOUBLE,
			radius_y DOUBLE,
			overlapped INTEGER NOT NULL,
			PRIMARY KEY (run_id, frame, idx),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

//CreateRun registers a new analysis and returns its ID
func (db *DB) CreateRun(video string, totalFrames, width, height int, h *geometry.Homography) (string, error) {
	m, err := json.Marshal(h)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = db.Exec("INSERT INTO runs (run_id, video, total_frames, width, height, homography, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, video, totalFrames, width, height, string(m), time.Now().UnixNano())
	if err != nil {
		return "", errors.Wrapf(err, "creating run for '%s'", video)
	}

	return id, nil
}

//RecordFrame stores the result of one frame, replacing what was stored before for it
func (db *DB) RecordFrame(runID string, res footprint.FrameResult) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM footprints WHERE run_id = ? AND frame = ?", runID, res.Frame); err != nil {
		return err
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO frames (run_id, frame, detections, overlapped) VALUES (?, ?, ?, ?)",
		runID, res.Frame, len(res.Footprints), res.OverlappedCount())
	if err != nil {
		return errors.Wrapf(err, "recording frame %d", res.Frame)
	}

	for i, fp := range res.Footprints {
		overlapped := i < len(res.Overlapped) && res.Overlapped[i]
		_, err := tx.Exec("INSERT INTO footprints (run_id, frame, idx, center_x, center_y, radius_x, radius_y, overlapped) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			runID, res.Frame, i, fp.CenterX, fp.CenterY, fp.RadiusX, fp.RadiusY, boolToInt(overlapped))
		if err != nil {
			return errors.Wrapf(err, "recording frame %d footprint %d", res.Frame, i)
		}
	}

	return tx.Commit()
}

//GetRun returns a run by ID
func (db *DB) GetRun(runID string) (*Run, error) {
	return db.scanRun(db.QueryRow("SELECT run_id, video, total_frames, width, height, homography, created_at FROM runs WHERE run_id = ?", runID))
}

//LatestRun returns the most recent run of a video
func (db *DB) LatestRun(video string) (*Run, error) {
	return db.scanRun(db.QueryRow("SELECT run_id, video, total_frames, width, height, homography, created_at FROM runs WHERE video = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", video))
}

func (db *DB) scanRun(row *sql.Row) (*Run, error) {
	r := &Run{}
	var m string
	var createdAt int64
	if err := row.Scan(&r.ID, &r.Video, &r.TotalFrames, &r.Width, &r.Height, &m, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt)

	if err := json.Unmarshal([]byte(m), &r.Homography); err != nil {
		return nil, errors.Wrapf(err, "decoding homography of run %s", r.ID)
	}

	return r, nil
}

//FrameFootprints returns the stored footprints of a frame in detection order
func (db *DB) FrameFootprints(runID string, frame int) ([]StoredFootprint, error) {
	rows, err := db.Query("SELECT idx, center_x, center_y, radius_x, radius_y, overlapped FROM footprints WHERE run_id = ? AND frame = ? ORDER BY idx", runID, frame)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]StoredFootprint, 0)
	for rows.Next() {
		var sf StoredFootprint
		var overlapped int
		fp := &sf.Footprint
		if err := rows.Scan(&sf.Index, &fp.CenterX, &fp.CenterY, &fp.RadiusX, &fp.RadiusY, &overlapped); err != nil {
			return nil, err
		}
		sf.Overlapped = overlapped != 0
		fp.Box = geometry.Box{
			XMin: fp.CenterX - fp.RadiusX,
			XMax: fp.CenterX + fp.RadiusX,
			YMin: fp.CenterY - fp.RadiusY,
			YMax: fp.CenterY + fp.RadiusY,
		}
		res = append(res, sf)
	}

	return res, rows.Err()
}

//Summary aggregates a run
func (db *DB) Summary(runID string) (*Summary, error) {
	run, err := db.GetRun(runID)
	if err != nil {
		return nil, err
	}

	s := &Summary{RunID: run.ID, Video: run.Video, TotalFrames: run.TotalFrames}
	err = db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(detections), 0), COALESCE(SUM(overlapped), 0), COALESCE(SUM(CASE WHEN overlapped > 0 THEN 1 ELSE 0 END), 0)
		FROM frames WHERE run_id = ?`, runID).Scan(&s.RecordedFrames, &s.Detections, &s.OverlappedDetections, &s.FramesWithOverlap)
	if err != nil {
		return nil, errors.Wrapf(err, "summarizing run %s", runID)
	}

	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
