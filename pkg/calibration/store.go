package calibration

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

//ErrMalformedCalibration is returned for a calibration file that is not a list of 4 [x, y] pairs
var ErrMalformedCalibration = errors.New("malformed calibration file")

//Store keeps the raw calibration clicks of a camera in a JSON file: [[x, y], [x, y], [x, y], [x, y]]
type Store struct {
	path string
}

//NewStore returns a store backed by given file path
func NewStore(path string) *Store {
	return &Store{path: path}
}

//Path returns the file the store reads and writes
func (s *Store) Path() string {
	return s.path
}

//Exists returns true if a calibration was already saved
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

//Load reads the saved clicks in the order they were made. A missing file returns an error
//matching os.ErrNotExist.
func (s *Store) Load() ([]r2.Point, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, errors.Wrapf(ErrMalformedCalibration, "'%s': %v", s.path, err)
	}

	if len(pairs) != PointsNeeded {
		return nil, errors.Wrapf(ErrMalformedCalibration, "'%s' has %d points", s.path, len(pairs))
	}

	pts := make([]r2.Point, 0, PointsNeeded)
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, errors.Wrapf(ErrMalformedCalibration, "'%s' point %d has %d coordinates", s.path, i, len(pair))
		}
		pts = append(pts, r2.Point{X: pair[0], Y: pair[1]})
	}

	return pts, nil
}

//Save writes the clicks, creating the parent directory if needed
func (s *Store) Save(pts []r2.Point) error {
	if len(pts) != PointsNeeded {
		return errors.Wrapf(geometry.ErrPointCount, "saving calibration")
	}

	pairs := make([][]float64, 0, len(pts))
	for _, pt := range pts {
		pairs = append(pairs, []float64{pt.X, pt.Y})
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating calibration directory '%s'", dir)
		}
	}

	return os.WriteFile(s.path, data, 0644)
}

//Calibrate returns the sorted calibration quad. A saved calibration is loaded and left untouched,
//otherwise 4 points are picked from src, saved in click order and sorted.
func Calibrate(s *Store, src PointSource, onClick func(pt r2.Point, n int)) (geometry.Quad, error) {
	pts, err := s.Load()
	if err == nil {
		return geometry.SortPoints(pts)
	}

	if !errors.Is(err, os.ErrNotExist) {
		return geometry.Quad{}, err
	}

	log.Printf("Calibrate: No calibration found at '%s', picking 4 points", s.path)

	if src == nil {
		return geometry.Quad{}, errors.Wrap(ErrIncompleteCalibration, "no input to pick points from")
	}

	picker := NewPicker()
	picker.OnClick = onClick

	if pts, err = picker.Collect(src); err != nil {
		return geometry.Quad{}, err
	}

	quad, err := geometry.SortPoints(pts)
	if err != nil {
		return geometry.Quad{}, err
	}

	if err := s.Save(pts); err != nil {
		return geometry.Quad{}, errors.Wrapf(err, "saving calibration to '%s'", s.path)
	}

	return quad, nil
}
