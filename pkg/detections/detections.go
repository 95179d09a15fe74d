package detections

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//ErrMalformedDetection is returned for a record missing one of its box edges or frame number
var ErrMalformedDetection = errors.New("malformed detection record")

//ErrFrameOutOfRange is returned for a record pointing at a frame the video does not have
var ErrFrameOutOfRange = errors.New("detection frame out of range")

//Detection is one person found in one frame. Top is numerically greater than Bottom.
type Detection struct {
	Left       float64
	Right      float64
	Top        float64
	Bottom     float64
	Frame      int
	Confidence float64
	Label      string
}

//Record is a detection as the detector writes it
type Record struct {
	ID          string       `json:"_id,omitempty"`
	XMin        *float64     `json:"xmin"`
	XMax        *float64     `json:"xmax"`
	YMin        *float64     `json:"ymin"`
	YMax        *float64     `json:"ymax"`
	FrameNumber *FrameNumber `json:"frame_number"`
	Confidence  float64      `json:"confidence"`
	Label       string       `json:"label"`
}

//FrameNumber accepts both "12" and 12, the detector writes frame numbers as strings
type FrameNumber int

func (f *FrameNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(err, "frame_number %s", string(data))
	}
	if n != math.Trunc(n) {
		return errors.Errorf("frame_number %s is not an integer", string(data))
	}
	*f = FrameNumber(n)
	return nil
}

//Detection converts the record, it fails if an edge or the frame number is missing or not finite.
//Edges are mapped as the detector reports them: left = xmax, right = xmin, top = ymax, bottom = ymin.
func (r Record) Detection() (Detection, error) {
	missing := make([]string, 0)
	for name, v := range map[string]*float64{"xmin": r.XMin, "xmax": r.XMax, "ymin": r.YMin, "ymax": r.YMax} {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			missing = append(missing, name)
		}
	}
	if r.FrameNumber == nil {
		missing = append(missing, "frame_number")
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return Detection{}, errors.Wrapf(ErrMalformedDetection, "missing or invalid %s", strings.Join(missing, ", "))
	}

	return Detection{
		Left:       *r.XMax,
		Right:      *r.XMin,
		Top:        *r.YMax,
		Bottom:     *r.YMin,
		Frame:      int(*r.FrameNumber),
		Confidence: r.Confidence,
		Label:      r.Label,
	}, nil
}

//Decode reads a JSON array of records and converts every one of them
func Decode(r io.Reader) ([]Detection, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decoding detections")
	}

	return fromRecords(records)
}

//DecodeLines reads one JSON record per line, blank lines are skipped
func DecodeLines(r io.Reader) ([]Detection, error) {
	records := make([]Record, 0)
	dec := json.NewDecoder(r)
	for {
		var rec Record
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "decoding detection line %d", len(records)+1)
		}
		records = append(records, rec)
	}

	return fromRecords(records)
}

//LoadFile reads a detections file, either a JSON array or JSON lines
func LoadFile(path string) ([]Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading detections file '%s'", path)
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return Decode(bytes.NewReader(trimmed))
	}
	return DecodeLines(bytes.NewReader(data))
}

func fromRecords(records []Record) ([]Detection, error) {
	res := make([]Detection, 0, len(records))
	for i, rec := range records {
		d, err := rec.Detection()
		if err != nil {
			frame := "unknown"
			if rec.FrameNumber != nil {
				frame = strconv.Itoa(int(*rec.FrameNumber))
			}
			return nil, errors.Wrapf(err, "record %d (frame %s)", i, frame)
		}
		res = append(res, d)
	}
	return res, nil
}
