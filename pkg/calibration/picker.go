package calibration

import (
	"io"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

//ErrIncompleteCalibration is returned when picking stopped before 4 points were collected
var ErrIncompleteCalibration = errors.New("calibration cancelled before 4 points were picked")

//PointsNeeded is the number of clicks a calibration takes
const PointsNeeded = 4

//State of a Picker
type State int

const (
	AwaitingClick State = iota
	HaveNPoints
	Confirmed
	Cancelled
)

func (s State) String() string {
	switch s {
	case AwaitingClick:
		return "awaiting click"
	case HaveNPoints:
		return "have points"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

//EventKind tells a click from a cancel key press
type EventKind int

const (
	Click EventKind = iota
	Cancel
)

//Event is a user input while picking points
type Event struct {
	Kind  EventKind
	Point r2.Point
}

//ClickAt returns a click event
func ClickAt(x, y float64) Event {
	return Event{Kind: Click, Point: r2.Point{X: x, Y: y}}
}

//CancelEvent returns a cancel event
func CancelEvent() Event {
	return Event{Kind: Cancel}
}

//PointSource delivers user input. NextEvent blocks until the user does something,
//io.EOF means no more input will come.
type PointSource interface {
	NextEvent() (Event, error)
}

//Picker collects calibration clicks. Once Confirmed or Cancelled it ignores every other event.
type Picker struct {
	state  State
	points []r2.Point

	//OnClick is called for each recorded click with the number of points collected so far, used to mark the frame
	OnClick func(pt r2.Point, n int)
}

//NewPicker returns a picker waiting for its first click
func NewPicker() *Picker {
	return &Picker{state: AwaitingClick, points: make([]r2.Point, 0, PointsNeeded)}
}

//Handle applies an event and returns the new state
func (p *Picker) Handle(e Event) State {
	if p.Done() {
		return p.state
	}

	switch e.Kind {
	case Cancel:
		p.state = Cancelled
	case Click:
		p.points = append(p.points, e.Point)
		if p.OnClick != nil {
			p.OnClick(e.Point, len(p.points))
		}
		if len(p.points) == PointsNeeded {
			p.state = Confirmed
		} else {
			p.state = HaveNPoints
		}
	}

	return p.state
}

//State returns the current state
func (p *Picker) State() State {
	return p.state
}

//Done returns true once the picker is confirmed or cancelled
func (p *Picker) Done() bool {
	return p.state == Confirmed || p.state == Cancelled
}

//Points returns a copy of the clicks in the order they were made
func (p *Picker) Points() []r2.Point {
	res := make([]r2.Point, len(p.points))
	copy(res, p.points)
	return res
}

//Collect reads events from src until 4 points are picked. A cancel or the end of the input
//returns ErrIncompleteCalibration.
func (p *Picker) Collect(src PointSource) ([]r2.Point, error) {
	for !p.Done() {
		e, err := src.NextEvent()
		if err == io.EOF {
			p.state = Cancelled
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "reading calibration input")
		}
		p.Handle(e)
	}

	if p.state != Confirmed {
		return nil, errors.Wrapf(ErrIncompleteCalibration, "%d of %d points", len(p.points), PointsNeeded)
	}

	return p.Points(), nil
}

//Events is a PointSource replaying a fixed list of events
type Events []Event

//NextEvent pops the first event
func (e *Events) NextEvent() (Event, error) {
	if len(*e) == 0 {
		return Event{}, io.EOF
	}
	ev := (*e)[0]
	*e = (*e)[1:]
	return ev, nil
}
