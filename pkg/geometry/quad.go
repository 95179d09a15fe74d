package geometry

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

//ErrPointCount is returned when a calibration is not made of exactly four points
var ErrPointCount = errors.New("calibration needs exactly 4 points")

//Quad is the calibration rectangle as seen by the camera, corners ordered clockwise from top left
type Quad struct {
	TopLeft     r2.Point
	TopRight    r2.Point
	BottomRight r2.Point
	BottomLeft  r2.Point
}

//Points returns the corners in (top left, top right, bottom right, bottom left) order
func (q Quad) Points() [4]r2.Point {
	return [4]r2.Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

//SortPoints is SortQuad for a slice, it fails unless exactly 4 points are given
func SortPoints(pts []r2.Point) (Quad, error) {
	if len(pts) != 4 {
		return Quad{}, errors.Wrapf(ErrPointCount, "got %d", len(pts))
	}

	return SortQuad([4]r2.Point{pts[0], pts[1], pts[2], pts[3]}), nil
}

//SortQuad orders 4 unordered points as (top left, top right, bottom right, bottom left).
//The two left-most points are split by y, and of the two right-most points the one farther from
//the top left corner is the bottom right one. Ties are broken on the other coordinate so the
//result never depends on the input order.
func SortQuad(pts [4]r2.Point) Quad {
	xSorted := pts //array copy, caller's points stay untouched
	sort.Slice(xSorted[:], func(i, j int) bool {
		return lessXY(xSorted[i], xSorted[j])
	})

	left := [2]r2.Point{xSorted[0], xSorted[1]}
	right := [2]r2.Point{xSorted[2], xSorted[3]}

	if lessYX(left[1], left[0]) {
		left[0], left[1] = left[1], left[0]
	}
	tl, bl := left[0], left[1]

	//by the Pythagorean theorem the right point farther from top left is the bottom right one
	d0 := tl.Sub(right[0]).Norm()
	d1 := tl.Sub(right[1]).Norm()
	br, tr := right[0], right[1]
	if d1 > d0 || (d1 == d0 && lessYX(right[0], right[1])) {
		br, tr = right[1], right[0]
	}

	return Quad{TopLeft: tl, TopRight: tr, BottomRight: br, BottomLeft: bl}
}

func lessXY(a, b r2.Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func lessYX(a, b r2.Point) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
