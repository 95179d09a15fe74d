package geometry

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//ErrDegenerateQuad is returned when the calibration points can not describe a rectangle on the ground
var ErrDegenerateQuad = errors.New("degenerate calibration quad")

//Homography maps points from the camera image to the bird's-eye plane. Indices are [row][column].
//Width and Height are the size of the rectified (bird's-eye) image.
type Homography struct {
	M      [3][3]float64
	Width  int
	Height int
}

//At returns the matrix entry at given row and column
func (h *Homography) At(row, col int) float64 {
	return h.M[row][col]
}

//Apply projects an image point to the bird's-eye plane
func (h *Homography) Apply(pt r2.Point) r2.Point {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	z := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	return r2.Point{X: x / z, Y: y / z}
}

//Dense returns the matrix as a gonum dense matrix
func (h *Homography) Dense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, h.M[r][c])
		}
	}
	return d
}

//Destination returns the corners of the rectified rectangle in quad order
func (h *Homography) Destination() [4]r2.Point {
	w, ht := float64(h.Width-1), float64(h.Height-1)
	return [4]r2.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: ht}, {X: 0, Y: ht}}
}

//BuildHomography computes the perspective transform taking the calibration quad onto an axis aligned
//rectangle as wide as its longest horizontal edge and as high as its longest vertical edge
func BuildHomography(q Quad) (*Homography, error) {
	widthA := q.BottomRight.Sub(q.BottomLeft).Norm()
	widthB := q.TopRight.Sub(q.TopLeft).Norm()
	maxWidth := maxInt(int(widthA), int(widthB))

	heightA := q.TopRight.Sub(q.BottomRight).Norm()
	heightB := q.TopLeft.Sub(q.BottomLeft).Norm()
	maxHeight := maxInt(int(heightA), int(heightB))

	if maxWidth < 2 || maxHeight < 2 {
		return nil, errors.Wrapf(ErrDegenerateQuad, "rectified size %dx%d", maxWidth, maxHeight)
	}

	h := &Homography{Width: maxWidth, Height: maxHeight}
	m, err := solvePerspective(q.Points(), h.Destination())
	if err != nil {
		return nil, err
	}
	h.M = m

	return h, nil
}

//solvePerspective solves the 8 unknowns of the 3x3 transform (h33 fixed to 1) from 4 correspondences:
//u = (h11 x + h12 y + h13) / (h31 x + h32 y + 1), same for v with the second row
func solvePerspective(src, dst [4]r2.Point) ([3][3]float64, error) {
	var res [3][3]float64

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		a.SetRow(i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(i+4, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(i, u)
		b.SetVec(i+4, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return res, errors.Wrap(ErrDegenerateQuad, err.Error())
	}

	for i := 0; i < 8; i++ {
		v := sol.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return res, errors.Wrap(ErrDegenerateQuad, "non finite transform")
		}
		res[i/3][i%3] = v
	}
	res[2][2] = 1

	return res, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
