package geometry

//Box is an axis aligned rectangle stored as [xmin, xmax, ymin, ymax]
type Box struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

//Empty returns true for boxes without area, those never overlap anything
func (b Box) Empty() bool {
	return !(b.XMax > b.XMin) || !(b.YMax > b.YMin)
}

//Overlaps returns true if both boxes share some area. Boxes touching on an edge do not overlap.
func (b Box) Overlaps(other Box) bool {
	if b.Empty() || other.Empty() {
		return false
	}

	if b.XMax <= other.XMin || other.XMax <= b.XMin {
		return false
	}

	if b.YMax <= other.YMin || other.YMax <= b.YMin {
		return false
	}

	return true
}
