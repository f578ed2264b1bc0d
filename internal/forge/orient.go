package forge

// span maps structure-local coordinates (along the span, across it, up) to
// world space for an "x" or "y" orientation.
type span struct {
	o     [3]float64
	along int // 0 when the span runs along x, 1 along y
}

func newSpan(loc []float64, orientation string) span {
	s := span{o: originOf(loc)}
	if orientation == "y" {
		s.along = 1
	}
	return s
}

func (s span) at(along, across, up float64) []float64 {
	loc := vec(s.o[0], s.o[1], s.o[2]+up)
	loc[s.along] += along
	loc[1-s.along] += across
	return loc
}

// pitch returns a rotation tilting a piece by deg around the axis across the
// span, with an optional roll for cylinder meshes laid on their side.
func (s span) pitch(deg, roll float64) []float64 {
	if s.along == 0 {
		return vec(deg, 0, roll)
	}
	return vec(0, deg, roll)
}
