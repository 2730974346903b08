package shapes

type Canvas struct {
	shapes Vec[Circle]
	origin Point
}

func (cv *Canvas) Add(r float64) {
	type entry struct {
		circle *Circle
	}
	c := NewCircle(r)
	e := entry{circle: c}
	cv.shapes.Push(*e.circle)
	_ = cv.origin.X
}
