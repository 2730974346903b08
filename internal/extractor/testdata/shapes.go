package shapes

import "fmt"

// Shape is anything with an area.
type Shape interface {
	fmt.Stringer
	Area() float64
}

type Point struct {
	X, Y float64
}

type Circle struct {
	Point
	Radius float64
	center *Point
	tags   []string
}

func NewCircle(r float64) *Circle {
	c := &Circle{Radius: r}
	return c
}

func (c *Circle) Area() float64 {
	return 3.14 * c.Radius * c.Radius
}

func (c *Circle) Scale(f float64) float64 {
	if f <= 0 {
		return 0
	}
	for i := 0; i < 2; i++ {
		c.Radius *= f
	}
	return c.Radius
}

func (c *Circle) Distance(p *Point) float64 {
	dx := c.center.X - p.X
	return dx
}

type Vec[T any] struct {
	items []T
}

func (v *Vec[T]) Push(x T) {
	v.items = append(v.items, x)
}

func helper() string {
	return fmt.Sprint(1)
}
