// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.19
//

package gorssi

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Point is a position in a local cartesian frame [m], either 2D or 3D.
type Point interface {
	Dims() int
	Coords() []float64
	DistanceTo(q Point) float64
}

//-------------------------------------------------------------------
// Point2D
//-------------------------------------------------------------------

type Point2D struct {
	r2.Point
}

func NewPoint2D(x, y float64) Point2D {
	return Point2D{r2.Point{X: x, Y: y}}
}

func (p Point2D) Dims() int {
	return 2
}

func (p Point2D) Coords() []float64 {
	return []float64{p.X, p.Y}
}

func (p Point2D) DistanceTo(q Point) float64 {
	if o, ok := q.(Point2D); ok {
		return p.Sub(o.Point).Norm()
	}
	return EucDist(p.Coords(), q.Coords())
}

func (p Point2D) String() string {
	return fmt.Sprintf("%.4f %.4f", p.X, p.Y)
}

//-------------------------------------------------------------------
// Point3D
//-------------------------------------------------------------------

type Point3D struct {
	r3.Vector
}

func NewPoint3D(x, y, z float64) Point3D {
	return Point3D{r3.Vector{X: x, Y: y, Z: z}}
}

func (p Point3D) Dims() int {
	return 3
}

func (p Point3D) Coords() []float64 {
	return []float64{p.X, p.Y, p.Z}
}

func (p Point3D) DistanceTo(q Point) float64 {
	if o, ok := q.(Point3D); ok {
		return p.Distance(o.Vector)
	}
	return EucDist(p.Coords(), q.Coords())
}

func (p Point3D) String() string {
	return fmt.Sprintf("%.4f %.4f %.4f", p.X, p.Y, p.Z)
}

//-------------------------------------------------------------------
// Helpers
//-------------------------------------------------------------------

// NewPoint creates a 2D or 3D point from its coordinates
func NewPoint(coords ...float64) (Point, error) {
	for _, v := range coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non finite coordinate %v", ErrInvalidConfig, coords)
		}
	}
	switch len(coords) {
	case 2:
		return NewPoint2D(coords[0], coords[1]), nil
	case 3:
		return NewPoint3D(coords[0], coords[1], coords[2]), nil
	default:
		return nil, fmt.Errorf("%w: points must have 2 or 3 coordinates, got %d", ErrInvalidConfig, len(coords))
	}
}

// ParsePoint reads a point from "x,y[,z]" or "x y [z]"
func ParsePoint(s string) (Point, error) {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	coords := make([]float64, 0, len(f))
	for _, a := range f {
		var v float64
		if _, err := fmt.Sscan(a, &v); err != nil {
			return nil, fmt.Errorf("%w: invalid coordinate %q", ErrInvalidConfig, a)
		}
		coords = append(coords, v)
	}
	return NewPoint(coords...)
}

// Centroid returns the mean position of the points, which must all have the same dimensions
func Centroid(pts []Point) (Point, error) {
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidConfig)
	}
	dims := pts[0].Dims()
	sum := make([]float64, dims)
	for _, p := range pts {
		if p.Dims() != dims {
			return nil, fmt.Errorf("%w: mixed point dimensions %d and %d", ErrInvalidConfig, dims, p.Dims())
		}
		for j, v := range p.Coords() {
			sum[j] += v
		}
	}
	for j := range sum {
		sum[j] /= float64(len(pts))
	}
	return NewPoint(sum...)
}
