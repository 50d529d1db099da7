// Package landmarks holds the data carried through the detection pipeline:
// fixed size landmark sets, per item results and the Record abstraction the
// detection stage writes into.
package landmarks

import (
	"image"
	"math"
)

// Count is the number of landmarks produced for every processed image.
const Count = 77

// Point is a landmark location in image pixel coordinates.
type Point struct {
	X, Y float64
}

// IsMissing reports whether p is the sentinel written when no face is found.
func (p Point) IsMissing() bool { return math.IsNaN(p.X) && math.IsNaN(p.Y) }

// Set is an ordered, fixed length sequence of landmarks indexed by landmark
// number.
type Set [Count]Point

// Missing returns the set written when detection fails: every coordinate is
// NaN so downstream geometry can never mistake it for a real location.
func Missing() Set {
	var s Set
	nan := math.NaN()
	for i := range s {
		s[i] = Point{nan, nan}
	}
	return s
}

// FromInterleaved builds a Set from x,y pairs laid out as x0,y0,x1,y1,...
// It panics if coords does not hold exactly 2*Count values.
func FromInterleaved(coords []float32) Set {
	if len(coords) != 2*Count {
		panic("landmarks: interleaved coordinates must hold 2*Count values")
	}
	var s Set
	for i := range s {
		s[i] = Point{float64(coords[2*i]), float64(coords[2*i+1])}
	}
	return s
}

// Result is the outcome of one detection.
type Result struct {
	Points Set
	Found  bool
}

// Record is the per item structure flowing through a pipeline. It carries an
// image and the landmarks accumulated for it.
type Record interface {
	Name() string
	Image() *image.Gray
	SetImage(*image.Gray)
	AppendPoint(Point)
}

// Template is the default Record implementation.
type Template struct {
	File   string
	Img    *image.Gray
	Points []Point
}

func NewTemplate(file string, img *image.Gray) *Template {
	return &Template{File: file, Img: img}
}

func (t *Template) Name() string             { return t.File }
func (t *Template) Image() *image.Gray       { return t.Img }
func (t *Template) SetImage(img *image.Gray) { t.Img = img }
func (t *Template) AppendPoint(p Point)      { t.Points = append(t.Points, p) }
