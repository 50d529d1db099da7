package landmarks

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingIsAllNaN(t *testing.T) {
	set := Missing()
	for i, p := range set {
		assert.True(t, p.IsMissing(), "landmark %d", i)
	}
	assert.False(t, Point{0, 0}.IsMissing())
	assert.False(t, Point{math.NaN(), 3}.IsMissing())
}

func TestFromInterleaved(t *testing.T) {
	coords := make([]float32, 2*Count)
	for i := range Count {
		coords[2*i] = float32(i)
		coords[2*i+1] = float32(i) + 0.5
	}

	set := FromInterleaved(coords)
	assert.Equal(t, Point{0, 0.5}, set[0])
	assert.Equal(t, Point{76, 76.5}, set[Count-1])

	assert.Panics(t, func() { FromInterleaved(coords[:10]) })
}

func TestTemplateRecord(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	var rec Record = NewTemplate("face.png", img)

	rec.AppendPoint(Point{1, 2})
	rec.AppendPoint(Point{3, 4})

	tmpl := rec.(*Template)
	require.Len(t, tmpl.Points, 2)
	assert.Equal(t, Point{3, 4}, tmpl.Points[1])
	assert.Same(t, img, rec.Image())
	assert.Equal(t, "face.png", rec.Name())

	other := image.NewGray(image.Rect(0, 0, 1, 1))
	rec.SetImage(other)
	assert.Same(t, other, tmpl.Img)
}
