package export

import (
	"bytes"
	"testing"

	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"github.com/GreatValueCreamSoda/golandmarks/pipeline"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var found landmarks.Set
	for i := range found {
		found[i] = landmarks.Point{X: float64(i), Y: float64(i) * 2}
	}

	items := []pipeline.Item{
		{Index: 0, Source: landmarks.NewTemplate("face.png", nil),
			Result: landmarks.Result{Points: found, Found: true}},
		{Index: 1, Source: landmarks.NewTemplate("empty.png", nil),
			Result: landmarks.Result{Points: landmarks.Missing()}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, items))

	var decoded struct {
		Landmarks int `json:"landmarks"`
		Items     []struct {
			File   string                `json:"file"`
			Found  bool                  `json:"found"`
			Points []map[string]*float64 `json:"points"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, landmarks.Count, decoded.Landmarks)
	require.Len(t, decoded.Items, 2)

	face := decoded.Items[0]
	assert.Equal(t, "face.png", face.File)
	assert.True(t, face.Found)
	require.Len(t, face.Points, landmarks.Count)
	require.NotNil(t, face.Points[5]["x"])
	assert.Equal(t, 5.0, *face.Points[5]["x"])
	assert.Equal(t, 10.0, *face.Points[5]["y"])

	empty := decoded.Items[1]
	assert.False(t, empty.Found)
	require.Len(t, empty.Points, landmarks.Count)
	assert.Nil(t, empty.Points[0]["x"])
	assert.Nil(t, empty.Points[0]["y"])
}
