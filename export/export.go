// Package export serializes pipeline results.
package export

import (
	"io"
	"math"

	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"github.com/GreatValueCreamSoda/golandmarks/pipeline"
	json "github.com/goccy/go-json"
)

// Point is a landmark as written to JSON. Missing coordinates are null since
// JSON has no NaN.
type Point struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Item is the JSON form of one pipeline item.
type Item struct {
	File   string  `json:"file"`
	Found  bool    `json:"found"`
	Points []Point `json:"points"`
}

// Document is the top level JSON value written by WriteJSON.
type Document struct {
	Landmarks int    `json:"landmarks"`
	Items     []Item `json:"items"`
}

func coordinate(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// NewDocument converts pipeline items, keeping their order.
func NewDocument(items []pipeline.Item) Document {
	doc := Document{Landmarks: landmarks.Count, Items: make([]Item, 0,
		len(items))}

	for _, item := range items {
		out := Item{Found: item.Result.Found,
			Points: make([]Point, 0, landmarks.Count)}
		if item.Source != nil {
			out.File = item.Source.Name()
		}
		for _, p := range item.Result.Points {
			out.Points = append(out.Points,
				Point{coordinate(p.X), coordinate(p.Y)})
		}
		doc.Items = append(doc.Items, out)
	}
	return doc
}

// WriteJSON writes items to w as one indented JSON document.
func WriteJSON(w io.Writer, items []pipeline.Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(items))
}
