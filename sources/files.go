// Package sources provides pipeline sources backed by image files.
package sources

import (
	"errors"

	"github.com/GreatValueCreamSoda/golandmarks/images"
	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"github.com/GreatValueCreamSoda/golandmarks/pipeline"
)

type fileSource struct {
	paths        []string
	currentIndex int
}

// NewFileSource returns a source that decodes each path in order. Images are
// decoded lazily by Next, so only records in flight are held in memory.
func NewFileSource(paths []string) (pipeline.Source, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one image path must be specified")
	}
	return &fileSource{paths: append([]string(nil), paths...)}, nil
}

func (s *fileSource) Next() (landmarks.Record, error) {
	if s.currentIndex >= len(s.paths) {
		return nil, errors.New("file source exhausted")
	}

	path := s.paths[s.currentIndex]
	img, err := images.Load(path)
	if err != nil {
		return nil, err
	}

	s.currentIndex++
	return landmarks.NewTemplate(path, img), nil
}

func (s *fileSource) NumItems() int { return len(s.paths) }
