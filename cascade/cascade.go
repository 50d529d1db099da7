// Package cascade loads OpenCV cascade classifiers through gocv.
package cascade

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Loader builds *gocv.CascadeClassifier values from cascade XML files. It
// satisfies engine.ClassifierLoader.
//
// Each classifier owns native memory. Pools holding them close them through
// io.Closer when they are torn down.
type Loader struct{}

// Load reads the cascade at path. A missing or malformed file is an error.
func (Loader) Load(path string) (*gocv.CascadeClassifier, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		_ = classifier.Close()
		return nil, fmt.Errorf("failed to load cascade classifier %s", path)
	}
	return &classifier, nil
}
