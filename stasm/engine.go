// Package stasm adapts the STASM landmark library to engine.Engine, using a
// gocv cascade classifier to decide whether an image contains a face before
// the landmark search runs.
package stasm

import (
	"fmt"

	"github.com/GreatValueCreamSoda/golandmarks/c/libstasm"
	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"gocv.io/x/gocv"
)

func init() {
	if libstasm.NumLandmarks != landmarks.Count {
		panic("stasm: landmark count mismatch")
	}
}

// Engine is the STASM backed engine.Engine.
//
// It carries no locking of its own. STASM is global and non-reentrant, so an
// Engine must only be used through engine.Handle and its SerializedEngine.
type Engine struct {
	dataDir string
	trace   bool
}

// New returns an uninitialized engine. trace turns on STASM's diagnostics.
func New(trace bool) *Engine { return &Engine{trace: trace} }

// Initialize loads the STASM models from modelDir.
func (e *Engine) Initialize(modelDir string) error {
	if err := libstasm.Init(modelDir, e.trace); err != nil {
		return err
	}
	e.dataDir = modelDir
	return nil
}

// Search runs the classifier over the image and, if it reports at least one
// face, fits the landmarks with STASM.
func (e *Engine) Search(classifier *gocv.CascadeClassifier, pix []byte,
	width, height int) (landmarks.Set, bool, error) {
	if classifier == nil {
		return landmarks.Set{}, false, fmt.Errorf("nil cascade classifier")
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, pix)
	if err != nil {
		return landmarks.Set{}, false, fmt.Errorf("failed to wrap image: %w",
			err)
	}
	defer mat.Close()

	if faces := classifier.DetectMultiScale(mat); len(faces) == 0 {
		return landmarks.Set{}, false, nil
	}

	coords, found, err := libstasm.SearchSingle(pix, width, height, "",
		e.dataDir)
	if err != nil || !found {
		return landmarks.Set{}, false, err
	}

	return landmarks.FromInterleaved(coords), true, nil
}
