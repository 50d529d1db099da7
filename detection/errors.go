package detection

import (
	"errors"

	"github.com/GreatValueCreamSoda/golandmarks/engine"
	"github.com/GreatValueCreamSoda/golandmarks/resourcepool"
)

var (
	// ErrSearch wraps failures reported by the engine for a single item.
	// They are not fatal; the pipeline decides whether to continue.
	ErrSearch = errors.New("landmark search failed")
	// ErrNoImage is returned for a source record without an image.
	ErrNoImage = errors.New("record has no image")
)

// IsFatal reports whether err means the stage can never succeed in this
// process: the engine failed to initialize, was initialized from a different
// directory, or a classifier could not be loaded.
func IsFatal(err error) bool {
	var initErr *engine.InitError
	return errors.As(err, &initErr) ||
		errors.Is(err, engine.ErrConflictingModelDir) ||
		errors.Is(err, resourcepool.ErrFatal)
}
