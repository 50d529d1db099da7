// Package engine describes the external landmark detection engine and wraps
// it in the two capabilities the rest of the module relies on: a Handle that
// performs the engine's process wide initialization exactly once, and a
// SerializedEngine that makes the engine's non-reentrancy part of its type.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
)

var (
	// ErrConflictingModelDir is returned when a Handle that is already
	// initialized is asked to initialize again from a different directory.
	ErrConflictingModelDir = errors.New("engine already initialized with " +
		"a different model directory")
	// ErrNotInitialized is returned when the serialized engine is requested
	// before Initialize succeeded.
	ErrNotInitialized = errors.New("engine not initialized")
)

// Searcher runs the landmark search primitive on an 8 bit grayscale buffer of
// width*height bytes using classifier to locate the face.
//
// found is false when no face was located; points is then meaningless and
// callers substitute their own sentinel. A non nil error means the engine
// could not run the search at all.
type Searcher[C any] interface {
	Search(classifier C, pix []byte, width, height int) (
		points landmarks.Set, found bool, err error)
}

// Engine is the external detection engine. Initialize loads the engine's
// global model data and Search must never be invoked concurrently, not even
// with distinct classifiers.
type Engine[C any] interface {
	Initialize(modelDir string) error
	Searcher[C]
}

// ClassifierLoader constructs one classifier instance from a model file.
type ClassifierLoader[C any] interface {
	Load(path string) (C, error)
}

// LoaderFunc adapts a plain function to the ClassifierLoader interface.
type LoaderFunc[C any] func(path string) (C, error)

func (f LoaderFunc[C]) Load(path string) (C, error) { return f(path) }

// InitError reports that the engine failed to initialize. It is fatal: the
// engine's global state is undefined afterwards and no retry is attempted.
type InitError struct {
	ModelDir string
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize engine from %q: %v", e.ModelDir,
		e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Handle owns the one time initialization of an Engine. The application
// creates a single Handle at startup and shares it between every detection
// stage that uses the engine.
//
// The zero value is not valid; use NewHandle.
type Handle[C any] struct {
	mu          sync.Mutex
	engine      Engine[C]
	modelDir    string
	initialized bool
	initErr     error
	serialized  *SerializedEngine[C]
}

// NewHandle wraps engine. The engine is not initialized until Initialize is
// called.
func NewHandle[C any](engine Engine[C]) *Handle[C] {
	return &Handle[C]{
		engine:     engine,
		serialized: &SerializedEngine[C]{engine: engine},
	}
}

// Initialize performs the engine's global initialization from modelDir.
//
// The first call does the work. Later calls with the same directory are
// no-ops returning the first call's result, and later calls with a different
// directory fail with ErrConflictingModelDir. A failed initialization is
// sticky and returned as an *InitError every time.
func (h *Handle[C]) Initialize(modelDir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	modelDir = filepath.Clean(modelDir)

	if h.initialized {
		if modelDir != h.modelDir {
			return fmt.Errorf("%w: have %q, requested %q",
				ErrConflictingModelDir, h.modelDir, modelDir)
		}
		return h.initErr
	}

	h.initialized = true
	h.modelDir = modelDir
	if err := h.engine.Initialize(modelDir); err != nil {
		h.initErr = &InitError{ModelDir: modelDir, Err: err}
	}
	return h.initErr
}

// ModelDir returns the directory the engine was initialized from, or "" if
// Initialize has not been called.
func (h *Handle[C]) ModelDir() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modelDir
}

// Serialized returns the engine behind its exclusive guard. Every caller
// receives the same SerializedEngine, so stages sharing a Handle also share
// its lock.
func (h *Handle[C]) Serialized() (*SerializedEngine[C], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return nil, ErrNotInitialized
	}
	if h.initErr != nil {
		return nil, h.initErr
	}
	return h.serialized, nil
}

// SerializedEngine guarantees that at most one goroutine is inside the engine
// at any time.
type SerializedEngine[C any] struct {
	mu     sync.Mutex
	engine Searcher[C]
}

// Exclusive runs fn while holding the engine lock. The Searcher passed to fn
// must not be retained or used after fn returns.
func (s *SerializedEngine[C]) Exclusive(fn func(Searcher[C]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// Search is Exclusive around a single search call.
func (s *SerializedEngine[C]) Search(classifier C, pix []byte, width,
	height int) (landmarks.Set, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Search(classifier, pix, width, height)
}
