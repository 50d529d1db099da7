// Package enginetest provides an instrumented in-memory engine for tests of
// code built on package engine.
package enginetest

import (
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
)

// ErrReentered is recorded when Search is entered while another call is
// still running.
var ErrReentered = errors.New("enginetest: search entered concurrently")

// Classifier is the classifier type understood by Engine. Model is the path
// it was loaded from.
type Classifier struct {
	Model string
	ID    int
}

// Loader builds Classifiers and counts how many it built.
type Loader struct {
	Err   error
	loads atomic.Int32
}

func (l *Loader) Load(path string) (*Classifier, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return &Classifier{Model: path, ID: int(l.loads.Add(1))}, nil
}

// Loads returns the number of successful Load calls.
func (l *Loader) Loads() int { return int(l.loads.Load()) }

// Engine is a deterministic fake. Search derives its landmarks from a hash of
// the image so identical images always yield identical points. An image whose
// first byte is zero is treated as containing no face.
//
// Every Search asserts that no other Search is in flight; a violation is
// counted and reported by Reentered.
type Engine struct {
	InitErr   error
	SearchErr error
	// Points overrides the hashed landmarks when non nil.
	Points *landmarks.Set
	// Delay is slept inside Search to widen the window for overlap.
	Delay time.Duration

	mu        sync.Mutex
	initDirs  []string
	inFlight  atomic.Int32
	reentered atomic.Int32
	searches  atomic.Int32
}

func (e *Engine) Initialize(modelDir string) error {
	e.mu.Lock()
	e.initDirs = append(e.initDirs, modelDir)
	e.mu.Unlock()
	return e.InitErr
}

func (e *Engine) Search(classifier *Classifier, pix []byte, width,
	height int) (landmarks.Set, bool, error) {
	if e.inFlight.Add(1) != 1 {
		e.reentered.Add(1)
	}
	defer e.inFlight.Add(-1)
	e.searches.Add(1)

	if e.Delay > 0 {
		time.Sleep(e.Delay)
	}
	if e.SearchErr != nil {
		return landmarks.Set{}, false, e.SearchErr
	}
	if classifier == nil || len(pix) != width*height {
		return landmarks.Set{}, false, errors.New("enginetest: bad input")
	}
	if len(pix) == 0 || pix[0] == 0 {
		return landmarks.Set{}, false, nil
	}
	if e.Points != nil {
		return *e.Points, true, nil
	}

	h := fnv.New64a()
	h.Write(pix)
	seed := h.Sum64()

	var set landmarks.Set
	for i := range set {
		v := seed >> (uint(i) % 48)
		set[i] = landmarks.Point{
			X: float64(v%uint64(width)) + 0.25,
			Y: float64((v/7)%uint64(height)) + 0.75,
		}
	}
	return set, true, nil
}

// InitCalls returns the directories Initialize was called with.
func (e *Engine) InitCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.initDirs...)
}

// Searches returns the number of Search calls.
func (e *Engine) Searches() int { return int(e.searches.Load()) }

// Reentered returns how many Search calls overlapped another one.
func (e *Engine) Reentered() int { return int(e.reentered.Load()) }
