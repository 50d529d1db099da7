// Package detection implements the landmark detection pipeline stage. A Stage
// shares a small pool of cascade classifiers between any number of calling
// goroutines while funnelling every engine call through the engine's
// exclusive guard.
package detection

import (
	"fmt"
	"sync/atomic"

	"github.com/GreatValueCreamSoda/golandmarks/engine"
	"github.com/GreatValueCreamSoda/golandmarks/images"
	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"github.com/GreatValueCreamSoda/golandmarks/resourcepool"
	"go.uber.org/zap"
)

// Stage runs one landmark detection per record.
//
// Classifiers are expensive to load and not safe for concurrent use, so they
// live in a resourcepool.Pool and are leased for the duration of a single
// search. The engine itself keeps global state, so every search runs inside
// the SerializedEngine of the shared engine.Handle; this makes Process
// effectively single threaded at the search call no matter how many
// goroutines call it.
//
// The zero value is not valid; use NewStage.
type Stage[C any] struct {
	handle *engine.Handle[C]
	loader engine.ClassifierLoader[C]
	pool   *resourcepool.Pool[C]
	model  Model
	logger *zap.Logger

	serialized atomic.Pointer[engine.SerializedEngine[C]]
}

// Option customizes a Stage.
type Option func(*stageOptions)

type stageOptions struct {
	logger         *zap.Logger
	model          Model
	maxClassifiers int
}

// WithLogger sets the logger used for per item diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *stageOptions) { o.logger = logger }
}

// WithModel selects the cascade model. The default is ModelFrontalFace.
func WithModel(model Model) Option {
	return func(o *stageOptions) { o.model = model }
}

// WithMaxClassifiers bounds the number of classifiers the stage may load.
// Zero, the default, lets the pool grow with demand.
func WithMaxClassifiers(n int) Option {
	return func(o *stageOptions) { o.maxClassifiers = n }
}

// NewStage creates a stage using handle for the engine and loader for its
// classifiers. Initialize must be called before Process.
func NewStage[C any](handle *engine.Handle[C],
	loader engine.ClassifierLoader[C], opts ...Option) *Stage[C] {
	o := stageOptions{logger: zap.NewNop(), model: ModelFrontalFace}
	for _, opt := range opts {
		opt(&o)
	}

	return &Stage[C]{
		handle: handle,
		loader: loader,
		pool: resourcepool.New[C](
			resourcepool.WithCapacity(o.maxClassifiers)),
		model: o.model,
		logger: o.logger.With(zap.String("stage", "landmarks"),
			zap.String("model", string(o.model))),
	}
}

// cascadeFactory loads one classifier flavor from a resolved file.
type cascadeFactory[C any] struct {
	path   string
	loader engine.ClassifierLoader[C]
}

func (f cascadeFactory[C]) Make() (C, error) {
	classifier, err := f.loader.Load(f.path)
	if err != nil {
		return classifier, fmt.Errorf("failed to load %s: %w", f.path, err)
	}
	return classifier, nil
}

// Initialize initializes the engine from the landmark data below sdkPath and
// binds the classifier pool to the stage's cascade model.
//
// Every error returned here is fatal for the process (see IsFatal), except a
// configuration error from calling Initialize twice.
func (s *Stage[C]) Initialize(sdkPath string) error {
	cascade, err := CascadePath(sdkPath, s.model)
	if err != nil {
		return err
	}

	if err := s.handle.Initialize(StasmDir(sdkPath)); err != nil {
		return err
	}

	serialized, err := s.handle.Serialized()
	if err != nil {
		return err
	}

	err = s.pool.Configure(cascadeFactory[C]{path: cascade, loader: s.loader})
	if err != nil {
		return err
	}

	s.serialized.Store(serialized)
	s.logger.Debug("stage initialized", zap.String("sdk", sdkPath),
		zap.String("cascade", cascade))
	return nil
}

// Process detects landmarks in src's image and writes them to dst.
//
// Exactly landmarks.Count points are appended to dst in landmark order and
// dst's image is set to src's image. When no face is found the points are the
// landmarks.Missing sentinel, Found is false and no error is returned.
//
// Errors leave dst untouched. Errors for which IsFatal is true mean no later
// call can succeed; errors wrapping ErrSearch concern this item only.
func (s *Stage[C]) Process(src, dst landmarks.Record) (landmarks.Result,
	error) {
	serialized := s.serialized.Load()
	if serialized == nil {
		return landmarks.Result{}, engine.ErrNotInitialized
	}

	img := src.Image()
	if img == nil {
		return landmarks.Result{}, fmt.Errorf("%w: %s", ErrNoImage, src.Name())
	}
	pix, width, height := images.Pack(img)

	var result landmarks.Result
	err := serialized.Exclusive(func(searcher engine.Searcher[C]) error {
		lease, err := s.pool.Acquire()
		if err != nil {
			return err
		}
		defer s.release(lease)

		points, found, err := searcher.Search(lease.Value(), pix, width,
			height)
		if err != nil {
			return fmt.Errorf("%w for %s: %w", ErrSearch, src.Name(), err)
		}
		result = landmarks.Result{Points: points, Found: found}
		return nil
	})
	if err != nil {
		return landmarks.Result{}, err
	}

	if !result.Found {
		s.logger.Debug("no face found", zap.String("file", src.Name()))
		result.Points = landmarks.Missing()
	}

	for _, p := range result.Points {
		dst.AppendPoint(p)
	}
	dst.SetImage(img)

	return result, nil
}

// release returns a classifier to the pool. A failure here is a bookkeeping
// bug rather than an item error, so it is logged instead of returned.
func (s *Stage[C]) release(lease resourcepool.Lease[C]) {
	if err := lease.Release(); err != nil {
		s.logger.Error("failed to release classifier", zap.Error(err))
	}
}

// Stats reports the classifier pool's counters.
func (s *Stage[C]) Stats() resourcepool.Stats { return s.pool.Stats() }

// Close releases every classifier owned by the stage. The shared engine
// handle is left untouched.
func (s *Stage[C]) Close() error { return s.pool.Close() }
