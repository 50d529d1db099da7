package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/GreatValueCreamSoda/golandmarks/detection"
	"github.com/GreatValueCreamSoda/golandmarks/engine"
	"github.com/GreatValueCreamSoda/golandmarks/engine/enginetest"
	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	records []landmarks.Record
	next    int
	failAt  int
}

func newSliceSource(n int) *sliceSource {
	s := &sliceSource{failAt: -1}
	for i := range n {
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		for p := range img.Pix {
			img.Pix[p] = byte(i + p + 1)
		}
		s.records = append(s.records,
			landmarks.NewTemplate(fmt.Sprintf("img-%03d.png", i), img))
	}
	return s
}

func (s *sliceSource) Next() (landmarks.Record, error) {
	if s.next == s.failAt {
		return nil, errors.New("decode failed")
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

func (s *sliceSource) NumItems() int { return len(s.records) }

// echoProcessor writes the record index into the first point.
type echoProcessor struct {
	calls  atomic.Int32
	failOn string
}

func (p *echoProcessor) Process(src, dst landmarks.Record) (landmarks.Result,
	error) {
	p.calls.Add(1)
	if src.Name() == p.failOn {
		return landmarks.Result{}, errors.New("boom")
	}
	var res landmarks.Result
	res.Found = true
	res.Points[0] = landmarks.Point{X: float64(len(src.Name()))}
	dst.AppendPoint(res.Points[0])
	dst.SetImage(src.Image())
	return res, nil
}

func TestNewRunnerValidates(t *testing.T) {
	_, err := NewRunner(nil, &echoProcessor{}, 1)
	assert.Error(t, err)
	_, err = NewRunner(newSliceSource(1), nil, 1)
	assert.Error(t, err)
	_, err = NewRunner(newSliceSource(1), &echoProcessor{}, 0)
	assert.Error(t, err)
}

func TestRunKeepsSourceOrder(t *testing.T) {
	source := newSliceSource(40)
	proc := &echoProcessor{}
	runner, err := NewRunner(source, proc, 4)
	require.NoError(t, err)

	var mu sync.Mutex
	var progress []int
	runner.SetProgressCallback(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 40, total)
		progress = append(progress, done)
	})

	items, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 40)

	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.Same(t, source.records[i], item.Source)
		assert.Equal(t, source.records[i].Name(), item.Output.Name())
		assert.Same(t, source.records[i].Image(), item.Output.Image())
	}
	assert.Equal(t, int32(40), proc.calls.Load())
	assert.Len(t, progress, 40)
	assert.Equal(t, 40, progress[len(progress)-1])
}

func TestRunStopsOnProcessorError(t *testing.T) {
	runner, err := NewRunner(newSliceSource(20),
		&echoProcessor{failOn: "img-005.png"}, 3)
	require.NoError(t, err)

	items, err := runner.Run(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Nil(t, items)
}

func TestRunStopsOnSourceError(t *testing.T) {
	source := newSliceSource(10)
	source.failAt = 4
	runner, err := NewRunner(source, &echoProcessor{}, 2)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.ErrorContains(t, err, "failed to read item 4")
}

func TestRunHonoursCanceledContext(t *testing.T) {
	runner, err := NewRunner(newSliceSource(10), &echoProcessor{}, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithDetectionStage(t *testing.T) {
	fake := &enginetest.Engine{}
	handle := engine.NewHandle[*enginetest.Classifier](fake)
	stage := detection.NewStage[*enginetest.Classifier](handle,
		&enginetest.Loader{})
	require.NoError(t, stage.Initialize("/sdk"))
	defer stage.Close()

	source := newSliceSource(25)
	runner, err := NewRunner(source, stage, 6)
	require.NoError(t, err)

	items, err := runner.Run(context.Background())
	require.NoError(t, err)

	for _, item := range items {
		assert.True(t, item.Result.Found)
		assert.Len(t, item.Output.Points, landmarks.Count)
	}
	assert.Equal(t, 25, fake.Searches())
	assert.Zero(t, fake.Reentered())
	assert.Equal(t, 1, stage.Stats().Constructed)
}
