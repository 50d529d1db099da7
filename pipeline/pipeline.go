// Package pipeline drives a detection stage over a stream of records with a
// configurable number of concurrent workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/GreatValueCreamSoda/golandmarks/landmarks"
	"golang.org/x/sync/errgroup"
)

type ProgressCallback func(done int, total int)

// Source yields the records to process in order.
type Source interface {
	// Next returns the next record. It is called exactly NumItems times and
	// only ever from a single goroutine.
	Next() (landmarks.Record, error)
	NumItems() int
}

// Processor is a single pipeline stage. *detection.Stage satisfies it.
type Processor interface {
	Process(src, dst landmarks.Record) (landmarks.Result, error)
}

// Item is the outcome for one record.
type Item struct {
	Index  int
	Source landmarks.Record
	Output *landmarks.Template
	Result landmarks.Result
}

// indexedRecord tags a record with its position in the source.
type indexedRecord struct {
	index  int
	record landmarks.Record
}

// Runner orchestrates running a Processor over every record of a Source.
//
// A single reader goroutine pulls records from the source, workers
// goroutines call the processor concurrently, and an aggregation goroutine
// stores each Item at its source index. The first error from any stage
// cancels the rest of the run.
//
// The zero value is not valid; use NewRunner.
type Runner struct {
	source    Source
	processor Processor
	workers   int
	numItems  int

	// recordChan carries records from the reader to the workers.
	recordChan chan indexedRecord
	// itemChan carries finished items from the workers to the aggregator.
	itemChan chan Item

	// items is filled by the aggregator, one slot per source record.
	items []Item

	ctx context.Context

	// progress is called by the aggregator after each finished item. Items
	// complete out of order when workers is greater than 1.
	progress ProgressCallback
}

// NewRunner validates its inputs and prepares the internal channels. workers
// controls how many goroutines call processor concurrently.
func NewRunner(source Source, processor Processor, workers int) (*Runner,
	error) {
	if source == nil {
		return nil, errors.New("source must be non nil")
	}
	if processor == nil {
		return nil, errors.New("processor must be non nil")
	}
	if workers < 1 {
		return nil, errors.New("at least 1 worker must be used")
	}

	numItems := source.NumItems()
	if numItems < 0 {
		return nil, fmt.Errorf("source reported %d items", numItems)
	}

	return &Runner{
		source:     source,
		processor:  processor,
		workers:    workers,
		numItems:   numItems,
		recordChan: make(chan indexedRecord, workers),
		itemChan:   make(chan Item, workers),
		items:      make([]Item, numItems),
	}, nil
}

// SetProgressCallback registers a progress callback. It must be called
// before Run. Passing nil clears the callback.
func (r *Runner) SetProgressCallback(cb ProgressCallback) {
	r.progress = cb
}

// Run processes every record and returns the items in source order. Run
// blocks until all records are processed or the first error occurs.
func (r *Runner) Run(parentCtx context.Context) ([]Item, error) {
	group, ctx := errgroup.WithContext(parentCtx)
	r.ctx = ctx

	group.Go(func() error {
		defer close(r.recordChan)
		return r.readerThread()
	})

	group.Go(func() error {
		defer close(r.itemChan)
		return r.spawnWorkerThreads()
	})

	group.Go(r.aggregateResults)

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return r.items, nil
}

// ----------------------------------------------------------------------------
// Reader Thread
// ----------------------------------------------------------------------------

// readerThread pulls numItems records from the source and hands them to the
// workers.
func (r *Runner) readerThread() error {
	for i := range r.numItems {
		if err := r.ctx.Err(); err != nil {
			return err
		}

		record, err := r.source.Next()
		if err != nil {
			return fmt.Errorf("failed to read item %d: %w", i, err)
		}

		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		case r.recordChan <- indexedRecord{i, record}:
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Worker Threads
// ----------------------------------------------------------------------------

// spawnWorkerThreads starts the workers and waits for all of them to finish.
func (r *Runner) spawnWorkerThreads() error {
	group, ctx := errgroup.WithContext(r.ctx)

	for range r.workers {
		group.Go(func() error { return r.workerThread(ctx) })
	}

	return group.Wait()
}

// workerThread processes records until the reader is done, returning the
// first processing error.
func (r *Runner) workerThread(ctx context.Context) error {
	for rec := range withContext(ctx, r.recordChan) {
		dst := landmarks.NewTemplate(rec.record.Name(), nil)

		result, err := r.processor.Process(rec.record, dst)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case r.itemChan <- Item{rec.index, rec.record, dst, result}:
		}
	}
	return ctx.Err()
}

// ----------------------------------------------------------------------------
// Aggregation Thread
// ----------------------------------------------------------------------------

// aggregateResults stores every finished item at its source index.
func (r *Runner) aggregateResults() error {
	completed := 0
	for item := range withContext(r.ctx, r.itemChan) {
		if item.Index < 0 || item.Index >= r.numItems {
			return errors.New("aggregated index outside of item range")
		}
		r.items[item.Index] = item
		completed++
		if r.progress != nil {
			r.progress(completed, r.numItems)
		}
	}
	return r.ctx.Err()
}

// withContext returns a channel that mirrors ch until ch is closed or ctx is
// canceled, whichever happens first.
func withContext[T any](ctx context.Context, ch <-chan T) <-chan T {
	out := make(chan T, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
