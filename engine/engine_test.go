package engine_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GreatValueCreamSoda/golandmarks/engine"
	"github.com/GreatValueCreamSoda/golandmarks/engine/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInitializesOnce(t *testing.T) {
	fake := &enginetest.Engine{}
	handle := engine.NewHandle[*enginetest.Classifier](fake)

	require.NoError(t, handle.Initialize("/models/stasm"))
	require.NoError(t, handle.Initialize("/models/stasm/"))

	assert.Equal(t, []string{"/models/stasm"}, fake.InitCalls())
	assert.Equal(t, "/models/stasm", handle.ModelDir())
}

func TestHandleRejectsConflictingModelDir(t *testing.T) {
	fake := &enginetest.Engine{}
	handle := engine.NewHandle[*enginetest.Classifier](fake)

	require.NoError(t, handle.Initialize("/models/a"))
	err := handle.Initialize("/models/b")

	assert.ErrorIs(t, err, engine.ErrConflictingModelDir)
	assert.Len(t, fake.InitCalls(), 1)
}

func TestHandleInitFailureIsSticky(t *testing.T) {
	cause := errors.New("missing data files")
	fake := &enginetest.Engine{InitErr: cause}
	handle := engine.NewHandle[*enginetest.Classifier](fake)

	err := handle.Initialize("/models")
	var initErr *engine.InitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "/models", initErr.ModelDir)

	assert.ErrorIs(t, handle.Initialize("/models"), cause)
	assert.Len(t, fake.InitCalls(), 1)

	_, err = handle.Serialized()
	assert.ErrorIs(t, err, cause)
}

func TestSerializedRequiresInitialize(t *testing.T) {
	handle := engine.NewHandle[*enginetest.Classifier](&enginetest.Engine{})

	_, err := handle.Serialized()
	assert.ErrorIs(t, err, engine.ErrNotInitialized)

	require.NoError(t, handle.Initialize("/models"))
	first, err := handle.Serialized()
	require.NoError(t, err)
	second, err := handle.Serialized()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSerializedEngineNeverOverlaps(t *testing.T) {
	fake := &enginetest.Engine{Delay: time.Millisecond}
	handle := engine.NewHandle[*enginetest.Classifier](fake)
	require.NoError(t, handle.Initialize("/models"))
	serialized, err := handle.Serialized()
	require.NoError(t, err)

	classifier := &enginetest.Classifier{Model: "frontal"}
	pix := []byte{1, 2, 3, 4}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _, err := serialized.Search(classifier, pix, 2, 2)
				assert.NoError(t, err)
				return
			}
			err := serialized.Exclusive(func(s engine.Searcher[*enginetest.Classifier]) error {
				_, _, err := s.Search(classifier, pix, 2, 2)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, fake.Searches())
	assert.Zero(t, fake.Reentered())
}
