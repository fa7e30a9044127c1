package filectx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellGetRunsInitOnce(t *testing.T) {
	var c Cell[int]
	var calls int32
	init := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := c.Get(init)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCellCachesError(t *testing.T) {
	var c Cell[string]
	var calls int32
	boom := errors.New("boom")
	init := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", boom
	}

	_, err1 := c.Get(init)
	_, err2 := c.Get(init)

	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
