package filectx

import "sync"

// Cell is an initialize-at-most-once slot: a one-shot flag plus a
// mutex-protected value, matching the "double-checked single-writer"
// primitive spec.md §5/§9 calls for. In the common case (one owning
// goroutine per FileContext) Get pays one atomic check; only the rare
// shared-context case pays the mutex.
type Cell[T any] struct {
	once sync.Once
	val  T
	err  error
}

// Get runs init at most once across all callers and returns its result on
// every call, including subsequent calls after init has already run.
func (c *Cell[T]) Get(init func() (T, error)) (T, error) {
	c.once.Do(func() {
		c.val, c.err = init()
	})
	return c.val, c.err
}
