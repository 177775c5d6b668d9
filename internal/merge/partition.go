package merge

import (
	"context"
	"sync"
)

// PartitionLocks: по одному слоту на раздел (источник). Записи в один раздел
// выполняются строго по очереди, разные разделы не ждут друг друга.
type PartitionLocks struct {
	slots map[string]chan struct{}
	mu    sync.Mutex
}

func NewPartitionLocks() *PartitionLocks {
	return &PartitionLocks{
		slots: make(map[string]chan struct{}),
	}
}

// Acquire ждёт слот раздела или отмены ctx. Возвращённую функцию нужно вызвать ровно один раз.
func (pl *PartitionLocks) Acquire(ctx context.Context, partition string) (func(), error) {
	pl.mu.Lock()
	slot, exists := pl.slots[partition]
	if !exists {
		slot = make(chan struct{}, 1)
		pl.slots[partition] = slot
	}
	pl.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}
