package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type msgItem struct {
	Data string
}

func TestQueue(t *testing.T) {
	assert := assert.New(t)

	t.Run("Empty Queue", func(t *testing.T) {
		q := New[*msgItem]()

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())
		item, ok := q.Dequeue()
		assert.False(ok)
		assert.Nil(item)
	})

	t.Run("Enqueue and Dequeue", func(t *testing.T) {
		q := New[*msgItem]()

		item1 := &msgItem{"data1"}
		q.Enqueue(item1)
		assert.False(q.IsEmpty())
		assert.Equal(1, q.Length())

		item2 := &msgItem{"data2"}
		q.Enqueue(item2)
		assert.Equal(2, q.Length())

		got, ok := q.Dequeue()
		assert.True(ok)
		assert.Same(item1, got)
		assert.Equal(1, q.Length())

		got, ok = q.Dequeue()
		assert.True(ok)
		assert.Same(item2, got)
		assert.True(q.IsEmpty())

		_, ok = q.Dequeue()
		assert.False(ok)
	})

	t.Run("Value types", func(t *testing.T) {
		q := New[int]()
		q.Enqueue(0)

		v, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal(0, v)

		_, ok = q.Dequeue()
		assert.False(ok)
	})
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 500

	q := New[[2]int]()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue([2]int{p, i})
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Length())

	// items from one producer keep their relative order
	next := make([]int, producers)
	for {
		item, ok := q.Dequeue()
		if !ok {
			break
		}
		assert.Equal(t, next[item[0]], item[1])
		next[item[0]]++
	}

	for p := 0; p < producers; p++ {
		assert.Equal(t, perProducer, next[p])
	}
	assert.True(t, q.IsEmpty())
}

func TestQueue_ConcurrentConsumers(t *testing.T) {
	q := New[int]()
	for i := 0; i < 1000; i++ {
		q.Enqueue(i)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
	assert.True(t, q.IsEmpty())
}
