package safeset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeSet_AddRemoveContains(t *testing.T) {
	s := NewSafeSet[uint32]()
	require.NotNil(t, s)

	t.Run("empty set", func(t *testing.T) {
		assert.Equal(t, 0, s.Size())
		assert.False(t, s.Contains(1))
	})

	t.Run("add and contains", func(t *testing.T) {
		s.Add(1)
		assert.True(t, s.Contains(1))
		assert.Equal(t, 1, s.Size())
	})

	t.Run("duplicate add keeps size", func(t *testing.T) {
		s.Add(1)
		assert.Equal(t, 1, s.Size())
	})

	t.Run("remove", func(t *testing.T) {
		s.Add(2)
		s.Remove(1)
		assert.False(t, s.Contains(1))
		assert.True(t, s.Contains(2))
		assert.Equal(t, 1, s.Size())
	})

	t.Run("remove missing is no-op", func(t *testing.T) {
		s.Remove(99)
		assert.Equal(t, 1, s.Size())
	})
}

func TestSafeSet_Range(t *testing.T) {
	s := NewSafeSet[string]()
	s.Add("a")
	s.Add("b")
	s.Add("c")

	seen := make(map[string]bool)
	s.Range(func(v string) bool {
		seen[v] = true
		return true
	})
	assert.Len(t, seen, 3)

	count := 0
	s.Range(func(v string) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestSafeSet_Concurrent(t *testing.T) {
	s := NewSafeSet[int]()
	const goroutines = 50
	const ops = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				v := id*ops + i
				s.Add(v)
				s.Contains(v)
				s.Size()
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, goroutines*ops, s.Size())
}
