package cache

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entity struct {
	ID     string
	Status string
}

func TestCache_SetAndGet(t *testing.T) {
	c := New[string, entity]("task", nil)

	_, ok := c.Get("7")
	assert.False(t, ok)

	c.Set("7", entity{ID: "7", Status: "pending"})

	got, ok := c.Get("7")
	require.True(t, ok)
	assert.Equal(t, entity{ID: "7", Status: "pending"}, got)
	assert.Equal(t, 1, c.Len())
}

func TestCache_SetOverwrites(t *testing.T) {
	c := New[string, entity]("task", nil)

	c.Set("7", entity{ID: "7", Status: "pending"})
	c.Set("7", entity{ID: "7", Status: "completed"})

	got, _ := c.Get("7")
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Update(t *testing.T) {
	c := New[string, entity]("task", nil)

	got := c.Update("9", func(old entity, ok bool) entity {
		assert.False(t, ok)
		assert.Zero(t, old)
		return entity{ID: "9", Status: "pending"}
	})
	assert.Equal(t, "pending", got.Status)

	got = c.Update("9", func(old entity, ok bool) entity {
		assert.True(t, ok)
		old.Status = "completed"
		return old
	})
	assert.Equal(t, entity{ID: "9", Status: "completed"}, got)

	stored, _ := c.Get("9")
	assert.Equal(t, got, stored)
}

func TestCache_Clear(t *testing.T) {
	c := New[string, entity]("project", nil)
	c.Set("1", entity{ID: "1"})
	c.Set("2", entity{ID: "2"})

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("1")
	assert.False(t, ok)
}

func TestCache_ConcurrentUpdates(t *testing.T) {
	c := New[string, int]("counter", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update("n", func(old int, _ bool) int { return old + 1 })
		}()
	}
	wg.Wait()

	got, _ := c.Get("n")
	assert.Equal(t, 50, got)
}

func TestCache_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)
	c := New[string, entity]("project", m)

	c.Get("1")
	c.Set("1", entity{ID: "1"})
	c.Set("2", entity{ID: "2"})
	c.Get("1")
	c.Get("1")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HitsTotal.WithLabelValues("project")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MissesTotal.WithLabelValues("project")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SetsTotal.WithLabelValues("project")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Size.WithLabelValues("project")))

	c.Clear()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClearsTotal.WithLabelValues("project")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Size.WithLabelValues("project")))
}

func TestNewMetrics_Singleton(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}
