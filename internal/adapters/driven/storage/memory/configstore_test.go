package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/core/ports/driven"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("store.backend", "file"))
	require.NoError(t, store.Set("store.backend", "sqlite"))

	val, ok := store.Get("store.backend")
	assert.True(t, ok)
	assert.Equal(t, "sqlite", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("s", "text")
	_ = store.Set("i", 4)
	_ = store.Set("i64", int64(9))
	_ = store.Set("f", 0.5)
	_ = store.Set("b", true)
	_ = store.Set("slice", []any{"a", 1, "b"})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 4},
		{"int from int64", store.GetInt("i64"), 9},
		{"int from float", store.GetInt("f"), 0},
		{"int wrong type", store.GetInt("s"), 0},
		{"float", store.GetFloat("f"), 0.5},
		{"float from int", store.GetFloat("i"), 4.0},
		{"float from int64", store.GetFloat("i64"), 9.0},
		{"float wrong type", store.GetFloat("s"), 0.0},
		{"float missing", store.GetFloat("missing"), 0.0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"slice skips non-strings", store.GetStringSlice("slice"), []string{"a", "b"}},
		{"slice missing", store.GetStringSlice("missing"), []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("k", "v")

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key%d", i), i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key%d", i))
		}()
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key%d", i)))
	}
}

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}
