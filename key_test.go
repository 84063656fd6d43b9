package dynastate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyFunc(t *testing.T) {
	t.Run("joins namespace and id", func(t *testing.T) {
		assert.Equal(t, "myapp:sessions:abc", DefaultKeyFunc("abc", []string{"myapp", "sessions"}))
		assert.Equal(t, "sessions:abc", DefaultKeyFunc("abc", []string{"sessions"}))
	})

	t.Run("empty namespace", func(t *testing.T) {
		assert.Equal(t, "abc", DefaultKeyFunc("abc", nil))
		assert.Equal(t, "abc", DefaultKeyFunc("abc", []string{}))
	})

	t.Run("deterministic", func(t *testing.T) {
		ns := []string{"a", "b"}
		assert.Equal(t, DefaultKeyFunc("id", ns), DefaultKeyFunc("id", ns))
	})

	t.Run("distinct inputs yield distinct keys", func(t *testing.T) {
		keys := map[string]bool{}
		for _, k := range []string{
			DefaultKeyFunc("id1", []string{"ns"}),
			DefaultKeyFunc("id2", []string{"ns"}),
			DefaultKeyFunc("id1", []string{"other"}),
			DefaultKeyFunc("id1", []string{"ns", "sub"}),
			DefaultKeyFunc("id1", nil),
		} {
			assert.False(t, keys[k], "duplicate key %q", k)
			keys[k] = true
		}
	})
}
