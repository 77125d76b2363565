package connectivity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(2*time.Second, 60*time.Second, 2.0)

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}

	for i, expected := range want {
		assert.Equal(t, expected, b.Next(), "delay %d", i)
	}
}

func TestBackoffNeverExceedsCap(t *testing.T) {
	b := NewBackoff(2*time.Second, 60*time.Second, 2.0)
	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, b.Next(), 60*time.Second)
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(2*time.Second, 60*time.Second, 2.0)

	b.Next()
	b.Next()
	b.Next()
	assert.Equal(t, 16*time.Second, b.Next())

	b.Reset()
	assert.Equal(t, 2*time.Second, b.Next(), "reset must snap back to the base delay")
	assert.Equal(t, 4*time.Second, b.Next())
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0, 0)
	assert.Equal(t, DefaultBaseDelay, b.Base())
	assert.Equal(t, DefaultBaseDelay, b.Next())
}
