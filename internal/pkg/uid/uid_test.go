package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake(t *testing.T) {
	gen, err := NewSnowflake(1)
	require.NoError(t, err)

	a, b := gen.Generate(), gen.Generate()

	assert.Positive(t, a)
	assert.Greater(t, b, a)

	_, err = NewSnowflake(4096)
	assert.Error(t, err)
}

func TestUUID(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())

	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestULID_Monotonic(t *testing.T) {
	gen := NewULID()

	prev := gen.Generate()
	for range 100 {
		next := gen.Generate()
		_, err := ulid.ParseStrict(next)
		require.NoError(t, err)
		assert.Greater(t, next, prev)
		prev = next
	}
}
