package kernel_test

import (
	"testing"

	"oms/internal/core/domain/model/kernel"
	"oms/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	t.Run("generates valid distinct order identifiers", func(t *testing.T) {
		first := kernel.NewUUID()
		second := kernel.NewUUID()

		require.NoError(t, first.Validate())
		require.NoError(t, second.Validate())
		assert.False(t, first.IsEqual(second))
		assert.Equal(t, uuid.Version(4), first.Bytes().Version())
	})
}

func TestUUIDFromString(t *testing.T) {
	const canonical = "0f8fad5b-d9cb-469f-a165-70867728950e"

	t.Run("parses a path parameter", func(t *testing.T) {
		id, err := kernel.UUIDFromString(canonical)

		require.NoError(t, err)
		assert.Equal(t, canonical, id.String())
		require.NoError(t, id.Validate())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{"", "order-1", "0f8fad5b-d9cb-469f-a165", canonical + "0"} {
			_, err := kernel.UUIDFromString(raw)

			assert.ErrorContains(t, err, "invalid UUID format", raw)
		}
	})

	t.Run("nil uuid parses but does not validate", func(t *testing.T) {
		id, err := kernel.UUIDFromString(uuid.Nil.String())

		require.NoError(t, err)
		require.ErrorIs(t, id.Validate(), errs.ErrValueIsRequired)
	})
}

func TestUUIDFromBytes(t *testing.T) {
	t.Run("restores a stored column value", func(t *testing.T) {
		original := kernel.NewUUID()
		raw := original.Bytes()

		restored, err := kernel.UUIDFromBytes(raw[:])

		require.NoError(t, err)
		assert.True(t, original.IsEqual(restored))
	})

	t.Run("rejects short and nil columns", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes([]byte{1, 2, 3})
		require.Error(t, err)

		_, err = kernel.UUIDFromBytes(uuid.Nil[:])
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestUUIDFromName(t *testing.T) {
	t.Run("equal names give equal identifiers", func(t *testing.T) {
		first := kernel.UUIDFromName("user:alice\x00req-1")
		second := kernel.UUIDFromName("user:alice\x00req-1")

		require.NoError(t, first.Validate())
		assert.True(t, first.IsEqual(second))
		assert.Equal(t, uuid.Version(5), first.Bytes().Version())
	})

	t.Run("different names give different identifiers", func(t *testing.T) {
		assert.False(t, kernel.UUIDFromName("user:alice\x00req-1").IsEqual(kernel.UUIDFromName("user:bob\x00req-1")))
	})
}

func TestUUID_ZeroValue(t *testing.T) {
	var zero kernel.UUID

	require.ErrorIs(t, zero.Validate(), kernel.ErrUUIDIsNotConstructed)
	assert.True(t, zero.IsEqual(kernel.UUID{}))
	assert.False(t, zero.IsEqual(kernel.NewUUID()))
}
