package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CollectsErrors(t *testing.T) {
	// Arrange
	m := NewManager(4)
	boom := errors.New("boom")

	// Act
	require.NoError(t, m.Go(context.Background(), "ok", func(context.Context) error { return nil }))
	require.NoError(t, m.Go(context.Background(), "fail", func(context.Context) error { return boom }))
	require.NoError(t, m.Go(context.Background(), "cancel", func(context.Context) error { return context.Canceled }))
	require.NoError(t, m.Go(context.Background(), "panic", func(context.Context) error { panic("nope") }))
	err := m.Wait()

	// Assert
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fail: boom")
	assert.NotContains(t, err.Error(), "cancel")
}

func TestManager_LimitAndClosed(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	require.NoError(t, m.Go(context.Background(), "blocker", func(context.Context) error {
		<-release
		return nil
	}))
	assert.ErrorIs(t, m.Go(context.Background(), "extra", func(context.Context) error { return nil }), ErrLimit)

	close(release)
	require.NoError(t, m.Wait())
	assert.ErrorIs(t, m.Go(context.Background(), "late", func(context.Context) error { return nil }), ErrClosed)
}
