package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunnerRollback(t *testing.T) {
	var r LocalRunner

	t.Run("failed fn runs undo steps newest first", func(t *testing.T) {
		var undone []string
		err := r.RunInTx(context.Background(), func(txCtx context.Context) error {
			OnRollback(txCtx, func() { undone = append(undone, "first") })
			OnRollback(txCtx, func() { undone = append(undone, "second") })
			return errors.New("boom")
		})
		require.EqualError(t, err, "boom")
		assert.Equal(t, []string{"second", "first"}, undone)
	})

	t.Run("committed fn discards undo steps", func(t *testing.T) {
		called := false
		err := r.RunInTx(context.Background(), func(txCtx context.Context) error {
			OnRollback(txCtx, func() { called = true })
			return nil
		})
		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("outside a transaction OnRollback is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() {
			OnRollback(context.Background(), func() { t.Fatal("must not run") })
		})
	})

	t.Run("cancelled context never runs fn", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.RunInTx(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
