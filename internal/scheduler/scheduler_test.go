package scheduler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(context.Background(), func(context.Context) error { return nil }, zerolog.Nop())
	assert.Error(t, s.Register("not a cron spec"))
	assert.NoError(t, s.Register("0 0 8 * * 1"))
}

func TestRunNowInvokesTask(t *testing.T) {
	calls := 0
	s := New(context.Background(), func(context.Context) error {
		calls++
		return nil
	}, zerolog.Nop())
	require.NoError(t, s.RunNow())
	assert.Equal(t, 1, calls)
}
