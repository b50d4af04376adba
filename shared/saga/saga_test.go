package saga

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFault struct {
	retryable bool
}

func (f testFault) Error() string   { return "fault" }
func (f testFault) Retryable() bool { return f.retryable }

func fastPolicy() RetryPolicy {
	return DefaultRetryPolicy(time.Millisecond)
}

func TestLedger_DrainReverse(t *testing.T) {
	l := NewLedger[string]()
	l.Append("cancel")
	l.Append("release")
	l.Append("refund")

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"refund", "release", "cancel"}, l.DrainReverse())
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.DrainReverse())
}

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"next step", Running(0), Running(1), true},
		{"same step", Running(1), Running(1), false},
		{"start compensating", Running(2), Compensating(2), true},
		{"succeed", Running(3), Succeeded(), true},
		{"running cannot be compensated", Running(1), Compensated(), false},
		{"unwind one", Compensating(2), Compensating(1), true},
		{"compensating cannot resume", Compensating(1), Running(2), false},
		{"finish unwinding", Compensating(0), Compensated(), true},
		{"compensating cannot succeed", Compensating(0), Succeeded(), false},
		{"terminal", Succeeded(), Compensating(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Running(2)", Running(2).String())
	assert.Equal(t, "Compensating(1)", Compensating(1).String())
	assert.Equal(t, "Compensated", Compensated().String())
	assert.True(t, Succeeded().Status.IsTerminal())
	assert.False(t, Running(0).Status.IsTerminal())
}

func TestRetryPolicy_Delays(t *testing.T) {
	p := DefaultRetryPolicy(time.Second)
	require.NoError(t, p.Validate())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, p.Delays())

	p.MaxAttempts = 6
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second,
	}, p.Delays())
}

func TestRetryPolicy_Validate(t *testing.T) {
	p := fastPolicy()
	p.MaxAttempts = 0
	assert.Error(t, p.Validate())

	p = fastPolicy()
	p.Multiplier = 0.5
	assert.Error(t, p.Validate())

	p = fastPolicy()
	p.MaxInterval = 0
	assert.Error(t, p.Validate())
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		retryable    bool
		wantAttempts int
		wantErr      bool
	}{
		{"succeeds first time", 0, true, 1, false},
		{"recovers on third attempt", 2, true, 3, false},
		{"exhausts attempts", 5, true, 3, true},
		{"non retryable stops immediately", 5, false, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			res, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context, attempt int) (string, error) {
				attempts++
				assert.Equal(t, attempts, attempt)
				assert.Equal(t, attempt, AttemptFromContext(ctx))
				if attempt <= tt.failures {
					return "", testFault{retryable: tt.retryable}
				}
				return "ok", nil
			}, nil)

			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr {
				require.Error(t, err)
				var fault testFault
				assert.True(t, errors.As(err, &fault), "original error must be returned, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", res)
		})
	}
}

func TestRetry_Notify(t *testing.T) {
	var seen []int
	_, err := Retry(context.Background(), fastPolicy(), func(ctx context.Context, attempt int) (int, error) {
		return 0, testFault{retryable: true}
	}, func(err error, attempt int, next time.Duration) {
		seen = append(seen, attempt)
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRetry_InvalidPolicy(t *testing.T) {
	called := false
	_, err := Retry(context.Background(), RetryPolicy{}, func(ctx context.Context, attempt int) (int, error) {
		called = true
		return 0, nil
	}, nil)

	assert.Error(t, err)
	assert.False(t, called)
}

func TestFixedPause(t *testing.T) {
	assert.NoError(t, FixedPause(0)(context.Background()))
	assert.NoError(t, FixedPause(time.Millisecond)(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, FixedPause(time.Hour)(ctx), context.Canceled)
}

func TestAttemptFromContext_Default(t *testing.T) {
	assert.Equal(t, 1, AttemptFromContext(context.Background()))
}
