package refreshcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuilder_Acquire_UsesInitialValue(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := New(RefresherConfig[int]{
		Producer: func(context.Context) (int, error) { return 1, nil },
		Cadence:  func(int) time.Duration { return time.Second },
	})

	controller, err := builder.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, Success(1), controller.Get())

	controller.Cancel()
}

func TestBuilder_Acquire_DefaultOnInitialFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("BOOM")
	def := 2

	builder := New(RefresherConfig[int]{
		Producer: func(context.Context) (int, error) { return 0, boom },
		Cadence:  func(int) time.Duration { return time.Hour },
		Default:  &def,
	})

	controller, err := builder.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, controller.Value())
	require.Equal(t, StatusSuccess, controller.Get().Status())

	controller.Cancel()
}

func TestBuilder_Acquire_InitialFailureNoDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("BOOM")

	builder := New(RefresherConfig[int]{
		Producer: func(context.Context) (int, error) { return 0, boom },
		Cadence:  func(int) time.Duration { return time.Hour },
	})

	controller, err := builder.Acquire(ctx)
	require.Nil(t, controller)
	require.ErrorIs(t, err, ErrAcquisitionFailed)
	require.ErrorIs(t, err, boom)
}

func TestBuilder_Acquire_CancelThenRestart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const cadence = 40 * time.Millisecond

	builder := New(RefresherConfig[int]{
		Producer: func(context.Context) (int, error) { return 0, nil },
		Cadence:  func(int) time.Duration { return cadence },
	})

	controller, err := builder.Acquire(ctx)
	require.NoError(t, err)

	require.True(t, controller.Cancel())
	require.Equal(t, Cancelled(0), controller.Get())

	require.True(t, controller.Restart())

	waitFor(t, cadence*5, func() bool {
		return controller.Get().Status() == StatusSuccess
	})
	require.Equal(t, Success(0), controller.Get())

	controller.Cancel()
}

func TestBuilder_Acquire_Combine(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const cadence = 30 * time.Millisecond

	builder := New(RefresherConfig[int]{
		Producer: func(context.Context) (int, error) { return 1, nil },
		Cadence:  func(int) time.Duration { return cadence },
		Combine: func(_ context.Context, previous, next CachedValue[int]) (int, error) {
			return previous.Value() + next.Value(), nil
		},
	})

	controller, err := builder.Acquire(ctx)
	require.NoError(t, err)

	waitFor(t, cadence*5, func() bool {
		return controller.Value() == 2
	})
	require.Equal(t, 2, controller.Value())

	controller.Cancel()
}

func TestBuilder_Acquire_SeeAllUpdates(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const cadence = 30 * time.Millisecond

	var n atomic.Int64

	builder := New(RefresherConfig[int]{
		Producer: func(context.Context) (int, error) {
			return int(n.Add(1) - 1), nil
		},
		Cadence:           func(int) time.Duration { return cadence },
		UpdatesBufferSize: 8,
	})

	controller, err := builder.Acquire(ctx)
	require.NoError(t, err)
	defer controller.Cancel()

	stream := controller.Updates()
	defer stream.Close()

	var got []CachedValue[int]

	subCtx, subCancel := context.WithTimeout(ctx, 2*time.Second)
	defer subCancel()

	for len(got) < 5 {
		require.True(t, stream.Next(subCtx))
		got = append(got, stream.Current())
	}

	require.Equal(t, []CachedValue[int]{
		Success(0), Success(1), Success(2), Success(3), Success(4),
	}, got)
}

// waitFor polls cond until it returns true or timeout elapses, failing the
// test if it never does.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for {
		if cond() {
			return
		}

		if time.Now().After(deadline) {
			require.FailNow(t, "condition was not met before timeout")
		}

		time.Sleep(5 * time.Millisecond)
	}
}
