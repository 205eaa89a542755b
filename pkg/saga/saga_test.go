package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func ok(context.Context) error { return nil }

func TestStepFailureUnwindsInReverse(t *testing.T) {
	var order []string
	undo := func(name string) Action {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	s := New("invite")
	ctx := context.Background()
	require.NoError(t, s.Step(ctx, "identity", ok, undo("identity")))
	require.NoError(t, s.Step(ctx, "membership", ok, undo("membership")))
	require.NoError(t, s.Step(ctx, "team", ok, undo("team")))
	require.Equal(t, 3, s.Pending())

	boom := errors.New("insert failed")
	err := s.Step(ctx, "invite", func(context.Context) error { return boom }, undo("invite"))

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "invite", stepErr.Step)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"team", "membership", "identity"}, order)
	require.Zero(t, s.Pending())
}

func TestCompensationContinuesAfterFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	var ran []string
	var hooked []string
	s := New("invite",
		WithLogger(zap.New(core)),
		WithCompensationHook(func(step string, err error) {
			if err != nil {
				hooked = append(hooked, step)
			}
		}),
	)
	ctx := context.Background()

	require.NoError(t, s.Step(ctx, "identity", ok, func(context.Context) error {
		ran = append(ran, "identity")
		return nil
	}))
	require.NoError(t, s.Step(ctx, "membership", ok, func(context.Context) error {
		ran = append(ran, "membership")
		return errors.New("row locked")
	}))

	err := s.Compensate(ctx)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	require.Equal(t, []string{"membership", "identity"}, ran)
	require.Equal(t, []string{"membership"}, hooked)

	entries := logs.FilterMessage("compensation failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "membership", entries[0].ContextMap()["step"])
}

func TestCompensateIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New("org")

	var sawErr error
	require.NoError(t, s.Step(ctx, "org", ok, func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	}))
	cancel()

	require.NoError(t, s.Compensate(ctx))
	require.NoError(t, sawErr)
}

func TestCommitDisablesCompensation(t *testing.T) {
	s := New("signup")
	called := false
	require.NoError(t, s.Step(context.Background(), "identity", ok, func(context.Context) error {
		called = true
		return nil
	}))

	s.Commit()
	require.NoError(t, s.Compensate(context.Background()))
	require.False(t, called)

	err := s.Step(context.Background(), "late", ok, nil)
	require.Error(t, err)
}

func TestNilUndoIsNotRegistered(t *testing.T) {
	s := New("team")
	require.NoError(t, s.Step(context.Background(), "read", ok, nil))
	require.Zero(t, s.Pending())
}
