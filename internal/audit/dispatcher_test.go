package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToActionSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var logins, logouts []Record
	d.Subscribe(ActionLogin, func(_ context.Context, r Record) error {
		logins = append(logins, r)
		return nil
	})
	d.Subscribe(ActionLogout, func(_ context.Context, r Record) error {
		logouts = append(logouts, r)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Record{Action: ActionLogin, Outcome: OutcomeFailure, Reason: "NOT_FOUND"}))

	require.Len(t, logins, 1)
	assert.Empty(t, logouts)
	assert.NotEmpty(t, logins[0].ID)
	assert.False(t, logins[0].Timestamp.IsZero())
	assert.Equal(t, "NOT_FOUND", logins[0].Reason)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	called := 0
	d.Subscribe(ActionRefresh, func(context.Context, Record) error {
		called++
		return boom
	})
	d.Subscribe(ActionRefresh, func(context.Context, Record) error {
		called++
		return nil
	})

	err := d.Publish(context.Background(), Record{Action: ActionRefresh})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, called)
}
