package syncworker

import (
	"context"
	"testing"
	"time"

	apperrors "staylock/pkg/errors"
	"staylock/pkg/kafka"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRetrier struct {
	retryFunc func(ctx context.Context, id string) (*model.RecoveryResult, error)
	ids       []string
	attempts  []int
}

func (m *mockRetrier) RetrySyncAttempt(ctx context.Context, id string, attempts int) (*model.RecoveryResult, error) {
	m.ids = append(m.ids, id)
	m.attempts = append(m.attempts, attempts)
	if m.retryFunc != nil {
		return m.retryFunc(ctx, id)
	}
	return &model.RecoveryResult{Success: true}, nil
}

func message(t *testing.T, evt model.ReservationEvent) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(evt.PaymentReference).
		WithValue(evt).
		WithEventType(evt.Type).
		Build()
	require.NoError(t, err)
	return msg
}

func syncFailed(attempts int) model.ReservationEvent {
	return model.ReservationEvent{
		Type:             model.EventReservationSyncFailed,
		ReservationID:    "665f1c2e9b1e8a0012345678",
		PaymentReference: "pi_1",
		SyncAttempts:     attempts,
	}
}

func TestHandle_RetriesSyncFailed(t *testing.T) {
	retrier := &mockRetrier{}
	h := NewHandler(retrier, 5, 0, logger.NewNop())

	require.NoError(t, h.Handle(context.Background(), message(t, syncFailed(1))))
	assert.Equal(t, []string{"665f1c2e9b1e8a0012345678"}, retrier.ids)
	assert.Equal(t, []int{1}, retrier.attempts)
}

func TestHandle_FailedRetryIsAcknowledged(t *testing.T) {
	h := NewHandler(&mockRetrier{retryFunc: func(context.Context, string) (*model.RecoveryResult, error) {
		return &model.RecoveryResult{Success: false, Message: "retry failed: timeout", Reservation: &model.Reservation{SyncFailed: true, SyncAttempts: 2}}, nil
	}}, 5, 0, logger.NewNop())

	assert.NoError(t, h.Handle(context.Background(), message(t, syncFailed(1))), "the follow-up event carries the next attempt")
}

func TestHandle_IgnoresOtherEvents(t *testing.T) {
	retrier := &mockRetrier{}
	h := NewHandler(retrier, 5, 0, logger.NewNop())

	for _, eventType := range []string{model.EventReservationConfirmed, model.EventReservationSynced, model.EventReservationResolved} {
		evt := syncFailed(1)
		evt.Type = eventType
		require.NoError(t, h.Handle(context.Background(), message(t, evt)))
	}
	assert.Empty(t, retrier.ids)
}

func TestHandle_StopsAtMaxAttempts(t *testing.T) {
	retrier := &mockRetrier{}
	h := NewHandler(retrier, 3, 0, logger.NewNop())

	require.NoError(t, h.Handle(context.Background(), message(t, syncFailed(3))))
	assert.Empty(t, retrier.ids)
}

func TestHandle_Classification(t *testing.T) {
	tests := []struct {
		name  string
		retry func(ctx context.Context, id string) (*model.RecoveryResult, error)
		want  kafka.ErrorType
	}{
		{
			name: "claim held elsewhere is transient",
			retry: func(context.Context, string) (*model.RecoveryResult, error) {
				return nil, apperrors.Conflict("a sync retry is already in progress for this reservation")
			},
			want: kafka.ErrorTypeTransient,
		},
		{
			name: "storage error is transient",
			retry: func(context.Context, string) (*model.RecoveryResult, error) {
				return nil, apperrors.Internal("Failed to record sync outcome", nil)
			},
			want: kafka.ErrorTypeTransient,
		},
		{
			name: "missing reservation is permanent",
			retry: func(_ context.Context, id string) (*model.RecoveryResult, error) {
				return nil, apperrors.NotFoundWithID("Reservation", id)
			},
			want: kafka.ErrorTypePermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockRetrier{retryFunc: tt.retry}, 5, 0, logger.NewNop())
			err := h.Handle(context.Background(), message(t, syncFailed(1)))
			require.Error(t, err)
			assert.Equal(t, tt.want, kafka.ClassifyError(err))
		})
	}
}

func TestHandle_AlreadyResolvedIsDone(t *testing.T) {
	h := NewHandler(&mockRetrier{retryFunc: func(context.Context, string) (*model.RecoveryResult, error) {
		return &model.RecoveryResult{Success: false, Message: "reservation is not marked as sync failed", Reservation: &model.Reservation{}}, nil
	}}, 5, 0, logger.NewNop())

	assert.NoError(t, h.Handle(context.Background(), message(t, syncFailed(1))))
}

func TestHandle_MalformedPayloadIsPermanent(t *testing.T) {
	h := NewHandler(&mockRetrier{}, 5, 0, logger.NewNop())

	err := h.Handle(context.Background(), kafka.Message{Key: "pi_1", Value: []byte("{")})
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
}

func TestHandle_MissingReservationIDIsPermanent(t *testing.T) {
	h := NewHandler(&mockRetrier{}, 5, 0, logger.NewNop())
	evt := syncFailed(1)
	evt.ReservationID = ""

	err := h.Handle(context.Background(), message(t, evt))
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
}

func TestHandle_DelayHonorsContext(t *testing.T) {
	retrier := &mockRetrier{}
	h := NewHandler(retrier, 5, time.Hour, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Handle(ctx, message(t, syncFailed(1)))
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
	assert.Empty(t, retrier.ids)
}
