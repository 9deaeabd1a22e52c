package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/stacklok/catalog-exporter/internal/lease/mocks"
	"github.com/stacklok/catalog-exporter/internal/status"
)

func TestExportDeniedOnAccount(t *testing.T) {
	t.Parallel()

	const (
		frequency = 30 * time.Minute
		fullRange = 60 * time.Minute
	)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name       string
		lastFull   *time.Time
		lastDelta  *time.Time
		readDelta  bool
		wantDenied bool
	}{
		{
			name:       "no_full_success",
			wantDenied: true,
		},
		{
			name:       "full_too_recent",
			lastFull:   ago(59 * time.Minute),
			wantDenied: true,
		},
		{
			name:       "full_exactly_at_range_without_delta",
			lastFull:   ago(fullRange),
			readDelta:  true,
			wantDenied: false,
		},
		{
			name:       "delta_too_recent",
			lastFull:   ago(3 * time.Hour),
			lastDelta:  ago(29 * time.Minute),
			readDelta:  true,
			wantDenied: true,
		},
		{
			name:       "delta_exactly_at_frequency",
			lastFull:   ago(3 * time.Hour),
			lastDelta:  ago(frequency),
			readDelta:  true,
			wantDenied: false,
		},
		{
			name:       "delta_due",
			lastFull:   ago(2 * time.Hour),
			lastDelta:  ago(45 * time.Minute),
			readDelta:  true,
			wantDenied: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().
				LastSuccessByTypeAndAccount(gomock.Any(), status.ExportTypeFull, "acme").
				Return(tt.lastFull, nil)
			if tt.readDelta {
				store.EXPECT().
					LastSuccessByTypeAndAccount(gomock.Any(), status.ExportTypeDelta, "acme").
					Return(tt.lastDelta, nil)
			}

			policy := NewDeltaPolicy(store, frequency, fullRange, clocktesting.NewFakePassiveClock(now))
			denied, err := policy.ExportDeniedOnAccount(context.Background(), "acme")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDenied, denied)
		})
	}
}

func TestExportDeniedOnAccount_StoreError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	storeErr := errors.New("timeout")
	store.EXPECT().
		LastSuccessByTypeAndAccount(gomock.Any(), status.ExportTypeFull, "acme").
		Return(nil, storeErr)

	denied, err := NewDeltaPolicy(store, time.Minute, time.Minute, nil).
		ExportDeniedOnAccount(context.Background(), "acme")
	require.ErrorIs(t, err, storeErr)
	assert.True(t, denied)
}
