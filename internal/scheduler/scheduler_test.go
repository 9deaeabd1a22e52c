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

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func TestCanStartExport(t *testing.T) {
	t.Parallel()

	process := func(account string, age time.Duration) status.Process {
		return status.Process{Account: account, Type: status.ExportTypeFull, ExportDate: now.Add(-age)}
	}

	tests := []struct {
		name      string
		typ       status.ExportType
		processes []status.Process
		want      bool
	}{
		{
			name: "full_without_other_processes",
			typ:  status.ExportTypeFull,
			want: true,
		},
		{
			name: "delta_without_other_processes",
			typ:  status.ExportTypeDelta,
			want: true,
		},
		{
			name:      "live_process_blocks",
			typ:       status.ExportTypeFull,
			processes: []status.Process{process("globex", 5*time.Minute)},
			want:      false,
		},
		{
			name:      "live_process_blocks_delta",
			typ:       status.ExportTypeDelta,
			processes: []status.Process{process("globex", time.Minute)},
			want:      false,
		},
		{
			name:      "exactly_at_threshold_is_live",
			typ:       status.ExportTypeFull,
			processes: []status.Process{process("globex", DefaultStaleAfter)},
			want:      false,
		},
		{
			name:      "just_past_threshold_is_stale",
			typ:       status.ExportTypeFull,
			processes: []status.Process{process("globex", DefaultStaleAfter+time.Second)},
			want:      true,
		},
		{
			name:      "stale_process_ignored",
			typ:       status.ExportTypeDelta,
			processes: []status.Process{process("globex", 20*time.Minute)},
			want:      true,
		},
		{
			name: "any_live_process_blocks",
			typ:  status.ExportTypeFull,
			processes: []status.Process{
				process("globex", 2*time.Hour),
				process("initech", 14*time.Minute),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().ListProcessing(gomock.Any(), "acme").Return(tt.processes, nil)

			s := New(store, WithClock(clocktesting.NewFakePassiveClock(now)))
			got, err := s.CanStartExport(context.Background(), tt.typ, "acme")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanStartExport_StoreError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	storeErr := errors.New("connection refused")
	store.EXPECT().ListProcessing(gomock.Any(), "acme").Return(nil, storeErr)

	allowed, err := New(store).CanStartExport(context.Background(), status.ExportTypeFull, "acme")
	require.ErrorIs(t, err, storeErr)
	assert.False(t, allowed)
}

func TestCanStartExport_CustomStaleAfter(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().ListProcessing(gomock.Any(), "acme").Return([]status.Process{
		{Account: "globex", Type: status.ExportTypeDelta, ExportDate: now.Add(-2 * time.Minute)},
	}, nil)

	s := New(store,
		WithClock(clocktesting.NewFakePassiveClock(now)),
		WithStaleAfter(time.Minute))
	allowed, err := s.CanStartExport(context.Background(), status.ExportTypeFull, "acme")
	require.NoError(t, err)
	assert.True(t, allowed)
}
