package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type fakeReminders struct {
	mu       sync.Mutex
	calls    []time.Time
	outcomes []model.SendOutcome
}

func (f *fakeReminders) ProcessDue(_ context.Context, now time.Time) []model.SendOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.outcomes
}

func (f *fakeReminders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestReminderDispatcher_Dispatch(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	fake := &fakeReminders{outcomes: []model.SendOutcome{
		{ReminderID: 1, Success: true},
		{ReminderID: 2, Success: false, Error: "sms: no phone"},
		{ReminderID: 3, Success: true},
	}}
	m := metrics.New("test")
	d := NewReminderDispatcher(fake, ReminderDispatcherConfig{}, nil, m)
	d.now = func() time.Time { return now }

	sent, failed := d.Dispatch(context.Background())
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, now, fake.calls[0])
	assert.Equal(t, 1, testutil.CollectAndCount(m.DispatchDuration))
}

func TestReminderDispatcher_StartStopsOnCancel(t *testing.T) {
	fake := &fakeReminders{}
	d := NewReminderDispatcher(fake, ReminderDispatcherConfig{PollInterval: 5 * time.Millisecond}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return fake.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
