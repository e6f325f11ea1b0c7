package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voiceroll/voiceroll/internal/common"
)

func TestRetryPolicy_LinearSchedule(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	b := p.backoff()

	var waits []time.Duration
	for {
		d, stop := b.Next()
		if stop {
			break
		}
		waits = append(waits, d)
	}

	// The Nth wait is BaseDelay * N, and the schedule ends after
	// MaxRetries replays.
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, waits)
}

func TestRetryPolicy_ScheduleNeverResets(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Second}
	b := p.backoff()

	first, _ := b.Next()
	second, _ := b.Next()
	third, _ := b.Next()
	require.Equal(t, time.Second, first)
	require.Equal(t, 2*time.Second, second)
	require.Equal(t, 3*time.Second, third)
}

func TestTransient_WaitsGrowLinearly(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time

	mux := http.NewServeMux()
	mux.HandleFunc("GET /flaky", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	})

	base := 40 * time.Millisecond
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL, setupStore(t), testLogger(),
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, BaseDelay: base}))

	err := c.Get(context.Background(), "/flaky", nil)
	require.ErrorIs(t, err, common.ErrServer)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 4)
	// Each gap must cover at least its scheduled wait: base, 2*base,
	// 3*base. Upper bounds are left to the scheduler.
	for i := 1; i < len(arrivals); i++ {
		gap := arrivals[i].Sub(arrivals[i-1])
		want := time.Duration(i) * base
		require.GreaterOrEqual(t, gap, want, "gap before replay %d", i)
	}
}
