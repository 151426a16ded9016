package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

type captureSink struct {
	mu      sync.Mutex
	batches []Batch
	err     error
	during  func()
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Send(_ context.Context, b Batch) error {
	if s.during != nil {
		s.during()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

func (s *captureSink) sent() []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Batch(nil), s.batches...)
}

func TestNewTracker_Defaults(t *testing.T) {
	tr := NewTracker("", nil, Options{}, logger.Discard())

	assert.Regexp(t, `^session_[0-9a-f-]{36}$`, tr.SessionID())
	assert.Equal(t, 1000, tr.opts.BufferSize)
	assert.Equal(t, 30*time.Second, tr.opts.FlushInterval)
	assert.NoError(t, tr.Flush(context.Background()))
}

func TestTracker_ImplementsRecorder(t *testing.T) {
	sink := &captureSink{}
	tr := NewTracker("session_abc", sink, DefaultOptions(), logger.Discard())

	var rec domain.Recorder = tr
	rec.TrackEcommerce(context.Background(), domain.ActionAddToCart, map[string]any{"productId": 7})
	require.NoError(t, tr.Flush(context.Background()))

	batches := sink.sent()
	require.Len(t, batches, 1)
	ev := batches[0].Events[0]
	assert.Equal(t, TypeEcommerce, ev.Type)
	assert.Equal(t, domain.ActionAddToCart, ev.Action)
	assert.Equal(t, "session_abc", ev.SessionID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestTracker_BufferDropsOldest(t *testing.T) {
	tr := NewTracker("s", &captureSink{}, Options{BufferSize: 3, FlushInterval: time.Hour}, logger.Discard())
	ctx := context.Background()

	for _, page := range []string{"a", "b", "c", "d", "e"} {
		tr.TrackPageView(ctx, page, "/"+page, nil)
	}

	require.Equal(t, 3, tr.Pending())
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, "c", tr.events[0].Page)
	assert.Equal(t, "e", tr.events[2].Page)
}

func TestTracker_FlushFailureKeepsEvents(t *testing.T) {
	sink := &captureSink{err: errors.New("backend down")}
	tr := NewTracker("s", sink, DefaultOptions(), logger.Discard())
	ctx := context.Background()

	tr.TrackEvent(ctx, "click", "ui", "open_cart", "", nil)
	require.Error(t, tr.Flush(ctx))
	assert.Equal(t, 1, tr.Pending())

	sink.err = nil
	require.NoError(t, tr.Flush(ctx))
	assert.Equal(t, 0, tr.Pending())
	require.Len(t, sink.sent(), 1)
}

func TestTracker_EventsTrackedDuringFlushSurvive(t *testing.T) {
	sink := &captureSink{}
	tr := NewTracker("s", sink, DefaultOptions(), logger.Discard())
	ctx := context.Background()

	tr.TrackPerformance(ctx, "page_load_time", 120, "")
	sink.during = func() { tr.TrackError(ctx, errors.New("late"), nil) }

	require.NoError(t, tr.Flush(ctx))
	assert.Equal(t, 1, tr.Pending())
	require.Len(t, sink.sent()[0].Events, 1)
	assert.Equal(t, "ms", sink.sent()[0].Events[0].Unit)
}

func TestTracker_TrackErrorIgnoresNil(t *testing.T) {
	tr := NewTracker("s", nil, DefaultOptions(), logger.Discard())
	tr.TrackError(context.Background(), nil, nil)
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_RunFlushesOnStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sink := &captureSink{}
	tr := NewTracker("s", sink, Options{BufferSize: 10, FlushInterval: time.Hour}, logger.Discard())
	tr.TrackPageView(context.Background(), "home", "/", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	require.Len(t, sink.sent(), 1)
	assert.Equal(t, "home", sink.sent()[0].Events[0].Page)
}

func TestTracker_RunFlushesPeriodically(t *testing.T) {
	sink := &captureSink{}
	tr := NewTracker("s", sink, Options{BufferSize: 10, FlushInterval: 10 * time.Millisecond}, logger.Discard())
	tr.TrackPageView(context.Background(), "home", "/", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	assert.Eventually(t, func() bool { return len(sink.sent()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestHTTPSink_PostsBatch(t *testing.T) {
	var got Batch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analytics", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"Analytics data received successfully"}`))
	}))
	defer srv.Close()

	sink := NewHTTPSink(httpclient.New(httpclient.DefaultConfig()), srv.URL+"/api/analytics")
	tr := NewTracker("session_x", sink, DefaultOptions(), logger.Discard())
	tr.TrackPageView(context.Background(), "Home", "/", nil)

	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, "session_x", got.SessionID)
	require.Len(t, got.Events, 1)
	assert.Equal(t, TypePageView, got.Events[0].Type)
	assert.GreaterOrEqual(t, got.SessionDuration, int64(0))
	assert.Equal(t, "http", sink.Name())
}

func TestHTTPSink_RejectedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid analytics data"}`))
	}))
	defer srv.Close()

	sink := NewHTTPSink(httpclient.New(httpclient.DefaultConfig()), srv.URL)
	err := sink.Send(context.Background(), Batch{SessionID: "s", Events: []Event{{Type: TypeEvent}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid analytics data")
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	return m.Called(ctx, topic, event).Error(0)
}

func TestKafkaSink_PublishesEnvelope(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicAnalyticsBatch, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var b Batch
		if err := e.Decode(&b); err != nil {
			return false
		}
		return e.Key == "session_k" && e.Source == "storefront" &&
			e.CorrelationID == "corr-1" && e.Metadata["event_count"] == "2" && len(b.Events) == 2
	})).Return(nil).Once()

	sink := NewKafkaSink(pub, "storefront")
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	err := sink.Send(ctx, Batch{SessionID: "session_k", Events: []Event{{Type: TypeEvent}, {Type: TypePageView}}})

	require.NoError(t, err)
	pub.AssertExpectations(t)
	assert.Equal(t, "kafka", sink.Name())
}

func TestKafkaSink_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicAnalyticsBatch, mock.Anything).Return(errors.New("broker down"))

	tr := NewTracker("s", NewKafkaSink(pub, "storefront"), DefaultOptions(), logger.Discard())
	tr.TrackEvent(context.Background(), "x", "y", "z", "", nil)

	assert.Error(t, tr.Flush(context.Background()))
	assert.Equal(t, 1, tr.Pending())
}
