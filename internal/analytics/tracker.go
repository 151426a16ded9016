// Package analytics buffers a browsing session's interaction events and
// delivers them in batches. Delivery is best effort: a failed batch stays
// buffered for the next flush and nothing is ever reported to the shopper.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

// Options tune a Tracker.
type Options struct {
	// BufferSize caps buffered events; the oldest are dropped beyond it.
	BufferSize int
	// FlushInterval is how often Run flushes.
	FlushInterval time.Duration
}

// DefaultOptions returns a 1000 event buffer flushed every 30 seconds.
func DefaultOptions() Options {
	return Options{BufferSize: 1000, FlushInterval: 30 * time.Second}
}

// NewSessionID returns a fresh "session_" prefixed id.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

// Tracker buffers events for one session. It implements domain.Recorder.
type Tracker struct {
	flushMu sync.Mutex

	mu     sync.Mutex
	events []Event
	seq    uint64

	sessionID string
	start     time.Time
	opts      Options
	sink      Sink
	logger    *slog.Logger
	now       func() time.Time
}

var _ domain.Recorder = (*Tracker)(nil)

// NewTracker creates a tracker for sessionID delivering to sink. An empty
// sessionID gets a generated one; a nil sink discards batches.
func NewTracker(sessionID string, sink Sink, opts Options, logger *slog.Logger) *Tracker {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	if sink == nil {
		sink = NoneSink{}
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultOptions().FlushInterval
	}
	return &Tracker{
		sessionID: sessionID,
		start:     time.Now(),
		opts:      opts,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// SessionID returns the id stamped on every event.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Pending returns the number of buffered events.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// Track buffers e, stamping its session id and, when unset, its timestamp.
func (t *Tracker) Track(ctx context.Context, e Event) {
	e.SessionID = t.sessionID
	if e.Timestamp.IsZero() {
		e.Timestamp = t.now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	e.seq = t.seq
	if over := len(t.events) + 1 - t.opts.BufferSize; over > 0 {
		t.events = append(t.events[:0], t.events[over:]...)
		eventsDropped.Add(float64(over))
	}
	t.events = append(t.events, e)

	t.logger.DebugContext(ctx, "analytics event tracked",
		slog.String("type", e.Type),
		slog.String("session_id", t.sessionID),
	)
}

// TrackPageView records a view of page.
func (t *Tracker) TrackPageView(ctx context.Context, page, url string, extra map[string]any) {
	t.Track(ctx, Event{Type: TypePageView, Page: page, URL: url, Context: extra})
}

// TrackEvent records a generic interaction.
func (t *Tracker) TrackEvent(ctx context.Context, name, category, action, label string, value *float64) {
	t.Track(ctx, Event{Type: TypeEvent, Name: name, Category: category, Action: action, Label: label, Value: value})
}

// TrackEcommerce records a commerce action such as add_to_cart.
func (t *Tracker) TrackEcommerce(ctx context.Context, action string, data map[string]any) {
	t.Track(ctx, Event{Type: TypeEcommerce, Action: action, Product: data})
}

// TrackPerformance records a timing or size measurement.
func (t *Tracker) TrackPerformance(ctx context.Context, metric string, value float64, unit string) {
	if unit == "" {
		unit = "ms"
	}
	t.Track(ctx, Event{Type: TypePerformance, Metric: metric, Value: &value, Unit: unit})
}

// TrackError records err with optional context.
func (t *Tracker) TrackError(ctx context.Context, err error, extra map[string]any) {
	if err == nil {
		return
	}
	t.Track(ctx, Event{Type: TypeError, Error: &ErrorInfo{Message: err.Error()}, Context: extra})
}

// Flush sends the buffered events as one batch. Sent events leave the
// buffer only when the sink accepts them; events tracked during the send
// stay for the next flush.
func (t *Tracker) Flush(ctx context.Context) error {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	t.mu.Lock()
	if len(t.events) == 0 {
		t.mu.Unlock()
		return nil
	}
	batch := Batch{
		SessionID:       t.sessionID,
		Events:          append([]Event(nil), t.events...),
		SessionDuration: t.now().Sub(t.start).Milliseconds(),
	}
	t.mu.Unlock()

	if err := t.sink.Send(ctx, batch); err != nil {
		batchesSent.WithLabelValues(t.sink.Name(), "error").Inc()
		t.logger.WarnContext(ctx, "failed to send analytics batch",
			slog.String("sink", t.sink.Name()),
			slog.Int("events", len(batch.Events)),
			slog.String("error", err.Error()),
		)
		return err
	}
	batchesSent.WithLabelValues(t.sink.Name(), "ok").Inc()

	t.mu.Lock()
	t.events = dropSent(t.events, batch.Events)
	t.mu.Unlock()
	return nil
}

// dropSent removes every event up to the last one sent. Events tracked
// during the send have higher sequence numbers and stay.
func dropSent(buf, sent []Event) []Event {
	last := sent[len(sent)-1].seq
	kept := make([]Event, 0, len(buf))
	for _, e := range buf {
		if e.seq > last {
			kept = append(kept, e)
		}
	}
	return kept
}

// Run flushes every FlushInterval until ctx is done, then flushes once more
// with a short grace period.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = t.Flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_ = t.Flush(final)
			cancel()
			return
		}
	}
}
