package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// Sink delivers analytics batches.
type Sink interface {
	Name() string
	Send(ctx context.Context, b Batch) error
}

// NoneSink accepts and discards every batch.
type NoneSink struct{}

// Name implements Sink.
func (NoneSink) Name() string { return "none" }

// Send implements Sink.
func (NoneSink) Send(context.Context, Batch) error { return nil }

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPSink posts batches to the backend's analytics endpoint.
type HTTPSink struct {
	client HTTPDoer
	url    string
}

// NewHTTPSink creates a sink posting to url (for example
// "http://backend:5000/api/analytics").
func NewHTTPSink(client HTTPDoer, url string) *HTTPSink {
	return &HTTPSink{client: client, url: url}
}

// Name implements Sink.
func (s *HTTPSink) Name() string { return "http" }

// Send implements Sink.
func (s *HTTPSink) Send(ctx context.Context, b Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal analytics batch: %w", err)
	}
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, s.url, body)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("post analytics batch: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return httpclient.ParseResponseError(resp, "analytics")
	}
	_ = resp.Body.Close()
	return nil
}

// TopicAnalyticsBatch carries analytics batches.
const TopicAnalyticsBatch = "storefront.analytics.batch"

// Publisher publishes events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaSink publishes each batch as one event keyed by session id.
type KafkaSink struct {
	producer Publisher
	source   string
}

// NewKafkaSink creates a sink publishing through producer. source names the
// publishing service in the event envelope.
func NewKafkaSink(producer Publisher, source string) *KafkaSink {
	return &KafkaSink{producer: producer, source: source}
}

// Name implements Sink.
func (s *KafkaSink) Name() string { return "kafka" }

// Send implements Sink.
func (s *KafkaSink) Send(ctx context.Context, b Batch) error {
	event, err := pkgkafka.NewEvent(TopicAnalyticsBatch, b.SessionID, s.source, b,
		pkgkafka.CorrelatedWith(logger.CorrelationIDFromContext(ctx)),
		pkgkafka.Meta("event_count", strconv.Itoa(len(b.Events))),
	)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, TopicAnalyticsBatch, event)
}
