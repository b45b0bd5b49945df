package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrPublisherClosed is returned by a closed ChannelPublisher
	ErrPublisherClosed = errors.New("reporting: publisher is closed")
	// ErrReportNotFound is returned by MemoryStore.Get for an unknown id
	ErrReportNotFound = errors.New("reporting: report not found")
)

// Publisher delivers failure reports
type Publisher interface {
	Publish(ctx context.Context, report *FailureReport) error
}

// Channel is the subset of *amqp.Channel used for publishing
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ChannelPublisher publishes reports as persistent JSON messages
type ChannelPublisher struct {
	mu         sync.RWMutex
	channel    Channel
	exchange   string
	routingKey string
	mandatory  bool
	timeout    time.Duration
}

// ChannelPublisherOption configures a ChannelPublisher
type ChannelPublisherOption func(*ChannelPublisher)

// WithMandatory sets the mandatory flag on published messages
func WithMandatory(mandatory bool) ChannelPublisherOption {
	return func(p *ChannelPublisher) {
		p.mandatory = mandatory
	}
}

// WithPublishTimeout bounds each publish when the context has no deadline
func WithPublishTimeout(timeout time.Duration) ChannelPublisherOption {
	return func(p *ChannelPublisher) {
		p.timeout = timeout
	}
}

// NewChannelPublisher creates a publisher sending to exchange with routingKey
func NewChannelPublisher(channel Channel, exchange, routingKey string, options ...ChannelPublisherOption) *ChannelPublisher {
	p := &ChannelPublisher{
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		timeout:    5 * time.Second,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Publish implements Publisher
func (p *ChannelPublisher) Publish(ctx context.Context, report *FailureReport) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.channel == nil {
		return ErrPublisherClosed
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal failure report: %w", err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	publishing := amqp.Publishing{
		Headers: amqp.Table{
			"x-invocation-id": report.InvocationID,
			"x-method":        report.Method,
		},
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     report.ID,
		CorrelationId: report.InvocationID,
		Type:          "aspect.failure",
		Timestamp:     report.OccurredAt,
		Body:          body,
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, p.mandatory, false, publishing)
	if err != nil {
		return fmt.Errorf("failed to publish failure report: %w", err)
	}

	return nil
}

// Close detaches the channel; the channel itself is owned by the caller
func (p *ChannelPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channel = nil
}

// MemoryStore keeps reports in process
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*FailureReport
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*FailureReport)}
}

// Publish implements Publisher
func (s *MemoryStore) Publish(ctx context.Context, report *FailureReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	return nil
}

// Get returns the report with id
func (s *MemoryStore) Get(ctx context.Context, id string) (*FailureReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return report, nil
}

// ByMethod returns the reports for method, oldest first
func (s *MemoryStore) ByMethod(ctx context.Context, method string) []*FailureReport {
	return s.filter(func(r *FailureReport) bool { return r.Method == method })
}

// List returns all reports, oldest first
func (s *MemoryStore) List(ctx context.Context) []*FailureReport {
	return s.filter(func(*FailureReport) bool { return true })
}

// Len returns the number of stored reports
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

func (s *MemoryStore) filter(keep func(*FailureReport) bool) []*FailureReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*FailureReport
	for _, r := range s.reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out
}
