package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/remeh/sizedwaitgroup"

	"tweet-giveaway-backend/internal/common/logger"
)

// ErrQueueFull is returned when the in-process dispatcher cannot accept more events.
var ErrQueueFull = errors.New("settlement queue is full")

// ErrNotifierClosed is returned by AsyncNotifier after Close.
var ErrNotifierClosed = errors.New("settlement notifier is closed")

// Notifier hands a durable claim off for settlement. Implementations must not
// block on the settlement itself.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// StreamWriter is the redis call used by StreamNotifier.
type StreamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamNotifier appends events to a redis stream consumed by the settlement worker.
type StreamNotifier struct {
	client StreamWriter
	stream string
	maxLen int64
}

func NewStreamNotifier(client StreamWriter, stream string) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream, maxLen: 100000}
}

func (n *StreamNotifier) Notify(ctx context.Context, ev Event) error {
	err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: ev.Values(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append settlement event: %w", err)
	}
	return nil
}

// AMQPNotifier publishes events to a durable topic exchange.
type AMQPNotifier struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now(),
		Body:         body,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx, n.exchange, RoutingKeyClaimRecorded, false, false, msg)
	if err == nil {
		return nil
	}

	// Channel may be closed after a broker-side error; reopen once and retry
	logger.Warn().Err(err).Str("exchange", n.exchange).Msg("Publish failed, reopening channel")
	ch, chErr := n.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	n.channel = ch
	return n.channel.PublishWithContext(ctx, n.exchange, RoutingKeyClaimRecorded, false, false, msg)
}

func (n *AMQPNotifier) Close() {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}

// AsyncNotifier settles events in-process on a bounded pool of goroutines.
type AsyncNotifier struct {
	settler Settler
	timeout time.Duration
	queue   chan Event
	done    chan struct{}
	workers int

	mu     sync.RWMutex
	closed bool
}

func NewAsyncNotifier(settler Settler, workers, queueSize int, timeout time.Duration) *AsyncNotifier {
	if workers <= 0 {
		workers = 1
	}
	n := &AsyncNotifier{
		settler: settler,
		timeout: timeout,
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
		workers: workers,
	}
	go n.run()
	return n
}

// Notify enqueues without waiting; a full queue is reported as ErrQueueFull.
func (n *AsyncNotifier) Notify(ctx context.Context, ev Event) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	swg := sizedwaitgroup.New(n.workers)
	for ev := range n.queue {
		swg.Add()
		go func(ev Event) {
			defer swg.Done()
			Dispatch(context.Background(), n.settler, ev, n.timeout)
		}(ev)
	}
	swg.Wait()
}

// Close stops accepting events and waits for queued and in-flight settlements.
// Calling it more than once is safe.
func (n *AsyncNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

// Dispatch runs one settlement with a timeout and logs the outcome.
func Dispatch(ctx context.Context, settler Settler, ev Event, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := settler.Settle(ctx, ev); err != nil {
		logger.Warn().
			Err(err).
			Str("event_id", ev.ID).
			Str("giveaway_id", ev.GiveawayID).
			Str("claimant_id", ev.ClaimantID).
			Msg("Settlement failed")
		return err
	}

	logger.Debug().
		Str("event_id", ev.ID).
		Str("giveaway_id", ev.GiveawayID).
		Msg("Settlement dispatched")
	return nil
}
