package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/remeh/sizedwaitgroup"
	"github.com/rs/zerolog"

	"tweet-giveaway-backend/internal/common/logger"
	"tweet-giveaway-backend/internal/features/settlement"
)

// StreamConsumer is the part of the redis client the settlement worker needs.
type StreamConsumer interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// SettlementStreamWorker consumes claim events from the settlement stream and
// hands each one to the settler. Entries whose settlement fails stay pending;
// the whole pending list is walked on start and again every retryEvery.
type SettlementStreamWorker struct {
	rdb        StreamConsumer
	settler    settlement.Settler
	stream     string
	group      string
	consumer   string
	workers    int
	timeout    time.Duration
	block      time.Duration
	retryEvery time.Duration
	log        zerolog.Logger
}

func NewSettlementStreamWorker(rdb StreamConsumer, settler settlement.Settler, stream, group, consumer string, workers int, timeout time.Duration) *SettlementStreamWorker {
	if workers <= 0 {
		workers = 1
	}
	return &SettlementStreamWorker{
		rdb:        rdb,
		settler:    settler,
		stream:     stream,
		group:      group,
		consumer:   consumer,
		workers:    workers,
		timeout:    timeout,
		block:      5 * time.Second,
		retryEvery: time.Minute,
		log:        logger.Component("settlement_worker"),
	}
}

// Start blocks until ctx is cancelled.
func (w *SettlementStreamWorker) Start(ctx context.Context) {
	// Ensure consumer group exists
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, w.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Str("stream", w.stream).Msg("Error creating consumer group")
	}

	w.log.Info().
		Str("stream", w.stream).
		Str("group", w.group).
		Str("consumer", w.consumer).
		Int("workers", w.workers).
		Msg("Starting settlement stream worker")

	// Entries delivered to this consumer before a restart come first
	w.drainPending(ctx)
	lastDrain := time.Now()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping settlement stream worker")
			return
		default:
			if time.Since(lastDrain) >= w.retryEvery {
				w.drainPending(ctx)
				lastDrain = time.Now()
			}
			if n, _ := w.poll(ctx, ">"); n < 0 {
				// backoff on error
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// drainPending walks this consumer's pending list batch by batch. The cursor
// advances past every delivered entry, so entries that keep failing do not
// hide the ones behind them. Returns the number of entries processed.
func (w *SettlementStreamWorker) drainPending(ctx context.Context) int {
	total := 0
	cursor := "0"
	for ctx.Err() == nil {
		n, last := w.poll(ctx, cursor)
		if n <= 0 || last == "" {
			break
		}
		total += n
		cursor = last
	}
	if total > 0 {
		w.log.Info().Int("entries", total).Msg("Pending settlement events replayed")
	}
	return total
}

// poll reads one batch starting at id and settles it. Returns the number of
// entries processed (-1 on a read error) and the id of the last entry read.
func (w *SettlementStreamWorker) poll(ctx context.Context, id string) (int, string) {
	args := &redis.XReadGroupArgs{
		Group:    w.group,
		Consumer: w.consumer,
		Streams:  []string{w.stream, id},
		Count:    int64(w.workers),
	}
	if id == ">" {
		args.Block = w.block
	}

	entries, err := w.rdb.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return 0, ""
		}
		w.log.Error().Err(err).Msg("Error reading from stream")
		return -1, ""
	}

	processed := 0
	last := ""
	swg := sizedwaitgroup.New(w.workers)
	for _, stream := range entries {
		for _, msg := range stream.Messages {
			processed++
			last = msg.ID
			swg.Add()
			go func(msg redis.XMessage) {
				defer swg.Done()
				w.processMessage(ctx, msg)
			}(msg)
		}
	}
	swg.Wait()
	return processed, last
}

func (w *SettlementStreamWorker) processMessage(ctx context.Context, msg redis.XMessage) {
	ev, err := settlement.EventFromValues(msg.Values)
	if err != nil {
		// Malformed entries can never succeed, drop them
		w.log.Warn().Err(err).Str("message_id", msg.ID).Msg("Skipping invalid settlement event")
		w.ack(ctx, msg.ID)
		return
	}

	if err := settlement.Dispatch(ctx, w.settler, ev, w.timeout); err != nil {
		return
	}
	w.ack(ctx, msg.ID)
}

func (w *SettlementStreamWorker) ack(ctx context.Context, id string) {
	if err := w.rdb.XAck(ctx, w.stream, w.group, id).Err(); err != nil {
		w.log.Error().Err(err).Str("message_id", id).Msg("Failed to ack settlement event")
	}
}
