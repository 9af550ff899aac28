package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/settlement"
)

type fakeConsumer struct {
	mu       sync.Mutex
	batches  map[string][]redis.XStream // keyed by start id
	pending  []redis.XMessage           // consumer PEL, served for non ">" reads when set
	reads    []string
	acked    []string
	groupErr error
}

func (f *fakeConsumer) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", f.groupErr)
}

func (f *fakeConsumer) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := a.Streams[1]
	f.reads = append(f.reads, id)
	if id != ">" && f.pending != nil {
		var msgs []redis.XMessage
		for _, msg := range f.pending {
			if streamIDAfter(msg.ID, id) && int64(len(msgs)) < a.Count {
				msgs = append(msgs, msg)
			}
		}
		if len(msgs) == 0 {
			return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
		}
		return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: msgs}}, nil)
	}
	batch, ok := f.batches[id]
	if !ok || len(batch) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	delete(f.batches, id)
	return redis.NewXStreamSliceCmdResult(batch, nil)
}

func (f *fakeConsumer) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	for _, id := range ids {
		for i, msg := range f.pending {
			if msg.ID == id {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				break
			}
		}
	}
	return redis.NewIntResult(int64(len(ids)), nil)
}

// streamIDAfter compares "<ms>-<seq>" ids; "0" sorts before everything.
func streamIDAfter(id, cursor string) bool {
	parse := func(v string) (int64, int64) {
		ms, seq, _ := strings.Cut(v, "-")
		a, _ := strconv.ParseInt(ms, 10, 64)
		b, _ := strconv.ParseInt(seq, 10, 64)
		return a, b
	}
	ims, iseq := parse(id)
	cms, cseq := parse(cursor)
	return ims > cms || (ims == cms && iseq > cseq)
}

type selectiveSettler struct {
	mu      sync.Mutex
	settled []string
}

func (s *selectiveSettler) Settle(ctx context.Context, ev settlement.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.GiveawayID == "fail" {
		return errors.New("settlement endpoint down")
	}
	s.settled = append(s.settled, ev.ClaimantID)
	return nil
}

func eventValues(giveawayID, claimantID string) map[string]interface{} {
	g := &models.Giveaway{ID: giveawayID, Token: "USDC"}
	c := &models.Claim{
		ID:         1,
		GiveawayID: giveawayID,
		ClaimantID: claimantID,
		Amount:     decimal.NewFromInt(5),
		ClaimedAt:  time.Now().UTC(),
	}
	return settlement.NewClaimEvent(g, c).Values()
}

func TestSettlementStreamWorkerPoll(t *testing.T) {
	consumer := &fakeConsumer{batches: map[string][]redis.XStream{
		">": {{
			Stream: "settlement:events",
			Messages: []redis.XMessage{
				{ID: "1-0", Values: eventValues("g1", "alice")},
				{ID: "2-0", Values: eventValues("fail", "bob")},
				{ID: "3-0", Values: map[string]interface{}{"type": "unknown"}},
			},
		}},
	}}
	settler := &selectiveSettler{}
	w := NewSettlementStreamWorker(consumer, settler, "settlement:events", "settlers", "worker-1", 2, time.Second)

	n, last := w.poll(context.Background(), ">")
	assert.Equal(t, 3, n)
	assert.Equal(t, "3-0", last)

	assert.Equal(t, []string{"alice"}, settler.settled)
	// Failed settlement stays pending, malformed entry is dropped
	assert.ElementsMatch(t, []string{"1-0", "3-0"}, consumer.acked)

	n, _ = w.poll(context.Background(), ">")
	assert.Equal(t, 0, n)
}

func TestSettlementStreamWorkerDrainsWholePendingList(t *testing.T) {
	consumer := &fakeConsumer{}
	for i := 1; i <= 10; i++ {
		giveawayID := "g" + strconv.Itoa(i)
		if i <= 2 {
			giveawayID = "fail"
		}
		consumer.pending = append(consumer.pending, redis.XMessage{
			ID:     strconv.Itoa(i) + "-0",
			Values: eventValues(giveawayID, "c"+strconv.Itoa(i)),
		})
	}
	settler := &selectiveSettler{}
	w := NewSettlementStreamWorker(consumer, settler, "settlement:events", "settlers", "worker-1", 4, time.Second)

	n := w.drainPending(context.Background())
	assert.Equal(t, 10, n)
	assert.Len(t, settler.settled, 8)
	assert.Len(t, consumer.acked, 8)

	// Failing entries stay pending for the next pass
	require.Len(t, consumer.pending, 2)
	assert.Equal(t, "1-0", consumer.pending[0].ID)
	assert.Equal(t, "2-0", consumer.pending[1].ID)
	assert.Equal(t, []string{"0", "4-0", "8-0", "10-0"}, consumer.reads)
}

func TestSettlementStreamWorkerStartDrainsPendingFirst(t *testing.T) {
	consumer := &fakeConsumer{
		groupErr: errors.New("BUSYGROUP Consumer Group name already exists"),
		batches: map[string][]redis.XStream{
			"0": {{Stream: "settlement:events", Messages: []redis.XMessage{{ID: "1-0", Values: eventValues("g1", "alice")}}}},
		},
	}
	settler := &selectiveSettler{}
	w := NewSettlementStreamWorker(consumer, settler, "settlement:events", "settlers", "worker-1", 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		consumer.mu.Lock()
		defer consumer.mu.Unlock()
		return len(consumer.acked) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	assert.Equal(t, "0", consumer.reads[0])
}

type fakeReconciler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 1, f.err
}

func TestCompletionReconciler(t *testing.T) {
	rec := &fakeReconciler{}
	r := NewCompletionReconciler(rec, "@every 1m")

	r.RunOnce()
	rec.err = errors.New("db down")
	r.RunOnce()
	assert.Equal(t, 2, rec.calls)

	require.NoError(t, r.Start())
	<-r.Stop().Done()

	bad := NewCompletionReconciler(rec, "every minute please")
	assert.Error(t, bad.Start())
}
