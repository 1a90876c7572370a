package queue

import (
	"cmp"
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
	"github.com/couponhub/coupon-service/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	// defaultQueueSize holds a whole bulk assignment of one coupon on a
	// single shard.
	defaultQueueSize      = 1024
	defaultEnqueueTimeout = 2 * time.Second
	deliveryTimeout       = 5 * time.Second
)

// Config sizes a Dispatcher. Zero values select the defaults; a negative
// EnqueueTimeout makes Publish drop instead of waiting on a full queue.
type Config struct {
	Workers        int
	QueueSize      int
	EnqueueTimeout time.Duration
}

// Dispatcher fans coupon events out to every sink from a fixed set of
// workers. Events are sharded on coupon ID so events about one coupon are
// delivered in publish order.
type Dispatcher struct {
	workers        []chan domain.CouponEvent
	congested      []atomic.Bool
	enqueueTimeout time.Duration
	sinks          []ports.EventSink
	log            zerolog.Logger
	wg             sync.WaitGroup
}

func NewDispatcher(cfg Config, log zerolog.Logger, sinks ...ports.EventSink) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	d := &Dispatcher{
		workers:        make([]chan domain.CouponEvent, workers),
		congested:      make([]atomic.Bool, workers),
		enqueueTimeout: cmp.Or(cfg.EnqueueTimeout, defaultEnqueueTimeout),
		sinks:          sinks,
		log:            log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CouponEvent, size)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// drains its buffered events and exits.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands the event to its worker. When the worker is backed up it
// waits up to the enqueue timeout and drops the event after that.
func (d *Dispatcher) Publish(event domain.CouponEvent) {
	idx := d.shardIndex(event)
	if !d.enqueue(idx, event) {
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn().
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Int("worker_id", idx).
			Msg("event queue full, dropping event")
		return
	}
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// enqueue reports whether the event made it onto worker idx. After a wait
// times out the shard is congested and further events are dropped without
// waiting until one is accepted again.
func (d *Dispatcher) enqueue(idx int, event domain.CouponEvent) bool {
	ch := d.workers[idx]
	select {
	case ch <- event:
		d.congested[idx].Store(false)
		return true
	default:
	}
	if d.enqueueTimeout < 0 || d.congested[idx].Load() {
		return false
	}

	timer := time.NewTimer(d.enqueueTimeout)
	defer timer.Stop()
	select {
	case ch <- event:
		return true
	case <-timer.C:
		d.congested[idx].Store(true)
		return false
	}
}

// shardIndex maps an event deterministically to a worker index.
func (d *Dispatcher) shardIndex(event domain.CouponEvent) int {
	key := event.CouponID
	if key == 0 {
		key = event.UserID
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(key, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CouponEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

// drain delivers what is still buffered using a detached context.
func (d *Dispatcher) drain(id int, ch <-chan domain.CouponEvent) {
	for {
		select {
		case event := <-ch:
			d.deliver(context.Background(), id, event)
		default:
			metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, event domain.CouponEvent) {
	for _, sink := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		start := time.Now()
		err := sink.Deliver(sinkCtx, event)
		cancel()
		metrics.EventDeliveryDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.EventsDeliveredTotal.WithLabelValues(sink.Name(), "error").Inc()
			d.log.Error().Err(err).
				Str("sink", sink.Name()).
				Str("event_id", event.ID).
				Str("type", string(event.Type)).
				Int("worker_id", workerID).
				Msg("event delivery failed")
			continue
		}
		metrics.EventsDeliveredTotal.WithLabelValues(sink.Name(), "ok").Inc()
	}
}
