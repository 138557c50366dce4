package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"VesselPulse/internal/domain/models"
	drepo "VesselPulse/internal/domain/repository"
)

// ErrNotFound is returned when a snapshot is requested for a vessel the
// engine has no state for.
var ErrNotFound = errors.New("engine: vessel not found")

// ErrOutOfOrder is returned from Ingest under the reject policy when a
// record's timestamp precedes the last accepted one for its vessel.
var ErrOutOfOrder = errors.New("engine: record out of order")

// Observer receives engine-internal gauges. Implemented by the Prometheus
// recorder in internal/service/metrics; nil-safe throughout.
type Observer interface {
	SetActiveVessels(n int)
	AddEvicted(n int)
	ObserveWindowSize(n int)
}

// vesselState is the unit of mutual exclusion: all writes to one vessel's
// window, snapshot, and trend go through its mutex. The cached snapshot is
// swapped atomically so readers never block on writers and never observe a
// half-updated value.
type vesselState struct {
	mu     sync.Mutex
	window *Window
	snap   atomic.Pointer[models.AggregateSnapshot]
	// dead marks a state the sweeper removed from the registry. A writer
	// that fetched the pointer before removal must discard it and fetch a
	// fresh one, or its insert would land in an orphaned window. Written
	// under both mu and the engine's registry lock.
	dead bool
}

// Engine is the single entry point for the ingestion pipeline:
// validate -> insert-with-eviction -> aggregate -> classify -> trend -> cache.
// Snapshot reads return the cached value and never recompute.
type Engine struct {
	cfg        Config
	validator  *Validator
	aggregator *Aggregator
	classifier *Classifier
	trend      *TrendTracker
	metrics    drepo.Metrics
	observer   Observer
	clock      func() time.Time

	mu      sync.RWMutex
	vessels map[string]*vesselState

	sweepStop chan struct{}
	sweepOnce sync.Once
	started   bool
	startMu   sync.Mutex
}

// Option configures Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests use this to drive
// eviction deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithMetrics attaches an operational metrics recorder.
func WithMetrics(m drepo.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithObserver attaches an engine gauge observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an engine. Fails fast on invalid configuration, the only
// fatal condition the engine has.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		cfg:        cfg,
		validator:  NewValidator(cfg.SpeedPolicy),
		aggregator: NewAggregator(cfg.CourseHandling),
		classifier: NewClassifier(cfg.SpeedThresholds),
		trend:      NewTrendTracker(cfg.TrendEpsilon),
		clock:      time.Now,
		vessels:    make(map[string]*vesselState),
		sweepStop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Ingest validates a raw record, inserts it into the vessel's window, and
// recomputes the cached snapshot. A rejected record affects nothing and is
// reported with its reason; the returned error is non-nil only for
// out-of-order records under the reject policy.
func (e *Engine) Ingest(raw *models.RawRecord) (models.IngestResult, error) {
	rec, reason := e.validator.Validate(raw)
	if reason != models.RejectNone {
		if e.metrics != nil {
			e.metrics.RecordRejected(string(reason))
		}
		return models.IngestResult{Accepted: false, Reason: reason}, nil
	}

	vs := e.state(rec.VesselID)
	vs.mu.Lock()
	for vs.dead {
		vs.mu.Unlock()
		vs = e.state(rec.VesselID)
		vs.mu.Lock()
	}
	if reason := vs.window.Insert(rec, e.clock()); reason != models.RejectNone {
		vs.mu.Unlock()
		if e.metrics != nil {
			e.metrics.RecordRejected(string(reason))
		}
		res := models.IngestResult{Accepted: false, Reason: reason, VesselID: rec.VesselID}
		if e.cfg.OutOfOrder == OutOfOrderReject {
			return res, fmt.Errorf("%w: vessel %s", ErrOutOfOrder, rec.VesselID)
		}
		return res, nil
	}
	e.recomputeLocked(rec.VesselID, vs)
	size := vs.window.Len()
	vs.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordIngested(raw.Source, rec.VesselID)
		e.metrics.RecordLastSpeed(rec.VesselID, rec.Speed)
	}
	if e.observer != nil {
		e.observer.ObserveWindowSize(size)
	}
	return models.IngestResult{Accepted: true, VesselID: rec.VesselID}, nil
}

// recomputeLocked rebuilds the cached snapshot. Caller holds vs.mu.
func (e *Engine) recomputeLocked(vesselID string, vs *vesselState) {
	snap := e.aggregator.Compute(vesselID, vs.window.Entries(), e.clock())
	if snap.Speed != nil {
		snap.Status = e.classifier.Classify(snap.Speed.Mean)
	}
	snap.Trend = e.trend.Update(vesselID, snap)
	vs.snap.Store(&snap)
}

// Snapshot returns the most recently computed aggregate for a vessel.
// Reads are lock-free against the vessel's writer and idempotent.
func (e *Engine) Snapshot(vesselID string) (models.AggregateSnapshot, error) {
	e.mu.RLock()
	vs, ok := e.vessels[vesselID]
	e.mu.RUnlock()
	if !ok {
		return models.AggregateSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, vesselID)
	}
	p := vs.snap.Load()
	if p == nil {
		return models.AggregateSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, vesselID)
	}
	return *p, nil
}

// FleetSnapshot folds all current per-vessel snapshots into a fleet view.
// Derived on demand from the cached snapshots, never persisted.
func (e *Engine) FleetSnapshot() models.FleetAggregate {
	snaps := e.allSnapshots()
	fleet := models.FleetAggregate{
		StatusDistribution: make(map[models.Status]int),
		ComputedAt:         e.clock(),
	}
	var speedSum float64
	var speedCount int
	for _, s := range snaps {
		if s.Count == 0 {
			continue
		}
		fleet.Vessels++
		fleet.Records += s.Count
		fleet.StatusDistribution[s.Status]++
		if s.Speed != nil {
			if fleet.Speed == nil {
				fleet.Speed = &models.SpeedStats{Min: s.Speed.Min, Max: s.Speed.Max}
			}
			if s.Speed.Min < fleet.Speed.Min {
				fleet.Speed.Min = s.Speed.Min
			}
			if s.Speed.Max > fleet.Speed.Max {
				fleet.Speed.Max = s.Speed.Max
			}
			speedSum += s.Speed.Mean
			speedCount++
		}
		if s.Bounds != nil {
			if fleet.Bounds == nil {
				b := *s.Bounds
				fleet.Bounds = &b
			} else {
				if s.Bounds.LatMin < fleet.Bounds.LatMin {
					fleet.Bounds.LatMin = s.Bounds.LatMin
				}
				if s.Bounds.LatMax > fleet.Bounds.LatMax {
					fleet.Bounds.LatMax = s.Bounds.LatMax
				}
				if s.Bounds.LonMin < fleet.Bounds.LonMin {
					fleet.Bounds.LonMin = s.Bounds.LonMin
				}
				if s.Bounds.LonMax > fleet.Bounds.LonMax {
					fleet.Bounds.LonMax = s.Bounds.LonMax
				}
			}
		}
	}
	if speedCount > 0 {
		fleet.Speed.Mean = speedSum / float64(speedCount)
	}
	return fleet
}

// ActiveVessels lists vessels with a non-empty current window.
func (e *Engine) ActiveVessels() []string {
	snaps := e.allSnapshots()
	out := make([]string, 0, len(snaps))
	for id, s := range snaps {
		if s.Count > 0 {
			out = append(out, id)
		}
	}
	return out
}

// MovingVessels lists active vessels whose mean speed exceeds the
// stationary threshold.
func (e *Engine) MovingVessels() []string {
	snaps := e.allSnapshots()
	out := make([]string, 0, len(snaps))
	for id, s := range snaps {
		if s.Speed != nil && s.Speed.Mean >= e.cfg.SpeedThresholds.Stationary {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) allSnapshots() map[string]models.AggregateSnapshot {
	e.mu.RLock()
	out := make(map[string]models.AggregateSnapshot, len(e.vessels))
	for id, vs := range e.vessels {
		if p := vs.snap.Load(); p != nil {
			out[id] = *p
		}
	}
	e.mu.RUnlock()
	return out
}

// EvictExpired sweeps every vessel's window against now. Vessels whose
// window drains are dropped entirely unless RetainEmpty keeps a zero-count
// snapshot. Returns the number of evicted entries.
func (e *Engine) EvictExpired(now time.Time) int {
	e.mu.RLock()
	ids := make([]string, 0, len(e.vessels))
	for id := range e.vessels {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	var evicted int
	for _, id := range ids {
		e.mu.RLock()
		vs, ok := e.vessels[id]
		e.mu.RUnlock()
		if !ok {
			continue
		}
		vs.mu.Lock()
		n := vs.window.EvictExpired(now)
		if n > 0 {
			evicted += n
			if vs.window.Len() == 0 && !e.cfg.RetainEmpty {
				// Drop the vessel while still holding vs.mu. Releasing it
				// first would let a writer that already fetched this state
				// insert into a window the registry no longer knows about.
				e.mu.Lock()
				vs.dead = true
				delete(e.vessels, id)
				e.trend.Forget(id)
				e.mu.Unlock()
				vs.mu.Unlock()
				continue
			}
			e.recomputeLocked(id, vs)
		}
		vs.mu.Unlock()
	}

	if e.observer != nil {
		if evicted > 0 {
			e.observer.AddEvicted(evicted)
		}
		e.observer.SetActiveVessels(len(e.ActiveVessels()))
	}
	return evicted
}

// StartSweeper launches the periodic time-driven eviction loop. Insert-driven
// eviction alone would let a vessel that stops transmitting display stale
// state until the next ingest.
func (e *Engine) StartSweeper() {
	e.startMu.Lock()
	if e.started {
		e.startMu.Unlock()
		return
	}
	e.started = true
	e.startMu.Unlock()

	go func() {
		ticker := time.NewTicker(e.cfg.EvictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-e.sweepStop:
				return
			case <-ticker.C:
				e.EvictExpired(e.clock())
			}
		}
	}()
}

// StopSweeper stops the eviction loop.
func (e *Engine) StopSweeper() {
	e.sweepOnce.Do(func() { close(e.sweepStop) })
}

// state returns the vessel's state, creating it on first ingest.
func (e *Engine) state(vesselID string) *vesselState {
	e.mu.RLock()
	vs, ok := e.vessels[vesselID]
	e.mu.RUnlock()
	if ok {
		return vs
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if vs, ok = e.vessels[vesselID]; ok {
		return vs
	}
	vs = &vesselState{window: NewWindow(e.cfg.WindowDuration)}
	e.vessels[vesselID] = vs
	return vs
}
