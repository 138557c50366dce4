package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"VesselPulse/internal/domain/models"
	domrepo "VesselPulse/internal/domain/repository"
	"VesselPulse/internal/service/ratelimit"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, r *models.RawRecord) error
}

// RealtimePipeline sits between the WebSocket feed and the processor.
// It pre-screens, throttles per vessel, and buffers when downstream is
// unavailable. Full validation stays in the engine; this layer only rejects
// frames that cannot identify a vessel.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	limiter *ratelimit.Limiter
	maxRPS  int
	bufSize int
	bufCh   chan *models.RawRecord
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	// optional format transform hook
	transform func(*models.RawRecord) *models.RawRecord
	// metrics hooks
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max records per second per vessel.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify record format.
func WithTransform(fn func(*models.RawRecord) *models.RawRecord) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:    proc,
		metrics: metrics,
		limiter: ratelimit.New(),
		maxRPS:  20,   // default throttle per vessel
		bufSize: 1000, // default buffer
		bufCh:   make(chan *models.RawRecord, 1000),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.RawRecord, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(id string) { p.metrics.RecordError("pipeline_throttle_" + id) }
	return p
}

// Start launches background flushing of buffered records.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case r := <-p.bufCh:
				if r == nil {
					continue
				}
				if err := p.proc.Process(ctx, r); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- r:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process screens, throttles, and forwards a record downstream, buffering
// on errors.
func (p *RealtimePipeline) Process(ctx context.Context, r *models.RawRecord) error {
	start := time.Now()
	if err := screenRecord(r); err != nil {
		p.metrics.RecordError("pipeline_screen")
		return err
	}
	if p.transform != nil {
		r = p.transform(r)
		if err := screenRecord(r); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(r.VesselID) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(r.VesselID)
		}
		return nil
	}

	if err := p.proc.Process(ctx, r); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- r:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func screenRecord(r *models.RawRecord) error {
	if r == nil {
		return fmt.Errorf("record nil")
	}
	if r.VesselID == "" {
		return fmt.Errorf("vessel id empty")
	}
	if r.Timestamp == "" {
		return fmt.Errorf("timestamp empty")
	}
	return nil
}

func (p *RealtimePipeline) allow(vesselID string) bool {
	if p.maxRPS <= 0 {
		return true
	}
	return p.limiter.Allow(vesselID, float64(p.maxRPS), float64(p.maxRPS))
}
