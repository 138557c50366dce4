package usecase

import (
	"context"

	"VesselPulse/internal/domain/models"
	drepo "VesselPulse/internal/domain/repository"
	mid "VesselPulse/internal/middleware"
)

// TelemetryCollector pulls records off the AIS stream and feeds them
// through the pipeline into the processor.
type TelemetryCollector struct {
	stream  drepo.TelemetryStream
	proc    *TelemetryProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewTelemetryCollector creates a new TelemetryCollector instance.
func NewTelemetryCollector(stream drepo.TelemetryStream, proc *TelemetryProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *TelemetryCollector {
	return &TelemetryCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the telemetry stream is connected.
func (c *TelemetryCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TelemetryCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	recCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, recCh, errCh)
	return nil
}

func (c *TelemetryCollector) consume(ctx context.Context, recCh <-chan *models.RawRecord, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			// the stream's read loop is done once it reports or closes;
			// the old channels never carry data again
			if ok && err != nil {
				c.metrics.RecordError("stream")
			}
			recCh, errCh = c.reopen(ctx, recCh)
			if recCh == nil {
				return
			}
		case r, ok := <-recCh:
			if !ok {
				recCh, errCh = c.reopen(ctx, nil)
				if recCh == nil {
					return
				}
				continue
			}
			c.dispatch(ctx, r)
		}
	}
}

func (c *TelemetryCollector) dispatch(ctx context.Context, r *models.RawRecord) {
	if r == nil {
		return
	}
	if c.pipe != nil {
		_ = c.pipe.Process(ctx, r)
	} else {
		_ = c.proc.Process(ctx, r)
	}
}

// reopen drains records left behind by a dying stream, reconnects, and
// returns fresh channels. Returns nils once ctx is cancelled.
func (c *TelemetryCollector) reopen(ctx context.Context, leftover <-chan *models.RawRecord) (<-chan *models.RawRecord, <-chan error) {
	if leftover != nil {
		for r := range leftover {
			c.dispatch(ctx, r)
		}
	}
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			continue
		}
		return c.stream.Read(ctx)
	}
}

func (c *TelemetryCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying TelemetryProcessor for lifecycle management.
func (c *TelemetryCollector) Processor() *TelemetryProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *TelemetryCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
