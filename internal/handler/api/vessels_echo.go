package api

import (
	"errors"
	"net/http"
	"time"

	models "VesselPulse/internal/domain/models"
	"VesselPulse/internal/engine"
	svcmetrics "VesselPulse/internal/service/metrics"
	"VesselPulse/internal/service/ratelimit"
	"VesselPulse/pkg/cache"
	xhttp "VesselPulse/pkg/http"
	xlogger "VesselPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

const fleetCacheKey = "fleet:aggregate"

// VesselsEchoHandler exposes the ingestion and snapshot API over Echo.
type VesselsEchoHandler struct {
	logger   *xlogger.Logger
	eng      *engine.Engine
	cache    cache.Service
	rl       *ratelimit.Limiter
	fleetTTL time.Duration
}

func NewVesselsEchoHandler(logger *xlogger.Logger, eng *engine.Engine) *VesselsEchoHandler {
	svcmetrics.Register()
	return &VesselsEchoHandler{
		logger:   logger,
		eng:      eng,
		rl:       ratelimit.New(),
		fleetTTL: 2 * time.Second,
	}
}

// SetCache injects a cache for the fleet aggregate.
func (h *VesselsEchoHandler) SetCache(c cache.Service, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.fleetTTL = ttl
	}
}

func (h *VesselsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/ingest", h.Ingest)
	g.GET("/vessels", h.Vessels)
	g.GET("/vessels/:id", h.VesselSnapshot)
	g.GET("/fleet", h.Fleet)
	g.GET("/health", h.Health)
}

// Ingest accepts one record over HTTP and feeds it to the engine.
func (h *VesselsEchoHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":ingest", 50, 25) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	raw := &models.RawRecord{
		VesselID:  req.VesselID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Speed:     req.Speed,
		Course:    req.Course,
		Timestamp: req.Timestamp,
		Source:    req.Source,
	}
	res, err := h.eng.Ingest(raw)
	if err != nil {
		if errors.Is(err, engine.ErrOutOfOrder) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("record out of order for vessel %s", req.VesselID).WithError(err))
		}
		h.logger.Error("ingest engine error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Vessels lists vessels with data in the current window.
func (h *VesselsEchoHandler) Vessels(c echo.Context) error {
	req := &models.ActiveVesselsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var ids []string
	if req.MovingOnly {
		ids = h.eng.MovingVessels()
	} else {
		ids = h.eng.ActiveVessels()
	}
	return xhttp.ListResponse(c, ids, int64(len(ids)))
}

// VesselSnapshot returns the cached aggregate for one vessel.
func (h *VesselsEchoHandler) VesselSnapshot(c echo.Context) error {
	req := &models.VesselSnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.eng.Snapshot(req.VesselID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("vessel %s has no data in window", req.VesselID))
		}
		h.logger.Error("snapshot engine error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// Fleet returns the fleet-wide aggregate, cached briefly.
func (h *VesselsEchoHandler) Fleet(c echo.Context) error {
	ctx := c.Request().Context()
	if h.cache != nil {
		var cached models.FleetAggregate
		if err := h.cache.Get(ctx, fleetCacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("fleet cache get error", xlogger.Error(err))
		}
	}

	fleet := h.eng.FleetSnapshot()
	if h.cache != nil {
		if err := h.cache.Set(ctx, fleetCacheKey, fleet, h.fleetTTL); err != nil {
			h.logger.Warn("fleet cache set error", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, fleet)
}

// Health reports liveness and basic engine stats.
func (h *VesselsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":  "ok",
		"vessels": len(h.eng.ActiveVessels()),
	})
}
