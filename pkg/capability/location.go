package capability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"MateGuard/pkg/logger"
	"MateGuard/pkg/metrics"
)

// LatLng 经纬度坐标
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationClient 便于替换/注入的定位接口（适配平台桥接层）
type LocationClient interface {
	Current(ctx context.Context) (*LatLng, error)
	CheckPermission(ctx context.Context) (State, error)
	RequestPermission(ctx context.Context) (State, error)
}

type LocationConfig struct {
	// Timeout caps a single position fix; the crisis flow never waits
	// longer than this for a location.
	Timeout time.Duration
}

// LocationProvider wraps the platform geolocation bridge with a bounded
// timeout and nil-on-failure semantics.
type LocationProvider struct {
	cfg LocationConfig
	cli LocationClient
	rec Recorder
}

func NewLocationProvider(cfg LocationConfig, cli LocationClient, rec Recorder) *LocationProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if rec == nil {
		rec = NopRecorder()
	}
	return &LocationProvider{cfg: cfg, cli: cli, rec: rec}
}

// RequestPermission never returns an error; failures degrade to denied.
func (p *LocationProvider) RequestPermission(ctx context.Context) Status {
	if p.cli == nil {
		return UnsupportedStatus()
	}

	state, err := p.cli.CheckPermission(ctx)
	if err == nil && state == StateGranted {
		return StatusOf(state)
	}

	state, err = p.cli.RequestPermission(ctx)
	if err != nil {
		p.rec.Record("location-permission-error", map[string]interface{}{"error": err.Error()})
		return DeniedStatus()
	}
	return StatusOf(state)
}

// CurrentLocation resolves a best-effort position. It returns nil on
// timeout, denial or missing hardware, never an error.
func (p *LocationProvider) CurrentLocation(ctx context.Context) *LatLng {
	if p.cli == nil {
		return nil
	}

	status := p.RequestPermission(ctx)
	if !status.Granted {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	pos, err := p.cli.Current(ctx)
	if err != nil {
		p.rec.Record("location-error", map[string]interface{}{"error": err.Error()})
		metrics.RecordCapabilityFailure("location")
		logger.Warn("location fix failed", zap.Error(err))
		return nil
	}
	return pos
}
