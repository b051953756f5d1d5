package capability

import (
	"context"

	"go.uber.org/zap"

	"MateGuard/pkg/logger"
	"MateGuard/pkg/metrics"
)

// CallClient 便于替换/注入的拨号接口
type CallClient interface {
	Dial(ctx context.Context, phone string) error
}

// Caller wraps the phone dialer bridge. Dialing is best-effort: true
// means the call was initiated, nothing more.
type Caller struct {
	cli CallClient
	rec Recorder
}

func NewCaller(cli CallClient, rec Recorder) *Caller {
	if rec == nil {
		rec = NopRecorder()
	}
	return &Caller{cli: cli, rec: rec}
}

// RequestPermission: the dialer needs no runtime grant on either
// platform, so a present client is always granted.
func (c *Caller) RequestPermission(ctx context.Context) Status {
	if c.cli == nil {
		return UnsupportedStatus()
	}
	return Status{Granted: true}
}

func (c *Caller) Dial(ctx context.Context, phone string) bool {
	if c.cli == nil {
		c.rec.Record("phone-call-offline", map[string]interface{}{"phone": phone})
		metrics.RecordCapabilityFailure("phone")
		return false
	}
	if err := c.cli.Dial(ctx, phone); err != nil {
		c.rec.Record("phone-call-error", map[string]interface{}{"phone": phone, "error": err.Error()})
		metrics.RecordCapabilityFailure("phone")
		logger.Warn("call placement failed", zap.String("phone", phone), zap.Error(err))
		return false
	}
	return true
}
