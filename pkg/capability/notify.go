package capability

import (
	"context"

	"go.uber.org/zap"

	"MateGuard/pkg/logger"
	"MateGuard/pkg/metrics"
)

// NotifyClient 便于替换/注入的本地通知接口
type NotifyClient interface {
	Show(ctx context.Context, title, body string) error
	CheckPermission(ctx context.Context) (State, error)
	RequestPermission(ctx context.Context) (State, error)
}

// Notifier wraps local/system notifications. Without a granted
// permission Show returns false without erroring.
type Notifier struct {
	cli NotifyClient
	rec Recorder
}

func NewNotifier(cli NotifyClient, rec Recorder) *Notifier {
	if rec == nil {
		rec = NopRecorder()
	}
	return &Notifier{cli: cli, rec: rec}
}

func (n *Notifier) RequestPermission(ctx context.Context) Status {
	if n.cli == nil {
		return UnsupportedStatus()
	}

	state, err := n.cli.CheckPermission(ctx)
	if err == nil && state == StateGranted {
		return StatusOf(state)
	}

	state, err = n.cli.RequestPermission(ctx)
	if err != nil {
		n.rec.Record("notification-permission-error", map[string]interface{}{"error": err.Error()})
		return DeniedStatus()
	}
	return StatusOf(state)
}

func (n *Notifier) Show(ctx context.Context, title, body string) bool {
	if n.cli == nil {
		n.rec.Record("notification-blocked", map[string]interface{}{"title": title})
		return false
	}
	if !n.RequestPermission(ctx).Granted {
		return false
	}
	if err := n.cli.Show(ctx, title, body); err != nil {
		n.rec.Record("notification-error", map[string]interface{}{"title": title, "error": err.Error()})
		metrics.RecordCapabilityFailure("notifications")
		logger.Warn("notification display failed", zap.String("title", title), zap.Error(err))
		return false
	}
	return true
}
