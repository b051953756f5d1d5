package capability

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"MateGuard/pkg/logger"
	"MateGuard/pkg/metrics"
)

// SMSClient 便于替换/注入的短信发送接口（适配平台桥接层或网关 SDK）
type SMSClient interface {
	Send(ctx context.Context, phone, body string) error
	CheckPermission(ctx context.Context) (State, error)
	RequestPermission(ctx context.Context) (State, error)
}

// SMSSender wraps the SMS bridge. Success means the message was handed
// off to the platform, not that delivery was confirmed.
type SMSSender struct {
	cli SMSClient
	rec Recorder
}

func NewSMSSender(cli SMSClient, rec Recorder) *SMSSender {
	if rec == nil {
		rec = NopRecorder()
	}
	return &SMSSender{cli: cli, rec: rec}
}

func (s *SMSSender) RequestPermission(ctx context.Context) Status {
	if s.cli == nil {
		return UnsupportedStatus()
	}

	state, err := s.cli.CheckPermission(ctx)
	if err == nil && state == StateGranted {
		return StatusOf(state)
	}

	state, err = s.cli.RequestPermission(ctx)
	if err != nil {
		s.rec.Record("sms-permission-error", map[string]interface{}{"error": err.Error()})
		return DeniedStatus()
	}
	return StatusOf(state)
}

// BuildBody appends a maps link when a location is known.
func BuildBody(message string, loc *LatLng) string {
	if loc == nil {
		return message
	}
	return fmt.Sprintf("%s\n\nLocation: https://maps.google.com/?q=%f,%f", message, loc.Lat, loc.Lng)
}

// Send hands the message off to the platform, returning false on any
// failure. Failures are recorded, never propagated.
func (s *SMSSender) Send(ctx context.Context, phone, message string, loc *LatLng) bool {
	if s.cli == nil {
		s.rec.Record("sms-unsupported", map[string]interface{}{"phone": phone})
		metrics.RecordCapabilityFailure("sms")
		return false
	}

	if !s.RequestPermission(ctx).Granted {
		s.rec.Record("sms-permission-denied", map[string]interface{}{"phone": phone})
		metrics.RecordCapabilityFailure("sms")
		return false
	}

	body := BuildBody(message, loc)
	if err := s.cli.Send(ctx, phone, body); err != nil {
		s.rec.Record("sms-send-failed", map[string]interface{}{"phone": phone, "error": err.Error()})
		metrics.RecordCapabilityFailure("sms")
		logger.Warn("sms send failed", zap.String("phone", phone), zap.Error(err))
		return false
	}
	return true
}
