package crisis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"MateGuard/internal/contacts"
	"MateGuard/internal/ledger"
	"MateGuard/internal/models"
	"MateGuard/pkg/capability"
	"MateGuard/pkg/errors"
	"MateGuard/pkg/logger"
	"MateGuard/pkg/metrics"
	"MateGuard/pkg/scheduler"
	"MateGuard/pkg/util"
)

// EscalationReason is written to every timeout escalation record.
const EscalationReason = "no response from emergency contacts"

const (
	defaultCriticalTimeout = 15 * time.Minute
	defaultHighTimeout     = 30 * time.Minute
	maxPrimaryNotified     = 2
)

type ResponderConfig struct {
	// Response-timeout windows before authority escalation.
	CriticalTimeout time.Duration
	HighTimeout     time.Duration
}

// Responder drives the per-alert state machine:
// created → notifying → awaiting_response → acknowledged | escalated.
// Every capability call degrades gracefully; the one failure it refuses
// to hide is alert persistence, which is logged loudly while the
// in-memory alert and its timer proceed anyway.
type Responder struct {
	cfg     ResponderConfig
	book    *contacts.Book
	ledger  *ledger.Ledger
	caps    *capability.Manager
	delayer scheduler.Delayer
	ids     *util.IDGenerator
}

func NewResponder(cfg ResponderConfig, book *contacts.Book, led *ledger.Ledger,
	caps *capability.Manager, delayer scheduler.Delayer, ids *util.IDGenerator) *Responder {
	if cfg.CriticalTimeout <= 0 {
		cfg.CriticalTimeout = defaultCriticalTimeout
	}
	if cfg.HighTimeout <= 0 {
		cfg.HighTimeout = defaultHighTimeout
	}
	return &Responder{cfg: cfg, book: book, ledger: led, caps: caps, delayer: delayer, ids: ids}
}

// TriggerEmergencyResponse runs the full notifying sequence for a high
// or critical message and returns the created alert. Contact steps are
// sequenced in list order; one contact's failure never blocks the next.
func (r *Responder) TriggerEmergencyResponse(ctx context.Context, level models.RiskLevel, message string, userID int64) (*models.CrisisAlert, error) {
	if !level.Triggers() {
		return nil, errors.Errorf("risk level %q does not trigger an emergency response", level)
	}

	list := r.book.List(userID)
	if len(list) == 0 {
		logger.Warn("no emergency contacts configured for crisis response", zap.Int64("user_id", userID))
	}

	loc := r.caps.Location.CurrentLocation(ctx)

	alert := &models.CrisisAlert{
		ID:               r.ids.Next(),
		UserID:           userID,
		RiskLevel:        level,
		TriggerMessage:   message,
		Timestamp:        time.Now(),
		ContactsNotified: []string{},
	}
	if loc != nil {
		alert.Latitude = &loc.Lat
		alert.Longitude = &loc.Lng
	}

	if err := r.ledger.AppendAlert(alert); err != nil {
		// 持久化失败不阻断响应流程，但必须留下痕迹
		logger.Error("crisis alert not persisted, continuing in memory",
			zap.String("alert_id", alert.ID), zap.Error(err))
	}
	metrics.RecordAlert(string(level))
	util.Sig().Emit(models.SigAlertCreated, alert)

	// 自助资源必须先于任何联系人通知展示，即使一个联系人都没有
	r.showCrisisResources(ctx, level)

	for _, contact := range r.selectTargets(level, list) {
		r.notifyContact(ctx, contact, alert, loc)
	}

	r.scheduleEscalation(alert.ID, level)
	return alert, nil
}

// MarkResponseReceived acknowledges an alert. Late acknowledgment after
// escalation is recorded but the escalated flag never reverts.
func (r *Responder) MarkResponseReceived(alertID string) bool {
	alert, ok := r.ledger.MarkResponseReceived(alertID)
	if !ok {
		logger.Warn("acknowledgment for unknown alert", zap.String("alert_id", alertID))
		return false
	}
	metrics.RecordAcknowledgment()
	logger.Info("crisis alert acknowledged",
		zap.String("alert_id", alertID), zap.Bool("already_escalated", alert.Escalated))
	return true
}

// selectTargets picks who gets notified: critical reaches everyone,
// high only primary contacts, capped at two.
func (r *Responder) selectTargets(level models.RiskLevel, list []models.EmergencyContact) []models.EmergencyContact {
	if level == models.RiskCritical {
		return list
	}
	primaries := make([]models.EmergencyContact, 0, maxPrimaryNotified)
	for _, c := range list {
		if c.IsPrimary {
			primaries = append(primaries, c)
			if len(primaries) == maxPrimaryNotified {
				break
			}
		}
	}
	return primaries
}

// notifyContact runs the per-contact fallback chain: SMS first, then a
// voice call. Success on either channel records the contact and tells
// the user; failure of both is logged and the sequence moves on.
func (r *Responder) notifyContact(ctx context.Context, contact models.EmergencyContact, alert *models.CrisisAlert, loc *capability.LatLng) {
	body := buildEmergencyMessage(alert)

	if r.caps.SMS.Send(ctx, contact.Phone, body, loc) {
		metrics.RecordNotification("sms", "ok")
		r.recordNotified(ctx, contact, alert)
		return
	}
	metrics.RecordNotification("sms", "failed")

	logger.Info("sms failed, attempting phone call fallback",
		zap.String("alert_id", alert.ID), zap.Int64("contact_id", contact.ID))
	if r.caps.Phone.Dial(ctx, contact.Phone) {
		metrics.RecordNotification("call", "ok")
		r.recordNotified(ctx, contact, alert)
		return
	}
	metrics.RecordNotification("call", "failed")

	logger.Error("contact unreachable on all channels",
		zap.String("alert_id", alert.ID), zap.Int64("contact_id", contact.ID))
}

func (r *Responder) recordNotified(ctx context.Context, contact models.EmergencyContact, alert *models.CrisisAlert) {
	// 台账是 contactsNotified 的唯一写入方；热缓存持有同一个指针，
	// 这里再本地 append 一次会把联系人记成两条
	id := strconv.FormatInt(contact.ID, 10)
	r.ledger.AppendContactNotified(alert.ID, id)

	r.caps.Notify.Show(ctx, "Emergency Contact Notified",
		fmt.Sprintf("%s has been alerted about your safety", contact.Name))
}

// showCrisisResources surfaces the hotline notice to the user before any
// contact notification starts.
func (r *Responder) showCrisisResources(ctx context.Context, level models.RiskLevel) {
	notice := NoticeFor(level)

	lines := make([]string, 0, len(notice.Contacts)+1)
	lines = append(lines, notice.Message)
	for _, c := range notice.Contacts {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Name, c.Number))
	}
	r.caps.Notify.Show(ctx, notice.Title, strings.Join(lines, "\n"))
}

func (r *Responder) scheduleEscalation(alertID string, level models.RiskLevel) {
	timeout := r.cfg.HighTimeout
	if level == models.RiskCritical {
		timeout = r.cfg.CriticalTimeout
	}

	r.delayer.OnceAfter(timeout, scheduler.FuncJob(func(ctx context.Context) {
		r.escalate(ctx, alertID)
	}))
}

// escalate fires at timer expiry. The acknowledged check happens inside
// the ledger so a racing ack always wins cleanly.
func (r *Responder) escalate(ctx context.Context, alertID string) {
	if !r.ledger.EscalateIfUnacknowledged(alertID, EscalationReason) {
		return
	}
	metrics.RecordEscalation()

	alert, _ := r.ledger.GetAlert(alertID)
	// 通知主管机关是外部系统调用，这里只做带完整上下文的移交日志
	fields := []zap.Field{zap.String("alert_id", alertID), zap.String("reason", EscalationReason)}
	if alert != nil {
		fields = append(fields,
			zap.Int64("user_id", alert.UserID),
			zap.String("risk_level", string(alert.RiskLevel)),
			zap.String("last_known_location", alert.LocationText()),
			zap.Int("contacts_notified", len(alert.ContactsNotified)))
	}
	logger.Error("ESCALATING TO AUTHORITIES", fields...)
	util.Sig().Emit(models.SigAlertEscalated, alert)
}

// buildEmergencyMessage renders the urgent SMS template: fixed preamble,
// last known location when available, closing instruction with the
// emergency numbers.
func buildEmergencyMessage(alert *models.CrisisAlert) string {
	var b strings.Builder
	b.WriteString("URGENT: Mental health crisis alert for your contact. They may need immediate support. ")
	if alert.HasLocation() {
		b.WriteString(fmt.Sprintf("Last known location: %s. ", alert.LocationText()))
	}
	b.WriteString("Please reach out to them immediately. If you cannot reach them, consider contacting emergency services (000) or Lifeline (13 11 14).")
	return b.String()
}
