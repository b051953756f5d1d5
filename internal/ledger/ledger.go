package ledger

import (
	"encoding/json"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"MateGuard/internal/models"
	"MateGuard/pkg/errors"
	"MateGuard/pkg/logger"
)

const hotCacheSize = 256

// Ledger is the append-only record of alerts and escalations. All alert
// mutation goes through it under one lock, which is what resolves the
// race between the escalation timer and an incoming acknowledgment.
//
// Persistence failures degrade: the alert stays live in the hot cache
// for the process lifetime so the escalation timer and the ack path
// keep working even when the database is gone.
type Ledger struct {
	db  *gorm.DB
	mu  sync.Mutex
	hot *lru.Cache[string, *models.CrisisAlert]
}

func New(db *gorm.DB) (*Ledger, error) {
	if db != nil {
		if err := db.AutoMigrate(&models.CrisisAlert{}, &models.CrisisEscalation{}, &models.EmergencyAction{}); err != nil {
			return nil, errors.Wrap(err, "migrate ledger tables")
		}
	}
	hot, err := lru.New[string, *models.CrisisAlert](hotCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "alert cache")
	}
	return &Ledger{db: db, hot: hot}, nil
}

// AppendAlert records a freshly created alert. The returned error is for
// logging only: the alert is always live in memory afterwards.
func (l *Ledger) AppendAlert(a *models.CrisisAlert) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hot.Add(a.ID, a)
	if l.db == nil {
		return errors.New("no database configured")
	}
	if err := l.db.Create(a).Error; err != nil {
		return errors.Wrap(err, "persist crisis alert").WithContext("alert_id", a.ID)
	}
	return nil
}

// AppendContactNotified appends a contact id to the alert's notified
// list and persists the change.
func (l *Ledger) AppendContactNotified(alertID, contactID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.lookup(alertID)
	if !ok {
		return
	}
	a.ContactsNotified = append(a.ContactsNotified, contactID)
	l.persist(a)
}

// MarkResponseReceived flips responseReceived on the matching alert.
// Acknowledging after escalation is recorded but never un-escalates.
func (l *Ledger) MarkResponseReceived(alertID string) (*models.CrisisAlert, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.lookup(alertID)
	if !ok {
		return nil, false
	}
	if !a.ResponseReceived {
		a.ResponseReceived = true
		l.persist(a)
	}
	return a, true
}

// EscalateIfUnacknowledged atomically checks responseReceived and marks
// the alert escalated when no acknowledgment arrived. Returns false when
// the alert was acknowledged, already escalated, or unknown — the timer
// treats all three as a no-op.
func (l *Ledger) EscalateIfUnacknowledged(alertID, reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.lookup(alertID)
	if !ok || a.ResponseReceived || a.Escalated {
		return false
	}

	a.Escalated = true
	l.persist(a)

	esc := &models.CrisisEscalation{
		AlertID:     a.ID,
		UserID:      a.UserID,
		EscalatedAt: time.Now(),
		Reason:      reason,
	}
	if l.db != nil {
		if err := l.db.Create(esc).Error; err != nil {
			logger.Error("persist escalation failed", zap.String("alert_id", a.ID), zap.Error(err))
		}
	}
	return true
}

// GetAlert looks an alert up by id, hot cache first.
func (l *Ledger) GetAlert(alertID string) (*models.CrisisAlert, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookup(alertID)
}

// AlertsForUser returns the user's alert history, newest first.
func (l *Ledger) AlertsForUser(userID int64) []models.CrisisAlert {
	if l.db == nil {
		return l.cachedAlertsForUser(userID)
	}
	var out []models.CrisisAlert
	if err := l.db.Where("user_id = ?", userID).Order("timestamp desc").Find(&out).Error; err != nil {
		logger.Warn("alert history query failed", zap.Int64("user_id", userID), zap.Error(err))
		return l.cachedAlertsForUser(userID)
	}
	return out
}

// EscalationsForUser returns the user's escalation records.
func (l *Ledger) EscalationsForUser(userID int64) []models.CrisisEscalation {
	if l.db == nil {
		return nil
	}
	var out []models.CrisisEscalation
	if err := l.db.Where("user_id = ?", userID).Order("escalated_at desc").Find(&out).Error; err != nil {
		logger.Warn("escalation query failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	return out
}

// lookup expects l.mu held.
func (l *Ledger) lookup(alertID string) (*models.CrisisAlert, bool) {
	if a, ok := l.hot.Get(alertID); ok {
		return a, true
	}
	if l.db == nil {
		return nil, false
	}
	var a models.CrisisAlert
	if err := l.db.First(&a, "id = ?", alertID).Error; err != nil {
		return nil, false
	}
	l.hot.Add(a.ID, &a)
	return &a, true
}

// persist expects l.mu held. Failures are logged, never propagated: the
// in-memory copy remains authoritative for this process.
func (l *Ledger) persist(a *models.CrisisAlert) {
	if l.db == nil {
		return
	}
	if err := l.db.Save(a).Error; err != nil {
		logger.Error("persist alert update failed", zap.String("alert_id", a.ID), zap.Error(err))
	}
}

func (l *Ledger) cachedAlertsForUser(userID int64) []models.CrisisAlert {
	var out []models.CrisisAlert
	for _, key := range l.hot.Keys() {
		if a, ok := l.hot.Peek(key); ok && a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out
}

// Record implements the capability diagnostics sink: every capability
// failure or offline fallback lands here for audit.
func (l *Ledger) Record(action string, payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}
	rec := &models.EmergencyAction{Action: action, Payload: string(raw)}
	if l.db == nil {
		return
	}
	if err := l.db.Create(rec).Error; err != nil {
		logger.Warn("record emergency action failed", zap.String("action", action), zap.Error(err))
	}
}

// RecentActions returns the newest diagnostic records for audit display.
func (l *Ledger) RecentActions(limit int) []models.EmergencyAction {
	if l.db == nil {
		return nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []models.EmergencyAction
	if err := l.db.Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil
	}
	return out
}
