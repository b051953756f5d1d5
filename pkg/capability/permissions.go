package capability

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"MateGuard/pkg/cache"
	"MateGuard/pkg/logger"
	"MateGuard/pkg/secure"
)

const (
	permissionsKey      = "emergencyPermissions"
	permissionsCacheKey = "capability:permissions"
	permissionsCacheTTL = 10 * time.Minute
)

// ContactsClient 通讯录权限接口（本服务只查权限，不读通讯录）
type ContactsClient interface {
	CheckPermission(ctx context.Context) (State, error)
	RequestPermission(ctx context.Context) (State, error)
}

type contactsProvider struct {
	cli ContactsClient
	rec Recorder
}

func (p *contactsProvider) RequestPermission(ctx context.Context) Status {
	if p.cli == nil {
		return UnsupportedStatus()
	}
	state, err := p.cli.CheckPermission(ctx)
	if err == nil && state == StateGranted {
		return StatusOf(state)
	}
	state, err = p.cli.RequestPermission(ctx)
	if err != nil {
		p.rec.Record("contacts-permission-error", map[string]interface{}{"error": err.Error()})
		return DeniedStatus()
	}
	return StatusOf(state)
}

// Manager owns the five capability providers and the cached permission
// snapshot. The snapshot is persisted for display only; every escalation
// re-checks the capability it is about to use.
type Manager struct {
	Location *LocationProvider
	SMS      *SMSSender
	Phone    *Caller
	Notify   *Notifier

	contacts *contactsProvider
	store    *secure.Store
	cache    cache.Cache
}

func NewManager(loc *LocationProvider, sms *SMSSender, phone *Caller, notify *Notifier,
	contactsCli ContactsClient, rec Recorder, store *secure.Store, c cache.Cache) *Manager {
	if rec == nil {
		rec = NopRecorder()
	}
	return &Manager{
		Location: loc,
		SMS:      sms,
		Phone:    phone,
		Notify:   notify,
		contacts: &contactsProvider{cli: contactsCli, rec: rec},
		store:    store,
		cache:    c,
	}
}

// Request resolves a single capability's permission. Never errors.
func (m *Manager) Request(ctx context.Context, t Type) Status {
	switch t {
	case Location:
		return m.Location.RequestPermission(ctx)
	case SMS:
		return m.SMS.RequestPermission(ctx)
	case Phone:
		return m.Phone.RequestPermission(ctx)
	case Contacts:
		return m.contacts.RequestPermission(ctx)
	case Notifications:
		return m.Notify.RequestPermission(ctx)
	}
	return DeniedStatus()
}

// RequestAll runs the five permission requests concurrently and merges
// the snapshot, then caches and persists it.
func (m *Manager) RequestAll(ctx context.Context) Permissions {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		snap Permissions
	)
	for _, t := range All {
		wg.Add(1)
		go func(t Type) {
			defer wg.Done()
			status := m.Request(ctx, t)
			mu.Lock()
			defer mu.Unlock()
			switch t {
			case Location:
				snap.Location = status
			case SMS:
				snap.SMS = status
			case Phone:
				snap.Phone = status
			case Contacts:
				snap.Contacts = status
			case Notifications:
				snap.Notifications = status
			}
		}(t)
	}
	wg.Wait()

	m.saveSnapshot(ctx, snap)
	m.warnAboutDenied(ctx, snap)
	return snap
}

// Snapshot returns the last stored permission snapshot, nil when none
// was ever taken.
func (m *Manager) Snapshot(ctx context.Context) *Permissions {
	if m.cache != nil {
		if v, ok := m.cache.Get(ctx, permissionsCacheKey); ok {
			if snap, ok := v.(Permissions); ok {
				return &snap
			}
		}
	}

	if m.store == nil {
		return nil
	}
	raw, ok := m.store.Get(permissionsKey)
	if !ok {
		return nil
	}
	var snap Permissions
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil
	}
	return &snap
}

func (m *Manager) saveSnapshot(ctx context.Context, snap Permissions) {
	if m.cache != nil {
		_ = m.cache.Set(ctx, permissionsCacheKey, snap, permissionsCacheTTL)
	}
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := m.store.Set(permissionsKey, string(raw)); err != nil {
		logger.Warn("persist permission snapshot failed", zap.Error(err))
	}
}

// warnAboutDenied surfaces a setup prompt naming the denied critical
// permissions, when notifications are still usable.
func (m *Manager) warnAboutDenied(ctx context.Context, snap Permissions) {
	var denied []string
	if !snap.Location.Granted {
		denied = append(denied, "Location")
	}
	if !snap.SMS.Granted {
		denied = append(denied, "SMS")
	}
	if !snap.Notifications.Granted {
		denied = append(denied, "Notifications")
	}
	if len(denied) == 0 {
		return
	}

	logger.Warn("emergency permissions denied", zap.Strings("permissions", denied))
	if snap.Notifications.Granted {
		m.Notify.Show(ctx, "Emergency Permissions Required",
			"Please enable "+strings.Join(denied, ", ")+" permissions for full crisis response capability")
	}
}
