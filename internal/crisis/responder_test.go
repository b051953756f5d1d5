package crisis

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MateGuard/internal/contacts"
	"MateGuard/internal/ledger"
	"MateGuard/internal/models"
	"MateGuard/pkg/capability"
	"MateGuard/pkg/scheduler"
	"MateGuard/pkg/secure"
	"MateGuard/pkg/util"
)

// fakeDelayer captures scheduled jobs so tests can fire escalation
// timers deterministically.
type fakeDelayer struct {
	mu     sync.Mutex
	delays []time.Duration
	jobs   []scheduler.Job
}

func (f *fakeDelayer) OnceAfter(d time.Duration, job scheduler.Job) scheduler.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	f.jobs = append(f.jobs, job)
	return nopHandle{}
}

func (f *fakeDelayer) fire(t *testing.T, i int) {
	t.Helper()
	f.mu.Lock()
	require.Greater(t, len(f.jobs), i, "no job scheduled at index %d", i)
	job := f.jobs[i]
	f.mu.Unlock()
	job.Run(context.Background())
}

type nopHandle struct{}

func (nopHandle) Cancel() {}

type scriptedSMS struct {
	failFor map[string]bool // phone → force failure
	sent    []string
	bodies  []string
}

func (s *scriptedSMS) Send(ctx context.Context, phone, body string) error {
	if s.failFor[phone] {
		return errors.New("carrier rejected")
	}
	s.sent = append(s.sent, phone)
	s.bodies = append(s.bodies, body)
	return nil
}

func (s *scriptedSMS) CheckPermission(ctx context.Context) (capability.State, error) {
	return capability.StateGranted, nil
}

func (s *scriptedSMS) RequestPermission(ctx context.Context) (capability.State, error) {
	return capability.StateGranted, nil
}

type scriptedDialer struct {
	failFor map[string]bool
	dialed  []string
}

func (d *scriptedDialer) Dial(ctx context.Context, phone string) error {
	if d.failFor[phone] {
		return errors.New("dialer unavailable")
	}
	d.dialed = append(d.dialed, phone)
	return nil
}

type recordingNotifier struct {
	titles []string
}

func (n *recordingNotifier) Show(ctx context.Context, title, body string) error {
	n.titles = append(n.titles, title)
	return nil
}

func (n *recordingNotifier) CheckPermission(ctx context.Context) (capability.State, error) {
	return capability.StateGranted, nil
}

func (n *recordingNotifier) RequestPermission(ctx context.Context) (capability.State, error) {
	return capability.StateGranted, nil
}

type fixedLocation struct {
	pos *capability.LatLng
}

func (f *fixedLocation) Current(ctx context.Context) (*capability.LatLng, error) {
	if f.pos == nil {
		return nil, errors.New("no fix")
	}
	return f.pos, nil
}

func (f *fixedLocation) CheckPermission(ctx context.Context) (capability.State, error) {
	return capability.StateGranted, nil
}

func (f *fixedLocation) RequestPermission(ctx context.Context) (capability.State, error) {
	return capability.StateGranted, nil
}

type responderFixture struct {
	responder *Responder
	book      *contacts.Book
	ledger    *ledger.Ledger
	delayer   *fakeDelayer
	sms       *scriptedSMS
	dialer    *scriptedDialer
	notifier  *recordingNotifier
}

func newFixture(t *testing.T, pos *capability.LatLng) *responderFixture {
	t.Helper()

	sms := &scriptedSMS{failFor: map[string]bool{}}
	dialer := &scriptedDialer{failFor: map[string]bool{}}
	notifier := &recordingNotifier{}
	delayer := &fakeDelayer{}

	store := secure.NewStore(secure.NewMemoryKV())
	book := contacts.NewBook(store)
	db, err := util.OpenDatabase("", filepath.Join(t.TempDir(), "crisis.db"))
	require.NoError(t, err)
	led, err := ledger.New(db)
	require.NoError(t, err)

	caps := capability.NewManager(
		capability.NewLocationProvider(capability.LocationConfig{Timeout: time.Second}, &fixedLocation{pos: pos}, nil),
		capability.NewSMSSender(sms, nil),
		capability.NewCaller(dialer, nil),
		capability.NewNotifier(notifier, nil),
		nil, nil, store, nil,
	)

	responder := NewResponder(ResponderConfig{}, book, led, caps, delayer, util.NewIDGenerator(1))
	return &responderFixture{
		responder: responder, book: book, ledger: led,
		delayer: delayer, sms: sms, dialer: dialer, notifier: notifier,
	}
}

func TestNoContactSafety(t *testing.T) {
	fx := newFixture(t, nil)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "trigger text", 1)
	require.NoError(t, err)

	assert.Empty(t, alert.ContactsNotified)
	assert.Empty(t, fx.sms.sent)

	// 资源提示仍然展示，升级计时器仍然启动
	require.NotEmpty(t, fx.notifier.titles)
	assert.Equal(t, "IMMEDIATE CRISIS SUPPORT", fx.notifier.titles[0])
	require.Len(t, fx.delayer.jobs, 1)
	assert.Equal(t, defaultCriticalTimeout, fx.delayer.delays[0])
}

func TestCriticalNotifiesEveryContact(t *testing.T) {
	fx := newFixture(t, nil)
	for _, p := range []string{"+100", "+200", "+300"} {
		_, err := fx.book.Add(1, "c"+p, p, "friend")
		require.NoError(t, err)
	}

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"+100", "+200", "+300"}, fx.sms.sent, "contacts notified in list order")
	assert.Len(t, alert.ContactsNotified, 3)

	got, ok := fx.ledger.GetAlert(alert.ID)
	require.True(t, ok)
	assert.Len(t, got.ContactsNotified, 3)
}

func TestHighNotifiesPrimariesCappedAtTwo(t *testing.T) {
	fx := newFixture(t, nil)

	// 第一个联系人默认 primary；再人为补两个 primary，验证截断为 2
	first, err := fx.book.Add(1, "Ana", "+100", "family")
	require.NoError(t, err)
	_, err = fx.book.Add(1, "Ben", "+200", "friend")
	require.NoError(t, err)

	list := fx.book.List(1)
	require.Len(t, list, 2)
	assert.True(t, first.IsPrimary)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskHigh, "m", 1)
	require.NoError(t, err)

	// 只有 primary 收到通知
	assert.Equal(t, []string{"+100"}, fx.sms.sent)
	assert.Equal(t, []string{strconv.FormatInt(first.ID, 10)}, alert.ContactsNotified)
	assert.Equal(t, defaultHighTimeout, fx.delayer.delays[0])
}

func TestSMSFailureFallsBackToCall(t *testing.T) {
	fx := newFixture(t, nil)
	c, err := fx.book.Add(1, "Ana", "+100", "family")
	require.NoError(t, err)
	fx.sms.failFor["+100"] = true

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"+100"}, fx.dialer.dialed)
	assert.Equal(t, []string{strconv.FormatInt(c.ID, 10)}, alert.ContactsNotified)
}

func TestPartialFailureNeverBlocksOtherContacts(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.book.Add(1, "Unreachable", "+100", "family")
	require.NoError(t, err)
	reachable, err := fx.book.Add(1, "Reachable", "+200", "friend")
	require.NoError(t, err)

	// 第一个联系人短信、电话全部失败
	fx.sms.failFor["+100"] = true
	fx.dialer.failFor["+100"] = true

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{strconv.FormatInt(reachable.ID, 10)}, alert.ContactsNotified)
	require.Len(t, fx.delayer.jobs, 1, "escalation timer still scheduled")
}

func TestContactRecordedOncePerNotification(t *testing.T) {
	// responder 与台账共享同一个 alert 指针；双方都 append 会把
	// 每个联系人记成两条
	fx := newFixture(t, nil)
	ana, err := fx.book.Add(1, "Ana", "+100", "family")
	require.NoError(t, err)
	ben, err := fx.book.Add(1, "Ben", "+200", "friend")
	require.NoError(t, err)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	want := []string{strconv.FormatInt(ana.ID, 10), strconv.FormatInt(ben.ID, 10)}
	assert.Equal(t, want, alert.ContactsNotified)

	got, ok := fx.ledger.GetAlert(alert.ID)
	require.True(t, ok)
	assert.Equal(t, want, got.ContactsNotified)
}

func TestResourceNoticePrecedesContactNotifications(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.book.Add(1, "Ana", "+100", "family")
	require.NoError(t, err)

	_, err = fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(fx.notifier.titles), 2)
	assert.Equal(t, "IMMEDIATE CRISIS SUPPORT", fx.notifier.titles[0])
	assert.Equal(t, "Emergency Contact Notified", fx.notifier.titles[1])
}

func TestTimeoutEscalation(t *testing.T) {
	fx := newFixture(t, nil)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	fx.delayer.fire(t, 0)

	got, ok := fx.ledger.GetAlert(alert.ID)
	require.True(t, ok)
	assert.True(t, got.Escalated)

	escs := fx.ledger.EscalationsForUser(1)
	require.Len(t, escs, 1)
	assert.Equal(t, EscalationReason, escs[0].Reason)
	assert.Equal(t, alert.ID, escs[0].AlertID)
}

func TestTimelyAcknowledgmentSuppressesEscalation(t *testing.T) {
	fx := newFixture(t, nil)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	require.True(t, fx.responder.MarkResponseReceived(alert.ID))
	fx.delayer.fire(t, 0)

	got, ok := fx.ledger.GetAlert(alert.ID)
	require.True(t, ok)
	assert.False(t, got.Escalated, "acknowledged alert never escalates")
	assert.True(t, got.ResponseReceived)
	assert.Empty(t, fx.ledger.EscalationsForUser(1), "no escalation record is written")
}

func TestLateAcknowledgmentDoesNotUnescalate(t *testing.T) {
	fx := newFixture(t, nil)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	fx.delayer.fire(t, 0)
	require.True(t, fx.responder.MarkResponseReceived(alert.ID))

	got, ok := fx.ledger.GetAlert(alert.ID)
	require.True(t, ok)
	assert.True(t, got.Escalated)
	assert.True(t, got.ResponseReceived)
}

func TestLocationFlowsIntoAlertAndMessage(t *testing.T) {
	fx := newFixture(t, &capability.LatLng{Lat: -33.8688, Lng: 151.2093})
	_, err := fx.book.Add(1, "Ana", "+100", "family")
	require.NoError(t, err)

	alert, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskCritical, "m", 1)
	require.NoError(t, err)

	require.True(t, alert.HasLocation())
	assert.Equal(t, "-33.8688, 151.2093", alert.LocationText())

	require.Len(t, fx.sms.bodies, 1)
	assert.Contains(t, fx.sms.bodies[0], "Last known location: -33.8688, 151.2093")
	assert.Contains(t, fx.sms.bodies[0], "https://maps.google.com/?q=")
	assert.Contains(t, fx.sms.bodies[0], "URGENT: Mental health crisis alert")
}

func TestMediumNeverTriggers(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.responder.TriggerEmergencyResponse(context.Background(), models.RiskMedium, "m", 1)
	assert.Error(t, err)
	assert.Empty(t, fx.delayer.jobs)
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	fx := newFixture(t, nil)
	assert.False(t, fx.responder.MarkResponseReceived("nope"))
}
