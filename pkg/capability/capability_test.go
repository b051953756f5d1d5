package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MateGuard/pkg/metrics"
	"MateGuard/pkg/secure"
)

type fakeSMS struct {
	state   State
	sendErr error
	sent    []string
	bodies  []string
}

func (f *fakeSMS) Send(ctx context.Context, phone, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, phone)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeSMS) CheckPermission(ctx context.Context) (State, error)   { return f.state, nil }
func (f *fakeSMS) RequestPermission(ctx context.Context) (State, error) { return f.state, nil }

type fakeLocation struct {
	pos   *LatLng
	err   error
	state State
	delay time.Duration
}

func (f *fakeLocation) Current(ctx context.Context) (*LatLng, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.pos, f.err
}

func (f *fakeLocation) CheckPermission(ctx context.Context) (State, error)   { return f.state, nil }
func (f *fakeLocation) RequestPermission(ctx context.Context) (State, error) { return f.state, nil }

type fakeNotify struct {
	state State
	shown []string
}

func (f *fakeNotify) Show(ctx context.Context, title, body string) error {
	f.shown = append(f.shown, title)
	return nil
}

func (f *fakeNotify) CheckPermission(ctx context.Context) (State, error)   { return f.state, nil }
func (f *fakeNotify) RequestPermission(ctx context.Context) (State, error) { return f.state, nil }

type fakeContacts struct{ state State }

func (f *fakeContacts) CheckPermission(ctx context.Context) (State, error)   { return f.state, nil }
func (f *fakeContacts) RequestPermission(ctx context.Context) (State, error) { return f.state, nil }

type fakeDialer struct{ err error }

func (f *fakeDialer) Dial(ctx context.Context, phone string) error { return f.err }

func TestNilClientsAreUnsupported(t *testing.T) {
	ctx := context.Background()

	loc := NewLocationProvider(LocationConfig{}, nil, nil)
	status := loc.RequestPermission(ctx)
	assert.True(t, status.Unsupported)
	assert.True(t, status.Denied)
	assert.False(t, status.Granted)
	assert.Nil(t, loc.CurrentLocation(ctx))

	sms := NewSMSSender(nil, nil)
	assert.True(t, sms.RequestPermission(ctx).Unsupported)
	assert.False(t, sms.Send(ctx, "+61400000000", "hello", nil))

	caller := NewCaller(nil, nil)
	assert.True(t, caller.RequestPermission(ctx).Unsupported)
	assert.False(t, caller.Dial(ctx, "+61400000000"))

	notify := NewNotifier(nil, nil)
	assert.False(t, notify.Show(ctx, "t", "b"))
}

func TestLocationTimeoutYieldsNil(t *testing.T) {
	cli := &fakeLocation{state: StateGranted, pos: &LatLng{Lat: 1, Lng: 2}, delay: time.Second}
	loc := NewLocationProvider(LocationConfig{Timeout: 20 * time.Millisecond}, cli, nil)

	assert.Nil(t, loc.CurrentLocation(context.Background()))
}

func TestLocationDeniedYieldsNil(t *testing.T) {
	cli := &fakeLocation{state: StateDenied, pos: &LatLng{Lat: 1, Lng: 2}}
	loc := NewLocationProvider(LocationConfig{}, cli, nil)

	assert.Nil(t, loc.CurrentLocation(context.Background()))
}

func TestSMSAppendsMapsLink(t *testing.T) {
	cli := &fakeSMS{state: StateGranted}
	sms := NewSMSSender(cli, nil)

	ok := sms.Send(context.Background(), "+61400000000", "URGENT", &LatLng{Lat: -33.8688, Lng: 151.2093})
	require.True(t, ok)
	require.Len(t, cli.bodies, 1)
	assert.Contains(t, cli.bodies[0], "URGENT")
	assert.Contains(t, cli.bodies[0], "https://maps.google.com/?q=")
}

func TestSMSFailureReturnsFalse(t *testing.T) {
	cli := &fakeSMS{state: StateGranted, sendErr: errors.New("radio off")}
	sms := NewSMSSender(cli, nil)

	assert.False(t, sms.Send(context.Background(), "+61400000000", "URGENT", nil))
}

func TestNotifierRequiresGrant(t *testing.T) {
	cli := &fakeNotify{state: StateDenied}
	n := NewNotifier(cli, nil)

	assert.False(t, n.Show(context.Background(), "title", "body"))
	assert.Empty(t, cli.shown)
}

func TestFailuresFeedCapabilityMetric(t *testing.T) {
	metrics.SetGlobal(metrics.NewMetrics())
	defer metrics.SetGlobal(nil)

	sms := NewSMSSender(&fakeSMS{state: StateGranted, sendErr: errors.New("radio off")}, nil)
	require.False(t, sms.Send(context.Background(), "+61400000000", "URGENT", nil))

	caller := NewCaller(&fakeDialer{err: errors.New("busy")}, nil)
	require.False(t, caller.Dial(context.Background(), "+61400000000"))

	assert.Equal(t, 1.0, capabilityFailures(t, "sms"))
	assert.Equal(t, 1.0, capabilityFailures(t, "phone"))
}

func capabilityFailures(t *testing.T, capabilityLabel string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "capability_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "capability" && l.GetValue() == capabilityLabel {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRequestAllMergesSnapshot(t *testing.T) {
	store := secure.NewStore(secure.NewMemoryKV())
	m := NewManager(
		NewLocationProvider(LocationConfig{}, &fakeLocation{state: StateGranted, pos: &LatLng{}}, nil),
		NewSMSSender(&fakeSMS{state: StateDenied}, nil),
		NewCaller(&fakeDialer{}, nil),
		NewNotifier(&fakeNotify{state: StateGranted}, nil),
		&fakeContacts{state: StatePrompt},
		nil, store, nil,
	)

	snap := m.RequestAll(context.Background())
	assert.True(t, snap.Location.Granted)
	assert.True(t, snap.SMS.Denied)
	assert.True(t, snap.Phone.Granted)
	assert.True(t, snap.Contacts.Prompt)
	assert.True(t, snap.Notifications.Granted)

	// 快照已持久化，可供展示查询
	stored := m.Snapshot(context.Background())
	require.NotNil(t, stored)
	assert.Equal(t, snap, *stored)
}

func TestSnapshotNilWhenNeverTaken(t *testing.T) {
	store := secure.NewStore(secure.NewMemoryKV())
	m := NewManager(
		NewLocationProvider(LocationConfig{}, nil, nil),
		NewSMSSender(nil, nil),
		NewCaller(nil, nil),
		NewNotifier(nil, nil),
		nil, nil, store, nil,
	)
	assert.Nil(t, m.Snapshot(context.Background()))
}
