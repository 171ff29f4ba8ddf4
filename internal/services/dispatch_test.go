package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"good-morning-backend/internal/models"
	"good-morning-backend/internal/push"
	"good-morning-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRealtime struct {
	mu     sync.Mutex
	online map[string]bool
	sent   map[string][]WSMessage
}

func newFakeRealtime(online ...string) *fakeRealtime {
	r := &fakeRealtime{online: make(map[string]bool), sent: make(map[string][]WSMessage)}
	for _, id := range online {
		r.online[id] = true
	}
	return r
}

func (r *fakeRealtime) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID]
}

func (r *fakeRealtime) SendToUser(userID string, message WSMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[userID] = append(r.sent[userID], message)
	return nil
}

// stalledRealtime holds every send until release is closed
type stalledRealtime struct {
	release chan struct{}
}

func (r *stalledRealtime) IsOnline(string) bool { return true }

func (r *stalledRealtime) SendToUser(string, WSMessage) error {
	<-r.release
	return nil
}

type dispatchFixture struct {
	dispatcher *Dispatcher
	users      *testutil.UserStore
	subs       *testutil.PushSubscriptionStore
	web        *testutil.PushSender
	realtime   *fakeRealtime
}

func newDispatchFixture(t *testing.T, online ...string) *dispatchFixture {
	t.Helper()
	users := testutil.NewUserStore()
	addUser(users, "a", "ABC123")
	addUser(users, "b", "XYZ789")
	addPair(users, "a", "b")

	subs := testutil.NewPushSubscriptionStore()
	web := &testutil.PushSender{}
	realtime := newFakeRealtime(online...)
	d := NewDispatcher(users, subs, map[string]push.Sender{models.PlatformWeb: web}, realtime, time.Second)
	return &dispatchFixture{dispatcher: d, users: users, subs: subs, web: web, realtime: realtime}
}

func (f *dispatchFixture) subscribe(t *testing.T, userID, platform string) {
	t.Helper()
	endpoint := "https://fcm.googleapis.com/fcm/send/abc"
	if platform == models.PlatformAPNs {
		endpoint = "device-token"
	}
	err := f.dispatcher.Subscribe(context.Background(), userID, models.PushSubscription{
		Platform: platform,
		Endpoint: endpoint,
		P256dh:   "p256dh-key",
		Auth:     "auth-secret",
	})
	require.NoError(t, err)
}

func TestDispatcherNotify(t *testing.T) {
	f := newDispatchFixture(t)
	f.subscribe(t, "b", models.PlatformWeb)

	outcome, err := f.dispatcher.Notify(context.Background(), "b", "alice")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDispatched, outcome)

	require.Equal(t, 1, f.web.Count())
	delivery := f.web.Deliveries[0]
	assert.Equal(t, "https://fcm.googleapis.com/fcm/send/abc", delivery.Target.Endpoint)
	assert.Equal(t, "p256dh-key", delivery.Target.P256dh)
	assert.Equal(t, "auth-secret", delivery.Target.Auth)
	assert.Equal(t, "good morning!", delivery.Payload.Title)
	assert.Equal(t, "alice sent you a notice", delivery.Payload.Body)
	assert.Equal(t, "good-morning-notification", delivery.Payload.Tag)
	assert.Equal(t, "/icon-192x192.png", delivery.Payload.Badge)
	assert.True(t, delivery.Payload.RequireInteraction)
	assert.Len(t, delivery.Payload.Actions, 2)
}

func TestDispatcherNotifySkipped(t *testing.T) {
	ctx := context.Background()

	t.Run("no subscription", func(t *testing.T) {
		f := newDispatchFixture(t)
		require.NoError(t, f.users.SetNotificationsEnabled(ctx, "b", true))

		outcome, err := f.dispatcher.Notify(ctx, "b", "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Equal(t, 0, f.web.Count())
	})

	t.Run("notifications disabled", func(t *testing.T) {
		f := newDispatchFixture(t)
		f.subscribe(t, "b", models.PlatformWeb)
		require.NoError(t, f.users.SetNotificationsEnabled(ctx, "b", false))

		outcome, err := f.dispatcher.Notify(ctx, "b", "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Equal(t, 0, f.web.Count())
	})

	t.Run("no sender for platform", func(t *testing.T) {
		f := newDispatchFixture(t)
		f.subscribe(t, "b", models.PlatformAPNs)

		outcome, err := f.dispatcher.Notify(ctx, "b", "alice")
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
	})
}

func TestDispatcherGoneSubscriptionRemoved(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t)
	f.subscribe(t, "b", models.PlatformWeb)
	f.web.Err = push.ErrSubscriptionGone

	outcome, err := f.dispatcher.Notify(ctx, "b", "alice")
	assert.ErrorIs(t, err, push.ErrSubscriptionGone)
	assert.Equal(t, OutcomeFailed, outcome)

	_, err = f.subs.GetByUserID(ctx, "b")
	assert.Error(t, err)
}

func TestDispatcherNoticeCreatedSwallowsFailure(t *testing.T) {
	f := newDispatchFixture(t, "b")
	f.subscribe(t, "b", models.PlatformWeb)
	f.web.Err = errors.New("push service unavailable")

	sender, _ := f.users.GetByID(context.Background(), "a")
	notice := &models.Notice{ID: "n1", SenderID: "a", RecipientID: "b", SentAt: time.Now()}

	assert.NotPanics(t, func() { f.dispatcher.NoticeCreated(sender, notice) })
	f.dispatcher.Wait()

	assert.Equal(t, 1, f.web.Count())
	require.Len(t, f.realtime.sent["b"], 1)
	assert.Equal(t, MsgNoticeReceived, f.realtime.sent["b"][0].Type)

	// a transient failure keeps the subscription
	_, err := f.subs.GetByUserID(context.Background(), "b")
	assert.NoError(t, err)
}

func TestDispatcherNoticeEdited(t *testing.T) {
	f := newDispatchFixture(t)
	notice := &models.Notice{ID: "n1", SenderID: "a", RecipientID: "b"}

	f.dispatcher.NoticeEdited(notice)
	f.dispatcher.Wait()
	assert.Empty(t, f.realtime.sent["b"])

	f.realtime.online["b"] = true
	f.dispatcher.NoticeEdited(notice)
	f.dispatcher.Wait()
	require.Len(t, f.realtime.sent["b"], 1)
	assert.Equal(t, MsgNoticeUpdated, f.realtime.sent["b"][0].Type)
}

func TestDispatcherSubscribe(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		sub     models.PushSubscription
		wantErr error
	}{
		{
			name: "web",
			sub:  models.PushSubscription{Endpoint: "https://push.example.com/1", P256dh: "k", Auth: "a"},
		},
		{
			name: "apns",
			sub:  models.PushSubscription{Platform: "APNS", Endpoint: "device-token"},
		},
		{
			name:    "web missing keys",
			sub:     models.PushSubscription{Endpoint: "https://push.example.com/1"},
			wantErr: ErrInvalidSubscription,
		},
		{
			name:    "web endpoint not https",
			sub:     models.PushSubscription{Endpoint: "http://push.example.com/1", P256dh: "k", Auth: "a"},
			wantErr: ErrInvalidSubscription,
		},
		{
			name:    "unknown platform",
			sub:     models.PushSubscription{Platform: "fcm", Endpoint: "token"},
			wantErr: ErrInvalidSubscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture(t)
			err := f.dispatcher.Subscribe(ctx, "b", tt.sub)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			user, _ := f.users.GetByID(ctx, "b")
			assert.True(t, user.NotificationsEnabled)
			stored, err := f.subs.GetByUserID(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, "b", stored.UserID)
		})
	}
}

func TestDispatcherUnsubscribe(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture(t)
	f.subscribe(t, "b", models.PlatformWeb)

	require.NoError(t, f.dispatcher.Unsubscribe(ctx, "b"))

	user, _ := f.users.GetByID(ctx, "b")
	assert.False(t, user.NotificationsEnabled)
	_, err := f.subs.GetByUserID(ctx, "b")
	assert.Error(t, err)
}

func TestStalledSocketDoesNotDelayCreate(t *testing.T) {
	users := testutil.NewUserStore()
	addUser(users, "a", "ABC123")
	addUser(users, "b", "XYZ789")
	addPair(users, "a", "b")

	realtime := &stalledRealtime{release: make(chan struct{})}
	d := NewDispatcher(users, testutil.NewPushSubscriptionStore(), nil, realtime, time.Second)
	svc := NewNoticeService(testutil.NewNoticeStore(), users, nil, d, NewPeriod(time.UTC))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Create(context.Background(), "a", validInput())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Create blocked on the recipient's WebSocket")
	}

	notice := &models.Notice{ID: "n1", SenderID: "a", RecipientID: "b"}
	edited := make(chan struct{})
	go func() {
		d.NoticeEdited(notice)
		close(edited)
	}()
	select {
	case <-edited:
	case <-time.After(time.Second):
		t.Fatal("NoticeEdited blocked on the recipient's WebSocket")
	}

	close(realtime.release)
	d.Wait()
}
