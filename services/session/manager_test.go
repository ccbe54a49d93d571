package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/lib/myvault"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
	"github.com/MarcGrol/shopfront/services/session/sessionevents"
)

type eventRecorder struct {
	sync.Mutex
	loggedIn  []sessionevents.LoggedIn
	refreshed []sessionevents.TokenRefreshed
	loggedOut []sessionevents.LoggedOut
}

func (r *eventRecorder) OnLoggedIn(c context.Context, topic string, event sessionevents.LoggedIn) error {
	r.Lock()
	defer r.Unlock()
	r.loggedIn = append(r.loggedIn, event)
	return nil
}

func (r *eventRecorder) OnTokenRefreshed(c context.Context, topic string, event sessionevents.TokenRefreshed) error {
	r.Lock()
	defer r.Unlock()
	r.refreshed = append(r.refreshed, event)
	return nil
}

func (r *eventRecorder) OnLoggedOut(c context.Context, topic string, event sessionevents.LoggedOut) error {
	r.Lock()
	defer r.Unlock()
	r.loggedOut = append(r.loggedOut, event)
	return nil
}

type testContext struct {
	manager  *Manager
	vault    myvault.VaultReadWriter
	clock    *mytime.FakeScheduler
	identity *identityclient.MockIdentityClient
	events   *eventRecorder
}

func setup(t *testing.T) testContext {
	c := context.TODO()

	ctrl := gomock.NewController(t)
	identity := identityclient.NewMockIdentityClient(ctrl)

	store, _, err := mystore.NewInMemoryStore[myvault.Credential](c)
	require.NoError(t, err)
	clock := mytime.NewFakeScheduler(mytime.ExampleTime)
	vault := myvault.New(store, clock)

	pubsub := mypubsub.NewLocalPubSub(clock, &myuuid.SequenceUUIDer{Prefix: "evt"})
	events := &eventRecorder{}
	require.NoError(t, pubsub.Subscribe(c, sessionevents.TopicName, func(c context.Context, e myevents.EventEnvelope) error {
		return sessionevents.DispatchEvent(c, e, events)
	}))

	return testContext{
		manager:  NewManager(vault, identity, NewTokenDecoder(), clock, clock, pubsub, 5*time.Minute),
		vault:    vault,
		clock:    clock,
		identity: identity,
		events:   events,
	}
}

func storeToken(t *testing.T, tc testContext, token string) {
	require.NoError(t, tc.vault.Put(context.TODO(), myvault.CurrentToken, myvault.Credential{Token: token, IssuedAt: tc.clock.Now()}))
}

func storedToken(t *testing.T, tc testContext) string {
	cred, exists, err := tc.vault.Get(context.TODO(), myvault.CurrentToken)
	require.NoError(t, err)
	if !exists {
		return ""
	}
	return cred.Token
}

func TestInitialize(t *testing.T) {
	c := context.TODO()

	t.Run("Anonymous", func(t *testing.T) {
		// given
		tc := setup(t)

		// when
		err := tc.manager.Initialize(c)

		// then
		assert.NoError(t, err)
		assert.Equal(t, 0, tc.clock.Pending())
	})

	t.Run("Arms timer at expiry minus buffer", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))

		// when
		err := tc.manager.Initialize(c)

		// then
		require.NoError(t, err)
		due, armed := tc.clock.NextDue()
		assert.True(t, armed)
		assert.Equal(t, mytime.ExampleTime.Add(55*time.Minute), due)
		assert.Equal(t, 1, tc.clock.Pending())
	})

	t.Run("Re-entrant calls keep one timer", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))

		// when
		require.NoError(t, tc.manager.Initialize(c))
		require.NoError(t, tc.manager.Initialize(c))
		require.NoError(t, tc.manager.Initialize(c))

		// then
		assert.Equal(t, 1, tc.clock.Pending())
	})

	t.Run("Token expiring within buffer is refreshed immediately", func(t *testing.T) {
		// given
		tc := setup(t)
		old := tokenExpiringAt(t, "marc", tc.clock.Now().Add(3*time.Minute))
		renewed := tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))
		storeToken(t, tc, old)
		tc.identity.EXPECT().Refresh(gomock.Any(), identityclient.RefreshRequest{Token: old}).
			Return(identityclient.TokenResponse{Token: renewed, Authenticated: true}, nil).Times(1)

		// when
		err := tc.manager.Initialize(c)

		// then
		require.NoError(t, err)
		assert.Equal(t, renewed, storedToken(t, tc))
		due, armed := tc.clock.NextDue()
		assert.True(t, armed)
		assert.Equal(t, mytime.ExampleTime.Add(55*time.Minute), due)
		assert.Len(t, tc.events.refreshed, 1)
	})

	t.Run("Undecodable credential forces logout", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, "garbage")

		// when
		err := tc.manager.Initialize(c)

		// then
		assert.NoError(t, err)
		assert.Empty(t, storedToken(t, tc))
		assert.Equal(t, 0, tc.clock.Pending())
		require.Len(t, tc.events.loggedOut, 1)
		assert.True(t, tc.events.loggedOut[0].Forced)
	})
}

func TestScheduledRefresh(t *testing.T) {
	c := context.TODO()

	t.Run("Timer refreshes and re-arms", func(t *testing.T) {
		// given
		tc := setup(t)
		first := tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))
		second := tokenExpiringAt(t, "marc", tc.clock.Now().Add(55*time.Minute+time.Hour))
		storeToken(t, tc, first)
		require.NoError(t, tc.manager.Initialize(c))
		tc.identity.EXPECT().Refresh(gomock.Any(), identityclient.RefreshRequest{Token: first}).
			Return(identityclient.TokenResponse{Token: second, Authenticated: true}, nil)

		// when
		tc.clock.Advance(55 * time.Minute)

		// then
		assert.Equal(t, second, storedToken(t, tc))
		due, armed := tc.clock.NextDue()
		assert.True(t, armed)
		assert.Equal(t, mytime.ExampleTime.Add(110*time.Minute), due)
	})

	t.Run("Failing timer refresh forces logout", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		require.NoError(t, tc.manager.Initialize(c))
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).Return(identityclient.TokenResponse{}, errors.New("connection refused"))

		// when
		tc.clock.Advance(55 * time.Minute)

		// then
		assert.Empty(t, storedToken(t, tc))
		assert.Equal(t, 0, tc.clock.Pending())
		require.Len(t, tc.events.loggedOut, 1)
		assert.True(t, tc.events.loggedOut[0].Forced)
		assert.Equal(t, "marc", tc.events.loggedOut[0].Subject)
	})

	t.Run("Stop disarms", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		require.NoError(t, tc.manager.Initialize(c))

		// when
		tc.manager.Stop()
		tc.clock.Advance(2 * time.Hour)

		// then
		assert.Equal(t, 0, tc.clock.Pending())
	})
}

func TestRefresh(t *testing.T) {
	c := context.TODO()

	t.Run("Concurrent callers share one refresh", func(t *testing.T) {
		// given
		tc := setup(t)
		old := tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))
		renewed := tokenExpiringAt(t, "marc", tc.clock.Now().Add(2*time.Hour))
		storeToken(t, tc, old)

		const callers = 8
		started := make(chan struct{})
		release := make(chan struct{})
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, req identityclient.RefreshRequest) (identityclient.TokenResponse, error) {
				close(started)
				<-release
				return identityclient.TokenResponse{Token: renewed, Authenticated: true}, nil
			}).Times(1)

		// when
		errs := make(chan error, callers)
		go func() { errs <- tc.manager.Refresh(c) }()
		<-started
		for i := 1; i < callers; i++ {
			go func() { errs <- tc.manager.RefreshAfterUnauthorized(c, old) }()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)

		// then
		for i := 0; i < callers; i++ {
			assert.NoError(t, <-errs)
		}
		assert.Equal(t, renewed, storedToken(t, tc))
	})

	t.Run("Failure is shared by all waiters and forces logout", func(t *testing.T) {
		// given
		tc := setup(t)
		old := tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))
		storeToken(t, tc, old)

		const callers = 4
		started := make(chan struct{})
		release := make(chan struct{})
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, req identityclient.RefreshRequest) (identityclient.TokenResponse, error) {
				close(started)
				<-release
				return identityclient.TokenResponse{}, myerrors.NewUnauthorizedError(errors.New("refresh token revoked"))
			}).Times(1)

		// when
		errs := make(chan error, callers)
		go func() { errs <- tc.manager.Refresh(c) }()
		<-started
		for i := 1; i < callers; i++ {
			go func() { errs <- tc.manager.Refresh(c) }()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)

		// then
		for i := 0; i < callers; i++ {
			assert.True(t, myerrors.IsUnauthorized(<-errs))
		}
		assert.Empty(t, storedToken(t, tc))
		assert.NotEmpty(t, tc.events.loggedOut)
		for _, e := range tc.events.loggedOut {
			assert.True(t, e.Forced)
		}
	})

	t.Run("Stale rejection skips the network", func(t *testing.T) {
		// given
		tc := setup(t)
		current := tokenExpiringAt(t, "marc", tc.clock.Now().Add(2*time.Hour))
		storeToken(t, tc, current)

		// when
		err := tc.manager.RefreshAfterUnauthorized(c, "token-from-before-the-refresh")

		// then
		assert.NoError(t, err)
		assert.Equal(t, current, storedToken(t, tc))
	})

	t.Run("Missing credential forces logout", func(t *testing.T) {
		// given
		tc := setup(t)

		// when
		err := tc.manager.Refresh(c)

		// then
		assert.True(t, myerrors.IsUnauthorized(err))
		require.Len(t, tc.events.loggedOut, 1)
		assert.True(t, tc.events.loggedOut[0].Forced)
	})

	t.Run("Malformed refreshed token forces logout", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).Return(identityclient.TokenResponse{Token: "not-a-jwt"}, nil)

		// when
		err := tc.manager.Refresh(c)

		// then
		assert.True(t, myerrors.IsUnauthorized(err))
		assert.Empty(t, storedToken(t, tc))
	})

	t.Run("Panic releases the flight", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, req identityclient.RefreshRequest) (identityclient.TokenResponse, error) {
				panic("boom")
			})

		// when
		err := tc.manager.Refresh(c)

		// then
		assert.Error(t, err)
		assert.Empty(t, storedToken(t, tc))

		// a new flight can start afterwards
		err = tc.manager.Refresh(c)
		assert.True(t, myerrors.IsUnauthorized(err))
	})

	t.Run("Waiter gives up on its own context", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		release := make(chan struct{})
		done := make(chan struct{})
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, req identityclient.RefreshRequest) (identityclient.TokenResponse, error) {
				defer close(done)
				<-release
				return identityclient.TokenResponse{Token: tokenExpiringAt(t, "marc", mytime.ExampleTime.Add(2*time.Hour))}, nil
			})
		waitCtx, cancel := context.WithCancel(c)

		// when
		errs := make(chan error, 1)
		go func() { errs <- tc.manager.Refresh(waitCtx) }()
		cancel()
		err := <-errs
		close(release)
		<-done

		// then
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLifetimeQueries(t *testing.T) {
	c := context.TODO()

	t.Run("Without token", func(t *testing.T) {
		tc := setup(t)
		assert.True(t, tc.manager.IsExpiringSoon(c))
		assert.Equal(t, time.Duration(0), tc.manager.TimeRemaining(c))
		assert.False(t, tc.manager.HasValidSession(c))
		assert.False(t, tc.manager.Status(c).Authenticated)
	})

	t.Run("Undecodable token", func(t *testing.T) {
		tc := setup(t)
		storeToken(t, tc, "garbage")
		assert.True(t, tc.manager.IsExpiringSoon(c))
		assert.Equal(t, time.Duration(0), tc.manager.TimeRemaining(c))
		assert.False(t, tc.manager.HasValidSession(c))
		assert.Len(t, tc.events.loggedOut, 1)
	})

	t.Run("Healthy token", func(t *testing.T) {
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		assert.False(t, tc.manager.IsExpiringSoon(c))
		assert.Equal(t, time.Hour, tc.manager.TimeRemaining(c))
		assert.True(t, tc.manager.HasValidSession(c))
		status := tc.manager.Status(c)
		assert.True(t, status.Authenticated)
		assert.Equal(t, "marc", status.Subject)
	})

	t.Run("Exactly at buffer counts as expiring", func(t *testing.T) {
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(5*time.Minute)))
		assert.True(t, tc.manager.IsExpiringSoon(c))
	})

	t.Run("Expiring token is renewed before reporting valid", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Minute)))
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).
			Return(identityclient.TokenResponse{Token: tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))}, nil)

		// when
		valid := tc.manager.HasValidSession(c)

		// then
		assert.True(t, valid)
		assert.False(t, tc.manager.IsExpiringSoon(c))
	})

	t.Run("Failed renewal means no session", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Minute)))
		tc.identity.EXPECT().Refresh(gomock.Any(), gomock.Any()).Return(identityclient.TokenResponse{}, errors.New("down"))

		// when
		valid := tc.manager.HasValidSession(c)

		// then
		assert.False(t, valid)
		assert.False(t, tc.manager.HasValidSession(c))
	})
}

func TestLoginLogout(t *testing.T) {
	c := context.TODO()

	t.Run("Login stores credential and arms timer", func(t *testing.T) {
		// given
		tc := setup(t)
		token := tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))
		tc.identity.EXPECT().Login(gomock.Any(), identityclient.LoginRequest{Username: "marc", Password: "secret"}).
			Return(identityclient.TokenResponse{Token: token, Authenticated: true}, nil)

		// when
		status, err := tc.manager.Login(c, "marc", "secret")

		// then
		require.NoError(t, err)
		assert.True(t, status.Authenticated)
		assert.Equal(t, time.Hour, status.Remaining)
		assert.Equal(t, token, storedToken(t, tc))
		assert.Equal(t, 1, tc.clock.Pending())
		assert.Len(t, tc.events.loggedIn, 1)
	})

	t.Run("Login failure leaves no credential", func(t *testing.T) {
		// given
		tc := setup(t)
		tc.identity.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(identityclient.TokenResponse{}, myerrors.NewAuthenticationError(errors.New("bad password")))

		// when
		_, err := tc.manager.Login(c, "marc", "wrong")

		// then
		assert.Error(t, err)
		assert.Empty(t, storedToken(t, tc))
		assert.Empty(t, tc.events.loggedIn)
	})

	t.Run("Logout", func(t *testing.T) {
		// given
		tc := setup(t)
		storeToken(t, tc, tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour)))
		require.NoError(t, tc.manager.Initialize(c))

		// when
		err := tc.manager.Logout(c)

		// then
		require.NoError(t, err)
		assert.Empty(t, storedToken(t, tc))
		assert.Equal(t, 0, tc.clock.Pending())
		require.Len(t, tc.events.loggedOut, 1)
		assert.False(t, tc.events.loggedOut[0].Forced)
		assert.Equal(t, "marc", tc.events.loggedOut[0].Subject)
	})
}

func loginAs(t *testing.T, tc testContext, subject string, expiresAt time.Time) string {
	token := tokenExpiringAt(t, subject, expiresAt)
	tc.identity.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(identityclient.TokenResponse{Token: token, Authenticated: true}, nil)
	_, err := tc.manager.Login(context.TODO(), subject, "secret")
	require.NoError(t, err)
	return token
}

func TestCredentialExpiry(t *testing.T) {
	c := context.TODO()

	t.Run("Expired token is refreshed on start within the grace period", func(t *testing.T) {
		// given
		tc := setup(t)
		old := loginAs(t, tc, "marc", tc.clock.Now().Add(time.Hour))
		tc.manager.Stop()
		tc.clock.Advance(61 * time.Minute)
		renewed := tokenExpiringAt(t, "marc", tc.clock.Now().Add(time.Hour))
		tc.identity.EXPECT().Refresh(gomock.Any(), identityclient.RefreshRequest{Token: old}).
			Return(identityclient.TokenResponse{Token: renewed, Authenticated: true}, nil).Times(1)

		// when
		err := tc.manager.Initialize(c)

		// then
		require.NoError(t, err)
		assert.Equal(t, renewed, storedToken(t, tc))
		assert.True(t, tc.manager.HasValidSession(c))
		assert.Len(t, tc.events.refreshed, 1)
		assert.Empty(t, tc.events.loggedOut)
	})

	t.Run("Credential past its removal deadline forces logout on start", func(t *testing.T) {
		// given
		tc := setup(t)
		loginAs(t, tc, "marc", tc.clock.Now().Add(time.Hour))
		tc.manager.Stop()
		tc.clock.Advance(66 * time.Minute)

		// when
		err := tc.manager.Initialize(c)

		// then
		require.NoError(t, err)
		assert.Empty(t, storedToken(t, tc))
		assert.Equal(t, 0, tc.clock.Pending())
		require.Len(t, tc.events.loggedOut, 1)
		assert.True(t, tc.events.loggedOut[0].Forced)
		assert.Equal(t, "marc", tc.events.loggedOut[0].Subject)
		assert.Empty(t, tc.events.refreshed)
	})

	t.Run("Session check observes removal", func(t *testing.T) {
		// given
		tc := setup(t)
		loginAs(t, tc, "marc", tc.clock.Now().Add(time.Hour))
		tc.manager.Stop()
		tc.clock.Advance(66 * time.Minute)

		// when
		valid := tc.manager.HasValidSession(c)

		// then
		assert.False(t, valid)
		require.Len(t, tc.events.loggedOut, 1)
		assert.True(t, tc.events.loggedOut[0].Forced)

		_, exists, err := tc.manager.CurrentToken(c)
		assert.NoError(t, err)
		assert.False(t, exists)
		assert.Len(t, tc.events.loggedOut, 1)
	})

	t.Run("Refresh of a removed credential is final", func(t *testing.T) {
		// given
		tc := setup(t)
		loginAs(t, tc, "marc", tc.clock.Now().Add(time.Hour))
		tc.manager.Stop()
		tc.clock.Advance(66 * time.Minute)

		// when
		err := tc.manager.Refresh(c)

		// then
		assert.True(t, myerrors.IsUnauthorized(err))
		require.Len(t, tc.events.loggedOut, 1)
		assert.Equal(t, "marc", tc.events.loggedOut[0].Subject)
	})
}
