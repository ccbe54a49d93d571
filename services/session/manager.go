package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myvault"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
	"github.com/MarcGrol/shopfront/services/session/sessionevents"
)

const (
	DefaultRefreshBuffer = 5 * time.Minute
	// RemovalGrace keeps an expired credential around long enough to be refreshed on start.
	RemovalGrace = 5 * time.Minute
	refreshKey   = "refresh"
)

// Status describes the current session for display purposes.
type Status struct {
	Authenticated bool
	Subject       string
	ExpiresAt     time.Time
	Remaining     time.Duration
}

// Manager owns the bearer credential: it is the only writer of the vault entry,
// refreshes the token before it expires and coalesces concurrent refreshes into one call.
type Manager struct {
	sync.Mutex
	vault     myvault.VaultReadWriter
	identity  identityclient.IdentityClient
	decoder   TokenDecoder
	nower     mytime.Nower
	scheduler mytime.Scheduler
	publisher mypubsub.Publisher
	logger    mylog.Logger
	buffer    time.Duration
	group     singleflight.Group
	timer     mytime.Timer
}

func NewManager(vault myvault.VaultReadWriter, identity identityclient.IdentityClient, decoder TokenDecoder,
	nower mytime.Nower, scheduler mytime.Scheduler, publisher mypubsub.Publisher, buffer time.Duration) *Manager {
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}
	return &Manager{
		vault:     vault,
		identity:  identity,
		decoder:   decoder,
		nower:     nower,
		scheduler: scheduler,
		publisher: publisher,
		logger:    mylog.New("session"),
		buffer:    buffer,
	}
}

// Initialize arms the refresh timer for a stored credential, or refreshes right away
// when the credential is already inside the refresh buffer. Safe to call repeatedly.
func (m *Manager) Initialize(c context.Context) error {
	m.stopTimer()

	cred, exists, err := m.credential(c)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Log(c, "", mylog.SeverityDebug, "No credential, anonymous session")
		return nil
	}

	claims, err := m.decoder.Decode(cred.Token)
	if err != nil {
		m.forceLogout(c, "", fmt.Sprintf("stored credential cannot be decoded: %s", err))
		return nil
	}

	wait := m.untilRefresh(claims)
	if wait <= 0 {
		m.logger.Log(c, claims.Subject, mylog.SeverityInfo, "Token expires at %s, refreshing immediately", claims.ExpiresAt.Format(time.RFC3339))
		return m.Refresh(c)
	}

	m.arm(c, claims, wait)
	return nil
}

// Resume is called when the client becomes active again after being idle.
func (m *Manager) Resume(c context.Context) error {
	if !m.IsExpiringSoon(c) {
		return nil
	}
	_, exists, err := m.CurrentToken(c)
	if err != nil || !exists {
		return err
	}
	return m.Refresh(c)
}

// Stop disarms the refresh timer. The credential is left untouched.
func (m *Manager) Stop() {
	m.stopTimer()
}

func (m *Manager) Login(c context.Context, username string, password string) (Status, error) {
	resp, err := m.identity.Login(c, identityclient.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return Status{}, err
	}

	claims, err := m.decoder.Decode(resp.Token)
	if err != nil {
		return Status{}, myerrors.NewAuthenticationError(fmt.Errorf("error decoding token of %s: %w", username, err))
	}

	err = m.store(c, resp.Token, claims)
	if err != nil {
		return Status{}, err
	}
	m.scheduleRefresh(c, claims)

	m.publish(c, sessionevents.LoggedIn{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt,
	})

	m.logger.Log(c, claims.Subject, mylog.SeverityInfo, "Logged in, token valid until %s", claims.ExpiresAt.Format(time.RFC3339))

	return m.statusOf(claims), nil
}

func (m *Manager) Logout(c context.Context) error {
	m.stopTimer()

	cred, _, _ := m.vault.Get(c, myvault.CurrentToken)
	subject := m.subjectOf(cred.Token)

	err := m.vault.Delete(c, myvault.CurrentToken)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	m.publish(c, sessionevents.LoggedOut{
		Subject: subject,
		Forced:  false,
	})

	m.logger.Log(c, subject, mylog.SeverityInfo, "Logged out")

	return nil
}

// Refresh renews the current credential. When a refresh is already running the caller
// waits for that one; its own context only bounds the wait.
func (m *Manager) Refresh(c context.Context) error {
	return m.refresh(c, "")
}

// RefreshAfterUnauthorized renews the credential that usedToken was rejected with.
// When the stored credential already differs from usedToken no network call is made.
func (m *Manager) RefreshAfterUnauthorized(c context.Context, usedToken string) error {
	current, exists, err := m.CurrentToken(c)
	if err != nil {
		return err
	}
	if exists && current != usedToken {
		return nil
	}
	return m.refresh(c, usedToken)
}

func (m *Manager) refresh(c context.Context, usedToken string) error {
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		return nil, m.doRefresh(context.WithoutCancel(c), usedToken)
	})

	select {
	case result := <-ch:
		return result.Err
	case <-c.Done():
		return c.Err()
	}
}

func (m *Manager) doRefresh(c context.Context, usedToken string) (err error) {
	subject := ""
	defer func() {
		if r := recover(); r != nil {
			err = myerrors.NewInternalError(fmt.Errorf("refresh panicked: %v", r))
			m.forceLogout(c, subject, err.Error())
		}
	}()

	cred, exists, err := m.vault.Get(c, myvault.CurrentToken)
	if errors.Is(err, myvault.ErrExpired) {
		subject = m.subjectOf(cred.Token)
		m.forceLogout(c, subject, "credential expired before it was refreshed")
		return myerrors.NewUnauthorizedError(err)
	}
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	if !exists {
		m.forceLogout(c, subject, "no credential to refresh")
		return myerrors.NewUnauthorizedError(errors.New("no credential to refresh"))
	}
	if usedToken != "" && cred.Token != usedToken {
		// a refresh that started earlier already replaced the rejected token
		return nil
	}
	subject = m.subjectOf(cred.Token)

	m.logger.Log(c, subject, mylog.SeverityInfo, "Refreshing token")

	resp, err := m.identity.Refresh(c, identityclient.RefreshRequest{
		Token: cred.Token,
	})
	if err != nil {
		m.forceLogout(c, subject, fmt.Sprintf("refresh failed: %s", err))
		return myerrors.NewUnauthorizedError(fmt.Errorf("error refreshing session: %w", err))
	}

	claims, err := m.decoder.Decode(resp.Token)
	if err != nil {
		m.forceLogout(c, subject, fmt.Sprintf("refreshed token cannot be decoded: %s", err))
		return myerrors.NewUnauthorizedError(fmt.Errorf("error decoding refreshed token: %w", err))
	}

	err = m.store(c, resp.Token, claims)
	if err != nil {
		m.forceLogout(c, subject, fmt.Sprintf("refreshed token cannot be stored: %s", err))
		return err
	}
	m.scheduleRefresh(c, claims)

	m.publish(c, sessionevents.TokenRefreshed{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt,
	})

	m.logger.Log(c, claims.Subject, mylog.SeverityInfo, "Token refreshed, valid until %s", claims.ExpiresAt.Format(time.RFC3339))

	return nil
}

func (m *Manager) store(c context.Context, token string, claims TokenClaims) error {
	expiresAt := claims.ExpiresAt.Add(RemovalGrace)
	err := m.vault.Put(c, myvault.CurrentToken, myvault.Credential{
		Token:     token,
		IssuedAt:  m.nower.Now(),
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	return nil
}

// scheduleRefresh re-arms the timer after the credential was replaced. A fresh token that
// is already inside the buffer gets no timer: the next 401 will renew it.
func (m *Manager) scheduleRefresh(c context.Context, claims TokenClaims) {
	m.stopTimer()

	wait := m.untilRefresh(claims)
	if wait <= 0 {
		m.logger.Log(c, claims.Subject, mylog.SeverityWarn, "New token expires within %s, no refresh scheduled", m.buffer)
		return
	}
	m.arm(c, claims, wait)
}

func (m *Manager) arm(c context.Context, claims TokenClaims, wait time.Duration) {
	m.Lock()
	defer m.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.scheduler.AfterFunc(wait, m.onTimer)

	m.logger.Log(c, claims.Subject, mylog.SeverityDebug, "Token refresh scheduled in %s", wait)
}

func (m *Manager) onTimer() {
	c := context.Background()
	m.logger.Log(c, "", mylog.SeverityInfo, "Scheduled token refresh triggered")
	err := m.Refresh(c)
	if err != nil {
		m.logger.Log(c, "", mylog.SeverityWarn, "Scheduled token refresh failed: %s", err)
	}
}

func (m *Manager) stopTimer() {
	m.Lock()
	defer m.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) forceLogout(c context.Context, subject string, reason string) {
	m.stopTimer()

	err := m.vault.Delete(c, myvault.CurrentToken)
	if err != nil {
		m.logger.Log(c, subject, mylog.SeverityError, "Error removing credential: %s", err)
	}

	m.publish(c, sessionevents.LoggedOut{
		Subject: subject,
		Forced:  true,
		Reason:  reason,
	})

	m.logger.Log(c, subject, mylog.SeverityWarn, "Forced logout: %s", reason)
}

func (m *Manager) publish(c context.Context, event myevents.Event) {
	err := m.publisher.Publish(c, sessionevents.TopicName, event)
	if err != nil {
		m.logger.Log(c, event.GetAggregateName(), mylog.SeverityError, "Error publishing %s: %s", event.GetEventTypeName(), err)
	}
}

func (m *Manager) untilRefresh(claims TokenClaims) time.Duration {
	return claims.ExpiresAt.Add(-m.buffer).Sub(m.nower.Now())
}

// CurrentToken returns the stored bearer token, if any.
func (m *Manager) CurrentToken(c context.Context) (string, bool, error) {
	cred, exists, err := m.credential(c)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}
	return cred.Token, true, nil
}

// IsExpiringSoon reports whether the token lives no longer than the refresh buffer.
// A missing or undecodable token counts as expiring.
func (m *Manager) IsExpiringSoon(c context.Context) bool {
	claims, ok := m.currentClaims(c)
	if !ok {
		return true
	}
	return claims.ExpiresAt.Sub(m.nower.Now()) <= m.buffer
}

// TimeRemaining returns the lifetime left on the token, zero when there is none.
func (m *Manager) TimeRemaining(c context.Context) time.Duration {
	claims, ok := m.currentClaims(c)
	if !ok {
		return 0
	}
	return max(0, claims.ExpiresAt.Sub(m.nower.Now()))
}

// HasValidSession decides between anonymous and authenticated mode. A credential inside
// the refresh buffer is renewed first; when that fails the forced logout has already run.
func (m *Manager) HasValidSession(c context.Context) bool {
	cred, exists, err := m.credential(c)
	if err != nil || !exists {
		return false
	}

	claims, err := m.decoder.Decode(cred.Token)
	if err != nil {
		m.forceLogout(c, "", fmt.Sprintf("stored credential cannot be decoded: %s", err))
		return false
	}

	if claims.ExpiresAt.Sub(m.nower.Now()) <= m.buffer {
		err = m.Refresh(c)
		if err != nil {
			return false
		}
	}
	return true
}

func (m *Manager) Status(c context.Context) Status {
	claims, ok := m.currentClaims(c)
	if !ok {
		return Status{}
	}
	return m.statusOf(claims)
}

func (m *Manager) statusOf(claims TokenClaims) Status {
	return Status{
		Authenticated: true,
		Subject:       claims.Subject,
		ExpiresAt:     claims.ExpiresAt,
		Remaining:     max(0, claims.ExpiresAt.Sub(m.nower.Now())),
	}
}

func (m *Manager) currentClaims(c context.Context) (TokenClaims, bool) {
	cred, exists, err := m.credential(c)
	if err != nil || !exists {
		return TokenClaims{}, false
	}
	claims, err := m.decoder.Decode(cred.Token)
	if err != nil {
		return TokenClaims{}, false
	}
	return claims, true
}

// credential reads the stored credential. One that outlived its removal deadline is gone
// from the vault; the session it carried ends through a forced logout.
func (m *Manager) credential(c context.Context) (myvault.Credential, bool, error) {
	cred, exists, err := m.vault.Get(c, myvault.CurrentToken)
	if errors.Is(err, myvault.ErrExpired) {
		m.forceLogout(c, m.subjectOf(cred.Token), "credential expired")
		return myvault.Credential{}, false, nil
	}
	if err != nil {
		return myvault.Credential{}, false, myerrors.NewInternalError(err)
	}
	return cred, exists, nil
}

func (m *Manager) subjectOf(token string) string {
	if token == "" {
		return ""
	}
	claims, err := m.decoder.Decode(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}
