package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttpclient"
	"github.com/MarcGrol/shopfront/lib/mylog"
)

const guestHeader = "X-Guest-Request"

//go:generate mockgen -source=sender.go -package session -destination sender_mock.go TokenSource
type TokenSource interface {
	CurrentToken(c context.Context) (string, bool, error)
	RefreshAfterUnauthorized(c context.Context, usedToken string) error
}

type authenticatedSender struct {
	next   myhttpclient.HTTPSender
	tokens TokenSource
	logger mylog.Logger
}

// NewAuthenticatedSender decorates next with the bearer credential. A 401 on a request
// that carried a token triggers one refresh and one replay; a second 401 is final.
func NewAuthenticatedSender(next myhttpclient.HTTPSender, tokens TokenSource) myhttpclient.HTTPSender {
	return &authenticatedSender{
		next:   next,
		tokens: tokens,
		logger: mylog.New("session"),
	}
}

func (s *authenticatedSender) Send(c context.Context, req myhttpclient.Request) (int, []byte, error) {
	token, hasToken, err := s.tokens.CurrentToken(c)
	if err != nil {
		return 0, nil, err
	}

	status, body, err := s.next.Send(c, withCredential(req, token, hasToken))
	if err != nil || status != http.StatusUnauthorized || !hasToken {
		return status, body, err
	}

	s.logger.Log(c, "", mylog.SeverityInfo, "%s %s rejected with 401, refreshing session", req.Method, req.URL)

	err = s.tokens.RefreshAfterUnauthorized(c, token)
	if err != nil {
		return 0, nil, myerrors.NewUnauthorizedError(fmt.Errorf("error renewing session for %s %s: %w", req.Method, req.URL, err))
	}

	token, hasToken, err = s.tokens.CurrentToken(c)
	if err != nil {
		return 0, nil, err
	}
	if !hasToken {
		return 0, nil, myerrors.NewUnauthorizedError(errors.New("session ended while renewing"))
	}

	status, body, err = s.next.Send(c, withCredential(req, token, true))
	if err == nil && status == http.StatusUnauthorized {
		return status, body, myerrors.NewUnauthorizedError(fmt.Errorf("%s %s still rejected after renewing session", req.Method, req.URL))
	}
	return status, body, err
}

func withCredential(req myhttpclient.Request, token string, hasToken bool) myhttpclient.Request {
	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if hasToken {
		header.Set("Authorization", "Bearer "+token)
		header.Del(guestHeader)
	} else {
		header.Del("Authorization")
		header.Set(guestHeader, "true")
	}
	req.Header = header
	return req
}
