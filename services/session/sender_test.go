package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttpclient"
)

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAuthenticatedSender(t *testing.T) {
	c := context.TODO()
	req := myhttpclient.Request{Method: http.MethodGet, URL: "http://gw/Cart"}

	setup := func(t *testing.T) (*myhttpclient.MockHTTPSender, *MockTokenSource, myhttpclient.HTTPSender) {
		ctrl := gomock.NewController(t)
		next := myhttpclient.NewMockHTTPSender(ctrl)
		tokens := NewMockTokenSource(ctrl)
		return next, tokens, NewAuthenticatedSender(next, tokens)
	}

	t.Run("Guest request", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("", false, nil)
		next.EXPECT().Send(gomock.Any(), myhttpclient.Request{
			Method: http.MethodGet,
			URL:    "http://gw/Cart",
			Header: http.Header{"X-Guest-Request": []string{"true"}},
		}).Return(http.StatusOK, []byte(`{}`), nil)

		// when
		status, _, err := sender.Send(c, req)

		// then
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("Bearer attached", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("abc", true, nil)
		next.EXPECT().Send(gomock.Any(), myhttpclient.Request{Method: http.MethodGet, URL: "http://gw/Cart", Header: bearer("abc")}).
			Return(http.StatusOK, []byte(`{}`), nil)

		// when
		status, _, err := sender.Send(c, req)

		// then
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("401 refreshes and replays once", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		gomock.InOrder(
			tokens.EXPECT().CurrentToken(gomock.Any()).Return("old", true, nil),
			next.EXPECT().Send(gomock.Any(), myhttpclient.Request{Method: http.MethodGet, URL: "http://gw/Cart", Header: bearer("old")}).
				Return(http.StatusUnauthorized, nil, nil),
			tokens.EXPECT().RefreshAfterUnauthorized(gomock.Any(), "old").Return(nil),
			tokens.EXPECT().CurrentToken(gomock.Any()).Return("new", true, nil),
			next.EXPECT().Send(gomock.Any(), myhttpclient.Request{Method: http.MethodGet, URL: "http://gw/Cart", Header: bearer("new")}).
				Return(http.StatusOK, []byte(`{"result":[]}`), nil),
		)

		// when
		status, body, err := sender.Send(c, req)

		// then
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, `{"result":[]}`, string(body))
	})

	t.Run("Second 401 is final", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("old", true, nil)
		tokens.EXPECT().RefreshAfterUnauthorized(gomock.Any(), "old").Return(nil)
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("new", true, nil)
		next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(http.StatusUnauthorized, nil, nil).Times(2)

		// when
		_, _, err := sender.Send(c, req)

		// then
		assert.True(t, myerrors.IsUnauthorized(err))
	})

	t.Run("Failed refresh is final", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("old", true, nil)
		next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(http.StatusUnauthorized, nil, nil).Times(1)
		tokens.EXPECT().RefreshAfterUnauthorized(gomock.Any(), "old").Return(errors.New("refresh token revoked"))

		// when
		_, _, err := sender.Send(c, req)

		// then
		assert.True(t, myerrors.IsUnauthorized(err))
	})

	t.Run("Guest 401 is not refreshed", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("", false, nil)
		next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(http.StatusUnauthorized, nil, nil).Times(1)

		// when
		status, _, err := sender.Send(c, req)

		// then
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Caller headers are kept and not mutated", func(t *testing.T) {
		// given
		next, tokens, sender := setup(t)
		original := http.Header{"X-Trace": []string{"t1"}}
		tokens.EXPECT().CurrentToken(gomock.Any()).Return("abc", true, nil)
		next.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, r myhttpclient.Request) (int, []byte, error) {
			assert.Equal(t, "t1", r.Header.Get("X-Trace"))
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			return http.StatusOK, nil, nil
		})

		// when
		_, _, err := sender.Send(c, myhttpclient.Request{Method: http.MethodGet, URL: "http://gw/Cart", Header: original})

		// then
		assert.NoError(t, err)
		assert.Empty(t, original.Get("Authorization"))
	})
}
