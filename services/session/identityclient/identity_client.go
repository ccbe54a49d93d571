package identityclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttpclient"
)

const (
	LoginPath   = "/identity/auth/login"
	RefreshPath = "/identity/auth/refresh"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Token string `json:"token"`
}

type TokenResponse struct {
	Token         string `json:"token"`
	Authenticated bool   `json:"authenticated"`
}

//go:generate mockgen -source=identity_client.go -package identityclient -destination identity_client_mock.go IdentityClient
type IdentityClient interface {
	Login(c context.Context, req LoginRequest) (TokenResponse, error)
	Refresh(c context.Context, req RefreshRequest) (TokenResponse, error)
}

type identityClient struct {
	gatewayURL string
	httpClient myhttpclient.HTTPSender
}

// New talks to the identity service without any bearer token: both calls are anonymous.
func New(gatewayURL string, httpClient myhttpclient.HTTPSender) IdentityClient {
	return &identityClient{
		gatewayURL: gatewayURL,
		httpClient: httpClient,
	}
}

func (ic *identityClient) Login(c context.Context, req LoginRequest) (TokenResponse, error) {
	resp, err := myhttpclient.Call[TokenResponse](c, ic.httpClient, http.MethodPost, ic.gatewayURL+LoginPath, req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error logging in %s: %w", req.Username, err)
	}
	if resp.Token == "" || !resp.Authenticated {
		return TokenResponse{}, myerrors.NewAuthenticationError(fmt.Errorf("login of %s not accepted", req.Username))
	}
	return resp, nil
}

func (ic *identityClient) Refresh(c context.Context, req RefreshRequest) (TokenResponse, error) {
	resp, err := myhttpclient.Call[TokenResponse](c, ic.httpClient, http.MethodPost, ic.gatewayURL+RefreshPath, req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error refreshing token: %w", err)
	}
	if resp.Token == "" {
		return TokenResponse{}, myerrors.NewUnauthorizedError(errors.New("refresh response carries no token"))
	}
	return resp, nil
}
