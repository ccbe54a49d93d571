// Package contracttests pins down the gateway behaviour the storefront clients rely on.
// The same contract runs against the development backend and, when configured, a live gateway.
package contracttests

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopfront/lib/myhttpclient"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/fakebackend"
	"github.com/MarcGrol/shopfront/services/session"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
)

// Backend is a gateway plus an account and two skus that exist in its catalog.
type Backend struct {
	URL      string
	Username string
	Password string
	Skus     [2]string
	close    func()
}

func NewFakeBackend(c context.Context) (*Backend, error) {
	carts, _, err := mystore.NewInMemoryStore[fakebackend.StoredCart](c)
	if err != nil {
		return nil, err
	}
	orders, _, err := mystore.NewInMemoryStore[fakebackend.StoredOrder](c)
	if err != nil {
		return nil, err
	}

	service := fakebackend.NewService(fakebackend.Config{SigningKey: "contract", TokenTTL: time.Hour}, carts, orders, mytime.RealNower{}, myuuid.RealUUIDer{})
	user := fakebackend.DemoUser()
	service.AddUser(user)
	service.AddProducts(fakebackend.DemoCatalog...)

	router := mux.NewRouter()
	err = service.RegisterEndpoints(c, router)
	if err != nil {
		return nil, err
	}
	server := httptest.NewServer(router)

	return &Backend{
		URL:      server.URL,
		Username: user.Username,
		Password: user.Password,
		Skus:     [2]string{fakebackend.DemoCatalog[0].SkuID, fakebackend.DemoCatalog[1].SkuID},
		close:    server.Close,
	}, nil
}

// NewLiveBackend reads the gateway to verify from the environment.
func NewLiveBackend() (*Backend, bool) {
	url := os.Getenv("SHOPFRONT_CONTRACT_GATEWAY_URL")
	if url == "" {
		return nil, false
	}
	return &Backend{
		URL:      url,
		Username: os.Getenv("SHOPFRONT_CONTRACT_USERNAME"),
		Password: os.Getenv("SHOPFRONT_CONTRACT_PASSWORD"),
		Skus:     [2]string{os.Getenv("SHOPFRONT_CONTRACT_SKU_1"), os.Getenv("SHOPFRONT_CONTRACT_SKU_2")},
		close:    func() {},
	}, true
}

func (b *Backend) Close() {
	b.close()
}

func (b *Backend) sender() myhttpclient.HTTPSender {
	return myhttpclient.NewJSONClient(10*time.Second, myuuid.RealUUIDer{})
}

func (b *Backend) Identity() identityclient.IdentityClient {
	return identityclient.New(b.URL, b.sender())
}

// CartClient logs in and returns a cart client bound to that token.
func (b *Backend) CartClient(c context.Context) (cartclient.CartClient, error) {
	resp, err := b.Identity().Login(c, identityclient.LoginRequest{
		Username: b.Username,
		Password: b.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("error logging in to %s: %w", b.URL, err)
	}
	return cartclient.New(b.URL, session.NewAuthenticatedSender(b.sender(), fixedToken(resp.Token))), nil
}

// fixedToken never renews: a 401 in a contract run is a finding, not something to hide.
type fixedToken string

func (t fixedToken) CurrentToken(c context.Context) (string, bool, error) {
	return string(t), true, nil
}

func (t fixedToken) RefreshAfterUnauthorized(c context.Context, usedToken string) error {
	return errors.New("contract runs do not refresh tokens")
}
