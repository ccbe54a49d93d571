package contracttests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
)

func TestFakeBackend(t *testing.T) {
	backend, err := NewFakeBackend(context.Background())
	require.NoError(t, err)
	defer backend.Close()

	GatewayContract{backend: backend}.Test(t)
}

func TestLiveBackend(t *testing.T) {
	backend, found := NewLiveBackend()
	if !found {
		t.Skip("SHOPFRONT_CONTRACT_GATEWAY_URL not set")
	}
	defer backend.Close()

	GatewayContract{backend: backend}.Test(t)
}

type GatewayContract struct {
	backend *Backend
}

// emptyCart logs in and starts from an empty cart, the account is shared between subtests.
func (gc GatewayContract) emptyCart(t *testing.T) cartclient.CartClient {
	sut, err := gc.backend.CartClient(context.Background())
	require.NoError(t, err)
	require.NoError(t, sut.Clear(context.Background()))
	return sut
}

func (gc GatewayContract) Test(t *testing.T) {
	var (
		first  = gc.backend.Skus[0]
		second = gc.backend.Skus[1]
	)

	t.Run("wrong password is refused", func(t *testing.T) {
		_, err := gc.backend.Identity().Login(context.Background(), identityclient.LoginRequest{
			Username: gc.backend.Username,
			Password: gc.backend.Password + "-wrong",
		})
		assert.Error(t, err)
	})

	t.Run("refresh hands out a new token", func(t *testing.T) {
		ctx := context.Background()
		identity := gc.backend.Identity()

		login, err := identity.Login(ctx, identityclient.LoginRequest{Username: gc.backend.Username, Password: gc.backend.Password})
		require.NoError(t, err)

		refreshed, err := identity.Refresh(ctx, identityclient.RefreshRequest{Token: login.Token})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.Token)
		assert.NotEqual(t, login.Token, refreshed.Token)
	})

	t.Run("quantities of the same sku stack", func(t *testing.T) {
		ctx := context.Background()
		sut := gc.emptyCart(t)

		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: first, Quantity: 1}))
		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: first, Quantity: 2}))

		cart, err := sut.GetCart(ctx)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 3, cart.Items[0].Quantity)
	})

	t.Run("update replaces the quantity", func(t *testing.T) {
		ctx := context.Background()
		sut := gc.emptyCart(t)
		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: first, Quantity: 2}))

		require.NoError(t, sut.UpdateItem(ctx, first, cartclient.UpdateItemRequest{Quantity: 5}))

		cart, err := sut.GetCart(ctx)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})

	t.Run("count sums the quantities", func(t *testing.T) {
		ctx := context.Background()
		sut := gc.emptyCart(t)
		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: first, Quantity: 2}))
		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: second, Quantity: 1}))

		count, err := sut.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("deleted line leaves the cart", func(t *testing.T) {
		ctx := context.Background()
		sut := gc.emptyCart(t)
		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: first, Quantity: 1}))
		require.NoError(t, sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: second, Quantity: 1}))

		require.NoError(t, sut.DeleteItem(ctx, first))

		cart, err := sut.GetCart(ctx)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, second, cart.Items[0].SkuID)
	})

	t.Run("unknown sku cannot be added", func(t *testing.T) {
		ctx := context.Background()
		sut := gc.emptyCart(t)

		err := sut.AddItem(ctx, cartclient.AddItemRequest{SkuID: "no-such-sku", Quantity: 1})

		require.Error(t, err)
		assert.False(t, myerrors.IsUnauthorized(err))
	})

	t.Run("cart calls need a token", func(t *testing.T) {
		ctx := context.Background()
		sut := cartclient.New(gc.backend.URL, gc.backend.sender())

		_, err := sut.GetCart(ctx)

		require.Error(t, err)
		assert.True(t, myerrors.IsUnauthorized(err))
	})
}
