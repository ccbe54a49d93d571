package fakebackend

import (
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
	"github.com/MarcGrol/shopfront/services/profile"
)

type User struct {
	Username  string
	Password  string
	UserID    string
	Email     string
	Profile   profile.Profile
	Addresses []profile.Address
}

type Product struct {
	SkuID  string
	ShopID string
	Name   string
	Price  int64
	Image  string
}

// StoredCart is the server side cart of one user.
type StoredCart struct {
	Owner string
	Cart  cartclient.Cart
}

type StoredOrder struct {
	Owner    string
	Sequence int
	Summary  orderclient.OrderSummary
}

// DemoCatalog is what the development server sells.
var DemoCatalog = []Product{
	{SkuID: "A", ShopID: "fruit-shop", Name: "Apple", Price: 150},
	{SkuID: "B", ShopID: "fruit-shop", Name: "Banana", Price: 200},
	{SkuID: "C", ShopID: "berry-shop", Name: "Cherry", Price: 50},
}

// DemoVouchers are handed out by the development server.
var DemoVouchers = []orderclient.Voucher{
	{ID: "voucher-welcome", Code: "WELCOME10", Name: "10% off your order", DiscountType: orderclient.DiscountPercentage, DiscountValue: 10,
		AppliesTo: orderclient.AppliesToOrderTotal, Audience: orderclient.AudiencePublic, OwnerType: orderclient.OwnerPlatform, IsActive: true},
	{ID: "voucher-freeship", Code: "FREESHIP", Name: "Free shipping above 3.00", DiscountType: orderclient.DiscountFixedAmount, DiscountValue: 500,
		AppliesTo: orderclient.AppliesToShippingFee, Audience: orderclient.AudiencePublic, OwnerType: orderclient.OwnerPlatform, MinPurchaseAmount: 300, IsActive: true},
	{ID: "voucher-fruit", Code: "FRUIT50", Name: "0.50 off at the fruit shop", DiscountType: orderclient.DiscountFixedAmount, DiscountValue: 50,
		AppliesTo: orderclient.AppliesToOrderTotal, Audience: orderclient.AudiencePublic, OwnerType: orderclient.OwnerShop, OwnerID: "fruit-shop", TotalQuantity: 100, IsActive: true},
}

func DemoUser() User {
	return User{
		Username: "demo",
		Password: "demo",
		UserID:   "user-demo",
		Email:    "demo@example.com",
		Profile: profile.Profile{
			ID:          "profile-demo",
			UserID:      "user-demo",
			Name:        "Demo Shopper",
			FirstName:   "Demo",
			LastName:    "Shopper",
			PhoneNumber: "0612345678",
		},
		Addresses: []profile.Address{
			{ID: "address-1", Name: "Demo Shopper", PhoneNumber: "0612345678", Address: "Main street 1", City: "Utrecht", PostalCode: "3511AA", IsDefault: true},
		},
	}
}
