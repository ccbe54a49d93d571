// Package pricing computes what an order costs: a flat shipping fee per shop and the
// discounts of at most one platform voucher, one shipping voucher and one voucher per shop.
package pricing

import (
	"cmp"
	"slices"
	"strings"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
)

type Line struct {
	ShopID string
	Amount int64
}

// Selection holds the vouchers applied to one order.
type Selection struct {
	Site     *orderclient.Voucher
	Shipping *orderclient.Voucher
	Shops    map[string]orderclient.Voucher
}

func (s Selection) Empty() bool {
	return s.Site == nil && s.Shipping == nil && len(s.Shops) == 0
}

type ShopTotal struct {
	ShopID      string
	Subtotal    int64
	ShippingFee int64
	Discount    int64
}

type Totals struct {
	Shops            []ShopTotal
	Subtotal         int64
	ShippingFee      int64
	OrderDiscount    int64
	ShippingDiscount int64
	ShopDiscount     int64
	GrandTotal       int64
}

func (t Totals) Discount() int64 {
	return t.OrderDiscount + t.ShippingDiscount + t.ShopDiscount
}

// Offer is a voucher with what it would take off the current order.
type Offer struct {
	Voucher  orderclient.Voucher
	Discount int64
	Eligible bool
}

// Eligible reports whether amount reaches the minimum purchase of v.
func Eligible(v orderclient.Voucher, amount int64) bool {
	return amount >= v.MinPurchaseAmount
}

// Discount is what v takes off amount: nothing below the minimum purchase, never more than
// amount, and for a percentage no more than the maximum discount.
func Discount(v orderclient.Voucher, amount int64) int64 {
	if !Eligible(v, amount) || amount <= 0 {
		return 0
	}

	discount := v.DiscountValue
	if v.DiscountType == orderclient.DiscountPercentage {
		discount = amount * v.DiscountValue / 100
		if v.MaxDiscountAmount != nil {
			discount = min(discount, *v.MaxDiscountAmount)
		}
	}
	return max(0, min(discount, amount))
}

// Select resolves voucher codes against the available vouchers and sorts them into slots.
func Select(available []orderclient.Voucher, codes []string) (Selection, error) {
	selection := Selection{
		Shops: map[string]orderclient.Voucher{},
	}
	for _, code := range codes {
		idx := slices.IndexFunc(available, func(v orderclient.Voucher) bool {
			return strings.EqualFold(v.Code, code)
		})
		if idx < 0 {
			return Selection{}, myerrors.NewInvalidInputErrorf("unknown voucher %q", code)
		}
		err := selection.add(available[idx])
		if err != nil {
			return Selection{}, err
		}
	}
	return selection, nil
}

// SelectByID is Select for the voucher ids an order request carries.
func SelectByID(available []orderclient.Voucher, siteID string, shippingID string, shops []orderclient.ShopVoucher) (Selection, error) {
	selection := Selection{
		Shops: map[string]orderclient.Voucher{},
	}
	lookup := func(id string) (orderclient.Voucher, error) {
		idx := slices.IndexFunc(available, func(v orderclient.Voucher) bool {
			return v.ID == id
		})
		if idx < 0 {
			return orderclient.Voucher{}, myerrors.NewInvalidInputErrorf("unknown voucher %q", id)
		}
		return available[idx], nil
	}

	if siteID != "" {
		v, err := lookup(siteID)
		if err != nil {
			return Selection{}, err
		}
		if !isSiteVoucher(v) {
			return Selection{}, myerrors.NewInvalidInputErrorf("voucher %s is not a platform order voucher", v.Code)
		}
		selection.Site = &v
	}
	if shippingID != "" {
		v, err := lookup(shippingID)
		if err != nil {
			return Selection{}, err
		}
		if !isShippingVoucher(v) {
			return Selection{}, myerrors.NewInvalidInputErrorf("voucher %s is not a shipping voucher", v.Code)
		}
		selection.Shipping = &v
	}
	for _, sv := range shops {
		v, err := lookup(sv.VoucherID)
		if err != nil {
			return Selection{}, err
		}
		if !isShopVoucher(v) || v.OwnerID != sv.ShopID {
			return Selection{}, myerrors.NewInvalidInputErrorf("voucher %s is not a voucher of shop %s", v.Code, sv.ShopID)
		}
		if _, found := selection.Shops[sv.ShopID]; found {
			return Selection{}, myerrors.NewInvalidInputErrorf("only one voucher per shop, got two for %s", sv.ShopID)
		}
		selection.Shops[sv.ShopID] = v
	}
	return selection, nil
}

func (s *Selection) add(v orderclient.Voucher) error {
	switch {
	case isShippingVoucher(v):
		if s.Shipping != nil {
			return myerrors.NewInvalidInputErrorf("only one shipping voucher, got %s and %s", s.Shipping.Code, v.Code)
		}
		s.Shipping = &v
	case isShopVoucher(v):
		if existing, found := s.Shops[v.OwnerID]; found {
			return myerrors.NewInvalidInputErrorf("only one voucher per shop, got %s and %s", existing.Code, v.Code)
		}
		s.Shops[v.OwnerID] = v
	default:
		if s.Site != nil {
			return myerrors.NewInvalidInputErrorf("only one order voucher, got %s and %s", s.Site.Code, v.Code)
		}
		s.Site = &v
	}
	return nil
}

// ShopVouchers lists the shop vouchers in shop order, the way an order request carries them.
func (s Selection) ShopVouchers() []orderclient.ShopVoucher {
	var result []orderclient.ShopVoucher
	for shopID, v := range s.Shops {
		result = append(result, orderclient.ShopVoucher{VoucherID: v.ID, ShopID: shopID})
	}
	slices.SortFunc(result, func(a, b orderclient.ShopVoucher) int {
		return cmp.Compare(a.ShopID, b.ShopID)
	})
	return result
}

// Compute totals lines per shop and applies the selected vouchers. A voucher that is
// inactive, used up or below its minimum purchase is refused.
func Compute(lines []Line, shippingFee int64, selection Selection) (Totals, error) {
	totals := Totals{
		Shops: groupByShop(lines, shippingFee),
	}
	for _, shop := range totals.Shops {
		totals.Subtotal += shop.Subtotal
		totals.ShippingFee += shop.ShippingFee
	}

	if selection.Site != nil {
		err := usable(*selection.Site, totals.Subtotal)
		if err != nil {
			return Totals{}, err
		}
		totals.OrderDiscount = Discount(*selection.Site, totals.Subtotal)
	}

	if selection.Shipping != nil {
		err := usable(*selection.Shipping, totals.Subtotal)
		if err != nil {
			return Totals{}, err
		}
		totals.ShippingDiscount = min(Discount(*selection.Shipping, totals.Subtotal), totals.ShippingFee)
	}

	for shopID, v := range selection.Shops {
		idx := slices.IndexFunc(totals.Shops, func(s ShopTotal) bool {
			return s.ShopID == shopID
		})
		if idx < 0 {
			return Totals{}, myerrors.NewInvalidInputErrorf("voucher %s is for shop %s, which is not in this order", v.Code, shopID)
		}
		err := usable(v, totals.Shops[idx].Subtotal)
		if err != nil {
			return Totals{}, err
		}
		totals.Shops[idx].Discount = Discount(v, totals.Shops[idx].Subtotal)
		totals.ShopDiscount += totals.Shops[idx].Discount
	}

	totals.GrandTotal = max(0, totals.Subtotal+totals.ShippingFee-totals.Discount())

	return totals, nil
}

// Offers ranks the available vouchers by what they take off this order, highest first.
func Offers(lines []Line, shippingFee int64, available []orderclient.Voucher) []Offer {
	shops := groupByShop(lines, shippingFee)
	subtotal := int64(0)
	shipping := int64(0)
	for _, shop := range shops {
		subtotal += shop.Subtotal
		shipping += shop.ShippingFee
	}

	offers := []Offer{}
	for _, v := range available {
		if !v.IsActive || usedUp(v) {
			continue
		}
		amount := subtotal
		if isShopVoucher(v) {
			amount = 0
			if idx := slices.IndexFunc(shops, func(s ShopTotal) bool { return s.ShopID == v.OwnerID }); idx >= 0 {
				amount = shops[idx].Subtotal
			}
		}
		discount := Discount(v, amount)
		if isShippingVoucher(v) {
			discount = min(discount, shipping)
		}
		offers = append(offers, Offer{
			Voucher:  v,
			Discount: discount,
			Eligible: amount > 0 && Eligible(v, amount),
		})
	}
	slices.SortStableFunc(offers, func(a, b Offer) int {
		return cmp.Compare(b.Discount, a.Discount)
	})
	return offers
}

func groupByShop(lines []Line, shippingFee int64) []ShopTotal {
	shops := []ShopTotal{}
	for _, line := range lines {
		idx := slices.IndexFunc(shops, func(s ShopTotal) bool {
			return s.ShopID == line.ShopID
		})
		if idx < 0 {
			shops = append(shops, ShopTotal{ShopID: line.ShopID, ShippingFee: shippingFee})
			idx = len(shops) - 1
		}
		shops[idx].Subtotal += line.Amount
	}
	return shops
}

func usable(v orderclient.Voucher, amount int64) error {
	if !v.IsActive {
		return myerrors.NewInvalidInputErrorf("voucher %s is not active", v.Code)
	}
	if usedUp(v) {
		return myerrors.NewInvalidInputErrorf("voucher %s has been used up", v.Code)
	}
	if !Eligible(v, amount) {
		return myerrors.NewInvalidInputErrorf("voucher %s needs a purchase of at least %d, got %d", v.Code, v.MinPurchaseAmount, amount)
	}
	return nil
}

func usedUp(v orderclient.Voucher) bool {
	return v.TotalQuantity > 0 && v.UsedQuantity >= v.TotalQuantity
}

func isShippingVoucher(v orderclient.Voucher) bool {
	return v.AppliesTo == orderclient.AppliesToShippingFee
}

func isShopVoucher(v orderclient.Voucher) bool {
	return v.AppliesTo != orderclient.AppliesToShippingFee && v.OwnerType == orderclient.OwnerShop
}

func isSiteVoucher(v orderclient.Voucher) bool {
	return !isShippingVoucher(v) && !isShopVoucher(v)
}
