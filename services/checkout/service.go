package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/cart"
	"github.com/MarcGrol/shopfront/services/checkout/checkoutevents"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
	"github.com/MarcGrol/shopfront/services/checkout/pricing"
)

const CurrentSnapshot = "checkout-selection"

var ErrNothingSelected = errors.New("no selected items to check out")

// Snapshot freezes the selected cart lines at the moment checkout starts.
type Snapshot struct {
	UID        string
	Items      []cart.LineItem
	Subtotal   int64
	CapturedAt time.Time
}

func (s Snapshot) lines() []pricing.Line {
	lines := []pricing.Line{}
	for _, item := range s.Items {
		lines = append(lines, pricing.Line{ShopID: item.ShopID, Amount: item.Total()})
	}
	return lines
}

// Quote is what the snapshot costs with a set of vouchers applied.
type Quote struct {
	Snapshot Snapshot
	Vouchers []string
	Totals   pricing.Totals
}

type PlaceOrderRequest struct {
	ShippingAddress orderclient.ShippingAddress
	PaymentMethod   string
	Vouchers        []string
	Note            string
}

type OrderConfirmation struct {
	OrderCode  string
	OrderID    string
	PaymentURL string
	Discount   int64
	GrandTotal int64
}

type Service struct {
	orders      orderclient.OrderClient
	store       mystore.Store[Snapshot]
	nower       mytime.Nower
	uuider      myuuid.UUIDer
	publisher   mypubsub.Publisher
	logger      mylog.Logger
	shippingFee int64
}

// NewService creates the checkout. shippingFee is charged once per shop in an order.
func NewService(orders orderclient.OrderClient, store mystore.Store[Snapshot], nower mytime.Nower, uuider myuuid.UUIDer,
	publisher mypubsub.Publisher, shippingFee int64) *Service {
	return &Service{
		orders:      orders,
		store:       store,
		nower:       nower,
		uuider:      uuider,
		publisher:   publisher,
		logger:      mylog.New("checkout"),
		shippingFee: shippingFee,
	}
}

// Begin captures the selected lines. Later cart changes do not affect the snapshot.
func (s *Service) Begin(c context.Context, items []cart.LineItem) (Snapshot, error) {
	selected := []cart.LineItem{}
	for _, item := range items {
		if item.Selected && item.Quantity > 0 {
			item.Pending = false
			selected = append(selected, item)
		}
	}
	if len(selected) == 0 {
		return Snapshot{}, myerrors.NewInvalidInputError(ErrNothingSelected)
	}

	snapshot := Snapshot{
		UID:        s.uuider.Create(),
		Items:      selected,
		Subtotal:   total(selected),
		CapturedAt: s.nower.Now(),
	}

	err := s.store.Put(c, CurrentSnapshot, snapshot)
	if err != nil {
		return Snapshot{}, myerrors.NewInternalError(fmt.Errorf("error storing checkout snapshot: %w", err))
	}

	s.logger.Log(c, snapshot.UID, mylog.SeverityInfo, "Checkout started with %d lines", len(selected))

	s.publish(c, checkoutevents.CheckoutStarted{
		SnapshotUID: snapshot.UID,
		ItemCount:   len(selected),
		Subtotal:    snapshot.Subtotal,
	})

	return copySnapshot(snapshot), nil
}

func (s *Service) Current(c context.Context) (Snapshot, bool, error) {
	snapshot, exists, err := s.store.Get(c, CurrentSnapshot)
	if err != nil {
		return Snapshot{}, false, myerrors.NewInternalError(fmt.Errorf("error fetching checkout snapshot: %w", err))
	}
	if !exists {
		return Snapshot{}, false, nil
	}
	return copySnapshot(snapshot), true, nil
}

// Quote prices the checkout in progress with the given voucher codes.
func (s *Service) Quote(c context.Context, codes []string) (Quote, error) {
	snapshot, err := s.mustCurrent(c)
	if err != nil {
		return Quote{}, err
	}

	totals, _, err := s.price(c, snapshot, codes)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Snapshot: snapshot,
		Vouchers: codes,
		Totals:   totals,
	}, nil
}

// Offers lists the vouchers that can be used on the checkout in progress, best first.
func (s *Service) Offers(c context.Context) ([]pricing.Offer, error) {
	snapshot, err := s.mustCurrent(c)
	if err != nil {
		return nil, err
	}

	available, err := s.orders.ListVouchers(c)
	if err != nil {
		return nil, err
	}

	return pricing.Offers(snapshot.lines(), s.shippingFee, available), nil
}

func (s *Service) Abandon(c context.Context) error {
	return s.discard(c, "abandoned")
}

// PlaceOrder submits the snapshot as an order. The snapshot is kept when the order is
// refused so that the shopper can try again.
func (s *Service) PlaceOrder(c context.Context, req PlaceOrderRequest) (OrderConfirmation, error) {
	err := validate(req)
	if err != nil {
		return OrderConfirmation{}, err
	}

	snapshot, err := s.mustCurrent(c)
	if err != nil {
		return OrderConfirmation{}, err
	}

	totals, selection, err := s.price(c, snapshot, req.Vouchers)
	if err != nil {
		return OrderConfirmation{}, err
	}

	orderReq := orderclient.OrderRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           orderItems(snapshot.Items),
		Note:            req.Note,
		VoucherShop:     selection.ShopVouchers(),
	}
	if selection.Site != nil {
		orderReq.VoucherSiteID = selection.Site.ID
	}
	if selection.Shipping != nil {
		orderReq.VoucherShippingID = selection.Shipping.ID
	}

	result, err := s.orders.PlaceOrder(c, orderReq)
	if err != nil {
		s.logger.Log(c, snapshot.UID, mylog.SeverityWarn, "Error placing order: %s", err)
		return OrderConfirmation{}, err
	}
	if result.GrandTotal != totals.GrandTotal {
		s.logger.Log(c, result.OrderCode, mylog.SeverityWarn, "Order total %d differs from quoted %d", result.GrandTotal, totals.GrandTotal)
	}

	err = s.store.Delete(c, CurrentSnapshot)
	if err != nil {
		s.logger.Log(c, result.OrderCode, mylog.SeverityError, "Error removing checkout snapshot: %s", err)
	}

	s.logger.Log(c, result.OrderCode, mylog.SeverityInfo, "Order placed for snapshot %s", snapshot.UID)

	s.publish(c, checkoutevents.OrderPlaced{
		SnapshotUID: snapshot.UID,
		OrderCode:   result.OrderCode,
		OrderID:     result.OrderID,
		GrandTotal:  result.GrandTotal,
		Skus:        skusOf(snapshot.Items),
	})

	return OrderConfirmation{
		OrderCode:  result.OrderCode,
		OrderID:    result.OrderID,
		PaymentURL: result.PaymentURL,
		Discount:   totals.Discount(),
		GrandTotal: result.GrandTotal,
	}, nil
}

func (s *Service) ListOrders(c context.Context, params orderclient.ListOrdersParams) (orderclient.OrderPage, error) {
	if params.Page < 0 || params.Limit < 0 {
		return orderclient.OrderPage{}, myerrors.NewInvalidInputErrorf("page and limit must not be negative")
	}
	return s.orders.ListOrders(c, params)
}

func (s *Service) mustCurrent(c context.Context) (Snapshot, error) {
	snapshot, exists, err := s.Current(c)
	if err != nil {
		return Snapshot{}, err
	}
	if !exists {
		return Snapshot{}, myerrors.NewNotFoundError(errors.New("no checkout in progress"))
	}
	return snapshot, nil
}

// price looks vouchers up only when codes are given.
func (s *Service) price(c context.Context, snapshot Snapshot, codes []string) (pricing.Totals, pricing.Selection, error) {
	selection := pricing.Selection{}
	if len(codes) > 0 {
		available, err := s.orders.ListVouchers(c)
		if err != nil {
			return pricing.Totals{}, pricing.Selection{}, err
		}
		selection, err = pricing.Select(available, codes)
		if err != nil {
			return pricing.Totals{}, pricing.Selection{}, err
		}
	}

	totals, err := pricing.Compute(snapshot.lines(), s.shippingFee, selection)
	if err != nil {
		return pricing.Totals{}, pricing.Selection{}, err
	}
	return totals, selection, nil
}

func (s *Service) discard(c context.Context, reason string) error {
	snapshot, exists, err := s.Current(c)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	err = s.store.Delete(c, CurrentSnapshot)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error removing checkout snapshot: %w", err))
	}

	s.logger.Log(c, snapshot.UID, mylog.SeverityInfo, "Checkout %s", reason)

	s.publish(c, checkoutevents.CheckoutAbandoned{
		SnapshotUID: snapshot.UID,
		Reason:      reason,
	})

	return nil
}

func (s *Service) publish(c context.Context, event myevents.Event) {
	err := s.publisher.Publish(c, checkoutevents.TopicName, event)
	if err != nil {
		s.logger.Log(c, event.GetAggregateName(), mylog.SeverityWarn, "Error publishing %s: %s", event.GetEventTypeName(), err)
	}
}

func validate(req PlaceOrderRequest) error {
	missing := []string{}
	if req.ShippingAddress.FullName == "" {
		missing = append(missing, "fullName")
	}
	if req.ShippingAddress.Phone == "" {
		missing = append(missing, "phone")
	}
	if req.ShippingAddress.Address == "" {
		missing = append(missing, "address")
	}
	if req.ShippingAddress.City == "" {
		missing = append(missing, "city")
	}
	if req.PaymentMethod == "" {
		missing = append(missing, "paymentMethod")
	}
	if len(missing) > 0 {
		return myerrors.NewInvalidInputErrorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func orderItems(items []cart.LineItem) []orderclient.OrderItem {
	result := []orderclient.OrderItem{}
	for _, item := range items {
		result = append(result, orderclient.OrderItem{
			SkuID:    item.SkuID,
			ShopID:   item.ShopID,
			Quantity: item.Quantity,
		})
	}
	return result
}

func skusOf(items []cart.LineItem) []string {
	skus := []string{}
	for _, item := range items {
		skus = append(skus, item.SkuID)
	}
	return skus
}

func total(items []cart.LineItem) int64 {
	sum := int64(0)
	for _, item := range items {
		sum += item.Total()
	}
	return sum
}

func copySnapshot(snapshot Snapshot) Snapshot {
	snapshot.Items = slices.Clone(snapshot.Items)
	return snapshot
}
