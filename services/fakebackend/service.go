// Package fakebackend is a development server for the storefront gateway: identity, cart,
// orders and profile. It keeps counters and can inject failures for tests.
package fakebackend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mystore"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
	"github.com/MarcGrol/shopfront/services/checkout/pricing"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type Config struct {
	SigningKey  string
	TokenTTL    time.Duration
	ShippingFee int64
}

type injectedFailure struct {
	status int
	times  int
}

type Service struct {
	sync.Mutex
	signingKey  []byte
	tokenTTL    time.Duration
	shippingFee int64
	carts       mystore.Store[StoredCart]
	orders      mystore.Store[StoredOrder]
	nower       mytime.Nower
	uuider      myuuid.UUIDer
	logger      mylog.Logger
	users       map[string]User
	catalog     map[string]Product
	vouchers    []orderclient.Voucher
	revoked     map[string]bool
	issued      []string
	calls       map[string]int
	failures    map[string]*injectedFailure
	refreshes   int
	orderSeq    int
}

func NewService(cfg Config, carts mystore.Store[StoredCart], orders mystore.Store[StoredOrder], nower mytime.Nower, uuider myuuid.UUIDer) *Service {
	return &Service{
		signingKey:  []byte(cfg.SigningKey),
		tokenTTL:    cfg.TokenTTL,
		shippingFee: cfg.ShippingFee,
		carts:       carts,
		orders:      orders,
		nower:       nower,
		uuider:      uuider,
		logger:      mylog.New("fakebackend"),
		users:       map[string]User{},
		catalog:     map[string]Product{},
		revoked:     map[string]bool{},
		calls:       map[string]int{},
		failures:    map[string]*injectedFailure{},
	}
}

func (s *Service) AddUser(user User) {
	s.Lock()
	defer s.Unlock()

	s.users[user.Username] = user
}

func (s *Service) AddProducts(products ...Product) {
	s.Lock()
	defer s.Unlock()

	for _, p := range products {
		s.catalog[p.SkuID] = p
	}
}

// AddVouchers replaces a voucher with the same id.
func (s *Service) AddVouchers(vouchers ...orderclient.Voucher) {
	s.Lock()
	defer s.Unlock()

	for _, v := range vouchers {
		s.vouchers = slices.DeleteFunc(s.vouchers, func(existing orderclient.Voucher) bool {
			return existing.ID == v.ID
		})
		s.vouchers = append(s.vouchers, v)
	}
}

func (s *Service) listVouchers() orderclient.VoucherList {
	s.Lock()
	defer s.Unlock()

	return orderclient.VoucherList{
		Data: append([]orderclient.Voucher{}, s.vouchers...),
	}
}

// ExpireAllTokens revokes every token issued so far, as if they expired server side.
// Revoked tokens can still be exchanged at the refresh endpoint.
func (s *Service) ExpireAllTokens() int {
	s.Lock()
	defer s.Unlock()

	for _, jti := range s.issued {
		s.revoked[jti] = true
	}
	return len(s.issued)
}

// FailNext makes the next times calls of route answer with status.
func (s *Service) FailNext(route string, status int, times int) {
	s.Lock()
	defer s.Unlock()

	s.failures[route] = &injectedFailure{status: status, times: times}
}

func (s *Service) RefreshCount() int {
	s.Lock()
	defer s.Unlock()

	return s.refreshes
}

func (s *Service) Calls(route string) int {
	s.Lock()
	defer s.Unlock()

	return s.calls[route]
}

func (s *Service) record(route string) error {
	s.Lock()
	defer s.Unlock()

	s.calls[route]++

	failure, found := s.failures[route]
	if !found || failure.times <= 0 {
		return nil
	}
	failure.times--
	return myerrors.New(failure.status, fmt.Errorf("injected failure for %s", route))
}

func (s *Service) login(c context.Context, req identityclient.LoginRequest) (identityclient.TokenResponse, error) {
	s.Lock()
	user, found := s.users[req.Username]
	s.Unlock()

	if !found || user.Password != req.Password {
		s.logger.Log(c, req.Username, mylog.SeverityInfo, "Login rejected")
		return identityclient.TokenResponse{Authenticated: false}, nil
	}

	return s.tokenFor(c, user)
}

func (s *Service) refresh(c context.Context, req identityclient.RefreshRequest) (identityclient.TokenResponse, error) {
	s.Lock()
	s.refreshes++
	s.Unlock()

	claims, err := s.verifyRefreshable(req.Token)
	if err != nil {
		return identityclient.TokenResponse{}, err
	}

	s.Lock()
	user, found := s.users[claims.Subject]
	s.Unlock()

	if !found {
		return identityclient.TokenResponse{}, myerrors.NewUnauthorizedError(fmt.Errorf("unknown user %s", claims.Subject))
	}

	return s.tokenFor(c, user)
}

func (s *Service) tokenFor(c context.Context, user User) (identityclient.TokenResponse, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return identityclient.TokenResponse{}, err
	}

	claims, err := s.verifyRefreshable(token)
	if err != nil {
		return identityclient.TokenResponse{}, err
	}

	s.Lock()
	s.issued = append(s.issued, claims.ID)
	s.Unlock()

	s.logger.Log(c, user.Username, mylog.SeverityInfo, "Token issued, valid until %s", expiryOf(claims).Format(time.RFC3339))

	return identityclient.TokenResponse{Token: token, Authenticated: true}, nil
}

func (s *Service) user(subject string) (User, error) {
	s.Lock()
	defer s.Unlock()

	user, found := s.users[subject]
	if !found {
		return User{}, myerrors.NewNotFoundError(fmt.Errorf("unknown user %s", subject))
	}
	return user, nil
}

func (s *Service) product(skuID string) (Product, error) {
	s.Lock()
	defer s.Unlock()

	product, found := s.catalog[skuID]
	if !found {
		return Product{}, myerrors.NewNotFoundError(fmt.Errorf("sku %s does not exist", skuID))
	}
	return product, nil
}

// CartOf returns the server cart of subject.
func (s *Service) CartOf(c context.Context, subject string) (cartclient.Cart, error) {
	stored, exists, err := s.carts.Get(c, subject)
	if err != nil {
		return cartclient.Cart{}, myerrors.NewInternalError(err)
	}
	if !exists {
		return cartclient.Cart{ID: "cart-" + subject, Items: []cartclient.Item{}}, nil
	}
	return stored.Cart, nil
}

func (s *Service) updateCart(c context.Context, subject string, f func(cart *cartclient.Cart) error) (cartclient.Cart, error) {
	var result cartclient.Cart
	err := s.carts.RunInTransaction(c, func(c context.Context) error {
		cart, err := s.CartOf(c, subject)
		if err != nil {
			return err
		}

		cart.Items = slices.Clone(cart.Items)
		err = f(&cart)
		if err != nil {
			return err
		}
		recalculate(&cart)

		err = s.carts.Put(c, subject, StoredCart{Owner: subject, Cart: cart})
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		result = cart
		return nil
	})
	return result, err
}

func (s *Service) addToCart(c context.Context, subject string, req cartclient.AddItemRequest) error {
	if req.Quantity < 1 {
		return myerrors.NewInvalidInputErrorf("quantity must be at least 1, got %d", req.Quantity)
	}
	product, err := s.product(req.SkuID)
	if err != nil {
		return err
	}

	_, err = s.updateCart(c, subject, func(cart *cartclient.Cart) error {
		idx := indexOf(cart.Items, req.SkuID)
		if idx >= 0 {
			cart.Items[idx].Quantity += req.Quantity
			return nil
		}
		cart.Items = append(cart.Items, cartclient.Item{
			SkuID:        product.SkuID,
			ProductName:  product.Name,
			ProductImage: product.Image,
			Price:        product.Price,
			Quantity:     req.Quantity,
			IsSelected:   true,
			ShopID:       product.ShopID,
			AddedDate:    s.nower.Now(),
		})
		return nil
	})
	return err
}

func (s *Service) updateCartItem(c context.Context, subject string, skuID string, quantity int) error {
	if quantity < 1 {
		return myerrors.NewInvalidInputErrorf("quantity must be at least 1, got %d", quantity)
	}
	_, err := s.updateCart(c, subject, func(cart *cartclient.Cart) error {
		idx := indexOf(cart.Items, skuID)
		if idx < 0 {
			return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
		}
		cart.Items[idx].Quantity = quantity
		return nil
	})
	return err
}

func (s *Service) removeCartItem(c context.Context, subject string, skuID string) error {
	_, err := s.updateCart(c, subject, func(cart *cartclient.Cart) error {
		idx := indexOf(cart.Items, skuID)
		if idx < 0 {
			return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
		}
		cart.Items = slices.Delete(cart.Items, idx, idx+1)
		return nil
	})
	return err
}

func (s *Service) clearCart(c context.Context, subject string) error {
	_, err := s.updateCart(c, subject, func(cart *cartclient.Cart) error {
		cart.Items = []cartclient.Item{}
		return nil
	})
	return err
}

func (s *Service) placeOrder(c context.Context, subject string, req orderclient.OrderRequest) (orderclient.OrderResult, error) {
	if len(req.Items) == 0 {
		return orderclient.OrderResult{}, myerrors.NewInvalidInputError(errors.New("order without items"))
	}
	if req.PaymentMethod == "" {
		return orderclient.OrderResult{}, myerrors.NewInvalidInputError(errors.New("missing payment method"))
	}

	lines := []pricing.Line{}
	ordered := []string{}
	for _, item := range req.Items {
		product, err := s.product(item.SkuID)
		if err != nil {
			return orderclient.OrderResult{}, err
		}
		if item.Quantity < 1 {
			return orderclient.OrderResult{}, myerrors.NewInvalidInputErrorf("quantity of sku %s must be at least 1", item.SkuID)
		}
		lines = append(lines, pricing.Line{ShopID: product.ShopID, Amount: product.Price * int64(item.Quantity)})
		ordered = append(ordered, item.SkuID)
	}

	s.Lock()
	selection, err := pricing.SelectByID(s.vouchers, req.VoucherSiteID, req.VoucherShippingID, req.VoucherShop)
	if err != nil {
		s.Unlock()
		return orderclient.OrderResult{}, err
	}
	totals, err := pricing.Compute(lines, s.shippingFee, selection)
	if err != nil {
		s.Unlock()
		return orderclient.OrderResult{}, err
	}
	s.redeem(selection)
	s.orderSeq++
	sequence := s.orderSeq
	s.Unlock()

	orderCode := fmt.Sprintf("ORD-%06d", sequence)
	grandTotal := totals.GrandTotal
	shopOrders := []orderclient.ShopOrder{}
	for i, shop := range totals.Shops {
		shopOrders = append(shopOrders, orderclient.ShopOrder{
			ShopID:      shop.ShopID,
			OrderCode:   fmt.Sprintf("%s-%d", orderCode, i+1),
			Subtotal:    shop.Subtotal,
			ShippingFee: shop.ShippingFee,
		})
	}

	result := orderclient.OrderResult{
		OrderCode:  orderCode,
		OrderID:    s.uuider.Create(),
		GrandTotal: grandTotal,
		ShopOrders: shopOrders,
	}
	status := orderclient.StatusProcessing
	if req.PaymentMethod != "COD" {
		result.PaymentURL = "https://payments.example.com/pay/" + orderCode
		status = orderclient.StatusAwaitingPayment
	}

	err = s.orders.Put(c, result.OrderID, StoredOrder{
		Owner:    subject,
		Sequence: sequence,
		Summary: orderclient.OrderSummary{
			Order: orderclient.Order{
				OrderID:    result.OrderID,
				OrderCode:  orderCode,
				Status:     status,
				GrandTotal: grandTotal,
				CreatedAt:  s.nower.Now(),
			},
			ShopOrders: shopOrders,
		},
	})
	if err != nil {
		return orderclient.OrderResult{}, myerrors.NewInternalError(err)
	}

	// ordered lines leave the cart
	_, err = s.updateCart(c, subject, func(cart *cartclient.Cart) error {
		cart.Items = slices.DeleteFunc(cart.Items, func(item cartclient.Item) bool {
			return slices.Contains(ordered, item.SkuID)
		})
		return nil
	})
	if err != nil {
		return orderclient.OrderResult{}, err
	}

	s.logger.Log(c, orderCode, mylog.SeverityInfo, "Order placed by %s for %d (discount %d)", subject, grandTotal, totals.Discount())

	return result, nil
}

func (s *Service) listOrders(c context.Context, subject string, params orderclient.ListOrdersParams) (orderclient.OrderPage, error) {
	all, err := s.orders.List(c)
	if err != nil {
		return orderclient.OrderPage{}, myerrors.NewInternalError(err)
	}

	mine := []StoredOrder{}
	for _, o := range all {
		if o.Owner != subject {
			continue
		}
		if params.Status != "" && o.Summary.Order.Status != params.Status {
			continue
		}
		mine = append(mine, o)
	}
	slices.SortFunc(mine, func(a, b StoredOrder) int {
		return cmp.Compare(b.Sequence, a.Sequence)
	})

	page := params.Page
	if page < 1 {
		page = defaultPage
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultLimit
	}

	data := []orderclient.OrderSummary{}
	for i := (page - 1) * limit; i < len(mine) && i < page*limit; i++ {
		data = append(data, mine[i].Summary)
	}

	return orderclient.OrderPage{
		CurrentPage:   page,
		Data:          data,
		PageSize:      limit,
		TotalElements: len(mine),
		TotalPages:    (len(mine) + limit - 1) / limit,
	}, nil
}

func recalculate(cart *cartclient.Cart) {
	cart.TotalItems = 0
	cart.TotalPrice = 0
	cart.SelectedTotalPrice = 0
	for _, item := range cart.Items {
		amount := item.Price * int64(item.Quantity)
		cart.TotalItems += item.Quantity
		cart.TotalPrice += amount
		if item.IsSelected {
			cart.SelectedTotalPrice += amount
		}
	}
}

func indexOf(items []cartclient.Item, skuID string) int {
	return slices.IndexFunc(items, func(item cartclient.Item) bool {
		return item.SkuID == skuID
	})
}

// redeem counts one use of every selected voucher. Callers hold the lock.
func (s *Service) redeem(selection pricing.Selection) {
	ids := []string{}
	if selection.Site != nil {
		ids = append(ids, selection.Site.ID)
	}
	if selection.Shipping != nil {
		ids = append(ids, selection.Shipping.ID)
	}
	for _, v := range selection.Shops {
		ids = append(ids, v.ID)
	}
	for i := range s.vouchers {
		if slices.Contains(ids, s.vouchers[i].ID) {
			s.vouchers[i].UsedQuantity++
		}
	}
}
