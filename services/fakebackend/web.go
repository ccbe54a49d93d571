package fakebackend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/shopfront/lib/mycontext"
	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttp"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
	"github.com/MarcGrol/shopfront/services/profile"
	"github.com/MarcGrol/shopfront/services/session/identityclient"
)

const (
	RouteLogin          = "POST " + identityclient.LoginPath
	RouteRefresh        = "POST " + identityclient.RefreshPath
	RouteGetCart        = "GET /Cart"
	RouteCountCart      = "GET /Cart/count"
	RouteAddCartItem    = "POST /Cart/items"
	RouteUpdateCartItem = "PUT /Cart/items/{skuId}"
	RouteDeleteCartItem = "DELETE /Cart/items/{skuId}"
	RouteClearCart      = "DELETE /Cart"
	RoutePlaceOrder     = "POST /orders"
	RouteListOrders     = "GET /orders"
	RouteListVouchers   = "GET /vouchers"
	RouteProfile        = "GET " + profile.ProfilePath
	RouteAddresses      = "GET " + profile.AddressesPath
	RouteWarmup         = "GET /_ah/warmup"
)

type WarmupStatus struct {
	Users    int `json:"users"`
	Products int `json:"products"`
}

type authenticatedHandler func(c context.Context, w http.ResponseWriter, r *http.Request, subject string)

func (s *Service) RegisterEndpoints(c context.Context, router *mux.Router) error {
	s.handle(router, RouteLogin, s.loginPage())
	s.handle(router, RouteRefresh, s.refreshPage())

	s.handle(router, RouteGetCart, s.authenticated(s.getCartPage()))
	s.handle(router, RouteCountCart, s.authenticated(s.countCartPage()))
	s.handle(router, RouteAddCartItem, s.authenticated(s.addCartItemPage()))
	s.handle(router, RouteUpdateCartItem, s.authenticated(s.updateCartItemPage()))
	s.handle(router, RouteDeleteCartItem, s.authenticated(s.deleteCartItemPage()))
	s.handle(router, RouteClearCart, s.authenticated(s.clearCartPage()))

	s.handle(router, RoutePlaceOrder, s.authenticated(s.placeOrderPage()))
	s.handle(router, RouteListOrders, s.authenticated(s.listOrdersPage()))
	s.handle(router, RouteListVouchers, s.authenticated(s.listVouchersPage()))

	s.handle(router, RouteProfile, s.authenticated(s.profilePage()))
	s.handle(router, RouteAddresses, s.authenticated(s.addressesPage()))

	s.handle(router, RouteWarmup, s.warmupPage())

	return nil
}

// handle registers route ("METHOD /path") with call counting and failure injection.
func (s *Service) handle(router *mux.Router, route string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(route, " ")
	router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		err := s.record(route)
		if err != nil {
			myhttp.NewWriter(s.logger).WriteError(c, w, 1, err)
			return
		}

		handler(w, r)
	}).Methods(method)
}

func (s *Service) authenticated(next authenticatedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || raw == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewUnauthorizedError(errors.New("missing bearer token")))
			return
		}

		claims, err := s.verifyAccess(raw)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		next(c, w, r, claims.Subject)
	}
}

func (s *Service) loginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := identityclient.LoginRequest{}
		err := myhttp.ReadJSON(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.login(c, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *Service) refreshPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := identityclient.RefreshRequest{}
		err := myhttp.ReadJSON(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.refresh(c, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *Service) getCartPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		cart, err := s.CartOf(c, subject)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, cart)
	}
}

func (s *Service) countCartPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		cart, err := s.CartOf(c, subject)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, cart.TotalItems)
	}
}

func (s *Service) addCartItemPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		req := cartclient.AddItemRequest{}
		err := myhttp.ReadJSON(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.addToCart(c, subject, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		s.logger.Log(c, req.SkuID, mylog.SeverityDebug, "Added %d to cart of %s", req.Quantity, subject)

		errorWriter.Write(c, w, http.StatusOK, nil)
	}
}

func (s *Service) updateCartItemPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		skuID := mux.Vars(r)["skuId"]

		req := cartclient.UpdateItemRequest{}
		err := myhttp.ReadJSON(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.updateCartItem(c, subject, skuID, req.Quantity)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, nil)
	}
}

func (s *Service) deleteCartItemPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.removeCartItem(c, subject, mux.Vars(r)["skuId"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, nil)
	}
}

func (s *Service) clearCartPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.clearCart(c, subject)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, nil)
	}
}

func (s *Service) placeOrderPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		req := orderclient.OrderRequest{}
		err := myhttp.ReadJSON(r, &req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		result, err := s.placeOrder(c, subject, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, result)
	}
}

func (s *Service) listOrdersPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		params := orderclient.ListOrdersParams{}
		err := formcodec.NewDecoder().Decode(&params, r.URL.Query())
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		page, err := s.listOrders(c, subject, params)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, page)
	}
}

func (s *Service) listVouchersPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		errorWriter.Write(c, w, http.StatusOK, s.listVouchers())
	}
}

func (s *Service) profilePage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		user, err := s.user(subject)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, user.Profile)
	}
}

func (s *Service) addressesPage() authenticatedHandler {
	return func(c context.Context, w http.ResponseWriter, r *http.Request, subject string) {
		errorWriter := myhttp.NewWriter(s.logger)

		user, err := s.user(subject)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		addresses := user.Addresses
		if addresses == nil {
			addresses = []profile.Address{}
		}
		errorWriter.Write(c, w, http.StatusOK, addresses)
	}
}

func (s *Service) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		s.Lock()
		status := WarmupStatus{
			Users:    len(s.users),
			Products: len(s.catalog),
		}
		s.Unlock()

		errorWriter.Write(c, w, http.StatusOK, status)
	}
}
