package orderclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myhttpclient"
)

type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	StatusProcessing      OrderStatus = "PROCESSING"
	StatusShipped         OrderStatus = "SHIPPED"
	StatusCompleted       OrderStatus = "COMPLETED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRefunded        OrderStatus = "REFUNDED"
)

var OrderStatuses = []OrderStatus{
	StatusAwaitingPayment,
	StatusProcessing,
	StatusShipped,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", myerrors.NewInvalidInputErrorf("unknown order status %q", s)
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	District   string `json:"district"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type OrderItem struct {
	SkuID    string `json:"sku_id"`
	ShopID   string `json:"shop_id"`
	Quantity int    `json:"quantity"`
}

type ShopVoucher struct {
	VoucherID string `json:"voucher_id"`
	ShopID    string `json:"shop_id"`
}

type OrderRequest struct {
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	PaymentMethod     string          `json:"paymentMethod"`
	Items             []OrderItem     `json:"items"`
	Note              string          `json:"note,omitempty"`
	VoucherShop       []ShopVoucher   `json:"voucher_shop,omitempty"`
	VoucherSiteID     string          `json:"voucher_site_id,omitempty"`
	VoucherShippingID string          `json:"voucher_shipping_id,omitempty"`
}

type DiscountType string

const (
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
	DiscountPercentage  DiscountType = "PERCENTAGE"
)

type AppliesTo string

const (
	AppliesToOrderTotal  AppliesTo = "ORDER_TOTAL"
	AppliesToShippingFee AppliesTo = "SHIPPING_FEE"
)

type OwnerType string

const (
	OwnerPlatform OwnerType = "PLATFORM"
	OwnerShop     OwnerType = "SHOP"
)

type Audience string

const (
	AudiencePublic   Audience = "PUBLIC"
	AudienceAssigned Audience = "ASSIGNED"
)

// Voucher amounts are in minor units. For a percentage discount DiscountValue holds
// whole percents.
type Voucher struct {
	ID                string       `json:"id"`
	Code              string       `json:"voucher_code"`
	Name              string       `json:"name"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountValue     int64        `json:"discount_value"`
	AppliesTo         AppliesTo    `json:"applies_to_type"`
	Audience          Audience     `json:"audience_type"`
	OwnerType         OwnerType    `json:"owner_type"`
	OwnerID           string       `json:"owner_id"`
	MinPurchaseAmount int64        `json:"min_purchase_amount"`
	MaxDiscountAmount *int64       `json:"max_discount_amount"`
	TotalQuantity     int          `json:"total_quantity"`
	UsedQuantity      int          `json:"used_quantity"`
	IsActive          bool         `json:"is_active"`
}

type VoucherList struct {
	Data []Voucher `json:"data"`
}

type ShopOrder struct {
	ShopID      string `json:"shopId"`
	OrderCode   string `json:"orderCode"`
	Subtotal    int64  `json:"subtotal"`
	ShippingFee int64  `json:"shippingFee"`
}

type OrderResult struct {
	OrderCode  string      `json:"orderCode"`
	OrderID    string      `json:"orderId"`
	PaymentURL string      `json:"paymentUrl,omitempty"`
	GrandTotal int64       `json:"grandTotal"`
	ShopOrders []ShopOrder `json:"shopOrders"`
}

type ListOrdersParams struct {
	Page   int         `form:"page,omitempty"`
	Limit  int         `form:"limit,omitempty"`
	Status OrderStatus `form:"status,omitempty"`
}

type Order struct {
	OrderID    string      `json:"orderId"`
	OrderCode  string      `json:"orderCode"`
	Status     OrderStatus `json:"status"`
	GrandTotal int64       `json:"grandTotal"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderSummary struct {
	Order      Order       `json:"order"`
	ShopOrders []ShopOrder `json:"order_shop"`
}

type OrderPage struct {
	CurrentPage   int            `json:"currentPage"`
	Data          []OrderSummary `json:"data"`
	PageSize      int            `json:"pageSize"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}

//go:generate mockgen -source=order_client.go -package orderclient -destination order_client_mock.go OrderClient
type OrderClient interface {
	PlaceOrder(c context.Context, req OrderRequest) (OrderResult, error)
	ListOrders(c context.Context, params ListOrdersParams) (OrderPage, error)
	ListVouchers(c context.Context) ([]Voucher, error)
}

type orderClient struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
	encoder    *formcodec.Encoder
}

func New(baseURL string, httpClient myhttpclient.HTTPSender) OrderClient {
	return &orderClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		encoder:    formcodec.NewEncoder(),
	}
}

func (oc *orderClient) PlaceOrder(c context.Context, req OrderRequest) (OrderResult, error) {
	result, err := myhttpclient.Call[OrderResult](c, oc.httpClient, http.MethodPost, oc.baseURL+"/orders", req)
	if err != nil {
		return OrderResult{}, fmt.Errorf("error placing order: %w", err)
	}
	return result, nil
}

func (oc *orderClient) ListOrders(c context.Context, params ListOrdersParams) (OrderPage, error) {
	values, err := oc.encoder.Encode(params)
	if err != nil {
		return OrderPage{}, myerrors.NewInvalidInputError(fmt.Errorf("error encoding order query: %w", err))
	}

	url := oc.baseURL + "/orders"
	if len(values) > 0 {
		url += "?" + values.Encode()
	}

	page, err := myhttpclient.Call[OrderPage](c, oc.httpClient, http.MethodGet, url, nil)
	if err != nil {
		return OrderPage{}, fmt.Errorf("error listing orders: %w", err)
	}
	return page, nil
}

func (oc *orderClient) ListVouchers(c context.Context) ([]Voucher, error) {
	list, err := myhttpclient.Call[VoucherList](c, oc.httpClient, http.MethodGet, oc.baseURL+"/vouchers", nil)
	if err != nil {
		return nil, fmt.Errorf("error listing vouchers: %w", err)
	}
	if list.Data == nil {
		return []Voucher{}, nil
	}
	return list.Data, nil
}
