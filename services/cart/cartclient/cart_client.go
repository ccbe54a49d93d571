package cartclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MarcGrol/shopfront/lib/myhttpclient"
)

type Item struct {
	SkuID        string    `json:"skuId"`
	ProductName  string    `json:"productName"`
	ProductImage string    `json:"productImage"`
	Price        int64     `json:"price"`
	Quantity     int       `json:"quantity"`
	IsSelected   bool      `json:"isSelected"`
	ShopID       string    `json:"shopId"`
	AddedDate    time.Time `json:"addedDate"`
}

type Cart struct {
	ID                 string `json:"id"`
	Items              []Item `json:"items"`
	TotalItems         int    `json:"totalItems"`
	TotalPrice         int64  `json:"totalPrice"`
	SelectedTotalPrice int64  `json:"selectedTotalPrice"`
}

type AddItemRequest struct {
	SkuID    string `json:"SkuId"`
	Quantity int    `json:"Quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"Quantity"`
}

//go:generate mockgen -source=cart_client.go -package cartclient -destination cart_client_mock.go CartClient
type CartClient interface {
	GetCart(c context.Context) (Cart, error)
	Count(c context.Context) (int, error)
	AddItem(c context.Context, req AddItemRequest) error
	UpdateItem(c context.Context, skuID string, req UpdateItemRequest) error
	DeleteItem(c context.Context, skuID string) error
	Clear(c context.Context) error
}

type cartClient struct {
	baseURL    string
	httpClient myhttpclient.HTTPSender
}

// New expects an authenticated sender: every cart call needs the bearer credential.
func New(baseURL string, httpClient myhttpclient.HTTPSender) CartClient {
	return &cartClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (cc *cartClient) GetCart(c context.Context) (Cart, error) {
	cart, err := myhttpclient.Call[Cart](c, cc.httpClient, http.MethodGet, cc.baseURL+"/Cart", nil)
	if err != nil {
		return Cart{}, fmt.Errorf("error fetching cart: %w", err)
	}
	return cart, nil
}

func (cc *cartClient) Count(c context.Context) (int, error) {
	count, err := myhttpclient.Call[int](c, cc.httpClient, http.MethodGet, cc.baseURL+"/Cart/count", nil)
	if err != nil {
		return 0, fmt.Errorf("error counting cart items: %w", err)
	}
	return count, nil
}

func (cc *cartClient) AddItem(c context.Context, req AddItemRequest) error {
	_, err := myhttpclient.Call[any](c, cc.httpClient, http.MethodPost, cc.baseURL+"/Cart/items", req)
	if err != nil {
		return fmt.Errorf("error adding sku %s to cart: %w", req.SkuID, err)
	}
	return nil
}

func (cc *cartClient) UpdateItem(c context.Context, skuID string, req UpdateItemRequest) error {
	_, err := myhttpclient.Call[any](c, cc.httpClient, http.MethodPut, cc.itemURL(skuID), req)
	if err != nil {
		return fmt.Errorf("error updating sku %s to quantity %d: %w", skuID, req.Quantity, err)
	}
	return nil
}

func (cc *cartClient) DeleteItem(c context.Context, skuID string) error {
	_, err := myhttpclient.Call[any](c, cc.httpClient, http.MethodDelete, cc.itemURL(skuID), nil)
	if err != nil {
		return fmt.Errorf("error removing sku %s from cart: %w", skuID, err)
	}
	return nil
}

func (cc *cartClient) Clear(c context.Context) error {
	_, err := myhttpclient.Call[any](c, cc.httpClient, http.MethodDelete, cc.baseURL+"/Cart", nil)
	if err != nil {
		return fmt.Errorf("error clearing cart: %w", err)
	}
	return nil
}

func (cc *cartClient) itemURL(skuID string) string {
	return cc.baseURL + "/Cart/items/" + url.PathEscape(skuID)
}
