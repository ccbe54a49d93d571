package cart

import (
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
)

const LocalCartKey = "cart-storage"

// LocalCartDocument is the persisted form of the anonymous cart.
type LocalCartDocument struct {
	Items     []LineItem
	UpdatedAt time.Time
}

var ErrNotRehydrated = errors.New("local cart not rehydrated")

// LocalCart is the anonymous cart. It lives in memory after Rehydrate and is written
// back to the store after every change; the last writer wins.
type LocalCart struct {
	sync.Mutex
	store      mystore.Store[LocalCartDocument]
	nower      mytime.Nower
	logger     mylog.Logger
	rehydrated bool
	items      []LineItem
}

func NewLocalCart(store mystore.Store[LocalCartDocument], nower mytime.Nower) *LocalCart {
	return &LocalCart{
		store:  store,
		nower:  nower,
		logger: mylog.New("localcart"),
	}
}

// Rehydrate loads the persisted cart. Nothing else works before it has run.
func (lc *LocalCart) Rehydrate(c context.Context) error {
	doc, _, err := lc.store.Get(c, LocalCartKey)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error loading local cart: %w", err))
	}

	lc.Lock()
	defer lc.Unlock()

	lc.items = slices.Clone(doc.Items)
	lc.rehydrated = true

	lc.logger.Log(c, "", mylog.SeverityDebug, "Rehydrated local cart with %d lines", len(lc.items))

	return nil
}

func (lc *LocalCart) Rehydrated() bool {
	lc.Lock()
	defer lc.Unlock()

	return lc.rehydrated
}

func (lc *LocalCart) Add(c context.Context, req AddItemRequest) error {
	if req.SkuID == "" {
		return myerrors.NewInvalidInputError(errors.New("missing sku"))
	}
	if req.Quantity < 1 {
		return myerrors.NewInvalidInputErrorf("quantity of sku %s must be at least 1, got %d", req.SkuID, req.Quantity)
	}

	return lc.mutate(c, func() error {
		idx := lc.indexOf(req.SkuID)
		if idx >= 0 {
			lc.items[idx].Quantity += req.Quantity
			return nil
		}
		lc.items = append(lc.items, LineItem{
			SkuID:    req.SkuID,
			ShopID:   req.ShopID,
			Name:     req.Name,
			SkuName:  req.SkuName,
			Price:    req.Price,
			Quantity: req.Quantity,
			Image:    req.Image,
			Selected: true,
		})
		return nil
	})
}

func (lc *LocalCart) UpdateQuantity(c context.Context, skuID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	return lc.mutate(c, func() error {
		idx := lc.indexOf(skuID)
		if idx < 0 {
			return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
		}
		lc.items[idx].Quantity = quantity
		return nil
	})
}

func (lc *LocalCart) Remove(c context.Context, skuID string) error {
	return lc.mutate(c, func() error {
		lc.items = slices.DeleteFunc(lc.items, func(item LineItem) bool {
			return item.SkuID == skuID
		})
		return nil
	})
}

func (lc *LocalCart) ToggleSelection(c context.Context, skuID string) error {
	return lc.mutate(c, func() error {
		idx := lc.indexOf(skuID)
		if idx < 0 {
			return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
		}
		lc.items[idx].Selected = !lc.items[idx].Selected
		return nil
	})
}

func (lc *LocalCart) Items(c context.Context) ([]LineItem, error) {
	lc.Lock()
	defer lc.Unlock()

	if !lc.rehydrated {
		return nil, myerrors.NewUnavailableError(ErrNotRehydrated)
	}
	return slices.Clone(lc.items), nil
}

func (lc *LocalCart) SelectedSubtotal(c context.Context) (int64, error) {
	items, err := lc.Items(c)
	if err != nil {
		return 0, err
	}
	return subtotal(items), nil
}

func (lc *LocalCart) Count(c context.Context) (int, error) {
	items, err := lc.Items(c)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count, nil
}

// Reload reads the store again, picking up what another process flushed.
func (lc *LocalCart) Reload(c context.Context) error {
	return lc.Rehydrate(c)
}

func (lc *LocalCart) Clear(c context.Context) error {
	return lc.mutate(c, func() error {
		lc.items = nil
		return nil
	})
}

func (lc *LocalCart) mutate(c context.Context, f func() error) error {
	lc.Lock()
	defer lc.Unlock()

	if !lc.rehydrated {
		return myerrors.NewUnavailableError(ErrNotRehydrated)
	}

	previous := slices.Clone(lc.items)
	err := f()
	if err != nil {
		lc.items = previous
		return err
	}

	err = lc.store.Put(c, LocalCartKey, LocalCartDocument{
		Items:     slices.Clone(lc.items),
		UpdatedAt: lc.nower.Now(),
	})
	if err != nil {
		lc.items = previous
		return myerrors.NewInternalError(fmt.Errorf("error persisting local cart: %w", err))
	}
	return nil
}

func (lc *LocalCart) indexOf(skuID string) int {
	return slices.IndexFunc(lc.items, func(item LineItem) bool {
		return item.SkuID == skuID
	})
}
