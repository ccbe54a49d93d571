package cart

import "context"

// Provider is the single cart surface; local and remote carts both implement it.
type Provider interface {
	Add(c context.Context, req AddItemRequest) error
	UpdateQuantity(c context.Context, skuID string, quantity int) error
	Remove(c context.Context, skuID string) error
	ToggleSelection(c context.Context, skuID string) error
	Items(c context.Context) ([]LineItem, error)
	SelectedSubtotal(c context.Context) (int64, error)
	Count(c context.Context) (int, error)
	Reload(c context.Context) error
	Clear(c context.Context) error
}

var (
	_ Provider = &LocalCart{}
	_ Provider = &RemoteCart{}
	_ Provider = &Reconciler{}
)
