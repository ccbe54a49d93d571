package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MarcGrol/shopfront/lib/mydebounce"
	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mynotify"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/services/cart/cartclient"
)

const DefaultDebounce = 2 * time.Second

type remoteLine struct {
	item  LineItem
	state lineState
}

// RemoteCart mirrors the server cart of an authenticated shopper. Quantity changes are
// shown at once and sent after a quiet period per sku; removals hide the line until the
// server answers. Selection is kept client side only.
type RemoteCart struct {
	sync.Mutex
	client    cartclient.CartClient
	debouncer *mydebounce.Debouncer[string]
	notifier  mynotify.Notifier
	logger    mylog.Logger
	loaded    bool
	order     []string
	lines     map[string]*remoteLine
	selected  map[string]bool
	deleting  map[string]bool
}

func NewRemoteCart(client cartclient.CartClient, scheduler mytime.Scheduler, debounce time.Duration, notifier mynotify.Notifier) *RemoteCart {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &RemoteCart{
		client:    client,
		debouncer: mydebounce.New[string](scheduler, debounce),
		notifier:  notifier,
		logger:    mylog.New("remotecart"),
		lines:     map[string]*remoteLine{},
		selected:  map[string]bool{},
		deleting:  map[string]bool{},
	}
}

func (rc *RemoteCart) Add(c context.Context, req AddItemRequest) error {
	if req.SkuID == "" {
		return myerrors.NewInvalidInputErrorf("missing sku")
	}
	if req.Quantity < 1 {
		return myerrors.NewInvalidInputErrorf("quantity of sku %s must be at least 1, got %d", req.SkuID, req.Quantity)
	}

	err := rc.addItem(c, req.SkuID, req.Quantity)
	if err != nil {
		rc.notify(c, req.SkuID, "Could not add %s to your cart", displayName(req.Name, req.SkuID))
		return err
	}

	// the server decides how quantities stack
	return rc.Reload(c)
}

func (rc *RemoteCart) addItem(c context.Context, skuID string, quantity int) error {
	return rc.client.AddItem(c, cartclient.AddItemRequest{
		SkuID:    skuID,
		Quantity: quantity,
	})
}

// UpdateQuantity shows quantity immediately and sends only the last value of a burst.
// A quantity below 1 is ignored.
func (rc *RemoteCart) UpdateQuantity(c context.Context, skuID string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	err := rc.ensureLoaded(c)
	if err != nil {
		return err
	}

	rc.Lock()
	line, found := rc.lines[skuID]
	if !found || rc.deleting[skuID] {
		rc.Unlock()
		return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
	}
	line.state.Propose(quantity)
	rc.Unlock()

	rc.debouncer.Trigger(skuID, func() {
		rc.sendQuantity(context.WithoutCancel(c), skuID)
	})

	rc.logger.Log(c, skuID, mylog.SeverityDebug, "Quantity %d scheduled", quantity)

	return nil
}

func (rc *RemoteCart) sendQuantity(c context.Context, skuID string) {
	rc.Lock()
	line, found := rc.lines[skuID]
	if !found || line.state.Status() != LineOptimisticPending {
		rc.Unlock()
		return
	}
	quantity := line.state.pending
	version := line.state.version
	name := line.item.Name
	rc.Unlock()

	err := rc.client.UpdateItem(c, skuID, cartclient.UpdateItemRequest{Quantity: quantity})

	rc.Lock()
	defer rc.Unlock()

	line, found = rc.lines[skuID]
	if !found {
		return
	}

	if err != nil {
		rc.logger.Log(c, skuID, mylog.SeverityWarn, "Error updating quantity to %d: %s", quantity, err)
		rollback, stateErr := line.state.Fail(version)
		if stateErr != nil || !rollback {
			return
		}
		_ = line.state.RolledBack()
		rc.notify(c, skuID, "Could not change the quantity of %s, restored to %d", displayName(name, skuID), line.state.Displayed())
		return
	}

	_, stateErr := line.state.Confirm(version, quantity)
	if stateErr != nil {
		rc.logger.Log(c, skuID, mylog.SeverityWarn, "Confirmation ignored: %s", stateErr)
	}
}

// Remove hides the line while the server call is running. When the call fails the line
// comes back with its previous quantity.
func (rc *RemoteCart) Remove(c context.Context, skuID string) error {
	err := rc.ensureLoaded(c)
	if err != nil {
		return err
	}

	rc.Lock()
	line, found := rc.lines[skuID]
	if !found || rc.deleting[skuID] {
		rc.Unlock()
		return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
	}
	rc.deleting[skuID] = true
	name := line.item.Name
	rc.Unlock()

	// a quantity change for a line being removed is moot
	rc.debouncer.Cancel(skuID)

	err = rc.client.DeleteItem(c, skuID)

	rc.Lock()
	defer rc.Unlock()

	delete(rc.deleting, skuID)
	if err != nil {
		if line, found := rc.lines[skuID]; found && line.state.Status() == LineOptimisticPending {
			line.state = newLineState(line.state.confirmed)
		}
		rc.notify(c, skuID, "Could not remove %s from your cart", displayName(name, skuID))
		return err
	}

	rc.dropLocked(skuID)
	return nil
}

func (rc *RemoteCart) ToggleSelection(c context.Context, skuID string) error {
	err := rc.ensureLoaded(c)
	if err != nil {
		return err
	}

	rc.Lock()
	defer rc.Unlock()

	if _, found := rc.lines[skuID]; !found || rc.deleting[skuID] {
		return myerrors.NewNotFoundError(fmt.Errorf("sku %s not in cart", skuID))
	}
	rc.selected[skuID] = !rc.selected[skuID]
	return nil
}

func (rc *RemoteCart) Items(c context.Context) ([]LineItem, error) {
	err := rc.ensureLoaded(c)
	if err != nil {
		return nil, err
	}

	rc.Lock()
	defer rc.Unlock()

	return rc.itemsLocked(), nil
}

func (rc *RemoteCart) itemsLocked() []LineItem {
	items := make([]LineItem, 0, len(rc.order))
	for _, skuID := range rc.order {
		if rc.deleting[skuID] {
			continue
		}
		line := rc.lines[skuID]
		item := line.item
		item.Quantity = line.state.Displayed()
		item.Pending = line.state.Status() == LineOptimisticPending
		item.Selected = rc.selected[skuID]
		items = append(items, item)
	}
	return items
}

func (rc *RemoteCart) SelectedSubtotal(c context.Context) (int64, error) {
	items, err := rc.Items(c)
	if err != nil {
		return 0, err
	}
	return subtotal(items), nil
}

func (rc *RemoteCart) Count(c context.Context) (int, error) {
	count, err := rc.client.Count(c)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Reload refetches the server cart. Every line comes back selected; optimistic
// quantities that are still on their way stay visible.
func (rc *RemoteCart) Reload(c context.Context) error {
	serverCart, err := rc.client.GetCart(c)
	if err != nil {
		return err
	}

	rc.Lock()
	defer rc.Unlock()

	lines := map[string]*remoteLine{}
	order := make([]string, 0, len(serverCart.Items))
	for _, serverItem := range serverCart.Items {
		state := newLineState(serverItem.Quantity)
		if existing, found := rc.lines[serverItem.SkuID]; found {
			state = existing.state
			state.Refetched(serverItem.Quantity)
		}
		lines[serverItem.SkuID] = &remoteLine{
			item: LineItem{
				SkuID:    serverItem.SkuID,
				ShopID:   serverItem.ShopID,
				Name:     serverItem.ProductName,
				Price:    serverItem.Price,
				Quantity: serverItem.Quantity,
				Image:    serverItem.ProductImage,
			},
			state: state,
		}
		order = append(order, serverItem.SkuID)
	}

	rc.lines = lines
	rc.order = order
	rc.selected = map[string]bool{}
	for _, skuID := range order {
		rc.selected[skuID] = true
	}
	rc.loaded = true

	return nil
}

func (rc *RemoteCart) Clear(c context.Context) error {
	rc.debouncer.CancelAll()

	err := rc.client.Clear(c)
	if err != nil {
		rc.notify(c, "", "Could not empty your cart")
		return err
	}

	rc.Discard()
	rc.Lock()
	rc.loaded = true
	rc.Unlock()

	return nil
}

// Invalidate makes the next read refetch the server cart. Line states are kept.
func (rc *RemoteCart) Invalidate() {
	rc.Lock()
	defer rc.Unlock()

	rc.loaded = false
}

// Flush sends all pending quantity changes now.
func (rc *RemoteCart) Flush() int {
	return rc.debouncer.FlushAll()
}

// Discard forgets all client state, including pending quantity changes. Used on logout.
func (rc *RemoteCart) Discard() {
	rc.debouncer.CancelAll()

	rc.Lock()
	defer rc.Unlock()

	rc.loaded = false
	rc.order = nil
	rc.lines = map[string]*remoteLine{}
	rc.selected = map[string]bool{}
	rc.deleting = map[string]bool{}
}

// Stop cancels pending quantity changes for good.
func (rc *RemoteCart) Stop() {
	rc.debouncer.Stop()
}

func (rc *RemoteCart) PendingUpdates() int {
	return rc.debouncer.Pending()
}

func (rc *RemoteCart) ensureLoaded(c context.Context) error {
	rc.Lock()
	loaded := rc.loaded
	rc.Unlock()

	if loaded {
		return nil
	}
	return rc.Reload(c)
}

func (rc *RemoteCart) dropLocked(skuID string) {
	delete(rc.lines, skuID)
	delete(rc.selected, skuID)
	rc.order = slices.DeleteFunc(rc.order, func(s string) bool {
		return s == skuID
	})
}

func (rc *RemoteCart) notify(c context.Context, skuID string, format string, args ...any) {
	rc.notifier.Notify(c, mynotify.Notification{
		Level:   mynotify.LevelError,
		Subject: skuID,
		Message: fmt.Sprintf(format, args...),
	})
}

func displayName(name string, skuID string) string {
	if name != "" {
		return name
	}
	return skuID
}
