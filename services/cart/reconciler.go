package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mynotify"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/lib/myuuid"
	"github.com/MarcGrol/shopfront/services/cart/cartevents"
)

//go:generate mockgen -source=reconciler.go -package cart -destination reconciler_mock.go SessionChecker

type SessionChecker interface {
	HasValidSession(c context.Context) bool
}

// Reconciler routes every cart operation to the local cart or to the remote cart,
// depending on whether a valid session exists at the time of the call.
type Reconciler struct {
	session   SessionChecker
	local     *LocalCart
	remote    *RemoteCart
	uuider    myuuid.UUIDer
	notifier  mynotify.Notifier
	publisher mypubsub.Publisher
	logger    mylog.Logger
}

func NewReconciler(session SessionChecker, local *LocalCart, remote *RemoteCart, uuider myuuid.UUIDer,
	notifier mynotify.Notifier, publisher mypubsub.Publisher) *Reconciler {
	return &Reconciler{
		session:   session,
		local:     local,
		remote:    remote,
		uuider:    uuider,
		notifier:  notifier,
		publisher: publisher,
		logger:    mylog.New("cart"),
	}
}

func (r *Reconciler) Mode(c context.Context) Mode {
	if r.session.HasValidSession(c) {
		return ModeRemote
	}
	return ModeLocal
}

func (r *Reconciler) Provider(c context.Context) Provider {
	if r.Mode(c) == ModeRemote {
		return r.remote
	}
	return r.local
}

func (r *Reconciler) Add(c context.Context, req AddItemRequest) error {
	return r.Provider(c).Add(c, req)
}

func (r *Reconciler) UpdateQuantity(c context.Context, skuID string, quantity int) error {
	return r.Provider(c).UpdateQuantity(c, skuID, quantity)
}

func (r *Reconciler) Remove(c context.Context, skuID string) error {
	return r.Provider(c).Remove(c, skuID)
}

func (r *Reconciler) ToggleSelection(c context.Context, skuID string) error {
	return r.Provider(c).ToggleSelection(c, skuID)
}

func (r *Reconciler) Items(c context.Context) ([]LineItem, error) {
	return r.Provider(c).Items(c)
}

func (r *Reconciler) SelectedSubtotal(c context.Context) (int64, error) {
	return r.Provider(c).SelectedSubtotal(c)
}

func (r *Reconciler) Count(c context.Context) (int, error) {
	return r.Provider(c).Count(c)
}

func (r *Reconciler) Reload(c context.Context) error {
	return r.Provider(c).Reload(c)
}

func (r *Reconciler) Clear(c context.Context) error {
	return r.Provider(c).Clear(c)
}

// Migrate moves the anonymous cart into the remote cart, one line at a time. Lines the
// server refuses are reported and skipped; the local cart is emptied regardless.
func (r *Reconciler) Migrate(c context.Context) (MigrationReport, error) {
	report := MigrationReport{
		UID: r.uuider.Create(),
	}

	items, err := r.local.Items(c)
	if err != nil {
		return report, fmt.Errorf("error reading local cart for migration: %w", err)
	}

	for _, item := range items {
		err := r.remote.addItem(c, item.SkuID, item.Quantity)
		if err != nil {
			r.logger.Log(c, report.UID, mylog.SeverityWarn, "Error migrating sku %s: %s", item.SkuID, err)
			report.Failed = append(report.Failed, MigrationFailure{
				Item:   item,
				Reason: err.Error(),
			})
			continue
		}
		report.Migrated = append(report.Migrated, item)
	}

	err = r.local.Clear(c)
	if err != nil {
		return report, fmt.Errorf("error clearing local cart after migration: %w", err)
	}

	err = r.remote.Reload(c)
	if err != nil {
		r.logger.Log(c, report.UID, mylog.SeverityWarn, "Error reloading remote cart after migration: %s", err)
	}

	if !report.Complete() {
		r.notifier.Notify(c, mynotify.Notification{
			Level:   mynotify.LevelError,
			Subject: report.UID,
			Message: fmt.Sprintf("%d item(s) could not be moved to your cart: %s", len(report.Failed), failedNames(report.Failed)),
		})
	}

	r.logger.Log(c, report.UID, mylog.SeverityInfo, "Migrated %d of %d local lines", len(report.Migrated), len(items))

	err = r.publisher.Publish(c, cartevents.TopicName, cartevents.CartMigrated{
		MigrationUID: report.UID,
		MigratedSkus: skusOf(report.Migrated),
		FailedSkus:   skusOf(failedItems(report.Failed)),
	})
	if err != nil {
		r.logger.Log(c, report.UID, mylog.SeverityWarn, "Error publishing migration event: %s", err)
	}

	return report, nil
}

// Discard drops remote client state and pending quantity changes. Used on logout.
func (r *Reconciler) Discard() {
	r.remote.Discard()
}

func (r *Reconciler) Flush() int {
	return r.remote.Flush()
}

func (r *Reconciler) Stop() {
	r.remote.Stop()
}

func skusOf(items []LineItem) []string {
	skus := []string{}
	for _, item := range items {
		skus = append(skus, item.SkuID)
	}
	return skus
}

func failedItems(failures []MigrationFailure) []LineItem {
	items := []LineItem{}
	for _, f := range failures {
		items = append(items, f.Item)
	}
	return items
}

func failedNames(failures []MigrationFailure) string {
	names := []string{}
	for _, f := range failures {
		names = append(names, displayName(f.Item.Name, f.Item.SkuID))
	}
	return strings.Join(names, ", ")
}
