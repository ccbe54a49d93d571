package cart

import (
	"context"
	"fmt"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/services/checkout/checkoutevents"
	"github.com/MarcGrol/shopfront/services/session/sessionevents"
)

func (r *Reconciler) Subscribe(c context.Context, subscriber mypubsub.Subscriber) error {
	err := subscriber.Subscribe(c, sessionevents.TopicName, func(c context.Context, envelope myevents.EventEnvelope) error {
		return sessionevents.DispatchEvent(c, envelope, r)
	})
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %w", sessionevents.TopicName, err)
	}

	err = subscriber.Subscribe(c, checkoutevents.TopicName, func(c context.Context, envelope myevents.EventEnvelope) error {
		return checkoutevents.DispatchEvent(c, envelope, r)
	})
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %w", checkoutevents.TopicName, err)
	}

	return nil
}

func (r *Reconciler) OnLoggedIn(c context.Context, topic string, event sessionevents.LoggedIn) error {
	return nil
}

func (r *Reconciler) OnTokenRefreshed(c context.Context, topic string, event sessionevents.TokenRefreshed) error {
	return nil
}

// OnLoggedOut forgets the remote cart; quantity changes still waiting for their quiet
// period are dropped, they can no longer be sent.
func (r *Reconciler) OnLoggedOut(c context.Context, topic string, event sessionevents.LoggedOut) error {
	dropped := r.remote.PendingUpdates()
	r.Discard()

	r.logger.Log(c, event.Subject, mylog.SeverityInfo, "Remote cart discarded after logout (forced: %v, dropped updates: %d)", event.Forced, dropped)

	return nil
}

func (r *Reconciler) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	return nil
}

func (r *Reconciler) OnCheckoutAbandoned(c context.Context, topic string, event checkoutevents.CheckoutAbandoned) error {
	return nil
}

// OnOrderPlaced brings the cart in line with the order: the server has dropped the ordered
// lines, so the remote cart is refetched; in local mode the ordered lines are removed.
func (r *Reconciler) OnOrderPlaced(c context.Context, topic string, event checkoutevents.OrderPlaced) error {
	if r.Mode(c) == ModeRemote {
		err := r.remote.Reload(c)
		if err != nil {
			r.logger.Log(c, event.OrderCode, mylog.SeverityWarn, "Error refetching cart after order: %s", err)
			r.remote.Invalidate()
		}
		return nil
	}

	for _, skuID := range event.Skus {
		err := r.local.Remove(c, skuID)
		if err != nil && !myerrors.IsNotFound(err) {
			return fmt.Errorf("error removing ordered sku %s from local cart: %w", skuID, err)
		}
	}
	return nil
}
