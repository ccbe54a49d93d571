package checkoutevents

import (
	"context"
	"fmt"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
)

const (
	TopicName           = "checkout"
	checkoutStartedName = TopicName + ".started"
	orderPlacedName     = TopicName + ".order.completed"
	abandonedName       = TopicName + ".abandoned"
)

type CheckoutEventService interface {
	OnCheckoutStarted(c context.Context, topic string, event CheckoutStarted) error
	OnOrderPlaced(c context.Context, topic string, event OrderPlaced) error
	OnCheckoutAbandoned(c context.Context, topic string, event CheckoutAbandoned) error
}

func DispatchEvent(c context.Context, envelope myevents.EventEnvelope, service CheckoutEventService) error {
	switch envelope.EventTypeName {
	case checkoutStartedName:
		event := CheckoutStarted{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnCheckoutStarted(c, envelope.Topic, event)
	case orderPlacedName:
		event := OrderPlaced{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnOrderPlaced(c, envelope.Topic, event)
	case abandonedName:
		event := CheckoutAbandoned{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnCheckoutAbandoned(c, envelope.Topic, event)
	}

	return myerrors.NewNotImplementedError(fmt.Errorf("event %s not supported", envelope.EventTypeName))
}

type CheckoutStarted struct {
	SnapshotUID string
	ItemCount   int
	Subtotal    int64
}

func (e CheckoutStarted) GetEventTypeName() string {
	return checkoutStartedName
}

func (e CheckoutStarted) GetAggregateName() string {
	return e.SnapshotUID
}

type OrderPlaced struct {
	SnapshotUID string
	OrderCode   string
	OrderID     string
	GrandTotal  int64
	Skus        []string
}

func (e OrderPlaced) GetEventTypeName() string {
	return orderPlacedName
}

func (e OrderPlaced) GetAggregateName() string {
	return e.SnapshotUID
}

type CheckoutAbandoned struct {
	SnapshotUID string
	Reason      string
}

func (e CheckoutAbandoned) GetEventTypeName() string {
	return abandonedName
}

func (e CheckoutAbandoned) GetAggregateName() string {
	return e.SnapshotUID
}
