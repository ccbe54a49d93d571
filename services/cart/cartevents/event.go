package cartevents

import (
	"context"
	"fmt"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
)

const (
	TopicName    = "cart"
	migratedName = TopicName + ".migration.completed"
)

type CartEventService interface {
	OnCartMigrated(c context.Context, topic string, event CartMigrated) error
}

func DispatchEvent(c context.Context, envelope myevents.EventEnvelope, service CartEventService) error {
	switch envelope.EventTypeName {
	case migratedName:
		event := CartMigrated{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnCartMigrated(c, envelope.Topic, event)
	}

	return myerrors.NewNotImplementedError(fmt.Errorf("event %s not supported", envelope.EventTypeName))
}

// CartMigrated is published once per login, after the anonymous cart moved to the server.
type CartMigrated struct {
	MigrationUID string
	MigratedSkus []string
	FailedSkus   []string
}

func (e CartMigrated) GetEventTypeName() string {
	return migratedName
}

func (e CartMigrated) GetAggregateName() string {
	return e.MigrationUID
}
