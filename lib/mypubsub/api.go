package mypubsub

import (
	"context"

	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
)

type Handler func(c context.Context, envelope myevents.EventEnvelope) error

//go:generate mockgen -source=api.go -package mypubsub -destination publisher_mock.go Publisher
type Publisher interface {
	Publish(c context.Context, topic string, event myevents.Event) error
}

type Subscriber interface {
	Subscribe(c context.Context, topic string, handler Handler) error
}

type PubSub interface {
	Publisher
	Subscriber
}

var New func(c context.Context, nower mytime.Nower, uuider myuuid.UUIDer) (PubSub, func(), error)
