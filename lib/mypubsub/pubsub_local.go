package mypubsub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
)

// LocalPubSub delivers events synchronously to in-process subscribers, in subscription order.
type LocalPubSub struct {
	sync.RWMutex
	enveloper   enveloper
	subscribers map[string][]Handler
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = func(c context.Context, nower mytime.Nower, uuider myuuid.UUIDer) (PubSub, func(), error) {
			return NewLocalPubSub(nower, uuider), func() {}, nil
		}
	}
}

func NewLocalPubSub(nower mytime.Nower, uuider myuuid.UUIDer) *LocalPubSub {
	return &LocalPubSub{
		enveloper:   newEnveloper(nower, uuider),
		subscribers: map[string][]Handler{},
	}
}

func (ps *LocalPubSub) Subscribe(c context.Context, topic string, handler Handler) error {
	ps.Lock()
	defer ps.Unlock()

	ps.subscribers[topic] = append(ps.subscribers[topic], handler)
	return nil
}

func (ps *LocalPubSub) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := ps.enveloper.do(topic, event)
	if err != nil {
		return err
	}
	return ps.deliver(c, envelope)
}

func (ps *LocalPubSub) deliver(c context.Context, envelope myevents.EventEnvelope) error {
	ps.RLock()
	handlers := append([]Handler{}, ps.subscribers[envelope.Topic]...)
	ps.RUnlock()

	var errs []error
	for _, h := range handlers {
		err := h(c, envelope)
		if err != nil {
			errs = append(errs, fmt.Errorf("error handling %s: %w", envelope, err))
		}
	}
	return errors.Join(errs...)
}
