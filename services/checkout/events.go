package checkout

import (
	"context"
	"fmt"

	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mypubsub"
	"github.com/MarcGrol/shopfront/services/session/sessionevents"
)

func (s *Service) Subscribe(c context.Context, subscriber mypubsub.Subscriber) error {
	err := subscriber.Subscribe(c, sessionevents.TopicName, func(c context.Context, envelope myevents.EventEnvelope) error {
		return sessionevents.DispatchEvent(c, envelope, s)
	})
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %w", sessionevents.TopicName, err)
	}

	return nil
}

func (s *Service) OnLoggedIn(c context.Context, topic string, event sessionevents.LoggedIn) error {
	return nil
}

func (s *Service) OnTokenRefreshed(c context.Context, topic string, event sessionevents.TokenRefreshed) error {
	return nil
}

// OnLoggedOut drops the snapshot: it belongs to the session that just ended.
func (s *Service) OnLoggedOut(c context.Context, topic string, event sessionevents.LoggedOut) error {
	reason := "discarded on logout"
	if event.Forced {
		reason = "discarded on forced logout"
	}
	return s.discard(c, reason)
}
