package sessionevents

import (
	"context"
	"fmt"
	"time"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/lib/myevents"
)

const (
	TopicName          = "session"
	loggedInName       = TopicName + ".login.completed"
	tokenRefreshedName = TopicName + ".tokenRefresh.completed"
	loggedOutName      = TopicName + ".logout.completed"
)

type SessionEventService interface {
	OnLoggedIn(c context.Context, topic string, event LoggedIn) error
	OnTokenRefreshed(c context.Context, topic string, event TokenRefreshed) error
	OnLoggedOut(c context.Context, topic string, event LoggedOut) error
}

func DispatchEvent(c context.Context, envelope myevents.EventEnvelope, service SessionEventService) error {
	switch envelope.EventTypeName {
	case loggedInName:
		event := LoggedIn{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnLoggedIn(c, envelope.Topic, event)
	case tokenRefreshedName:
		event := TokenRefreshed{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnTokenRefreshed(c, envelope.Topic, event)
	case loggedOutName:
		event := LoggedOut{}
		err := envelope.Decode(&event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnLoggedOut(c, envelope.Topic, event)
	}

	return myerrors.NewNotImplementedError(fmt.Errorf("event %s not supported", envelope.EventTypeName))
}

type LoggedIn struct {
	Subject   string
	ExpiresAt time.Time
}

func (e LoggedIn) GetEventTypeName() string {
	return loggedInName
}

func (e LoggedIn) GetAggregateName() string {
	return e.Subject
}

type TokenRefreshed struct {
	Subject   string
	ExpiresAt time.Time
}

func (e TokenRefreshed) GetEventTypeName() string {
	return tokenRefreshedName
}

func (e TokenRefreshed) GetAggregateName() string {
	return e.Subject
}

// LoggedOut is published for explicit logouts and for forced ones after a failed refresh.
type LoggedOut struct {
	Subject string
	Forced  bool
	Reason  string
}

func (e LoggedOut) GetEventTypeName() string {
	return loggedOutName
}

func (e LoggedOut) GetAggregateName() string {
	return e.Subject
}
