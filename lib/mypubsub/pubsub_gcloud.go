package mypubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"cloud.google.com/go/pubsub"

	"github.com/MarcGrol/shopfront/lib/myevents"
	"github.com/MarcGrol/shopfront/lib/mylog"
	"github.com/MarcGrol/shopfront/lib/mytime"
	"github.com/MarcGrol/shopfront/lib/myuuid"
)

// gcloudPubSub delivers locally and mirrors every envelope onto a Cloud Pub/Sub topic
// with the same name, so other processes can observe session and cart activity.
type gcloudPubSub struct {
	sync.Mutex
	local  *LocalPubSub
	client *pubsub.Client
	topics map[string]*pubsub.Topic
	logger mylog.Logger
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudPubSub
	}
}

func newGcloudPubSub(c context.Context, nower mytime.Nower, uuider myuuid.UUIDer) (PubSub, func(), error) {
	client, err := pubsub.NewClient(c, os.Getenv("GOOGLE_CLOUD_PROJECT"))
	if err != nil {
		return nil, func() {}, fmt.Errorf("error creating pubsub-client: %w", err)
	}
	return &gcloudPubSub{
			local:  NewLocalPubSub(nower, uuider),
			client: client,
			topics: map[string]*pubsub.Topic{},
			logger: mylog.New("pubsub"),
		}, func() {
			client.Close()
		}, nil
}

func (ps *gcloudPubSub) Subscribe(c context.Context, topicName string, handler Handler) error {
	return ps.local.Subscribe(c, topicName, handler)
}

func (ps *gcloudPubSub) Publish(c context.Context, topicName string, event myevents.Event) error {
	envelope, err := ps.local.enveloper.do(topicName, event)
	if err != nil {
		return err
	}

	err = ps.mirror(c, envelope)
	if err != nil {
		// local delivery must not depend on the remote topic
		ps.logger.Log(c, envelope.AggregateUID, mylog.SeverityWarn, "Error mirroring %s: %s", envelope, err)
	}

	return ps.local.deliver(c, envelope)
}

func (ps *gcloudPubSub) mirror(c context.Context, envelope myevents.EventEnvelope) error {
	topic, err := ps.topic(c, envelope.Topic)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("error marshalling envelope: %w", err)
	}

	_, err = topic.Publish(c, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"eventType": envelope.EventTypeName,
			"aggregate": envelope.AggregateUID,
		},
	}).Get(c)
	if err != nil {
		return fmt.Errorf("error publishing event on topic %s: %w", envelope.Topic, err)
	}
	return nil
}

func (ps *gcloudPubSub) topic(c context.Context, topicName string) (*pubsub.Topic, error) {
	ps.Lock()
	defer ps.Unlock()

	topic, found := ps.topics[topicName]
	if found {
		return topic, nil
	}

	topic = ps.client.Topic(topicName)
	exists, err := topic.Exists(c)
	if err != nil {
		return nil, fmt.Errorf("error checking if topic %s exists: %w", topicName, err)
	}
	if !exists {
		topic, err = ps.client.CreateTopic(c, topicName)
		if err != nil {
			return nil, fmt.Errorf("error creating topic %s: %w", topicName, err)
		}
		ps.logger.Log(c, "", mylog.SeverityInfo, "Created topic %s", topicName)
	}
	ps.topics[topicName] = topic

	return topic, nil
}
