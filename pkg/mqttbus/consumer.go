package mqttbus

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one inbound message.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes to a topic and feeds messages to a handler.
type IConsumer interface {
	Consume(ctx context.Context)
	SetHandler(handler Handler)
}

type Consumer struct {
	client  mqtt.Client
	topic   string
	handler Handler
}

func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return &Consumer{client: client, topic: topic, handler: handler}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// Override and state messages must survive a flaky link; plain event
// lines are best effort.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, TopicOverride) || strings.HasPrefix(t, TopicState) {
		return 1
	}
	return 0
}

// Consume subscribes and blocks until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context) {
	token := c.client.Subscribe(
		c.topic,
		qosFor(c.topic),
		func(client mqtt.Client, message mqtt.Message) {
			if c.handler == nil {
				log.Printf("mqttbus: no handler set for topic %s", c.topic)
				return
			}
			if err := c.handler(c.topic, message); err != nil {
				log.Printf("mqttbus: handler error on %s: %v", c.topic, err)
			}
		},
	)
	if token.Wait() && token.Error() != nil {
		log.Printf("mqttbus: subscribe to %s failed: %v", c.topic, token.Error())
		return
	}
	log.Printf("mqttbus: subscribed to %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}
