package mqttbus

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes messages to a fixed topic.
type IPublisher interface {
	PublishMessage(message string) error
	PublishToQos(topic string, qos byte, retained bool, message string) error
	Close()
}

type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishMessage publishes to the publisher's topic at QoS 0.
func (p *Publisher) PublishMessage(message string) error {
	return p.PublishToQos(p.topic, 0, false, message)
}

// PublishToQos publishes to an explicit topic with an explicit QoS.
func (p *Publisher) PublishToQos(topic string, qos byte, retained bool, message string) error {
	token := p.client.Publish(topic, qos, retained, message)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) Close() {
	CloseConn(p.client)
}
