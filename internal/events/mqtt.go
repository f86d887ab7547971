package events

import (
	"encoding/json"
	"log"

	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/pkg/mqttbus"
)

// MQTTSink mirrors event lines to the events topic and structured
// state changes to the state topic. Publish failures are logged and
// swallowed.
type MQTTSink struct {
	pub mqttbus.IPublisher
}

func NewMQTTSink(pub mqttbus.IPublisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

func (s *MQTTSink) Event(msg string) {
	if err := s.pub.PublishToQos(mqttbus.TopicEvents, 0, false, msg); err != nil {
		log.Printf("events: mqtt publish: %v", err)
	}
}

func (s *MQTTSink) PublishState(evt model.StateChangeEvent) {
	b, err := json.Marshal(evt)
	if err != nil {
		log.Printf("events: marshal state event: %v", err)
		return
	}
	if err := s.pub.PublishToQos(mqttbus.TopicState, 1, false, string(b)); err != nil {
		log.Printf("events: mqtt state publish: %v", err)
	}
}

func (s *MQTTSink) PublishResult(evt model.RunResultEvent) {
	b, err := json.Marshal(evt)
	if err != nil {
		log.Printf("events: marshal result event: %v", err)
		return
	}
	if err := s.pub.PublishToQos(mqttbus.TopicState, 1, false, string(b)); err != nil {
		log.Printf("events: mqtt result publish: %v", err)
	}
}

func (s *MQTTSink) Close() {
	s.pub.Close()
}
