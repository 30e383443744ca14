package main

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTMessage represents an outgoing MQTT message
type MQTTMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// MQTTSender wraps a channel for sending MQTT messages from workers
type MQTTSender struct {
	ch chan<- MQTTMessage
}

// NewMQTTSender creates a new MQTTSender wrapping the given channel
func NewMQTTSender(ch chan<- MQTTMessage) *MQTTSender {
	return &MQTTSender{ch: ch}
}

// Send queues a message for publishing. Non-blocking: telemetry must never
// stall a worker, so a full outgoing buffer drops the message instead.
func (s *MQTTSender) Send(msg MQTTMessage) {
	select {
	case s.ch <- msg:
	default:
		log.Printf("MQTT outgoing queue full, dropping message for %s\n", msg.Topic)
	}
}

// mqttSenderWorker publishes outgoing messages, buffering them until a
// connected client arrives on clientChan. Reconnects deliver a fresh client
// through the same channel.
func mqttSenderWorker(
	ctx context.Context,
	outgoingChan <-chan MQTTMessage,
	clientChan <-chan mqtt.Client,
) {
	var client mqtt.Client
	var pending []MQTTMessage
	const maxPending = 100

	publish := func(msg MQTTMessage) {
		token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
		if token.Wait() && token.Error() != nil {
			log.Printf("Failed to publish to %s: %v\n", msg.Topic, token.Error())
		}
	}

	for {
		select {
		case c := <-clientChan:
			client = c
			for _, msg := range pending {
				publish(msg)
			}
			pending = nil

		case msg := <-outgoingChan:
			if client == nil || !client.IsConnected() {
				if len(pending) < maxPending {
					pending = append(pending, msg)
				}
				continue
			}
			publish(msg)

		case <-ctx.Done():
			return
		}
	}
}
