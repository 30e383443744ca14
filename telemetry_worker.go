package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/solarbench/chargectl/charge"
)

const (
	topicSessionState = "chargectl/session/state"
	topicSessionEvent = "chargectl/session/event"
)

type sessionStatePayload struct {
	State       string  `json:"state"`
	SessionID   string  `json:"session_id,omitempty"`
	TargetWh    float64 `json:"target_Wh"`
	TargetW     float64 `json:"target_W"`
	Duty        int     `json:"duty"`
	PowerW      float64 `json:"power_W"`
	DeliveredWh float64 `json:"delivered_Wh"`
	DurationS   float64 `json:"duration_s"`
}

type sessionEventPayload struct {
	Event       string  `json:"event"`
	SessionID   string  `json:"session_id,omitempty"`
	DeliveredWh float64 `json:"delivered_Wh"`
	DurationS   float64 `json:"duration_s"`
}

// telemetryWorker publishes session snapshots over MQTT: a state message for
// every active tick, and a started/completed event on each status transition.
// "completed" covers both explicit stops and tick-driven auto-completion.
func telemetryWorker(
	ctx context.Context,
	snapshotChan <-chan charge.Snapshot,
	sender *MQTTSender,
) {
	log.Println("Telemetry worker started")

	last := charge.StatusIdle
	for {
		select {
		case snap := <-snapshotChan:
			if snap.Status != last {
				event := "completed"
				if snap.Status == charge.StatusActive {
					event = "started"
				}
				publishJSON(sender, topicSessionEvent, sessionEventPayload{
					Event:       event,
					SessionID:   snap.SessionID,
					DeliveredWh: snap.DeliveredWh,
					DurationS:   snap.ElapsedSeconds,
				}, 1)
				last = snap.Status
			}

			if snap.Status != charge.StatusActive {
				continue
			}
			publishJSON(sender, topicSessionState, sessionStatePayload{
				State:       snap.Status.String(),
				SessionID:   snap.SessionID,
				TargetWh:    snap.TargetEnergyWh,
				TargetW:     snap.TargetPowerW,
				Duty:        snap.DutyLevel,
				PowerW:      snap.PowerW,
				DeliveredWh: snap.DeliveredWh,
				DurationS:   snap.ElapsedSeconds,
			}, 0)

		case <-ctx.Done():
			log.Println("Telemetry worker stopped")
			return
		}
	}
}

func publishJSON(sender *MQTTSender, topic string, payload any, qos byte) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal telemetry payload: %v\n", err)
		return
	}
	sender.Send(MQTTMessage{Topic: topic, Payload: data, QoS: qos})
}
