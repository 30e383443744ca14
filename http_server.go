package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/solarbench/chargectl/charge"
)

// server exposes the command surface the booking layer calls to gate
// charging behind payment: battery status, start, stop, and duration
// estimates, plus a status query for the live or last-completed session.
type server struct {
	controller     *charge.Controller
	strictEstimate bool
}

type batteryResponse struct {
	Voltage    float64 `json:"voltage"`
	CapacityWh float64 `json:"capacity_Wh"`
	Percentage float64 `json:"percentage"`
}

type stopResponse struct {
	Status      string   `json:"status"`
	DeliveredWh *float64 `json:"delivered_Wh,omitempty"`
	DurationS   *float64 `json:"duration_s,omitempty"`
}

type statusResponse struct {
	State       string  `json:"state"`
	SessionID   string  `json:"session_id,omitempty"`
	TargetWh    float64 `json:"target_Wh"`
	TargetW     float64 `json:"target_W"`
	Duty        int     `json:"duty"`
	PowerW      float64 `json:"power_W"`
	DeliveredWh float64 `json:"delivered_Wh"`
	DurationS   float64 `json:"duration_s"`
}

func newRouter(controller *charge.Controller, strictEstimate bool) *mux.Router {
	s := &server{controller: controller, strictEstimate: strictEstimate}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/battery", s.handleBattery).Methods("GET")
	r.HandleFunc("/toggle/{energy}/{power}", s.handleToggle).Methods("GET")
	r.HandleFunc("/stop", s.handleStop).Methods("GET")
	r.HandleFunc("/estimate/{energy}/{power}", s.handleEstimate).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleBattery(w http.ResponseWriter, _ *http.Request) {
	state, err := s.controller.BatteryStatus()
	if err != nil {
		http.Error(w, "battery read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, batteryResponse{
		Voltage:    roundTo(state.Voltage, 2),
		CapacityWh: roundTo(state.CapacityWh, 2),
		Percentage: roundTo(state.Percentage, 1),
	})
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	energy, errE := strconv.ParseFloat(vars["energy"], 64)
	power, errP := strconv.ParseFloat(vars["power"], 64)
	if errE != nil || errP != nil {
		writeText(w, "Invalid energy or power")
		return
	}

	err := s.controller.Start(energy, power)
	var capErr *charge.CapacityError
	switch {
	case err == nil:
		writeText(w, fmt.Sprintf("LED ON, target %g Wh, target %g W", energy, power))
	case errors.As(err, &capErr):
		writeText(w, fmt.Sprintf("Not enough battery capacity. Battery has %.2f Wh, requested %.2f Wh",
			capErr.AvailableWh, capErr.RequestedWh))
	case errors.Is(err, charge.ErrAlreadyActive):
		writeText(w, "LED already ON")
	case errors.Is(err, charge.ErrInvalidParameter):
		writeText(w, "Invalid energy or power")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *server) handleStop(w http.ResponseWriter, _ *http.Request) {
	result := s.controller.Stop()
	if result.AlreadyOff {
		writeJSON(w, stopResponse{Status: "already_off"})
		return
	}
	delivered := roundTo(result.DeliveredWh, 4)
	duration := roundTo(result.DurationSeconds, 2)
	writeJSON(w, stopResponse{
		Status:      "stopped",
		DeliveredWh: &delivered,
		DurationS:   &duration,
	})
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	energy, errE := strconv.ParseFloat(vars["energy"], 64)
	fraction, errP := strconv.ParseFloat(vars["power"], 64)
	if errE != nil || errP != nil {
		writeText(w, "Invalid energy or power")
		return
	}

	est, err := charge.EstimateDuration(energy, fraction, s.strictEstimate)
	if err != nil {
		if s.strictEstimate {
			writeText(w, "Power must be between 0 and 1")
		} else {
			writeText(w, "Power must be greater than zero")
		}
		return
	}
	writeText(w, fmt.Sprintf("Estimated time: %d min %d sec", est.Minutes, est.Seconds))
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.controller.Snapshot()
	writeJSON(w, statusResponse{
		State:       snap.Status.String(),
		SessionID:   snap.SessionID,
		TargetWh:    snap.TargetEnergyWh,
		TargetW:     snap.TargetPowerW,
		Duty:        snap.DutyLevel,
		PowerW:      roundTo(snap.PowerW, 4),
		DeliveredWh: roundTo(snap.DeliveredWh, 4),
		DurationS:   roundTo(snap.ElapsedSeconds, 2),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v\n", err)
	}
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("Failed to write response: %v\n", err)
	}
}

func roundTo(v float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}
