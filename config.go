package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup. A .env file
// in the working directory is loaded first if present.
type Config struct {
	HTTPAddr          string
	TickInterval      time.Duration
	BatteryCapacityAh float64
	Board             string

	MQTTBroker   string // empty disables telemetry
	MQTTUsername string
	MQTTPassword string
	MQTTClientID string

	DebugConsole           bool
	EstimateStrictFraction bool
}

func loadConfig() (Config, error) {
	cfg := Config{
		HTTPAddr:     envString("HTTP_ADDR", ":8080"),
		Board:        envString("BOARD", "mock"),
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		MQTTClientID: envString("MQTT_CLIENT_ID", "chargectl"),
	}

	tickMs, err := envInt("TICK_INTERVAL_MS", 50)
	if err != nil {
		return Config{}, err
	}
	if tickMs <= 0 {
		return Config{}, fmt.Errorf("TICK_INTERVAL_MS must be positive, got %d", tickMs)
	}
	cfg.TickInterval = time.Duration(tickMs) * time.Millisecond

	cfg.BatteryCapacityAh, err = envFloat("BATTERY_CAPACITY_AH", 2.0)
	if err != nil {
		return Config{}, err
	}
	if cfg.BatteryCapacityAh <= 0 {
		return Config{}, fmt.Errorf("BATTERY_CAPACITY_AH must be positive, got %v", cfg.BatteryCapacityAh)
	}

	cfg.DebugConsole, err = envBool("DEBUG_CONSOLE", false)
	if err != nil {
		return Config{}, err
	}
	cfg.EstimateStrictFraction, err = envBool("ESTIMATE_STRICT_FRACTION", false)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
