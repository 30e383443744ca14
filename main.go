package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"github.com/solarbench/chargectl/charge"
	"github.com/solarbench/chargectl/hw"
)

// SafeGo launches a goroutine with panic recovery and retry logic.
// On panic, retries with exponential backoff (max 10 retries).
// Retry count resets if worker ran for 2+ minutes before failing.
// After exhausting retries, cancels context to trigger shutdown.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	go func() {
		retries := 0
		delay := time.Second

		for {
			startTime := time.Now()
			var panicValue any

			func() {
				defer func() {
					panicValue = recover()
				}()
				fn(ctx)
			}()

			// If function returned normally (no panic), exit the goroutine
			// This covers both context cancellation and unexpected completion
			if panicValue == nil {
				return
			}

			// If ran for resetAfter duration before panicking, reset retry state
			if time.Since(startTime) >= resetAfter {
				retries = 0
				delay = time.Second
			}

			retries++
			log.Printf("Panic in %s (attempt %d/%d): %v\n", name, retries, maxRetries, panicValue)

			// Check if we've exhausted retries
			if retries >= maxRetries {
				log.Printf("%s failed after %d retries, shutting down\n", name, maxRetries)
				cancel()
				return
			}

			// Wait before retry with exponential backoff
			log.Printf("%s will retry in %v\n", name, delay)
			select {
			case <-time.After(delay):
				// Double delay for next time, cap at max
				delay = min(delay*2, maxDelay)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// newBoard selects the hardware implementation by name.
func newBoard(name string) (hw.Board, error) {
	switch name {
	case "mock":
		return hw.NewMockBoard(), nil
	default:
		return nil, errors.New("unknown board: " + name)
	}
}

func main() {
	log.Println("Starting chargectl...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	board, err := newBoard(cfg.Board)
	if err != nil {
		log.Fatalf("Failed to create board: %v", err)
	}

	controller := charge.NewController(board, charge.Config{
		BatteryCapacityAh: cfg.BatteryCapacityAh,
	})

	// Create context for lifecycle management
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot fan-out: tick worker -> broadcast -> telemetry/debug
	snapshotChan := make(chan charge.Snapshot, 10)
	var downstreamChans []chan<- charge.Snapshot

	// Launch MQTT workers when a broker is configured
	if cfg.MQTTBroker != "" {
		mqttOutgoingChan := make(chan MQTTMessage, 100)
		mqttClientChan := make(chan mqtt.Client, 1) // Buffered to prevent blocking onConnect

		SafeGo(ctx, cancel, "mqtt-worker", func(ctx context.Context) {
			mqttWorker(ctx, cfg.MQTTBroker, cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTClientID, mqttClientChan)
		})
		SafeGo(ctx, cancel, "mqtt-sender-worker", func(ctx context.Context) {
			mqttSenderWorker(ctx, mqttOutgoingChan, mqttClientChan)
		})

		sender := NewMQTTSender(mqttOutgoingChan)
		telemetryChan := make(chan charge.Snapshot, 10)
		downstreamChans = append(downstreamChans, telemetryChan)
		SafeGo(ctx, cancel, "telemetry-worker", func(ctx context.Context) {
			telemetryWorker(ctx, telemetryChan, sender)
		})
	}

	// Launch debug console if enabled
	if cfg.DebugConsole {
		debugChan := make(chan charge.Snapshot, 10)
		downstreamChans = append(downstreamChans, debugChan)
		SafeGo(ctx, cancel, "debug-worker", func(ctx context.Context) {
			debugWorker(ctx, cancel, controller, cfg.EstimateStrictFraction, debugChan)
		})
	}

	SafeGo(ctx, cancel, "broadcast-worker", func(ctx context.Context) {
		broadcastWorker(ctx, snapshotChan, downstreamChans)
	})

	// Launch the control loop
	SafeGo(ctx, cancel, "tick-worker", func(ctx context.Context) {
		tickWorker(ctx, controller, cfg.TickInterval, snapshotChan)
	})
	log.Printf("Control loop started (tick every %v)\n", cfg.TickInterval)

	// Launch HTTP server
	router := newRouter(controller, cfg.EstimateStrictFraction)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, router),
		ReadHeaderTimeout: 5 * time.Second,
	}
	SafeGo(ctx, cancel, "http-server", func(ctx context.Context) {
		log.Printf("HTTP server listening on %s\n", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v\n", err)
			cancel()
		}
	})

	// Handle SIGINT and SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down\n", sig)
		cancel()
	case <-ctx.Done():
	}

	// Make sure the output is off before exiting
	controller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v\n", err)
	}

	log.Println("chargectl stopped")
}
