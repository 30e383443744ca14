package main

import (
	"context"
	"time"

	"github.com/solarbench/chargectl/charge"
)

// tickWorker drives the control loop at a fixed cadence for the lifetime of
// the process. Each cycle runs one controller tick and hands the resulting
// snapshot downstream with a non-blocking send: a slow consumer must never
// delay the next tick.
func tickWorker(
	ctx context.Context,
	controller *charge.Controller,
	interval time.Duration,
	snapshotChan chan<- charge.Snapshot,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := controller.Tick()
			select {
			case snapshotChan <- snap:
			default:
			}

		case <-ctx.Done():
			return
		}
	}
}
