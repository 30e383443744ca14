package main

import (
	"context"
	"log"

	"github.com/solarbench/chargectl/charge"
)

// broadcastWorker receives session snapshots and fans out to the downstream
// workers (telemetry, debug console) using non-blocking sends so one slow
// consumer cannot hold up the others.
func broadcastWorker(
	ctx context.Context,
	inputChan <-chan charge.Snapshot,
	outputChans []chan<- charge.Snapshot,
) {
	for {
		select {
		case snap := <-inputChan:
			for i, ch := range outputChans {
				select {
				case ch <- snap:
				case <-ctx.Done():
					return
				default:
					log.Printf("Warning: downstream worker %d channel full, dropping snapshot\n", i)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
