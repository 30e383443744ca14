package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/solarbench/chargectl/charge"
)

// readlineWriter wraps log output to work with readline
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err = os.Stderr.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

// Global readline writer for log output
var rlWriter = &readlineWriter{}

// DebugState holds the console's view of the live session
type DebugState struct {
	controller     *charge.Controller
	strictEstimate bool
	watching       bool
	lastLine       string
	rl             *readline.Instance
}

// print outputs a line, handling the readline prompt properly
func (s *DebugState) print(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if s.rl != nil {
		s.rl.Clean()
		fmt.Println(line)
		s.rl.Refresh()
	} else {
		fmt.Println(line)
	}
}

// PrintStatus prints a session snapshot
func (s *DebugState) PrintStatus(snap charge.Snapshot) {
	s.print("state=%s id=%s target=%g Wh @ %g W duty=%d power=%.4f W delivered=%.4f Wh elapsed=%.2fs",
		snap.Status, snap.SessionID, snap.TargetEnergyWh, snap.TargetPowerW,
		snap.DutyLevel, snap.PowerW, snap.DeliveredWh, snap.ElapsedSeconds)
}

// PrintRow prints a watch line for the snapshot, only when values changed
func (s *DebugState) PrintRow(snap charge.Snapshot) {
	line := fmt.Sprintf("%-6s | %4d | %8.4f W | %10.4f Wh | %8.2fs",
		snap.Status, snap.DutyLevel, snap.PowerW, snap.DeliveredWh, snap.ElapsedSeconds)
	if line == s.lastLine {
		return
	}
	s.lastLine = line
	s.print("%s", line)
}

// handleDebugCommand processes a console command
func handleDebugCommand(cmd string, state *DebugState) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "status":
		state.PrintStatus(state.controller.Snapshot())

	case "battery":
		bat, err := state.controller.BatteryStatus()
		if err != nil {
			log.Printf("Error: %v", err)
			return
		}
		state.print("voltage=%.2f V capacity=%.2f Wh charge=%.1f%%",
			bat.Voltage, bat.CapacityWh, bat.Percentage)

	case "start":
		if len(parts) != 3 {
			log.Println("Usage: start <energy Wh> <power W>")
			return
		}
		energy, errE := strconv.ParseFloat(parts[1], 64)
		power, errP := strconv.ParseFloat(parts[2], 64)
		if errE != nil || errP != nil {
			log.Println("Error: energy and power must be numbers")
			return
		}
		if err := state.controller.Start(energy, power); err != nil {
			log.Printf("Error: %v", err)
			return
		}
		state.PrintStatus(state.controller.Snapshot())

	case "stop":
		result := state.controller.Stop()
		if result.AlreadyOff {
			state.print("already off")
			return
		}
		state.print("stopped: delivered %.4f Wh in %.2fs", result.DeliveredWh, result.DurationSeconds)

	case "estimate":
		if len(parts) != 3 {
			log.Println("Usage: estimate <energy Wh> <power fraction>")
			return
		}
		energy, errE := strconv.ParseFloat(parts[1], 64)
		fraction, errP := strconv.ParseFloat(parts[2], 64)
		if errE != nil || errP != nil {
			log.Println("Error: energy and fraction must be numbers")
			return
		}
		est, err := charge.EstimateDuration(energy, fraction, state.strictEstimate)
		if err != nil {
			log.Printf("Error: %v", err)
			return
		}
		state.print("estimated time: %d min %d sec", est.Minutes, est.Seconds)

	case "watch":
		state.watching = true
		state.lastLine = ""
		state.print("%-6s | %4s | %10s | %13s | %9s", "state", "duty", "power", "delivered", "elapsed")

	case "unwatch":
		state.watching = false
		log.Println("Watch stopped")

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  status                        - Print the current session snapshot")
		fmt.Println("  battery                       - Print the battery state")
		fmt.Println("  start <Wh> <W>                - Start a session")
		fmt.Println("  stop                          - Stop the session")
		fmt.Println("  estimate <Wh> <fraction>      - Estimate charge duration")
		fmt.Println("  watch                         - Print live ticks as they change")
		fmt.Println("  unwatch                       - Stop printing live ticks")
		fmt.Println("  help                          - Show this help")

	default:
		log.Printf("Unknown command: %s (try 'help')", parts[0])
	}
}

// readlineLoop runs the readline loop, sending commands to the channel
func readlineLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	rl *readline.Instance,
	commandChan chan<- string,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel() // Ctrl+C pressed, shutdown the app
			return
		}
		if err != nil {
			return // EOF or other error
		}
		line = strings.TrimSpace(line)
		if line != "" {
			commandChan <- line
		}
	}
}

// getHistoryFilePath returns the path for debug history file
func getHistoryFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // No history if we can't find home
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	chargectlCache := filepath.Join(cacheDir, "chargectl")
	_ = os.MkdirAll(chargectlCache, 0750)
	return filepath.Join(chargectlCache, "debug_history")
}

// debugWorker provides an interactive console against the live controller
func debugWorker(
	ctx context.Context,
	cancel context.CancelFunc,
	controller *charge.Controller,
	strictEstimate bool,
	snapshotChan <-chan charge.Snapshot,
) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: getHistoryFilePath(),
	})
	if err != nil {
		log.Printf("Debug worker: readline init failed: %v", err)
		return
	}
	defer func() {
		_ = rl.Close()
		rlWriter.rl = nil // Clear readline reference on exit
	}()

	// Redirect log output through readline-aware writer
	rlWriter.rl = rl
	log.SetOutput(rlWriter)

	log.Println("Debug worker started (type 'help' for commands)")

	commandChan := make(chan string, 10)
	state := &DebugState{controller: controller, strictEstimate: strictEstimate, rl: rl}

	go readlineLoop(ctx, cancel, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			handleDebugCommand(cmd, state)
		case snap := <-snapshotChan:
			if state.watching {
				state.PrintRow(snap)
			}
		case <-ctx.Done():
			log.Println("Debug worker stopped")
			return
		}
	}
}
