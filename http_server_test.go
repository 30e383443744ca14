package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarbench/chargectl/charge"
)

// stubBoard returns fixed readings so handler responses are deterministic
type stubBoard struct {
	mu         sync.Mutex
	currentRaw int
	batteryRaw int
	duty       int
}

func (b *stubBoard) ReadCurrent() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentRaw, nil
}

func (b *stubBoard) ReadBattery() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batteryRaw, nil
}

func (b *stubBoard) SetDuty(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.duty = level
	return nil
}

func newTestServer(t *testing.T, board *stubBoard, strict bool) (*httptest.Server, *charge.Controller, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	controller := charge.NewController(board, charge.Config{BatteryCapacityAh: 2.0, Clock: mock})
	ts := httptest.NewServer(newRouter(controller, strict))
	t.Cleanup(ts.Close)
	return ts, controller, mock
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestBatteryEndpoint(t *testing.T) {
	board := &stubBoard{currentRaw: 2000, batteryRaw: 2048}
	ts, _, _ := newTestServer(t, board, false)

	status, body := get(t, ts.URL+"/battery")

	assert.Equal(t, http.StatusOK, status)
	var resp batteryResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.InDelta(t, 3.3, resp.Voltage, 0.01)
	assert.InDelta(t, 6.6, resp.CapacityWh, 0.01)
	assert.InDelta(t, 78.6, resp.Percentage, 0.01)
}

func TestToggleEndpoint_StartsSession(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, controller, _ := newTestServer(t, board, false)

	status, body := get(t, ts.URL+"/toggle/1.5/0.5")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "LED ON, target 1.5 Wh, target 0.5 W", body)

	snap := controller.Snapshot()
	assert.Equal(t, charge.StatusActive, snap.Status)
	assert.Equal(t, 1.5, snap.TargetEnergyWh)
	assert.Equal(t, 0.5, snap.TargetPowerW)
}

func TestToggleEndpoint_RejectsInvalidNumbers(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, controller, _ := newTestServer(t, board, false)

	_, body := get(t, ts.URL+"/toggle/abc/1.0")
	assert.Equal(t, "Invalid energy or power", body)

	_, body = get(t, ts.URL+"/toggle/-1/1.0")
	assert.Equal(t, "Invalid energy or power", body)

	assert.Equal(t, charge.StatusIdle, controller.Snapshot().Status)
}

func TestToggleEndpoint_RejectsInsufficientCapacity(t *testing.T) {
	// Raw 931 reads as ~3.00 Wh of capacity on a 2 Ah battery
	board := &stubBoard{currentRaw: 2200, batteryRaw: 931}
	ts, controller, _ := newTestServer(t, board, false)

	_, body := get(t, ts.URL+"/toggle/5.0/1.0")

	assert.Equal(t, "Not enough battery capacity. Battery has 3.00 Wh, requested 5.00 Wh", body)
	assert.Equal(t, charge.StatusIdle, controller.Snapshot().Status)
}

func TestToggleEndpoint_RejectsWhenAlreadyActive(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, _, _ := newTestServer(t, board, false)

	_, body := get(t, ts.URL+"/toggle/1.0/1.0")
	require.Contains(t, body, "LED ON")

	_, body = get(t, ts.URL+"/toggle/1.0/1.0")
	assert.Equal(t, "LED already ON", body)
}

func TestStopEndpoint_WhenIdle(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, _, _ := newTestServer(t, board, false)

	status, body := get(t, ts.URL+"/stop")

	assert.Equal(t, http.StatusOK, status, "already_off is a normal status, not an error")
	assert.JSONEq(t, `{"status":"already_off"}`, body)
}

func TestStopEndpoint_ReportsDelivered(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, controller, mock := newTestServer(t, board, false)

	_, body := get(t, ts.URL+"/toggle/100/1.0")
	require.Contains(t, body, "LED ON")

	mock.Add(50 * time.Millisecond)
	controller.Tick()

	_, body = get(t, ts.URL+"/stop")

	var resp stopResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "stopped", resp.Status)
	require.NotNil(t, resp.DeliveredWh)
	require.NotNil(t, resp.DurationS)
	assert.Greater(t, *resp.DeliveredWh, 0.0)
	assert.InDelta(t, 0.05, *resp.DurationS, 1e-9)
}

func TestEstimateEndpoint(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, _, _ := newTestServer(t, board, false)

	_, body := get(t, ts.URL+"/estimate/1.0/0.5")
	assert.Equal(t, "Estimated time: 120 min 0 sec", body)

	_, body = get(t, ts.URL+"/estimate/1.0/0")
	assert.Equal(t, "Power must be greater than zero", body)

	_, body = get(t, ts.URL+"/estimate/abc/0.5")
	assert.Equal(t, "Invalid energy or power", body)

	// Permissive variant accepts fractions above one
	_, body = get(t, ts.URL+"/estimate/1.0/2.0")
	assert.Equal(t, "Estimated time: 30 min 0 sec", body)
}

func TestEstimateEndpoint_StrictVariant(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, _, _ := newTestServer(t, board, true)

	_, body := get(t, ts.URL+"/estimate/1.0/2.0")
	assert.Equal(t, "Power must be between 0 and 1", body)

	_, body = get(t, ts.URL+"/estimate/1.0/1.0")
	assert.Equal(t, "Estimated time: 60 min 0 sec", body)
}

func TestStatusEndpoint_ExposesLastSessionAfterAutoCompletion(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, controller, mock := newTestServer(t, board, false)

	_, body := get(t, ts.URL+"/toggle/0.001/1.0")
	require.Contains(t, body, "LED ON")

	// Push delivered energy past the 1 mWh target so the tick auto-completes
	mock.Add(60 * time.Second)
	controller.Tick()

	_, body = get(t, ts.URL+"/status")

	var resp statusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "idle", resp.State)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 0, resp.Duty)
	assert.GreaterOrEqual(t, resp.DeliveredWh, 0.001)
	assert.InDelta(t, 60.0, resp.DurationS, 0.01)

	// Stop after auto-completion still reports already_off
	_, body = get(t, ts.URL+"/stop")
	assert.JSONEq(t, `{"status":"already_off"}`, body)
}

func TestHealthEndpoint(t *testing.T) {
	board := &stubBoard{currentRaw: 2200, batteryRaw: 4095}
	ts, _, _ := newTestServer(t, board, false)

	status, body := get(t, ts.URL+"/health")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}
