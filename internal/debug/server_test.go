package debug

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"fxcore/internal/config"
	"fxcore/internal/particles"
	"fxcore/internal/world"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecorderCounterDeltas(t *testing.T) {
	r := NewRecorder()
	base := counterValue(t, insertsDropped)

	r.RecordFrame(particles.Stats{Frame: 1, DroppedInserts: 5})
	r.RecordFrame(particles.Stats{Frame: 2, DroppedInserts: 7})
	if got := counterValue(t, insertsDropped) - base; got != 7 {
		t.Errorf("Expected 7 dropped inserts counted, got %v", got)
	}

	// A new System starts its counters over
	r.RecordFrame(particles.Stats{Frame: 1, DroppedInserts: 2})
	if got := counterValue(t, insertsDropped) - base; got != 9 {
		t.Errorf("Expected 9 after counter reset, got %v", got)
	}
}

func TestDelta(t *testing.T) {
	tests := []struct {
		cur, prev, want uint64
	}{
		{10, 4, 6},
		{4, 4, 0},
		{3, 9, 3},
	}
	for _, tt := range tests {
		if got := delta(tt.cur, tt.prev); got != tt.want {
			t.Errorf("delta(%d, %d): expected %d, got %d", tt.cur, tt.prev, tt.want, got)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dialStats(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStatsHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewStatsHub()
	go hub.Run(ctx)
	ts := newTestServer(t, RouterConfig{Hub: hub})

	conn := dialStats(t, ts.URL)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast("fx:stats", newFakeStats().s)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg struct {
		Event string          `json:"event"`
		Data  particles.Stats `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Event != "fx:stats" || msg.Data.Frame != 42 {
		t.Errorf("Expected fx:stats for frame 42, got %q frame %d", msg.Event, msg.Data.Frame)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestStatsHubBroadcastLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewStatsHub()
	go hub.Run(ctx)
	hub.StartBroadcastLoop(ctx, newFakeStats(), 10*time.Millisecond)
	ts := newTestServer(t, RouterConfig{Hub: hub})

	conn := dialStats(t, ts.URL)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, data, err := conn.ReadMessage(); err != nil {
		t.Fatalf("Expected a periodic stats message, got %v", err)
	} else if !strings.Contains(string(data), `"event":"fx:stats"`) {
		t.Errorf("Expected fx:stats event, got %s", data)
	}
}

func TestStatsHubRejectsForeignOrigin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewStatsHub()
	go hub.Run(ctx)
	ts := newTestServer(t, RouterConfig{Hub: hub})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://example.com"}}
	if conn, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		conn.Close()
		t.Error("Expected foreign origin rejected")
	}
}

func TestStatsHubClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewStatsHub()
	go hub.Run(ctx)
	ts := newTestServer(t, RouterConfig{Hub: hub})

	conn := dialStats(t, ts.URL)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected connection closed after cancel")
	}
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestServerStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.DefaultDebug()
	cfg.Enabled = true
	cfg.ListenAddr = "127.0.0.1:0"

	playback := world.NewDemo(1)
	srv := NewServer(cfg, newFakeStats(), playback, world.NewTuning(config.DefaultTuning()))
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if srv.Addr() == "" || strings.HasSuffix(srv.Addr(), ":0") {
		t.Fatalf("Expected a bound port, got %q", srv.Addr())
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "OK" {
		t.Errorf("Expected OK, got %q", body)
	}

	resp, err = http.Post("http://"+srv.Addr()+"/api/playback", "application/json", strings.NewReader(`{"paused": true}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if !playback.Paused() {
		t.Error("Expected demo paused through the server")
	}
}

func TestLocalOnly(t *testing.T) {
	t.Setenv("ALLOW_DEBUG_EXTERNAL", "")

	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:6060", "127.0.0.1:6060"},
		{"localhost:7000", "localhost:7000"},
		{"[::1]:6060", "[::1]:6060"},
		{"0.0.0.0:6060", "127.0.0.1:6060"},
		{":9000", "127.0.0.1:9000"},
		{"garbage", "127.0.0.1:6060"},
	}
	for _, tt := range tests {
		if got := localOnly(tt.addr); got != tt.want {
			t.Errorf("localOnly(%q): expected %q, got %q", tt.addr, tt.want, got)
		}
	}

	t.Setenv("ALLOW_DEBUG_EXTERNAL", "true")
	if got := localOnly("0.0.0.0:6060"); got != "0.0.0.0:6060" {
		t.Errorf("Expected external bind allowed, got %q", got)
	}
}
