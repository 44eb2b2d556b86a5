package debug

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fxcore/internal/config"
	"fxcore/internal/particles"
	"fxcore/internal/world"
)

// fakeStats returns a fixed summary.
type fakeStats struct {
	s particles.Stats
}

func (f *fakeStats) Stats() particles.Stats { return f.s }

func newFakeStats() *fakeStats {
	return &fakeStats{s: particles.Stats{
		Frame:    42,
		Capacity: 8192,
		Free:     8182,
		Live:     [particles.NumGroups]int{3, 2, 5},
	}}
}

var testLimits = &RateLimitConfig{
	RequestsPerSecond: 1000,
	Burst:             1000,
	CleanupInterval:   time.Hour,
}

func newTestServer(t *testing.T, cfg RouterConfig) *httptest.Server {
	t.Helper()
	if cfg.Stats == nil {
		cfg.Stats = newFakeStats()
	}
	if cfg.RateLimitConfig == nil {
		cfg.RateLimitConfig = testLimits
	}
	cfg.DisableLogging = true
	ts := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", resp.StatusCode, body)
	}
}

func TestGetStats(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/stats", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Stats     particles.Stats `json:"stats"`
		TotalLive int             `json:"totalLive"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.TotalLive != 10 {
		t.Errorf("Expected totalLive 10, got %d", result.TotalLive)
	}
	if result.Stats.Frame != 42 || result.Stats.Live[particles.GroupGeneral] != 5 {
		t.Errorf("Expected frame 42 with 5 general, got %+v", result.Stats)
	}
}

func TestPlaybackControl(t *testing.T) {
	tests := []struct {
		name       string
		demo       bool
		body       string
		wantStatus int
		wantPaused bool
		wantSpeed  float64
	}{
		{"pause demo", true, `{"paused": true}`, http.StatusOK, true, 1},
		{"speed up demo", true, `{"speed": 2.5}`, http.StatusOK, false, 2.5},
		{"pause and speed", true, `{"paused": true, "speed": 0.5}`, http.StatusOK, true, 0.5},
		{"zero speed", true, `{"speed": 0}`, http.StatusBadRequest, false, 1},
		{"invalid json", true, `{invalid}`, http.StatusBadRequest, false, 1},
		{"pause live game", false, `{"paused": true}`, http.StatusConflict, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			playback := world.NewLive()
			if tt.demo {
				playback = world.NewDemo(1)
			}
			ts := newTestServer(t, RouterConfig{Playback: playback})

			resp := doJSON(t, http.MethodPost, ts.URL+"/api/playback", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			info := playback.Info()
			if info.Paused != tt.wantPaused || info.Speed != tt.wantSpeed {
				t.Errorf("Expected paused=%v speed=%v, got %+v", tt.wantPaused, tt.wantSpeed, info)
			}
		})
	}
}

func TestGetPlayback(t *testing.T) {
	playback := world.NewDemo(2)
	ts := newTestServer(t, RouterConfig{Playback: playback})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/playback", "")
	var info particles.PlaybackInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !info.Demo || info.Speed != 2 {
		t.Errorf("Expected demo at 2x, got %+v", info)
	}
}

func TestTuningControl(t *testing.T) {
	tuning := world.NewTuning(config.DefaultTuning())
	ts := newTestServer(t, RouterConfig{Tuning: tuning})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/tuning", "")
	var all map[string]world.ProjectileParams
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if all["grenade"].Speed != 1000 {
		t.Errorf("Expected grenade speed 1000, got %+v", all["grenade"])
	}

	tests := []struct {
		name       string
		weapon     string
		body       string
		wantStatus int
	}{
		{"valid", "grenade", `{"curvature": 5, "speed": 800}`, http.StatusOK},
		{"unknown weapon", "laser", `{"curvature": 1, "speed": 1}`, http.StatusNotFound},
		{"negative speed", "gun", `{"curvature": 1, "speed": -1}`, http.StatusBadRequest},
		{"invalid json", "gun", `nope`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPut, ts.URL+"/api/tuning/"+tt.weapon, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}

	c, s := tuning.ProjectileParams(particles.WeaponGrenade)
	if c != 5 || s != 800 {
		t.Errorf("Expected grenade (5, 800), got (%v, %v)", c, s)
	}
	if c, s := tuning.ProjectileParams(particles.WeaponGun); c != 1.25 || s != 2200 {
		t.Errorf("Expected gun untouched, got (%v, %v)", c, s)
	}
}

func TestControlsNotMountedWhenNil(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	for _, path := range []string{"/api/playback", "/api/tuning", "/ws"} {
		resp := doJSON(t, http.MethodGet, ts.URL+path, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 for %s, got %d", path, resp.StatusCode)
		}
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, RouterConfig{
		RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, CleanupInterval: time.Hour},
	})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = doJSON(t, http.MethodGet, ts.URL+"/health", "").StatusCode
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	NewRecorder().RecordFrame(newFakeStats().s)
	ts := newTestServer(t, RouterConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"fx_particles_live", "fx_particles_free", "fx_update_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("Expected %s in /metrics output", name)
		}
	}
	if !strings.Contains(string(body), `fx_particles_live{group="general"} 5`) {
		t.Error("Expected general group gauge at 5")
	}
}

func TestProfilerMounted(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/debug/pprof/", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected pprof index, got %d", resp.StatusCode)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded list", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "127.0.0.1:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 9.9.9.9 "}, "127.0.0.1:1", "9.9.9.9"},
		{"bare remote", nil, "pipe", "pipe"},
		{"untrusted forwarder", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.1:5555", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},
		{"ws://localhost", false},
		{"http://localhost.evil.com", false},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		if got := IsLocalOrigin(tt.origin); got != tt.want {
			t.Errorf("IsLocalOrigin(%q): expected %v, got %v", tt.origin, tt.want, got)
		}
	}
}

func TestLimiterForgetsIdleClients(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	start := time.Now()
	rl.allowAt("10.0.0.1", start)
	rl.allowAt("10.0.0.2", start.Add(90*time.Second))
	if rl.Clients() != 2 {
		t.Fatalf("Expected 2 clients, got %d", rl.Clients())
	}

	rl.forgetIdle(start.Add(150 * time.Second))
	if rl.Clients() != 1 {
		t.Errorf("Expected the idle client forgotten, got %d clients", rl.Clients())
	}
}

func TestLimiterCounts(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	now := time.Now()
	for i := 0; i < 3; i++ {
		rl.allowAt("10.0.0.1", now)
	}
	if !rl.allowAt("10.0.0.9", now) {
		t.Error("Expected a fresh bucket for another client")
	}
	if allowed, rejected := rl.Counts(); allowed != 3 || rejected != 1 {
		t.Errorf("Expected 3 allowed and 1 rejected, got %d and %d", allowed, rejected)
	}
}
