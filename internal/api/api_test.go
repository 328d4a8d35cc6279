package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andrewbaggio1/sthealth-core/internal/analytics"
	"github.com/andrewbaggio1/sthealth-core/internal/engagement"
	"github.com/andrewbaggio1/sthealth-core/internal/generation"
	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/nudge"
	"github.com/andrewbaggio1/sthealth-core/internal/profile"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

func setupServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	events := store.NewEventStore(db)
	nudges := store.NewNudgeStore(db)
	states := store.NewStateStore(db)

	recorder := engagement.NewRecorder(events, logger)
	t.Cleanup(recorder.Close)

	builder, err := profile.NewBuilder(events, logger)
	if err != nil {
		t.Fatalf("build profile builder: %v", err)
	}

	generator := generation.NewService(nil, time.Second, logger)
	sched := nudge.NewScheduler(builder, generator, nudges, states, analytics.NopSink{}, logger, nudge.Options{
		MinInterval:    24 * time.Hour,
		DisplayTimeout: 5 * time.Second,
		SettleDelay:    250 * time.Millisecond,
	})
	t.Cleanup(sched.Stop)

	router := NewRouter(db, recorder, events, nudges, builder, sched, analytics.NopSink{}, apiKey, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	resp, err := http.Post(url, "application/json", rd)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func eventRequest(item string, hoursAgo int) models.RecordEventRequest {
	return models.RecordEventRequest{
		Timestamp:       time.Now().Add(-time.Duration(hoursAgo) * time.Hour).Unix(),
		Context:         models.ContextReflection,
		ItemIdentifier:  item,
		InteractionType: models.InteractionFocus,
		Duration:        60,
		Intensity:       0.5,
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupServer(t, "")

	var health models.HealthResponse
	resp := getJSON(t, srv.URL+"/health", &health)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if health.Status != "ok" || health.DB.Status != "ok" {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.Scheduler != models.StateIdle {
		t.Fatalf("expected idle scheduler, got %s", health.Scheduler)
	}
}

func TestRecordAndListEvents(t *testing.T) {
	srv := setupServer(t, "")

	// Record
	resp := postJSON(t, srv.URL+"/events", eventRequest("hypothesis_work", 1))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var recorded models.RecordEventResponse
	json.NewDecoder(resp.Body).Decode(&recorded)
	resp.Body.Close()
	if recorded.ID == "" || !recorded.Accepted {
		t.Fatalf("expected accepted record with id, got %+v", recorded)
	}

	resp = postJSON(t, srv.URL+"/events", eventRequest("workshop_tool_breathing", 2))
	resp.Body.Close()

	// List sees both, oldest first.
	var list models.EventsResponse
	getJSON(t, srv.URL+"/events", &list)
	if list.Total != 2 {
		t.Fatalf("expected 2 events, got %d", list.Total)
	}
	if list.Events[0].ItemIdentifier != "workshop_tool_breathing" {
		t.Fatalf("expected chronological order, got %+v", list.Events[0])
	}

	// Concept filter narrows.
	getJSON(t, srv.URL+"/events?concept=breathing", &list)
	if list.Total != 1 || list.Events[0].ItemIdentifier != "workshop_tool_breathing" {
		t.Fatalf("concept filter failed: %+v", list)
	}
}

func TestRecordValidation(t *testing.T) {
	srv := setupServer(t, "")

	cases := []struct {
		name   string
		mutate func(*models.RecordEventRequest)
	}{
		{"invalid context", func(r *models.RecordEventRequest) { r.Context = "bathroom" }},
		{"invalid interaction", func(r *models.RecordEventRequest) { r.InteractionType = "doomscroll" }},
		{"missing item identifier", func(r *models.RecordEventRequest) { r.ItemIdentifier = "" }},
		{"negative duration", func(r *models.RecordEventRequest) { r.Duration = -1 }},
		{"intensity above one", func(r *models.RecordEventRequest) { r.Intensity = 1.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := eventRequest("work", 1)
			tc.mutate(&req)
			resp := postJSON(t, srv.URL+"/events", req)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader("{nope"))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestResetEndpoint(t *testing.T) {
	srv := setupServer(t, "")

	postJSON(t, srv.URL+"/events", eventRequest("work", 1)).Body.Close()
	postJSON(t, srv.URL+"/events", eventRequest("rest", 1)).Body.Close()

	resp := postJSON(t, srv.URL+"/events/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var reset models.ResetResponse
	json.NewDecoder(resp.Body).Decode(&reset)
	resp.Body.Close()
	if reset.Deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", reset.Deleted)
	}

	var list models.EventsResponse
	getJSON(t, srv.URL+"/events", &list)
	if list.Total != 0 {
		t.Fatalf("expected empty log after reset, got %d", list.Total)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := setupServer(t, "test-key")

	// Health stays open.
	resp := getJSON(t, srv.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", resp.StatusCode)
	}

	// Everything else closes without the key.
	resp = getJSON(t, srv.URL+"/events", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/events", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	wrong, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	wrong.Body.Close()
	if wrong.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", wrong.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/events", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	ok, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	ok.Body.Close()
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with the right key, got %d", ok.StatusCode)
	}
}

func TestNudgeLifecycleOverHTTP(t *testing.T) {
	srv := setupServer(t, "")

	// With no live nudge, resolving is a conflict.
	resp := postJSON(t, srv.URL+"/nudges/current/acknowledge", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 without a live nudge, got %d", resp.StatusCode)
	}

	// Seed a receptive state: recent touches across several concepts.
	for _, item := range []string{"work", "rest", "family"} {
		postJSON(t, srv.URL+"/events", eventRequest(item, 1)).Body.Close()
	}

	resp = postJSON(t, srv.URL+"/nudges/evaluate", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	// The evaluation runs in the background; poll until delivery.
	var state models.NudgeStateResponse
	deadline := time.Now().Add(5 * time.Second)
	for {
		getJSON(t, srv.URL+"/nudges/current", &state)
		if state.State == models.StateDelivered {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("nudge never delivered, state %s", state.State)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !state.Visible || state.Nudge == nil {
		t.Fatalf("delivered state should carry a visible nudge: %+v", state)
	}
	if state.Nudge.Content == "" {
		t.Fatal("delivered nudge must have content")
	}

	// Acknowledge resolves it.
	resp = postJSON(t, srv.URL+"/nudges/current/acknowledge", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&state)
	resp.Body.Close()
	if state.State != models.StateAcknowledged {
		t.Fatalf("expected acknowledged, got %s", state.State)
	}

	// A second acknowledge is a conflict again.
	resp = postJSON(t, srv.URL+"/nudges/current/acknowledge", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 after resolution, got %d", resp.StatusCode)
	}

	// The archive has exactly one row with the response preserved.
	var archive models.NudgeListResponse
	getJSON(t, srv.URL+"/nudges", &archive)
	if archive.Total != 1 || len(archive.Nudges) != 1 {
		t.Fatalf("expected one archived nudge, got %+v", archive)
	}
	archived := archive.Nudges[0]
	if archived.Response == nil || *archived.Response != models.ResponseAcknowledged {
		t.Fatalf("expected acknowledged response, got %+v", archived.Response)
	}
	if archived.DeliveredAt == nil || archived.ResponseTimestamp == nil {
		t.Fatalf("expected delivery and response timestamps, got %+v", archived)
	}
}

func TestInsightEndpoints(t *testing.T) {
	srv := setupServer(t, "")

	for i := 0; i < 3; i++ {
		postJSON(t, srv.URL+"/events", eventRequest("hypothesis_work", i+1)).Body.Close()
	}
	postJSON(t, srv.URL+"/events", eventRequest("rest", 1)).Body.Close()

	t.Run("concepts ranked by significance", func(t *testing.T) {
		var concepts models.ConceptsResponse
		resp := getJSON(t, srv.URL+"/insights/concepts?limit=5", &concepts)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if concepts.Total != 2 {
			t.Fatalf("expected 2 concepts, got %d", concepts.Total)
		}
		if concepts.Concepts[0].Concept != "work" {
			t.Fatalf("expected work on top, got %s", concepts.Concepts[0].Concept)
		}
		if concepts.Concepts[0].OverallSignificance < concepts.Concepts[1].OverallSignificance {
			t.Fatal("concepts not sorted by significance")
		}
	})

	t.Run("profile reflects the log", func(t *testing.T) {
		var prof models.ProfileResponse
		resp := getJSON(t, srv.URL+"/insights/profile", &prof)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if prof.Profile == nil || prof.Behavior == nil {
			t.Fatalf("expected both views, got %+v", prof)
		}
		if prof.Profile.ReflectionPatterns["work"] != 0.75 {
			t.Fatalf("expected work frequency 0.75, got %v", prof.Profile.ReflectionPatterns)
		}
		if prof.Profile.NarrativeChapter != "inward-turn" {
			t.Fatalf("expected inward-turn chapter, got %s", prof.Profile.NarrativeChapter)
		}
	})

	t.Run("diagnostics", func(t *testing.T) {
		var diag models.DiagnosticsResponse
		resp := getJSON(t, srv.URL+"/insights/diagnostics", &diag)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		// All reflection time, no workshop/atlas time: no divergence.
		if diag.AttentionDivergence || diag.ContradictoryEvidence {
			t.Fatalf("unexpected divergence: %+v", diag)
		}
	})
}

func TestWatchStreamsTransitions(t *testing.T) {
	srv := setupServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/nudges/watch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial watch: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	readState := func() *models.NudgeStateResponse {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var st models.NudgeStateResponse
		if err := conn.ReadJSON(&st); err != nil {
			t.Fatalf("read state: %v", err)
		}
		return &st
	}

	// The stream opens with the current state.
	if st := readState(); st.State != models.StateIdle {
		t.Fatalf("expected idle first, got %s", st.State)
	}

	for _, item := range []string{"work", "rest", "family"} {
		postJSON(t, srv.URL+"/events", eventRequest(item, 1)).Body.Close()
	}
	postJSON(t, srv.URL+"/nudges/evaluate", nil).Body.Close()

	// Transitions arrive in order: evaluating, then delivered.
	if st := readState(); st.State != models.StateEvaluating {
		t.Fatalf("expected evaluating, got %s", st.State)
	}
	st := readState()
	if st.State != models.StateDelivered {
		t.Fatalf("expected delivered, got %s", st.State)
	}
	if !st.Visible || st.Nudge == nil {
		t.Fatalf("delivered frame should carry the nudge: %+v", st)
	}

	// Resolving over HTTP shows up on the stream too.
	postJSON(t, srv.URL+"/nudges/current/dismiss", nil).Body.Close()
	if st := readState(); st.State != models.StateDismissed {
		t.Fatalf("expected dismissed, got %s", st.State)
	}
	if st := readState(); st.State != models.StateIdle {
		t.Fatalf("expected settle back to idle, got %s", st.State)
	}
}
