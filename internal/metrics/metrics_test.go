package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, rec *Recorder) string {
	t.Helper()
	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestRecorderExposesCounters(t *testing.T) {
	rec := NewRecorder()
	rec.RecordCommand("submit-answer")
	rec.RecordCommand("submit-answer")
	rec.RecordRejection("not-your-turn")
	rec.RecordEffect("reveal-remaining", true)
	rec.RecordEffect("reveal-remaining", false)
	rec.SetSessions(3)
	rec.RecordSwept(2)
	rec.ConnectionOpened("player")

	out := scrape(t, rec)
	for _, want := range []string{
		`feudlive_commands_total{type="submit-answer"} 2`,
		`feudlive_rejections_total{reason="not-your-turn"} 1`,
		`feudlive_delayed_effects_total{effect="reveal-remaining",outcome="applied"} 1`,
		`feudlive_delayed_effects_total{effect="reveal-remaining",outcome="stale"} 1`,
		`feudlive_active_sessions 3`,
		`feudlive_swept_sessions_total 2`,
		`feudlive_connections{role="player"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in scrape output:\n%s", want, out)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.RecordCommand("x")
	rec.RecordRejection("y")
	rec.RecordEffect("z", true)
	rec.SetSessions(1)
	rec.RecordSwept(1)
	rec.ConnectionOpened("host")
	rec.ConnectionClosed("host")

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 404 {
		t.Fatalf("expected 404 from nil recorder, got %d", rr.Code)
	}
}
