package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	orchestratorx "github.com/thanawat-k/leadqual/agent/orchestrator"
	journalx "github.com/thanawat-k/leadqual/pkg/journal"
)

type fakeConversation struct {
	reply  string
	err    error
	turns  []string
	ended  []string
	endErr error
}

func (f *fakeConversation) HandleTurn(ctx context.Context, sessionID string, text string) (string, error) {
	f.turns = append(f.turns, sessionID)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeConversation) EndSession(ctx context.Context, sessionID string) error {
	f.ended = append(f.ended, sessionID)
	return f.endErr
}

type fakeLeadStore struct {
	records   map[string]*leadx.Record
	decisions map[string][]*leadx.Decision
	listErr   error
	cleared   int
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		records:   make(map[string]*leadx.Record),
		decisions: make(map[string][]*leadx.Decision),
	}
}

func (f *fakeLeadStore) Get(ctx context.Context, sessionID string) (*leadx.Record, error) {
	rec, ok := f.records[sessionID]
	if !ok {
		return nil, leadx.ErrNotFound
	}
	return rec, nil
}

func (f *fakeLeadStore) Put(ctx context.Context, rec *leadx.Record) error {
	f.records[rec.SessionID] = rec
	return nil
}

func (f *fakeLeadStore) List(ctx context.Context) ([]*leadx.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*leadx.Record, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeLeadStore) Clear(ctx context.Context) error {
	f.cleared++
	f.records = make(map[string]*leadx.Record)
	f.decisions = make(map[string][]*leadx.Decision)
	return nil
}

func (f *fakeLeadStore) LatestDecision(ctx context.Context, sessionID string) (*leadx.Decision, error) {
	decs := f.decisions[sessionID]
	if len(decs) == 0 {
		return nil, leadx.ErrNoDecision
	}
	return decs[len(decs)-1], nil
}

func (f *fakeLeadStore) AddDecision(ctx context.Context, dec *leadx.Decision) error {
	f.decisions[dec.SessionID] = append(f.decisions[dec.SessionID], dec)
	return nil
}

func (f *fakeLeadStore) ListDecisions(ctx context.Context, sessionID string) ([]*leadx.Decision, error) {
	return f.decisions[sessionID], nil
}

func (f *fakeLeadStore) Close() error { return nil }

type fakeRouter struct {
	outcome contractx.RouteOutcome
	routed  int
	forced  int
}

func (f *fakeRouter) RouteIfNeeded(ctx context.Context, rec *leadx.Record) contractx.RouteOutcome {
	f.routed++
	return f.outcome
}

func (f *fakeRouter) ForceSend(ctx context.Context, rec *leadx.Record) contractx.RouteOutcome {
	f.forced++
	return f.outcome
}

func (f *fakeRouter) RelevantFields() []string { return nil }

type fakeMailer struct {
	mu     sync.Mutex
	failTo string
	sent   []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	if to == f.failTo {
		return errors.New("relay rejected recipient")
	}
	return nil
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatGeneratesSessionID(t *testing.T) {
	t.Parallel()

	conv := &fakeConversation{reply: "hello there"}
	h := NewHandler(conv, newFakeLeadStore(), nil, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodPost, "/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("session_id is empty, want a generated one")
	}
	if resp.Reply != "hello there" {
		t.Fatalf("reply = %q", resp.Reply)
	}
	if len(conv.turns) != 1 || conv.turns[0] != resp.SessionID {
		t.Fatalf("conversation saw sessions %v, response had %q", conv.turns, resp.SessionID)
	}
}

func TestChatKeepsProvidedSessionID(t *testing.T) {
	t.Parallel()

	conv := &fakeConversation{reply: "ok"}
	h := NewHandler(conv, newFakeLeadStore(), nil, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodPost, "/chat", `{"session_id":"sess-9","message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess-9" {
		t.Fatalf("session_id = %q, want sess-9", resp.SessionID)
	}
}

func TestChatRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		conv *fakeConversation
		body string
		want int
	}{
		{name: "malformed json", conv: &fakeConversation{}, body: `{"message":`, want: http.StatusBadRequest},
		{name: "blank message", conv: &fakeConversation{err: orchestratorx.ErrInvalidMessage}, body: `{"message":"  "}`, want: http.StatusBadRequest},
		{name: "turn failure", conv: &fakeConversation{err: errors.New("graph exploded")}, body: `{"message":"hi"}`, want: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := NewHandler(tc.conv, newFakeLeadStore(), nil, nil, nil, nil)
			rec := doRequest(t, h.Routes(), http.MethodPost, "/chat", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestEndSession(t *testing.T) {
	t.Parallel()

	conv := &fakeConversation{}
	h := NewHandler(conv, newFakeLeadStore(), nil, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodDelete, "/sessions/sess-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(conv.ended) != 1 || conv.ended[0] != "sess-1" {
		t.Fatalf("ended = %v", conv.ended)
	}
}

func TestGetLead(t *testing.T) {
	t.Parallel()

	leads := newFakeLeadStore()
	rec := leadx.NewRecord("sess-1", time.Now())
	rec.Name = "Jane"
	leads.records["sess-1"] = rec

	h := NewHandler(&fakeConversation{}, leads, nil, nil, nil, nil)

	res := doRequest(t, h.Routes(), http.MethodGet, "/leads/sess-1", "")
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	var got leadx.Record
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Jane" {
		t.Fatalf("name = %q", got.Name)
	}

	res = doRequest(t, h.Routes(), http.MethodGet, "/leads/sess-404", "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("missing lead status = %d, want 404", res.Code)
	}
}

func TestListLeadsEmptyIsArray(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeConversation{}, newFakeLeadStore(), nil, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodGet, "/leads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want an empty JSON array", got)
	}
}

func TestClearLeads(t *testing.T) {
	t.Parallel()

	leads := newFakeLeadStore()
	leads.records["sess-1"] = leadx.NewRecord("sess-1", time.Now())
	h := NewHandler(&fakeConversation{}, leads, nil, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodDelete, "/leads", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if leads.cleared != 1 || len(leads.records) != 0 {
		t.Fatalf("cleared = %d, records = %d", leads.cleared, len(leads.records))
	}
}

func TestListDecisions(t *testing.T) {
	t.Parallel()

	leads := newFakeLeadStore()
	leads.decisions["sess-1"] = []*leadx.Decision{{
		ID:          "dec-1",
		SessionID:   "sess-1",
		Destination: "sales@example.com",
		MatchedRule: "interest_area=enterprise",
	}}
	h := NewHandler(&fakeConversation{}, leads, nil, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodGet, "/leads/sess-1/decisions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []leadx.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Destination != "sales@example.com" {
		t.Fatalf("decisions = %+v", got)
	}
}

func TestNotify(t *testing.T) {
	t.Parallel()

	leads := newFakeLeadStore()
	leads.records["sess-1"] = leadx.NewRecord("sess-1", time.Now())
	router := &fakeRouter{outcome: contractx.RouteOutcome{Status: contractx.RouteSent, Destination: "sales@example.com"}}
	h := NewHandler(&fakeConversation{}, leads, router, nil, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodPost, "/leads/sess-1/notify", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if router.routed != 1 || router.forced != 0 {
		t.Fatalf("routed = %d, forced = %d", router.routed, router.forced)
	}

	rec = doRequest(t, h.Routes(), http.MethodPost, "/leads/sess-1/notify?force=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("force status = %d", rec.Code)
	}
	if router.forced != 1 {
		t.Fatalf("forced = %d, want 1", router.forced)
	}

	var outcome contractx.RouteOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Status != contractx.RouteSent {
		t.Fatalf("outcome = %+v", outcome)
	}

	rec = doRequest(t, h.Routes(), http.MethodPost, "/leads/sess-404/notify", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing lead status = %d, want 404", rec.Code)
	}
}

func TestMailTestFansOut(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{failTo: "smb-sales@example.com"}
	h := NewHandler(&fakeConversation{}, newFakeLeadStore(), nil, mailer, nil,
		[]string{"enterprise-sales@example.com", "smb-sales@example.com"})

	rec := doRequest(t, h.Routes(), http.MethodPost, "/admin/mail/test", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var results []mailTestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	byDest := map[string]mailTestResult{}
	for _, res := range results {
		byDest[res.Destination] = res
	}
	if !byDest["enterprise-sales@example.com"].OK {
		t.Fatalf("enterprise result = %+v", byDest["enterprise-sales@example.com"])
	}
	if res := byDest["smb-sales@example.com"]; res.OK || res.Error == "" {
		t.Fatalf("smb result = %+v, want a recorded failure", res)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("sent = %v", mailer.sent)
	}
}

func TestMailTestNoDestinations(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeConversation{}, newFakeLeadStore(), nil, &fakeMailer{}, nil, nil)

	rec := doRequest(t, h.Routes(), http.MethodPost, "/admin/mail/test", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestLogsAndHealth(t *testing.T) {
	t.Parallel()

	ring := journalx.NewRing(8)
	ring.Append(journalx.Entry{Level: "info", Message: "service started"})
	h := NewHandler(&fakeConversation{}, newFakeLeadStore(), nil, nil, ring, nil)

	rec := doRequest(t, h.Routes(), http.MethodGet, "/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logs status = %d", rec.Code)
	}
	var entries []journalx.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "service started" {
		t.Fatalf("entries = %+v", entries)
	}

	rec = doRequest(t, h.Routes(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
