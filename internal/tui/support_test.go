package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"readhub/pkg/client"
	"readhub/pkg/domain"
)

func newTestSupportModel(t *testing.T) supportModel {
	t.Helper()
	m := newSupportModel(nil, newTestStore(t), newTestLogger())
	m.width = 80
	m.height = 24
	return m
}

func TestSupportListShowsStatus(t *testing.T) {
	m := newTestSupportModel(t)
	m, _ = m.Update(ticketsLoadedMsg{tickets: []domain.SupportTicket{
		{ID: 1, Name: "Ana", Subject: "Broken spine", Status: domain.TicketOpen, CreatedAt: time.Now()},
		{ID: 2, Name: "Bea", Subject: "Late fee question", Status: domain.TicketResolved, CreatedAt: time.Now()},
	}})

	view := m.View()
	if !strings.Contains(view, "Broken spine") || !strings.Contains(view, "Late fee question") {
		t.Errorf("expected both tickets, got:\n%s", view)
	}
	if !strings.Contains(view, domain.TicketOpen) || !strings.Contains(view, domain.TicketResolved) {
		t.Errorf("expected both statuses, got:\n%s", view)
	}
}

func TestSupportEmptyState(t *testing.T) {
	m := newTestSupportModel(t)
	m, _ = m.Update(ticketsLoadedMsg{tickets: nil})

	if view := m.View(); !strings.Contains(view, "no support tickets") {
		t.Errorf("expected empty state, got:\n%s", view)
	}
}

func TestSupportComposePrefillsIdentity(t *testing.T) {
	m := newTestSupportModel(t)
	m, _ = m.Update(ticketsLoadedMsg{tickets: nil})
	m, _ = m.Update(keyMsg("n"))

	if !m.composing {
		t.Fatal("n must open the compose form")
	}
	view := m.View()
	if !strings.Contains(view, "Ana") || !strings.Contains(view, "ana@example.com") {
		t.Errorf("expected prefilled requester identity, got:\n%s", view)
	}
}

func TestSupportComposeValidation(t *testing.T) {
	m := newTestSupportModel(t)
	m, _ = m.Update(keyMsg("n"))

	m, cmd := m.Update(keyMsg("ctrl+s"))
	if cmd != nil {
		t.Error("submit with empty fields must not hit the network")
	}
	if m.statusMsg != "fill in all fields" {
		t.Errorf("statusMsg = %q, want validation message", m.statusMsg)
	}
}

func TestSupportSubmitSendsProfile(t *testing.T) {
	var got client.CreateTicketRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/support" && r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
			json.NewEncoder(w).Encode(domain.SupportTicket{ID: 1, Status: domain.TicketOpen}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode([]domain.SupportTicket{}) //nolint:errcheck
	}))
	defer srv.Close()

	m := newSupportModel(client.New(srv.URL, nil), newTestStore(t), newTestLogger())
	m, _ = m.Update(keyMsg("n"))
	for _, r := range "Help" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	m, _ = m.Update(keyMsg("tab"))
	for _, r := range "The book arrived damaged" {
		m, _ = m.Update(keyMsg(string(r)))
	}

	m, cmd := m.Update(keyMsg("ctrl+s"))
	if cmd == nil {
		t.Fatal("valid submit must produce a command")
	}
	msg := cmd()
	created, ok := msg.(ticketCreatedMsg)
	if !ok {
		t.Fatalf("msg = %T, want ticketCreatedMsg", msg)
	}
	if created.err != nil {
		t.Fatalf("submit error: %v", created.err)
	}
	if got.Name != "Ana" || got.Email != "ana@example.com" {
		t.Errorf("requester = %q/%q, want profile identity", got.Name, got.Email)
	}
	if got.Subject != "Help" {
		t.Errorf("subject = %q", got.Subject)
	}
}

func TestSupportEnterResolvesOpenTicket(t *testing.T) {
	var resolvedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			resolvedPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode([]domain.SupportTicket{}) //nolint:errcheck
	}))
	defer srv.Close()

	m := newSupportModel(client.New(srv.URL, nil), newTestStore(t), newTestLogger())
	m, _ = m.Update(ticketsLoadedMsg{tickets: []domain.SupportTicket{
		{ID: 9, Subject: "Broken spine", Status: domain.TicketOpen},
	}})

	m, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter on an open ticket must resolve it")
	}
	if msg := cmd(); msg.(ticketResolvedMsg).err != nil {
		t.Fatalf("resolve error: %v", msg.(ticketResolvedMsg).err)
	}
	if resolvedPath != "/support/9" {
		t.Errorf("resolved path = %q, want /support/9", resolvedPath)
	}
}

func TestSupportEnterIgnoresResolvedTicket(t *testing.T) {
	m := newTestSupportModel(t)
	m, _ = m.Update(ticketsLoadedMsg{tickets: []domain.SupportTicket{
		{ID: 9, Subject: "Done", Status: domain.TicketResolved},
	}})

	if _, cmd := m.Update(keyMsg("enter")); cmd != nil {
		t.Error("enter on a resolved ticket must be a no-op")
	}
}
