package dto

import (
	"strings"
	"testing"

	"github.com/ispdesk/ticket-system/internal/domain"
)

func TestCreateTicketRequestValidate(t *testing.T) {
	valid := CreateTicketRequest{
		Title:       "No connection since morning",
		Description: "The ONT shows a red LOS light and there is no sync.",
		Category:    domain.CategoryConnection,
		Priority:    domain.TicketPriorityHigh,
	}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("valid payload rejected: %v", errs)
	}

	// Priority is optional.
	optional := valid
	optional.Priority = ""
	if errs := optional.Validate(); len(errs) != 0 {
		t.Fatalf("payload without priority rejected: %v", errs)
	}

	// Limits count characters, not bytes.
	accented := valid
	accented.Title = strings.Repeat("é", 100)
	if errs := accented.Validate(); len(errs) != 0 {
		t.Fatalf("100-character accented title rejected: %v", errs)
	}

	cases := []struct {
		name    string
		mutate  func(*CreateTicketRequest)
		keyword string
	}{
		{"short title", func(r *CreateTicketRequest) { r.Title = "Hi" }, "title"},
		{"long title", func(r *CreateTicketRequest) { r.Title = strings.Repeat("x", 101) }, "title"},
		{"padded short title", func(r *CreateTicketRequest) { r.Title = "  ab   " }, "title"},
		{"short multibyte title", func(r *CreateTicketRequest) { r.Title = "Ruím" }, "title"},
		{"short description", func(r *CreateTicketRequest) { r.Description = "broken" }, "description"},
		{"long description", func(r *CreateTicketRequest) { r.Description = strings.Repeat("x", 1001) }, "description"},
		{"missing category", func(r *CreateTicketRequest) { r.Category = "" }, "category"},
		{"unknown category", func(r *CreateTicketRequest) { r.Category = "BILLING" }, "category"},
		{"unknown priority", func(r *CreateTicketRequest) { r.Priority = "URGENT" }, "priority"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			errs := req.Validate()
			if len(errs) == 0 {
				t.Fatal("invalid payload accepted")
			}
			found := false
			for _, msg := range errs {
				if strings.Contains(msg, tc.keyword) {
					found = true
				}
			}
			if !found {
				t.Errorf("no message mentioning %q in %v", tc.keyword, errs)
			}
		})
	}
}

func TestUpdateTicketRequestValidate(t *testing.T) {
	status := domain.TicketStatusResolved
	valid := UpdateTicketRequest{Status: &status, Comment: "replaced the drop cable"}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("valid payload rejected: %v", errs)
	}

	empty := UpdateTicketRequest{}
	if errs := empty.Validate(); len(errs) == 0 {
		t.Error("empty update accepted")
	}

	bad := domain.TicketStatus("PENDING")
	if errs := (UpdateTicketRequest{Status: &bad}).Validate(); len(errs) == 0 {
		t.Error("unknown status accepted")
	}

	long := UpdateTicketRequest{Status: &status, Comment: strings.Repeat("x", 501)}
	if errs := long.Validate(); len(errs) == 0 {
		t.Error("oversized comment accepted")
	}
}

func TestNewTicketDetailIncludesHistory(t *testing.T) {
	ticket := &domain.Ticket{
		ID:       "id-1",
		TicketID: "TK-2026-007",
		Status:   domain.TicketStatusInProgress,
		History: []domain.TicketHistory{
			{Status: domain.TicketStatusOpen, Comment: "ticket created", ActorID: "cust-1"},
			{Status: domain.TicketStatusInProgress, Comment: "on it", ActorID: "tech-1"},
		},
	}
	detail := NewTicketDetail(ticket)
	if detail.TicketID != "TK-2026-007" {
		t.Errorf("ticket key = %q", detail.TicketID)
	}
	if len(detail.History) != 2 || detail.History[1].Comment != "on it" {
		t.Errorf("history = %+v", detail.History)
	}
}
