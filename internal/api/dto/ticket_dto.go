package dto

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ispdesk/ticket-system/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// Validate returns per-field messages for an invalid create payload. Length
// limits count runes on the whitespace-trimmed value, matching what the
// service stores.
func (r CreateTicketRequest) Validate() []string {
	var errs []string
	if n := trimmedLen(r.Title); n < 5 || n > 100 {
		errs = append(errs, "title must be between 5 and 100 characters")
	}
	if n := trimmedLen(r.Description); n < 10 || n > 1000 {
		errs = append(errs, "description must be between 10 and 1000 characters")
	}
	if r.Category == "" {
		errs = append(errs, "category is required")
	} else if !domain.ValidCategory(r.Category) {
		errs = append(errs, fmt.Sprintf("category %q is not recognized", r.Category))
	}
	if r.Priority != "" && !domain.ValidPriority(r.Priority) {
		errs = append(errs, fmt.Sprintf("priority %q is not recognized", r.Priority))
	}
	return errs
}

// UpdateTicketRequest payload. Absent fields leave the ticket untouched.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status"`
	Comment    string                 `json:"comment"`
	AssigneeID *string                `json:"assignee_id"`
	Priority   *domain.TicketPriority `json:"priority"`
}

// Validate returns per-field messages for an invalid update payload.
func (r UpdateTicketRequest) Validate() []string {
	var errs []string
	if r.Status == nil && r.AssigneeID == nil && r.Priority == nil {
		errs = append(errs, "at least one of status, assignee_id, priority is required")
	}
	if r.Status != nil && !domain.ValidStatus(*r.Status) {
		errs = append(errs, fmt.Sprintf("status %q is not recognized", *r.Status))
	}
	if r.Priority != nil && !domain.ValidPriority(*r.Priority) {
		errs = append(errs, fmt.Sprintf("priority %q is not recognized", *r.Priority))
	}
	if utf8.RuneCountInString(r.Comment) > 500 {
		errs = append(errs, "comment must be at most 500 characters")
	}
	return errs
}

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	Status    domain.TicketStatus `json:"status"`
	Comment   string              `json:"comment"`
	ActorID   string              `json:"actor_id"`
	CreatedAt time.Time           `json:"created_at"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	TicketID    string                `json:"ticket_id"`
	Title       string                `json:"title"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category"`
	RequesterID string                `json:"requester_id"`
	AssigneeID  *string               `json:"assignee_id"`
	SLADeadline *time.Time            `json:"sla_deadline"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string                  `json:"description"`
	ClientIP    *string                 `json:"client_ip"`
	Geo         *domain.GeoInfo         `json:"geo"`
	ResolvedAt  *time.Time              `json:"resolved_at"`
	History     []TicketHistoryResponse `json:"history"`
}

// NewTicketSummary maps a ticket to its summary representation.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          t.ID,
		TicketID:    t.TicketID,
		Title:       t.Title,
		Status:      t.Status,
		Priority:    t.Priority,
		Category:    t.Category,
		RequesterID: t.RequesterID,
		AssigneeID:  t.AssigneeID,
		SLADeadline: t.SLADeadline,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTicketDetail maps a ticket with history to its detail representation.
func NewTicketDetail(t *domain.Ticket) TicketDetailResponse {
	history := make([]TicketHistoryResponse, 0, len(t.History))
	for _, entry := range t.History {
		history = append(history, TicketHistoryResponse{
			Status:    entry.Status,
			Comment:   entry.Comment,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	return TicketDetailResponse{
		TicketSummary: NewTicketSummary(t),
		Description:   t.Description,
		ClientIP:      t.ClientIP,
		Geo:           t.Geo,
		ResolvedAt:    t.ResolvedAt,
		History:       history,
	}
}
