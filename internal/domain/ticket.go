package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketCategory classifies the connectivity issue being reported.
type TicketCategory string

const (
	CategoryConnection    TicketCategory = "CONNECTION"
	CategorySpeed         TicketCategory = "SPEED"
	CategoryInstability   TicketCategory = "INSTABILITY"
	CategoryConfiguration TicketCategory = "CONFIGURATION"
	CategoryOther         TicketCategory = "OTHER"
)

// ValidStatus reports whether s is one of the four ticket statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a recognized priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ValidCategory reports whether c is a recognized category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryConnection, CategorySpeed, CategoryInstability, CategoryConfiguration, CategoryOther:
		return true
	}
	return false
}

// GeoInfo holds the geolocation enrichment attached at creation time.
type GeoInfo struct {
	Country string  `json:"country,omitempty"`
	Region  string  `json:"region,omitempty"`
	City    string  `json:"city,omitempty"`
	ISP     string  `json:"isp,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	TicketID    string
	RequesterID string
	AssigneeID  *string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Category    TicketCategory
	ClientIP    *string
	Geo         *GeoInfo
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
	SLADeadline *time.Time
	History     []TicketHistory
}

// SLAOffset maps a priority to its resolution window. Unrecognized values
// fall back to the medium window.
func SLAOffset(priority TicketPriority) time.Duration {
	switch priority {
	case TicketPriorityCritical:
		return 4 * time.Hour
	case TicketPriorityHigh:
		return 12 * time.Hour
	case TicketPriorityLow:
		return 48 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// SLADeadlineFor computes the absolute deadline for a priority from ref.
func SLADeadlineFor(priority TicketPriority, ref time.Time) time.Time {
	return ref.Add(SLAOffset(priority))
}

// CalculateSLA stores the deadline for the ticket's current priority on the
// ticket, discarding any previous deadline. It never touches the history log.
func (t *Ticket) CalculateSLA(now time.Time) time.Time {
	deadline := SLADeadlineFor(t.Priority, now)
	t.SLADeadline = &deadline
	return deadline
}

// Transition appends a history entry and moves the ticket to status as one
// in-memory mutation, so the current status always equals the status of the
// last appended entry. Any status may follow any other; callers validate the
// status value itself. An empty comment is replaced with a generated one.
// Resolving sets ResolvedAt, overwriting it on repeated resolution; later
// transitions never clear it.
func (t *Ticket) Transition(status TicketStatus, comment, actorID string, now time.Time) {
	if comment == "" {
		comment = fmt.Sprintf("status changed to %s", status)
	}
	t.History = append(t.History, TicketHistory{
		Status:    status,
		Comment:   comment,
		ActorID:   actorID,
		CreatedAt: now,
	})
	t.Status = status
	t.UpdatedAt = now
	if status == TicketStatusResolved {
		resolved := now
		t.ResolvedAt = &resolved
	}
}

// Overdue reports whether the ticket counts against the SLA at the given
// instant: still in an active status with a deadline strictly in the past.
func (t *Ticket) Overdue(now time.Time) bool {
	if t.SLADeadline == nil {
		return false
	}
	if t.Status != TicketStatusOpen && t.Status != TicketStatusInProgress {
		return false
	}
	return t.SLADeadline.Before(now)
}
