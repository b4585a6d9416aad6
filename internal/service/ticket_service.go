package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ispdesk/ticket-system/internal/domain"
	"github.com/ispdesk/ticket-system/internal/events"
	"github.com/ispdesk/ticket-system/internal/observability"
	"github.com/ispdesk/ticket-system/internal/repository"
	apperrors "github.com/ispdesk/ticket-system/pkg/util"
)

// GeoEnricher resolves the caller's public IP and geolocation. Lookups fail
// soft: absent data comes back as zero values.
type GeoEnricher interface {
	Enrich(ctx context.Context) (string, *domain.GeoInfo)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	geo        GeoEnricher
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Geo        GeoEnricher
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketUpdateInput describes a triage update. Nil fields are untouched.
type TicketUpdateInput struct {
	Status     *domain.TicketStatus
	Comment    string
	AssigneeID *string
	Priority   *domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		geo:        deps.Geo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// CreateTicket creates a ticket for a requester: geo enrichment, SLA
// deadline, the initial history entry and the year-scoped identifier are all
// assigned here.
func (s *TicketService) CreateTicket(ctx context.Context, requesterID string, input TicketCreateInput) (*domain.Ticket, error) {
	start := s.now()

	ticket := &domain.Ticket{
		RequesterID: requesterID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Category:    input.Category,
		Active:      true,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if s.geo != nil {
		if ip, info := s.geo.Enrich(ctx); ip != "" {
			ticket.ClientIP = &ip
			ticket.Geo = info
		}
	}

	now := s.now()
	ticket.CalculateSLA(now)
	ticket.Transition(domain.TicketStatusOpen, "ticket created", requesterID, now)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTicketStatus(string(domain.TicketStatusOpen))
	s.metrics.ObserveTicketCreation(s.now().Sub(start))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  requesterID,
		Payload: events.TicketCreatedPayload{
			TicketKey: ticket.TicketID,
			Priority:  ticket.Priority,
			Category:  ticket.Category,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the actor: customers see their own,
// technicians and admins see everything.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if !actor.Role.Staff() {
		repoFilter.RequesterID = &actor.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a ticket with its history, enforcing ownership for
// customers.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Staff() && ticket.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// UpdateTicket applies a triage update: optional status transition, optional
// reassignment, optional priority change with SLA recomputation. Each change
// appends to the history; a supplied comment rides on the status entry and
// suppresses the generated entries for the other fields.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var pending []events.Event

	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid status", []string{"status must be one of OPEN, IN_PROGRESS, RESOLVED, CLOSED"})
		}
		oldStatus := ticket.Status
		ticket.Transition(*input.Status, input.Comment, actor.ID, now)
		pending = append(pending, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: *input.Status,
				Comment:   input.Comment,
			},
		})
	}

	if input.AssigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *input.AssigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": *input.AssigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		if !assignee.Role.Staff() {
			return nil, apperrors.NewConflict("assignee is not a technician", map[string]any{"user_id": assignee.ID})
		}
		ticket.AssigneeID = &assignee.ID
		if input.Comment == "" {
			ticket.Transition(ticket.Status, "ticket assigned to "+assignee.Name, actor.ID, now)
		}
		pending = append(pending, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload:  events.TicketAssignedPayload{AssigneeID: ticket.AssigneeID},
		})
	}

	if input.Priority != nil && *input.Priority != ticket.Priority {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", []string{"priority must be one of LOW, MEDIUM, HIGH, CRITICAL"})
		}
		oldPriority := ticket.Priority
		ticket.Priority = *input.Priority
		deadline := ticket.CalculateSLA(now)
		if input.Comment == "" {
			ticket.Transition(ticket.Status, fmt.Sprintf("priority changed to %s", *input.Priority), actor.ID, now)
		}
		pending = append(pending, events.Event{
			Type:     events.EventTicketPriorityChanged,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: *input.Priority,
				SLADeadline: deadline,
			},
		})
	}

	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if input.Status != nil {
		s.metrics.RecordTicketStatus(string(*input.Status))
	}
	for _, event := range pending {
		s.publishEvent(ctx, event)
	}
	return ticket, nil
}

// DeleteTicket soft-deletes: the ticket is closed with an audit entry and
// flagged inactive, its data retained.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket.Transition(domain.TicketStatusClosed, "ticket deleted by administrator", actor.ID, now)
	ticket.Active = false

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTicketStatus(string(domain.TicketStatusClosed))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketDeletedPayload{TicketKey: ticket.TicketID},
	})
	return ticket, nil
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
