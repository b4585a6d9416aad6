package domain

import (
	"testing"
	"time"
)

func TestSLAOffset(t *testing.T) {
	cases := []struct {
		priority TicketPriority
		want     time.Duration
	}{
		{TicketPriorityCritical, 4 * time.Hour},
		{TicketPriorityHigh, 12 * time.Hour},
		{TicketPriorityMedium, 24 * time.Hour},
		{TicketPriorityLow, 48 * time.Hour},
		{TicketPriority("URGENTISH"), 24 * time.Hour},
		{TicketPriority(""), 24 * time.Hour},
	}
	for _, tc := range cases {
		if got := SLAOffset(tc.priority); got != tc.want {
			t.Errorf("SLAOffset(%q) = %v, want %v", tc.priority, got, tc.want)
		}
	}
}

func TestCalculateSLADoesNotTouchHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{Priority: TicketPriorityCritical}

	deadline := ticket.CalculateSLA(now)

	if want := now.Add(4 * time.Hour); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", deadline, want)
	}
	if ticket.SLADeadline == nil || !ticket.SLADeadline.Equal(deadline) {
		t.Fatalf("stored deadline = %v, want %v", ticket.SLADeadline, deadline)
	}
	if len(ticket.History) != 0 {
		t.Fatalf("expected no history entries, got %d", len(ticket.History))
	}
}

func TestTransitionAppendsHistoryAndSetsStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusOpen}

	ticket.Transition(TicketStatusInProgress, "", "tech-1", now)

	if ticket.Status != TicketStatusInProgress {
		t.Fatalf("status = %s, want %s", ticket.Status, TicketStatusInProgress)
	}
	if len(ticket.History) != 1 {
		t.Fatalf("history entries = %d, want 1", len(ticket.History))
	}
	entry := ticket.History[0]
	if entry.Status != TicketStatusInProgress {
		t.Errorf("history status = %s, want %s", entry.Status, TicketStatusInProgress)
	}
	if entry.Comment != "status changed to IN_PROGRESS" {
		t.Errorf("default comment = %q", entry.Comment)
	}
	if entry.ActorID != "tech-1" {
		t.Errorf("actor = %q, want tech-1", entry.ActorID)
	}
	if !ticket.UpdatedAt.Equal(now) {
		t.Errorf("updatedAt = %v, want %v", ticket.UpdatedAt, now)
	}
	if ticket.ResolvedAt != nil {
		t.Errorf("resolvedAt set on non-resolved transition")
	}
}

func TestTransitionCustomCommentKept(t *testing.T) {
	now := time.Now()
	ticket := &Ticket{Status: TicketStatusOpen}

	ticket.Transition(TicketStatusResolved, "rebooted the CPE", "tech-1", now)

	if got := ticket.History[0].Comment; got != "rebooted the CPE" {
		t.Fatalf("comment = %q, want custom comment", got)
	}
}

func TestResolvedAtOverwrittenNeverCleared(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusOpen}

	ticket.Transition(TicketStatusResolved, "", "tech-1", base)
	first := ticket.ResolvedAt
	if first == nil || !first.Equal(base) {
		t.Fatalf("resolvedAt = %v, want %v", first, base)
	}

	// Reopening retains the stamp.
	ticket.Transition(TicketStatusInProgress, "customer called back", "tech-1", base.Add(time.Hour))
	if ticket.ResolvedAt == nil || !ticket.ResolvedAt.Equal(base) {
		t.Fatalf("resolvedAt after reopen = %v, want %v", ticket.ResolvedAt, base)
	}

	// Resolving again overwrites it.
	second := base.Add(3 * time.Hour)
	ticket.Transition(TicketStatusResolved, "", "tech-1", second)
	if ticket.ResolvedAt == nil || !ticket.ResolvedAt.Equal(second) {
		t.Fatalf("resolvedAt after second resolve = %v, want %v", ticket.ResolvedAt, second)
	}

	if len(ticket.History) != 3 {
		t.Fatalf("history entries = %d, want 3", len(ticket.History))
	}
}

func TestStatusAlwaysMatchesLastHistoryEntry(t *testing.T) {
	now := time.Now()
	ticket := &Ticket{Status: TicketStatusOpen}

	steps := []TicketStatus{
		TicketStatusOpen,
		TicketStatusInProgress,
		TicketStatusResolved,
		TicketStatusClosed,
	}
	for i, status := range steps {
		ticket.Transition(status, "", "u-1", now.Add(time.Duration(i)*time.Minute))
		last := ticket.History[len(ticket.History)-1]
		if last.Status != ticket.Status {
			t.Fatalf("step %d: history tail %s != status %s", i, last.Status, ticket.Status)
		}
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name     string
		status   TicketStatus
		deadline *time.Time
		want     bool
	}{
		{"open past deadline", TicketStatusOpen, &past, true},
		{"in progress past deadline", TicketStatusInProgress, &past, true},
		{"open before deadline", TicketStatusOpen, &future, false},
		{"deadline exactly now", TicketStatusOpen, &now, false},
		{"resolved past deadline", TicketStatusResolved, &past, false},
		{"closed past deadline", TicketStatusClosed, &past, false},
		{"no deadline", TicketStatusOpen, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticket := &Ticket{Status: tc.status, SLADeadline: tc.deadline}
			if got := ticket.Overdue(now); got != tc.want {
				t.Errorf("Overdue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPriorityChangeRecomputesDeadlineFromNow(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{Priority: TicketPriorityLow}
	ticket.CalculateSLA(created)

	// Escalation two hours in: the new deadline is anchored at the
	// escalation time, not creation.
	escalated := created.Add(2 * time.Hour)
	ticket.Priority = TicketPriorityCritical
	deadline := ticket.CalculateSLA(escalated)

	if want := escalated.Add(4 * time.Hour); !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", deadline, want)
	}
}

func TestValidators(t *testing.T) {
	if !ValidStatus(TicketStatusInProgress) || ValidStatus(TicketStatus("PENDING")) {
		t.Error("ValidStatus misclassified")
	}
	if !ValidPriority(TicketPriorityHigh) || ValidPriority(TicketPriority("high")) {
		t.Error("ValidPriority misclassified")
	}
	if !ValidCategory(CategoryInstability) || ValidCategory(TicketCategory("BILLING")) {
		t.Error("ValidCategory misclassified")
	}
	if !ValidRole(RoleTechnician) || ValidRole(UserRole("SUPERADMIN")) {
		t.Error("ValidRole misclassified")
	}
	if RoleCustomer.Staff() || !RoleTechnician.Staff() || !RoleAdmin.Staff() {
		t.Error("Staff() misclassified")
	}
}
