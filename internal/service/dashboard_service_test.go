package service

import (
	"context"
	"testing"
	"time"

	"github.com/ispdesk/ticket-system/internal/repository"
)

type stubMetricsRepo struct {
	total        int64
	byStatus     []repository.GroupCount
	byCategory   []repository.GroupCount
	byPriority   []repository.GroupCount
	byDay        []repository.GroupCount
	overdue      int64
	withinSLA    int64
	outsideSLA   int64
	slaRows      []repository.PrioritySLARow
	resolution   []repository.PriorityDurationStats
	firstResp    *repository.DurationStats
	usersByRole  []repository.GroupCount
	activeUsers  int64
	inactive     int64
	assignees    []repository.AssigneeLoad
	allByStatus  []repository.GroupCount
	avgResHours  float64
	windowedFrom time.Time
	windowedTo   time.Time
}

func (s *stubMetricsRepo) CountTickets(ctx context.Context, from, to time.Time) (int64, error) {
	s.windowedFrom, s.windowedTo = from, to
	return s.total, nil
}

func (s *stubMetricsRepo) TicketsByStatus(ctx context.Context, from, to time.Time) ([]repository.GroupCount, error) {
	return s.byStatus, nil
}

func (s *stubMetricsRepo) TicketsByCategory(ctx context.Context, from, to time.Time) ([]repository.GroupCount, error) {
	return s.byCategory, nil
}

func (s *stubMetricsRepo) TicketsByPriority(ctx context.Context, from, to time.Time) ([]repository.GroupCount, error) {
	return s.byPriority, nil
}

func (s *stubMetricsRepo) TicketsByDay(ctx context.Context, from, to time.Time) ([]repository.GroupCount, error) {
	return s.byDay, nil
}

func (s *stubMetricsRepo) OverdueCount(ctx context.Context, now time.Time) (int64, error) {
	return s.overdue, nil
}

func (s *stubMetricsRepo) ResolvedWithinSLA(ctx context.Context) (int64, error) {
	return s.withinSLA, nil
}

func (s *stubMetricsRepo) ResolvedOutsideSLA(ctx context.Context) (int64, error) {
	return s.outsideSLA, nil
}

func (s *stubMetricsRepo) SLAByPriority(ctx context.Context, now time.Time) ([]repository.PrioritySLARow, error) {
	return s.slaRows, nil
}

func (s *stubMetricsRepo) ResolutionStatsByPriority(ctx context.Context) ([]repository.PriorityDurationStats, error) {
	return s.resolution, nil
}

func (s *stubMetricsRepo) FirstResponseStats(ctx context.Context) (*repository.DurationStats, error) {
	return s.firstResp, nil
}

func (s *stubMetricsRepo) UsersByRole(ctx context.Context) ([]repository.GroupCount, error) {
	return s.usersByRole, nil
}

func (s *stubMetricsRepo) UserActivityCounts(ctx context.Context) (int64, int64, error) {
	return s.activeUsers, s.inactive, nil
}

func (s *stubMetricsRepo) TopAssignees(ctx context.Context, limit int) ([]repository.AssigneeLoad, error) {
	if limit < len(s.assignees) {
		return s.assignees[:limit], nil
	}
	return s.assignees, nil
}

func (s *stubMetricsRepo) CountAllByStatus(ctx context.Context) ([]repository.GroupCount, error) {
	return s.allByStatus, nil
}

func (s *stubMetricsRepo) AvgResolutionHours(ctx context.Context) (float64, error) {
	return s.avgResHours, nil
}

func TestSummaryComposesReport(t *testing.T) {
	stub := &stubMetricsRepo{
		total: 42,
		byStatus: []repository.GroupCount{
			{Key: "OPEN", Count: 20},
			{Key: "IN_PROGRESS", Count: 10},
			{Key: "RESOLVED", Count: 8},
			{Key: "CLOSED", Count: 4},
		},
		byCategory: []repository.GroupCount{{Key: "CONNECTION", Count: 25}, {Key: "SPEED", Count: 17}},
		byPriority: []repository.GroupCount{{Key: "CRITICAL", Count: 3}, {Key: "MEDIUM", Count: 39}},
		byDay:      []repository.GroupCount{{Key: "2026-03-01", Count: 7}},
		overdue:    5,
		withinSLA:  30,
		outsideSLA: 6,
		slaRows: []repository.PrioritySLARow{
			{Priority: "CRITICAL", Total: 3, Overdue: 1},
			{Priority: "MEDIUM", Total: 27, Overdue: 4},
		},
		resolution: []repository.PriorityDurationStats{
			{Priority: "CRITICAL", Stats: repository.DurationStats{Avg: 2.3456, Min: 0.5, Max: 3.9}},
		},
		firstResp:   &repository.DurationStats{Avg: 1.119, Min: 0.25, Max: 6},
		usersByRole: []repository.GroupCount{{Key: "CUSTOMER", Count: 100}, {Key: "TECHNICIAN", Count: 8}},
		activeUsers: 104,
		inactive:    4,
		assignees: []repository.AssigneeLoad{
			{UserID: "tech-1", Name: "Bruno", Count: 9},
			{UserID: "tech-2", Name: "Elisa", Count: 7},
		},
	}
	svc := NewDashboardService(stub)

	summary, err := svc.Summary(context.Background(), 0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.Period.Days != 30 {
		t.Errorf("default window = %d days, want 30", summary.Period.Days)
	}
	if got := summary.Period.End.Sub(summary.Period.Start); got < 29*24*time.Hour || got > 31*24*time.Hour {
		t.Errorf("window span = %v", got)
	}
	if !stub.windowedFrom.Equal(summary.Period.Start) || !stub.windowedTo.Equal(summary.Period.End) {
		t.Error("window not forwarded to aggregation queries")
	}

	if summary.Tickets.Total != 42 {
		t.Errorf("total = %d", summary.Tickets.Total)
	}
	var sum int64
	for _, count := range summary.Tickets.ByStatus {
		sum += count
	}
	if sum != 42 {
		t.Errorf("status bucket sum = %d, want 42", sum)
	}
	if summary.Tickets.ByDay["2026-03-01"] != 7 {
		t.Errorf("byDay = %+v", summary.Tickets.ByDay)
	}

	critical := summary.SLA.ByPriority["CRITICAL"]
	if critical.Overdue != 1 || critical.WithinSLA != 2 {
		t.Errorf("critical sla = %+v", critical)
	}
	if critical.PercentOverdue != 33.33 {
		t.Errorf("critical percentOverdue = %v, want 33.33", critical.PercentOverdue)
	}
	medium := summary.SLA.ByPriority["MEDIUM"]
	if medium.PercentOverdue != 14.81 {
		t.Errorf("medium percentOverdue = %v, want 14.81", medium.PercentOverdue)
	}

	res := summary.Performance.ResolutionByPriority["CRITICAL"]
	if res.AvgHours != 2.35 || res.MinHours != 0.5 || res.MaxHours != 3.9 {
		t.Errorf("resolution stats = %+v", res)
	}
	if summary.Performance.FirstResponse == nil || summary.Performance.FirstResponse.AvgHours != 1.12 {
		t.Errorf("first response = %+v", summary.Performance.FirstResponse)
	}

	if summary.Users.Active != 104 || summary.Users.Inactive != 4 {
		t.Errorf("user activity = %d/%d", summary.Users.Active, summary.Users.Inactive)
	}
	if len(summary.Users.Workload) != 2 || summary.Users.Workload[0].Name != "Bruno" {
		t.Errorf("workload = %+v", summary.Users.Workload)
	}
}

func TestSummaryOmitsFirstResponseWithoutSamples(t *testing.T) {
	svc := NewDashboardService(&stubMetricsRepo{})

	summary, err := svc.Summary(context.Background(), 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Period.Days != 7 {
		t.Errorf("window = %d days, want 7", summary.Period.Days)
	}
	if summary.Performance.FirstResponse != nil {
		t.Errorf("first response = %+v, want nil", summary.Performance.FirstResponse)
	}
	if len(summary.Tickets.ByStatus) != 0 {
		t.Errorf("byStatus = %+v, want empty", summary.Tickets.ByStatus)
	}
}

func TestTicketSummarySnapshot(t *testing.T) {
	stub := &stubMetricsRepo{
		allByStatus: []repository.GroupCount{
			{Key: "OPEN", Count: 12},
			{Key: "RESOLVED", Count: 30},
		},
		overdue:     3,
		avgResHours: 17.456,
	}
	svc := NewDashboardService(stub)

	summary, err := svc.TicketSummary(context.Background())
	if err != nil {
		t.Fatalf("TicketSummary: %v", err)
	}
	if summary.Total != 42 {
		t.Errorf("total = %d, want 42", summary.Total)
	}
	if summary.ByStatus["OPEN"] != 12 {
		t.Errorf("byStatus = %+v", summary.ByStatus)
	}
	if summary.Overdue != 3 {
		t.Errorf("overdue = %d", summary.Overdue)
	}
	if summary.AvgResolutionHours != 17.46 {
		t.Errorf("avg resolution = %v", summary.AvgResolutionHours)
	}
}
