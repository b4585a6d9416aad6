package service

import (
	"context"
	"math"
	"time"

	"github.com/ispdesk/ticket-system/internal/repository"
	apperrors "github.com/ispdesk/ticket-system/pkg/util"
)

const defaultDashboardDays = 30

// DashboardPeriod describes the reporting window.
type DashboardPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// DashboardTickets groups windowed ticket counts.
type DashboardTickets struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByCategory map[string]int64 `json:"by_category"`
	ByPriority map[string]int64 `json:"by_priority"`
	ByDay      map[string]int64 `json:"by_day"`
}

// DashboardUsers groups user statistics.
type DashboardUsers struct {
	ByRole   map[string]int64 `json:"by_role"`
	Active   int64            `json:"active"`
	Inactive int64            `json:"inactive"`
	Workload []AssigneeLoad   `json:"technician_workload"`
}

// AssigneeLoad mirrors a technician's open assignment count.
type AssigneeLoad struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	TicketCount int64  `json:"ticket_count"`
}

// PrioritySLA reports SLA standing for one priority.
type PrioritySLA struct {
	Total          int64   `json:"total"`
	Overdue        int64   `json:"overdue"`
	WithinSLA      int64   `json:"within_sla"`
	PercentOverdue float64 `json:"percent_overdue"`
}

// DashboardSLA groups SLA compliance figures.
type DashboardSLA struct {
	Overdue            int64                  `json:"overdue"`
	ResolvedWithinSLA  int64                  `json:"resolved_within_sla"`
	ResolvedOutsideSLA int64                  `json:"resolved_outside_sla"`
	ByPriority         map[string]PrioritySLA `json:"by_priority"`
}

// ResolutionStats carries avg/min/max hours.
type ResolutionStats struct {
	AvgHours float64 `json:"avg_hours"`
	MinHours float64 `json:"min_hours"`
	MaxHours float64 `json:"max_hours"`
}

// DashboardPerformance groups duration statistics.
type DashboardPerformance struct {
	ResolutionByPriority map[string]ResolutionStats `json:"resolution_by_priority"`
	FirstResponse        *ResolutionStats           `json:"first_response"`
}

// DashboardSummary is the full operational report.
type DashboardSummary struct {
	Period      DashboardPeriod      `json:"period"`
	Tickets     DashboardTickets     `json:"tickets"`
	Users       DashboardUsers       `json:"users"`
	SLA         DashboardSLA         `json:"sla"`
	Performance DashboardPerformance `json:"performance"`
}

// TicketMetricsSummary is the lightweight per-status snapshot.
type TicketMetricsSummary struct {
	Total              int64            `json:"total"`
	ByStatus           map[string]int64 `json:"by_status"`
	Overdue            int64            `json:"overdue"`
	AvgResolutionHours float64          `json:"avg_resolution_hours"`
}

// DashboardService assembles the operational dashboard from aggregation
// queries. Results are computed on demand, never cached.
type DashboardService struct {
	metrics repository.MetricsRepository
	now     func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(metrics repository.MetricsRepository) *DashboardService {
	return &DashboardService{metrics: metrics, now: time.Now}
}

// Summary builds the dashboard over the trailing window. The window applies
// to ticket volume figures only; SLA, performance and user figures cover all
// time.
func (s *DashboardService) Summary(ctx context.Context, days int) (*DashboardSummary, error) {
	if days <= 0 {
		days = defaultDashboardDays
	}
	end := s.now()
	start := end.AddDate(0, 0, -days)

	out := &DashboardSummary{
		Period: DashboardPeriod{Start: start, End: end, Days: days},
	}

	total, err := s.metrics.CountTickets(ctx, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.Tickets.Total = total

	if out.Tickets.ByStatus, err = s.groupMap(ctx, start, end, s.metrics.TicketsByStatus); err != nil {
		return nil, err
	}
	if out.Tickets.ByCategory, err = s.groupMap(ctx, start, end, s.metrics.TicketsByCategory); err != nil {
		return nil, err
	}
	if out.Tickets.ByPriority, err = s.groupMap(ctx, start, end, s.metrics.TicketsByPriority); err != nil {
		return nil, err
	}
	if out.Tickets.ByDay, err = s.groupMap(ctx, start, end, s.metrics.TicketsByDay); err != nil {
		return nil, err
	}

	if out.SLA.Overdue, err = s.metrics.OverdueCount(ctx, end); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.SLA.ResolvedWithinSLA, err = s.metrics.ResolvedWithinSLA(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.SLA.ResolvedOutsideSLA, err = s.metrics.ResolvedOutsideSLA(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	slaRows, err := s.metrics.SLAByPriority(ctx, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.SLA.ByPriority = make(map[string]PrioritySLA, len(slaRows))
	for _, row := range slaRows {
		entry := PrioritySLA{
			Total:     row.Total,
			Overdue:   row.Overdue,
			WithinSLA: row.Total - row.Overdue,
		}
		if row.Total > 0 {
			entry.PercentOverdue = round2(float64(row.Overdue) / float64(row.Total) * 100)
		}
		out.SLA.ByPriority[row.Priority] = entry
	}

	resolution, err := s.metrics.ResolutionStatsByPriority(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.Performance.ResolutionByPriority = make(map[string]ResolutionStats, len(resolution))
	for _, row := range resolution {
		out.Performance.ResolutionByPriority[row.Priority] = ResolutionStats{
			AvgHours: round2(row.Stats.Avg),
			MinHours: round2(row.Stats.Min),
			MaxHours: round2(row.Stats.Max),
		}
	}

	firstResponse, err := s.metrics.FirstResponseStats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if firstResponse != nil {
		out.Performance.FirstResponse = &ResolutionStats{
			AvgHours: round2(firstResponse.Avg),
			MinHours: round2(firstResponse.Min),
			MaxHours: round2(firstResponse.Max),
		}
	}

	byRole, err := s.metrics.UsersByRole(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.Users.ByRole = toMap(byRole)

	if out.Users.Active, out.Users.Inactive, err = s.metrics.UserActivityCounts(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	loads, err := s.metrics.TopAssignees(ctx, 5)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.Users.Workload = make([]AssigneeLoad, 0, len(loads))
	for _, load := range loads {
		out.Users.Workload = append(out.Users.Workload, AssigneeLoad{
			UserID:      load.UserID,
			Name:        load.Name,
			TicketCount: load.Count,
		})
	}

	return out, nil
}

// TicketSummary builds the per-status snapshot over all time.
func (s *DashboardService) TicketSummary(ctx context.Context) (*TicketMetricsSummary, error) {
	counts, err := s.metrics.CountAllByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := &TicketMetricsSummary{ByStatus: toMap(counts)}
	for _, c := range counts {
		out.Total += c.Count
	}
	if out.Overdue, err = s.metrics.OverdueCount(ctx, s.now()); err != nil {
		return nil, apperrors.MapError(err)
	}
	avg, err := s.metrics.AvgResolutionHours(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.AvgResolutionHours = round2(avg)
	return out, nil
}

func (s *DashboardService) groupMap(ctx context.Context, from, to time.Time, query func(context.Context, time.Time, time.Time) ([]repository.GroupCount, error)) (map[string]int64, error) {
	rows, err := query(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return toMap(rows), nil
}

func toMap(rows []repository.GroupCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
