package projections

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ecocrew/internal/domain/operations"
)

// ServerScopedQuery carries the caller's server and the clock.
type ServerScopedQuery struct {
	ServerID string
	Now      time.Time // optional: if zero, time.Now() is used
}

func (q ServerScopedQuery) now() time.Time {
	if q.Now.IsZero() {
		return time.Now()
	}
	return q.Now
}

// OpsDeps holds dependencies for the operations projections.
type OpsDeps struct {
	OpsStore OperationsStore
}

// OpsSummary is the dashboard rollup of a server's operational records.
type OpsSummary struct {
	OpenTasks           int                `json:"open_tasks"`
	OverdueTasks        int                `json:"overdue_tasks"`
	EquipmentItems      int                `json:"equipment_items"`
	EquipmentNeedRepair int                `json:"equipment_need_repair"`
	ComplianceExpiring  int                `json:"compliance_expiring"`
	ComplianceExpired   int                `json:"compliance_expired"`
	Finances            operations.Balance `json:"finances"`
}

// QueryGetOpsSummary rolls up a server's tasks, equipment, compliance and finances.
// PRE: query.ServerID is non-empty
func QueryGetOpsSummary(ctx context.Context, query ServerScopedQuery, deps OpsDeps) (OpsSummary, error) {
	now := query.now()
	var s OpsSummary

	tasks, err := deps.OpsStore.ListTasks(ctx, query.ServerID)
	if err != nil {
		return OpsSummary{}, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].Status != operations.TaskDone {
			s.OpenTasks++
		}
		if tasks[i].IsOverdue(now) {
			s.OverdueTasks++
		}
	}

	equipment, err := deps.OpsStore.ListEquipment(ctx, query.ServerID)
	if err != nil {
		return OpsSummary{}, fmt.Errorf("list equipment: %w", err)
	}
	for i := range equipment {
		s.EquipmentItems += equipment[i].Quantity
		if equipment[i].NeedsRepair() {
			s.EquipmentNeedRepair++
		}
	}

	records, err := deps.OpsStore.ListCompliance(ctx, query.ServerID)
	if err != nil {
		return OpsSummary{}, fmt.Errorf("list compliance: %w", err)
	}
	for i := range records {
		switch records[i].State(now) {
		case operations.ComplianceExpiring:
			s.ComplianceExpiring++
		case operations.ComplianceExpired:
			s.ComplianceExpired++
		}
	}

	finances, err := deps.OpsStore.ListFinances(ctx, query.ServerID)
	if err != nil {
		return OpsSummary{}, fmt.Errorf("list finances: %w", err)
	}
	s.Finances = operations.Summarize(finances)
	return s, nil
}

// QueryListTasks lists a server's tasks: open ones first, then by due date.
func QueryListTasks(ctx context.Context, query ServerScopedQuery, deps OpsDeps) ([]TaskView, error) {
	now := query.now()
	tasks, err := deps.OpsStore.ListTasks(ctx, query.ServerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].Status == operations.TaskDone, tasks[j].Status == operations.TaskDone
		if di != dj {
			return !di
		}
		// undated tasks sort last
		if tasks[i].DueOn.IsZero() != tasks[j].DueOn.IsZero() {
			return !tasks[i].DueOn.IsZero()
		}
		return tasks[i].DueOn.Before(tasks[j].DueOn)
	})
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t, now))
	}
	return views, nil
}

// QueryListEquipment lists a server's equipment.
func QueryListEquipment(ctx context.Context, query ServerScopedQuery, deps OpsDeps) ([]EquipmentView, error) {
	items, err := deps.OpsStore.ListEquipment(ctx, query.ServerID)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	views := make([]EquipmentView, 0, len(items))
	for _, e := range items {
		views = append(views, NewEquipmentView(e))
	}
	return views, nil
}

// QueryListCompliance lists a server's compliance records, soonest expiry first.
func QueryListCompliance(ctx context.Context, query ServerScopedQuery, deps OpsDeps) ([]ComplianceView, error) {
	now := query.now()
	records, err := deps.OpsStore.ListCompliance(ctx, query.ServerID)
	if err != nil {
		return nil, fmt.Errorf("list compliance: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].ValidUntil.Before(records[j].ValidUntil) })
	views := make([]ComplianceView, 0, len(records))
	for _, c := range records {
		views = append(views, NewComplianceView(c, now))
	}
	return views, nil
}

// FinanceLedger is a server's finance entries plus their balance.
type FinanceLedger struct {
	Entries []FinanceView      `json:"entries"`
	Balance operations.Balance `json:"balance"`
}

// QueryListFinances lists a server's finance entries with the running balance.
func QueryListFinances(ctx context.Context, query ServerScopedQuery, deps OpsDeps) (FinanceLedger, error) {
	entries, err := deps.OpsStore.ListFinances(ctx, query.ServerID)
	if err != nil {
		return FinanceLedger{}, fmt.Errorf("list finances: %w", err)
	}
	views := make([]FinanceView, 0, len(entries))
	for _, f := range entries {
		views = append(views, NewFinanceView(f))
	}
	return FinanceLedger{Entries: views, Balance: operations.Summarize(entries)}, nil
}
