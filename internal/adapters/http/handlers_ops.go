package web

import (
	"context"
	"net/http"

	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/account"
)

func opsDeps() orchestrators.OpsDeps {
	return orchestrators.OpsDeps{
		ServerStore: stores.ServerStore,
		OpsStore:    stores.OperationsStore,
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

// serveOpsList answers an operations listing for the caller's server.
func serveOpsList[T any](w http.ResponseWriter, r *http.Request, query func(context.Context, projections.ServerScopedQuery, projections.OpsDeps) (T, error)) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	srv, err := callerServer(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := query(r.Context(), projections.ServerScopedQuery{ServerID: srv.ID, Now: timeNow()},
		projections.OpsDeps{OpsStore: stores.OperationsStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// savedStatus is 201 for a create and 200 for an edit.
func savedStatus(id string) int {
	if id == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}

// handleOpsSummary handles GET /api/ops/summary (server role).
func handleOpsSummary(w http.ResponseWriter, r *http.Request) {
	serveOpsList(w, r, projections.QueryGetOpsSummary)
}

// handleListTasks handles GET /api/ops/tasks (server role).
func handleListTasks(w http.ResponseWriter, r *http.Request) {
	serveOpsList(w, r, projections.QueryListTasks)
}

// handleListEquipment handles GET /api/ops/equipment (server role).
func handleListEquipment(w http.ResponseWriter, r *http.Request) {
	serveOpsList(w, r, projections.QueryListEquipment)
}

// handleListCompliance handles GET /api/ops/compliance (server role).
func handleListCompliance(w http.ResponseWriter, r *http.Request) {
	serveOpsList(w, r, projections.QueryListCompliance)
}

// handleListFinances handles GET /api/ops/finances (server role).
func handleListFinances(w http.ResponseWriter, r *http.Request) {
	serveOpsList(w, r, projections.QueryListFinances)
}

// handleSaveTask handles POST /api/ops/tasks. A body with an id edits.
func handleSaveTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		ID          string `json:"id"`
		EventID     string `json:"event_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Assignee    string `json:"assignee"`
		DueOn       string `json:"due_on"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	dueOn, err := parseDate("due_on", req.DueOn)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := orchestrators.ExecuteSaveTask(r.Context(), orchestrators.SaveTaskInput{
		Actor:       actorFrom(r, sess),
		ID:          req.ID,
		EventID:     req.EventID,
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		DueOn:       dueOn,
	}, opsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, savedStatus(req.ID), projections.NewTaskView(task, timeNow()))
}

// handleUpdateTaskStatus handles POST /api/ops/tasks/{id}/status.
func handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	task, err := orchestrators.ExecuteUpdateTaskStatus(r.Context(), orchestrators.UpdateTaskStatusInput{
		Actor:  actorFrom(r, sess),
		TaskID: r.PathValue("id"),
		Status: req.Status,
	}, opsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewTaskView(task, timeNow()))
}

// handleSaveEquipment handles POST /api/ops/equipment.
func handleSaveEquipment(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		Quantity  int    `json:"quantity"`
		Condition string `json:"condition"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	e, err := orchestrators.ExecuteSaveEquipment(r.Context(), orchestrators.SaveEquipmentInput{
		Actor:     actorFrom(r, sess),
		ID:        req.ID,
		Name:      req.Name,
		Category:  req.Category,
		Quantity:  req.Quantity,
		Condition: req.Condition,
	}, opsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, savedStatus(req.ID), projections.NewEquipmentView(e))
}

// handleSaveCompliance handles POST /api/ops/compliance.
func handleSaveCompliance(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Kind       string `json:"kind"`
		Reference  string `json:"reference"`
		ValidFrom  string `json:"valid_from"`
		ValidUntil string `json:"valid_until"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	validFrom, err := parseDate("valid_from", req.ValidFrom)
	if err != nil {
		writeError(w, err)
		return
	}
	validUntil, err := parseDate("valid_until", req.ValidUntil)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := orchestrators.ExecuteSaveCompliance(r.Context(), orchestrators.SaveComplianceInput{
		Actor:      actorFrom(r, sess),
		ID:         req.ID,
		Title:      req.Title,
		Kind:       req.Kind,
		Reference:  req.Reference,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
	}, opsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, savedStatus(req.ID), projections.NewComplianceView(c, timeNow()))
}

// handleSaveFinance handles POST /api/ops/finances. Amounts are in cents.
func handleSaveFinance(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireRole(w, r, account.RoleServer)
	if !ok {
		return
	}
	var req struct {
		ID          string `json:"id"`
		EventID     string `json:"event_id"`
		Kind        string `json:"kind"`
		Category    string `json:"category"`
		AmountCents int64  `json:"amount_cents"`
		Description string `json:"description"`
		OccurredOn  string `json:"occurred_on"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	occurredOn, err := parseDate("occurred_on", req.OccurredOn)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := orchestrators.ExecuteSaveFinance(r.Context(), orchestrators.SaveFinanceInput{
		Actor:       actorFrom(r, sess),
		ID:          req.ID,
		EventID:     req.EventID,
		Kind:        req.Kind,
		Category:    req.Category,
		AmountCents: req.AmountCents,
		Description: req.Description,
		OccurredOn:  occurredOn,
	}, opsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, savedStatus(req.ID), projections.NewFinanceView(f))
}

// handleDeleteOpsRecord returns the DELETE /api/ops/<kind>/{id} handler.
func handleDeleteOpsRecord(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requireRole(w, r, account.RoleServer)
		if !ok {
			return
		}
		err := orchestrators.ExecuteDeleteOpsRecord(r.Context(), orchestrators.DeleteOpsRecordInput{
			Actor: actorFrom(r, sess),
			Kind:  kind,
			ID:    r.PathValue("id"),
		}, opsDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
