package web

import (
	"net/http"

	"ecocrew/internal/application/orchestrators"
)

// registerRoutes mounts every endpoint on mux. Role checks happen inside the
// handlers so that a wrong role answers 403 rather than 405 or 404.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealthz)

	// Accounts and sessions
	mux.HandleFunc("POST /api/register/participant", handleRegisterParticipant)
	mux.HandleFunc("POST /api/register/server", handleRegisterServer)
	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.HandleFunc("GET /api/me", handleMe)

	// Servers
	mux.HandleFunc("GET /api/servers", handleListServers)
	mux.HandleFunc("POST /api/admin/servers/{id}/active", handleSetServerActive)

	// Events, impact and leaderboard
	mux.HandleFunc("GET /api/events", handleListEvents)
	mux.HandleFunc("POST /api/events", handleCreateEvent)
	mux.HandleFunc("GET /api/events/{id}", handleGetEvent)
	mux.HandleFunc("POST /api/events/{id}/status", handleUpdateEventStatus)
	mux.HandleFunc("POST /api/events/{id}/join", handleJoinEvent)
	mux.HandleFunc("POST /api/events/{id}/leave", handleLeaveEvent)
	mux.HandleFunc("POST /api/impact", handleLogImpact)
	mux.HandleFunc("GET /api/impact", handleMyImpact)
	mux.HandleFunc("GET /api/leaderboard", handleLeaderboard)
	mux.HandleFunc("GET /api/recommendations", handleRecommendations)

	// Certificates and sharing
	mux.HandleFunc("GET /api/certificates", handleListCertificates)
	mux.HandleFunc("POST /api/certificates", handleUploadCertificate)
	mux.HandleFunc("GET /api/certificates/{id}", handleGetCertificate)
	mux.HandleFunc("POST /api/sharing", handleShareCertificate)
	mux.HandleFunc("POST /api/sharing/{id}/resubmit", handleResubmitRequest)
	mux.HandleFunc("GET /api/community", handleCommunity)
	mux.HandleFunc("GET /api/reviews", handleListReviews)
	mux.HandleFunc("POST /api/reviews/{id}/start", handleStartReview)
	mux.HandleFunc("POST /api/reviews/{id}/decision", handleReviewDecision)

	// Operational records
	mux.HandleFunc("GET /api/ops/summary", handleOpsSummary)
	mux.HandleFunc("GET /api/ops/tasks", handleListTasks)
	mux.HandleFunc("POST /api/ops/tasks", handleSaveTask)
	mux.HandleFunc("POST /api/ops/tasks/{id}/status", handleUpdateTaskStatus)
	mux.HandleFunc("DELETE /api/ops/tasks/{id}", handleDeleteOpsRecord(orchestrators.OpsTask))
	mux.HandleFunc("GET /api/ops/equipment", handleListEquipment)
	mux.HandleFunc("POST /api/ops/equipment", handleSaveEquipment)
	mux.HandleFunc("DELETE /api/ops/equipment/{id}", handleDeleteOpsRecord(orchestrators.OpsEquipment))
	mux.HandleFunc("GET /api/ops/compliance", handleListCompliance)
	mux.HandleFunc("POST /api/ops/compliance", handleSaveCompliance)
	mux.HandleFunc("DELETE /api/ops/compliance/{id}", handleDeleteOpsRecord(orchestrators.OpsCompliance))
	mux.HandleFunc("GET /api/ops/finances", handleListFinances)
	mux.HandleFunc("POST /api/ops/finances", handleSaveFinance)
	mux.HandleFunc("DELETE /api/ops/finances/{id}", handleDeleteOpsRecord(orchestrators.OpsFinance))

	// Admin
	mux.HandleFunc("GET /api/admin/outbox", handleAdminListOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{id}/retry", handleAdminRetryOutbox)
	mux.HandleFunc("POST /api/admin/outbox/{id}/abandon", handleAdminAbandonOutbox)
	mux.HandleFunc("GET /api/admin/audit", handleAdminAudit)
	mux.HandleFunc("GET /api/admin/perf", handlePerf)
}
