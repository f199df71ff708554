package web

import (
	"net/http"

	"ecocrew/internal/adapters/http/middleware"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/account"
)

type accountResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// handleRegisterParticipant handles POST /api/register/participant.
func handleRegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		Location    string `json:"location"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	acct, err := orchestrators.ExecuteRegisterParticipant(r.Context(), orchestrators.RegisterParticipantInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Location:    req.Location,
	}, orchestrators.RegisterParticipantDeps{
		AccountStore: stores.AccountStore,
		ProfileStore: stores.ProfileStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse{AccountID: acct.ID, Email: acct.Email, Role: acct.Role})
}

// handleRegisterServer handles POST /api/register/server.
// The server profile starts inactive until an admin approves it.
func handleRegisterServer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email"`
		Password         string `json:"password"`
		OrganizationName string `json:"organization_name"`
		ContactEmail     string `json:"contact_email"`
		Description      string `json:"description"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	acct, err := orchestrators.ExecuteRegisterServer(r.Context(), orchestrators.RegisterServerInput{
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
		ContactEmail:     req.ContactEmail,
		Description:      req.Description,
	}, orchestrators.RegisterServerDeps{
		AccountStore: stores.AccountStore,
		ServerStore:  stores.ServerStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse{AccountID: acct.ID, Email: acct.Email, Role: acct.Role})
}

// handleLogin handles POST /api/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		AuditStore:   stores.AuditStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := sessions.Create(res.AccountID, res.Email, res.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, secureCookies)
	writeJSON(w, http.StatusOK, accountResponse{AccountID: res.AccountID, Email: res.Email, Role: res.Role})
}

// handleLogout handles POST /api/logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		orchestrators.ExecuteLogout(r.Context(), actorFrom(r, sess), orchestrators.LogoutDeps{
			AuditStore: stores.AuditStore,
			GenerateID: generateID,
			Now:        timeNow,
		})
	}
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	accountResponse
	DisplayName string                  `json:"display_name,omitempty"`
	Location    string                  `json:"location,omitempty"`
	Server      *projections.ServerView `json:"server,omitempty"`
}

// handleMe handles GET /api/me.
func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	resp := meResponse{accountResponse: accountResponse{AccountID: sess.AccountID, Email: sess.Email, Role: sess.Role}}

	switch sess.Role {
	case account.RoleParticipant:
		p, err := stores.ProfileStore.GetByAccountID(r.Context(), sess.AccountID)
		if err != nil && !isNotFound(err) {
			internalError(w, err)
			return
		}
		resp.DisplayName = p.DisplayName
		resp.Location = p.Location
	case account.RoleServer:
		srv, err := stores.ServerStore.GetByAccountID(r.Context(), sess.AccountID)
		if err != nil && !isNotFound(err) {
			internalError(w, err)
			return
		}
		if err == nil {
			view := projections.NewServerView(srv)
			resp.Server = &view
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
