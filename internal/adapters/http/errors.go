package web

import (
	"database/sql"
	"errors"
	"net/http"

	accountStore "ecocrew/internal/adapters/storage/account"
	"ecocrew/internal/application/orchestrators"
	"ecocrew/internal/application/projections"
	"ecocrew/internal/domain/account"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/impact"
	"ecocrew/internal/domain/operations"
	domainOutbox "ecocrew/internal/domain/outbox"
	"ecocrew/internal/domain/profile"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

// errorStatus lists the sentinels with a fixed status. Anything not listed,
// and not wrapping one of these, is a 500.
var errorStatus = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		account.ErrInvalidEmail, account.ErrEmptyEmail, account.ErrEmailTooLong,
		account.ErrInvalidRole, account.ErrEmptyPassword, account.ErrPasswordTooShort,
		profile.ErrEmptyAccountID, profile.ErrEmptyName, profile.ErrNameTooLong, profile.ErrBioTooLong,
		serverprofile.ErrEmptyAccountID, serverprofile.ErrEmptyOrganization, serverprofile.ErrInvalidEmail,
		event.ErrEmptyServerID, event.ErrEmptyTitle, event.ErrTitleTooLong, event.ErrEmptyLocation,
		event.ErrMissingStart, event.ErrEndBeforeStart, event.ErrNegativeCapacity, event.ErrInvalidStatus,
		impact.ErrEmptyParticipantID, impact.ErrEmptyEventID, impact.ErrNegativeMetric,
		impact.ErrNoImpact, impact.ErrNotesTooLong, impact.ErrMetricTooLarge,
		certification.ErrEmptyParticipantID, certification.ErrEmptyName, certification.ErrNameTooLong,
		certification.ErrInvalidType, certification.ErrMissingIssueDate, certification.ErrExpiryBeforeIssue,
		certification.ErrEmptyFileRef, certification.ErrFileRefTooLong, certification.ErrExpired,
		sharing.ErrEmptyCertificateID, sharing.ErrEmptyParticipantID, sharing.ErrEmptyServerID,
		sharing.ErrEmptyReviewerID, sharing.ErrInvalidStatus, sharing.ErrInvalidDecision,
		sharing.ErrMissingRejectionReason, sharing.ErrMissingRevisionRequest, sharing.ErrTextTooLong,
		operations.ErrInvalidKind, operations.ErrMissingValidity, operations.ErrValidityOrder,
		operations.ErrNegativeQuantity, operations.ErrInvalidCondition, operations.ErrInvalidFinanceKind,
		operations.ErrNonPositiveAmount, operations.ErrMissingOccurredOn, operations.ErrEmptyServerID,
		operations.ErrEmptyTitle, operations.ErrTitleTooLong, operations.ErrInvalidTaskStatus,
		projections.ErrInvalidPeriod, projections.ErrInvalidStatusFilter, projections.ErrInvalidTypeFilter,
		orchestrators.ErrUnknownOpsKind,
	}},
	{http.StatusUnauthorized, []error{
		orchestrators.ErrInvalidCredentials,
	}},
	{http.StatusForbidden, []error{
		sharing.ErrNotOwner, orchestrators.ErrNoServerProfile, orchestrators.ErrNotOrganizer,
		orchestrators.ErrNotReviewer, serverprofile.ErrInactive, event.ErrNotRegistered,
		projections.ErrCertificateHidden,
	}},
	{http.StatusNotFound, []error{
		sql.ErrNoRows,
	}},
	{http.StatusConflict, []error{
		sharing.ErrInvalidTransition, sharing.ErrDuplicateOpen, sharing.ErrConflict,
		event.ErrInvalidTransition, event.ErrNotJoinable, event.ErrEventFull,
		event.ErrNotLeavable, event.ErrNotStarted, event.ErrAlreadyRegistered,
		operations.ErrInvalidTransition, serverprofile.ErrAlreadyActive, serverprofile.ErrAlreadyInactive,
		certification.ErrAlreadyActive, certification.ErrFileLocked, accountStore.ErrEmailTaken,
		domainOutbox.ErrNotRetryable, domainOutbox.ErrAlreadyTerminal,
	}},
	{http.StatusLocked, []error{
		orchestrators.ErrAccountLocked,
	}},
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	if isBadRequest(err) {
		return http.StatusBadRequest
	}
	for _, group := range errorStatus {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
