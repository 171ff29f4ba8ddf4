package services

import "good-morning-backend/internal/apperr"

var (
	ErrUnauthorized = apperr.New(apperr.KindUnauthorized, "UNAUTHORIZED", "unauthorized")

	ErrInvalidUsername = apperr.New(apperr.KindValidation, "INVALID_USERNAME", "username must be 1-50 characters")

	ErrInvalidCode   = apperr.New(apperr.KindValidation, "INVALID_CODE", "pair code is required")
	ErrCodeNotFound  = apperr.New(apperr.KindNotFound, "NOT_FOUND", "partner not found")
	ErrSelfPairing   = apperr.New(apperr.KindConflict, "SELF_PAIRING", "cannot pair with yourself")
	ErrAlreadyPaired = apperr.New(apperr.KindConflict, "ALREADY_PAIRED", "already paired")

	ErrNotPaired        = apperr.New(apperr.KindValidation, "NOT_PAIRED", "no paired user")
	ErrMissingColor     = apperr.New(apperr.KindValidation, "MISSING_COLOR", "foregroundColor and backgroundColor are required")
	ErrAlreadySentToday = apperr.New(apperr.KindConflict, "ALREADY_SENT_TODAY", "notice already sent today")
	ErrNoticeNotFound   = apperr.New(apperr.KindNotFound, "NOTICE_NOT_FOUND", "notice not found")
	ErrForbidden        = apperr.New(apperr.KindForbidden, "FORBIDDEN", "only the sender can edit this notice")
	ErrNoticeExpired    = apperr.New(apperr.KindConflict, "EXPIRED", "notice has already reset")

	ErrInvalidSubscription = apperr.New(apperr.KindValidation, "INVALID_SUBSCRIPTION", "invalid push subscription")
	ErrStorageUnavailable  = apperr.New(apperr.KindUpstream, "UPSTREAM_UNAVAILABLE", "storage not configured")
)
