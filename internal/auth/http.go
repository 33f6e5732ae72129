package auth

import (
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// ToDomainError collapses auth kinds into coarse client-visible errors. The fine kind
// stays in the audit log only. Non-auth errors pass through unchanged.
func ToDomainError(err error) error {
	switch KindOf(err) {
	case "":
		return err
	case KindInsufficientRole:
		return apperrors.NewForbidden("insufficient role")
	case KindStoreUnavailable:
		return apperrors.NewServiceUnavailable("authentication temporarily unavailable")
	default:
		return apperrors.NewUnauthorized("authentication failed")
	}
}
