package domain

import (
	"errors"
	"fmt"
)

var (
	// Storage / generic
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrInvalidExecContext = errors.New("invalid database execution context")

	// Redemption
	ErrAlreadyRedeemed    = errors.New("purchase already redeemed")
	ErrBlocked            = errors.New("beneficiary is blacklisted")
	ErrPaymentNotFound    = errors.New("purchase not found")
	ErrPaymentInvalid     = errors.New("purchase is not paid")
	ErrPaymentStale       = errors.New("purchase is older than the staleness window")
	ErrRoleGrantFailed    = errors.New("role grant failed")
	ErrLicenseIssueFailed = errors.New("license issuance failed")
	ErrPermissionDenied   = errors.New("platform permission denied")

	// Upstream
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrUpstreamRejected    = errors.New("upstream service rejected the request")

	// License
	ErrNoLicense       = errors.New("beneficiary has no license")
	ErrLifetimeLicense = errors.New("license never expires")

	// Referral
	ErrReferralUnknownCode = errors.New("referral code does not exist")
	ErrReferralSelf        = errors.New("cannot use own referral code")
	ErrReferralAlreadyUsed = errors.New("beneficiary already used a referral code")

	// Coordination
	ErrLockHeld = errors.New("lock held by another instance")

	ErrUnexpected = errors.New("unexpected error")
)

// Kind is the caller-facing classification of an outcome.
type Kind string

const (
	KindOK                  Kind = "ok"
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindAlreadyProcessed    Kind = "already_processed"
	KindBlocked             Kind = "blocked"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamRejected    Kind = "upstream_rejected"
	KindPartialSuccess      Kind = "partial_success"
	KindUnexpected          Kind = "unexpected"
)

// Error carries a Kind across layer boundaries together with the failing operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with an explicit kind. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies err. Explicit *Error kinds win over sentinel mapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var de *Error
	if errors.As(err, &de) && de.Kind != "" {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrReferralSelf),
		errors.Is(err, ErrReferralUnknownCode),
		errors.Is(err, ErrLifetimeLicense):
		return KindValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoLicense):
		return KindNotFound
	case errors.Is(err, ErrAlreadyRedeemed),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrReferralAlreadyUsed):
		return KindAlreadyProcessed
	case errors.Is(err, ErrBlocked):
		return KindBlocked
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrPaymentInvalid),
		errors.Is(err, ErrPaymentStale),
		errors.Is(err, ErrUpstreamRejected):
		return KindUpstreamRejected
	case errors.Is(err, ErrRoleGrantFailed), errors.Is(err, ErrLicenseIssueFailed):
		return KindPartialSuccess
	default:
		return KindUnexpected
	}
}

// Classify returns err wrapped as *Error so that callers never see an
// unclassified error. Unknown errors become KindUnexpected.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}
