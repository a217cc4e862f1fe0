// Package apperrors classifies platform failures into user-facing kinds
// with localized (pt-BR) messages.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
)

// Kind is a classified failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindAlreadyRegistered
	KindWeakPassword
	KindInvalidEmail
	KindRateLimited
	KindInvalidCredentials
	KindEmailNotConfirmed
	KindNotFound
	KindTransient
	KindUnauthenticated
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyRegistered:
		return "already_registered"
	case KindWeakPassword:
		return "weak_password"
	case KindInvalidEmail:
		return "invalid_email"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindEmailNotConfirmed:
		return "email_not_confirmed"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	default:
		return "generic"
	}
}

// Class is the coarse taxonomy a Kind belongs to.
type Class string

const (
	ClassValidation Class = "validation"
	ClassConflict   Class = "conflict"
	ClassRateLimit  Class = "rate_limited"
	ClassNotFound   Class = "not_found"
	ClassTransient  Class = "transient"
	ClassGeneric    Class = "generic"
)

func (k Kind) Class() Class {
	switch k {
	case KindAlreadyRegistered:
		return ClassConflict
	case KindRateLimited:
		return ClassRateLimit
	case KindNotFound:
		return ClassNotFound
	case KindTransient:
		return ClassTransient
	case KindWeakPassword, KindInvalidEmail, KindInvalidCredentials, KindEmailNotConfirmed, KindUnauthenticated, KindValidation:
		return ClassValidation
	default:
		return ClassGeneric
	}
}

// Operation names a user-facing action; it selects the classification rules
// that apply and the generic fallback message.
type Operation string

const (
	OpSignUp              Operation = "sign_up"
	OpSignIn              Operation = "sign_in"
	OpSignOut             Operation = "sign_out"
	OpResetPassword       Operation = "reset_password"
	OpUpdatePassword      Operation = "update_password"
	OpResendConfirmation  Operation = "resend_confirmation"
	OpCheckout            Operation = "checkout"
	OpPortal              Operation = "portal"
	OpRefreshSubscription Operation = "refresh_subscription"
	OpVerify              Operation = "verify"
)

// Error is a classified failure of Op. Message is ready to show to the user.
type Error struct {
	Kind    Kind
	Op      Operation
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error of kind for op with the standard message.
func New(kind Kind, op Operation) *Error {
	return &Error{Kind: kind, Op: op, Message: message(kind, op)}
}

// Wrap is New with a cause attached.
func Wrap(kind Kind, op Operation, cause error) *Error {
	e := New(kind, op)
	e.Cause = cause
	return e
}

// KindOf returns the Kind carried by err, or KindGeneric.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

type rule struct {
	kind       Kind
	codes      []string
	substrings []string
}

var (
	ruleAlreadyRegistered = rule{KindAlreadyRegistered, []string{"user_already_exists", "email_exists"}, []string{"user already registered"}}
	ruleWeakPassword      = rule{KindWeakPassword, []string{"weak_password"}, []string{"password should", "password is known to be weak", "weak password"}}
	ruleInvalidEmail      = rule{KindInvalidEmail, []string{"email_address_invalid", "validation_failed"}, []string{"unable to validate email address"}}
	ruleRateLimit         = rule{KindRateLimited, []string{"over_email_send_rate_limit", "over_request_rate_limit"}, []string{"rate limit"}}
	ruleSecurityCooldown  = rule{KindRateLimited, nil, []string{"for security purposes"}}
	ruleBadCredentials    = rule{KindInvalidCredentials, []string{"invalid_credentials"}, []string{"invalid login credentials"}}
	ruleNotConfirmed      = rule{KindEmailNotConfirmed, []string{"email_not_confirmed"}, []string{"email not confirmed"}}
	ruleUserNotFound      = rule{KindNotFound, []string{"user_not_found"}, []string{"user not found"}}
)

var rulesByOp = map[Operation][]rule{
	OpSignUp:             {ruleAlreadyRegistered, ruleWeakPassword, ruleInvalidEmail, ruleRateLimit, ruleSecurityCooldown},
	OpSignIn:             {ruleBadCredentials, ruleNotConfirmed, ruleRateLimit},
	OpResetPassword:      {ruleRateLimit, ruleSecurityCooldown, ruleUserNotFound, ruleInvalidEmail},
	OpUpdatePassword:     {ruleWeakPassword},
	OpResendConfirmation: {ruleRateLimit, ruleSecurityCooldown},
}

// Classify maps a failure of op onto a Kind. A structured error code from the
// platform wins; otherwise the message is matched against known phrases,
// case-insensitively. Anything unmatched is generic. Already classified
// errors pass through unchanged.
func Classify(op Operation, err error) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	if errors.Is(err, platform.ErrNetwork) {
		return Wrap(KindTransient, op, err)
	}

	rules := rulesByOp[op]
	var pe *platform.Error
	if errors.As(err, &pe) && pe.Code != "" {
		for _, r := range rules {
			for _, c := range r.codes {
				if strings.EqualFold(pe.Code, c) {
					return Wrap(r.kind, op, err)
				}
			}
		}
	}

	msg := strings.ToLower(err.Error())
	if pe != nil {
		msg = strings.ToLower(pe.Message)
	}
	for _, r := range rules {
		for _, sub := range r.substrings {
			if strings.Contains(msg, sub) {
				return Wrap(r.kind, op, err)
			}
		}
	}
	if pe != nil && pe.Status == 429 {
		return Wrap(KindRateLimited, op, err)
	}
	return Wrap(KindGeneric, op, err)
}
