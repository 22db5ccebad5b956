// Package claimerr turns conflict types, claim statuses, and raw store
// failures into structured, user-presentable errors. Every error is logged
// once at creation so claim failures stay diagnosable after the fact.
package claimerr

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/offers/conflict"
	"github.com/venueflash/flashcore/flashcore/store"
)

type ErrorType string

const (
	TypeExpired            ErrorType = "expired"
	TypeRejected           ErrorType = "rejected"
	TypeConnectionFailed   ErrorType = "connection_failed"
	TypeAuthFailed         ErrorType = "auth_failed"
	TypeSubscriptionFailed ErrorType = "subscription_failed"
	TypeSyncFailed         ErrorType = "sync_failed"
	TypeInvalidClaim       ErrorType = "invalid_claim"
	TypeAlreadyRedeemed    ErrorType = "already_redeemed"
	TypeAlreadyClaimed     ErrorType = "already_claimed"
	TypeOfferFull          ErrorType = "offer_full"
	TypeOfferExpired       ErrorType = "offer_expired"
	TypeUnknown            ErrorType = "unknown"
)

type Classification string

const (
	Temporary Classification = "temporary"
	Permanent Classification = "permanent"
)

// ClaimError is the structured failure surfaced to callers: title + message
// + one concrete next action, never a raw failure string. Original keeps the
// underlying failure for logging only.
type ClaimError struct {
	ID             string
	Type           ErrorType
	Classification Classification
	Title          string
	Message        string
	Guidance       string
	Retryable      bool
	Original       error
	CreatedAt      time.Time
}

func (e *ClaimError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ClaimError) Unwrap() error {
	return e.Original
}

// Template supplies the static pieces for one error type. Message may
// interpolate details via MessageFunc; when nil, Message is used verbatim.
type Template struct {
	Title          string
	Message        string
	MessageFunc    func(details string) string
	Guidance       string
	Classification Classification
	Retryable      bool
}

// DefaultTemplates is the production template table. Injected at
// construction so tests can substitute alternates.
func DefaultTemplates() map[ErrorType]Template {
	return map[ErrorType]Template{
		TypeExpired: {
			Title:          "Claim Expired",
			Message:        "This claim has expired and can no longer be redeemed.",
			Guidance:       "Check the venue for new offers.",
			Classification: Permanent,
		},
		TypeRejected: {
			Title:   "Claim Rejected",
			Message: "The venue could not accept this claim.",
			MessageFunc: func(details string) string {
				if details == "" {
					return "The venue could not accept this claim."
				}
				return fmt.Sprintf("The venue could not accept this claim: %s.", details)
			},
			Guidance:       "Contact the venue if you believe this is a mistake.",
			Classification: Permanent,
		},
		TypeConnectionFailed: {
			Title:          "Connection Problem",
			Message:        "We couldn't reach the server.",
			Guidance:       "Check your connection and try again.",
			Classification: Temporary,
			Retryable:      true,
		},
		TypeAuthFailed: {
			Title:          "Signed Out",
			Message:        "Your session is no longer valid.",
			Guidance:       "Sign in again and retry.",
			Classification: Temporary,
			Retryable:      true,
		},
		TypeSubscriptionFailed: {
			Title:          "Live Updates Unavailable",
			Message:        "We couldn't open a live status feed for this claim.",
			Guidance:       "Pull to refresh manually.",
			Classification: Temporary,
			Retryable:      true,
		},
		TypeSyncFailed: {
			Title:          "Sync Problem",
			Message:        "Your claim status may be out of date.",
			Guidance:       "Pull to refresh manually.",
			Classification: Temporary,
			Retryable:      true,
		},
		TypeInvalidClaim: {
			Title:          "Invalid Claim",
			Message:        "This claim could not be processed.",
			Guidance:       "Pick another offer or contact support.",
			Classification: Permanent,
		},
		TypeAlreadyRedeemed: {
			Title:          "Already Redeemed",
			Message:        "This claim has already been redeemed.",
			Guidance:       "Check your claim history for the receipt.",
			Classification: Permanent,
		},
		TypeAlreadyClaimed: {
			Title:          "Already Claimed",
			Message:        "You already have a claim on this offer.",
			Guidance:       "Open your existing claim to see its token.",
			Classification: Permanent,
		},
		TypeOfferFull: {
			Title:          "Offer Full",
			Message:        "All slots for this offer have been claimed.",
			Guidance:       "Pick another offer from this venue.",
			Classification: Permanent,
		},
		TypeOfferExpired: {
			Title:          "Offer Ended",
			Message:        "This offer's claim window has closed.",
			Guidance:       "Check the venue for new offers.",
			Classification: Permanent,
		},
		TypeUnknown: {
			Title:   "Something Went Wrong",
			Message: "An unexpected error occurred.",
			MessageFunc: func(details string) string {
				if details == "" {
					return "An unexpected error occurred."
				}
				return fmt.Sprintf("An unexpected error occurred (%s).", details)
			},
			Guidance:       "Try again in a moment.",
			Classification: Temporary,
			Retryable:      true,
		},
	}
}

// Sink receives every constructed error. The default implementation logs
// via slog; the notification audit journal plugs in here too.
type Sink interface {
	RecordClaimError(e *ClaimError)
}

// Service builds ClaimErrors from the injected template table.
type Service struct {
	templates map[ErrorType]Template
	sink      Sink
	now       func() time.Time
}

func NewService(templates map[ErrorType]Template, sink Sink) *Service {
	return &Service{templates: templates, sink: sink, now: time.Now}
}

func NewDefaultService(sink Sink) *Service {
	return NewService(DefaultTemplates(), sink)
}

// CreateError looks up the template for errType and produces the structured
// error. Logging through the sink is mandatory, not optional.
func (s *Service) CreateError(errType ErrorType, details string, original error) *ClaimError {
	tmpl, ok := s.templates[errType]
	if !ok {
		errType = TypeUnknown
		tmpl = s.templates[TypeUnknown]
	}

	message := tmpl.Message
	if tmpl.MessageFunc != nil {
		message = tmpl.MessageFunc(details)
	}

	e := &ClaimError{
		ID:             uuid.NewString(),
		Type:           errType,
		Classification: tmpl.Classification,
		Title:          tmpl.Title,
		Message:        message,
		Guidance:       tmpl.Guidance,
		Retryable:      tmpl.Retryable,
		Original:       original,
		CreatedAt:      s.now(),
	}

	if s.sink != nil {
		s.sink.RecordClaimError(e)
	}
	return e
}

// ForConflict maps a classified race conflict to its error type. All four
// conflict types are permanent: resubmitting the same claim cannot succeed.
func (s *Service) ForConflict(t conflict.Type, original error) *ClaimError {
	switch t {
	case conflict.TypeOfferFull:
		return s.CreateError(TypeOfferFull, "", original)
	case conflict.TypeOfferExpired:
		return s.CreateError(TypeOfferExpired, "", original)
	case conflict.TypeAlreadyRedeemed:
		return s.CreateError(TypeAlreadyRedeemed, "", original)
	case conflict.TypeAlreadyClaimed:
		return s.CreateError(TypeAlreadyClaimed, "", original)
	}
	return s.CreateError(TypeUnknown, "", original)
}

// ClassifyGenericFailure is the defensive fallback for failures that never
// passed through CreateError. The default is temporary: bias toward letting
// the user retry rather than silently blocking them.
func (s *Service) ClassifyGenericFailure(failure *store.Failure) Classification {
	if failure == nil {
		return Temporary
	}

	msg := strings.ToLower(failure.Message)

	switch failure.Kind {
	case store.KindNetwork:
		return Temporary
	case store.KindValidation:
		return Permanent
	}

	switch failure.StatusCode {
	case 401, 403:
		return Temporary // user can re-authenticate
	case 400, 422:
		return Permanent
	}

	switch {
	case containsAny(msg, "timeout", "timed out", "connection", "network", "unreachable"):
		return Temporary
	case containsAny(msg, "unauthorized", "forbidden", "auth"):
		return Temporary
	case containsAny(msg, "invalid", "validation", "malformed"):
		return Permanent
	}
	return Temporary
}

// HandleClaimStatus maps a claim's status directly to a display error.
// Active and pending claims are not error states and yield nil.
func (s *Service) HandleClaimStatus(status models.ClaimStatus, rejectionReason string) *ClaimError {
	switch status {
	case models.ClaimStatusActive, "pending":
		return nil
	case models.ClaimStatusExpired:
		return s.CreateError(TypeExpired, "", nil)
	case models.ClaimStatusRejected:
		e := s.CreateError(TypeRejected, rejectionReason, nil)
		if g := s.GetActionableGuidance(rejectionReason); g != "" {
			e.Guidance = g
		}
		return e
	case models.ClaimStatusRedeemed:
		return s.CreateError(TypeAlreadyRedeemed, "", nil)
	}
	return s.CreateError(TypeUnknown, string(status), nil)
}

// GetActionableGuidance inspects a rejection reason for known substrings and
// returns tailored guidance; empty when nothing matches (callers keep the
// template's generic guidance).
func (s *Service) GetActionableGuidance(reason string) string {
	r := strings.ToLower(reason)
	switch {
	case r == "":
		return ""
	case containsAny(r, "expired", "time", "window"):
		return "This claim's window has passed. Check the venue for new offers."
	case containsAny(r, "invalid", "not found", "unknown"):
		return "The token wasn't recognized. Re-open the claim to show a fresh code."
	case containsAny(r, "already", "used", "redeemed"):
		return "This token was already used. Check your claim history for the receipt."
	case containsAny(r, "limit", "maximum"):
		return "You've hit this offer's claim limit. Pick another offer."
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
