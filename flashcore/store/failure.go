package store

import "fmt"

// FailureKind tags the shape of a failure crossing the store boundary, so
// callers match on a closed type instead of inspecting arbitrary errors.
type FailureKind string

const (
	KindNetwork    FailureKind = "network"
	KindHTTP       FailureKind = "http"
	KindValidation FailureKind = "validation"
	KindConflict   FailureKind = "conflict"
	KindUnknown    FailureKind = "unknown"
)

// Conflict phrases emitted by store implementations. The race classifier
// matches on these; every ClaimStore implementation must use them verbatim
// for the corresponding condition.
const (
	MsgOfferFull       = "offer has reached maximum claims"
	MsgOfferExpired    = "offer has expired"
	MsgAlreadyClaimed  = "user has already claimed this offer"
	MsgAlreadyRedeemed = "claim has already been redeemed"
	MsgClaimExpired    = "claim has expired"
	MsgInvalidToken    = "invalid or unknown redemption token"
	MsgOfferNotStarted = "offer is not active yet"
)

// Failure is the tagged variant for store-level errors.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Message    string
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("store failure (%s, %d): %s", f.Kind, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("store failure (%s): %s", f.Kind, f.Message)
}

// NewConflict builds a conflict failure carrying one of the Msg* phrases.
func NewConflict(message string) *Failure {
	return &Failure{Kind: KindConflict, Message: message}
}

// NewValidation builds a validation failure (permanent by taxonomy rules).
func NewValidation(message string) *Failure {
	return &Failure{Kind: KindValidation, Message: message}
}

// NewNetwork wraps a transport-level error.
func NewNetwork(err error) *Failure {
	return &Failure{Kind: KindNetwork, Message: err.Error()}
}

// NewHTTP builds a failure from an HTTP status code and body summary.
func NewHTTP(statusCode int, message string) *Failure {
	return &Failure{Kind: KindHTTP, StatusCode: statusCode, Message: message}
}

// AsFailure coerces an arbitrary error into a Failure, tagging unrecognized
// errors as unknown rather than dropping them.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := err.(*Failure); ok {
		return f
	}
	return &Failure{Kind: KindUnknown, Message: err.Error()}
}
