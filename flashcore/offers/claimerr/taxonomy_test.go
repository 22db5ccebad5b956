package claimerr

import (
	"errors"
	"strings"
	"testing"

	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/offers/conflict"
	"github.com/venueflash/flashcore/flashcore/store"
)

type captureSink struct {
	recorded []*ClaimError
}

func (c *captureSink) RecordClaimError(e *ClaimError) {
	c.recorded = append(c.recorded, e)
}

func TestService_CreateError(t *testing.T) {
	tests := []struct {
		name        string
		errType     ErrorType
		details     string
		wantClass   Classification
		wantRetry   bool
		wantMessage string
	}{
		{
			name:        "expired is permanent and not retryable",
			errType:     TypeExpired,
			wantClass:   Permanent,
			wantRetry:   false,
			wantMessage: "This claim has expired and can no longer be redeemed.",
		},
		{
			name:        "connection failure is temporary and retryable",
			errType:     TypeConnectionFailed,
			wantClass:   Temporary,
			wantRetry:   true,
			wantMessage: "We couldn't reach the server.",
		},
		{
			name:        "rejected interpolates details",
			errType:     TypeRejected,
			details:     "claim window closed",
			wantClass:   Permanent,
			wantMessage: "The venue could not accept this claim: claim window closed.",
		},
		{
			name:        "rejected without details keeps generic message",
			errType:     TypeRejected,
			wantClass:   Permanent,
			wantMessage: "The venue could not accept this claim.",
		},
		{
			name:        "unrecognized type falls back to unknown",
			errType:     ErrorType("not_a_real_type"),
			wantClass:   Temporary,
			wantRetry:   true,
			wantMessage: "An unexpected error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &captureSink{}
			s := NewDefaultService(sink)

			got := s.CreateError(tt.errType, tt.details, nil)
			if got.Classification != tt.wantClass {
				t.Errorf("Classification = %q, want %q", got.Classification, tt.wantClass)
			}
			if got.Retryable != tt.wantRetry {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetry)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Guidance == "" {
				t.Error("Guidance is empty, want a concrete next action")
			}
			if got.ID == "" {
				t.Error("ID is empty")
			}
			if len(sink.recorded) != 1 {
				t.Fatalf("sink recorded %d errors, want 1", len(sink.recorded))
			}
			if sink.recorded[0] != got {
				t.Error("sink received a different error than the one returned")
			}
		})
	}
}

func TestService_CreateErrorPreservesOriginal(t *testing.T) {
	s := NewDefaultService(nil)
	original := errors.New("boom")

	got := s.CreateError(TypeSyncFailed, "", original)
	if !errors.Is(got, original) {
		t.Error("errors.Is(got, original) = false, want true")
	}
}

func TestService_ForConflict(t *testing.T) {
	tests := []struct {
		name     string
		conflict conflict.Type
		wantType ErrorType
	}{
		{"offer full", conflict.TypeOfferFull, TypeOfferFull},
		{"offer expired", conflict.TypeOfferExpired, TypeOfferExpired},
		{"already redeemed", conflict.TypeAlreadyRedeemed, TypeAlreadyRedeemed},
		{"already claimed", conflict.TypeAlreadyClaimed, TypeAlreadyClaimed},
		{"none falls back to unknown", conflict.TypeNone, TypeUnknown},
	}

	s := NewDefaultService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ForConflict(tt.conflict, nil)
			if got.Type != tt.wantType {
				t.Errorf("ForConflict() type = %q, want %q", got.Type, tt.wantType)
			}
			if tt.wantType != TypeUnknown && got.Classification != Permanent {
				t.Errorf("conflict classification = %q, want %q", got.Classification, Permanent)
			}
		})
	}
}

func TestService_ClassifyGenericFailure(t *testing.T) {
	tests := []struct {
		name    string
		failure *store.Failure
		want    Classification
	}{
		{"nil failure defaults temporary", nil, Temporary},
		{"network kind", store.NewNetwork(errors.New("dial tcp: refused")), Temporary},
		{"validation kind", store.NewValidation("bad offer id"), Permanent},
		{"401 is temporary", store.NewHTTP(401, "unauthorized"), Temporary},
		{"403 is temporary", store.NewHTTP(403, "forbidden"), Temporary},
		{"400 is permanent", store.NewHTTP(400, "bad request"), Permanent},
		{"422 is permanent", store.NewHTTP(422, "unprocessable"), Permanent},
		{"timeout keyword", &store.Failure{Kind: store.KindUnknown, Message: "request timed out"}, Temporary},
		{"malformed keyword", &store.Failure{Kind: store.KindUnknown, Message: "malformed payload"}, Permanent},
		{"unknown message defaults temporary", &store.Failure{Kind: store.KindUnknown, Message: "gremlins"}, Temporary},
	}

	s := NewDefaultService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ClassifyGenericFailure(tt.failure); got != tt.want {
				t.Errorf("ClassifyGenericFailure() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_HandleClaimStatus(t *testing.T) {
	s := NewDefaultService(nil)

	if got := s.HandleClaimStatus(models.ClaimStatusActive, ""); got != nil {
		t.Errorf("HandleClaimStatus(active) = %v, want nil", got)
	}
	if got := s.HandleClaimStatus("pending", ""); got != nil {
		t.Errorf("HandleClaimStatus(pending) = %v, want nil", got)
	}

	expired := s.HandleClaimStatus(models.ClaimStatusExpired, "")
	if expired == nil {
		t.Fatal("HandleClaimStatus(expired) = nil, want error")
	}
	if expired.Type != TypeExpired || expired.Classification != Permanent || expired.Retryable {
		t.Errorf("expired error = %+v, want permanent non-retryable TypeExpired", expired)
	}
	if !strings.Contains(strings.ToLower(expired.Guidance), "new offers") {
		t.Errorf("expired guidance = %q, want mention of new offers", expired.Guidance)
	}

	redeemed := s.HandleClaimStatus(models.ClaimStatusRedeemed, "")
	if redeemed == nil || redeemed.Type != TypeAlreadyRedeemed {
		t.Errorf("HandleClaimStatus(redeemed) = %v, want TypeAlreadyRedeemed", redeemed)
	}

	unknown := s.HandleClaimStatus("garbled", "")
	if unknown == nil || unknown.Type != TypeUnknown {
		t.Errorf("HandleClaimStatus(garbled) = %v, want TypeUnknown", unknown)
	}
}

func TestService_HandleClaimStatusRejectedGuidance(t *testing.T) {
	tests := []struct {
		name         string
		reason       string
		wantInMsg    string
		wantGuidance string
	}{
		{
			name:         "token already used",
			reason:       "token already used",
			wantInMsg:    "token already used",
			wantGuidance: "claim history",
		},
		{
			name:         "window expired",
			reason:       "claim window expired",
			wantInMsg:    "claim window expired",
			wantGuidance: "new offers",
		},
		{
			name:         "unrecognized reason keeps template guidance",
			reason:       "staff discretion",
			wantInMsg:    "staff discretion",
			wantGuidance: "Contact the venue",
		},
	}

	s := NewDefaultService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.HandleClaimStatus(models.ClaimStatusRejected, tt.reason)
			if got == nil {
				t.Fatal("HandleClaimStatus(rejected) = nil, want error")
			}
			if got.Type != TypeRejected || got.Classification != Permanent {
				t.Errorf("rejected error = %+v, want permanent TypeRejected", got)
			}
			if !strings.Contains(got.Message, tt.wantInMsg) {
				t.Errorf("Message = %q, want it to contain %q", got.Message, tt.wantInMsg)
			}
			if !strings.Contains(got.Guidance, tt.wantGuidance) {
				t.Errorf("Guidance = %q, want it to contain %q", got.Guidance, tt.wantGuidance)
			}
		})
	}
}
