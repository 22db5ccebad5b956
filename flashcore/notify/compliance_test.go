package notify

import (
	"strings"
	"testing"
)

func hasViolation(violations []Violation, code string) bool {
	for _, v := range violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func TestValidator_ValidateContent(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		body      string
		data      map[string]string
		wantValid bool
		wantCodes []string
	}{
		{
			name:      "clean transactional content",
			title:     "Your claim is confirmed",
			body:      "Show the code at the counter to redeem your free appetizer.",
			wantValid: true,
		},
		{
			name:      "classic spam shouting",
			title:     "WIN FREE MONEY!!!",
			body:      "act now",
			wantValid: false,
			wantCodes: []string{ViolationSpamPattern, ViolationPunctuation},
		},
		{
			name:      "repeated shouting across title and body",
			title:     "WIN FREE MONEY!!!",
			body:      "act now!!! don't miss out!!!",
			wantValid: false,
			wantCodes: []string{ViolationSpamPattern, ViolationPunctuation},
		},
		{
			name:      "double punctuation stays within the run limit",
			title:     "Table ready",
			body:      "Your table just opened up!! Head over when you can.",
			wantValid: true,
		},
		{
			name:      "click here bait",
			title:     "New offer nearby",
			body:      "Click here to see what we picked for you.",
			wantValid: false,
			wantCodes: []string{ViolationSpamPattern},
		},
		{
			name:      "uppercase ratio over half",
			title:     "YOUR TABLE IS READY",
			body:      "COME TO THE FRONT DESK",
			wantValid: false,
			wantCodes: []string{ViolationUppercase},
		},
		{
			name:      "short shouting is exempt from case check",
			title:     "OK",
			body:      "GO NOW",
			wantValid: true,
		},
		{
			name:      "empty title",
			title:     "  ",
			body:      "Some body text here.",
			wantValid: false,
			wantCodes: []string{ViolationEmptyTitle},
		},
		{
			name:      "empty body",
			title:     "A title",
			body:      "",
			wantValid: false,
			wantCodes: []string{ViolationEmptyBody},
		},
		{
			name:      "oversized payload",
			title:     "Receipt attached",
			body:      "Thanks for visiting.",
			data:      map[string]string{"blob": strings.Repeat("x", 5000)},
			wantValid: false,
			wantCodes: []string{ViolationPayloadSize},
		},
		{
			name:      "long title is a soft violation only",
			title:     strings.Repeat("a", 120),
			body:      "Body within limits.",
			wantValid: true,
			wantCodes: []string{ViolationTitleLength},
		},
		{
			name:      "long body is a soft violation only",
			title:     "Short title",
			body:      strings.Repeat("b", 600),
			wantValid: true,
			wantCodes: []string{ViolationBodyLength},
		},
	}

	v := NewDefaultValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, violations := v.ValidateContent(tt.title, tt.body, tt.data)
			if valid != tt.wantValid {
				t.Errorf("ValidateContent() valid = %v, want %v (violations: %+v)", valid, tt.wantValid, violations)
			}
			for _, code := range tt.wantCodes {
				if !hasViolation(violations, code) {
					t.Errorf("missing violation %q in %+v", code, violations)
				}
			}
		})
	}
}

func TestValidator_PayloadSizeCountsOverhead(t *testing.T) {
	v := NewDefaultValidator()

	// title+body+encoded data just below the limit once the fixed protocol
	// overhead is added, then one byte over.
	policy := DefaultContentPolicy()
	budget := policy.MaxPayloadBytes - policy.ProtocolOverheadBytes - len(`{"k":"v"}`) - len("t")

	body := strings.Repeat("x", budget)
	if valid, violations := v.ValidateContent("t", body, map[string]string{"k": "v"}); !valid {
		t.Errorf("at-limit payload rejected: %+v", violations)
	}

	body += "x"
	valid, violations := v.ValidateContent("t", body, map[string]string{"k": "v"})
	if valid {
		t.Error("over-limit payload accepted, want rejected")
	}
	if !hasViolation(violations, ViolationPayloadSize) {
		t.Errorf("missing %q violation: %+v", ViolationPayloadSize, violations)
	}
}

func TestPipeline_OptOutShortCircuitsValidation(t *testing.T) {
	p := NewDefaultPipeline()

	// Content is perfectly valid; the disabled preference must still block
	// it, and the violation list must show only the opt-out.
	result := p.PerformComplianceCheck("u1", "offer_created", "New offer", "A venue near you posted a deal.", nil, false)
	if result.Allowed {
		t.Fatal("Allowed = true for opted-out user, want false")
	}
	if len(result.Violations) != 1 || result.Violations[0].Code != ViolationUserOptedOut {
		t.Errorf("Violations = %+v, want single %q", result.Violations, ViolationUserOptedOut)
	}
	if !strings.Contains(result.Reason, "opted out") {
		t.Errorf("Reason = %q, want opt-out mention", result.Reason)
	}
}

func TestPipeline_TypeAllowList(t *testing.T) {
	tests := []struct {
		name             string
		notificationType string
		wantAllowed      bool
	}{
		{"offer created", "offer_created", true},
		{"offer expiring", "offer_expiring", true},
		{"claim redeemed", "claim_redeemed", true},
		{"claim expiring", "claim_expiring", true},
		{"friend request", "friend_request", true},
		{"receipt", "receipt", true},
		{"marketing blast", "marketing_promo", false},
		{"unknown type", "system_broadcast", false},
	}

	p := NewDefaultPipeline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.PerformComplianceCheck("u1", tt.notificationType, "Heads up", "Something relevant happened.", nil, true)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (violations: %+v)", result.Allowed, tt.wantAllowed, result.Violations)
			}
			if !tt.wantAllowed && !hasViolation(result.Violations, ViolationTypeBlocked) {
				t.Errorf("missing %q violation", ViolationTypeBlocked)
			}
		})
	}
}

func TestPipeline_AllowsCleanContent(t *testing.T) {
	p := NewDefaultPipeline()

	result := p.PerformComplianceCheck("u1", "claim_redeemed", "Claim redeemed", "Enjoy your free appetizer!", map[string]string{"claim_id": "c1"}, true)
	if !result.Allowed {
		t.Fatalf("Allowed = false, want true (reason %q, violations %+v)", result.Reason, result.Violations)
	}
}
