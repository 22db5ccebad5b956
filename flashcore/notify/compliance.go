// Package notify gates, dispatches, and journals every outbound push.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
)

// Violation codes.
const (
	ViolationSpamPattern  = "spam_pattern"
	ViolationUppercase    = "excessive_uppercase"
	ViolationPunctuation  = "excessive_punctuation"
	ViolationPayloadSize  = "payload_too_large"
	ViolationEmptyTitle   = "empty_title"
	ViolationEmptyBody    = "empty_body"
	ViolationTitleLength  = "title_too_long"
	ViolationBodyLength   = "body_too_long"
	ViolationTypeBlocked  = "type_not_allowed"
	ViolationUserOptedOut = "user_opted_out"
)

// Violation is one failed content or policy check. Soft violations are
// reported but not fatal to the caller's decision.
type Violation struct {
	Code   string
	Detail string
	Soft   bool
}

// SpamPattern is one entry of the pluggable matcher list; patterns run in
// order against the combined title+body.
type SpamPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// DefaultSpamPatterns covers the prohibited phrase families. The list is
// configuration, not control flow: add patterns without touching the
// validator.
func DefaultSpamPatterns() []SpamPattern {
	return []SpamPattern{
		{Name: "free_money", Pattern: regexp.MustCompile(`(?i)\b(win|earn|claim)\s+free\s+(money|cash|crypto)`)},
		{Name: "act_now", Pattern: regexp.MustCompile(`(?i)\bact\s+now\b`)},
		{Name: "limited_time_pressure", Pattern: regexp.MustCompile(`(?i)\b(last\s+chance|don'?t\s+miss\s+out|urgent)\b`)},
		{Name: "guaranteed_prize", Pattern: regexp.MustCompile(`(?i)\b(guaranteed|you\s+(have\s+)?won)\b.*\b(prize|winner|reward)\b`)},
		{Name: "click_here", Pattern: regexp.MustCompile(`(?i)\bclick\s+here\b`)},
	}
}

// ContentPolicy holds the validation thresholds. The uppercase and
// punctuation heuristics are spam signals with no stated false-positive
// tolerance, so they are configurable defaults rather than constants.
type ContentPolicy struct {
	MaxPayloadBytes       int
	ProtocolOverheadBytes int
	MaxTitleLen           int
	MaxBodyLen            int
	UppercaseRatio        float64
	MinLenForCaseCheck    int
	MaxRepeatedPunct      int // longest permitted run of ! or ?
}

func DefaultContentPolicy() ContentPolicy {
	return ContentPolicy{
		MaxPayloadBytes:       4096,
		ProtocolOverheadBytes: 256,
		MaxTitleLen:           100,
		MaxBodyLen:            500,
		UppercaseRatio:        0.5,
		MinLenForCaseCheck:    10,
		MaxRepeatedPunct:      2,
	}
}

// AllowedTypes is the fixed transactional/social allow-list. Marketing and
// promotional types are rejected by construction, not by a runtime toggle.
func AllowedTypes() map[string]bool {
	return map[string]bool{
		"offer_created":  true,
		"offer_expiring": true,
		"claim_redeemed": true,
		"claim_expiring": true,
		"friend_request": true,
		"receipt":        true,
	}
}

// Validator runs the ordered content checks.
type Validator struct {
	policy   ContentPolicy
	patterns []SpamPattern
}

func NewValidator(policy ContentPolicy, patterns []SpamPattern) *Validator {
	return &Validator{policy: policy, patterns: patterns}
}

func NewDefaultValidator() *Validator {
	return NewValidator(DefaultContentPolicy(), DefaultSpamPatterns())
}

var repeatedPunct = regexp.MustCompile(`[!?]{2,}`)

// ValidateContent checks, in order: prohibited phrases, uppercase ratio,
// repeated terminal punctuation, serialized payload size, non-empty fields,
// and soft length ceilings. valid is false when any hard violation fired.
func (v *Validator) ValidateContent(title, body string, data map[string]string) (bool, []Violation) {
	var violations []Violation
	combined := title + " " + body

	for _, p := range v.patterns {
		if p.Pattern.MatchString(combined) {
			violations = append(violations, Violation{
				Code:   ViolationSpamPattern,
				Detail: fmt.Sprintf("matched prohibited pattern %q", p.Name),
			})
		}
	}

	if len(combined) > v.policy.MinLenForCaseCheck {
		if ratio := uppercaseRatio(combined); ratio > v.policy.UppercaseRatio {
			violations = append(violations, Violation{
				Code:   ViolationUppercase,
				Detail: fmt.Sprintf("%.0f%% of letters are uppercase", ratio*100),
			})
		}
	}

	for _, run := range repeatedPunct.FindAllString(combined, -1) {
		if len(run) > v.policy.MaxRepeatedPunct {
			violations = append(violations, Violation{
				Code:   ViolationPunctuation,
				Detail: fmt.Sprintf("run of %d repeated terminal punctuation marks, limit %d", len(run), v.policy.MaxRepeatedPunct),
			})
			break
		}
	}

	if size := v.payloadSize(title, body, data); size > v.policy.MaxPayloadBytes {
		violations = append(violations, Violation{
			Code:   ViolationPayloadSize,
			Detail: fmt.Sprintf("serialized payload is %d bytes, limit %d", size, v.policy.MaxPayloadBytes),
		})
	}

	if strings.TrimSpace(title) == "" {
		violations = append(violations, Violation{Code: ViolationEmptyTitle, Detail: "title must not be empty"})
	}
	if strings.TrimSpace(body) == "" {
		violations = append(violations, Violation{Code: ViolationEmptyBody, Detail: "body must not be empty"})
	}

	if len(title) > v.policy.MaxTitleLen {
		violations = append(violations, Violation{
			Code:   ViolationTitleLength,
			Detail: fmt.Sprintf("title is %d chars, ceiling %d", len(title), v.policy.MaxTitleLen),
			Soft:   true,
		})
	}
	if len(body) > v.policy.MaxBodyLen {
		violations = append(violations, Violation{
			Code:   ViolationBodyLength,
			Detail: fmt.Sprintf("body is %d chars, ceiling %d", len(body), v.policy.MaxBodyLen),
			Soft:   true,
		})
	}

	valid := true
	for _, viol := range violations {
		if !viol.Soft {
			valid = false
			break
		}
	}
	return valid, violations
}

func (v *Validator) payloadSize(title, body string, data map[string]string) int {
	encoded, _ := json.Marshal(data)
	return len(title) + len(body) + len(encoded) + v.policy.ProtocolOverheadBytes
}

func uppercaseRatio(s string) float64 {
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// ComplianceResult is the decision for one (user, notification) pair.
type ComplianceResult struct {
	Allowed    bool
	Reason     string
	Violations []Violation
}

// Pipeline combines preference, type, and content gates.
type Pipeline struct {
	validator *Validator
	allowed   map[string]bool
}

func NewPipeline(validator *Validator, allowedTypes map[string]bool) *Pipeline {
	return &Pipeline{validator: validator, allowed: allowedTypes}
}

func NewDefaultPipeline() *Pipeline {
	return NewPipeline(NewDefaultValidator(), AllowedTypes())
}

// PerformComplianceCheck gates one send. Opt-out is absolute and checked
// before content validation; a disabled preference is never overridden by
// otherwise-valid content. Every check, pass or fail, is logged.
func (p *Pipeline) PerformComplianceCheck(userID, notificationType, title, body string, data map[string]string, userOptedIn bool) ComplianceResult {
	result := p.check(userID, notificationType, title, body, data, userOptedIn)

	slog.Info("Compliance check",
		slog.String("type", "notify"),
		slog.String("user_id", userID),
		slog.String("notification_type", notificationType),
		slog.Bool("allowed", result.Allowed),
		slog.String("reason", result.Reason),
		slog.Int("violations", len(result.Violations)),
	)
	return result
}

func (p *Pipeline) check(userID, notificationType, title, body string, data map[string]string, userOptedIn bool) ComplianceResult {
	if !userOptedIn {
		return ComplianceResult{
			Allowed: false,
			Reason:  fmt.Sprintf("user %s opted out of %s notifications", userID, notificationType),
			Violations: []Violation{{
				Code:   ViolationUserOptedOut,
				Detail: fmt.Sprintf("preference for %s is disabled", notificationType),
			}},
		}
	}

	valid, violations := p.validator.ValidateContent(title, body, data)

	if !p.allowed[notificationType] {
		violations = append(violations, Violation{
			Code:   ViolationTypeBlocked,
			Detail: fmt.Sprintf("notification type %q is not on the allow-list", notificationType),
		})
		valid = false
	}

	if !valid {
		return ComplianceResult{
			Allowed:    false,
			Reason:     "content or type failed compliance checks",
			Violations: violations,
		}
	}
	return ComplianceResult{Allowed: true, Violations: violations}
}
