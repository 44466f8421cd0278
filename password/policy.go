package password

import (
	"fmt"
	"strings"
	"unicode"
)

// Rule names reported in [Violation.Rule]. They are safe to log.
const (
	RuleMinLength      = "min_length"
	RuleUppercase      = "uppercase"
	RuleLowercase      = "lowercase"
	RuleDigit          = "digit"
	RuleSymbol         = "symbol"
	RuleCommonPassword = "common_password"
	RuleSequentialRun  = "sequential_run"
	RuleRepeatedRun    = "repeated_run"
)

// Policy configures [Validate]. A zero MaxSequential or MaxRepeated
// disables that check.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSymbol    bool

	// Blacklist is compared case-insensitively against the whole candidate.
	// A nil Blacklist with CheckCommon set uses the built-in list.
	Blacklist   []string
	CheckCommon bool

	// MaxSequential flags ascending alphabetic or numeric runs longer than
	// this many characters ("abcd" with MaxSequential 3).
	MaxSequential int
	// MaxRepeated flags a character repeated consecutively more than this
	// many times ("aaaa" with MaxRepeated 3).
	MaxRepeated int
}

// DefaultPolicy returns the policy applied when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSymbol:    true,
		CheckCommon:      true,
		MaxSequential:    0,
		MaxRepeated:      3,
	}
}

// Violation is one failed rule.
type Violation struct {
	Rule    string
	Message string
}

// Result is the outcome of [Validate].
type Result struct {
	Valid      bool
	Violations []Violation
}

// Rules returns the names of the violated rules in evaluation order.
func (r Result) Rules() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Rule)
	}
	return out
}

// Messages returns the human-readable violation messages in evaluation order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Message)
	}
	return out
}

// Validate checks candidate against p and reports every violated rule.
func Validate(candidate string, p Policy) Result {
	var violations []Violation
	add := func(rule, msg string) {
		violations = append(violations, Violation{Rule: rule, Message: msg})
	}

	if p.MinLength > 0 && len([]rune(candidate)) < p.MinLength {
		add(RuleMinLength, fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}

	var upper, lower, digit, symbol bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}
	if p.RequireUppercase && !upper {
		add(RuleUppercase, "Password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !lower {
		add(RuleLowercase, "Password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !digit {
		add(RuleDigit, "Password must contain at least one number")
	}
	if p.RequireSymbol && !symbol {
		add(RuleSymbol, "Password must contain at least one special character")
	}

	if isCommon(candidate, p) {
		add(RuleCommonPassword, "Password is too common, please choose a stronger password")
	}

	if p.MaxSequential > 0 && longestAscendingRun(candidate) > p.MaxSequential {
		add(RuleSequentialRun, fmt.Sprintf("Password must not contain more than %d sequential characters", p.MaxSequential))
	}

	if p.MaxRepeated > 0 && longestRepeatRun(candidate) > p.MaxRepeated {
		add(RuleRepeatedRun, fmt.Sprintf("Password must not repeat the same character more than %d times in a row", p.MaxRepeated))
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

func isCommon(candidate string, p Policy) bool {
	list := p.Blacklist
	if list == nil {
		if !p.CheckCommon {
			return false
		}
		list = commonPasswords
	}
	lowered := strings.ToLower(candidate)
	for _, entry := range list {
		if lowered == strings.ToLower(entry) {
			return true
		}
	}
	return false
}

// longestAscendingRun returns the longest run of consecutive characters
// where each is the successor of the previous within the same class
// (a-z case-insensitively, or 0-9).
func longestAscendingRun(s string) int {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}

	longest, current := 1, 1
	for i := 1; i < len(runes); i++ {
		if isSuccessor(runes[i-1], runes[i]) {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 1
	}
	return longest
}

func isSuccessor(prev, next rune) bool {
	prev, next = unicode.ToLower(prev), unicode.ToLower(next)
	switch {
	case prev >= 'a' && prev < 'z' && next == prev+1:
		return true
	case prev >= '0' && prev < '9' && next == prev+1:
		return true
	}
	return false
}

func longestRepeatRun(s string) int {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}

	longest, current := 1, 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 1
	}
	return longest
}
