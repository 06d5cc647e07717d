package envfile

import (
	"regexp"
	"strings"
)

// =============================================================================
// Recognized Keys
// =============================================================================

const (
	KeyGitHubTokens = "GITHUB_TOKENS"

	KeyBalancerURL     = "SILICONFLOW_BALANCER_URL"
	KeyBalancerAuth    = "SILICONFLOW_BALANCER_AUTH"
	KeyBalancerEnabled = "SILICONFLOW_BALANCER_SYNC_ENABLED"

	KeyGPTLoadURL       = "GPT_LOAD_URL"
	KeyGPTLoadAuth      = "GPT_LOAD_AUTH"
	KeyGPTLoadEnabled   = "GPT_LOAD_SYNC_ENABLED"
	KeyGPTLoadGroupName = "GPT_LOAD_GROUP_NAME"
)

// TokenPlaceholder is the GITHUB_TOKENS value shipped in env.example.
const TokenPlaceholder = "your_github_token_here"

// placeholderPattern matches template values an operator never filled in:
// your_..._here, <...>, and runs of x with or without a token prefix.
var placeholderPattern = regexp.MustCompile(`(?i)^(your[_-].*[_-]here|<[^>]*>|(ghp_|github_pat_)?x+)$`)

// tokenPrefixes are the shapes GitHub issues personal access tokens in.
var tokenPrefixes = []string{"ghp_", "github_pat_"}

// previewLength is how many leading characters of a token a preview shows.
const previewLength = 8

// =============================================================================
// Token Functions
// =============================================================================

// SplitTokens splits a comma-separated token list, trimming whitespace and
// dropping empty entries.
func SplitTokens(value string) []string {
	var tokens []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// NormalizeTokens rewrites a token list into its canonical comma-joined form.
func NormalizeTokens(value string) string {
	return strings.Join(SplitTokens(value), ",")
}

// IsPlaceholder reports whether value is a template placeholder.
func IsPlaceholder(value string) bool {
	v := strings.TrimSpace(value)
	return v == TokenPlaceholder || placeholderPattern.MatchString(v)
}

// NeedsTokenInput reports whether a GITHUB_TOKENS value must be supplied by
// the operator: empty, the shipped placeholder, or placeholder-shaped.
func NeedsTokenInput(value string) bool {
	tokens := SplitTokens(value)
	if len(tokens) == 0 {
		return true
	}
	for _, t := range tokens {
		if IsPlaceholder(t) {
			return true
		}
	}
	return false
}

// LooksLikeToken reports whether every token in value carries a known GitHub
// token prefix. The check is advisory only.
func LooksLikeToken(value string) bool {
	tokens := SplitTokens(value)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !hasTokenPrefix(t) {
			return false
		}
	}
	return true
}

func hasTokenPrefix(token string) bool {
	for _, p := range tokenPrefixes {
		if strings.HasPrefix(token, p) && len(token) > len(p) {
			return true
		}
	}
	return false
}

// MaskToken returns a preview showing the token's leading characters and a
// fixed mask, so neither the secret nor its length is revealed.
func MaskToken(token string) string {
	runes := []rune(token)
	n := previewLength
	if len(runes) <= n {
		n = len(runes) / 2
	}
	return string(runes[:n]) + "****"
}

// PreviewTokens masks every token of a list.
func PreviewTokens(value string) []string {
	tokens := SplitTokens(value)
	previews := make([]string, 0, len(tokens))
	for _, t := range tokens {
		previews = append(previews, MaskToken(t))
	}
	return previews
}

// =============================================================================
// Boolean Values
// =============================================================================

// ParseBool interprets a boolean-as-string value the way the scanner does:
// true, 1, yes, on and enabled (any case) are true, everything else false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	default:
		return false
	}
}
