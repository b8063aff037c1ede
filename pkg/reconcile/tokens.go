package reconcile

import "strings"

// Tokens splits a whitespace-delimited token string into an ordered list
// with duplicates and empty segments dropped.
func Tokens(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	out := fields[:0]
	for _, f := range fields {
		if !containsToken(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func containsToken(list []string, tok string) bool {
	for _, t := range list {
		if t == tok {
			return true
		}
	}
	return false
}

// reconcileTokens computes the new live token list. Tokens owned by the
// previous value and missing from the next one are removed first; tokens new
// to the next value are appended only if the live list lacks them.
func reconcileTokens(live, oldTokens, newTokens []string) []string {
	out := make([]string, 0, len(live)+len(newTokens))
	for _, t := range live {
		if containsToken(oldTokens, t) && !containsToken(newTokens, t) {
			continue
		}
		out = append(out, t)
	}
	for _, t := range newTokens {
		if containsToken(oldTokens, t) || containsToken(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
