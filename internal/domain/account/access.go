package account

import "strings"

// AllowList is the static set of emails granted admin rights.
// Matching is exact and case-sensitive.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList, ignoring blank entries.
func NewAllowList(emails ...string) AllowList {
	l := make(AllowList, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		l[e] = struct{}{}
	}
	return l
}

// IsAdmin reports whether email belongs to an admin.
// An empty email means there is no identity and is never an admin.
// INVARIANT: no side effects
func IsAdmin(email string, allow AllowList) bool {
	if email == "" {
		return false
	}
	_, ok := allow[email]
	return ok
}
