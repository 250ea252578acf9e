package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// prohibitedUsernames are reserved regardless of availability
var prohibitedUsernames = map[string]struct{}{
	"admin":     {},
	"system":    {},
	"support":   {},
	"moderator": {},
	"damnbruh":  {},
}

// validateUsername enforces the username rules: 3-20 characters,
// alphanumeric plus underscore, not on the reserved list
func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 20 {
		return fmt.Errorf("username must be between 3 and 20 characters")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username may only contain letters, digits and underscores")
	}
	if _, reserved := prohibitedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username %q is reserved", username)
	}
	return nil
}

func validateDisplayName(displayName string) error {
	if len(displayName) == 0 || len(displayName) > 50 {
		return fmt.Errorf("display name must be between 1 and 50 characters")
	}
	return nil
}

// queryInt reads an integer query parameter, clamped to [min, max],
// falling back to def when absent or unparseable
func queryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
