package app

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var roleUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// isolatedRole names the per-run Postgres role whose default search_path
// points at a private schema.
func isolatedRole(runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", fmt.Errorf("runnerID and runNumber must be non-empty")
	}
	return roleUnsafe.ReplaceAllString(strings.ToLower(runnerID+"-"+runNumber), "_"), nil
}

// withRole swaps the user in a postgres URL for role, keeping the password.
func withRole(baseURL, role string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DB URL scheme %q", u.Scheme)
	}
	password, _ := u.User.Password()
	u.User = url.UserPassword(role, password)
	return u.String(), nil
}
