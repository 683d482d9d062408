package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
)

// BWSOrgID is the Bitwarden organization that owns the locshare projects.
// Injected with -ldflags alongside AppName.
var BWSOrgID string

const (
	bwsLoginAttempts = 5
	bwsBackoff       = 500 * time.Millisecond
)

// BWSSecretsClient wraps an authenticated Bitwarden SDK client.
type BWSSecretsClient struct {
	bw sdk.BitwardenClientInterface
}

// NewBWSSecretsClient logs in with BWS_ACCESS_TOKEN, retrying with
// exponential backoff while Bitwarden answers 429.
func NewBWSSecretsClient() (*BWSSecretsClient, error) {
	if BWSOrgID == "" {
		return nil, errors.New("BWSOrgID was not overridden with ldflags at build time (or is empty)")
	}
	accessToken := strings.TrimSpace(os.Getenv("BWS_ACCESS_TOKEN"))
	if accessToken == "" {
		return nil, errors.New("BWS_ACCESS_TOKEN env var is missing or empty")
	}

	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("initialising Bitwarden SDK client: %w", err)
	}

	backoff := bwsBackoff
	for attempt := 1; ; attempt++ {
		err = bw.AccessTokenLogin(accessToken, nil)
		if err == nil {
			return &BWSSecretsClient{bw: bw}, nil
		}
		// sdk-go exposes no typed status, the message is all we get.
		rateLimited := strings.Contains(err.Error(), "429") || strings.Contains(err.Error(), "Too Many Requests")
		if !rateLimited || attempt == bwsLoginAttempts {
			bw.Close()
			return nil, fmt.Errorf("Bitwarden access-token login failed after %d attempt(s): %w", attempt, err)
		}
		Logger.WithError(err).Warnf("Bitwarden rate limited login; retrying in %v", backoff)
		time.Sleep(backoff)
		backoff *= 2
	}
}

// Close releases resources held by the underlying SDK client.
func (c *BWSSecretsClient) Close() {
	if c != nil && c.bw != nil {
		c.bw.Close()
	}
}

// GetProjectSecrets resolves every named project and returns its key/value
// secrets keyed by project name. A single Sync call serves all projects.
func (c *BWSSecretsClient) GetProjectSecrets(projectNames ...string) (map[string]map[string]string, error) {
	projectsResp, err := c.bw.Projects().List(BWSOrgID)
	if err != nil {
		return nil, fmt.Errorf("listing Bitwarden projects: %w", err)
	}

	idToName := make(map[string]string, len(projectNames))
	for _, want := range projectNames {
		for _, p := range projectsResp.Data {
			if strings.EqualFold(p.Name, want) {
				idToName[p.ID] = want
				break
			}
		}
	}

	syncResp, err := c.bw.Secrets().Sync(BWSOrgID, nil)
	if err != nil {
		return nil, fmt.Errorf("syncing Bitwarden secrets: %w", err)
	}

	out := make(map[string]map[string]string, len(projectNames))
	for _, s := range syncResp.Secrets {
		if s.ProjectID == nil {
			continue
		}
		name, ok := idToName[*s.ProjectID]
		if !ok {
			continue
		}
		if out[name] == nil {
			out[name] = make(map[string]string)
		}
		out[name][s.Key] = s.Value
	}

	for _, want := range projectNames {
		if len(out[want]) == 0 {
			return nil, fmt.Errorf("no secrets found for project %q", want)
		}
	}
	return out, nil
}
