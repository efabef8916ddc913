// Package cli implements the patrolctl subcommands. Each command is a
// thin client over the server's REST API.
package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// DefaultServer returns the server base URL from the environment, or
// the local development default.
func DefaultServer() string {
	if v := os.Getenv("PATROL_SERVER"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// apiClient carries the connection settings shared by every command.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func clientFromFlags(cmd *cobra.Command) (*apiClient, error) {
	base, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		return nil, fmt.Errorf("no auth token: pass --token or set PATROL_TOKEN")
	}
	return &apiClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *apiClient) do(method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}
