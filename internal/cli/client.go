package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/squadplanner/squadxp/internal/daemon"
	"github.com/squadplanner/squadxp/internal/domain"
)

// errDaemonDown is returned when no daemon answers at the configured address.
var errDaemonDown = errors.New("squadxp daemon is not running")

// daemonClient makes REST calls to a running `squadxp serve`. Pending
// celebrations live only in the daemon's memory, so commands that read or
// clear them go through here.
type daemonClient struct {
	baseURL string
	client  *http.Client
}

func newDaemonClient(cfg daemon.Config) *daemonClient {
	host := cfg.API.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return &daemonClient{
		baseURL: "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.API.Port)),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// connectDaemon builds a client from the effective configuration.
func connectDaemon() (*daemonClient, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	return newDaemonClient(cfg), nil
}

// State fetches GET /api/gamification/state.
func (c *daemonClient) State() (domain.State, error) {
	var out struct {
		domain.State
	}
	if err := c.do(http.MethodGet, "/api/gamification/state", &out); err != nil {
		return domain.State{}, err
	}
	return out.State, nil
}

// Dismiss sends POST /api/gamification/pending/{slot}/dismiss.
func (c *daemonClient) Dismiss(slot string) error {
	return c.do(http.MethodPost, "/api/gamification/pending/"+slot+"/dismiss", nil)
}

func (c *daemonClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", errDaemonDown, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
