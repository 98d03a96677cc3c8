// Command healthcheck probes the running server's health endpoint and exits
// nonzero when the service is unreachable or degraded. It is meant to be the
// container HEALTHCHECK target next to the reviewdeck binary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const probeTimeout = 2 * time.Second

func main() {
	os.Exit(check())
}

// check requires both a 200 response and an "ok" status in the body, so a
// server that is up but reporting itself unhealthy still fails the probe.
func check() int {
	addr := normalizeAddr(os.Getenv("REVIEWDECK_LISTEN_ADDR"))

	client := &http.Client{Timeout: probeTimeout}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return 1
	}
	if health.Status != "ok" {
		return 1
	}

	return 0
}

// normalizeAddr ensures the probe connects to loopback rather than the
// bind-all address. Docker containers bind 0.0.0.0 but the healthcheck runs
// inside the same container, so loopback is reachable and more correct.
func normalizeAddr(raw string) string {
	if raw == "" {
		return "127.0.0.1:8080"
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "127.0.0.1:8080"
	}

	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
