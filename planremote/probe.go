// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package planremote

import (
	"context"
	"net/http"
	"time"
)

// Probe implements plansync.NetworkProbe with a cheap health-check request.
// It is a pre-flight hint only: when no URL is configured the probe is
// optimistic and reports online, since gateway failures are the ground truth.
type Probe struct {
	URL  string
	HTTP *http.Client
}

// NewProbe creates a probe against healthURL (typically <base>/healthz).
// An empty URL yields an always-online probe.
func NewProbe(healthURL string) *Probe {
	return &Probe{
		URL:  healthURL,
		HTTP: &http.Client{Timeout: 3 * time.Second},
	}
}

// IsOnline reports current connectivity, never blocking longer than the
// probe client timeout.
func (p *Probe) IsOnline(ctx context.Context) bool {
	if p == nil || p.URL == "" {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return true
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
