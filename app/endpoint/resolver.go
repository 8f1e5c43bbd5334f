package endpoint

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrEndpointUnreachable is returned when no candidate base URL answers the probe.
var ErrEndpointUnreachable = errors.New("no reachable API endpoint")

// Prober reports whether a base URL is reachable.
type Prober interface {
	Probe(ctx context.Context, baseURL string) error
}

type ProbeFunc func(ctx context.Context, baseURL string) error

func (f ProbeFunc) Probe(ctx context.Context, baseURL string) error {
	return f(ctx, baseURL)
}

// Resolver picks the first reachable base URL out of an ordered candidate list
// and remembers it for the lifetime of the value. It is meant to be created
// once at startup and shared by reference.
type Resolver struct {
	candidates []string
	prober     Prober
	logger     *zap.Logger

	resolved atomic.Pointer[string]
}

func NewResolver(candidates []string, prober Prober, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleaned := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimRight(strings.TrimSpace(c), "/")
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return &Resolver{
		candidates: cleaned,
		prober:     prober,
		logger:     logger,
	}
}

// Resolve returns the cached base URL, or probes the candidates in order and
// caches the first one that answers. A cached URL is never re-probed.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if cached := r.resolved.Load(); cached != nil {
		return *cached, nil
	}

	for _, candidate := range r.candidates {
		if err := r.prober.Probe(ctx, candidate); err != nil {
			r.logger.Debug("API endpoint unreachable", zap.String("url", candidate), zap.Error(err))
			continue
		}
		url := candidate
		r.resolved.Store(&url)
		r.logger.Info("API endpoint resolved", zap.String("url", url))
		return url, nil
	}

	r.logger.Error("no API endpoint reachable", zap.Strings("candidates", r.candidates))
	return "", ErrEndpointUnreachable
}

// Resolved returns the cached base URL, if any.
func (r *Resolver) Resolved() (string, bool) {
	if cached := r.resolved.Load(); cached != nil {
		return *cached, true
	}
	return "", false
}

// HTTPProber treats a base URL as reachable when a GET of base+Path gets any
// HTTP response back. The status code does not matter.
type HTTPProber struct {
	Client  *http.Client
	Path    string
	Timeout time.Duration
}

func (p HTTPProber) Probe(ctx context.Context, baseURL string) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+p.Path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
