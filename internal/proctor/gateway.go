package proctor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/iwanturequity/proctoring-service/internal/models"
)

// Gateway mirrors locally observed events and session updates to the backend.
// Every notification is fire-and-forget: failures are logged and swallowed so
// the local session log is never blocked or rolled back by a store outage.
type Gateway struct {
	baseURL string
	client  *http.Client
	wg      sync.WaitGroup
}

// NewGateway creates a gateway for the backend at baseURL.
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// TestConnection probes the backend's health endpoint. It has no side effects
// on stored data.
func (g *Gateway) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// NotifyEvent mirrors one event to the backend without blocking the caller.
func (g *Gateway) NotifyEvent(ev models.Event) {
	g.notify("/events", ev)
}

// NotifySession mirrors a session update to the backend without blocking the
// caller.
func (g *Gateway) NotifySession(in models.SessionUpsert) {
	g.notify("/sessions", in)
}

// Flush waits for in-flight notifications. Best-effort callers use it only at
// shutdown; losing the race is acceptable by contract.
func (g *Gateway) Flush() {
	g.wg.Wait()
}

func (g *Gateway) notify(path string, payload interface{}) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := g.post(path, payload); err != nil {
			log.Printf("sync: POST %s failed: %v", path, err)
		}
	}()
}

func (g *Gateway) post(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := g.client.Post(g.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
