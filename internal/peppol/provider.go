package peppol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is the access point that carries our network registrations.
type Provider interface {
	Register(ctx context.Context, req ProviderRequest) (ProviderState, error)
	Status(ctx context.Context, participantID string) (ProviderState, error)
	Deregister(ctx context.Context, participantID string) error
}

// ProviderRequest is a registration submitted to the access point.
type ProviderRequest struct {
	ParticipantID string `json:"participantId"`
	Scheme        string `json:"scheme"`
	LegalName     string `json:"legalName"`
	CountryCode   string `json:"countryCode"`
}

// ProviderState is the access point's view of a registration.
type ProviderState struct {
	ParticipantID string `json:"participantId"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

// Client talks JSON over HTTP to the provider named by
// PEPPOL_PROVIDER_BASE_URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, req ProviderRequest) (ProviderState, error) {
	var state ProviderState
	err := c.do(ctx, http.MethodPost, "/participants", req, &state)
	return state, err
}

func (c *Client) Status(ctx context.Context, participantID string) (ProviderState, error) {
	var state ProviderState
	err := c.do(ctx, http.MethodGet, "/participants/"+url.PathEscape(participantID), nil, &state)
	return state, err
}

func (c *Client) Deregister(ctx context.Context, participantID string) error {
	return c.do(ctx, http.MethodDelete, "/participants/"+url.PathEscape(participantID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
