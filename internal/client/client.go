// Package client talks to the booking backend over HTTP: it fetches the
// booking configuration the hosting page would inject, submits bookings
// and reads the history and sales summary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// ErrNotFound is returned when the backend does not know the movie.
var ErrNotFound = errors.New("not found")

// BookingClient is a typed client for the booking backend.  The zero
// timeout of the default http.Client is intentional: a booking request
// is bounded only by the transport.
type BookingClient struct {
	baseURL string
	client  *http.Client
}

// New returns a client for the backend at baseURL.  A nil httpClient
// uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *BookingClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BookingClient{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
}

func (c *BookingClient) BaseURL() string { return c.baseURL }

// BookTicket posts req to /book_ticket.  Failures to reach the server or
// to read a booking response are returned as *booking.TransportError; a
// well-formed rejection is returned as a response, not an error.
func (c *BookingClient) BookTicket(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error) {
	if req.Seats == nil {
		req.Seats = []string{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &booking.TransportError{Err: fmt.Errorf("encode booking request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/book_ticket", bytes.NewReader(body))
	if err != nil {
		return nil, &booking.TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &booking.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &booking.TransportError{Err: fmt.Errorf("read booking response: %w", err)}
	}
	var out model.BookingResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &booking.TransportError{Err: fmt.Errorf("decode booking response (HTTP %d): %w", resp.StatusCode, err)}
	}
	if out.Status == "" {
		return nil, &booking.TransportError{Err: fmt.Errorf("booking response without status (HTTP %d)", resp.StatusCode)}
	}
	return &out, nil
}

// BookingConfig fetches the seat map configuration of a movie.
func (c *BookingClient) BookingConfig(ctx context.Context, movieID model.MovieID) (*model.BookingConfig, error) {
	var cfg model.BookingConfig
	path := "/movie/" + url.PathEscape(movieID.String()) + "/booking-config"
	if err := c.getJSON(ctx, path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// History lists the bookings shown on the history page.
func (c *BookingClient) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var out struct {
		Items []model.HistoryEntry `json:"items"`
	}
	if err := c.getJSON(ctx, "/history", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SalesSummary fetches the admin chart data.
func (c *BookingClient) SalesSummary(ctx context.Context) (*model.SalesSummary, error) {
	var out model.SalesSummary
	if err := c.getJSON(ctx, "/admin/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BookingClient) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response for %s: %w", path, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, errorText(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to parse response for %s: %w", path, err)
	}
	return nil
}

// errorText extracts the "error" field of an error body, falling back to
// the raw body.
func errorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
