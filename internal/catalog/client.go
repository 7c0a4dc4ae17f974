package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the catalog API over HTTP/JSON.
type Client struct {
	base string
	http *http.Client
}

var _ Gateway = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base url is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) Deals(ctx context.Context, f Filter) (Page, error) {
	q := url.Values{}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 5
	}
	sort := f.Sort
	if sort == "" {
		sort = SortNewest
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", sort)
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Departure != "" {
		q.Set("departure", f.Departure)
	}
	if f.Destination != "" {
		q.Set("destination", f.Destination)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.Itoa(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.Itoa(*f.MaxPrice))
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}

	var out Page
	if err := c.do(ctx, "deals", http.MethodGet, "/deals?"+q.Encode(), nil, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

func (c *Client) Deal(ctx context.Context, slug string) (Deal, error) {
	var out Deal
	if err := c.do(ctx, "deal", http.MethodGet, "/deals/"+url.PathEscape(slug), nil, &out); err != nil {
		return Deal{}, err
	}
	return out, nil
}

func (c *Client) TrackClick(ctx context.Context, slug string) error {
	return c.do(ctx, "track_click", http.MethodPost, "/deals/"+url.PathEscape(slug)+"/click", nil, nil)
}

func (c *Client) Destinations(ctx context.Context) ([]Destination, error) {
	var out struct {
		Destinations []Destination `json:"destinations"`
	}
	if err := c.do(ctx, "destinations", http.MethodGet, "/destinations", nil, &out); err != nil {
		return nil, err
	}
	return out.Destinations, nil
}

func (c *Client) CreateAlert(ctx context.Context, req AlertRequest) (Alert, error) {
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	var out Alert
	if err := c.do(ctx, "create_alert", http.MethodPost, "/price-alerts", req, &out); err != nil {
		return Alert{}, err
	}
	return out, nil
}

func (c *Client) Alerts(ctx context.Context, contact string) ([]Alert, error) {
	q := url.Values{"email": {contact}}
	var out struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := c.do(ctx, "alerts", http.MethodGet, "/price-alerts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

func (c *Client) DeleteAlert(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_alert", http.MethodDelete, "/price-alerts/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) SubscribeNewsletter(ctx context.Context, contact string) error {
	body := map[string]string{"email": contact}
	return c.do(ctx, "subscribe", http.MethodPost, "/subscribe", body, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: err}
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &Error{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: err}
	}
	return nil
}
