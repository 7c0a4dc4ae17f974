// Package catalog is the client side of the FlyDeals catalog HTTP API.
package catalog

import (
	"context"
	"fmt"
)

// Deal is one catalog item.
type Deal struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Departure   string `json:"departure_city"`
	Destination string `json:"destination_city"`
	Price       int    `json:"price"`
	Currency    string `json:"currency"`
	URL         string `json:"url"`
	Airline     string `json:"airline"`
	Expired     bool   `json:"expired"`
}

// Page is one page of deal results.
type Page struct {
	Deals []Deal `json:"deals"`
	Total int    `json:"total"`
}

// Alert is a price alert owned by the catalog.
type Alert struct {
	ID          int64  `json:"id"`
	Destination string `json:"destination_city"`
	Departure   string `json:"departure_city"`
	TargetPrice int    `json:"target_price"`
	Currency    string `json:"currency"`
}

// AlertRequest registers a new price alert for a contact handle.
type AlertRequest struct {
	Contact     string `json:"email"`
	Destination string `json:"destination_city"`
	TargetPrice int    `json:"target_price"`
	Departure   string `json:"departure_city,omitempty"`
	Currency    string `json:"currency"`
}

// Destination is an aggregate row from the destinations listing.
type Destination struct {
	City      string `json:"city"`
	DealCount int    `json:"deal_count"`
	MinPrice  int    `json:"min_price"`
}

// Sort orders accepted by the deals listing.
const (
	SortNewest   = "newest"
	SortPriceAsc = "price_asc"
)

// Filter is the deals query. Nil pointer fields are omitted from the query
// string entirely, which is how "skip" in the dialog flows surfaces here.
type Filter struct {
	Page        int
	Limit       int
	Query       string
	Departure   string
	Destination string
	MinPrice    *int
	MaxPrice    *int
	Tag         string
	Sort        string
}

// Gateway is the catalog surface consumed by the dialog engine and the
// polling jobs. Every failure is a *Error and is treated as transient.
type Gateway interface {
	Deals(ctx context.Context, f Filter) (Page, error)
	Deal(ctx context.Context, slug string) (Deal, error)
	TrackClick(ctx context.Context, slug string) error
	Destinations(ctx context.Context) ([]Destination, error)
	CreateAlert(ctx context.Context, req AlertRequest) (Alert, error)
	Alerts(ctx context.Context, contact string) ([]Alert, error)
	DeleteAlert(ctx context.Context, id int64) error
	SubscribeNewsletter(ctx context.Context, contact string) error
}

// Error is returned for any non-success catalog response or transport
// failure. Callers log it and abandon the current unit; nothing retries
// inside a single operation.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
