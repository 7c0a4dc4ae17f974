// Package format renders bot messages (HTML parse mode) and inline keyboards.
package format

import (
	"fmt"
	"html"
	"strings"

	"flydealsbot/internal/catalog"
)

// Esc escapes user/catalog text for HTML parse mode.
func Esc(s string) string { return html.EscapeString(s) }

const Welcome = `✈️ <b>FlyDeals Bot</b>

Find the best flight deals directly in Telegram.

<b>Commands:</b>
/deals — browse latest deals
/search — search for specific deals
/destinations — popular destinations
/alert — set up price alerts
/subscribe — get new deal notifications
/unsubscribe — stop notifications
/help — show this message`

// DealCard renders a single deal in full.
func DealCard(d catalog.Deal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", Esc(d.Title))
	fmt.Fprintf(&b, "%s → %s\n", Esc(d.Departure), Esc(d.Destination))
	fmt.Fprintf(&b, "<b>%d %s</b>", d.Price, Esc(currency(d.Currency)))
	if d.Airline != "" {
		fmt.Fprintf(&b, " · %s", Esc(d.Airline))
	}
	if d.Expired {
		b.WriteString("\n⚠️ This deal may have expired.")
	}
	return b.String()
}

// NewDealCard renders a new-deal notification.
func NewDealCard(d catalog.Deal) string {
	return "✈️ <b>New deal!</b>\n\n" + DealCard(d)
}

// AlertMatchCard renders an alert-match notification.
func AlertMatchCard(a catalog.Alert, d catalog.Deal) string {
	return fmt.Sprintf("🔔 <b>Price alert match!</b>\nTarget: ≤ %d %s\n\n%s",
		a.TargetPrice, Esc(currency(a.Currency)), DealCard(d))
}

// DealList renders one page of deals.
func DealList(deals []catalog.Deal, page, total, perPage int) string {
	if len(deals) == 0 {
		return "No deals found."
	}
	var b strings.Builder
	for i, d := range deals {
		n := (page-1)*perPage + i + 1
		fmt.Fprintf(&b, "%d. <b>%s → %s</b> — %d %s\n",
			n, Esc(d.Departure), Esc(d.Destination), d.Price, Esc(currency(d.Currency)))
	}
	pages := (total + perPage - 1) / perPage
	if pages > 1 {
		fmt.Fprintf(&b, "\nPage %d of %d (%d deals)", page, pages, total)
	}
	return b.String()
}

// SearchSummary describes the active search filter in one line.
func SearchSummary(q, departure, destination string, minPrice, maxPrice *int) string {
	var parts []string
	if q != "" {
		parts = append(parts, "query: "+Esc(q))
	}
	if departure != "" {
		parts = append(parts, "from: "+Esc(departure))
	}
	if destination != "" {
		parts = append(parts, "to: "+Esc(destination))
	}
	if minPrice != nil {
		parts = append(parts, fmt.Sprintf("min: %d", *minPrice))
	}
	if maxPrice != nil {
		parts = append(parts, fmt.Sprintf("max: %d", *maxPrice))
	}
	if len(parts) == 0 {
		return "<b>Search:</b> all deals"
	}
	return "<b>Search:</b> " + strings.Join(parts, ", ")
}

// AlertsList renders a user's alerts.
func AlertsList(alerts []catalog.Alert) string {
	var b strings.Builder
	b.WriteString("<b>Your price alerts</b>\n")
	for _, a := range alerts {
		b.WriteString("\n" + AlertLine(a))
	}
	return b.String()
}

// AlertLine renders one alert.
func AlertLine(a catalog.Alert) string {
	from := a.Departure
	if from == "" {
		from = "Any"
	}
	return fmt.Sprintf("#%d %s → %s, ≤ %d %s",
		a.ID, Esc(from), Esc(a.Destination), a.TargetPrice, Esc(currency(a.Currency)))
}

// AlertConfirm renders the alert-creation confirmation prompt.
func AlertConfirm(destination, departure string, price int) string {
	from := departure
	if from == "" {
		from = "Any"
	}
	return fmt.Sprintf("<b>Confirm alert:</b>\n\nRoute: %s → %s\nNotify when price ≤ EUR %d",
		Esc(from), Esc(destination), price)
}

// DestinationList renders the popular-destinations overview.
func DestinationList(dests []catalog.Destination) string {
	if len(dests) == 0 {
		return "No destinations available right now."
	}
	var b strings.Builder
	b.WriteString("🌍 <b>Popular destinations</b>\n")
	for _, d := range dests {
		fmt.Fprintf(&b, "\n<b>%s</b> — %d deals from %d EUR", Esc(d.City), d.DealCount, d.MinPrice)
	}
	return b.String()
}

func currency(c string) string {
	if c == "" {
		return "EUR"
	}
	return c
}
