// Package bot decodes inbound transport updates into directives and routes
// them to the dialog engine and the plain handlers.
package bot

import (
	"strconv"
	"strings"

	"flydealsbot/internal/dialog"
)

// Kind enumerates every directive the bot understands. The wire encoding
// (commands, colon-delimited callback tokens) is decoded exactly once, here;
// everything past this boundary matches on Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindStartSearch
	KindStartAlert
	KindChooseMode
	KindChooseAction
	KindText
	KindSkip
	KindCancel
	KindConfirm
	KindBrowseDeals
	KindSearchPage
	KindViewDeal
	KindDestinations
	KindDestDeals
	KindDeleteAlert
	KindSubscribe
	KindUnsubscribe
	KindToggleSubscription
	KindNoop
)

// Directive is the decoded form of one inbound message or callback.
type Directive struct {
	Kind    Kind
	Text    string
	Page    int
	Slug    string
	City    string
	AlertID int64
	Mode    dialog.SearchMode
	Action  dialog.AlertAction
	Yes     bool
}

// DecodeMessage maps a text message (command or free text) to a directive.
func DecodeMessage(text string) Directive {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Directive{Kind: KindText, Text: text}
	}

	cmd := text
	if i := strings.IndexAny(cmd, " @"); i > 0 {
		cmd = cmd[:i]
	}
	switch strings.ToLower(cmd) {
	case "/start", "/help":
		return Directive{Kind: KindHelp}
	case "/deals":
		return Directive{Kind: KindBrowseDeals, Page: 1}
	case "/search":
		return Directive{Kind: KindStartSearch}
	case "/alert", "/alerts":
		return Directive{Kind: KindStartAlert}
	case "/destinations":
		return Directive{Kind: KindDestinations}
	case "/subscribe":
		return Directive{Kind: KindSubscribe}
	case "/unsubscribe":
		return Directive{Kind: KindUnsubscribe}
	case "/skip":
		return Directive{Kind: KindSkip}
	case "/cancel":
		return Directive{Kind: KindCancel}
	}
	return Directive{Kind: KindUnknown}
}

// DecodeCallback maps colon-delimited callback data to a directive.
func DecodeCallback(data string) Directive {
	parts := strings.Split(strings.TrimSpace(data), ":")
	switch parts[0] {
	case "noop":
		return Directive{Kind: KindNoop}

	case "cmd":
		if len(parts) < 2 {
			return Directive{Kind: KindUnknown}
		}
		switch parts[1] {
		case "deals":
			return Directive{Kind: KindBrowseDeals, Page: 1}
		case "search":
			return Directive{Kind: KindStartSearch}
		case "destinations":
			return Directive{Kind: KindDestinations}
		case "alerts":
			return Directive{Kind: KindStartAlert}
		case "subscribe":
			return Directive{Kind: KindToggleSubscription}
		}

	case "search":
		if len(parts) < 3 {
			return Directive{Kind: KindUnknown}
		}
		switch parts[1] {
		case "mode":
			switch parts[2] {
			case "text":
				return Directive{Kind: KindChooseMode, Mode: dialog.ModeText}
			case "route":
				return Directive{Kind: KindChooseMode, Mode: dialog.ModeRoute}
			case "price":
				return Directive{Kind: KindChooseMode, Mode: dialog.ModePrice}
			}
		case "page":
			if page, ok := atoiPage(parts[2]); ok {
				return Directive{Kind: KindSearchPage, Page: page}
			}
		}

	case "alert":
		if len(parts) < 3 {
			return Directive{Kind: KindUnknown}
		}
		switch parts[1] {
		case "action":
			switch parts[2] {
			case "create":
				return Directive{Kind: KindChooseAction, Action: dialog.ActionCreate}
			case "list":
				return Directive{Kind: KindChooseAction, Action: dialog.ActionList}
			}
		case "delete":
			if id, err := strconv.ParseInt(parts[2], 10, 64); err == nil && id > 0 {
				return Directive{Kind: KindDeleteAlert, AlertID: id}
			}
		}

	case "confirm":
		if len(parts) == 2 && (parts[1] == "yes" || parts[1] == "no") {
			return Directive{Kind: KindConfirm, Yes: parts[1] == "yes"}
		}

	case "deals":
		if len(parts) == 3 && parts[1] == "page" {
			if page, ok := atoiPage(parts[2]); ok {
				return Directive{Kind: KindBrowseDeals, Page: page}
			}
		}

	case "deal":
		// Slugs may contain colons; rejoin the remainder.
		if len(parts) >= 3 && parts[1] == "view" {
			return Directive{Kind: KindViewDeal, Slug: strings.Join(parts[2:], ":")}
		}

	case "dest":
		// "dest:view:<city>" opens page 1; pagination flips arrive as
		// "dest:<city>:page:<n>". City names may contain colons.
		if len(parts) >= 3 && parts[1] == "view" {
			return Directive{Kind: KindDestDeals, City: strings.Join(parts[2:], ":"), Page: 1}
		}
		if len(parts) >= 4 && parts[len(parts)-2] == "page" {
			if page, ok := atoiPage(parts[len(parts)-1]); ok {
				city := strings.Join(parts[1:len(parts)-2], ":")
				return Directive{Kind: KindDestDeals, City: city, Page: page}
			}
		}
	}
	return Directive{Kind: KindUnknown}
}

func atoiPage(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
