package dialog

import (
	"context"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/format"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

func (e *Engine) promptChooseMode(ctx context.Context, chatID int64) error {
	return e.replyMarkup(ctx, chatID, "How would you like to search?", format.SearchMode())
}

// searchInput advances the search flow one state per valid input. Numeric
// states self-loop on invalid input; every enter-value state accepts skip.
func (e *Engine) searchInput(ctx context.Context, chatID int64, sess *Session, text string, skip bool) error {
	switch sess.State {
	case StateChooseMode:
		// Free text before a mode is chosen is flow-irrelevant.
		return nil

	case StateEnterQuery:
		if skip || text == "" {
			return e.reply(ctx, chatID, "Please enter a search query:")
		}
		sess.Search.Query = text
		return e.runSearch(ctx, chatID, sess.Search)

	case StateEnterDeparture:
		if !skip {
			sess.Search.Departure = text
		}
		sess.State = StateEnterDestination
		return e.reply(ctx, chatID, "Enter destination city (or send /skip):")

	case StateEnterDestination:
		if !skip {
			sess.Search.Destination = text
		}
		return e.runSearch(ctx, chatID, sess.Search)

	case StateEnterMin:
		if !skip {
			n, ok := parsePositiveInt(text)
			if !ok {
				return e.reply(ctx, chatID, "Please enter a valid number or /skip:")
			}
			sess.Search.MinPrice = &n
		}
		sess.State = StateEnterMax
		return e.reply(ctx, chatID, "Enter maximum price (or send /skip):")

	case StateEnterMax:
		if !skip {
			n, ok := parsePositiveInt(text)
			if !ok {
				return e.reply(ctx, chatID, "Please enter a valid number or /skip:")
			}
			sess.Search.MaxPrice = &n
		}
		return e.runSearch(ctx, chatID, sess.Search)
	}
	return nil
}

// runSearch is the search flow's terminal: it ends the session, executes the
// collected filter, and emits the first result page.
func (e *Engine) runSearch(ctx context.Context, chatID int64, draft SearchDraft) error {
	e.sessions.drop(chatID)

	e.searchMu.Lock()
	e.lastSearch[chatID] = draft
	e.searchMu.Unlock()

	return e.sendSearchPage(ctx, chatID, draft, 1, true, nil)
}

// SearchPage re-runs the chat's last executed search for a pagination
// callback, editing the result list in place. Without a retained filter it
// falls back to an unfiltered page.
func (e *Engine) SearchPage(ctx context.Context, chatID int64, page int, via *transport.MessageRef) error {
	e.searchMu.Lock()
	draft, ok := e.lastSearch[chatID]
	e.searchMu.Unlock()
	if !ok {
		draft = SearchDraft{}
	}
	if page < 1 {
		page = 1
	}
	return e.sendSearchPage(ctx, chatID, draft, page, false, via)
}

func (e *Engine) sendSearchPage(ctx context.Context, chatID int64, draft SearchDraft, page int, withSummary bool, via *transport.MessageRef) error {
	res, err := e.gw.Deals(ctx, searchFilter(draft, page, e.pageSize))
	if err != nil {
		e.log.Warn("search query failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return e.respond(ctx, chatID, via, "Search failed. Please try again later.")
	}

	text := format.DealList(res.Deals, page, res.Total, e.pageSize)
	if withSummary {
		text = format.SearchSummary(draft.Query, draft.Departure, draft.Destination,
			draft.MinPrice, draft.MaxPrice) + "\n\n" + text
	}
	return e.respondMarkup(ctx, chatID, via, text,
		format.DealButtons(res.Deals, page, res.Total, e.pageSize, "search"))
}

// searchFilter maps a draft onto the catalog query. Skipped fields stay at
// their zero value and are omitted from the request entirely.
func searchFilter(draft SearchDraft, page, limit int) catalog.Filter {
	return catalog.Filter{
		Page:        page,
		Limit:       limit,
		Query:       draft.Query,
		Departure:   draft.Departure,
		Destination: draft.Destination,
		MinPrice:    draft.MinPrice,
		MaxPrice:    draft.MaxPrice,
		Sort:        catalog.SortPriceAsc,
	}
}
