package format

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"flydealsbot/internal/catalog"
)

func btn(text, data string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: data}
}

func markup(rows ...[]tele.InlineButton) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// MainMenu is attached to /start and /help.
func MainMenu() *tele.ReplyMarkup {
	return markup(
		[]tele.InlineButton{btn("🔥 Latest deals", "cmd:deals"), btn("🔍 Search", "cmd:search")},
		[]tele.InlineButton{btn("🌍 Destinations", "cmd:destinations"), btn("🔔 Alerts", "cmd:alerts")},
		[]tele.InlineButton{btn("📬 Subscribe", "cmd:subscribe")},
	)
}

// SearchMode offers the three search input modes.
func SearchMode() *tele.ReplyMarkup {
	return markup(
		[]tele.InlineButton{btn("📝 Free text", "search:mode:text")},
		[]tele.InlineButton{btn("🛫 By route", "search:mode:route")},
		[]tele.InlineButton{btn("💶 By price range", "search:mode:price")},
	)
}

// AlertAction offers create-or-list on /alert.
func AlertAction() *tele.ReplyMarkup {
	return markup(
		[]tele.InlineButton{btn("➕ Create new alert", "alert:action:create")},
		[]tele.InlineButton{btn("📋 My alerts", "alert:action:list")},
	)
}

// Confirm is the yes/no keyboard for alert creation.
func Confirm() *tele.ReplyMarkup {
	return markup([]tele.InlineButton{
		btn("✅ Yes", "confirm:yes"),
		btn("❌ No", "confirm:no"),
	})
}

// DealButtons renders per-deal view buttons plus pagination for one page.
// prefix is the callback namespace for page flips ("deals", "search", or
// "dest:<city>").
func DealButtons(deals []catalog.Deal, page, total, perPage int, prefix string) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	for i, d := range deals {
		n := (page-1)*perPage + i + 1
		rows = append(rows, []tele.InlineButton{
			btn(fmt.Sprintf("%d. %s %d %s", n, d.Destination, d.Price, currency(d.Currency)),
				"deal:view:"+d.Slug),
		})
	}

	pages := (total + perPage - 1) / perPage
	if pages > 1 {
		var nav []tele.InlineButton
		if page > 1 {
			nav = append(nav, btn("◀️ Prev", fmt.Sprintf("%s:page:%d", prefix, page-1)))
		}
		nav = append(nav, btn(fmt.Sprintf("%d/%d", page, pages), "noop"))
		if page < pages {
			nav = append(nav, btn("Next ▶️", fmt.Sprintf("%s:page:%d", prefix, page+1)))
		}
		rows = append(rows, nav)
	}
	return markup(rows...)
}

// DealDetail links out to the deal page.
func DealDetail(d catalog.Deal) *tele.ReplyMarkup {
	row := []tele.InlineButton{}
	if d.URL != "" {
		row = append(row, tele.InlineButton{Text: "🎟 Book this deal", URL: d.URL})
	}
	if len(row) == 0 {
		return nil
	}
	return markup(row)
}

// Destinations renders one button per destination city.
func Destinations(dests []catalog.Destination) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	for _, d := range dests {
		rows = append(rows, []tele.InlineButton{
			btn(fmt.Sprintf("%s (%d)", d.City, d.DealCount), "dest:view:"+d.City),
		})
	}
	return markup(rows...)
}

// AlertButtons renders a delete button per alert.
func AlertButtons(alerts []catalog.Alert) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	for _, a := range alerts {
		rows = append(rows, []tele.InlineButton{
			btn(fmt.Sprintf("🗑 Delete #%d", a.ID), "alert:delete:"+strconv.FormatInt(a.ID, 10)),
		})
	}
	return markup(rows...)
}
