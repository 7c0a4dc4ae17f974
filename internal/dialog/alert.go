package dialog

import (
	"context"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/format"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

func (e *Engine) promptChooseAction(ctx context.Context, chatID int64) error {
	return e.replyMarkup(ctx, chatID, "What would you like to do?", format.AlertAction())
}

// alertInput advances the alert-creation flow. ENTER_DEPART is the only
// skip-eligible state; ENTER_PRICE self-loops on invalid input.
func (e *Engine) alertInput(ctx context.Context, chatID int64, sess *Session, text string, skip bool) error {
	switch sess.State {
	case StateChooseAction:
		return nil

	case StateEnterDest:
		if skip || text == "" {
			return e.reply(ctx, chatID, "Please enter a destination city:")
		}
		sess.Alert.Destination = text
		sess.State = StateEnterDepart
		return e.reply(ctx, chatID, "Enter departure city (or send /skip):")

	case StateEnterDepart:
		if !skip {
			sess.Alert.Departure = text
		}
		sess.State = StateEnterPrice
		return e.reply(ctx, chatID, "Enter your target price (in EUR):")

	case StateEnterPrice:
		n, ok := parsePositiveInt(text)
		if skip || !ok {
			return e.reply(ctx, chatID, "Please enter a valid number:")
		}
		sess.Alert.Price = n
		sess.State = StateConfirm
		return e.replyMarkup(ctx, chatID,
			format.AlertConfirm(sess.Alert.Destination, sess.Alert.Departure, sess.Alert.Price),
			format.Confirm())
	}
	return nil
}

// createAlert is the flow's confirmed terminal: register with the catalog,
// then persist the returned id. A gateway failure ends the flow without
// persisting anything; the user restarts the flow to retry.
func (e *Engine) createAlert(ctx context.Context, chatID int64, draft AlertDraft, via *transport.MessageRef) error {
	contact, err := e.store.ContactFor(ctx, chatID)
	if err != nil {
		e.log.Error("contact lookup failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return e.respond(ctx, chatID, via, "Failed to create alert. Please try again.")
	}

	created, err := e.gw.CreateAlert(ctx, catalog.AlertRequest{
		Contact:     contact,
		Destination: draft.Destination,
		TargetPrice: draft.Price,
		Departure:   draft.Departure,
		Currency:    "EUR",
	})
	if err != nil {
		e.log.Warn("alert creation failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return e.respond(ctx, chatID, via, "Failed to create alert. Please try again.")
	}

	if err := e.store.SaveAlert(ctx, chatID, created.ID); err != nil {
		e.log.Error("alert persist failed",
			logx.Int64("chat_id", chatID), logx.Int64("alert_id", created.ID), logx.Err(err))
		return e.respond(ctx, chatID, via, "Failed to create alert. Please try again.")
	}

	return e.respond(ctx, chatID, via, "✅ Alert created! I'll notify you when a matching deal appears.")
}

// listAlerts renders the chat's alerts; it is a terminal of the alert flow.
func (e *Engine) listAlerts(ctx context.Context, chatID int64, via *transport.MessageRef) error {
	contact, err := e.store.ContactFor(ctx, chatID)
	if err != nil {
		e.log.Error("contact lookup failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return e.respond(ctx, chatID, via, "Failed to load your alerts. Try again later.")
	}

	alerts, err := e.gw.Alerts(ctx, contact)
	if err != nil {
		e.log.Warn("alert listing failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return e.respond(ctx, chatID, via, "Failed to load your alerts. Try again later.")
	}
	if len(alerts) == 0 {
		return e.respond(ctx, chatID, via, "You have no price alerts. Use /alert to create one!")
	}
	return e.respondMarkup(ctx, chatID, via, format.AlertsList(alerts), format.AlertButtons(alerts))
}
