package bot

import (
	"context"
	"fmt"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/format"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

// reply edits via in place when set (callback-driven turns), falling back to
// a fresh send when the edit fails or no originating message exists.
func (r *Router) reply(ctx context.Context, chatID int64, via *transport.MessageRef, text string, markup any) error {
	opts := &transport.SendOptions{ParseMode: "HTML", DisablePreview: true, ReplyMarkup: markup}
	if via != nil {
		err := r.sender.EditText(ctx, *via, text, opts)
		if err == nil {
			return nil
		}
		r.log.Debug("message edit failed, sending new", logx.Int64("chat_id", chatID), logx.Err(err))
	}
	_, err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text, opts)
	return err
}

func (r *Router) sendHelp(ctx context.Context, chatID int64) error {
	return r.reply(ctx, chatID, nil, format.Welcome, format.MainMenu())
}

func (r *Router) sendDealsPage(ctx context.Context, chatID int64, page int, via *transport.MessageRef) error {
	if page < 1 {
		page = 1
	}
	res, err := r.gw.Deals(ctx, catalog.Filter{Page: page, Limit: r.pageSize, Sort: catalog.SortNewest})
	if err != nil {
		r.log.Warn("deals fetch failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return r.reply(ctx, chatID, via, "Sorry, couldn't fetch deals right now. Please try again later.", nil)
	}
	return r.reply(ctx, chatID, via,
		format.DealList(res.Deals, page, res.Total, r.pageSize),
		format.DealButtons(res.Deals, page, res.Total, r.pageSize, "deals"))
}

func (r *Router) viewDeal(ctx context.Context, chatID int64, slug string, via *transport.MessageRef) error {
	deal, err := r.gw.Deal(ctx, slug)
	if err != nil {
		r.log.Warn("deal fetch failed", logx.String("slug", slug), logx.Err(err))
		return r.reply(ctx, chatID, via, "Sorry, couldn't load this deal.", nil)
	}
	// Click tracking is best-effort analytics.
	if err := r.gw.TrackClick(ctx, slug); err != nil {
		r.log.Debug("click tracking failed", logx.String("slug", slug), logx.Err(err))
	}
	return r.reply(ctx, chatID, via, format.DealCard(deal), format.DealDetail(deal))
}

func (r *Router) sendDestinations(ctx context.Context, chatID int64, via *transport.MessageRef) error {
	dests, err := r.gw.Destinations(ctx)
	if err != nil {
		r.log.Warn("destinations fetch failed", logx.Int64("chat_id", chatID), logx.Err(err))
		return r.reply(ctx, chatID, via, "Sorry, couldn't load destinations right now.", nil)
	}
	// Keyboard space is limited; show the top entries only.
	if len(dests) > 20 {
		dests = dests[:20]
	}
	return r.reply(ctx, chatID, via, format.DestinationList(dests), format.Destinations(dests))
}

func (r *Router) sendDestDeals(ctx context.Context, chatID int64, city string, page int, via *transport.MessageRef) error {
	if page < 1 {
		page = 1
	}
	res, err := r.gw.Deals(ctx, catalog.Filter{
		Page: page, Limit: r.pageSize, Destination: city, Sort: catalog.SortNewest,
	})
	if err != nil {
		r.log.Warn("destination deals fetch failed", logx.String("city", city), logx.Err(err))
		return r.reply(ctx, chatID, via, "Sorry, couldn't load deals for this destination.", nil)
	}
	text := fmt.Sprintf("<b>Deals to %s</b>\n\n%s", format.Esc(city),
		format.DealList(res.Deals, page, res.Total, r.pageSize))
	return r.reply(ctx, chatID, via, text,
		format.DealButtons(res.Deals, page, res.Total, r.pageSize, "dest:"+city))
}

func (r *Router) deleteAlert(ctx context.Context, chatID, alertID int64, via *transport.MessageRef) error {
	if err := r.gw.DeleteAlert(ctx, alertID); err != nil {
		r.log.Warn("alert delete failed", logx.Int64("alert_id", alertID), logx.Err(err))
		return r.reply(ctx, chatID, via, "Failed to delete alert. Try again later.", nil)
	}
	// Cascades to the alert's dedup records, so a recreated alert with the
	// same id is free to notify again.
	if err := r.store.DeleteAlert(ctx, chatID, alertID); err != nil {
		return err
	}
	return r.reply(ctx, chatID, via, fmt.Sprintf("Alert #%d deleted.", alertID), nil)
}

func (r *Router) subscribe(ctx context.Context, chatID int64) error {
	already, err := r.store.IsSubscriber(ctx, chatID)
	if err != nil {
		return err
	}
	if already {
		return r.reply(ctx, chatID, nil, "You're already subscribed! You'll get notified about new deals.", nil)
	}
	if err := r.addSubscriber(ctx, chatID); err != nil {
		return err
	}
	return r.reply(ctx, chatID, nil,
		"✅ Subscribed! You'll receive notifications when new deals are posted.\n\nUse /unsubscribe to stop.", nil)
}

func (r *Router) unsubscribe(ctx context.Context, chatID int64) error {
	if err := r.store.RemoveSubscriber(ctx, chatID); err != nil {
		return err
	}
	return r.reply(ctx, chatID, nil,
		"Unsubscribed. You won't receive new deal notifications anymore.\n\nUse /subscribe to re-enable.", nil)
}

func (r *Router) toggleSubscription(ctx context.Context, chatID int64, via *transport.MessageRef) error {
	already, err := r.store.IsSubscriber(ctx, chatID)
	if err != nil {
		return err
	}
	if already {
		if err := r.store.RemoveSubscriber(ctx, chatID); err != nil {
			return err
		}
		return r.reply(ctx, chatID, via, "Unsubscribed from new deal notifications.", nil)
	}
	if err := r.addSubscriber(ctx, chatID); err != nil {
		return err
	}
	return r.reply(ctx, chatID, via, "✅ Subscribed to new deal notifications!", nil)
}

// addSubscriber persists the subscription and registers interest with the
// catalog. The registration is fire-and-forget: its failure never blocks the
// subscription itself.
func (r *Router) addSubscriber(ctx context.Context, chatID int64) error {
	if err := r.store.AddSubscriber(ctx, chatID); err != nil {
		return err
	}
	contact, err := r.store.ContactFor(ctx, chatID)
	if err != nil {
		return err
	}
	if err := r.gw.SubscribeNewsletter(ctx, contact); err != nil {
		r.log.Warn("newsletter registration failed", logx.String("contact", contact), logx.Err(err))
	}
	return nil
}
