package poller

import (
	"context"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/format"
	"flydealsbot/internal/notify"
	"flydealsbot/internal/storage"
	"flydealsbot/pkg/logx"
)

// AlertsJob re-queries the catalog for every tracked alert and notifies the
// owning chat about matches it has not been told about yet.
type AlertsJob struct {
	gw         catalog.Gateway
	store      storage.Store
	dispatcher *notify.Dispatcher
	log        logx.Logger

	matchLimit int
}

func NewAlertsJob(gw catalog.Gateway, store storage.Store, d *notify.Dispatcher, log logx.Logger) *AlertsJob {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &AlertsJob{gw: gw, store: store, dispatcher: d, log: log, matchLimit: 5}
}

// Run is one trigger invocation. Gateway failures are scoped: a failed alert
// listing skips that chat, a failed deal query skips that alert, and sibling
// chats/alerts always continue.
func (j *AlertsJob) Run(ctx context.Context) error {
	chats, err := j.store.ChatsWithAlerts(ctx)
	if err != nil {
		return err
	}

	for _, cc := range chats {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		alerts, err := j.gw.Alerts(ctx, cc.Contact)
		if err != nil {
			j.log.Warn("alert listing failed", logx.Int64("chat_id", cc.ChatID), logx.Err(err))
			continue
		}

		j.matchChat(ctx, cc.ChatID, alerts)
	}
	return nil
}

func (j *AlertsJob) matchChat(ctx context.Context, chatID int64, alerts []catalog.Alert) {
	for _, alert := range alerts {
		maxPrice := alert.TargetPrice
		res, err := j.gw.Deals(ctx, catalog.Filter{
			Limit:       j.matchLimit,
			Departure:   alert.Departure,
			Destination: alert.Destination,
			MaxPrice:    &maxPrice,
			Sort:        catalog.SortPriceAsc,
		})
		if err != nil {
			j.log.Warn("alert match query failed",
				logx.Int64("chat_id", chatID), logx.Int64("alert_id", alert.ID), logx.Err(err))
			continue
		}

		for _, deal := range res.Deals {
			notified, err := j.store.AlertDealNotified(ctx, chatID, alert.ID, deal.ID)
			if err != nil {
				j.log.Error("alert dedup check failed",
					logx.Int64("chat_id", chatID), logx.Int64("alert_id", alert.ID),
					logx.Int64("deal_id", deal.ID), logx.Err(err))
				continue
			}
			if notified {
				continue
			}

			switch j.dispatcher.Send(ctx, chatID, format.AlertMatchCard(alert, deal), format.DealDetail(deal)) {
			case notify.Sent:
				if err := j.store.MarkAlertDealNotified(ctx, chatID, alert.ID, deal.ID); err != nil {
					j.log.Error("alert dedup mark failed",
						logx.Int64("chat_id", chatID), logx.Int64("alert_id", alert.ID),
						logx.Int64("deal_id", deal.ID), logx.Err(err))
				}
			case notify.SkippedPermanent:
				// Recipient gone: abandon every remaining unit for this chat.
				return
			case notify.Transient:
			}
		}
	}
}
