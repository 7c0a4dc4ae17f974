package poller

import (
	"context"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/format"
	"flydealsbot/internal/notify"
	"flydealsbot/internal/storage"
	"flydealsbot/pkg/logx"
)

// NewDealsJob notifies subscribers about catalog items they have not seen.
type NewDealsJob struct {
	gw         catalog.Gateway
	store      storage.Store
	dispatcher *notify.Dispatcher
	log        logx.Logger

	fetchLimit int
}

func NewNewDealsJob(gw catalog.Gateway, store storage.Store, d *notify.Dispatcher, log logx.Logger) *NewDealsJob {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &NewDealsJob{gw: gw, store: store, dispatcher: d, log: log, fetchLimit: 20}
}

// Run is one trigger invocation. A failure for one chat or deal never aborts
// the others; only a catalog failure for the whole poll ends the run early.
func (j *NewDealsJob) Run(ctx context.Context) error {
	page, err := j.gw.Deals(ctx, catalog.Filter{Page: 1, Limit: j.fetchLimit, Sort: catalog.SortNewest})
	if err != nil {
		return err
	}
	if len(page.Deals) == 0 {
		return nil
	}

	subs, err := j.store.Subscribers(ctx)
	if err != nil {
		return err
	}

	for _, chatID := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.notifyChat(ctx, chatID, page.Deals)
	}
	return nil
}

func (j *NewDealsJob) notifyChat(ctx context.Context, chatID int64, deals []catalog.Deal) {
	for _, deal := range deals {
		seen, err := j.store.DealSeen(ctx, chatID, deal.ID)
		if err != nil {
			j.log.Error("seen-deal check failed",
				logx.Int64("chat_id", chatID), logx.Int64("deal_id", deal.ID), logx.Err(err))
			continue
		}
		if seen {
			continue
		}

		switch j.dispatcher.Send(ctx, chatID, format.NewDealCard(deal), format.DealDetail(deal)) {
		case notify.Sent:
			if err := j.store.MarkDealSeen(ctx, chatID, deal.ID); err != nil {
				j.log.Error("seen-deal mark failed",
					logx.Int64("chat_id", chatID), logx.Int64("deal_id", deal.ID), logx.Err(err))
			}
		case notify.SkippedPermanent:
			// Subscriber already removed; abandon this chat for the cycle.
			return
		case notify.Transient:
			// No record written: the next cycle retries this pair.
		}
	}
}
