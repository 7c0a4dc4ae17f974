// Package notify sends notification units to chats, applying the outbound
// rate limit and the delivery-failure policy.
package notify

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"flydealsbot/internal/storage"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

// Outcome is the result of dispatching one (chat, item) unit.
//
// Sent entitles the caller to write the dedup record. SkippedPermanent means
// the recipient is gone: the subscriber has been removed, the failed unit is
// not recorded, and the caller abandons the chat's remaining units for this
// cycle. Transient leaves state untouched: the absent record is itself the
// retry signal for the next polling cycle.
type Outcome int

const (
	Sent Outcome = iota
	SkippedPermanent
	Transient
)

type Config struct {
	RatePerSec int
}

// Dispatcher performs rate-limited sends and handles permanent delivery
// failures by removing the subscriber. It never fails the caller's run loop.
type Dispatcher struct {
	sender  transport.Adapter
	store   storage.Store
	limiter *rate.Limiter
	log     logx.Logger
}

func NewDispatcher(cfg Config, sender transport.Adapter, store storage.Store, log logx.Logger) *Dispatcher {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 20
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		sender:  sender,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// Send delivers one notification. The limiter gates the sending path only;
// matching and queries never wait on it.
func (d *Dispatcher) Send(ctx context.Context, chatID int64, text string, markup any) Outcome {
	if err := d.limiter.Wait(ctx); err != nil {
		return Transient
	}

	_, err := d.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text,
		&transport.SendOptions{ParseMode: "HTML", DisablePreview: true, ReplyMarkup: markup})
	if err == nil {
		return Sent
	}

	if errors.Is(err, transport.ErrRecipientGone) {
		d.log.Info("recipient gone, removing subscriber", logx.Int64("chat_id", chatID))
		if rmErr := d.store.RemoveSubscriber(ctx, chatID); rmErr != nil {
			d.log.Error("subscriber removal failed", logx.Int64("chat_id", chatID), logx.Err(rmErr))
		}
		return SkippedPermanent
	}

	d.log.Warn("notification send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	return Transient
}
