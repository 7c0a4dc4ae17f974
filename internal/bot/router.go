package bot

import (
	"context"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/dialog"
	"flydealsbot/internal/storage"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

// Router consumes the transport update stream, decodes directives, and
// dispatches them. Flow directives go to the dialog engine; everything else
// is handled here.
type Router struct {
	engine   *dialog.Engine
	gw       catalog.Gateway
	store    storage.Store
	sender   transport.Adapter
	log      logx.Logger
	pageSize int
}

func NewRouter(engine *dialog.Engine, gw catalog.Gateway, store storage.Store, sender transport.Adapter, pageSize int, log logx.Logger) *Router {
	if pageSize <= 0 {
		pageSize = 5
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{engine: engine, gw: gw, store: store, sender: sender, log: log, pageSize: pageSize}
}

// Run processes updates until ctx is cancelled or the channel closes.
// Handler errors are logged and never stop the loop.
func (r *Router) Run(ctx context.Context, updates <-chan transport.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			r.handle(ctx, up)
		}
	}
}

func (r *Router) handle(ctx context.Context, up transport.Update) {
	var chatID int64
	var d Directive
	var via *transport.MessageRef

	switch up.Kind {
	case transport.UpdateMessage:
		if up.Message == nil {
			return
		}
		chatID = up.Message.ChatID
		d = DecodeMessage(up.Message.Text)
		r.log.Debug("message received", logx.Int64("chat_id", chatID),
			logx.Int64("from_id", up.Message.FromID),
			logx.String("from", up.Message.FromUsername))
	case transport.UpdateCallback:
		if up.Callback == nil {
			return
		}
		chatID = up.Callback.ChatID
		d = DecodeCallback(up.Callback.Data)
		// Callback responses replace the keyboard message in place.
		via = &transport.MessageRef{ChatID: chatID, MessageID: up.Callback.MessageID}
		// Acknowledge the button press; failure here is cosmetic.
		_ = r.sender.AnswerCallback(ctx, up.Callback.ID, "")
	default:
		return
	}

	if err := r.dispatch(ctx, chatID, d, via); err != nil {
		r.log.Warn("directive handling failed",
			logx.Int64("chat_id", chatID), logx.Int("kind", int(d.Kind)), logx.Err(err))
	}
}

func (r *Router) dispatch(ctx context.Context, chatID int64, d Directive, via *transport.MessageRef) error {
	switch d.Kind {
	case KindHelp:
		return r.sendHelp(ctx, chatID)
	case KindStartSearch:
		return r.engine.StartSearch(ctx, chatID)
	case KindStartAlert:
		return r.engine.StartAlert(ctx, chatID)
	case KindChooseMode:
		return r.engine.ChooseMode(ctx, chatID, d.Mode, via)
	case KindChooseAction:
		return r.engine.ChooseAction(ctx, chatID, d.Action, via)
	case KindText:
		if r.engine.Active(chatID) {
			return r.engine.Text(ctx, chatID, d.Text)
		}
		return nil // free text outside a flow is ignored
	case KindSkip:
		return r.engine.Skip(ctx, chatID)
	case KindCancel:
		return r.engine.Cancel(ctx, chatID)
	case KindConfirm:
		return r.engine.Confirm(ctx, chatID, d.Yes, via)
	case KindSearchPage:
		return r.engine.SearchPage(ctx, chatID, d.Page, via)
	case KindBrowseDeals:
		return r.sendDealsPage(ctx, chatID, d.Page, via)
	case KindViewDeal:
		return r.viewDeal(ctx, chatID, d.Slug, via)
	case KindDestinations:
		return r.sendDestinations(ctx, chatID, via)
	case KindDestDeals:
		return r.sendDestDeals(ctx, chatID, d.City, d.Page, via)
	case KindDeleteAlert:
		return r.deleteAlert(ctx, chatID, d.AlertID, via)
	case KindSubscribe:
		return r.subscribe(ctx, chatID)
	case KindUnsubscribe:
		return r.unsubscribe(ctx, chatID)
	case KindToggleSubscription:
		return r.toggleSubscription(ctx, chatID, via)
	case KindNoop, KindUnknown:
		return nil
	}
	return nil
}
