package dialog

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/storage"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

// Engine owns dialog sessions and applies directives to them. All methods
// are safe for concurrent use across chats; a single chat's updates arrive
// sequentially from the transport.
type Engine struct {
	gw       catalog.Gateway
	store    storage.Store
	sender   transport.Adapter
	log      logx.Logger
	pageSize int

	sessions *sessionStore

	// lastSearch keeps the executed filter per chat so pagination callbacks
	// can re-run it after the flow has ended.
	searchMu   sync.Mutex
	lastSearch map[int64]SearchDraft
}

func NewEngine(gw catalog.Gateway, store storage.Store, sender transport.Adapter, pageSize int, log logx.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = 5
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		gw:         gw,
		store:      store,
		sender:     sender,
		log:        log,
		pageSize:   pageSize,
		sessions:   newSessionStore(),
		lastSearch: make(map[int64]SearchDraft),
	}
}

// Active reports whether the chat has a flow in progress.
func (e *Engine) Active(chatID int64) bool {
	_, ok := e.sessions.get(chatID)
	return ok
}

// StartSearch enters the search flow, discarding any existing session.
func (e *Engine) StartSearch(ctx context.Context, chatID int64) error {
	e.sessions.put(chatID, &Session{Flow: FlowSearch, State: StateChooseMode})
	return e.promptChooseMode(ctx, chatID)
}

// StartAlert enters the alert flow, discarding any existing session.
func (e *Engine) StartAlert(ctx context.Context, chatID int64) error {
	e.sessions.put(chatID, &Session{Flow: FlowAlert, State: StateChooseAction})
	return e.promptChooseAction(ctx, chatID)
}

// Cancel ends the active flow, if any, discarding collected fields.
func (e *Engine) Cancel(ctx context.Context, chatID int64) error {
	sess, ok := e.sessions.get(chatID)
	if !ok {
		return e.reply(ctx, chatID, "Nothing to cancel.")
	}
	e.sessions.drop(chatID)
	switch sess.Flow {
	case FlowAlert:
		return e.reply(ctx, chatID, "Alert setup cancelled.")
	default:
		return e.reply(ctx, chatID, "Search cancelled.")
	}
}

// ChooseMode handles the search-mode selection callback. via is the keyboard
// message, which is edited in place into the first prompt.
func (e *Engine) ChooseMode(ctx context.Context, chatID int64, mode SearchMode, via *transport.MessageRef) error {
	sess, ok := e.sessions.get(chatID)
	if !ok || sess.Flow != FlowSearch || sess.State != StateChooseMode {
		return nil // stale keyboard press, not an error
	}
	sess.Search.Mode = mode
	switch mode {
	case ModeText:
		sess.State = StateEnterQuery
		return e.respond(ctx, chatID, via, "Enter your search query (city, destination, or keyword):")
	case ModeRoute:
		sess.State = StateEnterDeparture
		return e.respond(ctx, chatID, via, "Enter departure city (or send /skip):")
	case ModePrice:
		sess.State = StateEnterMin
		return e.respond(ctx, chatID, via, "Enter minimum price (or send /skip):")
	}
	e.sessions.drop(chatID)
	return nil
}

// ChooseAction handles the alert-flow action selection callback.
func (e *Engine) ChooseAction(ctx context.Context, chatID int64, action AlertAction, via *transport.MessageRef) error {
	sess, ok := e.sessions.get(chatID)
	if !ok || sess.Flow != FlowAlert || sess.State != StateChooseAction {
		return nil
	}
	switch action {
	case ActionCreate:
		sess.State = StateEnterDest
		return e.respond(ctx, chatID, via, "Enter the destination city:")
	case ActionList:
		e.sessions.drop(chatID)
		return e.listAlerts(ctx, chatID, via)
	}
	e.sessions.drop(chatID)
	return nil
}

// Text feeds a free-text message into the active flow. With no active flow
// it is a no-op: the router only calls this when a session exists.
func (e *Engine) Text(ctx context.Context, chatID int64, text string) error {
	return e.input(ctx, chatID, strings.TrimSpace(text), false)
}

// Skip advances a skip-eligible state without setting its field.
func (e *Engine) Skip(ctx context.Context, chatID int64) error {
	return e.input(ctx, chatID, "", true)
}

func (e *Engine) input(ctx context.Context, chatID int64, text string, skip bool) error {
	sess, ok := e.sessions.get(chatID)
	if !ok {
		return nil
	}
	switch sess.Flow {
	case FlowSearch:
		return e.searchInput(ctx, chatID, sess, text, skip)
	case FlowAlert:
		return e.alertInput(ctx, chatID, sess, text, skip)
	}
	return nil
}

// Confirm resolves the alert flow's yes/no confirmation, replacing the
// confirmation keyboard with the result.
func (e *Engine) Confirm(ctx context.Context, chatID int64, yes bool, via *transport.MessageRef) error {
	sess, ok := e.sessions.get(chatID)
	if !ok || sess.Flow != FlowAlert || sess.State != StateConfirm {
		return nil
	}
	e.sessions.drop(chatID)
	if !yes {
		return e.respond(ctx, chatID, via, "Alert creation cancelled.")
	}
	return e.createAlert(ctx, chatID, sess.Alert, via)
}

func (e *Engine) reply(ctx context.Context, chatID int64, text string) error {
	return e.respond(ctx, chatID, nil, text)
}

func (e *Engine) replyMarkup(ctx context.Context, chatID int64, text string, rm any) error {
	return e.respondMarkup(ctx, chatID, nil, text, rm)
}

// respond edits via in place when set (callback-driven turns), otherwise
// sends a new message. An edit can fail when the message is too old or
// already matches; the reply then degrades to a fresh send.
func (e *Engine) respond(ctx context.Context, chatID int64, via *transport.MessageRef, text string) error {
	return e.respondMarkup(ctx, chatID, via, text, nil)
}

func (e *Engine) respondMarkup(ctx context.Context, chatID int64, via *transport.MessageRef, text string, rm any) error {
	opts := &transport.SendOptions{ParseMode: "HTML", DisablePreview: true, ReplyMarkup: rm}
	if via != nil {
		err := e.sender.EditText(ctx, *via, text, opts)
		if err == nil {
			return nil
		}
		e.log.Debug("message edit failed, sending new", logx.Int64("chat_id", chatID), logx.Err(err))
	}
	_, err := e.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text, opts)
	return err
}

// parsePositiveInt is the single validation gate for numeric dialog states.
func parsePositiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
