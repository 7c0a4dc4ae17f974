package bot

import (
	"context"
	"path/filepath"
	"testing"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/dialog"
	"flydealsbot/internal/storage"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

type recordingSender struct {
	sends []string
	edits []transport.MessageRef
}

func (s *recordingSender) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (s *recordingSender) Stop(ctx context.Context) error                               { return nil }
func (s *recordingSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	s.sends = append(s.sends, text)
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(s.sends)}, nil
}
func (s *recordingSender) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	s.edits = append(s.edits, ref)
	return nil
}
func (s *recordingSender) AnswerCallback(ctx context.Context, id, text string) error { return nil }
func (s *recordingSender) SetCommands(ctx context.Context, cmds []transport.BotCommand) error {
	return nil
}

type pageGateway struct{ catalog.Gateway }

func (pageGateway) Deals(ctx context.Context, f catalog.Filter) (catalog.Page, error) {
	return catalog.Page{Deals: []catalog.Deal{{ID: 1, Slug: "rome", Destination: "Rome", Price: 99}}, Total: 1}, nil
}

func newTestRouter(t *testing.T) (*Router, *recordingSender) {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	sender := &recordingSender{}
	gw := pageGateway{}
	engine := dialog.NewEngine(gw, st, sender, 5, logx.Nop())
	return NewRouter(engine, gw, st, sender, 5, logx.Nop()), sender
}

func TestCallbackPageFlipEditsInPlace(t *testing.T) {
	ctx := context.Background()
	r, sender := newTestRouter(t)

	r.handle(ctx, transport.Update{
		Kind: transport.UpdateCallback,
		Callback: &transport.Callback{
			ID: "cb1", ChatID: 7, MessageID: 33, Data: "deals:page:2",
		},
	})

	if len(sender.edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(sender.edits))
	}
	want := transport.MessageRef{ChatID: 7, MessageID: 33}
	if sender.edits[0] != want {
		t.Fatalf("edited %+v, want %+v", sender.edits[0], want)
	}
	if len(sender.sends) != 0 {
		t.Fatalf("sends = %v, want none (list replaced in place)", sender.sends)
	}
}

func TestCommandRepliesWithNewMessage(t *testing.T) {
	ctx := context.Background()
	r, sender := newTestRouter(t)

	r.handle(ctx, transport.Update{
		Kind:    transport.UpdateMessage,
		Message: &transport.Message{ID: 5, ChatID: 7, Text: "/deals"},
	})

	if len(sender.edits) != 0 {
		t.Fatalf("edits = %v, want none for a command", sender.edits)
	}
	if len(sender.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.sends))
	}
}
