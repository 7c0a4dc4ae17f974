package poller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"flydealsbot/internal/catalog"
	"flydealsbot/internal/notify"
	"flydealsbot/internal/storage"
	"flydealsbot/internal/transport"
	"flydealsbot/pkg/logx"
)

// scriptedSender fails sends to chats listed in errs, records the rest.
type scriptedSender struct {
	errs  map[int64]error
	sends []int64
}

func (s *scriptedSender) Start(ctx context.Context, out chan<- transport.Update) error { return nil }
func (s *scriptedSender) Stop(ctx context.Context) error                               { return nil }
func (s *scriptedSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	if err := s.errs[to.ChatID]; err != nil {
		return transport.MessageRef{}, err
	}
	s.sends = append(s.sends, to.ChatID)
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(s.sends)}, nil
}
func (s *scriptedSender) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	return nil
}
func (s *scriptedSender) AnswerCallback(ctx context.Context, id, text string) error { return nil }
func (s *scriptedSender) SetCommands(ctx context.Context, cmds []transport.BotCommand) error {
	return nil
}

// fakeGateway serves canned deals and alert listings.
type fakeGateway struct {
	deals      []catalog.Deal
	dealsErr   error
	dealsCalls []catalog.Filter

	alertsByContact map[string][]catalog.Alert
	alertsErr       map[string]error
}

func (f *fakeGateway) Deals(ctx context.Context, flt catalog.Filter) (catalog.Page, error) {
	f.dealsCalls = append(f.dealsCalls, flt)
	if f.dealsErr != nil {
		return catalog.Page{}, f.dealsErr
	}
	deals := f.deals
	if flt.MaxPrice != nil {
		var kept []catalog.Deal
		for _, d := range deals {
			if d.Price <= *flt.MaxPrice {
				kept = append(kept, d)
			}
		}
		deals = kept
	}
	return catalog.Page{Deals: deals, Total: len(deals)}, nil
}
func (f *fakeGateway) Deal(ctx context.Context, slug string) (catalog.Deal, error) {
	return catalog.Deal{}, nil
}
func (f *fakeGateway) TrackClick(ctx context.Context, slug string) error { return nil }
func (f *fakeGateway) Destinations(ctx context.Context) ([]catalog.Destination, error) {
	return nil, nil
}
func (f *fakeGateway) CreateAlert(ctx context.Context, req catalog.AlertRequest) (catalog.Alert, error) {
	return catalog.Alert{}, nil
}
func (f *fakeGateway) Alerts(ctx context.Context, contact string) ([]catalog.Alert, error) {
	if err := f.alertsErr[contact]; err != nil {
		return nil, err
	}
	return f.alertsByContact[contact], nil
}
func (f *fakeGateway) DeleteAlert(ctx context.Context, id int64) error            { return nil }
func (f *fakeGateway) SubscribeNewsletter(ctx context.Context, contact string) error { return nil }

func openStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newDispatcher(st storage.Store, sender *scriptedSender) *notify.Dispatcher {
	return notify.NewDispatcher(notify.Config{RatePerSec: 1000}, sender, st, logx.Nop())
}

func someDeals(ids ...int64) []catalog.Deal {
	deals := make([]catalog.Deal, 0, len(ids))
	for _, id := range ids {
		deals = append(deals, catalog.Deal{
			ID: id, Slug: fmt.Sprintf("deal-%d", id),
			Title: fmt.Sprintf("Deal %d", id), Destination: "Rome",
			Price: 100 + int(id), Currency: "EUR",
		})
	}
	return deals
}

func TestNewDealsSkipsSeen(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	if err := st.AddSubscriber(ctx, 1); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}
	if err := st.MarkDealSeen(ctx, 1, 2); err != nil {
		t.Fatalf("MarkDealSeen: %v", err)
	}

	gw := &fakeGateway{deals: someDeals(1, 2, 3)}
	sender := &scriptedSender{}
	job := NewNewDealsJob(gw, st, newDispatcher(st, sender), logx.Nop())

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Deal 2 was already seen; only 1 and 3 go out, and both get marked.
	if len(sender.sends) != 2 {
		t.Fatalf("sends = %d, want 2", len(sender.sends))
	}
	for _, id := range []int64{1, 2, 3} {
		seen, err := st.DealSeen(ctx, 1, id)
		if err != nil || !seen {
			t.Fatalf("deal %d not marked seen: %v, %v", id, seen, err)
		}
	}

	// A second run with the same catalog page sends nothing.
	sender.sends = nil
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(sender.sends) != 0 {
		t.Fatalf("repeat sends = %d, want 0", len(sender.sends))
	}
}

func TestNewDealsPermanentFailureAbandonsChat(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	if err := st.AddSubscriber(ctx, 1); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}
	if err := st.AddSubscriber(ctx, 2); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}

	gw := &fakeGateway{deals: someDeals(10, 11, 12)}
	sender := &scriptedSender{errs: map[int64]error{
		1: fmt.Errorf("send: %w", transport.ErrRecipientGone),
	}}
	job := NewNewDealsJob(gw, st, newDispatcher(st, sender), logx.Nop())

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Chat 1 is abandoned on its first unit: no dedup record for any deal,
	// and the subscriber row is gone.
	for _, id := range []int64{10, 11, 12} {
		seen, err := st.DealSeen(ctx, 1, id)
		if err != nil || seen {
			t.Fatalf("failed chat got record for deal %d: %v, %v", id, seen, err)
		}
	}
	ok, err := st.IsSubscriber(ctx, 1)
	if err != nil || ok {
		t.Fatalf("gone subscriber still present: %v, %v", ok, err)
	}

	// Chat 2 is unaffected and fully notified.
	for _, id := range []int64{10, 11, 12} {
		seen, err := st.DealSeen(ctx, 2, id)
		if err != nil || !seen {
			t.Fatalf("healthy chat missing record for deal %d: %v, %v", id, seen, err)
		}
	}
}

func TestNewDealsTransientFailureLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	if err := st.AddSubscriber(ctx, 1); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}

	gw := &fakeGateway{deals: someDeals(10)}
	sender := &scriptedSender{errs: map[int64]error{1: errors.New("429 too many requests")}}
	job := NewNewDealsJob(gw, st, newDispatcher(st, sender), logx.Nop())

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	seen, err := st.DealSeen(ctx, 1, 10)
	if err != nil || seen {
		t.Fatalf("transient failure wrote a record: %v, %v", seen, err)
	}
	ok, err := st.IsSubscriber(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("transient failure removed subscriber: %v, %v", ok, err)
	}

	// Next cycle retries the pair once the transport recovers.
	sender.errs = nil
	if err := job.Run(ctx); err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	seen, err = st.DealSeen(ctx, 1, 10)
	if err != nil || !seen {
		t.Fatalf("retry did not deliver: %v, %v", seen, err)
	}
}

func TestNewDealsCatalogFailureEndsRun(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	gw := &fakeGateway{dealsErr: &catalog.Error{Op: "deals", Status: 502}}
	sender := &scriptedSender{}
	job := NewNewDealsJob(gw, st, newDispatcher(st, sender), logx.Nop())

	if err := job.Run(ctx); err == nil {
		t.Fatal("Run succeeded despite catalog failure")
	}
	if len(sender.sends) != 0 {
		t.Fatal("sends attempted without a catalog page")
	}
}
