package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"flydealsbot/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSubscriberLifecycle(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	ok, err := st.IsSubscriber(ctx, 1)
	if err != nil || ok {
		t.Fatalf("IsSubscriber before add = %v, %v", ok, err)
	}

	if err := st.AddSubscriber(ctx, 1); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}
	// Repeat add must be idempotent.
	if err := st.AddSubscriber(ctx, 1); err != nil {
		t.Fatalf("AddSubscriber again: %v", err)
	}
	if err := st.AddSubscriber(ctx, 2); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}

	subs, err := st.Subscribers(ctx)
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	if len(subs) != 2 || subs[0] != 1 || subs[1] != 2 {
		t.Fatalf("Subscribers = %v, want [1 2]", subs)
	}

	if err := st.RemoveSubscriber(ctx, 1); err != nil {
		t.Fatalf("RemoveSubscriber: %v", err)
	}
	ok, err = st.IsSubscriber(ctx, 1)
	if err != nil || ok {
		t.Fatalf("IsSubscriber after remove = %v, %v", ok, err)
	}
}

func TestContactForIsStable(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	c1, err := st.ContactFor(ctx, 42)
	if err != nil {
		t.Fatalf("ContactFor: %v", err)
	}
	if c1 == "" {
		t.Fatal("empty contact handle")
	}
	c2, err := st.ContactFor(ctx, 42)
	if err != nil {
		t.Fatalf("ContactFor again: %v", err)
	}
	if c1 != c2 {
		t.Fatalf("handle changed between calls: %q vs %q", c1, c2)
	}

	other, err := st.ContactFor(ctx, 43)
	if err != nil {
		t.Fatalf("ContactFor other chat: %v", err)
	}
	if other == c1 {
		t.Fatalf("handles not unique per chat: %q", other)
	}
}

func TestSeenDealDedup(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	seen, err := st.DealSeen(ctx, 1, 100)
	if err != nil || seen {
		t.Fatalf("DealSeen before mark = %v, %v", seen, err)
	}
	if err := st.MarkDealSeen(ctx, 1, 100); err != nil {
		t.Fatalf("MarkDealSeen: %v", err)
	}
	if err := st.MarkDealSeen(ctx, 1, 100); err != nil {
		t.Fatalf("MarkDealSeen repeat: %v", err)
	}
	seen, err = st.DealSeen(ctx, 1, 100)
	if err != nil || !seen {
		t.Fatalf("DealSeen after mark = %v, %v", seen, err)
	}
	// Other chat is unaffected.
	seen, err = st.DealSeen(ctx, 2, 100)
	if err != nil || seen {
		t.Fatalf("DealSeen other chat = %v, %v", seen, err)
	}
}

func TestAlertDeleteCascadesDedup(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.SaveAlert(ctx, 1, 7); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	if err := st.MarkAlertDealNotified(ctx, 1, 7, 500); err != nil {
		t.Fatalf("MarkAlertDealNotified: %v", err)
	}

	if err := st.DeleteAlert(ctx, 1, 7); err != nil {
		t.Fatalf("DeleteAlert: %v", err)
	}

	// A recreated alert with the same id is free to notify again.
	notified, err := st.AlertDealNotified(ctx, 1, 7, 500)
	if err != nil || notified {
		t.Fatalf("AlertDealNotified after cascade = %v, %v", notified, err)
	}
}

func TestChatsWithAlertsJoinsContacts(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	contact, err := st.ContactFor(ctx, 10)
	if err != nil {
		t.Fatalf("ContactFor: %v", err)
	}
	if err := st.SaveAlert(ctx, 10, 1); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	if err := st.SaveAlert(ctx, 10, 2); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	// Chat without a contact row never shows up.
	if err := st.SaveAlert(ctx, 11, 3); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}

	chats, err := st.ChatsWithAlerts(ctx)
	if err != nil {
		t.Fatalf("ChatsWithAlerts: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("ChatsWithAlerts = %v, want one row", chats)
	}
	if chats[0].ChatID != 10 || chats[0].Contact != contact {
		t.Fatalf("unexpected row: %+v", chats[0])
	}
}

func TestPruneSeenDealsKeepsAlertRecords(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.MarkDealSeen(ctx, 1, 100); err != nil {
		t.Fatalf("MarkDealSeen: %v", err)
	}
	if err := st.MarkDealSeen(ctx, 1, 101); err != nil {
		t.Fatalf("MarkDealSeen: %v", err)
	}
	if err := st.MarkAlertDealNotified(ctx, 1, 7, 100); err != nil {
		t.Fatalf("MarkAlertDealNotified: %v", err)
	}

	// Backdate one seen record past the horizon.
	old := time.Now().UTC().Add(-40 * 24 * time.Hour).Format("2006-01-02 15:04:05")
	db := st.(*sqliteStore).db
	if _, err := db.Exec(`UPDATE seen_deals SET notified_at = ? WHERE deal_id = 100`, old); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := st.PruneSeenDeals(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("PruneSeenDeals: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d rows, want 1", n)
	}

	seen, err := st.DealSeen(ctx, 1, 101)
	if err != nil || !seen {
		t.Fatalf("recent record pruned: %v, %v", seen, err)
	}
	seen, err = st.DealSeen(ctx, 1, 100)
	if err != nil || seen {
		t.Fatalf("old record survived: %v, %v", seen, err)
	}
	notified, err := st.AlertDealNotified(ctx, 1, 7, 100)
	if err != nil || !notified {
		t.Fatalf("alert dedup record pruned: %v, %v", notified, err)
	}
}
