package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"flydealsbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the sqlite store at cfg.Path, running migrations.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AddSubscriber(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers(chat_id) VALUES(?)`, chatID)
	return err
}

func (s *sqliteStore) RemoveSubscriber(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	return err
}

func (s *sqliteStore) IsSubscriber(ctx context.Context, chatID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM subscribers WHERE chat_id = ?`, chatID)
}

func (s *sqliteStore) Subscribers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM subscribers ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ContactFor(ctx context.Context, chatID int64) (string, error) {
	var contact string
	err := s.db.QueryRowContext(ctx,
		`SELECT contact FROM chat_contacts WHERE chat_id = ?`, chatID).Scan(&contact)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// Deterministic derivation keeps create idempotent under races: two
	// concurrent callers insert the same value and OR IGNORE collapses them.
	contact = fmt.Sprintf("tg_%d@flydeals.bot", chatID)
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_contacts(chat_id, contact) VALUES(?, ?)`,
		chatID, contact); err != nil {
		return "", err
	}
	return contact, nil
}

func (s *sqliteStore) SaveAlert(ctx context.Context, chatID, alertID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_alerts(chat_id, alert_id) VALUES(?, ?)`,
		chatID, alertID)
	return err
}

func (s *sqliteStore) DeleteAlert(ctx context.Context, chatID, alertID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_alerts WHERE chat_id = ? AND alert_id = ?`,
		chatID, alertID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM alert_notified_deals WHERE chat_id = ? AND alert_id = ?`,
		chatID, alertID)
	return err
}

func (s *sqliteStore) ChatsWithAlerts(ctx context.Context) ([]ChatContact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ca.chat_id, cc.contact
		FROM chat_alerts ca
		JOIN chat_contacts cc ON ca.chat_id = cc.chat_id
		ORDER BY ca.chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatContact
	for rows.Next() {
		var cc ChatContact
		if err := rows.Scan(&cc.ChatID, &cc.Contact); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DealSeen(ctx context.Context, chatID, dealID int64) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM seen_deals WHERE chat_id = ? AND deal_id = ?`, chatID, dealID)
}

func (s *sqliteStore) MarkDealSeen(ctx context.Context, chatID, dealID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_deals(chat_id, deal_id) VALUES(?, ?)`,
		chatID, dealID)
	return err
}

func (s *sqliteStore) AlertDealNotified(ctx context.Context, chatID, alertID, dealID int64) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM alert_notified_deals WHERE chat_id = ? AND alert_id = ? AND deal_id = ?`,
		chatID, alertID, dealID)
}

func (s *sqliteStore) MarkAlertDealNotified(ctx context.Context, chatID, alertID, dealID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO alert_notified_deals(chat_id, alert_id, deal_id) VALUES(?, ?, ?)`,
		chatID, alertID, dealID)
	return err
}

func (s *sqliteStore) PruneSeenDeals(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02 15:04:05")
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_deals WHERE notified_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info("pruned seen deals", logx.Int64("removed", n))
	}
	return n, nil
}

func (s *sqliteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
