package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	_ "modernc.org/sqlite"
)

// DuplicateWindow suppresses identical jackpot samples that arrive close
// together, as the push channel re-announces the current value frequently.
const DuplicateWindow = 60 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS jackpot_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT    NOT NULL,
	event      TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	value      INTEGER NOT NULL,
	nickname   TEXT    NOT NULL DEFAULT '',
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jackpot_history_account_at ON jackpot_history (account_id, at);
`

type HistoryRepository struct {
	db *sql.DB
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

// Open opens (creating if needed) the history database at path. Use
// ":memory:" for a throwaway database.
func Open(path string) (*HistoryRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// alive for the life of the repository.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	return &HistoryRepository{db: db}, nil
}

func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

func (r *HistoryRepository) RecordJackpot(ctx context.Context, event string, state domain.JackpotState) error {
	if !state.Known() {
		return nil
	}

	var lastAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT at FROM jackpot_history
		 WHERE account_id = ? AND event = ? AND kind = ? AND value = ?
		 ORDER BY at DESC LIMIT 1`,
		string(state.AccountID), event, string(domain.HistoryValue), state.SpecialJackpot,
	).Scan(&lastAt)
	switch {
	case err == nil:
		if delta := state.UpdatedAt.Sub(time.UnixMilli(lastAt)); delta.Abs() <= DuplicateWindow {
			return nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("query last jackpot sample: %w", err)
	}

	return r.insert(ctx, domain.HistoryEntry{
		AccountID: state.AccountID,
		Event:     event,
		Kind:      domain.HistoryValue,
		Value:     state.SpecialJackpot,
		At:        state.UpdatedAt,
	})
}

func (r *HistoryRepository) RecordWin(ctx context.Context, event string, win domain.JackpotWin) error {
	value, _ := domain.ParseJackpotValue(win.Value)
	kind := domain.HistoryMiniWin
	if win.Kind == domain.WinUltimate {
		kind = domain.HistoryUltimateWin
	}

	return r.insert(ctx, domain.HistoryEntry{
		AccountID: win.AccountID,
		Event:     event,
		Kind:      kind,
		Value:     value,
		Nickname:  win.Nickname,
		At:        win.At,
	})
}

// Recent returns up to limit entries for the account, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, id domain.AccountID, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id, event, kind, value, nickname, at FROM jackpot_history
		 WHERE account_id = ? ORDER BY at DESC, id DESC LIMIT ?`,
		string(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query jackpot history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			entry     domain.HistoryEntry
			accountID string
			kind      string
			at        int64
		)
		if err := rows.Scan(&accountID, &entry.Event, &kind, &entry.Value, &entry.Nickname, &at); err != nil {
			return nil, fmt.Errorf("scan jackpot history: %w", err)
		}
		entry.AccountID = domain.AccountID(accountID)
		entry.Kind = domain.HistoryKind(kind)
		entry.At = time.UnixMilli(at)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jackpot history: %w", err)
	}

	return entries, nil
}

func (r *HistoryRepository) insert(ctx context.Context, entry domain.HistoryEntry) error {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jackpot_history (account_id, event, kind, value, nickname, at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.AccountID), entry.Event, string(entry.Kind), entry.Value, entry.Nickname, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert jackpot history: %w", err)
	}
	return nil
}
