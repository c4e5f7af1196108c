package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/jwebster45206/trade-arena/pkg/state"
)

// EpisodeArchive stores completed episodes in SQLite. The full final state is
// kept as a zstd-compressed JSON blob; the queryable outcome columns are
// duplicated for evaluation tooling.
type EpisodeArchive struct {
	db     *sql.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *slog.Logger
}

var _ Archiver = (*EpisodeArchive)(nil)

// Summary is one archived episode's queryable outcome row.
type Summary struct {
	ID         uuid.UUID `json:"id"`
	Seed       int64     `json:"seed"`
	TurnLimit  int       `json:"turn_limit"`
	Turns      int       `json:"turns"`
	WinnerID   *int      `json:"winner_id,omitempty"`
	Reason     string    `json:"reason"`
	Change     [2]int    `json:"change"`
	ArchivedAt time.Time `json:"archived_at"`
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS episodes (
	id TEXT PRIMARY KEY,
	seed INTEGER NOT NULL,
	turn_limit INTEGER NOT NULL,
	turns INTEGER NOT NULL,
	winner_id INTEGER,
	outcome_reason TEXT NOT NULL DEFAULT '',
	p0_change INTEGER NOT NULL,
	p1_change INTEGER NOT NULL,
	state_zst BLOB NOT NULL,
	archived_at TEXT NOT NULL
);
`

// OpenArchive opens (creating if necessary) the episode archive at path.
func OpenArchive(path string, logger *slog.Logger) (*EpisodeArchive, error) {
	if path == "" {
		return nil, fmt.Errorf("empty archive path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive db: %w", err)
	}
	// modernc sqlite is single-writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &EpisodeArchive{db: db, enc: enc, dec: dec, logger: logger}, nil
}

func (a *EpisodeArchive) Close() error {
	a.enc.Close()
	a.dec.Close()
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close archive db: %w", err)
	}
	return nil
}

// Store archives one completed episode. Storing the same episode twice
// replaces the earlier row.
func (a *EpisodeArchive) Store(ctx context.Context, es *state.EpisodeState) error {
	if es.Status != state.StatusComplete {
		return fmt.Errorf("episode %s is not complete", es.ID)
	}

	data, err := json.Marshal(es)
	if err != nil {
		return fmt.Errorf("failed to marshal episode: %w", err)
	}
	blob := a.enc.EncodeAll(data, nil)

	var winner sql.NullInt64
	reason := ""
	if es.Outcome != nil {
		reason = es.Outcome.Reason
		if es.Outcome.WinnerID != nil {
			winner = sql.NullInt64{Int64: int64(*es.Outcome.WinnerID), Valid: true}
		}
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO episodes
		(id, seed, turn_limit, turns, winner_id, outcome_reason, p0_change, p1_change, state_zst, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		es.ID.String(), es.Seed, es.TurnLimit, es.Turn, winner, reason,
		es.Valuations[0].Change, es.Valuations[1].Change, blob,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		a.logger.Error("Failed to archive episode", "uuid", es.ID, "error", err)
		return fmt.Errorf("failed to archive episode: %w", err)
	}

	a.logger.Info("Episode archived", "uuid", es.ID, "turns", es.Turn,
		"compressed_bytes", len(blob), "raw_bytes", len(data))
	return nil
}

// Load restores the full final state of an archived episode. Returns
// (nil, nil) when the episode is not archived.
func (a *EpisodeArchive) Load(ctx context.Context, id uuid.UUID) (*state.EpisodeState, error) {
	var blob []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT state_zst FROM episodes WHERE id = ?`, id.String()).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archived episode: %w", err)
	}

	data, err := a.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress archived episode: %w", err)
	}

	var es state.EpisodeState
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived episode: %w", err)
	}
	return &es, nil
}

// List returns outcome summaries for the most recently archived episodes.
func (a *EpisodeArchive) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, seed, turn_limit, turns, winner_id, outcome_reason, p0_change, p1_change, archived_at
		FROM episodes ORDER BY archived_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived episodes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Summary
	for rows.Next() {
		var (
			s          Summary
			idStr      string
			winner     sql.NullInt64
			archivedAt string
		)
		if err := rows.Scan(&idStr, &s.Seed, &s.TurnLimit, &s.Turns, &winner,
			&s.Reason, &s.Change[0], &s.Change[1], &archivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		if s.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("corrupt archive row id %q: %w", idStr, err)
		}
		if winner.Valid {
			w := int(winner.Int64)
			s.WinnerID = &w
		}
		if s.ArchivedAt, err = time.Parse(time.RFC3339, archivedAt); err != nil {
			return nil, fmt.Errorf("corrupt archive timestamp %q: %w", archivedAt, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
