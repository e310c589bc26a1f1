package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/lequel/internal"
	"github.com/valpere/lequel/internal/identifier"
	"github.com/valpere/lequel/internal/trigram"
)

// ErrProfileNotFound is returned when no profile is stored for a code.
var ErrProfileNotFound = errors.New("profile not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS language_profiles (
		code TEXT PRIMARY KEY,
		source TEXT,
		trigram_count INTEGER NOT NULL,
		total_count REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- profile_trigrams holds raw counts; vectors are normalized on load
	CREATE TABLE IF NOT EXISTS profile_trigrams (
		code TEXT NOT NULL,
		trigram TEXT NOT NULL,
		count REAL NOT NULL,
		PRIMARY KEY (code, trigram),
		FOREIGN KEY (code) REFERENCES language_profiles(code)
	);

	CREATE TABLE IF NOT EXISTS identifications (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		source TEXT,
		lang_code TEXT NOT NULL,
		score REAL NOT NULL,
		found BOOLEAN NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- identification_scores keeps every candidate's similarity for a run
	CREATE TABLE IF NOT EXISTS identification_scores (
		identification_id TEXT NOT NULL,
		lang_code TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (identification_id, lang_code),
		FOREIGN KEY (identification_id) REFERENCES identifications(id)
	);

	CREATE INDEX IF NOT EXISTS idx_profile_trigrams_code ON profile_trigrams(code);
	CREATE INDEX IF NOT EXISTS idx_identifications_lang ON identifications(lang_code);
	CREATE INDEX IF NOT EXISTS idx_scores_identification ON identification_scores(identification_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ProfileInfo describes a stored language profile.
type ProfileInfo struct {
	Code         string
	Source       string
	TrigramCount int
	TotalCount   float64
	UpdatedAt    time.Time
}

// SaveProfile stores p as the raw profile for code, replacing any earlier one.
func (s *Store) SaveProfile(ctx context.Context, code, source string, p trigram.Profile) error {
	if code == "" {
		return fmt.Errorf("language code is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_trigrams WHERE code = ?`, code); err != nil {
		return err
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO language_profiles (code, source, trigram_count, total_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET source = excluded.source, trigram_count = excluded.trigram_count, total_count = excluded.total_count, updated_at = excluded.updated_at`,
		code, source, len(p), p.Total(), now, now)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO profile_trigrams (code, trigram, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for t, w := range p {
		if _, err := stmt.ExecContext(ctx, code, t, w); err != nil {
			return fmt.Errorf("failed to insert trigram %q: %w", t, err)
		}
	}

	return tx.Commit()
}

// LoadProfile returns the raw profile stored for code.
func (s *Store) LoadProfile(ctx context.Context, code string) (trigram.Profile, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM language_profiles WHERE code = ?`, code).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, code)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT trigram, count FROM profile_trigrams WHERE code = ?`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p := make(trigram.Profile)
	for rows.Next() {
		var t string
		var w float64
		if err := rows.Scan(&t, &w); err != nil {
			return nil, err
		}
		p[t] = w
	}
	return p, rows.Err()
}

// LoadLanguages returns every stored profile, normalized and ordered by code.
func (s *Store) LoadLanguages(ctx context.Context) ([]trigram.LanguageProfile, error) {
	infos, err := s.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	languages := make([]trigram.LanguageProfile, 0, len(infos))
	for _, info := range infos {
		p, err := s.LoadProfile(ctx, info.Code)
		if err != nil {
			return nil, err
		}
		languages = append(languages, trigram.LanguageProfile{
			Code:   info.Code,
			Vector: trigram.Normalize(p),
		})
	}
	return languages, nil
}

// ListProfiles returns stored profile metadata ordered by code.
func (s *Store) ListProfiles(ctx context.Context) ([]ProfileInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, COALESCE(source, ''), trigram_count, total_count, updated_at FROM language_profiles ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []ProfileInfo
	for rows.Next() {
		var info ProfileInfo
		if err := rows.Scan(&info.Code, &info.Source, &info.TrigramCount, &info.TotalCount, &info.UpdatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteProfile removes the profile stored for code.
func (s *Store) DeleteProfile(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_trigrams WHERE code = ?`, code); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM language_profiles WHERE code = ?`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, code)
	}
	return tx.Commit()
}

// SaveIdentification records an identification run and every candidate's
// score.
func (s *Store) SaveIdentification(ctx context.Context, req internal.IdentificationRequest, result identifier.Result, scores []identifier.Score) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identifications (id, text, source, lang_code, score, found, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID, normalizeText(req.Text), req.Source, result.Code, result.Score, result.Found, req.Timestamp)
	if err != nil {
		return err
	}

	for _, sc := range scores {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO identification_scores (identification_id, lang_code, score) VALUES (?, ?, ?)`,
			req.ID, sc.Code, sc.Score)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// IdentificationEntry is a row from the identifications table.
type IdentificationEntry struct {
	ID        string
	Text      string
	Source    string
	LangCode  string
	Score     float64
	Found     bool
	CreatedAt time.Time
}

// ListIdentifications returns the most recent identifications first. A limit
// of zero or less returns all of them.
func (s *Store) ListIdentifications(ctx context.Context, limit int) ([]IdentificationEntry, error) {
	query := `SELECT id, text, COALESCE(source, ''), lang_code, score, found, created_at FROM identifications ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []IdentificationEntry
	for rows.Next() {
		var e IdentificationEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.Source, &e.LangCode, &e.Score, &e.Found, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetScores returns the per-candidate scores recorded for an identification,
// highest first.
func (s *Store) GetScores(ctx context.Context, identificationID string) ([]identifier.Score, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lang_code, score FROM identification_scores WHERE identification_id = ? ORDER BY score DESC, lang_code`,
		identificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []identifier.Score
	for rows.Next() {
		var sc identifier.Score
		if err := rows.Scan(&sc.Code, &sc.Score); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// HistoryStats summarises recorded identifications.
type HistoryStats struct {
	Total      int
	Identified int
	Unknown    int
	ByLanguage map[string]int
}

// Stats returns summary statistics for the identification history.
func (s *Store) Stats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{ByLanguage: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN found THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT found THEN 1 ELSE 0 END), 0)
		FROM identifications`).Scan(
		&stats.Total,
		&stats.Identified,
		&stats.Unknown,
	)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT lang_code, COUNT(*) FROM identifications WHERE found GROUP BY lang_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, err
		}
		stats.ByLanguage[code] = n
	}
	return stats, rows.Err()
}

// ClearHistory removes all recorded identifications.
func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM identification_scores`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM identifications`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization so
// that history entries compare consistently.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
