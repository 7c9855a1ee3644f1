package storage

// sqlite.go — persistencia del histórico de partidos y de los bundles
// entrenados sobre SQLite (pure Go, sin CGo).
//
// Estrategia:
//   - `matches`: una fila por partido, UPSERT por id. Las estadísticas
//     opcionales (corners, tiros, xG...) viajan como JSON en una columna:
//     el core las lee enteras o no las lee, nunca las consulta por campo.
//   - `bundles`: el artefacto de entrenamiento completo como JSON versionado
//     por uuid. Los bundles son inmutables: nunca hay UPDATE.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
    id          TEXT PRIMARY KEY,
    competition TEXT     NOT NULL,
    season      INTEGER  NOT NULL,
    home_team   TEXT     NOT NULL,
    away_team   TEXT     NOT NULL,
    match_date  DATETIME NOT NULL,
    home_goals  INTEGER  NOT NULL,
    away_goals  INTEGER  NOT NULL,
    stats       TEXT
);

CREATE INDEX IF NOT EXISTS idx_matches_home ON matches(home_team, match_date);
CREATE INDEX IF NOT EXISTS idx_matches_away ON matches(away_team, match_date);
CREATE INDEX IF NOT EXISTS idx_matches_date ON matches(match_date);

CREATE TABLE IF NOT EXISTS bundles (
    version    TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    schema     TEXT     NOT NULL,
    payload    TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bundles_at ON bundles(created_at DESC);
`

// SQLiteStore implementa ports.MatchStore y ports.BundleStore sobre un único
// archivo SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada y aplica el
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// MatchesBefore devuelve los últimos `limit` partidos de un equipo
// estrictamente anteriores al corte, en orden cronológico ascendente.
func (s *SQLiteStore) MatchesBefore(ctx context.Context, team string, cutoff time.Time, limit int) ([]domain.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition, season, home_team, away_team, match_date, home_goals, away_goals, stats
		FROM matches
		WHERE (home_team = ? OR away_team = ?) AND match_date < ?
		ORDER BY match_date DESC
		LIMIT ?
	`, team, team, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("storage.MatchesBefore: query %q: %w", team, err)
	}
	defer rows.Close()

	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}
	reverse(matches)
	return matches, nil
}

// HeadToHeadBefore devuelve los últimos `limit` enfrentamientos directos
// anteriores al corte, ascendentes, sin importar quién jugó en casa.
func (s *SQLiteStore) HeadToHeadBefore(ctx context.Context, home, away string, cutoff time.Time, limit int) ([]domain.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition, season, home_team, away_team, match_date, home_goals, away_goals, stats
		FROM matches
		WHERE ((home_team = ? AND away_team = ?) OR (home_team = ? AND away_team = ?))
		  AND match_date < ?
		ORDER BY match_date DESC
		LIMIT ?
	`, home, away, away, home, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("storage.HeadToHeadBefore: query %s-%s: %w", home, away, err)
	}
	defer rows.Close()

	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}
	reverse(matches)
	return matches, nil
}

// AllMatches devuelve el dataset completo ordenado por fecha ascendente.
func (s *SQLiteStore) AllMatches(ctx context.Context) ([]domain.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition, season, home_team, away_team, match_date, home_goals, away_goals, stats
		FROM matches
		ORDER BY match_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.AllMatches: query: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// SaveMatches inserta o actualiza partidos por id dentro de una transacción.
func (s *SQLiteStore) SaveMatches(ctx context.Context, matches []domain.MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveMatches: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches
			(id, competition, season, home_team, away_team, match_date, home_goals, away_goals, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			competition = excluded.competition,
			season      = excluded.season,
			home_team   = excluded.home_team,
			away_team   = excluded.away_team,
			match_date  = excluded.match_date,
			home_goals  = excluded.home_goals,
			away_goals  = excluded.away_goals,
			stats       = excluded.stats
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveMatches: prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		stats, err := json.Marshal(m.Stats)
		if err != nil {
			return fmt.Errorf("storage.SaveMatches: marshal stats %s: %w", m.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.Competition, m.Season, m.HomeTeam, m.AwayTeam,
			m.Date.UTC(), m.HomeGoals, m.AwayGoals, string(stats),
		); err != nil {
			return fmt.Errorf("storage.SaveMatches: upsert %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// SaveBundle persiste el bundle completo como JSON bajo su versión.
func (s *SQLiteStore) SaveBundle(ctx context.Context, bundle *domain.ModelBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("storage.SaveBundle: marshal %s: %w", bundle.Version, err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bundles (version, created_at, schema, payload) VALUES (?, ?, ?, ?)
	`, bundle.Version, bundle.CreatedAt.UTC(), bundle.Schema, string(payload)); err != nil {
		return fmt.Errorf("storage.SaveBundle: insert %s: %w", bundle.Version, err)
	}
	return nil
}

// LoadBundle carga el bundle con la versión dada.
func (s *SQLiteStore) LoadBundle(ctx context.Context, version string) (*domain.ModelBundle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM bundles WHERE version = ?`, version)
	return scanBundle(row, version)
}

// LatestBundle carga el bundle más reciente por fecha de creación.
func (s *SQLiteStore) LatestBundle(ctx context.Context) (*domain.ModelBundle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM bundles ORDER BY created_at DESC LIMIT 1`)
	return scanBundle(row, "latest")
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func scanBundle(row *sql.Row, ref string) (*domain.ModelBundle, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		return nil, fmt.Errorf("storage.scanBundle %q: %w", ref, err)
	}
	var bundle domain.ModelBundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		return nil, fmt.Errorf("storage.scanBundle %q: unmarshal: %w", ref, err)
	}
	return &bundle, nil
}

func scanMatches(rows *sql.Rows) ([]domain.MatchRecord, error) {
	var matches []domain.MatchRecord
	for rows.Next() {
		var m domain.MatchRecord
		var stats sql.NullString
		if err := rows.Scan(
			&m.ID, &m.Competition, &m.Season, &m.HomeTeam, &m.AwayTeam,
			&m.Date, &m.HomeGoals, &m.AwayGoals, &stats,
		); err != nil {
			return nil, fmt.Errorf("storage.scanMatches: scan row: %w", err)
		}
		if stats.Valid && stats.String != "" {
			if err := json.Unmarshal([]byte(stats.String), &m.Stats); err != nil {
				return nil, fmt.Errorf("storage.scanMatches: unmarshal stats %s: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func reverse(matches []domain.MatchRecord) {
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
}
