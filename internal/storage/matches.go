package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pable/riftlens/internal/model"
)

// MatchRow is the summary of one stored match.
type MatchRow struct {
	MatchID      string
	GameCreation time.Time
	DurationSecs int
	GameMode     string
	QueueID      int
	Participants int
}

// PlayerMatchRow is one player's line in a stored match.
type PlayerMatchRow struct {
	MatchID  string
	Champion string
	Position string
	Win      bool
	Kills    int
	Deaths   int
	Assists  int
}

// MatchExists returns true if a match with the given id is already stored.
func (db *DB) MatchExists(matchID string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE match_id = ?", matchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch stores the full payload plus one indexed row per participant.
// Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertMatch(m *model.Match) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", m.Metadata.MatchID, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM participants WHERE match_id = ?", m.Metadata.MatchID); err != nil {
		return fmt.Errorf("clear participants %s: %w", m.Metadata.MatchID, err)
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO matches(match_id, game_creation, game_duration, game_mode, game_version, queue_id, fetched_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Metadata.MatchID, m.Info.GameCreation, m.Info.GameDuration, m.Info.GameMode,
		m.Info.GameVersion, m.Info.QueueID, time.Now().UTC().Format(time.RFC3339), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.Metadata.MatchID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO participants(match_id, puuid, riot_id, champion, position, win, kills, deaths, assists)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range m.Info.Participants {
		p := &m.Info.Participants[i]
		riotID := ""
		if p.RiotIDGameName != "" {
			riotID = p.RiotID()
		}
		_, err = stmt.Exec(
			m.Metadata.MatchID, p.PUUID, riotID, p.ChampionName, p.Role().String(),
			boolInt(p.Win), p.Kills, p.Deaths, p.Assists,
		)
		if err != nil {
			return fmt.Errorf("insert participant %s: %w", p.PUUID, err)
		}
	}
	return tx.Commit()
}

// GetMatch loads a stored match. It returns nil, nil when the match is absent.
func (db *DB) GetMatch(ctx context.Context, matchID string) (*model.Match, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx, "SELECT payload FROM matches WHERE match_id = ?", matchID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m model.Match
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", matchID, err)
	}
	return &m, nil
}

// ListMatches returns stored match summaries, newest first.
func (db *DB) ListMatches() ([]MatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT m.match_id, m.game_creation, m.game_duration, m.game_mode, m.queue_id, COUNT(p.puuid)
		FROM matches m LEFT JOIN participants p ON p.match_id = m.match_id
		GROUP BY m.match_id
		ORDER BY m.game_creation DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var r MatchRow
		var created int64
		if err := rows.Scan(&r.MatchID, &created, &r.DurationSecs, &r.GameMode, &r.QueueID, &r.Participants); err != nil {
			return nil, err
		}
		r.GameCreation = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// MatchIDsForPlayer returns up to limit match ids the player appears in,
// newest first. limit <= 0 means no limit.
func (db *DB) MatchIDsForPlayer(puuid string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT m.match_id FROM matches m
		JOIN participants p ON p.match_id = m.match_id
		WHERE p.puuid = ?
		ORDER BY m.game_creation DESC
		LIMIT ?`, puuid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// PlayerMatches returns the player's stored rows, newest first.
func (db *DB) PlayerMatches(puuid string) ([]PlayerMatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT p.match_id, p.champion, p.position, p.win, p.kills, p.deaths, p.assists
		FROM participants p JOIN matches m ON m.match_id = p.match_id
		WHERE p.puuid = ?
		ORDER BY m.game_creation DESC`, puuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerMatchRow
	for rows.Next() {
		var r PlayerMatchRow
		var win int
		if err := rows.Scan(&r.MatchID, &r.Champion, &r.Position, &win, &r.Kills, &r.Deaths, &r.Assists); err != nil {
			return nil, err
		}
		r.Win = win != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindPUUID resolves a stored "Name#TAG" to a PUUID. It returns "" when the
// player is unknown.
func (db *DB) FindPUUID(riotID string) (string, error) {
	var puuid string
	err := db.conn.QueryRow(`SELECT puuid FROM participants WHERE riot_id = ? COLLATE NOCASE LIMIT 1`, riotID).Scan(&puuid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return puuid, err
}

// ForEachMatch decodes every stored match in creation order and calls fn.
// fn must not call back into db.
func (db *DB) ForEachMatch(ctx context.Context, fn func(*model.Match) error) error {
	rows, err := db.conn.QueryContext(ctx, "SELECT match_id, payload FROM matches ORDER BY game_creation")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return err
		}
		var m model.Match
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return fmt.Errorf("decode match %s: %w", id, err)
		}
		if err := fn(&m); err != nil {
			return err
		}
	}
	return rows.Err()
}
