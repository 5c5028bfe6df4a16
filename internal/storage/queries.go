package storage

import (
	"database/sql"
	"fmt"
)

// Overview is a high-level summary of the database contents.
type Overview struct {
	TotalMatches    int
	UniquePlayers   int
	EarliestMatchMs int64
	LatestMatchMs   int64
	CachedPlayers   int
	Analyses        int
	RoleCounts      []RoleCount
	TopChampions    []ChampionCount
}

type RoleCount struct {
	Role  string
	Count int
}

type ChampionCount struct {
	Champion string
	Games    int
	Wins     int
}

// GetOverview collects the database summary.
func (db *DB) GetOverview() (*Overview, error) {
	var ov Overview
	var earliest, latest sql.NullInt64
	err := db.conn.QueryRow(`SELECT COUNT(1), MIN(game_creation), MAX(game_creation) FROM matches`).
		Scan(&ov.TotalMatches, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	ov.EarliestMatchMs, ov.LatestMatchMs = earliest.Int64, latest.Int64

	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(DISTINCT puuid) FROM participants`, &ov.UniquePlayers},
		{`SELECT COUNT(1) FROM analysis_cache`, &ov.CachedPlayers},
		{`SELECT COUNT(1) FROM player_analyses`, &ov.Analyses},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("overview: %w", err)
		}
	}

	rows, err := db.conn.Query(`SELECT position, COUNT(1) FROM participants GROUP BY position ORDER BY COUNT(1) DESC, position`)
	if err != nil {
		return nil, fmt.Errorf("role counts: %w", err)
	}
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		ov.RoleCounts = append(ov.RoleCounts, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(`
		SELECT champion, COUNT(1), SUM(win) FROM participants
		GROUP BY champion ORDER BY COUNT(1) DESC, champion LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("champion counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc ChampionCount
		if err := rows.Scan(&cc.Champion, &cc.Games, &cc.Wins); err != nil {
			return nil, err
		}
		ov.TopChampions = append(ov.TopChampions, cc)
	}
	return &ov, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.4g", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
