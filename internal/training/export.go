package training

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/scoring"
)

// Export formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// Record is one labelled row of the exported dataset.
type Record struct {
	MatchID   string             `json:"match_id"`
	PUUID     string             `json:"puuid"`
	Champion  string             `json:"champion"`
	Role      string             `json:"role"`
	Win       bool               `json:"win"`
	Score     float64            `json:"score"`
	Breakdown scoring.Breakdown  `json:"breakdown"`
	Features  map[string]float64 `json:"features"`
}

// Label scores every sample against statistics of the whole set, exactly as
// Train does, and keeps the samples whose role is in roles. An empty roles
// slice keeps everything.
func Label(samples []model.TrainingSample, columns []string, roles ...model.Role) []Record {
	calc := scoring.NewCalculator(samples)
	keep := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		keep[r] = true
	}

	var out []Record
	for _, s := range samples {
		if len(keep) > 0 && !keep[s.Role] {
			continue
		}
		b := calc.Breakdown(s)
		fv := make(map[string]float64, len(columns))
		for i, v := range s.Features.Ordered(columns) {
			fv[columns[i]] = v
		}
		out = append(out, Record{
			MatchID:   s.MatchID,
			PUUID:     s.PUUID,
			Champion:  s.Champion,
			Role:      s.Role.String(),
			Win:       s.Win,
			Score:     b.Total,
			Breakdown: b,
			Features:  fv,
		})
	}
	return out
}

// WriteDataset writes records as CSV (one column per feature, in columns
// order) or as JSON lines.
func WriteDataset(w io.Writer, format string, columns []string, recs []Record) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		header := append([]string{"match_id", "puuid", "champion", "role", "win", "score"}, columns...)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, r := range recs {
			row := []string{r.MatchID, r.PUUID, r.Champion, r.Role, strconv.FormatBool(r.Win), ff(r.Score)}
			for _, c := range columns {
				row = append(row, ff(r.Features[c]))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatCSV, FormatJSONL)
	}
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
