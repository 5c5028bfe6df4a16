package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/riftlens/internal/model"
	"github.com/pable/riftlens/internal/registry"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// Duration formats seconds as m:ss.
func Duration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func winLoss(win bool) string {
	if win {
		return "W"
	}
	return "L"
}

// PredictionRow is one scored (or unscorable) game of a player's history.
type PredictionRow struct {
	Context     model.MatchContext
	Participant *model.ParticipantRecord
	Result      model.PredictionResult
	Err         error
}

// PrintPredictions writes the per-match performance table. Rows whose
// prediction failed keep their stats and show a dash in the score columns.
func PrintPredictions(w io.Writer, rows []PredictionRow) {
	table := newTable(w)
	table.Header("MATCH", "CHAMPION", "ROLE", "SCORE", "GRADE", "PCTL", "RESULT", "K/D/A", "CS", "DMG", "VISION", "DURATION")

	for _, r := range rows {
		p := r.Participant
		score, grade, pctl := "—", "—", "—"
		if r.Err == nil {
			score = fmt.Sprintf("%.1f", r.Result.PerformanceScore)
			grade = r.Result.Grade
			pctl = fmt.Sprintf("%.0f%%", r.Result.Percentile)
		}
		table.Append(
			r.Context.MatchID,
			p.ChampionName,
			p.Role().String(),
			score,
			grade,
			pctl,
			winLoss(p.Win),
			fmt.Sprintf("%d/%d/%d", p.Kills, p.Deaths, p.Assists),
			strconv.Itoa(p.TotalMinionsKilled+p.NeutralMinionsKilled),
			strconv.Itoa(p.TotalDamageDealtToChampions),
			strconv.Itoa(p.VisionScore),
			Duration(r.Context.DurationSeconds),
		)
	}
	table.Render()
}

// PrintPredictionSummary writes the totals line under the per-match table.
// The average covers scored games only.
func PrintPredictionSummary(w io.Writer, rows []PredictionRow) {
	var wins, scored int
	var total float64
	for _, r := range rows {
		if r.Participant.Win {
			wins++
		}
		if r.Err == nil {
			scored++
			total += r.Result.PerformanceScore
		}
	}
	avg := 0.0
	if scored > 0 {
		avg = total / float64(scored)
	}
	fmt.Fprintf(w, "\nMatches: %d  |  Avg score: %.1f (%s)  |  Wins: %d  |  Losses: %d\n",
		len(rows), avg, gradeOf(avg, scored), wins, len(rows)-wins)
	if skipped := len(rows) - scored; skipped > 0 {
		fmt.Fprintf(w, "%d game(s) could not be scored.\n", skipped)
	}
}

func gradeOf(avg float64, n int) string {
	if n == 0 {
		return "—"
	}
	switch {
	case avg >= 90:
		return "S"
	case avg >= 80:
		return "A"
	case avg >= 70:
		return "B"
	case avg >= 60:
		return "C"
	case avg >= 50:
		return "D"
	}
	return "F"
}

// PrintMatchPredictions writes one row per participant of m, blue side first.
// Participants missing from results are shown unscored.
func PrintMatchPredictions(w io.Writer, m *model.Match, results map[string]model.PredictionResult) {
	fmt.Fprintf(w, "\nMatch: %s  |  Mode: %s  |  Queue: %d  |  Duration: %s  |  Patch: %s\n\n",
		m.Metadata.MatchID, m.Info.GameMode, m.Info.QueueID, Duration(m.Info.GameDuration), m.Info.GameVersion)

	table := newTable(w)
	table.Header("PLAYER", "CHAMPION", "ROLE", "RESULT", "K/D/A", "SCORE", "GRADE", "PCTL")
	for i := range m.Info.Participants {
		p := &m.Info.Participants[i]
		score, grade, pctl := "—", "—", "—"
		if r, ok := results[p.PUUID]; ok {
			score = fmt.Sprintf("%.1f", r.PerformanceScore)
			grade = r.Grade
			pctl = fmt.Sprintf("%.0f%%", r.Percentile)
		}
		table.Append(
			p.RiotID(),
			p.ChampionName,
			p.Role().String(),
			winLoss(p.Win),
			fmt.Sprintf("%d/%d/%d", p.Kills, p.Deaths, p.Assists),
			score,
			grade,
			pctl,
		)
	}
	table.Render()
}

// PrintAnalysis writes the insight battery and narrative for one player.
func PrintAnalysis(w io.Writer, a *model.PlayerAnalysis) {
	status := "recomputed"
	if a.Cached {
		status = "cached"
	}
	fmt.Fprintf(w, "\n=== %s ===\n", a.RiotID)
	fmt.Fprintf(w, "Insights: %s (%s)  |  Run: %s\n\n", status, a.CacheReason, a.RunID)

	r := &a.Insights
	s := r.Statistics
	fmt.Fprintf(w, "Games: %d  |  Wins: %d  |  Losses: %d  |  Win rate: %.1f%%\n",
		s.TotalGames, s.Wins, s.Losses, s.WinRate*100)
	fmt.Fprintf(w, "Avg K/D/A: %.1f/%.1f/%.1f  |  KDA: %.2f  |  CS: %.1f  |  Vision: %.1f\n\n",
		s.AvgKills, s.AvgDeaths, s.AvgAssists, s.AvgKDA, s.AvgCS, s.AvgVision)

	if len(s.TopChampions) > 0 {
		table := newTable(w)
		table.Header("CHAMPION", "GAMES", "WINS", "WR%", "KDA")
		for _, c := range s.TopChampions {
			table.Append(
				c.Champion,
				strconv.Itoa(c.Games),
				strconv.Itoa(c.Wins),
				fmt.Sprintf("%.0f%%", c.WinRate*100),
				fmt.Sprintf("%.2f", c.AvgKDA),
			)
		}
		table.Render()
		fmt.Fprintln(w)
	}

	if r.PCA.Error == "" {
		fmt.Fprintf(w, "Performance factors (PCA): %s\n", weighted(r.PCA.TopFeatures, r.PCA.TopFeaturesImportance))
	}
	if r.Clustering.Error == "" {
		fmt.Fprintf(w, "Current archetype: %d of %d\n", r.Clustering.CurrentArchetype+1, r.Clustering.NClusters)
	}
	if r.LinearRegression.Error == "" {
		fmt.Fprintf(w, "KDA model: R² %.2f  |  MSE %.2f\n", r.LinearRegression.RSquared, r.LinearRegression.MSE)
	}
	if r.LogisticRegression.Error == "" {
		fmt.Fprintf(w, "Next game win probability: %.1f%%  |  Win factors: %s  |  Fit accuracy: %.0f%%\n",
			r.LogisticRegression.NextGameWinProb*100, strings.Join(r.LogisticRegression.TopWinFactors, ", "),
			r.LogisticRegression.Accuracy*100)
	}
	if r.KNN.Error == "" {
		fmt.Fprintf(w, "Latest game check (k=%d): predicted %s, actual %s\n",
			r.KNN.K, winLoss(r.KNN.PredictedWin), winLoss(r.KNN.ActualWin))
	}
	if r.DecisionTree.Error == "" {
		fmt.Fprintf(w, "Decision tree factors: %s  |  Fit accuracy: %.0f%%\n",
			weighted(r.DecisionTree.TopFeatures, r.DecisionTree.TopImportanceScores), r.DecisionTree.Accuracy*100)
	}

	if errs := r.Errors(); len(errs) > 0 {
		names := make([]string, 0, len(errs))
		for n := range errs {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "\nSkipped analyses:")
		for _, n := range names {
			fmt.Fprintf(w, "  %-20s %s\n", n, errs[n])
		}
	}

	fmt.Fprintln(w, "\n─── Summary ─────────────────────────────────────────")
	fmt.Fprintln(w, a.Narrative)
	fmt.Fprintln(w, "─────────────────────────────────────────────────────")
}

func weighted(names []string, scores []float64) string {
	parts := make([]string, len(names))
	for i, n := range names {
		if i < len(scores) {
			parts[i] = fmt.Sprintf("%s (%.2f)", n, scores[i])
		} else {
			parts[i] = n
		}
	}
	return strings.Join(parts, ", ")
}

// PrintModels writes the loaded roles and the training metadata.
func PrintModels(w io.Writer, roles []model.Role, features []string, meta registry.Metadata) {
	fmt.Fprintln(w, "=== Model Registry ===")
	if !meta.TrainingDate.IsZero() {
		fmt.Fprintf(w, "Trained:   %s\n", meta.TrainingDate.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintf(w, "Samples:   %d  (%d matches)\n", meta.TotalSamples, meta.TotalMatches)
	fmt.Fprintf(w, "Features:  %d\n", len(features))
	fmt.Fprintf(w, "Boosting:  %d trees, depth %d, lr %.3g, subsample %.2g, colsample %.2g\n\n",
		meta.ModelParams.Trees, meta.ModelParams.MaxDepth, meta.ModelParams.LearningRate,
		meta.ModelParams.Subsample, meta.ModelParams.ColsampleByTree)

	loaded := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		loaded[r] = true
	}

	table := newTable(w)
	table.Header("ROLE", "LOADED", "TRAIN", "TEST", "RMSE", "MAE", "R²", "TOP FEATURE")
	for _, role := range model.Roles {
		m, ok := meta.RoleMetrics[role.String()]
		status := "no"
		if loaded[role] {
			status = "yes"
		}
		if !ok {
			table.Append(role.String(), status, "—", "—", "—", "—", "—", "—")
			continue
		}
		top := "—"
		if len(m.TopFeatures) > 0 {
			top = m.TopFeatures[0].Feature
		}
		table.Append(
			role.String(),
			status,
			strconv.Itoa(m.TrainSamples),
			strconv.Itoa(m.TestSamples),
			fmt.Sprintf("%.2f", m.RMSE),
			fmt.Sprintf("%.2f", m.MAE),
			fmt.Sprintf("%.3f", m.R2),
			top,
		)
	}
	table.Render()
}
