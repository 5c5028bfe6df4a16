package insight

import (
	"cmp"
	"errors"
	"slices"

	"github.com/pable/riftlens/internal/ml"
	"github.com/pable/riftlens/internal/model"
)

const (
	topN          = 5
	maxComponents = 3
	treeDepth     = 4
	knnMinSamples = 5

	msgNoDiversity  = "Insufficient class diversity"
	msgInsufficient = "Insufficient data"
)

// regressors are the inputs of the KDA efficiency model.
var regressors = []string{"kills", "deaths", "assists", "cs", "gold", "damage", "vision"}

func runPCA(d *dataset) model.PCAResult {
	Z, _, err := ml.Standardize(d.X)
	if err != nil {
		return model.PCAResult{Error: err.Error()}
	}
	n := min(maxComponents, len(d.X), len(d.names))
	fit, err := ml.PCA(Z, n)
	if err != nil {
		return model.PCAResult{Error: err.Error()}
	}
	out := model.PCAResult{
		ExplainedVarianceRatio: fit.ExplainedVarianceRatio,
		NComponents:            len(fit.Components),
	}
	first := fit.Components[0]
	for _, j := range ml.TopK(first, topN) {
		out.TopFeatures = append(out.TopFeatures, d.names[j])
		out.TopFeaturesImportance = append(out.TopFeaturesImportance, abs(first[j]))
	}
	return out
}

// clusterCount is clamp(n/3, 2, 3).
func clusterCount(n int) int {
	return min(3, max(2, n/3))
}

func runClustering(d *dataset) model.ClusteringResult {
	Z, _, err := ml.Standardize(d.X)
	if err != nil {
		return model.ClusteringResult{Error: err.Error()}
	}
	k := clusterCount(len(Z))
	fit, err := ml.KMeans(Z, ml.KMeansParams{K: k, Restarts: 10, Seed: 42})
	if err != nil {
		return model.ClusteringResult{Error: err.Error()}
	}
	return model.ClusteringResult{
		NClusters:        k,
		ClusterLabels:    fit.Labels,
		CurrentArchetype: fit.Labels[len(fit.Labels)-1],
	}
}

func runLinearRegression(d *dataset) model.LinearRegressionResult {
	cols := make([]int, 0, len(regressors))
	for _, name := range regressors {
		j := d.col(name)
		if j < 0 {
			return model.LinearRegressionResult{Error: "missing column " + name}
		}
		cols = append(cols, j)
	}
	target := d.col("kda")
	if target < 0 {
		return model.LinearRegressionResult{Error: "missing column kda"}
	}

	X := ml.SelectColumns(d.X, cols)
	y := ml.Column(d.X, target)
	fit, err := ml.LinearRegression(X, y)
	if err != nil {
		return model.LinearRegressionResult{Error: err.Error()}
	}
	pred := fit.PredictAll(X)
	return model.LinearRegressionResult{
		Features:     slices.Clone(regressors),
		Coefficients: fit.Coef,
		Intercept:    fit.Intercept,
		MSE:          ml.MSE(y, pred),
		RSquared:     ml.R2(y, pred),
		Predictions:  pred,
	}
}

func runLogisticRegression(d *dataset) model.LogisticRegressionResult {
	if !diverse(d.y) {
		return model.LogisticRegressionResult{Error: msgNoDiversity}
	}
	Z, _, err := ml.Standardize(d.X)
	if err != nil {
		return model.LogisticRegressionResult{Error: err.Error()}
	}
	fit, err := ml.LogisticRegression(Z, d.y, 1)
	if errors.Is(err, ml.ErrSingleClass) {
		return model.LogisticRegressionResult{Error: msgNoDiversity}
	}
	if err != nil {
		return model.LogisticRegressionResult{Error: err.Error()}
	}

	out := model.LogisticRegressionResult{
		Coefficients: fit.Coef,
		Intercept:    fit.Intercept,
	}
	for _, row := range Z {
		out.WinProbabilities = append(out.WinProbabilities, fit.Proba(row))
		out.Predictions = append(out.Predictions, fit.Predict(row))
	}
	out.Accuracy = ml.Accuracy(d.y, out.Predictions)
	out.NextGameWinProb = out.WinProbabilities[len(out.WinProbabilities)-1]
	for _, j := range ml.TopK(fit.Coef, topN) {
		out.TopWinFactors = append(out.TopWinFactors, d.names[j])
	}
	return out
}

func runKNN(d *dataset) model.KNNResult {
	n := len(d.X)
	if n < knnMinSamples {
		return model.KNNResult{Error: msgInsufficient}
	}
	Z, _, err := ml.Standardize(d.X)
	if err != nil {
		return model.KNNResult{Error: err.Error()}
	}
	k := min(3, n-1)
	knn, err := ml.NewKNN(k, Z[:n-1], d.y[:n-1])
	if err != nil {
		return model.KNNResult{Error: err.Error()}
	}
	pred := knn.Predict(Z[n-1]) == 1
	actual := d.y[n-1] == 1
	return model.KNNResult{
		K:                 k,
		PredictedWin:      pred,
		ActualWin:         actual,
		CorrectPrediction: pred == actual,
	}
}

func runDecisionTree(d *dataset) model.DecisionTreeResult {
	if !diverse(d.y) {
		return model.DecisionTreeResult{Error: msgNoDiversity}
	}
	clf, err := ml.FitTreeClassifier(d.X, d.y, treeDepth)
	if err != nil {
		return model.DecisionTreeResult{Error: err.Error()}
	}
	imp := clf.Tree.FeatureImportance()
	out := model.DecisionTreeResult{FeatureImportance: imp}
	for _, j := range ml.TopK(imp, topN) {
		out.TopFeatures = append(out.TopFeatures, d.names[j])
		out.TopImportanceScores = append(out.TopImportanceScores, imp[j])
	}
	pred := make([]int, len(d.X))
	for i, row := range d.X {
		pred[i] = clf.Predict(row)
	}
	out.Accuracy = ml.Accuracy(d.y, pred)
	return out
}

func runStatistics(d *dataset) model.StatisticsResult {
	n := len(d.samples)
	out := model.StatisticsResult{TotalGames: n, TopChampions: []model.ChampionStats{}}
	if n == 0 {
		return out
	}

	type agg struct {
		games, wins int
		kda         float64
	}
	byChamp := make(map[string]*agg)
	sums := make(map[string]float64)
	for _, s := range d.samples {
		if s.Win {
			out.Wins++
		}
		for _, name := range []string{"kda", "kills", "deaths", "assists", "cs", "vision"} {
			sums[name] += s.Features[name]
		}
		a := byChamp[s.Champion]
		if a == nil {
			a = &agg{}
			byChamp[s.Champion] = a
		}
		a.games++
		a.kda += s.Features["kda"]
		if s.Win {
			a.wins++
		}
	}
	fn := float64(n)
	out.Losses = n - out.Wins
	out.WinRate = float64(out.Wins) / fn
	out.AvgKDA = sums["kda"] / fn
	out.AvgKills = sums["kills"] / fn
	out.AvgDeaths = sums["deaths"] / fn
	out.AvgAssists = sums["assists"] / fn
	out.AvgCS = sums["cs"] / fn
	out.AvgVision = sums["vision"] / fn

	for champ, a := range byChamp {
		out.TopChampions = append(out.TopChampions, model.ChampionStats{
			Champion: champ,
			Games:    a.games,
			Wins:     a.wins,
			WinRate:  float64(a.wins) / float64(a.games),
			AvgKDA:   a.kda / float64(a.games),
		})
	}
	slices.SortFunc(out.TopChampions, func(a, b model.ChampionStats) int {
		if c := cmp.Compare(b.Games, a.Games); c != 0 {
			return c
		}
		return cmp.Compare(a.Champion, b.Champion)
	})
	if len(out.TopChampions) > topN {
		out.TopChampions = out.TopChampions[:topN]
	}
	return out
}

func diverse(y []int) bool {
	for _, v := range y {
		if v != y[0] {
			return true
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Columns exposes the ordered feature names the pipeline analyses.
func (p *Pipeline) Columns() []string {
	return slices.Clone(p.columns)
}
