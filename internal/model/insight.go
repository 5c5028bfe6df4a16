package model

// InsightResults is the full battery of per-player analyses. Every
// sub-result carries its own Error so one failure never hides the others.
type InsightResults struct {
	PCA                PCAResult                `json:"pca"`
	Clustering         ClusteringResult         `json:"clustering"`
	LinearRegression   LinearRegressionResult   `json:"linear_regression"`
	LogisticRegression LogisticRegressionResult `json:"logistic_regression"`
	KNN                KNNResult                `json:"knn"`
	DecisionTree       DecisionTreeResult       `json:"decision_tree"`
	Statistics         StatisticsResult         `json:"statistics"`
}

// Errors returns the name -> message map of every failed sub-analysis.
func (r *InsightResults) Errors() map[string]string {
	out := make(map[string]string)
	add := func(name, msg string) {
		if msg != "" {
			out[name] = msg
		}
	}
	add("pca", r.PCA.Error)
	add("clustering", r.Clustering.Error)
	add("linear_regression", r.LinearRegression.Error)
	add("logistic_regression", r.LogisticRegression.Error)
	add("knn", r.KNN.Error)
	add("decision_tree", r.DecisionTree.Error)
	add("statistics", r.Statistics.Error)
	return out
}

// PCAResult: factor importance from the first principal components.
type PCAResult struct {
	ExplainedVarianceRatio []float64 `json:"explained_variance_ratio,omitempty"`
	NComponents            int       `json:"n_components,omitempty"`
	TopFeatures            []string  `json:"top_features,omitempty"`
	TopFeaturesImportance  []float64 `json:"top_features_importance,omitempty"`
	Error                  string    `json:"error,omitempty"`
}

// ClusteringResult: playstyle archetypes.
type ClusteringResult struct {
	NClusters        int    `json:"n_clusters,omitempty"`
	ClusterLabels    []int  `json:"cluster_labels,omitempty"`
	CurrentArchetype int    `json:"player_current_archetype"`
	Error            string `json:"error,omitempty"`
}

// LinearRegressionResult: KDA explained by the other core stats.
type LinearRegressionResult struct {
	Features     []string  `json:"features,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept"`
	MSE          float64   `json:"mse"`
	RSquared     float64   `json:"r_squared"`
	Predictions  []float64 `json:"predictions,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// LogisticRegressionResult: win probability model.
type LogisticRegressionResult struct {
	Coefficients     []float64 `json:"coefficients,omitempty"`
	Intercept        float64   `json:"intercept"`
	WinProbabilities []float64 `json:"win_probabilities,omitempty"`
	Predictions      []int     `json:"predictions,omitempty"`
	Accuracy         float64   `json:"accuracy"`
	NextGameWinProb  float64   `json:"predicted_next_game_win_prob"`
	TopWinFactors    []string  `json:"top_win_factors,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// KNNResult: leave-latest-out consistency check.
type KNNResult struct {
	K                 int    `json:"k,omitempty"`
	PredictedWin      bool   `json:"predicted_win"`
	ActualWin         bool   `json:"actual_win"`
	CorrectPrediction bool   `json:"correct_prediction"`
	Error             string `json:"error,omitempty"`
}

// DecisionTreeResult: shallow explainable classifier.
type DecisionTreeResult struct {
	FeatureImportance   []float64 `json:"feature_importance,omitempty"`
	TopFeatures         []string  `json:"top_features,omitempty"`
	TopImportanceScores []float64 `json:"top_importance_scores,omitempty"`
	Accuracy            float64   `json:"accuracy"`
	Error               string    `json:"error,omitempty"`
}

// StatisticsResult: descriptive aggregation.
type StatisticsResult struct {
	TotalGames   int             `json:"total_games"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	WinRate      float64         `json:"win_rate"`
	AvgKDA       float64         `json:"avg_kda"`
	AvgKills     float64         `json:"avg_kills"`
	AvgDeaths    float64         `json:"avg_deaths"`
	AvgAssists   float64         `json:"avg_assists"`
	AvgCS        float64         `json:"avg_cs"`
	AvgVision    float64         `json:"avg_vision"`
	TopChampions []ChampionStats `json:"top_champions"`
	Error        string          `json:"error,omitempty"`
}

// ChampionStats is one row of the per-champion breakdown.
type ChampionStats struct {
	Champion string  `json:"champion"`
	Games    int     `json:"games"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"winrate"`
	AvgKDA   float64 `json:"avg_kda"`
}
