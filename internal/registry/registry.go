// Package registry holds the per-role performance models together with the
// canonical feature order they were trained on. A Registry is built once
// (Load or New) and is read-only afterwards, so concurrent predictions need
// no locking.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/ml"
	"github.com/pable/riftlens/internal/model"
)

const (
	FeaturesKey = "features.json"
	MetadataKey = "model_metadata.json"
)

// ModelKey is the artifact key of a role's model blob.
func ModelKey(role model.Role) string {
	return "performance_model_" + strings.ToLower(role.String()) + ".json.zst"
}

// RoleModel is a trained positional regressor for one role.
type RoleModel interface {
	Predict(row []float64) float64
}

// FeatureImportance is one entry of a role's top-feature list.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// RoleMetrics is the held-out evaluation of one role model.
type RoleMetrics struct {
	RMSE         float64             `json:"rmse"`
	MAE          float64             `json:"mae"`
	R2           float64             `json:"r2"`
	TrainSamples int                 `json:"train_samples"`
	TestSamples  int                 `json:"test_samples"`
	TopFeatures  []FeatureImportance `json:"top_features"`
}

// Metadata summarises a training run.
type Metadata struct {
	TrainingDate   time.Time              `json:"training_date"`
	TotalSamples   int                    `json:"total_samples"`
	TotalMatches   int                    `json:"total_matches"`
	Roles          []string               `json:"roles"`
	FeatureColumns []string               `json:"feature_columns"`
	ModelParams    ml.BoostParams         `json:"model_params"`
	RoleMetrics    map[string]RoleMetrics `json:"role_metrics"`
}

type featureManifest struct {
	Features []string `json:"features"`
}

// Registry maps each supported role to its model. Roles absent from the map
// are the unsupported variant.
type Registry struct {
	features []string
	models   map[model.Role]RoleModel
	meta     Metadata
}

// New builds a registry from in-memory parts.
func New(features []string, models map[model.Role]RoleModel, meta Metadata) *Registry {
	r := &Registry{
		features: slices.Clone(features),
		models:   make(map[model.Role]RoleModel, len(models)),
		meta:     meta,
	}
	for role, m := range models {
		if role.Supported() && m != nil {
			r.models[role] = m
		}
	}
	return r
}

// Load reads the feature manifest, metadata and every role model from store.
// A missing or unreadable manifest is an error. A missing, corrupt or
// mismatched role model is logged and that role becomes unsupported.
func Load(ctx context.Context, store ArtifactStore, log zerolog.Logger) (*Registry, error) {
	log = log.With().Str("component", "registry").Logger()

	raw, err := store.Get(ctx, FeaturesKey)
	if err != nil {
		return nil, fmt.Errorf("load feature manifest: %w", err)
	}
	var manifest featureManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("decode feature manifest: %w", err)
	}
	if len(manifest.Features) == 0 {
		return nil, errors.New("decode feature manifest: empty feature list")
	}

	var meta Metadata
	switch raw, err := store.Get(ctx, MetadataKey); {
	case errors.Is(err, ErrNotFound):
		log.Warn().Msg("model metadata missing")
	case err != nil:
		return nil, fmt.Errorf("load model metadata: %w", err)
	default:
		if err := json.Unmarshal(raw, &meta); err != nil {
			log.Warn().Err(err).Msg("model metadata unreadable, ignoring")
			meta = Metadata{}
		}
	}

	models := make(map[model.Role]RoleModel)
	for _, role := range model.Roles {
		key := ModelKey(role)
		blob, err := store.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("role", role.String()).Msg("no model artifact, role unsupported")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", key, err)
		}
		e, err := DecodeModel(blob)
		if err != nil {
			log.Warn().Err(err).Str("role", role.String()).Msg("corrupt model artifact, role unsupported")
			continue
		}
		if !slices.Equal(e.Features, manifest.Features) {
			log.Warn().Str("role", role.String()).Msg("model feature order differs from manifest, role unsupported")
			continue
		}
		models[role] = e
	}
	log.Info().Int("roles", len(models)).Int("features", len(manifest.Features)).Msg("model registry loaded")
	return New(manifest.Features, models, meta), nil
}

// Save writes the manifest, metadata and one blob per model.
func Save(ctx context.Context, store ArtifactStore, features []string, models map[model.Role]*ml.Ensemble, meta Metadata) error {
	manifest, err := json.MarshalIndent(featureManifest{Features: features}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feature manifest: %w", err)
	}
	if err := store.Put(ctx, FeaturesKey, manifest); err != nil {
		return fmt.Errorf("save feature manifest: %w", err)
	}
	for _, role := range model.Roles {
		e, ok := models[role]
		if !ok {
			continue
		}
		blob, err := EncodeModel(e)
		if err != nil {
			return fmt.Errorf("encode %s model: %w", role, err)
		}
		if err := store.Put(ctx, ModelKey(role), blob); err != nil {
			return fmt.Errorf("save %s model: %w", role, err)
		}
	}
	mb, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := store.Put(ctx, MetadataKey, mb); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// Features returns the canonical feature order.
func (r *Registry) Features() []string {
	return slices.Clone(r.features)
}

// Model returns the model for role; ok is false for unsupported roles.
func (r *Registry) Model(role model.Role) (RoleModel, bool) {
	m, ok := r.models[role]
	return m, ok
}

// Roles lists the supported roles in canonical order.
func (r *Registry) Roles() []model.Role {
	var out []model.Role
	for _, role := range model.Roles {
		if _, ok := r.models[role]; ok {
			out = append(out, role)
		}
	}
	return out
}

func (r *Registry) Metadata() Metadata {
	return r.meta
}
