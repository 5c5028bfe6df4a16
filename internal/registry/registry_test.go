package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pable/riftlens/internal/ml"
	"github.com/pable/riftlens/internal/model"
)

func tinyEnsemble(t *testing.T, features []string) *ml.Ensemble {
	t.Helper()
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		row := make([]float64, len(features))
		row[0] = float64(i)
		X = append(X, row)
		y = append(y, float64(i))
	}
	params := ml.DefaultBoostParams()
	params.Trees = 5
	params.MaxDepth = 2
	e, err := ml.FitEnsemble(X, y, features, params)
	if err != nil {
		t.Fatalf("FitEnsemble: %v", err)
	}
	return e
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewDirStore(t.TempDir())
	features := []string{"kda", "cs_per_min"}
	models := map[model.Role]*ml.Ensemble{
		model.RoleTop:     tinyEnsemble(t, features),
		model.RoleUtility: tinyEnsemble(t, features),
	}
	meta := Metadata{TotalSamples: 80, Roles: []string{"TOP", "UTILITY"}, FeatureColumns: features}
	if err := Save(ctx, store, features, models, meta); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reg, err := Load(ctx, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reg.Roles(); len(got) != 2 || got[0] != model.RoleTop || got[1] != model.RoleUtility {
		t.Errorf("Roles = %v, want [TOP UTILITY]", got)
	}
	if _, ok := reg.Model(model.RoleJungle); ok {
		t.Error("expected JUNGLE to be unsupported")
	}
	m, ok := reg.Model(model.RoleTop)
	if !ok {
		t.Fatal("expected TOP model")
	}
	want := models[model.RoleTop].Predict([]float64{10, 0})
	if got := m.Predict([]float64{10, 0}); got != want {
		t.Errorf("Predict after reload = %v, want %v", got, want)
	}
	if reg.Metadata().TotalSamples != 80 {
		t.Errorf("metadata not loaded: %+v", reg.Metadata())
	}
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(context.Background(), NewDirStore(t.TempDir()), zerolog.Nop())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadSkipsCorruptAndMismatchedModels(t *testing.T) {
	ctx := context.Background()
	store := NewDirStore(t.TempDir())
	features := []string{"kda", "cs_per_min"}
	models := map[model.Role]*ml.Ensemble{
		model.RoleTop:    tinyEnsemble(t, features),
		model.RoleMiddle: tinyEnsemble(t, []string{"cs_per_min", "kda"}),
	}
	if err := Save(ctx, store, features, models, Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Put(ctx, ModelKey(model.RoleJungle), []byte("garbage")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reg, err := Load(ctx, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, role := range []model.Role{model.RoleJungle, model.RoleMiddle} {
		if _, ok := reg.Model(role); ok {
			t.Errorf("expected %s to be unsupported", role)
		}
	}
	if _, ok := reg.Model(model.RoleTop); !ok {
		t.Error("expected TOP to survive")
	}
}

func TestModelKey(t *testing.T) {
	if got := ModelKey(model.RoleBottom); got != "performance_model_bottom.json.zst" {
		t.Errorf("ModelKey = %q", got)
	}
}

func TestDirStoreRejectsPathKeys(t *testing.T) {
	store := NewDirStore(t.TempDir())
	if err := store.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Error("expected error for key with path separator")
	}
}

func TestNewDropsUnsupportedRole(t *testing.T) {
	reg := New([]string{"a"}, map[model.Role]RoleModel{model.RoleUnknown: tinyEnsemble(t, []string{"a"})}, Metadata{})
	if len(reg.Roles()) != 0 {
		t.Errorf("expected no roles, got %v", reg.Roles())
	}
}
