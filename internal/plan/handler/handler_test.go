package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arho/internal/plan/codes"
	"arho/internal/plan/models"
	"arho/internal/plan/service"
	"arho/internal/plan/store"
	"arho/internal/plan/template"
	id "arho/pkg/domain"
	"arho/pkg/platform/middleware/metadata"
	"arho/pkg/testutil"
)

// failingGateway rejects writes of one kind.
type failingGateway struct {
	store.Gateway
	kind store.Kind
}

func (g *failingGateway) Upsert(ctx context.Context, kind store.Kind, rec store.Record, v id.ID) (id.ID, error) {
	if kind == g.kind {
		return "", errors.New("disk full")
	}
	return g.Gateway.Upsert(ctx, kind, rec, v)
}

func newRouter(t *testing.T, gw store.Gateway) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := codes.NewRegistry(
		codes.Code{ID: "rt-area", List: codes.ListRegulationType, Value: "maximumBuildingArea", DataType: models.DataTypePositiveNumeric, Unit: "k-m2"},
	)
	h := New(service.New(gw, service.WithLogger(logger)), template.NewParser(registry), logger)
	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	h.Register(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	if raw, ok := body.(string); ok {
		return testutil.DoRequest(router, testutil.NewRequestWithBody(t, method, path, "application/json", raw))
	}
	return testutil.DoRequest(router, testutil.NewJSONRequest(t, method, path, body))
}

var groupPayload = map[string]any{
	"scope": map[string]any{"plan_id": "plan-1"},
	"entity": map[string]any{
		"heading":     "Asuinkerrostalojen korttelialue",
		"letter_code": "AK",
		"modified":    true,
		"regulations": []map[string]any{
			{"regulation_type_id": "rt-area", "modified": true, "theme_ids": []string{"theme-a"}},
		},
	},
}

func TestSaveLoadDeleteRegulationGroup(t *testing.T) {
	gw := store.NewInMemory()
	router := newRouter(t, gw)

	rec := do(t, router, http.MethodPost, "/regulation-groups", groupPayload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(metadata.RequestIDHeader))

	saved := testutil.UnmarshalResponse[SaveResponse[models.RegulationGroup]](t, rec)
	require.False(t, saved.ID.IsZero())
	require.Len(t, saved.Entity.Regulations, 1)
	assert.False(t, saved.Entity.Regulations[0].ID.IsZero(), "children carry their assigned ids")
	assert.False(t, saved.Entity.Modified)
	assert.Equal(t, 1, gw.Count(store.KindThemeAssociation))

	rec = do(t, router, http.MethodGet, "/regulation-groups/"+string(saved.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded models.RegulationGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&loaded))
	assert.Equal(t, "AK", loaded.LetterCode)
	require.Len(t, loaded.Regulations, 1)
	assert.Equal(t, []id.ID{"theme-a"}, loaded.Regulations[0].ThemeIDs)

	rec = do(t, router, http.MethodDelete, "/regulation-groups/"+string(saved.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/regulation-groups/"+string(saved.ID), nil)
	testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")

	rec = do(t, router, http.MethodDelete, "/regulation-groups/"+string(saved.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveRejectsBadRequests(t *testing.T) {
	router := newRouter(t, store.NewInMemory())

	cases := []struct {
		name string
		body any
	}{
		{"missing entity", map[string]any{"scope": map[string]any{}}},
		{"unknown field", map[string]any{"entity": map[string]any{}, "extra": 1}},
		{"malformed json", "{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/plans", tc.body)
			testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
		})
	}

	t.Run("unknown layer", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/plan-objects", map[string]any{
			"entity": map[string]any{"layer_name": "river", "modified": true},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("invalid id on delete", func(t *testing.T) {
		rec := do(t, router, http.MethodDelete, "/plans/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPartialSaveReportsFailures(t *testing.T) {
	gw := &failingGateway{Gateway: store.NewInMemory(), kind: store.KindRegulation}
	router := newRouter(t, gw)

	rec := do(t, router, http.MethodPost, "/regulation-groups", groupPayload)
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())

	resp := testutil.UnmarshalResponse[SaveResponse[models.RegulationGroup]](t, rec)
	assert.False(t, resp.ID.IsZero())
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, string(store.KindRegulation), resp.Failures[0].Kind)
	assert.Equal(t, "insert", resp.Failures[0].Op)
	assert.Equal(t, "write_failed", resp.Failures[0].Code)
}

func TestGroupFeatureLinks(t *testing.T) {
	gw := store.NewInMemory()
	router := newRouter(t, gw)

	rec := do(t, router, http.MethodPost, "/plan-objects", map[string]any{
		"scope":  map[string]any{"plan_id": "plan-1"},
		"entity": map[string]any{"layer_name": "land_use_area", "geom": "POLYGON((0 0,1 0,1 1,0 0))", "modified": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var feature SaveResponse[models.PlanObject]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&feature))

	rec = do(t, router, http.MethodPost, "/regulation-groups", groupPayload)
	require.Equal(t, http.StatusOK, rec.Code)
	var group SaveResponse[models.RegulationGroup]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&group))

	links := map[string]any{
		"group_ids": []id.ID{group.ID},
		"features":  []service.FeatureRef{{Layer: models.LayerLand, ID: feature.ID}},
	}
	rec = do(t, router, http.MethodPost, "/regulation-groups/links", links)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, 1, gw.Count(store.KindGroupAssociation))

	rec = do(t, router, http.MethodGet, "/plans/"+string(id.NewID())+"/library", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodDelete, "/regulation-groups/links", links)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, gw.Count(store.KindGroupAssociation))

	rec = do(t, router, http.MethodPost, "/regulation-groups/links", map[string]any{
		"group_ids": []id.ID{group.ID},
		"features":  []service.FeatureRef{{Layer: "river", ID: feature.ID}},
	})
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	var failed FailuresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&failed))
	require.Len(t, failed.Failures, 1)
	assert.Equal(t, "validation", failed.Failures[0].Code)

	rec = do(t, router, http.MethodPost, "/regulation-groups/links", map[string]any{"group_ids": []id.ID{group.ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/regulation-groups/delete", map[string]any{"group_ids": []id.ID{group.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted DeleteGroupsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&deleted))
	assert.True(t, deleted.Changed)
	assert.Equal(t, 0, gw.Count(store.KindRegulationGroup))
}

func TestParseTemplates(t *testing.T) {
	router := newRouter(t, store.NewInMemory())

	rec := do(t, router, http.MethodPost, "/templates/regulation-groups?library_type=default", `
library_type: regulation_group
name: Defaults
plan_regulation_groups:
  - heading: AK
    plan_regulations:
      - regulation_code: maximumBuildingArea
        numeric_value: 1200
`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var lib models.RegulationGroupLibrary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&lib))
	assert.Equal(t, "Defaults", lib.Name)
	assert.Equal(t, models.LibraryDefault, lib.Type)
	require.Len(t, lib.Groups, 1)
	assert.Equal(t, "k-m2", lib.Groups[0].Regulations[0].Value.Unit)

	rec = do(t, router, http.MethodPost, "/templates/regulation-groups", `
library_type: regulation_group
plan_regulation_groups:
  - plan_regulations:
      - regulation_code: unknown
`)
	testutil.AssertStatusAndError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}
