// Package handler exposes the plan orchestrator over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arho/internal/plan/fingerprint"
	"arho/internal/plan/models"
	"arho/internal/plan/service"
	"arho/internal/plan/template"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
	"arho/pkg/platform/httputil"
	"arho/pkg/requestcontext"
)

// Service is the part of the orchestrator the handler drives.
type Service interface {
	SavePlanMatter(ctx context.Context, scope models.Scope, m *models.PlanMatter, parentID id.ID) (id.ID, error)
	SavePlan(ctx context.Context, scope models.Scope, p *models.Plan, parentID id.ID) (id.ID, error)
	SavePlanObject(ctx context.Context, scope models.Scope, o *models.PlanObject, parentID id.ID) (id.ID, error)
	SaveRegulationGroup(ctx context.Context, scope models.Scope, g *models.RegulationGroup, parentID id.ID) (id.ID, error)
	SaveRegulation(ctx context.Context, scope models.Scope, r *models.Regulation, parentID id.ID) (id.ID, error)
	SaveProposition(ctx context.Context, scope models.Scope, p *models.Proposition, parentID id.ID) (id.ID, error)
	SaveAdditionalInformation(ctx context.Context, scope models.Scope, a *models.AdditionalInformation, parentID id.ID) (id.ID, error)
	SaveDocument(ctx context.Context, scope models.Scope, d *models.Document, parentID id.ID) (id.ID, error)

	DeletePlanMatter(ctx context.Context, m *models.PlanMatter) error
	DeletePlan(ctx context.Context, p *models.Plan) error
	DeletePlanObject(ctx context.Context, o *models.PlanObject) error
	DeleteRegulationGroup(ctx context.Context, g *models.RegulationGroup) error
	DeleteRegulation(ctx context.Context, r *models.Regulation) error
	DeleteProposition(ctx context.Context, p *models.Proposition) error
	DeleteAdditionalInformation(ctx context.Context, a *models.AdditionalInformation) error
	DeleteDocument(ctx context.Context, d *models.Document) error

	AddGroupsToFeatures(ctx context.Context, groups []id.ID, features []service.FeatureRef) error
	RemoveGroupsFromFeatures(ctx context.Context, groups []id.ID, features []service.FeatureRef) error
	RemoveAllGroupsFromFeatures(ctx context.Context, features []service.FeatureRef) error
	DeleteGroups(ctx context.Context, groups []id.ID) (bool, error)
	ActivePlanLibrary(ctx context.Context, scope models.Scope) (*models.RegulationGroupLibrary, error)
	LoadRegulationGroup(ctx context.Context, v id.ID) (*models.RegulationGroup, error)
	SaveOrLinkGroup(ctx context.Context, scope models.Scope, candidate *models.RegulationGroup, feature service.FeatureRef) (id.ID, fingerprint.Outcome, error)
}

// Handler wires plan endpoints to the orchestrator.
type Handler struct {
	service Service
	parser  *template.Parser
	logger  *slog.Logger
}

// New constructs a plan handler. A nil parser disables the template endpoints.
func New(service Service, parser *template.Parser, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, parser: parser, logger: logger}
}

// Register mounts plan endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/plan-matters", func(r chi.Router) {
		r.Post("/", saveEntity(h, "plan_matter", h.service.SavePlanMatter))
		r.Delete("/{id}", deleteEntity(h, "plan_matter", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeletePlanMatter(ctx, &models.PlanMatter{State: models.Loaded(v)})
		}))
	})
	r.Route("/plans", func(r chi.Router) {
		r.Post("/", saveEntity(h, "plan", h.service.SavePlan))
		r.Delete("/{id}", deleteEntity(h, "plan", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeletePlan(ctx, &models.Plan{State: models.Loaded(v)})
		}))
		r.Get("/{id}/library", h.HandleActivePlanLibrary)
	})
	r.Route("/plan-objects", func(r chi.Router) {
		r.Post("/", saveEntity(h, "plan_object", h.service.SavePlanObject))
		r.Delete("/{id}", deleteEntity(h, "plan_object", func(ctx context.Context, v id.ID, r *http.Request) error {
			o := &models.PlanObject{State: models.Loaded(v), Layer: models.Layer(r.URL.Query().Get("layer"))}
			return h.service.DeletePlanObject(ctx, o)
		}))
		r.Post("/groups/unlink-all", h.HandleRemoveAllGroups)
	})
	r.Route("/regulation-groups", func(r chi.Router) {
		r.Post("/", saveEntity(h, "regulation_group", h.service.SaveRegulationGroup))
		r.Get("/{id}", h.HandleLoadRegulationGroup)
		r.Delete("/{id}", deleteEntity(h, "regulation_group", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeleteRegulationGroup(ctx, &models.RegulationGroup{State: models.Loaded(v)})
		}))
		r.Post("/links", h.HandleAddGroups)
		r.Delete("/links", h.HandleRemoveGroups)
		r.Post("/delete", h.HandleDeleteGroups)
		r.Post("/match", h.HandleSaveOrLinkGroup)
	})
	r.Route("/regulations", func(r chi.Router) {
		r.Post("/", saveEntity(h, "regulation", h.service.SaveRegulation))
		r.Delete("/{id}", deleteEntity(h, "regulation", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeleteRegulation(ctx, &models.Regulation{State: models.Loaded(v)})
		}))
	})
	r.Route("/propositions", func(r chi.Router) {
		r.Post("/", saveEntity(h, "proposition", h.service.SaveProposition))
		r.Delete("/{id}", deleteEntity(h, "proposition", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeleteProposition(ctx, &models.Proposition{State: models.Loaded(v)})
		}))
	})
	r.Route("/additional-information", func(r chi.Router) {
		r.Post("/", saveEntity(h, "additional_information", h.service.SaveAdditionalInformation))
		r.Delete("/{id}", deleteEntity(h, "additional_information", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeleteAdditionalInformation(ctx, &models.AdditionalInformation{State: models.Loaded(v)})
		}))
	})
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", saveEntity(h, "document", h.service.SaveDocument))
		r.Delete("/{id}", deleteEntity(h, "document", func(ctx context.Context, v id.ID, _ *http.Request) error {
			return h.service.DeleteDocument(ctx, &models.Document{State: models.Loaded(v)})
		}))
	})
	r.Route("/templates", func(r chi.Router) {
		r.Post("/regulation-groups", h.HandleParseGroupLibrary)
		r.Post("/plan-features", h.HandleParseFeatureLibrary)
	})
}

type normalizer[T any] interface {
	*T
	Normalize()
}

// saveEntity builds the POST handler of one entity kind. The response carries
// the saved tree with its assigned ids. A save whose node was written but some
// descendants failed answers 207 with the failures.
func saveEntity[T any, P normalizer[T]](h *Handler, kind string, save func(context.Context, models.Scope, P, id.ID) (id.ID, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		start := time.Now()

		req, err := httputil.DecodeJSON[SaveRequest[T]](r)
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			h.logger.WarnContext(ctx, "invalid save request", "request_id", requestID, "kind", kind, "error", err)
			httputil.WriteError(w, err)
			return
		}
		entity := P(req.Entity)
		entity.Normalize()

		v, err := save(ctx, req.Scope, entity, req.ParentID)
		var report *service.SaveReport
		switch {
		case err == nil:
		case !v.IsZero() && errors.As(err, &report):
			h.logger.WarnContext(ctx, "save completed with failures",
				"request_id", requestID,
				"kind", kind,
				"id", v,
				"failures", len(report.Failures),
			)
			httputil.WriteJSON(w, http.StatusMultiStatus, SaveResponse[T]{ID: v, Entity: req.Entity, Failures: failures(report)})
			return
		default:
			h.logger.ErrorContext(ctx, "save failed", "request_id", requestID, "kind", kind, "error", err)
			httputil.WriteError(w, err)
			return
		}

		h.logger.InfoContext(ctx, "entity saved",
			"request_id", requestID,
			"kind", kind,
			"id", v,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteJSON(w, http.StatusOK, SaveResponse[T]{ID: v, Entity: req.Entity})
	}
}

// deleteEntity builds the DELETE handler of one entity kind.
func deleteEntity(h *Handler, kind string, del func(context.Context, id.ID, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		v, err := id.ParseID(chi.URLParam(r, "id"))
		if err == nil {
			err = del(ctx, v, r)
		}
		if err != nil {
			h.logger.ErrorContext(ctx, "delete failed",
				"request_id", requestcontext.RequestID(ctx),
				"kind", kind,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleActivePlanLibrary handles GET /plans/{id}/library.
func (h *Handler) HandleActivePlanLibrary(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scope := models.Scope{PlanID: planID, PlanMatterID: id.ID(r.URL.Query().Get("plan_matter_id"))}
	lib, err := h.service.ActivePlanLibrary(r.Context(), scope)
	if err != nil {
		h.fail(r, "active plan library failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lib)
}

// HandleLoadRegulationGroup handles GET /regulation-groups/{id}.
func (h *Handler) HandleLoadRegulationGroup(w http.ResponseWriter, r *http.Request) {
	v, err := id.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	g, err := h.service.LoadRegulationGroup(r.Context(), v)
	if err != nil {
		h.fail(r, "load regulation group failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

// HandleAddGroups handles POST /regulation-groups/links.
func (h *Handler) HandleAddGroups(w http.ResponseWriter, r *http.Request) {
	h.groupLinks(w, r, h.service.AddGroupsToFeatures)
}

// HandleRemoveGroups handles DELETE /regulation-groups/links.
func (h *Handler) HandleRemoveGroups(w http.ResponseWriter, r *http.Request) {
	h.groupLinks(w, r, h.service.RemoveGroupsFromFeatures)
}

func (h *Handler) groupLinks(w http.ResponseWriter, r *http.Request, op func(context.Context, []id.ID, []service.FeatureRef) error) {
	req, err := httputil.DecodeJSON[GroupLinksRequest](r)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeLibraryResult(w, r, op(r.Context(), req.GroupIDs, req.Features))
}

// HandleRemoveAllGroups handles POST /plan-objects/groups/unlink-all.
func (h *Handler) HandleRemoveAllGroups(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[GroupLinksRequest](r)
	if err == nil && len(req.Features) == 0 {
		err = dErrors.New(dErrors.CodeInvalidInput, "features are required")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeLibraryResult(w, r, h.service.RemoveAllGroupsFromFeatures(r.Context(), req.Features))
}

// HandleDeleteGroups handles POST /regulation-groups/delete.
func (h *Handler) HandleDeleteGroups(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[GroupLinksRequest](r)
	if err == nil && len(req.GroupIDs) == 0 {
		err = dErrors.New(dErrors.CodeInvalidInput, "group_ids are required")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	changed, err := h.service.DeleteGroups(r.Context(), req.GroupIDs)
	var report *service.SaveReport
	if err != nil && !errors.As(err, &report) {
		h.fail(r, "delete groups failed", err)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if report != nil {
		status = http.StatusMultiStatus
	}
	httputil.WriteJSON(w, status, DeleteGroupsResponse{Changed: changed, Failures: failures(report)})
}

// HandleSaveOrLinkGroup handles POST /regulation-groups/match.
func (h *Handler) HandleSaveOrLinkGroup(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[MatchRequest](r)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Group.Normalize()
	v, outcome, err := h.service.SaveOrLinkGroup(r.Context(), req.Scope, req.Group, req.Feature)
	if err != nil && v.IsZero() {
		h.fail(r, "save or link group failed", err)
		httputil.WriteError(w, err)
		return
	}
	resp := MatchResponse{ID: v, Outcome: outcome.String()}
	status := http.StatusOK
	var report *service.SaveReport
	if errors.As(err, &report) {
		resp.Failures = failures(report)
		status = http.StatusMultiStatus
	}
	httputil.WriteJSON(w, status, resp)
}

// HandleParseGroupLibrary handles POST /templates/regulation-groups with a
// YAML body and answers the parsed library.
func (h *Handler) HandleParseGroupLibrary(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readTemplate(w, r)
	if !ok {
		return
	}
	lib, err := h.parser.RegulationGroupLibrary(data, libraryType(r), "")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lib)
}

// HandleParseFeatureLibrary handles POST /templates/plan-features.
func (h *Handler) HandleParseFeatureLibrary(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readTemplate(w, r)
	if !ok {
		return
	}
	lib, err := h.parser.PlanFeatureLibrary(data, libraryType(r), "")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lib)
}

func (h *Handler) readTemplate(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if h.parser == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "template parsing is not configured"))
		return nil, false
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodyBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "read template body"))
		return nil, false
	}
	return data, true
}

func libraryType(r *http.Request) models.LibraryType {
	if t := r.URL.Query().Get("library_type"); t != "" {
		return models.LibraryType(t)
	}
	return models.LibraryCustom
}

func (h *Handler) writeLibraryResult(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var report *service.SaveReport
	if errors.As(err, &report) {
		httputil.WriteJSON(w, http.StatusMultiStatus, FailuresResponse{Failures: failures(report)})
		return
	}
	h.fail(r, "library operation failed", err)
	httputil.WriteError(w, err)
}

func (h *Handler) fail(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"request_id", requestcontext.RequestID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
}
