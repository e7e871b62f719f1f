package httpx

import (
	"log/slog"
	"net/http"

	"github.com/escolafut/escola-api/internal/domain/model"
	"github.com/escolafut/escola-api/internal/service"
)

// rowInput is a typed request body that can be flattened into store columns.
type rowInput interface {
	Row() model.Row
}

// inputFactories maps a resource name to the body type accepted on writes.
var inputFactories = map[string]func() rowInput{ //nolint:gochecknoglobals // read-only lookup table
	service.Branches.Name: func() rowInput { return &model.BranchInput{} },
	service.Students.Name: func() rowInput { return &model.StudentInput{} },
	service.Plans.Name:    func() rowInput { return &model.PlanInput{} },
	service.Payments.Name: func() rowInput { return &model.PaymentInput{} },
}

// ResourceHandlers serves the branch-scoped CRUD endpoints. Every data access
// goes through the scoped store built from the request principal.
type ResourceHandlers struct {
	Svc          *service.ResourceService
	MaxBodyBytes int64
	Logger       *slog.Logger
}

func (h *ResourceHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// scoped returns the store for the request principal, writing a 401 when the
// route was mounted without a guard.
func (h *ResourceHandlers) scoped(w http.ResponseWriter, r *http.Request) (*service.ScopedStore, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
		return nil, false
	}
	return h.Svc.For(p), true
}

// List handles GET /api/{resource}.
func (h *ResourceHandlers) List(res service.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := h.scoped(w, r)
		if !ok {
			return
		}
		opts := parseListOptions(r)
		rows, err := store.List(r.Context(), res, opts)
		if err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		writeRows(w, res, rows, opts)
	}
}

// ListBranchStudents handles GET /api/branches/{branchID}/students.
func (h *ResourceHandlers) ListBranchStudents(w http.ResponseWriter, r *http.Request) {
	store, ok := h.scoped(w, r)
	if !ok {
		return
	}
	opts := parseListOptions(r)
	rows, err := store.ListByBranch(r.Context(), service.Students, r.PathValue("branchID"), opts)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	writeRows(w, service.Students, rows, opts)
}

// Get handles GET /api/{resource}/{id}.
func (h *ResourceHandlers) Get(res service.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := h.scoped(w, r)
		if !ok {
			return
		}
		row, err := store.Get(r.Context(), res, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		WriteJSON(w, http.StatusOK, row)
	}
}

// Create handles POST /api/{resource}.
func (h *ResourceHandlers) Create(res service.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := h.scoped(w, r)
		if !ok {
			return
		}
		in, ok := h.decode(w, r, res)
		if !ok {
			return
		}
		row, err := store.Create(r.Context(), res, in.Row())
		if err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		WriteJSON(w, http.StatusCreated, row)
	}
}

// Update handles PUT /api/{resource}/{id}.
func (h *ResourceHandlers) Update(res service.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := h.scoped(w, r)
		if !ok {
			return
		}
		in, ok := h.decode(w, r, res)
		if !ok {
			return
		}
		row, err := store.Update(r.Context(), res, r.PathValue("id"), in.Row())
		if err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		WriteJSON(w, http.StatusOK, row)
	}
}

// Delete handles DELETE /api/{resource}/{id}.
func (h *ResourceHandlers) Delete(res service.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := h.scoped(w, r)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), res, r.PathValue("id")); err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *ResourceHandlers) decode(w http.ResponseWriter, r *http.Request, res service.Resource) (rowInput, bool) {
	factory, ok := inputFactories[res.Name]
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
		return nil, false
	}
	in := factory()
	if !DecodeJSON(w, r, in, h.MaxBodyBytes) {
		return nil, false
	}
	if err := validateInput(in); err != nil {
		writeServiceError(w, r, h.logger(), err)
		return nil, false
	}
	return in, true
}

func writeRows(w http.ResponseWriter, res service.Resource, rows []model.Row, opts model.ListOptions) {
	if rows == nil {
		rows = []model.Row{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		res.Name: rows,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}
