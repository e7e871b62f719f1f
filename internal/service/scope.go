package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/domain/model"
	apperrors "github.com/escolafut/escola-api/internal/errors"
	"github.com/escolafut/escola-api/internal/observability/metrics"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/ports"
)

// Page size bounds for list operations.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ResourceServiceOptions groups dependencies for ResourceService.
type ResourceServiceOptions struct {
	Store   ports.DataStore // Required
	Logger  *slog.Logger    // Optional: structured logger
	Metrics statsd.Sink     // Optional: metrics sink (StatsD-compatible)
}

// ResourceService hands out tenant-scoped views of the data store. It is the
// only holder of the raw store outside the data layer.
type ResourceService struct {
	store   ports.DataStore
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewResourceService constructs a new ResourceService.
func NewResourceService(opts ResourceServiceOptions) (*ResourceService, error) {
	if opts.Store == nil {
		return nil, errors.New("DataStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceService{
		store:   opts.Store,
		logger:  logger.With("component", "tenant_scope"),
		metrics: opts.Metrics,
	}, nil
}

// For returns the store view for p. Every query and mutation issued through it
// is narrowed to what p may see.
func (s *ResourceService) For(p domainauth.Principal) *ScopedStore {
	return &ScopedStore{principal: p, store: s.store, logger: s.logger, metrics: s.metrics}
}

// ScopedStore is a data store view bound to one principal.
//
// Admins are unrestricted. Managers are pinned to their branch on every table
// with a branch column. Guardians read rows of their linked students and
// never write.
type ScopedStore struct {
	principal domainauth.Principal
	store     ports.DataStore
	logger    *slog.Logger
	metrics   statsd.Sink
}

// scope returns the predicates narrowing res for the bound principal.
func (s *ScopedStore) scope(res Resource) ([]model.Predicate, error) {
	switch p := s.principal.(type) {
	case *domainauth.AdminPrincipal:
		return nil, nil
	case *domainauth.ManagerPrincipal:
		if res.BranchColumn == "" || p.BranchID == "" {
			return nil, domainauth.ErrForbidden
		}
		return []model.Predicate{model.Eq(res.BranchColumn, p.BranchID)}, nil
	case *domainauth.GuardianPrincipal:
		if res.StudentColumn == "" {
			return nil, domainauth.ErrForbidden
		}
		// An empty set renders as FALSE and matches nothing.
		return []model.Predicate{model.In(res.StudentColumn, slices.Clone(p.StudentIDs))}, nil
	default:
		return nil, domainauth.ErrUnauthenticated
	}
}

// List returns the rows of res visible to the principal, narrowed further by
// client filters.
func (s *ScopedStore) List(ctx context.Context, res Resource, opts model.ListOptions) ([]model.Row, error) {
	where, err := s.scope(res)
	if err != nil {
		return nil, err
	}
	filters, err := s.filters(ctx, res, opts.Filters)
	if err != nil {
		return nil, err
	}
	opts = NormalizePage(opts)
	return s.store.List(ctx, model.Query{
		Table:   res.Table,
		Columns: res.Columns,
		Where:   append(where, filters...),
		OrderBy: res.OrderBy,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// ListByBranch lists rows of res owned by branchID. A manager naming any
// branch other than their own is rejected before the store is queried.
func (s *ScopedStore) ListByBranch(
	ctx context.Context,
	res Resource,
	branchID string,
	opts model.ListOptions,
) ([]model.Row, error) {
	if res.BranchColumn == "" {
		return nil, domainauth.ErrForbidden
	}
	if m, ok := s.principal.(*domainauth.ManagerPrincipal); ok && m.BranchID != branchID {
		return nil, s.crossTenant(ctx, res, "list", branchID)
	}
	where, err := s.scope(res)
	if err != nil {
		return nil, err
	}
	filters, err := s.filters(ctx, res, opts.Filters)
	if err != nil {
		return nil, err
	}
	where = append(where, model.Eq(res.BranchColumn, branchID))
	opts = NormalizePage(opts)
	return s.store.List(ctx, model.Query{
		Table:   res.Table,
		Columns: res.Columns,
		Where:   append(where, filters...),
		OrderBy: res.OrderBy,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// Get returns one row of res by id.
func (s *ScopedStore) Get(ctx context.Context, res Resource, id string) (model.Row, error) {
	where, err := s.scope(res)
	if err != nil {
		return nil, err
	}
	row, err := s.first(ctx, res, append(where, model.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, s.miss(ctx, res, "get", id)
	}
	return row, nil
}

// Create inserts a row of res. Managers' rows are forced into their branch;
// guardians may not create anything.
func (s *ScopedStore) Create(ctx context.Context, res Resource, values model.Row) (model.Row, error) {
	if err := s.checkWrite(res); err != nil {
		return nil, err
	}
	row := res.pick(values)
	if err := s.pinBranch(ctx, res, row, "create"); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, res, row, "create"); err != nil {
		return nil, err
	}
	if !res.ownsBranch() && res.BranchColumn != "" && row.String(res.BranchColumn) == "" {
		return nil, apperrors.ValidationField(res.BranchColumn, "branch is required")
	}
	return s.store.Insert(ctx, res.Table, row, res.Columns)
}

// Update changes a row of res by id. The row must be visible to the principal
// and may not be moved out of the manager's branch.
func (s *ScopedStore) Update(ctx context.Context, res Resource, id string, values model.Row) (model.Row, error) {
	where, err := s.scope(res)
	if err != nil {
		return nil, err
	}
	if err := s.checkWrite(res); err != nil {
		if errors.Is(err, domainauth.ErrForbidden) {
			// Guardians learn nothing about rows outside their set.
			if _, getErr := s.Get(ctx, res, id); getErr != nil {
				return nil, getErr
			}
		}
		return nil, err
	}
	row := res.pick(values)
	if len(row) == 0 {
		return nil, apperrors.Validation("no updatable fields supplied")
	}
	if err := s.pinBranch(ctx, res, row, "update"); err != nil {
		return nil, err
	}
	merged, err := s.resolveUpdate(ctx, res, where, id, row)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, res, merged, "update"); err != nil {
		return nil, err
	}
	rows, err := s.store.Update(ctx, res.Table, append(where, model.Eq("id", id)), row, res.Columns)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, s.miss(ctx, res, "update", id)
	}
	return rows[0], nil
}

// Delete removes a row of res by id.
func (s *ScopedStore) Delete(ctx context.Context, res Resource, id string) error {
	where, err := s.scope(res)
	if err != nil {
		return err
	}
	if err := s.checkWrite(res); err != nil {
		if errors.Is(err, domainauth.ErrForbidden) {
			if _, getErr := s.Get(ctx, res, id); getErr != nil {
				return getErr
			}
		}
		return err
	}
	n, err := s.store.Delete(ctx, res.Table, append(where, model.Eq("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return s.miss(ctx, res, "delete", id)
	}
	return nil
}

func (s *ScopedStore) checkWrite(res Resource) error {
	switch s.principal.(type) {
	case *domainauth.AdminPrincipal:
		return nil
	case *domainauth.ManagerPrincipal:
		if res.AdminOnlyWrites {
			return domainauth.ErrForbidden
		}
		return nil
	case *domainauth.GuardianPrincipal:
		return domainauth.ErrForbidden
	default:
		return domainauth.ErrUnauthenticated
	}
}

// pinBranch sets the manager's branch on row, rejecting any other branch the
// client supplied.
func (s *ScopedStore) pinBranch(ctx context.Context, res Resource, row model.Row, op string) error {
	m, ok := s.principal.(*domainauth.ManagerPrincipal)
	if !ok || res.BranchColumn == "" || res.ownsBranch() {
		return nil
	}
	if supplied, present := row[res.BranchColumn]; present {
		if v, _ := supplied.(string); v != m.BranchID {
			return s.crossTenant(ctx, res, op, fmt.Sprint(supplied))
		}
	}
	row[res.BranchColumn] = m.BranchID
	return nil
}

// resolveUpdate overlays row on the stored branch and reference columns of
// id, so that a partial update is checked against the row it will produce.
func (s *ScopedStore) resolveUpdate(
	ctx context.Context,
	res Resource,
	where []model.Predicate,
	id string,
	row model.Row,
) (model.Row, error) {
	if res.BranchColumn == "" || res.ownsBranch() || len(res.References) == 0 {
		return row, nil
	}
	current, err := s.first(ctx, res, append(slices.Clip(where), model.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, s.miss(ctx, res, "update", id)
	}
	merged := make(model.Row, len(res.References)+1)
	cols := []string{res.BranchColumn}
	for _, ref := range res.References {
		cols = append(cols, ref.Column)
	}
	for _, col := range cols {
		if v, ok := row[col]; ok {
			merged[col] = v
		} else if v, ok := current[col]; ok {
			merged[col] = v
		}
	}
	return merged, nil
}

// checkReferences requires every referenced row to be visible to the
// principal and to live in the same branch as row.
func (s *ScopedStore) checkReferences(ctx context.Context, res Resource, row model.Row, op string) error {
	for _, ref := range res.References {
		refID := row.String(ref.Column)
		if refID == "" {
			continue
		}
		target, ok := LookupResource(ref.Resource)
		if !ok {
			return fmt.Errorf("resource %s references unknown resource %s", res.Name, ref.Resource)
		}
		refRow, err := s.Get(ctx, target, refID)
		if err != nil {
			if apperrors.IsNotFound(err) || errors.Is(err, domainauth.ErrCrossTenantAccess) {
				// Foreign and missing references read the same to the client.
				return &apperrors.AppError{
					Code:    apperrors.ErrCodeValidation,
					Message: ref.Column + " does not exist",
					Cause:   err,
					Field:   ref.Column,
				}
			}
			return err
		}
		if res.BranchColumn == "" || target.BranchColumn == "" || res.ownsBranch() {
			continue
		}
		refBranch := refRow.String(target.BranchColumn)
		switch own := row.String(res.BranchColumn); {
		case own == "" && op == "create":
			row[res.BranchColumn] = refBranch
		case own != "" && own != refBranch:
			return apperrors.ValidationField(ref.Column, "referenced record belongs to another unit")
		}
	}
	return nil
}

func (s *ScopedStore) filters(ctx context.Context, res Resource, in map[string]string) ([]model.Predicate, error) {
	if len(in) == 0 {
		return nil, nil
	}
	cols := make([]string, 0, len(in))
	for col := range in {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	preds := make([]model.Predicate, 0, len(cols))
	for _, col := range cols {
		val := in[col]
		if !res.filterable(col) {
			return nil, apperrors.ValidationField(col, "unsupported filter")
		}
		switch p := s.principal.(type) {
		case *domainauth.ManagerPrincipal:
			if col == res.BranchColumn && val != p.BranchID {
				return nil, s.crossTenant(ctx, res, "list", val)
			}
		case *domainauth.GuardianPrincipal:
			if col == res.StudentColumn && !p.LinkedTo(val) {
				return nil, s.crossTenant(ctx, res, "list", val)
			}
		}
		preds = append(preds, model.Eq(col, val))
	}
	return preds, nil
}

func (s *ScopedStore) first(ctx context.Context, res Resource, where []model.Predicate) (model.Row, error) {
	rows, err := s.store.List(ctx, model.Query{Table: res.Table, Columns: res.Columns, Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// miss explains a by-id lookup that found nothing under scope. A row that
// exists outside the scope is a cross-tenant attempt; callers cannot tell the
// two apart.
func (s *ScopedStore) miss(ctx context.Context, res Resource, op, id string) error {
	notFound := apperrors.NotFoundf("%s not found", res.Name)
	if _, ok := s.principal.(*domainauth.AdminPrincipal); ok {
		return notFound
	}
	row, err := s.first(ctx, res, []model.Predicate{model.Eq("id", id)})
	if err != nil {
		s.logger.WarnContext(ctx, "cross-tenant lookup failed", "resource", res.Name, "id", id, "error", err)
		return notFound
	}
	if row == nil {
		return notFound
	}
	return s.crossTenant(ctx, res, op, id)
}

func (s *ScopedStore) crossTenant(ctx context.Context, res Resource, op, requested string) error {
	role, principalID := "", ""
	if s.principal != nil {
		role, principalID = string(s.principal.Role()), s.principal.PrincipalID()
	}
	s.logger.WarnContext(ctx, "cross-tenant access attempt",
		"role", role,
		"principal_id", principalID,
		"resource", res.Name,
		"operation", op,
		"requested_id", requested,
	)
	metrics.CrossTenantAccess(s.metrics, role, res.Name, op)
	return fmt.Errorf("%w: %s %s", domainauth.ErrCrossTenantAccess, op, res.Name)
}

// pick keeps only the writable columns of values.
func (r Resource) pick(values model.Row) model.Row {
	out := make(model.Row, len(values))
	for col, v := range values {
		if r.writable(col) {
			out[col] = v
		}
	}
	return out
}

// NormalizePage applies the default page size, caps it at MaxListLimit and
// floors the offset at zero.
func NormalizePage(opts model.ListOptions) model.ListOptions {
	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultListLimit
	case opts.Limit > MaxListLimit:
		opts.Limit = MaxListLimit
	}
	opts.Offset = max(opts.Offset, 0)
	return opts
}
