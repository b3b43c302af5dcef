package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type ScopeInput struct {
	SerialNo       int    `json:"s_no" yaml:"s_no" validate:"required,gt=0"`
	Group          string `json:"group" yaml:"group"`
	MainGroup      string `json:"main_group" yaml:"main_group"`
	SubGroup       string `json:"sub_group" yaml:"sub_group"`
	MaterialTested string `json:"material_tested" yaml:"material_tested" validate:"required"`
	Parameters     string `json:"parameters" yaml:"parameters"`
	TestMethod     string `json:"test_method" yaml:"test_method"`
}

// scopeSeed is the layout of a NABL scope seed file.
type scopeSeed struct {
	Scopes []ScopeInput `yaml:"scopes"`
}

type ScopeService interface {
	List(ctx context.Context) ([]*types.Scope, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Scope, error)
	Create(ctx context.Context, in ScopeInput) (*types.Scope, error)
	Update(ctx context.Context, id uuid.UUID, in ScopeInput) (*types.Scope, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Seed upserts the scopes of a YAML document by s_no and returns how many it read.
	Seed(ctx context.Context, r io.Reader) (int, error)
}

type scopeService struct {
	log  *logger.Logger
	repo repos.ScopeRepo
}

func NewScopeService(log *logger.Logger, repo repos.ScopeRepo) ScopeService {
	return &scopeService{log: log.With("service", "ScopeService"), repo: repo}
}

func (in *ScopeInput) normalize(op string) error {
	in.MaterialTested = strings.TrimSpace(in.MaterialTested)
	if err := labtest.Validator().Struct(in); err != nil {
		return dataagg.MapError(op, err)
	}
	return nil
}

func (in ScopeInput) model(id uuid.UUID) *types.Scope {
	return &types.Scope{
		ID:             id,
		SerialNo:       in.SerialNo,
		Group:          in.Group,
		MainGroup:      in.MainGroup,
		SubGroup:       in.SubGroup,
		MaterialTested: in.MaterialTested,
		Parameters:     in.Parameters,
		TestMethod:     in.TestMethod,
	}
}

func (ss *scopeService) List(ctx context.Context) ([]*types.Scope, error) {
	out, err := ss.repo.List(ctx, nil)
	if err != nil {
		return nil, dataagg.MapError("scope.list", err)
	}
	return out, nil
}

func (ss *scopeService) Get(ctx context.Context, id uuid.UUID) (*types.Scope, error) {
	out, err := ss.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, dataagg.MapError("scope.get", err)
	}
	return out, nil
}

func (ss *scopeService) Create(ctx context.Context, in ScopeInput) (*types.Scope, error) {
	const op = "scope.create"
	if err := in.normalize(op); err != nil {
		return nil, err
	}
	if err := ss.ensureSerialFree(ctx, op, in.SerialNo, uuid.Nil); err != nil {
		return nil, err
	}
	s := in.model(uuid.Nil)
	if err := ss.repo.Create(ctx, nil, s); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	ss.log.Info("scope created", "scope_id", s.ID, "s_no", s.SerialNo)
	return s, nil
}

func (ss *scopeService) Update(ctx context.Context, id uuid.UUID, in ScopeInput) (*types.Scope, error) {
	const op = "scope.update"
	if err := in.normalize(op); err != nil {
		return nil, err
	}
	if err := ss.ensureSerialFree(ctx, op, in.SerialNo, id); err != nil {
		return nil, err
	}
	if err := ss.repo.Update(ctx, nil, in.model(id)); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return ss.Get(ctx, id)
}

func (ss *scopeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ss.repo.Delete(ctx, nil, id); err != nil {
		return dataagg.MapError("scope.delete", err)
	}
	ss.log.Info("scope deleted", "scope_id", id)
	return nil
}

func (ss *scopeService) ensureSerialFree(ctx context.Context, op string, serial int, except uuid.UUID) error {
	dup, err := ss.repo.SerialExists(ctx, nil, serial, except)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if dup {
		return domainagg.Conflict(op, "a scope with s_no %d already exists", serial)
	}
	return nil
}

func (ss *scopeService) Seed(ctx context.Context, r io.Reader) (int, error) {
	const op = "scope.seed"
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc scopeSeed
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return 0, domainagg.Wrap(domainagg.CodeValidation, op, fmt.Errorf("parse seed: %w", err))
	}
	seen := make(map[int]bool, len(doc.Scopes))
	rows := make([]*types.Scope, 0, len(doc.Scopes))
	for i := range doc.Scopes {
		in := doc.Scopes[i]
		if err := in.normalize(op); err != nil {
			return 0, domainagg.Wrap(domainagg.CodeValidation, op, fmt.Errorf("scope %d: %w", i+1, err))
		}
		if seen[in.SerialNo] {
			return 0, domainagg.Validation(op, "s_no %d appears twice in the seed", in.SerialNo)
		}
		seen[in.SerialNo] = true
		rows = append(rows, in.model(uuid.Nil))
	}
	if err := ss.repo.Upsert(ctx, nil, rows); err != nil {
		return 0, dataagg.MapError(op, err)
	}
	ss.log.Info("scope seed applied", "rows", len(rows))
	return len(rows), nil
}
