package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	types "github.com/yungbote/labflow-backend/internal/domain"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type ClientInput struct {
	Name      string `json:"client_name" validate:"required"`
	ContactNo string `json:"contact_no" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Address   string `json:"address" validate:"required"`
}

type ClientService interface {
	Create(ctx context.Context, in ClientInput) (*types.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Client, error)
	List(ctx context.Context, search string) ([]*types.Client, error)
	Update(ctx context.Context, id uuid.UUID, in ClientInput) (*types.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type clientService struct {
	log     *logger.Logger
	clients repos.ClientRepo
}

func NewClientService(log *logger.Logger, clients repos.ClientRepo) ClientService {
	return &clientService{log: log.With("service", "ClientService"), clients: clients}
}

func (in *ClientInput) normalize(op string) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ContactNo = strings.TrimSpace(in.ContactNo)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	if err := labtest.Validator().Struct(in); err != nil {
		return dataagg.MapError(op, err)
	}
	return nil
}

func (cs *clientService) Create(ctx context.Context, in ClientInput) (*types.Client, error) {
	const op = "client.create"
	if err := in.normalize(op); err != nil {
		return nil, err
	}
	dup, err := cs.clients.EmailExists(ctx, nil, in.Email, uuid.Nil)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if dup {
		return nil, domainagg.Conflict(op, "a client with email %s already exists", in.Email)
	}
	c := &types.Client{Name: in.Name, ContactNo: in.ContactNo, Email: in.Email, Address: in.Address}
	if err := cs.clients.Create(ctx, nil, c); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	cs.log.Info("client created", "client_id", c.ID, "client_name", c.Name)
	return c, nil
}

func (cs *clientService) Get(ctx context.Context, id uuid.UUID) (*types.Client, error) {
	c, err := cs.clients.GetByID(ctx, nil, id)
	if err != nil {
		return nil, dataagg.MapError("client.get", err)
	}
	return c, nil
}

func (cs *clientService) List(ctx context.Context, search string) ([]*types.Client, error) {
	out, err := cs.clients.List(ctx, nil, search)
	if err != nil {
		return nil, dataagg.MapError("client.list", err)
	}
	return out, nil
}

func (cs *clientService) Update(ctx context.Context, id uuid.UUID, in ClientInput) (*types.Client, error) {
	const op = "client.update"
	if err := in.normalize(op); err != nil {
		return nil, err
	}
	dup, err := cs.clients.EmailExists(ctx, nil, in.Email, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if dup {
		return nil, domainagg.Conflict(op, "a client with email %s already exists", in.Email)
	}
	c := &types.Client{ID: id, Name: in.Name, ContactNo: in.ContactNo, Email: in.Email, Address: in.Address}
	if err := cs.clients.Update(ctx, nil, c); err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return cs.Get(ctx, id)
}

func (cs *clientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := cs.clients.Delete(ctx, nil, id); err != nil {
		return dataagg.MapError("client.delete", err)
	}
	cs.log.Info("client deleted", "client_id", id)
	return nil
}
