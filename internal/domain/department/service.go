package department

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string, description *string) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	d := &Department{Name: name, Description: description}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("department %q already exists", name)
		}
		return nil, apperr.Internal(err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("department not found")
		}
		return nil, apperr.Internal(err)
	}
	return d, nil
}

// ResolveName finds a department by its display name; appointment booking
// uses it to turn a free-text department into an id.
func (s *Service) ResolveName(ctx context.Context, name string) (*Department, error) {
	d, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("department %q not found", name)
		}
		return nil, apperr.Internal(err)
	}
	return d, nil
}
