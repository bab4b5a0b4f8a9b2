package services

import (
	"context"

	"github.com/gradtrack/apiserver/internal/store"
	"github.com/gradtrack/apiserver/types"
)

// ProgramRepository defines read operations over the program catalog.
type ProgramRepository interface {
	Get(ctx context.Context, id int) (types.Program, error)
	List(ctx context.Context, filter store.ProgramFilter, offset, limit int) ([]types.Program, int, error)
	FilterOptions(ctx context.Context) (countries, universities []string, err error)
}

// ProgramService encapsulates catalog use-cases.
type ProgramService struct {
	repo ProgramRepository
}

func NewProgramService(repo ProgramRepository) *ProgramService {
	return &ProgramService{repo: repo}
}

func (s *ProgramService) Get(ctx context.Context, id int) (types.Program, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProgramService) List(ctx context.Context, filter store.ProgramFilter, offset, limit int) ([]types.Program, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *ProgramService) FilterOptions(ctx context.Context) (countries, universities []string, err error) {
	return s.repo.FilterOptions(ctx)
}
