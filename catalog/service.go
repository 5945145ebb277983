package catalog

import (
	"context"

	"go.uber.org/zap"

	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service interface {
	GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (models.Entity, error)
	ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]models.Entity, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func (s *service) GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (models.Entity, error) {
	return s.repo.GetEntity(ctx, entityType, id, storeID)
}

// ListEntities clamps limit to (0, MaxLimit]; zero means DefaultLimit.
func (s *service) ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]models.Entity, error) {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	return s.repo.ListEntities(ctx, entityType, storeID, limit, offset)
}
