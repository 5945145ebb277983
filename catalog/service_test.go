package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/marketplace/models"
	"goflare.io/marketplace/models/enum"
)

type recordingRepository struct {
	limit, offset uint64
}

func (r *recordingRepository) GetEntity(ctx context.Context, entityType enum.EntityType, id, storeID uint64) (models.Entity, error) {
	return nil, ErrNotFound
}

func (r *recordingRepository) ListEntities(ctx context.Context, entityType enum.EntityType, storeID uint64, limit, offset uint64) ([]models.Entity, error) {
	r.limit, r.offset = limit, offset
	return nil, nil
}

func TestListEntitiesClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit uint64
		want  uint64
	}{
		{"default", 0, DefaultLimit},
		{"within range", 50, 50},
		{"above max", 1000, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingRepository{}
			svc := NewService(repo, zap.NewNop())

			_, err := svc.ListEntities(context.Background(), enum.EntityTypeSide, 1, tt.limit, 40)
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.limit)
			assert.Equal(t, uint64(40), repo.offset)
		})
	}
}
