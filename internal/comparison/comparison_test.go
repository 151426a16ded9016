package comparison

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage"
	"github.com/utafrali/EcommerceGo/storefront/internal/storage/memory"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

func p(id int64) domain.Product {
	return domain.Product{
		ID:            domain.ProductID(id),
		Name:          "P" + domain.ProductID(id).String(),
		Price:         decimal.NewFromInt(id * 10),
		Category:      "Electronics",
		StockQuantity: 3,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(context.Background(), memory.New().Namespace("s"), nil, logger.Discard())
}

func TestAdd_FifthProductIsRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 4; id++ {
		require.NoError(t, s.Add(ctx, p(id)))
	}
	assert.False(t, s.CanAddMore())

	err := s.Add(ctx, p(5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLimitExceeded))
	assert.Equal(t, ErrCodeComparisonFull, apperrors.Code(err))
	assert.Equal(t, "You can compare up to 4 products", apperrors.Message(err))
	assert.Equal(t, 4, s.Count())
	assert.False(t, s.Contains(5))
}

func TestAdd_DuplicateIsRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, p(1)))
	before := s.Items()

	err := s.Add(ctx, p(1))
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.Equal(t, "Product is already in comparison", apperrors.Message(err))
	assert.Equal(t, before, s.Items())
}

func TestAdd_DuplicateCheckedBeforeCapacity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for id := int64(1); id <= 4; id++ {
		require.NoError(t, s.Add(ctx, p(id)))
	}

	err := s.Add(ctx, p(2))
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, p(1)))
	require.NoError(t, s.Add(ctx, p(2)))

	assert.True(t, s.Remove(ctx, 1))
	assert.False(t, s.Remove(ctx, 1))
	assert.Equal(t, 1, s.Count())
	assert.True(t, s.CanAddMore())

	s.Clear(ctx)
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Items())
}

func TestCountNeverExceedsMax(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := int64(i%7 + 1)
		if i%3 == 0 {
			s.Remove(ctx, domain.ProductID(id))
		} else {
			_ = s.Add(ctx, p(id))
		}
		require.LessOrEqual(t, s.Count(), MaxItems)
	}
}

func TestPersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	backend := memory.New().Namespace("s")

	s := NewStore(ctx, backend, nil, logger.Discard())
	require.NoError(t, s.Add(ctx, p(3)))
	require.NoError(t, s.Add(ctx, p(1)))

	reloaded := NewStore(ctx, backend, nil, logger.Discard())
	items := reloaded.Items()
	require.Len(t, items, 2)
	assert.Equal(t, domain.ProductID(3), items[0].ID)
	assert.Equal(t, domain.ProductID(1), items[1].ID)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(30)))
}

func TestLoadDropsDuplicatesAndOverflow(t *testing.T) {
	ctx := context.Background()
	backend := memory.New().Namespace("s")
	raw := `[{"id":1,"name":"a"},{"id":1,"name":"a"},{"id":2,"name":"b"},{"id":3,"name":"c"},{"id":4,"name":"d"},{"id":5,"name":"e"}]`
	require.NoError(t, backend.Set(ctx, storage.KeyComparison, []byte(raw)))

	s := NewStore(ctx, backend, nil, logger.Discard())
	assert.Equal(t, 4, s.Count())
	assert.False(t, s.Contains(5))
}
