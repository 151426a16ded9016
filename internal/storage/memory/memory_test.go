package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

func TestBucket_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := s.Namespace("a"), s.Namespace("b")

	require.NoError(t, a.Set(ctx, "cart", []byte(`[1]`)))

	got, err := a.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), got)

	_, err = b.Get(ctx, "cart")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 1, s.Len("a"))
	assert.Equal(t, 0, s.Len("b"))
}

func TestBucket_CopiesValues(t *testing.T) {
	ctx := context.Background()
	bucket := New().Namespace("a")

	in := []byte(`[1]`)
	require.NoError(t, bucket.Set(ctx, "k", in))
	in[1] = '9'

	out, err := bucket.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = '7'

	again, err := bucket.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(again))
}

func TestBucket_DeleteAndDrop(t *testing.T) {
	ctx := context.Background()
	s := New()
	bucket := s.Namespace("a")

	require.NoError(t, bucket.Set(ctx, "x", []byte(`1`)))
	require.NoError(t, bucket.Set(ctx, "y", []byte(`2`)))
	require.NoError(t, bucket.Delete(ctx, "x"))
	require.NoError(t, bucket.Delete(ctx, "missing"))
	assert.Equal(t, 1, s.Len("a"))

	s.DropNamespace("a")
	assert.Equal(t, 0, s.Len("a"))
	assert.NoError(t, bucket.Ping(ctx))
}
