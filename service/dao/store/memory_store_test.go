package store

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/txshield/service/dao"
	"github.com/viant/txshield/service/dao/criteria"
)

type record struct {
	ID    string
	State string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	srv := NewMemoryStore[string, record](func(r *record) string { return r.ID },
		WithFilter[string, record](func(r *record, parameters []*dao.Parameter) bool {
			return criteria.FilterByState(r.State, parameters)
		}))

	require.NoError(t, srv.Save(ctx, &record{ID: "s1", State: "pendingReview"}))
	require.NoError(t, srv.Save(ctx, &record{ID: "s2", State: "approved"}))
	require.NoError(t, srv.Save(ctx, &record{ID: "s3", State: "manualTriage"}))
	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, srv.Save(ctx, &record{}), dao.ErrInvalidID)

	loaded, err := srv.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "approved", loaded.State)

	_, err = srv.Load(ctx, "missing")
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	all, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	waiting, err := srv.List(ctx, dao.NewParameter(criteria.ParamState, "pendingReview", "manualTriage"))
	require.NoError(t, err)
	assert.Len(t, waiting, 2)

	require.NoError(t, srv.Delete(ctx, "s1"))
	require.NoError(t, srv.Delete(ctx, "s1"))
	assert.Equal(t, 2, srv.Len())
}
