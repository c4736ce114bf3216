package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeOwnershipSource struct {
	orderIDs    []int64
	orderErr    error
	columns     []string
	columnsErr  error
	byColumn    map[string][]int64
	byColumnErr error

	orderCalls  int
	columnCalls []string
}

func (f *fakeOwnershipSource) OrderProductIDs(_ context.Context, _ int64, _ time.Time) ([]int64, error) {
	f.orderCalls++
	return f.orderIDs, f.orderErr
}

func (f *fakeOwnershipSource) ProductColumns(_ context.Context) ([]string, error) {
	return f.columns, f.columnsErr
}

func (f *fakeOwnershipSource) ProductIDsByColumn(_ context.Context, column string, _ int64) ([]int64, error) {
	f.columnCalls = append(f.columnCalls, column)
	if f.byColumnErr != nil {
		return nil, f.byColumnErr
	}
	return f.byColumn[column], nil
}

func TestOwnedProductsOrderDerivedWins(t *testing.T) {
	src := &fakeOwnershipSource{
		orderIDs: []int64{4, 5},
		byColumn: map[string][]int64{"vendor_id": {9}},
	}
	r := NewProductResolver(src, true)

	ids, err := r.OwnedProducts(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5}, ids)
	// First nonempty strategy short-circuits the rest of the chain.
	require.Empty(t, src.columnCalls)
}

func TestOwnedProductsIntrospectionFallback(t *testing.T) {
	src := &fakeOwnershipSource{
		columns:  []string{"id", "name", "price", "created_by_user", "sku"},
		byColumn: map[string][]int64{"created_by_user": {11, 12}},
	}
	r := NewProductResolver(src, true)

	ids, err := r.OwnedProducts(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []int64{11, 12}, ids)
	require.Equal(t, []string{"created_by_user"}, src.columnCalls)
}

func TestOwnedProductsIntrospectionSkipsUnrelatedColumns(t *testing.T) {
	src := &fakeOwnershipSource{
		columns:  []string{"id", "name", "vendor_id", "creator_ref"},
		byColumn: map[string][]int64{"creator_ref": {3}},
	}
	r := NewProductResolver(src, true)

	ids, err := r.OwnedProducts(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, ids)
	// vendor_id was tried first as an introspection candidate, then creator_ref.
	require.Equal(t, []string{"vendor_id", "creator_ref"}, src.columnCalls)
}

func TestOwnedProductsEmptyEverywhereIsNotAnError(t *testing.T) {
	src := &fakeOwnershipSource{columns: []string{"id", "name"}}
	r := NewProductResolver(src, true)

	ids, err := r.OwnedProducts(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, ids)
	// Chain fell all the way through to the canonical query.
	require.Equal(t, []string{"vendor_id"}, src.columnCalls)
}

func TestOwnedProductsLegacyFallbackOff(t *testing.T) {
	src := &fakeOwnershipSource{
		orderIDs: []int64{4, 5},
		byColumn: map[string][]int64{"vendor_id": {9}},
	}
	r := NewProductResolver(src, false)

	ids, err := r.OwnedProducts(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []int64{9}, ids)
	require.Zero(t, src.orderCalls)
	require.Equal(t, []string{"vendor_id"}, src.columnCalls)
}

func TestOwnedProductsPropagatesStoreErrors(t *testing.T) {
	srcErr := &StoreError{Op: "order scan", Err: errors.New("connection reset")}
	src := &fakeOwnershipSource{orderErr: srcErr}
	r := NewProductResolver(src, true)

	_, err := r.OwnedProducts(context.Background(), 7)
	require.Error(t, err)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	// A hard failure stops the chain; no silent fallback to stale strategies.
	require.Empty(t, src.columnCalls)
}
