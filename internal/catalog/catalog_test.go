package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pasal/internal/commerce"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) Products(ctx context.Context, q commerce.ProductQuery) ([]commerce.Product, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Product), args.Error(1)
}

func (m *mockAPI) ProductByID(ctx context.Context, productID int64) (*commerce.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Product), args.Error(1)
}

func (m *mockAPI) Categories(ctx context.Context, pageNumber, pageSize int) ([]commerce.Category, error) {
	args := m.Called(ctx, pageNumber, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Category), args.Error(1)
}

func (m *mockAPI) ProductsByCategory(ctx context.Context, categoryID int64, pageNumber, pageSize int) ([]commerce.Product, error) {
	args := m.Called(ctx, categoryID, pageNumber, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Product), args.Error(1)
}

// A nil cache degrades to straight API calls.
func TestProductsWithoutCache(t *testing.T) {
	api := new(mockAPI)
	svc := NewService(api, nil, 0, zap.NewNop().Sugar())

	q := commerce.ProductQuery{PageNumber: 1, PageSize: 20}
	api.On("Products", mock.Anything, q).
		Return([]commerce.Product{{ID: 1, Name: "Gundruk"}}, nil).Once()

	products, err := svc.Products(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Gundruk", products[0].Name)
	api.AssertExpectations(t)
}

func TestProductByIDWithoutCache(t *testing.T) {
	api := new(mockAPI)
	svc := NewService(api, nil, 0, zap.NewNop().Sugar())

	api.On("ProductByID", mock.Anything, int64(5)).
		Return(&commerce.Product{ID: 5, Name: "Chiya"}, nil).Once()

	p, err := svc.ProductByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Chiya", p.Name)
}

func TestProductsAPIErrorPropagates(t *testing.T) {
	api := new(mockAPI)
	svc := NewService(api, nil, 0, zap.NewNop().Sugar())

	q := commerce.ProductQuery{PageNumber: 1, PageSize: 20}
	api.On("Products", mock.Anything, q).
		Return(nil, fmt.Errorf("upstream down")).Once()

	_, err := svc.Products(context.Background(), q)
	assert.Error(t, err)
}

func TestProductsKeyVariesByQuery(t *testing.T) {
	a := productsKey(commerce.ProductQuery{PageNumber: 1, PageSize: 20})
	b := productsKey(commerce.ProductQuery{PageNumber: 2, PageSize: 20})
	c := productsKey(commerce.ProductQuery{PageNumber: 1, PageSize: 20, SearchTerm: "tea"})
	d := productsKey(commerce.ProductQuery{PageNumber: 1, PageSize: 20, OnSaleOnly: true})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}
