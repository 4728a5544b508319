package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) GetProductList(ctx context.Context) ([]model.Product, bool, error) {
	args := m.Called(ctx)
	var products []model.Product
	if args.Get(0) != nil {
		products = args.Get(0).([]model.Product)
	}
	return products, args.Bool(1), args.Error(2)
}

func (m *MockProductCache) SetProductList(ctx context.Context, products []model.Product, ttl time.Duration) error {
	args := m.Called(ctx, products, ttl)
	return args.Error(0)
}

// キャッシュヒットならDBは読まない
func TestListProductsCacheHit(t *testing.T) {
	productRepo := new(MockProductRepository)
	cache := new(MockProductCache)
	uc := usecase.NewProductUsecase(productRepo, cache)

	cached := []model.Product{{ID: 1, Name: "Widget", Price: dec("29.99"), IsActive: true}}
	cache.On("GetProductList", mock.Anything).Return(cached, true, nil)

	out, err := uc.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	productRepo.AssertNotCalled(t, "ListActive", mock.Anything)
}

// ミスならDBから読んでTTL付きで書き戻す
func TestListProductsCacheMiss(t *testing.T) {
	productRepo := new(MockProductRepository)
	cache := new(MockProductCache)
	uc := usecase.NewProductUsecase(productRepo, cache)

	fromDB := []model.Product{
		{ID: 1, Name: "Widget", Price: dec("29.99"), IsActive: true},
		{ID: 2, Name: "Gadget", Price: dec("9.99"), IsActive: true},
	}
	cache.On("GetProductList", mock.Anything).Return(nil, false, nil)
	productRepo.On("ListActive", mock.Anything).Return(fromDB, nil)
	cache.On("SetProductList", mock.Anything, fromDB, 5*time.Minute).Return(nil)

	out, err := uc.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	cache.AssertExpectations(t)
}

// キャッシュ障害はDBへフォールバック
func TestListProductsCacheErrorFallsBack(t *testing.T) {
	productRepo := new(MockProductRepository)
	cache := new(MockProductCache)
	uc := usecase.NewProductUsecase(productRepo, cache)

	fromDB := []model.Product{{ID: 1, Name: "Widget", Price: dec("29.99"), IsActive: true}}
	cache.On("GetProductList", mock.Anything).Return(nil, false, errors.New("redis down"))
	productRepo.On("ListActive", mock.Anything).Return(fromDB, nil)
	cache.On("SetProductList", mock.Anything, fromDB, 5*time.Minute).Return(errors.New("redis down"))

	out, err := uc.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
}

// 非公開の商品詳細は404
func TestGetProductDetailInactive(t *testing.T) {
	productRepo := new(MockProductRepository)
	cache := new(MockProductCache)
	uc := usecase.NewProductUsecase(productRepo, cache)

	productRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, IsActive: false}, nil)

	_, err := uc.GetProductDetail(context.Background(), 1)

	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestSearchProductsEmptyQuery(t *testing.T) {
	productRepo := new(MockProductRepository)
	cache := new(MockProductCache)
	uc := usecase.NewProductUsecase(productRepo, cache)

	_, err := uc.SearchProducts(context.Background(), "   ")

	require.Error(t, err)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	productRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}
