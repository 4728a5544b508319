package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 商品一覧キャッシュのTTL（5分）
const productCacheTTL = 5 * time.Minute

type ProductUsecase struct {
	productRepo repo.ProductRepository
	cache       repo.ProductCache
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, cache repo.ProductCache) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		cache:       cache,
	}
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
}

// ListProducts は公開商品の一覧。
// cache-aside：Redisにあればそれを返し、無ければDBから読んでTTL付きで書く。
// 失効以外の無効化はしない（在庫減算でもパージしない）。
func (u *ProductUsecase) ListProducts(ctx context.Context) (ProductListOutput, error) {
	if cached, hit, err := u.cache.GetProductList(ctx); err == nil && hit {
		zap.L().Debug("products cache hit")
		return ProductListOutput{Items: cached, Total: len(cached)}, nil
	} else if err != nil {
		//キャッシュ障害はDBへフォールバック
		zap.L().Warn("products cache get failed", zap.Error(err))
	}

	items, err := u.productRepo.ListActive(ctx)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cache.SetProductList(ctx, items, productCacheTTL); err != nil {
		zap.L().Warn("products cache set failed", zap.Error(err))
	}

	return ProductListOutput{Items: items, Total: len(items)}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

// SearchProducts は名前・説明の部分一致検索（キャッシュは通さない）。
func (u *ProductUsecase) SearchProducts(ctx context.Context, query string) (ProductListOutput, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "query required")
	}
	if len(q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "query too long")
	}

	items, err := u.productRepo.Search(ctx, q)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: len(items)}, nil
}
