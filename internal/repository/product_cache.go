package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 商品一覧のcache-aside用キャッシュ。
// TTL失効以外の無効化はしない。
type ProductCache interface {
	// 第二戻り値はヒットしたかどうか
	GetProductList(ctx context.Context) ([]model.Product, bool, error)
	SetProductList(ctx context.Context, products []model.Product, ttl time.Duration) error
}
