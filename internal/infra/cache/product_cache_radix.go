package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"app/internal/domain/model"

	radix "github.com/mediocregopher/radix/v3"
)

const productListKey = "products:all"

// 商品一覧のcache-aside（JSONで保存、SETEXでTTL）
type ProductCacheRadix struct {
	client radix.Client
}

// DI
func NewProductCacheRadix(client radix.Client) *ProductCacheRadix {
	return &ProductCacheRadix{client: client}
}

func (c *ProductCacheRadix) GetProductList(ctx context.Context) ([]model.Product, bool, error) {
	var raw string
	mn := radix.MaybeNil{Rcv: &raw}

	if err := c.client.Do(radix.Cmd(&mn, "GET", productListKey)); err != nil {
		return nil, false, err
	}
	if mn.Nil {
		return nil, false, nil
	}

	var products []model.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		//壊れたキャッシュはミス扱い
		return nil, false, nil
	}
	return products, true, nil
}

func (c *ProductCacheRadix) SetProductList(ctx context.Context, products []model.Product, ttl time.Duration) error {
	b, err := json.Marshal(products)
	if err != nil {
		return err
	}

	seconds := strconv.Itoa(int(ttl.Seconds()))
	return c.client.Do(radix.Cmd(nil, "SETEX", productListKey, seconds, string(b)))
}
