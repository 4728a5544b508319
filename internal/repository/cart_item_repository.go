package repository

import (
	"context"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

// チェックアウト用のカート明細（商品の現在価格・在庫をJOINした結果）
type CheckoutLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
	Stock     int64
}

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品はプラス
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
	// チェックアウト・カートクリアで全削除
	DeleteAllByUserID(ctx context.Context, userID int64) error

	// カート明細と商品（価格・在庫）をJOINして返す。
	// トランザクション内で呼ぶと対象商品の行をロックする。
	ListCheckoutLines(ctx context.Context, userID int64) ([]CheckoutLine, error)
}
