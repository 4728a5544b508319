package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *MockOrderItemRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

type MockCartItemRepository struct {
	mock.Mock
}

func (m *MockCartItemRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	args := m.Called(ctx, userID, productID, addQty)
	return args.Error(0)
}

func (m *MockCartItemRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *MockCartItemRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *MockCartItemRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	return args.Get(0).(model.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartItemRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCartItemRepository) ListCheckoutLines(ctx context.Context, userID int64) ([]repo.CheckoutLine, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repo.CheckoutLine), args.Error(1)
}

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListActive(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, query string) ([]model.Product, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]model.Product), args.Error(1)
}

// トランザクション内のrepo一式（全部モック）
type mockTxRepos struct {
	orders     *MockOrderRepository
	orderItems *MockOrderItemRepository
	cartItems  *MockCartItemRepository
	inventory  *MockInventoryRepository
	products   *MockProductRepository
}

func newMockTxRepos() *mockTxRepos {
	return &mockTxRepos{
		orders:     new(MockOrderRepository),
		orderItems: new(MockOrderItemRepository),
		cartItems:  new(MockCartItemRepository),
		inventory:  new(MockInventoryRepository),
		products:   new(MockProductRepository),
	}
}

func (r *mockTxRepos) Orders() repo.OrderRepository         { return r.orders }
func (r *mockTxRepos) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *mockTxRepos) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *mockTxRepos) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *mockTxRepos) Products() repo.ProductRepository     { return r.products }

// fnの返したエラーをそのまま返す（commit/rollbackの代わり）
type mockTxManager struct {
	repos    repo.TxRepos
	beginErr error
	called   bool
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.called = true
	if m.beginErr != nil {
		return m.beginErr
	}
	return fn(m.repos)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Scenario A: 正常系。合計は59.98、在庫減算とカートクリアまで実行される。
func TestCheckoutSuccess(t *testing.T) {
	userID := int64(42)
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.cartItems.On("ListCheckoutLines", mock.Anything, userID).Return([]repo.CheckoutLine{
		{ProductID: 101, Quantity: 2, UnitPrice: dec("29.99"), Stock: 10},
	}, nil)

	r.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == userID &&
			o.Status == model.OrderStatusPending &&
			o.TotalAmount.Equal(dec("59.98")) &&
			o.ShippingAddress == "1 Main St"
	})).Return(int64(7), nil)

	r.orderItems.On("CreateBulk", mock.Anything, int64(7), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 &&
			items[0].ProductID == 101 &&
			items[0].Quantity == 2 &&
			items[0].UnitPrice.Equal(dec("29.99"))
	})).Return(nil)

	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(101), int64(2)).Return(true, nil)
	r.cartItems.On("DeleteAllByUserID", mock.Anything, userID).Return(nil)

	out, err := uc.Checkout(context.Background(), userID, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), out.OrderID)
	assert.Equal(t, "59.98", out.TotalAmount.StringFixed(2))

	r.orders.AssertExpectations(t)
	r.orderItems.AssertExpectations(t)
	r.inventory.AssertExpectations(t)
	r.cartItems.AssertExpectations(t)
}

// 合計は明細ごとの qty × unit_price をそのまま足す（浮動小数の誤差なし）。
func TestCheckoutTotalToTheCent(t *testing.T) {
	userID := int64(1)
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.cartItems.On("ListCheckoutLines", mock.Anything, userID).Return([]repo.CheckoutLine{
		{ProductID: 1, Quantity: 3, UnitPrice: dec("19.99"), Stock: 5},
		{ProductID: 2, Quantity: 1, UnitPrice: dec("0.01"), Stock: 1},
	}, nil)

	r.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.TotalAmount.Equal(dec("59.98"))
	})).Return(int64(9), nil)
	r.orderItems.On("CreateBulk", mock.Anything, int64(9), mock.Anything).Return(nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(3)).Return(true, nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(2), int64(1)).Return(true, nil)
	r.cartItems.On("DeleteAllByUserID", mock.Anything, userID).Return(nil)

	out, err := uc.Checkout(context.Background(), userID, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.NoError(t, err)
	assert.True(t, out.TotalAmount.Equal(dec("59.98")))
	r.orders.AssertExpectations(t)
}

// Scenario B: 在庫不足。最初に足りない商品のIDを返し、書き込みは一切しない。
func TestCheckoutInsufficientStock(t *testing.T) {
	userID := int64(42)
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.cartItems.On("ListCheckoutLines", mock.Anything, userID).Return([]repo.CheckoutLine{
		{ProductID: 101, Quantity: 5, UnitPrice: dec("10.00"), Stock: 3},
	}, nil)

	_, err := uc.Checkout(context.Background(), userID, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "insufficient stock for product 101", he.Message)

	r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	r.orderItems.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
	r.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	r.cartItems.AssertNotCalled(t, "DeleteAllByUserID", mock.Anything, mock.Anything)
}

// 在庫チェックは明細の順に見て、最初に足りない商品で止まる。
func TestCheckoutInsufficientStockFirstOffender(t *testing.T) {
	userID := int64(42)
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.cartItems.On("ListCheckoutLines", mock.Anything, userID).Return([]repo.CheckoutLine{
		{ProductID: 7, Quantity: 9, UnitPrice: dec("1.00"), Stock: 1},
		{ProductID: 8, Quantity: 9, UnitPrice: dec("1.00"), Stock: 1},
	}, nil)

	_, err := uc.Checkout(context.Background(), userID, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.Error(t, err)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, "insufficient stock for product 7", he.Message)
}

// Scenario C: 空カート。何度呼んでも同じ結果、書き込みゼロ。
func TestCheckoutEmptyCart(t *testing.T) {
	userID := int64(42)
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.cartItems.On("ListCheckoutLines", mock.Anything, userID).Return([]repo.CheckoutLine{}, nil)

	for i := 0; i < 3; i++ {
		_, err := uc.Checkout(context.Background(), userID, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

		require.Error(t, err)
		he, ok := usecase.AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Status)
		assert.Equal(t, "cart is empty", he.Message)
	}

	r.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	r.cartItems.AssertNotCalled(t, "DeleteAllByUserID", mock.Anything, mock.Anything)
}

// Scenario D: 配送先が空ならトランザクションすら開かない。
func TestCheckoutMissingAddress(t *testing.T) {
	tm := &mockTxManager{}
	uc := usecase.NewOrderUsecase(tm)

	_, err := uc.Checkout(context.Background(), int64(42), usecase.CheckoutInput{ShippingAddress: "   "})

	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.False(t, tm.called, "should not open a transaction")
}

func TestCheckoutUnauthorized(t *testing.T) {
	tm := &mockTxManager{}
	uc := usecase.NewOrderUsecase(tm)

	_, err := uc.Checkout(context.Background(), 0, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.False(t, tm.called)
}

// 条件付きUPDATEがfalseを返したら（同時チェックアウトに負けた）、
// エラーで抜けてトランザクションごと巻き戻る。
func TestCheckoutConcurrentDecrementLoses(t *testing.T) {
	userID := int64(42)
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.cartItems.On("ListCheckoutLines", mock.Anything, userID).Return([]repo.CheckoutLine{
		{ProductID: 101, Quantity: 2, UnitPrice: dec("29.99"), Stock: 10},
	}, nil)
	r.orders.On("Create", mock.Anything, mock.Anything).Return(int64(7), nil)
	r.orderItems.On("CreateBulk", mock.Anything, int64(7), mock.Anything).Return(nil)
	r.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(101), int64(2)).Return(false, nil)

	_, err := uc.Checkout(context.Background(), userID, usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.Error(t, err)
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "insufficient stock for product 101", he.Message)

	r.cartItems.AssertNotCalled(t, "DeleteAllByUserID", mock.Anything, mock.Anything)
}

// トランザクション自体の失敗はそのまま伝播する（自動リトライしない）。
func TestCheckoutTxFailurePropagates(t *testing.T) {
	txErr := errors.New("connection reset")
	tm := &mockTxManager{beginErr: txErr}
	uc := usecase.NewOrderUsecase(tm)

	_, err := uc.Checkout(context.Background(), int64(42), usecase.CheckoutInput{ShippingAddress: "1 Main St"})

	require.ErrorIs(t, err, txErr)
}

func TestGetMyOrderDetailOfOtherUser(t *testing.T) {
	r := newMockTxRepos()
	tm := &mockTxManager{repos: r}
	uc := usecase.NewOrderUsecase(tm)

	r.orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{ID: 7, UserID: 99}, nil)

	_, err := uc.GetMyOrderDetail(context.Background(), int64(42), int64(7))

	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	//他人の注文は404
	assert.Equal(t, http.StatusNotFound, he.Status)
}
