package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

func testMethod() *catalog.PaymentMethod {
	return &catalog.PaymentMethod{
		ID:            uuid.New(),
		ProviderID:    "11",
		Provider:      catalog.ProviderPaydisini,
		Type:          catalog.MethodVirtualAccount,
		Name:          "BCA Virtual Account",
		Fees:          1000,
		FeesInPercent: 0,
		MinAmount:     5000,
		MaxAmount:     1000000,
	}
}

func testProduct() *catalog.Product {
	return &catalog.Product{
		ID:                uuid.New(),
		Name:              "100 Diamonds",
		Price:             10000,
		PriceFromProvider: 8000,
		Stock:             10,
		IsAvailable:       true,
		ServiceName:       "Mobile Legends",
	}
}

// runAtomicPassthrough makes the mocked store execute the atomic unit
// against the given transactional handle.
func runAtomicPassthrough(store *checkout.MockStore, tx checkout.StoreTx) {
	store.EXPECT().
		RunAtomic(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ time.Duration, fn func(context.Context, checkout.StoreTx) error) error {
			return fn(ctx, tx)
		})
}

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := checkout.NewMockStore(ctrl)
	tx := checkout.NewMockStoreTx(ctrl)
	gw := checkout.NewMockPaymentGateway(ctrl)
	svc := checkout.NewService(store, gw)

	userID := uuid.New()
	method := testMethod()
	product := testProduct()
	expired := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
	store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(product, nil)
	store.EXPECT().TransactionExists(gomock.Any(), gomock.Any()).Return(false, nil)
	runAtomicPassthrough(store, tx)

	tx.EXPECT().DecrementStock(gomock.Any(), product.ID, 2).Return(nil)

	var trxID string

	tx.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, trx *checkout.Transaction) error {
			trxID = trx.ID

			// fees = round(10000 * 0/100) + 1000; price = 10000 * 2
			assert.Equal(t, int64(1000), trx.Fees)
			assert.Equal(t, int64(20000), trx.Price)
			assert.Equal(t, int64(21000), trx.TotalPrice)
			assert.Equal(t, checkout.OrderPending, trx.OrderStatus)
			assert.Equal(t, checkout.PaidPending, trx.PaidStatus)
			assert.Equal(t, userID, trx.UserID)
			assert.Equal(t, "Mobile Legends", trx.ProductService)

			trx.CreatedAt = time.Now()

			return nil
		})

	gw.EXPECT().
		CreatePayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req checkout.PaymentRequest) (*checkout.PaymentReceipt, error) {
			assert.Equal(t, trxID, req.TrxID)
			assert.Equal(t, int64(21000), req.Amount)
			assert.Equal(t, "100 Diamonds", req.Description)
			assert.Equal(t, catalog.ProviderPaydisini, req.Provider)

			return &checkout.PaymentReceipt{
				Amount:  21000,
				Fee:     500,
				Expired: expired,
				PayCode: "8808123456",
				Ref:     "PD12345",
			}, nil
		})

	tx.EXPECT().
		FinalizeTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, patch checkout.FinalizePatch) (*checkout.Transaction, error) {
			assert.Equal(t, trxID, id)
			assert.Equal(t, int64(1500), patch.Fees)
			assert.Equal(t, int64(21000), patch.TotalPrice)
			// profit = 21000 - 500 - 8000*2
			assert.Equal(t, int64(4500), patch.Profit)
			assert.Equal(t, expired, patch.ExpiredAt)
			assert.Equal(t, "8808123456", patch.PaymentNumber)

			return &checkout.Transaction{ID: id, TotalPrice: patch.TotalPrice, Profit: patch.Profit}, nil
		})

	got, err := svc.Create(context.Background(), userID, checkout.CreateParams{
		PaymentMethodID: method.ID,
		ProductID:       product.ID,
		ProductQty:      2,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, trxID, got.ID)
	assert.Equal(t, int64(4500), got.Profit)
}

func TestService_Create_Rejections(t *testing.T) {
	method := testMethod()
	product := testProduct()

	type testCase struct {
		name      string
		qty       int
		setupMock func(store *checkout.MockStore)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "PaymentMethodMissing",
			qty:  1,
			setupMock: func(store *checkout.MockStore) {
				store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(nil, catalog.ErrNotFound)
			},
			wantErr: checkout.ErrMethodUnavailable,
		},
		{
			name: "ProductMissing",
			qty:  1,
			setupMock: func(store *checkout.MockStore) {
				store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
				store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(nil, catalog.ErrNotFound)
			},
			wantErr: checkout.ErrProductUnavailable,
		},
		{
			name: "StockEmpty",
			qty:  1,
			setupMock: func(store *checkout.MockStore) {
				empty := testProduct()
				empty.ID = product.ID
				empty.Stock = 0

				store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
				store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(empty, nil)
			},
			wantErr: checkout.ErrStockEmpty,
		},
		{
			name: "StockBelowQuantity",
			qty:  5,
			setupMock: func(store *checkout.MockStore) {
				low := testProduct()
				low.ID = product.ID
				low.Stock = 3

				store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
				store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(low, nil)
			},
			wantErr: checkout.ErrStockEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := checkout.NewMockStore(ctrl)
			gw := checkout.NewMockPaymentGateway(ctrl)
			tt.setupMock(store)

			svc := checkout.NewService(store, gw)

			got, err := svc.Create(context.Background(), uuid.New(), checkout.CreateParams{
				PaymentMethodID: method.ID,
				ProductID:       product.ID,
				ProductQty:      tt.qty,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestService_Create_AmountOutOfBounds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := checkout.NewMockStore(ctrl)
	tx := checkout.NewMockStoreTx(ctrl)
	gw := checkout.NewMockPaymentGateway(ctrl)
	svc := checkout.NewService(store, gw)

	// totalPrice = 10000*1 + 1000 = 11000 >= maxAmount, strict bound.
	method := testMethod()
	method.MaxAmount = 10000
	product := testProduct()

	store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
	store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(product, nil)
	store.EXPECT().TransactionExists(gomock.Any(), gomock.Any()).Return(false, nil)
	runAtomicPassthrough(store, tx)

	got, err := svc.Create(context.Background(), uuid.New(), checkout.CreateParams{
		PaymentMethodID: method.ID,
		ProductID:       product.ID,
		ProductQty:      1,
	})
	assert.ErrorIs(t, err, checkout.ErrAmountOutOfRange)
	assert.Nil(t, got)
}

func TestService_Create_GatewayFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := checkout.NewMockStore(ctrl)
	tx := checkout.NewMockStoreTx(ctrl)
	gw := checkout.NewMockPaymentGateway(ctrl)
	svc := checkout.NewService(store, gw)

	method := testMethod()
	product := testProduct()

	store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
	store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(product, nil)
	store.EXPECT().TransactionExists(gomock.Any(), gomock.Any()).Return(false, nil)
	runAtomicPassthrough(store, tx)

	tx.EXPECT().DecrementStock(gomock.Any(), product.ID, 1).Return(nil)
	tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	gw.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("provider down"))

	// No finalize, no compensation: the atomic unit rolls the row back and
	// nothing external was created.
	got, err := svc.Create(context.Background(), uuid.New(), checkout.CreateParams{
		PaymentMethodID: method.ID,
		ProductID:       product.ID,
		ProductQty:      1,
	})
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestService_Create_CompensatesWhenFinalizeFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := checkout.NewMockStore(ctrl)
	tx := checkout.NewMockStoreTx(ctrl)
	gw := checkout.NewMockPaymentGateway(ctrl)
	svc := checkout.NewService(store, gw)

	method := testMethod()
	product := testProduct()

	store.EXPECT().GetPaymentMethod(gomock.Any(), method.ID).Return(method, nil)
	store.EXPECT().GetAvailableProduct(gomock.Any(), product.ID).Return(product, nil)
	store.EXPECT().TransactionExists(gomock.Any(), gomock.Any()).Return(false, nil)
	runAtomicPassthrough(store, tx)

	tx.EXPECT().DecrementStock(gomock.Any(), product.ID, 1).Return(nil)
	tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	var trxID string

	gw.EXPECT().
		CreatePayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req checkout.PaymentRequest) (*checkout.PaymentReceipt, error) {
			trxID = req.TrxID

			return &checkout.PaymentReceipt{Amount: 11000, Fee: 500, Expired: time.Now().Add(time.Hour)}, nil
		})

	tx.EXPECT().
		FinalizeTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("write failed"))

	gw.EXPECT().
		CancelPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req checkout.CancelRequest) error {
			assert.Equal(t, trxID, req.TrxID)
			assert.Equal(t, catalog.ProviderPaydisini, req.Provider)

			return nil
		}).
		Times(1)

	got, err := svc.Create(context.Background(), uuid.New(), checkout.CreateParams{
		PaymentMethodID: method.ID,
		ProductID:       product.ID,
		ProductQty:      1,
	})
	assert.Error(t, err)
	assert.Nil(t, got)
}

func pendingTransaction() *checkout.Transaction {
	return &checkout.Transaction{
		ID:          "1698400000000A1B2C3D4E5F60708",
		UserID:      uuid.New(),
		OrderStatus: checkout.OrderPending,
		PaidStatus:  checkout.PaidPending,
		PaymentMethod: &catalog.PaymentMethod{
			ID:       uuid.New(),
			Provider: catalog.ProviderDuitku,
		},
	}
}

func TestService_Cancel(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(store *checkout.MockStore, gw *checkout.MockPaymentGateway, trx *checkout.Transaction)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(store *checkout.MockStore, gw *checkout.MockPaymentGateway, trx *checkout.Transaction) {
				store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(trx, nil)
				gw.EXPECT().CancelPayment(gomock.Any(), checkout.CancelRequest{TrxID: trx.ID, Provider: catalog.ProviderDuitku}).Return(nil)
				store.EXPECT().UpdateStatus(gomock.Any(), trx.ID, checkout.OrderCancelled, checkout.PaidCancelled).Return(nil)
			},
			wantErr: nil,
		},
		{
			name: "NotFound",
			setupMock: func(store *checkout.MockStore, gw *checkout.MockPaymentGateway, trx *checkout.Transaction) {
				store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(nil, checkout.ErrNotFound)
			},
			wantErr: checkout.ErrNotFound,
		},
		{
			name: "AlreadyPaid",
			setupMock: func(store *checkout.MockStore, gw *checkout.MockPaymentGateway, trx *checkout.Transaction) {
				trx.PaidStatus = checkout.PaidPaid
				store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(trx, nil)
			},
			wantErr: checkout.ErrAlreadyPaid,
		},
		{
			name: "GatewayCancelFails",
			setupMock: func(store *checkout.MockStore, gw *checkout.MockPaymentGateway, trx *checkout.Transaction) {
				store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(trx, nil)
				gw.EXPECT().CancelPayment(gomock.Any(), gomock.Any()).Return(errors.New("provider down"))
			},
			wantErr: checkout.ErrCancelPayment,
		},
		{
			name: "StatusUpdateFails",
			setupMock: func(store *checkout.MockStore, gw *checkout.MockPaymentGateway, trx *checkout.Transaction) {
				store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(trx, nil)
				gw.EXPECT().CancelPayment(gomock.Any(), gomock.Any()).Return(nil)
				store.EXPECT().UpdateStatus(gomock.Any(), trx.ID, checkout.OrderCancelled, checkout.PaidCancelled).Return(errors.New("write failed"))
			},
			wantErr: checkout.ErrCancelTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := checkout.NewMockStore(ctrl)
			gw := checkout.NewMockPaymentGateway(ctrl)
			trx := pendingTransaction()
			tt.setupMock(store, gw, trx)

			svc := checkout.NewService(store, gw)

			err := svc.Cancel(context.Background(), &trx.UserID, trx.ID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// A cancelled transaction no longer matches the PENDING/PENDING lookup, so a
// second cancel reports not found instead of repeating side effects.
func TestService_Cancel_SecondCallNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := checkout.NewMockStore(ctrl)
	gw := checkout.NewMockPaymentGateway(ctrl)
	svc := checkout.NewService(store, gw)

	trx := pendingTransaction()

	first := store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(trx, nil)
	gw.EXPECT().CancelPayment(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	store.EXPECT().UpdateStatus(gomock.Any(), trx.ID, checkout.OrderCancelled, checkout.PaidCancelled).Return(nil)
	store.EXPECT().GetPendingTransaction(gomock.Any(), trx.ID, gomock.Any()).Return(nil, checkout.ErrNotFound).After(first)

	require.NoError(t, svc.Cancel(context.Background(), nil, trx.ID))
	assert.ErrorIs(t, svc.Cancel(context.Background(), nil, trx.ID), checkout.ErrNotFound)
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := checkout.NewMockStore(ctrl)
	svc := checkout.NewService(store, checkout.NewMockPaymentGateway(ctrl))

	filter := checkout.ListFilter{}

	store.EXPECT().CountTransactions(gomock.Any(), filter).Return(23, nil)
	store.EXPECT().ListTransactions(gomock.Any(), filter, 1, 10).Return([]*checkout.Transaction{
		{ID: "a"}, {ID: "b"},
	}, nil)

	result, err := svc.List(context.Background(), filter, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 23, result.Count)
	assert.Equal(t, 3, result.TotalPage)
	assert.Len(t, result.Transactions, 2)
}
