package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pasal/internal/commerce"
	"pasal/internal/pending"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PaymentMethods(ctx context.Context) ([]commerce.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.PaymentMethod), args.Error(1)
}

func (m *mockAPI) PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingCity string) (*commerce.Order, error) {
	args := m.Called(ctx, userID, shippingAddress, shippingCity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *mockAPI) CreatePaymentIntent(ctx context.Context, userID, orderID, paymentMethodID int64, description string) (*commerce.PaymentIntent, error) {
	args := m.Called(ctx, userID, orderID, paymentMethodID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.PaymentIntent), args.Error(1)
}

type recordingStore struct {
	records []*pending.Payment
	err     error
}

func (s *recordingStore) Put(ctx context.Context, p *pending.Payment) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, p)
	return nil
}

func (s *recordingStore) GetByID(ctx context.Context, paymentRequestID int64) (*pending.Payment, error) {
	return nil, nil
}

func (s *recordingStore) GetByEsewaRef(ctx context.Context, transactionID string) (*pending.Payment, error) {
	return nil, nil
}

func (s *recordingStore) GetByKhaltiPidx(ctx context.Context, pidx string) (*pending.Payment, error) {
	return nil, nil
}

func (s *recordingStore) Delete(ctx context.Context, paymentRequestID int64) error {
	return nil
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New(validator.WithRequiredStructEnabled())
	require.NoError(t, v.RegisterValidation("nepaliphone", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) == 10
	}))
	return v
}

func validShipping() ShippingInput {
	return ShippingInput{Address: "Baneshwor Height, Kathmandu", City: "Kathmandu"}
}

func TestPlaceOrderEsewaFormPlan(t *testing.T) {
	api := new(mockAPI)
	store := &recordingStore{}
	svc := NewService(api, store, newValidate(t))

	expires := time.Now().Add(30 * time.Minute)
	api.On("PlaceOrder", mock.Anything, int64(3), "Baneshwor Height, Kathmandu", "Kathmandu").
		Return(&commerce.Order{OrderID: 7, TotalAmount: 1500}, nil).Once()
	api.On("CreatePaymentIntent", mock.Anything, int64(3), int64(7), int64(1), "Order Payment").
		Return(&commerce.PaymentIntent{
			PaymentRequestID:   11,
			PaymentURL:         "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
			EsewaTransactionID: "txn-11",
			PaymentAmount:      1500,
			ExpiresAt:          expires,
			RequiresRedirect:   true,
			FormFields:         map[string]string{"amount": "1500", "transaction_uuid": "txn-11"},
		}, nil).Once()

	plan, err := svc.PlaceOrder(context.Background(), 3, validShipping(), 1)
	require.NoError(t, err)

	assert.Equal(t, ModeForm, plan.Mode)
	assert.Equal(t, int64(11), plan.PaymentRequestID)
	assert.Equal(t, int64(7), plan.OrderID)
	assert.NotEmpty(t, plan.FormFields)

	// The pending record must be durable before the browser leaves.
	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, int64(11), rec.PaymentRequestID)
	assert.Equal(t, int64(7), rec.OrderID)
	assert.Equal(t, int64(3), rec.UserID)
	assert.Equal(t, "txn-11", rec.EsewaTransactionID)
	assert.Equal(t, expires, rec.ExpiresAt)
}

func TestPlaceOrderKhaltiRedirectPlan(t *testing.T) {
	api := new(mockAPI)
	store := &recordingStore{}
	svc := NewService(api, store, newValidate(t))

	api.On("PlaceOrder", mock.Anything, int64(3), mock.Anything, mock.Anything).
		Return(&commerce.Order{OrderID: 8}, nil).Once()
	api.On("CreatePaymentIntent", mock.Anything, int64(3), int64(8), int64(2), "Order Payment").
		Return(&commerce.PaymentIntent{
			PaymentRequestID: 12,
			PaymentURL:       "https://pay.khalti.com/?pidx=pidx-12",
			KhaltiPidx:       "pidx-12",
			RequiresRedirect: true,
		}, nil).Once()

	plan, err := svc.PlaceOrder(context.Background(), 3, validShipping(), 2)
	require.NoError(t, err)

	assert.Equal(t, ModeRedirect, plan.Mode)
	assert.Equal(t, "https://pay.khalti.com/?pidx=pidx-12", plan.PaymentURL)
	require.Len(t, store.records, 1)
	assert.Equal(t, "pidx-12", store.records[0].KhaltiPidx)
}

func TestPlaceOrderCODVerifyPlan(t *testing.T) {
	api := new(mockAPI)
	store := &recordingStore{}
	svc := NewService(api, store, newValidate(t))

	api.On("PlaceOrder", mock.Anything, int64(3), mock.Anything, mock.Anything).
		Return(&commerce.Order{OrderID: 9}, nil).Once()
	api.On("CreatePaymentIntent", mock.Anything, int64(3), int64(9), int64(3), "Order Payment").
		Return(&commerce.PaymentIntent{PaymentRequestID: 13, RequiresRedirect: false}, nil).Once()

	plan, err := svc.PlaceOrder(context.Background(), 3, validShipping(), 3)
	require.NoError(t, err)

	assert.Equal(t, ModeVerify, plan.Mode)
	assert.Equal(t, "/payment/success", plan.VerifyPath)
}

func TestPlaceOrderValidation(t *testing.T) {
	api := new(mockAPI)
	store := &recordingStore{}
	svc := NewService(api, store, newValidate(t))

	tests := []struct {
		name            string
		userID          int64
		ship            ShippingInput
		paymentMethodID int64
	}{
		{"no user", 0, validShipping(), 1},
		{"no payment method", 3, validShipping(), 0},
		{"short address", 3, ShippingInput{Address: "x", City: "Kathmandu"}, 1},
		{"missing city", 3, ShippingInput{Address: "Baneshwor Height, Kathmandu"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tt.userID, tt.ship, tt.paymentMethodID)
			assert.Error(t, err)
		})
	}

	// Invalid input never reaches the commerce API.
	api.AssertNotCalled(t, "PlaceOrder")
}

func TestPlaceOrderPendingWriteFailureAborts(t *testing.T) {
	api := new(mockAPI)
	store := &recordingStore{err: fmt.Errorf("redis down")}
	svc := NewService(api, store, newValidate(t))

	api.On("PlaceOrder", mock.Anything, int64(3), mock.Anything, mock.Anything).
		Return(&commerce.Order{OrderID: 10}, nil).Once()
	api.On("CreatePaymentIntent", mock.Anything, int64(3), int64(10), int64(1), "Order Payment").
		Return(&commerce.PaymentIntent{PaymentRequestID: 14, RequiresRedirect: true, PaymentURL: "https://x"}, nil).Once()

	_, err := svc.PlaceOrder(context.Background(), 3, validShipping(), 1)
	assert.Error(t, err)
}
