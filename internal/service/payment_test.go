package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/voltride/voltride/internal/lib/idempotency"
	"github.com/voltride/voltride/internal/lib/vnpay"
	"github.com/voltride/voltride/internal/repository"
	"github.com/voltride/voltride/internal/server"
)

const testHashSecret = "test-hash-secret"

type fakeOrderStore struct {
	orders    map[string]*repository.PaymentOrder
	created   []*repository.PaymentOrder
	finalized []string
	findErr   error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*repository.PaymentOrder)}
}

func (s *fakeOrderStore) Create(ctx context.Context, order *repository.PaymentOrder) error {
	s.created = append(s.created, order)
	s.orders[order.TxnRef] = order
	return nil
}

func (s *fakeOrderStore) FindByRef(ctx context.Context, txnRef string) (*repository.PaymentOrder, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.orders[txnRef], nil
}

func (s *fakeOrderStore) Finalize(ctx context.Context, txnRef string, status repository.PaymentOrderStatus, responseCode string) (bool, error) {
	order, ok := s.orders[txnRef]
	if !ok || order.Status != repository.PaymentOrderPending {
		return false, nil
	}
	order.Status = status
	order.GatewayResponseCode = &responseCode
	s.finalized = append(s.finalized, txnRef)
	return true, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type failingGateStore struct{}

func (failingGateStore) PutIfAbsent(ctx context.Context, ref string, state idempotency.State) (bool, error) {
	return false, errors.New("store down")
}

func (failingGateStore) Get(ctx context.Context, ref string) (idempotency.State, bool, error) {
	return "", false, errors.New("store down")
}

func (failingGateStore) Delete(ctx context.Context, ref string) error {
	return errors.New("store down")
}

func newTestPaymentService(t *testing.T, orders *fakeOrderStore, gateStore idempotency.Store, jobs *fakeEnqueuer) *PaymentService {
	t.Helper()

	logger := zerolog.Nop()
	gateway, err := vnpay.NewClient(vnpay.Config{
		TmnCode:    "DEMO01",
		HashSecret: testHashSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://voltride.app/api/payments/vnpay/return",
	}, &logger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if gateStore == nil {
		gateStore = idempotency.NewMemoryStore()
	}

	return &PaymentService{
		server:  &server.Server{Logger: &logger},
		orders:  orders,
		gateway: gateway,
		gate:    idempotency.NewGate(gateStore, &logger),
		jobs:    jobs,
	}
}

// signedNotification builds an authentically signed notification
// payload, optionally overridden per field before signing.
func signedNotification(overrides map[string]string) url.Values {
	params := vnpay.Params{
		"vnp_TmnCode":       "DEMO01",
		"vnp_Amount":        "15000000",
		"vnp_ResponseCode":  "00",
		"vnp_TxnRef":        "order-1",
		"vnp_TransactionNo": "14226112",
	}
	for k, v := range overrides {
		if v == "" {
			delete(params, k)
		} else {
			params[k] = v
		}
	}

	digest := vnpay.Sign(testHashSecret, params.Encode())

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("vnp_SecureHash", digest)
	return values
}

func pendingOrder(txnRef string, amountMinor int64) *repository.PaymentOrder {
	return &repository.PaymentOrder{
		TxnRef:      txnRef,
		AmountMinor: amountMinor,
		Status:      repository.PaymentOrderPending,
	}
}

func TestHandleNotificationConfirmsOnce(t *testing.T) {
	orders := newFakeOrderStore()
	orders.orders["order-1"] = pendingOrder("order-1", 150000)
	jobs := &fakeEnqueuer{}
	ps := newTestPaymentService(t, orders, nil, jobs)

	values := signedNotification(nil)

	ack, err := ps.HandleNotification(context.Background(), values)
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if ack.RspCode != "00" {
		t.Fatalf("RspCode = %q, want 00", ack.RspCode)
	}
	if got := orders.orders["order-1"].Status; got != repository.PaymentOrderPaid {
		t.Errorf("order status = %q, want PAID", got)
	}

	// The gateway retries the same notification.
	ack, err = ps.HandleNotification(context.Background(), values)
	if err != nil {
		t.Fatalf("HandleNotification (retry): %v", err)
	}
	if ack.RspCode != "02" {
		t.Errorf("retry RspCode = %q, want 02", ack.RspCode)
	}
	if len(orders.finalized) != 1 {
		t.Errorf("finalized %d times, want 1", len(orders.finalized))
	}
}

func TestHandleNotificationFailedPayment(t *testing.T) {
	orders := newFakeOrderStore()
	orders.orders["order-1"] = pendingOrder("order-1", 150000)
	ps := newTestPaymentService(t, orders, nil, &fakeEnqueuer{})

	values := signedNotification(map[string]string{"vnp_ResponseCode": "24"})

	ack, err := ps.HandleNotification(context.Background(), values)
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if ack.RspCode != "00" {
		t.Errorf("RspCode = %q, want 00 (the notification is acknowledged even when the payment failed)", ack.RspCode)
	}
	if got := orders.orders["order-1"].Status; got != repository.PaymentOrderFailed {
		t.Errorf("order status = %q, want FAILED", got)
	}
}

func TestHandleNotificationBadChecksum(t *testing.T) {
	orders := newFakeOrderStore()
	orders.orders["order-1"] = pendingOrder("order-1", 150000)
	ps := newTestPaymentService(t, orders, nil, &fakeEnqueuer{})

	values := signedNotification(nil)
	values.Set("vnp_Amount", "1")

	ack, err := ps.HandleNotification(context.Background(), values)
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if ack.RspCode != "97" {
		t.Errorf("RspCode = %q, want 97", ack.RspCode)
	}
	if got := orders.orders["order-1"].Status; got != repository.PaymentOrderPending {
		t.Errorf("order status = %q, want PENDING untouched", got)
	}
}

func TestHandleNotificationUnknownRef(t *testing.T) {
	ps := newTestPaymentService(t, newFakeOrderStore(), nil, &fakeEnqueuer{})

	ack, err := ps.HandleNotification(context.Background(), signedNotification(nil))
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if ack.RspCode != "01" {
		t.Errorf("RspCode = %q, want 01", ack.RspCode)
	}
}

func TestHandleNotificationAmountMismatch(t *testing.T) {
	orders := newFakeOrderStore()
	orders.orders["order-1"] = pendingOrder("order-1", 999)
	ps := newTestPaymentService(t, orders, nil, &fakeEnqueuer{})

	ack, err := ps.HandleNotification(context.Background(), signedNotification(nil))
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if ack.RspCode != "04" {
		t.Errorf("RspCode = %q, want 04", ack.RspCode)
	}
	if got := orders.orders["order-1"].Status; got != repository.PaymentOrderPending {
		t.Errorf("order status = %q, want PENDING untouched", got)
	}
}

func TestHandleNotificationStoreFailurePropagates(t *testing.T) {
	orders := newFakeOrderStore()
	orders.orders["order-1"] = pendingOrder("order-1", 150000)
	ps := newTestPaymentService(t, orders, failingGateStore{}, &fakeEnqueuer{})

	_, err := ps.HandleNotification(context.Background(), signedNotification(nil))
	if err == nil {
		t.Fatal("expected a transient store failure to propagate")
	}
	if got := orders.orders["order-1"].Status; got != repository.PaymentOrderPending {
		t.Errorf("order status = %q, want PENDING untouched", got)
	}
}

func TestHandleNotificationEnqueuesReceipt(t *testing.T) {
	orders := newFakeOrderStore()
	order := pendingOrder("order-1", 150000)
	order.ReceiptEmail = "rider@example.com"
	orders.orders["order-1"] = order
	jobs := &fakeEnqueuer{}
	ps := newTestPaymentService(t, orders, nil, jobs)

	if _, err := ps.HandleNotification(context.Background(), signedNotification(nil)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	if len(jobs.tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(jobs.tasks))
	}
}

func TestCreatePaymentPersistsPendingOrder(t *testing.T) {
	orders := newFakeOrderStore()
	ps := newTestPaymentService(t, orders, nil, &fakeEnqueuer{})

	created, err := ps.CreatePayment(context.Background(), CreatePaymentInput{
		AmountMinorUnits: 150000,
		Description:      "Booking #42",
		ClientIP:         "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if created.PayURL == "" || created.TxnRef == "" {
		t.Fatalf("incomplete result: %+v", created)
	}
	if len(orders.created) != 1 {
		t.Fatalf("persisted %d orders, want 1", len(orders.created))
	}
	if got := orders.created[0].Status; got != repository.PaymentOrderPending {
		t.Errorf("persisted status = %q, want PENDING", got)
	}
	if orders.created[0].TxnRef != created.TxnRef {
		t.Errorf("persisted ref %q != returned ref %q", orders.created[0].TxnRef, created.TxnRef)
	}
}
