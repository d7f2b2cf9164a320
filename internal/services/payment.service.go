package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gateway "github.com/orbio/invoice-gateway/internal/gateways"
	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/internal/queue"
	"github.com/orbio/invoice-gateway/internal/repository"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/orbio/invoice-gateway/pkg/prom"
)

var (
	ErrPaymentFailed = errors.New("payment was not successful")
)

type GatewayRegistry interface {
	Get(channel string) (gateway.Gateway, error)
}

type GatewayConfigRepository interface {
	GetByChannel(ctx context.Context, companyID int64, channel string) (*model.GatewayConfig, error)
	GetCompany(ctx context.Context, companyID int64) (*model.Company, error)
}

type PaymentCustomerRepository interface {
	GetByID(ctx context.Context, companyID, customerID int64) (*model.Customer, error)
}

type PaymentOrderRepository interface {
	GetByID(ctx context.Context, companyID, orderID int64) (*model.Order, error)
	GetPivot(ctx context.Context, customerID, orderID int64) (*model.CustomerOrder, error)
	AttachCustomer(ctx context.Context, customerID, orderID int64) (*model.CustomerOrder, error)
	MarkPaid(ctx context.Context, customerID, orderID int64, paidAt time.Time) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PaymentTransactionRepository interface {
	Upsert(ctx context.Context, txn *model.PaymentTransaction) (*model.PaymentTransaction, error)
	GetByReference(ctx context.Context, reference, channel string) (*model.PaymentTransaction, error)
}

// PaymentService drives a customer's order from unpaid to paid: resolve the
// company's gateway, verify with the provider, record the transaction and
// flip the pivot. Verification is idempotent per (reference, channel).
type PaymentService struct {
	registry    GatewayRegistry
	configRepo  GatewayConfigRepository
	customers   PaymentCustomerRepository
	orders      PaymentOrderRepository
	txns        PaymentTransactionRepository
	events      *queue.Queue
	callbackURL string
}

func NewPaymentService(registry GatewayRegistry, configRepo GatewayConfigRepository, customers PaymentCustomerRepository, orders PaymentOrderRepository, txns PaymentTransactionRepository, events *queue.Queue, callbackURL string) *PaymentService {
	return &PaymentService{
		registry:    registry,
		configRepo:  configRepo,
		customers:   customers,
		orders:      orders,
		txns:        txns,
		events:      events,
		callbackURL: callbackURL,
	}
}

// Initialize starts a checkout with the requested channel and returns the
// provider's redirect URL. The customer is attached to the order if this is
// their first touch.
func (s *PaymentService) Initialize(ctx context.Context, companyID, orderID, customerID int64, channel string) (*gateway.InitializeResult, error) {
	cfg, err := s.configRepo.GetByChannel(ctx, companyID, channel)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, companyID, customerID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.AttachCustomer(ctx, customerID, orderID); err != nil {
		return nil, err
	}

	gw, err := s.registry.Get(channel)
	if err != nil {
		return nil, err
	}

	return gw.Initialize(ctx, cfg, order, customer, s.callbackURL)
}

// Settle verifies a payment reference and, on success, marks the customer's
// order paid. The transaction upsert and the pivot flip share one database
// transaction; an unsuccessful verification still keeps the transaction row
// for audit. A reference already owned by another customer is rejected
// without touching anything.
func (s *PaymentService) Settle(ctx context.Context, companyID, orderID, customerID int64, channel, reference string) (*model.PaymentTransaction, error) {
	cfg, err := s.configRepo.GetByChannel(ctx, companyID, channel)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, companyID, customerID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}

	gw, err := s.registry.Get(channel)
	if err != nil {
		return nil, err
	}

	result, err := gw.Verify(ctx, cfg, reference)
	if err != nil {
		prom.IncPaymentVerified(channel, "gateway_error")
		return nil, err
	}

	now := time.Now().UTC()
	var txn *model.PaymentTransaction
	err = s.orders.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.txns.Upsert(ctx, &model.PaymentTransaction{
			OrderID:    orderID,
			CustomerID: customer.ID,
			Channel:    channel,
			Reference:  result.Reference,
			Success:    result.Success,
			Amount:     result.Amount,
			RawPayload: result.Raw,
		})
		if err != nil {
			return err
		}
		txn = t

		if !t.Success {
			// keep the audit row, leave the pivot alone
			return nil
		}

		if _, err := s.orders.AttachCustomer(ctx, customer.ID, orderID); err != nil {
			return err
		}
		return s.orders.MarkPaid(ctx, customer.ID, orderID, now)
	})
	if err != nil {
		prom.IncPaymentVerified(channel, "rejected")
		return nil, err
	}

	if !txn.Success {
		prom.IncPaymentVerified(channel, "declined")
		return txn, ErrPaymentFailed
	}

	prom.IncPaymentVerified(channel, "success")
	s.publishPaid(ctx, order, customer, txn, now)

	return txn, nil
}

// publishPaid emits the order.paid event. Notification delivery is
// fire-and-forget: a publish failure is logged and never unwinds the
// settlement.
func (s *PaymentService) publishPaid(ctx context.Context, order *model.Order, customer *model.Customer, txn *model.PaymentTransaction, paidAt time.Time) {
	if s.events == nil {
		return
	}

	ev := model.OrderPaidEvent{
		EventID:       uuid.NewString(),
		CompanyID:     order.CompanyID,
		OrderID:       order.ID,
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Channel:       txn.Channel,
		Reference:     txn.Reference,
		Amount:        txn.Amount,
		Currency:      order.Currency,
		PaidAt:        paidAt,
	}
	if _, err := s.events.PublishJSON(ctx, ev); err != nil {
		logger.Error("failed to publish order.paid event",
			"order_id", order.ID, "customer_id", customer.ID, "error", err)
	}
}

// Receipt returns the recorded transaction for a reference, scoped to the
// requesting customer.
func (s *PaymentService) Receipt(ctx context.Context, companyID, customerID int64, channel, reference string) (*model.PaymentTransaction, error) {
	if _, err := s.customers.GetByID(ctx, companyID, customerID); err != nil {
		return nil, err
	}
	txn, err := s.txns.GetByReference(ctx, reference, channel)
	if err != nil {
		return nil, err
	}
	if txn.CustomerID != customerID {
		return nil, fmt.Errorf("%w: %s", repository.ErrReferenceOwned, reference)
	}
	return txn, nil
}
