package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/internal/repository"
)

var (
	ErrUnknownCurrency      = errors.New("product has no price in the requested currency")
	ErrFrozenField          = errors.New("field is not editable after payment")
	ErrReminderNeedsDueDate = errors.New("reminder requires a due date")
)

// reminderOffsets are the day counts before the due date on which a
// reminder fires, plus the due date itself.
var reminderOffsets = []int{7, 3, 1}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, companyID, orderID int64) (*model.Order, error)
	List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Order, int64, error)
	UpdateFields(ctx context.Context, companyID, orderID int64, fields map[string]interface{}) error
	ReplaceItems(ctx context.Context, orderID int64, items []*model.OrderItem, amount int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderProductRepository interface {
	GetByID(ctx context.Context, companyID, productID int64) (*model.Product, error)
	GetByBarcode(ctx context.Context, companyID int64, barcode string) (*model.Product, error)
}

type CompanyRepository interface {
	GetCompany(ctx context.Context, companyID int64) (*model.Company, error)
}

type OrderService struct {
	orderRepo   OrderRepository
	productRepo OrderProductRepository
	companyRepo CompanyRepository
	inventory   *InventoryService
}

func NewOrderService(orderRepo OrderRepository, productRepo OrderProductRepository, companyRepo CompanyRepository, inventory *InventoryService) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		companyRepo: companyRepo,
		inventory:   inventory,
	}
}

// ResolveItems turns requested (product, quantity) pairs into order items
// with the unit price snapshotted in the order currency. Resolution is
// all-or-nothing: one missing product aborts the whole list.
func (s *OrderService) ResolveItems(ctx context.Context, companyID int64, currency string, requested []model.OrderItemRequest) ([]*model.OrderItem, int64, error) {
	company, err := s.companyRepo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*model.OrderItem, 0, len(requested))
	var total int64
	for _, req := range requested {
		product, err := s.productRepo.GetByID(ctx, companyID, req.ProductID)
		if err != nil {
			return nil, 0, err
		}

		price, ok := product.PriceIn(currency, company.BaseCurrency)
		if !ok {
			return nil, 0, fmt.Errorf("%w: product %d, currency %s", ErrUnknownCurrency, product.ID, currency)
		}

		items = append(items, &model.OrderItem{
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: price,
		})
		total += req.Quantity * price
	}

	return items, total, nil
}

func (s *OrderService) Create(ctx context.Context, req model.OrderCreateRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order := &model.Order{
		CompanyID:     req.CompanyID,
		Title:         req.Title,
		Description:   req.Description,
		Currency:      req.Currency,
		DueDate:       req.DueDate,
		Reminder:      req.Reminder,
		FullyEditable: true,
	}

	if req.ProductName != "" {
		order.ProductName = req.ProductName
		order.ProductQuantity = req.ProductQuantity
		order.ProductPrice = req.ProductPrice
		order.Amount = req.ProductQuantity * req.ProductPrice
		return s.orderRepo.Create(ctx, order)
	}

	items, total, err := s.ResolveItems(ctx, req.CompanyID, req.Currency, req.Items)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.Amount = total

	var created *model.Order
	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.Create(ctx, order)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateFromScan sells one unit of a barcode-scanned product: the order and
// the stock decrement commit together, using the sale floor.
func (s *OrderService) CreateFromScan(ctx context.Context, companyID int64, barcode string, quantity int64) (*model.Order, error) {
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	product, err := s.productRepo.GetByBarcode(ctx, companyID, barcode)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		CompanyID:     companyID,
		Title:         product.Name,
		Currency:      company.BaseCurrency,
		Amount:        quantity * product.UnitPrice,
		FullyEditable: true,
		Items: []*model.OrderItem{{
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.UnitPrice,
		}},
	}

	var created *model.Order
	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.Create(ctx, order)
		if err != nil {
			return err
		}
		created = o

		_, err = s.inventory.AdjustForSale(ctx, model.StockAdjustRequest{
			CompanyID: companyID,
			ProductID: product.ID,
			Action:    model.StockActionSubtract,
			Quantity:  quantity,
			Comment:   fmt.Sprintf("sold via scan, order %d", o.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial update, rejecting writes to fields frozen by a
// prior payment instead of ignoring them.
func (s *OrderService) Update(ctx context.Context, companyID, orderID int64, req model.OrderUpdateRequest) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}

	for _, f := range req.Fields() {
		if !order.CanEdit(f) {
			return nil, fmt.Errorf("%w: %s", ErrFrozenField, f)
		}
	}

	if req.Reminder != nil && *req.Reminder {
		due := order.DueDate
		if req.DueDate != nil {
			due = req.DueDate
		}
		if due == nil {
			return nil, ErrReminderNeedsDueDate
		}
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.DueDate != nil {
		fields["due_date"] = *req.DueDate
	}
	if req.Reminder != nil {
		fields["reminder"] = *req.Reminder
	}
	if req.Currency != nil {
		fields["currency"] = *req.Currency
	}
	if req.Amount != nil {
		fields["amount"] = *req.Amount
	}
	// Replacing the composition with line items drops the inline product;
	// the two representations never coexist on one order.
	if len(req.Items) > 0 && order.ProductName != "" {
		fields["product_name"] = ""
		fields["product_quantity"] = int64(0)
		fields["product_price"] = int64(0)
	}

	currency := order.Currency
	if req.Currency != nil {
		currency = *req.Currency
	}

	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if len(fields) > 0 {
			if err := s.orderRepo.UpdateFields(ctx, companyID, orderID, fields); err != nil {
				return err
			}
		}
		if len(req.Items) > 0 {
			items, total, err := s.ResolveItems(ctx, companyID, currency, req.Items)
			if err != nil {
				return err
			}
			if err := s.orderRepo.ReplaceItems(ctx, orderID, items, total); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.GetByID(ctx, companyID, orderID)
}

func (s *OrderService) Get(ctx context.Context, companyID, orderID int64) (*model.Order, error) {
	return s.orderRepo.GetByID(ctx, companyID, orderID)
}

func (s *OrderService) List(ctx context.Context, companyID int64, limit, offset int) ([]*model.Order, int64, error) {
	return s.orderRepo.List(ctx, companyID, limit, offset)
}

// ReminderSchedule lists the dates on which payment reminders for the order
// fire.
func (s *OrderService) ReminderSchedule(ctx context.Context, companyID, orderID int64) ([]time.Time, error) {
	order, err := s.orderRepo.GetByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if order.DueDate == nil {
		return nil, ErrReminderNeedsDueDate
	}
	return model.ReminderDates(*order.DueDate, reminderOffsets), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrProductNotFound) ||
		errors.Is(err, repository.ErrOrderNotFound) ||
		errors.Is(err, repository.ErrCustomerNotFound) ||
		errors.Is(err, repository.ErrCategoryNotFound) ||
		errors.Is(err, repository.ErrCompanyNotFound) ||
		errors.Is(err, repository.ErrGatewayNotConfigured)
}
