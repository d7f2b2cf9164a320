package repository

import (
	"context"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/pg"
)

// StockEventRepository only appends; ledger rows are never updated or
// deleted.
type StockEventRepository struct {
	*pg.DB
}

func NewStockEventRepository(db *pg.DB) *StockEventRepository {
	return &StockEventRepository{
		db,
	}
}

func (r *StockEventRepository) Create(ctx context.Context, ev *model.StockEvent) (*model.StockEvent, error) {
	entity := &StockEventEntity{
		ProductID: ev.ProductID,
		Action:    string(ev.Action),
		Quantity:  ev.Quantity,
		Comment:   ev.Comment,
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toStockEventModel(entity), nil
}

func (r *StockEventRepository) ListByProduct(ctx context.Context, productID int64) ([]*model.StockEvent, error) {
	var entities []*StockEventEntity
	if err := r.Read(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&entities).Error; err != nil {
		return nil, err
	}

	events := make([]*model.StockEvent, len(entities))
	for i, e := range entities {
		events[i] = toStockEventModel(e)
	}
	return events, nil
}
