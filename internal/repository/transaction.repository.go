package repository

import (
	"context"
	"errors"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("payment transaction not found")
	// ErrReferenceOwned means a (reference, channel) pair already belongs to
	// another customer. References are never reassignable.
	ErrReferenceOwned = errors.New("payment reference belongs to a different customer")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference, channel string) (*model.PaymentTransaction, error) {
	var entity PaymentTransactionEntity
	err := r.Read(ctx).
		Where("reference = ? AND channel = ?", reference, channel).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	return toTransactionModel(&entity), nil
}

// Upsert stores the verification result keyed by (reference, channel).
// Re-verification updates the existing row in place; a row held by a
// different customer is rejected, leaving it untouched. The unique index on
// (reference, channel) backs this against concurrent verifications.
func (r *TransactionRepository) Upsert(ctx context.Context, txn *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	var existing PaymentTransactionEntity
	err := r.Write(ctx).
		Where("reference = ? AND channel = ?", txn.Reference, txn.Channel).
		First(&existing).
		Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		entity := toTransactionEntity(txn)
		entity.ID = 0
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return nil, err
		}
		return toTransactionModel(entity), nil
	}

	if existing.CustomerID != txn.CustomerID {
		return nil, ErrReferenceOwned
	}

	updates := map[string]interface{}{
		"success":     txn.Success,
		"amount":      txn.Amount,
		"raw_payload": txn.RawPayload,
	}
	if err := r.Write(ctx).
		Model(&PaymentTransactionEntity{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	existing.Success = txn.Success
	existing.Amount = txn.Amount
	existing.RawPayload = txn.RawPayload
	return toTransactionModel(&existing), nil
}

func (r *TransactionRepository) ListByOrder(ctx context.Context, orderID int64) ([]*model.PaymentTransaction, error) {
	var entities []*PaymentTransactionEntity
	if err := r.Read(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&entities).Error; err != nil {
		return nil, err
	}

	txns := make([]*model.PaymentTransaction, len(entities))
	for i, e := range entities {
		txns[i] = toTransactionModel(e)
	}
	return txns, nil
}
