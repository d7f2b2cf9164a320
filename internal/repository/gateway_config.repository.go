package repository

import (
	"context"
	"errors"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured for this company")
	ErrCompanyNotFound      = errors.New("company not found")
)

type CompanyEntity struct {
	ID           int64  `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	Name         string `db:"name"          gorm:"column:name;not null"`
	BaseCurrency string `db:"base_currency" gorm:"column:base_currency;not null"`
	OwnerEmail   string `db:"owner_email"   gorm:"column:owner_email;not null"`
	WebhookURL   string `db:"webhook_url"   gorm:"column:webhook_url"`
}

func (CompanyEntity) TableName() string {
	return "companies"
}

type GatewayConfigEntity struct {
	ID        int64  `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	CompanyID int64  `db:"company_id" gorm:"column:company_id;not null;uniqueIndex:idx_company_channel"`
	Channel   string `db:"channel"    gorm:"column:channel;not null;uniqueIndex:idx_company_channel"`
	SecretKey string `db:"secret_key" gorm:"column:secret_key;not null"`
	Enabled   bool   `db:"enabled"    gorm:"column:enabled;not null;default:true"`
}

func (GatewayConfigEntity) TableName() string {
	return "gateway_configs"
}

type GatewayConfigRepository struct {
	*pg.DB
}

func NewGatewayConfigRepository(db *pg.DB) *GatewayConfigRepository {
	return &GatewayConfigRepository{
		db,
	}
}

// GetByChannel resolves the company's enabled credential set for one channel.
func (r *GatewayConfigRepository) GetByChannel(ctx context.Context, companyID int64, channel string) (*model.GatewayConfig, error) {
	var entity GatewayConfigEntity
	err := r.Read(ctx).
		Where("company_id = ? AND channel = ? AND enabled = ?", companyID, channel, true).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGatewayNotConfigured
		}
		return nil, err
	}

	return &model.GatewayConfig{
		ID:        entity.ID,
		CompanyID: entity.CompanyID,
		Channel:   entity.Channel,
		SecretKey: entity.SecretKey,
		Enabled:   entity.Enabled,
	}, nil
}

func (r *GatewayConfigRepository) GetCompany(ctx context.Context, companyID int64) (*model.Company, error) {
	var entity CompanyEntity
	err := r.Read(ctx).
		Where("id = ?", companyID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	return &model.Company{
		ID:           entity.ID,
		Name:         entity.Name,
		BaseCurrency: entity.BaseCurrency,
		OwnerEmail:   entity.OwnerEmail,
		WebhookURL:   entity.WebhookURL,
	}, nil
}
