package model

type Company struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
	OwnerEmail   string `json:"owner_email"`
	WebhookURL   string `json:"webhook_url"`
}

func (Company) TableName() string { return "companies" }

// GatewayConfig is a company's credential set for one payment channel.
type GatewayConfig struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Channel   string `json:"channel"`
	SecretKey string `json:"-"`
	Enabled   bool   `json:"enabled"`
}

func (GatewayConfig) TableName() string { return "gateway_configs" }
