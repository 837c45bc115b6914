package models

import "github.com/shopspring/decimal"

// Payment is money received.
type Payment struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	PayerName   string          `json:"payer"`
	PaymentType string          `json:"payment_type"`
	Notes       string          `json:"notes,omitempty"`
}

func (p Payment) RecordID() string { return p.ID }

func (p Payment) WithID(id string) Payment {
	p.ID = id
	return p
}
