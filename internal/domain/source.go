package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DriverSlug identifies sources owned by this driver in the shared table
const DriverSlug = "stripe"

// SourceData is the opaque per-driver payload stored with a Source
type SourceData struct {
	SourceID   string `json:"source_id"`
	CustomerID string `json:"customer_id"`
}

// Value implements driver.Valuer
func (d SourceData) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (d *SourceData) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = SourceData{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("source data: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*d = SourceData{}
		return nil
	}
	return json.Unmarshal(raw, d)
}

// Source is a saved payment source belonging to a framework customer
type Source struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	CustomerID string     `json:"customer_id" gorm:"index"`
	Driver     string     `json:"driver"`
	Data       SourceData `json:"data" gorm:"type:text"`
	Label      string     `json:"label"`
	Name       string     `json:"name,omitempty"`
	Brand      string     `json:"brand"`
	LastFour   string     `json:"last_four"`
	Expiry     time.Time  `json:"expiry"`
	IsDefault  bool       `json:"is_default"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName overrides the gorm default
func (Source) TableName() string {
	return "invoice_source"
}

// IsExpired reports whether the source expired before t.
func (s *Source) IsExpired(t time.Time) bool {
	return !s.Expiry.IsZero() && s.Expiry.Before(t)
}

// AsPaymentSource returns the SavedSource variant for charging this source.
func (s *Source) AsPaymentSource() (SavedSource, error) {
	if s.Data.SourceID == "" || s.Data.CustomerID == "" {
		return SavedSource{}, ErrSourceIDsMissing
	}
	return SavedSource{
		GatewaySourceID:   s.Data.SourceID,
		GatewayCustomerID: s.Data.CustomerID,
	}, nil
}

// ApplyCard copies card details onto the source.
func (s *Source) ApplyCard(card *Card) {
	s.Brand = card.Brand
	s.LastFour = card.Last4
	s.Name = card.Name
	s.Expiry = CardExpiry(card.ExpMonth, card.ExpYear)
	s.Label = SourceLabel(card.Brand, card.Last4)
}

// SourceLabel renders the default human label, e.g. "Visa ending 4242".
func SourceLabel(brand, last4 string) string {
	if brand == "" {
		brand = "Card"
	}
	return fmt.Sprintf("%s ending %s", brand, last4)
}

// CardExpiry returns the last day of the expiry month.
func CardExpiry(month, year int) time.Time {
	if month < 1 || month > 12 || year <= 0 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// StripeCustomer links a framework customer to its gateway customer
type StripeCustomer struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	CustomerID string    `json:"customer_id" gorm:"uniqueIndex"`
	StripeID   string    `json:"stripe_id" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the gorm default
func (StripeCustomer) TableName() string {
	return "driver_invoice_stripe_customer"
}
