package checkout

import (
	"strings"

	"github.com/safar/go-shop-checkout/internal/config"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/shopspring/decimal"
)

// ShippingPolicy prices a shipping method without any I/O.
type ShippingPolicy struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
}

func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{Standard: decimal.Zero, Express: decimal.NewFromInt(10)}
}

func NewShippingPolicy(cfg config.ShippingConfig) ShippingPolicy {
	return ShippingPolicy{Standard: cfg.StandardFee, Express: cfg.ExpressFee}
}

func (p ShippingPolicy) Fee(method models.ShippingMethod) decimal.Decimal {
	switch method {
	case models.ShippingExpress:
		return p.Express
	case models.ShippingStandard:
		return p.Standard
	default:
		return decimal.Zero
	}
}

type Quote struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// Price applies at most one coupon and the shipping fee to subtotal.
func Price(subtotal decimal.Decimal, coupon *models.Coupon, method models.ShippingMethod, policy ShippingPolicy) Quote {
	q := Quote{
		Subtotal:    subtotal,
		Discount:    decimal.Zero,
		ShippingFee: policy.Fee(method),
	}
	if coupon != nil {
		q.Discount = coupon.Discount(subtotal)
	}
	q.Total = models.OrderTotal(q.Subtotal, q.Discount, q.ShippingFee)
	return q
}

// NormalizeShipping trims every field of s.
func NormalizeShipping(s models.ShippingInfo) models.ShippingInfo {
	return models.ShippingInfo{
		AddressLine: strings.TrimSpace(s.AddressLine),
		City:        strings.TrimSpace(s.City),
		State:       strings.TrimSpace(s.State),
		PostalCode:  strings.TrimSpace(s.PostalCode),
		Country:     strings.TrimSpace(s.Country),
		Method:      models.ShippingMethod(strings.ToLower(strings.TrimSpace(string(s.Method)))),
	}
}

// ValidateShipping checks a normalized shipping payload and reports every
// offending field at once.
func ValidateShipping(s models.ShippingInfo) error {
	var fields []FieldError
	if s.AddressLine == "" {
		fields = append(fields, FieldError{Field: "shipping.addressLine", Message: "addressLine is required"})
	}
	if s.City == "" {
		fields = append(fields, FieldError{Field: "shipping.city", Message: "city is required"})
	}
	if s.Country == "" {
		fields = append(fields, FieldError{Field: "shipping.country", Message: "country is required"})
	}
	switch {
	case s.Method == "":
		fields = append(fields, FieldError{Field: "shipping.method", Message: "method is required"})
	case !s.Method.Valid():
		fields = append(fields, FieldError{Field: "shipping.method", Message: "method must be one of standard, express, pickup"})
	}

	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: MsgInvalidShipping, Fields: fields}
}
