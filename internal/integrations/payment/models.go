package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata keys attached to every charge
const (
	MetadataSessionID = "session_id"
	MetadataTenantID  = "tenant_id"
)

// ChargeRequest параметры оплаты услуги до визита
type ChargeRequest struct {
	SessionID   string
	TenantID    int64
	Amount      decimal.Decimal
	Currency    string
	Description string
	Deadline    time.Time
}

// Charge созданная оплата: Reference приходит обратно в событии подтверждения
type Charge struct {
	Reference   string
	CheckoutURL string
}

// EventKind тип события платёжного шлюза, значимый для бронирования
type EventKind string

const (
	EventChargeSucceeded EventKind = "charge_succeeded"
	EventChargeExpired   EventKind = "charge_expired"
	EventIgnored         EventKind = "ignored"
)

// Event подтверждение (или отказ) оплаты, полученное вне сессии
type Event struct {
	ID            string
	Kind          EventKind
	Reference     string
	PaymentIntent string
	SessionID     string
}

// zeroDecimal валюты без дробных единиц
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MinorUnits переводит сумму в минимальные единицы валюты (центы, воны)
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimal[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
