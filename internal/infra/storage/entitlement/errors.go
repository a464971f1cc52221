package entitlement

import "errors"

var (
	// ErrEntitlementNotFound возвращается, когда пакет клиента не найден
	ErrEntitlementNotFound = errors.New("entitlement.repository: entitlement not found")

	// ErrEntitlementExhausted возвращается, когда остаток пакета уже равен нулю
	ErrEntitlementExhausted = errors.New("entitlement.repository: entitlement exhausted")

	ErrBuildQuery = errors.New("entitlement.repository: failed to build query")
	ErrExecQuery  = errors.New("entitlement.repository: failed to execute query")
	ErrScanRow    = errors.New("entitlement.repository: failed to scan row")
)
