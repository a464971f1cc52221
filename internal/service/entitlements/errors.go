package entitlements

import "errors"

// ErrUnavailable хранилище пакетов или чёрного списка недоступно
var ErrUnavailable = errors.New("entitlements: store unavailable")
