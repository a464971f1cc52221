package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

// TenantHeader заголовок с ID тенанта, проставляется шлюзом перед сервисом
const TenantHeader = "X-Tenant-ID"

const msgMissingTenant = "отсутствует или некорректен ID тенанта"

type contextKey string

const tenantIDKey contextKey = "tenantID"

// Tenant требует положительный X-Tenant-ID и кладёт его в контекст
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := strconv.ParseInt(r.Header.Get(TenantHeader), 10, 64)
		if err != nil || tenantID <= 0 {
			handlers.RespondUnauthorized(w, msgMissingTenant)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
	})
}

// WithTenantID кладёт ID тенанта в контекст
func WithTenantID(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantID достаёт ID тенанта из контекста
func GetTenantID(ctx context.Context) (int64, bool) {
	tenantID, ok := ctx.Value(tenantIDKey).(int64)
	return tenantID, ok
}
