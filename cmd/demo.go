package main

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
)

const demoTenantID = 1

// seedDemo тенант с двумя услугами и двумя мастерами для локального запуска без Postgres
func seedDemo(store *memory.Store) {
	store.PutSettings(domain.ResourceSettings{
		TenantID:           demoTenantID,
		GranularityMinutes: domain.DefaultGranularityMinutes,
		Timezone:           "Asia/Seoul",
	})

	store.PutService(domain.Service{ID: 1, TenantID: demoTenantID, Name: "Haircut", DurationMinutes: 60,
		Price: decimal.NewFromInt(30000), Currency: "KRW", IsActive: true})
	store.PutService(domain.Service{ID: 2, TenantID: demoTenantID, Name: "Coloring", DurationMinutes: 120,
		Price: decimal.NewFromInt(90000), Currency: "KRW", IsActive: true})

	store.PutResource(domain.Resource{ID: 1, TenantID: demoTenantID, Name: "Jisoo", ServiceIDs: []int64{1, 2}, IsActive: true})
	store.PutResource(domain.Resource{ID: 2, TenantID: demoTenantID, Name: "Minho", ServiceIDs: []int64{1}, IsActive: true})
}
