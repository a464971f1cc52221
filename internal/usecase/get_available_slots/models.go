package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	TenantID        int64     // ID тенанта
	ResourceID      int64     // ID ресурса (сотрудника)
	Date            time.Time // Гражданская дата в часовом поясе ресурса (время игнорируется)
	DurationMinutes int       // Длительность услуги
}

// Response модель ответа со списком слотов
type Response struct {
	Date               time.Time
	ResourceID         int64
	Timezone           string
	GranularityMinutes int
	DurationMinutes    int
	Closed             bool // Ресурс не работает в эту дату (или данные недоступны)
	Degraded           bool // Ответ построен без данных из хранилища
	Slots              []Slot
}

// Slot модель временного слота
type Slot struct {
	StartTime types.TimeString
	Available bool
}

// CheckRequest запрос строгой проверки одного слота
type CheckRequest struct {
	TenantID        int64
	ResourceID      int64
	Date            time.Time
	StartTime       types.TimeString
	DurationMinutes int
}
