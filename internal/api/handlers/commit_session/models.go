package commit_session

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
)

// CommitSessionRequest HTTP request model
type CommitSessionRequest struct {
	Method  string `json:"method"`
	Consent bool   `json:"consent"`
}

// ToUseCaseRequest конвертирует HTTP request в запрос use case
func (r *CommitSessionRequest) ToUseCaseRequest() booking_session.CommitRequest {
	return booking_session.CommitRequest{
		Method:  domain.SettlementMethod(r.Method),
		Consent: r.Consent,
	}
}
