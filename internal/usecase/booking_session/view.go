package booking_session

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/entitlements"
)

// view строит представление сессии; данные за пределами текущего состояния не раскрываются
func (uc *UseCase) view(ctx context.Context, session *domain.Session, slots *SlotsView) *View {
	v := &View{
		ID:        session.ID,
		State:     session.State.Name(),
		LastError: session.LastError,
		UpdatedAt: session.UpdatedAt,
	}

	now := uc.timeProvider.Now()

	switch st := session.State.(type) {
	case domain.ServiceSelectState:
		fillCustomer(v, st)
		v.Services = uc.serviceOptions(ctx, session.TenantID, st, now)
	case domain.ResourceSelectState:
		fillService(v, st)
		v.Resources = uc.resourceOptions(ctx, session.TenantID, st.Service.ID)
	case domain.SlotSelectState:
		fillResource(v, st)
		v.Slots = slots
	case domain.ContactCaptureState:
		fillSlot(v, st)
	case domain.SettlementChoiceState:
		fillSettlement(v, st)
	case domain.AwaitingPaymentState:
		fillSettlement(v, st.SettlementChoiceState)
		v.Options = nil
		v.Checkout = &CheckoutView{
			Reference: st.Charge.Reference,
			URL:       st.Charge.CheckoutURL,
			Amount:    st.Charge.Amount,
			Currency:  st.Charge.Currency,
			Deadline:  st.Charge.Deadline,
		}
	case domain.CommittedState:
		v.Booking = &BookingView{ID: st.BookingID, Outcome: st.Outcome}
	case domain.AbandonedState:
		v.Reason = st.Reason
	}

	return v
}

func fillCustomer(v *View, st domain.ServiceSelectState) {
	v.Customer = &CustomerView{Name: st.Customer.Name, Guest: st.Customer.IsGuest()}
	for _, e := range st.Entitlements {
		v.Entitlements = append(v.Entitlements, EntitlementView{
			PackageName:       e.PackageName,
			ServiceID:         e.ServiceID,
			RemainingQuantity: e.RemainingQuantity,
			ExpiresAt:         e.ExpiresAt,
		})
	}
}

func fillService(v *View, st domain.ResourceSelectState) {
	fillCustomer(v, st.ServiceSelectState)
	service := st.Service
	v.Service = &service
}

func fillResource(v *View, st domain.SlotSelectState) {
	fillService(v, st.ResourceSelectState)
	resource := st.Resource
	v.Resource = &resource
}

func fillSlot(v *View, st domain.ContactCaptureState) {
	fillResource(v, st.SlotSelectState)
	slot := st.Slot
	v.Slot = &slot
}

func fillSettlement(v *View, st domain.SettlementChoiceState) {
	fillSlot(v, st.ContactCaptureState)
	contact := st.Contact
	v.Contact = &contact
	v.Options = st.Options
}

// serviceOptions активные услуги тенанта; при недоступности каталога список пуст
func (uc *UseCase) serviceOptions(ctx context.Context, tenantID int64, st domain.ServiceSelectState, now time.Time) []ServiceOption {
	services, err := uc.catalog.ListServices(ctx, tenantID)
	if err != nil {
		uc.logger.Error("BookingSession: failed to list services for tenant=%d: %v", tenantID, err)
		return []ServiceOption{}
	}

	options := make([]ServiceOption, 0, len(services))
	for _, s := range services {
		if !s.IsActive {
			continue
		}
		_, covered := entitlements.Covering(st.Entitlements, s.ID, now)
		options = append(options, ServiceOption{
			ID:              s.ID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			Price:           s.Price,
			Currency:        s.Currency,
			Covered:         covered,
		})
	}
	return options
}

func (uc *UseCase) resourceOptions(ctx context.Context, tenantID, serviceID int64) []ResourceOption {
	resources, err := uc.catalog.ListResourcesForService(ctx, tenantID, serviceID)
	if err != nil {
		uc.logger.Error("BookingSession: failed to list resources for tenant=%d service=%d: %v", tenantID, serviceID, err)
		return []ResourceOption{}
	}

	options := make([]ResourceOption, 0, len(resources))
	for _, r := range resources {
		if !r.IsActive {
			continue
		}
		options = append(options, ResourceOption{ID: r.ID, Name: r.Name})
	}
	return options
}
