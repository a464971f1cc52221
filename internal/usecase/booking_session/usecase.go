package booking_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/sessionstore"
)

// UseCase оркестратор сессии записи: ведёт клиента от идентификации до зафиксированной записи
type UseCase struct {
	cfg          Config
	sessions     SessionStore
	identity     IdentityResolver
	entitlements EntitlementService
	catalog      Catalog
	availability Availability
	bookingRepo  BookingRepository
	entRepo      EntitlementRepository
	txManager    TransactionManager
	gateway      PaymentGateway
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger

	writer   *bookingWriter
	settlers map[domain.SettlementMethod]Settler
}

// Deps зависимости оркестратора
type Deps struct {
	Sessions     SessionStore
	Identity     IdentityResolver
	Entitlements EntitlementService
	Catalog      Catalog
	Availability Availability
	BookingRepo  BookingRepository
	EntRepo      EntitlementRepository
	TxManager    TransactionManager
	Gateway      PaymentGateway // nil - оплата онлайн не предлагается
	Notifier     Notifier
	Metrics      Metrics
	Logger       Logger
}

// NewUseCase создает новый экземпляр оркестратора
func NewUseCase(cfg Config, deps Deps) *UseCase {
	uc := &UseCase{
		cfg:          cfg,
		sessions:     deps.Sessions,
		identity:     deps.Identity,
		entitlements: deps.Entitlements,
		catalog:      deps.Catalog,
		availability: deps.Availability,
		bookingRepo:  deps.BookingRepo,
		entRepo:      deps.EntRepo,
		txManager:    deps.TxManager,
		gateway:      deps.Gateway,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
		timeProvider: &RealTimeProvider{},
		logger:       deps.Logger,
	}

	uc.writer = &bookingWriter{
		txManager:    deps.TxManager,
		bookingRepo:  deps.BookingRepo,
		entRepo:      deps.EntRepo,
		availability: deps.Availability,
		logger:       deps.Logger,
	}
	uc.settlers = map[domain.SettlementMethod]Settler{
		domain.SettlementRedemption: &redemptionSettler{writer: uc.writer, entitlements: deps.Entitlements},
		domain.SettlementDeferred:   &deferredSettler{writer: uc.writer},
	}
	if deps.Gateway != nil {
		uc.settlers[domain.SettlementCharge] = &chargeSettler{gateway: deps.Gateway, deadline: cfg.ChargeDeadline}
	}

	return uc
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Start открывает новую сессию в состоянии identity
func (uc *UseCase) Start(ctx context.Context, tenantID int64) (*View, error) {
	if tenantID <= 0 {
		return nil, fmt.Errorf("%w: tenantID must be positive", ErrValidation)
	}

	now := uc.timeProvider.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		State:     domain.IdentityState{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.persist(ctx, session); err != nil {
		return nil, err
	}

	uc.logger.Info("BookingSession: started session=%s tenant=%d", session.ID, tenantID)
	return uc.view(ctx, session, nil), nil
}

// Get возвращает текущее состояние сессии
func (uc *UseCase) Get(ctx context.Context, tenantID int64, sessionID string) (*View, error) {
	session, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, session, nil), nil
}

// Abandon прерывает сессию по запросу клиента
// Берёт тот же токен, что и Commit: зафиксированная сессия не может стать прерванной
func (uc *UseCase) Abandon(ctx context.Context, tenantID int64, sessionID string) (*View, error) {
	release, err := uc.lockSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.State.Terminal() {
		return uc.view(ctx, session, nil), fmt.Errorf("%w: session is %s", ErrInvalidTransition, session.State.Name())
	}

	if awaiting, ok := session.State.(domain.AwaitingPaymentState); ok {
		// Оплата, пришедшая после отмены, будет возвращена обработчиком событий
		if err := uc.sessions.UntrackCharge(ctx, awaiting.Charge.Reference); err != nil {
			uc.logger.Warn("BookingSession: failed to untrack charge %s: %v", awaiting.Charge.Reference, err)
		}
	}

	session.Transition(domain.AbandonedState{Reason: domain.AbandonCancelled}, uc.timeProvider.Now())
	if err := uc.persist(ctx, session); err != nil {
		return nil, err
	}

	uc.logger.Info("BookingSession: session=%s abandoned by customer", session.ID)
	return uc.view(ctx, session, nil), nil
}

// load читает сессию тенанта; простаивающая сессия прерывается при чтении
func (uc *UseCase) load(ctx context.Context, tenantID int64, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		uc.logger.Error("BookingSession: failed to load session=%s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: load session: %v", ErrUpstreamUnavailable, err)
	}

	if session.TenantID != tenantID {
		uc.logger.Warn("BookingSession: session=%s requested by foreign tenant=%d", sessionID, tenantID)
		return nil, ErrSessionNotFound
	}

	now := uc.timeProvider.Now()
	if session.IdleExpired(now, uc.cfg.IdleTimeout) {
		session.Transition(domain.AbandonedState{Reason: domain.AbandonIdleTimeout}, now)
		if err := uc.persist(ctx, session); err != nil {
			return nil, err
		}
		uc.logger.Info("BookingSession: session=%s abandoned after idle timeout", session.ID)
	}

	return session, nil
}

// persist сохраняет сессию со сроком жизни, зависящим от состояния
func (uc *UseCase) persist(ctx context.Context, session *domain.Session) error {
	if err := uc.sessions.Save(ctx, session, uc.ttlFor(session)); err != nil {
		uc.logger.Error("BookingSession: failed to save session=%s: %v", session.ID, err)
		return fmt.Errorf("%w: save session: %v", ErrUpstreamUnavailable, err)
	}
	uc.metrics.ObserveSessionTransition(string(session.State.Name()))
	return nil
}

func (uc *UseCase) ttlFor(session *domain.Session) time.Duration {
	switch st := session.State.(type) {
	case domain.AwaitingPaymentState:
		ttl := st.Charge.Deadline.Sub(uc.timeProvider.Now()) + uc.cfg.IdleTimeout
		if ttl < uc.cfg.IdleTimeout {
			return uc.cfg.IdleTimeout
		}
		return ttl
	default:
		if session.State.Terminal() {
			return uc.cfg.TerminalRetention
		}
		// Простаивающая сессия должна дожить до чтения, которое её прервёт
		return uc.cfg.IdleTimeout + uc.cfg.TerminalRetention
	}
}

// lockSession берёт токен фиксации сессии; возвращает функцию освобождения
func (uc *UseCase) lockSession(ctx context.Context, sessionID string) (func(), error) {
	token := uuid.NewString()
	acquired, err := uc.sessions.AcquireCommitLock(ctx, sessionID, token, uc.cfg.CommitLockTTL)
	if err != nil {
		uc.logger.Error("BookingSession: failed to acquire commit lock for session=%s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: commit lock: %v", ErrUpstreamUnavailable, err)
	}
	if !acquired {
		return nil, ErrCommitInProgress
	}

	return func() {
		if err := uc.sessions.ReleaseCommitLock(context.WithoutCancel(ctx), sessionID, token); err != nil {
			uc.logger.Warn("BookingSession: failed to release commit lock for session=%s: %v", sessionID, err)
		}
	}, nil
}
