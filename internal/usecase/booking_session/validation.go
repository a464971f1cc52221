package booking_session

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var validate = validator.New()

// contactInput контакт в том виде, в каком его проверяет валидатор
type contactInput struct {
	Name    string `validate:"required,max=100"`
	Channel string `validate:"required,oneof=sms email kakao"`
	Email   string `validate:"required_if=Channel email,omitempty,email,max=254"`
}

// normalizePhone оставляет только цифры и приводит международный код 82 к локальному виду
func (uc *UseCase) normalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	international := strings.HasPrefix(trimmed, "+")

	var b strings.Builder
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if international && strings.HasPrefix(digits, "82") {
		digits = "0" + strings.TrimPrefix(digits, "82")
	}

	if len(digits) < uc.cfg.PhoneMinDigits || len(digits) > uc.cfg.PhoneMaxDigits {
		return "", fmt.Errorf("%w: phone must have %d..%d digits", ErrValidation, uc.cfg.PhoneMinDigits, uc.cfg.PhoneMaxDigits)
	}
	if uc.cfg.PhonePrefix != "" && !strings.HasPrefix(digits, uc.cfg.PhonePrefix) {
		return "", fmt.Errorf("%w: phone must start with %s", ErrValidation, uc.cfg.PhonePrefix)
	}

	return digits, nil
}

// validateContact проверяет контакт; телефон по умолчанию берётся из шага идентификации
func (uc *UseCase) validateContact(in StepInput, identity domain.CustomerIdentity) (domain.Contact, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = identity.Name
	}

	input := contactInput{
		Name:    name,
		Channel: strings.ToLower(strings.TrimSpace(in.Channel)),
		Email:   strings.TrimSpace(in.Email),
	}
	if err := validate.Struct(input); err != nil {
		return domain.Contact{}, fmt.Errorf("%w: contact: %v", ErrValidation, err)
	}

	phone := identity.Phone
	if strings.TrimSpace(in.Phone) != "" {
		normalized, err := uc.normalizePhone(in.Phone)
		if err != nil {
			return domain.Contact{}, err
		}
		phone = normalized
	}

	return domain.Contact{
		Name:    input.Name,
		Phone:   phone,
		Channel: domain.ContactChannel(input.Channel),
		Email:   input.Email,
	}, nil
}

func validateCommit(req CommitRequest, st *domain.SettlementChoiceState) (string, error) {
	if !req.Consent {
		return CodeConsentRequired, fmt.Errorf("%w: consent is required", ErrValidation)
	}
	if !st.Allows(req.Method) {
		return CodeMethodNotAllowed, fmt.Errorf("%w: settlement method %q is not offered", ErrValidation, req.Method)
	}
	return "", nil
}
