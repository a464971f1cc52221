package customerservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Client клиент для работы с CustomerService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CustomerService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetByPhone ищет карточку клиента тенанта по нормализованному номеру телефона
func (c *Client) GetByPhone(ctx context.Context, tenantID int64, phone string) (*Customer, error) {
	endpoint := fmt.Sprintf("%s/internal/tenants/%d/customers?phone=%s", c.baseURL, tenantID, url.QueryEscape(phone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrCustomerNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var customer Customer
	if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &customer, nil
}

// ResolveIdentity определяет клиента по телефону с graceful degradation
// Неизвестный телефон или недоступность CustomerService дают гостевую личность, бронирование не блокируется
func (c *Client) ResolveIdentity(ctx context.Context, tenantID int64, phone string) domain.CustomerIdentity {
	guest := domain.CustomerIdentity{Phone: phone}

	customer, err := c.GetByPhone(ctx, tenantID, phone)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			c.log.Info("No customer record for tenant_id=%d, booking as guest", tenantID)
			return guest
		}

		c.log.Error("CustomerService unavailable, applying graceful degradation for tenant_id=%d: %v", tenantID, err)
		return guest
	}

	return domain.CustomerIdentity{
		CustomerID: customer.ID,
		Phone:      phone,
		Name:       customer.Name,
		Email:      customer.Email,
	}
}
