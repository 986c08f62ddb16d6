package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/domain/ports/adapter"
	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/infra/metrics"
)

// Compile-time check
var _ adapter.AssistantAPI = (*Client)(nil)

const maxErrorBody = 512

// StatusError is returned for non-2xx responses from the assistant.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assistant responded %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrUpstream }

// Client talks to the exchange assistant REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zerolog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// resourceURL builds <base>/api/v1/<resource><path>.
func (c *Client) resourceURL(resource, path string) string {
	return c.baseURL + "/api/v1/" + resource + path
}

type currenciesResponse struct {
	Currencies []model.Currency `json:"currencies"`
}

func (c *Client) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	body, err := c.do(ctx, http.MethodGet, "currency", "/all", nil)
	if err != nil {
		return nil, err
	}
	var resp currenciesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode currencies: %w", err)
	}
	out := make([]model.Currency, 0, len(resp.Currencies))
	for _, cur := range resp.Currencies {
		out = append(out, cur.Normalize())
	}
	return out, nil
}

type currencyRateRequest struct {
	GroupID       int64                     `json:"group_id"`
	CurrencyRates []model.CurrencyRateEntry `json:"currency_rates"`
}

func (c *Client) UpdateExchangeRate(ctx context.Context, groupID int64, rates []model.CurrencyRateEntry) error {
	_, err := c.do(ctx, http.MethodPost, "exchange_rate", "/currency_rate", currencyRateRequest{
		GroupID:       groupID,
		CurrencyRates: rates,
	})
	return err
}

func (c *Client) SendPaymentAccount(ctx context.Context, info model.PaymentAccountInfo) error {
	_, err := c.do(ctx, http.MethodPost, "telegram/messages", "/payment_account", info)
	return err
}

type orderRequest struct {
	OrderID    string `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	GroupID    int64  `json:"group_id"`
}

func newOrderRequest(groupID int64, ref model.PaymentRef) orderRequest {
	return orderRequest{OrderID: ref.OrderID.String(), CustomerID: ref.CustomerID, GroupID: groupID}
}

func (c *Client) ReportOutOfStock(ctx context.Context, groupID int64, ref model.PaymentRef) error {
	_, err := c.do(ctx, http.MethodPost, "telegram/messages", "/out_of_stock", newOrderRequest(groupID, ref))
	return err
}

func (c *Client) ConfirmPayment(ctx context.Context, groupID int64, ref model.PaymentRef) error {
	_, err := c.do(ctx, http.MethodPost, "telegram/messages", "/confirm_pay", newOrderRequest(groupID, ref))
	return err
}

type statusRequest struct {
	GroupID int64                      `json:"group_id"`
	Status  model.PaymentAccountStatus `json:"status"`
}

func (c *Client) UpdatePaymentAccountStatus(ctx context.Context, groupID int64, status model.PaymentAccountStatus) error {
	_, err := c.do(ctx, http.MethodPost, "telegram/messages", "/payment_account_status", statusRequest{GroupID: groupID, Status: status})
	return err
}

func (c *Client) GetFile(ctx context.Context, fileID, fileName string) ([]byte, error) {
	if strings.TrimSpace(fileID) == "" || strings.TrimSpace(fileName) == "" {
		return nil, domain.ErrInvalidArgument
	}
	path := "/" + url.PathEscape(fileID) + "/" + url.PathEscape(fileName)
	return c.do(ctx, http.MethodGet, "files", path, nil)
}

func (c *Client) do(ctx context.Context, method, resource, path string, payload any) ([]byte, error) {
	endpoint := resource + path
	start := time.Now()
	ok := false
	defer func() { metrics.ObserveAssistantCall(resource, time.Since(start), ok) }()

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resourceURL(resource, path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.TraceID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, endpoint, domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		logging.With(ctx, c.log).Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("assistant call failed")
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	ok = true
	return body, nil
}
