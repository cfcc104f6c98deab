package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/observability"
	"golang.org/x/time/rate"
)

// Client implements domain.AddressResolver using the ViaCEP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a ViaCEP client. A ratePerSecond of zero disables
// outbound throttling.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	burst := 0
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = max(1, int(ratePerSecond))
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve looks up a complete postal code.
func (c *Client) Resolve(ctx context.Context, postalCode string) (domain.Address, error) {
	addr, err := c.resolve(ctx, postalCode)
	switch {
	case err == nil:
		c.metrics.PostalLookups.WithLabelValues("found").Inc()
	case errors.Is(err, domain.ErrLookupNotFound):
		c.metrics.PostalLookups.WithLabelValues("not_found").Inc()
	default:
		c.metrics.PostalLookups.WithLabelValues("error").Inc()
		c.logger.Warn("viacep lookup failed", "cep", postalCode, "error", err)
	}
	return addr, err
}

func (c *Client) resolve(ctx context.Context, postalCode string) (domain.Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Address{}, &domain.TransportError{Op: "viacep rate limit", Err: err}
	}

	u := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, postalCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PostalAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Address{}, &domain.TransportError{Op: "viacep request", Err: err}
	}
	defer resp.Body.Close()

	// ViaCEP answers 400 for codes that are not eight digits.
	if resp.StatusCode == http.StatusBadRequest {
		return domain.Address{}, domain.ErrLookupNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Address{}, &domain.TransportError{
			Op:  "viacep request",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Address{}, &domain.TransportError{Op: "viacep decode", Err: err}
	}
	if r.Erro {
		return domain.Address{}, domain.ErrLookupNotFound
	}

	c.logger.Debug("viacep lookup", "cep", postalCode, "municipality", r.Localidade)
	return domain.Address{
		Street:       r.Logradouro,
		Neighborhood: r.Bairro,
		Municipality: r.Localidade,
		Region:       r.UF,
	}, nil
}

// ViaCEP API response types.

type response struct {
	CEP        string   `json:"cep"`
	Logradouro string   `json:"logradouro"`
	Bairro     string   `json:"bairro"`
	Localidade string   `json:"localidade"`
	UF         string   `json:"uf"`
	Erro       flexBool `json:"erro"`
}

// flexBool accepts both `true` and `"true"`; ViaCEP has served both forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid erro flag %s", data)
	}
	return nil
}
