package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/api"
	"github.com/puestito/ventas-pos/app/sales"
	"github.com/puestito/ventas-pos/models"
)

// BaseURLResolver yields the API base URL to talk to.
type BaseURLResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

type Client struct {
	resolver BaseURLResolver
	http     *http.Client
	logger   *zap.Logger
}

func New(resolver BaseURLResolver, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		resolver: resolver,
		http:     httpClient,
		logger:   logger,
	}
}

// ListSales fetches every sale of ledger, newest first.
func (c *Client) ListSales(ctx context.Context, ledger models.Ledger) ([]models.Sale, error) {
	base, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	url := base + api.LedgerPath(ledger)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	var out []sales.Sale
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(err, "decode sales")
	}
	c.logger.Debug("sales fetched", zap.String("ledger", ledger.Name), zap.Int("count", len(out)))

	result := make([]models.Sale, 0, len(out))
	for _, s := range out {
		sale, err := fromDTO(s)
		if err != nil {
			return nil, err
		}
		result = append(result, sale)
	}
	return result, nil
}

func fromDTO(s sales.Sale) (models.Sale, error) {
	date, err := time.Parse(models.SaleDateLayout, s.SaleDate)
	if err != nil {
		return models.Sale{}, pkgerrors.Wrapf(err, "sale %d date", s.ID)
	}
	items := make([]models.SaleItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = models.SaleItem{
			ID:          it.ID,
			SaleID:      s.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       decimal.NewFromFloat(it.Price),
			Quantity:    it.Quantity,
			Total:       decimal.NewFromFloat(it.Total),
		}
	}
	return models.Sale{
		ID:        s.ID,
		SaleDate:  date,
		CreatedAt: s.CreatedAt,
		Items:     items,
	}, nil
}
