package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/api"
	"github.com/puestito/ventas-pos/app/export"
	"github.com/puestito/ventas-pos/app/pricing"
	"github.com/puestito/ventas-pos/models"
)

type Item struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Total       float64 `json:"total"`
}

type Sale struct {
	ID        uint      `json:"id"`
	SaleDate  string    `json:"sale_date"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
	TotalSale float64   `json:"total_sale"`
}

type LedgerStore interface {
	List(ctx context.Context) ([]models.Sale, error)
	Create(ctx context.Context, saleDate time.Time, items []models.SaleItem) (uint, error)
	Update(ctx context.Context, id uint, saleDate time.Time, items []models.SaleItem) error
	Delete(ctx context.Context, id uint) error
}

// ProductLookup resolves the catalog entries referenced by sale items.
type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

// SalesHandler serves one ledger. Register one instance per ledger.
type SalesHandler struct {
	ledger   models.Ledger
	repo     LedgerStore
	products ProductLookup
	logger   *zap.Logger
}

func NewSalesHandler(ledger models.Ledger, repo LedgerStore, products ProductLookup, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{
		ledger:   ledger,
		repo:     repo,
		products: products,
		logger:   logger.With(zap.String("ledger", ledger.Name)),
	}
}

type itemInput struct {
	ProductID   uint             `json:"product_id"`
	LegacyID    uint             `json:"id"`
	ProductName string           `json:"product_name"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    int              `json:"quantity"`
	Total       *decimal.Decimal `json:"total"`
}

type saleInput struct {
	Date  string      `json:"date"`
	Items []itemInput `json:"items"`
}

func ToSale(s *models.Sale) Sale {
	items := make([]Item, len(s.Items))
	for i, it := range s.Items {
		items[i] = Item{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price.InexactFloat64(),
			Quantity:    it.Quantity,
			Total:       it.Total.InexactFloat64(),
		}
	}
	return Sale{
		ID:        s.ID,
		SaleDate:  s.SaleDate.Format(models.SaleDateLayout),
		CreatedAt: s.CreatedAt,
		Items:     items,
		TotalSale: s.TotalSale().InexactFloat64(),
	}
}

func (h *SalesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.List(context.WithoutCancel(r.Context()))
	if err != nil {
		h.logger.Error("failed to list sales", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch sales")
		return
	}

	out := make([]Sale, len(res))
	for i := range res {
		out[i] = ToSale(&res[i])
	}
	api.OKResponse(w, http.StatusOK, out)
}

func (h *SalesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	saleDate, items, ok := h.decodeSale(ctx, w, r)
	if !ok {
		return
	}

	id, err := h.repo.Create(ctx, saleDate, items)
	if err != nil {
		api.StoreError(w, h.logger, err, "Sale not found", "Failed to save sale")
		return
	}

	h.logger.Info("sale created", zap.Uint("sale_id", id), zap.Int("items", len(items)))
	api.OKResponse(w, http.StatusOK, map[string]any{
		"id":      id,
		"message": "Sale saved successfully",
	})
}

func (h *SalesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	id, ok := saleID(w, r)
	if !ok {
		return
	}
	saleDate, items, ok := h.decodeSale(ctx, w, r)
	if !ok {
		return
	}

	if err := h.repo.Update(ctx, id, saleDate, items); err != nil {
		api.StoreError(w, h.logger, err, "Sale not found", "Failed to update sale")
		return
	}

	api.MessageResponse(w, "Sale updated successfully")
}

func (h *SalesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := saleID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(context.WithoutCancel(r.Context()), id); err != nil {
		api.StoreError(w, h.logger, err, "Sale not found", "Failed to delete sale")
		return
	}

	api.MessageResponse(w, "Sale deleted successfully")
}

// HandleExport sends the whole ledger as an xlsx download.
func (h *SalesHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.List(context.WithoutCancel(r.Context()))
	if err != nil {
		h.logger.Error("failed to list sales for export", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to export sales")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ventas-%s.xlsx"`, h.ledger.Name))
	if err := export.WriteWorkbook(w, res); err != nil {
		h.logger.Error("failed to write workbook", zap.Error(err))
	}
}

// decodeSale parses the request body and prices every line with the catalog's
// current promotion for its product. The client's own total is not trusted.
func (h *SalesHandler) decodeSale(ctx context.Context, w http.ResponseWriter, r *http.Request) (time.Time, []models.SaleItem, bool) {
	var input saleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return time.Time{}, nil, false
	}

	saleDate, err := time.Parse(models.SaleDateLayout, input.Date)
	if err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return time.Time{}, nil, false
	}

	ids := make([]uint, 0, len(input.Items))
	for i := range input.Items {
		if input.Items[i].ProductID == 0 {
			input.Items[i].ProductID = input.Items[i].LegacyID
		}
		ids = append(ids, input.Items[i].ProductID)
	}

	catalog, err := h.products.FindByIDs(ctx, ids)
	if err != nil {
		h.logger.Error("failed to load products for sale", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to save sale")
		return time.Time{}, nil, false
	}

	items := make([]models.SaleItem, len(input.Items))
	for i, in := range input.Items {
		name := in.ProductName
		if name == "" {
			name = in.Name
		}
		promo := pricing.NoPromotion()
		if p, ok := catalog[in.ProductID]; ok {
			promo = p.Promotion()
			if name == "" {
				name = p.Name
			}
		}

		total := pricing.Total(in.Quantity, in.Price, promo)
		if in.Total != nil && !in.Total.Equal(total) {
			h.logger.Debug("client total differs from computed total",
				zap.Uint("product_id", in.ProductID),
				zap.String("client_total", in.Total.String()),
				zap.String("total", total.String()))
		}

		items[i] = models.SaleItem{
			ProductID:   in.ProductID,
			ProductName: name,
			Price:       in.Price,
			Quantity:    in.Quantity,
			Total:       total,
		}
	}
	return saleDate, items, true
}

func saleID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 0)
	if err != nil || id == 0 {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid sale id")
		return 0, false
	}
	return uint(id), true
}
