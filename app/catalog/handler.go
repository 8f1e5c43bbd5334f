package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/api"
	"github.com/puestito/ventas-pos/app/pricing"
	"github.com/puestito/ventas-pos/models"
)

type Product struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	Promotion  pricing.Promotion `json:"promotion"`
	ListNumber int               `json:"listNumber"`
}

type ProductStore interface {
	ListByList(ctx context.Context, listNumber int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
}

type CatalogHandler struct {
	repo   ProductStore
	logger *zap.Logger
}

func NewCatalogHandler(r ProductStore, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:   r,
		logger: logger,
	}
}

func toProduct(p *models.Product) Product {
	return Product{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.InexactFloat64(),
		Promotion:  p.Promotion(),
		ListNumber: p.ListNumber,
	}
}

func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listNumber, err := strconv.Atoi(mux.Vars(r)["listNumber"])
	if err != nil || listNumber < 1 {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid list number")
		return
	}

	res, err := h.repo.ListByList(context.WithoutCancel(r.Context()), listNumber)
	if err != nil {
		h.logger.Error("failed to list products", zap.Int("list_number", listNumber), zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	products := make([]Product, len(res))
	for i := range res {
		products[i] = toProduct(&res[i])
	}
	api.OKResponse(w, http.StatusOK, products)
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name       string            `json:"name"`
		Price      *decimal.Decimal  `json:"price"`
		Promotion  pricing.Promotion `json:"promotion"`
		ListNumber int               `json:"listNumber"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		decodeError(w, err)
		return
	}

	if input.Name == "" || input.Price == nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Missing name or price")
		return
	}

	product := &models.Product{
		Name:       input.Name,
		Price:      *input.Price,
		ListNumber: input.ListNumber,
	}
	product.SetPromotion(input.Promotion)

	if err := h.repo.Create(context.WithoutCancel(r.Context()), product); err != nil {
		api.StoreError(w, h.logger, err, "Product not found", "Failed to create product")
		return
	}

	api.OKResponse(w, http.StatusCreated, toProduct(product))
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var input struct {
		Name       *string          `json:"name"`
		Price      *decimal.Decimal `json:"price"`
		Promotion  json.RawMessage  `json:"promotion"`
		ListNumber *int             `json:"listNumber"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		decodeError(w, err)
		return
	}

	patch := models.ProductPatch{
		Name:       input.Name,
		Price:      input.Price,
		ListNumber: input.ListNumber,
	}
	// A present "promotion" key replaces the promotion; null clears it.
	if len(input.Promotion) > 0 {
		var promo pricing.Promotion
		if err := json.Unmarshal(input.Promotion, &promo); err != nil {
			decodeError(w, err)
			return
		}
		patch.Promotion = &promo
	}

	product, err := h.repo.Update(context.WithoutCancel(r.Context()), id, patch)
	if err != nil {
		api.StoreError(w, h.logger, err, "Product not found", "Failed to update product")
		return
	}

	api.OKResponse(w, http.StatusOK, toProduct(product))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(context.WithoutCancel(r.Context()), id); err != nil {
		api.StoreError(w, h.logger, err, "Product not found", "Failed to delete product")
		return
	}

	api.MessageResponse(w, "Product deleted successfully")
}

func productID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 0)
	if err != nil || id == 0 {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid product id")
		return 0, false
	}
	return uint(id), true
}

func decodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, pricing.ErrInvalidPromotion) {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid promotion: quantity and price must be positive")
		return
	}
	api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
}
