package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/pricing"
	"github.com/puestito/ventas-pos/models"
)

// --- Mock Repo ---

type MockProductRepo struct {
	SourceProducts []models.Product
	Err            error

	// Fields to capture call arguments
	lastListNumber int
	lastCreated    *models.Product
	lastUpdatedID  uint
	lastPatch      *models.ProductPatch
	lastDeletedID  uint
}

func (m *MockProductRepo) ListByList(_ context.Context, listNumber int) ([]models.Product, error) {
	m.lastListNumber = listNumber
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Product
	for _, p := range m.SourceProducts {
		if p.ListNumber == listNumber {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProductRepo) Create(_ context.Context, product *models.Product) error {
	m.lastCreated = product
	if m.Err != nil {
		return m.Err
	}
	if err := product.Validate(); err != nil {
		return err
	}
	product.ID = 42
	return nil
}

func (m *MockProductRepo) Update(_ context.Context, id uint, patch models.ProductPatch) (*models.Product, error) {
	m.lastUpdatedID = id
	m.lastPatch = &patch
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.SourceProducts {
		if p.ID == id {
			updated := p
			if patch.Name != nil {
				updated.Name = *patch.Name
			}
			if patch.Price != nil {
				updated.Price = *patch.Price
			}
			if patch.Promotion != nil {
				updated.SetPromotion(*patch.Promotion)
			}
			return &updated, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) Delete(_ context.Context, id uint) error {
	m.lastDeletedID = id
	if m.Err != nil {
		return m.Err
	}
	for _, p := range m.SourceProducts {
		if p.ID == id {
			return nil
		}
	}
	return models.ErrProductNotFound
}

// --- Helpers ---

func newTestProduct(id uint, name string, price float64, listNumber int) models.Product {
	return models.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.NewFromFloat(price),
		ListNumber: listNumber,
	}
}

func withPromotion(p models.Product, qty int, price float64) models.Product {
	promo, _ := pricing.NewPromotion(qty, decimal.NewFromFloat(price))
	p.SetPromotion(promo)
	return p
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var errResp map[string]string
	err := json.NewDecoder(rec.Body).Decode(&errResp)
	assert.NoError(t, err)
	return errResp["error"]
}

// --- Tests: GET /api/products/{listNumber} ---

func TestHandleList(t *testing.T) {
	allMockProducts := []models.Product{
		withPromotion(newTestProduct(1, "Empanada", 300, 1), 4, 1000),
		newTestProduct(2, "Alfajor", 150.5, 1),
		newTestProduct(3, "Torta", 2500, 2),
	}

	testCases := []struct {
		name               string
		listNumber         string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:       "Products of list 1",
			listNumber: "1",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[
					{"id":1,"name":"Empanada","price":300,"promotion":{"quantity":4,"price":1000},"listNumber":1},
					{"id":2,"name":"Alfajor","price":150.5,"promotion":null,"listNumber":1}
				]`, rec.Body.String())
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, 1, repo.lastListNumber)
			},
		},
		{
			name:       "Empty list is an empty array",
			listNumber: "9",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name:       "Invalid list number",
			listNumber: "abc",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid list number", errorMessage(t, rec))
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Zero(t, repo.lastListNumber)
			},
		},
		{
			name:       "Repository error",
			listNumber: "1",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db connection lost")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Failed to fetch products", errorMessage(t, rec))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCatalogHandler(mockRepo, zap.NewNop())
			req := httptest.NewRequest("GET", "/api/products/"+tc.listNumber, nil)
			req = mux.SetURLVars(req, map[string]string{"listNumber": tc.listNumber})
			rec := httptest.NewRecorder()

			// Act
			handler.HandleList(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

// --- Tests: POST /api/products ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:        "Success with promotion",
			requestBody: `{"name":"Empanada","price":300,"promotion":{"quantity":4,"price":1000},"listNumber":1}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t,
					`{"id":42,"name":"Empanada","price":300,"promotion":{"quantity":4,"price":1000},"listNumber":1}`,
					rec.Body.String())
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.NotNil(t, repo.lastCreated)
				assert.Equal(t, "Empanada", repo.lastCreated.Name)
				assert.True(t, repo.lastCreated.Promotion().IsSet())
			},
		},
		{
			name:        "Success without promotion",
			requestBody: `{"name":"Alfajor","price":"150.50","listNumber":2}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.True(t, decimal.RequireFromString("150.50").Equal(repo.lastCreated.Price))
				assert.False(t, repo.lastCreated.Promotion().IsSet())
			},
		},
		{
			name:        "Invalid JSON body",
			requestBody: `{invalid json`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid JSON body", errorMessage(t, rec))
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastCreated, "Create should not be called with invalid JSON")
			},
		},
		{
			name:        "Invalid promotion",
			requestBody: `{"name":"X","price":1,"promotion":{"quantity":0,"price":5},"listNumber":1}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, errorMessage(t, rec), "Invalid promotion")
			},
		},
		{
			name:        "Missing price",
			requestBody: `{"name":"X","listNumber":1}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Missing name or price", errorMessage(t, rec))
			},
		},
		{
			name:        "Validation error from store",
			requestBody: `{"name":"X","price":1,"listNumber":0}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "listNumber must be 1 or greater", errorMessage(t, rec))
			},
		},
		{
			name:        "Sub-cent price",
			requestBody: `{"name":"X","price":"1.005","listNumber":1}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "price must not have more than 2 decimal places", errorMessage(t, rec))
			},
		},
		{
			name:        "Repository error on create",
			requestBody: `{"name":"X","price":1,"listNumber":1}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("insert failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Failed to create product", errorMessage(t, rec))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCatalogHandler(mockRepo, zap.NewNop())
			req := httptest.NewRequest("POST", "/api/products", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			// Act
			handler.HandleCreate(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

// --- Tests: PUT /api/products/{id} ---

func TestHandleUpdate(t *testing.T) {
	source := []models.Product{withPromotion(newTestProduct(1, "Empanada", 300, 1), 4, 1000)}

	testCases := []struct {
		name               string
		id                 string
		requestBody        string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:        "Partial update leaves promotion untouched",
			id:          "1",
			requestBody: `{"price":350}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: source}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t,
					`{"id":1,"name":"Empanada","price":350,"promotion":{"quantity":4,"price":1000},"listNumber":1}`,
					rec.Body.String())
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, uint(1), repo.lastUpdatedID)
				assert.Nil(t, repo.lastPatch.Promotion)
				assert.Nil(t, repo.lastPatch.Name)
			},
		},
		{
			name:        "Null promotion clears it",
			id:          "1",
			requestBody: `{"promotion":null}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: source}
			},
			expectedStatusCode: http.StatusOK,
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				if assert.NotNil(t, repo.lastPatch.Promotion) {
					assert.False(t, repo.lastPatch.Promotion.IsSet())
				}
			},
		},
		{
			name:        "Not found",
			id:          "99",
			requestBody: `{"name":"Ghost"}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: source}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product not found", errorMessage(t, rec))
			},
		},
		{
			name:        "Invalid id",
			id:          "x1",
			requestBody: `{}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: source}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastPatch)
			},
		},
		{
			name:        "Repository error",
			id:          "1",
			requestBody: `{"name":"X"}`,
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("update failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Failed to update product", errorMessage(t, rec))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCatalogHandler(mockRepo, zap.NewNop())
			req := httptest.NewRequest("PUT", "/api/products/"+tc.id, strings.NewReader(tc.requestBody))
			req = mux.SetURLVars(req, map[string]string{"id": tc.id})
			rec := httptest.NewRecorder()

			// Act
			handler.HandleUpdate(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

// --- Tests: DELETE /api/products/{id} ---

func TestHandleDelete(t *testing.T) {
	source := []models.Product{newTestProduct(1, "Empanada", 300, 1)}

	testCases := []struct {
		name               string
		id                 string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:               "Success",
			id:                 "1",
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source} },
			expectedStatusCode: http.StatusOK,
			expectedBody:       `{"message":"Product deleted successfully"}`,
		},
		{
			name:               "Not found",
			id:                 "2",
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source} },
			expectedStatusCode: http.StatusNotFound,
			expectedBody:       `{"error":"Product not found"}`,
		},
		{
			name:               "Repository error",
			id:                 "1",
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{Err: errors.New("boom")} },
			expectedStatusCode: http.StatusInternalServerError,
			expectedBody:       `{"error":"Failed to delete product"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCatalogHandler(mockRepo, zap.NewNop())
			req := httptest.NewRequest("DELETE", "/api/products/"+tc.id, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tc.id})
			rec := httptest.NewRecorder()

			// Act
			handler.HandleDelete(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
		})
	}
}
