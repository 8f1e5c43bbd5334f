package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/app/api"
	"github.com/puestito/ventas-pos/app/catalog"
	"github.com/puestito/ventas-pos/app/sales"
	"github.com/puestito/ventas-pos/models"
)

type Routes struct {
	Catalog *catalog.CatalogHandler
	// Ledgers maps each ledger to the handler serving it.
	Ledgers map[models.Ledger]*sales.SalesHandler
	Health  Pinger
}

type RouterOptions struct {
	AllowedOrigins []string
}

func NewRouter(routes Routes, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.ErrorResponse(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.ErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", healthHandler(routes.Health, logger)).Methods(http.MethodGet)

	r.HandleFunc("/api/products/{listNumber}", routes.Catalog.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/api/products", routes.Catalog.HandleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/products/{id}", routes.Catalog.HandleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/api/products/{id}", routes.Catalog.HandleDelete).Methods(http.MethodDelete)

	for ledger, h := range routes.Ledgers {
		base := api.LedgerPath(ledger)
		r.HandleFunc(base, h.HandleList).Methods(http.MethodGet)
		r.HandleFunc(base, h.HandleCreate).Methods(http.MethodPost)
		r.HandleFunc(base+"/export", h.HandleExport).Methods(http.MethodGet)
		r.HandleFunc(base+"/{id}", h.HandleUpdate).Methods(http.MethodPut)
		r.HandleFunc(base+"/{id}", h.HandleDelete).Methods(http.MethodDelete)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: trimAll(opts.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
	})

	var h http.Handler = r
	h = recoverMiddleware(logger)(h)
	h = c.Handler(h)
	h = logMiddleware(logger)(h)
	h = requestIDMiddleware(h)
	return h
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
