package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/auth"
	"github.com/ariefcatur/go-storefront.git/internal/blob"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const maxUploadBytes = 32 << 20

// CatalogService is satisfied by *catalog.Store.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	InsertProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error)
}

// ImageStore is satisfied by *blob.Store.
type ImageStore interface {
	Save(originalName string, r io.Reader) (string, error)
}

type ProductsHandler struct {
	Catalog  CatalogService
	Images   ImageStore
	Redis    *redis.Client // nil disables list caching
	Sessions auth.Verifier
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/api/products", h.listProducts)
	r.With(auth.RequireToken(h.Sessions)).Post("/api/products", h.createProduct)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyProductList).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	ps, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "listing products failed")
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	b, err := json.Marshal(ps)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "listing products failed")
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyProductList, b, redisx.TTLProductList).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// createProduct accepts a multipart form: name, price, stock, category_id
// and an optional image file.
func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		writeFailure(w, http.StatusBadRequest, "name is required")
		return
	}
	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil || price.IsNegative() {
		writeFailure(w, http.StatusBadRequest, "invalid price")
		return
	}
	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil || stock < 0 {
		writeFailure(w, http.StatusBadRequest, "invalid stock")
		return
	}
	categoryID, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		writeFailure(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var imageURL string
	if file, hdr, err := r.FormFile("image"); err == nil {
		defer file.Close()
		stored, err := h.Images.Save(hdr.Filename, file)
		if errors.Is(err, blob.ErrUnsupportedType) {
			writeFailure(w, http.StatusBadRequest, "unsupported image type")
			return
		}
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, "storing image failed")
			return
		}
		imageURL = "/static/uploads/" + stored
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Catalog.InsertProduct(ctx, &catalog.Product{
		Name:       name,
		Price:      price,
		Stock:      stock,
		CategoryID: categoryID,
		ImageURL:   imageURL,
	})
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "creating product failed")
		return
	}

	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.KeyProductList).Err()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}
