package admincatalog

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service interface {
	UpdateBrand(ctx context.Context, p principal.Principal, b catalog.Brand) (catalog.Brand, error)
	DeleteBrand(ctx context.Context, p principal.Principal, id uuid.UUID) error
	CreateProduct(ctx context.Context, p principal.Principal, prod catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, p principal.Principal, prod catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, p principal.Principal, id uuid.UUID) error
	CreateVariant(ctx context.Context, p principal.Principal, productID uuid.UUID, v catalog.Variant) (catalog.Variant, error)
	UpdateVariant(ctx context.Context, p principal.Principal, v catalog.Variant) (catalog.Variant, error)
	DeleteVariant(ctx context.Context, p principal.Principal, id uuid.UUID) error
	Restock(ctx context.Context, p principal.Principal, variantID uuid.UUID, quantity int) error
}

type brandRequest struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description"`
}

type variantRequest struct {
	Name  string          `json:"name"  validate:"required"`
	Size  string          `json:"size"`
	Scent string          `json:"scent"`
	Stock int             `json:"stock" validate:"gte=0"`
	Price decimal.Decimal `json:"price"`
}

func (r variantRequest) toModel() catalog.Variant {
	return catalog.Variant{Name: r.Name, Size: r.Size, Scent: r.Scent, Stock: r.Stock, Price: r.Price}
}

type productRequest struct {
	BrandID           *uuid.UUID       `json:"brandId"`
	Name              string           `json:"name"              validate:"required"`
	Description       string           `json:"description"`
	ProductMaterial   string           `json:"productMaterial"`
	Inspiration       string           `json:"inspiration"`
	UsageInstructions string           `json:"usageInstructions"`
	ThumbnailImage    string           `json:"thumbnailImage"`
	IsActive          bool             `json:"isActive"`
	Variants          []variantRequest `json:"variants"          validate:"dive"`
}

func (r productRequest) toModel() catalog.Product {
	prod := catalog.Product{
		BrandID:           r.BrandID,
		Name:              r.Name,
		Description:       r.Description,
		ProductMaterial:   r.ProductMaterial,
		Inspiration:       r.Inspiration,
		UsageInstructions: r.UsageInstructions,
		ThumbnailImage:    r.ThumbnailImage,
		IsActive:          r.IsActive,
	}
	for _, v := range r.Variants {
		prod.Variants = append(prod.Variants, v.toModel())
	}

	return prod
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// UpdateBrand handles PUT /admin/brands/{id}.
func UpdateBrand(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	req := brandRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	b, err := service.UpdateBrand(r.Context(), p, catalog.Brand{ID: id, Name: req.Name, Description: req.Description})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, b)
}

// DeleteBrand handles DELETE /admin/brands/{id}.
func DeleteBrand(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	if err := service.DeleteBrand(r.Context(), p, id); err != nil {
		respond.Error(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateProduct handles POST /admin/products.
func CreateProduct(w http.ResponseWriter, r *http.Request, service service) {
	p, err := respond.Principal(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	req := productRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	prod, err := service.CreateProduct(r.Context(), p, req.toModel())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusCreated, prod)
}

// UpdateProduct handles PUT /admin/products/{id}.
func UpdateProduct(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	req := productRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	model := req.toModel()
	model.ID = id
	model.Variants = nil

	prod, err := service.UpdateProduct(r.Context(), p, model)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, prod)
}

// DeleteProduct handles DELETE /admin/products/{id}.
func DeleteProduct(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	if err := service.DeleteProduct(r.Context(), p, id); err != nil {
		respond.Error(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateVariant handles POST /admin/products/{id}/variants.
func CreateVariant(w http.ResponseWriter, r *http.Request, service service) {
	p, productID, ok := principalAndID(w, r)
	if !ok {
		return
	}

	req := variantRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	v, err := service.CreateVariant(r.Context(), p, productID, req.toModel())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusCreated, v)
}

// UpdateVariant handles PUT /admin/variants/{id}.
func UpdateVariant(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	req := variantRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	model := req.toModel()
	model.ID = id

	v, err := service.UpdateVariant(r.Context(), p, model)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, v)
}

// DeleteVariant handles DELETE /admin/variants/{id}.
func DeleteVariant(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	if err := service.DeleteVariant(r.Context(), p, id); err != nil {
		respond.Error(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restock handles POST /admin/variants/{id}/restock.
func Restock(w http.ResponseWriter, r *http.Request, service service) {
	p, id, ok := principalAndID(w, r)
	if !ok {
		return
	}

	req := restockRequest{}
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	if err := service.Restock(r.Context(), p, id, req.Quantity); err != nil {
		respond.Error(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func principalAndID(w http.ResponseWriter, r *http.Request) (principal.Principal, uuid.UUID, bool) {
	p, err := respond.Principal(r)
	if err != nil {
		respond.Error(w, r, err)

		return principal.Principal{}, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, errs.InvalidInputf("invalid id %q", chi.URLParam(r, "id")))

		return principal.Principal{}, uuid.Nil, false
	}

	return p, id, true
}
