package search

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/errs"
	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/respond"
	"github.com/gorilla/schema"
)

type service interface {
	Reindex(ctx context.Context, p principal.Principal) (int, error)
	SearchByBrand(ctx context.Context, p principal.Principal, brand string) ([]searchdoc.Document, error)
}

type searchRequest struct {
	Brand string `schema:"brand" validate:"required"`
}

type reindexResponse struct {
	Indexed int `json:"indexed"`
}

// Reindex rebuilds every search document from the catalog.
func Reindex(w http.ResponseWriter, r *http.Request, service service) {
	p, err := respond.Principal(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	n, err := service.Reindex(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, reindexResponse{Indexed: n})
}

// ByBrand lists the indexed products of a brand.
func ByBrand(w http.ResponseWriter, r *http.Request, service service) {
	p, err := respond.Principal(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	req := searchRequest{}
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		respond.Error(w, r, errs.InvalidInputf("invalid query: %v", err))

		return
	}
	if err := respond.Validate(&req); err != nil {
		respond.Error(w, r, err)

		return
	}

	docs, err := service.SearchByBrand(r.Context(), p, req.Brand)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, docs)
}
