package indexsvc

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	catalogrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/catalog/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/catalog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultReindexParallelism = 4
	defaultReindexPageSize    = 200
	defaultSearchLimit        = 100
)

type catalogReader interface {
	GetProductFull(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	ListProductIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type searchIndex interface {
	Upsert(ctx context.Context, doc searchdoc.Document) error
	Delete(ctx context.Context, id string) error
	SearchByBrand(ctx context.Context, brand string, limit int) ([]searchdoc.Document, error)
}

// IndexService keeps the product search documents in line with the relational catalog.
type IndexService struct {
	catalog     catalogReader
	index       searchIndex
	locks       productLocker
	parallelism int
	pageSize    int
	searchLimit int
	log         *zap.Logger
}

// option is a function that configures the IndexService.
type option func(*IndexService)

// MustNewIndexService creates a new IndexService.
func MustNewIndexService(opts ...option) *IndexService {
	s := &IndexService{
		parallelism: viper.GetInt("search.reindex_parallelism"),
		pageSize:    viper.GetInt("search.reindex_page_size"),
		searchLimit: viper.GetInt("search.result_limit"),
		locks:       newStripedLocker(defaultLockStripes),
		log:         zap.L(),
	}
	if s.parallelism <= 0 {
		s.parallelism = defaultReindexParallelism
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultReindexPageSize
	}
	if s.searchLimit <= 0 {
		s.searchLimit = defaultSearchLimit
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		panic("indexsvc: catalog source is required")
	}
	if s.index == nil {
		panic("indexsvc: search index is required")
	}

	return s
}

// WithPostgresClient reads the catalog from Postgres and serializes document writes
// per product with advisory locks, so replicas do not overwrite each other.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *IndexService) {
		s.catalog = catalogrepo.NewPostgresCatalogRepository(pgClient.Pool())
		s.locks = advisoryLocker{client: pgClient}
	}
}

// WithCatalogReader sets the catalog source directly.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCatalogReader(r catalogReader) option {
	return func(s *IndexService) {
		s.catalog = r
	}
}

// WithSearchIndex sets the document store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSearchIndex(idx searchIndex) option {
	return func(s *IndexService) {
		s.index = idx
	}
}

// WithReindexParallelism caps how many products Reindex rebuilds at once.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithReindexParallelism(n int) option {
	return func(s *IndexService) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithReindexPageSize sets how many product ids Reindex reads per page.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithReindexPageSize(n int) option {
	return func(s *IndexService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger for the IndexService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLogger(log *zap.Logger) option {
	return func(s *IndexService) {
		s.log = log
	}
}
