package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/muebleria/api/internal/domain"
	pfirestore "github.com/muebleria/api/internal/platform/firestore"
)

const (
	itemCollection    = "furnitureItems"
	variantCollection = "variants"
)

// CatalogRepository persists furniture items and pricing variants in Firestore.
type CatalogRepository struct {
	items    *pfirestore.BaseRepository[itemDocument]
	variants *pfirestore.BaseRepository[variantDocument]
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		items:    pfirestore.NewBaseRepository[itemDocument](provider, itemCollection, nil),
		variants: pfirestore.NewBaseRepository[variantDocument](provider, variantCollection, nil),
	}, nil
}

// SaveItem upserts the furniture item document.
func (r *CatalogRepository) SaveItem(ctx context.Context, item domain.FurnitureItem) error {
	if r == nil || r.items == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("item id is required")
	}
	return r.items.Set(ctx, item.ID, fromDomainItem(item))
}

// FindItem loads the furniture item by ID.
func (r *CatalogRepository) FindItem(ctx context.Context, itemID string) (domain.FurnitureItem, error) {
	if r == nil || r.items == nil {
		return domain.FurnitureItem{}, errors.New("catalog repository not initialised")
	}
	doc, err := r.items.Get(ctx, itemID)
	if err != nil {
		return domain.FurnitureItem{}, err
	}
	return toDomainItem(doc.ID, doc.Data), nil
}

// ListItems returns catalog items ordered by name.
func (r *CatalogRepository) ListItems(ctx context.Context, onlyActive bool) ([]domain.FurnitureItem, error) {
	if r == nil || r.items == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	docs, err := r.items.Query(ctx, func(q firestore.Query) firestore.Query {
		if onlyActive {
			q = q.Where("active", "==", true)
		}
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	items := make([]domain.FurnitureItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainItem(doc.ID, doc.Data))
	}
	return items, nil
}

// SaveVariant upserts the variant document.
func (r *CatalogRepository) SaveVariant(ctx context.Context, variant domain.Variant) error {
	if r == nil || r.variants == nil {
		return errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(variant.ID) == "" {
		return errors.New("variant id is required")
	}
	return r.variants.Set(ctx, variant.ID, fromDomainVariant(variant))
}

// FindVariant loads the variant by ID.
func (r *CatalogRepository) FindVariant(ctx context.Context, variantID string) (domain.Variant, error) {
	if r == nil || r.variants == nil {
		return domain.Variant{}, errors.New("catalog repository not initialised")
	}
	doc, err := r.variants.Get(ctx, variantID)
	if err != nil {
		return domain.Variant{}, err
	}
	return toDomainVariant(doc.ID, doc.Data), nil
}

// ListVariants returns variants ordered by name.
func (r *CatalogRepository) ListVariants(ctx context.Context, onlyActive bool) ([]domain.Variant, error) {
	if r == nil || r.variants == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	docs, err := r.variants.Query(ctx, func(q firestore.Query) firestore.Query {
		if onlyActive {
			q = q.Where("active", "==", true)
		}
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	variants := make([]domain.Variant, 0, len(docs))
	for _, doc := range docs {
		variants = append(variants, toDomainVariant(doc.ID, doc.Data))
	}
	return variants, nil
}

type itemDocument struct {
	Name       string    `firestore:"name"`
	NameFolded string    `firestore:"nameFolded"`
	Type       string    `firestore:"type"`
	BasePrice  int64     `firestore:"basePrice"`
	Stock      int       `firestore:"stock"`
	Size       string    `firestore:"size"`
	Material   string    `firestore:"material"`
	Active     bool      `firestore:"active"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

type variantDocument struct {
	Name      string    `firestore:"name"`
	CostValue int64     `firestore:"costValue"`
	Kind      string    `firestore:"kind"`
	Active    bool      `firestore:"active"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func fromDomainItem(item domain.FurnitureItem) itemDocument {
	return itemDocument{
		Name:       strings.TrimSpace(item.Name),
		NameFolded: item.NameFolded,
		Type:       strings.TrimSpace(item.Type),
		BasePrice:  item.BasePrice,
		Stock:      item.Stock,
		Size:       string(item.Size),
		Material:   strings.TrimSpace(item.Material),
		Active:     item.Active,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func toDomainItem(id string, doc itemDocument) domain.FurnitureItem {
	return domain.FurnitureItem{
		ID:         id,
		Name:       doc.Name,
		NameFolded: doc.NameFolded,
		Type:       doc.Type,
		BasePrice:  doc.BasePrice,
		Stock:      doc.Stock,
		Size:       domain.ItemSize(doc.Size),
		Material:   doc.Material,
		Active:     doc.Active,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func fromDomainVariant(variant domain.Variant) variantDocument {
	return variantDocument{
		Name:      strings.TrimSpace(variant.Name),
		CostValue: variant.CostValue,
		Kind:      string(variant.Kind),
		Active:    variant.Active,
		CreatedAt: variant.CreatedAt,
		UpdatedAt: variant.UpdatedAt,
	}
}

func toDomainVariant(id string, doc variantDocument) domain.Variant {
	return domain.Variant{
		ID:        id,
		Name:      doc.Name,
		CostValue: doc.CostValue,
		Kind:      domain.ApplicationKind(doc.Kind),
		Active:    doc.Active,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
