package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/platform/textutil"
	"github.com/muebleria/api/internal/repositories"
)

var (
	// ErrItemNotFound signals that the furniture item does not exist.
	ErrItemNotFound = errors.New("catalog: item not found")
	// ErrVariantNotFound signals that the variant does not exist.
	ErrVariantNotFound = errors.New("catalog: variant not found")
	// ErrCatalogInvalidInput signals malformed catalog data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
)

// DefaultCatalogService manages furniture items and variants. Free-text
// fields are stripped of markup before persistence and item names carry a
// folded copy for accent-insensitive search.
type DefaultCatalogService struct {
	catalog   repositories.CatalogRepository
	sanitizer *bluemonday.Policy
	clock     func() time.Time
	idgen     func() string
	logger    func(context.Context, string, map[string]any)
}

// DefaultCatalogServiceDeps lists the collaborators of the catalog service.
type DefaultCatalogServiceDeps struct {
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(deps DefaultCatalogServiceDeps) (*DefaultCatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	if deps.IDGenerator == nil {
		return nil, errors.New("catalog service: id generator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &DefaultCatalogService{
		catalog:   deps.Catalog,
		sanitizer: bluemonday.StrictPolicy(),
		clock:     func() time.Time { return clock().UTC() },
		idgen:     deps.IDGenerator,
		logger:    logger,
	}, nil
}

// CreateItem adds a new furniture item to the catalog.
func (s *DefaultCatalogService) CreateItem(ctx context.Context, cmd CreateItemCommand) (domain.FurnitureItem, error) {
	item, err := s.itemFromCommand(cmd)
	if err != nil {
		return domain.FurnitureItem{}, err
	}
	now := s.clock()
	item.ID = "itm_" + s.idgen()
	item.Active = true
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.catalog.SaveItem(ctx, item); err != nil {
		return domain.FurnitureItem{}, fmt.Errorf("catalog: save item: %w", err)
	}
	s.logger(ctx, "catalog_item_created", map[string]any{"itemId": item.ID, "name": item.Name})
	return item, nil
}

// UpdateItem replaces the mutable fields of an existing item.
func (s *DefaultCatalogService) UpdateItem(ctx context.Context, itemID string, cmd CreateItemCommand) (domain.FurnitureItem, error) {
	existing, err := s.GetItem(ctx, itemID)
	if err != nil {
		return domain.FurnitureItem{}, err
	}
	updated, err := s.itemFromCommand(cmd)
	if err != nil {
		return domain.FurnitureItem{}, err
	}
	updated.ID = existing.ID
	updated.Active = existing.Active
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.clock()

	if err := s.catalog.SaveItem(ctx, updated); err != nil {
		return domain.FurnitureItem{}, fmt.Errorf("catalog: save item: %w", err)
	}
	s.logger(ctx, "catalog_item_updated", map[string]any{"itemId": updated.ID})
	return updated, nil
}

// GetItem loads one item by ID.
func (s *DefaultCatalogService) GetItem(ctx context.Context, itemID string) (domain.FurnitureItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.FurnitureItem{}, fmt.Errorf("%w: item id is required", ErrCatalogInvalidInput)
	}
	item, err := s.catalog.FindItem(ctx, itemID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.FurnitureItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return domain.FurnitureItem{}, fmt.Errorf("catalog: load item: %w", err)
	}
	return item, nil
}

// ListItems returns catalog items, filtered by folded name match when a
// search term is present.
func (s *DefaultCatalogService) ListItems(ctx context.Context, filter ItemSearchFilter) ([]domain.FurnitureItem, error) {
	items, err := s.catalog.ListItems(ctx, !filter.IncludeInactive)
	if err != nil {
		return nil, fmt.Errorf("catalog: list items: %w", err)
	}
	name := strings.TrimSpace(filter.Name)
	if name == "" {
		return items, nil
	}

	needle := textutil.Fold(name)
	matched := make([]domain.FurnitureItem, 0, len(items))
	for _, item := range items {
		folded := item.NameFolded
		if folded == "" {
			folded = textutil.Fold(item.Name)
		}
		if strings.Contains(folded, needle) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// DeactivateItem soft-deletes the item. Existing orders keep referencing it.
func (s *DefaultCatalogService) DeactivateItem(ctx context.Context, itemID string) (domain.FurnitureItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return domain.FurnitureItem{}, err
	}
	if !item.Active {
		return item, nil
	}
	item.Active = false
	item.UpdatedAt = s.clock()
	if err := s.catalog.SaveItem(ctx, item); err != nil {
		return domain.FurnitureItem{}, fmt.Errorf("catalog: save item: %w", err)
	}
	s.logger(ctx, "catalog_item_deactivated", map[string]any{"itemId": item.ID})
	return item, nil
}

// CreateVariant adds a new pricing variant.
func (s *DefaultCatalogService) CreateVariant(ctx context.Context, cmd CreateVariantCommand) (domain.Variant, error) {
	variant, err := s.variantFromCommand(cmd)
	if err != nil {
		return domain.Variant{}, err
	}
	now := s.clock()
	variant.ID = "var_" + s.idgen()
	variant.Active = true
	variant.CreatedAt = now
	variant.UpdatedAt = now

	if err := s.catalog.SaveVariant(ctx, variant); err != nil {
		return domain.Variant{}, fmt.Errorf("catalog: save variant: %w", err)
	}
	s.logger(ctx, "catalog_variant_created", map[string]any{"variantId": variant.ID, "name": variant.Name})
	return variant, nil
}

// UpdateVariant replaces the mutable fields of an existing variant. Orders
// holding the variant are unaffected until their next live pricing pass.
func (s *DefaultCatalogService) UpdateVariant(ctx context.Context, variantID string, cmd CreateVariantCommand) (domain.Variant, error) {
	existing, err := s.GetVariant(ctx, variantID)
	if err != nil {
		return domain.Variant{}, err
	}
	updated, err := s.variantFromCommand(cmd)
	if err != nil {
		return domain.Variant{}, err
	}
	updated.ID = existing.ID
	updated.Active = existing.Active
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.clock()

	if err := s.catalog.SaveVariant(ctx, updated); err != nil {
		return domain.Variant{}, fmt.Errorf("catalog: save variant: %w", err)
	}
	s.logger(ctx, "catalog_variant_updated", map[string]any{"variantId": updated.ID})
	return updated, nil
}

// GetVariant loads one variant by ID.
func (s *DefaultCatalogService) GetVariant(ctx context.Context, variantID string) (domain.Variant, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return domain.Variant{}, fmt.Errorf("%w: variant id is required", ErrCatalogInvalidInput)
	}
	variant, err := s.catalog.FindVariant(ctx, variantID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Variant{}, fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
		}
		return domain.Variant{}, fmt.Errorf("catalog: load variant: %w", err)
	}
	return variant, nil
}

// ListVariants returns pricing variants.
func (s *DefaultCatalogService) ListVariants(ctx context.Context, includeInactive bool) ([]domain.Variant, error) {
	variants, err := s.catalog.ListVariants(ctx, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("catalog: list variants: %w", err)
	}
	return variants, nil
}

// DeactivateVariant soft-deletes the variant; quotes already holding it
// keep pricing against its stored cost.
func (s *DefaultCatalogService) DeactivateVariant(ctx context.Context, variantID string) (domain.Variant, error) {
	variant, err := s.GetVariant(ctx, variantID)
	if err != nil {
		return domain.Variant{}, err
	}
	if !variant.Active {
		return variant, nil
	}
	variant.Active = false
	variant.UpdatedAt = s.clock()
	if err := s.catalog.SaveVariant(ctx, variant); err != nil {
		return domain.Variant{}, fmt.Errorf("catalog: save variant: %w", err)
	}
	s.logger(ctx, "catalog_variant_deactivated", map[string]any{"variantId": variant.ID})
	return variant, nil
}

func (s *DefaultCatalogService) itemFromCommand(cmd CreateItemCommand) (domain.FurnitureItem, error) {
	name := s.cleanText(cmd.Name)
	if name == "" {
		return domain.FurnitureItem{}, fmt.Errorf("%w: item name is required", ErrCatalogInvalidInput)
	}
	if cmd.BasePrice < 0 {
		return domain.FurnitureItem{}, fmt.Errorf("%w: base price cannot be negative", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return domain.FurnitureItem{}, fmt.Errorf("%w: stock cannot be negative", ErrCatalogInvalidInput)
	}
	size := cmd.Size
	if size == "" {
		size = domain.ItemSizeMedium
	}
	switch size {
	case domain.ItemSizeSmall, domain.ItemSizeMedium, domain.ItemSizeLarge:
	default:
		return domain.FurnitureItem{}, fmt.Errorf("%w: unknown size %q", ErrCatalogInvalidInput, cmd.Size)
	}

	return domain.FurnitureItem{
		Name:       name,
		NameFolded: textutil.Fold(name),
		Type:       s.cleanText(cmd.Type),
		BasePrice:  cmd.BasePrice,
		Stock:      cmd.Stock,
		Size:       size,
		Material:   s.cleanText(cmd.Material),
	}, nil
}

func (s *DefaultCatalogService) variantFromCommand(cmd CreateVariantCommand) (domain.Variant, error) {
	name := s.cleanText(cmd.Name)
	if name == "" {
		return domain.Variant{}, fmt.Errorf("%w: variant name is required", ErrCatalogInvalidInput)
	}
	if cmd.CostValue < 0 {
		return domain.Variant{}, fmt.Errorf("%w: cost value cannot be negative", ErrCatalogInvalidInput)
	}
	switch cmd.Kind {
	case domain.ApplicationFixed, domain.ApplicationPercentage:
	default:
		return domain.Variant{}, fmt.Errorf("%w: unknown application kind %q", ErrCatalogInvalidInput, cmd.Kind)
	}

	return domain.Variant{
		Name:      name,
		CostValue: cmd.CostValue,
		Kind:      cmd.Kind,
	}, nil
}

// cleanText strips markup and collapses the entity escaping bluemonday
// applies to plain text.
func (s *DefaultCatalogService) cleanText(value string) string {
	sanitized := s.sanitizer.Sanitize(strings.TrimSpace(value))
	return strings.TrimSpace(html.UnescapeString(sanitized))
}

var _ CatalogService = (*DefaultCatalogService)(nil)
