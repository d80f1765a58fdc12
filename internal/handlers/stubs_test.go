package handlers

import (
	"context"
	"fmt"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/platform/auth"
	"github.com/muebleria/api/internal/services"
)

type stubVerifier struct {
	identities map[string]*auth.Identity
}

func (v *stubVerifier) Verify(tokenStr string) (*auth.Identity, error) {
	identity, ok := v.identities[tokenStr]
	if !ok {
		return nil, auth.ErrTokenInvalid
	}
	return identity, nil
}

func newTestAuthenticator() *auth.Authenticator {
	return auth.NewAuthenticator(&stubVerifier{identities: map[string]*auth.Identity{
		"user-token":  {UID: "usr_1", Username: "carla", Roles: []string{auth.RoleUser}},
		"other-token": {UID: "usr_2", Username: "diego", Roles: []string{auth.RoleUser}},
		"admin-token": {UID: "usr_admin", Username: "root", Roles: []string{auth.RoleAdmin}},
	}})
}

type stubOrderService struct {
	createFn  func(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error)
	getFn     func(ctx context.Context, orderID string) (domain.Order, error)
	listFn    func(ctx context.Context, filter services.OrderListFilter) ([]domain.Order, error)
	addFn     func(ctx context.Context, orderID string, req services.LineItemRequest) (domain.Order, error)
	updateFn  func(ctx context.Context, cmd services.UpdateLineItemCommand) (domain.Order, error)
	removeFn  func(ctx context.Context, orderID, lineItemID string) (domain.Order, error)
	confirmFn func(ctx context.Context, orderID string) (domain.Order, error)
	cancelFn  func(ctx context.Context, orderID string) (domain.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	if s.createFn == nil {
		return domain.Order{}, fmt.Errorf("createFn not configured")
	}
	return s.createFn(ctx, cmd)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn == nil {
		return domain.Order{}, fmt.Errorf("getFn not configured")
	}
	return s.getFn(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, fmt.Errorf("listFn not configured")
	}
	return s.listFn(ctx, filter)
}

func (s *stubOrderService) AddLineItem(ctx context.Context, orderID string, req services.LineItemRequest) (domain.Order, error) {
	if s.addFn == nil {
		return domain.Order{}, fmt.Errorf("addFn not configured")
	}
	return s.addFn(ctx, orderID, req)
}

func (s *stubOrderService) UpdateLineItem(ctx context.Context, cmd services.UpdateLineItemCommand) (domain.Order, error) {
	if s.updateFn == nil {
		return domain.Order{}, fmt.Errorf("updateFn not configured")
	}
	return s.updateFn(ctx, cmd)
}

func (s *stubOrderService) RemoveLineItem(ctx context.Context, orderID, lineItemID string) (domain.Order, error) {
	if s.removeFn == nil {
		return domain.Order{}, fmt.Errorf("removeFn not configured")
	}
	return s.removeFn(ctx, orderID, lineItemID)
}

func (s *stubOrderService) ConfirmOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.confirmFn == nil {
		return domain.Order{}, fmt.Errorf("confirmFn not configured")
	}
	return s.confirmFn(ctx, orderID)
}

func (s *stubOrderService) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.cancelFn == nil {
		return domain.Order{}, fmt.Errorf("cancelFn not configured")
	}
	return s.cancelFn(ctx, orderID)
}

var _ services.OrderService = (*stubOrderService)(nil)

type stubCatalogService struct {
	createItemFn        func(ctx context.Context, cmd services.CreateItemCommand) (domain.FurnitureItem, error)
	updateItemFn        func(ctx context.Context, itemID string, cmd services.CreateItemCommand) (domain.FurnitureItem, error)
	getItemFn           func(ctx context.Context, itemID string) (domain.FurnitureItem, error)
	listItemsFn         func(ctx context.Context, filter services.ItemSearchFilter) ([]domain.FurnitureItem, error)
	deactivateItemFn    func(ctx context.Context, itemID string) (domain.FurnitureItem, error)
	createVariantFn     func(ctx context.Context, cmd services.CreateVariantCommand) (domain.Variant, error)
	updateVariantFn     func(ctx context.Context, variantID string, cmd services.CreateVariantCommand) (domain.Variant, error)
	getVariantFn        func(ctx context.Context, variantID string) (domain.Variant, error)
	listVariantsFn      func(ctx context.Context, includeInactive bool) ([]domain.Variant, error)
	deactivateVariantFn func(ctx context.Context, variantID string) (domain.Variant, error)
}

func (s *stubCatalogService) CreateItem(ctx context.Context, cmd services.CreateItemCommand) (domain.FurnitureItem, error) {
	return s.createItemFn(ctx, cmd)
}

func (s *stubCatalogService) UpdateItem(ctx context.Context, itemID string, cmd services.CreateItemCommand) (domain.FurnitureItem, error) {
	return s.updateItemFn(ctx, itemID, cmd)
}

func (s *stubCatalogService) GetItem(ctx context.Context, itemID string) (domain.FurnitureItem, error) {
	return s.getItemFn(ctx, itemID)
}

func (s *stubCatalogService) ListItems(ctx context.Context, filter services.ItemSearchFilter) ([]domain.FurnitureItem, error) {
	return s.listItemsFn(ctx, filter)
}

func (s *stubCatalogService) DeactivateItem(ctx context.Context, itemID string) (domain.FurnitureItem, error) {
	return s.deactivateItemFn(ctx, itemID)
}

func (s *stubCatalogService) CreateVariant(ctx context.Context, cmd services.CreateVariantCommand) (domain.Variant, error) {
	return s.createVariantFn(ctx, cmd)
}

func (s *stubCatalogService) UpdateVariant(ctx context.Context, variantID string, cmd services.CreateVariantCommand) (domain.Variant, error) {
	return s.updateVariantFn(ctx, variantID, cmd)
}

func (s *stubCatalogService) GetVariant(ctx context.Context, variantID string) (domain.Variant, error) {
	return s.getVariantFn(ctx, variantID)
}

func (s *stubCatalogService) ListVariants(ctx context.Context, includeInactive bool) ([]domain.Variant, error) {
	return s.listVariantsFn(ctx, includeInactive)
}

func (s *stubCatalogService) DeactivateVariant(ctx context.Context, variantID string) (domain.Variant, error) {
	return s.deactivateVariantFn(ctx, variantID)
}

var _ services.CatalogService = (*stubCatalogService)(nil)

type stubAuthService struct {
	registerFn func(ctx context.Context, cmd services.RegisterCommand) (domain.UserAccount, error)
	loginFn    func(ctx context.Context, cmd services.LoginCommand) (services.Session, error)
}

func (s *stubAuthService) Register(ctx context.Context, cmd services.RegisterCommand) (domain.UserAccount, error) {
	return s.registerFn(ctx, cmd)
}

func (s *stubAuthService) Login(ctx context.Context, cmd services.LoginCommand) (services.Session, error) {
	return s.loginFn(ctx, cmd)
}

var _ services.AuthService = (*stubAuthService)(nil)

type stubHealthRepository struct {
	err error
}

func (s *stubHealthRepository) Ping(context.Context) error {
	return s.err
}
