package handlers

import (
	"time"

	domain "github.com/muebleria/api/internal/domain"
)

type appliedVariantPayload struct {
	ID         string `json:"id"`
	VariantID  string `json:"variantId"`
	Name       string `json:"name"`
	FrozenCost *int64 `json:"frozenCost,omitempty"`
}

type lineItemPayload struct {
	ID              string                  `json:"id"`
	ItemID          string                  `json:"itemId"`
	ItemName        string                  `json:"itemName"`
	Quantity        int                     `json:"quantity"`
	FrozenUnitPrice *int64                  `json:"frozenUnitPrice,omitempty"`
	Variants        []appliedVariantPayload `json:"variants"`
}

type orderPayload struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	State       string            `json:"state"`
	Total       int64             `json:"total"`
	LineItems   []lineItemPayload `json:"lineItems"`
	CreatedAt   time.Time         `json:"createdAt"`
	ConfirmedAt *time.Time        `json:"confirmedAt,omitempty"`
}

type orderListResponse struct {
	Items []orderPayload `json:"items"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	lineItems := make([]lineItemPayload, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		variants := make([]appliedVariantPayload, 0, len(li.Variants))
		for _, av := range li.Variants {
			variants = append(variants, appliedVariantPayload{
				ID:         av.ID,
				VariantID:  av.VariantID,
				Name:       av.Name,
				FrozenCost: av.FrozenCost,
			})
		}
		lineItems = append(lineItems, lineItemPayload{
			ID:              li.ID,
			ItemID:          li.ItemID,
			ItemName:        li.ItemName,
			Quantity:        li.Quantity,
			FrozenUnitPrice: li.FrozenUnitPrice,
			Variants:        variants,
		})
	}
	return orderPayload{
		ID:          order.ID,
		UserID:      order.UserID,
		State:       string(order.State),
		Total:       order.Total,
		LineItems:   lineItems,
		CreatedAt:   order.CreatedAt,
		ConfirmedAt: order.ConfirmedAt,
	}
}

type itemPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	BasePrice int64     `json:"basePrice"`
	Stock     int       `json:"stock"`
	Size      string    `json:"size"`
	Material  string    `json:"material,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type itemListResponse struct {
	Items []itemPayload `json:"items"`
}

func buildItemPayload(item domain.FurnitureItem) itemPayload {
	return itemPayload{
		ID:        item.ID,
		Name:      item.Name,
		Type:      item.Type,
		BasePrice: item.BasePrice,
		Stock:     item.Stock,
		Size:      string(item.Size),
		Material:  item.Material,
		Active:    item.Active,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

type variantPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CostValue int64     `json:"costValue"`
	Kind      string    `json:"kind"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type variantListResponse struct {
	Items []variantPayload `json:"items"`
}

func buildVariantPayload(variant domain.Variant) variantPayload {
	return variantPayload{
		ID:        variant.ID,
		Name:      variant.Name,
		CostValue: variant.CostValue,
		Kind:      string(variant.Kind),
		Active:    variant.Active,
		CreatedAt: variant.CreatedAt,
		UpdatedAt: variant.UpdatedAt,
	}
}

type userPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func buildUserPayload(account domain.UserAccount) userPayload {
	return userPayload{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
	}
}

type sessionPayload struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      userPayload `json:"user"`
}
