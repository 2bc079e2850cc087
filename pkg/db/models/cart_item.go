package models

import (
	"time"

	"github.com/angelmondragon/tableside-backend/pkg/enums"
)

// CartItem is one line of a session's cart. Once folded into an order the row
// stays as order-line history with OrderID and OrderedAt set.
type CartItem struct {
	ID                  int64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID           string               `gorm:"column:session_id;not null;index" json:"sessionId"`
	MenuItemID          int64                `gorm:"column:menu_item_id;not null" json:"menuItemId"`
	Quantity            int                  `gorm:"column:quantity;not null;default:1" json:"quantity"`
	SpecialInstructions *string              `gorm:"column:special_instructions" json:"specialInstructions"`
	Status              enums.CartItemStatus `gorm:"column:status;not null;default:'cart'" json:"status"`
	OrderID             *int64               `gorm:"column:order_id;index" json:"orderId"`
	AddedAt             time.Time            `gorm:"column:added_at;not null" json:"addedAt"`
	OrderedAt           *time.Time           `gorm:"column:ordered_at" json:"orderedAt"`
}

// InCart reports whether the line is still editable.
func (c CartItem) InCart() bool {
	return c.Status == enums.CartItemStatusCart
}

// CartItemAddon is one selected add-on instance on a cart line.
type CartItemAddon struct {
	ID         int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CartItemID int64 `gorm:"column:cart_item_id;not null;index" json:"cartItemId"`
	AddonID    int64 `gorm:"column:addon_id;not null" json:"addonId"`
	Quantity   int   `gorm:"column:quantity;not null;default:1" json:"quantity"`
}
