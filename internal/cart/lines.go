package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

// Line is a cart item expanded with its menu item and selected add-ons.
type Line struct {
	models.CartItem
	MenuItem models.MenuItem `json:"menuItem"`
	Addons   []LineAddon     `json:"addons"`
}

// LineAddon is a selected add-on joined with its catalog entry.
type LineAddon struct {
	models.CartItemAddon
	Addon models.MenuItemAddon `json:"addon"`
}

// Total is price × quantity plus each add-on's price × its own quantity.
func (l Line) Total() (money.Cents, error) {
	total, err := l.MenuItem.Price.Times(l.Quantity)
	if err != nil {
		return 0, fmt.Errorf("cart item %d: %w", l.ID, err)
	}
	for _, addon := range l.Addons {
		amount, err := addon.Addon.Price.Times(addon.Quantity)
		if err != nil {
			return 0, fmt.Errorf("cart item %d addon %d: %w", l.ID, addon.AddonID, err)
		}
		if total, err = total.Plus(amount); err != nil {
			return 0, fmt.Errorf("cart item %d: %w", l.ID, err)
		}
	}
	return total, nil
}

// Total sums the lines.
func Total(lines []Line) (money.Cents, error) {
	var total money.Cents
	for _, line := range lines {
		amount, err := line.Total()
		if err != nil {
			return 0, err
		}
		if total, err = total.Plus(amount); err != nil {
			return 0, err
		}
	}
	return total, nil
}

type cartReader interface {
	ListCartItems(ctx context.Context, filter store.CartItemFilter) ([]models.CartItem, error)
	ListCartItemAddons(ctx context.Context, cartItemID int64) ([]models.CartItemAddon, error)
	GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error)
	GetMenuItemAddon(ctx context.Context, id int64) (models.MenuItemAddon, error)
}

// LoadCart returns the session's items still in the cart. Items whose menu
// item no longer resolves are skipped, as are add-ons that no longer resolve.
func LoadCart(ctx context.Context, st cartReader, sessionID string) ([]Line, error) {
	return LoadLines(ctx, st, store.CartItemFilter{SessionID: sessionID, Status: enums.CartItemStatusCart})
}

// LoadLines expands every cart item matching filter.
func LoadLines(ctx context.Context, st cartReader, filter store.CartItemFilter) ([]Line, error) {
	items, err := st.ListCartItems(ctx, filter)
	if err != nil {
		return nil, store.Translate(err, "cart items")
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		menuItem, err := st.GetMenuItem(ctx, item.MenuItemID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, store.Translate(err, "menu item")
		}
		addons, err := loadAddons(ctx, st, item.ID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{CartItem: item, MenuItem: menuItem, Addons: addons})
	}
	return lines, nil
}

func loadAddons(ctx context.Context, st cartReader, cartItemID int64) ([]LineAddon, error) {
	selected, err := st.ListCartItemAddons(ctx, cartItemID)
	if err != nil {
		return nil, store.Translate(err, "cart item addons")
	}
	addons := make([]LineAddon, 0, len(selected))
	for _, sel := range selected {
		addon, err := st.GetMenuItemAddon(ctx, sel.AddonID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, store.Translate(err, "menu item addon")
		}
		addons = append(addons, LineAddon{CartItemAddon: sel, Addon: addon})
	}
	return addons, nil
}
