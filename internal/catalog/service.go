package catalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/angelmondragon/tableside-backend/internal/sessionlock"
	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
)

const maxRating = 5.0

// Service exposes restaurants, menus, deals and menu item votes.
type Service interface {
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	GetMenu(ctx context.Context, restaurantID int64) (*Menu, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	ListAddons(ctx context.Context, menuItemID int64) ([]models.MenuItemAddon, error)
	ListDeals(ctx context.Context, restaurantID int64) ([]models.Deal, error)
	VoteMenuItem(ctx context.Context, id int64, direction enums.VoteDirection) (*models.MenuItem, error)
}

// Menu is a restaurant's categories in display order with their items.
type Menu struct {
	Restaurant models.Restaurant `json:"restaurant"`
	Categories []Section         `json:"categories"`
}

// Section is one category of a Menu.
type Section struct {
	models.MenuCategory
	Items []models.MenuItem `json:"items"`
}

type service struct {
	store  store.Store
	locker sessionlock.Locker
}

// NewService builds a catalog service. Votes on one menu item are serialized
// through locker, keyed by the menu item id; it must not be the session
// locker.
func NewService(st store.Store, locker sessionlock.Locker) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	return &service{store: st, locker: locker}, nil
}

func (s *service) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, store.Translate(err, "restaurants")
	}
	return restaurants, nil
}

func (s *service) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	restaurant, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, store.Translate(err, "restaurant")
	}
	return &restaurant, nil
}

func (s *service) GetMenu(ctx context.Context, restaurantID int64) (*Menu, error) {
	restaurant, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListMenuCategories(ctx, restaurantID)
	if err != nil {
		return nil, store.Translate(err, "menu categories")
	}
	items, err := s.store.ListMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, store.Translate(err, "menu items")
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Order != categories[j].Order {
			return categories[i].Order < categories[j].Order
		}
		return categories[i].ID < categories[j].ID
	})

	byCategory := make(map[int64][]models.MenuItem, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}
	menu := &Menu{Restaurant: *restaurant, Categories: make([]Section, 0, len(categories))}
	for _, category := range categories {
		sectionItems := byCategory[category.ID]
		if sectionItems == nil {
			sectionItems = []models.MenuItem{}
		}
		menu.Categories = append(menu.Categories, Section{MenuCategory: category, Items: sectionItems})
	}
	return menu, nil
}

func (s *service) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		return nil, store.Translate(err, "menu item")
	}
	return &item, nil
}

func (s *service) ListAddons(ctx context.Context, menuItemID int64) ([]models.MenuItemAddon, error) {
	if _, err := s.GetMenuItem(ctx, menuItemID); err != nil {
		return nil, err
	}
	addons, err := s.store.ListMenuItemAddons(ctx, menuItemID)
	if err != nil {
		return nil, store.Translate(err, "menu item addons")
	}
	return addons, nil
}

func (s *service) ListDeals(ctx context.Context, restaurantID int64) ([]models.Deal, error) {
	deals, err := s.store.ListDeals(ctx, restaurantID)
	if err != nil {
		return nil, store.Translate(err, "deals")
	}
	return deals, nil
}

// VoteMenuItem increments one counter and recomputes the rating from the
// up/down ratio on a five point scale.
func (s *service) VoteMenuItem(ctx context.Context, id int64, direction enums.VoteDirection) (*models.MenuItem, error) {
	if !direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vote %q", direction))
	}

	var voted models.MenuItem
	err := sessionlock.Do(ctx, s.locker, voteLockKey(id), func() error {
		return s.store.Atomic(ctx, func(tx store.Store) error {
			item, err := tx.GetMenuItem(ctx, id)
			if err != nil {
				return store.Translate(err, "menu item")
			}
			applyVote(&item, direction)
			if err := tx.UpdateMenuItem(ctx, &item); err != nil {
				return store.Translate(err, "menu item")
			}
			voted = item
			return nil
		})
	})
	if err != nil {
		return nil, sessionlock.Translate(err)
	}
	return &voted, nil
}

func applyVote(item *models.MenuItem, direction enums.VoteDirection) {
	switch direction {
	case enums.VoteDirectionUp:
		item.Upvotes++
	case enums.VoteDirectionDown:
		item.Downvotes++
	}
	item.Votes = item.Upvotes + item.Downvotes
	item.Rating = Rating(item.Upvotes, item.Downvotes)
}

// Rating is upvotes/(upvotes+downvotes) × 5, or 0 without votes.
func Rating(upvotes, downvotes int) float64 {
	total := upvotes + downvotes
	if total == 0 {
		return 0
	}
	return float64(upvotes) / float64(total) * maxRating
}

func voteLockKey(menuItemID int64) string {
	return strconv.FormatInt(menuItemID, 10)
}
