package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/tableside-backend/internal/store"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

// SeedFile is the YAML document loaded by Seed. Prices are decimal strings.
type SeedFile struct {
	Restaurants []SeedRestaurant `yaml:"restaurants"`
	Deals       []SeedDeal       `yaml:"deals"`
}

type SeedRestaurant struct {
	Name            string         `yaml:"name"`
	Cuisine         string         `yaml:"cuisine"`
	Description     *string        `yaml:"description"`
	ImageURL        *string        `yaml:"image_url"`
	Rating          float64        `yaml:"rating"`
	VotePercentage  int            `yaml:"vote_percentage"`
	PriceRange      *string        `yaml:"price_range"`
	Distance        *string        `yaml:"distance"`
	IsHiddenGem     bool           `yaml:"hidden_gem"`
	IsTrending      bool           `yaml:"trending"`
	IsLocalFavorite bool           `yaml:"local_favorite"`
	Categories      []SeedCategory `yaml:"categories"`
	Deals           []SeedDeal     `yaml:"deals"`
}

type SeedCategory struct {
	Name  string         `yaml:"name"`
	Order int            `yaml:"order"`
	Items []SeedMenuItem `yaml:"items"`
}

type SeedMenuItem struct {
	Name            string      `yaml:"name"`
	Description     *string     `yaml:"description"`
	FullDescription *string     `yaml:"full_description"`
	Price           string      `yaml:"price"`
	ImageURL        *string     `yaml:"image_url"`
	Addons          []SeedAddon `yaml:"addons"`
}

type SeedAddon struct {
	Name          string  `yaml:"name"`
	Description   *string `yaml:"description"`
	Price         string  `yaml:"price"`
	Category      string  `yaml:"category"`
	IsRequired    bool    `yaml:"required"`
	MaxSelections int     `yaml:"max_selections"`
}

// SeedDeal is global when listed at the top level of the file.
type SeedDeal struct {
	Title           string     `yaml:"title"`
	Description     string     `yaml:"description"`
	DiscountType    *string    `yaml:"discount_type"`
	DiscountValue   *string    `yaml:"discount_value"`
	ValidUntil      *time.Time `yaml:"valid_until"`
	BackgroundColor *string    `yaml:"background_color"`
}

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Restaurants int `json:"restaurants"`
	Categories  int `json:"categories"`
	MenuItems   int `json:"menuItems"`
	Addons      int `json:"addons"`
	Deals       int `json:"deals"`
}

// DecodeSeed parses a YAML catalog.
func DecodeSeed(r io.Reader) (*SeedFile, error) {
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &file, nil
}

// LoadSeedFile reads and parses the YAML catalog at path.
func LoadSeedFile(path string) (*SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// Seed writes the whole catalog in one transaction.
func Seed(ctx context.Context, st store.Store, file *SeedFile) (SeedResult, error) {
	var result SeedResult
	err := st.Atomic(ctx, func(tx store.Store) error {
		result = SeedResult{}
		for _, deal := range file.Deals {
			if err := seedDeal(ctx, tx, deal, nil, true); err != nil {
				return err
			}
			result.Deals++
		}
		for _, sr := range file.Restaurants {
			if err := seedRestaurant(ctx, tx, sr, &result); err != nil {
				return fmt.Errorf("restaurant %q: %w", sr.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return result, nil
}

func seedRestaurant(ctx context.Context, tx store.Store, sr SeedRestaurant, result *SeedResult) error {
	if sr.Name == "" {
		return fmt.Errorf("name is required")
	}
	restaurant := models.Restaurant{
		Name:            sr.Name,
		Cuisine:         sr.Cuisine,
		Description:     sr.Description,
		ImageURL:        sr.ImageURL,
		Rating:          sr.Rating,
		VotePercentage:  sr.VotePercentage,
		PriceRange:      sr.PriceRange,
		Distance:        sr.Distance,
		IsHiddenGem:     sr.IsHiddenGem,
		IsTrending:      sr.IsTrending,
		IsLocalFavorite: sr.IsLocalFavorite,
	}
	if err := tx.CreateRestaurant(ctx, &restaurant); err != nil {
		return err
	}
	result.Restaurants++

	for _, sc := range sr.Categories {
		category := models.MenuCategory{RestaurantID: restaurant.ID, Name: sc.Name, Order: sc.Order}
		if err := tx.CreateMenuCategory(ctx, &category); err != nil {
			return err
		}
		result.Categories++

		for _, si := range sc.Items {
			if err := seedMenuItem(ctx, tx, restaurant.ID, category.ID, si, result); err != nil {
				return fmt.Errorf("menu item %q: %w", si.Name, err)
			}
		}
	}

	for _, deal := range sr.Deals {
		if err := seedDeal(ctx, tx, deal, &restaurant.ID, false); err != nil {
			return err
		}
		result.Deals++
	}
	return nil
}

func seedMenuItem(ctx context.Context, tx store.Store, restaurantID, categoryID int64, si SeedMenuItem, result *SeedResult) error {
	price, err := parsePrice(si.Price)
	if err != nil {
		return err
	}
	item := models.MenuItem{
		RestaurantID:    restaurantID,
		CategoryID:      categoryID,
		Name:            si.Name,
		Description:     si.Description,
		FullDescription: si.FullDescription,
		Price:           price,
		ImageURL:        si.ImageURL,
	}
	if err := tx.CreateMenuItem(ctx, &item); err != nil {
		return err
	}
	result.MenuItems++

	for _, sa := range si.Addons {
		addonPrice, err := parsePrice(sa.Price)
		if err != nil {
			return fmt.Errorf("addon %q: %w", sa.Name, err)
		}
		maxSelections := sa.MaxSelections
		if maxSelections == 0 {
			maxSelections = 1
		}
		addon := models.MenuItemAddon{
			MenuItemID:    item.ID,
			Name:          sa.Name,
			Description:   sa.Description,
			Price:         addonPrice,
			Category:      sa.Category,
			IsRequired:    sa.IsRequired,
			MaxSelections: maxSelections,
		}
		if err := tx.CreateMenuItemAddon(ctx, &addon); err != nil {
			return err
		}
		result.Addons++
	}
	return nil
}

func seedDeal(ctx context.Context, tx store.Store, sd SeedDeal, restaurantID *int64, global bool) error {
	deal := models.Deal{
		RestaurantID:    restaurantID,
		Title:           sd.Title,
		Description:     sd.Description,
		DiscountType:    sd.DiscountType,
		DiscountValue:   sd.DiscountValue,
		ValidUntil:      sd.ValidUntil,
		BackgroundColor: sd.BackgroundColor,
		IsGlobal:        global,
	}
	if err := tx.CreateDeal(ctx, &deal); err != nil {
		return fmt.Errorf("deal %q: %w", sd.Title, err)
	}
	return nil
}

func parsePrice(value string) (money.Cents, error) {
	if value == "" {
		return 0, nil
	}
	price, err := money.FromString(value)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, fmt.Errorf("price %s must not be negative", value)
	}
	return price, nil
}
