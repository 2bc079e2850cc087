package models

import "github.com/angelmondragon/tableside-backend/pkg/money"

// MenuCategory groups menu items; Order is the display sort key.
type MenuCategory struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RestaurantID int64  `gorm:"column:restaurant_id;not null;index" json:"restaurantId"`
	Name         string `gorm:"column:name;not null" json:"name"`
	Order        int    `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// MenuItem carries derived vote counters; rating is recomputed on every vote.
type MenuItem struct {
	ID              int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RestaurantID    int64       `gorm:"column:restaurant_id;not null;index" json:"restaurantId"`
	CategoryID      int64       `gorm:"column:category_id;not null;index" json:"categoryId"`
	Name            string      `gorm:"column:name;not null" json:"name"`
	Description     *string     `gorm:"column:description" json:"description"`
	FullDescription *string     `gorm:"column:full_description" json:"fullDescription"`
	Price           money.Cents `gorm:"column:price_cents;not null" json:"price"`
	ImageURL        *string     `gorm:"column:image_url" json:"imageUrl"`
	Rating          float64     `gorm:"column:rating;not null;default:0" json:"rating"`
	Votes           int         `gorm:"column:votes;not null;default:0" json:"votes"`
	Upvotes         int         `gorm:"column:upvotes;not null;default:0" json:"upvotes"`
	Downvotes       int         `gorm:"column:downvotes;not null;default:0" json:"downvotes"`
}

// MenuItemAddon is an optional extra selectable on one menu item.
type MenuItemAddon struct {
	ID            int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MenuItemID    int64       `gorm:"column:menu_item_id;not null;index" json:"menuItemId"`
	Name          string      `gorm:"column:name;not null" json:"name"`
	Description   *string     `gorm:"column:description" json:"description"`
	Price         money.Cents `gorm:"column:price_cents;not null;default:0" json:"price"`
	Category      string      `gorm:"column:category;not null" json:"category"`
	IsRequired    bool        `gorm:"column:is_required;not null;default:false" json:"isRequired"`
	MaxSelections int         `gorm:"column:max_selections;not null;default:1" json:"maxSelections"`
}
