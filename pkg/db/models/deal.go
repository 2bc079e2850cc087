package models

import "time"

// Deal is visible for a restaurant when it is global or scoped to that restaurant.
type Deal struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RestaurantID    *int64     `gorm:"column:restaurant_id;index" json:"restaurantId"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	Description     string     `gorm:"column:description;not null" json:"description"`
	DiscountType    *string    `gorm:"column:discount_type" json:"discountType"`
	DiscountValue   *string    `gorm:"column:discount_value" json:"discountValue"`
	ValidUntil      *time.Time `gorm:"column:valid_until" json:"validUntil"`
	BackgroundColor *string    `gorm:"column:background_color" json:"backgroundColor"`
	IsGlobal        bool       `gorm:"column:is_global;not null;default:false" json:"isGlobal"`
}

// VisibleFor reports whether the deal applies to the restaurant.
func (d Deal) VisibleFor(restaurantID int64) bool {
	return d.IsGlobal || (d.RestaurantID != nil && *d.RestaurantID == restaurantID)
}
