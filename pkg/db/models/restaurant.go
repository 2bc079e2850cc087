package models

// Restaurant is seeded reference data; the ordering flow only reads it.
type Restaurant struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string  `gorm:"column:name;not null" json:"name"`
	Cuisine         string  `gorm:"column:cuisine;not null" json:"cuisine"`
	Description     *string `gorm:"column:description" json:"description"`
	ImageURL        *string `gorm:"column:image_url" json:"imageUrl"`
	Rating          float64 `gorm:"column:rating;not null;default:0" json:"rating"`
	VotePercentage  int     `gorm:"column:vote_percentage;not null;default:0" json:"votePercentage"`
	PriceRange      *string `gorm:"column:price_range" json:"priceRange"`
	Distance        *string `gorm:"column:distance" json:"distance"`
	IsHiddenGem     bool    `gorm:"column:is_hidden_gem;not null;default:false" json:"isHiddenGem"`
	IsTrending      bool    `gorm:"column:is_trending;not null;default:false" json:"isTrending"`
	IsLocalFavorite bool    `gorm:"column:is_local_favorite;not null;default:false" json:"isLocalFavorite"`
}
