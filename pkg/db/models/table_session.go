package models

import (
	"time"

	"github.com/angelmondragon/tableside-backend/pkg/enums"
	"github.com/angelmondragon/tableside-backend/pkg/money"
)

// TableSession is one dining visit at one table.
type TableSession struct {
	ID            int64                    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID     string                   `gorm:"column:session_id;not null;uniqueIndex" json:"sessionId"`
	RestaurantID  int64                    `gorm:"column:restaurant_id;not null" json:"restaurantId"`
	TableNumber   int                      `gorm:"column:table_number;not null" json:"tableNumber"`
	Status        enums.TableSessionStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	CreatedAt     time.Time                `gorm:"column:created_at;not null" json:"createdAt"`
	ClosedAt      *time.Time               `gorm:"column:closed_at" json:"closedAt"`
	TotalAmount   *money.Cents             `gorm:"column:total_amount_cents" json:"totalAmount"`
	PaymentMethod *enums.PaymentMethod     `gorm:"column:payment_method" json:"paymentMethod"`
}

// Order is created only by cart conversion and advanced by staff.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID   string            `gorm:"column:session_id;not null;index" json:"sessionId"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	TotalAmount money.Cents       `gorm:"column:total_amount_cents;not null" json:"totalAmount"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// ServerCall is a diner's request for staff at a table.
type ServerCall struct {
	ID           int64                  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RestaurantID int64                  `gorm:"column:restaurant_id;not null;index" json:"restaurantId"`
	TableNumber  int                    `gorm:"column:table_number;not null" json:"tableNumber"`
	Status       enums.ServerCallStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	CreatedAt    time.Time              `gorm:"column:created_at;not null" json:"createdAt"`
}
