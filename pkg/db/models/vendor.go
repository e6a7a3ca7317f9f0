package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor is the storefront profile owned by exactly one vendor user.
type Vendor struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_vendors_user_id"`
	StoreName   string    `gorm:"column:store_name;type:text;not null;uniqueIndex:idx_vendors_store_name"`
	Description string    `gorm:"column:description;type:text;not null;default:''"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	User        *User     `gorm:"foreignKey:UserID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Vendor) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
