package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	//所属カテゴリ（必須）とサブカテゴリ（任意）
	CategoryID    int64  `gorm:"not null;index" json:"category_id"`
	SubcategoryID *int64 `gorm:"index" json:"subcategory_id,omitempty"`

	Price int64 `gorm:"not null" json:"price"`
	Stock int64 `gorm:"not null" json:"stock"`

	Size     string `gorm:"type:varchar(50)" json:"size"`
	Color    string `gorm:"type:varchar(50)" json:"color"`
	ImageURL string `gorm:"type:varchar(500)" json:"image_url"`

	//表示用フラグ
	IsActive     bool `gorm:"not null;default:false" json:"is_active"`
	IsFeatured   bool `gorm:"not null;default:false" json:"is_featured"`
	IsNewArrival bool `gorm:"not null;default:false" json:"is_new_arrival"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
