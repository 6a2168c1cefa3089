package model

import "time"

// カテゴリの種類（商品カテゴリ / ブランド）
type CategoryType string

const (
	CategoryTypeProduct CategoryType = "PRODUCT"
	CategoryTypeBrand   CategoryType = "BRAND"
)

// 商品カテゴリ。
// 親子関係は自己参照で、木構造（森）になっている想定。
// ただしDB側で循環は防げないので、走査側で必ずガードする。
type Category struct {
	ID   int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string       `gorm:"type:varchar(255);not null" json:"name"`
	Slug string       `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Type CategoryType `gorm:"type:varchar(20);not null" json:"type"`

	//親カテゴリ（ルートはNULL）
	ParentID *int64 `gorm:"index" json:"parent_id,omitempty"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
