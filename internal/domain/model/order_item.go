package model

import "time"

// 注文明細。購入時点の商品情報のスナップショット。
// 後から商品が編集・削除されても過去の注文内容は変わらない。
type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"order_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	ProductNameSnapshot string `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64  `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64  `gorm:"not null" json:"quantity"`
	SizeSnapshot        string `gorm:"type:varchar(50)" json:"size_snapshot"`
	ColorSnapshot       string `gorm:"type:varchar(50)" json:"color_snapshot"`
	ImageURLSnapshot    string `gorm:"type:varchar(500)" json:"image_url_snapshot"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
