package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string

	//カテゴリ絞り込み（自分＋子孫のID集合。空なら絞り込みなし）
	CategoryIDs []int64
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	//行ロック付きで取得（SELECT ... FOR UPDATE）。トランザクション内でのみ使う。
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	//カテゴリ／サブカテゴリとして参照している商品数（カテゴリ削除ガード用）
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
}
