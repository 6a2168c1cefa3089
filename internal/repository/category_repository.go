package repository

import (
	"context"

	"app/internal/domain/model"
)

// カテゴリの永続化（保存・取得）だけを約束。
type CategoryRepository interface {
	//全件取得（ツリー構築・子孫解決の入力になる）
	ListAll(ctx context.Context) ([]model.Category, error)

	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindBySlug(ctx context.Context, slug string) (model.Category, error)

	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error

	//直下の子カテゴリ数（削除ガード用）
	CountChildren(ctx context.Context, id int64) (int64, error)
}
