package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
	productRepo  repo.ProductRepository
	tx           repo.TransactionManager
	logger       *zap.Logger
}

// DI
func NewCategoryUsecase(
	categoryRepo repo.CategoryRepository,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	logger *zap.Logger,
) *CategoryUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryUsecase{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		tx:           tx,
		logger:       logger,
	}
}

// フラット一覧
func (u *CategoryUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := u.categoryRepo.ListAll(ctx)
	if err != nil {
		u.logger.Error("category list failed", zap.Error(err))
		return []model.Category{}, NewInternalError("db error")
	}
	return categories, nil
}

// ネスト（森）表示。深すぎる枝は打ち切って返す
func (u *CategoryUsecase) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	categories, err := u.categoryRepo.ListAll(ctx)
	if err != nil {
		u.logger.Error("category list failed", zap.Error(err))
		return []*CategoryNode{}, NewInternalError("db error")
	}

	resolver := NewCategoryResolver(categories, u.logger)
	return resolver.Tree(DefaultTreeMaxDepth), nil
}

// 子孫カテゴリIDをID昇順で返す。
// 削除ガードなど安全側に倒したい呼び出し元向けに、循環・深さ上限の検知は
// 部分結果ではなくIntegrityGuardエラーとして返す。
func (u *CategoryUsecase) DescendantsOf(ctx context.Context, categoryID int64) ([]int64, error) {
	if categoryID <= 0 {
		return nil, NewValidationError("invalid category id")
	}

	categories, err := u.categoryRepo.ListAll(ctx)
	if err != nil {
		u.logger.Error("category list failed", zap.Error(err))
		return nil, NewInternalError("db error")
	}

	resolver := NewCategoryResolver(categories, u.logger)
	set, guardTriggered := resolver.Descendants(categoryID, DefaultDescendantsMaxDepth)
	if guardTriggered {
		return nil, NewIntegrityGuardError("category graph is cyclic or too deep")
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// カテゴリを参照している商品数（削除ガード用）
func (u *CategoryUsecase) CountProductReferences(ctx context.Context, categoryID int64) (int64, error) {
	if categoryID <= 0 {
		return 0, NewValidationError("invalid category id")
	}

	count, err := u.productRepo.CountByCategory(ctx, categoryID)
	if err != nil {
		u.logger.Error("product reference count failed", zap.Error(err))
		return 0, NewInternalError("db error")
	}
	return count, nil
}

type AdminCreateCategoryInput struct {
	Name     string
	Slug     string
	Type     string
	ParentID *int64
	IsActive bool
}

func (u *CategoryUsecase) AdminCreateCategory(ctx context.Context, adminUserID int64, in AdminCreateCategoryInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewValidationError("unauthorized")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return 0, NewValidationError("invalid name")
	}

	slug := normalizeSlug(in.Slug)
	if slug == "" || len(slug) > 255 {
		return 0, NewValidationError("invalid slug")
	}

	ctype := model.CategoryType(strings.ToUpper(strings.TrimSpace(in.Type)))
	switch ctype {
	case model.CategoryTypeProduct, model.CategoryTypeBrand:
	default:
		return 0, NewValidationError("invalid type")
	}

	//親の存在確認
	if in.ParentID != nil {
		if _, err := u.categoryRepo.FindByID(ctx, *in.ParentID); err != nil {
			if err == repo.ErrNotFound {
				return 0, NewNotFoundError("parent category not found")
			}
			u.logger.Error("parent category lookup failed", zap.Error(err))
			return 0, NewInternalError("db error")
		}
	}

	now := time.Now()
	created, err := u.categoryRepo.Create(ctx, model.Category{
		Name:      name,
		Slug:      slug,
		Type:      ctype,
		ParentID:  in.ParentID,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		u.logger.Error("category create failed", zap.Error(err))
		return 0, NewInternalError("db error")
	}
	return created.ID, nil
}

func (u *CategoryUsecase) AdminUpdateCategory(ctx context.Context, adminUserID int64, categoryID int64, in AdminCreateCategoryInput) error {
	if adminUserID <= 0 {
		return NewValidationError("unauthorized")
	}
	if categoryID <= 0 {
		return NewValidationError("invalid category id")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return NewValidationError("invalid name")
	}

	slug := normalizeSlug(in.Slug)
	if slug == "" || len(slug) > 255 {
		return NewValidationError("invalid slug")
	}

	ctype := model.CategoryType(strings.ToUpper(strings.TrimSpace(in.Type)))
	switch ctype {
	case model.CategoryTypeProduct, model.CategoryTypeBrand:
	default:
		return NewValidationError("invalid type")
	}

	if in.ParentID != nil {
		//自分自身を親にはできない
		if *in.ParentID == categoryID {
			return NewValidationError("category cannot be its own parent")
		}
		if _, err := u.categoryRepo.FindByID(ctx, *in.ParentID); err != nil {
			if err == repo.ErrNotFound {
				return NewNotFoundError("parent category not found")
			}
			u.logger.Error("parent category lookup failed", zap.Error(err))
			return NewInternalError("db error")
		}
	}

	err := u.categoryRepo.Update(ctx, model.Category{
		ID:       categoryID,
		Name:     name,
		Slug:     slug,
		Type:     ctype,
		ParentID: in.ParentID,
		IsActive: in.IsActive,
	})
	if err == repo.ErrNotFound {
		return NewNotFoundError("category not found")
	}
	if err != nil {
		u.logger.Error("category update failed", zap.Error(err))
		return NewInternalError("db error")
	}
	return nil
}

// 削除ガード付きのカテゴリ削除。
// 子カテゴリあり・商品参照あり・グラフ異常検知のどれかで必ず拒否する。
// ガード確認・削除・監査ログは1つのトランザクションで行い、
// 確認と削除の間に参照が増えても削除だけが先に走ることはない
func (u *CategoryUsecase) AdminDeleteCategory(ctx context.Context, adminUserID int64, categoryID int64) error {
	if adminUserID <= 0 {
		return NewValidationError("unauthorized")
	}
	if categoryID <= 0 {
		return NewValidationError("invalid category id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cat, err := r.Categories().FindByID(ctx, categoryID)
		if err == repo.ErrNotFound {
			return NewNotFoundError("category not found")
		}
		if err != nil {
			u.logger.Error("category lookup failed", zap.Error(err))
			return NewInternalError("db error")
		}

		//直下の子が1つでもあれば削除不可
		children, err := r.Categories().CountChildren(ctx, categoryID)
		if err != nil {
			u.logger.Error("child count failed", zap.Error(err))
			return NewInternalError("db error")
		}
		if children > 0 {
			return NewConflictError(fmt.Sprintf("category %q has %d child categories", cat.Name, children))
		}

		//トランザクション内のスナップショットでグラフ異常を検知したら
		//安全側に倒して削除を止める
		categories, err := r.Categories().ListAll(ctx)
		if err != nil {
			u.logger.Error("category list failed", zap.Error(err))
			return NewInternalError("db error")
		}
		resolver := NewCategoryResolver(categories, u.logger)
		if _, guardTriggered := resolver.Descendants(categoryID, DefaultDescendantsMaxDepth); guardTriggered {
			return NewIntegrityGuardError("category graph is cyclic or too deep")
		}

		//商品から参照されていれば削除不可
		refs, err := r.Products().CountByCategory(ctx, categoryID)
		if err != nil {
			u.logger.Error("product reference count failed", zap.Error(err))
			return NewInternalError("db error")
		}
		if refs > 0 {
			return NewConflictError(fmt.Sprintf("category %q is referenced by %d products", cat.Name, refs))
		}

		if err := r.Categories().Delete(ctx, categoryID); err != nil {
			if err == repo.ErrNotFound {
				return NewNotFoundError("category not found")
			}
			u.logger.Error("category delete failed", zap.Error(err))
			return NewInternalError("db error")
		}

		//監査ログ（誰がどのカテゴリを消したか）。失敗したら削除ごと巻き戻す
		beforeJSON := fmt.Sprintf(`{"name":%q,"slug":%q}`, cat.Name, cat.Slug)
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteCategory,
			ResourceType: model.AuditResourceCategory,
			ResourceID:   categoryID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    "{}",
			CreatedAt:    time.Now(),
		}); err != nil {
			u.logger.Error("audit log create failed", zap.Error(err))
			return NewInternalError("db error")
		}

		return nil
	})
}

func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
