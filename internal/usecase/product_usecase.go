package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	tx           repo.TransactionManager
	logger       *zap.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	tx repo.TransactionManager,
	logger *zap.Logger,
) *ProductUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductUsecase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		tx:           tx,
		logger:       logger,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string

	//カテゴリ絞り込み。数値ならカテゴリID、それ以外はslugとして解決する。
	//空文字なら絞り込みなし
	Category string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewValidationError("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewValidationError("q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewValidationError("min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewValidationError("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewValidationError("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewValidationError("invalid sort")
	}

	//カテゴリ指定があれば「自分＋子孫」のID集合に展開する
	categoryIDs, err := u.resolveCategoryFilter(ctx, in.Category)
	if err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:        in.Page,
		Limit:       in.Limit,
		Q:           strings.TrimSpace(in.Q),
		MinPrice:    in.MinPrice,
		MaxPrice:    in.MaxPrice,
		Sort:        in.Sort,
		CategoryIDs: categoryIDs,
	})
	if err != nil {
		u.logger.Error("product list failed", zap.Error(err))
		return ProductListOutput{}, NewInternalError("db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// カテゴリフィルタ（IDかslug）を自分＋子孫IDの集合に解決する。
// 一覧表示なので、グラフ異常を検知しても部分結果で続行する（resolverがログを残す）。
func (u *ProductUsecase) resolveCategoryFilter(ctx context.Context, filter string) ([]int64, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}

	var categoryID int64
	if id, err := strconv.ParseInt(filter, 10, 64); err == nil {
		//未知のIDは空の結果になるだけで、エラーにはしない
		categoryID = id
	} else {
		c, err := u.categoryRepo.FindBySlug(ctx, filter)
		if err == repo.ErrNotFound {
			return nil, NewNotFoundError("category not found")
		}
		if err != nil {
			u.logger.Error("category slug lookup failed", zap.String("slug", filter), zap.Error(err))
			return nil, NewInternalError("db error")
		}
		categoryID = c.ID
	}

	categories, err := u.categoryRepo.ListAll(ctx)
	if err != nil {
		u.logger.Error("category list failed", zap.Error(err))
		return nil, NewInternalError("db error")
	}

	resolver := NewCategoryResolver(categories, u.logger)
	set, _ := resolver.Descendants(categoryID, DefaultDescendantsMaxDepth)

	ids := make([]int64, 0, len(set)+1)
	ids = append(ids, categoryID)
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewNotFoundError("not found")
	}
	if err != nil {
		u.logger.Error("product lookup failed", zap.Int64("product_id", productID), zap.Error(err))
		return model.Product{}, NewInternalError("db error")
	}

	if !p.IsActive {
		return model.Product{}, NewNotFoundError("not found")
	}
	return p, nil
}

type AdminCreateProductInput struct {
	Name          string
	Description   string
	CategoryID    int64
	SubcategoryID *int64
	Price         int64
	Stock         int64
	Size          string
	Color         string
	ImageURL      string
	IsActive      bool
	IsFeatured    bool
	IsNewArrival  bool
}

func (u *ProductUsecase) validateProductInput(ctx context.Context, in AdminCreateProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name required")
	}
	if in.Price < 0 {
		return NewValidationError("price must be >= 0")
	}
	if in.Stock < 0 {
		return NewValidationError("stock must be >= 0")
	}
	if in.CategoryID <= 0 {
		return NewValidationError("category_id required")
	}

	//カテゴリの存在確認
	if _, err := u.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if err == repo.ErrNotFound {
			return NewNotFoundError("category not found")
		}
		u.logger.Error("category lookup failed", zap.Error(err))
		return NewInternalError("db error")
	}
	if in.SubcategoryID != nil {
		if _, err := u.categoryRepo.FindByID(ctx, *in.SubcategoryID); err != nil {
			if err == repo.ErrNotFound {
				return NewNotFoundError("subcategory not found")
			}
			u.logger.Error("subcategory lookup failed", zap.Error(err))
			return NewInternalError("db error")
		}
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewValidationError("unauthorized")
	}
	if err := u.validateProductInput(ctx, in); err != nil {
		return 0, err
	}

	now := time.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Price:         in.Price,
		Stock:         in.Stock,
		Size:          in.Size,
		Color:         in.Color,
		ImageURL:      in.ImageURL,
		IsActive:      in.IsActive,
		IsFeatured:    in.IsFeatured,
		IsNewArrival:  in.IsNewArrival,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		u.logger.Error("product create failed", zap.Error(err))
		return 0, NewInternalError("db error")
	}
	return p.ID, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminCreateProductInput) error {
	if adminUserID <= 0 {
		return NewValidationError("unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if err := u.validateProductInput(ctx, in); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:            productID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Price:         in.Price,
		Stock:         in.Stock,
		Size:          in.Size,
		Color:         in.Color,
		ImageURL:      in.ImageURL,
		IsActive:      in.IsActive,
		IsFeatured:    in.IsFeatured,
		IsNewArrival:  in.IsNewArrival,
		UpdatedAt:     time.Now(),
	})
	if err == repo.ErrNotFound {
		return NewNotFoundError("not found")
	}
	if err != nil {
		u.logger.Error("product update failed", zap.Error(err))
		return NewInternalError("db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewValidationError("unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewNotFoundError("not found")
	}
	if err != nil {
		u.logger.Error("product delete failed", zap.Error(err))
		return NewInternalError("db error")
	}
	return nil
}

// 管理者の棚卸し。在庫の上書き・差分履歴・監査ログは1つのトランザクションで
// 書き切る。途中で失敗したら在庫も元に戻り、履歴のない在庫変更は残らない
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return NewValidationError("unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if newStock < 0 {
		return NewValidationError("stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫を行ロック付きで読む。注文の減算と交差させない
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if err == repo.ErrNotFound {
			return NewNotFoundError("not found")
		}
		if err != nil {
			u.logger.Error("product lock failed", zap.Int64("product_id", productID), zap.Error(err))
			return NewInternalError("db error")
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			u.logger.Error("stock update failed", zap.Error(err))
			return NewInternalError("db error")
		}

		//履歴を作成（差分）
		adj := model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       newStock - p.Stock,
			Reason:      strings.TrimSpace(reason),
			CreatedAt:   time.Now(),
		}
		if err := r.Inventory().CreateAdjustment(ctx, adj); err != nil {
			u.logger.Error("adjustment create failed", zap.Error(err))
			return NewInternalError("db error")
		}

		//監査ログ（在庫更新）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    time.Now(),
		}); err != nil {
			u.logger.Error("audit log create failed", zap.Error(err))
			return NewInternalError("db error")
		}

		return nil
	})
}
