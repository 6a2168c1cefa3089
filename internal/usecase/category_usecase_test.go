package usecase

import (
	"context"
	"errors"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCategoryUsecaseForTest() (*CategoryUsecase, *CategoryRepoMock, *ProductRepoMock, *stubTxManager) {
	cRepo := new(CategoryRepoMock)
	pRepo := new(ProductRepoMock)
	tx := newStubTxManager()
	return NewCategoryUsecase(cRepo, pRepo, tx, nil), cRepo, pRepo, tx
}

func TestCategoryUsecase_DescendantsOf_ReturnsSortedIDs(t *testing.T) {
	uc, cRepo, _, _ := newCategoryUsecaseForTest()

	cRepo.On("ListAll", mock.Anything).Return([]model.Category{
		cat(1, "mens", nil),
		cat(3, "boots", ptrInt64(2)),
		cat(2, "shoes", ptrInt64(1)),
		cat(4, "sneakers", ptrInt64(2)),
	}, nil)

	ids, err := uc.DescendantsOf(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, ids)
}

func TestCategoryUsecase_DescendantsOf_CycleIsIntegrityGuardError(t *testing.T) {
	uc, cRepo, _, _ := newCategoryUsecaseForTest()

	cRepo.On("ListAll", mock.Anything).Return([]model.Category{
		cat(1, "a", ptrInt64(2)),
		cat(2, "b", ptrInt64(1)),
	}, nil)

	_, err := uc.DescendantsOf(context.Background(), 1)

	assertKind(t, err, KindIntegrityGuard)
}

func TestCategoryUsecase_CountProductReferences(t *testing.T) {
	uc, _, pRepo, _ := newCategoryUsecaseForTest()

	pRepo.On("CountByCategory", mock.Anything, int64(3)).Return(int64(7), nil)

	count, err := uc.CountProductReferences(context.Background(), 3)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestCategoryUsecase_CountProductReferences_InvalidID(t *testing.T) {
	uc, _, pRepo, _ := newCategoryUsecaseForTest()

	_, err := uc.CountProductReferences(context.Background(), 0)

	assertKind(t, err, KindValidation)
	pRepo.AssertNotCalled(t, "CountByCategory", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminCreateCategory_RejectsInvalidType(t *testing.T) {
	uc, cRepo, _, _ := newCategoryUsecaseForTest()

	_, err := uc.AdminCreateCategory(context.Background(), 1, AdminCreateCategoryInput{
		Name: "Shoes", Slug: "shoes", Type: "COLOR",
	})

	assertKind(t, err, KindValidation)
	cRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminCreateCategory_UnknownParentIsNotFound(t *testing.T) {
	uc, cRepo, _, _ := newCategoryUsecaseForTest()

	cRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Category{}, repo.ErrNotFound)

	_, err := uc.AdminCreateCategory(context.Background(), 1, AdminCreateCategoryInput{
		Name: "Boots", Slug: "boots", Type: "PRODUCT", ParentID: ptrInt64(99),
	})

	assertKind(t, err, KindNotFound)
	cRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminCreateCategory_NormalizesSlug(t *testing.T) {
	uc, cRepo, _, _ := newCategoryUsecaseForTest()

	cRepo.On("Create", mock.Anything, mock.MatchedBy(func(c model.Category) bool {
		return c.Slug == "winter-boots" && c.Type == model.CategoryTypeProduct
	})).Return(model.Category{ID: 10}, nil)

	id, err := uc.AdminCreateCategory(context.Background(), 1, AdminCreateCategoryInput{
		Name: "Winter Boots", Slug: "  Winter Boots ", Type: "product", IsActive: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(10), id)
	cRepo.AssertExpectations(t)
}

func TestCategoryUsecase_AdminUpdateCategory_RejectsSelfParent(t *testing.T) {
	uc, cRepo, _, _ := newCategoryUsecaseForTest()

	err := uc.AdminUpdateCategory(context.Background(), 1, 5, AdminCreateCategoryInput{
		Name: "Shoes", Slug: "shoes", Type: "PRODUCT", ParentID: ptrInt64(5),
	})

	assertKind(t, err, KindValidation)
	cRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// =====================
// 削除ガード（トランザクション内で確認から監査ログまで行う）
// =====================

func TestCategoryUsecase_AdminDeleteCategory_RejectedWhenHasChildren(t *testing.T) {
	uc, _, _, tx := newCategoryUsecaseForTest()

	tx.repos.categories.On("FindByID", mock.Anything, int64(1)).Return(cat(1, "mens", nil), nil)
	tx.repos.categories.On("CountChildren", mock.Anything, int64(1)).Return(int64(2), nil)

	err := uc.AdminDeleteCategory(context.Background(), 1, 1)

	assertKind(t, err, KindConflict)
	tx.repos.categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminDeleteCategory_RejectedWhenReferencedByProducts(t *testing.T) {
	uc, _, _, tx := newCategoryUsecaseForTest()

	tx.repos.categories.On("FindByID", mock.Anything, int64(3)).Return(cat(3, "boots", ptrInt64(2)), nil)
	tx.repos.categories.On("CountChildren", mock.Anything, int64(3)).Return(int64(0), nil)
	tx.repos.categories.On("ListAll", mock.Anything).Return([]model.Category{
		cat(2, "shoes", nil),
		cat(3, "boots", ptrInt64(2)),
	}, nil)
	tx.repos.products.On("CountByCategory", mock.Anything, int64(3)).Return(int64(7), nil)

	err := uc.AdminDeleteCategory(context.Background(), 1, 3)

	assertKind(t, err, KindConflict)
	assert.Contains(t, err.Error(), "7 products")
	tx.repos.categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminDeleteCategory_HardStopOnBrokenGraph(t *testing.T) {
	uc, _, _, tx := newCategoryUsecaseForTest()

	//循環があるときは部分結果で続行せず、削除を止める
	tx.repos.categories.On("FindByID", mock.Anything, int64(1)).Return(cat(1, "a", ptrInt64(2)), nil)
	tx.repos.categories.On("CountChildren", mock.Anything, int64(1)).Return(int64(0), nil)
	tx.repos.categories.On("ListAll", mock.Anything).Return([]model.Category{
		cat(1, "a", ptrInt64(2)),
		cat(2, "b", ptrInt64(1)),
	}, nil)

	err := uc.AdminDeleteCategory(context.Background(), 1, 1)

	assertKind(t, err, KindIntegrityGuard)
	tx.repos.products.AssertNotCalled(t, "CountByCategory", mock.Anything, mock.Anything)
	tx.repos.categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_AdminDeleteCategory_SuccessWritesAuditLog(t *testing.T) {
	uc, _, _, tx := newCategoryUsecaseForTest()

	tx.repos.categories.On("FindByID", mock.Anything, int64(3)).Return(cat(3, "boots", ptrInt64(2)), nil)
	tx.repos.categories.On("CountChildren", mock.Anything, int64(3)).Return(int64(0), nil)
	tx.repos.categories.On("ListAll", mock.Anything).Return([]model.Category{
		cat(2, "shoes", nil),
		cat(3, "boots", ptrInt64(2)),
	}, nil)
	tx.repos.products.On("CountByCategory", mock.Anything, int64(3)).Return(int64(0), nil)
	tx.repos.categories.On("Delete", mock.Anything, int64(3)).Return(nil)

	tx.repos.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteCategory &&
			l.ResourceType == model.AuditResourceCategory &&
			l.ResourceID == 3 &&
			l.ActorUserID == 42
	})).Return(nil)

	err := uc.AdminDeleteCategory(context.Background(), 42, 3)

	assert.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	tx.repos.categories.AssertExpectations(t)
	tx.repos.audit.AssertExpectations(t)
}

func TestCategoryUsecase_AdminDeleteCategory_AuditFailureFailsInsideTx(t *testing.T) {
	uc, _, _, tx := newCategoryUsecaseForTest()

	tx.repos.categories.On("FindByID", mock.Anything, int64(3)).Return(cat(3, "boots", ptrInt64(2)), nil)
	tx.repos.categories.On("CountChildren", mock.Anything, int64(3)).Return(int64(0), nil)
	tx.repos.categories.On("ListAll", mock.Anything).Return([]model.Category{
		cat(2, "shoes", nil),
		cat(3, "boots", ptrInt64(2)),
	}, nil)
	tx.repos.products.On("CountByCategory", mock.Anything, int64(3)).Return(int64(0), nil)
	tx.repos.categories.On("Delete", mock.Anything, int64(3)).Return(nil)

	//監査ログが書けなければクロージャがエラーを返し、削除ごと巻き戻される
	tx.repos.audit.On("Create", mock.Anything, mock.Anything).Return(errors.New("simulated write failure"))

	err := uc.AdminDeleteCategory(context.Background(), 42, 3)

	assertKind(t, err, KindInternal)
	assert.Equal(t, 1, tx.calls)
}
