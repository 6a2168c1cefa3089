package usecase

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	tx := newStubTxManager()
	uc := NewAdminOrderUsecase(tx, new(AuditRepoMock), nil)

	_, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})

	assertKind(t, err, KindValidation)
	assert.Equal(t, 0, tx.calls)
}

func TestAdminOrderUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	tx := newStubTxManager()
	uc := NewAdminOrderUsecase(tx, new(AuditRepoMock), nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, AdminUpdateOrderStatusInput{Status: "REFUNDED"})

	assertKind(t, err, KindValidation)
	assert.Equal(t, 0, tx.calls)
}

func TestAdminOrderUsecase_UpdateStatus_TerminalStatesAreLocked(t *testing.T) {
	for _, terminal := range []model.OrderStatus{model.OrderStatusCanceled, model.OrderStatusShipped} {
		tx := newStubTxManager()
		uc := NewAdminOrderUsecase(tx, new(AuditRepoMock), nil)

		tx.repos.orders.On("FindByID", mock.Anything, int64(10)).
			Return(model.Order{ID: 10, Status: terminal}, nil)

		err := uc.UpdateStatus(context.Background(), 1, 10, AdminUpdateOrderStatusInput{Status: "PAID"})

		assertKind(t, err, KindValidation)
		tx.repos.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestAdminOrderUsecase_UpdateStatus_SameStatusIsNoop(t *testing.T) {
	tx := newStubTxManager()
	uc := NewAdminOrderUsecase(tx, new(AuditRepoMock), nil)

	tx.repos.orders.On("FindByID", mock.Anything, int64(10)).
		Return(model.Order{ID: 10, Status: model.OrderStatusPaid}, nil)

	err := uc.UpdateStatus(context.Background(), 1, 10, AdminUpdateOrderStatusInput{Status: "PAID"})

	assert.NoError(t, err)
	tx.repos.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_CancelRestoresStock(t *testing.T) {
	tx := newStubTxManager()
	uc := NewAdminOrderUsecase(tx, new(AuditRepoMock), nil)

	tx.repos.orders.On("FindByID", mock.Anything, int64(10)).
		Return(model.Order{ID: 10, Status: model.OrderStatusPaid}, nil)
	tx.repos.items.On("ListByOrderID", mock.Anything, int64(10)).
		Return([]model.OrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		}, nil)

	//キャンセルで予約分の在庫が戻る
	tx.repos.inventory.On("IncreaseStock", mock.Anything, int64(1), int64(2)).Return(nil)
	tx.repos.inventory.On("IncreaseStock", mock.Anything, int64(2), int64(1)).Return(nil)

	tx.repos.orders.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusCanceled).Return(nil)

	//監査ログはトランザクション内のリポジトリで書かれる
	tx.repos.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus &&
			l.BeforeJSON == `{"status":"PAID"}` &&
			l.AfterJSON == `{"status":"CANCELED"}`
	})).Return(nil)

	err := uc.UpdateStatus(context.Background(), 42, 10, AdminUpdateOrderStatusInput{Status: "CANCELED"})

	assert.NoError(t, err)
	tx.repos.inventory.AssertExpectations(t)
	tx.repos.orders.AssertExpectations(t)
	tx.repos.audit.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_PaidToShipped(t *testing.T) {
	tx := newStubTxManager()
	uc := NewAdminOrderUsecase(tx, new(AuditRepoMock), nil)

	tx.repos.orders.On("FindByID", mock.Anything, int64(10)).
		Return(model.Order{ID: 10, Status: model.OrderStatusPaid}, nil)
	tx.repos.orders.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusShipped).Return(nil)
	tx.repos.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.UpdateStatus(context.Background(), 42, 10, AdminUpdateOrderStatusInput{Status: "SHIPPED"})

	assert.NoError(t, err)

	//出荷では在庫は動かない
	tx.repos.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_ListAuditLogs(t *testing.T) {
	tx := newStubTxManager()
	aRepo := new(AuditRepoMock)
	uc := NewAdminOrderUsecase(tx, aRepo, nil)

	action := model.AuditActionDeleteCategory
	aRepo.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.Action != nil && *f.Action == action && f.Limit == 10
	})).Return([]model.AuditLog{
		{ID: 2, Action: model.AuditActionDeleteCategory},
		{ID: 1, Action: model.AuditActionDeleteCategory},
	}, nil)

	logs, err := uc.ListAuditLogs(context.Background(), repo.AuditLogFilter{Action: &action, Limit: 10})

	assert.NoError(t, err)
	assert.Equal(t, 2, len(logs))
	aRepo.AssertExpectations(t)
}

func TestAdminOrderUsecase_ListAuditLogs_InvalidLimit(t *testing.T) {
	tx := newStubTxManager()
	aRepo := new(AuditRepoMock)
	uc := NewAdminOrderUsecase(tx, aRepo, nil)

	_, err := uc.ListAuditLogs(context.Background(), repo.AuditLogFilter{Limit: 101})

	assertKind(t, err, KindValidation)
	aRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
