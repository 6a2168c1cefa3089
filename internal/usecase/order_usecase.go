package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// チェックアウト入力の検証。トランザクションに入る前に呼ぶ。
// 不正なリクエストにロックを取らせないための約束
type CheckoutValidator interface {
	ValidateCheckout(in PlaceOrderInput) error
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	validate CheckoutValidator
	logger   *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, validate CheckoutValidator, logger *zap.Logger) *OrderUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderUsecase{tx: tx, validate: validate, logger: logger}
}

type CheckoutItemInput struct {
	ProductID int64
	Quantity  int64
}

type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

type ShippingAddressInput struct {
	PostalCode string
	Prefecture string
	City       string
	Line1      string
	Line2      string
	Name       string
	Phone      string
}

// 価格はリクエストに含めない。サーバー側でロック済みの行から読む
type PlaceOrderInput struct {
	Customer        CustomerInput
	Items           []CheckoutItemInput
	ShippingAddress ShippingAddressInput
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      string            `json:"status"`
	TotalPrice  int64             `json:"total_price"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

// チェックアウトを1つのトランザクションで確定させる。
// 検証 → 在庫ロック → 合計計算 → 採番 → 永続化の順で進み、
// 途中で失敗したら在庫減算も含めて全部ロールバックされる。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (OrderOutput, error) {
	//入力検証はトランザクションの外。ここで弾けばロックは一切取られない
	if err := u.validate.ValidateCheckout(in); err != nil {
		return OrderOutput{}, NewValidationError(err.Error())
	}

	//ロック順を商品ID昇順に固定する。
	//複数商品の注文同士が逆順にロックを取り合うとデッドロックするため
	lines := make([]CheckoutItemInput, len(in.Items))
	copy(lines, in.Items)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(lines))
		locked := make(map[int64]model.Product, len(lines))
		var total int64 = 0

		for _, line := range lines {
			//行ロック付きで正本を読む。価格も在庫もここで読んだ値だけを信じる
			p, err := r.Products().FindByIDForUpdate(ctx, line.ProductID)
			if err == repo.ErrNotFound {
				return NewNotFoundError(fmt.Sprintf("product %d not found", line.ProductID))
			}
			if err != nil {
				u.logger.Error("product lock failed", zap.Int64("product_id", line.ProductID), zap.Error(err))
				return NewInternalError("db error")
			}
			if !p.IsActive {
				return NewNotFoundError(fmt.Sprintf("product %d not found", line.ProductID))
			}

			//在庫チェック。足りなければ注文全体を中止
			if p.Stock < line.Quantity {
				return NewConflictError(fmt.Sprintf(
					"insufficient stock for %q: requested %d, available %d",
					p.Name, line.Quantity, p.Stock,
				))
			}

			locked[p.ID] = p
			total += p.Price * line.Quantity

			//購入時点のスナップショット
			now := time.Now()
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            line.Quantity,
				SizeSnapshot:        p.Size,
				ColorSnapshot:       p.Color,
				ImageURLSnapshot:    p.ImageURL,
				CreatedAt:           now,
			})
		}

		//ユニーク確認済みの注文番号をトランザクション内で採番
		orderNumber, err := u.allocateOrderNumber(ctx, r)
		if err != nil {
			return err
		}

		//在庫減算。行ロック済みなので通常は必ず成功するが、
		//条件付きUPDATEを最後の防衛線として残す
		for _, line := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.ProductID, line.Quantity)
			if err != nil {
				u.logger.Error("stock decrement failed", zap.Int64("product_id", line.ProductID), zap.Error(err))
				return NewInternalError("db error")
			}
			if !ok {
				p := locked[line.ProductID]
				return NewConflictError(fmt.Sprintf(
					"insufficient stock for %q: requested %d, available %d",
					p.Name, line.Quantity, p.Stock,
				))
			}
		}

		//注文ヘッダ作成
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			OrderNumber:   orderNumber,
			CustomerName:  in.Customer.Name,
			CustomerEmail: in.Customer.Email,
			CustomerPhone: in.Customer.Phone,
			Status:        model.OrderStatusPending,
			TotalPrice:    total,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			u.logger.Error("order create failed", zap.String("order_number", orderNumber), zap.Error(err))
			return NewInternalError("db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			u.logger.Error("order items create failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewInternalError("db error")
		}

		//配送先住所（注文と1対1）
		if _, err := r.ShippingAddresses().Create(ctx, model.ShippingAddress{
			OrderID:    orderID,
			PostalCode: in.ShippingAddress.PostalCode,
			Prefecture: in.ShippingAddress.Prefecture,
			City:       in.ShippingAddress.City,
			Line1:      in.ShippingAddress.Line1,
			Line2:      in.ShippingAddress.Line2,
			Name:       in.ShippingAddress.Name,
			Phone:      in.ShippingAddress.Phone,
			CreatedAt:  now,
		}); err != nil {
			u.logger.Error("shipping address create failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewInternalError("db error")
		}

		created := model.Order{
			ID:          orderID,
			OrderNumber: orderNumber,
			Status:      model.OrderStatusPending,
			TotalPrice:  total,
			CreatedAt:   now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 注文番号で照会（注文完了ページ用）
func (u *OrderUsecase) GetOrderByNumber(ctx context.Context, orderNumber string) (OrderOutput, error) {
	if orderNumber == "" {
		return OrderOutput{}, NewValidationError("invalid order number")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNumber(ctx, orderNumber)
		if err == repo.ErrNotFound {
			return NewNotFoundError("not found")
		}
		if err != nil {
			u.logger.Error("order lookup failed", zap.String("order_number", orderNumber), zap.Error(err))
			return NewInternalError("db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			u.logger.Error("order items lookup failed", zap.Int64("order_id", o.ID), zap.Error(err))
			return NewInternalError("db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		TotalPrice:  o.TotalPrice,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
