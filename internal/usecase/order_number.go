package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	repo "app/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 採番リトライ上限。使い切ったら注文ごと中止する
const orderNumberMaxAttempts = 5

// 人間向けの注文番号を生成する。日付＋ナノ秒成分＋ランダムサフィックス。
// ユニーク性はこれだけでは保証しないので、必ずDBで重複確認してから使う
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%09d-%s", now.Format("20060102"), now.UnixNano()%1_000_000_000, suffix)
}

// トランザクション内で候補を生成し、既存注文と突き合わせて重複がなければ採用。
// 上限まで重複が続いたら中止する。未確認の番号で注文が作られることはない
func (u *OrderUsecase) allocateOrderNumber(ctx context.Context, r repo.TxRepos) (string, error) {
	for attempt := 1; attempt <= orderNumberMaxAttempts; attempt++ {
		candidate := NewOrderNumber(time.Now())

		exists, err := r.Orders().ExistsByOrderNumber(ctx, candidate)
		if err != nil {
			u.logger.Error("order number check failed", zap.String("candidate", candidate), zap.Error(err))
			return "", NewInternalError("db error")
		}
		if !exists {
			return candidate, nil
		}
	}

	u.logger.Error("order number allocation exhausted", zap.Int("attempts", orderNumberMaxAttempts))
	return "", NewConflictError("order number allocation exhausted")
}
