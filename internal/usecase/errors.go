package usecase

import (
	"errors"
	"fmt"
)

// エラーの分類。handlerがHTTPステータスへ変換する。
type ErrorKind string

const (
	//入力不正。トランザクションもロックも触る前に返す
	KindValidation ErrorKind = "VALIDATION"

	//参照先（商品・カテゴリなど）が存在しない
	KindNotFound ErrorKind = "NOT_FOUND"

	//在庫不足、注文番号の採番リトライ上限など
	KindConflict ErrorKind = "CONFLICT"

	//カテゴリグラフの循環・深さ上限を検知した
	KindIntegrityGuard ErrorKind = "INTEGRITY_GUARD"

	//DB障害など。詳細はログに残し、呼び出し元には返さない
	KindInternal ErrorKind = "INTERNAL"
)

type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidationError(message string) error {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewIntegrityGuardError(message string) error {
	return &AppError{Kind: KindIntegrityGuard, Message: message}
}

func NewInternalError(message string) error {
	return &AppError{Kind: KindInternal, Message: message}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}
