package handler

import (
	"net/http"
	"strconv"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /categories の公開API
type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

// DI
func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/categories", h.list)
	e.GET("/categories/:id/descendants", h.descendants)
	e.GET("/categories/:id/product-references", h.productReferences)
}

type CategoryTreeResponse struct {
	Tree []*usecase.CategoryNode `json:"tree"`
}

func (h *CategoryHandler) list(c echo.Context) error {
	//?nested=true でツリー表示
	if c.QueryParam("nested") == "true" {
		tree, err := h.uc.CategoryTree(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, CategoryTreeResponse{Tree: tree})
	}

	items, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

type DescendantsResponse struct {
	CategoryID  int64   `json:"category_id"`
	Descendants []int64 `json:"descendants"`
}

// 削除前チェックなど外部の呼び出し元向け。
// グラフ異常を検知した場合は部分結果ではなくエラーを返す
func (h *CategoryHandler) descendants(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	ids, err := h.uc.DescendantsOf(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, DescendantsResponse{CategoryID: id, Descendants: ids})
}

type ProductReferencesResponse struct {
	CategoryID   int64 `json:"category_id"`
	ProductCount int64 `json:"product_count"`
}

// カテゴリを参照している商品数。削除できるかの事前確認に使う
func (h *CategoryHandler) productReferences(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	count, err := h.uc.CountProductReferences(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, ProductReferencesResponse{CategoryID: id, ProductCount: count})
}
