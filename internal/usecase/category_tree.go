package usecase

import (
	"app/internal/domain/model"

	"go.uber.org/zap"
)

const (
	//ツリー構築の深さ上限
	DefaultTreeMaxDepth = 10

	//子孫解決の深さ上限
	DefaultDescendantsMaxDepth = 20
)

// ネスト表示用のツリーノード。子がないノードはchildrenキー自体を出さない。
type CategoryNode struct {
	model.Category
	Children []*CategoryNode `json:"children,omitempty"`
}

// フラットなカテゴリレコードから親子関係を解決する。
// 親子グラフは管理画面のCRUDで自由に編集できるため、循環や異常な深さに
// なっている可能性を常に想定し、visited集合と深さ上限で走査を打ち切る。
// 打ち切りはログに残すだけで、それまでに集めた結果を返す（可用性優先）。
type CategoryResolver struct {
	byID     map[int64]model.Category
	byParent map[int64][]model.Category
	roots    []model.Category
	logger   *zap.Logger
}

// 1パスでid・親idの索引を作る。O(n)
func NewCategoryResolver(categories []model.Category, logger *zap.Logger) *CategoryResolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	cr := &CategoryResolver{
		byID:     make(map[int64]model.Category, len(categories)),
		byParent: make(map[int64][]model.Category),
		logger:   logger,
	}

	for _, c := range categories {
		cr.byID[c.ID] = c
		if c.ParentID == nil {
			cr.roots = append(cr.roots, c)
			continue
		}
		cr.byParent[*c.ParentID] = append(cr.byParent[*c.ParentID], c)
	}

	return cr
}

// ルート（親なし）から子配列を組み立てる。
// maxDepthを超えた枝はそこで打ち切る。エラーにはしない
func (cr *CategoryResolver) Tree(maxDepth int) []*CategoryNode {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeMaxDepth
	}

	if len(cr.roots) == 0 && len(cr.byID) > 0 {
		//全カテゴリが親リンクの循環に巻き込まれていてルートが1つもない
		cr.logger.Warn("no root categories found", zap.Int("categories", len(cr.byID)))
	}

	nodes := make([]*CategoryNode, 0, len(cr.roots))
	for _, root := range cr.roots {
		nodes = append(nodes, cr.buildNode(root, 1, maxDepth))
	}
	return nodes
}

func (cr *CategoryResolver) buildNode(c model.Category, depth int, maxDepth int) *CategoryNode {
	node := &CategoryNode{Category: c}

	children := cr.byParent[c.ID]
	if len(children) == 0 {
		return node
	}

	if depth >= maxDepth {
		//この枝はここまで。ツリー全体は返す
		cr.logger.Warn("category tree depth limit reached",
			zap.Int64("category_id", c.ID),
			zap.Int("max_depth", maxDepth),
		)
		return node
	}

	node.Children = make([]*CategoryNode, 0, len(children))
	for _, child := range children {
		node.Children = append(node.Children, cr.buildNode(child, depth+1, maxDepth))
	}
	return node
}

// categoryIDから子リンクを辿って到達できる全カテゴリIDを返す。
// 循環はvisited集合で、深すぎる枝は深さ上限で止める。どちらかを検知したら
// guardTriggered=trueを返し、そこまでに集めた子孫はそのまま返す。
// 未知のIDなら空集合（エラーではない）。
func (cr *CategoryResolver) Descendants(categoryID int64, maxDepth int) (map[int64]struct{}, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultDescendantsMaxDepth
	}

	found := make(map[int64]struct{})
	visited := map[int64]bool{categoryID: true}
	guardTriggered := false

	var walk func(id int64, depth int)
	walk = func(id int64, depth int) {
		children := cr.byParent[id]
		if len(children) == 0 {
			return
		}

		if depth > maxDepth {
			//まだ子が残っているのに上限に達した。この枝は打ち切る
			guardTriggered = true
			cr.logger.Warn("descendant depth limit reached",
				zap.Int64("start_category_id", categoryID),
				zap.Int64("category_id", id),
				zap.Int("max_depth", maxDepth),
			)
			return
		}

		for _, child := range children {
			if visited[child.ID] {
				//循環検知。この枝は打ち切る
				guardTriggered = true
				cr.logger.Warn("category cycle detected",
					zap.Int64("start_category_id", categoryID),
					zap.Int64("category_id", child.ID),
				)
				continue
			}
			visited[child.ID] = true
			found[child.ID] = struct{}{}
			walk(child.ID, depth+1)
		}
	}
	walk(categoryID, 1)

	return found, guardTriggered
}
