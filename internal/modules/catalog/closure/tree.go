package closure

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/catalog-backend/internal/data/aggregates"
	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/pkg/dbctx"
)

// TreeNode is one product in an extension tree. Recommended is the flag of the
// edge that attaches the node to its parent and is false for the root.
type TreeNode struct {
	Product     *types.Product `json:"product"`
	Recommended bool           `json:"recommended"`
	Extensions  []*TreeNode    `json:"extensions"`
}

// ExtensionTree rebuilds the extension tree anchored at root from its flat edge
// list. Every extension hangs under each of its bases relative to root, so a
// product with two bases appears twice. The returned nodes never share memory.
func (e *Engine) ExtensionTree(dbc dbctx.Context, root uuid.UUID) (tree *TreeNode, ok bool, err error) {
	const op = "closure.ExtensionTree"
	ctx, span := tracer.Start(dbc.Context(), op, trace.WithAttributes(attribute.String("root_id", root.String())))
	defer span.End()
	dbc.Ctx = ctx

	rootProduct, ok, err := e.products.GetByID(dbc, root)
	if err != nil {
		return nil, false, fail(span, aggregates.MapError(op, err))
	}
	if !ok {
		return nil, false, nil
	}
	edges, err := e.extensions.GetByRoot(dbc, root)
	if err != nil {
		return nil, false, fail(span, aggregates.MapError(op, err))
	}

	type child struct {
		id          uuid.UUID
		recommended bool
	}
	children := make(map[uuid.UUID][]child)
	products := map[uuid.UUID]*types.Product{root: rootProduct}
	for _, edge := range edges {
		children[edge.BaseProductID] = append(children[edge.BaseProductID], child{id: edge.ExtensionProductID, recommended: edge.Recommended})
		if edge.ExtensionProduct != nil {
			products[edge.ExtensionProductID] = edge.ExtensionProduct
		}
	}

	var build func(id uuid.UUID, recommended bool, path map[uuid.UUID]struct{}) (*TreeNode, error)
	build = func(id uuid.UUID, recommended bool, path map[uuid.UUID]struct{}) (*TreeNode, error) {
		if _, loop := path[id]; loop {
			return nil, types.ReferentialViolation(op, "extension tree of %s loops through product %s", root, id)
		}
		path[id] = struct{}{}
		defer delete(path, id)

		node := &TreeNode{Product: products[id], Recommended: recommended, Extensions: []*TreeNode{}}
		for _, c := range children[id] {
			sub, err := build(c.id, c.recommended, path)
			if err != nil {
				return nil, err
			}
			node.Extensions = append(node.Extensions, sub)
		}
		return node, nil
	}

	tree, err = build(root, false, map[uuid.UUID]struct{}{})
	if err != nil {
		return nil, false, fail(span, err)
	}

	// Extensions whose base is not reachable from root hang off the root.
	attached := map[uuid.UUID]struct{}{root: {}}
	var mark func(n *TreeNode)
	mark = func(n *TreeNode) {
		for _, c := range n.Extensions {
			if c.Product != nil {
				attached[c.Product.ID] = struct{}{}
			}
			mark(c)
		}
	}
	mark(tree)
	for _, edge := range edges {
		if _, ok := attached[edge.ExtensionProductID]; ok {
			continue
		}
		sub, err := build(edge.ExtensionProductID, edge.Recommended, map[uuid.UUID]struct{}{root: {}})
		if err != nil {
			return nil, false, fail(span, err)
		}
		tree.Extensions = append(tree.Extensions, sub)
		attached[edge.ExtensionProductID] = struct{}{}
		mark(sub)
	}

	span.SetAttributes(attribute.Int("edges", len(edges)))
	return tree, true, nil
}
