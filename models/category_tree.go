package models

import (
	"sort"

	"github.com/google/uuid"
)

// CategoryNode is a category with its subtree attached. Level and Path
// are computed while the tree is built; they are never stored.
type CategoryNode struct {
	Category
	Level    int             `json:"level"`
	Path     string          `json:"path"`
	Children []*CategoryNode `json:"children"`
}

// BuildCategoryTree nests a flat category list into a forest. Roots are
// the categories whose parent is nil or points outside the input set
// (an inactive parent filtered out upstream must not swallow its
// children). Siblings are ordered by display_order, then name.
func BuildCategoryTree(flat []Category) []*CategoryNode {
	nodes := make(map[uuid.UUID]*CategoryNode, len(flat))
	for i := range flat {
		nodes[flat[i].ID] = &CategoryNode{Category: flat[i], Children: []*CategoryNode{}}
	}

	var roots []*CategoryNode
	for _, node := range nodes {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortSiblings(roots)
	for _, root := range roots {
		annotate(root, 0, "")
	}
	return roots
}

func annotate(node *CategoryNode, level int, parentPath string) {
	node.Level = level
	if parentPath == "" {
		node.Path = node.Slug
	} else {
		node.Path = parentPath + "/" + node.Slug
	}
	sortSiblings(node.Children)
	for _, child := range node.Children {
		annotate(child, level+1, node.Path)
	}
}

func sortSiblings(nodes []*CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].DisplayOrder != nodes[j].DisplayOrder {
			return nodes[i].DisplayOrder < nodes[j].DisplayOrder
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// CollectDescendantIDs returns the id of the given category plus every
// id transitively reachable through parent links in the flat list.
// A category with no children yields exactly {self}.
func CollectDescendantIDs(rootID uuid.UUID, flat []Category) []uuid.UUID {
	childrenOf := make(map[uuid.UUID][]uuid.UUID, len(flat))
	for _, cat := range flat {
		if cat.ParentID != nil {
			childrenOf[*cat.ParentID] = append(childrenOf[*cat.ParentID], cat.ID)
		}
	}

	ids := []uuid.UUID{rootID}
	seen := map[uuid.UUID]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, childID := range childrenOf[ids[i]] {
			if !seen[childID] {
				seen[childID] = true
				ids = append(ids, childID)
			}
		}
	}
	return ids
}

// WouldCreateCycle reports whether assigning newParentID as the parent
// of categoryID would close a loop. It walks upward from the proposed
// parent; a repeat visit also terminates the walk so a pre-existing
// malformed chain cannot spin forever.
func WouldCreateCycle(categoryID, newParentID uuid.UUID, parentOf map[uuid.UUID]*uuid.UUID) bool {
	if categoryID == newParentID {
		return true
	}
	seen := map[uuid.UUID]bool{}
	current := newParentID
	for {
		if current == categoryID {
			return true
		}
		if seen[current] {
			return false
		}
		seen[current] = true
		parent, ok := parentOf[current]
		if !ok || parent == nil {
			return false
		}
		current = *parent
	}
}
