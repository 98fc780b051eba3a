package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(id uuid.UUID, name, slug string, parent *uuid.UUID, order int) Category {
	return Category{ID: id, Name: name, Slug: slug, ParentID: parent, DisplayOrder: order, IsActive: true}
}

func sampleForest() (root, child, grandchild, sibling uuid.UUID, flat []Category) {
	root = uuid.New()
	child = uuid.New()
	grandchild = uuid.New()
	sibling = uuid.New()
	flat = []Category{
		cat(root, "Clothing", "clothing", nil, 1),
		cat(child, "Shoes", "shoes", &root, 2),
		cat(grandchild, "Sneakers", "sneakers", &child, 1),
		cat(sibling, "Accessories", "accessories", nil, 2),
	}
	return
}

func TestBuildCategoryTree(t *testing.T) {
	rootID, childID, grandchildID, siblingID, flat := sampleForest()

	tree := BuildCategoryTree(flat)
	require.Len(t, tree, 2)

	assert.Equal(t, rootID, tree[0].ID)
	assert.Equal(t, siblingID, tree[1].ID)
	assert.Equal(t, 0, tree[0].Level)
	assert.Equal(t, "clothing", tree[0].Path)

	require.Len(t, tree[0].Children, 1)
	shoes := tree[0].Children[0]
	assert.Equal(t, childID, shoes.ID)
	assert.Equal(t, 1, shoes.Level)
	assert.Equal(t, "clothing/shoes", shoes.Path)

	require.Len(t, shoes.Children, 1)
	assert.Equal(t, grandchildID, shoes.Children[0].ID)
	assert.Equal(t, 2, shoes.Children[0].Level)
	assert.Equal(t, "clothing/shoes/sneakers", shoes.Children[0].Path)

	assert.Empty(t, tree[1].Children)
}

func TestBuildCategoryTreeIsIdempotent(t *testing.T) {
	_, _, _, _, flat := sampleForest()

	first := BuildCategoryTree(flat)
	second := BuildCategoryTree(flat)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Path, second[i].Path)
		assert.Equal(t, len(first[i].Children), len(second[i].Children))
	}
}

func TestBuildCategoryTreeSiblingOrder(t *testing.T) {
	a := cat(uuid.New(), "Zeta", "zeta", nil, 1)
	b := cat(uuid.New(), "Alpha", "alpha", nil, 1)
	c := cat(uuid.New(), "First", "first", nil, 0)

	tree := BuildCategoryTree([]Category{a, b, c})
	require.Len(t, tree, 3)

	// display_order wins, name breaks ties
	assert.Equal(t, "first", tree[0].Slug)
	assert.Equal(t, "alpha", tree[1].Slug)
	assert.Equal(t, "zeta", tree[2].Slug)
}

func TestBuildCategoryTreeOrphanBecomesRoot(t *testing.T) {
	missingParent := uuid.New()
	orphan := cat(uuid.New(), "Orphan", "orphan", &missingParent, 0)

	tree := BuildCategoryTree([]Category{orphan})
	require.Len(t, tree, 1)
	assert.Equal(t, 0, tree[0].Level)
	assert.Equal(t, "orphan", tree[0].Path)
}

func TestCollectDescendantIDs(t *testing.T) {
	rootID, childID, grandchildID, siblingID, flat := sampleForest()

	ids := CollectDescendantIDs(rootID, flat)
	assert.ElementsMatch(t, []uuid.UUID{rootID, childID, grandchildID}, ids)
	assert.NotContains(t, ids, siblingID)
}

func TestCollectDescendantIDsLeaf(t *testing.T) {
	_, _, grandchildID, _, flat := sampleForest()

	ids := CollectDescendantIDs(grandchildID, flat)
	assert.Equal(t, []uuid.UUID{grandchildID}, ids)
}

func TestWouldCreateCycle(t *testing.T) {
	rootID, childID, grandchildID, siblingID, flat := sampleForest()

	parentOf := make(map[uuid.UUID]*uuid.UUID)
	for _, c := range flat {
		parentOf[c.ID] = c.ParentID
	}

	tests := []struct {
		name     string
		category uuid.UUID
		parent   uuid.UUID
		want     bool
	}{
		{"self parent", rootID, rootID, true},
		{"direct descendant", rootID, childID, true},
		{"deep descendant", rootID, grandchildID, true},
		{"unrelated root", childID, siblingID, false},
		{"child under grandparent stays legal", grandchildID, rootID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WouldCreateCycle(tt.category, tt.parent, parentOf))
		})
	}
}

func TestWouldCreateCycleTerminatesOnMalformedChain(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	target := uuid.New()
	// a and b already point at each other; the walk must still stop.
	parentOf := map[uuid.UUID]*uuid.UUID{a: &b, b: &a}

	assert.False(t, WouldCreateCycle(target, a, parentOf))
}
