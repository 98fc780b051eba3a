package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"velora-server/models"
	"velora-server/services"
	"velora-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const categoryTreeCacheKey = "category_tree"

// fetchCategories loads the flat category list ordered so that the
// tree builder's sibling order falls out of the initial sort.
func fetchCategories(activeOnly bool) ([]models.Category, error) {
	query := `SELECT id, name, slug, description, image, parent_id, display_order, is_active, created_at, updated_at
	          FROM categories`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY display_order, name`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		var parentID sql.NullString
		if err := rows.Scan(
			&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.Image,
			&parentID, &cat.DisplayOrder, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
		); err != nil {
			continue
		}
		if parentID.Valid {
			if id, err := uuid.Parse(parentID.String); err == nil {
				cat.ParentID = &id
			}
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// GetCategories returns the flat category list. Admins may include
// inactive categories with ?include_inactive=true.
func GetCategories(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true" &&
		c.GetString("user_role") == models.RoleAdmin

	categories, err := fetchCategories(!includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategoryTree returns the nested category forest used by the
// storefront navigation. The payload is cached until a category write
// invalidates it.
func GetCategoryTree(c *gin.Context) {
	var cached []*models.CategoryNode
	if services.AppCache.Get(c.Request.Context(), categoryTreeCacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"categories": cached})
		return
	}

	categories, err := fetchCategories(true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	tree := models.BuildCategoryTree(categories)
	services.AppCache.Set(c.Request.Context(), categoryTreeCacheKey, tree)
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

// GetCategoryBySlug returns one category with its computed level and
// path plus its direct children, derived by query rather than read
// from a stored array.
func GetCategoryBySlug(c *gin.Context) {
	slug := c.Param("slug")

	var cat models.Category
	var parentID sql.NullString
	query := `SELECT id, name, slug, description, image, parent_id, display_order, is_active, created_at, updated_at
	          FROM categories WHERE slug = $1`
	err := DB.QueryRow(query, slug).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.Image,
		&parentID, &cat.DisplayOrder, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		}
		return
	}
	if parentID.Valid {
		if id, err := uuid.Parse(parentID.String); err == nil {
			cat.ParentID = &id
		}
	}

	level, path, err := computeLevelAndPath(cat.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve category path"})
		return
	}

	children, err := fetchChildren(cat.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch child categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": cat,
		"level":    level,
		"path":     path,
		"children": children,
	})
}

// computeLevelAndPath walks upward from the category to its root. The
// walk is bounded by tree depth; level and path are never stored so
// they cannot go stale on re-parent.
func computeLevelAndPath(categoryID uuid.UUID) (int, string, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, slug, parent_id, 0 AS depth
			FROM categories WHERE id = $1
			UNION ALL
			SELECT c.id, c.slug, c.parent_id, chain.depth + 1
			FROM categories c
			JOIN chain ON c.id = chain.parent_id
		)
		SELECT slug FROM chain ORDER BY depth DESC`

	rows, err := DB.Query(query, categoryID)
	if err != nil {
		return 0, "", err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			continue
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return 0, "", err
	}
	return len(slugs) - 1, strings.Join(slugs, "/"), nil
}

func fetchChildren(parentID uuid.UUID) ([]models.Category, error) {
	query := `SELECT id, name, slug, description, image, parent_id, display_order, is_active, created_at, updated_at
	          FROM categories WHERE parent_id = $1 AND is_active = true
	          ORDER BY display_order, name`

	rows, err := DB.Query(query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := make([]models.Category, 0)
	for rows.Next() {
		var cat models.Category
		var pid sql.NullString
		if err := rows.Scan(
			&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.Image,
			&pid, &cat.DisplayOrder, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
		); err != nil {
			continue
		}
		if pid.Valid {
			if id, err := uuid.Parse(pid.String); err == nil {
				cat.ParentID = &id
			}
		}
		children = append(children, cat)
	}
	return children, rows.Err()
}

// CreateCategory creates a category (admin only)
func CreateCategory(c *gin.Context) {
	var req struct {
		Name         string  `json:"name" binding:"required"`
		Slug         string  `json:"slug"`
		Description  *string `json:"description"`
		Image        *string `json:"image"`
		ParentID     string  `json:"parent_id"`
		DisplayOrder int     `json:"display_order"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name does not produce a valid slug"})
		return
	}

	var parentUUID *uuid.UUID
	if req.ParentID != "" {
		parent, err := uuid.Parse(req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent_id format"})
			return
		}
		var exists bool
		if err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, parent).Scan(&exists); err != nil || !exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent category not found"})
			return
		}
		parentUUID = &parent
	}

	categoryID := uuid.New()
	query := `INSERT INTO categories (id, name, slug, description, image, parent_id, display_order)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := DB.Exec(query, categoryID, req.Name, slug, req.Description, req.Image, parentUUID, req.DisplayOrder)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A category with this slug already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	services.AppCache.Delete(c.Request.Context(), categoryTreeCacheKey, homepageCacheKey)
	c.JSON(http.StatusCreated, gin.H{
		"id":            categoryID,
		"name":          req.Name,
		"slug":          slug,
		"parent_id":     req.ParentID,
		"display_order": req.DisplayOrder,
		"message":       "Category created successfully",
	})
}

// UpdateCategory updates a category (admin only). A parent change is
// rejected when the proposed parent sits inside the category's own
// subtree, which would close a cycle.
func UpdateCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	var req struct {
		Name         *string `json:"name"`
		Description  *string `json:"description"`
		Image        *string `json:"image"`
		ParentID     *string `json:"parent_id"`
		DisplayOrder *int    `json:"display_order"`
		IsActive     *bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var exists bool
	if err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists); err != nil || !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var newParent *uuid.UUID
	reparent := false
	if req.ParentID != nil {
		reparent = true
		if *req.ParentID != "" {
			parent, err := uuid.Parse(*req.ParentID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent_id format"})
				return
			}
			newParent = &parent
		}
	}

	if reparent && newParent != nil {
		parentOf, err := loadParentLinks()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category hierarchy"})
			return
		}
		if _, ok := parentOf[*newParent]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent category not found"})
			return
		}
		if models.WouldCreateCycle(categoryID, *newParent, parentOf) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot move a category under its own descendant"})
			return
		}
	}

	query := `UPDATE categories SET
	            name = COALESCE($2, name),
	            description = COALESCE($3, description),
	            image = COALESCE($4, image),
	            display_order = COALESCE($5, display_order),
	            is_active = COALESCE($6, is_active),
	            updated_at = now()
	          WHERE id = $1`
	if _, err := DB.Exec(query, categoryID, req.Name, req.Description, req.Image, req.DisplayOrder, req.IsActive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	if reparent {
		if _, err := DB.Exec(`UPDATE categories SET parent_id = $2, updated_at = now() WHERE id = $1`, categoryID, newParent); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category parent"})
			return
		}
	}

	services.AppCache.Delete(c.Request.Context(), categoryTreeCacheKey, homepageCacheKey)
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully"})
}

func loadParentLinks() (map[uuid.UUID]*uuid.UUID, error) {
	rows, err := DB.Query(`SELECT id, parent_id FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parentOf := make(map[uuid.UUID]*uuid.UUID)
	for rows.Next() {
		var id uuid.UUID
		var parentID sql.NullString
		if err := rows.Scan(&id, &parentID); err != nil {
			continue
		}
		if parentID.Valid {
			if pid, err := uuid.Parse(parentID.String); err == nil {
				parentOf[id] = &pid
				continue
			}
		}
		parentOf[id] = nil
	}
	return parentOf, rows.Err()
}

// DeleteCategory removes a category and its whole subtree in a single
// recursive DELETE, so a failure partway cannot leave orphaned
// descendants behind.
func DeleteCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	var exists bool
	if err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	result, err := DB.Exec(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM categories WHERE id = $1
			UNION ALL
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		DELETE FROM categories WHERE id IN (SELECT id FROM subtree)`, categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	deleted, _ := result.RowsAffected()
	services.AppCache.Delete(c.Request.Context(), categoryTreeCacheKey, homepageCacheKey)
	c.JSON(http.StatusOK, gin.H{
		"message":       "Category deleted successfully",
		"deleted_count": deleted,
	})
}
