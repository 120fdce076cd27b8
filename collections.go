package main

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

type productCategory struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Featured    bool      `json:"featured"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type specialService struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Featured    bool      `json:"featured"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type featuredBrand struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logoUrl"`
	WebsiteURL  string    `json:"websiteUrl"`
	Featured    bool      `json:"featured"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func validateCategory(c productCategory) error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(c.ImageURL) == "" {
		missing = append(missing, "imageUrl")
	}
	if len(missing) > 0 {
		return &validationError{Fields: missing}
	}
	return nil
}

func validateService(v specialService) error {
	var missing []string
	if strings.TrimSpace(v.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(v.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(v.Icon) == "" {
		missing = append(missing, "icon")
	}
	if len(missing) > 0 {
		return &validationError{Fields: missing}
	}
	return nil
}

func validateBrand(b featuredBrand) error {
	var missing []string
	if strings.TrimSpace(b.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(b.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(b.LogoURL) == "" {
		missing = append(missing, "logoUrl")
	}
	if strings.TrimSpace(b.WebsiteURL) == "" {
		missing = append(missing, "websiteUrl")
	}
	if len(missing) > 0 {
		return &validationError{Fields: missing}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Product categories
// ---------------------------------------------------------------------------

func (s *service) listCategories(ctx context.Context) ([]productCategory, error) {
	if s.db == nil {
		s.memMu.RLock()
		items := make([]productCategory, 0, len(s.memCategories))
		for _, c := range s.memCategories {
			items = append(items, c)
		}
		s.memMu.RUnlock()
		sort.Slice(items, func(i, j int) bool {
			if items[i].SortOrder != items[j].SortOrder {
				return items[i].SortOrder < items[j].SortOrder
			}
			return items[i].ID < items[j].ID
		})
		return items, nil
	}

	q := `SELECT id, name, description, image_url, featured, sort_order, created_at, updated_at
		FROM ` + s.tables.categories + ` ORDER BY sort_order, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]productCategory, 0)
	for rows.Next() {
		var c productCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.Featured, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *service) createCategory(ctx context.Context, c productCategory) (productCategory, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if s.db == nil {
		s.memMu.Lock()
		c.ID = s.nextCategoryID
		s.nextCategoryID++
		s.memCategories[c.ID] = c
		s.memMu.Unlock()
		return c, nil
	}

	q := `INSERT INTO ` + s.tables.categories + ` (name, description, image_url, featured, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
	if err := s.db.QueryRowContext(ctx, q, c.Name, c.Description, c.ImageURL, c.Featured, c.SortOrder, c.CreatedAt, c.UpdatedAt).Scan(&c.ID); err != nil {
		return productCategory{}, err
	}
	return c, nil
}

func (s *service) updateCategory(ctx context.Context, id int, c productCategory) (productCategory, error) {
	c.ID = id
	c.UpdatedAt = time.Now().UTC()

	if s.db == nil {
		s.memMu.Lock()
		cur, ok := s.memCategories[id]
		if !ok {
			s.memMu.Unlock()
			return productCategory{}, sql.ErrNoRows
		}
		c.CreatedAt = cur.CreatedAt
		s.memCategories[id] = c
		s.memMu.Unlock()
		return c, nil
	}

	q := `UPDATE ` + s.tables.categories + ` SET name=$1, description=$2, image_url=$3, featured=$4, sort_order=$5, updated_at=$6
		WHERE id=$7 RETURNING created_at`
	if err := s.db.QueryRowContext(ctx, q, c.Name, c.Description, c.ImageURL, c.Featured, c.SortOrder, c.UpdatedAt, id).Scan(&c.CreatedAt); err != nil {
		return productCategory{}, err
	}
	return c, nil
}

func (s *service) deleteCategory(ctx context.Context, id int) error {
	if s.db == nil {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		if _, ok := s.memCategories[id]; !ok {
			return sql.ErrNoRows
		}
		delete(s.memCategories, id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+s.tables.categories+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---------------------------------------------------------------------------
// Special services
// ---------------------------------------------------------------------------

func (s *service) listServices(ctx context.Context) ([]specialService, error) {
	if s.db == nil {
		s.memMu.RLock()
		items := make([]specialService, 0, len(s.memServices))
		for _, v := range s.memServices {
			items = append(items, v)
		}
		s.memMu.RUnlock()
		sort.Slice(items, func(i, j int) bool {
			if items[i].SortOrder != items[j].SortOrder {
				return items[i].SortOrder < items[j].SortOrder
			}
			return items[i].ID < items[j].ID
		})
		return items, nil
	}

	q := `SELECT id, name, description, icon, featured, sort_order, created_at, updated_at
		FROM ` + s.tables.services + ` ORDER BY sort_order, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]specialService, 0)
	for rows.Next() {
		var v specialService
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Icon, &v.Featured, &v.SortOrder, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *service) createService(ctx context.Context, v specialService) (specialService, error) {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	if s.db == nil {
		s.memMu.Lock()
		v.ID = s.nextServiceID
		s.nextServiceID++
		s.memServices[v.ID] = v
		s.memMu.Unlock()
		return v, nil
	}

	q := `INSERT INTO ` + s.tables.services + ` (name, description, icon, featured, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
	if err := s.db.QueryRowContext(ctx, q, v.Name, v.Description, v.Icon, v.Featured, v.SortOrder, v.CreatedAt, v.UpdatedAt).Scan(&v.ID); err != nil {
		return specialService{}, err
	}
	return v, nil
}

func (s *service) updateService(ctx context.Context, id int, v specialService) (specialService, error) {
	v.ID = id
	v.UpdatedAt = time.Now().UTC()

	if s.db == nil {
		s.memMu.Lock()
		cur, ok := s.memServices[id]
		if !ok {
			s.memMu.Unlock()
			return specialService{}, sql.ErrNoRows
		}
		v.CreatedAt = cur.CreatedAt
		s.memServices[id] = v
		s.memMu.Unlock()
		return v, nil
	}

	q := `UPDATE ` + s.tables.services + ` SET name=$1, description=$2, icon=$3, featured=$4, sort_order=$5, updated_at=$6
		WHERE id=$7 RETURNING created_at`
	if err := s.db.QueryRowContext(ctx, q, v.Name, v.Description, v.Icon, v.Featured, v.SortOrder, v.UpdatedAt, id).Scan(&v.CreatedAt); err != nil {
		return specialService{}, err
	}
	return v, nil
}

func (s *service) deleteService(ctx context.Context, id int) error {
	if s.db == nil {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		if _, ok := s.memServices[id]; !ok {
			return sql.ErrNoRows
		}
		delete(s.memServices, id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+s.tables.services+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---------------------------------------------------------------------------
// Featured brands
// ---------------------------------------------------------------------------

func (s *service) listBrands(ctx context.Context) ([]featuredBrand, error) {
	if s.db == nil {
		s.memMu.RLock()
		items := make([]featuredBrand, 0, len(s.memBrands))
		for _, b := range s.memBrands {
			items = append(items, b)
		}
		s.memMu.RUnlock()
		sort.Slice(items, func(i, j int) bool {
			if items[i].SortOrder != items[j].SortOrder {
				return items[i].SortOrder < items[j].SortOrder
			}
			return items[i].ID < items[j].ID
		})
		return items, nil
	}

	q := `SELECT id, name, description, logo_url, website_url, featured, sort_order, created_at, updated_at
		FROM ` + s.tables.brands + ` ORDER BY sort_order, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]featuredBrand, 0)
	for rows.Next() {
		var b featuredBrand
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.LogoURL, &b.WebsiteURL, &b.Featured, &b.SortOrder, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (s *service) createBrand(ctx context.Context, b featuredBrand) (featuredBrand, error) {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	if s.db == nil {
		s.memMu.Lock()
		b.ID = s.nextBrandID
		s.nextBrandID++
		s.memBrands[b.ID] = b
		s.memMu.Unlock()
		return b, nil
	}

	q := `INSERT INTO ` + s.tables.brands + ` (name, description, logo_url, website_url, featured, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`
	if err := s.db.QueryRowContext(ctx, q, b.Name, b.Description, b.LogoURL, b.WebsiteURL, b.Featured, b.SortOrder, b.CreatedAt, b.UpdatedAt).Scan(&b.ID); err != nil {
		return featuredBrand{}, err
	}
	return b, nil
}

func (s *service) updateBrand(ctx context.Context, id int, b featuredBrand) (featuredBrand, error) {
	b.ID = id
	b.UpdatedAt = time.Now().UTC()

	if s.db == nil {
		s.memMu.Lock()
		cur, ok := s.memBrands[id]
		if !ok {
			s.memMu.Unlock()
			return featuredBrand{}, sql.ErrNoRows
		}
		b.CreatedAt = cur.CreatedAt
		s.memBrands[id] = b
		s.memMu.Unlock()
		return b, nil
	}

	q := `UPDATE ` + s.tables.brands + ` SET name=$1, description=$2, logo_url=$3, website_url=$4, featured=$5, sort_order=$6, updated_at=$7
		WHERE id=$8 RETURNING created_at`
	if err := s.db.QueryRowContext(ctx, q, b.Name, b.Description, b.LogoURL, b.WebsiteURL, b.Featured, b.SortOrder, b.UpdatedAt, id).Scan(&b.CreatedAt); err != nil {
		return featuredBrand{}, err
	}
	return b, nil
}

func (s *service) deleteBrand(ctx context.Context, id int) error {
	if s.db == nil {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		if _, ok := s.memBrands[id]; !ok {
			return sql.ErrNoRows
		}
		delete(s.memBrands, id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+s.tables.brands+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
