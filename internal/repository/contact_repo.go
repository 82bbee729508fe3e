package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-contacts-api/internal/model"
)

const (
	DefaultContactLimit = 10
	MaxContactLimit     = 100
	DefaultContactSort  = "createdAt"
)

// contactSortColumns whitelists the sortable API fields.
var contactSortColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"phone":     "phone",
	"role":      "role",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// NormalizeContactQuery fills defaults and clamps paging values.
func NormalizeContactQuery(q model.ContactQuery) model.ContactQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultContactLimit
	}
	if q.Limit > MaxContactLimit {
		q.Limit = MaxContactLimit
	}
	if _, ok := contactSortColumns[q.SortBy]; !ok {
		q.SortBy = DefaultContactSort
	}
	if q.Order != model.SortOrderAsc {
		q.Order = model.SortOrderDesc
	}
	q.Phone = strings.TrimSpace(q.Phone)
	return q
}

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactColumns = `id, name, email, phone, role, user_id, created_at, updated_at`

func scanContact(row pgx.Row) (model.Contact, error) {
	var c model.Contact
	var role string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &role, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	c.Role = model.Role(role)
	return c, err
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contacts (name, email, phone, role, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.Phone, string(c.Role), c.UserID).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) FindByID(ctx context.Context, id int64) (model.Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Contact{}, fmt.Errorf("contact %d: %w", id, model.ErrContactNotFound)
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("find contact: %w", err)
	}
	return c, nil
}

// Update applies the non-nil fields of patch and returns the stored row.
func (r *ContactRepository) Update(ctx context.Context, id int64, patch model.ContactPatch) (model.Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx,
		`UPDATE contacts
		 SET name = COALESCE($2, name),
		     email = COALESCE($3, email),
		     phone = COALESCE($4, phone),
		     updated_at = $5
		 WHERE id = $1
		 RETURNING `+contactColumns,
		id, patch.Name, patch.Email, patch.Phone, time.Now().UTC()))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Contact{}, fmt.Errorf("contact %d: %w", id, model.ErrContactNotFound)
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contact %d: %w", id, model.ErrContactNotFound)
	}
	return nil
}

// Query returns one page of contacts. The owner and phone filters are part of
// the WHERE clause so the total in Meta counts only matching rows.
func (r *ContactRepository) Query(ctx context.Context, query model.ContactQuery) ([]model.Contact, model.Meta, error) {
	query = NormalizeContactQuery(query)

	var f filter
	if query.OwnerID != nil {
		f.add("user_id = $%d", *query.OwnerID)
	}
	if query.Phone != "" {
		f.add("phone = $%d", query.Phone)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM contacts "+f.where(), f.args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count contacts: %w", err)
	}

	direction := strings.ToUpper(query.Order)
	limit, args := f.page(query.Page, query.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM contacts %s ORDER BY %s %s, id %s %s`,
		contactColumns, f.where(), contactSortColumns[query.SortBy], direction, direction, limit), args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query contacts: %w", err)
	}

	contacts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Contact, error) {
		return scanContact(row)
	})
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("scan contacts: %w", err)
	}

	return contacts, model.NewMeta(query.Page, query.Limit, total), nil
}
