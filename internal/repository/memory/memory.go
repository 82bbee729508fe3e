// Package memory provides in-process implementations of the repository
// contracts. They back the service and router tests and satisfy the same
// interfaces as the PostgreSQL repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-contacts-api/internal/model"
	"go-contacts-api/internal/repository"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[int64]model.User{}}
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrUserNotFound)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.findByEmailLocked(email); ok {
		return u, nil
	}
	return model.User{}, fmt.Errorf("user %q: %w", email, model.ErrUserNotFound)
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.findByEmailLocked(email)
	return ok, nil
}

func (r *UserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.findByEmailLocked(u.Email); exists {
		return fmt.Errorf("user %q: %w", u.Email, model.ErrUserAlreadyExists)
	}

	r.nextID++
	now := time.Now().UTC()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) findByEmailLocked(email string) (model.User, bool) {
	key := strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if strings.ToLower(u.Email) == key {
			return u, true
		}
	}
	return model.User{}, false
}

// TokenRepository stores refresh tokens on the records of a UserRepository.
type TokenRepository struct {
	users *UserRepository
}

func NewTokenRepository(users *UserRepository) *TokenRepository {
	return &TokenRepository{users: users}
}

func (r *TokenRepository) Store(_ context.Context, userID int64, token string) error {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	u, ok := r.users.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, model.ErrUserNotFound)
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	r.users.users[userID] = u
	return nil
}

func (r *TokenRepository) Current(_ context.Context, userID int64) (string, error) {
	r.users.mu.RLock()
	defer r.users.mu.RUnlock()

	u, ok := r.users.users[userID]
	if !ok {
		return "", fmt.Errorf("user %d: %w", userID, model.ErrUserNotFound)
	}
	return u.RefreshToken, nil
}

func (r *TokenRepository) Revoke(_ context.Context, userID int64) error {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	if u, ok := r.users.users[userID]; ok && u.RefreshToken != "" {
		u.RefreshToken = ""
		u.UpdatedAt = time.Now().UTC()
		r.users.users[userID] = u
	}
	return nil
}

type ContactRepository struct {
	mu       sync.RWMutex
	nextID   int64
	contacts map[int64]model.Contact
}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{contacts: map[int64]model.Contact{}}
}

func (r *ContactRepository) Create(_ context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	c.ID = r.nextID
	c.CreatedAt = now
	c.UpdatedAt = now
	r.contacts[c.ID] = *c
	return nil
}

func (r *ContactRepository) FindByID(_ context.Context, id int64) (model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[id]
	if !ok {
		return model.Contact{}, fmt.Errorf("contact %d: %w", id, model.ErrContactNotFound)
	}
	return c, nil
}

func (r *ContactRepository) Update(_ context.Context, id int64, patch model.ContactPatch) (model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contacts[id]
	if !ok {
		return model.Contact{}, fmt.Errorf("contact %d: %w", id, model.ErrContactNotFound)
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	c.UpdatedAt = time.Now().UTC()
	r.contacts[id] = c
	return c, nil
}

func (r *ContactRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[id]; !ok {
		return fmt.Errorf("contact %d: %w", id, model.ErrContactNotFound)
	}
	delete(r.contacts, id)
	return nil
}

func (r *ContactRepository) Query(_ context.Context, query model.ContactQuery) ([]model.Contact, model.Meta, error) {
	query = repository.NormalizeContactQuery(query)

	r.mu.RLock()
	items := make([]model.Contact, 0, len(r.contacts))
	for _, c := range r.contacts {
		if query.OwnerID != nil && c.UserID != *query.OwnerID {
			continue
		}
		if query.Phone != "" && c.Phone != query.Phone {
			continue
		}
		items = append(items, c)
	}
	r.mu.RUnlock()

	sortContacts(items, query.SortBy, query.Order)

	total := len(items)
	start, end := pageBounds(query.Page, query.Limit, total)

	return items[start:end], model.NewMeta(query.Page, query.Limit, total), nil
}

func sortContacts(items []model.Contact, sortBy string, order string) {
	less := func(a, b model.Contact) int {
		switch sortBy {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "email":
			return strings.Compare(a.Email, b.Email)
		case "phone":
			return strings.Compare(a.Phone, b.Phone)
		case "role":
			return strings.Compare(string(a.Role), string(b.Role))
		case "updatedAt":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case "id":
			return 0
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(items, func(i int, j int) bool {
		cmp := less(items[i], items[j])
		if cmp == 0 {
			cmp = compareInt64(items[i].ID, items[j].ID)
		}
		if order == model.SortOrderAsc {
			return cmp < 0
		}
		return cmp > 0
	})
}

func compareInt64(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type AuditRepository struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Log(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	return nil
}

// Query filters by action, actor, status and resource, newest first.
func (r *AuditRepository) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = repository.DefaultAuditLimit
	}
	if query.Limit > repository.MaxAuditLimit {
		query.Limit = repository.MaxAuditLimit
	}

	r.mu.Lock()
	items := make([]model.AuditEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if query.Action != "" && !strings.EqualFold(e.Action, query.Action) {
			continue
		}
		if query.ActorID > 0 && e.Actor.UserID != query.ActorID {
			continue
		}
		if query.Status != "" && !strings.EqualFold(e.Status, query.Status) {
			continue
		}
		if query.Resource != "" && !strings.Contains(strings.ToLower(e.Resource), strings.ToLower(query.Resource)) {
			continue
		}
		items = append(items, e)
	}
	r.mu.Unlock()

	total := len(items)
	start, end := pageBounds(query.Page, query.Limit, total)

	return items[start:end], model.NewMeta(query.Page, query.Limit, total), nil
}

// pageBounds returns the slice bounds of page within total items.
func pageBounds(page int, limit int, total int) (int, int) {
	start, ok := model.PageOffset(page, limit)
	if !ok || start > total {
		return total, total
	}
	return start, start + min(limit, total-start)
}
