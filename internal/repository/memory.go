package repository

import (
	"collegeportal/internal/models"
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryUserRepository — UserRepo в памяти процесса (STORE=memory, тесты).
// Мьютекс делает каждую операцию атомарной так же, как одиночный SQL-оператор.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]string // нормализованный email → id
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock — время для created_at/updated_at (тесты).
func (r *MemoryUserRepository) WithClock(now func() time.Time) *MemoryUserRepository {
	r.now = now
	return r
}

func clone(u *models.User) *models.User {
	c := *u
	if u.ResetToken != nil {
		t := *u.ResetToken
		c.ResetToken = &t
	}
	if u.ResetExpiry != nil {
		e := *u.ResetExpiry
		c.ResetExpiry = &e
	}
	return &c
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return models.ErrDuplicateEmail
	}
	if _, taken := r.byID[user.ID]; taken {
		return models.ErrStoreUnavailable
	}

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = clone(user)
	r.byEmail[key] = user.ID
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) UpdatePasswordHashIf(_ context.Context, userID, expectedHash, newHash string, clearReset bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok || u.PasswordHash != expectedHash {
		return models.ErrNotFound
	}
	u.PasswordHash = newHash
	if clearReset {
		u.ResetToken = nil
		u.ResetExpiry = nil
	}
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryUserRepository) ListUsers(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*models.User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*models.User{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]*models.User, 0, end-offset)
	for _, u := range all[offset:end] {
		page = append(page, clone(u))
	}
	return page, total, nil
}

func (r *MemoryUserRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryUserRepository) SetResetTicket(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.ResetToken = &tokenHash
	u.ResetExpiry = &expiresAt
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryUserRepository) ClearResetTicket(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[userID]; ok {
		u.ResetToken = nil
		u.ResetExpiry = nil
		u.UpdatedAt = r.now()
	}
	return nil
}

func (r *MemoryUserRepository) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findTicketLocked(tokenHash, now)
	if u == nil {
		return nil, models.ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) ConsumeResetTicket(_ context.Context, tokenHash, newPasswordHash string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findTicketLocked(tokenHash, now)
	if u == nil {
		return "", models.ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	u.ResetToken = nil
	u.ResetExpiry = nil
	u.UpdatedAt = r.now()
	return u.ID, nil
}

func (r *MemoryUserRepository) findTicketLocked(tokenHash string, now time.Time) *models.User {
	for _, u := range r.byID {
		if u.ResetToken != nil && *u.ResetToken == tokenHash && u.HasPendingReset(now) {
			return u
		}
	}
	return nil
}
