package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

// MemoryRepo keeps users in process memory. It enforces the same unique
// email constraint as the SQL schema.
type MemoryRepo struct {
	mu      sync.RWMutex
	ids     utilities.IDScheme
	now     func() time.Time
	seq     int64
	byID    map[string]memoryRow
	byEmail map[string]string
}

type memoryRow struct {
	seq  int64
	user entity.User
}

func NewMemoryRepo(ids utilities.IDScheme) *MemoryRepo {
	return &MemoryRepo{
		ids:     ids,
		now:     storeNow,
		byID:    make(map[string]memoryRow),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepo) ListAll(_ context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	rows := make([]memoryRow, 0, len(r.byID))
	for _, row := range r.byID {
		rows = append(rows, row)
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneUser(row.user))
	}
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if !r.ids.Valid(id) {
		return nil, ErrMalformedID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(row.user), nil
}

func (r *MemoryRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.byID[id].user), nil
}

func (r *MemoryRepo) Insert(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return nil, ErrDuplicateEmail
	}
	row := *cloneUser(*u)
	row.ID = r.ids.New()
	row.CreatedAt = r.now()
	row.UpdatedAt = row.CreatedAt
	r.seq++
	r.byID[row.ID] = memoryRow{seq: r.seq, user: row}
	r.byEmail[row.Email] = row.ID
	return cloneUser(row), nil
}

func (r *MemoryRepo) UpdateByID(_ context.Context, id string, p entity.Patch) (*entity.User, error) {
	if !r.ids.Valid(id) {
		return nil, ErrMalformedID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := row.user
	if p.Email != nil && *p.Email != u.Email {
		if _, taken := r.byEmail[*p.Email]; taken {
			return nil, ErrDuplicateEmail
		}
		delete(r.byEmail, u.Email)
		u.Email = *p.Email
		r.byEmail[u.Email] = id
	}
	if p.User != nil {
		u.Name = *p.User
	}
	if p.Age != nil {
		u.Age = int(*p.Age)
	}
	if p.Mobile != nil {
		u.Mobile = int64(*p.Mobile)
	}
	if p.Interest != nil {
		u.Interest = append(entity.Interests{}, (*p.Interest)...)
	}
	u.UpdatedAt = r.now()
	row.user = u
	r.byID[id] = row
	return cloneUser(u), nil
}

func (r *MemoryRepo) DeleteByID(_ context.Context, id string) error {
	if !r.ids.Valid(id) {
		return ErrMalformedID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, row.user.Email)
	return nil
}

func cloneUser(u entity.User) *entity.User {
	u.Interest = append(entity.Interests{}, u.Interest...)
	return &u
}
