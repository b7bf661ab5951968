package user

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-user-directory/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/validation"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/apperr"
)

// Store is the persistence contract the service needs. Implementations
// report absent rows, bad ids and email collisions with the repo sentinels.
type Store interface {
	ListAll(ctx context.Context) ([]*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Insert(ctx context.Context, u *entity.User) (*entity.User, error)
	UpdateByID(ctx context.Context, id string, p entity.Patch) (*entity.User, error)
	DeleteByID(ctx context.Context, id string) error
}

var (
	_ Store = (*userrepo.UserRepo)(nil)
	_ Store = (*userrepo.MemoryRepo)(nil)
)

// Caller-facing messages.
const (
	MsgNotFound  = "User not found"
	MsgDuplicate = "User with this email already exists"
	MsgDeleted   = "User deleted successfully"
)

// UserService runs the user write rules: validate, check email uniqueness,
// then hand the record to the store. Nothing is retried and the pre-check is
// not atomic with the write; the store's unique index settles races.
type UserService struct {
	store Store
}

func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	users, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, s.translate(err)
	}
	return users, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.translateID(err, id)
	}
	return u, nil
}

// Create validates c and stores it as a new user.
func (s *UserService) Create(ctx context.Context, c entity.Candidate) (*entity.User, error) {
	if err := validation.Validate(c); err != nil {
		return nil, err
	}
	u := c.ToUser()
	if err := s.ensureEmailFree(ctx, u.Email); err != nil {
		return nil, err
	}
	created, err := s.store.Insert(ctx, u)
	if err != nil {
		return nil, s.translate(err)
	}
	return created, nil
}

// Update applies p to the user with id. The fields p sets are validated
// before the user is looked up, so a bad body is reported even for a missing
// user.
func (s *UserService) Update(ctx context.Context, id string, p entity.Patch) (*entity.User, error) {
	if err := validation.ValidatePatch(p); err != nil {
		return nil, err
	}
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.translateID(err, id)
	}
	p = p.Normalize()
	if p.Email != nil && *p.Email != current.Email {
		if err := s.ensureEmailFree(ctx, *p.Email); err != nil {
			return nil, err
		}
	}
	updated, err := s.store.UpdateByID(ctx, id, p)
	if err != nil {
		return nil, s.translateID(err, id)
	}
	return updated, nil
}

// Delete removes the user with id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return s.translateID(err, id)
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return apperr.New(apperr.Conflict, MsgDuplicate)
	case errors.Is(err, userrepo.ErrNotFound):
		return nil
	default:
		return s.translate(err)
	}
}

func (s *UserService) translateID(err error, id string) error {
	if errors.Is(err, userrepo.ErrMalformedID) {
		return apperr.Wrap(apperr.MalformedID, err, "Invalid user id: "+id)
	}
	return s.translate(err)
}

func (s *UserService) translate(err error) error {
	switch {
	case errors.Is(err, userrepo.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, err, MsgNotFound)
	case errors.Is(err, userrepo.ErrDuplicateEmail):
		return apperr.Wrap(apperr.Conflict, err, MsgDuplicate)
	default:
		return apperr.Wrap(apperr.Internal, err, err.Error())
	}
}
