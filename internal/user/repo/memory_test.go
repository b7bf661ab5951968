package repo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

func sampleUser(email string) *entity.User {
	return &entity.User{Name: "Ann", Email: email, Age: 30, Mobile: 5551234, Interest: entity.Interests{"chess"}}
}

func TestMemoryRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo(utilities.KSUIDScheme{})

	created, err := r.Insert(ctx, sampleUser("ann@x.com"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	byEmail, err := r.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	age := float64(31)
	updated, err := r.UpdateByID(ctx, created.ID, entity.Patch{Age: &age})
	require.NoError(t, err)
	assert.Equal(t, 31, updated.Age)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, r.DeleteByID(ctx, created.ID))
	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.DeleteByID(ctx, created.ID), ErrNotFound)
	_, err = r.FindByEmail(ctx, "ann@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_MalformedID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo(utilities.KSUIDScheme{})

	_, err := r.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrMalformedID)
	_, err = r.UpdateByID(ctx, "not-an-id", entity.Patch{})
	assert.ErrorIs(t, err, ErrMalformedID)
	assert.ErrorIs(t, r.DeleteByID(ctx, "not-an-id"), ErrMalformedID)

	_, err = r.GetByID(ctx, utilities.KSUIDScheme{}.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo(utilities.UUIDScheme{})

	a, err := r.Insert(ctx, sampleUser("a@x.com"))
	require.NoError(t, err)
	_, err = r.Insert(ctx, sampleUser("a@x.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	b, err := r.Insert(ctx, sampleUser("b@x.com"))
	require.NoError(t, err)

	taken := "a@x.com"
	_, err = r.UpdateByID(ctx, b.ID, entity.Patch{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	freed := "c@x.com"
	_, err = r.UpdateByID(ctx, a.ID, entity.Patch{Email: &freed})
	require.NoError(t, err)
	_, err = r.Insert(ctx, sampleUser("a@x.com"))
	assert.NoError(t, err, "old email is released after an email change")
}

func TestMemoryRepo_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo(utilities.KSUIDScheme{})

	var wg sync.WaitGroup
	var ok, dup atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Insert(ctx, sampleUser("race@x.com"))
			switch err {
			case nil:
				ok.Add(1)
			case ErrDuplicateEmail:
				dup.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(15), dup.Load())
}

func TestMemoryRepo_ListAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo(utilities.KSUIDScheme{})

	users, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	for i := 0; i < 5; i++ {
		_, err := r.Insert(ctx, sampleUser(fmt.Sprintf("u%d@x.com", i)))
		require.NoError(t, err)
	}
	users, err = r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 5)
	for i, u := range users {
		assert.Equal(t, fmt.Sprintf("u%d@x.com", i), u.Email)
	}
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo(utilities.KSUIDScheme{})

	created, err := r.Insert(ctx, sampleUser("copy@x.com"))
	require.NoError(t, err)
	created.Interest[0] = "mutated"
	created.Name = "mutated"

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, entity.Interests{"chess"}, got.Interest)
}
