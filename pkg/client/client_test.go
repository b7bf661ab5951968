package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/router"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-user-directory/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/client"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

func newServer(t *testing.T) *client.Client {
	t.Helper()
	svc := user.NewUserService(userrepo.NewMemoryRepo(utilities.KSUIDScheme{}))
	srv := httptest.NewServer(router.RegisterRoutes(zap.NewNop().Sugar(), svc, router.Options{Production: true}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", client.WithHTTPClient(srv.Client()))
}

func ptr[T any](v T) *T { return &v }

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	require.NoError(t, c.Health(ctx))

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	ann, err := c.CreateUser(ctx, client.UserInput{
		User:     ptr("Ann"),
		Email:    ptr("ann@x.com"),
		Age:      ptr(30),
		Mobile:   ptr(int64(5551234)),
		Interest: ptr([]string{"chess"}),
	})
	require.NoError(t, err)
	require.NotEmpty(t, ann.ID)
	assert.Equal(t, "Ann", ann.User)
	assert.Equal(t, []string{"chess"}, ann.Interest)

	got, err := c.GetUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.Email, got.Email)
	assert.True(t, ann.CreatedAt.Equal(got.CreatedAt))

	updated, err := c.UpdateUser(ctx, ann.ID, client.UserInput{Age: ptr(31)})
	require.NoError(t, err)
	assert.Equal(t, 31, updated.Age)
	assert.Equal(t, "Ann", updated.User)

	users, err = c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	cleared, err := c.UpdateUser(ctx, ann.ID, client.UserInput{Interest: ptr([]string{})})
	require.NoError(t, err)
	assert.NotNil(t, cleared.Interest)
	assert.Empty(t, cleared.Interest)
	assert.Equal(t, 31, cleared.Age)

	require.NoError(t, c.DeleteUser(ctx, ann.ID))

	_, err = c.GetUser(ctx, ann.ID)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, user.MsgNotFound, apiErr.Error())
}

func TestClient_ServerMessages(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	in := client.UserInput{User: ptr("Ann"), Email: ptr("ann@x.com"), Age: ptr(30), Mobile: ptr(int64(1))}
	_, err := c.CreateUser(ctx, in)
	require.NoError(t, err)

	_, err = c.CreateUser(ctx, in)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, user.MsgDuplicate, apiErr.Message)

	in.Email = ptr("old@x.com")
	in.Age = ptr(150)
	_, err = c.CreateUser(ctx, in)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Age cannot exceed 120", apiErr.Message)
}

func TestClient_StatusFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	err := client.New(srv.URL).DeleteUser(context.Background(), "x")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Error: 502", apiErr.Error())
}

func TestClient_EscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"a/b"}}`))
	}))
	defer srv.Close()

	u, err := client.New(srv.URL).GetUser(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", u.ID)
	assert.Equal(t, "/api/users/a%2Fb", gotPath)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url).ListUsers(context.Background())
	require.Error(t, err)
	var apiErr *client.APIError
	assert.False(t, errors.As(err, &apiErr))
}
