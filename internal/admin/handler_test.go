package admin

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/router"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-user-directory/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/client"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

type fixture struct {
	api     *client.Client
	admin   *httptest.Server
	browser *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	svc := user.NewUserService(userrepo.NewMemoryRepo(utilities.KSUIDScheme{}))
	apiSrv := httptest.NewServer(router.RegisterRoutes(logger, svc, router.Options{}))
	t.Cleanup(apiSrv.Close)
	api := client.New(apiSrv.URL)

	h, err := NewHandler(api, logger, Options{SessionKey: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Routes(r)
	adminSrv := httptest.NewServer(r)
	t.Cleanup(adminSrv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &fixture{api: api, admin: adminSrv, browser: &http.Client{Jar: jar}}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := f.browser.Get(f.admin.URL + path)
	require.NoError(t, err)
	return readBody(t, resp)
}

func (f *fixture) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := f.browser.PostForm(f.admin.URL+path, form)
	require.NoError(t, err)
	return readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func annForm() url.Values {
	return url.Values{
		"user":     {"Ann"},
		"email":    {"ann@x.com"},
		"age":      {"30"},
		"mobile":   {"5551234"},
		"interest": {"chess, go"},
	}
}

func TestNewHandler_RequiresSessionKey(t *testing.T) {
	_, err := NewHandler(nil, zap.NewNop().Sugar(), Options{})
	assert.Error(t, err)
}

func TestAdmin_UserLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No users yet")

	code, body = f.post(t, "/users", annForm())
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, FlashCreated)
	assert.Contains(t, body, "ann@x.com")

	// flashes are shown once
	_, body = f.get(t, "/users")
	assert.NotContains(t, body, FlashCreated)

	users, err := f.api.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	id := users[0].ID
	assert.Equal(t, []string{"chess", "go"}, users[0].Interest)

	code, body = f.get(t, "/users/"+id+"/edit")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `value="chess, go"`)

	form := annForm()
	form.Set("age", "31")
	code, body = f.post(t, "/users/"+id, form)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, FlashUpdated)
	assert.Contains(t, body, "<dd>31</dd>")

	code, body = f.get(t, "/users/"+id+"/delete")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Delete Ann?")

	code, body = f.post(t, "/users/"+id+"/delete", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, FlashDeleted)

	code, body = f.get(t, "/users/"+id)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, user.MsgNotFound)
}

func TestAdmin_FormRejections(t *testing.T) {
	f := newFixture(t)
	_, _ = f.post(t, "/users", annForm())

	tests := []struct {
		name   string
		mutate func(url.Values)
		want   string
	}{
		{"no interests", func(v url.Values) { v.Set("interest", " , ") }, "Please add at least one interest"},
		{"age not a number", func(v url.Values) { v.Set("age", "thirty") }, "Age must be a number"},
		{"age too high", func(v url.Values) { v.Set("age", "121") }, "Age cannot exceed 120"},
		{"blank name", func(v url.Values) { v.Set("user", "   ") }, "Username cannot be empty"},
		{"missing mobile", func(v url.Values) { v.Del("mobile") }, "Mobile number is required"},
		{"duplicate email from the api", func(v url.Values) {}, user.MsgDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := annForm()
			tt.mutate(form)
			code, body := f.post(t, "/users", form)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, body, "Failed to create user: "+tt.want)
		})
	}

	users, err := f.api.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAdmin_ListFilterAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, in := range []client.UserInput{
		{User: ptr("Ann"), Email: ptr("ann@x.com"), Age: ptr(30), Mobile: ptr(int64(1)), Interest: ptr([]string{"chess"})},
		{User: ptr("Bob"), Email: ptr("bob@y.org"), Age: ptr(41), Mobile: ptr(int64(2)), Interest: ptr([]string{"Chess", "go"})},
	} {
		_, err := f.api.CreateUser(ctx, in)
		require.NoError(t, err)
	}

	code, body := f.get(t, "/users?q=Y.ORG")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "bob@y.org")
	assert.NotContains(t, body, "ann@x.com")
	assert.Contains(t, body, "<strong>2</strong>", "total counts every user")
	assert.Contains(t, body, "<strong>35.5</strong>")

	_, body = f.get(t, "/users?q=nobody")
	assert.Contains(t, body, "No users match")
}

func TestAdmin_APIUnavailable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	h, err := NewHandler(client.New(dead.URL), zap.NewNop().Sugar(), Options{SessionKey: []byte("k")})
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Unknown error"))
}

func ptr[T any](v T) *T { return &v }
