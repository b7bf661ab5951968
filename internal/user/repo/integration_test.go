//go:build integration

package repo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	repo "github.com/ovaphlow/pitchfork/service-user-directory/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/database"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "userdb_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/userdb_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestUserRepo_Postgres(t *testing.T) {
	for _, driver := range []string{database.DriverPostgres, database.DriverPgx} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db, err := database.Connect(ctx, database.Config{Driver: driver, DSN: dsn, MaxConns: 2, Timeout: 10 * time.Second})
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			require.NoError(t, database.Migrate(ctx, db, driver))
			_, err = db.ExecContext(ctx, `TRUNCATE users`)
			require.NoError(t, err)

			r := repo.NewUserRepo(db, utilities.KSUIDScheme{})
			u := &entity.User{Name: "Ann", Email: "ann@x.com", Age: 30, Mobile: 5551234, Interest: entity.Interests{"chess"}}

			created, err := r.Insert(ctx, u)
			require.NoError(t, err)

			got, err := r.GetByID(ctx, created.ID)
			require.NoError(t, err)
			require.Equal(t, created, got)

			_, err = r.Insert(ctx, u)
			require.ErrorIs(t, err, repo.ErrDuplicateEmail)

			age := float64(31)
			updated, err := r.UpdateByID(ctx, created.ID, entity.Patch{Age: &age})
			require.NoError(t, err)
			require.Equal(t, 31, updated.Age)
			require.Equal(t, "Ann", updated.Name)

			require.NoError(t, r.DeleteByID(ctx, created.ID))
			_, err = r.GetByID(ctx, created.ID)
			require.ErrorIs(t, err, repo.ErrNotFound)
		})
	}
}
