//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
)

func TestPostgresMigrations(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := Connect(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, HealthCheck(ctx, conn))

	user := models.User{PhoneNumber: "09121111111"}
	require.NoError(t, conn.Create(&user).Error)

	require.NoError(t, conn.Create(&models.Address{UserID: user.ID, Address: "first", IsActive: true}).Error)
	require.NoError(t, conn.Create(&models.Address{UserID: user.ID, Address: "second"}).Error)

	err = conn.Create(&models.Address{UserID: user.ID, Address: "third", IsActive: true}).Error
	assert.Error(t, err, "partial unique index must reject a second active address")
}
