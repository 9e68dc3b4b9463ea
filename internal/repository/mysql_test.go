package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/gorm"

	"venuebook/internal/db"
	"venuebook/internal/model"
)

var (
	mysqlOnce      sync.Once
	mysqlContainer *tcmysql.MySQLContainer
	mysqlDB        *gorm.DB
	mysqlErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if mysqlDB != nil {
		_ = db.Close(mysqlDB)
	}
	if mysqlContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = mysqlContainer.Terminate(ctx)
		cancel()
	}
	os.Exit(code)
}

// createTestDatabase returns a MySQL schema migrated from scratch. The
// container is shared by the package and started on first use.
func createTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MySQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	mysqlOnce.Do(func() {
		ctx := context.Background()
		mysqlContainer, mysqlErr = tcmysql.Run(ctx,
			"mysql:8.0.36",
			tcmysql.WithDatabase("venuebook"),
			tcmysql.WithUsername("venuebook"),
			tcmysql.WithPassword("venuebook"),
		)
		if mysqlErr != nil {
			return
		}

		var dsn string
		dsn, mysqlErr = mysqlContainer.ConnectionString(ctx, "charset=utf8mb4", "parseTime=True", "loc=Local")
		if mysqlErr != nil {
			return
		}
		mysqlDB, mysqlErr = db.NewMySQL(dsn, db.PoolOptions{
			MaxOpenConns:    20,
			MaxIdleConns:    20,
			ConnMaxLifetime: time.Minute,
		})
	})
	require.NoError(t, mysqlErr)
	require.NoError(t, db.Migrate(mysqlDB, true))
	return mysqlDB
}

func seedVenue(t *testing.T, gdb *gorm.DB, name string, status model.VenueStatus) {
	t.Helper()
	require.NoError(t, NewVenueRepository(gdb).Create(context.Background(), &model.Venue{
		Name:     name,
		Capacity: 40,
		Status:   status,
	}))
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) {
	t.Helper()
	require.NoError(t, NewUserRepository(gdb).Create(context.Background(), &model.User{
		Username:     username,
		PasswordHash: "x",
		Role:         model.RoleUser,
		Status:       model.UserActive,
	}))
}

func bookingAt(venue, clock, username string) *model.Booking {
	return &model.Booking{
		Venue:    venue,
		Date:     time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local),
		Time:     clock,
		Username: username,
	}
}
