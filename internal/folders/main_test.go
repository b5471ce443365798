package folders

import (
	"context"
	"log"
	"os"
	"testing"

	"magazyn-dokumentow/internal/database"
	"magazyn-dokumentow/internal/models"
	"magazyn-dokumentow/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testPool    *pgxpool.Pool
	testStore   *database.Store
	testBlobs   *storage.MemoryStorage
	testManager *Manager

	ownerIdent models.Identity
	otherIdent models.Identity
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:14-alpine",
		postgres.WithDatabase("test_folders_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("Could not start postgres: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Could not get connection string: %s", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	schema, err := os.ReadFile("../../db/init.sql")
	if err != nil {
		log.Fatalf("Could not read schema file: %s", err)
	}
	if _, err := testPool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Could not apply schema: %s", err)
	}

	testStore = database.NewStore(testPool)
	testBlobs = storage.NewMemoryStorage()

	testManager, err = NewManager(testStore, testBlobs)
	if err != nil {
		log.Fatalf("Could not create manager: %s", err)
	}

	ownerIdent = seedUser(ctx, "wlasciciel", "Jan Kowalski", nil)
	otherIdent = seedUser(ctx, "odbiorca", "Anna Nowak", []string{"grupa-3a"})

	os.Exit(m.Run())
}

// seedUser creates the user, its groups and memberships, and returns the
// ready identity.
func seedUser(ctx context.Context, username, displayName string, groupIDs []string) models.Identity {
	var userID int64
	err := testPool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, display_name) VALUES ($1, 'x', $2) RETURNING id`,
		username, displayName,
	).Scan(&userID)
	if err != nil {
		log.Fatalf("Could not seed user %s: %s", username, err)
	}

	for _, groupID := range groupIDs {
		if _, err := testPool.Exec(ctx,
			`INSERT INTO groups (id, name) VALUES ($1, $1) ON CONFLICT DO NOTHING`, groupID,
		); err != nil {
			log.Fatalf("Could not seed group %s: %s", groupID, err)
		}
		if _, err := testPool.Exec(ctx,
			`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2)`, userID, groupID,
		); err != nil {
			log.Fatalf("Could not seed membership: %s", err)
		}
	}

	return models.Identity{
		UserID:      userID,
		Username:    username,
		DisplayName: displayName,
		GroupIDs:    groupIDs,
	}
}
