package integration

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"chromir-be/internal/config"
	"chromir-be/internal/entity"
	"chromir-be/internal/model"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/internal/service"
	"chromir-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err, "Failed to connect to DB")
	require.NoError(t, model.Migrate(gormDB))

	sqlDB, _ := gormDB.DB()
	require.NoError(t, sqlDB.Ping())

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	ledger := service.NewLedgerService(uowFactory, config.LedgerConfig{ModelCreationCost: 20, ImageGenerationCost: 5}, nil)

	org := &entity.Organization{Name: "Integration Org " + uuid.NewString(), Tokens: 100, OwnerId: uuid.New()}
	require.NoError(t, uowFactory.NewUnitOfWork(ctx).OrganizationRepository().Create(ctx, org))
	t.Cleanup(func() {
		gormDB.Exec("DELETE FROM token_transactions WHERE organization_id = ?", org.Id)
		gormDB.Exec("DELETE FROM organizations WHERE id = ?", org.Id)
	})

	t.Run("Tokens check constraint rejects negative balance", func(t *testing.T) {
		err := gormDB.Exec("UPDATE organizations SET tokens = -1 WHERE id = ?", org.Id).Error
		assert.Error(t, err)
	})

	t.Run("Concurrent debits never overdraw", func(t *testing.T) {
		var wg sync.WaitGroup
		var succeeded atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := ledger.Debit(ctx, org.Id, 20, entity.TokenActionModelCreation, nil)
				if err == nil {
					succeeded.Add(1)
					return
				}
				assert.True(t, errors.Is(err, apperror.ErrInsufficientFunds), "unexpected error: %v", err)
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 5, succeeded.Load())
		balance, err := ledger.Balance(ctx, org.Id)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)

		count, err := uowFactory.NewUnitOfWork(ctx).TokenTransactionRepository().Count(ctx,
			specification.ByOrganizationID{OrganizationID: org.Id})
		require.NoError(t, err)
		assert.EqualValues(t, 5, count)
	})
}
