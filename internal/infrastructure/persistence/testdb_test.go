package persistence

import (
	"context"
	"testing"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory sqlite database with every model migrated.
// A single connection keeps the in-memory database alive across queries.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// seedShopAndChannel stores a shop platform with one shop and a channel
// platform with one channel for ownerID
func seedShopAndChannel(t *testing.T, db *gorm.DB, ownerID uuid.UUID) (*integration.Shop, *integration.Channel) {
	t.Helper()
	ctx := context.Background()
	platforms := NewGormPlatformRepository(db)

	shopPlatform, err := integration.NewPlatform(ownerID, "Shopify", integration.PlatformKindShop, map[integration.Operation]string{
		integration.OpSearchProducts: "shopify",
	})
	require.NoError(t, err)
	require.NoError(t, platforms.Save(ctx, shopPlatform))

	channelPlatform, err := integration.NewPlatform(ownerID, "Douyin", integration.PlatformKindChannel, map[integration.Operation]string{
		integration.OpCreatePurchase: "https://adapter.example.com/purchase",
	})
	require.NoError(t, err)
	require.NoError(t, platforms.Save(ctx, channelPlatform))

	shop, err := integration.NewShop(ownerID, "Main Store", "main.myshopify.com", "shop-token", shopPlatform)
	require.NoError(t, err)
	require.NoError(t, NewGormShopRepository(db).Save(ctx, shop))

	channel, err := integration.NewChannel(ownerID, "Supplier", "supplier.example.com", "channel-token", channelPlatform)
	require.NoError(t, err)
	require.NoError(t, NewGormChannelRepository(db).Save(ctx, channel))

	return shop, channel
}
