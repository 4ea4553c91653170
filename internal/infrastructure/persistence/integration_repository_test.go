package persistence

import (
	"context"
	"testing"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPlatformRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPlatformRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	shop, channel := seedShopAndChannel(t, db, ownerID)

	t.Run("round-trips the operation table", func(t *testing.T) {
		p, err := repo.FindByID(ctx, ownerID, channel.PlatformID)
		require.NoError(t, err)
		assert.Equal(t, integration.PlatformKindChannel, p.Kind)
		assert.Equal(t, "https://adapter.example.com/purchase", p.Operations[integration.OpCreatePurchase])
	})

	t.Run("filters by kind", func(t *testing.T) {
		shops, err := repo.FindAll(ctx, ownerID, integration.PlatformKindShop)
		require.NoError(t, err)
		require.Len(t, shops, 1)
		assert.Equal(t, shop.PlatformID, shops[0].ID)

		all, err := repo.FindAll(ctx, ownerID, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("is scoped to the owner", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), channel.PlatformID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("delete of a missing platform returns not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, ownerID, uuid.New()), shared.ErrNotFound)
	})
}

func TestGormShopRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormShopRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	shop, _ := seedShopAndChannel(t, db, ownerID)

	t.Run("loads the shop with its platform", func(t *testing.T) {
		found, err := repo.FindByID(ctx, ownerID, shop.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main Store", found.Name)
		assert.Equal(t, integration.LinkModeSequential, found.LinkMode)
		require.NotNil(t, found.Platform)
		assert.Equal(t, "Shopify", found.Platform.Name)
		assert.Equal(t, "shopify", found.PlatformConfig().Operations[integration.OpSearchProducts])
	})

	t.Run("unscoped lookup ignores the owner", func(t *testing.T) {
		found, err := repo.FindByIDUnscoped(ctx, shop.ID)
		require.NoError(t, err)
		assert.Equal(t, ownerID, found.OwnerID)
	})

	t.Run("save updates link mode and metadata", func(t *testing.T) {
		found, err := repo.FindByID(ctx, ownerID, shop.ID)
		require.NoError(t, err)
		require.NoError(t, found.SetLinkMode(integration.LinkModeSimultaneous))
		found.Metadata["location"] = "gid://shopify/Location/1"
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, ownerID, shop.ID)
		require.NoError(t, err)
		assert.Equal(t, integration.LinkModeSimultaneous, reloaded.LinkMode)
		assert.Equal(t, "gid://shopify/Location/1", reloaded.Metadata["location"])
	})

	t.Run("searches name and domain case-insensitively", func(t *testing.T) {
		tests := []struct {
			search string
			want   int64
		}{
			{search: "", want: 1},
			{search: "MAIN", want: 1},
			{search: "myshopify", want: 1},
			{search: "nothing", want: 0},
		}
		for _, tt := range tests {
			t.Run(tt.search, func(t *testing.T) {
				shops, total, err := repo.FindAll(ctx, ownerID, shared.Filter{Page: 1, PageSize: 10, Search: tt.search})
				require.NoError(t, err)
				assert.Equal(t, tt.want, total)
				assert.Len(t, shops, int(tt.want))
			})
		}
	})
}

func TestGormChannelRepository_FindByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChannelRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	_, channel := seedShopAndChannel(t, db, ownerID)

	t.Run("returns the requested channels", func(t *testing.T) {
		channels, err := repo.FindByIDs(ctx, ownerID, []uuid.UUID{channel.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, channels, 1)
		assert.Equal(t, channel.ID, channels[0].ID)
		require.NotNil(t, channels[0].Platform)
	})

	t.Run("empty ids return an empty slice", func(t *testing.T) {
		channels, err := repo.FindByIDs(ctx, ownerID, nil)
		require.NoError(t, err)
		assert.Empty(t, channels)
	})

	t.Run("other owners see nothing", func(t *testing.T) {
		channels, err := repo.FindByIDs(ctx, uuid.New(), []uuid.UUID{channel.ID})
		require.NoError(t, err)
		assert.Empty(t, channels)
	})
}
