package workflow

import (
	"context"
	"testing"

	"mfgtrack/internal/domain"
	"mfgtrack/internal/kv"
	"mfgtrack/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addRecord(t *testing.T, c *Coordinator, collection string, rec *store.Record) string {
	t.Helper()
	added, err := c.Store().Add(context.Background(), collection, rec)
	require.NoError(t, err)
	return added.ID()
}

func TestWriteOff(t *testing.T) {
	ctx := context.Background()
	c := newCoordinator(t, kv.NewMemory())
	addRecord(t, c, domain.Recipes, store.R("recipe", "Батон", "product", "Батон нарезной", "composition", []any{
		map[string]any{"type": "raw", "name": "Мука пшеничная", "quantity": "0.5", "unit": "кг"},
		map[string]any{"type": "chem", "name": "Соль", "quantity": 0.01},
		"chem:Аскорбиновая кислота",
	}))
	orderID := addRecord(t, c, domain.Orders, store.R("status", domain.StatusCreated, "recipe", "Батон", "quantity", 100))

	got, err := c.WriteOff(ctx, orderID, 3)
	require.NoError(t, err)
	assert.True(t, got.Ready)
	assert.Empty(t, got.Reason)
	assert.Equal(t, "Батон", got.Recipe)
	require.Len(t, got.Lines, 3)

	assert.Equal(t, "Мука пшеничная", got.Lines[0].Component)
	assert.True(t, got.Lines[0].Required.Equal(decimal.RequireFromString("1.5")), got.Lines[0].Required.String())
	assert.Equal(t, "кг", got.Lines[0].Unit)
	assert.Equal(t, SourceRaw, got.Lines[0].Source)

	assert.True(t, got.Lines[1].Required.Equal(decimal.RequireFromString("0.03")), got.Lines[1].Required.String())
	assert.Equal(t, domain.DefaultCompositionUnit, got.Lines[1].Unit)
	assert.Equal(t, SourceChemistry, got.Lines[1].Source)

	assert.Equal(t, "Аскорбиновая кислота", got.Lines[2].Component)
	assert.True(t, got.Lines[2].Required.IsZero())
	assert.Equal(t, SourceChemistry, got.Lines[2].Source)

	// предпросмотр ничего не меняет
	assert.Equal(t, domain.StatusCreated, find(t, c, domain.Orders, orderID).Str("status"))
	assert.Empty(t, all(t, c, domain.ProductionBatches))
}

func TestWriteOffDefaultsQuantityToOne(t *testing.T) {
	c := newCoordinator(t, kv.NewMemory())
	addRecord(t, c, domain.Recipes, store.R("name", "Багет", "components", []any{
		map[string]any{"component": "Мука", "quantity": 0.25},
	}))
	orderID := addRecord(t, c, domain.Orders, store.R("status", domain.StatusCreated, "product", "Багет"))

	for _, qty := range []float64{0, -2} {
		got, err := c.WriteOff(context.Background(), orderID, qty)
		require.NoError(t, err)
		require.True(t, got.Ready, got.Reason)
		assert.True(t, got.Quantity.Equal(decimal.NewFromInt(1)))
		require.Len(t, got.Lines, 1)
		assert.Equal(t, "Мука", got.Lines[0].Component)
		assert.True(t, got.Lines[0].Required.Equal(decimal.RequireFromString("0.25")))
	}
}

func TestWriteOffNotReady(t *testing.T) {
	ctx := context.Background()
	c := newCoordinator(t, kv.NewMemory())
	addRecord(t, c, domain.Recipes, store.R("recipe", "Пустой", "composition", []any{}))

	tests := []struct {
		name   string
		order  *store.Record
		recipe string
	}{
		{"no recipe name", store.R("status", domain.StatusCreated), ""},
		{"unknown recipe", store.R("status", domain.StatusCreated, "recipe", "Ржаной"), "Ржаной"},
		{"empty composition", store.R("status", domain.StatusCreated, "recipe", "Пустой"), "Пустой"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.WriteOff(ctx, addRecord(t, c, domain.Orders, tt.order), 5)
			require.NoError(t, err)
			assert.False(t, got.Ready)
			assert.NotEmpty(t, got.Reason)
			assert.Equal(t, tt.recipe, got.Recipe)
			assert.NotNil(t, got.Lines)
			assert.Empty(t, got.Lines)
		})
	}
}

func TestWriteOffUnknownOrder(t *testing.T) {
	c := newCoordinator(t, kv.NewMemory())
	_, err := c.WriteOff(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
