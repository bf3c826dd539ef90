package workflow

import (
	"context"
	"fmt"
	"math"
	"strings"

	"mfgtrack/internal/domain"
	"mfgtrack/internal/store"

	"github.com/shopspring/decimal"
)

const (
	SourceRaw       = "Склад сырья"
	SourceChemistry = "Склад хим. элементов"
)

// WriteOffLine: строка таблицы списания формы выпуска.
type WriteOffLine struct {
	Component string          `json:"component"`
	Required  decimal.Decimal `json:"required"`
	Unit      string          `json:"unit"`
	Source    string          `json:"source"`
}

// WriteOff: что уйдёт со складов при выпуске заказа. Ready=false значит,
// что кнопку выпуска UI держит выключенной, причина в Reason.
type WriteOff struct {
	OrderID  string          `json:"orderId"`
	Recipe   string          `json:"recipe,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
	Lines    []WriteOffLine  `json:"lines"`
	Ready    bool            `json:"ready"`
	Reason   string          `json:"reason,omitempty"`
}

// WriteOff считает списание компонентов рецепта на qty единиц заказа.
// Ничего не пишет: это предпросмотр для формы выпуска. Рецепт ищется по
// recipe заказа, затем по name и product; qty <= 0 считается за 1.
func (c *Coordinator) WriteOff(ctx context.Context, orderID string, qty float64) (WriteOff, error) {
	orderRec, ok, err := c.store.Find(ctx, domain.Orders, orderID)
	if err != nil {
		return WriteOff{}, err
	}
	if !ok {
		return WriteOff{}, fmt.Errorf("%w: order %q", ErrNotFound, orderID)
	}
	var order domain.Order
	if err := domain.Decode(orderRec, &order); err != nil {
		return WriteOff{}, &store.PersistenceError{Collection: domain.Orders, Op: "decode", Err: err}
	}
	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		qty = 1
	}

	out := WriteOff{OrderID: orderID, Quantity: decimal.NewFromFloat(qty), Lines: []WriteOffLine{}}
	for _, name := range []domain.Text{order.Recipe, order.Name, order.Product} {
		if name != "" {
			out.Recipe = name.String()
			break
		}
	}
	if out.Recipe == "" {
		out.Reason = "У заказа не указан рецепт"
		return out, nil
	}

	recipe, found, err := c.findRecipe(ctx, out.Recipe)
	if err != nil {
		return WriteOff{}, err
	}
	if !found {
		out.Reason = fmt.Sprintf("Рецепт %q не найден", out.Recipe)
		return out, nil
	}
	lines := recipe.Lines()
	if len(lines) == 0 {
		out.Reason = fmt.Sprintf("В рецепте %q нет состава", out.Recipe)
		return out, nil
	}

	for _, l := range lines {
		unit := l.Unit.String()
		if unit == "" {
			unit = domain.DefaultCompositionUnit
		}
		source := SourceRaw
		if strings.Contains(l.Type.String(), "chem") {
			source = SourceChemistry
		}
		out.Lines = append(out.Lines, WriteOffLine{
			Component: l.Name.String(),
			Required:  decimal.NewFromFloat(l.Quantity.Float()).Mul(out.Quantity),
			Unit:      unit,
			Source:    source,
		})
	}
	out.Ready = true
	return out, nil
}

func (c *Coordinator) findRecipe(ctx context.Context, title string) (domain.Recipe, bool, error) {
	recs, err := c.store.Get(ctx, domain.Recipes)
	if err != nil {
		return domain.Recipe{}, false, err
	}
	for _, r := range recs {
		var recipe domain.Recipe
		if err := domain.Decode(r, &recipe); err != nil {
			continue
		}
		if recipe.Title() == title {
			return recipe, true, nil
		}
	}
	return domain.Recipe{}, false, nil
}
