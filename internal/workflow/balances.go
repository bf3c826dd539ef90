package workflow

import (
	"context"

	"mfgtrack/internal/domain"

	"github.com/shopspring/decimal"
)

const noValue = "—"

type BalanceBatch struct {
	Batch    string          `json:"batch"`
	Quantity decimal.Decimal `json:"quantity"`
	Date     string          `json:"date,omitempty"`
	Supplier string          `json:"supplier"`
}

// Balance: остаток сырья, посчитанный по журналу прихода.
type Balance struct {
	Material string          `json:"material"`
	Unit     string          `json:"unit,omitempty"`
	Total    decimal.Decimal `json:"total"`
	Batches  []BalanceBatch  `json:"batches"`
}

// Balances группирует приходы по сырью в порядке первого появления.
// Остатки не хранятся: каждый вызов пересчитывает их из incoming.
func (c *Coordinator) Balances(ctx context.Context) ([]Balance, error) {
	recs, err := c.store.Get(ctx, domain.Incoming)
	if err != nil {
		return nil, err
	}

	var out []Balance
	index := make(map[string]int)
	for _, r := range recs {
		var in domain.IncomingEntry
		if err := domain.Decode(r, &in); err != nil {
			continue
		}
		material := in.Material.String()
		if material == "" {
			continue
		}
		i, ok := index[material]
		if !ok {
			i = len(out)
			index[material] = i
			out = append(out, Balance{Material: material, Unit: in.Unit.String(), Total: decimal.Zero, Batches: []BalanceBatch{}})
		}
		qty := decimal.NewFromFloat(in.Quantity.Float())
		b := &out[i]
		b.Total = b.Total.Add(qty)
		b.Batches = append(b.Batches, BalanceBatch{
			Batch:    orDash(in.Batch),
			Quantity: qty,
			Date:     in.Date.String(),
			Supplier: orDash(in.Supplier),
		})
	}
	if out == nil {
		out = []Balance{}
	}
	return out, nil
}

func orDash(s domain.Text) string {
	if s == "" {
		return noValue
	}
	return s.String()
}
