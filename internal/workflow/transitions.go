package workflow

import (
	"context"
	"fmt"

	"mfgtrack/internal/domain"
	"mfgtrack/internal/form"
	"mfgtrack/internal/route"
	"mfgtrack/internal/store"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// produce выполняет переход Создан → В работе. Партия выпуска ссылается на заказ
// и ждёт ОТК, заказ уходит в работу.
func (c *Coordinator) produce(ctx context.Context, span trace.Span, rec *store.Record, res *Result) error {
	c.flow.Lock()
	defer c.flow.Unlock()

	orderID := rec.Str("orderId")
	orderRec, ok, err := c.store.Find(ctx, domain.Orders, orderID)
	if err != nil {
		return err
	}
	if !ok || orderRec.Str("status") != domain.StatusCreated {
		return fmt.Errorf("%w: %q", ErrOrderNotSelectable, orderID)
	}
	var order domain.Order
	if err := domain.Decode(orderRec, &order); err != nil {
		return &store.PersistenceError{Collection: domain.Orders, Op: "decode", Err: err}
	}
	span.SetAttributes(attribute.String("order.id", orderID))

	setDefault(rec, "product", order.Product.String())
	setDefault(rec, "line", order.Line.String())
	if order.Quantity > 0 {
		setDefault(rec, "quantity", order.Quantity.Float())
	}
	setDefault(rec, "operator", order.Operator.String())
	setDefault(rec, "date", c.today())
	rec.Set("otkStatus", domain.StatusPendingOTK)

	batch, err := c.store.Add(ctx, domain.ProductionBatches, rec)
	if err != nil {
		return err
	}
	res.Record = batch
	res.effect(domain.ProductionBatches, route.OpAdd, batch.ID())

	if _, _, err := c.store.Update(ctx, domain.Orders, orderID, store.R("status", domain.StatusInProgress)); err != nil {
		return err
	}
	res.effect(domain.Orders, route.OpUpdate, orderID)
	c.metrics.Transition(domain.StatusInProgress)
	return nil
}

type inspection struct {
	BatchID  string `validate:"required"`
	Accepted int    `validate:"min=0"`
	Rejected int    `validate:"min=0"`
}

// inspect: переход В работе → Принято / Принято с браком. Любой брак даёт
// "Принято с браком" и партии, и заказу; принятое количество > 0 уходит на склад ГП.
// Сумма принятого и брака здесь не проверяется: это делает CheckInspection до отправки.
func (c *Coordinator) inspect(ctx context.Context, span trace.Span, f *form.Form, rec *store.Record, res *Result) error {
	in := inspection{
		BatchID:  f.Context["batchId"],
		Accepted: intValue(rec, "accepted"),
		Rejected: intValue(rec, "rejected"),
	}
	if err := c.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInspection, err)
	}

	c.flow.Lock()
	defer c.flow.Unlock()

	batchRec, ok, err := c.store.Find(ctx, domain.ProductionBatches, in.BatchID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrBatchNotFound, in.BatchID)
	}
	var batch domain.ProductionBatch
	if err := domain.Decode(batchRec, &batch); err != nil {
		return &store.PersistenceError{Collection: domain.ProductionBatches, Op: "decode", Err: err}
	}
	if batch.OtkStatus != domain.StatusPendingOTK {
		return fmt.Errorf("%w: %q is %q", ErrBatchNotPending, in.BatchID, batch.OtkStatus)
	}

	orderID := f.Context["orderId"]
	if orderID == "" {
		orderID = batch.OrderID.String()
	}
	status := domain.InspectionStatus(in.Rejected)
	span.SetAttributes(
		attribute.String("batch.id", in.BatchID),
		attribute.String("order.id", orderID),
		attribute.String("status", status),
	)

	rec.Set("batchId", in.BatchID)
	if orderID != "" {
		rec.Set("orderId", orderID)
	}
	rec.Set("status", status)
	setDefault(rec, "product", batch.Product.String())
	if batch.Quantity > 0 {
		setDefault(rec, "quantity", batch.Quantity.Float())
	}
	setDefault(rec, "checkedDate", c.today())

	check, err := c.store.Add(ctx, domain.OtkChecks, rec)
	if err != nil {
		return err
	}
	res.Record = check
	res.effect(domain.OtkChecks, route.OpAdd, check.ID())

	if _, _, err := c.store.Update(ctx, domain.ProductionBatches, in.BatchID, store.R("otkStatus", status)); err != nil {
		return err
	}
	res.effect(domain.ProductionBatches, route.OpUpdate, in.BatchID)

	if orderID != "" {
		_, ok, err := c.store.Update(ctx, domain.Orders, orderID, store.R("status", status))
		if err != nil {
			return err
		}
		if ok {
			res.effect(domain.Orders, route.OpUpdate, orderID)
			c.metrics.Transition(status)
		}
	}

	if in.Accepted > 0 {
		wb := store.R(
			"product", batch.Product.String(),
			"quantity", float64(in.Accepted),
			"status", domain.StatusInStock,
			"date", c.today(),
			"orderId", orderID,
			"batchId", in.BatchID,
		)
		added, err := c.store.Add(ctx, domain.WarehouseBatches, wb)
		if err != nil {
			return err
		}
		res.effect(domain.WarehouseBatches, route.OpAdd, added.ID())
		c.metrics.WarehouseBatch()
	}
	return nil
}

// SelectableOrders возвращает заказы для формы выпуска, то есть только "Создан".
func (c *Coordinator) SelectableOrders(ctx context.Context) ([]*store.Record, error) {
	recs, err := c.store.Get(ctx, domain.Orders)
	if err != nil {
		return nil, err
	}
	return filterRecords(recs, map[string]string{"status": domain.StatusCreated}), nil
}

// PendingBatches: партии, ожидающие проверки ОТК.
func (c *Coordinator) PendingBatches(ctx context.Context) ([]*store.Record, error) {
	recs, err := c.store.Get(ctx, domain.ProductionBatches)
	if err != nil {
		return nil, err
	}
	return filterRecords(recs, map[string]string{"otkStatus": domain.StatusPendingOTK}), nil
}

// InspectionCheck: состояние живой проверки формы ОТК.
type InspectionCheck struct {
	Produced int    `json:"produced"`
	Total    int    `json:"total"`
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
}

// CheckInspection: проверка, которую UI выполняет до отправки формы ОТК:
// принято + брак должно равняться выпущенному количеству партии.
func (c *Coordinator) CheckInspection(ctx context.Context, batchID string, accepted, rejected int) (InspectionCheck, error) {
	batchRec, ok, err := c.store.Find(ctx, domain.ProductionBatches, batchID)
	if err != nil {
		return InspectionCheck{}, err
	}
	if !ok {
		return InspectionCheck{}, fmt.Errorf("%w: %q", ErrBatchNotFound, batchID)
	}
	var batch domain.ProductionBatch
	if err := domain.Decode(batchRec, &batch); err != nil {
		return InspectionCheck{}, &store.PersistenceError{Collection: domain.ProductionBatches, Op: "decode", Err: err}
	}

	chk := InspectionCheck{Produced: batch.Quantity.Int(), Total: accepted + rejected}
	switch {
	case accepted < 0 || rejected < 0:
		chk.Message = "Количество не может быть отрицательным"
	case chk.Total != chk.Produced:
		chk.Message = fmt.Sprintf("Сумма принятого и брака (%d шт) должна совпадать с выпущенным количеством (%d шт)", chk.Total, chk.Produced)
	default:
		chk.OK = true
	}
	return chk, nil
}

// InspectionForm открывает форму ОТК для партии: контекст batchId/orderId
// и товар с количеством из партии.
func (c *Coordinator) InspectionForm(ctx context.Context, batchID string) (*form.Form, error) {
	batchRec, ok, err := c.store.Find(ctx, domain.ProductionBatches, batchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBatchNotFound, batchID)
	}
	f, err := c.NewForm(ctx, "otk", "modal-check-otk")
	if err != nil {
		return nil, err
	}
	f.Context = map[string]string{"batchId": batchID, "orderId": batchRec.Str("orderId")}
	for id, v := range map[string]string{
		"otk-product": batchRec.Str("product"),
		"otk-qty":     batchRec.Str("quantity"),
	} {
		// форма без поля открывается пустой, но это ошибка схемы
		if err := f.Set(id, v); err != nil {
			c.log.WithFields(logrus.Fields{
				"module": moduleName,
				"func":   "InspectionForm",
				"batch":  batchID,
				"field":  id,
			}).WithError(err).Warn("prefill skipped")
		}
	}
	return f, nil
}

func setDefault(rec *store.Record, key string, v any) {
	if rec.Has(key) {
		return
	}
	if s, ok := v.(string); ok && s == "" {
		return
	}
	rec.Set(key, v)
}

// intValue: целая часть числа из записи, как parseInt(x) || 0.
func intValue(rec *store.Record, key string) int {
	f, ok := rec.Float(key)
	if !ok {
		return 0
	}
	return int(f)
}
