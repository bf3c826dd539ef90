package workflow

import (
	"context"
	"errors"
	"fmt"

	"mfgtrack/internal/domain"
	"mfgtrack/internal/form"
	"mfgtrack/internal/route"
	"mfgtrack/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Effect: одна запись, изменённая при обработке формы.
type Effect struct {
	Collection string   `json:"collection"`
	Op         route.Op `json:"op"`
	ID         string   `json:"id"`
}

type Result struct {
	// Routed=false: для формы нет маршрута, ничего не сохранено.
	Routed     bool          `json:"routed"`
	Collection string        `json:"collection,omitempty"`
	Op         route.Op      `json:"op,omitempty"`
	Record     *store.Record `json:"record,omitempty"`
	// NotFound: обновление записи, которой уже нет.
	NotFound bool     `json:"notFound,omitempty"`
	Effects  []Effect `json:"effects,omitempty"`
}

func (r *Result) effect(collection string, op route.Op, id string) {
	r.Effects = append(r.Effects, Effect{Collection: collection, Op: op, ID: id})
}

// Submit обрабатывает отправку формы на странице page:
// сериализация → маршрут → запись → побочные эффекты → хук перерисовки.
// Ошибка проверки полей (*form.MissingFieldsError) означает, что хранилище не тронуто.
// При сбое записи на середине многошаговой операции уже сделанные шаги не откатываются;
// они перечислены в Result.Effects.
func (c *Coordinator) Submit(ctx context.Context, page string, f *form.Form) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "workflow.Submit", trace.WithAttributes(
		attribute.String("page", page),
		attribute.String("form", f.ID),
	))
	defer span.End()

	rt, routed := route.Lookup(page, f.ID)

	var (
		rec *store.Record
		err error
	)
	if routed && rt.Special == route.SpecialChemistryTask {
		rec, err = form.SerializeTask(f)
	} else {
		rec, err = form.Serialize(f)
	}
	if err != nil {
		c.metrics.Submitted(page, f.ID, "invalid")
		c.log.WithField("page", page).WithField("form", f.ID).Info(err.Error())
		return Result{}, err
	}

	if !routed {
		// форма закрывается без сохранения; так ведут себя страницы без CRUD
		c.metrics.Submitted(page, f.ID, "unrouted")
		c.log.WithField("page", page).WithField("form", f.ID).Warn("form has no route, nothing persisted")
		return Result{Routed: false}, nil
	}

	res := Result{Routed: true, Collection: rt.Collection, Op: rt.Op}
	span.SetAttributes(attribute.String("collection", rt.Collection), attribute.String("op", string(rt.Op)))

	switch {
	case rt.Op == route.OpAdd && f.ItemID == "":
		err = c.add(ctx, span, page, f, rec, &res)
	case rt.Op == route.OpDelete:
		if f.ItemID == "" {
			err = ErrNoItem
			break
		}
		res.Op = route.OpDelete
		if err = c.store.Delete(ctx, rt.Collection, f.ItemID); err == nil {
			res.effect(rt.Collection, route.OpDelete, f.ItemID)
		}
	default:
		// add с выбранной записью: тоже обновление
		if f.ItemID == "" {
			err = ErrNoItem
			break
		}
		res.Op = route.OpUpdate
		err = c.update(ctx, rt.Collection, f.ItemID, rec, &res)
	}

	if err != nil {
		c.metrics.Submitted(page, f.ID, "error")
		var pe *store.PersistenceError
		if errors.As(err, &pe) {
			return res, c.fail(span, "Submit", fmt.Sprintf("%s/%s", page, f.ID), res.Effects, err)
		}
		return res, err
	}

	c.metrics.Submitted(page, f.ID, "ok")
	c.Reload(page)
	return res, nil
}

func (c *Coordinator) update(ctx context.Context, collection, id string, rec *store.Record, res *Result) error {
	upd, ok, err := c.store.Update(ctx, collection, id, rec)
	if err != nil {
		return err
	}
	if !ok {
		res.NotFound = true
		return nil
	}
	res.Record = upd
	res.effect(collection, route.OpUpdate, id)
	return nil
}

func (c *Coordinator) add(ctx context.Context, span trace.Span, page string, f *form.Form, rec *store.Record, res *Result) error {
	switch {
	case page == "production" && f.ID == "modal-produce":
		return c.produce(ctx, span, rec, res)
	case page == "otk" && f.ID == "modal-check-otk":
		return c.inspect(ctx, span, f, rec, res)
	case page == "orders" && f.ID == "modal-create-order":
		rec.Set("status", domain.StatusCreated)
		n, err := c.store.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		rec.Set("number", n)
	case page == "shipment" && (f.ID == "modal-ship" || f.ID == "modal-create-shipment"):
		n, err := c.store.NextShipmentNumber(ctx)
		if err != nil {
			return err
		}
		rec.Set("number", n)
	}

	added, err := c.store.Add(ctx, res.Collection, rec)
	if err != nil {
		return err
	}
	res.Record = added
	res.effect(res.Collection, route.OpAdd, added.ID())
	if res.Collection == domain.Orders {
		c.metrics.Transition(domain.StatusCreated)
	}
	return nil
}
