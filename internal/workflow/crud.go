package workflow

import (
	"context"
	"fmt"

	"mfgtrack/internal/form"
	"mfgtrack/internal/route"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Edit открывает модалку редактирования, предзаполненную записью id.
// Коллекция берётся из таблицы модалок редактирования, иначе из маршрута формы.
func (c *Coordinator) Edit(ctx context.Context, page, modalID, id string) (*form.Form, error) {
	collection, ok := route.EditTarget(page, modalID)
	if !ok {
		rt, routed := route.Lookup(page, modalID)
		if !routed {
			return nil, fmt.Errorf("%w: %s/%s", ErrNoTarget, page, modalID)
		}
		collection = rt.Collection
	}

	rec, found, err := c.store.Find(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, collection, id)
	}
	f, err := c.NewForm(ctx, page, modalID)
	if err != nil {
		return nil, err
	}
	form.Fill(f, rec)
	return f, nil
}

// Delete обрабатывает подтверждение удаления в модалке. Неизвестный id ничего не меняет.
func (c *Coordinator) Delete(ctx context.Context, page, modalID, id string) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "workflow.Delete", trace.WithAttributes(
		attribute.String("page", page),
		attribute.String("form", modalID),
	))
	defer span.End()

	collection, ok := route.DeleteTarget(page, modalID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s/%s", ErrNoTarget, page, modalID)
	}
	if id == "" {
		return Result{}, ErrNoItem
	}
	res := Result{Routed: true, Collection: collection, Op: route.OpDelete}
	if err := c.store.Delete(ctx, collection, id); err != nil {
		return res, c.fail(span, "Delete", page+"/"+modalID, id, err)
	}
	res.effect(collection, route.OpDelete, id)
	c.metrics.Submitted(page, modalID, "ok")
	c.Reload(page)
	return res, nil
}
