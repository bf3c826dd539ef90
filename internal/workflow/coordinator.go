// Package workflow сохраняет отправленные формы по таблице маршрутов
// и ведёт заказ по статусам Создан → В работе → Принято / Принято с браком,
// раскладывая побочные эффекты по коллекциям заказов, партий, проверок ОТК и склада.
package workflow

import (
	"context"
	"sync"

	"mfgtrack/internal/dsl"
	"mfgtrack/internal/form"
	"mfgtrack/internal/logger"
	"mfgtrack/internal/metrics"
	"mfgtrack/internal/reference"
	"mfgtrack/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const moduleName = "workflow"

type Coordinator struct {
	store *store.Store

	catMu sync.RWMutex
	forms *dsl.Catalog
	enums map[string]reference.EnumDirectory

	log      *logrus.Logger
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	validate *validator.Validate

	// flow: переходы статусов. Проверка статуса и запись в коллекции идут под ним
	// целиком, иначе параллельные отправки выпускают одну партию дважды.
	flow sync.Mutex

	mu     sync.RWMutex
	reload []func(page string)
}

type Option func(*Coordinator)

func WithLogger(l *logrus.Logger) Option { return func(c *Coordinator) { c.log = l } }

func WithTracer(t trace.Tracer) Option { return func(c *Coordinator) { c.tracer = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

// WithReload регистрирует хук перерисовки страницы; вызывается после каждой мутации.
func WithReload(fn func(page string)) Option {
	return func(c *Coordinator) { c.reload = append(c.reload, fn) }
}

func New(st *store.Store, forms *dsl.Catalog, enums map[string]reference.EnumDirectory, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    st,
		forms:    forms,
		enums:    enums,
		log:      logger.Discard(),
		tracer:   otel.Tracer("mfgtrack/workflow"),
		validate: validator.New(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Coordinator) Store() *store.Store { return c.store }

func (c *Coordinator) Forms() *dsl.Catalog {
	c.catMu.RLock()
	defer c.catMu.RUnlock()
	return c.forms
}

func (c *Coordinator) Enums() map[string]reference.EnumDirectory {
	c.catMu.RLock()
	defer c.catMu.RUnlock()
	return c.enums
}

// SetCatalog подменяет схемы форм и справочники; уже открытые формы не трогаются.
func (c *Coordinator) SetCatalog(forms *dsl.Catalog, enums map[string]reference.EnumDirectory) {
	c.catMu.Lock()
	c.forms = forms
	c.enums = enums
	c.catMu.Unlock()
}

// OnReload добавляет хук перерисовки уже после создания координатора.
func (c *Coordinator) OnReload(fn func(page string)) {
	c.mu.Lock()
	c.reload = append(c.reload, fn)
	c.mu.Unlock()
}

// Reload вызывается и на внешние изменения хранилища (другая вкладка).
func (c *Coordinator) Reload(page string) {
	c.mu.RLock()
	hooks := append([]func(string){}, c.reload...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(page)
	}
}

func (c *Coordinator) today() string {
	return c.store.Now().UTC().Format("2006-01-02")
}

func (c *Coordinator) fail(span trace.Span, funcName, step string, data any, err error) error {
	logger.LogError(c.log, moduleName, funcName, step, data, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// NewForm: пустая форма модалки; опции select из коллекций подставлены.
func (c *Coordinator) NewForm(ctx context.Context, page, modalID string) (*form.Form, error) {
	schema, ok := c.Forms().Form(page, modalID)
	if !ok {
		return nil, ErrUnknownForm
	}
	f := form.New(schema, modalID, c.Enums())
	if err := c.fillSources(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (c *Coordinator) fillSources(ctx context.Context, f *form.Form) error {
	for _, row := range f.Rows {
		fl := row.Field
		if fl.Source == "" || fl.Type != dsl.TypeSelect {
			continue
		}
		recs, err := c.store.Get(ctx, fl.Source)
		if err != nil {
			return err
		}
		opts := []form.Option{}
		for _, r := range filterRecords(recs, fl.SourceFilter) {
			v := r.Str(fl.SourceValueKey())
			if v == "" {
				continue
			}
			label := r.Str(fl.SourceLabelKey())
			if label == "" {
				label = v
			}
			opts = append(opts, form.Option{Value: v, Label: label})
		}
		if err := f.SetOptions(fl.ID, opts); err != nil {
			return err
		}
	}
	return nil
}

func filterRecords(recs []*store.Record, filter map[string]string) []*store.Record {
	if len(filter) == 0 {
		return recs
	}
	out := make([]*store.Record, 0, len(recs))
	for _, r := range recs {
		match := true
		for k, v := range filter {
			if r.Str(k) != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, r)
		}
	}
	return out
}
