package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"mfgtrack/internal/domain"
	"mfgtrack/internal/dsl"
	"mfgtrack/internal/kv"
	"mfgtrack/internal/metrics"
	"mfgtrack/internal/reference"
	"mfgtrack/internal/store"
	"mfgtrack/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	srv    *Server
	router *gin.Engine
	st     *store.Store
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	forms, err := dsl.Default()
	require.NoError(t, err)
	enums, err := reference.Default()
	require.NoError(t, err)
	st := store.New(kv.NewMemory(), store.WithClock(func() time.Time {
		return time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	}))
	m := metrics.New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	coord := workflow.New(st, forms, enums, workflow.WithMetrics(m))
	srv := NewServer(coord, WithMetrics(m))
	return &testEnv{
		srv:    srv,
		router: NewRouter(srv, RouterConfig{CORSOrigins: []string{"*"}, Gatherer: reg}),
		st:     st,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCollectionCRUD(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/collections/clients", map[string]any{"name": "ООО Ромашка", "inn": "7701"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	w = e.do(t, http.MethodGet, "/api/collections/clients/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ООО Ромашка", decode[map[string]any](t, w)["name"])

	w = e.do(t, http.MethodPatch, "/api/collections/clients/"+id, map[string]any{"phone": "123", "id": "hijack"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, id, got["id"])
	assert.Equal(t, "123", got["phone"])
	assert.Equal(t, "7701", got["inn"])

	w = e.do(t, http.MethodPatch, "/api/collections/clients/missing", map[string]any{"phone": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodDelete, "/api/collections/clients/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodDelete, "/api/collections/clients/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodGet, "/api/collections/clients/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectionUnknown(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/collections/widgets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// имя коллекции без учёта регистра
	w = e.do(t, http.MethodGet, "/api/collections/OTKCHECKS", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListFilterSortPaginate(t *testing.T) {
	e := newEnv(t)
	recs := []*store.Record{
		store.R("material", "Сахар", "quantity", 50.0),
		store.R("material", "Мука", "quantity", 100.0),
		store.R("material", "Сахар", "quantity", 5.0),
		store.R("material", "Соль"),
	}
	require.NoError(t, e.st.Set(t.Context(), domain.Incoming, recs))

	w := e.do(t, http.MethodGet, "/api/collections/incoming?material="+url.QueryEscape("Сахар")+"&_sort=-quantity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, 50.0, list[0]["quantity"])
	assert.Equal(t, 5.0, list[1]["quantity"])

	// числа сравниваются как числа, null в конце
	w = e.do(t, http.MethodGet, "/api/collections/incoming?_sort=quantity", nil)
	list = decode[[]map[string]any](t, w)
	require.Len(t, list, 4)
	assert.Equal(t, 5.0, list[0]["quantity"])
	assert.Equal(t, 100.0, list[2]["quantity"])
	assert.Equal(t, "Соль", list[3]["material"])

	w = e.do(t, http.MethodGet, "/api/collections/incoming?_sort=quantity&nulls=first&_limit=1", nil)
	list = decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Соль", list[0]["material"])
	assert.Equal(t, "4", w.Header().Get("X-Total-Count"))

	w = e.do(t, http.MethodGet, "/api/collections/incoming?q="+url.QueryEscape("мук"), nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = e.do(t, http.MethodGet, "/api/collections/incoming/_count?material="+url.QueryEscape("Сахар"), nil)
	assert.JSONEq(t, `{"total":2}`, w.Body.String())
}

func TestReplaceCollection(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPut, "/api/collections/lines", []map[string]any{{"id": "1", "name": "Линия 1"}})
	require.Equal(t, http.StatusNoContent, w.Code)

	recs, err := e.st.Get(t.Context(), domain.Lines)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].ID())

	w = e.do(t, http.MethodPut, "/api/collections/lines", map[string]any{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.st.Set(t.Context(), domain.RawMaterials, []*store.Record{
		store.R("id", "a", "name", "Сахар", "unit", "кг"),
		store.R("id", "b", "name", "Масло", "unit", "л", "comment", "Рафинированное"),
	}))

	w := e.do(t, http.MethodGet, "/api/collections/rawMaterials/_export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rawMaterials.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "name", "unit", "comment"}, rows[0])
	assert.Equal(t, []string{"b", "Масло", "л", "Рафинированное"}, rows[2])
}

func TestFormSubmitCreatesOrder(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/pages/orders/forms/modal-create-order", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[map[string]any](t, w)
	assert.Equal(t, "modal-create-order", view["id"])

	w = e.do(t, http.MethodPost, "/api/pages/orders/forms/modal-create-order/submit", map[string]any{
		"values": map[string]any{"order-product": "Батон", "order-qty": "50"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[workflow.Result](t, w)
	assert.True(t, res.Routed)
	assert.Equal(t, domain.Orders, res.Collection)
	assert.Equal(t, "SO-2025-001", res.Record.Str("number"))
	assert.Equal(t, domain.StatusCreated, res.Record.Str("status"))
}

func TestFormSubmitMissingFields(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/pages/materials/forms/modal-incoming/submit", map[string]any{
		"values": map[string]any{"incoming-qty": "10"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Errors []FieldError `json:"errors"`
	}](t, w)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, ErrRequired, body.Errors[0].Code)
	assert.Equal(t, "Дата прихода", body.Errors[0].Field)
	assert.Equal(t, "Сырьё", body.Errors[1].Field)

	recs, err := e.st.Get(t.Context(), domain.Incoming)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFormErrors(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/pages/orders/forms/modal-nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/pages/clients/forms/modal-add-client/submit", map[string]any{
		"values": map[string]any{"no-such-field": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/pages/clients/forms/modal-edit-client/submit", map[string]any{
		"values": map[string]any{"client-name": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ErrNoItem)

	w = e.do(t, http.MethodPost, "/api/pages/users/forms/modal-access-1/submit", map[string]any{
		"values": map[string]any{"access-permissions": []string{"otk"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[workflow.Result](t, w).Routed)
}

func TestEditAndDeleteThroughForms(t *testing.T) {
	e := newEnv(t)
	added, err := e.st.Add(t.Context(), domain.Lines, store.R("name", "Линия 1", "status", "Работает"))
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/pages/lines/forms/modal-edit-line?id="+added.ID(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[formView](t, w)
	assert.Equal(t, added.ID(), view.ItemID)
	assert.Equal(t, "Линия 1", view.Values["line-name"])
	assert.Equal(t, "Работает", view.Values["line-status"])

	w = e.do(t, http.MethodPost, "/api/pages/lines/forms/modal-edit-line/submit", map[string]any{
		"itemId": added.ID(),
		"values": map[string]any{"line-name": "Линия 1", "line-status": "Остановлена"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec, _, err := e.st.Find(t.Context(), domain.Lines, added.ID())
	require.NoError(t, err)
	assert.Equal(t, "Остановлена", rec.Str("status"))

	w = e.do(t, http.MethodPost, "/api/pages/lines/forms/modal-delete-line/delete", map[string]any{"id": added.ID()})
	require.Equal(t, http.StatusOK, w.Code)
	recs, err := e.st.Get(t.Context(), domain.Lines)
	require.NoError(t, err)
	assert.Empty(t, recs)

	w = e.do(t, http.MethodPost, "/api/pages/lines/forms/modal-delete-line/delete", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodPost, "/api/pages/orders/forms/modal-delete-order/delete", map[string]any{"id": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductionAndInspectionFlow(t *testing.T) {
	e := newEnv(t)
	order, err := e.st.Add(t.Context(), domain.Orders, store.R("status", domain.StatusCreated, "product", "Хлеб", "quantity", 20.0))
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/production/orders", nil)
	require.Len(t, decode[[]map[string]any](t, w), 1)

	w = e.do(t, http.MethodPost, "/api/pages/production/forms/modal-produce/submit", map[string]any{
		"values": map[string]any{"order-select": order.ID()},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	batchID := decode[workflow.Result](t, w).Record.ID()

	w = e.do(t, http.MethodGet, "/api/production/orders", nil)
	assert.Empty(t, decode[[]map[string]any](t, w))

	// повторный выпуск того же заказа: конфликт
	w = e.do(t, http.MethodPost, "/api/pages/production/forms/modal-produce/submit", map[string]any{
		"values": map[string]any{"order-select": order.ID()},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/api/otk/pending", nil)
	pending := decode[[]map[string]any](t, w)
	require.Len(t, pending, 1)
	assert.Equal(t, batchID, pending[0]["id"])

	w = e.do(t, http.MethodPost, "/api/otk/validate", map[string]any{"batchId": batchID, "accepted": 15, "rejected": 4})
	require.Equal(t, http.StatusOK, w.Code)
	chk := decode[workflow.InspectionCheck](t, w)
	assert.False(t, chk.OK)
	assert.Equal(t, 20, chk.Produced)

	w = e.do(t, http.MethodGet, "/api/otk/batches/"+batchID+"/form", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[formView](t, w)
	assert.Equal(t, batchID, view.Context["batchId"])
	assert.Equal(t, order.ID(), view.Context["orderId"])

	w = e.do(t, http.MethodPost, "/api/pages/otk/forms/modal-check-otk/submit", map[string]any{
		"context": view.Context,
		"values":  map[string]any{"otk-accepted": "15", "otk-rejected": "5"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got, _, err := e.st.Find(t.Context(), domain.Orders, order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcceptedDefects, got.Str("status"))
	wh, err := e.st.Get(t.Context(), domain.WarehouseBatches)
	require.NoError(t, err)
	require.Len(t, wh, 1)
	assert.Equal(t, "15", wh[0].Str("quantity"))

	w = e.do(t, http.MethodPost, "/api/pages/otk/forms/modal-check-otk/submit", map[string]any{
		"context": view.Context,
		"values":  map[string]any{"otk-accepted": "15", "otk-rejected": "5"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/otk/validate", map[string]any{"accepted": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodPost, "/api/otk/validate", map[string]any{"batchId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBalancesAndSequences(t *testing.T) {
	e := newEnv(t)
	_, err := e.st.Add(t.Context(), domain.Incoming, store.R("material", "Сахар", "quantity", 50.0, "unit", "кг"))
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/materials/balances", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"material":"Сахар","unit":"кг","total":"50","batches":[{"batch":"—","quantity":"50","supplier":"—"}]}]`, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/sequences/orders", nil)
	assert.JSONEq(t, `{"number":"SO-2025-001"}`, w.Body.String())
	w = e.do(t, http.MethodPost, "/api/sequences/orders", nil)
	assert.JSONEq(t, `{"number":"SO-2025-002"}`, w.Body.String())
	w = e.do(t, http.MethodPost, "/api/sequences/shipments", nil)
	assert.JSONEq(t, `{"number":"SH-2025-001"}`, w.Body.String())
	w = e.do(t, http.MethodPost, "/api/sequences/invoices", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeta(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/meta/forms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]metaFormListItem](t, w)
	assert.NotEmpty(t, list)
	found := false
	for _, it := range list {
		if it.Page == "users" && it.Form == "modal-access" {
			found = true
			assert.False(t, it.Routed)
		}
	}
	assert.True(t, found)

	w = e.do(t, http.MethodGet, "/api/meta/forms/users/modal-edit-role-otk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"collection":"roles"`)

	w = e.do(t, http.MethodGet, "/api/meta/catalogs/units", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "кг")
	w = e.do(t, http.MethodGet, "/api/meta/catalogs/colors", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/meta/lint", nil)
	assert.JSONEq(t, `{"issues":[],"ok":true}`, w.Body.String())
}

func TestAdminReload(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/admin/reload", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/admin/reload", map[string]any{"forms_root": t.TempDir() + "/missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodGet, "/api/otk/pending", nil)

	w := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/otk/pending",status="200"} 1`)
}

func TestHubFanOut(t *testing.T) {
	h := newHub()
	a, b := h.subscribe(), h.subscribe()
	h.publish(Event{Type: EventReload, Page: "orders"})
	assert.Equal(t, "orders", (<-a).Page)
	assert.Equal(t, "orders", (<-b).Page)

	h.unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	h.unsubscribe(a)

	// переполненный подписчик не блокирует публикацию
	for i := 0; i < eventBuffer+5; i++ {
		h.publish(Event{Type: EventReload})
	}
	assert.Len(t, b, eventBuffer)
}

func TestReloadHookPublishes(t *testing.T) {
	e := newEnv(t)
	ch := e.srv.events.subscribe()
	defer e.srv.events.unsubscribe(ch)

	w := e.do(t, http.MethodPost, "/api/pages/lines/forms/modal-create-line/submit", map[string]any{
		"values": map[string]any{"line-name": "Линия 2"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	select {
	case ev := <-ch:
		assert.Equal(t, Event{Type: EventReload, Page: "lines"}, ev)
	case <-time.After(time.Second):
		t.Fatal("no reload event")
	}
}

func TestParseListParams(t *testing.T) {
	q, err := url.ParseQuery("_limit=5&offset=2&_sort=-date,+name,&nulls=FIRST&status=Создан&q=+хлеб+")
	require.NoError(t, err)
	lp := parseListParams(q)
	assert.Equal(t, 5, lp.Limit)
	assert.Equal(t, 2, lp.Offset)
	assert.Equal(t, []SortKey{{Field: "date", Desc: true}, {Field: "name"}}, lp.Sort)
	assert.Equal(t, "first", lp.Nulls)
	assert.Equal(t, map[string][]string{"status": {"Создан"}}, lp.Filters)
	assert.Equal(t, "хлеб", lp.Q)

	lp = parseListParams(url.Values{"_limit": {"5000"}, "_offset": {"-1"}})
	assert.Equal(t, 50, lp.Limit)
	assert.Equal(t, 0, lp.Offset)
	assert.Equal(t, "last", lp.Nulls)
}

func TestWriteOffPreview(t *testing.T) {
	e := newEnv(t)
	_, err := e.st.Add(t.Context(), domain.Recipes, store.R("recipe", "Батон", "composition", []any{
		map[string]any{"type": "raw", "name": "Мука", "quantity": 0.5, "unit": "кг"},
		map[string]any{"type": "chem", "name": "Соль", "quantity": 0.01, "unit": "кг"},
	}))
	require.NoError(t, err)
	order, err := e.st.Add(t.Context(), domain.Orders, store.R("status", domain.StatusCreated, "recipe", "Батон", "quantity", 40.0))
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/production/orders/"+order.ID()+"/writeoff?qty=40", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[workflow.WriteOff](t, w)
	assert.True(t, got.Ready)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "20", got.Lines[0].Required.String())
	assert.Equal(t, workflow.SourceChemistry, got.Lines[1].Source)
	assert.Equal(t, "0.4", got.Lines[1].Required.String())

	// нечисловое количество: как одна единица
	w = e.do(t, http.MethodGet, "/api/production/orders/"+order.ID()+"/writeoff?qty=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.5", decode[workflow.WriteOff](t, w).Lines[0].Required.String())

	w = e.do(t, http.MethodGet, "/api/production/orders/missing/writeoff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
