// api/router.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins []string
	// nil: без /metrics
	Gatherer prometheus.Gatherer
}

func NewRouter(s *Server, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	if s.metrics != nil {
		r.Use(PrometheusMiddleware(s.metrics))
	}
	if len(cfg.CORSOrigins) > 0 {
		cc := cors.DefaultConfig()
		if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
			cc.AllowAllOrigins = true
		} else {
			cc.AllowOrigins = cfg.CORSOrigins
		}
		r.Use(cors.New(cc))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta/forms", MetaListHandler(s))
		apiGroup.GET("/meta/forms/:page/:form", MetaFormHandler(s))
		apiGroup.GET("/meta/catalogs/:name", MetaCatalogHandler(s))
		apiGroup.GET("/meta/lint", MetaLintHandler(s))
		apiGroup.POST("/admin/reload", AdminReloadHandler(s))

		// статические "служебные" маршруты: СНАЧАЛА
		apiGroup.GET("/collections", CollectionsHandler(s))
		apiGroup.GET("/collections/:collection/_count", CountHandler(s))
		apiGroup.GET("/collections/:collection/_export", ExportHandler(s))

		// обычные CRUD
		apiGroup.GET("/collections/:collection", ListHandler(s))
		apiGroup.POST("/collections/:collection", CreateHandler(s))
		apiGroup.PUT("/collections/:collection", ReplaceHandler(s))
		apiGroup.GET("/collections/:collection/:id", GetOneHandler(s))
		apiGroup.PATCH("/collections/:collection/:id", UpdatePartialHandler(s))
		apiGroup.DELETE("/collections/:collection/:id", DeleteHandler(s))

		// формы
		apiGroup.GET("/pages/:page/forms/:form", FormHandler(s))
		apiGroup.POST("/pages/:page/forms/:form/submit", SubmitHandler(s))
		apiGroup.POST("/pages/:page/forms/:form/delete", FormDeleteHandler(s))

		// производство и ОТК
		apiGroup.GET("/production/orders", SelectableOrdersHandler(s))
		apiGroup.GET("/production/orders/:id/writeoff", WriteOffHandler(s))
		apiGroup.GET("/otk/pending", PendingBatchesHandler(s))
		apiGroup.GET("/otk/batches/:id/form", InspectionFormHandler(s))
		apiGroup.POST("/otk/validate", ValidateInspectionHandler(s))
		apiGroup.GET("/materials/balances", BalancesHandler(s))
		apiGroup.POST("/sequences/:kind", SequenceHandler(s))

		apiGroup.GET("/events", EventsHandler(s))
	}
	return r
}

// RunServer слушает addr до отмены ctx, затем даёт запросам 10 секунд на завершение.
func RunServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
