package api

import (
	"net/http"

	"mfgtrack/internal/route"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaFormListItem struct {
	Page   string `json:"page"`
	Form   string `json:"form"`
	Title  string `json:"title"`
	Routed bool   `json:"routed"`
}

// GET /api/meta/forms
func MetaListHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		forms := s.coord.Forms().Forms()
		out := make([]metaFormListItem, 0, len(forms))
		for _, f := range forms {
			_, routed := route.Lookup(f.Page, f.ID)
			out = append(out, metaFormListItem{Page: f.Page, Form: f.ID, Title: f.Title, Routed: routed})
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/meta/forms/:page/:form: схема формы; алиасы и префиксы тоже находятся.
func MetaFormHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, id := c.Param("page"), c.Param("form")
		schema, ok := s.coord.Forms().Form(page, id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
			return
		}
		rt, routed := route.Lookup(page, id)
		resp := gin.H{"schema": schema, "routed": routed}
		if routed {
			resp["route"] = gin.H{"collection": rt.Collection, "op": rt.Op}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GET /api/meta/catalogs/:name
func MetaCatalogHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		dir, ok := s.coord.Enums()[name]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"name":  name,
			"items": dir.Items,
		})
	}
}

// GET /api/meta/lint
func MetaLintHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues := lintCatalog(s.coord.Forms(), s.coord.Enums())
		c.JSON(http.StatusOK, gin.H{"issues": issues, "ok": len(issues) == 0})
	}
}
