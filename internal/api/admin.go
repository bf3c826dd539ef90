package api

import (
	"net/http"
	"os"
	"strings"

	"mfgtrack/internal/dsl"
	"mfgtrack/internal/reference"

	"github.com/gin-gonic/gin"
)

type reloadReq struct {
	FormsRoot string `json:"forms_root"` // директория со схемами *.yaml; пусто: встроенные
	EnumsRoot string `json:"enums_root"` // директория со справочниками; пусто: встроенные
}

// POST /api/admin/reload: перечитывает схемы форм и справочники.
// Схемы с замечаниями линтера не применяются.
func AdminReloadHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
				return
			}
		}
		formsRoot := strings.TrimSpace(req.FormsRoot)
		enumsRoot := strings.TrimSpace(req.EnumsRoot)

		// 1) читаем новые схемы и справочники
		var (
			forms *dsl.Catalog
			err   error
		)
		if formsRoot == "" {
			forms, err = dsl.Default()
		} else {
			forms, err = dsl.LoadForms(os.DirFS(formsRoot), ".")
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Forms load error", "details": err.Error()})
			return
		}
		var enums map[string]reference.EnumDirectory
		if enumsRoot == "" {
			enums, err = reference.Default()
		} else {
			enums, err = reference.LoadEnumCatalog(os.DirFS(enumsRoot), ".")
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Enum load error", "details": err.Error()})
			return
		}

		// 2) линтер до замены
		if issues := lintCatalog(forms, enums); len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "schema has blocking issues",
				"issues":    issues,
				"formsRoot": formsRoot, "enumsRoot": enumsRoot,
			})
			return
		}

		// 3) атомарная замена
		s.coord.SetCatalog(forms, enums)
		s.log.WithField("forms", len(forms.Forms())).WithField("enums", len(enums)).Info("catalog reloaded")

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"formsRoot":  formsRoot,
			"enumsRoot":  enumsRoot,
			"forms":      len(forms.Forms()),
			"enumGroups": len(enums),
		})
	}
}
