package api

import (
	"net/http"

	"mfgtrack/internal/form"
	"mfgtrack/internal/route"

	"github.com/gin-gonic/gin"
)

// formView отдаёт клиенту состояние модалки: значения, строки таблиц и варианты select.
type formView struct {
	ID      string                   `json:"id"`
	Page    string                   `json:"page"`
	Title   string                   `json:"title"`
	ItemID  string                   `json:"itemId,omitempty"`
	Context map[string]string        `json:"context,omitempty"`
	Values  map[string]any           `json:"values"`
	Lines   map[string][][]string    `json:"lines,omitempty"`
	Options map[string][]form.Option `json:"options,omitempty"`
}

func viewOf(f *form.Form) formView {
	v := formView{
		ID:      f.ID,
		Page:    f.Page,
		Title:   f.Title,
		ItemID:  f.ItemID,
		Context: f.Context,
		Values:  f.Values(),
		Lines:   f.Lines(),
		Options: map[string][]form.Option{},
	}
	for _, r := range f.Rows {
		if r.Table == nil && len(r.Controls) > 0 && len(r.Controls[0].Options) > 0 {
			v.Options[r.Field.ID] = r.Controls[0].Options
		}
	}
	return v
}

// GET /api/pages/:page/forms/:form[?id=]: пустая форма или предзаполненная записью id.
func FormHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, modal := c.Param("page"), c.Param("form")

		var (
			f   *form.Form
			err error
		)
		if id := c.Query("id"); id != "" {
			f, err = s.coord.Edit(ctx, page, modal, id)
		} else {
			f, err = s.coord.NewForm(ctx, page, modal)
		}
		if err != nil {
			writeError(c, s, "FormHandler", err)
			return
		}
		c.JSON(http.StatusOK, viewOf(f))
	}
}

type submitReq struct {
	ItemID  string                `json:"itemId"`
	Context map[string]string     `json:"context"`
	Values  map[string]any        `json:"values"`
	Lines   map[string][][]string `json:"lines"`
}

// POST /api/pages/:page/forms/:form/submit
func SubmitHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, modal := c.Param("page"), c.Param("form")

		var req submitReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		f, err := s.coord.NewForm(ctx, page, modal)
		if err != nil {
			writeError(c, s, "SubmitHandler", err)
			return
		}
		f.ItemID = req.ItemID
		f.Context = req.Context
		if err := f.Apply(req.Values, req.Lines); err != nil {
			writeError(c, s, "SubmitHandler", err)
			return
		}

		res, err := s.coord.Submit(ctx, page, f)
		if err != nil {
			// при сбое на середине в result видно, какие шаги уже записаны
			errs := fieldErrors(err)
			c.JSON(statusForErrors(errs), gin.H{"errors": errs, "result": res})
			return
		}
		status := http.StatusOK
		switch {
		case res.NotFound:
			status = http.StatusNotFound
		case res.Routed && res.Op == route.OpAdd:
			status = http.StatusCreated
		}
		c.JSON(status, res)
	}
}

type deleteReq struct {
	ID string `json:"id" binding:"required"`
}

// POST /api/pages/:page/forms/:form/delete: подтверждение в модалке удаления.
func FormDeleteHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deleteReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(ErrRequired, "id", err.Error())},
			})
			return
		}
		res, err := s.coord.Delete(c.Request.Context(), c.Param("page"), c.Param("form"), req.ID)
		if err != nil {
			writeError(c, s, "FormDeleteHandler", err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GET /api/otk/batches/:id/form: форма ОТК с контекстом партии.
func InspectionFormHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := s.coord.InspectionForm(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, s, "InspectionFormHandler", err)
			return
		}
		c.JSON(http.StatusOK, viewOf(f))
	}
}
