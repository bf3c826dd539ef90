package api

import (
	"fmt"
	"net/http"
	"strconv"

	"mfgtrack/internal/domain"
	"mfgtrack/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// collectionParam достаёт :collection; неизвестная коллекция: 404.
func collectionParam(c *gin.Context) (string, bool) {
	name, ok := normalizeCollection(c.Param("collection"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": []FieldError{ferr(ErrNotFound, "collection", "Collection not found")},
		})
		return "", false
	}
	return name, true
}

func bindRecord(c *gin.Context) (*store.Record, bool) {
	rec := store.NewRecord()
	if err := c.ShouldBindJSON(rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return nil, false
	}
	return rec, true
}

// GET /api/collections
func CollectionsHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		type item struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}
		out := make([]item, 0, len(domain.Collections()))
		for _, name := range domain.Collections() {
			recs, err := s.coord.Store().Get(c.Request.Context(), name)
			if err != nil {
				writeError(c, s, "CollectionsHandler", err)
				return
			}
			out = append(out, item{Name: name, Count: len(recs)})
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/collections/:collection
func ListHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		all, err := s.coord.Store().Get(c.Request.Context(), name)
		if err != nil {
			writeError(c, s, "ListHandler", err)
			return
		}

		lp := parseListParams(c.Request.URL.Query())
		filtered := filterRecords(all, lp)
		sortRecordsMultiNulls(filtered, lp.Sort, lp.Nulls)
		page := paginate(filtered, lp.Offset, lp.Limit)

		c.Header("X-Total-Count", strconv.Itoa(len(filtered)))
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/collections/:collection/_count
func CountHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		all, err := s.coord.Store().Get(c.Request.Context(), name)
		if err != nil {
			writeError(c, s, "CountHandler", err)
			return
		}
		filtered := filterRecords(all, parseListParams(c.Request.URL.Query()))
		c.JSON(http.StatusOK, gin.H{"total": len(filtered)})
	}
}

// GET /api/collections/:collection/:id
func GetOneHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		rec, found, err := s.coord.Store().Find(c.Request.Context(), name, c.Param("id"))
		if err != nil {
			writeError(c, s, "GetOneHandler", err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// POST /api/collections/:collection: запись как есть, id присваивается хранилищем.
func CreateHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		rec, ok := bindRecord(c)
		if !ok {
			return
		}
		rec.Delete("id")
		added, err := s.coord.Store().Add(c.Request.Context(), name, rec)
		if err != nil {
			writeError(c, s, "CreateHandler", err)
			return
		}
		s.events.publish(Event{Type: EventReload, Collection: name})
		c.JSON(http.StatusCreated, added)
	}
}

// PATCH /api/collections/:collection/:id: слияние атрибутов.
func UpdatePartialHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		patch, ok := bindRecord(c)
		if !ok {
			return
		}
		upd, found, err := s.coord.Store().Update(c.Request.Context(), name, c.Param("id"), patch)
		if err != nil {
			writeError(c, s, "UpdatePartialHandler", err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		s.events.publish(Event{Type: EventReload, Collection: name})
		c.JSON(http.StatusOK, upd)
	}
}

// PUT /api/collections/:collection: замена коллекции целиком.
func ReplaceHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		var recs []*store.Record
		if err := c.ShouldBindJSON(&recs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if err := s.coord.Store().Set(c.Request.Context(), name, recs); err != nil {
			writeError(c, s, "ReplaceHandler", err)
			return
		}
		s.events.publish(Event{Type: EventReload, Collection: name})
		c.Status(http.StatusNoContent)
	}
}

// DELETE /api/collections/:collection/:id: неизвестный id тоже 204.
func DeleteHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		if err := s.coord.Store().Delete(c.Request.Context(), name, c.Param("id")); err != nil {
			writeError(c, s, "DeleteHandler", err)
			return
		}
		s.events.publish(Event{Type: EventReload, Collection: name})
		c.Status(http.StatusNoContent)
	}
}

const exportSheet = "Sheet1"

// GET /api/collections/:collection/_export: xlsx с колонками в порядке первого появления атрибута.
func ExportHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := collectionParam(c)
		if !ok {
			return
		}
		all, err := s.coord.Store().Get(c.Request.Context(), name)
		if err != nil {
			writeError(c, s, "ExportHandler", err)
			return
		}
		lp := parseListParams(c.Request.URL.Query())
		filtered := filterRecords(all, lp)
		sortRecordsMultiNulls(filtered, lp.Sort, lp.Nulls)

		f, err := exportWorkbook(filtered)
		if err != nil {
			writeError(c, s, "ExportHandler", err)
			return
		}
		defer f.Close()

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", name))
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func exportWorkbook(records []*store.Record) (*excelize.File, error) {
	var columns []string
	seen := map[string]bool{}
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}

	f := excelize.NewFile()
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, col); err != nil {
			return nil, err
		}
	}
	for row, r := range records {
		for i, col := range columns {
			v, ok := r.Get(col)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row+2)
			if err != nil {
				return nil, err
			}
			switch t := v.(type) {
			case float64, bool:
				err = f.SetCellValue(exportSheet, cell, t)
			default:
				err = f.SetCellValue(exportSheet, cell, stringify(v))
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
