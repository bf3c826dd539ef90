package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// GET /api/production/orders: заказы, доступные для выпуска.
func SelectableOrdersHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := s.coord.SelectableOrders(c.Request.Context())
		if err != nil {
			writeError(c, s, "SelectableOrdersHandler", err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

// GET /api/production/orders/:id/writeoff?qty=: таблица списания для формы выпуска.
// Пустой или нечисловой qty считается за 1.
func WriteOffHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		qty, err := strconv.ParseFloat(strings.TrimSpace(c.Query("qty")), 64)
		if err != nil {
			qty = 1
		}
		out, err := s.coord.WriteOff(c.Request.Context(), c.Param("id"), qty)
		if err != nil {
			writeError(c, s, "WriteOffHandler", err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/otk/pending: партии, ожидающие ОТК.
func PendingBatchesHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := s.coord.PendingBatches(c.Request.Context())
		if err != nil {
			writeError(c, s, "PendingBatchesHandler", err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

type inspectionReq struct {
	BatchID  string `json:"batchId" binding:"required"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}

// POST /api/otk/validate: живая проверка "принято + брак = выпущено".
func ValidateInspectionHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req inspectionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(ErrRequired, "batchId", err.Error())},
			})
			return
		}
		chk, err := s.coord.CheckInspection(c.Request.Context(), req.BatchID, req.Accepted, req.Rejected)
		if err != nil {
			writeError(c, s, "ValidateInspectionHandler", err)
			return
		}
		c.JSON(http.StatusOK, chk)
	}
}

// GET /api/materials/balances: остатки сырья по приходам.
func BalancesHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.coord.Balances(c.Request.Context())
		if err != nil {
			writeError(c, s, "BalancesHandler", err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// POST /api/sequences/:kind: следующий номер заказа (orders) или отгрузки (shipments).
func SequenceHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			n   string
			err error
		)
		switch c.Param("kind") {
		case "orders":
			n, err = s.coord.Store().NextOrderNumber(c.Request.Context())
		case "shipments":
			n, err = s.coord.Store().NextShipmentNumber(c.Request.Context())
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "Sequence not found"})
			return
		}
		if err != nil {
			writeError(c, s, "SequenceHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"number": n})
	}
}
