package api

import (
	"errors"
	"net/http"

	"mfgtrack/internal/form"
	"mfgtrack/internal/logger"
	"mfgtrack/internal/store"
	"mfgtrack/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок, которыми будем пользоваться
const (
	ErrRequired      = "required"
	ErrTypeMismatch  = "type_mismatch"
	ErrNotFound      = "not_found"
	ErrUnknownField  = "unknown_field"
	ErrStateConflict = "state_conflict"
	ErrNoItem        = "no_item"
	ErrStorage       = "storage_error"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

func statusForErrors(errs []FieldError) int {
	for _, e := range errs {
		switch e.Code {
		case ErrStorage:
			return http.StatusInternalServerError
		case ErrStateConflict:
			return http.StatusConflict
		case ErrNotFound:
			return http.StatusNotFound
		}
	}
	return http.StatusBadRequest
}

// fieldErrors раскладывает ошибку формы/координатора в список FieldError.
func fieldErrors(err error) []FieldError {
	var mf *form.MissingFieldsError
	if errors.As(err, &mf) {
		if len(mf.Labels) == 0 {
			return []FieldError{ferr(ErrRequired, "", mf.Error())}
		}
		out := make([]FieldError, 0, len(mf.Labels))
		for _, l := range mf.Labels {
			out = append(out, ferr(ErrRequired, l, mf.Error()))
		}
		return out
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ferr(ErrTypeMismatch, fe.Field(), fe.Error()))
		}
		return out
	}
	var pe *store.PersistenceError
	switch {
	case errors.As(err, &pe):
		return []FieldError{ferr(ErrStorage, pe.Collection, err.Error())}
	case errors.Is(err, workflow.ErrUnknownForm),
		errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, workflow.ErrNoTarget),
		errors.Is(err, workflow.ErrBatchNotFound):
		return []FieldError{ferr(ErrNotFound, "", err.Error())}
	case errors.Is(err, workflow.ErrOrderNotSelectable),
		errors.Is(err, workflow.ErrBatchNotPending):
		return []FieldError{ferr(ErrStateConflict, "", err.Error())}
	case errors.Is(err, workflow.ErrNoItem):
		return []FieldError{ferr(ErrNoItem, "itemId", err.Error())}
	case errors.Is(err, workflow.ErrInvalidInspection):
		return []FieldError{ferr(ErrTypeMismatch, "accepted", err.Error())}
	case errors.Is(err, form.ErrUnknownField), errors.Is(err, form.ErrNotATable):
		return []FieldError{ferr(ErrUnknownField, "", err.Error())}
	}
	return []FieldError{ferr(ErrStorage, "", err.Error())}
}

// writeError отвечает {"errors": [...]} со статусом по самой тяжёлой ошибке.
// Ошибки хранилища дополнительно пишутся в лог.
func writeError(c *gin.Context, s *Server, funcName string, err error) {
	errs := fieldErrors(err)
	status := statusForErrors(errs)
	if status >= http.StatusInternalServerError {
		logger.LogError(s.log, moduleName, funcName, c.FullPath(), c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"errors": errs})
}
