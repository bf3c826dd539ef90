package form

import "strings"

// MissingFieldsError: форма не прошла проверку обязательных полей.
// Labels: подписи пустых обязательных полей в порядке формы.
type MissingFieldsError struct {
	Labels  []string
	Message string
}

func (e *MissingFieldsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Labels) == 0 {
		return "Заполните обязательные поля"
	}
	return "Заполните обязательные поля: " + strings.Join(e.Labels, ", ")
}
