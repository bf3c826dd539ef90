package workflow

import (
	"context"
	"sync"

	"mfgtrack/internal/form"
)

// Session хранит состояние одной вкладки: текущую страницу и открытую модалку
// (с id редактируемой записи и контекстом партии/заказа внутри формы).
//
// Жизненный цикл: SetPage сбрасывает всё; Open* открывает модалку;
// успешный Submit или Close её закрывает; ошибка оставляет форму открытой.
type Session struct {
	coord *Coordinator

	mu   sync.Mutex
	page string
	form *form.Form
}

func (c *Coordinator) NewSession(page string) *Session {
	return &Session{coord: c, page: page}
}

func (s *Session) Page() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) SetPage(page string) {
	s.mu.Lock()
	s.page = page
	s.form = nil
	s.mu.Unlock()
}

// Form: открытая форма или nil.
func (s *Session) Form() *form.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) Open(ctx context.Context, modalID string) (*form.Form, error) {
	f, err := s.coord.NewForm(ctx, s.Page(), modalID)
	return s.set(f, err)
}

func (s *Session) OpenEdit(ctx context.Context, modalID, id string) (*form.Form, error) {
	f, err := s.coord.Edit(ctx, s.Page(), modalID, id)
	return s.set(f, err)
}

func (s *Session) OpenInspection(ctx context.Context, batchID string) (*form.Form, error) {
	f, err := s.coord.InspectionForm(ctx, batchID)
	return s.set(f, err)
}

func (s *Session) set(f *form.Form, err error) (*form.Form, error) {
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.form = f
	s.mu.Unlock()
	return f, nil
}

// Submit отправляет открытую форму. При успехе (и при отсутствии маршрута)
// форма сбрасывается и закрывается.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	f, page := s.form, s.page
	s.mu.Unlock()
	if f == nil {
		return Result{}, ErrNoOpenForm
	}

	res, err := s.coord.Submit(ctx, page, f)
	if err != nil {
		return res, err
	}
	f.Reset()
	s.Close()
	return res, nil
}

func (s *Session) Close() {
	s.mu.Lock()
	s.form = nil
	s.mu.Unlock()
}
