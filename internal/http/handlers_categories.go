package http

import (
	"net/http"

	"budgeteer/internal/core"
	"budgeteer/internal/services"
)

type categoryList struct {
	Categories   []core.Category
	DefaultColor string
}

func (s *Server) categoryList(r *http.Request) (categoryList, error) {
	cats, err := s.budget.Categories(r.Context(), currentIdentity(r).ID)
	if err != nil {
		return categoryList{}, err
	}
	return categoryList{Categories: cats, DefaultColor: core.DefaultCategoryColor}, nil
}

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	list, err := s.categoryList(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "categories", page{Title: "Categories", Active: "categories", Data: list})
}

// writeCategoryList re-renders the list after a change.
func (s *Server) writeCategoryList(w http.ResponseWriter, r *http.Request, message string) {
	list, err := s.categoryList(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderPartial(w, r, NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification(message), "category_list", list)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	if _, err := s.budget.CreateCategory(r.Context(), currentIdentity(r).ID, form.Get("name"), form.Get("color")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeCategoryList(w, r, "Category created")
}

// handleUpdateCategory changes only the fields present in the request.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	var upd services.CategoryUpdate
	if form.Has("name") {
		name := form.Get("name")
		upd.Name = &name
	}
	if form.Has("color") {
		color := form.Get("color")
		upd.Color = &color
	}
	if _, err := s.budget.UpdateCategory(r.Context(), currentIdentity(r).ID, r.PathValue("id"), upd); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeCategoryList(w, r, "Category updated")
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteCategory(r.Context(), currentIdentity(r).ID, r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeCategoryList(w, r, "Category deleted")
}

// handleReorderCategories takes the full ordered id list, as repeated "ids"
// form fields or a JSON array.
func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	if err := form.Err(); err != nil {
		s.respondError(w, r, core.Invalid("Invalid request body"))
		return
	}
	if err := s.budget.ReorderCategories(r.Context(), currentIdentity(r).ID, form.Values("ids")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeCategoryList(w, r, "Order saved")
}
