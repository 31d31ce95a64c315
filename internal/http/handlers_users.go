package http

import (
	"net/http"

	"budgethelper/internal/core"
)

// handleEnsureUser registers the user on first contact. Existing users keep
// their stored settings.
func (s *Server) handleEnsureUser(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "ensure_user", err)
		return
	}
	p := ParseBodyOrFail(w, r)
	if p == nil {
		return
	}

	var lang core.Language
	if raw := p.Get("language"); raw != "" {
		if lang, err = core.ParseLanguage(raw); err != nil {
			writeError(r.Context(), w, "ensure_user", err)
			return
		}
	}

	u, err := s.deps.Users.Ensure(r.Context(), userID, p.Get("username"), lang)
	if err != nil {
		writeError(r.Context(), w, "ensure_user", err)
		return
	}
	NewResponse().JSON(newUserResponse(u)).Write(w)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "get_user", err)
		return
	}
	u, err := s.deps.Users.Find(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, "get_user", err)
		return
	}
	NewResponse().JSON(newUserResponse(u)).Write(w)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "set_language", err)
		return
	}
	p := ParseBodyOrFail(w, r)
	if p == nil {
		return
	}
	lang, err := core.ParseLanguage(p.Get("language"))
	if err != nil {
		writeError(r.Context(), w, "set_language", err)
		return
	}
	if err := s.deps.Users.SetLanguage(r.Context(), userID, lang); err != nil {
		writeError(r.Context(), w, "set_language", err)
		return
	}
	s.writeUser(w, r, userID, "set_language")
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "set_currency", err)
		return
	}
	p := ParseBodyOrFail(w, r)
	if p == nil {
		return
	}
	cur, err := core.ParseCurrency(p.Get("currency"))
	if err != nil {
		writeError(r.Context(), w, "set_currency", err)
		return
	}
	if err := s.deps.Users.SetCurrency(r.Context(), userID, cur); err != nil {
		writeError(r.Context(), w, "set_currency", err)
		return
	}
	s.writeUser(w, r, userID, "set_currency")
}

func (s *Server) writeUser(w http.ResponseWriter, r *http.Request, userID int64, op string) {
	u, err := s.deps.Users.Find(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, op, err)
		return
	}
	NewResponse().JSON(newUserResponse(u)).Write(w)
}

// handleListCategories lists both types unless ?type= narrows it.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "list_categories", err)
		return
	}

	types := []core.TransactionType{core.Income, core.Expense}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := core.ParseTransactionType(raw)
		if err != nil {
			writeError(r.Context(), w, "list_categories", err)
			return
		}
		types = []core.TransactionType{t}
	}

	out := []categoryResponse{}
	for _, t := range types {
		cats, err := s.deps.Categories.List(r.Context(), userID, t)
		if err != nil {
			writeError(r.Context(), w, "list_categories", err)
			return
		}
		out = append(out, newCategoryList(cats)...)
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "create_category", err)
		return
	}
	p := ParseBodyOrFail(w, r)
	if p == nil {
		return
	}
	t, err := core.ParseTransactionType(p.Get("type"))
	if err != nil {
		writeError(r.Context(), w, "create_category", err)
		return
	}

	c, err := s.deps.Categories.Create(r.Context(), userID, p.Get("name"), t)
	if err != nil {
		writeError(r.Context(), w, "create_category", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newCategoryResponse(c)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, "delete_category", err)
		return
	}
	if err := s.deps.Categories.Delete(r.Context(), userID, r.PathValue("categoryID")); err != nil {
		writeError(r.Context(), w, "delete_category", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
