package httpapi

import (
	"net/http"
	"strconv"

	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/server/services"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.recipes.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	viewerID, _ := UserID(r.Context())
	res, err := s.recipes.List(r.Context(), services.ListParams{
		Page:       page,
		Limit:      limit,
		CategoryID: q.Get("categoryId"),
		Search:     q.Get("search"),
		ViewerID:   viewerID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := UserID(r.Context())
	recipe, err := s.recipes.Get(r.Context(), r.PathValue("id"), viewerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var in services.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	userID, _ := UserID(r.Context())
	recipe, err := s.recipes.Create(r.Context(), userID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var in services.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	userID, _ := UserID(r.Context())
	recipe, err := s.recipes.Update(r.Context(), r.PathValue("id"), userID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	if err := s.recipes.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "recipe deleted"})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	already, err := s.recipes.Like(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if already {
		writeJSON(w, http.StatusCreated, messageBody{Message: "recipe already liked"})
		return
	}
	writeJSON(w, http.StatusCreated, messageBody{Message: "like added"})
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	if err := s.recipes.Unlike(r.Context(), r.PathValue("id"), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "like removed"})
}

// queryInt parses an optional positive integer query parameter; empty means 0.
func queryInt(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, common.NewError(common.ErrorValidation, name+" must be a positive integer")
	}
	return n, nil
}
