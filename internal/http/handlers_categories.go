package http

import (
	"errors"
	"net/http"

	"github.com/barthos4/ma-caisse/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	cat, err := parseCategoryForm(r.Form, s.ownerID(r))
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	cat.ID = ""

	saved, err := s.categories.Create(r.Context(), cat)
	if err != nil {
		s.writeServiceError(w, r, err, "Échec de la création de la catégorie")
		return
	}

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification("Catégorie créée : " + saved.Name).
		Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	cat, err := parseCategoryForm(r.Form, s.ownerID(r))
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	if cat.ID == "" {
		UnprocessableEntityError("Identifiant manquant").Write(w)
		return
	}

	if _, err := s.categories.Update(r.Context(), cat); err != nil {
		s.writeServiceError(w, r, err, "Échec de la mise à jour de la catégorie")
		return
	}

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification("Catégorie mise à jour").
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	id := r.Form.Get("id")
	if id == "" {
		UnprocessableEntityError("Identifiant manquant").Write(w)
		return
	}

	err := s.categories.Delete(r.Context(), s.ownerID(r), id)
	// In-use refusal is a blocking notification, nothing was deleted.
	if errors.Is(err, core.ErrCategoryInUse) {
		NewHTMXResponse().
			Status(http.StatusConflict).
			TriggerErrorNotification("Catégorie utilisée par des opérations, suppression refusée").
			Write(w)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err, "Échec de la suppression de la catégorie")
		return
	}

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerSuccessNotification("Catégorie supprimée").
		Write(w)
}
