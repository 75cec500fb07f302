package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/barthos4/ma-caisse/internal/core"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	tx, err := parseTransactionForm(r.Form, s.ownerID(r))
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	tx.ID = ""

	saved, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		s.writeServiceError(w, r, err, "Échec de l'enregistrement de l'opération")
		return
	}

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Opération enregistrée : " + saved.Description).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	tx, err := parseTransactionForm(r.Form, s.ownerID(r))
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	if tx.ID == "" {
		UnprocessableEntityError("Identifiant manquant").Write(w)
		return
	}

	if _, err := s.transactions.Update(r.Context(), tx); err != nil {
		s.writeServiceError(w, r, err, "Échec de la mise à jour de l'opération")
		return
	}

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Opération mise à jour").
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.transactions.Delete(r.Context(), s.ownerID(r), id); err != nil {
		s.writeServiceError(w, r, err, "Échec de la suppression de l'opération")
		return
	}

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerSuccessNotification("Opération supprimée").
		Write(w)
}

// writeServiceError maps a service failure onto the response taxonomy:
// validation errors come back 422 inline, everything else is a notification
// with the previous data kept on screen.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("Introuvable").Write(w)
	case isValidationError(err):
		UnprocessableEntityError(validationMessage(err)).Write(w)
	default:
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			TriggerErrorNotification(message).
			Write(w)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrNegativePlanned,
		core.ErrEmptyDescription,
		core.ErrInvalidKind,
		core.ErrEmptyCategoryName,
		core.ErrCategoryNameLong,
		core.ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// validationMessage translates the domain sentinels for the UI.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Montant invalide"
	case errors.Is(err, core.ErrNegativePlanned):
		return "Le montant prévu ne peut pas être négatif"
	case errors.Is(err, core.ErrEmptyDescription):
		return "La description est obligatoire"
	case errors.Is(err, core.ErrInvalidKind):
		return "Type d'opération invalide"
	case errors.Is(err, core.ErrEmptyCategoryName):
		return "Le nom de la catégorie est obligatoire"
	case errors.Is(err, core.ErrCategoryNameLong):
		return "Nom de catégorie trop long (50 caractères max)"
	case errors.Is(err, core.ErrInvalidDate):
		return "Date invalide"
	default:
		return "Données invalides"
	}
}
