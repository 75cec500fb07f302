package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
)

// handleEditBudget persists one planned-amount edit, the on-blur half of the
// budget edit loop. The client keeps its pending value if this fails.
func (s *Server) handleEditBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	categoryID := strings.TrimSpace(r.Form.Get("category_id"))
	if categoryID == "" {
		UnprocessableEntityError("Catégorie manquante").Write(w)
		return
	}
	kind := core.Kind(strings.TrimSpace(r.Form.Get("kind")))
	if err := kind.Validate(); err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	month, err := parseBudgetMonth(r.Form, time.Now())
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	// The edit field is named after its overlay key, so the same input both
	// posts here on blur and rides along on the live report refresh.
	field := "pending_" + string(kind) + "_" + categoryID
	if !r.Form.Has(field) {
		field = "planned"
	}

	entry, err := s.budgets.SavePlanned(r.Context(), s.ownerID(r), categoryID, kind, month, r.Form.Get(field))
	if errors.Is(err, core.ErrNegativePlanned) {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	if err != nil {
		// Optimistic edit: the client keeps the pending value on screen.
		NewHTMXResponse().
			Status(http.StatusInternalServerError).
			TriggerErrorNotification("Échec de l'enregistrement du montant prévu").
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerBudgetSaved(categoryID).
		BodyHTML(`<span class="saved">` + entry.Planned.Format() + `</span>`).
		Write(w)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	settings := core.Settings{
		OwnerID:     s.ownerID(r),
		CompanyName: sanitizeInput(r.Form.Get("company_name")),
		Address:     sanitizeInput(r.Form.Get("address")),
		LogoURL:     strings.TrimSpace(r.Form.Get("logo_url")),
		RCCM:        sanitizeInput(r.Form.Get("rccm")),
		NIU:         sanitizeInput(r.Form.Get("niu")),
	}

	if _, err := s.settings.Save(r.Context(), settings); err != nil {
		s.writeServiceError(w, r, err, "Échec de l'enregistrement des paramètres")
		return
	}

	NewHTMXResponse().
		TriggerSettingsSaved().
		TriggerSuccessNotification("Paramètres enregistrés").
		Write(w)
}
