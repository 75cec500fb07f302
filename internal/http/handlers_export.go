package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/export"
)

// exportInput gathers the shared preconditions of every download: a valid
// period and loaded settings. A missing settings row aborts the export with
// an informational notification and no partial file.
func (s *Server) exportInput(w http.ResponseWriter, r *http.Request) (core.Period, core.Settings, bool) {
	period, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		UnprocessableEntityError("Période invalide").Write(w)
		return core.Period{}, core.Settings{}, false
	}

	settings, err := s.cachedSettings(r.Context(), s.ownerID(r))
	if errors.Is(err, core.ErrSettingsNotLoaded) {
		NewHTMXResponse().
			Status(http.StatusPreconditionFailed).
			TriggerInfoNotification("Renseignez d'abord les paramètres de l'entreprise").
			Write(w)
		return core.Period{}, core.Settings{}, false
	}
	if err != nil {
		s.writeServiceError(w, r, err, "Échec du chargement des paramètres")
		return core.Period{}, core.Settings{}, false
	}
	return period, settings, true
}

// sendFile buffers the document before writing headers, so a renderer
// failure produces an error response instead of a truncated download.
func sendFile(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	period, settings, ok := s.exportInput(w, r)
	if !ok {
		return
	}

	st, err := s.cachedStatement(r.Context(), s.ownerID(r), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement build error", "error", err)
		InternalServerError("Échec du calcul de l'état de caisse").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.pdf.WriteStatement(r.Context(), &buf, st, settings); err != nil {
		slog.ErrorContext(r.Context(), "PDF render error", "error", err)
		InternalServerError("Échec de la génération du PDF").Write(w)
		return
	}
	sendFile(w, "application/pdf", export.Filename("etat_de_caisse", "pdf", st.GeneratedAt), &buf)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	period, settings, ok := s.exportInput(w, r)
	if !ok {
		return
	}

	st, err := s.cachedStatement(r.Context(), s.ownerID(r), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement build error", "error", err)
		InternalServerError("Échec du calcul de l'état de caisse").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteStatementXLSX(&buf, st, settings); err != nil {
		slog.ErrorContext(r.Context(), "XLSX render error", "error", err)
		InternalServerError("Échec de la génération du classeur").Write(w)
		return
	}
	sendFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		export.Filename("etat_de_caisse", "xlsx", st.GeneratedAt), &buf)
}

func (s *Server) handleJournalPDF(w http.ResponseWriter, r *http.Request) {
	period, settings, ok := s.exportInput(w, r)
	if !ok {
		return
	}

	entries, err := s.reports.TransactionLog(r.Context(), s.ownerID(r), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction log error", "error", err)
		InternalServerError("Échec du chargement du journal").Write(w)
		return
	}

	generatedAt := time.Now()
	var buf bytes.Buffer
	if err := s.pdf.WriteTransactionLog(r.Context(), &buf, entries, period, settings, generatedAt); err != nil {
		slog.ErrorContext(r.Context(), "PDF render error", "error", err)
		InternalServerError("Échec de la génération du PDF").Write(w)
		return
	}
	sendFile(w, "application/pdf", export.Filename("journal_de_caisse", "pdf", generatedAt), &buf)
}

func (s *Server) handleJournalCSV(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		UnprocessableEntityError("Période invalide").Write(w)
		return
	}

	entries, err := s.reports.TransactionLog(r.Context(), s.ownerID(r), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction log error", "error", err)
		InternalServerError("Échec du chargement du journal").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTransactionLogCSV(&buf, entries); err != nil {
		slog.ErrorContext(r.Context(), "CSV render error", "error", err)
		InternalServerError("Échec de la génération du CSV").Write(w)
		return
	}
	sendFile(w, "text/csv; charset=utf-8", export.Filename("journal_de_caisse", "csv", time.Now()), &buf)
}
