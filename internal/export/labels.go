// Package export renders the cash statement and the transaction log to
// PDF, XLSX and CSV. All renderers consume the same core.Statement and
// must agree on every numeric cell; only layout differs.
package export

import (
	"fmt"
	"strings"

	"github.com/barthos4/ma-caisse/internal/core"
)

// Display labels. Documents are produced in French; identifiers stay English.
const (
	labelIncome     = "RECETTES"
	labelExpense    = "DÉPENSES"
	labelTotalIn    = "TOTAL RECETTES"
	labelTotalOut   = "TOTAL DÉPENSES"
	labelNetBalance = "SOLDE RÉALISÉ"
	statementTitle  = "ÉTAT DE CAISSE"
	logTitle        = "JOURNAL DE CAISSE"
)

var reportColumns = []string{"N°", "Catégorie", "Prévu", "Réalisé", "%", "Écart"}

var logColumns = []string{"Date", "N° Ordre", "Description", "Référence", "Catégorie", "Type", "Montant"}

func kindLabel(k core.Kind) string {
	if k == core.KindIncome {
		return "Recette"
	}
	return "Dépense"
}

func periodLine(p core.Period) string {
	return fmt.Sprintf("Période du %s au %s", core.FormatDate(p.From), core.FormatDate(p.To))
}

func generatedLine(st core.Statement) string {
	return "Généré le " + st.GeneratedAt.Format("02/01/2006 à 15:04")
}

// fiscalLine joins the fiscal identifiers present in the settings, for the
// document footers. Returns "" when neither is set.
func fiscalLine(s core.Settings) string {
	var parts []string
	if strings.TrimSpace(s.RCCM) != "" {
		parts = append(parts, "RCCM : "+s.RCCM)
	}
	if strings.TrimSpace(s.NIU) != "" {
		parts = append(parts, "NIU : "+s.NIU)
	}
	return strings.Join(parts, "  |  ")
}
