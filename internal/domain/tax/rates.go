// Package tax implements Italian VAT (IVA) calculation, including reverse
// charge for intra-EU B2B transactions and Ritenuta d'Acconto withholding.
package tax

import (
	"fmt"

	"nexa/internal/core/types"
)

// Italian IVA rates as canonical fractions.
var (
	// RateStandard is the ordinary rate (aliquota ordinaria).
	RateStandard = types.MustMoney("0.22")

	// RateReduced applies to food, books and similar goods (aliquota ridotta).
	RateReduced = types.MustMoney("0.10")

	// RateSuperReduced applies to essential goods (aliquota super ridotta).
	RateSuperReduced = types.MustMoney("0.04")

	// RateExempt marks exempt operations.
	RateExempt = types.Zero()
)

// Withholding rates (Ritenuta d'Acconto).
var (
	// WithholdingProfessionals is the standard 20% withholding for
	// professionals, agents and consultants.
	WithholdingProfessionals = types.MustMoney("0.20")

	// WithholdingNone disables withholding.
	WithholdingNone = types.Zero()
)

// Display labels. Kept in Italian, matching the fiscal documents they
// appear on.
const (
	LabelReverseCharge = "Reverse Charge"
	LabelExempt        = "Esente IVA"

	NoteReverseCharge = "Operazione non soggetta ad IVA ai sensi dell'art. 7-ter del DPR 633/72 - Reverse Charge"
	NoteExempt        = "Operazione esente da IVA"

	complianceReverseChargeApplied       = "Reverse Charge applicato per operazione intracomunitaria B2B"
	complianceReverseChargeNotApplicable = "Reverse Charge non applicabile - verificare requisiti"
	complianceExemptVerify               = "Verificare articolo di legge per esenzione IVA"
	complianceInvoiceReverseCharge       = "Fattura con operazioni in Reverse Charge - verificare adempimenti cliente"
	complianceInvoiceExempt              = "Fattura con operazioni esenti - verificare articoli di legge applicabili"
	complianceWithholdingPayment         = "Ritenuta d'Acconto applicata - versamento entro il 16 del mese successivo"
)

// euCountries lists ISO 3166-1 alpha-2 codes of EU member states.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// IsEUCountry reports whether code is an EU member state code.
// Matching is case-insensitive.
func IsEUCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	upper := [2]byte{code[0], code[1]}
	for i, c := range upper {
		if c >= 'a' && c <= 'z' {
			upper[i] = c - 'a' + 'A'
		}
	}
	_, ok := euCountries[string(upper[:])]
	return ok
}

// IVALabel returns the display label for an IVA rate.
func IVALabel(rate types.Money, reverseCharge, exempt bool) string {
	if reverseCharge {
		return LabelReverseCharge
	}
	if exempt {
		return LabelExempt
	}
	switch {
	case rate.Equal(RateStandard):
		return "22% IVA Ordinaria"
	case rate.Equal(RateReduced):
		return "10% IVA Ridotta"
	case rate.Equal(RateSuperReduced):
		return "4% IVA Super Ridotta"
	case rate.IsZero():
		return LabelExempt
	}
	return fmt.Sprintf("%s%% IVA", rate.Mul(hundred).StringFixed(0))
}

// WithholdingLabel returns the display label for a withholding rate,
// or "" when no withholding applies.
func WithholdingLabel(rate types.Money) string {
	if rate.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s%% Ritenuta d'Acconto", rate.Mul(hundred).StringFixed(0))
}

var hundred = types.MustMoney("100")

// Category couples an IVA rate with the withholding it usually carries.
type Category struct {
	IVARate         types.Money
	WithholdingRate types.Money
	Description     string
}

// CategoryByType maps a product or service type to its tax category.
// Unknown types fall back to general services at the standard rate.
func CategoryByType(itemType string) Category {
	switch itemType {
	case "professional_services", "consulting", "legal_services":
		return Category{RateStandard, WithholdingProfessionals, "Servizi Professionali"}
	case "general_services":
		return Category{RateStandard, WithholdingNone, "Servizi Generali"}
	case "products":
		return Category{RateStandard, WithholdingNone, "Beni Standard"}
	case "food", "books":
		return Category{RateReduced, WithholdingNone, "Prodotti Alimentari"}
	case "essential_goods":
		return Category{RateSuperReduced, WithholdingNone, "Beni di Prima Necessità"}
	case "exempt":
		return Category{RateExempt, WithholdingNone, "Operazioni Esenti"}
	}
	return Category{RateStandard, WithholdingNone, "Servizi Generali"}
}
