package registration

import (
	"fmt"
	"strings"
)

// FormatCents formats an amount of cents in euros, French style: 1234567 -> "12345,67 €".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}

// Receipt renders the plain text receipt of p for fam.
func (p Payment) Receipt(fam Family) string {
	var b strings.Builder
	b.WriteString("Reçu de paiement\n\n")
	fmt.Fprintf(&b, "Famille : %s\n", fam.Name)
	fmt.Fprintf(&b, "Date : %s\n", p.CreatedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Référence : %s\n\n", p.ID)

	fmt.Fprintf(&b, "Espèces : %s\n", FormatCents(p.CashCents))
	fmt.Fprintf(&b, "Carte : %s\n", FormatCents(p.CardCents))
	fmt.Fprintf(&b, "Virement : %s\n", FormatCents(p.TransferCents))
	for _, c := range p.Cheques {
		fmt.Fprintf(&b, "Chèques : %d x %s", c.Count, FormatCents(c.AmountCents))
		if details := strings.Trim(c.Bank+", "+c.PayerName, ", "); details != "" {
			fmt.Fprintf(&b, " (%s)", details)
		}
		b.WriteString("\n")
	}
	if p.RefundCents > 0 {
		fmt.Fprintf(&b, "Remboursement : -%s\n", FormatCents(p.RefundCents))
	}
	if p.MaterialsQuantity > 0 {
		fmt.Fprintf(&b, "Matériel : %d\n", p.MaterialsQuantity)
	}
	fmt.Fprintf(&b, "\nTotal : %s\n", FormatCents(p.TotalCents()))
	if p.Remarks != "" {
		fmt.Fprintf(&b, "\nRemarques : %s\n", p.Remarks)
	}
	return b.String()
}
