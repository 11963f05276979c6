package registration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/scolarite/core/registration"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "0,00 €"},
		{cents: 5, want: "0,05 €"},
		{cents: 15000, want: "150,00 €"},
		{cents: 1234567, want: "12345,67 €"},
		{cents: -250, want: "-2,50 €"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, registration.FormatCents(tt.cents))
		})
	}
}

func TestPayment_Receipt(t *testing.T) {
	fam := registration.Family{Name: "Dupont"}
	pmt := registration.Payment{
		ID:                "p1",
		CashCents:         10000,
		CardCents:         2050,
		RefundCents:       1000,
		MaterialsQuantity: 2,
		Remarks:           "reste 20 € en octobre",
		Cheques: []registration.Cheque{
			{Count: 3, AmountCents: 15000, Bank: "LCL", PayerName: "Claire Dupont"},
			{Count: 1, AmountCents: 4000},
			{Count: 1, AmountCents: 1000, PayerName: "Paul"},
		},
		CreatedAt: time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC),
	}

	got := pmt.Receipt(fam)
	for _, line := range []string{
		"Famille : Dupont\n",
		"Date : 02/09/2025\n",
		"Référence : p1\n",
		"Espèces : 100,00 €\n",
		"Carte : 20,50 €\n",
		"Virement : 0,00 €\n",
		"Chèques : 3 x 150,00 € (LCL, Claire Dupont)\n",
		"Chèques : 1 x 40,00 €\n",
		"Chèques : 1 x 10,00 € (Paul)\n",
		"Remboursement : -10,00 €\n",
		"Matériel : 2\n",
		"Total : 610,50 €\n",
		"Remarques : reste 20 € en octobre\n",
	} {
		assert.Contains(t, got, line)
	}

	// optional lines
	got = registration.Payment{CashCents: 100}.Receipt(fam)
	assert.NotContains(t, got, "Remboursement")
	assert.NotContains(t, got, "Matériel")
	assert.NotContains(t, got, "Remarques")
	assert.NotContains(t, got, "Chèques")
	assert.Contains(t, got, "Total : 1,00 €\n")
}
