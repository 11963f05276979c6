package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/registration"
)

const (
	paymentColumns = "id, family_id, school_year_id, cash_cents, card_cents, transfer_cents, refund_cents, materials_quantity, remarks, created_at"
	chequeColumns  = "payment_id, position, cheque_count, amount_cents, bank, payer_name"
)

type (
	paymentRow struct {
		ID                string    `db:"id"`
		FamilyID          string    `db:"family_id"`
		SchoolYearID      string    `db:"school_year_id"`
		CashCents         int64     `db:"cash_cents"`
		CardCents         int64     `db:"card_cents"`
		TransferCents     int64     `db:"transfer_cents"`
		RefundCents       int64     `db:"refund_cents"`
		MaterialsQuantity int       `db:"materials_quantity"`
		Remarks           string    `db:"remarks"`
		CreatedAt         time.Time `db:"created_at"`
	}

	// chequeRow is one line of a payment's cheques, kept in order by position.
	chequeRow struct {
		PaymentID   string `db:"payment_id"`
		Position    int    `db:"position"`
		Count       int    `db:"cheque_count"`
		AmountCents int64  `db:"amount_cents"`
		Bank        string `db:"bank"`
		PayerName   string `db:"payer_name"`
	}
)

func boilPayment(pmt registration.Payment) (paymentRow, []chequeRow) {
	row := paymentRow{
		ID:                pmt.ID,
		FamilyID:          pmt.FamilyID,
		SchoolYearID:      pmt.SchoolYearID,
		CashCents:         pmt.CashCents,
		CardCents:         pmt.CardCents,
		TransferCents:     pmt.TransferCents,
		RefundCents:       pmt.RefundCents,
		MaterialsQuantity: pmt.MaterialsQuantity,
		Remarks:           pmt.Remarks,
		CreatedAt:         pmt.CreatedAt.UTC(),
	}
	cheques := make([]chequeRow, 0, len(pmt.Cheques))
	for i, c := range pmt.Cheques {
		cheques = append(cheques, chequeRow{
			PaymentID:   pmt.ID,
			Position:    i,
			Count:       c.Count,
			AmountCents: c.AmountCents,
			Bank:        c.Bank,
			PayerName:   c.PayerName,
		})
	}
	return row, cheques
}

func (r paymentRow) unboil(cheques []chequeRow) registration.Payment {
	pmt := registration.Payment{
		ID:                r.ID,
		FamilyID:          r.FamilyID,
		SchoolYearID:      r.SchoolYearID,
		CashCents:         r.CashCents,
		CardCents:         r.CardCents,
		TransferCents:     r.TransferCents,
		RefundCents:       r.RefundCents,
		MaterialsQuantity: r.MaterialsQuantity,
		Remarks:           r.Remarks,
		Cheques:           make([]registration.Cheque, 0, len(cheques)),
		CreatedAt:         r.CreatedAt.UTC(),
	}
	for _, c := range cheques {
		pmt.Cheques = append(pmt.Cheques, registration.Cheque{
			Count:       c.Count,
			AmountCents: c.AmountCents,
			Bank:        c.Bank,
			PayerName:   c.PayerName,
		})
	}
	return pmt
}

func (repo repository) CreatePayment(ctx context.Context, pmt registration.Payment) (registration.Payment, error) {
	pmt.ID = uuid.New().String()
	row, cheques := boilPayment(pmt)

	_, err := repo.namedExec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :family_id, :school_year_id, :cash_cents, :card_cents, :transfer_cents, :refund_cents,
			:materials_quantity, :remarks, :created_at)`,
		row)
	if err != nil {
		return registration.Payment{}, errors.Wrap(err, "inserting payment")
	}

	if len(cheques) > 0 {
		_, err = repo.namedExec(ctx, `
			INSERT INTO payment_cheques (`+chequeColumns+`)
			VALUES (:payment_id, :position, :cheque_count, :amount_cents, :bank, :payer_name)`,
			cheques)
		if err != nil {
			return registration.Payment{}, errors.Wrap(err, "inserting payment cheques")
		}
	}
	return row.unboil(cheques), nil
}

func (repo repository) QueryPayments(ctx context.Context, familyID string) ([]registration.Payment, error) {
	var rows []paymentRow
	err := repo.all(ctx, &rows, "SELECT "+paymentColumns+" FROM payments WHERE family_id = ? ORDER BY created_at, id", familyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	if len(rows) == 0 {
		return []registration.Payment{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var chequeRows []chequeRow
	err = repo.selectIn(ctx, &chequeRows,
		"SELECT "+chequeColumns+" FROM payment_cheques WHERE payment_id IN (?) ORDER BY payment_id, position", ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying payment cheques")
	}
	byPayment := make(map[string][]chequeRow, len(rows))
	for _, c := range chequeRows {
		byPayment[c.PaymentID] = append(byPayment[c.PaymentID], c)
	}

	pmts := make([]registration.Payment, 0, len(rows))
	for _, r := range rows {
		pmts = append(pmts, r.unboil(byPayment[r.ID]))
	}
	return pmts, nil
}
