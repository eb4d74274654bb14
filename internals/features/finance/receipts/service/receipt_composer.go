// file: internals/features/finance/receipts/service/receipt_composer.go
package service

import (
	"fmt"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	stockModel "schoolfee_backend/internals/features/finance/stock/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"

	"github.com/shopspring/decimal"
)

/* =========================================================
   Document
========================================================= */

const (
	CopyInstitution = "Institution Copy"
	CopyPayee       = "Payee Copy"

	KindFee   = "fee"
	KindStock = "stock"
)

type ReceiptLine struct {
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	Display string          `json:"display"`
}

type ReceiptParty struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type ReceiptStudent struct {
	FeeID        string `json:"fee_id"`
	Name         string `json:"name"`
	FatherName   string `json:"father_name,omitempty"`
	Class        string `json:"class"`
	Division     string `json:"division,omitempty"`
	AcademicYear string `json:"academic_year"`
	Medium       string `json:"medium"`
}

// ReceiptBody is what every copy prints.
type ReceiptBody struct {
	Kind          string          `json:"kind"`
	ReceiptID     string          `json:"receipt_id"`
	ReceiptNumber int64           `json:"receipt_number"`
	Date          string          `json:"date"`
	Institution   ReceiptParty    `json:"institution"`
	Student       ReceiptStudent  `json:"student"`
	Title         string          `json:"title"`
	Lines         []ReceiptLine   `json:"lines"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDisplay string          `json:"amount_display"`
	AmountInWords string          `json:"amount_in_words"`
}

type ReceiptCopy struct {
	Label string      `json:"label"`
	Body  ReceiptBody `json:"body"`
}

type ReceiptDocument struct {
	Copies []ReceiptCopy `json:"copies"`
}

func twoCopies(b ReceiptBody) *ReceiptDocument {
	// copies share no slices
	payee := b
	payee.Lines = append([]ReceiptLine(nil), b.Lines...)
	return &ReceiptDocument{Copies: []ReceiptCopy{
		{Label: CopyInstitution, Body: b},
		{Label: CopyPayee, Body: payee},
	}}
}

func line(label string, v decimal.Decimal) ReceiptLine {
	return ReceiptLine{Label: label, Amount: v, Display: FormatRupees(v)}
}

func receiptDate(t time.Time) string { return t.Format("02-Jan-2006") }

func party(inst *instModel.Institution) ReceiptParty {
	if inst == nil {
		return ReceiptParty{}
	}
	return ReceiptParty{
		Name:    inst.InstitutionName,
		Address: inst.InstitutionAddress,
		Phone:   inst.InstitutionPhone,
		Email:   inst.InstitutionEmail,
	}
}

func studentOf(st *studentModel.Student) ReceiptStudent {
	return ReceiptStudent{
		FeeID:        st.StudentFeeID,
		Name:         st.FullName(),
		FatherName:   st.StudentFatherName,
		Class:        st.StudentClass,
		Division:     st.StudentDivision,
		AcademicYear: st.StudentAcademicYear,
		Medium:       st.Medium(),
	}
}

/* =========================================================
   Fee receipt
========================================================= */

// Compose renders a fee receipt purely from the transaction snapshot, so a
// receipt printed today matches the one printed on the day of payment.
func Compose(st *studentModel.Student, inst *instModel.Institution, tx *payModel.FeeTransaction) *ReceiptDocument {
	snap := tx.HistoricalSnapshot
	cat := tx.FeeTransactionCategory

	feeLabel := cat.Label() + " Fee"
	if tx.FeeTransactionAcademicYear != st.StudentAcademicYear {
		feeLabel = "Last Year " + feeLabel
	}
	lines := []ReceiptLine{line(feeLabel, snap.InitialFee)}
	if cat.DiscountEligible() {
		lines = append(lines,
			line("Discount", snap.ApplicableDiscount),
			line("Net Fee After Discount", snap.NetFee()),
		)
	}
	lines = append(lines,
		line(fmt.Sprintf("Previous Payments (till %s)", receiptDate(tx.FeeTransactionTimestamp)), snap.PreviousPayments),
		line(thisPaymentLabel(tx), tx.FeeTransactionAmount),
		line("Remaining Balance", snap.RemainingAfter),
	)

	return twoCopies(ReceiptBody{
		Kind:          KindFee,
		ReceiptID:     tx.FeeTransactionReceiptID,
		ReceiptNumber: tx.FeeTransactionReceiptNumber,
		Date:          receiptDate(tx.FeeTransactionTimestamp),
		Institution:   party(inst),
		Student:       studentOf(st),
		Title:         fmt.Sprintf("%s Fee Receipt %s", cat.Label(), tx.FeeTransactionAcademicYear),
		Lines:         lines,
		AmountPaid:    tx.FeeTransactionAmount,
		AmountDisplay: FormatRupees(tx.FeeTransactionAmount),
		AmountInWords: AmountInWords(tx.FeeTransactionAmount),
	})
}

func thisPaymentLabel(tx *payModel.FeeTransaction) string {
	var parts []string
	for _, p := range []string{tx.FeeTransactionPaymentMode, tx.FeeTransactionAccount, tx.FeeTransactionRemark} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "This Payment"
	}
	return "This Payment (" + strings.Join(parts, " / ") + ")"
}

/* =========================================================
   Stock receipt
========================================================= */

// ComposeStockReceipt lists each sold line at its frozen price.
func ComposeStockReceipt(st *studentModel.Student, inst *instModel.Institution, sale *stockModel.StockSale) *ReceiptDocument {
	var lines []ReceiptLine
	for _, l := range sale.Lines() {
		lines = append(lines, line(
			fmt.Sprintf("%s x %d @ %s", l.ItemName, l.Quantity, FormatRupees(l.Price)),
			l.Total,
		))
	}
	lines = append(lines, line("Total", sale.StockSaleTotal))
	if mode := strings.TrimSpace(sale.StockSalePaymentMode); mode != "" {
		lines[len(lines)-1].Label = "Total (" + mode + ")"
	}

	return twoCopies(ReceiptBody{
		Kind:          KindStock,
		ReceiptID:     sale.StockSaleReceiptID,
		ReceiptNumber: sale.StockSaleReceiptNumber,
		Date:          receiptDate(sale.StockSaleTimestamp),
		Institution:   party(inst),
		Student:       studentOf(st),
		Title:         feeModel.CategoryItem.Label() + " Receipt",
		Lines:         lines,
		AmountPaid:    sale.StockSaleTotal,
		AmountDisplay: FormatRupees(sale.StockSaleTotal),
		AmountInWords: AmountInWords(sale.StockSaleTotal),
	})
}
