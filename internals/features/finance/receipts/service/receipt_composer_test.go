package service

import (
	"testing"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	stockModel "schoolfee_backend/internals/features/finance/stock/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAmountInWords(t *testing.T) {
	cases := map[string]string{
		"0":          "Zero",
		"1":          "One",
		"1500":       "One Thousand Five Hundred",
		"19":         "Nineteen",
		"2800":       "Two Thousand Eight Hundred",
		"100000":     "One Hundred Thousand",
		"1234567":    "One Million Two Hundred Thirty Four Thousand Five Hundred Sixty Seven",
		"1000000001": "One Billion One",
		"1499.50":    "One Thousand Five Hundred",
		"-2800":      "Two Thousand Eight Hundred",
	}
	for in, want := range cases {
		assert.Equal(t, want, AmountInWords(decimal.RequireFromString(in)), in)
	}
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹\u00a03,000.00", FormatRupees(dec(3000)))
	assert.Equal(t, "₹\u00a01,500.50", FormatRupees(decimal.RequireFromString("1500.5")))
	assert.Equal(t, "-₹\u00a02,800.00", FormatRupees(dec(-2800)))
	assert.Equal(t, "₹\u00a00.00", FormatRupees(decimal.Zero))
}

func sampleStudent() (*studentModel.Student, *instModel.Institution) {
	inst := &instModel.Institution{InstitutionID: uuid.New(), InstitutionName: "Green Valley School", InstitutionPhone: "020-555"}
	st := &studentModel.Student{
		StudentID: uuid.New(), StudentFeeID: "GV-001", StudentFname: "Asha", StudentLname: "Patil",
		StudentClass: "Nursery", StudentDivision: "A", StudentAcademicYear: "24-25", StudentType: "DSS",
	}
	return st, inst
}

func sampleTx(cat feeModel.FeeCategory, year string) *payModel.FeeTransaction {
	return &payModel.FeeTransaction{
		FeeTransactionReceiptID:     "FR-42",
		FeeTransactionReceiptNumber: 2,
		FeeTransactionCategory:      cat,
		FeeTransactionAcademicYear:  year,
		FeeTransactionAmount:        dec(1000),
		FeeTransactionPaymentMode:   "cash",
		FeeTransactionAccount:       "front desk",
		FeeTransactionTimestamp:     time.Date(2024, 7, 3, 11, 0, 0, 0, time.UTC),
		HistoricalSnapshot: payModel.HistoricalSnapshot{
			InitialFee:         dec(6200),
			ApplicableDiscount: dec(5000),
			PreviousPayments:   dec(3000),
			RemainingBefore:    dec(-1800),
			RemainingAfter:     dec(-2800),
		},
	}
}

func labels(d *ReceiptDocument) []string {
	var out []string
	for _, l := range d.Copies[0].Body.Lines {
		out = append(out, l.Label)
	}
	return out
}

func TestComposeFeeReceipt(t *testing.T) {
	st, inst := sampleStudent()
	doc := Compose(st, inst, sampleTx(feeModel.CategorySchool, "24-25"))

	require.Len(t, doc.Copies, 2)
	assert.Equal(t, CopyInstitution, doc.Copies[0].Label)
	assert.Equal(t, CopyPayee, doc.Copies[1].Label)
	assert.Equal(t, doc.Copies[0].Body, doc.Copies[1].Body)

	assert.Equal(t, []string{
		"School Fee",
		"Discount",
		"Net Fee After Discount",
		"Previous Payments (till 03-Jul-2024)",
		"This Payment (cash / front desk)",
		"Remaining Balance",
	}, labels(doc))

	body := doc.Copies[0].Body
	assert.True(t, body.Lines[2].Amount.Equal(dec(1200)))
	assert.Equal(t, "-₹\u00a02,800.00", body.Lines[5].Display)
	assert.Equal(t, "One Thousand", body.AmountInWords)
	assert.Equal(t, "03-Jul-2024", body.Date)
	assert.Equal(t, "Asha Patil", body.Student.Name)
	assert.Equal(t, "Green Valley School", body.Institution.Name)
}

func TestComposeLastYearAndNoDiscount(t *testing.T) {
	st, inst := sampleStudent()

	doc := Compose(st, inst, sampleTx(feeModel.CategorySchool, "23-24"))
	assert.Equal(t, "Last Year School Fee", labels(doc)[0])

	tx := sampleTx(feeModel.CategoryHostel, "24-25")
	tx.FeeTransactionPaymentMode, tx.FeeTransactionAccount = "", ""
	assert.Equal(t, []string{
		"Hostel Fee",
		"Previous Payments (till 03-Jul-2024)",
		"This Payment",
		"Remaining Balance",
	}, labels(Compose(st, inst, tx)))
}

func TestComposeIgnoresLaterStudentChanges(t *testing.T) {
	st, inst := sampleStudent()
	tx := sampleTx(feeModel.CategorySchool, "24-25")
	before := Compose(st, inst, tx)

	// totals moving after the payment do not reach the receipt
	st.SetTotals(dec(99999), dec(0), true)
	st.ApplyPayment(dec(12345))
	after := Compose(st, inst, tx)
	assert.Equal(t, before, after)
}

func TestComposeStockReceipt(t *testing.T) {
	st, inst := sampleStudent()
	sale := &stockModel.StockSale{
		StockSaleReceiptID:     "SR-7",
		StockSaleReceiptNumber: 1,
		StockSaleItems: datatypes.NewJSONType([]stockModel.StockSaleLine{
			{ItemName: "Notebook", Quantity: 3, Price: dec(40), Total: dec(120)},
			{ItemName: "Tie", Quantity: 1, Price: dec(150), Total: dec(150)},
		}),
		StockSaleTotal:       dec(270),
		StockSalePaymentMode: "upi",
		StockSaleTimestamp:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	doc := ComposeStockReceipt(st, inst, sale)
	require.Len(t, doc.Copies, 2)
	assert.Equal(t, []string{"Notebook x 3 @ ₹\u00a040.00", "Tie x 1 @ ₹\u00a0150.00", "Total (upi)"}, labels(doc))
	assert.Equal(t, "Two Hundred Seventy", doc.Copies[1].Body.AmountInWords)
	assert.Equal(t, KindStock, doc.Copies[0].Body.Kind)
}
