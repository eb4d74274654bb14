// file: internals/features/finance/payments/model/payment_checkout_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutStatus string

const (
	CheckoutPending CheckoutStatus = "pending"
	CheckoutSettled CheckoutStatus = "settled"
	CheckoutFailed  CheckoutStatus = "failed"
	CheckoutExpired CheckoutStatus = "expired"
)

func (s CheckoutStatus) Final() bool { return s != CheckoutPending }

/* ==============================
   MODEL: payment_checkouts (Midtrans Snap)
============================== */

type PaymentCheckout struct {
	PaymentCheckoutID            uuid.UUID       `json:"payment_checkout_id" gorm:"column:payment_checkout_id;type:uuid;primaryKey"`
	PaymentCheckoutOrderID       string          `json:"order_id" gorm:"column:payment_checkout_order_id;type:varchar(64);not null;uniqueIndex"`
	PaymentCheckoutInstitutionID uuid.UUID       `json:"institution_id" gorm:"column:payment_checkout_institution_id;type:uuid;not null;index"`
	PaymentCheckoutStudentID     uuid.UUID       `json:"student_id" gorm:"column:payment_checkout_student_id;type:uuid;not null"`
	PaymentCheckoutFeeType       string          `json:"fee_type" gorm:"column:payment_checkout_fee_type;type:varchar(60);not null"`
	PaymentCheckoutAmount        decimal.Decimal `json:"amount" gorm:"column:payment_checkout_amount;type:numeric(14,2);not null"`
	PaymentCheckoutAcademicYear  string          `json:"academic_year,omitempty" gorm:"column:payment_checkout_academic_year;type:varchar(5)"`

	PaymentCheckoutStatus      CheckoutStatus `json:"status" gorm:"column:payment_checkout_status;type:varchar(16);not null;default:'pending';index"`
	PaymentCheckoutSnapToken   string         `json:"snap_token,omitempty" gorm:"column:payment_checkout_snap_token;type:text"`
	PaymentCheckoutRedirectURL string         `json:"redirect_url,omitempty" gorm:"column:payment_checkout_redirect_url;type:text"`
	PaymentCheckoutGatewayRaw  string         `json:"-" gorm:"column:payment_checkout_gateway_raw;type:text"`
	PaymentCheckoutReceiptID   *string        `json:"receipt_id,omitempty" gorm:"column:payment_checkout_receipt_id;type:varchar(32)"`
	PaymentCheckoutExpiresAt   time.Time      `json:"expires_at" gorm:"column:payment_checkout_expires_at;type:timestamptz;not null;index"`

	PaymentCheckoutCreatedAt time.Time `json:"created_at" gorm:"column:payment_checkout_created_at;type:timestamptz;not null;autoCreateTime"`
	PaymentCheckoutUpdatedAt time.Time `json:"updated_at" gorm:"column:payment_checkout_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (PaymentCheckout) TableName() string { return "payment_checkouts" }

func (m *PaymentCheckout) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentCheckoutID == uuid.Nil {
		m.PaymentCheckoutID = uuid.New()
	}
	return nil
}

func (m *PaymentCheckout) Clone() *PaymentCheckout {
	if m == nil {
		return nil
	}
	cp := *m
	if m.PaymentCheckoutReceiptID != nil {
		r := *m.PaymentCheckoutReceiptID
		cp.PaymentCheckoutReceiptID = &r
	}
	return &cp
}
