// file: internals/features/finance/stock/dto/stock_dto.go
package dto

import (
	"time"

	model "schoolfee_backend/internals/features/finance/stock/model"
	"schoolfee_backend/internals/features/finance/stock/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* =========================================================
   REQUESTS
========================================================= */

type CreateItemRequest struct {
	ItemName      string          `json:"item_name"  validate:"required,max=120"`
	FromClass     string          `json:"from_class" validate:"omitempty,max=60"`
	ToClass       string          `json:"to_class"   validate:"omitempty,max=60"`
	Category      string          `json:"category"   validate:"omitempty,max=60"`
	Quantity      int             `json:"quantity"   validate:"gte=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

func (r *CreateItemRequest) ToInput() service.ItemInput {
	return service.ItemInput{
		Name:          r.ItemName,
		FromClass:     r.FromClass,
		ToClass:       r.ToClass,
		Category:      r.Category,
		Quantity:      r.Quantity,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
	}
}

type UpdateItemRequest struct {
	ItemName      *string          `json:"item_name"  validate:"omitempty,max=120"`
	FromClass     *string          `json:"from_class" validate:"omitempty,max=60"`
	ToClass       *string          `json:"to_class"   validate:"omitempty,max=60"`
	Category      *string          `json:"category"   validate:"omitempty,max=60"`
	Quantity      *int             `json:"quantity"   validate:"omitempty,gte=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
}

func (r *UpdateItemRequest) ToPatch() service.ItemPatch {
	return service.ItemPatch{
		Name:          r.ItemName,
		FromClass:     r.FromClass,
		ToClass:       r.ToClass,
		Category:      r.Category,
		Quantity:      r.Quantity,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
	}
}

type SaleLineRequest struct {
	ItemID   *uuid.UUID `json:"item_id"`
	ItemName string     `json:"item_name" validate:"omitempty,max=120"`
	Category string     `json:"category"  validate:"omitempty,max=60"`
	Quantity int        `json:"quantity"  validate:"required,gt=0"`
}

type RecordSaleRequest struct {
	StudentID   uuid.UUID         `json:"student_id"   validate:"required"`
	Items       []SaleLineRequest `json:"items"        validate:"required,min=1,dive"`
	PaymentMode string            `json:"payment_mode" validate:"omitempty,max=30"`
}

func (r *RecordSaleRequest) ToInput(recordedBy string) service.SaleInput {
	in := service.SaleInput{StudentID: r.StudentID, PaymentMode: r.PaymentMode, RecordedBy: recordedBy}
	for _, l := range r.Items {
		in.Items = append(in.Items, service.SaleLineInput{
			ItemID:   l.ItemID,
			Name:     l.ItemName,
			Category: l.Category,
			Quantity: l.Quantity,
		})
	}
	return in
}

/* =========================================================
   RESPONSES
========================================================= */

type ItemResponse struct {
	ID            uuid.UUID       `json:"stock_item_id"`
	ItemName      string          `json:"item_name"`
	FromClass     string          `json:"from_class"`
	ToClass       string          `json:"to_class"`
	Category      string          `json:"category"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func FromItem(m *model.StockItem) ItemResponse {
	return ItemResponse{
		ID:            m.StockItemID,
		ItemName:      m.StockItemName,
		FromClass:     m.StockItemFromClass,
		ToClass:       m.StockItemToClass,
		Category:      m.StockItemCategory,
		Quantity:      m.StockItemQuantity,
		PurchasePrice: m.StockItemPurchasePrice,
		SellingPrice:  m.StockItemSellingPrice,
		UpdatedAt:     m.StockItemUpdatedAt,
	}
}

func FromItems(rows []*model.StockItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, FromItem(m))
	}
	return out
}

type SaleResponse struct {
	ReceiptID     string                `json:"receipt_id"`
	ReceiptNumber int64                 `json:"receipt_number"`
	StudentID     uuid.UUID             `json:"student_id"`
	Items         []model.StockSaleLine `json:"items"`
	Total         decimal.Decimal       `json:"total"`
	PaymentMode   string                `json:"payment_mode"`
	RecordedBy    string                `json:"recorded_by,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}

func FromSale(m *model.StockSale) SaleResponse {
	return SaleResponse{
		ReceiptID:     m.StockSaleReceiptID,
		ReceiptNumber: m.StockSaleReceiptNumber,
		StudentID:     m.StockSaleStudentID,
		Items:         m.Lines(),
		Total:         m.StockSaleTotal,
		PaymentMode:   m.StockSalePaymentMode,
		RecordedBy:    m.StockSaleRecordedBy,
		Timestamp:     m.StockSaleTimestamp,
	}
}

func FromSales(rows []*model.StockSale) []SaleResponse {
	out := make([]SaleResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, FromSale(m))
	}
	return out
}
