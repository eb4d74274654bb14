// file: internals/features/finance/stock/model/stock_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ==============================
   MODEL: stock_items
============================== */

type StockItem struct {
	StockItemID            uuid.UUID `json:"stock_item_id" gorm:"column:stock_item_id;type:uuid;primaryKey"`
	StockItemInstitutionID uuid.UUID `json:"stock_item_institution_id" gorm:"column:stock_item_institution_id;type:uuid;not null;uniqueIndex:uq_stock_items_key,priority:5"`

	StockItemName      string `json:"stock_item_name" gorm:"column:stock_item_name;type:varchar(120);not null;uniqueIndex:uq_stock_items_key,priority:1"`
	StockItemFromClass string `json:"stock_item_from_class" gorm:"column:stock_item_from_class;type:varchar(60);not null;default:'';uniqueIndex:uq_stock_items_key,priority:2"`
	StockItemToClass   string `json:"stock_item_to_class" gorm:"column:stock_item_to_class;type:varchar(60);not null;default:'';uniqueIndex:uq_stock_items_key,priority:3"`
	StockItemCategory  string `json:"stock_item_category" gorm:"column:stock_item_category;type:varchar(60);not null;default:'';uniqueIndex:uq_stock_items_key,priority:4"`

	StockItemQuantity      int             `json:"stock_item_quantity" gorm:"column:stock_item_quantity;not null;default:0"`
	StockItemPurchasePrice decimal.Decimal `json:"stock_item_purchase_price" gorm:"column:stock_item_purchase_price;type:numeric(14,2);not null;default:0"`
	StockItemSellingPrice  decimal.Decimal `json:"stock_item_selling_price" gorm:"column:stock_item_selling_price;type:numeric(14,2);not null;default:0"`

	StockItemCreatedAt time.Time `json:"stock_item_created_at" gorm:"column:stock_item_created_at;type:timestamptz;not null;autoCreateTime"`
	StockItemUpdatedAt time.Time `json:"stock_item_updated_at" gorm:"column:stock_item_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (StockItem) TableName() string { return "stock_items" }

func (m *StockItem) BeforeCreate(tx *gorm.DB) error {
	if m.StockItemID == uuid.Nil {
		m.StockItemID = uuid.New()
	}
	return nil
}

func (m *StockItem) Clone() *StockItem {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

/* ==============================
   MODEL: stock_sales
============================== */

// StockSaleLine freezes the selling price at sale time.
type StockSaleLine struct {
	ItemID   uuid.UUID       `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

type StockSale struct {
	StockSaleID            uuid.UUID `json:"stock_sale_id" gorm:"column:stock_sale_id;type:uuid;primaryKey"`
	StockSaleInstitutionID uuid.UUID `json:"institution_id" gorm:"column:stock_sale_institution_id;type:uuid;not null;index:idx_stock_sales_student,priority:1"`
	StockSaleStudentID     uuid.UUID `json:"student_id" gorm:"column:stock_sale_student_id;type:uuid;not null;index:idx_stock_sales_student,priority:2"`

	StockSaleReceiptID     string `json:"receipt_id" gorm:"column:stock_sale_receipt_id;type:varchar(32);not null;uniqueIndex"`
	StockSaleReceiptNumber int64  `json:"receipt_number" gorm:"column:stock_sale_receipt_number;not null"`

	StockSaleItems       datatypes.JSONType[[]StockSaleLine] `json:"items" gorm:"column:stock_sale_items;type:jsonb;not null"`
	StockSaleTotal       decimal.Decimal                     `json:"total" gorm:"column:stock_sale_total;type:numeric(14,2);not null"`
	StockSalePaymentMode string                              `json:"payment_mode" gorm:"column:stock_sale_payment_mode;type:varchar(30)"`
	StockSaleRecordedBy  string                              `json:"recorded_by,omitempty" gorm:"column:stock_sale_recorded_by;type:varchar(80)"`
	StockSaleTimestamp   time.Time                           `json:"timestamp" gorm:"column:stock_sale_timestamp;type:timestamptz;not null"`
}

func (StockSale) TableName() string { return "stock_sales" }

func (m *StockSale) Lines() []StockSaleLine { return m.StockSaleItems.Data() }

func (m *StockSale) Clone() *StockSale {
	if m == nil {
		return nil
	}
	cp := *m
	lines := append([]StockSaleLine(nil), m.Lines()...)
	cp.StockSaleItems = datatypes.NewJSONType(lines)
	return &cp
}
