// file: internals/features/finance/stock/service/stock_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	model "schoolfee_backend/internals/features/finance/stock/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type StockService struct {
	store  store.Store
	nextID func() string
	log    *zap.Logger
	now    func() time.Time
}

func NewStockService(st store.Store, node *snowflake.Node, receiptPrefix string, log *zap.Logger) *StockService {
	if log == nil {
		log = zap.NewNop()
	}
	prefix := strings.TrimSpace(receiptPrefix)
	if prefix != "" {
		prefix += "-"
	}
	return &StockService{
		store:  st,
		nextID: func() string { return prefix + node.Generate().String() },
		log:    log,
		now:    time.Now,
	}
}

/* =========================
   Inputs
========================= */

type ItemInput struct {
	Name          string
	FromClass     string
	ToClass       string
	Category      string
	Quantity      int
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
}

// ItemPatch: nil means unchanged.
type ItemPatch struct {
	Name          *string
	FromClass     *string
	ToClass       *string
	Category      *string
	Quantity      *int
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
}

type SaleLineInput struct {
	ItemID   *uuid.UUID // skips name resolution when set
	Name     string
	Category string
	Quantity int
}

type SaleInput struct {
	StudentID   uuid.UUID
	Items       []SaleLineInput
	PaymentMode string
	RecordedBy  string
}

func validateItem(inst *instModel.Institution, m *model.StockItem) error {
	bad := map[string]string{}
	if m.StockItemName == "" {
		bad["item_name"] = "required"
	}
	if m.StockItemQuantity < 0 {
		bad["quantity"] = "must not be negative"
	}
	if m.StockItemPurchasePrice.IsNegative() {
		bad["purchase_price"] = "must not be negative"
	}
	if m.StockItemSellingPrice.IsNegative() {
		bad["selling_price"] = "must not be negative"
	}
	if len(inst.InstitutionClassNames) > 0 {
		from := classIndex(inst, m.StockItemFromClass)
		to := classIndex(inst, m.StockItemToClass)
		if m.StockItemFromClass != "" && from < 0 {
			bad["from_class"] = "unknown class"
		}
		if m.StockItemToClass != "" && to < 0 {
			bad["to_class"] = "unknown class"
		}
		if from >= 0 && to >= 0 && from > to {
			bad["to_class"] = "must not come before from_class"
		}
	}
	if len(bad) > 0 {
		return apperr.Validation("invalid stock item", bad)
	}
	return nil
}

func classIndex(inst *instModel.Institution, name string) int {
	if name == "" {
		return -1
	}
	return inst.ClassIndex(name, feeModel.SameName)
}

/* =========================
   Items
========================= */

func (s *StockService) CreateItem(ctx context.Context, institutionID uuid.UUID, in ItemInput) (*model.StockItem, error) {
	m := &model.StockItem{
		StockItemID:            uuid.New(),
		StockItemInstitutionID: institutionID,
		StockItemName:          feeModel.NormalizeName(in.Name),
		StockItemFromClass:     feeModel.NormalizeName(in.FromClass),
		StockItemToClass:       feeModel.NormalizeName(in.ToClass),
		StockItemCategory:      feeModel.NormalizeName(in.Category),
		StockItemQuantity:      in.Quantity,
		StockItemPurchasePrice: in.PurchasePrice.Round(2),
		StockItemSellingPrice:  in.SellingPrice.Round(2),
	}
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		inst, err := tx.Institutions().Get(ctx, institutionID)
		if err != nil {
			return err
		}
		if err := validateItem(inst, m); err != nil {
			return err
		}
		return tx.Stock().CreateItem(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("stock item created",
		zap.String("institution_id", institutionID.String()),
		zap.String("item", m.StockItemName),
		zap.Int("quantity", m.StockItemQuantity),
	)
	return m, nil
}

func (s *StockService) GetItem(ctx context.Context, institutionID, itemID uuid.UUID) (*model.StockItem, error) {
	return s.store.Stock().GetItem(ctx, institutionID, itemID)
}

func (s *StockService) ListItems(ctx context.Context, f store.StockItemFilter) ([]*model.StockItem, int64, error) {
	return s.store.Stock().ListItems(ctx, f)
}

func (s *StockService) UpdateItem(ctx context.Context, institutionID, itemID uuid.UUID, p ItemPatch) (*model.StockItem, error) {
	var out *model.StockItem
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		inst, err := tx.Institutions().Get(ctx, institutionID)
		if err != nil {
			return err
		}
		m, err := tx.Stock().GetItemForUpdate(ctx, institutionID, itemID)
		if err != nil {
			return err
		}
		if p.Name != nil {
			m.StockItemName = feeModel.NormalizeName(*p.Name)
		}
		if p.FromClass != nil {
			m.StockItemFromClass = feeModel.NormalizeName(*p.FromClass)
		}
		if p.ToClass != nil {
			m.StockItemToClass = feeModel.NormalizeName(*p.ToClass)
		}
		if p.Category != nil {
			m.StockItemCategory = feeModel.NormalizeName(*p.Category)
		}
		if p.Quantity != nil {
			m.StockItemQuantity = *p.Quantity
		}
		if p.PurchasePrice != nil {
			m.StockItemPurchasePrice = p.PurchasePrice.Round(2)
		}
		if p.SellingPrice != nil {
			m.StockItemSellingPrice = p.SellingPrice.Round(2)
		}
		if err := validateItem(inst, m); err != nil {
			return err
		}
		if err := tx.Stock().SaveItem(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// DeleteItem leaves past sales alone; they carry their own copy of the line.
func (s *StockService) DeleteItem(ctx context.Context, institutionID, itemID uuid.UUID) error {
	ok, err := s.store.Stock().DeleteItem(ctx, institutionID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("stock item", itemID.String())
	}
	return nil
}

/* =========================
   Sales
========================= */

// RecordStockSale copies each item's selling price into the sale and takes
// the quantities out of stock, all in one transaction.
func (s *StockService) RecordStockSale(ctx context.Context, institutionID uuid.UUID, in SaleInput) (*model.StockSale, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Field("items", "at least one item is required")
	}
	for i, l := range in.Items {
		if l.Quantity <= 0 {
			return nil, apperr.Field(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if l.ItemID == nil && feeModel.NormalizeName(l.Name) == "" {
			return nil, apperr.Field(fmt.Sprintf("items[%d].item_name", i), "required")
		}
	}

	var out *model.StockSale
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		inst, err := tx.Institutions().Get(ctx, institutionID)
		if err != nil {
			return err
		}
		st, err := tx.Students().Get(ctx, institutionID, in.StudentID)
		if err != nil {
			return err
		}

		lines := make([]model.StockSaleLine, 0, len(in.Items))
		total := decimal.Zero
		for i, l := range in.Items {
			item, err := s.resolveItem(ctx, tx, inst, st.StudentClass, l)
			if err != nil {
				return err
			}
			if item.StockItemQuantity < l.Quantity {
				return apperr.Validation("insufficient stock", map[string]string{
					fmt.Sprintf("items[%d].quantity", i): fmt.Sprintf("only %d of %s left", item.StockItemQuantity, item.StockItemName),
				})
			}
			item.StockItemQuantity -= l.Quantity
			if err := tx.Stock().SaveItem(ctx, item); err != nil {
				return err
			}
			lineTotal := item.StockItemSellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			lines = append(lines, model.StockSaleLine{
				ItemID:   item.StockItemID,
				ItemName: item.StockItemName,
				Quantity: l.Quantity,
				Price:    item.StockItemSellingPrice,
				Total:    lineTotal,
			})
			total = total.Add(lineTotal)
		}

		seq, err := tx.Sequences().Next(ctx, institutionID, payModel.SequenceStockReceipt)
		if err != nil {
			return err
		}
		sale := &model.StockSale{
			StockSaleID:            uuid.New(),
			StockSaleInstitutionID: institutionID,
			StockSaleStudentID:     st.StudentID,
			StockSaleReceiptID:     s.nextID(),
			StockSaleReceiptNumber: seq,
			StockSaleItems:         datatypes.NewJSONType(lines),
			StockSaleTotal:         total,
			StockSalePaymentMode:   strings.TrimSpace(in.PaymentMode),
			StockSaleRecordedBy:    in.RecordedBy,
			StockSaleTimestamp:     s.now(),
		}
		if err := tx.Stock().CreateSale(ctx, sale); err != nil {
			return err
		}
		out = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("stock sale recorded",
		zap.String("institution_id", institutionID.String()),
		zap.String("student_id", out.StockSaleStudentID.String()),
		zap.String("receipt_id", out.StockSaleReceiptID),
		zap.String("total", out.StockSaleTotal.StringFixed(2)),
	)
	return out, nil
}

// resolveItem picks the one item matching name, optional category and the
// student's class range.
func (s *StockService) resolveItem(ctx context.Context, tx store.Repos, inst *instModel.Institution, class string, l SaleLineInput) (*model.StockItem, error) {
	if l.ItemID != nil {
		return tx.Stock().GetItemForUpdate(ctx, inst.InstitutionID, *l.ItemID)
	}
	name := feeModel.NormalizeName(l.Name)
	cands, err := tx.Stock().FindItemsByName(ctx, inst.InstitutionID, name)
	if err != nil {
		return nil, err
	}
	category := feeModel.NormalizeName(l.Category)
	var hits []*model.StockItem
	for _, it := range cands {
		if category != "" && !feeModel.SameName(it.StockItemCategory, category) {
			continue
		}
		if !classInRange(inst, class, it.StockItemFromClass, it.StockItemToClass) {
			continue
		}
		hits = append(hits, it)
	}
	switch len(hits) {
	case 0:
		return nil, apperr.NotFound("stock item", name)
	case 1:
		return tx.Stock().GetItemForUpdate(ctx, inst.InstitutionID, hits[0].StockItemID)
	}
	return nil, apperr.Validation("ambiguous stock item", map[string]string{
		"item_name": fmt.Sprintf("%d items named %s match, pass category or item_id", len(hits), name),
	})
}

// classInRange treats an empty bound as open. Classes missing from the
// institution list only match a bound of the same name.
func classInRange(inst *instModel.Institution, class, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	if (from != "" && feeModel.SameName(class, from)) || (to != "" && feeModel.SameName(class, to)) {
		return true
	}
	i := classIndex(inst, class)
	if i < 0 {
		return false
	}
	if from != "" {
		lo := classIndex(inst, from)
		if lo < 0 || i < lo {
			return false
		}
	}
	if to != "" {
		hi := classIndex(inst, to)
		if hi < 0 || i > hi {
			return false
		}
	}
	return true
}

func (s *StockService) GetSale(ctx context.Context, institutionID uuid.UUID, receiptID string) (*model.StockSale, error) {
	return s.store.Stock().GetSaleByReceiptID(ctx, institutionID, strings.TrimSpace(receiptID))
}

func (s *StockService) ListSales(ctx context.Context, f store.StockSaleFilter) ([]*model.StockSale, int64, error) {
	return s.store.Stock().ListSales(ctx, f)
}
