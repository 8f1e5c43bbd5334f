package models

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// SalesRepository persists the sales of a single ledger.
type SalesRepository struct {
	db     *gorm.DB
	ledger Ledger
}

func NewSalesRepository(db *gorm.DB, ledger Ledger) *SalesRepository {
	return &SalesRepository{
		db:     db,
		ledger: ledger,
	}
}

func (r *SalesRepository) Ledger() Ledger {
	return r.ledger
}

// List returns every sale that has items, newest first, with items attached.
func (r *SalesRepository) List(ctx context.Context) ([]Sale, error) {
	var result []Sale
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var headers []Sale
		if err := tx.Table(r.ledger.SalesTable).
			Order("created_at DESC").
			Order("id DESC").
			Find(&headers).Error; err != nil {
			return err
		}
		if len(headers) == 0 {
			return nil
		}

		ids := make([]uint, len(headers))
		for i, h := range headers {
			ids[i] = h.ID
		}

		var items []SaleItem
		if err := tx.Table(r.ledger.ItemsTable).
			Where("sale_id IN ?", ids).
			Order("id ASC").
			Find(&items).Error; err != nil {
			return err
		}

		bySale := make(map[uint][]SaleItem, len(headers))
		for _, item := range items {
			bySale[item.SaleID] = append(bySale[item.SaleID], item)
		}

		result = make([]Sale, 0, len(headers))
		for _, h := range headers {
			h.Items = bySale[h.ID]
			if len(h.Items) == 0 {
				continue
			}
			result = append(result, h)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "list %s sales", r.ledger.Name)
	}
	return result, nil
}

// Create stores the header and all items atomically and returns the new sale id.
func (r *SalesRepository) Create(ctx context.Context, saleDate time.Time, items []SaleItem) (uint, error) {
	if err := ValidateSale(saleDate, items); err != nil {
		return 0, err
	}

	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale := Sale{SaleDate: saleDate}
		if err := tx.Table(r.ledger.SalesTable).Create(&sale).Error; err != nil {
			return pkgerrors.Wrap(err, "insert sale header")
		}
		if err := r.insertItems(tx, sale.ID, items); err != nil {
			return err
		}
		id = sale.ID
		return nil
	})
	if err != nil {
		return 0, txError("create "+r.ledger.Name+" sale", err)
	}
	return id, nil
}

// Update replaces the sale date and the whole item set of sale id atomically.
func (r *SalesRepository) Update(ctx context.Context, id uint, saleDate time.Time, items []SaleItem) error {
	if err := ValidateSale(saleDate, items); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(r.ledger.SalesTable).Where("id = ?", id).Update("sale_date", saleDate)
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "update sale header")
		}
		if res.RowsAffected == 0 {
			return ErrSaleNotFound
		}

		if err := tx.Table(r.ledger.ItemsTable).Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
			return pkgerrors.Wrap(err, "delete sale items")
		}
		return r.insertItems(tx, id, items)
	})
	return txError("update "+r.ledger.Name+" sale", err)
}

// Delete removes the items of sale id and then its header, atomically.
func (r *SalesRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.ledger.ItemsTable).Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
			return pkgerrors.Wrap(err, "delete sale items")
		}

		res := tx.Table(r.ledger.SalesTable).Where("id = ?", id).Delete(&Sale{})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "delete sale header")
		}
		if res.RowsAffected == 0 {
			return ErrSaleNotFound
		}
		return nil
	})
	return txError("delete "+r.ledger.Name+" sale", err)
}

// insertItems writes one row per item so a failure stops at the offending item.
func (r *SalesRepository) insertItems(tx *gorm.DB, saleID uint, items []SaleItem) error {
	for i := range items {
		item := items[i]
		item.ID = 0
		item.SaleID = saleID
		if err := tx.Table(r.ledger.ItemsTable).Create(&item).Error; err != nil {
			return pkgerrors.Wrapf(err, "insert sale item %d", i)
		}
	}
	return nil
}
