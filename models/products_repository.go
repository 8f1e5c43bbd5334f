package models

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// ListByList returns the products of one catalog list, newest first.
func (r *ProductsRepository) ListByList(ctx context.Context, listNumber int) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Where("list_number = ?", listNumber).
		Order("created_at DESC").
		Order("id DESC").
		Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "list products of list %d", listNumber)
	}
	return products, nil
}

// FindByIDs returns the products that exist among ids, keyed by id.
func (r *ProductsRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]Product, error) {
	found := make(map[uint]Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var products []Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "find products by id")
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

// Create inserts the product and fills in its id and creation time.
func (r *ProductsRepository) Create(ctx context.Context, product *Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if err := product.Validate(); err != nil {
		return err
	}
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return pkgerrors.Wrap(err, "create product")
	}
	return nil
}

// Update applies patch to the stored product and returns the result.
func (r *ProductsRepository) Update(ctx context.Context, id uint, patch ProductPatch) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		patch.apply(&product)
		if err := product.Validate(); err != nil {
			return err
		}

		return tx.Model(&product).Select("name", "price", "promotion_quantity", "promotion_price", "list_number").
			Updates(&product).Error
	})
	if err != nil {
		return nil, txError("update product", err)
	}
	return &product, nil
}

// Delete removes the product. Historical sale items keep their snapshot.
func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "delete product %d", id)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
