package repository

import (
	"errors"
	"math/rand"
	"regexp"
	"strings"

	"billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) DB() *gorm.DB {
	return r.db
}

// Create assigns a fresh unique product code before inserting.
func (r *ProductRepository) Create(p *models.Product) error {
	code, err := r.generateUniqueCode(p.Name)
	if err != nil {
		return err
	}
	p.ProductCode = code
	return r.db.Create(p).Error
}

// UpdateDetails writes the editable fields. Stock is never written
// absolutely; it moves only through AdjustStock deltas.
func (r *ProductRepository) UpdateDetails(p *models.Product) error {
	return r.db.Model(&models.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
		}).Error
}

// AdjustStock applies a relative stock delta in a single UPDATE so concurrent
// adjustments cannot lose writes.
func (r *ProductRepository) AdjustStock(id uuid.UUID, delta int) error {
	return r.db.Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

func (r *ProductRepository) GetByID(id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

type ProductFilter struct {
	Query       string
	DeletedOnly bool
	Offset      int
	Limit       int
}

func (r *ProductRepository) List(f ProductFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if f.DeletedOnly {
		query = query.Unscoped().Where("deleted_at IS NOT NULL")
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(product_code) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&products).Error
	return products, total, err
}

func (r *ProductRepository) BulkSoftDelete(ids []uuid.UUID) (int64, error) {
	res := r.db.Where("id IN ?", ids).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

func (r *ProductRepository) BulkRestore(ids []uuid.UUID) (int64, error) {
	res := r.db.Unscoped().Model(&models.Product{}).
		Where("id IN ? AND deleted_at IS NOT NULL", ids).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9 ]`)

// ProductCodePrefix builds the 3-letter prefix for a product code from the
// product name, e.g. "Classic Blue T-Shirt" -> "CBT". Short names are padded
// from the first word, then with X.
func ProductCodePrefix(name string) string {
	clean := strings.TrimSpace(nonAlnum.ReplaceAllString(name, ""))
	words := strings.Fields(clean)

	var prefix strings.Builder
	for i, w := range words {
		if i >= 3 {
			break
		}
		prefix.WriteString(strings.ToUpper(w[:1]))
	}

	p := prefix.String()
	if len(p) < 3 && len(words) > 0 {
		first := strings.ToUpper(words[0])
		for i := 1; i < len(first) && len(p) < 3; i++ {
			p += string(first[i])
		}
	}
	for len(p) < 3 {
		p += "X"
	}
	return p
}

// generateUniqueCode produces an "ABC-1234" code, retrying on collision.
func (r *ProductRepository) generateUniqueCode(name string) (string, error) {
	prefix := ProductCodePrefix(name)
	for attempt := 0; attempt < 50; attempt++ {
		code := prefix + "-" + randomDigits(4)
		var count int64
		if err := r.db.Unscoped().Model(&models.Product{}).
			Where("product_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique product code")
}

func randomDigits(n int) string {
	const digits = "0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}
