package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/catalog/repository"
	"farmportal/pkg/paging"
)

type itemPtr[T any] interface {
	*T
	entities.CatalogItem
}

type catalogRepo[T any, P itemPtr[T]] struct {
	db       *gorm.DB
	idColumn string
	what     string
}

// New builds the gorm repository for one catalog table. idColumn is the
// primary key column (crop_type_id, fertilizer_id, equipment_id).
func New[T any, P itemPtr[T]](db *gorm.DB, idColumn string) repository.CatalogRepository[T] {
	var zero T
	return &catalogRepo[T, P]{db: db, idColumn: idColumn, what: P(&zero).Kind()}
}

func NewCatalogs(db *gorm.DB) repository.Catalogs {
	return repository.Catalogs{
		Crops:       New[entities.CropType](db, "crop_type_id"),
		Fertilizers: New[entities.Fertilizer](db, "fertilizer_id"),
		Equipment:   New[entities.Equipment](db, "equipment_id"),
	}
}

func (r *catalogRepo[T, P]) WithTx(tx *gorm.DB) repository.CatalogRepository[T] {
	return &catalogRepo[T, P]{db: tx, idColumn: r.idColumn, what: r.what}
}

func (r *catalogRepo[T, P]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *catalogRepo[T, P]) Update(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *catalogRepo[T, P]) FindByID(ctx context.Context, id uint) (*T, error) {
	var out T
	if err := r.db.WithContext(ctx).Where(r.idColumn+" = ?", id).First(&out).Error; err != nil {
		return nil, apperr.FromDB(err, r.what)
	}
	return &out, nil
}

func (r *catalogRepo[T, P]) Describe(ctx context.Context, id uint) (string, string, error) {
	item, err := r.FindByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	f := P(item).Fields()
	return f.Name, f.Unit, nil
}

func (r *catalogRepo[T, P]) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("LOWER(name) = ? AND "+r.idColumn+" <> ?", strings.ToLower(strings.TrimSpace(name)), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *catalogRepo[T, P]) List(ctx context.Context, query string, p paging.Params) ([]T, int, error) {
	q := r.db.WithContext(ctx).Model(new(T))
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []T
	err := q.Order("name ASC").Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *catalogRepo[T, P]) All(ctx context.Context) ([]T, error) {
	var out []T
	return out, r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
}
