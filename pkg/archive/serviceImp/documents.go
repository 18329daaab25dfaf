package serviceImp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/archive/service"
)

// document moves one collection's rows in and out of the archive.
type document interface {
	snapshot(ctx context.Context, tx *gorm.DB, id uint) (payload []byte, name string, err error)
	remove(ctx context.Context, tx *gorm.DB, id uint) error
	restore(ctx context.Context, tx *gorm.DB, payload []byte) (id uint, name string, err error)
}

type table[T any] struct {
	what       string
	idColumn   string
	nameColumn string
	preload    []string
	idOf       func(*T) uint
	nameOf     func(*T) string
	// uniqueOf is the value checked against nameColumn on restore;
	// defaults to nameOf.
	uniqueOf func(*T) string
	guard    func(*T) error
	encode   func(*T) ([]byte, error)
	decode   func([]byte) (*T, error)
	children []any
}

func (t table[T]) snapshot(ctx context.Context, tx *gorm.DB, id uint) ([]byte, string, error) {
	q := tx.WithContext(ctx)
	for _, p := range t.preload {
		q = q.Preload(p)
	}
	var v T
	if err := q.Where(t.idColumn+" = ?", id).First(&v).Error; err != nil {
		return nil, "", apperr.FromDB(err, t.what)
	}
	if t.guard != nil {
		if err := t.guard(&v); err != nil {
			return nil, "", err
		}
	}
	var payload []byte
	var err error
	if t.encode != nil {
		payload, err = t.encode(&v)
	} else {
		payload, err = json.Marshal(&v)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", t.what, err)
	}
	return payload, t.nameOf(&v), nil
}

func (t table[T]) remove(ctx context.Context, tx *gorm.DB, id uint) error {
	tx = tx.WithContext(ctx)
	for _, child := range t.children {
		// children reference the parent through project_id
		if err := tx.Where(t.idColumn+" = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	res := tx.Where(t.idColumn+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(t.what)
	}
	return nil
}

func (t table[T]) restore(ctx context.Context, tx *gorm.DB, payload []byte) (uint, string, error) {
	var v *T
	var err error
	if t.decode != nil {
		v, err = t.decode(payload)
	} else {
		v = new(T)
		err = json.Unmarshal(payload, v)
	}
	if err != nil {
		return 0, "", fmt.Errorf("decode %s: %w", t.what, err)
	}
	tx = tx.WithContext(ctx)
	id := t.idOf(v)

	var n int64
	if err := tx.Model(new(T)).Where(t.idColumn+" = ?", id).Count(&n).Error; err != nil {
		return 0, "", err
	}
	if n > 0 {
		return 0, "", apperr.Conflict("%s id %d is already in use", t.what, id)
	}
	unique := t.nameOf(v)
	if t.uniqueOf != nil {
		unique = t.uniqueOf(v)
	}
	if err := tx.Model(new(T)).
		Where("LOWER("+t.nameColumn+") = ?", strings.ToLower(unique)).
		Count(&n).Error; err != nil {
		return 0, "", err
	}
	if n > 0 {
		return 0, "", apperr.Conflict("another %s named %q exists", t.what, unique)
	}
	if err := tx.Create(v).Error; err != nil {
		return 0, "", err
	}
	return id, t.nameOf(v), nil
}

// archivedUser keeps the password hash, which the entity hides from JSON.
type archivedUser struct {
	*entities.User
	PasswordHash string `json:"password_hash"`
}

func catalogTable[T any, P interface {
	*T
	entities.CatalogItem
}](idColumn string) table[T] {
	var zero T
	return table[T]{
		what:       P(&zero).Kind(),
		idColumn:   idColumn,
		nameColumn: "name",
		idOf:       func(v *T) uint { return P(v).ItemID() },
		nameOf:     func(v *T) string { return P(v).Fields().Name },
	}
}

func registry() map[string]document {
	crop := catalogTable[entities.CropType]("crop_type_id")
	crop.what = "crop type"
	return map[string]document{
		service.TypeUser: table[entities.User]{
			what:       "user",
			idColumn:   "user_id",
			nameColumn: "email",
			idOf:       func(u *entities.User) uint { return u.UserID },
			nameOf: func(u *entities.User) string {
				if n := u.FullName(); n != "" {
					return n + " <" + u.Email + ">"
				}
				return u.Email
			},
			uniqueOf: func(u *entities.User) string { return u.Email },
			encode: func(u *entities.User) ([]byte, error) {
				return json.Marshal(archivedUser{User: u, PasswordHash: u.PasswordHash})
			},
			decode: func(b []byte) (*entities.User, error) {
				w := archivedUser{User: &entities.User{}}
				if err := json.Unmarshal(b, &w); err != nil {
					return nil, err
				}
				w.User.PasswordHash = w.PasswordHash
				return w.User, nil
			},
		},
		service.TypeCropType:   crop,
		service.TypeFertilizer: catalogTable[entities.Fertilizer]("fertilizer_id"),
		service.TypeEquipment:  catalogTable[entities.Equipment]("equipment_id"),
		service.TypeProject: table[entities.Project]{
			what:       "project",
			idColumn:   "project_id",
			nameColumn: "name",
			preload:    []string{"Tasks", "Resources", "Attendance"},
			idOf:       func(p *entities.Project) uint { return p.ProjectID },
			nameOf:     func(p *entities.Project) string { return p.Name },
			guard: func(p *entities.Project) error {
				if p.Status == entities.ProjectOngoing {
					return apperr.Invalid("project %q is ongoing; complete or fail it before archiving", p.Name)
				}
				for _, r := range p.Resources {
					if r.Kind == entities.KindEquipment && !r.Returned {
						return apperr.Invalid("project %q still holds %s; fail it to return the equipment before archiving", p.Name, r.ItemName)
					}
				}
				return nil
			},
			children: []any{&entities.ProjectTask{}, &entities.ProjectResource{}, &entities.Attendance{}},
		},
	}
}
