// Package seed loads the initial accounts and catalogs from a YAML file.
// Running it twice changes nothing: existing emails and names are skipped.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	catalogService "farmportal/pkg/catalog/service"
	"farmportal/pkg/logger"
	userRepo "farmportal/pkg/user/repository"
	userService "farmportal/pkg/user/service"
)

type File struct {
	Users       []User       `yaml:"users"`
	CropTypes   []Item       `yaml:"crop_types"`
	Fertilizers []Item       `yaml:"fertilizers"`
	Equipment   []Item       `yaml:"equipment"`
	Stock       []StockEntry `yaml:"stock"`
}

// User carries a plain password; it is hashed when the account is created.
type User struct {
	FirstName     string `yaml:"first_name"`
	LastName      string `yaml:"last_name"`
	Email         string `yaml:"email"`
	Password      string `yaml:"password"`
	Role          string `yaml:"role"`
	Barangay      string `yaml:"barangay"`
	ContactNumber string `yaml:"contact_number"`
}

type Item struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Unit        string `yaml:"unit"`
	Description string `yaml:"description"`
}

func (i Item) input() catalogService.ItemInput {
	return catalogService.ItemInput{Name: i.Name, Category: i.Category, Unit: i.Unit, Description: i.Description}
}

// StockEntry sets an owner's quantity of a catalog item, both named.
type StockEntry struct {
	OwnerEmail string  `yaml:"owner_email"`
	Kind       string  `yaml:"kind"`
	Item       string  `yaml:"item"`
	Quantity   float64 `yaml:"quantity"`
}

type Result struct {
	Created int
	Skipped int
	Stock   int
}

type Deps struct {
	Users       userService.UserService
	UserRepo    userRepo.UserRepository
	Crops       catalogService.CatalogService[entities.CropType]
	Fertilizers catalogService.CatalogService[entities.Fertilizer]
	Equipment   catalogService.CatalogService[entities.Equipment]
	Stock       catalogService.StockService
	Log         *zap.Logger
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

func LoadFile(ctx context.Context, path string, d Deps) (*Result, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer fh.Close()
	f, err := Parse(fh)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, f, d)
}

// skip reports whether err only means the row is already there.
func skip(err error) bool { return errors.Is(err, apperr.ErrConflict) }

func Apply(ctx context.Context, f *File, d Deps) (*Result, error) {
	log := logger.OrNop(d.Log)
	res := &Result{}
	tally := func(what, name string, err error) error {
		switch {
		case err == nil:
			res.Created++
			log.Info("seeded", zap.String("what", what), zap.String("name", name))
		case skip(err):
			res.Skipped++
		default:
			return fmt.Errorf("seed %s %q: %w", what, name, err)
		}
		return nil
	}

	for _, u := range f.Users {
		_, err := d.Users.Create(ctx, userService.CreateInput{
			FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Password: u.Password,
			Role: u.Role, Barangay: u.Barangay, ContactNumber: u.ContactNumber,
		})
		if err := tally("user", u.Email, err); err != nil {
			return res, err
		}
	}
	for _, c := range f.CropTypes {
		_, err := d.Crops.Create(ctx, c.input())
		if err := tally("crop type", c.Name, err); err != nil {
			return res, err
		}
	}
	for _, c := range f.Fertilizers {
		_, err := d.Fertilizers.Create(ctx, c.input())
		if err := tally("fertilizer", c.Name, err); err != nil {
			return res, err
		}
	}
	for _, c := range f.Equipment {
		_, err := d.Equipment.Create(ctx, c.input())
		if err := tally("equipment", c.Name, err); err != nil {
			return res, err
		}
	}

	for _, s := range f.Stock {
		owner, err := d.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(s.OwnerEmail)))
		if err != nil {
			return res, fmt.Errorf("seed stock owner %q: %w", s.OwnerEmail, err)
		}
		id, err := itemID(ctx, d, s.Kind, s.Item)
		if err != nil {
			return res, err
		}
		if _, err := d.Stock.Set(ctx, s.Kind, id, owner.UserID, s.Quantity); err != nil {
			return res, fmt.Errorf("seed stock %s/%s: %w", s.Kind, s.Item, err)
		}
		res.Stock++
	}
	return res, nil
}

func find[T any](ctx context.Context, svc catalogService.CatalogService[T], name string, id func(*T) (uint, string)) (uint, error) {
	all, err := svc.All(ctx)
	if err != nil {
		return 0, err
	}
	for i := range all {
		if n, nm := id(&all[i]); strings.EqualFold(nm, name) {
			return n, nil
		}
	}
	return 0, apperr.NotFound(fmt.Sprintf("catalog item %q", name))
}

func itemID(ctx context.Context, d Deps, kind, name string) (uint, error) {
	switch kind {
	case entities.KindCrop:
		return find(ctx, d.Crops, name, func(c *entities.CropType) (uint, string) { return c.CropTypeID, c.Name })
	case entities.KindFertilizer:
		return find(ctx, d.Fertilizers, name, func(c *entities.Fertilizer) (uint, string) { return c.FertilizerID, c.Name })
	case entities.KindEquipment:
		return find(ctx, d.Equipment, name, func(c *entities.Equipment) (uint, string) { return c.EquipmentID, c.Name })
	}
	return 0, apperr.Invalid("unknown stock kind %q", kind)
}
