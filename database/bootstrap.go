// database/bootstrap.go
package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"farmportal/entities"
)

// Models is every table the portal owns, in migration order.
var Models = []any{
	&entities.IDCounter{},
	&entities.User{},
	&entities.Team{},
	&entities.CropType{},
	&entities.Fertilizer{},
	&entities.Equipment{},
	&entities.Stock{},
	&entities.Project{},
	&entities.ProjectTask{},
	&entities.ProjectResource{},
	&entities.Attendance{},
	&entities.Harvest{},
	&entities.ArchiveRecord{},
}

// counterSources maps each counter to the table/column whose ids it hands
// out. Archive ids live in the archive table itself.
var counterSources = []struct{ name, table, column string }{
	{"users", "users", "user_id"},
	{"teams", "teams", "team_id"},
	{"crop_types", "crop_types", "crop_type_id"},
	{"fertilizers", "fertilizers", "fertilizer_id"},
	{"equipments", "equipment", "equipment_id"},
	{"projects", "projects", "project_id"},
	{"harvests", "harvests", "harvest_id"},
	{"archives", "archive_records", "archive_id"},
}

// OpenSQLite opens the database file with a single connection so that
// every transaction is serialized, then migrates it.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates/updates the tables and then raises every counter to at
// least the largest id already stored, so ids are never handed out twice
// after a restore from backup or a manual import.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, src := range counterSources {
			if err := raiseCounter(tx, src.name, src.table, src.column); err != nil {
				return fmt.Errorf("counter %s: %w", src.name, err)
			}
		}
		return nil
	})
}

func raiseCounter(tx *gorm.DB, name, table, column string) error {
	var maxID uint
	q := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) FROM %s`, column, table)
	if err := tx.Raw(q).Scan(&maxID).Error; err != nil {
		return err
	}
	var c entities.IDCounter
	err := tx.Where("name = ?", name).Limit(1).Find(&c).Error
	if err != nil {
		return err
	}
	if c.Name == "" {
		return tx.Create(&entities.IDCounter{Name: name, Value: maxID}).Error
	}
	if c.Value < maxID {
		return tx.Model(&entities.IDCounter{}).Where("name = ?", name).Update("value", maxID).Error
	}
	return nil
}
