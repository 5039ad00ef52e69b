package schema

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qualtrack/internal/errs"
	"qualtrack/internal/infrastructure/persistence/rdb/model"
)

const versionKey = "schema_version"

type SchemaMeta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	MetaKey   string    `gorm:"column:meta_key;size:64;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;size:255;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}

type migration struct {
	version int
	name    string
	apply   func(tx *gorm.DB) error
}

// migrations are append-only; a released step is never edited.
var migrations = []migration{
	{
		version: 1,
		name:    "qualification core tables",
		apply: func(tx *gorm.DB) error {
			return tx.AutoMigrate(model.All()...)
		},
	},
}

// CurrentVersion is the version this binary migrates to.
func CurrentVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies pending migrations in order and records the reached version.
// It is idempotent and refuses a database written by a newer binary.
func Migrate(db *gorm.DB) (int, error) {
	if db == nil {
		return 0, errors.New("db is required")
	}
	if err := db.AutoMigrate(&SchemaMeta{}); err != nil {
		return 0, errs.Wrap(err, "migrate schema_meta")
	}

	current, err := StoredVersion(db)
	if err != nil {
		return 0, err
	}
	if current > CurrentVersion() {
		return current, fmt.Errorf("database schema version %d is newer than supported %d", current, CurrentVersion())
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.apply(tx); err != nil {
				return errs.Wrapf(err, "apply migration %d (%s)", m.version, m.name)
			}
			return setVersion(tx, m.version)
		}); err != nil {
			return current, err
		}
		current = m.version
	}
	return current, nil
}

// StoredVersion returns 0 for a fresh database.
func StoredVersion(db *gorm.DB) (int, error) {
	var row SchemaMeta
	result := db.Where("meta_key = ?", versionKey).Limit(1).Find(&row)
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "query schema version")
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	v, err := strconv.Atoi(row.Value)
	if err != nil {
		return 0, errs.Wrapf(err, "parse schema version %q", row.Value)
	}
	return v, nil
}

func setVersion(tx *gorm.DB, version int) error {
	row := SchemaMeta{MetaKey: versionKey, Value: strconv.Itoa(version)}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meta_key"}},
		DoUpdates: clause.Assignments(map[string]any{"value": row.Value, "updated_at": time.Now().UTC()}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "record schema version")
	}
	return nil
}
