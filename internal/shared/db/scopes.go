package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate locks the selected rows until the transaction ends.
// SQLite has no row locks; it serializes writers on the database file instead,
// so the clause is skipped there.
func ForUpdate() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
			return db
		}
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
}

// NotDeleted is a GORM scope that filters out soft-deleted records for
// tables queried by name, where gorm cannot apply soft delete on its own.
//
//	db.Table("gallery_images").Scopes(db.NotDeleted("deleted_at")).Count(&n)
func NotDeleted(column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if column == "" {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: nil})
	}
}
