package model

import "gorm.io/gorm"

const tokensCheckConstraint = "chk_organizations_tokens_non_negative"

// All lists every table the service owns, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&Profile{},
		&TokenTransaction{},
		&AIModel{},
		&GeneratedImage{},
	}
}

// Migrate creates or updates the schema. The tokens CHECK constraint is added
// separately because AutoMigrate only emits it when the table is first created.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	m := db.Migrator()
	if !m.HasConstraint(&Organization{}, tokensCheckConstraint) {
		if err := m.CreateConstraint(&Organization{}, tokensCheckConstraint); err != nil {
			return err
		}
	}
	return nil
}
