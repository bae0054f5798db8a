package models

// All lists every persisted model in dependency order. Used by the sqlite
// bootstrap and tests; Postgres schemas come from goose migrations.
func All() []any {
	return []any{
		&Store{},
		&Table{},
		&TableSession{},
		&Category{},
		&Menu{},
		&Order{},
		&OrderItem{},
		&OrderHistory{},
	}
}
