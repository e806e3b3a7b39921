package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Category is a spending category row. System categories are shared;
// user categories carry a user_id.
type Category struct {
	ID       string
	Name     string
	Icon     string
	Color    string
	IsSystem bool
}

// systemCategories is the fixed vocabulary the setup command seeds. The
// AI analyzer embeds these names in its prompt.
var systemCategories = []Category{
	{Name: "Alimentos y Bebidas", Icon: "food", Color: "#FF6B6B"},
	{Name: "Transporte", Icon: "car", Color: "#4ECDC4"},
	{Name: "Compras", Icon: "shopping", Color: "#45B7D1"},
	{Name: "Entretenimiento", Icon: "movie", Color: "#FFA07A"},
	{Name: "Servicios", Icon: "home", Color: "#98D8C8"},
	{Name: "Salud", Icon: "medical", Color: "#F7DC6F"},
	{Name: "Educación", Icon: "book", Color: "#BB8FCE"},
	{Name: "Ropa", Icon: "shirt", Color: "#85C1E2"},
	{Name: "Restaurantes", Icon: "restaurant", Color: "#F8B739"},
	{Name: "Gasolina", Icon: "gas", Color: "#52BE80"},
	{Name: "Supermercado", Icon: "cart", Color: "#5DADE2"},
	{Name: "Servicios Públicos", Icon: "light", Color: "#F1948A"},
	{Name: "Internet/Teléfono", Icon: "wifi", Color: "#AED6F1"},
	{Name: "Seguros", Icon: "shield", Color: "#A569BD"},
	{Name: "Otros", Icon: "more", Color: "#95A5A6"},
}

// FindCategories returns every category, system rows first.
func (db *DB) FindCategories(ctx context.Context) ([]Category, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, icon, color, is_system
		FROM categories
		ORDER BY is_system DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Icon, &category.Color, &category.IsSystem); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// CategoryNames returns just the names, for the AI analyzer's prompt.
func (db *DB) CategoryNames(ctx context.Context) ([]string, error) {
	categories, err := db.FindCategories(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, category.Name)
	}
	return names, nil
}

// SeedSystemCategories inserts the predefined categories, skipping any
// that already exist. Returns how many rows were actually inserted.
func (db *DB) SeedSystemCategories(ctx context.Context) (int, error) {
	batch := &pgx.Batch{}
	for _, category := range systemCategories {
		batch.Queue(`
			INSERT INTO categories (name, icon, color, is_system, user_id)
			VALUES ($1, $2, $3, true, NULL)
			ON CONFLICT (name) DO NOTHING
		`, category.Name, category.Icon, category.Color)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range systemCategories {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to seed categories: %w", err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}
	return inserted, nil
}
