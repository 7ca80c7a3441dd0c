// Package catalog holds the storefront's starter catalog and loads it into
// Postgres.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Batcher is satisfied by *pgxpool.Pool and pgx.Tx.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Stats counts rows actually inserted; rows already present are skipped.
type Stats struct {
	Categories int64
	Products   int64
	Variants   int64
}

// Seed inserts categories, products and variants. Existing rows are left
// untouched, so reruns never reset stock.
func Seed(ctx context.Context, db Batcher) (Stats, error) {
	b := &pgx.Batch{}
	for _, c := range Categories {
		b.Queue(`
			INSERT INTO categories(id, name, slug, gender, display_order, description, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name, c.Slug, c.Gender, c.DisplayOrder, c.Description, c.Image)
	}
	for _, p := range Products {
		var compare *int64
		if p.ComparePrice > 0 {
			v := int64(p.ComparePrice)
			compare = &v
		}
		b.Queue(`
			INSERT INTO products(id, name, slug, description, short_desc, price_cents, compare_price_cents,
				sku, category_id, brand, stock_quantity, is_featured, tags, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Slug, p.Description, p.ShortDesc, p.Price, compare,
			p.SKU, p.CategoryID, p.Brand, p.Stock, p.Featured, p.Tags, p.Image)
		for _, v := range p.Variants {
			b.Queue(`
				INSERT INTO product_variants(id, product_id, size, color, color_hex, stock, price_cents, sku)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (id) DO NOTHING`,
				v.ID, p.ID, v.Size, v.Color, v.ColorHex, v.Stock, v.Price, v.SKU)
		}
	}

	br := db.SendBatch(ctx, b)
	defer br.Close()

	var st Stats
	for _, c := range Categories {
		ct, err := br.Exec()
		if err != nil {
			return st, fmt.Errorf("category %s: %w", c.Slug, err)
		}
		st.Categories += ct.RowsAffected()
	}
	for _, p := range Products {
		ct, err := br.Exec()
		if err != nil {
			return st, fmt.Errorf("product %s: %w", p.SKU, err)
		}
		st.Products += ct.RowsAffected()
		for _, v := range p.Variants {
			ct, err := br.Exec()
			if err != nil {
				return st, fmt.Errorf("variant %s: %w", v.SKU, err)
			}
			st.Variants += ct.RowsAffected()
		}
	}
	return st, nil
}
