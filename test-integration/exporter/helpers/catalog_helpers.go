package helpers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Product ids of the seeded catalog
const (
	BootsID = "00000000-0000-0000-0000-000000000001"
	ScarfID = "00000000-0000-0000-0000-000000000002"
	HatID   = "00000000-0000-0000-0000-000000000003"
)

const catalogFixture = `
CREATE TABLE products (
    id UUID PRIMARY KEY,
    account TEXT NOT NULL,
    name TEXT NOT NULL,
    price NUMERIC(10,2),
    media_ids TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT '2020-01-01T00:00:00Z'
);
CREATE TABLE categories (id INT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE product_categories (product_id UUID NOT NULL, category_id INT NOT NULL);
CREATE TABLE media (id TEXT PRIMARY KEY, url TEXT NOT NULL);
CREATE TABLE customers (id INT PRIMARY KEY, account TEXT NOT NULL, email TEXT NOT NULL);

CREATE SCHEMA acme_extra;
CREATE TABLE acme_extra.product_badges (product_id UUID, badge TEXT);
CREATE TABLE acme_extra.product_notes (note TEXT);

INSERT INTO products (id, account, name, price, media_ids) VALUES
  ('00000000-0000-0000-0000-000000000001', 'acme', 'boots', 49.90, 'm1|m2'),
  ('00000000-0000-0000-0000-000000000002', 'acme', 'scarf', NULL, NULL),
  ('00000000-0000-0000-0000-000000000003', 'globex', 'hat', 9.00, 'm1');
INSERT INTO categories VALUES (1, 'footwear'), (2, 'accessories');
INSERT INTO product_categories VALUES
  ('00000000-0000-0000-0000-000000000001', 1),
  ('00000000-0000-0000-0000-000000000002', 2),
  ('00000000-0000-0000-0000-000000000003', 2);
INSERT INTO media VALUES
  ('m1', 'https://cdn.example.com/m1.jpg'),
  ('m2', 'https://cdn.example.com/m2.jpg');
INSERT INTO customers VALUES (1, 'acme', 'ada@example.com'), (2, 'globex', 'bob@example.com');
INSERT INTO acme_extra.product_badges VALUES ('00000000-0000-0000-0000-000000000001', 'new');
`

// SeedCatalog creates and fills the catalog tables read by the exporter
func SeedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, catalogFixture)
	return err
}

// TouchProduct marks a product as changed at the database's current time
func TouchProduct(ctx context.Context, pool *pgxpool.Pool, id string) error {
	_, err := pool.Exec(ctx, "UPDATE products SET updated_at = NOW() + INTERVAL '1 minute' WHERE id = $1", id)
	return err
}
