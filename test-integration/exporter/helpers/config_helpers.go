package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stacklok/catalog-exporter/internal/config"
)

const configTemplate = `database:
  host: %s
  port: %d
  user: %s
  passwordFile: %s
  database: %s
  sslMode: disable
exporter:
  step: 2
  limit: 1000
  dataSaveStep: 1
  outputDir: %s
delta:
  frequency: %s
  fullRange: %s
accounts:
  - name: acme
    schema: acme_extra
    extraTables:
      products: [product_badges, product_notes, product_missing]
  - name: globex
components:
  - entity: products
    mainFile: products.csv
    idField: product_id
    query: SELECT id AS product_id, name, price FROM products WHERE account = @account ORDER BY id
    deltaQuery: SELECT id AS product_id, name, price FROM products WHERE account = @account AND updated_at >= @since ORDER BY id
    relations:
      - name: category
        file: product_category.csv
        idField: product_id
        valueColumns: [category]
        query: |
          SELECT pc.product_id, c.name AS category
          FROM product_categories pc JOIN categories c ON c.id = pc.category_id
          JOIN products p ON p.id = pc.product_id
          WHERE p.account = @account
          ORDER BY pc.product_id, pc.category_id
      - name: image
        file: product_image.csv
        idField: product_id
        valueColumns: [image_url]
        params:
          splitValues: "|"
        query: SELECT id AS product_id, media_ids AS image_url FROM products WHERE account = @account AND media_ids IS NOT NULL ORDER BY id
        resolve:
          column: image_url
          query: SELECT url FROM media WHERE id = $1
  - entity: customers
    mainFile: customers.csv
    idField: customer_id
    query: SELECT id AS customer_id, email FROM customers WHERE account = @account ORDER BY id
`

// DeltaWindows are the delta policy windows written into a test configuration
type DeltaWindows struct {
	Frequency string
	FullRange string
}

// WriteConfig writes an exporter configuration pointing at the database and
// loads it back through the regular configuration loader.
func WriteConfig(dir string, db *Database, outputDir string, windows DeltaWindows) (string, *config.Config, error) {
	passwordFile := filepath.Join(dir, "db-password")
	if err := os.WriteFile(passwordFile, []byte(dbPassword), 0600); err != nil {
		return "", nil, err
	}

	content := fmt.Sprintf(configTemplate,
		db.Host, db.Port, dbUser, passwordFile, dbName, outputDir, windows.Frequency, windows.FullRange)

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return "", nil, err
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return "", nil, err
	}
	return configPath, cfg, nil
}
