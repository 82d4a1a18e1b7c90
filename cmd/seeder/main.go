// Command seeder creates a demo SQLite database and a sample document corpus
// so the assistant can be tried without real data.
package main

import (
	"database/sql"
	"flag"
	"os"
	"path/filepath"

	"github.com/kataras/golog"

	"github.com/saleschat/saleschat/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	product_id   INTEGER PRIMARY KEY,
	product_name TEXT NOT NULL,
	category     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	customer_id   INTEGER PRIMARY KEY,
	customer_name TEXT NOT NULL,
	region        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
	order_id    INTEGER PRIMARY KEY,
	product_id  INTEGER NOT NULL REFERENCES products(product_id),
	customer_id INTEGER NOT NULL REFERENCES customers(customer_id),
	amount      REAL NOT NULL,
	order_date  TEXT NOT NULL
);
`

var products = [][]any{
	{1, "Laptop Pro 15", "Electronics"},
	{2, "Wireless Mouse", "Electronics"},
	{3, "Office Chair", "Furniture"},
	{4, "Standing Desk", "Furniture"},
	{5, "Cotton T-Shirt", "Clothing"},
	{6, "Rain Jacket", "Clothing"},
}

var customers = [][]any{
	{1, "Acme Corp", "North"},
	{2, "Globex Inc", "South"},
	{3, "Initech LLC", "East"},
	{4, "Umbrella Ltd", "West"},
}

var sales = [][]any{
	{1, 1, 1, 1499.00, "2023-01-15"},
	{2, 2, 1, 29.99, "2023-01-15"},
	{3, 3, 2, 249.50, "2023-02-03"},
	{4, 4, 2, 599.00, "2023-02-20"},
	{5, 5, 3, 19.99, "2023-03-11"},
	{6, 1, 3, 1499.00, "2023-03-28"},
	{7, 6, 4, 89.90, "2023-04-02"},
	{8, 2, 4, 29.99, "2023-04-19"},
	{9, 4, 1, 599.00, "2023-05-07"},
	{10, 5, 2, 19.99, "2023-05-23"},
}

var documents = map[string]string{
	"sales_report.md": `# Annual Sales Report 2023

Total revenue for 2023 reached $4,636 across all categories. Electronics was
the strongest category, driven by Laptop Pro 15 sales to Acme Corp and
Initech LLC. Furniture grew steadily through Q1 and Q2 on the back of the
Standing Desk launch.

The North region remains our largest market, followed by the South. The West
region underperformed and is the focus of next year's expansion plan.
`,
	"product_strategy.md": `# Product Strategy

Our strategy for the coming year focuses on the Electronics category. We will
extend the Laptop Pro line with a 13-inch model and bundle accessories such
as the Wireless Mouse at a discount.

Furniture remains a secondary line. The Standing Desk has shown promising
repeat purchases and will receive a height-memory feature revision.
`,
	"marketing_plan.txt": `Marketing Plan

Q1: Digital campaign for the Laptop Pro line targeting enterprise customers
in the North region.

Q2: Regional push in the West with introductory discounts on Clothing items.

Q3: Trade show presence focused on Furniture, highlighting the Standing Desk.

Q4: Holiday bundles combining Electronics and accessories.
`,
	"company_policy.txt": `Company Policies

Returns are accepted within 30 days of purchase with proof of payment.
Enterprise customers receive net-60 payment terms; all other customers are
net-30. Discounts above 15 percent require sales director approval.
`,
}

func main() {
	logger := golog.New()

	dbPath := flag.String("db", "data/sales.db", "path of the SQLite database to create")
	docsDir := flag.String("docs", "data/docs", "directory for the sample documents")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		logger.Fatalf("creating database directory: %v", err)
	}

	manager, err := db.OpenSQLite(*dbPath)
	if err != nil {
		logger.Fatalf("opening database: %v", err)
	}
	defer manager.Close()

	if err := seedDatabase(manager.DB()); err != nil {
		logger.Fatalf("seeding database: %v", err)
	}
	logger.Infof("seeded %s with %d products, %d customers, %d sales", *dbPath, len(products), len(customers), len(sales))

	if err := writeDocuments(*docsDir); err != nil {
		logger.Fatalf("writing documents: %v", err)
	}
	logger.Infof("wrote %d sample documents to %s", len(documents), *docsDir)
}

func seedDatabase(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return err
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	inserts := []struct {
		stmt string
		rows [][]any
	}{
		{"INSERT OR REPLACE INTO products (product_id, product_name, category) VALUES (?, ?, ?)", products},
		{"INSERT OR REPLACE INTO customers (customer_id, customer_name, region) VALUES (?, ?, ?)", customers},
		{"INSERT OR REPLACE INTO sales (order_id, product_id, customer_id, amount, order_date) VALUES (?, ?, ?, ?, ?)", sales},
	}
	for _, ins := range inserts {
		for _, row := range ins.rows {
			if _, err := tx.Exec(ins.stmt, row...); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func writeDocuments(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range documents {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
