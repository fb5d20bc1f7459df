package main

import (
	"log"
	"os"
	"strings"

	"gymtrack/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Members first so the payments FK can be applied safely.
		if err := db.AutoMigrate(&models.Member{}); err != nil {
			log.Printf("migration warning (members): %v", err)
		}
		if err := db.AutoMigrate(&models.Payment{}); err != nil {
			log.Printf("migration warning (payments): %v", err)
		}
		if err := db.AutoMigrate(&models.MonthlySnapshot{}); err != nil {
			log.Printf("migration warning (monthly_snapshots): %v", err)
		}
		if err := db.AutoMigrate(&models.Receipt{}); err != nil {
			log.Printf("migration warning (receipts): %v", err)
		}
		if err := ensurePaymentMemberFK(); err != nil {
			log.Printf("warning: ensuring payments->members FK failed: %v", err)
		}
	}
	ensureReceiptBase()
}

// ensurePaymentMemberFK adds the cascade FK constraint in case the payments
// table existed before the constraint tag did.
func ensurePaymentMemberFK() error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_payments_member_id ON payments(member_id)`).Error; err != nil {
		return err
	}
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'payments' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%member_id%' AND pg_get_constraintdef(ct.oid) ILIKE '%members%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N == 0 {
		if err := db.Exec(`ALTER TABLE payments
			ADD CONSTRAINT fk_payments_members
			FOREIGN KEY (member_id) REFERENCES members(id)
			ON UPDATE CASCADE ON DELETE CASCADE`).Error; err != nil {
			return err
		}
	}
	return nil
}

// ensureReceiptBase creates the base directory for stored receipt images.
func ensureReceiptBase() {
	base := receiptBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create receipt base dir %s: %v", base, err)
	}
}

// receiptBaseDir returns the base directory for receipt uploads (configurable via RECEIPT_BASE env)
func receiptBaseDir() string {
	if v := os.Getenv("RECEIPT_BASE"); v != "" {
		return v
	}
	return "receipts"
}
