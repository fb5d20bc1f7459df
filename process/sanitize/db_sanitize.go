package sanitize

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gymtrack/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
// It removes payments whose member no longer exists (possible when the FK
// constraint was missing at insert time) and receipt rows pointing at purged
// payments.
func Run() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually delete)")
	)
	flag.Parse()

	if os.Getenv("DB_DSN") == "" {
		log.Fatal("DB_DSN must be set to run db_sanitize")
	}
	gdb := mustInitDBFromEnv()

	var orphanPayments int64
	if err := gdb.Model(&models.Payment{}).
		Where("member_id NOT IN (?)", gdb.Model(&models.Member{}).Select("id")).
		Count(&orphanPayments).Error; err != nil {
		log.Fatalf("count orphan payments: %v", err)
	}

	var staleReceipts int64
	if err := gdb.Model(&models.Receipt{}).
		Where("payment_id IS NOT NULL AND payment_id NOT IN (?)", gdb.Model(&models.Payment{}).Select("id")).
		Count(&staleReceipts).Error; err != nil {
		log.Fatalf("count stale receipts: %v", err)
	}

	fmt.Printf("orphan payments: %d\n", orphanPayments)
	fmt.Printf("receipts pointing at purged payments: %d\n", staleReceipts)
	if orphanPayments == 0 && staleReceipts == 0 {
		fmt.Println("nothing to do")
		return
	}

	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}

	if orphanPayments > 0 {
		res := gdb.Where("member_id NOT IN (?)", gdb.Model(&models.Member{}).Select("id")).Delete(&models.Payment{})
		if res.Error != nil {
			log.Fatalf("delete orphan payments: %v", res.Error)
		}
		log.Printf("deleted %d orphan payments", res.RowsAffected)
	}
	if staleReceipts > 0 {
		// keep the receipt row as review evidence, just detach the link
		res := gdb.Model(&models.Receipt{}).
			Where("payment_id IS NOT NULL AND payment_id NOT IN (?)", gdb.Model(&models.Payment{}).Select("id")).
			Update("payment_id", nil)
		if res.Error != nil {
			log.Fatalf("detach stale receipts: %v", res.Error)
		}
		log.Printf("detached %d stale receipts", res.RowsAffected)
	}
	log.Println("Sanitize completed.")
}

// mustInitDBFromEnv is a light DB initializer used by this CLI.
func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}
