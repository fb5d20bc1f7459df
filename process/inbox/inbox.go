// Package inbox processes a drop folder of receipt images: every image gets
// OCR'd for a monetary amount and recorded as a payment for the configured
// member. Useful for bulk-importing photographed receipts.
package inbox

import (
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"gymtrack/models"
	"gymtrack/pkg/ledger"
	"gymtrack/pkg/receipt"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// global flags (parsed in Run)
var (
	verbose    bool
	minConf    float64
	processed  = "processed"
	supported  = map[string]string{".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png", ".gif": "image/gif", ".webp": "image/webp"}
	seenByName sync.Map // fileName -> struct{}, in-process dedupe
)

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

// Run scans a directory of receipt images, records a payment per image for
// the flagged member, optionally watching for new files.
func Run() {
	dirFlag := flag.String("dir", "receipts/inbox", "directory to scan for receipt images")
	memberID := flag.Uint("member-id", 0, "member to record extracted payments for (required)")
	dryRun := flag.Bool("dry-run", false, "Skip all DB writes; run OCR and list what would be recorded")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Float64Var(&minConf, "min-conf", 0.15, "Minimum OCR confidence to record a payment")
	flag.Parse()

	if *memberID == 0 && !*dryRun {
		log.Fatal("-member-id is required unless -dry-run is set")
	}

	if *dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		for _, f := range listImageFiles(*dirFlag) {
			if amt, conf, raw, err := receipt.ExtractAmount(filepath.Join(*dirFlag, f)); err == nil {
				log.Printf("OCR %s amount=%s conf=%.2f raw=%q", f, amt.StringFixed(2), conf, raw)
			} else {
				log.Printf("OCR %s: %v", f, err)
			}
		}
		return
	}

	db = mustInitDBFromEnv()
	var member models.Member
	if err := db.First(&member, *memberID).Error; err != nil {
		log.Fatalf("failed to find member id %d: %v", *memberID, err)
	}
	preloadSeen(member.ID)

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, member, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, member, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// preloadSeen fetches already-recorded receipt file names to minimize
// per-file queries.
func preloadSeen(memberID uint) {
	var names []string
	if err := db.Model(&models.Receipt{}).Where("member_id = ?", memberID).Pluck("file_name", &names).Error; err == nil {
		for _, n := range names {
			seenByName.Store(n, struct{}{})
		}
		log.Printf("Preloaded: receipts=%d", len(names))
	}
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(name))]
	return ok
}

func watchDirectory(dir string, member models.Member, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	go runWorkerPool(dir, member, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

// runWorkerPool fans filenames out to workers; when extra channels are given
// it keeps running (watch mode), otherwise it drains and returns.
func runWorkerPool(dir string, member models.Member, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, member)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile OCRs one image and records payment + receipt rows,
// skipping files recorded in an earlier run.
func processSingleFile(dir, name string, member models.Member) {
	if _, seen := seenByName.LoadOrStore(name, struct{}{}); seen {
		logV("SKIP already recorded %s", name)
		return
	}
	fullPath := filepath.Join(dir, name)

	amt, conf, raw, err := receipt.ExtractAmount(fullPath)
	if err != nil {
		logV("OCR fail %s: %v", name, err)
		recordFailure(member.ID, name, err)
		return
	}
	if !amt.IsPositive() || conf < minConf {
		logV("OCR low/conf %s amt=%s conf=%.2f", name, amt, conf)
		recordFailure(member.ID, name, receipt.ErrNoAmount)
		return
	}

	payment := models.Payment{MemberID: member.ID, Date: ledger.DateOnly(time.Now()), Amount: amt}
	if err := db.Create(&payment).Error; err != nil {
		log.Printf("ERROR create payment %s: %v", name, err)
		return
	}
	rec := models.Receipt{
		FileName:    name,
		StorePath:   filepath.ToSlash(filepath.Join(dir, processed, name)),
		ContentType: supported[strings.ToLower(filepath.Ext(name))],
		MemberID:    member.ID,
		PaymentID:   &payment.ID,
		MatchedText: raw,
	}
	if err := db.Create(&rec).Error; err != nil {
		log.Printf("WARN create receipt row %s: %v", name, err)
	}
	log.Printf("PAYMENT amount=%s conf=%.2f file=%s member=%d", amt.StringFixed(2), conf, name, member.ID)
	if err := moveToProcessed(dir, name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	}
}

func recordFailure(memberID uint, name string, cause error) {
	rec := models.Receipt{
		FileName:     name,
		MemberID:     memberID,
		Failed:       true,
		FailedReason: cause.Error(),
	}
	if err := db.Create(&rec).Error; err != nil {
		log.Printf("WARN create failed-receipt row %s: %v", name, err)
	}
}

// moveToProcessed moves a handled file into dir/processed so a rescan does
// not pick it up again. Rename first, copy+remove across filesystems.
func moveToProcessed(dir, name string) error {
	processedDir := filepath.Join(dir, processed)
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	src := filepath.Join(dir, name)
	dst := filepath.Join(processedDir, name)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	_ = out.Close()
	return os.Remove(src)
}
