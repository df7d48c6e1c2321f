// Command cmd_import bulk-loads bills from CSV drops.
//
// It scans a directory for *.csv files where each row is
// title,amount,due_date[,frequency], creates the bills for the given user
// through the billing store, and can stay resident with -watch to pick up
// files as they land. Rows whose (title, due_date) pair already exists for
// the user are skipped so re-running an import is harmless.
package main

import (
	"encoding/csv"
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

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"be04/models"
	"be04/pkg/billing"
	"be04/pkg/recur"
)

// global flags (parsed in main)
var (
	verbose bool
	dryRun  bool
)

func logV(format string, args ...interface{}) {
	if verbose {
		log.Printf(format, args...)
	}
}

// seenState caches (title, due_date) pairs already present for the user so
// workers can skip duplicates without a query per row.
type seenState struct {
	keys map[string]bool
	mu   sync.RWMutex
}

func seenKey(title string, due time.Time) string {
	return strings.ToLower(title) + "|" + due.Format("2006-01-02")
}

func newSeenState(gdb *gorm.DB, userID uint) *seenState {
	ss := &seenState{keys: make(map[string]bool, 1024)}
	var existing []models.Tagihan
	if err := gdb.Select("title", "due_date").Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		log.Printf("preload warning: %v", err)
		return ss
	}
	for _, t := range existing {
		ss.keys[seenKey(t.Title, t.DueDate)] = true
	}
	return ss
}

func (ss *seenState) has(key string) bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.keys[key]
}

func (ss *seenState) put(key string) {
	ss.mu.Lock()
	ss.keys[key] = true
	ss.mu.Unlock()
}

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

func main() {
	dirFlag := flag.String("dir", "import/tagihan", "directory to scan for CSV files")
	username := flag.String("username", "", "owner of the imported bills (required unless -dry-run)")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and report without touching the database")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-row logging")
	flag.Parse()

	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}

	if dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		for _, f := range listCSVFiles(*dirFlag) {
			rows, bad := parseFile(filepath.Join(*dirFlag, f))
			log.Printf("%s: %d importable rows, %d rejected", f, len(rows), bad)
		}
		return
	}

	if *username == "" {
		log.Fatal("-username is required")
	}
	gdb := mustInitDBFromEnv()
	var user models.User
	if err := gdb.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user %q not found: %v", *username, err)
	}

	store := billing.NewStore(gdb)
	seen := newSeenState(gdb, user.ID)

	files := listCSVFiles(*dirFlag)
	log.Printf("Found %d CSV files in %s", len(files), *dirFlag)

	if *watch {
		fileCh := make(chan string, 256)
		go func() {
			for _, f := range files {
				fileCh <- f
			}
		}()
		if err := watchDirectory(*dirFlag, fileCh); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
		runWorkerPool(*dirFlag, store, user.ID, seen, *workers, fileCh)
		return
	}

	fileCh := make(chan string, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)
	runWorkerPool(*dirFlag, store, user.ID, seen, *workers, fileCh)
}

func listCSVFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// watchDirectory feeds newly created CSV files into fileCh, debounced so a
// file still being written settles before a worker picks it up.
func watchDirectory(dir string, fileCh chan<- string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	go func() {
		defer w.Close()
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
					if !strings.EqualFold(filepath.Ext(name), ".csv") {
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
	return nil
}

func runWorkerPool(dir string, store *billing.Store, userID uint, seen *seenState, workers int, fileCh <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				importFile(dir, name, store, userID, seen)
			}
		}()
	}
	wg.Wait()
}

// parseFile reads a CSV of title,amount,due_date[,frequency] rows. A header
// line starting with "title" is tolerated. Returns the parsed rows and the
// count of rejected lines.
func parseFile(path string) ([]billing.CreateInput, int) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		log.Printf("open %s: %v", path, err)
		return nil, 0
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // frequency column is optional
	var rows []billing.CreateInput
	bad := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("%s: csv error: %v", path, err)
			bad++
			continue
		}
		if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "title") {
			continue // header
		}
		if len(rec) < 3 {
			bad++
			continue
		}
		title := strings.TrimSpace(rec[0])
		amount, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil || !amount.IsPositive() || title == "" {
			bad++
			continue
		}
		due, err := time.Parse("2006-01-02", strings.TrimSpace(rec[2]))
		if err != nil {
			bad++
			continue
		}
		in := billing.CreateInput{Title: title, Amount: amount, DueDate: due}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			freq, err := recur.Parse(strings.TrimSpace(rec[3]))
			if err != nil {
				bad++
				continue
			}
			in.IsRecurring = true
			in.Frequency = freq
		}
		rows = append(rows, in)
	}
	return rows, bad
}

// importFile runs idempotent row-by-row creation for one CSV file.
func importFile(dir, name string, store *billing.Store, userID uint, seen *seenState) {
	rows, bad := parseFile(filepath.Join(dir, name))
	created, skipped := 0, 0
	for _, in := range rows {
		key := seenKey(in.Title, in.DueDate)
		if seen.has(key) {
			skipped++
			logV("%s: skip duplicate %q due %s", name, in.Title, in.DueDate.Format("2006-01-02"))
			continue
		}
		if _, err := store.Create(userID, in); err != nil {
			log.Printf("%s: create %q failed: %v", name, in.Title, err)
			continue
		}
		seen.put(key)
		created++
	}
	log.Printf("%s: created=%d skipped=%d rejected=%d", name, created, skipped, bad)
}
