package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"be04/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching bills")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}

	report.RunTagihanReport(*username, *month, *list)
}
