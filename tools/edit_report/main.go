// Edit Report Tool summarizes recent bidder param edits from the ClickHouse
// audit table.
//
// Usage:
//
//	go run ./tools/edit_report -days=30 -bidder=appnexus
//
// The report shows edits per day by action, the most edited bidders and the
// bidder configs that changed most often. Pass -json for machine output.
//
// Environment Variables:
//
//	CLICKHOUSE_DSN: ClickHouse connection string (overridden by -clickhouse-dsn flag)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/patrickwarner/bidderadmin/internal/analytics"
	"github.com/patrickwarner/bidderadmin/internal/reporting"
)

func main() {
	var (
		bidder  = flag.String("bidder", "", "Limit the report to one bidder code")
		days    = flag.Int("days", 7, "Number of days to include in report")
		top     = flag.Int("top", 10, "Rows in the bidder and config rankings")
		asJSON  = flag.Bool("json", false, "Print the report as JSON")
		dsn     = flag.String("clickhouse-dsn", getEnv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default"), "ClickHouse DSN")
		timeout = flag.Duration("timeout", 30*time.Second, "Query timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := analytics.InitClickHouse(ctx, *dsn, 2, 1, 5*time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to ClickHouse: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	summary, err := reporting.GenerateEditReport(ctx, a.DB, *bidder, *days, *top)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printEditReport(summary)
}

func printEditReport(s *reporting.EditSummary) {
	scope := "all bidders"
	if s.Bidder != "" {
		scope = s.Bidder
	}
	fmt.Printf("═══════════════════════════════════════════════════════════════\n")
	fmt.Printf("                     BIDDER PARAM EDIT REPORT                  \n")
	fmt.Printf("═══════════════════════════════════════════════════════════════\n")
	fmt.Printf("Scope: %s\n", scope)
	fmt.Printf("Report Period: %d days (ending %s)\n", s.Days, time.Now().Format("2006-01-02"))
	fmt.Printf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Printf("TOTALS\n")
	fmt.Printf("───────────────────────────────────────────────────────────────\n")
	fmt.Printf("Edits:    %s\n", formatNumber(s.Totals.Total()))
	fmt.Printf("Creates:  %s\n", formatNumber(s.Totals.Creates))
	fmt.Printf("Updates:  %s\n", formatNumber(s.Totals.Updates))
	fmt.Printf("Deletes:  %s\n\n", formatNumber(s.Totals.Deletes))

	if len(s.Daily) > 0 {
		fmt.Printf("DAILY BREAKDOWN\n")
		fmt.Printf("───────────────────────────────────────────────────────────────\n")
		fmt.Printf("Date       | Creates | Updates | Deletes |  Total\n")
		fmt.Printf("-----------|---------|---------|---------|--------\n")
		for _, d := range s.Daily {
			fmt.Printf("%-10s | %7s | %7s | %7s | %6s\n",
				d.Date.Format("2006-01-02"),
				formatNumber(d.Creates), formatNumber(d.Updates), formatNumber(d.Deletes), formatNumber(d.Total()))
		}
		fmt.Printf("\n")
	}

	if len(s.TopBidders) > 0 {
		fmt.Printf("MOST EDITED BIDDERS\n")
		fmt.Printf("───────────────────────────────────────────────────────────────\n")
		for i, b := range s.TopBidders {
			fmt.Printf("%2d. %-20s %6s edits on %s configs, last %s\n",
				i+1, b.Bidder, formatNumber(b.Edits), formatNumber(b.Configs), b.LastEdit.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\n")
	}

	if len(s.HotConfigs) > 0 {
		fmt.Printf("MOST EDITED CONFIGS\n")
		fmt.Printf("───────────────────────────────────────────────────────────────\n")
		for i, c := range s.HotConfigs {
			fmt.Printf("%2d. #%-8d %-16s profile %-5d slot %-10s %6s edits\n",
				i+1, c.BidderConfigID, c.Bidder, c.ProfileID, c.Slot, formatNumber(c.Edits))
		}
		fmt.Printf("\n")
	}

	if s.Totals.Total() == 0 {
		fmt.Printf("No edits recorded in this period.\n")
	}
	fmt.Printf("═══════════════════════════════════════════════════════════════\n")
}

// formatNumber formats integers with comma thousands separators.
func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(digit)
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
