package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/futbot/config"
	"github.com/rustyeddy/futbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display closed trades from the SQLite or Postgres journal.

Subcommands:
  trade  - Get details of a specific trade by ID
  today  - List trades closed today
  day    - List trades closed on a specific day

Examples:
  futbot journal trade <trade-id>
  futbot journal today
  futbot journal day 2024-01-15 --dsn "$FUTBOT_POSTGRES_DSN"`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalDSN    string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./futbot.db", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalDSN, "dsn", "", "Postgres DSN; takes precedence over --db")
}

// openReader prefers Postgres when a DSN is given on the command line or in
// the environment.
func openReader() (journal.Reader, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	dsn := journalDSN
	if dsn == "" {
		dsn = os.Getenv(config.EnvPostgresDSN)
	}
	if dsn != "" {
		return journal.NewPostgres(dsn)
	}
	return journal.NewSQLite(journalDBPath)
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openReader()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listDay(time.Now().In(time.Local).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0])
}

func listDay(day string) error {
	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openReader()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
