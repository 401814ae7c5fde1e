package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information - set via ldflags during build
	// Example: go build -ldflags "-X github.com/tablekit/tablediff/cmd.Version=1.2.3"
	Version = "dev" // Default to "dev" if not set during build

	cfgFile      string
	debug        bool
	logFormat    string
	delimiter    string
	db1          string
	query1       string
	db2          string
	query2       string
	emailTo      string
	failuresOnly bool
	showFailures bool
	outputFormat string
	outputFile   string

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true).
			Underline(true)

	logger *slog.Logger
)

// textOnlyHandler is a custom slog handler that outputs human-readable text
// without key=value pairs, suitable for interactive terminal usage
type textOnlyHandler struct {
	opts   slog.HandlerOptions
	writer io.Writer
}

func newTextOnlyHandler(w io.Writer, opts *slog.HandlerOptions) *textOnlyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &textOnlyHandler{
		opts:   *opts,
		writer: w,
	}
}

func (h *textOnlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *textOnlyHandler) Handle(_ context.Context, r slog.Record) error {
	// Format: YYYY-MM-DD HH:MM:SS LEVEL message
	timestamp := r.Time.Format("2006-01-02 15:04:05")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.writer, "%s %s %s\n", timestamp, level, r.Message)
	return err
}

func (h *textOnlyHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	// For simplicity, we ignore attributes in text-only mode
	return h
}

func (h *textOnlyHandler) WithGroup(_ string) slog.Handler {
	// For simplicity, we ignore groups in text-only mode
	return h
}

// initLogger initializes the slog logger based on debug flag and log format
func initLogger(isDebug bool, format string) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if isDebug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "logfmt":
		// logfmt uses slog.TextHandler which outputs key=value pairs
		handler = slog.NewTextHandler(os.Stderr, opts)
	default: // "text" or anything else
		handler = newTextOnlyHandler(os.Stderr, opts)
	}

	logger = slog.New(handler)
}

var rootCmd = &cobra.Command{
	Use:     "tablediff [file1] [file2]",
	Version: Version,
	Short:   "🔍 Compare two tabular data sources cell-by-cell",
	Long: titleStyle.Render("Table Diff") + `

A CLI tool to compare two tabular data sources row-by-row and cell-by-cell.
Sources are delimited text files (plain or gzip/zstd/lz4/xz compressed, local
or s3://) or SQL query results (PostgreSQL, MySQL, SQLite). Prints a diff
report and can optionally email it, or just the failing records.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiff(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tablediff.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, logfmt, json)")

	rootCmd.Flags().StringVar(&delimiter, "delimiter", ",", "field delimiter for file sources")
	rootCmd.Flags().StringVar(&db1, "db1", "", "database DSN for source 1 (postgres://, mysql://, or SQLite path)")
	rootCmd.Flags().StringVar(&query1, "query1", "", "SQL query for source 1 (required with --db1)")
	rootCmd.Flags().StringVar(&db2, "db2", "", "database DSN for source 2 (postgres://, mysql://, or SQLite path)")
	rootCmd.Flags().StringVar(&query2, "query2", "", "SQL query for source 2 (required with --db2)")
	rootCmd.Flags().StringVar(&emailTo, "email", "", "send the report to this email address after printing")
	rootCmd.Flags().BoolVar(&failuresOnly, "failures-only", false, "email only the failing records, and only when failures exist")
	rootCmd.Flags().BoolVar(&showFailures, "failed-records", false, "append the failed-records listing to the printed report")
	rootCmd.Flags().StringVar(&outputFormat, "output-format", "text", "report format: text, json")
	rootCmd.Flags().StringVar(&outputFile, "output-file", "", "report file path (default: stdout)")

	// Bind persistent flags
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Bind diff flags
	_ = viper.BindPFlag("delimiter", rootCmd.Flags().Lookup("delimiter"))
	_ = viper.BindPFlag("db1", rootCmd.Flags().Lookup("db1"))
	_ = viper.BindPFlag("query1", rootCmd.Flags().Lookup("query1"))
	_ = viper.BindPFlag("db2", rootCmd.Flags().Lookup("db2"))
	_ = viper.BindPFlag("query2", rootCmd.Flags().Lookup("query2"))
	_ = viper.BindPFlag("email", rootCmd.Flags().Lookup("email"))
	_ = viper.BindPFlag("failures_only", rootCmd.Flags().Lookup("failures-only"))
	_ = viper.BindPFlag("failed_records", rootCmd.Flags().Lookup("failed-records"))
	_ = viper.BindPFlag("output_format", rootCmd.Flags().Lookup("output-format"))
	_ = viper.BindPFlag("output_file", rootCmd.Flags().Lookup("output-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tablediff")
	}

	viper.SetEnvPrefix("TABLEDIFF")
	viper.AutomaticEnv()

	// SMTP relay settings come from plain environment variables, not the
	// TABLEDIFF prefix, so existing mail setups keep working.
	viper.SetDefault("mail.sender", "noreply@example.com")
	viper.SetDefault("smtp.server", "localhost")
	_ = viper.BindEnv("mail.sender", "MAIL_SENDER")
	_ = viper.BindEnv("smtp.server", "SMTP_SERVER")

	if err := viper.ReadInConfig(); err == nil && debug {
		// Initialize logger early if reading config in debug mode
		if logger == nil {
			initLogger(debug, logFormat)
		}
		logger.Debug(fmt.Sprintf("📄 Using config file: %s", viper.ConfigFileUsed()))
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	config := &Config{
		Debug:        viper.GetBool("debug"),
		LogFormat:    viper.GetString("log_format"),
		Delimiter:    viper.GetString("delimiter"),
		Email:        viper.GetString("email"),
		FailuresOnly: viper.GetBool("failures_only"),
		ShowFailures: viper.GetBool("failed_records"),
		OutputFormat: viper.GetString("output_format"),
		OutputFile:   viper.GetString("output_file"),
		Source1: SourceConfig{
			DSN:   viper.GetString("db1"),
			Query: viper.GetString("query1"),
		},
		Source2: SourceConfig{
			DSN:   viper.GetString("db2"),
			Query: viper.GetString("query2"),
		},
	}

	// Positional file arguments fill the sides that carry no database pair,
	// left to right.
	paths := args
	if config.Source1.DSN == "" && config.Source1.Query == "" && len(paths) > 0 {
		config.Source1.Path = paths[0]
		paths = paths[1:]
	}
	if config.Source2.DSN == "" && config.Source2.Query == "" && len(paths) > 0 {
		config.Source2.Path = paths[0]
		paths = paths[1:]
	}
	if len(paths) > 0 {
		return fmt.Errorf("unexpected extra file argument: %s", paths[0])
	}

	initLogger(config.Debug, config.LogFormat)

	logger.Debug(fmt.Sprintf("🔍 Table Diff v%s", Version))

	logger.Debug("Validating configuration...")
	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger.Debug("Configuration validated successfully")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source1 := config.Source1.NewSource(config.DelimiterRune())
	source2 := config.Source2.NewSource(config.DelimiterRune())

	logger.Debug(fmt.Sprintf("Reading source 1: %s", source1.Label()))
	table1, err := source1.Rows(ctx)
	if err != nil {
		return fmt.Errorf("failed to read source 1: %w", err)
	}

	logger.Debug(fmt.Sprintf("Reading source 2: %s", source2.Label()))
	table2, err := source2.Rows(ctx)
	if err != nil {
		return fmt.Errorf("failed to read source 2: %w", err)
	}

	differ := NewDiffer(source1.Label(), source2.Label(), logger)
	metrics := differ.Compare(table1, table2)

	report, err := differ.Render(metrics, config.OutputFormat, config.ShowFailures)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, []byte(report+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Debug(fmt.Sprintf("Report written to %s", config.OutputFile))
	} else {
		fmt.Println(report)
	}

	if config.Email != "" {
		dispatchEmail(ctx, config, differ, metrics, report)
	}

	return nil
}

// emailContent decides what to mail. In failures-only mode a clean run
// sends nothing and ok is false.
func emailContent(config *Config, differ *Differ, metrics *DiffMetrics, report string) (subject, body string, ok bool) {
	if config.FailuresOnly {
		if metrics.Failed == 0 {
			return "", "", false
		}
		return "Data comparison failures", differ.RenderFailedRecords(metrics), true
	}
	return "Data comparison report", report, true
}

// dispatchEmail sends the report (or the failing records subset) by mail.
// Transport failures never affect the exit status: the report has already
// been printed by the time we get here.
func dispatchEmail(ctx context.Context, config *Config, differ *Differ, metrics *DiffMetrics, report string) {
	subject, body, ok := emailContent(config, differ, metrics, report)
	if !ok {
		logger.Debug("No failing records, skipping email dispatch")
		return
	}

	mailer := NewMailer(viper.GetString("mail.sender"), viper.GetString("smtp.server"), logger)
	if err := mailer.Send(ctx, config.Email, subject, body); err != nil {
		fmt.Printf("\nFailed to send email: %v\n", err)
		return
	}
	fmt.Printf("\nEmail sent to %s\n", config.Email)
}
