package cmd

import (
	"errors"
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/tablekit/tablediff/cmd/sources"
)

// Static errors for configuration validation
var (
	ErrDelimiterInvalid    = errors.New("delimiter must be exactly one character")
	ErrSourceMissing       = errors.New("source requires either a file argument or a --db/--query pair")
	ErrSourceConflict      = errors.New("source cannot combine a file argument with a --db/--query pair")
	ErrQueryRequired       = errors.New("a --db flag requires its matching --query flag")
	ErrDatabaseRequired    = errors.New("a --query flag requires its matching --db flag")
	ErrEmailInvalid        = errors.New("email address is invalid")
	ErrOutputFormatInvalid = errors.New("output format must be one of: text, json")
)

type Config struct {
	Debug        bool
	LogFormat    string
	Delimiter    string
	Source1      SourceConfig
	Source2      SourceConfig
	Email        string
	FailuresOnly bool
	ShowFailures bool
	OutputFormat string
	OutputFile   string
}

// SourceConfig selects one side of the comparison: either a delimited file
// path (local, compressed, or s3://) or a database DSN plus query.
type SourceConfig struct {
	Path  string
	DSN   string
	Query string
}

// NewSource builds the source reader for this side.
func (s SourceConfig) NewSource(delimiter rune) sources.Source {
	if s.DSN != "" {
		return &sources.QuerySource{DSN: s.DSN, Query: s.Query}
	}
	return &sources.FileSource{Path: s.Path, Delimiter: delimiter}
}

func (s SourceConfig) validate(label string) error {
	hasFile := s.Path != ""
	hasDB := s.DSN != "" || s.Query != ""

	if hasDB {
		if s.DSN == "" {
			return fmt.Errorf("%w (%s)", ErrDatabaseRequired, label)
		}
		if s.Query == "" {
			return fmt.Errorf("%w (%s)", ErrQueryRequired, label)
		}
	}
	if hasFile && hasDB {
		return fmt.Errorf("%w (%s)", ErrSourceConflict, label)
	}
	if !hasFile && !hasDB {
		return fmt.Errorf("%w (%s)", ErrSourceMissing, label)
	}
	return nil
}

// isValidOutputFormat validates the report output format
func isValidOutputFormat(format string) bool {
	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	return validFormats[format]
}

func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w, got %q", ErrDelimiterInvalid, c.Delimiter)
	}

	if err := c.Source1.validate("source 1"); err != nil {
		return err
	}
	if err := c.Source2.validate("source 2"); err != nil {
		return err
	}

	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: %q", ErrEmailInvalid, c.Email)
		}
	}

	if !isValidOutputFormat(c.OutputFormat) {
		return fmt.Errorf("%w: '%s'", ErrOutputFormatInvalid, c.OutputFormat)
	}

	return nil
}

// DelimiterRune returns the delimiter as a rune. Validate must have
// accepted the configuration first.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
