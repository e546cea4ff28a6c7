package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/roach88/gauntlet/internal/results"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A validation run failed or a plan has problems
	ExitCommandError = 2 // Command error (unreadable plan, bad flag value, store not openable)
)

// Error codes reported in structured output.
const (
	ErrCodePlan        = "E001" // plan could not be read or parsed
	ErrCodeInvalidPlan = "E002" // plan failed validation
	ErrCodeStore       = "E003" // result store could not be opened or read
	ErrCodeRun         = "E004" // run aborted
	ErrCodeQuery       = "E005" // results filter is malformed or names unknown columns
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics go here so JSON on Writer stays clean
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`           // "ok" or "error"
	Data   any       `json:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty"`  // error details
	RunID  string    `json:"run_id,omitempty"` // set by run
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// TableData is the JSON form of a result table.
type TableData struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Table outputs a result table: aligned columns in text mode, TableData in
// JSON mode.
func (f *OutputFormatter) Table(t *results.Table, runID string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   tableData(t),
			RunID:  runID,
		})
	}
	return writeTextTable(f.Writer, t)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func writeTextTable(w io.Writer, t *results.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, results.Cell(row.Get(col)))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func tableData(t *results.Table) TableData {
	data := TableData{Columns: t.Columns, Rows: make([]map[string]any, 0, t.Len())}
	for _, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			m[col] = jsonValue(row.Get(col))
		}
		data.Rows = append(data.Rows, m)
	}
	return data
}

// jsonValue maps a cell to a value encoding/json accepts. Non-finite
// floats become their cell text.
func jsonValue(v results.Value) any {
	switch v := v.(type) {
	case results.String:
		return string(v)
	case results.Int:
		return int64(v)
	case results.Float:
		f := float64(v)
		if math.IsNaN(f) {
			return nil
		}
		if math.IsInf(f, 0) {
			return results.Cell(v)
		}
		return f
	case results.Bool:
		return bool(v)
	default:
		return nil
	}
}
