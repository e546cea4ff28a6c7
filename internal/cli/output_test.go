package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/results"
)

func sampleTable() *results.Table {
	t := results.NewTable("validation_id", "model_id", "runtime_secs", "score")
	t.Append(
		results.Row{"validation_id": results.String("holdout-v1"), "model_id": results.String("SVC-v1"), "runtime_secs": results.Float(0.5), "score": results.Float(0.9)},
		results.Row{"validation_id": results.String("holdout-v1"), "model_id": results.String("centroid-v1"), "runtime_secs": results.Float(0.25)},
	)
	return t
}

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeRun, "run failed", map[string]string{"code": "RESERVED_KEY"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRun, resp.Error.Code)
	assert.Equal(t, "run failed", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Error(ErrCodePlan, "no such plan", map[string]string{"path": "x"}))
	assert.Contains(t, buf.String(), "Error [E001]: no such plan")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(ErrCodePlan, "no such plan", map[string]string{"path": "x"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("Loaded %d row(s)", 3)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("Loaded %d row(s)", 3)
	assert.Equal(t, "Loaded 3 row(s)\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestOutputFormatter_TextTable(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Table(sampleTable(), ""))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"validation_id", "model_id", "runtime_secs", "score"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"holdout-v1", "SVC-v1", "0.5", "0.9"}, strings.Fields(lines[1]))
	// The missing score renders as an empty cell.
	assert.Equal(t, []string{"holdout-v1", "centroid-v1", "0.25"}, strings.Fields(lines[2]))
}

func TestOutputFormatter_JSONTable(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Table(sampleTable(), "run-1"))

	var resp struct {
		Status string    `json:"status"`
		RunID  string    `json:"run_id"`
		Data   TableData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, []string{"validation_id", "model_id", "runtime_secs", "score"}, resp.Data.Columns)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, 0.9, resp.Data.Rows[0]["score"])
	assert.Nil(t, resp.Data.Rows[1]["score"])
}

func TestJSONValue(t *testing.T) {
	assert.Equal(t, "a", jsonValue(results.String("a")))
	assert.Equal(t, int64(3), jsonValue(results.Int(3)))
	assert.Equal(t, true, jsonValue(results.Bool(true)))
	assert.Nil(t, jsonValue(results.Null{}))
	assert.Nil(t, jsonValue(results.Float(math.NaN())))
	assert.IsType(t, "", jsonValue(results.Float(math.Inf(1))))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "run failed", errors.New("inner")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: run failed: inner", wrapped.Error())
}
