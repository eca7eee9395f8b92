package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("missing sentinel").Build(), expected: 2},
		{name: "not found", err: NotFoundError("no Makefile").Build(), expected: 3},
		{name: "parse", err: ParseError("bad REG").Build(), expected: 4},
		{name: "resolve", err: ResolveError("unknown import").Build(), expected: 4},
		{name: "config", err: ConfigError("bad yaml").Build(), expected: 7},
		{name: "git", err: GitError("not a repo").Build(), expected: 8},
		{name: "codegen", err: CodegenError("write failed").Build(), expected: 11},
		{name: "server", err: ServerError("listen").Build(), expected: 12},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "wrapped classified", err: fmt.Errorf("hdl-gen: %w", ParseError("x").Build()), expected: 4},
		{name: "plain error", err: errors.New("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	err := ParseError("FIELD outside of REG").At("adi_regmap_dmac.txt", 12).Build()
	if got := adapter.FormatError(err); got != "adi_regmap_dmac.txt:12: FIELD outside of REG" {
		t.Errorf("unexpected format: %q", got)
	}

	internal := InternalError("nil regmap").Build()
	if got := adapter.FormatError(internal); got != "Internal error occurred (use -v for details)" {
		t.Errorf("unexpected format: %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(internal); got != internal.Error() {
		t.Errorf("verbose mode should print the full error, got %q", got)
	}

	if got := adapter.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad port").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if out.String() != "Error: bad port\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if !bytes.Contains(logs.Bytes(), []byte("category=config")) {
		t.Errorf("expected fatal error to be logged, got %q", logs.String())
	}
}
