package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeTally(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write tally: %v", err)
	}
	return path
}

func TestRunFromArguments(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--seats", "631", "41.5", "25.7", "8.6", "8.4")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}

	var got output
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := output{
		Seats:      []int{311, 193, 64, 63},
		TotalSeats: 631,
		TotalVotes: 84.2,
		Method:     "sainte-lague",
		Ties:       []int{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestRunHalfFirstDivisor(t *testing.T) {
	code, stdout, _ := runCLI(t, "-s", "2", "--half-first-divisor", "10", "2")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	var got output
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if diff := cmp.Diff([]int{1, 1}, got.Seats); diff != "" {
		t.Fatalf("unexpected seats (-want +got):\n%s", diff)
	}
	if got.Method != "sainte-lague-modified" {
		t.Fatalf("expected modified method, got %s", got.Method)
	}
}

func TestRunFromFileAsTable(t *testing.T) {
	path := writeTally(t, `
parties: [CDU, SPD, FDP, GRUENE, LINKE, SSW]
votes: [308, 304, 132, 82, 82, 46]
seats: 69
`)

	code, stdout, stderr := runCLI(t, "--file", path, "--format", "table")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	for _, want := range []string{"PARTY", "CDU", "22", "SSW", "TOTAL"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in table output:\n%s", want, stdout)
		}
	}
}

func TestRunSeatsFlagOverridesFile(t *testing.T) {
	path := writeTally(t, "votes: [3, 3, 1]\nseats: 2\n")

	code, stdout, _ := runCLI(t, "--file", path, "--seats", "8")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var got output
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if diff := cmp.Diff([]int{4, 3, 1}, got.Seats); diff != "" {
		t.Fatalf("unexpected seats (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, got.Ties); diff != "" {
		t.Fatalf("unexpected ties (-want +got):\n%s", diff)
	}
}

func TestRunHalfFirstDivisorFlagOverridesFile(t *testing.T) {
	path := writeTally(t, "votes: [10, 2]\nseats: 2\nhalf_first_divisor: true\n")

	tests := []struct {
		name   string
		args   []string
		seats  []int
		method string
	}{
		{name: "FromFile", args: []string{"--file", path}, seats: []int{1, 1}, method: "sainte-lague-modified"},
		{name: "DisabledByFlag", args: []string{"--file", path, "--no-half-first-divisor"}, seats: []int{2, 0}, method: "sainte-lague"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tc.args...)
			if code != 0 {
				t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
			}
			var got output
			if err := json.Unmarshal([]byte(stdout), &got); err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if diff := cmp.Diff(tc.seats, got.Seats); diff != "" {
				t.Fatalf("unexpected seats (-want +got):\n%s", diff)
			}
			if got.Method != tc.method {
				t.Fatalf("expected method %s, got %s", tc.method, got.Method)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	negative := writeTally(t, "votes: [-1, 5]\nseats: 10\n")
	mismatch := writeTally(t, "parties: [a]\nvotes: [1, 2]\nseats: 3\n")
	broken := writeTally(t, "votes: [1, \n")
	valid := writeTally(t, "votes: [3, 1]\nseats: 10\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "MissingSeats", args: []string{"1", "2"}, code: 2},
		{name: "UnknownFlag", args: []string{"--bogus"}, code: 2},
		{name: "MalformedFile", args: []string{"--file", broken}, code: 2},
		{name: "PartyMismatch", args: []string{"--file", mismatch}, code: 2},
		{name: "NoParties", args: []string{"--seats", "5"}, code: 3},
		{name: "NegativeVotes", args: []string{"--file", negative}, code: 3},
		{name: "TooManySeats", args: []string{"--seats", "2000000", "1"}, code: 4},
		{name: "NegativeSeats", args: []string{"--seats=-5", "3", "1"}, code: 4},
		{name: "NegativeSeatsOverFile", args: []string{"--file", valid, "--seats=-5"}, code: 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tc.args...)
			if code != tc.code {
				t.Fatalf("expected exit %d, got %d (stderr %q)", tc.code, code, stderr)
			}
			if stdout != "" {
				t.Fatalf("expected no output on failure, got %q", stdout)
			}
			if stderr == "" {
				t.Fatalf("expected diagnostic on stderr")
			}
		})
	}
}
