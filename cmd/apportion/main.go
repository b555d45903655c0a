package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/sainte-lague/internal/apportion"
)

// tallyFile is the YAML layout accepted by --file.
type tallyFile struct {
	Parties          []string  `yaml:"parties"`
	Votes            []float64 `yaml:"votes"`
	Seats            *int      `yaml:"seats"`
	HalfFirstDivisor bool      `yaml:"half_first_divisor"`
}

type output struct {
	Seats      []int    `json:"seats"`
	Parties    []string `json:"parties,omitempty"`
	TotalSeats int      `json:"totalSeats"`
	TotalVotes float64  `json:"totalVotes"`
	Method     string   `json:"method"`
	Ties       []int    `json:"ties"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := kingpin.New("apportion", "Distribute seats with the Sainte-Laguë method")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	var seatsSet, halfSet bool
	seats := app.Flag("seats", "Number of seats to distribute").Short('s').IsSetByUser(&seatsSet).Int()
	half := app.Flag("half-first-divisor", "Contest each party's first seat with divisor 0.5").IsSetByUser(&halfSet).Bool()
	file := app.Flag("file", "YAML tally with parties, votes, seats and half_first_divisor").Short('f').ExistingFile()
	format := app.Flag("format", "Output format").Default("json").Enum("json", "table")
	votes := app.Arg("votes", "Vote counts, one per party").Float64List()

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "apportion: %v\n", err)
		return 2
	}

	tally := tallyFile{Votes: *votes}
	if *file != "" {
		loaded, err := loadTally(*file)
		if err != nil {
			fmt.Fprintf(stderr, "apportion: %v\n", err)
			return 2
		}
		if len(tally.Votes) == 0 {
			tally.Votes = loaded.Votes
		}
		tally.Parties = loaded.Parties
		tally.Seats = loaded.Seats
		tally.HalfFirstDivisor = loaded.HalfFirstDivisor
	}
	// explicit flags win over the file, invalid values included
	if halfSet {
		tally.HalfFirstDivisor = *half
	}
	if seatsSet {
		tally.Seats = seats
	}
	if tally.Seats == nil {
		fmt.Fprintln(stderr, "apportion: --seats is required")
		return 2
	}
	if len(tally.Parties) != 0 && len(tally.Parties) != len(tally.Votes) {
		fmt.Fprintf(stderr, "apportion: %d party names for %d vote counts\n", len(tally.Parties), len(tally.Votes))
		return 2
	}

	method := apportion.MethodFor(tally.HalfFirstDivisor)
	result, err := apportion.New(apportion.WithMethod(method)).Apportion(tally.Votes, *tally.Seats)
	if err != nil {
		fmt.Fprintf(stderr, "apportion: %v\n", err)
		switch {
		case errors.Is(err, apportion.ErrInvalidVoteCount):
			return 3
		case errors.Is(err, apportion.ErrInvalidSeatCount):
			return 4
		default:
			return 1
		}
	}

	out := output{
		Seats:      result.Seats,
		Parties:    tally.Parties,
		TotalSeats: result.TotalSeats,
		TotalVotes: result.TotalVotes,
		Method:     result.Method.String(),
		Ties:       result.Ties,
	}
	if out.Ties == nil {
		out.Ties = []int{}
	}

	if *format == "table" {
		err = writeTable(stdout, out, tally.Votes)
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(out)
	}
	if err != nil {
		fmt.Fprintf(stderr, "apportion: write output: %v\n", err)
		return 1
	}
	return 0
}

func loadTally(path string) (tallyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tallyFile{}, fmt.Errorf("read tally: %w", err)
	}
	var tally tallyFile
	if err := yaml.Unmarshal(data, &tally); err != nil {
		return tallyFile{}, fmt.Errorf("parse tally: %w", err)
	}
	return tally, nil
}

func writeTable(w io.Writer, out output, votes []float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTY\tVOTES\tSEATS")
	for i, s := range out.Seats {
		name := strconv.Itoa(i + 1)
		if len(out.Parties) > 0 {
			name = out.Parties[i]
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, strconv.FormatFloat(votes[i], 'f', -1, 64), s)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%d\n", strconv.FormatFloat(out.TotalVotes, 'f', -1, 64), out.TotalSeats)
	if len(out.Ties) > 0 {
		fmt.Fprintf(tw, "# last seat decided by tie-break; passed over: %v\n", out.Ties)
	}
	return tw.Flush()
}
