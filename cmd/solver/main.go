// Command solver is the batch CLI of spec.md §6: given a config file and a
// list of flop/turn/river boards, it solves each independently and writes
// one saved game per board. Grounded on lox-pokerforbots/cmd/solver/main.go,
// which pairs the same kong/zerolog combination for its train/eval
// subcommands; this binary keeps that pairing but drives internal/dcfr and
// internal/persist instead of the teacher's MCCFR blueprint trainer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/config"
	"github.com/lox/postflop-solver/internal/dcfr"
	"github.com/lox/postflop-solver/internal/gametree"
	"github.com/lox/postflop-solver/internal/persist"
	"github.com/lox/postflop-solver/internal/solverr"
	"github.com/lox/postflop-solver/internal/storage"
	"github.com/lox/postflop-solver/internal/tree"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Solve SolveCmd `cmd:"" default:"1" help:"solve one saved game per board"`
}

// SolveCmd is the §6 batch interface: a config path, a set of boards, and
// an output directory, one <board>.pfs written per board.
type SolveCmd struct {
	Config               string   `help:"path to the JSON solver config file" required:""`
	Boards               []string `help:"board strings to solve, e.g. Td9d6h or Td9d6h2c" name:"board"`
	BoardsFile           string   `help:"newline-delimited file of board strings" name:"boards-file"`
	Out                  string   `help:"output directory for <board>.pfs files" required:""`
	MaxIterations        int      `help:"stop after this many iterations (0: until exploitability target is met)" name:"max-iterations"`
	ExploitabilityTarget float64  `help:"stop once exploitability falls below this fraction of pot" name:"exploitability-target"`
	Workers              int      `help:"bound concurrent sibling-child recursion (0: runtime.NumCPU())"`
	Overwrite            bool     `help:"allow overwriting an existing <board>.pfs"`
	OnExisting           string   `help:"when not overwriting: skip or halt on a pre-existing output" name:"on-existing" enum:"skip,halt" default:"halt"`
	TargetStreet         int      `help:"street to truncate the saved game at (0: no truncation)" name:"target-street"`
	Compress             bool     `help:"gzip-wrap the saved game"`
	Memo                 string   `help:"free-text memo recorded in the saved game"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("postflop solver batch CLI"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	if err := cli.Solve.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("solve failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

// Run solves cmd.Boards (plus cmd.BoardsFile's contents) against cmd.Config,
// writing one <board>.pfs into cmd.Out per board, per spec.md §6.
func (cmd *SolveCmd) Run(ctx context.Context) error {
	boards, err := cmd.resolveBoards()
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		return solverr.New(solverr.ConfigurationInvalid, "no boards given; pass --board or --boards-file")
	}

	baseCC, tc, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cmd.Out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, board := range boards {
		if err := cmd.solveOne(ctx, board, baseCC, tc); err != nil {
			return fmt.Errorf("board %s: %w", board, err)
		}
	}
	return nil
}

func (cmd *SolveCmd) solveOne(ctx context.Context, board string, baseCC *cards.CardConfig, tc *tree.TreeConfig) error {
	outPath := filepath.Join(cmd.Out, board+".pfs")
	logger := log.With().Str("board", board).Str("out", outPath).Logger()

	if _, err := os.Stat(outPath); err == nil {
		switch {
		case cmd.Overwrite:
			logger.Warn().Msg("overwriting existing saved game")
		case cmd.OnExisting == "skip":
			logger.Info().Msg("output already exists, skipping")
			return nil
		default:
			return solverr.New(solverr.ConfigurationInvalid, fmt.Sprintf("%s already exists; pass --overwrite or --on-existing=skip", outPath))
		}
	}

	cc, err := applyBoard(baseCC, board)
	if err != nil {
		return err
	}

	root, err := tree.Build(&tree.TreeConfig{
		StartStreet:         cc.Street(),
		Pot:                 tc.Pot,
		EffectiveStack:      tc.EffectiveStack,
		RakeRate:            tc.RakeRate,
		RakeCap:             tc.RakeCap,
		AddAllinThreshold:   tc.AddAllinThreshold,
		ForceAllinThreshold: tc.ForceAllinThreshold,
		MergingThreshold:    tc.MergingThreshold,
		Menus:               tc.Menus,
	})
	if err != nil {
		return err
	}
	gt, err := gametree.Build(root, cc, storage.Compressed)
	if err != nil {
		return err
	}
	arena, err := gt.Allocate(0)
	if err != nil {
		return err
	}

	solver := dcfr.New(gt, arena, nil)
	logger.Info().Int("max_iterations", cmd.MaxIterations).Float64("exploitability_target", cmd.ExploitabilityTarget).Msg("solving")
	result, err := solver.Run(ctx, dcfr.Config{
		MaxIterations:        cmd.MaxIterations,
		ExploitabilityTarget: cmd.ExploitabilityTarget,
		Workers:              cmd.Workers,
	})
	if err != nil {
		return err
	}
	logger.Info().Int("iterations", result.Iterations).Float64("exploitability", result.Exploitability).Msg("solved")

	targetStreet := cmd.TargetStreet
	if targetStreet <= 0 {
		targetStreet = 5 // River: keep every street
	}
	memo := cmd.Memo
	if memo == "" {
		memo = board
	}
	if err := persist.Save(outPath, tc, gt, arena, targetStreet, memo, cmd.Compress); err != nil {
		return err
	}
	logger.Info().Msg("saved game written")
	return nil
}

// applyBoard returns a copy of baseCC with its Flop/Turn/River replaced by
// the cards parsed out of board, leaving the ranges untouched.
func applyBoard(baseCC *cards.CardConfig, board string) (*cards.CardConfig, error) {
	parsed, err := cards.ParseBoard(board)
	if err != nil {
		return nil, solverr.Wrap(solverr.ConfigurationInvalid, "parsing board "+board, err)
	}
	if len(parsed) < 3 || len(parsed) > 5 {
		return nil, solverr.New(solverr.ConfigurationInvalid, "board must have 3, 4, or 5 cards: "+board)
	}
	cc := &cards.CardConfig{
		Ranges: baseCC.Ranges,
		Flop:   [3]cards.Card{parsed[0], parsed[1], parsed[2]},
		Turn:   cards.NotDealt,
		River:  cards.NotDealt,
	}
	if len(parsed) >= 4 {
		cc.Turn = parsed[3]
	}
	if len(parsed) == 5 {
		cc.River = parsed[4]
	}
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	return cc, nil
}

func (cmd *SolveCmd) resolveBoards() ([]string, error) {
	boards := append([]string(nil), cmd.Boards...)
	if cmd.BoardsFile == "" {
		return boards, nil
	}
	f, err := os.Open(cmd.BoardsFile)
	if err != nil {
		return nil, solverr.Wrap(solverr.ConfigurationInvalid, "opening boards file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		boards = append(boards, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, solverr.Wrap(solverr.ConfigurationInvalid, "reading boards file", err)
	}
	return boards, nil
}
