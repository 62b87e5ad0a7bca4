package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/config"
	"github.com/tcgworld/tcg-engine/internal/game"
	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

type simulateOptions struct {
	rulesPath   string
	catalogPath string
	games       int
	seed        uint64
	deckSize    int
	maxTurns    int
	strategy    string
	effects     string
	replay      bool
}

// gameResult is the outcome of one headless game.
type gameResult struct {
	Seed     uint64
	Winner   int
	Reason   string
	Turns    int
	Checksum string
	Frames   int
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play seeded games with every seat driven by the strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			flags := cmd.Flags()
			if flags.Changed("deck-size") {
				cfg.Game.DeckSize = opts.deckSize
			}
			if flags.Changed("max-turns") {
				cfg.Game.MaxTurns = opts.maxTurns
			}
			if flags.Changed("strategy") {
				cfg.Game.Strategy = opts.strategy
			}
			if flags.Changed("effects") {
				cfg.Game.Effects = opts.effects
			}
			if opts.rulesPath != "" {
				cfg.Rules.Path = opts.rulesPath
			}
			if opts.catalogPath != "" {
				cfg.Catalog.Path = opts.catalogPath
			}
			cfg.Game.HumanSeats = nil
			cfg.Game.RecordReplay = opts.replay
			if err := cfg.Validate(); err != nil {
				return err
			}

			results, err := simulate(cfg, opts.games, opts.seed, logger)
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), results, opts.replay)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.rulesPath, "rules", "", "rules document (defaults to rules.path)")
	f.StringVar(&opts.catalogPath, "catalog", "", "catalog document (defaults to catalog.path)")
	f.IntVar(&opts.games, "games", 1, "number of games to play")
	f.Uint64Var(&opts.seed, "seed", 1, "seed of the first game, incremented per game")
	f.IntVar(&opts.deckSize, "deck-size", card.DefaultDeckSize, "cards dealt into each deck")
	f.IntVar(&opts.maxTurns, "max-turns", 0, "turn limit, 0 uses the engine default for AI-only games")
	f.StringVar(&opts.strategy, "strategy", "greedy", "AI strategy: greedy or pass")
	f.StringVar(&opts.effects, "effects", "none", "card effects: none or attack")
	f.BoolVar(&opts.replay, "replay", false, "record turn-start snapshots and report their count")
	return cmd
}

// simulate plays games seeded seed, seed+1, ... and returns their outcomes.
// Every seed, 0 included, is applied explicitly so each game can be replayed.
func simulate(cfg *config.Config, games int, seed uint64, logger *zap.Logger) ([]gameResult, error) {
	if games < 1 {
		return nil, fmt.Errorf("games must be at least 1, got %d", games)
	}
	doc, err := rules.LoadDocument(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	catalog, err := card.LoadCatalogFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	results := make([]gameResult, 0, games)
	for i := 0; i < games; i++ {
		gameSeed := seed + uint64(i)
		opts := append(cfg.EngineOptions(logger), game.WithSeed(gameSeed, gameSeed>>1|1))
		ctx, err := game.NewEngineContext(doc, catalog, opts...)
		if err != nil {
			return nil, err
		}
		engine := game.NewTurnEngine(ctx)
		if err := engine.Start(); err != nil {
			return nil, fmt.Errorf("game %d: %w", i+1, err)
		}

		res := gameResult{
			Seed:     gameSeed,
			Reason:   engine.EndReason(),
			Turns:    engine.TurnNumber(),
			Checksum: engine.Snapshot().Checksum(),
		}
		res.Winner, _ = engine.Winner()
		if r := engine.Replay(); r != nil {
			res.Frames = r.Size()
		}
		logger.Debug("game finished",
			zap.String("game_id", engine.GameID()),
			zap.Uint64("seed", gameSeed),
			zap.Int("winner", res.Winner),
			zap.Int("turns", res.Turns),
		)
		results = append(results, res)
	}
	return results, nil
}

func report(w io.Writer, results []gameResult, replay bool) {
	wins := make(map[int]int)
	for i, r := range results {
		fmt.Fprintf(w, "game %d seed=%d winner=%d turns=%d reason=%q checksum=%s",
			i+1, r.Seed, r.Winner, r.Turns, r.Reason, r.Checksum[:12])
		if replay {
			fmt.Fprintf(w, " frames=%d", r.Frames)
		}
		fmt.Fprintln(w)
		wins[r.Winner]++
	}

	seats := make([]int, 0, len(wins))
	for seat := range wins {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	fmt.Fprint(w, "totals:")
	for _, seat := range seats {
		if seat == 0 {
			fmt.Fprintf(w, " draws=%d", wins[seat])
			continue
		}
		fmt.Fprintf(w, " p%d=%d", seat, wins[seat])
	}
	fmt.Fprintln(w)
}
