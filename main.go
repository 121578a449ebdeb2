package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/exp/rand"

	"snake-qlearning/game"
	"snake-qlearning/qlearning"
	"snake-qlearning/stats"
	"snake-qlearning/training"
	"snake-qlearning/transport/websocket"
	"snake-qlearning/ui"
	"snake-qlearning/ui/window"
)

const (
	AppName = "snake-qlearning"
	Version = "1.0.0"
)

const (
	displayNone     = "none"
	displayTerminal = "terminal"
	displayWindow   = "window"
)

// options is everything the command line controls for one run.
type options struct {
	Game     game.Config
	Training training.Config

	LearningRate float64
	Discount     float64
	Seed         uint64

	Display    string
	CellSize   int
	FrameDelay time.Duration
	Color      bool

	SpectateAddr string
	StatsJSON    string
	ChartHTML    string
	Workbook     string
	Debug        bool
}

func newCommand() *cli.Command {
	gameDefaults := game.DefaultConfig()
	trainDefaults := training.DefaultConfig()

	return &cli.Command{
		Name:    AppName,
		Usage:   "train a tabular Q-learning agent to play snake, then watch it play",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: gameDefaults.Width, Usage: "grid width in cells", Sources: cli.EnvVars("SNAKE_WIDTH")},
			&cli.IntFlag{Name: "height", Value: gameDefaults.Height, Usage: "grid height in cells", Sources: cli.EnvVars("SNAKE_HEIGHT")},
			&cli.IntFlag{Name: "episodes", Value: trainDefaults.Episodes, Usage: "training episodes", Sources: cli.EnvVars("SNAKE_EPISODES")},
			&cli.FloatFlag{Name: "learning-rate", Value: qlearning.DefaultLearningRate, Usage: "Q-learning step size alpha", Sources: cli.EnvVars("SNAKE_LEARNING_RATE")},
			&cli.FloatFlag{Name: "discount", Value: qlearning.DefaultDiscount, Usage: "discount factor gamma", Sources: cli.EnvVars("SNAKE_DISCOUNT")},
			&cli.FloatFlag{Name: "epsilon", Value: qlearning.InitialEpsilon, Usage: "initial exploration rate", Sources: cli.EnvVars("SNAKE_EPSILON")},
			&cli.FloatFlag{Name: "epsilon-min", Value: qlearning.MinEpsilon, Usage: "exploration floor", Sources: cli.EnvVars("SNAKE_EPSILON_MIN")},
			&cli.FloatFlag{Name: "epsilon-decay", Value: qlearning.EpsilonDecay, Usage: "per-episode epsilon multiplier", Sources: cli.EnvVars("SNAKE_EPSILON_DECAY")},
			&cli.IntFlag{Name: "seed", Usage: "random seed, 0 picks one from the clock", Sources: cli.EnvVars("SNAKE_SEED")},
			&cli.IntFlag{Name: "log-every", Value: trainDefaults.LogEvery, Usage: "log progress every n episodes, 0 disables", Sources: cli.EnvVars("SNAKE_LOG_EVERY")},
			&cli.IntFlag{Name: "max-steps", Usage: "truncate a training episode after n steps, 0 is unbounded", Sources: cli.EnvVars("SNAKE_MAX_STEPS")},
			&cli.IntFlag{Name: "play-max-steps", Value: trainDefaults.PlayMaxSteps, Usage: "step cap for the playback episode", Sources: cli.EnvVars("SNAKE_PLAY_MAX_STEPS")},
			&cli.StringFlag{Name: "display", Value: displayWindow, Usage: "playback display: none, terminal or window", Sources: cli.EnvVars("SNAKE_DISPLAY")},
			&cli.IntFlag{Name: "cell-size", Value: window.DefaultCellSize, Usage: "window cell size in pixels", Sources: cli.EnvVars("SNAKE_CELL_SIZE")},
			&cli.DurationFlag{Name: "frame-delay", Value: 100 * time.Millisecond, Usage: "pause between terminal frames", Sources: cli.EnvVars("SNAKE_FRAME_DELAY")},
			&cli.BoolFlag{Name: "color", Value: true, Usage: "colour terminal output", Sources: cli.EnvVars("SNAKE_COLOR")},
			&cli.StringFlag{Name: "spectate-addr", Usage: "serve playback to websocket spectators on this address", Sources: cli.EnvVars("SNAKE_SPECTATE_ADDR")},
			&cli.StringFlag{Name: "stats-json", Usage: "write grouped training stats as JSON", Sources: cli.EnvVars("SNAKE_STATS_JSON")},
			&cli.StringFlag{Name: "chart-html", Usage: "write a training chart as HTML", Sources: cli.EnvVars("SNAKE_CHART_HTML")},
			&cli.StringFlag{Name: "workbook", Usage: "write training stats as an XLSX workbook", Sources: cli.EnvVars("SNAKE_WORKBOOK")},
			&cli.BoolFlag{Name: "debug", Usage: "include file and line in log output", Sources: cli.EnvVars("SNAKE_DEBUG")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseOptions(cmd)
			if err != nil {
				return err
			}
			return run(ctx, opts)
		},
	}
}

func parseOptions(cmd *cli.Command) (options, error) {
	opts := options{
		Game: game.Config{
			Width:  cmd.Int("width"),
			Height: cmd.Int("height"),
		},
		Training: training.Config{
			Episodes: cmd.Int("episodes"),
			Epsilon: qlearning.Schedule{
				Start: cmd.Float("epsilon"),
				Min:   cmd.Float("epsilon-min"),
				Decay: cmd.Float("epsilon-decay"),
			},
			LogEvery:     cmd.Int("log-every"),
			MaxSteps:     cmd.Int("max-steps"),
			PlayMaxSteps: cmd.Int("play-max-steps"),
		},
		LearningRate: cmd.Float("learning-rate"),
		Discount:     cmd.Float("discount"),
		Display:      cmd.String("display"),
		CellSize:     cmd.Int("cell-size"),
		FrameDelay:   cmd.Duration("frame-delay"),
		Color:        cmd.Bool("color"),
		SpectateAddr: cmd.String("spectate-addr"),
		StatsJSON:    cmd.String("stats-json"),
		ChartHTML:    cmd.String("chart-html"),
		Workbook:     cmd.String("workbook"),
		Debug:        cmd.Bool("debug"),
	}

	seed := cmd.Int("seed")
	if seed < 0 {
		return opts, fmt.Errorf("seed must not be negative: %d", seed)
	}
	opts.Seed = uint64(seed)

	if err := opts.validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (o options) validate() error {
	if err := o.Game.Validate(); err != nil {
		return err
	}
	if err := o.Training.Validate(); err != nil {
		return err
	}
	if o.LearningRate <= 0 || o.LearningRate > 1 {
		return fmt.Errorf("learning rate %v not in (0,1]", o.LearningRate)
	}
	if o.Discount < 0 || o.Discount > 1 {
		return fmt.Errorf("discount %v not in [0,1]", o.Discount)
	}
	switch o.Display {
	case displayNone, displayTerminal, displayWindow:
	default:
		return fmt.Errorf("unknown display %q, use none, terminal or window", o.Display)
	}
	if o.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive: %d", o.CellSize)
	}
	return nil
}

func run(ctx context.Context, opts options) error {
	if opts.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	runID := uuid.New().String()
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Printf("Starting %s v%s (run: %s, seed: %d)", AppName, Version, runID, seed)

	// Game and agent share one source so a seed reproduces the whole run.
	rng := rand.New(rand.NewSource(seed))
	agent := qlearning.NewAgent(opts.LearningRate, opts.Discount, rng)

	display, hub, err := buildDisplay(opts, runID)
	if err != nil {
		return err
	}

	var server *http.Server
	if hub != nil {
		go hub.Run()
		server = &http.Server{
			Addr:         opts.SpectateAddr,
			Handler:      hub.Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("Spectators: ws://%s/ws", opts.SpectateAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Spectator server failed: %v", err)
			}
		}()
	}

	var gameOpts []game.Option
	if opts.Debug {
		gameOpts = append(gameOpts, game.WithLogger(log.Default()))
	}
	if display != nil {
		gameOpts = append(gameOpts, game.WithRenderer(display))
	}
	env, err := game.NewGame(opts.Game, rng, gameOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			log.Printf("Failed to close display: %v", err)
		}
		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("Spectator server shutdown: %v", err)
			}
		}
	}()

	history := stats.NewStats(runID)
	trainer, err := training.NewTrainer(env, agent, opts.Training,
		training.WithLogger(log.Default()),
		training.WithStats(history),
	)
	if err != nil {
		return err
	}

	log.Printf("Training for %d episodes on a %dx%d grid", opts.Training.Episodes, opts.Game.Width, opts.Game.Height)
	res, err := trainer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("training: %w", err)
	}
	if errors.Is(err, context.Canceled) {
		log.Printf("Training interrupted after %d episodes", res.Episodes)
	}

	summary := history.Summary()
	log.Printf("Training finished: %d episodes, best score %d, mean score %.2f, %d states learned",
		res.Episodes, res.BestScore, summary.MeanScore, res.TableSize)

	if err := writeReports(history, opts); err != nil {
		return err
	}

	if display == nil || ctx.Err() != nil {
		return nil
	}

	ep, err := trainer.Play(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("playback: %w", err)
	}
	log.Printf("Playback finished: score %d in %d steps", ep.Score, ep.Steps)
	return nil
}

// buildDisplay returns nil when nothing should watch the playback.
func buildDisplay(opts options, runID string) (game.Renderer, *websocket.Hub, error) {
	var renderers ui.Multi

	switch opts.Display {
	case displayTerminal:
		renderers = append(renderers, ui.NewTerminal(os.Stdout, opts.Color, opts.FrameDelay))
	case displayWindow:
		renderers = append(renderers, window.New(opts.CellSize))
	case displayNone:
	default:
		return nil, nil, fmt.Errorf("unknown display %q", opts.Display)
	}

	var hub *websocket.Hub
	if opts.SpectateAddr != "" {
		hub = websocket.NewHub(runID, log.Default())
		renderers = append(renderers, hub)
	}

	switch len(renderers) {
	case 0:
		return nil, nil, nil
	case 1:
		return renderers[0], hub, nil
	}
	return renderers, hub, nil
}

func writeReports(history *stats.Stats, opts options) error {
	if opts.StatsJSON != "" {
		if err := history.SaveJSON(opts.StatsJSON); err != nil {
			return fmt.Errorf("saving stats: %w", err)
		}
		log.Printf("Stats written to %s", opts.StatsJSON)
	}
	if opts.ChartHTML != "" {
		if err := history.SaveChart(opts.ChartHTML); err != nil {
			return fmt.Errorf("saving chart: %w", err)
		}
		log.Printf("Chart written to %s", opts.ChartHTML)
	}
	if opts.Workbook != "" {
		if err := history.SaveWorkbook(opts.Workbook); err != nil {
			return fmt.Errorf("saving workbook: %w", err)
		}
		log.Printf("Workbook written to %s", opts.Workbook)
	}
	return nil
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatalf("%s: %v", AppName, err)
	}
}
