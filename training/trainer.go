package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"snake-qlearning/game"
	"snake-qlearning/game/types"
	"snake-qlearning/qlearning"
	"snake-qlearning/stats"
)

const (
	DefaultEpisodes     = 1200
	DefaultLogEvery     = 50
	DefaultPlayMaxSteps = 5000
)

// ErrInvalidConfig is returned by NewTrainer for unusable settings.
var ErrInvalidConfig = errors.New("invalid training config")

// Env is the environment contract the driver needs. *game.Game satisfies it.
type Env interface {
	Reset() (types.State, error)
	Step(types.Action) (types.State, float64, bool, error)
	Render() error
	Score() int
	Steps() int
}

// Learner is the agent contract the driver needs. *qlearning.Agent satisfies it.
type Learner interface {
	ChooseAction(state types.State, epsilon float64) types.Action
	Learn(state types.State, action types.Action, reward float64, nextState types.State, done bool)
	Size() int
}

// Config controls the episode loop.
type Config struct {
	Episodes int
	Epsilon  qlearning.Schedule
	// LogEvery logs progress every n episodes; 0 disables it.
	LogEvery int
	// MaxSteps truncates an episode that has not terminated; 0 means unbounded.
	MaxSteps int
	// PlayMaxSteps bounds the greedy playback episode.
	PlayMaxSteps int
}

// DefaultConfig returns 1200 episodes with epsilon 1.0 decaying to 0.02.
func DefaultConfig() Config {
	return Config{
		Episodes:     DefaultEpisodes,
		Epsilon:      qlearning.DefaultSchedule(),
		LogEvery:     DefaultLogEvery,
		PlayMaxSteps: DefaultPlayMaxSteps,
	}
}

func (c Config) Validate() error {
	if c.Episodes < 0 {
		return fmt.Errorf("%w: episodes %d", ErrInvalidConfig, c.Episodes)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("%w: log interval %d", ErrInvalidConfig, c.LogEvery)
	}
	if c.MaxSteps < 0 || c.PlayMaxSteps < 0 {
		return fmt.Errorf("%w: negative step cap", ErrInvalidConfig)
	}
	if err := c.Epsilon.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Option configures a Trainer.
type Option func(*Trainer)

func WithLogger(l *log.Logger) Option {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithStats records every episode into s.
func WithStats(s *stats.Stats) Option {
	return func(t *Trainer) {
		t.stats = s
	}
}

// Trainer runs episodes of env against agent. Everything happens on the
// caller's goroutine; one Step and its Learn finish before the next action
// is chosen.
type Trainer struct {
	env      Env
	agent    Learner
	cfg      Config
	schedule qlearning.Schedule
	stats    *stats.Stats
	logger   *log.Logger
	now      func() time.Time
}

// Result summarises a training run.
type Result struct {
	Episodes     int
	BestScore    int
	TotalScore   int
	FinalEpsilon float64
	TableSize    int
}

// EpisodeResult is the outcome of a single episode.
type EpisodeResult struct {
	Score     int
	Steps     int
	Reward    float64
	Truncated bool
}

func NewTrainer(env Env, agent Learner, cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		env:      env,
		agent:    agent,
		cfg:      cfg,
		schedule: cfg.Epsilon,
		logger:   log.New(io.Discard, "", 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Epsilon returns the exploration rate the next episode will use.
func (t *Trainer) Epsilon() float64 {
	return t.schedule.Value()
}

// Run trains for the configured number of episodes, decaying epsilon after
// each one. ctx is checked between episodes only.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	var res Result
	windowScore := 0

	for episode := 1; episode <= t.cfg.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			res.FinalEpsilon = t.schedule.Value()
			res.TableSize = t.agent.Size()
			return res, err
		}

		epsilon := t.schedule.Value()
		start := t.now()
		ep, err := t.RunEpisode(epsilon)
		if err != nil {
			return res, fmt.Errorf("episode %d: %w", episode, err)
		}

		res.Episodes++
		res.TotalScore += ep.Score
		windowScore += ep.Score
		if ep.Score > res.BestScore {
			res.BestScore = ep.Score
		}
		if t.stats != nil {
			t.stats.AddEpisode(stats.Episode{
				Number:    episode,
				Score:     ep.Score,
				Steps:     ep.Steps,
				Reward:    ep.Reward,
				Epsilon:   epsilon,
				StartTime: start,
				EndTime:   t.now(),
			})
		}

		next := t.schedule.Next()
		if t.cfg.LogEvery > 0 && episode%t.cfg.LogEvery == 0 {
			t.logger.Printf("Episode %d, score: %d, epsilon: %.3f, avg score: %.2f, best: %d, states: %d",
				episode, ep.Score, next, float64(windowScore)/float64(t.cfg.LogEvery), res.BestScore, t.agent.Size())
			windowScore = 0
		}
	}

	res.FinalEpsilon = t.schedule.Value()
	res.TableSize = t.agent.Size()
	return res, nil
}

// RunEpisode plays one learning episode from a fresh reset.
func (t *Trainer) RunEpisode(epsilon float64) (EpisodeResult, error) {
	var ep EpisodeResult

	state, err := t.env.Reset()
	if err != nil {
		return ep, err
	}

	for {
		action := t.agent.ChooseAction(state, epsilon)
		next, reward, done, err := t.env.Step(action)
		if err != nil {
			return ep, err
		}
		t.agent.Learn(state, action, reward, next, done)
		state = next
		ep.Reward += reward

		if done {
			break
		}
		if t.cfg.MaxSteps > 0 && t.env.Steps() >= t.cfg.MaxSteps {
			ep.Truncated = true
			break
		}
	}

	ep.Score = t.env.Score()
	ep.Steps = t.env.Steps()
	return ep, nil
}

// Play runs one greedy episode without learning and renders the environment
// after every step.
// A closed display ends playback without an error.
func (t *Trainer) Play(ctx context.Context) (EpisodeResult, error) {
	var ep EpisodeResult

	state, err := t.env.Reset()
	if err != nil {
		return ep, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return t.finish(ep), err
		}

		action := t.agent.ChooseAction(state, 0)
		next, reward, done, err := t.env.Step(action)
		if err != nil {
			return t.finish(ep), err
		}
		state = next
		ep.Reward += reward

		if err := t.env.Render(); err != nil {
			if errors.Is(err, game.ErrDisplayClosed) {
				return t.finish(ep), nil
			}
			return t.finish(ep), err
		}

		if done {
			break
		}
		if t.cfg.PlayMaxSteps > 0 && t.env.Steps() >= t.cfg.PlayMaxSteps {
			ep.Truncated = true
			break
		}
	}
	return t.finish(ep), nil
}

func (t *Trainer) finish(ep EpisodeResult) EpisodeResult {
	ep.Score = t.env.Score()
	ep.Steps = t.env.Steps()
	return ep
}
