package stats

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// GroupSize records at the same compression level collapse into one.
	GroupSize = 100
	// RecentWindow is the number of latest episodes kept verbatim for the
	// running average.
	RecentWindow = 50
)

// Episode is the outcome of one training episode.
type Episode struct {
	Number    int
	Score     int
	Steps     int
	Reward    float64
	Epsilon   float64
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the wall time of the episode.
func (e Episode) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Record holds one episode or an aggregate of several.
type Record struct {
	FirstEpisode     int       `json:"firstEpisode"`
	LastEpisode      int       `json:"lastEpisode"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	CompressionIndex int       `json:"compressionIndex"` // 0 for a single episode, >0 for groups
	GamesCount       int       `json:"gamesCount"`
	Score            int       `json:"score"` // single episodes only
	AverageScore     float64   `json:"averageScore"`
	MaxScore         int       `json:"maxScore"`
	MinScore         int       `json:"minScore"`
	AverageSteps     float64   `json:"averageSteps"`
	AverageReward    float64   `json:"averageReward"`
	Epsilon          float64   `json:"epsilon"` // at the last episode
	AverageDuration  float64   `json:"averageDuration"`
	MaxDuration      float64   `json:"maxDuration"`
	MinDuration      float64   `json:"minDuration"`
}

// Stats keeps the training history of one run.
type Stats struct {
	RunID string `json:"runId"`
	Games []Record

	recent   []float64
	episodes int
	maxScore int
	mutex    sync.RWMutex
}

// Summary is a snapshot of the aggregate numbers.
type Summary struct {
	Episodes     int
	MaxScore     int
	MeanScore    float64
	MeanSteps    float64
	MeanReward   float64
	RecentMean   float64
	RecentStdDev float64
	RecentMax    float64
}

// NewStats creates an empty history for the given run.
func NewStats(runID string) *Stats {
	return &Stats{
		RunID:  runID,
		Games:  make([]Record, 0),
		recent: make([]float64, 0, RecentWindow),
	}
}

// AddEpisode records an episode and compresses old records.
func (s *Stats) AddEpisode(e Episode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	duration := e.Duration().Seconds()
	s.Games = append(s.Games, Record{
		FirstEpisode:     e.Number,
		LastEpisode:      e.Number,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		CompressionIndex: 0,
		GamesCount:       1,
		Score:            e.Score,
		AverageScore:     float64(e.Score),
		MaxScore:         e.Score,
		MinScore:         e.Score,
		AverageSteps:     float64(e.Steps),
		AverageReward:    e.Reward,
		Epsilon:          e.Epsilon,
		AverageDuration:  duration,
		MaxDuration:      duration,
		MinDuration:      duration,
	})

	s.episodes++
	if e.Score > s.maxScore {
		s.maxScore = e.Score
	}
	if len(s.recent) == RecentWindow {
		s.recent = s.recent[1:]
	}
	s.recent = append(s.recent, float64(e.Score))

	s.groupGames()
}

// groupGames merges every GroupSize records of one compression level into a
// record of the next level, until no level has enough records.
func (s *Stats) groupGames() {
	for level := 0; ; level++ {
		records := make([]Record, 0)
		remaining := make([]Record, 0, len(s.Games))
		for _, game := range s.Games {
			if game.CompressionIndex == level {
				records = append(records, game)
			} else {
				remaining = append(remaining, game)
			}
		}
		if len(records) < GroupSize {
			break
		}

		sort.Slice(records, func(i, j int) bool {
			return records[i].FirstEpisode < records[j].FirstEpisode
		})

		for i := 0; i < len(records); i += GroupSize {
			end := i + GroupSize
			if end > len(records) {
				remaining = append(remaining, records[i:]...)
				break
			}
			remaining = append(remaining, mergeRecords(records[i:end], level+1))
		}
		s.Games = remaining
	}

	sort.Slice(s.Games, func(i, j int) bool {
		return s.Games[i].FirstEpisode < s.Games[j].FirstEpisode
	})
}

func mergeRecords(group []Record, level int) Record {
	merged := Record{
		FirstEpisode:     group[0].FirstEpisode,
		LastEpisode:      group[0].LastEpisode,
		StartTime:        group[0].StartTime,
		EndTime:          group[0].EndTime,
		CompressionIndex: level,
		MaxScore:         group[0].MaxScore,
		MinScore:         group[0].MinScore,
		MaxDuration:      group[0].MaxDuration,
		MinDuration:      group[0].MinDuration,
		Epsilon:          group[0].Epsilon,
	}

	var totalScore, totalSteps, totalReward, totalDuration float64
	for _, g := range group {
		if g.MaxScore > merged.MaxScore {
			merged.MaxScore = g.MaxScore
		}
		if g.MinScore < merged.MinScore {
			merged.MinScore = g.MinScore
		}
		if g.MaxDuration > merged.MaxDuration {
			merged.MaxDuration = g.MaxDuration
		}
		if g.MinDuration < merged.MinDuration {
			merged.MinDuration = g.MinDuration
		}
		if g.StartTime.Before(merged.StartTime) {
			merged.StartTime = g.StartTime
		}
		if g.EndTime.After(merged.EndTime) {
			merged.EndTime = g.EndTime
		}
		if g.LastEpisode >= merged.LastEpisode {
			merged.LastEpisode = g.LastEpisode
			merged.Epsilon = g.Epsilon
		}
		if g.FirstEpisode < merged.FirstEpisode {
			merged.FirstEpisode = g.FirstEpisode
		}

		n := float64(g.GamesCount)
		totalScore += g.AverageScore * n
		totalSteps += g.AverageSteps * n
		totalReward += g.AverageReward * n
		totalDuration += g.AverageDuration * n
		merged.GamesCount += g.GamesCount
	}

	n := float64(merged.GamesCount)
	merged.AverageScore = totalScore / n
	merged.AverageSteps = totalSteps / n
	merged.AverageReward = totalReward / n
	merged.AverageDuration = totalDuration / n
	return merged
}

// GetStats returns a copy of the recorded history.
func (s *Stats) GetStats() []Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	games := make([]Record, len(s.Games))
	copy(games, s.Games)
	return games
}

// GetGamesPlayed returns the number of recorded episodes.
func (s *Stats) GetGamesPlayed() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.episodes
}

// Summary computes means weighted by the number of episodes behind each
// record, plus figures over the recent window.
func (s *Stats) Summary() Summary {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	sum := Summary{Episodes: s.episodes, MaxScore: s.maxScore}
	if len(s.Games) == 0 {
		return sum
	}

	scores := make([]float64, len(s.Games))
	steps := make([]float64, len(s.Games))
	rewards := make([]float64, len(s.Games))
	weights := make([]float64, len(s.Games))
	for i, g := range s.Games {
		scores[i] = g.AverageScore
		steps[i] = g.AverageSteps
		rewards[i] = g.AverageReward
		weights[i] = float64(g.GamesCount)
	}
	sum.MeanScore = stat.Mean(scores, weights)
	sum.MeanSteps = stat.Mean(steps, weights)
	sum.MeanReward = stat.Mean(rewards, weights)

	sum.RecentMean = stat.Mean(s.recent, nil)
	sum.RecentMax = floats.Max(s.recent)
	if len(s.recent) > 1 {
		sum.RecentStdDev = stat.StdDev(s.recent, nil)
	}
	return sum
}
