package qlearning

import (
	"snake-qlearning/game/types"
)

const (
	DefaultLearningRate = 0.1
	DefaultDiscount     = 0.9
)

// QValues holds one value per relative action: left, straight, right.
type QValues [types.NumActions]float64

// Max returns the largest value.
func (q *QValues) Max() float64 {
	maxQ := q[0]
	for _, v := range q[1:] {
		if v > maxQ {
			maxQ = v
		}
	}
	return maxQ
}

// ArgMax returns the first action holding the largest value, so ties go to
// the lowest index.
func (q *QValues) ArgMax() types.Action {
	best := 0
	for a := 1; a < len(q); a++ {
		if q[a] > q[best] {
			best = a
		}
	}
	return types.Action(best)
}

// QTable stores the Q values per observed state.
type QTable map[types.State]*QValues

// Agent is a tabular Q-learning agent.
type Agent struct {
	QTable       QTable
	LearningRate float64
	Discount     float64

	rng types.Rand
}

// NewAgent creates an agent with an empty table. rng drives exploration and
// is normally the same source the game uses.
func NewAgent(learningRate, discount float64, rng types.Rand) *Agent {
	return &Agent{
		QTable:       make(QTable),
		LearningRate: learningRate,
		Discount:     discount,
		rng:          rng,
	}
}

// NewDefaultAgent uses alpha 0.1 and gamma 0.9.
func NewDefaultAgent(rng types.Rand) *Agent {
	return NewAgent(DefaultLearningRate, DefaultDiscount, rng)
}

// QValues returns the entry for state, inserting zeros on first access.
func (a *Agent) QValues(state types.State) *QValues {
	q, exists := a.QTable[state]
	if !exists {
		q = &QValues{}
		a.QTable[state] = q
	}
	return q
}

// ChooseAction is epsilon-greedy: a random action with probability epsilon,
// otherwise the best known one.
func (a *Agent) ChooseAction(state types.State, epsilon float64) types.Action {
	if a.rng.Float64() < epsilon {
		return types.Action(a.rng.Intn(types.NumActions))
	}
	return a.Greedy(state)
}

// Greedy returns the best known action for state without exploring.
func (a *Agent) Greedy(state types.State) types.Action {
	return a.QValues(state).ArgMax()
}

// Learn applies the one-step update
//
//	Q(s,a) += alpha * (target - Q(s,a))
//
// where target is the reward alone on terminal transitions and
// reward + gamma * max_a' Q(s',a') otherwise.
func (a *Agent) Learn(state types.State, action types.Action, reward float64, nextState types.State, done bool) {
	q := a.QValues(state)
	nextMax := a.QValues(nextState).Max()

	target := reward
	if !done {
		target += a.Discount * nextMax
	}
	q[action] += a.LearningRate * (target - q[action])
}

// Size returns the number of states in the table.
func (a *Agent) Size() int {
	return len(a.QTable)
}
