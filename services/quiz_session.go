package services

import (
	"errors"
	"time"
)

// QuizQuestion is one round of the eco quiz. Answer is the index into
// Choices.
type QuizQuestion struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Answer  int      `json:"-"`
}

// DefaultQuiz is the booth quiz deck.
var DefaultQuiz = []QuizQuestion{
	{
		Prompt:  "使っていない部屋の電気はどうする？",
		Choices: []string{"つけたままにする", "消す", "明るくする"},
		Answer:  1,
	},
	{
		Prompt:  "食べ物を残さず食べると減らせるものは？",
		Choices: []string{"食品ロス", "宿題", "おこづかい"},
		Answer:  0,
	},
	{
		Prompt:  "歯みがきのとき、水は？",
		Choices: []string{"出しっぱなし", "コップにくんで止める", "お湯にする"},
		Answer:  1,
	},
	{
		Prompt:  "ペットボトルはどこに捨てる？",
		Choices: []string{"もえるごみ", "資源ごみ", "道ばた"},
		Answer:  1,
	},
	{
		Prompt:  "買い物に持っていくとエコなのは？",
		Choices: []string{"マイバッグ", "ゲーム機", "かさ"},
		Answer:  0,
	},
}

// WrongAnswerPenalty is added to the running clock per incorrect
// answer. A wrong answer never ends the round.
const WrongAnswerPenalty = 5 * time.Second

// Session states
type SessionState int

const (
	SessionReady SessionState = iota
	SessionPlaying
	SessionFinished
)

var (
	ErrSessionNotPlaying = errors.New("session is not accepting answers")
	ErrSessionNotStarted = errors.New("session has not been started")
)

// QuizSession drives one play-through: Ready → Playing (one answer per
// round, wrong answers cost time) → Finished on the last answer.
// Exactly one attempt row is recorded, on the transition into Finished;
// answering or finishing again cannot record a second one. Restart
// begins a fresh, unrelated attempt.
type QuizSession struct {
	Name  string
	Group string

	questions []QuizQuestion
	recorder  interface {
		RecordAttempt(name, group string, elapsedSeconds float64, date string) error
	}
	now func() time.Time

	state     SessionState
	round     int
	startedAt time.Time
	penalty   time.Duration
	elapsed   float64 // fixed at finish
	recordErr error
}

func NewQuizSession(name, group string, recorder *GameService) *QuizSession {
	return &QuizSession{
		Name:      name,
		Group:     group,
		questions: DefaultQuiz,
		recorder:  recorder,
		now:       time.Now,
	}
}

func (q *QuizSession) State() SessionState { return q.state }

// Current returns the question for the active round.
func (q *QuizSession) Current() (QuizQuestion, error) {
	if q.state != SessionPlaying {
		return QuizQuestion{}, ErrSessionNotPlaying
	}
	return q.questions[q.round], nil
}

// Start moves Ready → Playing and starts the clock.
func (q *QuizSession) Start() error {
	if q.state != SessionReady {
		return ErrSessionNotStarted
	}
	q.state = SessionPlaying
	q.round = 0
	q.penalty = 0
	q.startedAt = q.now()
	return nil
}

// Answer scores exactly one answer for the active round. An incorrect
// choice adds the time penalty and still advances the round. The Nth
// answer finishes the session and records the attempt.
func (q *QuizSession) Answer(choice int) (correct bool, err error) {
	if q.state != SessionPlaying {
		return false, ErrSessionNotPlaying
	}

	correct = choice == q.questions[q.round].Answer
	if !correct {
		q.penalty += WrongAnswerPenalty
	}

	q.round++
	if q.round >= len(q.questions) {
		q.finish()
	}
	return correct, nil
}

// Elapsed returns the final time once finished.
func (q *QuizSession) Elapsed() float64 { return q.elapsed }

// Restart returns to Ready. The finished attempt stays on the board;
// the next run is a separate row.
func (q *QuizSession) Restart() {
	q.state = SessionReady
	q.round = 0
	q.penalty = 0
	q.elapsed = 0
}

func (q *QuizSession) finish() {
	q.state = SessionFinished
	q.elapsed = (q.now().Sub(q.startedAt) + q.penalty).Seconds()

	// Single record per finish: finish() is only reachable from the
	// last Answer while Playing.
	if err := q.recorder.RecordAttempt(q.Name, q.Group, q.elapsed, q.now().Format("2006-01-02")); err != nil {
		// The session still ends; the booth staff can replay it.
		q.recordErr = err
	}
}

// RecordErr reports whether the finish-time append failed.
func (q *QuizSession) RecordErr() error { return q.recordErr }
