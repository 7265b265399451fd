package alloc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linebalance/internal/rational"
)

func solveOK(t *testing.T, p Problem) Outcome {
	t.Helper()
	out, err := Solver{}.Solve(context.Background(), p)
	require.NoError(t, err)
	return out
}

func singleTask(base string, workers ...Worker) Problem {
	return Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks:    []ManualTask{{ID: "T", BaseTime: base}},
		Workers:        workers,
	}
}

func TestSolveSplitsSlowTask(t *testing.T) {
	p := singleTask("25",
		Worker{ID: "A", Skills: []string{"T"}},
		Worker{ID: "B", Skills: []string{"T"}},
		Worker{ID: "C", Skills: []string{"T"}},
	)
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	sol := out.Solution
	require.NotNil(t, sol)
	assert.True(t, sol.Optimal)
	assert.Equal(t, 3, sol.TotalWorkers)
	assert.Equal(t, 0, sol.PreferredUsed)
	task, ok := sol.Task("T")
	require.True(t, ok)
	assert.Equal(t, 3, task.Count)
	assert.Equal(t, 3, task.Required)
	assert.Equal(t, "25/3", task.EffectiveTime.String())
	assert.Equal(t, "10", sol.Bottleneck.String())
	assert.EqualValues(t, 4, sol.Weight)
	assert.EqualValues(t, 12, sol.Objective)
}

func TestSolvePreferredDoesNotChangeCount(t *testing.T) {
	p := singleTask("25",
		Worker{ID: "A", Skills: []string{"T"}},
		Worker{ID: "B", Skills: []string{"T"}},
		Worker{ID: "C", Preferred: true, Skills: []string{"T"}},
	)
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	assert.Equal(t, 3, out.Solution.TotalWorkers)
	assert.Equal(t, 1, out.Solution.PreferredUsed)
	c, _ := out.Solution.Worker("C")
	assert.True(t, c.Used)
}

func TestSolveFewerWorkersBeatPreferred(t *testing.T) {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks:    []ManualTask{{ID: "T1", BaseTime: "10"}, {ID: "T2", BaseTime: "10"}},
		Workers: []Worker{
			{ID: "A", Skills: []string{"T1", "T2"}},
			{ID: "B", Preferred: true, Skills: []string{"T1"}},
			{ID: "C", Preferred: true, Skills: []string{"T2"}},
		},
	}
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	sol := out.Solution
	assert.Equal(t, 1, sol.TotalWorkers)
	assert.Equal(t, 0, sol.PreferredUsed)
	a, _ := sol.Worker("A")
	assert.True(t, a.Used)
	assert.ElementsMatch(t, []string{"T1", "T2"}, a.Tasks)
}

func TestSolvePreferredBreaksTies(t *testing.T) {
	p := singleTask("4",
		Worker{ID: "A", Skills: []string{"T"}},
		Worker{ID: "B", Preferred: true, Skills: []string{"T"}},
		Worker{ID: "C", Skills: []string{"T"}},
	)
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	task, _ := out.Solution.Task("T")
	assert.Equal(t, []string{"B"}, task.Workers)
	assert.Equal(t, 1, out.Solution.PreferredUsed)
}

func TestSolveNoQualifiedWorkers(t *testing.T) {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks:    []ManualTask{{ID: "T1", BaseTime: "5"}, {ID: "T2", BaseTime: "5"}},
		Workers:        []Worker{{ID: "A", Skills: []string{"T1"}}},
	}
	out := solveOK(t, p)
	assert.Equal(t, StatusInfeasible, out.Status)
	assert.Nil(t, out.Solution)
	assert.Equal(t, []string{`task "T2" has no qualified workers`}, out.Reasons)
	err := out.Err()
	assert.True(t, errors.Is(err, ErrInfeasible))
	assert.Contains(t, err.Error(), "T2")
}

func TestSolveNotEnoughQualified(t *testing.T) {
	p := singleTask("25",
		Worker{ID: "A", Skills: []string{"T"}},
		Worker{ID: "B", Skills: []string{"T"}},
		Worker{ID: "C"},
	)
	out := solveOK(t, p)
	assert.Equal(t, StatusInfeasible, out.Status)
	assert.Equal(t, []string{`task "T" needs 3 workers, only 2 qualified`}, out.Reasons)
}

func TestSolveInfeasibleBySearch(t *testing.T) {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks: []ManualTask{
			{ID: "T1", BaseTime: "5"},
			{ID: "T2", BaseTime: "5"},
			{ID: "T3", BaseTime: "5"},
		},
		Workers: []Worker{
			{ID: "A", Skills: []string{"T1", "T2"}},
			{ID: "B", Skills: []string{"T3"}},
			{ID: "C", Skills: []string{"T3"}},
		},
		OneTaskPerWorker: true,
	}
	out := solveOK(t, p)
	assert.Equal(t, StatusInfeasible, out.Status)
	require.Len(t, out.Reasons, 1)
	assert.ErrorIs(t, out.Err(), ErrInfeasible)

	// without the exclusivity rule A covers both
	p.OneTaskPerWorker = false
	out = solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	assert.Equal(t, 2, out.Solution.TotalWorkers)
}

func TestSolveInputErrors(t *testing.T) {
	base := func() Problem {
		return singleTask("5", Worker{ID: "A", Skills: []string{"T"}})
	}
	tests := []struct {
		name  string
		edit  func(p *Problem)
		field string
	}{
		{"no automated", func(p *Problem) { p.AutomatedTasks = nil }, "automatedTasks"},
		{"no manual", func(p *Problem) { p.ManualTasks = nil }, "manualTasks"},
		{"no workers", func(p *Problem) { p.Workers = nil }, "workers"},
		{"zero cycle", func(p *Problem) { p.AutomatedTasks[0].CycleTime = "0" }, "automatedTasks[0].cycleTime"},
		{"negative base", func(p *Problem) { p.ManualTasks[0].BaseTime = "-2" }, "manualTasks[0].baseTime"},
		{"not a number", func(p *Problem) { p.ManualTasks[0].BaseTime = "fast" }, "manualTasks[0].baseTime"},
		{"unknown skill", func(p *Problem) { p.Workers[0].Skills = []string{"X"} }, "workers[0].skills"},
		{"duplicate worker", func(p *Problem) { p.Workers = append(p.Workers, Worker{ID: "A"}) }, "workers[1]"},
		{"self pairing", func(p *Problem) { p.Pairings = []Pairing{{"T", "T"}} }, "pairings[0]"},
		{"negative reps", func(p *Problem) { p.ManualTasks[0].Repetitions = -1 }, "manualTasks[0].repetitions"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base()
			tc.edit(&p)
			_, err := Solver{}.Solve(context.Background(), p)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tc.field, ie.Field)
		})
	}
}

func TestSolvePrecisionError(t *testing.T) {
	p := singleTask("2.0001", Worker{ID: "A", Skills: []string{"T"}})
	_, err := Solver{MaxDenominator: 100}.Solve(context.Background(), p)
	var pe *rational.PrecisionError
	require.ErrorAs(t, err, &pe)
	assert.EqualValues(t, 100, pe.MaxDenominator)
}

func TestSolveExactDecimals(t *testing.T) {
	// 6.4 split two ways lands exactly on the 3.2 bottleneck
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "lay-up", CycleTime: "3.2"}, {ID: "bussing", CycleTime: "2.4"}},
		ManualTasks:    []ManualTask{{ID: "flash", BaseTime: "6.4"}},
		Workers: []Worker{
			{ID: "A", Skills: []string{"flash"}},
			{ID: "B", Skills: []string{"flash"}},
			{ID: "C", Skills: []string{"flash"}},
		},
	}
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	task, _ := out.Solution.Task("flash")
	assert.Equal(t, 2, task.Count)
	assert.Equal(t, "16/5", task.EffectiveTime.String())
	assert.Equal(t, 0, task.EffectiveTime.Cmp(out.Solution.Bottleneck))
}

func TestSolveRepetitionsAndMinimum(t *testing.T) {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "1"}},
		ManualTasks: []ManualTask{
			{ID: "wash", BaseTime: "0.5", Repetitions: 3},
			{ID: "close", BaseTime: "0.2", MinWorkers: 2},
		},
		Workers: []Worker{
			{ID: "A", Skills: []string{"wash"}},
			{ID: "B", Skills: []string{"wash"}},
			{ID: "C", Skills: []string{"close"}},
			{ID: "D", Skills: []string{"close"}},
			{ID: "E", Skills: []string{"close", "wash"}},
		},
		OneTaskPerWorker: true,
	}
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	wash, _ := out.Solution.Task("wash")
	assert.Equal(t, 2, wash.Count)
	assert.Equal(t, "3/4", wash.EffectiveTime.String())
	closing, _ := out.Solution.Task("close")
	assert.Equal(t, 2, closing.Count)
	assert.Equal(t, 4, out.Solution.TotalWorkers)
}

func TestSolveUnpacedGetsExactCrew(t *testing.T) {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks: []ManualTask{
			{ID: "T", BaseTime: "5"},
			{ID: "stringing", Unpaced: true},
		},
		Workers: []Worker{
			{ID: "A", Preferred: true, Skills: []string{"T", "stringing"}},
			{ID: "B", Preferred: true, Skills: []string{"stringing"}},
			{ID: "C", Preferred: true, Skills: []string{"stringing"}},
		},
	}
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	s, _ := out.Solution.Task("stringing")
	assert.Equal(t, 1, s.Count)
	assert.False(t, s.Paced)
	assert.True(t, s.EffectiveTime.Sign() == 0)
	assert.Equal(t, 1, out.Solution.TotalWorkers)
}

func TestSolvePairing(t *testing.T) {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "press", CycleTime: "10"}},
		ManualTasks: []ManualTask{
			{ID: "eva", BaseTime: "5"},
			{ID: "qc", BaseTime: "5"},
			{ID: "layup", Unpaced: true, Shared: true},
		},
		Workers: []Worker{
			{ID: "A", Skills: []string{"eva", "qc"}},
			{ID: "B", Preferred: true, Skills: []string{"qc"}},
			{ID: "C", Preferred: true, Skills: []string{"layup", "eva"}},
			{ID: "D", Skills: []string{"qc", "layup"}},
		},
		OneTaskPerWorker: true,
	}
	out := solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	assert.Equal(t, 2, out.Solution.TotalWorkers)
	assert.Equal(t, 2, out.Solution.PreferredUsed)

	p.Pairings = []Pairing{{First: "qc", Second: "layup"}}
	out = solveOK(t, p)
	require.Equal(t, StatusOptimal, out.Status)
	sol := out.Solution
	assert.Equal(t, 2, sol.TotalWorkers)
	assert.Equal(t, 1, sol.PreferredUsed)
	d, _ := sol.Worker("D")
	assert.ElementsMatch(t, []string{"qc", "layup"}, d.Tasks)

	p.Pairings = []Pairing{{First: "qc", Second: "eva"}}
	p.Workers[0].Skills = []string{"eva"}
	out = solveOK(t, p)
	assert.Equal(t, StatusInfeasible, out.Status)
	assert.Equal(t, []string{`no worker is qualified for both "qc" and "eva"`}, out.Reasons)
}

func TestSolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Solver{}.Solve(ctx, solarLine())
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, out.Status)
	assert.Nil(t, out.Solution)
	assert.Equal(t, "canceled", out.Metrics.Stopped)
	assert.ErrorIs(t, out.Err(), ErrNoSolution)
}

func TestSolveNodeLimit(t *testing.T) {
	out, err := Solver{NodeLimit: 1}.Solve(context.Background(), solarLine())
	require.NoError(t, err)
	assert.Contains(t, []Status{StatusFeasible, StatusUnknown}, out.Status)
	if out.Status == StatusFeasible {
		require.NotNil(t, out.Solution)
		assert.False(t, out.Solution.Optimal)
	}
}

func TestSolveReportsProgress(t *testing.T) {
	var seen []Progress
	s := Solver{OnProgress: func(p Progress) { seen = append(seen, p) }}
	out, err := s.Solve(context.Background(), singleTask("25",
		Worker{ID: "A", Skills: []string{"T"}},
		Worker{ID: "B", Skills: []string{"T"}},
		Worker{ID: "C", Skills: []string{"T"}},
		Worker{ID: "D", Skills: []string{"T"}},
	))
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, out.Status)
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, out.Solution.TotalWorkers, last.TotalWorkers)
	assert.Equal(t, out.Solution.Objective, last.Objective)
}

func TestSolveSolarLine(t *testing.T) {
	out, err := Solver{TimeBudget: 30 * time.Second}.Solve(context.Background(), solarLine())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, out.Status)
	sol := out.Solution
	assert.Equal(t, 11, sol.TotalWorkers)
	for _, task := range sol.Tasks {
		assert.GreaterOrEqual(t, task.Count, task.Required, task.TaskID)
		if task.Paced {
			assert.LessOrEqual(t, task.EffectiveTime.Cmp(sol.Bottleneck), 0, task.TaskID)
		}
	}
	closing, _ := sol.Task("Closing")
	assert.Equal(t, 2, closing.Count)
	tashrif, _ := sol.Worker("Tashrif")
	assert.Contains(t, tashrif.Tasks, "Operate Bussing Machine")
}

// randomProblem draws a small instance with one-decimal times.
func randomProblem(rng *rand.Rand) Problem {
	p := Problem{
		AutomatedTasks: []AutomatedTask{{ID: "m1", CycleTime: fmt.Sprintf("%d.%d", 2+rng.Intn(4), rng.Intn(10))}},
		OneTaskPerWorker: rng.Intn(2) == 0,
	}
	nt := 1 + rng.Intn(3)
	for i := 0; i < nt; i++ {
		p.ManualTasks = append(p.ManualTasks, ManualTask{
			ID:       fmt.Sprintf("t%d", i),
			BaseTime: fmt.Sprintf("%d.%d", 1+rng.Intn(9), rng.Intn(10)),
		})
	}
	nw := 2 + rng.Intn(5)
	for i := 0; i < nw; i++ {
		w := Worker{ID: fmt.Sprintf("w%d", i), Preferred: rng.Intn(3) == 0}
		for _, task := range p.ManualTasks {
			if rng.Intn(2) == 0 {
				w.Skills = append(w.Skills, task.ID)
			}
		}
		p.Workers = append(p.Workers, w)
	}
	return p
}

func TestSolveMoreSkillsNeverNeedMoreWorkers(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 150; round++ {
		p := randomProblem(rng)
		before := solveOK(t, p)

		// grant one missing skill
		w := rng.Intn(len(p.Workers))
		task := p.ManualTasks[rng.Intn(len(p.ManualTasks))].ID
		has := false
		for _, s := range p.Workers[w].Skills {
			has = has || s == task
		}
		if !has {
			p.Workers[w].Skills = append(append([]string(nil), p.Workers[w].Skills...), task)
		}
		after := solveOK(t, p)

		if before.Status == StatusOptimal {
			require.Equal(t, StatusOptimal, after.Status, "round %d", round)
			assert.LessOrEqual(t, after.Solution.TotalWorkers, before.Solution.TotalWorkers, "round %d", round)
		}
	}
}

func TestSolvePreferenceNeverCostsWorkers(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for round := 0; round < 150; round++ {
		p := randomProblem(rng)
		with := solveOK(t, p)
		plain := p
		plain.Workers = make([]Worker, len(p.Workers))
		for i, w := range p.Workers {
			w.Preferred = false
			plain.Workers[i] = w
		}
		without := solveOK(t, plain)
		require.Equal(t, without.Status, with.Status, "round %d", round)
		if with.Status != StatusOptimal {
			continue
		}
		assert.Equal(t, without.Solution.TotalWorkers, with.Solution.TotalWorkers, "round %d", round)
		for _, ta := range with.Solution.Tasks {
			assert.LessOrEqual(t, ta.EffectiveTime.Cmp(with.Solution.Bottleneck), 0, "round %d", round)
		}
	}
}

func solarLine() Problem {
	seq := []struct {
		id, base string
		min      int
	}{
		{"Wash Glass", "0.5", 1},
		{"Lay EVA", "6.0", 1},
		{"Lay-up Quality Check", "6.0", 1},
		{"Manual Soldering", "3.0", 1},
		{"Closing", "9.0", 2},
		{"Poetsen", "8.0", 1},
		{"Connectoren", "10.0", 1},
		{"Flashen", "4.8", 1},
	}
	p := Problem{
		AutomatedTasks: []AutomatedTask{
			{ID: "Lay-up machine", CycleTime: "3.2"},
			{ID: "Bussing machine", CycleTime: "4.1"},
			{ID: "Laminator", CycleTime: "18.0"},
		},
		Pairings: []Pairing{
			{First: "Lay EVA", Second: "Operate Lay-up Machine"},
			{First: "Lay-up Quality Check", Second: "Operate Bussing Machine"},
		},
		OneTaskPerWorker: true,
	}
	for _, s := range seq {
		p.ManualTasks = append(p.ManualTasks, ManualTask{ID: s.id, BaseTime: s.base, MinWorkers: s.min})
	}
	p.ManualTasks = append(p.ManualTasks,
		ManualTask{ID: "Stringing", Unpaced: true},
		ManualTask{ID: "Operate Lay-up Machine", Unpaced: true, Shared: true},
		ManualTask{ID: "Operate Bussing Machine", Unpaced: true, Shared: true},
		ManualTask{ID: "Operate Laminator", Unpaced: true},
	)
	matrix := map[string]string{
		"Arben":         "111011000100",
		"Jamil":         "111001000100",
		"Khairullah":    "111011100100",
		"Fazli":         "011111100000",
		"Mohammedsalih": "111011101101",
		"Singh":         "011011110001",
		"Chance":        "111011100100",
		"Tashrif":       "011111100110",
		"Shahidullah":   "111111000000",
		"Himmat":        "111111100100",
		"Benda":         "111011000000",
		"Shams":         "111111100100",
		"Beata":         "011111100000",
		"Roger":         "111111110001",
		"Serhii":        "011001100000",
		"Sabba":         "111101100100",
		"Fahim":         "111111100100",
		"Mahmoud":       "011001100000",
		"Fanuel":        "011001110001",
		"Tedros":        "011000000001",
		"Latifi":        "011101010100",
		"Oksana":        "011001000000",
		"Romy":          "011001000000",
		"Zakhel":        "111111100100",
		"Abdul":         "011000000000",
	}
	order := []string{"Arben", "Jamil", "Khairullah", "Fazli", "Mohammedsalih", "Singh", "Chance", "Tashrif",
		"Shahidullah", "Himmat", "Benda", "Shams", "Beata", "Roger", "Serhii", "Sabba", "Fahim", "Mahmoud",
		"Fanuel", "Tedros", "Latifi", "Oksana", "Romy", "Zakhel", "Abdul"}
	for _, name := range order {
		w := Worker{ID: name}
		for i, bit := range matrix[name] {
			if bit == '1' {
				w.Skills = append(w.Skills, p.ManualTasks[i].ID)
			}
		}
		p.Workers = append(p.Workers, w)
	}
	return p
}
