package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/lockbox/internal/engine"
)

var ErrNoTrials = errors.New("optim: no trial succeeded")

// Point assigns a register value to each searched parameter name.
type Point map[string]int64

type Trial struct {
	Point Point
	Score float64
	Err   error
}

// Builder returns a fresh simulator configured at p. Each trial gets its own
// simulator, so builders must not share engines or plants.
type Builder func(p Point) (*engine.Simulator, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]int64
	workers    int
}

func NewGridSearch(params []string, ranges [][]int64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.NumCPU()}
}

// SetWorkers bounds how many trials run at once.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Points enumerates the grid in row-major order.
func (g *GridSearch) Points() []Point {
	var out []Point
	g.pointsRecursive(0, Point{}, &out)
	return out
}

func (g *GridSearch) pointsRecursive(depth int, current Point, out *[]Point) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newPoint := make(Point, len(current)+1)
		for k, v := range current {
			newPoint[k] = v
		}
		newPoint[paramName] = val
		g.pointsRecursive(depth+1, newPoint, out)
	}
}

// Search runs every grid point for ticks ticks and returns the trial with the
// smallest value of metric, along with all trials in grid order. Ties go to
// the earlier point.
func (g *GridSearch) Search(ctx context.Context, build Builder, ticks int, metric string) (Trial, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	points := g.Points()
	trials := make([]Trial, len(points))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(g.workers, len(points)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				trials[idx] = runTrial(ctx, build, points[idx], ticks, metric)
			}
		}()
	}
	for i := range points {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Trial{}, trials, err
	}

	best := -1
	bestScore := math.Inf(1)
	for i, tr := range trials {
		if tr.Err == nil && tr.Score < bestScore {
			best, bestScore = i, tr.Score
		}
	}
	if best < 0 {
		return Trial{}, trials, ErrNoTrials
	}
	return trials[best], trials, nil
}

func runTrial(ctx context.Context, build Builder, p Point, ticks int, metric string) Trial {
	tr := Trial{Point: p, Score: math.Inf(1)}
	sim, err := build(p)
	if err != nil {
		tr.Err = err
		return tr
	}
	result, err := sim.Run(ctx, engine.RunConfig{Ticks: ticks})
	if err != nil {
		tr.Err = err
		return tr
	}
	score, ok := result.Metrics[metric]
	if !ok {
		tr.Err = fmt.Errorf("optim: metric %q not recorded", metric)
		return tr
	}
	tr.Score = score
	return tr
}
