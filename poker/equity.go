package poker

import (
	"context"
	rand "math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// workerResult holds the results from a Monte Carlo worker
type workerResult struct {
	wins         int
	ties         int
	validSamples int
}

// availableCards returns the 52-card deck minus the supplied cards
func availableCards(used Hand) []Card {
	cards := make([]Card, 0, 52-used.CountCards())
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			card := NewCard(rank, suit)
			if !used.HasCard(card) {
				cards = append(cards, card)
			}
		}
	}
	return cards
}

// EstimateEquity calculates the hero's win probability against the given
// number of opponents holding random cards, by Monte Carlo simulation.
// hole must be exactly 2 cards, board 0 to 5. Ties count as half a win.
func EstimateEquity(hole []Card, board []Card, opponents, numSamples int, rng *rand.Rand) float64 {
	if len(hole) != 2 || len(board) > 5 || opponents < 1 {
		return 0.0
	}

	used := NewHand(hole...)
	for _, c := range board {
		used.AddCard(c)
	}
	avail := availableCards(used)

	result := runEquityWorker(hole, board, avail, opponents, numSamples, rng)
	if result.validSamples == 0 {
		return 0.0
	}
	return (float64(result.wins) + float64(result.ties)/2.0) / float64(result.validSamples)
}

// EstimateEquityParallel runs the same simulation across an errgroup worker
// pool, one independent RNG per worker to avoid contention.
func EstimateEquityParallel(hole []Card, board []Card, opponents, numSamples int, rng *rand.Rand) float64 {
	if len(hole) != 2 || len(board) > 5 || opponents < 1 {
		return 0.0
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Diminishing returns beyond this
	}
	samplesPerWorker := numSamples / workers
	remainder := numSamples % workers

	used := NewHand(hole...)
	for _, c := range board {
		used.AddCard(c)
	}
	avail := availableCards(used)

	g, ctx := errgroup.WithContext(context.Background())
	results := make(chan workerResult, workers)

	for w := 0; w < workers; w++ {
		workerSamples := samplesPerWorker
		if w < remainder {
			workerSamples++ // Distribute remainder samples
		}

		// Independent RNG per worker
		seed1, seed2 := rng.Uint64(), rng.Uint64()

		g.Go(func() error {
			workerRng := rand.New(rand.NewPCG(seed1, seed2))
			result := runEquityWorker(hole, board, avail, opponents, workerSamples, workerRng)

			select {
			case results <- result:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	go func() {
		defer close(results)
		_ = g.Wait()
	}()

	totalWins := 0
	totalTies := 0
	totalValidSamples := 0
	for result := range results {
		totalWins += result.wins
		totalTies += result.ties
		totalValidSamples += result.validSamples
	}

	if err := g.Wait(); err != nil {
		// Fall back to sequential if the pool failed
		return EstimateEquity(hole, board, opponents, numSamples, rng)
	}

	if totalValidSamples == 0 {
		return 0.0
	}
	return (float64(totalWins) + float64(totalTies)/2.0) / float64(totalValidSamples)
}

// runEquityWorker runs Monte Carlo simulation for one worker
func runEquityWorker(hole []Card, board []Card, avail []Card, opponents, numSamples int, rng *rand.Rand) workerResult {
	wins := 0
	ties := 0
	validSamples := 0

	boardNeeded := 5 - len(board)
	draw := boardNeeded + 2*opponents
	if draw > len(avail) {
		return workerResult{}
	}

	heroBase := NewHand(hole...)
	for _, c := range board {
		heroBase.AddCard(c)
	}

	scratch := make([]Card, len(avail))

	for sample := 0; sample < numSamples; sample++ {
		copy(scratch, avail)
		// Partial Fisher-Yates: only the first draw cards need shuffling
		for i := 0; i < draw; i++ {
			j := i + rng.IntN(len(scratch)-i)
			scratch[i], scratch[j] = scratch[j], scratch[i]
		}

		runout := NewHand(scratch[:boardNeeded]...)
		heroScore := Evaluate7Cards(heroBase | runout)

		beaten := false
		tied := false
		for opp := 0; opp < opponents; opp++ {
			oppHole := NewHand(scratch[boardNeeded+2*opp], scratch[boardNeeded+2*opp+1])
			for _, c := range board {
				oppHole.AddCard(c)
			}
			oppScore := Evaluate7Cards(oppHole | runout)

			switch CompareHands(heroScore, oppScore) {
			case -1:
				beaten = true
			case 0:
				tied = true
			}
			if beaten {
				break
			}
		}

		if !beaten {
			if tied {
				ties++
			} else {
				wins++
			}
		}
		validSamples++
	}

	return workerResult{wins: wins, ties: ties, validSamples: validSamples}
}
