package main

import (
	"fmt"
	rand "math/rand/v2"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/holdem-rooms/internal/randutil"
	"github.com/lox/holdem-rooms/poker"
)

type CLI struct {
	Hands         []string `arg:"" help:"Hole cards per player, e.g. 'AcKd' 'QhJs'" required:"true"`
	Board         string   `short:"b" help:"Community cards dealt so far (e.g. 'Td7s8h')"`
	Opponents     int      `short:"o" default:"1" help:"Random opponents when a single hand is given"`
	Possibilities bool     `short:"p" help:"Show hand type probabilities per player"`
	Iterations    int      `short:"i" default:"100000" help:"Number of Monte Carlo iterations"`
	Seed          *int64   `help:"Random seed for reproducible results"`
	NoColor       bool     `long:"no-color" help:"Disable coloured output"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	percentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	var seed int64
	if cli.Seed != nil {
		seed = *cli.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	hands, err := parseHands(cli.Hands)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing hands: %v\n", err)
		ctx.Exit(1)
	}

	var board []poker.Card
	if cli.Board != "" {
		board, err = poker.ParseCards(cli.Board)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing board: %v\n", err)
			ctx.Exit(1)
		}
		if len(board) > 5 {
			fmt.Fprintln(os.Stderr, "Board cannot have more than 5 cards")
			ctx.Exit(1)
		}
	}

	if err := validateNoDuplicates(hands, board); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}

	startTime := time.Now()

	if len(hands) == 1 {
		if cli.Opponents < 1 {
			fmt.Fprintln(os.Stderr, "Need at least one opponent")
			ctx.Exit(1)
		}
		// Hero against unseen hands
		equity := poker.EstimateEquityParallel(hands[0], board, cli.Opponents, cli.Iterations, rng)
		duration := time.Since(startTime)
		displayEquity(hands[0], board, cli.Opponents, equity, cli.Iterations, duration)
		return
	}

	results := simulate(hands, board, cli.Iterations, rng)
	duration := time.Since(startTime)
	displayResults(results, board, cli.Possibilities, cli.Iterations, duration)
}

type playerResult struct {
	hand      []poker.Card
	wins      int
	ties      int
	total     int
	handTypes map[string]int
}

func parseHands(handStrings []string) ([][]poker.Card, error) {
	var hands [][]poker.Card

	for i, handStr := range handStrings {
		handStr = strings.ReplaceAll(strings.TrimSpace(handStr), " ", "")
		hand, err := poker.ParseCards(handStr)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
		if len(hand) != 2 {
			return nil, fmt.Errorf("hand %d: must contain exactly 2 cards, got %d", i+1, len(hand))
		}
		hands = append(hands, hand)
	}

	return hands, nil
}

func validateNoDuplicates(hands [][]poker.Card, board []poker.Card) error {
	var seen poker.Hand

	for _, card := range board {
		if seen.HasCard(card) {
			return fmt.Errorf("duplicate card: %s", card)
		}
		seen.AddCard(card)
	}

	for i, hand := range hands {
		for _, card := range hand {
			if seen.HasCard(card) {
				return fmt.Errorf("duplicate card in hand %d: %s", i+1, card)
			}
			seen.AddCard(card)
		}
	}

	return nil
}

// simulate deals random run-outs and counts how often each known hand wins.
func simulate(hands [][]poker.Card, board []poker.Card, iterations int, rng *rand.Rand) []playerResult {
	results := make([]playerResult, len(hands))
	for i := range results {
		results[i] = playerResult{
			hand:      hands[i],
			total:     iterations,
			handTypes: make(map[string]int),
		}
	}

	var used poker.Hand
	for _, card := range board {
		used.AddCard(card)
	}
	for _, hand := range hands {
		for _, card := range hand {
			used.AddCard(card)
		}
	}

	var avail []poker.Card
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			card := poker.NewCard(rank, suit)
			if !used.HasCard(card) {
				avail = append(avail, card)
			}
		}
	}

	need := 5 - len(board)
	ranks := make([]poker.HandRank, len(hands))

	for iter := 0; iter < iterations; iter++ {
		// Partial shuffle selects the run-out without replacement
		for i := 0; i < need; i++ {
			j := i + rng.IntN(len(avail)-i)
			avail[i], avail[j] = avail[j], avail[i]
		}
		runOut := avail[:need]

		for i, hand := range hands {
			full := poker.NewHand(hand...)
			for _, card := range board {
				full.AddCard(card)
			}
			for _, card := range runOut {
				full.AddCard(card)
			}
			ranks[i] = poker.Evaluate7Cards(full)
			results[i].handTypes[ranks[i].String()]++
		}

		// Lower rank wins
		best := ranks[0]
		for _, r := range ranks[1:] {
			if r < best {
				best = r
			}
		}
		winners := 0
		for _, r := range ranks {
			if r == best {
				winners++
			}
		}
		for i, r := range ranks {
			if r == best {
				if winners == 1 {
					results[i].wins++
				} else {
					results[i].ties++
				}
			}
		}
	}

	return results
}

func displayEquity(hand []poker.Card, board []poker.Card, opponents int, equity float64, iterations int, duration time.Duration) {
	if len(board) > 0 {
		fmt.Printf("%s\n%s\n\n", headerStyle.Render("board"), formatCards(board))
	}

	fmt.Printf("%s vs %d random %s\n",
		handStyle.Render(formatCards(hand)),
		opponents,
		plural(opponents, "opponent", "opponents"))
	fmt.Printf("equity: %s\n", winStyle.Render(fmt.Sprintf("%.1f%%", equity*100)))
	fmt.Printf("\n%d iterations in %v\n", iterations, duration.Truncate(time.Millisecond))
}

func displayResults(results []playerResult, board []poker.Card, showPossibilities bool, iterations int, duration time.Duration) {
	if len(board) > 0 {
		fmt.Printf("%s\n%s\n\n", headerStyle.Render("board"), formatCards(board))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"))

	for _, result := range results {
		winPct := float64(result.wins) / float64(result.total) * 100
		tiePct := float64(result.ties) / float64(result.total) * 100

		fmt.Fprintf(w, "%s\t%s\t%s\n",
			handStyle.Render(formatCards(result.hand)),
			winStyle.Render(fmt.Sprintf("%.1f%%", winPct)),
			tieStyle.Render(fmt.Sprintf("%.1f%%", tiePct)))
	}

	w.Flush()

	if showPossibilities && len(results) > 0 {
		fmt.Println()
		displayPossibilities(results)
	}

	fmt.Printf("\n%d iterations in %v\n", iterations, duration.Truncate(time.Millisecond))
}

func displayPossibilities(results []playerResult) {
	orderedTypes := []string{
		"Royal Flush", "Straight Flush", "Four of a Kind", "Full House",
		"Flush", "Straight", "Three of a Kind", "Two Pair", "Pair", "High Card",
	}

	seen := make(map[string]bool)
	for _, result := range results {
		for handType := range result.handTypes {
			seen[handType] = true
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s", categoryStyle.Render("hand"))
	for i := range results {
		fmt.Fprintf(w, "\t%s", handStyle.Render(formatCards(results[i].hand)))
	}
	fmt.Fprintln(w)

	for _, handType := range orderedTypes {
		if !seen[handType] {
			continue
		}

		fmt.Fprintf(w, "%s", categoryStyle.Render(handType))
		for _, result := range results {
			count := result.handTypes[handType]
			if count > 0 {
				pct := float64(count) / float64(result.total) * 100
				fmt.Fprintf(w, "\t%s", percentStyle.Render(fmt.Sprintf("%.1f%%", pct)))
			} else {
				fmt.Fprintf(w, "\t%s", percentStyle.Render("."))
			}
		}
		fmt.Fprintln(w)
	}

	w.Flush()
}

func formatCards(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
