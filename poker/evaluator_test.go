package poker

import (
	"testing"
)

func parseHand(s string) Hand {
	cards, _ := ParseCards(s)
	return NewHand(cards...)
}

func TestEvaluateHighCard(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Kh Qd Jc 9s 7h 5d"))

	if rank.Type() != HighCard {
		t.Errorf("Expected HighCard, got %s", rank.String())
	}
}

func TestEvaluatePair(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ah Kd Qc Js 9h 7d"))

	if rank.Type() != Pair {
		t.Errorf("Expected Pair, got %s", rank.String())
	}
}

func TestEvaluateTwoPair(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ah Kd Kc Qs 9h 7d"))

	if rank.Type() != TwoPair {
		t.Errorf("Expected TwoPair, got %s", rank.String())
	}
}

func TestEvaluateThreeOfAKind(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ah Ad Kc Qs 9h 7d"))

	if rank.Type() != ThreeOfAKind {
		t.Errorf("Expected ThreeOfAKind, got %s", rank.String())
	}
}

func TestEvaluateStraight(t *testing.T) {
	// Regular straight
	rank := Evaluate7Cards(parseHand("As Kh Qd Jc Ts 9h 7d"))

	if rank.Type() != Straight {
		t.Errorf("Expected Straight, got %s", rank.String())
	}

	// Ace-low straight (wheel)
	rank2 := Evaluate7Cards(parseHand("As 2h 3d 4c 5s Kh Qd"))

	if rank2.Type() != Straight {
		t.Errorf("Expected Straight (wheel), got %s", rank2.String())
	}
}

func TestEvaluateFlush(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ks Qs Js 9s 7h 5d"))

	if rank.Type() != Flush {
		t.Errorf("Expected Flush, got %s", rank.String())
	}
}

func TestEvaluateFullHouse(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ah Ad Kc Kh 9h 7d"))

	if rank.Type() != FullHouse {
		t.Errorf("Expected FullHouse, got %s", rank.String())
	}
}

func TestEvaluateFourOfAKind(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ah Ad Ac Ks 9h 7d"))

	if rank.Type() != FourOfAKind {
		t.Errorf("Expected FourOfAKind, got %s", rank.String())
	}
}

func TestEvaluateStraightFlush(t *testing.T) {
	rank := Evaluate7Cards(parseHand("Ks Qs Js Ts 9s 7h 5d"))

	if rank.Type() != StraightFlush {
		t.Errorf("Expected StraightFlush, got %s", rank.String())
	}
	if rank.IsRoyal() {
		t.Error("King-high straight flush should not be royal")
	}
	if rank.String() != "Straight Flush" {
		t.Errorf("Expected \"Straight Flush\", got %q", rank.String())
	}
}

func TestEvaluateRoyalFlush(t *testing.T) {
	rank := Evaluate7Cards(parseHand("As Ks Qs Js Ts 7h 5d"))

	if rank.Type() != StraightFlush {
		t.Errorf("Expected StraightFlush, got %s", rank.String())
	}
	if !rank.IsRoyal() {
		t.Error("Ace-high straight flush should be royal")
	}
	if rank.String() != "Royal Flush" {
		t.Errorf("Expected \"Royal Flush\", got %q", rank.String())
	}
}

func TestWheelRanksBelowSixHigh(t *testing.T) {
	wheel := Evaluate7Cards(parseHand("As 2h 3d 4c 5s Kh Qd"))
	sixHigh := Evaluate7Cards(parseHand("2s 3h 4d 5c 6s Kh Qd"))

	if wheel.Type() != Straight || sixHigh.Type() != Straight {
		t.Fatalf("Expected two straights, got %s and %s", wheel, sixHigh)
	}
	if CompareHands(wheel, sixHigh) != -1 {
		t.Error("Wheel should lose to six-high straight")
	}
	if CompareHands(sixHigh, wheel) != 1 {
		t.Error("Six-high straight should beat the wheel")
	}

	// Suits don't matter for straights
	otherWheel := Evaluate7Cards(parseHand("Ah 2c 3s 4d 5h Kd Qc"))
	if CompareHands(wheel, otherWheel) != 0 {
		t.Error("Identical straights should tie regardless of suits")
	}
}

func TestSixCardStraightUsesHighEnd(t *testing.T) {
	// A-2-3-4-5-6 contains both the wheel and a six-high straight;
	// the six-high one is the best five cards.
	both := Evaluate7Cards(parseHand("Ah 2c 3d 4s 5h 6c 9d"))
	sixHigh := Evaluate7Cards(parseHand("2h 3s 4d 5c 6h 9s Kd"))

	if both.Type() != Straight {
		t.Fatalf("Expected Straight, got %s", both)
	}
	if CompareHands(both, sixHigh) != 0 {
		t.Errorf("A-6 run should evaluate as six-high straight, got %d vs %d", both, sixHigh)
	}

	// Same rule inside a single suit
	steelWheel := Evaluate7Cards(parseHand("As 2s 3s 4s 5s Kh Qd"))
	sixHighFlush := Evaluate7Cards(parseHand("As 2s 3s 4s 5s 6s Qd"))

	if steelWheel.Type() != StraightFlush || sixHighFlush.Type() != StraightFlush {
		t.Fatalf("Expected straight flushes, got %s and %s", steelWheel, sixHighFlush)
	}
	if CompareHands(sixHighFlush, steelWheel) != 1 {
		t.Error("Six-high straight flush should beat the steel wheel")
	}
}

func TestEvaluateCardCounts(t *testing.T) {
	five := parseHand("As Ks Qs Js Ts")
	six := parseHand("As Ks Qs Js Ts 2h")
	seven := parseHand("As Ks Qs Js Ts 2h 3d")

	r5 := Evaluate(five)
	r6 := Evaluate(six)
	r7 := Evaluate(seven)

	if !r5.IsRoyal() || !r6.IsRoyal() || !r7.IsRoyal() {
		t.Errorf("Royal flush should win at 5, 6 and 7 cards: %d %d %d", r5, r6, r7)
	}

	// Extra cards that don't improve the hand must not change the rank
	if r5 != r6 || r6 != r7 {
		t.Errorf("Irrelevant extra cards changed the rank: %d %d %d", r5, r6, r7)
	}

	if Evaluate(parseHand("As Ks Qs Js")) != 0 {
		t.Error("Four cards should not evaluate")
	}
	if Evaluate(parseHand("As Ks Qs Js Ts 2h 3d 4c")) != 0 {
		t.Error("Eight cards should not evaluate")
	}
	if Evaluate7Cards(five) != 0 {
		t.Error("Evaluate7Cards should reject five cards")
	}
}

func TestCompareHands(t *testing.T) {
	tests := []struct {
		name     string
		hand1    Hand
		hand2    Hand
		expected int // 1 if hand1 wins, -1 if hand2 wins, 0 for tie
	}{
		{
			name:     "Pair beats high card",
			hand1:    parseHand("As Ah Kd Qc Js 9h 7d"),
			hand2:    parseHand("As Kh Qd Jc 9s 7h 5d"),
			expected: 1,
		},
		{
			name:     "Higher pair beats lower pair",
			hand1:    parseHand("As Ah Kd Qc Js 9h 7d"),
			hand2:    parseHand("Ks Kh Qd Jc 9s 7h 5d"),
			expected: 1,
		},
		{
			name:     "Kicker decides equal pairs",
			hand1:    parseHand("As Ah Kd Qc Js 4h 3d"),
			hand2:    parseHand("Ad Ac Kh Qs Ts 4c 3s"),
			expected: 1,
		},
		{
			name:     "Flush beats straight",
			hand1:    parseHand("As Ks Qs Js 9s 7h 5d"),
			hand2:    parseHand("As Kh Qd Jc Ts 9h 7d"),
			expected: 1,
		},
		{
			name:     "Full house beats flush",
			hand1:    parseHand("As Ah Ad Kc Kh 9h 7d"),
			hand2:    parseHand("As Ks Qs Js 9s 7h 5d"),
			expected: 1,
		},
		{
			name:     "Full house trips decide before the pair",
			hand1:    parseHand("As Ah Ad Kc Kh 9h 7d"),
			hand2:    parseHand("Ks Kd Kc Ac Ah 9s 7c"),
			expected: 1,
		},
		{
			name:     "Two pair uses the higher top pair",
			hand1:    parseHand("As Ah Kd Kc Qs 9h 7d"),
			hand2:    parseHand("Ks Kh Qd Qc Js 9s 7c"),
			expected: 1,
		},
		{
			name:     "Identical boards tie",
			hand1:    parseHand("2c 3c Ah Kh Qh Jh Th"),
			hand2:    parseHand("2d 3d Ah Kh Qh Jh Th"),
			expected: 0,
		},
		{
			name:     "Higher flush card wins",
			hand1:    parseHand("As Ks Qs Js 9s 7h 5d"),
			hand2:    parseHand("Kh Qh Jh 9h 8h 7s 5c"),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank1 := Evaluate7Cards(tt.hand1)
			rank2 := Evaluate7Cards(tt.hand2)
			result := CompareHands(rank1, rank2)

			if result != tt.expected {
				t.Errorf("Expected %d, got %d (hand1: %s, hand2: %s)",
					tt.expected, result, rank1.String(), rank2.String())
			}
		})
	}
}

func TestEvaluate7CardsBatch(t *testing.T) {
	hands := []Hand{
		parseHand("As Kh Qd Jc Ts 9h 7d"),
		parseHand("As Ah Ad Ac Ks 9h 7d"),
		parseHand("As Ks Qs Js 9s 7h 5d"),
	}

	ranks := Evaluate7CardsBatch(hands, nil)
	if len(ranks) != len(hands) {
		t.Fatalf("Expected %d ranks, got %d", len(hands), len(ranks))
	}

	for i, hand := range hands {
		if ranks[i] != Evaluate7Cards(hand) {
			t.Errorf("Batch rank %d disagrees with single evaluation", i)
		}
	}

	// Reuses the output slice when it fits
	out := make([]HandRank, 8)
	reused := Evaluate7CardsBatch(hands, out)
	if &reused[0] != &out[0] {
		t.Error("Batch should reuse a sufficiently large output slice")
	}
}

func BenchmarkEvaluate7Cards(b *testing.B) {
	hand := parseHand("As Kh Qd Jc Ts 9h 7d")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate7Cards(hand)
	}
}

func BenchmarkEvaluateFullHouse(b *testing.B) {
	hand := parseHand("As Ah Ad Kc Kh 9h 7d")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate7Cards(hand)
	}
}
