package dcfr

import "testing"

func TestRegretMatchingNormalizesPositiveRegrets(t *testing.T) {
	// 2 actions, 1 hand: regrets 3 and 1 -> strategy 0.75/0.25.
	row := []float32{3, 1}
	strat := regretMatching(row, 2, 1)
	if got := strat[0][0]; got != 0.75 {
		t.Fatalf("strat[0][0] = %v, want 0.75", got)
	}
	if got := strat[1][0]; got != 0.25 {
		t.Fatalf("strat[1][0] = %v, want 0.25", got)
	}
}

func TestRegretMatchingUniformWhenNonPositive(t *testing.T) {
	row := []float32{-2, -1, 0}
	strat := regretMatching(row, 3, 1)
	for a := 0; a < 3; a++ {
		if got := strat[a][0]; got != 1.0/3.0 {
			t.Fatalf("strat[%d][0] = %v, want %v", a, got, 1.0/3.0)
		}
	}
}

func TestRegretMatchingZeroesNegativeRegretsWhenSomePositive(t *testing.T) {
	row := []float32{5, -3}
	strat := regretMatching(row, 2, 1)
	if strat[0][0] != 1 {
		t.Fatalf("strat[0][0] = %v, want 1", strat[0][0])
	}
	if strat[1][0] != 0 {
		t.Fatalf("strat[1][0] = %v, want 0", strat[1][0])
	}
}

func TestRegretMatchingSingleActionAlwaysFullWeight(t *testing.T) {
	for _, regret := range []float32{-5, 0, 5} {
		strat := regretMatching([]float32{regret}, 1, 1)
		if strat[0][0] != 1 {
			t.Fatalf("regret %v: strat[0][0] = %v, want 1", regret, strat[0][0])
		}
	}
}

func TestApplyLockForcesWeightAndRenormalizesRemainder(t *testing.T) {
	// 3 actions, 1 hand, unlocked regret-matched strategy 0.5/0.3/0.2.
	strat := [][]float64{{0.5}, {0.3}, {0.2}}
	lock := &Lock{Weights: [][]float64{{0.9}, {-1}, {-1}}}
	applyLock(strat, lock, 3, 1)

	if strat[0][0] != 0.9 {
		t.Fatalf("locked action weight = %v, want 0.9", strat[0][0])
	}
	remaining := strat[1][0] + strat[2][0]
	if diff := remaining - 0.1; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unlocked remainder = %v, want 0.1", remaining)
	}
	// original 0.3:0.2 ratio (3:2) should be preserved within the 0.1 remainder.
	wantA1, wantA2 := 0.1*0.3/0.5, 0.1*0.2/0.5
	if diff := strat[1][0] - wantA1; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("strat[1][0] = %v, want %v", strat[1][0], wantA1)
	}
	if diff := strat[2][0] - wantA2; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("strat[2][0] = %v, want %v", strat[2][0], wantA2)
	}
}

func TestApplyLockUniformSplitWhenUnlockedShareIsZero(t *testing.T) {
	strat := [][]float64{{1}, {0}, {0}}
	lock := &Lock{Weights: [][]float64{{0.4}, {-1}, {-1}}}
	applyLock(strat, lock, 3, 1)

	if strat[0][0] != 0.4 {
		t.Fatalf("locked action weight = %v, want 0.4", strat[0][0])
	}
	want := 0.6 / 2
	if strat[1][0] != want || strat[2][0] != want {
		t.Fatalf("unlocked actions = (%v, %v), want uniform %v", strat[1][0], strat[2][0], want)
	}
}

func TestIsLocked(t *testing.T) {
	lock := &Lock{Weights: [][]float64{{0.5, -1}}}
	if !isLocked(lock, 0, 0) {
		t.Fatalf("expected locked")
	}
	if isLocked(lock, 0, 1) {
		t.Fatalf("expected unlocked")
	}
	if isLocked(nil, 0, 0) {
		t.Fatalf("nil lock must report unlocked")
	}
}
