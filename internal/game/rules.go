// Package game holds the pure Paren Maren rules: turn scoring, the win
// threshold, and the qualification rule for the multiplier action. Stateful
// room handling lives in internal/room; nothing here mutates anything.
package game

// TurnScore is the score a turn is worth: the sum of all dice rolled in the
// turn times the pending multiplier. A turn without the multiplier action
// still scores sum * 1.
func TurnScore(dice []int, multiplier int) int {
	sum := 0
	for _, d := range dice {
		sum += d
	}
	return sum * multiplier
}

// IsWinningScore reports whether a player's total has reached the target.
func IsWinningScore(score, target int) bool {
	return score >= target
}

// QualifiesParenMaren reports whether the most recent die unlocks the
// multiplier action. Only the latest roll counts; a qualifying die followed
// by a low one revokes the action.
func QualifiesParenMaren(lastRoll, threshold int) bool {
	return lastRoll >= threshold
}
