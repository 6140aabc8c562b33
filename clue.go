package main

// generateClue masks an answer for display, revealing the first
// revealed non-space characters in order. Spaces always pass through
// and never consume the reveal budget.
func generateClue(answer string, revealed int) string {
	out := make([]rune, 0, len(answer))
	count := 0

	for _, ch := range answer {
		switch {
		case ch == ' ':
			out = append(out, ' ')
		case count < revealed:
			out = append(out, ch)
			count++
		default:
			out = append(out, '_')
		}
	}

	return string(out)
}
