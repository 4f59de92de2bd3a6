// Package pgn extracts SAN move tokens from annotated movetext blobs.
package pgn

import "strings"

// Results that may trail the movetext. None of them is ever a move.
var results = map[string]struct{}{
	"1-0":     {},
	"0-1":     {},
	"1/2-1/2": {},
}

// Parse converts a raw movetext blob into its ordered SAN tokens.
// Brace comments, bracket annotations, the trailing result token,
// black-continuation markers (e.g. "14...") and !/? glyphs are all
// dropped. White's move always precedes Black's within a move number,
// and a group that ends after White's move yields a single token.
func Parse(movetext string) []string {
	cleaned := stripSpans(movetext)
	cleaned = stripResult(cleaned)

	fields := strings.Fields(cleaned)
	moves := make([]string, 0, len(fields))

	for i := 0; i < len(fields); i++ {
		attached, continuation, ok := splitMoveNumber(fields[i])
		if !ok {
			continue
		}

		// A continuation marker carries at most Black's move, a plain
		// move number up to two tokens (White then Black).
		want := 2
		if continuation {
			want = 1
		}
		if attached != "" {
			if tok := cleanToken(attached); tok != "" {
				moves = append(moves, tok)
			}
			want--
		}
		for ; want > 0 && i+1 < len(fields); want-- {
			if _, _, isNum := splitMoveNumber(fields[i+1]); isNum {
				break
			}
			i++
			if tok := cleanToken(fields[i]); tok != "" {
				moves = append(moves, tok)
			}
		}
	}
	return moves
}

// stripSpans removes {...} comments and [...] annotations. Spans do not
// nest; the first matching close ends the span. An unterminated span
// swallows the rest of the text.
func stripSpans(s string) string {
	const (
		outside = iota
		inBrace
		inBracket
	)
	var sb strings.Builder
	sb.Grow(len(s))
	state := outside
	for _, r := range s {
		switch state {
		case outside:
			switch r {
			case '{':
				state = inBrace
			case '[':
				state = inBracket
			default:
				sb.WriteRune(r)
			}
		case inBrace:
			if r == '}' {
				state = outside
			}
		case inBracket:
			if r == ']' {
				state = outside
			}
		}
	}
	return sb.String()
}

func stripResult(s string) string {
	s = strings.TrimSpace(s)
	for result := range results {
		if strings.HasSuffix(s, result) {
			return strings.TrimSpace(strings.TrimSuffix(s, result))
		}
	}
	return s
}

// splitMoveNumber classifies a field that starts a move group: digits
// followed by "." (White to play) or "..." (black continuation). The
// move may be glued to the prefix ("12.e4"); attached carries it.
func splitMoveNumber(field string) (attached string, continuation bool, ok bool) {
	i := 0
	for i < len(field) && field[i] >= '0' && field[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(field) || field[i] != '.' {
		return "", false, false
	}
	rest := field[i:]
	if strings.HasPrefix(rest, "...") {
		return rest[3:], true, true
	}
	return rest[1:], false, true
}

// cleanToken strips trailing annotation glyphs and rejects tokens that
// collapse to a result marker.
func cleanToken(tok string) string {
	tok = strings.TrimRight(tok, "!?")
	tok = strings.TrimSpace(tok)
	if _, isResult := results[tok]; isResult {
		return ""
	}
	return tok
}
