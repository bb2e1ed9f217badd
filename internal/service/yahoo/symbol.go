package yahoo

import "strings"

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// BuildSymbolCandidates turns raw user input into the provider symbols to try,
// in order. The input is passed through as typed; a bare 4-character
// alphanumeric code also gets the upper-cased Tokyo-suffixed form appended so
// JP tickers resolve without the user typing the suffix.
func BuildSymbolCandidates(input string) []string {
	symbol := strings.TrimSpace(input)
	if symbol == "" {
		return []string{}
	}

	candidates := []string{symbol}
	if len(symbol) == 4 {
		plain := true
		for _, r := range symbol {
			if !isAlnum(r) {
				plain = false
				break
			}
		}
		if plain {
			candidates = append(candidates, strings.ToUpper(symbol)+".T")
		}
	}
	return candidates
}
