package termrep

// maxPronounceScore caps the pronounceability score.
const maxPronounceScore = 2

// unpronounceablePenalty is added to the effective length of words that
// score zero, pushing them toward the rare end of the vocabulary.
const unpronounceablePenalty = 2

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// Pronounceability scores a word 0 (unpronounceable) to 2.
func Pronounceability(word string) int {
	vowels, consonants := 0, 0
	for i := 0; i < len(word); i++ {
		if isVowel(word[i]) {
			vowels++
		} else {
			consonants++
		}
	}
	imbalance := consonants - vowels
	if imbalance < 0 {
		imbalance = -imbalance
	}
	if vowels == 0 || imbalance > 2 {
		return 0
	}
	score := 1
	if consonants > 0 {
		score++
	}
	if score > maxPronounceScore {
		score = maxPronounceScore
	}
	return score
}

// penalisedLen returns a word's length, with the pronounceability penalty
// added when requested.
func penalisedLen(word string, favourPronounce bool) int {
	l := len(word)
	if favourPronounce && Pronounceability(word) == 0 {
		l += unpronounceablePenalty
		if l > MaxTermLen {
			l = MaxTermLen
		}
	}
	return l
}
