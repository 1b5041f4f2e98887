package history

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Splitter breaks long text into chunks of at most Size runes, preferring
// paragraph, line, and word boundaries in that order. Up to Overlap runes of
// trailing context are repeated at the start of the next chunk.
type Splitter struct {
	Size    int
	Overlap int
}

var chunkSeparators = []string{"\n\n", "\n", " "}

// Split chunks one text. Blank input yields no chunks; text within Size is
// returned as a single chunk.
func (s Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.Size <= 0 {
		return []string{text}
	}
	return s.split(text, chunkSeparators)
}

func (s Splitter) split(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= s.Size {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardSplit(text)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return s.split(text, seps[1:])
	}

	sepLen := utf8.RuneCountInString(sep)
	pieces := strings.Split(text, sep)

	var chunks []string

	// current accumulates pieces for the chunk being built. fresh reports
	// whether it holds anything beyond overlap carried from the last flush.
	var current []string
	curLen := 0
	fresh := false

	flush := func() {
		if !fresh {
			return
		}
		chunks = append(chunks, strings.Join(current, sep))

		var tail []string
		tailLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			n := utf8.RuneCountInString(current[i]) + sepLen
			if tailLen+n > s.Overlap {
				break
			}
			tail = append(tail, current[i])
			tailLen += n
		}
		slices.Reverse(tail)
		current = tail
		curLen = tailLen
		fresh = false
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)

		// A piece that alone exceeds Size is split with the finer separators
		// and stands apart from the running chunk.
		if n > s.Size {
			flush()
			current = nil
			curLen = 0
			chunks = append(chunks, s.split(piece, seps[1:])...)
			continue
		}

		if curLen+n+sepLen > s.Size {
			flush()
		}
		current = append(current, piece)
		curLen += n + sepLen
		fresh = true
	}
	flush()

	return chunks
}

// hardSplit windows raw runes when no separator is usable.
func (s Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.Size - s.Overlap
	if step <= 0 {
		step = s.Size
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.Size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
