package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/retain/internal/domain"
)

const (
	questionPrefix   = "Q:"
	answerPrefix     = "A:"
	contextPrefix    = "C:"
	sectionPrefix    = "S:"
	difficultyPrefix = "D:"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
	// readingMetadata follows a single-line S: or D: field. It is not
	// seeking: a later Q: line must still close the current card.
	readingMetadata
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads study notes from an io.Reader and extracts all cards.
// A card is a Q: block, optionally followed by A:, C:, and the
// single-line S: (section) and D: (difficulty) metadata fields.
// Cards are separated by a new Q: line or a "---" line.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var currentCard domain.Card
	var currentBlock []string
	currentState := seeking

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.Join(currentBlock, "\n")
		switch currentState {
		case readingQuestion:
			currentCard.Question = content
		case readingAnswer:
			currentCard.Answer = content
		case readingContext:
			currentCard.Context = content
		}
		currentBlock = nil
	}

	finishCard := func() {
		flushBlock()
		if currentCard.Question != "" {
			cards = append(cards, currentCard)
		}
		currentCard = domain.Card{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishCard()
			continue
		}

		switch {
		case strings.HasPrefix(line, questionPrefix):
			if currentState != seeking { // A new question always starts a new card
				finishCard()
			} else {
				flushBlock()
			}
			currentState = readingQuestion
			currentBlock = append(currentBlock, trimPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			currentState = readingAnswer
			currentBlock = append(currentBlock, trimPrefix(line, answerPrefix))
		case strings.HasPrefix(line, contextPrefix):
			flushBlock()
			currentState = readingContext
			currentBlock = append(currentBlock, trimPrefix(line, contextPrefix))
		case strings.HasPrefix(line, sectionPrefix):
			flushBlock()
			currentState = readingMetadata
			currentCard.Section = strings.TrimSpace(trimPrefix(line, sectionPrefix))
		case strings.HasPrefix(line, difficultyPrefix):
			flushBlock()
			currentState = readingMetadata
			currentCard.Difficulty = parseDifficulty(trimPrefix(line, difficultyPrefix))
		default:
			if currentState != seeking && currentState != readingMetadata {
				currentBlock = append(currentBlock, line)
			}
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}

// parseDifficulty maps a metadata value onto the known difficulty
// levels. Unknown values are left empty; the review system defaults
// them to intermediate on registration.
func parseDifficulty(raw string) domain.Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return domain.Easy
	case "intermediate":
		return domain.Intermediate
	case "hard":
		return domain.Hard
	default:
		return ""
	}
}
