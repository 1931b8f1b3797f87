package main

import (
	"fmt"
	"strings"
)

// Terminal color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// renderBoard prints an ASCII board with colored pieces
func renderBoard(asciiBoard string) {
	lines := strings.Split(asciiBoard, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		isRankLine := (i == 0) || (i == 9)

		for _, char := range line {
			switch {
			case char >= 'a' && char <= 'h' && isRankLine:
				// File letters - Cyan
				fmt.Printf("%s%c%s", colorCyan, char, colorReset)
			case char >= 'A' && char <= 'Z':
				// White pieces - Blue
				fmt.Printf("%s%c%s", colorBlue, char, colorReset)
			case char >= 'a' && char <= 'z' && !isRankLine:
				// Black pieces - Red
				fmt.Printf("%s%c%s", colorRed, char, colorReset)
			case char >= '1' && char <= '8':
				// Rank numbers - Cyan
				fmt.Printf("%s%c%s", colorCyan, char, colorReset)
			default:
				fmt.Printf("%c", char)
			}
		}
		fmt.Println()
	}
}

// colorForTurn returns a colored side-to-move label
func colorForTurn(turn string) string {
	if turn == "w" {
		return colorBlue + "White" + colorReset
	}
	return colorRed + "Black" + colorReset
}

func printError(msg string) {
	fmt.Printf("%s%s%s\n", colorRed, msg, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s%s%s\n", colorGreen, msg, colorReset)
}
