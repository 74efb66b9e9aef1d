package cmdutils

import (
	"fmt"
	"strings"
)

const Logo = "🤖"

// PrintResponse prints an assistant reply under a speaker label.
func PrintResponse(speaker, text string) {
	if text == "" {
		return
	}

	fmt.Printf("\n%s %s\n%s\n\n", Logo, speaker, text)
}

// PrintBanner prints a boxed section title.
func PrintBanner(title string) {
	rule := strings.Repeat("=", 60)
	fmt.Println("\n" + rule)
	fmt.Println(title)
	fmt.Println(rule)
}
