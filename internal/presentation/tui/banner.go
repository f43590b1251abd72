package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Quorum.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String("   ____                                ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("  / __ \\__  ______  _______  ______ ___ ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" / / / / / / / __ \\/ ___/ / / / __ `__ \\").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("/ /_/ / /_/ / /_/ / /  / /_/ / / / / / /").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("\\___\\_\\__,_/\\____/_/   \\__,_/_/ /_/ /_/ ").Foreground(p.Color("#f472b6"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
