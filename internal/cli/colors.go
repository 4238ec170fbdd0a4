package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
)

// RGB represents a TrueColor
type RGB struct {
	R, G, B float64
}

var (
	BrandBlue   = RGB{0, 120, 255}
	BrandPurple = RGB{189, 52, 235}
)

var enabled = detect()

func detect() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Enabled reports whether ANSI colors are written.
func Enabled() bool { return enabled }

// SetEnabled overrides terminal detection, e.g. for --no-color.
func SetEnabled(v bool) { enabled = v }

// Style wraps text in a specific color code
func Style(text string, colorCode string) string {
	if !enabled {
		return text
	}
	return colorCode + text + Reset
}

// ColorizeRGB returns text wrapped in ANSI TrueColor escape codes
func ColorizeRGB(text string, c RGB) string {
	if !enabled {
		return text
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s%s", int(c.R), int(c.G), int(c.B), text, Reset)
}

// Gradient colors text by interpolating between start and end, progress in [0,1].
func Gradient(text string, start, end RGB, progress float64) string {
	r := start.R + (end.R-start.R)*progress
	g := start.G + (end.G-start.G)*progress
	b := start.B + (end.B-start.B)*progress
	return ColorizeRGB(text, RGB{r, g, b})
}

func CheckMark() string { return Style("✔", Green) }

func Arrow() string { return Style("➜", Blue) }

func CrossMark() string { return Style("✘", Red) }

func WarningSign() string { return Style("!", Yellow) }
