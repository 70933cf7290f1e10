// Package display renders prayer tables, period status and reminder lists
// for the terminal using raw ANSI escape codes.
//
// Color is off when NO_COLOR is set or stdout is not a terminal, and forced
// on by FORCE_COLOR.
package display

import (
	"os"

	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	gray   = "\033[90m"
)

// groupColors maps each part of the day to its table color.
var groupColors = map[namaz.Group]string{
	namaz.Morning: yellow,
	namaz.Noon:    green,
	namaz.Evening: cyan,
}

var enabled = detectColor()

func detectColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// SetEnabled overrides the detected color state, e.g. for --json output.
func SetEnabled(b bool) {
	enabled = b
}

func wrap(code, text string) string {
	if !enabled || code == "" {
		return text
	}
	return code + text + reset
}

// Bold returns text rendered in bold.
func Bold(text string) string {
	return wrap(bold, text)
}

// Dim returns text rendered faint.
func Dim(text string) string {
	return wrap(dim, text)
}

// Accent highlights the current or next period.
func Accent(text string) string {
	return wrap(bold+cyan, text)
}

// Group colors text by the part of the day a period belongs to.
func Group(g namaz.Group, text string) string {
	return wrap(groupColors[g], text)
}

// Toggle renders an enabled/disabled marker for reminder lists.
func Toggle(on bool) string {
	if on {
		return wrap(green, "on")
	}
	return wrap(gray, "off")
}
