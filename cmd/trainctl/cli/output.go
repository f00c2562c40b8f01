package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

func itoa(n int) string { return strconv.Itoa(n) }

var noColor = !isatty.IsTerminal(os.Stdout.Fd())

func colorize(c *color.Color, s string) string {
	if noColor {
		return s
	}
	return c.Sprint(s)
}

func okColor(s string) string    { return colorize(color.New(color.FgGreen, color.Bold), s) }
func warnColor(s string) string  { return colorize(color.New(color.FgYellow), s) }
func errorColor(s string) string { return colorize(color.New(color.FgRed, color.Bold), s) }
func dimColor(s string) string   { return colorize(color.New(color.Faint), s) }

func statusColor(s string) string {
	switch s {
	case "Completed", "delivered":
		return okColor(s)
	case "Cancelled":
		return errorColor(s)
	case "In Progress", "in-transit", "assigned":
		return warnColor(s)
	default:
		return s
	}
}

func since(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func printf(format string, args ...any) {
	fmt.Printf(format, args...)
}

// PrintError renders a top-level command failure the same way every other
// error-shaped output in the CLI is rendered.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, errorColor(err.Error()))
}
