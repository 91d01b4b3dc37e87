package transcript

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/voicepipe/voicepipe-core/core/events"
)

// palette holds the display colors rotated across turns. A turn's color is
// selected by its index modulo the palette size so interleaved speakers stay
// visually distinct.
var palette = []lipgloss.Color{
	lipgloss.Color("12"), // blue
	lipgloss.Color("10"), // green
	lipgloss.Color("11"), // yellow
	lipgloss.Color("13"), // magenta
	lipgloss.Color("14"), // cyan
}

// PaletteSize reports how many distinct turn colors rotate.
func PaletteSize() int {
	return len(palette)
}

// Line is one finalized transcript line: the words attributed to a single
// turn, in recognition order. It is immutable once handed out.
type Line struct {
	TurnIndex  int
	Words      []events.Word
	ColorIndex int
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	words := make([]string, 0, len(l.Words))
	for _, word := range l.Words {
		words = append(words, word.Text)
	}
	return strings.Join(words, " ")
}

// Render produces the colored, width-wrapped terminal form of the line.
func (l Line) Render(width int) string {
	text := l.Text()
	if width > 0 {
		text = wordwrap.String(text, width)
	}
	return lipgloss.NewStyle().Foreground(palette[l.ColorIndex]).Render(text)
}
