package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// formatItem renders one list row: done mark, short id, category, scope and
// summary. AI-classified items carry a trailing "*".
func formatItem(it models.Item) string {
	mark := " "
	if it.Status == models.StatusDone {
		mark = "x"
	}
	row := fmt.Sprintf("[%s] %s  %-7s %-9s %s", mark, shortID(it.ID), it.Category, it.Scope, it.Summary)
	if it.AIProcessed {
		row += " *"
	}
	return row
}

// formatCard is the detailed view used by "next".
func formatCard(it models.Item) string {
	var b strings.Builder
	b.WriteString(formatItem(it))
	if it.Detail != "" {
		b.WriteString("\n    " + it.Detail)
	}
	if len(it.Tags) > 0 {
		b.WriteString("\n    #" + strings.Join(it.Tags, " #"))
	}
	if it.RawText != it.Summary {
		b.WriteString("\n    > " + it.RawText)
	}
	return b.String()
}
