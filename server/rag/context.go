package rag

import (
	"fmt"
	"strings"
	"time"

	"github.com/citypulse/pulse/plugin/markdown"
	"github.com/citypulse/pulse/store"
)

const (
	// perItemExcerptChars caps how much of one transcript reaches the
	// prompt.
	perItemExcerptChars = 200
	// maxContextChars bounds the whole assembled context so the summarize
	// call's cost stays bounded no matter how many items retrieval found.
	maxContextChars = 4000
)

// contextBuilder turns retrieved items into the bounded textual context
// handed to the summarizer.
type contextBuilder struct {
	markdown markdown.Service
}

// Build renders one numbered block per item until the total budget is
// exhausted. Blocks carry title, age, zone, tags, and a transcript excerpt;
// the fused multimodal summary wins over the raw transcript when present.
func (b *contextBuilder) Build(matches []*store.ItemWithScore, now time.Time) string {
	var blocks []string
	total := 0

	for i, match := range matches {
		block := b.renderBlock(i+1, match.Item, now)
		if total+len(block) > maxContextChars && len(blocks) > 0 {
			break
		}
		blocks = append(blocks, block)
		total += len(block)
	}

	return strings.Join(blocks, "\n\n")
}

func (b *contextBuilder) renderBlock(ordinal int, item *store.Item, now time.Time) string {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	excerpt := b.markdown.PlainText(item.ContextText())
	if len(excerpt) > perItemExcerptChars {
		excerpt = excerpt[:perItemExcerptChars] + "..."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. %q (%s ago, %s)\n", ordinal, title, formatAge(now.Unix()-item.CreatedTs), item.Zone)
	if len(item.Tags) > 0 {
		fmt.Fprintf(&sb, "   Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintf(&sb, "   Content: %s", excerpt)
	return sb.String()
}

func formatAge(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds) * time.Second
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
