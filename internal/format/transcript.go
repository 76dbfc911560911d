// Package format renders documents and transcripts into the text forms
// written to disk and sent to webhooks.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexjbarnes/granola-sync/internal/cache"
)

// Transcript renders segments as one line per utterance:
//
//	[HH:MM:SS] You: said something
//	[HH:MM:SS] System: reply from the other side
//
// Microphone audio is attributed to You, everything else to System.
// Segments without a parsable timestamp render without the bracket.
func Transcript(segments []cache.Segment) string {
	var b strings.Builder

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		speaker := "System"
		if seg.Source == "microphone" {
			speaker = "You"
		}

		if ts, err := time.Parse(time.RFC3339, seg.StartTimestamp); err == nil {
			fmt.Fprintf(&b, "[%s] %s: %s\n", ts.UTC().Format("15:04:05"), speaker, text)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", speaker, text)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
