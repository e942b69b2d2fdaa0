package ops

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/rank"
)

// markdown renders GitHub-flavored tables. Raw HTML in input is not passed through.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// writeHTMLReport renders the recall surface and the full history as a
// Markdown report and converts it to a standalone HTML page.
func writeHTMLReport(w io.Writer, out *ExportOutput, ranked, all []entry.Entry) error {
	md := buildReportMarkdown(out, ranked, all)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return errors.NewInternal(fmt.Errorf("render report: %w", err))
	}

	title := "clipz history " + html.EscapeString(out.ExportedAt)
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
</style>
</head>
<body>
%s</body>
</html>
`, title, body.String())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func buildReportMarkdown(out *ExportOutput, ranked, all []entry.Entry) string {
	var b strings.Builder

	b.WriteString("# Clipboard history\n\n")
	fmt.Fprintf(&b, "- Exported: %s\n", escapeMarkdown(out.ExportedAt))
	fmt.Fprintf(&b, "- Export id: `%s`\n", out.ExportID)
	fmt.Fprintf(&b, "- Entries: %d\n\n", len(all))

	b.WriteString("## Recall slots\n\n")
	if len(ranked) == 0 {
		b.WriteString("_History is empty._\n\n")
	} else {
		b.WriteString("| Slot | Hotkey | Text | Copies | Pastes | Pinned |\n")
		b.WriteString("|---:|---|---|---:|---:|---|\n")
		for i, e := range ranked {
			pinned := ""
			if e.Pinned {
				pinned = fmt.Sprintf("#%d", e.Order()+1)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %d | %d | %s |\n",
				i+1, rank.Hotkey(i+1), escapeMarkdown(entry.Preview(e.Text, DefaultPreviewChars)),
				e.CopyCount, e.PasteCount, pinned)
		}
		b.WriteString("\n")
	}

	b.WriteString("## All entries\n\n")
	if len(all) > 0 {
		b.WriteString("| # | Text | Chars | Copies | Pastes | First copied | Last copied | Last pasted |\n")
		b.WriteString("|---:|---|---:|---:|---:|---|---|---|\n")
		for i, e := range all {
			pasted := "-"
			if e.LastPastedAt != nil {
				pasted = exportTime(*e.LastPastedAt)
			}
			fmt.Fprintf(&b, "| %d | %s | %d | %d | %d | %s | %s | %s |\n",
				i+1, escapeMarkdown(entry.Preview(e.Text, DefaultPreviewChars)), entry.CountChars(e.Text),
				e.CopyCount, e.PasteCount, exportTime(e.CreatedAt), exportTime(e.CopiedAt()), pasted)
		}
	}
	return b.String()
}

// escapeMarkdown backslash-escapes ASCII punctuation so clipboard text renders literally.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 128 && strings.ContainsRune("\\`*_{}[]()<>#+-.!|~&\"'", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
