// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// wrapBreakpoints are the characters ansi.Wrap may break long lines at
// in addition to spaces.
const wrapBreakpoints = " ,.;-+|"

// The goldmark parser is configured once and shared. Parsing creates
// per-call state via Parse(reader), so the shared instance is safe.
var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParser
}

// renderMarkdown parses markdown and renders it as styled terminal
// output wrapped to width. Soft line breaks (single newlines within
// paragraphs) become spaces so hard-wrapped source reflows at any
// pane width; code blocks, lists, and tables keep their structure.
func renderMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 profile: this output is always for terminal
	// display inside the bubbletea program, so auto-detection (which
	// sees no TTY under tests) must not strip the colors.
	styler := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	styler.SetColorProfile(termenv.ANSI256)

	writer := &markdownWriter{
		source: source,
		theme:  theme,
		width:  width,
		styler: styler,
	}
	ast.Walk(document, writer.visit)

	return strings.TrimRight(writer.out.String(), "\n")
}

// markdownWriter walks a goldmark AST and emits styled terminal text.
// It walks the tree directly instead of implementing goldmark's
// renderer interface because terminal output needs accumulate-then-
// wrap semantics: a paragraph's inline content collects in a buffer
// and is word-wrapped as a unit when the paragraph closes.
type markdownWriter struct {
	source []byte
	theme  Theme
	width  int
	styler *lipgloss.Renderer

	// Rendered output, and a count of its trailing newlines for blank
	// line management between blocks.
	out          strings.Builder
	tailNewlines int

	// Inline accumulator for the currently open paragraph or heading.
	paragraph strings.Builder

	// Prefix stack for nested containers (blockquotes, list items).
	indents     []indentLevel
	prefix      string // Concatenation of all indent texts.
	prefixWidth int    // Sum of all visible indent widths.

	// bulletOverride replaces the prefix for the very next emitted
	// line, then clears. Carries list item bullets and numbers.
	bulletOverride string

	// Inline style counters. Counters rather than booleans so nested
	// emphasis closes correctly.
	bold   int
	italic int
	strike int

	// Open list stack.
	lists []listFrame
}

type indentLevel struct {
	text  string
	width int
}

type listFrame struct {
	ordered bool
	counter int
	tight   bool
}

func (w *markdownWriter) style() lipgloss.Style {
	return w.styler.NewStyle()
}

// contentWidth is the wrap width after subtracting the active indent
// prefixes, floored so degenerate nesting never wraps every word.
func (w *markdownWriter) contentWidth() int {
	width := w.width - w.prefixWidth
	if width < 10 {
		width = 10
	}
	return width
}

func (w *markdownWriter) pushIndent(text string, visibleWidth int) {
	w.indents = append(w.indents, indentLevel{text: text, width: visibleWidth})
	w.prefix += text
	w.prefixWidth += visibleWidth
}

func (w *markdownWriter) popIndent() {
	if len(w.indents) == 0 {
		return
	}
	top := w.indents[len(w.indents)-1]
	w.indents = w.indents[:len(w.indents)-1]
	w.prefix = w.prefix[:len(w.prefix)-len(top.text)]
	w.prefixWidth -= top.width
}

func (w *markdownWriter) inTightList() bool {
	if len(w.lists) == 0 {
		return false
	}
	return w.lists[len(w.lists)-1].tight
}

// write appends text to the output, tracking trailing newlines.
func (w *markdownWriter) write(s string) {
	if s == "" {
		return
	}
	w.out.WriteString(s)

	trailing := 0
	allNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] != '\n' {
			allNewlines = false
			break
		}
		trailing++
	}
	if allNewlines {
		w.tailNewlines += trailing
	} else {
		w.tailNewlines = trailing
	}
}

func (w *markdownWriter) endLine() {
	if w.out.Len() == 0 {
		return
	}
	if w.tailNewlines < 1 {
		w.write("\n")
	}
}

func (w *markdownWriter) blankLine() {
	if w.out.Len() == 0 {
		return
	}
	for w.tailNewlines < 2 {
		w.write("\n")
	}
}

// linePrefix returns the prefix for the next emitted line: the pending
// bullet exactly once (the first line of a list item), the regular
// indent prefix otherwise.
func (w *markdownWriter) linePrefix() string {
	if w.bulletOverride != "" {
		bullet := w.bulletOverride
		w.bulletOverride = ""
		return bullet
	}
	return w.prefix
}

// prefixed prepends the line prefix to each line of content. The first
// line may consume the pending bullet; continuation lines use the
// plain indent prefix.
func (w *markdownWriter) prefixed(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 {
			result.WriteString(w.linePrefix())
		} else {
			result.WriteString(w.prefix)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// flushParagraph word-wraps the accumulated inline content, applies
// prefixes, and resets the accumulator.
func (w *markdownWriter) flushParagraph() string {
	content := w.paragraph.String()
	w.paragraph.Reset()
	if content == "" {
		return ""
	}
	return w.prefixed(ansi.Wrap(content, w.contentWidth(), wrapBreakpoints))
}

// inlineText styles a text fragment with the currently open emphasis.
func (w *markdownWriter) inlineText(content string) string {
	style := w.style().Foreground(w.theme.NormalText)
	if w.bold > 0 {
		style = style.Bold(true)
	}
	if w.italic > 0 {
		style = style.Italic(true)
	}
	if w.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// capture renders a node's children to a string through the inline
// accumulator, saving and restoring the caller's accumulator and
// emphasis state.
func (w *markdownWriter) capture(node ast.Node) string {
	savedParagraph := w.paragraph.String()
	savedBold, savedItalic, savedStrike := w.bold, w.italic, w.strike

	w.paragraph.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, w.visit)
	}
	result := w.paragraph.String()

	w.paragraph.Reset()
	w.paragraph.WriteString(savedParagraph)
	w.bold, w.italic, w.strike = savedBold, savedItalic, savedStrike

	return result
}

// highlightCode syntax-highlights code with Chroma, falling back to
// faint plain text for unknown languages or highlighter errors.
func (w *markdownWriter) highlightCode(code, language string) string {
	if language == "" {
		return w.style().Foreground(w.theme.FaintText).Render(code)
	}
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, code, language, "terminal256", "monokai"); err != nil {
		return w.style().Foreground(w.theme.FaintText).Render(code)
	}
	return highlighted.String()
}

// visit dispatches one AST node. Block nodes manage spacing and the
// accumulator; inline nodes append styled fragments to it.
func (w *markdownWriter) visit(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindDocument:
		// Nothing to do at either boundary.

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.paragraph.Reset()
		} else if flushed := w.flushParagraph(); flushed != "" {
			w.write(flushed)
			w.endLine()
			if !w.inTightList() {
				w.blankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			w.paragraph.Reset()
		} else {
			w.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			w.writeCodeLines(w.highlightCode(w.blockText(block.Lines()), string(block.Language(w.source))))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			code := w.blockText(node.(*ast.CodeBlock).Lines())
			w.writeCodeLines(w.style().Foreground(w.theme.FaintText).Render(code))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			w.pushIndent("│ ", 2)
		} else {
			w.popIndent()
			w.blankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			start := 0
			if list.IsOrdered() {
				start = list.Start
			}
			w.lists = append(w.lists, listFrame{
				ordered: list.IsOrdered(),
				counter: start,
				tight:   list.IsTight,
			})
		} else {
			if len(w.lists) > 0 {
				w.lists = w.lists[:len(w.lists)-1]
			}
			if !w.inTightList() {
				w.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			w.enterListItem()
		} else {
			w.popIndent()
			if w.inTightList() {
				w.endLine()
			} else {
				w.blankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			rule := w.style().
				Foreground(w.theme.BorderColor).
				Render(strings.Repeat("─", w.contentWidth()))
			w.blankLine()
			w.write(w.prefixed(rule))
			w.endLine()
			w.blankLine()
		}

	case ast.KindHTMLBlock:
		if entering {
			stripped := strings.TrimSpace(stripHTMLTags(w.blockText(node.(*ast.HTMLBlock).Lines())))
			if stripped != "" {
				faint := w.style().Foreground(w.theme.FaintText)
				w.write(w.prefixed(faint.Render(stripped)))
				w.endLine()
				w.blankLine()
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			w.paragraph.WriteString(w.inlineText(string(textNode.Segment.Value(w.source))))
			if textNode.SoftLineBreak() {
				// Soft breaks become spaces so hard-wrapped source
				// reflows to the pane width.
				w.paragraph.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				w.paragraph.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			w.paragraph.WriteString(w.inlineText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			w.bold += delta
		} else {
			w.italic += delta
		}

	case ast.KindCodeSpan:
		if entering {
			w.writeCodeSpan(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			w.paragraph.WriteString(w.capture(link))
			if url := string(link.Destination); url != "" {
				faint := w.style().Foreground(w.theme.FaintText)
				w.paragraph.WriteString(" " + faint.Render("("+url+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(w.source))
			w.paragraph.WriteString(w.style().Foreground(w.theme.FaintText).Render(url))
		}

	case ast.KindImage:
		if entering {
			image := node.(*ast.Image)
			faint := w.style().Foreground(w.theme.FaintText)
			w.paragraph.WriteString(faint.Render("[" + w.capture(image) + "]"))
			if url := string(image.Destination); url != "" {
				w.paragraph.WriteString(" " + faint.Render("("+url+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			raw := node.(*ast.RawHTML)
			var html strings.Builder
			for index := 0; index < raw.Segments.Len(); index++ {
				segment := raw.Segments.At(index)
				html.Write(segment.Value(w.source))
			}
			if stripped := stripHTMLTags(html.String()); stripped != "" {
				w.paragraph.WriteString(w.style().Foreground(w.theme.FaintText).Render(stripped))
			}
		}

	case extast.KindStrikethrough:
		if entering {
			w.strike++
		} else {
			w.strike--
		}

	case extast.KindTable:
		if entering {
			w.writeTable(node.(*extast.Table))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				done := w.style().Foreground(w.theme.HeadAccent)
				w.paragraph.WriteString(done.Render("[x]") + " ")
			} else {
				w.paragraph.WriteString(w.inlineText("[ ] "))
			}
		}
	}

	return ast.WalkContinue, nil
}

func (w *markdownWriter) leaveHeading(heading *ast.Heading) {
	// Headings carry their own style; strip the NormalText styling the
	// inline handlers applied.
	content := ansi.Strip(w.paragraph.String())
	w.paragraph.Reset()
	if content == "" {
		return
	}

	style := w.style().Bold(true)
	if heading.Level <= 2 {
		style = style.Foreground(w.theme.HeaderForeground)
	} else {
		style = style.Foreground(w.theme.NormalText)
	}

	wrapped := ansi.Wrap(style.Render(content), w.contentWidth(), wrapBreakpoints)
	w.blankLine()
	w.write(w.prefixed(wrapped))
	w.endLine()
	w.blankLine()
}

// blockText collects the raw source text of a block node's lines.
func (w *markdownWriter) blockText(lines *text.Segments) string {
	var content strings.Builder
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		content.Write(segment.Value(w.source))
	}
	return content.String()
}

// writeCodeLines emits pre-styled code line by line with the current
// prefix, surrounded by blank lines.
func (w *markdownWriter) writeCodeLines(styled string) {
	w.blankLine()
	for _, line := range strings.Split(strings.TrimRight(styled, "\n"), "\n") {
		w.write(w.linePrefix() + line)
		w.endLine()
	}
	w.blankLine()
}

func (w *markdownWriter) enterListItem() {
	if len(w.lists) == 0 {
		return
	}
	top := &w.lists[len(w.lists)-1]

	var bullet string
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	} else {
		bullet = "- "
	}

	bulletWidth := len(bullet) // ASCII bullets: bytes == columns.

	// The bullet replaces the whole prefix on the item's first line;
	// continuation lines indent under it.
	w.bulletOverride = w.prefix + bullet
	w.pushIndent(strings.Repeat(" ", bulletWidth), bulletWidth)
}

func (w *markdownWriter) writeCodeSpan(node ast.Node) {
	var code strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch typed := child.(type) {
		case *ast.Text:
			code.Write(typed.Segment.Value(w.source))
		case *ast.String:
			code.Write(typed.Value)
		}
	}
	w.paragraph.WriteString(w.style().Foreground(w.theme.FaintText).Render(code.String()))
}

// writeTable renders a GFM table with padded, truncated columns. Wide
// tables shrink proportionally to the available width.
func (w *markdownWriter) writeTable(table *extast.Table) {
	var headerCells []string
	var bodyRows [][]string

	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case extast.KindTableHeader:
			headerCells = w.tableRowCells(child)
		case extast.KindTableRow:
			bodyRows = append(bodyRows, w.tableRowCells(child))
		}
	}

	columnCount := len(headerCells)
	if columnCount == 0 && len(bodyRows) > 0 {
		columnCount = len(bodyRows[0])
	}
	if columnCount == 0 {
		return
	}

	// Natural column widths from the widest cell in each column.
	widths := make([]int, columnCount)
	measure := func(row []string) {
		for index, cell := range row {
			if index < columnCount {
				if cellWidth := lipgloss.Width(cell); cellWidth > widths[index] {
					widths[index] = cellWidth
				}
			}
		}
	}
	measure(headerCells)
	for _, row := range bodyRows {
		measure(row)
	}

	const separator = "  "
	totalWidth := len(separator) * (columnCount - 1)
	for _, width := range widths {
		totalWidth += width
	}

	// Shrink proportionally when the table overflows, 3 columns min.
	available := w.contentWidth()
	if totalWidth > available {
		usable := available - len(separator)*(columnCount-1)
		if usable < columnCount*3 {
			usable = columnCount * 3
		}
		for index := range widths {
			widths[index] = widths[index] * usable / totalWidth
			if widths[index] < 3 {
				widths[index] = 3
			}
		}
	}

	w.blankLine()

	alignments := table.Alignments
	if len(headerCells) > 0 {
		bold := w.style().Bold(true).Foreground(w.theme.NormalText)
		w.write(w.linePrefix() + formatTableRow(headerCells, widths, alignments, separator, bold))
		w.endLine()

		rules := make([]string, columnCount)
		for index, width := range widths {
			rules[index] = strings.Repeat("─", width)
		}
		border := w.style().Foreground(w.theme.BorderColor)
		w.write(w.prefix + border.Render(strings.Join(rules, separator)))
		w.endLine()
	}

	for _, row := range bodyRows {
		w.write(w.prefix + formatTableRow(row, widths, alignments, separator, w.style()))
		w.endLine()
	}

	w.blankLine()
}

// tableRowCells captures the inline content of each cell in a row.
func (w *markdownWriter) tableRowCells(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if cell.Kind() == extast.KindTableCell {
			cells = append(cells, w.capture(cell))
		}
	}
	return cells
}

// formatTableRow pads and aligns one table row to the column widths.
func formatTableRow(cells []string, widths []int, alignments []extast.Alignment, separator string, baseStyle lipgloss.Style) string {
	parts := make([]string, len(widths))
	for index, width := range widths {
		var cell string
		if index < len(cells) {
			cell = cells[index]
		}

		visible := lipgloss.Width(cell)
		if visible > width {
			cell = ansi.Truncate(cell, width, "…")
			visible = lipgloss.Width(cell)
		}

		padding := width - visible
		if padding < 0 {
			padding = 0
		}

		var alignment extast.Alignment
		if index < len(alignments) {
			alignment = alignments[index]
		}
		switch alignment {
		case extast.AlignRight:
			cell = strings.Repeat(" ", padding) + cell
		case extast.AlignCenter:
			left := padding / 2
			cell = strings.Repeat(" ", left) + cell + strings.Repeat(" ", padding-left)
		default:
			cell = cell + strings.Repeat(" ", padding)
		}
		parts[index] = cell
	}
	return baseStyle.Render(strings.Join(parts, separator))
}

// stripHTMLTags drops everything between < and >, keeping the text
// content of HTML fragments markdown descriptions occasionally embed.
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>':
			inTag = false
		case !inTag:
			result.WriteRune(character)
		}
	}
	return result.String()
}
