// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jcluts/personachat/internal/conversation"
)

// presenter prints loop output with the shared styles. Replies are rendered
// as markdown when a renderer is set.
type presenter struct {
	out      io.Writer
	errOut   io.Writer
	markdown *glamour.TermRenderer
}

var _ conversation.Presenter = (*presenter)(nil)

// newMarkdownRenderer returns a renderer wrapping at width, or nil when one
// cannot be built.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown returns text rendered for the terminal, or text unchanged
// if rendering fails.
func (p *presenter) renderMarkdown(text string) string {
	if p.markdown == nil {
		return text
	}
	rendered, err := p.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

func (p *presenter) Reply(expertName, text string) {
	name := ExpertNameStyle.Render(expertName + ":")
	if p.markdown != nil {
		fmt.Fprintf(p.out, "\n%s\n%s\n\n", name, p.renderMarkdown(text))
		return
	}
	fmt.Fprintf(p.out, "\n%s %s\n\n", name, text)
}

func (p *presenter) Notice(text string) {
	fmt.Fprintf(p.out, "\n%s\n\n", DimStyle.Render(text))
}

func (p *presenter) Warn(err error) {
	DisplayWarning(p.errOut, err)
}
