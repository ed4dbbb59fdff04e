package tui

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/mediaview/internal/viewer"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	fileNameStyle = lipgloss.NewStyle().
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"})

	indicatorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#006600", Dark: "#66ff66"})

	labelStyle = lipgloss.NewStyle().
			Faint(true)

	tagStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(lipgloss.AdaptiveColor{Light: "#f0f0f0", Dark: "#181818"})

	// Selected tag: cursor background, bold
	selectedTagStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Background(bgCursor)

	suggestionStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedSuggestionStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Bold(true).
				Background(bgCursor)

	placeholderStyle = lipgloss.NewStyle().
				Italic(true).
				Faint(true)

	separatorStyle = lipgloss.NewStyle().
			Faint(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	loadingStyle = lipgloss.NewStyle().
			Italic(true).
			Background(bgBase)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Background(bgBase)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}). // Amber for visibility
			Background(bgBase)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if !m.loaded {
		if m.err != nil {
			return errorStyle.Render("Error: "+m.err.Error()) + "\n\n" +
				footerStyle.Render("Press ctrl+c to quit")
		}
		return loadingStyle.Render("Loading " + m.start.File + "...")
	}

	header := m.headerLines()
	footer := m.footerView()

	// Body fills what is left above the notification and footer lines
	bodyHeight := m.height - len(header) - 2
	body := m.bodyLines(max(bodyHeight, 0))

	lines := make([]string, 0, m.height)
	lines = append(lines, header...)
	lines = append(lines, body...)
	lines = append(lines, m.renderNotificationLine(), footer)

	view := strings.Join(lines, "\n")
	if m.modal != modalNone {
		return m.overlayModal(view)
	}
	return view
}

// headerLines renders the title bar, file line, mode line, tags and comment.
func (m Model) headerLines() []string {
	lines := []string{m.buildTitleBar()}

	// File name and metadata
	fileLine := fileNameStyle.Render(truncateRunes(m.page.FilePath, m.width-2))
	meta := m.metaLine
	if m.detailsLoading && meta == "" {
		meta = "[Loading metadata...]"
	}
	if lipgloss.Width(fileLine)+1+lipgloss.Width(meta) <= m.width {
		fileLine += " " + metaStyle.Render(meta)
	} else {
		lines = append(lines, fileLine)
		fileLine = metaStyle.Render(truncateRunes(meta, m.width))
	}
	lines = append(lines, fileLine)

	lines = append(lines, m.modeLine())
	lines = append(lines, m.tagLines()...)
	lines = append(lines, m.commentLines()...)
	lines = append(lines, separatorStyle.Render(strings.Repeat("─", max(m.width, 0))))
	return lines
}

// buildTitleBar builds the title bar line.
// Format: "mediaview [version] - tag          3 / 12"
func (m Model) buildTitleBar() string {
	titleText := "mediaview"
	if m.version != "" && m.version != "dev" && m.version != "unknown" {
		titleText = fmt.Sprintf("mediaview [%s]", m.version)
	}

	content := fmt.Sprintf("%s - %s", titleText, m.page.Tag)
	position := m.page.Position()
	gap := m.width - 2 - lipgloss.Width(content) - lipgloss.Width(position)
	if gap > 1 {
		content += strings.Repeat(" ", gap) + position
	}
	return titleBarStyle.Render(padRight(content, max(m.width-2, 0))) // -2 for padding
}

func (m Model) modeLine() string {
	if ind := m.mode.Indicator(); ind != "" {
		return indicatorStyle.Render(ind)
	}
	if m.mode.Random {
		return labelStyle.Render("Random")
	}
	return labelStyle.Render("Sequential")
}

// tagLines renders the file's tags and, while adding a tag, the input with
// its suggestions.
func (m Model) tagLines() []string {
	var sb strings.Builder
	sb.WriteString(labelStyle.Render("Tags:"))
	if len(m.page.Tags) == 0 {
		sb.WriteString(" " + placeholderStyle.Render("none"))
	}
	for i, tag := range m.page.Tags {
		sb.WriteString(" ")
		if i == m.tagCursor {
			sb.WriteString(selectedTagStyle.Render(tag))
		} else {
			sb.WriteString(tagStyle.Render(tag))
		}
	}
	lines := []string{truncateToWidth(sb.String(), m.width)}

	if !m.tagEditor.Active {
		return lines
	}
	lines = append(lines, labelStyle.Render("Add tag: ")+m.tagInput.View())

	matches := m.tagEditor.Matches
	start := 0
	if m.tagEditor.Selected >= tagSuggestionsVisible {
		start = m.tagEditor.Selected - tagSuggestionsVisible + 1
	}
	end := min(start+tagSuggestionsVisible, len(matches))
	for i := start; i < end; i++ {
		text := truncateRunes(matches[i], m.width-4)
		if i == m.tagEditor.Selected {
			lines = append(lines, selectedSuggestionStyle.Render(text))
		} else {
			lines = append(lines, suggestionStyle.Render(text))
		}
	}
	return lines
}

func (m Model) commentLines() []string {
	if m.focus == focusComment {
		lines := []string{labelStyle.Render("Comment (ctrl+s save, esc cancel):")}
		return append(lines, strings.Split(m.commentEditor.View(), "\n")...)
	}

	label := labelStyle.Render("Comment:")
	if m.comment.Saving {
		label = labelStyle.Render("Comment (saving):")
	}
	shown := truncateRunes(m.comment.Shown(), m.width-lipgloss.Width(label)-1)
	if m.comment.Display == "" {
		shown = placeholderStyle.Render(shown)
	}
	return []string{label + " " + shown}
}

// bodyLines renders the file preview area, exactly height lines.
func (m Model) bodyLines(height int) []string {
	var content []string
	switch {
	case m.page.IsText && m.contentErr != nil:
		content = []string{errorStyle.Render("Error loading file: " + m.contentErr.Error())}
	case m.page.IsText && m.detailsLoading:
		content = []string{loadingStyle.Render("Loading...")}
	case m.page.IsText:
		content = wrapText(m.content, max(m.width, 1))
	case m.page.IsConvertible:
		content = []string{placeholderStyle.Render("Document preview is not available in the terminal. Press q for QuickLook.")}
	default:
		content = []string{placeholderStyle.Render(path.Base(m.page.FilePath) + ": press q to open in QuickLook.")}
	}

	lines := make([]string, 0, height)
	for i := 0; i < height; i++ {
		if i < len(content) {
			lines = append(lines, truncateToWidth(content[i], m.width))
		} else {
			lines = append(lines, "")
		}
	}
	return lines
}

// renderNotificationLine shows the flash message or the loading indicator.
func (m Model) renderNotificationLine() string {
	switch {
	case m.flashMessage != "":
		return flashStyle.Render(truncateRunes(m.flashMessage, m.width))
	case m.loading:
		return loadingStyle.Render("Loading...")
	}
	return ""
}

// footerView renders the footer with keybindings.
func (m Model) footerView() string {
	var keys []string
	switch m.focus {
	case focusTagInput:
		keys = []string{"Enter add", "↑/↓ suggestion", "Esc cancel"}
	case focusComment:
		keys = []string{"ctrl+s save", "Tab save", "Esc cancel"}
	default:
		keys = []string{"←/→", "s show", "r random", "+/- speed", "t tag", "c comment", "x del", "? help"}
	}
	return footerStyle.Render(padRight(strings.Join(keys, " │ "), max(m.width-2, 0)))
}

// rawHelpLines contains the help modal content. The first line is the title
// (rendered with modalTitleStyle at display time).
var rawHelpLines = []string{
	"Keyboard Shortcuts",
	"",
	"Navigation",
	"  ←           Previous file (history)",
	"  →           Next file (random in random mode)",
	"  Esc         Stop slideshow, or open the tag's first file",
	"  s           Toggle slideshow",
	"  r           Toggle random mode",
	"  +/=  -/_    Faster / slower slideshow",
	"",
	"Tags & Comments",
	"  t           Add tag",
	"  l           Add ❤️",
	"  1-5         Add star rating",
	"  [ ]         Select a tag",
	"  Backspace   Remove selected tag",
	"  o           Open selected tag",
	"  c           Edit comment",
	"",
	"Other",
	"  q           QuickLook",
	"  x           Move file to Trash",
	"  ctrl+q      Shut down server",
	"  ctrl+c      Quit",
	"",
	"[Any key] Close",
}

// overlayModal renders the active modal centered over background.
func (m Model) overlayModal(background string) string {
	var modalContent string
	switch m.modal {
	case modalDeleteConfirm:
		modalContent = m.renderDeleteConfirmModal()
	case modalDeleteResult, modalShutdownResult:
		modalContent = m.modalResult
	case modalShutdownConfirm:
		modalContent = m.renderShutdownConfirmModal()
	case modalHelp:
		modalContent = renderHelpModal()
	}
	if modalContent == "" {
		return background
	}

	modal := modalStyle.Render(modalContent)
	bgLines := strings.Split(background, "\n")
	modalLines := strings.Split(modal, "\n")

	startLine := max((len(bgLines)-len(modalLines))/2, 0)
	modalWidth := lipgloss.Width(modal)
	leftPadding := max((m.width-modalWidth)/2, 0)

	// Overlay modal onto background, preserving background where modal doesn't cover
	for i, modalLine := range modalLines {
		lineIdx := startLine + i
		if lineIdx >= len(bgLines) {
			break
		}
		bgLine := bgLines[lineIdx]
		bgWidth := lipgloss.Width(bgLine)

		var composite strings.Builder
		if leftPadding > 0 {
			leftBg := truncateToWidth(bgLine, leftPadding)
			composite.WriteString(leftBg)
			if w := lipgloss.Width(leftBg); w < leftPadding {
				composite.WriteString(strings.Repeat(" ", leftPadding-w))
			}
		}
		composite.WriteString(modalLine)
		if rightStart := leftPadding + modalWidth; rightStart < bgWidth {
			composite.WriteString(skipToWidth(bgLine, rightStart))
		}
		bgLines[lineIdx] = composite.String()
	}
	return strings.Join(bgLines, "\n")
}

func (m Model) renderDeleteConfirmModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Move to Trash"))
	sb.WriteString("\n\n")
	sb.WriteString(truncateRunes(m.page.FilePath, 60))
	sb.WriteString("\n\n")
	if m.busy {
		sb.WriteString(m.modalResult)
	} else {
		sb.WriteString("[Y] Delete  [N/Esc] Cancel")
	}
	return sb.String()
}

func (m Model) renderShutdownConfirmModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Shut Down Server"))
	sb.WriteString("\n\n")
	sb.WriteString("Stop the media server?\n\n")
	if m.busy {
		sb.WriteString(m.modalResult)
	} else {
		sb.WriteString("[Y] Shut down  [N/Esc] Cancel")
	}
	return sb.String()
}

func renderHelpModal() string {
	lines := make([]string, len(rawHelpLines))
	copy(lines, rawHelpLines)
	lines[0] = modalTitleStyle.Render(lines[0])
	return strings.Join(lines, "\n")
}

// pageTitle is used by the program's window title.
func pageTitle(page viewer.Context) string {
	if page.FilePath == "" {
		return "mediaview"
	}
	return path.Base(page.FilePath) + " - " + page.Tag
}
