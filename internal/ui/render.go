package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tiksnap/internal/media"
	"tiksnap/internal/relay"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(10)
	valueStyle = lipgloss.NewStyle()
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	failStyle  = cellStyle.Foreground(lipgloss.Color("196"))
)

// Summary renders a resolved post with its downloadable assets.
func Summary(resp media.Response, backend string, assets []relay.Asset) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(resp.Description))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value)))
		b.WriteString("\n")
	}
	row("type", string(resp.Type))
	if resp.Creator != "" {
		row("creator", "@"+resp.Creator)
	}
	row("stats", fmt.Sprintf("%s views  %s likes  %s comments  %s shares",
		compact(resp.Views), compact(resp.Likes), compact(resp.Comments), compact(resp.Shares)))
	if resp.MusicTitle != "" {
		music := resp.MusicTitle
		if resp.MusicAuthor != "" {
			music += " by " + resp.MusicAuthor
		}
		row("music", music)
	}
	row("backend", backend)

	if len(assets) > 0 {
		b.WriteString("\n")
		for _, a := range assets {
			link := a.Link
			if link == "" {
				link = a.Source
			}
			row(a.Label, linkStyle.Render(link))
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Error renders a user-facing failure line.
func Error(msg string) string {
	return errorStyle.Render("error: ") + msg
}

// HistoryTable renders resolution log entries.
func HistoryTable(entries []media.HistoryEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			time.Unix(e.CreatedAt, 0).Format("2006-01-02 15:04"),
			strconv.Itoa(e.Status),
			string(e.Type),
			e.Backend,
			firstNonEmpty(e.Canonical, e.Source),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("WHEN", "STATUS", "TYPE", "BACKEND", "URL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headStyle
			case col == 1 && row >= 0 && row < len(entries) && entries[row].Status != 200:
				return failStyle
			default:
				return cellStyle
			}
		}).
		String()
}

// HistoryItems formats entries as single lines for Select.
func HistoryItems(entries []media.HistoryEntry) []string {
	items := make([]string, len(entries))
	for i, e := range entries {
		items[i] = fmt.Sprintf("%s  [%d]  %s",
			time.Unix(e.CreatedAt, 0).Format("2006-01-02 15:04"), e.Status, firstNonEmpty(e.Canonical, e.Source))
	}
	return items
}

// compact formats counts as 950, 1.2K, 3.4M.
func compact(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return trimZero(float64(n)/1e9) + "B"
	case n >= 1_000_000:
		return trimZero(float64(n)/1e6) + "M"
	case n >= 1_000:
		return trimZero(float64(n)/1e3) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

func trimZero(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f, 'f', 1, 64), ".0")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
