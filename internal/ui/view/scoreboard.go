// Package view provides UI rendering functions.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/tagracer/internal/store"
	"github.com/palemoky/tagracer/internal/store/game"
	"github.com/palemoky/tagracer/internal/store/notify"
	"github.com/palemoky/tagracer/internal/ui/common"
)

const nameWidth = 16

// Header renders the session line with the connection badge.
func Header(snap store.Snapshot, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(common.TitleStyle("🏁 TagRacer"))
	sb.WriteString("  ")
	sb.WriteString(ConnectionBadge(snap.Connected))
	sb.WriteString("\n")

	if snap.Session == nil {
		sb.WriteString(common.MutedStyle.Render("No game in progress. Press n to start one."))
		return sb.String()
	}

	s := snap.Session
	fmt.Fprintf(&sb, "Game #%d  started %s  ", s.GameID, s.StartTime.Local().Format("15:04:05"))
	switch s.StatusAt(now) {
	case game.StatusOvertime:
		sb.WriteString(common.WarningStyle.Render("OVERTIME"))
	default:
		sb.WriteString(common.SuccessStyle.Render(FormatRemaining(s.RemainingAt(now))))
	}

	if leader, ok := snap.Leader(); ok && leader.Points > 0 {
		sb.WriteString("  ")
		sb.WriteString(common.LeaderStyle.Render(fmt.Sprintf("%s %s", common.LeaderIcon, leader.DisplayName())))
	}
	return sb.String()
}

// ConnectionBadge renders the realtime channel state.
func ConnectionBadge(connected bool) string {
	if connected {
		return common.OnlineStyle.Render(common.OnlineIcon + " live")
	}
	return common.OfflineStyle.Render(common.OfflineIcon + " offline")
}

// FormatRemaining formats d as m:ss.
func FormatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Scores renders the score table in ledger order.
func Scores(scores []game.ScoreEntry) string {
	var sb strings.Builder
	sb.WriteString(common.HeaderStyle.Render(fmt.Sprintf("%-*s %6s %5s", nameWidth, "PLAYER", "POINTS", "TAGS")))
	if len(scores) == 0 {
		sb.WriteString("\n")
		sb.WriteString(common.MutedStyle.Render("no players yet"))
		return common.BoxStyle.Render(sb.String())
	}

	leader, _ := game.TopScorer(scores)
	for _, e := range scores {
		line := fmt.Sprintf("%-*s %6d %5d", nameWidth, common.TruncateName(e.DisplayName(), nameWidth), e.Points, e.TagCount)
		if e.PlayerID == leader.PlayerID && e.Points > 0 {
			line = common.LeaderStyle.Render(line)
		}
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return common.BoxStyle.Render(sb.String())
}

// Activity renders the recent activity feed, newest first.
func Activity(events []game.ActivityEvent) string {
	var sb strings.Builder
	sb.WriteString(common.HeaderStyle.Render("RECENT ACTIVITY"))
	if len(events) == 0 {
		sb.WriteString("\n")
		sb.WriteString(common.MutedStyle.Render("waiting for tags"))
		return common.BoxStyle.Render(sb.String())
	}

	for _, ev := range events {
		fmt.Fprintf(&sb, "\n%s %s %s %s",
			common.MutedStyle.Render(ev.Timestamp.Local().Format("15:04:05")),
			common.ActivityIcon,
			common.TruncateName(ev.Player, nameWidth),
			fmt.Sprintf("→ %d pts", ev.Points),
		)
		if ev.TagID != "" {
			sb.WriteString(common.MutedStyle.Render(" [" + ev.TagID + "]"))
		}
	}
	return common.BoxStyle.Render(sb.String())
}

// Notifications renders each notification with its remaining time as a bar.
// Notifications that never expire have no bar.
func Notifications(items []notify.Notification, bar progress.Model) string {
	if len(items) == 0 {
		return ""
	}

	lines := make([]string, 0, len(items))
	for _, n := range items {
		style := common.KindStyle(n.Kind)
		line := style.Bold(true).Render(n.Title)
		if n.Message != "" {
			line += " " + n.Message
		}
		if n.Expires() {
			line += "\n" + bar.ViewAs(n.Progress/100)
		}
		lines = append(lines, style.Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1).Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Scoreboard lays out the full screen.
func Scoreboard(snap store.Snapshot, now time.Time, bar progress.Model, help string, width int) string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, Scores(snap.Scores), " ", Activity(snap.Activity))

	parts := []string{Header(snap, now), "", body}
	if snap.LastError != "" {
		parts = append(parts, common.ErrorStyle.Render("last error: "+snap.LastError))
	}
	if n := Notifications(snap.Notifications, bar); n != "" {
		parts = append(parts, "", n)
	}
	parts = append(parts, "", help)

	out := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if width > 0 {
		out = lipgloss.NewStyle().MaxWidth(width).Render(out)
	}
	return common.DocStyle.Render(out)
}
