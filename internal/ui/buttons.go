package ui

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Custom ids of the player control buttons.
const (
	ButtonPause  = "pause"
	ButtonResume = "resume"
	ButtonSkip   = "skip"
	ButtonLoop   = "loop"
	ButtonClear  = "clear"

	searchPlayPrefix = "search_play_"
)

func SearchPlayID(token string) string { return searchPlayPrefix + token }

// ParseSearchPlayID returns the token of a search result button.
func ParseSearchPlayID(customID string) (string, bool) {
	tok, ok := strings.CutPrefix(customID, searchPlayPrefix)
	return tok, ok && tok != ""
}

// PlayerControls returns the control row shown under now-playing and queue
// embeds. Pause and resume swap depending on status.
func PlayerControls(paused, loop bool) []discordgo.MessageComponent {
	toggle := discordgo.Button{Label: "⏸️ Pause", Style: discordgo.SecondaryButton, CustomID: ButtonPause}
	if paused {
		toggle = discordgo.Button{Label: "▶️ Resume", Style: discordgo.SuccessButton, CustomID: ButtonResume}
	}
	loopStyle := discordgo.SecondaryButton
	if loop {
		loopStyle = discordgo.PrimaryButton
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			toggle,
			discordgo.Button{Label: "⏭️ Skip", Style: discordgo.SecondaryButton, CustomID: ButtonSkip},
			discordgo.Button{Label: "🔂 Loop", Style: loopStyle, CustomID: ButtonLoop},
			discordgo.Button{Label: "🗑️ Clear", Style: discordgo.DangerButton, CustomID: ButtonClear},
		}},
	}
}

// SearchButtons returns one numbered button per token, five to a row.
func SearchButtons(tokens []string) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for i, tok := range tokens {
		row = append(row, discordgo.Button{
			Label:    string(rune('1' + i)),
			Style:    discordgo.PrimaryButton,
			CustomID: SearchPlayID(tok),
		})
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}
