package tui

import (
	"fmt"
	"strings"

	"github.com/sherzodv/tim/internal/storage"
)

// renderEvent formats a single SpaceEvent as one timeline line. selfID is the
// connected timite's own id, used to pick the self/other style. width word-
// wraps message content rendered as markdown.
func renderEvent(ev storage.SpaceEvent, selfID uint64, width int) string {
	ts := ev.Metadata.EmittedAt.Format("15:04:05")

	switch ev.Kind {
	case storage.EventNewMessage:
		if ev.NewMessage == nil {
			return ""
		}
		style := OtherStyle
		if ev.NewMessage.SenderID == selfID {
			style = SelfStyle
		}
		return fmt.Sprintf("%s %s: %s", MutedStyle.Render(ts), style.Render(fmt.Sprintf("timite %d", ev.NewMessage.SenderID)), renderMarkdown(ev.NewMessage.Content, width))

	case storage.EventCallAbility:
		if ev.CallAbility == nil {
			return ""
		}
		return fmt.Sprintf("%s %s", MutedStyle.Render(ts), AbilityStyle.Render(
			fmt.Sprintf("timite %d called %q on timite %d", ev.CallAbility.SenderID, ev.CallAbility.Name, ev.CallAbility.ParticipantID)))

	case storage.EventCallAbilityOutcome:
		if ev.CallAbilityOutcome == nil {
			return ""
		}
		if ev.CallAbilityOutcome.Error != "" {
			return fmt.Sprintf("%s %s", MutedStyle.Render(ts), ErrorStyle.Render(
				fmt.Sprintf("call %d failed: %s", ev.CallAbilityOutcome.CallAbilityID, ev.CallAbilityOutcome.Error)))
		}
		return fmt.Sprintf("%s %s", MutedStyle.Render(ts), AbilityStyle.Render(
			fmt.Sprintf("call %d returned %q", ev.CallAbilityOutcome.CallAbilityID, ev.CallAbilityOutcome.Payload)))

	case storage.EventTimiteConnected:
		if ev.TimiteConnected == nil {
			return ""
		}
		return fmt.Sprintf("%s %s", MutedStyle.Render(ts), PresenceStyle.Render(fmt.Sprintf("timite %d connected", *ev.TimiteConnected)))

	case storage.EventTimiteDisconnected:
		if ev.TimiteDisconnected == nil {
			return ""
		}
		return fmt.Sprintf("%s %s", MutedStyle.Render(ts), PresenceStyle.Render(fmt.Sprintf("timite %d disconnected", *ev.TimiteDisconnected)))

	default:
		return ""
	}
}

func renderTimeline(events []storage.SpaceEvent, selfID uint64, width int) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		if line := renderEvent(ev, selfID, width); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
