package cli

import (
	"fmt"
	"io"
	"strconv"

	"anonchat/internal/domain"
	"anonchat/internal/session"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var hostStyle = color.New(color.FgYellow, color.OpBold)

func formatMessage(v session.MessageView, colors bool) string {
	line := fmt.Sprintf("[%s] %s: %s", v.SentAt.Format("15:04"), v.Sender, v.Text)
	if v.IsOwn && !v.IsHost {
		line += " (you)"
	}
	if v.IsHost && colors {
		return hostStyle.Render(line)
	}
	return line
}

// NewTable returns a borderless left-aligned table writing to w.
func NewTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	return table
}

func renderUsers(w io.Writer, users []domain.User, current domain.User) {
	table := NewTable(w, []string{"ID", "Name", "Email", "Friend"})
	for _, u := range users {
		friend := ""
		if current.IsFriend(u.ID) {
			friend = "yes"
		}
		table.Append([]string{u.ID, u.Name, u.Email, friend})
	}
	table.Render()
}

func renderRooms(w io.Writer, rooms []domain.Chatroom, userID string) {
	table := NewTable(w, []string{"ID", "Name", "People", "Messages", "You Are", "Role"})
	for _, r := range rooms {
		role := "guest"
		if r.IsHost(userID) {
			role = "host"
		}
		table.Append([]string{
			r.ID,
			r.Name,
			strconv.Itoa(len(r.Participants)),
			strconv.Itoa(len(r.Messages)),
			r.Alias(userID),
			role,
		})
	}
	table.Render()
}
