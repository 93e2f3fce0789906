package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matheus3301/chatwave/internal/invite"
	"github.com/matheus3301/chatwave/internal/media"
	"github.com/matheus3301/chatwave/internal/model"
)

// commandNames are offered for completion in the command prompt.
var commandNames = []string{
	"avatar", "chat", "help", "image", "invite", "logout",
	"quit", "reload", "search", "voice",
}

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, ":")
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// runCommand executes a prompt command. Every command except quit and
// help needs a signed-in user.
func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "q", "quit":
		a.Stop()
		return
	case "h", "help":
		a.push(pageHelp)
		return
	}

	if a.session.Self() == nil {
		a.flash.Warn("Sign in first")
		return
	}

	switch cmd.Name {
	case "chat":
		a.chatWith(cmd.Args)
	case "invite":
		if cmd.Args == "" {
			a.showProfile()
			return
		}
		inv, err := invite.Parse(cmd.Args)
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.startConversation(inv.ProfileID)
	case "search", "find":
		a.showSearch(cmd.Args)
	case "image", "voice":
		a.sendFile(cmd.Name, cmd.Args)
	case "avatar":
		n, err := strconv.Atoi(cmd.Args)
		if err != nil {
			a.flash.Warn(fmt.Sprintf("Usage: :avatar <0-%d>", model.AvatarCount()-1))
			return
		}
		a.setAvatar(n)
	case "reload":
		a.reload()
	case "logout", "signout":
		a.signOut()
	case "":
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
}

// chatWith opens the conversation with username, or starts one when a
// single profile has that exact name. Anything else falls back to search.
func (a *App) chatWith(username string) {
	if username == "" {
		a.showSearch("")
		return
	}
	if inv, err := invite.Parse(username); err == nil {
		a.startConversation(inv.ProfileID)
		return
	}
	for _, s := range a.session.Summaries() {
		if s.Other != nil && strings.EqualFold(s.Other.Username, username) {
			a.openConversation(s.Conversation.ID)
			return
		}
	}
	a.async("chat", func(ctx context.Context) error {
		results, err := a.session.Search(ctx, username)
		if err != nil {
			return err
		}
		var exact []model.Profile
		for _, p := range results {
			if strings.EqualFold(p.Username, username) {
				exact = append(exact, p)
			}
		}
		if len(exact) == 1 {
			a.startConversation(exact[0].ID)
			return nil
		}
		a.app.QueueUpdateDraw(func() { a.showSearch(username) })
		return nil
	})
}

func (a *App) sendFile(kind, path string) {
	if path == "" {
		a.flash.Warn(fmt.Sprintf("Usage: :%s <file>", kind))
		return
	}
	ref, err := media.EncodeFile(path)
	if err != nil {
		a.flash.Err(err)
		return
	}
	mimeType, _, _ := media.Decode(ref)
	k := media.KindOf(mimeType)
	switch {
	case kind == "voice" && k != model.KindVoice:
		a.flash.Err(errors.New("not an audio file: " + mimeType))
		return
	case kind == "image" && !strings.HasPrefix(mimeType, "image/"):
		a.flash.Err(errors.New("not an image: " + mimeType))
		return
	}
	a.send(k, "", ref)
}
