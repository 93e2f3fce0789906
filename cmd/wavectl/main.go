package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/config"
	"github.com/matheus3301/chatwave/internal/instance"
	"github.com/matheus3301/chatwave/internal/invite"
	"github.com/matheus3301/chatwave/internal/lock"
	"github.com/matheus3301/chatwave/internal/media"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/status"
	"github.com/matheus3301/chatwave/internal/tui/client"
	flag "github.com/spf13/pflag"
)

var (
	jsonOut bool
	asUser  string

	// cleanup runs before fail exits; set once a profile is signed in.
	cleanup func()
)

func main() {
	instanceFlag := flag.StringP("instance", "i", "", "instance name (overrides config default)")
	addressFlag := flag.String("address", "", "daemon address: socket path or host:port")
	beaconFlag := flag.String("beacon", "", "presence beacon socket path or host:port")
	levelFlag := flag.String("log-level", "", "log level (debug, info, warn, error)")
	imageFlag := flag.String("image", "", "send: attach an image file instead of text")
	voiceFlag := flag.String("voice", "", "send: attach a voice recording instead of text")
	flag.StringVar(&asUser, "as", "", "username to act as (default: config default_profile)")
	flag.BoolVar(&jsonOut, "json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c, err := client.New(client.Options{
		Instance: name,
		Address:  *addressFlag,
		Beacon:   *beaconFlag,
		Program:  "wavectl",
		LogLevel: *levelFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for instance %q: %v\n", name, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()
	if asUser == "" {
		asUser = c.DefaultProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args[0] == "watch" {
		cmdWatch(ctx, c)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c)
	case "register":
		requireArgs(args, 2, "wavectl register <username>")
		cmdRegister(ctx, c, args[1])
	case "conversations", "ls":
		cmdConversations(ctx, c)
	case "history":
		requireArgs(args, 2, "wavectl history <username|invite>")
		cmdHistory(ctx, c, args[1])
	case "send":
		requireArgs(args, 2, "wavectl send <username|invite> [text] [--image file | --voice file]")
		cmdSend(ctx, c, args[1], strings.Join(args[2:], " "), *imageFlag, *voiceFlag)
	case "search":
		requireArgs(args, 2, "wavectl search <query>")
		cmdSearch(ctx, c, strings.Join(args[1:], " "))
	case "avatar":
		requireArgs(args, 2, "wavectl avatar <index>")
		cmdAvatar(ctx, c, args[1])
	case "invite":
		username := asUser
		if len(args) >= 2 {
			username = args[1]
		}
		cmdInvite(ctx, c, username)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wavectl [--instance <name>] [--as <username>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                      Show daemon health and store counts")
	fmt.Fprintln(os.Stderr, "  register <username>         Create a profile")
	fmt.Fprintln(os.Stderr, "  conversations               List conversations, most recent first")
	fmt.Fprintln(os.Stderr, "  history <user>              Show messages exchanged with a user")
	fmt.Fprintln(os.Stderr, "  send <user> <text>          Send a text message")
	fmt.Fprintln(os.Stderr, "  send <user> --image <file>  Send an image")
	fmt.Fprintln(os.Stderr, "  send <user> --voice <file>  Send a voice recording")
	fmt.Fprintln(os.Stderr, "  search <query>              Find users by name")
	fmt.Fprintln(os.Stderr, "  avatar <index>              Change your avatar")
	fmt.Fprintln(os.Stderr, "  invite [username]           Print a profile invite QR code")
	fmt.Fprintln(os.Stderr, "  watch                       Stay online and print incoming messages")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "<user> is a username or a chatwave:// invite link.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "flags:")
	flag.PrintDefaults()
}

func fail(err error) {
	if cleanup != nil {
		cleanup()
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: "+usage)
		os.Exit(1)
	}
}

func cmdStatus(ctx context.Context, c *client.Client) {
	if err := c.Gateway.Probe(ctx); err != nil {
		fail(fmt.Errorf("daemon at %s is not healthy: %w", c.Endpoints.Address, err))
	}
	stats, err := c.Gateway.Stats(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(stats)
		return
	}
	fmt.Printf("Instance:      %s\n", stats.Instance)
	fmt.Printf("Address:       %s\n", c.Endpoints.Address)
	if owner, ok := lock.Holder(instance.Dir(c.Instance)); ok {
		fmt.Printf("PID:           %d (%s)\n", owner.PID, owner.Program)
	}
	fmt.Printf("Uptime:        %s\n", (time.Duration(stats.UptimeMs) * time.Millisecond).Round(time.Second))
	fmt.Printf("Profiles:      %d\n", stats.Profiles)
	fmt.Printf("Conversations: %d\n", stats.Conversations)
	fmt.Printf("Messages:      %d\n", stats.Messages)
	fmt.Printf("Subscribers:   %d\n", stats.Subscribers)
	fmt.Printf("Dropped:       %d\n", stats.Dropped)
	fmt.Printf("Overflows:     %d\n", stats.Overflows)
}

func cmdRegister(ctx context.Context, c *client.Client, username string) {
	p, err := c.Session.Register(ctx, username)
	if err != nil {
		fail(err)
	}
	// The first registered profile becomes the default identity.
	if c.Config.DefaultProfile == "" {
		c.Config.DefaultProfile = p.Username
		if err := config.Save(instance.ConfigPath(), c.Config); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save default profile: %v\n", err)
		}
	}
	if jsonOut {
		outputJSON(p)
		return
	}
	fmt.Printf("Registered %s %s (%s)\n", model.Avatar(p.AvatarIndex), p.Username, p.ID)
}

// signIn signs in as --as and registers cleanup. Exits on failure.
func signIn(ctx context.Context, c *client.Client) *model.Profile {
	if asUser == "" {
		fail(errors.New("no profile selected: pass --as <username> or set default_profile in config"))
	}
	p, err := c.Session.SignInByUsername(ctx, asUser)
	if err != nil {
		fail(err)
	}
	cleanup = func() { signOut(c) }
	return p
}

func signOut(c *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Session.SignOut(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		c.Logger.Sugar().Warnw("sign out failed", "error", err)
	}
}

// lookup finds a profile by invite link or username.
func lookup(ctx context.Context, c *client.Client, target string) *model.Profile {
	var (
		p   *model.Profile
		err error
	)
	if inv, perr := invite.Parse(target); perr == nil {
		p, err = c.Gateway.QueryProfile(ctx, inv.ProfileID)
	} else {
		p, err = c.Gateway.QueryProfileByUsername(ctx, target)
	}
	if err != nil {
		fail(err)
	}
	if p == nil {
		fail(fmt.Errorf("user %q: %w", target, model.ErrNotFound))
	}
	return p
}

type summaryJSON struct {
	ConversationID string    `json:"conversation_id"`
	With           string    `json:"with"`
	WithID         string    `json:"with_id"`
	Online         bool      `json:"online"`
	Preview        string    `json:"preview"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func cmdConversations(ctx context.Context, c *client.Client) {
	self := signIn(ctx, c)
	defer signOut(c)

	summaries := c.Session.Summaries()
	if jsonOut {
		out := make([]summaryJSON, 0, len(summaries))
		for _, s := range summaries {
			j := summaryJSON{
				ConversationID: s.Conversation.ID,
				WithID:         s.Conversation.OtherParticipant(self.ID),
				Preview:        s.Preview(),
				UpdatedAt:      s.Conversation.UpdatedAt,
			}
			if s.Other != nil {
				j.With = s.Other.Username
				j.Online = s.Other.Online
			}
			out = append(out, j)
		}
		outputJSON(out)
		return
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations yet.")
		return
	}
	for _, s := range summaries {
		fmt.Printf("%s %-20s %-6s %s  %s\n", avatarOf(s.Other), nameOf(s.Other), presenceOf(s.Other),
			s.Conversation.UpdatedAt.Local().Format("01/02 15:04"), s.Preview())
	}
}

func cmdHistory(ctx context.Context, c *client.Client, target string) {
	self := signIn(ctx, c)
	defer signOut(c)
	other := lookup(ctx, c, target)

	var convID string
	for _, s := range c.Session.Summaries() {
		if s.Conversation.OtherParticipant(self.ID) == other.ID {
			convID = s.Conversation.ID
			break
		}
	}
	if convID == "" {
		fmt.Printf("No conversation with %s.\n", other.Username)
		return
	}
	if err := c.Session.Open(ctx, convID); err != nil {
		fail(err)
	}
	msgs := c.Session.Messages()
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		printMessage(c, self, &m)
	}
}

func cmdSend(ctx context.Context, c *client.Client, target, text, imagePath, voicePath string) {
	kind, ref := model.KindText, ""
	switch {
	case imagePath != "" && voicePath != "":
		fail(errors.New("--image and --voice are mutually exclusive"))
	case imagePath != "":
		kind, ref = model.KindImage, encodeMedia(imagePath)
		text = ""
	case voicePath != "":
		kind, ref = model.KindVoice, encodeMedia(voicePath)
		text = ""
	case strings.TrimSpace(text) == "":
		fail(errors.New("nothing to send"))
	}

	signIn(ctx, c)
	defer signOut(c)
	other := lookup(ctx, c, target)

	if _, err := c.Session.StartConversation(ctx, other.ID); err != nil {
		fail(err)
	}
	m, err := c.Session.Send(ctx, kind, text, ref)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(m)
		return
	}
	fmt.Printf("Sent %s to %s (%s)\n", m.Kind, other.Username, m.ID)
}

func encodeMedia(path string) string {
	ref, err := media.EncodeFile(path)
	if err != nil {
		fail(err)
	}
	return ref
}

func cmdSearch(ctx context.Context, c *client.Client, query string) {
	signIn(ctx, c)
	defer signOut(c)

	results, err := c.Session.Search(ctx, query)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No users found.")
		return
	}
	for _, p := range results {
		fmt.Printf("%s %-20s %-6s %s\n", model.Avatar(p.AvatarIndex), p.Username, presenceOf(&p), p.ID)
	}
}

func cmdAvatar(ctx context.Context, c *client.Client, arg string) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		fail(fmt.Errorf("avatar index: %w", err))
	}
	signIn(ctx, c)
	defer signOut(c)

	if err := c.Session.SetAvatar(ctx, index); err != nil {
		fail(err)
	}
	self := c.Session.Self()
	if jsonOut {
		outputJSON(self)
		return
	}
	fmt.Printf("Avatar set to %s (%s)\n", model.Avatar(self.AvatarIndex), model.AvatarColor(self.AvatarIndex))
}

func cmdInvite(ctx context.Context, c *client.Client, username string) {
	if username == "" {
		fail(errors.New("no profile selected: pass a username or --as"))
	}
	p := lookup(ctx, c, username)
	uri := invite.URI(p)
	if jsonOut {
		outputJSON(map[string]string{"uri": uri, "profile_id": p.ID, "username": p.Username})
		return
	}
	qr, err := invite.Render(uri, "  ")
	if err != nil {
		fail(err)
	}
	fmt.Printf("\n%s\n  %s %s\n  %s\n", qr, model.Avatar(p.AvatarIndex), p.Username, uri)
}

// cmdWatch keeps the profile online and prints each new message as the
// conversation list picks it up. A signal takes the teardown path.
func cmdWatch(ctx context.Context, c *client.Client) {
	events, unsubscribe := c.Bus.Subscribe("", 64)
	defer unsubscribe()

	signCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	self := signIn(signCtx, c)
	cancel()

	seen := make(map[string]string)
	for _, s := range c.Session.Summaries() {
		if s.Last != nil {
			seen[s.Conversation.ID] = s.Last.ID
		}
	}
	if !jsonOut {
		fmt.Fprintf(os.Stderr, "watching as %s, Ctrl-C to stop\n", self.Username)
	}

	for {
		select {
		case <-ctx.Done():
			cleanup = nil
			c.Session.Abort()
			return
		case evt := <-events:
			switch evt.Kind {
			case bus.KindDirectoryRefresh:
				for _, s := range c.Session.Summaries() {
					if s.Last == nil || seen[s.Conversation.ID] == s.Last.ID {
						continue
					}
					seen[s.Conversation.ID] = s.Last.ID
					if jsonOut {
						outputJSON(s.Last)
					} else {
						printMessage(c, self, s.Last)
					}
				}
			case bus.KindStatusChanged:
				change, ok := evt.Payload.(status.StatusChange)
				if ok && change.To == status.Stale {
					cleanup = c.Session.Abort
					fail(errors.New("notification feed lost"))
				}
			}
		}
	}
}

func printMessage(c *client.Client, self *model.Profile, m *model.Message) {
	sender := "?"
	if m.SenderID == self.ID {
		sender = "You"
	} else if p := c.Session.Profile(m.SenderID); p != nil {
		sender = p.Username
	}
	body := m.Text()
	if m.Kind != model.KindText {
		s := model.Summary{Last: m}
		body = s.Preview()
	}
	fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("01/02 15:04"), sender, body)
}

func avatarOf(p *model.Profile) string {
	if p == nil {
		return "  "
	}
	return model.Avatar(p.AvatarIndex)
}

func nameOf(p *model.Profile) string {
	if p == nil {
		return "(unknown)"
	}
	return p.Username
}

func presenceOf(p *model.Profile) string {
	if p != nil && p.Online {
		return "online"
	}
	return ""
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
