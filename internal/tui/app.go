// Package tui renders a chat session in the terminal. It reads snapshots
// from the session and redraws when the session publishes a change.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/chat"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/status"
	"github.com/matheus3301/chatwave/internal/tui/client"
	"github.com/matheus3301/chatwave/internal/tui/keys"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/matheus3301/chatwave/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageSignIn        = "signin"
	pageConversations = "conversations"
	pageThread        = "thread"
	pageSearch        = "search"
	pageDetails       = "details"
	pageProfile       = "profile"
	pageHelp          = "help"
)

// opTimeout bounds a single store operation started from the UI.
const opTimeout = 10 * time.Second

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	root     *tview.Flex
	client   *client.Client
	session  *chat.Session
	logger   *zap.Logger
	registry *keys.Registry
	flash    *ui.FlashModel

	info     *ui.SessionInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	flashBar *ui.FlashBar
	prompt   *ui.Prompt

	signIn  *views.SignInView
	list    *views.ConversationList
	thread  *views.MessageThread
	search  *views.SearchView
	details *views.ConversationInfo
	profile *views.ProfileView
	help    *views.HelpView

	username string
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewApp creates the TUI for c. A non-empty username is signed in on start.
func NewApp(c *client.Client, username string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		pages:    ui.NewPages(),
		client:   c,
		session:  c.Session,
		logger:   c.Logger.Named("tui"),
		registry: keys.NewRegistry(),
		flash:    ui.NewFlashModel(),
		info:     ui.NewSessionInfo(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		flashBar: ui.NewFlashBar(theme),
		prompt:   ui.NewPrompt(theme),
		signIn:   views.NewSignInView(theme),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		search:   views.NewSearchView(theme),
		details:  views.NewConversationInfo(theme),
		profile:  views.NewProfileView(theme),
		help:     views.NewHelpView(theme),
		username: username,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "Command", Visible: true,
		Handler: func() { a.activatePrompt(ui.PromptCommand, "") },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'n', Description: "New chat", Visible: true,
		Handler: func() { a.showSearch("") },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'p', Description: "Profile", Visible: true,
		Handler: a.showProfile,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "Reload", Visible: true,
		Handler: a.reload,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true,
		Handler: func() { a.push(pageHelp) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "Quit / Back", Visible: true,
		Handler: func() {
			if a.pages.Depth() > 1 {
				a.back()
				return
			}
			a.Stop()
		},
	})

	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyEnter, Description: "Open", Visible: true,
		Handler: func() {
			if id := a.list.SelectedConversation(); id != "" {
				a.openConversation(id)
			}
		},
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "Filter", Visible: true,
		Handler: func() { a.activatePrompt(ui.PromptFilter, a.list.Filter()) },
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: '0', Description: "Clear filter",
		Handler: a.list.ClearFilter,
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd', Description: "Details", Visible: true,
		Handler: func() { a.showDetails(a.list.SelectedConversation()) },
	})

	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Description: "Compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd', Description: "Details", Visible: true,
		Handler: func() { a.showDetails(a.thread.ConversationID()) },
	})

	a.registry.AddView(pageSearch, &keys.Action{
		Key: tcell.KeyEnter, Description: "Start chat", Visible: true,
		Handler: func() {
			if p := a.search.SelectedProfile(); p != nil {
				a.startConversation(p.ID)
			}
		},
	})

	prevAvatar := func() { a.changeAvatar(-1) }
	nextAvatar := func() { a.changeAvatar(1) }
	a.registry.AddView(pageProfile, &keys.Action{Key: tcell.KeyLeft, Handler: prevAvatar})
	a.registry.AddView(pageProfile, &keys.Action{Key: tcell.KeyRight, Handler: nextAvatar})
	a.registry.AddView(pageProfile, &keys.Action{Key: tcell.KeyRune, Rune: 'h', Handler: prevAvatar})
	a.registry.AddView(pageProfile, &keys.Action{Key: tcell.KeyRune, Rune: 'l', Handler: nextAvatar})
}

func (a *App) setupCallbacks() {
	a.signIn.SetOnSignIn(func(username string) { a.doSignIn(username, false) })
	a.signIn.SetOnRegister(func(username string) { a.doSignIn(username, true) })

	a.thread.SetOnSend(func(text string) {
		a.send(model.KindText, text, "")
	})

	a.search.SetOnQuery(a.runSearch)
	a.search.SetOnSubmit(func() {
		a.focusResults()
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.deactivatePrompt()
		switch mode {
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		case ui.PromptFilter:
			a.list.SetFilter(text)
		}
	})
	a.prompt.SetOnCancel(a.deactivatePrompt)
	a.prompt.SetCommands(commandNames)

	a.pages.SetOnChange(func(crumbs []string) {
		a.crumbs.Update(crumbs)
		a.updateMenu()
	})
}

func (a *App) setupLayout() {
	a.pages.Add(pageSignIn, a.signIn, a.signIn)
	a.pages.Add(pageConversations, a.list, a.list)
	a.pages.Add(pageThread, a.thread, a.thread)
	a.pages.Add(pageSearch, a.search, a.search)
	a.pages.Add(pageDetails, a.details, a.details)
	a.pages.Add(pageProfile, a.profile, a.profile)
	a.pages.Add(pageHelp, a.help, a.help)

	header := tview.NewFlex().
		AddItem(a.info, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 30, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	page := a.pages.Current()
	focused := a.app.GetFocus()

	// The prompt and text inputs handle their own keys.
	if focused == a.prompt.InputField {
		return event
	}
	if input, ok := focused.(*tview.InputField); ok {
		switch {
		case event.Key() == tcell.KeyEscape && input == a.thread.Composer():
			a.app.SetFocus(a.thread.Messages())
			return nil
		case event.Key() == tcell.KeyEscape && input == a.search.Input():
			a.back()
			return nil
		case (event.Key() == tcell.KeyDown || event.Key() == tcell.KeyTab) && input == a.search.Input():
			a.focusResults()
			return nil
		}
		return event
	}

	if page == pageSignIn {
		return event
	}

	if event.Key() == tcell.KeyEscape {
		if page == pageConversations && a.list.Filter() != "" {
			a.list.ClearFilter()
			return nil
		}
		a.back()
		return nil
	}

	// 1-9 jumps to the Nth conversation.
	if page == pageConversations && event.Key() == tcell.KeyRune && event.Rune() >= '1' && event.Rune() <= '9' {
		if id := a.list.ConversationByIndex(int(event.Rune() - '0')); id != "" {
			a.openConversation(id)
		}
		return nil
	}

	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

func (a *App) updateMenu() {
	page := a.pages.Current()
	hints := a.registry.Hints(page)
	if c := a.pages.Component(page); c != nil {
		hints = append(c.Hints(), hints...)
	}
	if page == pageSignIn {
		hints = a.signIn.Hints()
	}
	a.menu.Update(hints)
}

func (a *App) push(page string) {
	if a.pages.Current() == page {
		return
	}
	a.pages.Push(page)
	a.focusPage(page)
}

func (a *App) back() {
	if a.pages.Depth() <= 1 {
		return
	}
	popped := a.pages.Pop()
	if popped == pageThread {
		a.session.CloseConversation()
	}
	a.focusPage(a.pages.Current())
}

func (a *App) focusPage(page string) {
	switch page {
	case pageSignIn:
		a.app.SetFocus(a.signIn.Input())
	case pageConversations:
		a.app.SetFocus(a.list)
	case pageThread:
		a.app.SetFocus(a.thread.Composer())
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	case pageDetails:
		a.app.SetFocus(a.details)
	case pageProfile:
		a.app.SetFocus(a.profile)
	case pageHelp:
		a.app.SetFocus(a.help)
	}
}

func (a *App) activatePrompt(mode ui.PromptMode, text string) {
	a.prompt.Activate(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) deactivatePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage(a.pages.Current())
}

// async runs fn off the UI goroutine with a bounded context. Errors are
// flashed.
func (a *App) async(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, opTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Warn(what+" failed", zap.Error(err))
			a.flash.Err(fmt.Errorf("%s: %w", what, err))
		}
	}()
}

func (a *App) doSignIn(username string, register bool) {
	a.signIn.ShowMessage(fmt.Sprintf("Signing in as [::b]%s[-:-:-]...", tview.Escape(username)))
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, opTimeout)
		defer cancel()

		var (
			p   *model.Profile
			err error
		)
		if register {
			p, err = a.session.Register(ctx, username)
			if err == nil {
				p, err = a.session.SignIn(ctx, p.ID)
			}
		} else {
			p, err = a.session.SignInByUsername(ctx, username)
		}
		if err != nil {
			a.signInFailed(err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.crumbs.SetPrefix(p.Username)
			a.pages.Reset(pageConversations)
			a.focusPage(pageConversations)
			a.renderAll()
			a.flash.Info("Signed in as " + p.Username)
		})
	}()
}

func (a *App) signInFailed(err error) {
	msg := err.Error()
	if errors.Is(err, model.ErrNotFound) {
		msg = "No such user. Press Ctrl-N to register it."
	}
	a.logger.Warn("sign in failed", zap.Error(err))
	a.app.QueueUpdateDraw(func() {
		a.signIn.ShowMessage(ui.Tag(a.theme.FlashErrColor) + tview.Escape(msg) + "[-]")
	})
}

func (a *App) signOut() {
	a.async("sign out", func(ctx context.Context) error {
		err := a.session.SignOut(ctx)
		a.app.QueueUpdateDraw(func() {
			a.crumbs.SetPrefix("")
			a.pages.Reset(pageSignIn)
			a.focusPage(pageSignIn)
			a.signIn.ShowMessage("Signed out.")
			a.renderAll()
		})
		return err
	})
}

func (a *App) openConversation(id string) {
	var peer *model.Profile
	if s, ok := a.session.Summary(id); ok {
		peer = s.Other
	}
	a.thread.Bind(id, peer)
	a.showThread()
	a.async("open conversation", func(ctx context.Context) error {
		return a.session.Open(ctx, id)
	})
}

func (a *App) showThread() {
	switch a.pages.Current() {
	case pageThread:
	case pageSearch, pageDetails:
		a.pages.Replace(pageThread)
	default:
		a.pages.Push(pageThread)
	}
	a.focusPage(pageThread)
}

func (a *App) startConversation(otherID string) {
	a.async("start conversation", func(ctx context.Context) error {
		c, err := a.session.StartConversation(ctx, otherID)
		if err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() {
			var peer *model.Profile
			if s, ok := a.session.Summary(c.ID); ok {
				peer = s.Other
			}
			a.thread.Bind(c.ID, peer)
			a.showThread()
			a.renderThread()
		})
		return nil
	})
}

func (a *App) send(kind model.Kind, content, mediaRef string) {
	if a.session.OpenConversation() == "" {
		a.flash.Warn("Open a conversation first")
		return
	}
	a.async("send", func(ctx context.Context) error {
		_, err := a.session.Send(ctx, kind, content, mediaRef)
		return err
	})
}

// showSearch opens the find-user page. Setting the query runs the search.
func (a *App) showSearch(query string) {
	a.search.Reset(query)
	a.push(pageSearch)
}

func (a *App) focusResults() {
	if a.search.Len() == 0 {
		return
	}
	a.search.Results().Select(1, 0)
	a.app.SetFocus(a.search.Results())
}

func (a *App) runSearch(query string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, opTimeout)
		defer cancel()
		results, err := a.session.Search(ctx, query)
		if err != nil {
			a.flash.Err(fmt.Errorf("search: %w", err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.search.Update(query, results)
		})
	}()
}

func (a *App) showProfile() {
	a.profile.Update(a.session.Self())
	a.push(pageProfile)
}

func (a *App) changeAvatar(delta int) {
	self := a.session.Self()
	if self == nil {
		return
	}
	a.setAvatar(self.AvatarIndex + delta)
}

func (a *App) setAvatar(index int) {
	a.async("set avatar", func(ctx context.Context) error {
		return a.session.SetAvatar(ctx, index)
	})
}

func (a *App) showDetails(conversationID string) {
	s, ok := a.session.Summary(conversationID)
	if !ok {
		return
	}
	count := -1
	if a.session.OpenConversation() == conversationID {
		count = len(a.session.Messages())
	}
	a.details.Update(&s, count)
	a.push(pageDetails)
}

func (a *App) reload() {
	a.async("reload", func(ctx context.Context) error {
		if err := a.session.Reload(ctx); err != nil {
			return err
		}
		a.flash.Info("Reloaded")
		return nil
	})
}

// Run starts the TUI application.
func (a *App) Run() error {
	a.pages.Reset(pageSignIn)
	a.focusPage(pageSignIn)
	a.signIn.ShowMessage("")
	a.renderHeader()
	if a.username != "" {
		a.signIn.SetUsername(a.username)
		a.doSignIn(a.username, false)
	}

	events, unsubscribe := a.client.Bus.Subscribe("", 128)
	go a.eventLoop(events)
	defer unsubscribe()
	defer a.cancel()

	return a.app.Run()
}

// eventLoop redraws on session events. A periodic full redraw covers
// events dropped by the bus and expires flash messages.
func (a *App) eventLoop(events <-chan bus.Event) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	flashes := a.flash.Changes()

	for {
		select {
		case <-a.ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.app.QueueUpdateDraw(func() { a.handleEvent(evt) })
		case <-flashes:
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderAll)
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindDirectoryRefresh:
		a.renderDirectory()
	case bus.KindStreamChanged:
		if id, _ := evt.Payload.(string); id == a.thread.ConversationID() {
			a.renderThread()
		}
	case bus.KindProfileUpdated:
		a.renderHeader()
		if a.pages.Current() == pageProfile {
			a.profile.Update(a.session.Self())
		}
	case bus.KindStatusChanged:
		a.renderHeader()
		change, _ := evt.Payload.(status.StatusChange)
		switch change.To {
		case status.Stale:
			a.flash.Warn("Live updates stopped. :reload refreshes, :logout and sign in again to reconnect")
		case status.Error:
			a.flash.Err(errors.New("session error, sign in again"))
		}
	}
}

func (a *App) renderAll() {
	a.renderHeader()
	a.renderDirectory()
	if a.thread.ConversationID() != "" {
		a.renderThread()
	}
	a.flashBar.Update(a.flash.Current())
}

func (a *App) renderHeader() {
	data := &ui.SessionData{
		Instance:      a.client.Instance,
		Self:          a.session.Self(),
		Status:        a.session.Status(),
		Conversations: len(a.session.Summaries()),
	}
	if id := a.thread.ConversationID(); id != "" && a.pages.Contains(pageThread) {
		if s, ok := a.session.Summary(id); ok && s.Other != nil {
			data.Open = s.Other.Username
		}
	}
	a.info.Update(data)
}

func (a *App) renderDirectory() {
	a.list.Update(a.session.Summaries())
	if id := a.thread.ConversationID(); id != "" {
		if s, ok := a.session.Summary(id); ok {
			a.thread.SetPeer(s.Other)
		}
	}
	a.renderHeader()
}

func (a *App) renderThread() {
	self := a.session.Self()
	if self == nil || a.session.OpenConversation() != a.thread.ConversationID() {
		return
	}
	a.thread.Update(a.session.Messages(), self.ID)
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
