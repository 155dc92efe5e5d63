// Package dialog is the conversation state machine: it maps inbound events
// to state changes, store calls and outward replies.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/olimjon10111985/asralashm/internal/auth"
	"github.com/olimjon10111985/asralashm/internal/diary"
	"github.com/olimjon10111985/asralashm/internal/persona"
	"github.com/olimjon10111985/asralashm/internal/session"
	"github.com/olimjon10111985/asralashm/internal/storage"
)

// SearchLimit caps profile search results.
const SearchLimit = 10

type EventKind int

const (
	EventText EventKind = iota
	EventStart
	EventCancel
	// EventSelect is an out-of-band profile choice; TargetID is set.
	EventSelect
	// EventUnsupported covers non-text payloads and unknown commands.
	EventUnsupported
)

type Event struct {
	Kind      EventKind
	Text      string
	TargetID  int64
	FirstName string
}

type Choice struct {
	Label    string
	TargetID int64
}

type Link struct {
	Label string
	URL   string
}

// Reply is one outward message. Keyboard is a rendering hint for the transport.
type Reply struct {
	Text     string
	Keyboard session.Keyboard
	Choices  []Choice
	Link     *Link
}

type Generator interface {
	Generate(ctx context.Context, id persona.Identity, block diary.Block, question string) string
}

// Gate decides whether a platform user may use the bot.
type Gate interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
	JoinLink() string
}

type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error) bool
}

type Machine struct {
	store  storage.Store
	gen    Generator
	gate   Gate
	hasher auth.Hasher
	async  Dispatcher
}

// New wires a machine. A nil gate admits everyone.
func New(store storage.Store, gen Generator, gate Gate, hasher auth.Hasher, async Dispatcher) *Machine {
	return &Machine{store: store, gen: gen, gate: gate, hasher: hasher, async: async}
}

// Handle applies ev to s in place and returns the replies to send. s.State is
// a valid state when Handle returns.
func (m *Machine) Handle(ctx context.Context, s *session.Session, ev Event) []Reply {
	if !s.State.Valid() {
		s.State = session.MainMenu
	}
	replies := m.dispatch(ctx, s, ev)
	for _, r := range replies {
		if r.Keyboard != session.KeyboardNone {
			s.Keyboard = r.Keyboard
		}
	}
	return replies
}

func (m *Machine) dispatch(ctx context.Context, s *session.Session, ev Event) []Reply {
	switch ev.Kind {
	case EventStart:
		return m.start(ctx, s, ev.FirstName)
	case EventCancel:
		m.toMainMenu(s)
		return one(textCancelled, session.KeyboardMain)
	case EventUnsupported:
		return one(textTextOnly, s.Keyboard)
	case EventSelect:
		return m.selectProfile(ctx, s, ev.TargetID)
	}

	text := strings.TrimSpace(ev.Text)
	switch s.State {
	case session.RegName, session.RegSurname, session.RegHandle, session.RegPassword:
		return m.register(ctx, s, text)
	case session.LoginHandle, session.LoginPassword:
		return m.login(ctx, s, text)
	case session.ProfileMenu:
		return m.profileMenu(s, text)
	case session.ProfileAddEntry:
		return m.addEntry(ctx, s, text)
	case session.DeleteAccountPassword:
		return m.deleteAccount(ctx, s, text)
	case session.SearchQuery:
		return m.search(ctx, s, text)
	case session.ChatWithProfile:
		return m.chat(ctx, s, text)
	default:
		return m.mainMenu(ctx, s, text)
	}
}

func (m *Machine) start(ctx context.Context, s *session.Session, firstName string) []Reply {
	m.toMainMenu(s)
	s.AccountID = 0
	if !m.admitted(ctx, s) {
		return m.joinPrompt()
	}
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "do'stim"
	}
	return one(fmt.Sprintf(textGreeting, name), session.KeyboardMain)
}

func (m *Machine) mainMenu(ctx context.Context, s *session.Session, text string) []Reply {
	if !m.admitted(ctx, s) {
		return m.joinPrompt()
	}
	switch {
	case isBack(text):
		return one(textMainMenu, session.KeyboardMain)
	case matches(text, ButtonSearch, "sun'iy ong odamlarini qidirish"):
		return m.enter(s, session.SearchQuery)
	case matches(text, ButtonRegister, "hisob yaratish"):
		return one(textRegWarning, session.KeyboardRegStart)
	case matches(text, ButtonNoAccount, "hisobim yo'q"):
		s.ClearDrafts()
		return m.enter(s, session.RegName)
	case matches(text, ButtonLogin, "hisobga kirish"):
		s.ClearDrafts()
		return m.enter(s, session.LoginHandle)
	default:
		return one(textUseMenu, session.KeyboardMain)
	}
}

func (m *Machine) register(ctx context.Context, s *session.Session, text string) []Reply {
	if isBack(text) {
		prev := map[session.State]session.State{
			session.RegName:     session.MainMenu,
			session.RegSurname:  session.RegName,
			session.RegHandle:   session.RegSurname,
			session.RegPassword: session.RegHandle,
		}[s.State]
		if prev == session.MainMenu {
			m.toMainMenu(s)
			return one(textMainMenu, session.KeyboardMain)
		}
		return m.enter(s, prev)
	}
	if text == "" {
		return []Reply{prompt(s.State)}
	}

	switch s.State {
	case session.RegName:
		s.RegGivenName = text
		return m.enter(s, session.RegSurname)
	case session.RegSurname:
		s.RegFamilyName = text
		return m.enter(s, session.RegHandle)
	case session.RegHandle:
		s.RegHandle = storage.NormalizeHandle(text)
		return m.enter(s, session.RegPassword)
	}

	switch err := auth.ValidatePassword(text); {
	case errors.Is(err, auth.ErrPasswordTooLong):
		return one(textLongPass, session.KeyboardBack)
	case err != nil:
		return one(textShortPass, session.KeyboardBack)
	}
	hash, err := m.hasher.Hash(text)
	if err != nil {
		log.Printf("❌ hash password for @%s: %v", s.RegHandle, err)
		m.toMainMenu(s)
		return one(textRegFailed, session.KeyboardMain)
	}
	acc, err := m.store.CreateAccount(ctx, storage.NewAccount{
		ExternalID:   s.UserID,
		GivenName:    s.RegGivenName,
		FamilyName:   s.RegFamilyName,
		Handle:       s.RegHandle,
		PasswordHash: hash,
	})
	handle := s.RegHandle
	m.toMainMenu(s)
	switch {
	case errors.Is(err, storage.ErrHandleTaken):
		return one(textHandleTaken, session.KeyboardMain)
	case err != nil:
		log.Printf("❌ create account @%s: %v", handle, err)
		return one(textRegFailed, session.KeyboardMain)
	}
	log.Printf("🆕 account #%d @%s registered", acc.ID, acc.Handle)
	return one(textRegDone, session.KeyboardMain)
}

func (m *Machine) login(ctx context.Context, s *session.Session, text string) []Reply {
	if isBack(text) {
		if s.State == session.LoginPassword {
			return m.enter(s, session.LoginHandle)
		}
		m.toMainMenu(s)
		return one(textMainMenu, session.KeyboardMain)
	}
	if text == "" {
		return []Reply{prompt(s.State)}
	}
	if s.State == session.LoginHandle {
		s.LoginHandle = storage.NormalizeHandle(text)
		return m.enter(s, session.LoginPassword)
	}

	handle := s.LoginHandle
	m.toMainMenu(s)
	acc, err := m.store.AccountByHandle(ctx, handle)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return one(textNoSuchHandle, session.KeyboardMain)
	case err != nil:
		log.Printf("❌ login lookup @%s: %v", handle, err)
		return one(textStoreFailed, session.KeyboardMain)
	}
	if !m.hasher.Verify(acc.PasswordHash, text) {
		return one(textWrongPassword, session.KeyboardMain)
	}
	s.AccountID = acc.ID
	s.State = session.ProfileMenu
	return one(textLoggedIn, session.KeyboardProfile)
}

func (m *Machine) profileMenu(s *session.Session, text string) []Reply {
	switch {
	case isBack(text), isMainMenu(text):
		m.toMainMenu(s)
		return one(textMainMenu, session.KeyboardMain)
	case matches(text, ButtonNewEntry, "yangi ma'lumot yozish"):
		return m.enter(s, session.ProfileAddEntry)
	case matches(text, ButtonDelete, "hisobni o'chirish"):
		return m.enter(s, session.DeleteAccountPassword)
	default:
		return one(textUseProfileMenu, session.KeyboardProfile)
	}
}

func (m *Machine) addEntry(ctx context.Context, s *session.Session, text string) []Reply {
	switch {
	case isBack(text):
		return m.enter(s, session.ProfileMenu)
	case isMainMenu(text):
		m.toMainMenu(s)
		return one(textMainMenu, session.KeyboardMain)
	case !s.LoggedIn():
		m.toMainMenu(s)
		return one(textAccountMissing, session.KeyboardMain)
	case text == "":
		return []Reply{prompt(s.State)}
	}

	_, err := m.store.CreateEntry(ctx, s.AccountID, text)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.logout(s)
		return one(textAccountMissing, session.KeyboardMain)
	case errors.Is(err, storage.ErrEmptyEntry):
		return []Reply{prompt(s.State)}
	case err != nil:
		log.Printf("❌ save entry for account #%d: %v", s.AccountID, err)
		return one(textStoreFailed, session.KeyboardBack)
	}
	return one(textEntrySaved, session.KeyboardBack)
}

func (m *Machine) deleteAccount(ctx context.Context, s *session.Session, text string) []Reply {
	switch {
	case isBack(text):
		return m.enter(s, session.ProfileMenu)
	case isMainMenu(text):
		m.toMainMenu(s)
		return one(textMainMenu, session.KeyboardMain)
	case !s.LoggedIn():
		m.toMainMenu(s)
		return one(textAccountMissing, session.KeyboardMain)
	}

	acc, err := m.store.AccountByID(ctx, s.AccountID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.logout(s)
		return one(textAccountMissing, session.KeyboardMain)
	case err != nil:
		log.Printf("❌ load account #%d: %v", s.AccountID, err)
		return one(textStoreFailed, session.KeyboardBack)
	}
	if !m.hasher.Verify(acc.PasswordHash, text) {
		return one(textDeleteWrongPass, session.KeyboardBack)
	}
	if err := m.store.DeleteAccount(ctx, acc.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("❌ delete account #%d: %v", acc.ID, err)
		return one(textStoreFailed, session.KeyboardBack)
	}
	log.Printf("🗑 account #%d @%s deleted", acc.ID, acc.Handle)
	m.logout(s)
	return one(textDeleted, session.KeyboardMain)
}

func (m *Machine) search(ctx context.Context, s *session.Session, text string) []Reply {
	if isBack(text) {
		m.toMainMenu(s)
		return one(textMainMenu, session.KeyboardMain)
	}
	if text == "" {
		return []Reply{prompt(s.State)}
	}
	found, err := m.store.SearchAccounts(ctx, text, SearchLimit)
	if err != nil {
		log.Printf("❌ search %q: %v", text, err)
		return one(textStoreFailed, session.KeyboardBack)
	}
	if len(found) == 0 {
		m.toMainMenu(s)
		return one(textNothingFound, session.KeyboardMain)
	}
	choices := make([]Choice, 0, len(found))
	for _, a := range found {
		choices = append(choices, Choice{
			Label:    ProfileLabel(a),
			TargetID: a.ID,
		})
	}
	return []Reply{
		{Text: textFoundHeader, Keyboard: session.KeyboardBack},
		{Text: textFoundChoose, Choices: choices},
	}
}

func (m *Machine) selectProfile(ctx context.Context, s *session.Session, targetID int64) []Reply {
	if s.State != session.SearchQuery && s.State != session.ChatWithProfile {
		p := prompt(s.State)
		return []Reply{{Text: textSelectInvalid + "\n" + p.Text, Keyboard: p.Keyboard}}
	}
	acc, err := m.store.AccountByID(ctx, targetID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.toMainMenu(s)
		return one(textProfileGone, session.KeyboardMain)
	case err != nil:
		log.Printf("❌ load profile #%d: %v", targetID, err)
		return one(textStoreFailed, s.Keyboard)
	}
	s.Target = &session.Target{
		AccountID:  acc.ID,
		GivenName:  acc.GivenName,
		FamilyName: acc.FamilyName,
		Handle:     acc.Handle,
	}
	s.State = session.ChatWithProfile
	return one(fmt.Sprintf(textChatStarted, ProfileLabel(acc)), session.KeyboardChat)
}

func (m *Machine) chat(ctx context.Context, s *session.Session, question string) []Reply {
	switch {
	case isBack(question):
		s.Target = nil
		return m.enter(s, session.SearchQuery)
	case isMainMenu(question):
		m.toMainMenu(s)
		return one(textMainMenu, session.KeyboardMain)
	case s.Target == nil:
		m.toMainMenu(s)
		return one(textProfileGone, session.KeyboardMain)
	case question == "":
		return []Reply{prompt(s.State)}
	}

	target := *s.Target
	entries, err := m.store.ListEntries(ctx, target.AccountID)
	if err != nil {
		log.Printf("❌ list entries of #%d: %v", target.AccountID, err)
		return one(textStoreFailed, session.KeyboardChat)
	}
	id := persona.Identity{GivenName: target.GivenName, FamilyName: target.FamilyName, Handle: target.Handle}
	reply := m.gen.Generate(ctx, id, diary.Assemble(entries), question)

	logText := diary.ChatLog(question, reply)
	m.async.Go(fmt.Sprintf("chat log for #%d", target.AccountID), func(ctx context.Context) error {
		_, err := m.store.CreateEntry(ctx, target.AccountID, logText)
		return err
	})
	return one(reply, session.KeyboardChat)
}

// admitted runs the subscription gate. Gate errors admit the user.
func (m *Machine) admitted(ctx context.Context, s *session.Session) bool {
	if m.gate == nil {
		return true
	}
	ok, err := m.gate.IsMember(ctx, s.UserID)
	if err != nil {
		log.Printf("⚠️ subscription check for %d failed, letting through: %v", s.UserID, err)
		return true
	}
	return ok
}

func (m *Machine) joinPrompt() []Reply {
	link := m.gate.JoinLink()
	return []Reply{
		{Text: fmt.Sprintf(textJoin, link), Keyboard: session.KeyboardStart},
		{Text: textJoinButton, Link: &Link{Label: ButtonJoin, URL: link}},
	}
}

func (m *Machine) enter(s *session.Session, st session.State) []Reply {
	s.State = st
	return []Reply{prompt(st)}
}

func (m *Machine) toMainMenu(s *session.Session) {
	s.State = session.MainMenu
	s.ClearDrafts()
	s.Target = nil
}

func (m *Machine) logout(s *session.Session) {
	m.toMainMenu(s)
	s.AccountID = 0
}

func one(text string, kb session.Keyboard) []Reply {
	return []Reply{{Text: text, Keyboard: kb}}
}
