// Package session holds the ephemeral per-chat conversation state.
package session

type State int

const (
	MainMenu State = iota
	RegName
	RegSurname
	RegHandle
	RegPassword
	LoginHandle
	LoginPassword
	ProfileMenu
	ProfileAddEntry
	SearchQuery
	ChatWithProfile
	DeleteAccountPassword
)

var stateNames = [...]string{
	MainMenu:              "main_menu",
	RegName:               "reg_name",
	RegSurname:            "reg_surname",
	RegHandle:             "reg_handle",
	RegPassword:           "reg_password",
	LoginHandle:           "login_handle",
	LoginPassword:         "login_password",
	ProfileMenu:           "profile_menu",
	ProfileAddEntry:       "profile_add_entry",
	SearchQuery:           "search_query",
	ChatWithProfile:       "chat_with_profile",
	DeleteAccountPassword: "delete_account_password",
}

func (s State) Valid() bool { return s >= MainMenu && s <= DeleteAccountPassword }

func (s State) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stateNames[s]
}

// Keyboard is the reply keyboard last shown to the user.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMain
	KeyboardBack
	KeyboardProfile
	KeyboardChat
	KeyboardRegStart
	KeyboardStart
)

// Target is a snapshot of the profile chosen for a chat.
type Target struct {
	AccountID  int64
	GivenName  string
	FamilyName string
	Handle     string
}

type Session struct {
	ChatID int64
	// UserID is the platform identity used for the subscription gate and ExternalID.
	UserID int64
	State  State

	RegGivenName  string
	RegFamilyName string
	RegHandle     string
	LoginHandle   string

	// AccountID is the authenticated account, 0 when logged out.
	AccountID int64
	Target    *Target
	Keyboard  Keyboard
}

func New(chatID, userID int64) *Session {
	return &Session{ChatID: chatID, UserID: userID, State: MainMenu}
}

// ClearDrafts drops registration and login working values.
func (s *Session) ClearDrafts() {
	s.RegGivenName = ""
	s.RegFamilyName = ""
	s.RegHandle = ""
	s.LoginHandle = ""
}

func (s *Session) LoggedIn() bool { return s.AccountID != 0 }
