package api

//go:generate mockgen -destination=mocks/mock_api.go -package=mocks cloudshare/api Notifier,Navigator

const (
	MessageSessionExpired = "Session expired. Please login again."
	MessageAccessDenied   = "Access denied"
	MessageServerError    = "Server error. Please try again later."
	MessageGenericFailure = "An error occurred"
)

// Level is the severity of a user-facing notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short message surfaced to the user.
type Notice struct {
	Level   Level
	Message string
}

// Notifier surfaces notices to the user. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notice)
}

// Navigator sends the user to the login entry point.
type Navigator interface {
	ToLogin()
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func()

// ToLogin implements Navigator.
func (f NavigatorFunc) ToLogin() { f() }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

type discardNavigator struct{}

func (discardNavigator) ToLogin() {}
