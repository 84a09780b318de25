package screens

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/renzo/client/internal/api"
	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/models"
)

// AuthMode selects which form the auth screen shows.
type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

// DefaultTag is registered when no tag is selected.
const DefaultTag = "beginner"

const (
	// placeholderPassword is sent with every login. The backend only checks
	// the email.
	placeholderPassword = "dummy"
	fallbackAuthError   = "An error occurred"
)

// TagOptions are the skills offered on the registration form.
var TagOptions = []string{
	"Hip-Hop", "Classical", "Contemporary", "Ballet", "Jazz", "Rock", "Pop", "R&B",
	"Folk", "Electronic", "Vocals", "Guitar", "Piano", "Drums", "Beatbox",
	"Choreography", "Freestyle",
}

// RegisterForm holds the registration fields.
type RegisterForm struct {
	Name        string
	Email       string
	Username    string
	ProfileType models.ProfileType
	Tags        []string
}

// Auth is the sign-in and registration screen.
type Auth struct {
	backend Backend
	session SessionWriter
	logger  *slog.Logger

	mu    sync.Mutex
	mode  AuthMode
	email string
	form  RegisterForm
	err   string
	busy  bool
}

// NewAuth returns the auth screen in login mode.
func NewAuth(backend Backend, session SessionWriter, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{
		backend: backend,
		session: session,
		logger:  logger,
		mode:    ModeLogin,
		form:    RegisterForm{ProfileType: models.ProfileDancer},
	}
}

// Mode returns the form currently shown.
func (a *Auth) Mode() AuthMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// ToggleMode switches between login and registration and returns the new mode.
func (a *Auth) ToggleMode() AuthMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == ModeLogin {
		a.mode = ModeRegister
	} else {
		a.mode = ModeLogin
	}
	return a.mode
}

// Error returns the message from the last failed attempt, or "".
func (a *Auth) Error() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Form returns a copy of the registration fields.
func (a *Auth) Form() RegisterForm {
	a.mu.Lock()
	defer a.mu.Unlock()
	form := a.form
	form.Tags = slices.Clone(a.form.Tags)
	return form
}

// ToggleTag selects or deselects tag on the registration form.
func (a *Auth) ToggleTag(tag string) {
	a.mu.Lock()
	a.form.Tags = models.ToggleTag(a.form.Tags, tag)
	a.mu.Unlock()
}

// Login signs in with email. On success the fetched profile becomes the
// session identity.
func (a *Auth) Login(ctx context.Context, email string) error {
	ctx, op := logging.Start(logging.WithLogger(ctx, a.logger), "auth.login")
	a.begin(func() { a.email = email })

	profile, err := a.login(ctx, email)
	if err == nil {
		a.signIn(ctx, profile)
	}
	a.finish(err)
	op.End(err)
	return err
}

func (a *Auth) login(ctx context.Context, email string) (models.UserProfile, error) {
	userID, err := a.backend.Login(ctx, email, placeholderPassword)
	if err != nil {
		return models.UserProfile{}, err
	}
	return a.backend.GetUser(ctx, userID)
}

// Register creates an account from form. An empty tag selection registers
// DefaultTag. The returned profile becomes the session identity.
func (a *Auth) Register(ctx context.Context, form RegisterForm) error {
	ctx, op := logging.Start(logging.WithLogger(ctx, a.logger), "auth.register")
	a.begin(func() { a.form = form })

	var err error
	if form.ProfileType != "" && !form.ProfileType.Valid() {
		err = fmt.Errorf("unknown profile type %q", form.ProfileType)
	} else {
		var profile models.UserProfile
		profile, err = a.backend.Register(ctx, registerRequest(form))
		if err == nil {
			a.signIn(ctx, profile)
		}
	}
	a.finish(err)
	op.End(err)
	return err
}

// signIn sets the identity. A persistence failure still leaves the user
// signed in for this run.
func (a *Auth) signIn(ctx context.Context, profile models.UserProfile) {
	if _, err := a.session.Login(ctx, profile); err != nil {
		logging.FromContext(ctx).Warn("session not persisted", "error", err)
	}
}

func registerRequest(form RegisterForm) api.RegisterRequest {
	tags := form.Tags
	if len(tags) == 0 {
		tags = []string{DefaultTag}
	}
	profileType := form.ProfileType
	if profileType == "" {
		profileType = models.ProfileDancer
	}
	return api.RegisterRequest{
		Name:        form.Name,
		Email:       form.Email,
		Username:    form.Username,
		ProfileType: profileType,
		Tags:        tags,
	}
}

func (a *Auth) begin(update func()) {
	a.mu.Lock()
	update()
	a.err = ""
	a.busy = true
	a.mu.Unlock()
}

func (a *Auth) finish(err error) {
	a.mu.Lock()
	a.busy = false
	if err != nil {
		a.err = api.DetailOrDefault(err, fallbackAuthError)
	}
	a.mu.Unlock()
}

// Mount is a no-op; the auth screen fetches nothing on display.
func (a *Auth) Mount(context.Context) {}

// Unmount is a no-op.
func (a *Auth) Unmount() {}

// Render draws the current form.
func (a *Auth) Render(w io.Writer) error {
	a.mu.Lock()
	mode, email, form, errMsg, busy := a.mode, a.email, a.form, a.err, a.busy
	a.mu.Unlock()

	var b strings.Builder
	b.WriteString("Renzo - showcase your talent\n\n")
	if mode == ModeLogin {
		b.WriteString("Sign in\n")
		fmt.Fprintf(&b, "  Email: %s\n", email)
		b.WriteString("\nNo account? Switch to register.\n")
	} else {
		b.WriteString("Create account\n")
		fmt.Fprintf(&b, "  Name:     %s\n", form.Name)
		fmt.Fprintf(&b, "  Email:    %s\n", form.Email)
		fmt.Fprintf(&b, "  Username: %s\n", form.Username)
		fmt.Fprintf(&b, "  Type:     %s (%s)\n", form.ProfileType, joinProfileTypes())
		b.WriteString("  Tags:\n")
		for _, tag := range TagOptions {
			mark := " "
			if slices.Contains(form.Tags, tag) {
				mark = "x"
			}
			fmt.Fprintf(&b, "    [%s] %s\n", mark, tag)
		}
		b.WriteString("\nHave an account? Switch to login.\n")
	}
	if busy {
		b.WriteString("Please wait...\n")
	}
	if errMsg != "" {
		fmt.Fprintf(&b, "Error: %s\n", errMsg)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func joinProfileTypes() string {
	names := make([]string, len(models.ProfileTypes))
	for i, p := range models.ProfileTypes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
