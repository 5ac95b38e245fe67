package handlers_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudshare/api"
	"cloudshare/handlers"
	"cloudshare/internal/fakebackend"
	"cloudshare/services/cloudshare"
	"cloudshare/services/sessions"
)

const (
	testEmail    = "ann@example.com"
	testPassword = "s3cret"
)

type cliEnv struct {
	backend *fakebackend.Server
	url     string
	dir     string
	fs      afero.Fs
	flags   []string
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	backend := fakebackend.New()
	backend.AddUser("Ann", testEmail, testPassword, 3)
	srv := backend.Start(t)

	return &cliEnv{
		backend: backend,
		url:     srv.URL,
		dir:     t.TempDir(),
		fs:      afero.NewMemMapFs(),
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := handlers.NewCLI(handlers.Options{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		Fs:     e.fs,
	})

	argv := append([]string{"cloudshare", "--config-dir", e.dir, "--base-url", e.url}, e.flags...)
	err := app.Run(append(argv, args...))
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	res := e.run(t, testPassword+"\n", "auth", "login", "--email", testEmail)
	require.NoError(t, res.err, res.stderr)
}

func (e *cliEnv) storedToken(t *testing.T) string {
	t.Helper()
	jar, err := sessions.NewFileJar(e.fs, e.dir)
	require.NoError(t, err)
	token, _, err := jar.Get(sessions.TokenEntry)
	require.NoError(t, err)
	return token
}

func TestCLI_LoginPersistsAcrossInvocations(t *testing.T) {
	e := setupCLI(t)

	res := e.run(t, testPassword+"\n", "auth", "login", "--email", testEmail)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "✓ Logged in as Ann")
	assert.True(t, e.backend.TokenValid(e.storedToken(t)))

	res = e.run(t, "", "auth", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Logged in")

	res = e.run(t, "", "auth", "whoami", "--verify")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Logged in as Ann <ann@example.com>")

	res = e.run(t, "", "auth", "logout")
	require.NoError(t, res.err)
	assert.Empty(t, e.storedToken(t))

	res = e.run(t, "", "auth", "logout")
	require.NoError(t, res.err, "logout is idempotent")

	res = e.run(t, "", "auth", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Not logged in")
}

func TestCLI_LoginInvalidCredential(t *testing.T) {
	e := setupCLI(t)

	res := e.run(t, "", "auth", "login", "--email", testEmail, "--password", "nope")
	require.Error(t, res.err)
	assert.True(t, handlers.Reported(res.err))
	assert.Equal(t, 1, strings.Count(res.stderr, "✗ "), res.stderr)
	assert.Contains(t, res.stderr, "✗ invalid credential")
	assert.Empty(t, e.storedToken(t))
}

func TestCLI_RegisterWithGeneratedPassword(t *testing.T) {
	e := setupCLI(t)

	res := e.run(t, "", "auth", "register", "--name", "Bob", "--email", "bob@example.com", "--generate-password")
	require.NoError(t, res.err, res.stderr)

	_, generated, found := strings.Cut(res.stdout, "Generated password: ")
	require.True(t, found, res.stdout)
	generated = strings.TrimSpace(generated)
	assert.Len(t, generated, 16)

	token := e.backend.VerificationToken("bob@example.com")
	require.NotEmpty(t, token)
	res = e.run(t, "", "auth", "verify-email", token)
	require.NoError(t, res.err, res.stderr)

	res = e.run(t, "", "auth", "login", "--email", "bob@example.com", "--password="+generated)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "✓ Logged in as Bob")
}

func TestCLI_ProtectedCommandsRequireLogin(t *testing.T) {
	e := setupCLI(t)

	for _, args := range [][]string{
		{"files", "list"},
		{"files", "upload", "/x"},
		{"credits", "balance"},
		{"credits", "transactions"},
	} {
		res := e.run(t, "", args...)
		assert.ErrorIs(t, res.err, handlers.ErrNotLoggedIn, "%v", args)
	}
	assert.Empty(t, e.backend.Requests())
}

func TestCLI_SessionExpiredMidSession(t *testing.T) {
	e := setupCLI(t)
	e.login(t)
	e.backend.RevokeToken(e.storedToken(t))

	res := e.run(t, "", "files", "list")
	require.Error(t, res.err)
	assert.True(t, handlers.Reported(res.err))
	assert.ErrorIs(t, res.err, api.ErrUnauthorized)
	assert.Contains(t, res.stderr, "✗ Session expired. Please login again.")
	assert.Contains(t, res.stderr, "cloudshare auth login")
	assert.Empty(t, e.storedToken(t))

	res = e.run(t, "", "auth", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Not logged in")
}

func TestCLI_VerifyOnStartDropsRejectedToken(t *testing.T) {
	e := setupCLI(t)
	e.login(t)
	e.backend.RevokeToken(e.storedToken(t))
	t.Setenv("CLOUDSHARE_VERIFY_ON_START", "true")

	res := e.run(t, "", "auth", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Not logged in")
	assert.NotContains(t, res.stderr, "✗", "startup verification shows no notice")
}

func TestCLI_UploadAndList(t *testing.T) {
	e := setupCLI(t)
	e.login(t)
	require.NoError(t, afero.WriteFile(e.fs, "/work/notes.txt", []byte("hello world"), 0o644))
	require.NoError(t, afero.WriteFile(e.fs, "/work/todo.txt", []byte("- ship it"), 0o644))

	res := e.run(t, "", "files", "upload", "/work/notes.txt", "/work/todo.txt")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Successfully uploaded 2 file(s)!")
	assert.Contains(t, res.stdout, "notes.txt")
	assert.Contains(t, res.stdout, "Remaining credits: 1")

	res = e.run(t, "", "files", "list", "--search", "NOTES")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "notes.txt")
	assert.NotContains(t, res.stdout, "todo.txt")
	assert.Contains(t, res.stdout, "11 Bytes")

	res = e.run(t, "", "files", "list", "--filter", "public")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No files match your search")
}

func TestCLI_UploadInsufficientCreditsShowsOneNotice(t *testing.T) {
	e := setupCLI(t)
	e.login(t)
	e.backend.SetCredits(testEmail, 0)
	require.NoError(t, afero.WriteFile(e.fs, "/work/a.txt", []byte("a"), 0o644))

	res := e.run(t, "", "files", "upload", "/work/a.txt")
	require.Error(t, res.err)
	assert.True(t, handlers.Reported(res.err))
	assert.True(t, errors.Is(res.err, cloudshare.ErrInsufficientCredits))
	assert.Equal(t, 1, strings.Count(res.stderr, "✗ "), res.stderr)
	assert.Contains(t, res.stderr, "Insufficient credits. Please buy more credits to upload files.")
}

func TestCLI_ToggleAndDeleteMany(t *testing.T) {
	e := setupCLI(t)
	e.login(t)
	a := e.backend.AddFile(testEmail, "a.txt", []byte("a"), false)
	b := e.backend.AddFile(testEmail, "b.txt", []byte("b"), false)
	foreign := e.backend.AddFile("someone@example.com", "c.txt", []byte("c"), false)

	res := e.run(t, "", "files", "toggle", a, b)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, 2, strings.Count(res.stderr, "File visibility updated!"))
	assert.Contains(t, res.stdout, "/file/"+a)
	for _, id := range []string{a, b} {
		rec, ok := e.backend.File(id)
		require.True(t, ok)
		assert.True(t, rec.IsPublic)
	}

	res = e.run(t, "", "files", "delete", a, foreign, b)
	require.Error(t, res.err, "deleting a foreign file fails")
	assert.Equal(t, 2, strings.Count(res.stderr, "File deleted successfully!"))
	assert.Contains(t, res.stderr, "✗ Access denied")
	_, ok := e.backend.File(a)
	assert.False(t, ok)
	_, ok = e.backend.File(foreign)
	assert.True(t, ok)
}

func TestCLI_DownloadPublicFile(t *testing.T) {
	e := setupCLI(t)
	id := e.backend.AddFile(testEmail, "report.pdf", []byte("%PDF-1.4\n%fake"), true)
	require.NoError(t, e.fs.MkdirAll("/downloads", 0o755))

	res := e.run(t, "", "files", "public", id)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "report.pdf")
	assert.Contains(t, res.stdout, "/files/download/"+id)

	res = e.run(t, "", "files", "download", "--output", "/downloads", id)
	require.NoError(t, res.err, res.stderr)
	data, err := afero.ReadFile(e.fs, "/downloads/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n%fake", string(data))
}

func TestCLI_PurchaseCredits(t *testing.T) {
	e := setupCLI(t)
	e.login(t)

	res := e.run(t, "", "credits", "plans")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "premium")

	res = e.run(t, "", "credits", "buy", "basic")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "99 INR")

	orderID := orderFromOutput(t, res.stdout)

	res = e.run(t, "", "credits", "verify",
		"--order", orderID,
		"--payment", "pay_9",
		"--signature", fakebackend.SignPayment(orderID, "pay_9"),
		"--plan", "basic")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Successfully purchased 10 credits!")

	res = e.run(t, "", "credits", "balance")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Remaining credits: 13")

	res = e.run(t, "", "credits", "transactions")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, orderID)
}

func orderFromOutput(t *testing.T, stdout string) string {
	t.Helper()
	for _, field := range strings.Fields(stdout) {
		if strings.HasPrefix(field, "order_") {
			return field
		}
	}
	t.Fatalf("no order id in %q", stdout)
	return ""
}

func TestCLI_ChangePasswordValidation(t *testing.T) {
	e := setupCLI(t)
	e.login(t)

	res := e.run(t, "", "auth", "change-password", "--current", testPassword, "--new", "abc")
	assert.ErrorIs(t, res.err, handlers.ErrPasswordTooShort)

	res = e.run(t, "", "auth", "change-password", "--current", testPassword, "--new", testPassword)
	assert.ErrorIs(t, res.err, handlers.ErrPasswordUnchanged)

	res = e.run(t, "new-password\nother-password\n", "auth", "change-password", "--current", testPassword)
	assert.ErrorIs(t, res.err, handlers.ErrPasswordMismatch)

	res = e.run(t, "new-password\nnew-password\n", "auth", "change-password", "--current", testPassword)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Password changed successfully!")
}

func TestCLI_SQLiteSessionBackend(t *testing.T) {
	e := setupCLI(t)
	e.flags = []string{"--session-backend", "sqlite"}

	e.login(t)
	res := e.run(t, "", "files", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "No files uploaded yet")
	assert.Empty(t, e.storedToken(t), "the file jar is not used")
}

func TestCLI_Version(t *testing.T) {
	e := setupCLI(t)
	res := e.run(t, "", "version")
	require.NoError(t, res.err)
	assert.NotEmpty(t, strings.TrimSpace(res.stdout))
}
