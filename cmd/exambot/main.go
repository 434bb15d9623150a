// Command exambot drives the ExamBot backend from a terminal: generate a
// summary or question paper from image files, and show or edit ad slots.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"

	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/notify"
	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/internal/upload"
	"github.com/iconidentify/exambot/pkg/backend"
)

var Version = "dev"

const usage = `Usage:
  exambot [flags] generate summary|questions FILE...
  exambot [flags] ads show
  exambot [flags] ads set [-user NAME] SLOT FIELD VALUE [SLOT FIELD VALUE...]

SLOT is one of left1, left2, right1, right2, top, bottom.
FIELD is imageUrl or linkUrl.

Flags:
`

func main() {
	backendURL := flag.String("backend", "", "Backend URL (overrides BACKEND_URL)")
	envFile := flag.String("env", ".env", "Path to .env file (ignored if missing)")
	verbose := flag.Bool("v", false, "Log requests to stderr")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("exambot %s\n", Version)
		os.Exit(0)
	}

	cfg, err := loadBackendConfig(*envFile, *backendURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{
		client:       backend.NewClient(cfg),
		upload:       config.Default().Upload,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		logger:       logger,
		readPassword: promptPassword,
	}
	os.Exit(c.run(ctx, flag.Args()))
}

// loadBackendConfig starts from the server defaults and applies .env, the
// environment and then the -backend flag.
func loadBackendConfig(envFile, urlFlag string) (config.BackendConfig, error) {
	cfg := config.Default().Backend
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load env file: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment: %w", err)
	}
	if urlFlag != "" {
		cfg.URL = urlFlag
	}
	if cfg.URL == "" {
		return cfg, errors.New("backend URL is required (set BACKEND_URL or -backend)")
	}
	return cfg, nil
}

// cli holds the collaborators of one invocation.
type cli struct {
	client       backend.Client
	upload       config.UploadConfig
	stdout       io.Writer
	stderr       io.Writer
	logger       *slog.Logger
	readPassword func(prompt string) (string, error)
}

func (c *cli) deps() service.Deps {
	return service.Deps{
		Backend:  c.client,
		Sessions: repository.NewInMemorySessionRepository(),
		Encoder:  upload.NewEncoder(c.upload),
		Logger:   c.logger,
	}
}

// toasts prints page notifications to stderr.
func (c *cli) toasts() notify.Notifier {
	return notify.Func(func(n domain.Notification) {
		fmt.Fprintf(c.stderr, "%s: %s\n", n.Level, n.Message)
	})
}

func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) < 2 {
		fmt.Fprint(c.stderr, usage)
		return 2
	}

	switch {
	case args[0] == "generate":
		return c.generate(ctx, args[1], args[2:])
	case args[0] == "ads" && args[1] == "show":
		return c.showAds(ctx)
	case args[0] == "ads" && args[1] == "set":
		return c.setAds(ctx, args[2:])
	}

	fmt.Fprint(c.stderr, usage)
	return 2
}

func (c *cli) generate(ctx context.Context, kindArg string, paths []string) int {
	kind, err := domain.ParseGenerationKind(kindArg)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 2
	}

	page := service.NewHomePage(c.deps(), c.toasts())
	defer page.Close()

	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		p := p
		files = append(files, upload.File{
			Name: filepath.Base(p),
			Open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
	}
	page.HandleImageUpload(ctx, files)

	if !page.Generate(ctx, kind) {
		return 1
	}
	fmt.Fprintln(c.stdout, page.State().Result)
	return 0
}

func (c *cli) showAds(ctx context.Context) int {
	ads, err := c.client.FetchAds(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	for _, key := range domain.SlotKeys {
		slot := ads.Slot(key)
		fmt.Fprintf(c.stdout, "%-16s image=%s link=%s\n", key.Label(), orDash(slot.ImageURL), orDash(slot.LinkURL))
	}
	return 0
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (c *cli) setAds(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("ads set", flag.ContinueOnError)
	flags.SetOutput(c.stderr)
	user := flags.String("user", os.Getenv("EXAMBOT_ADMIN_USER"), "Admin username")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	rest := flags.Args()
	if len(rest) == 0 || len(rest)%3 != 0 {
		fmt.Fprintln(c.stderr, "Error: expected SLOT FIELD VALUE triples")
		return 2
	}

	type edit struct {
		key   domain.SlotKey
		field domain.AdField
		value string
	}
	edits := make([]edit, 0, len(rest)/3)
	for i := 0; i < len(rest); i += 3 {
		key, err := domain.ParseSlotKey(rest[i])
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 2
		}
		edits = append(edits, edit{key: key, field: domain.AdField(rest[i+1]), value: rest[i+2]})
	}

	if *user == "" {
		fmt.Fprintln(c.stderr, "Error: -user is required")
		return 2
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		fmt.Fprintf(c.stderr, "Error reading password: %v\n", err)
		return 1
	}

	page := service.NewAdminPage(c.deps(), c.toasts())
	if !page.Login(ctx, *user, password) {
		return 1
	}
	defer page.Logout(ctx)

	// Saving over unfetched placeholders would blank every other slot.
	if !page.AdsLoaded() {
		fmt.Fprintln(c.stderr, "Error: current ads could not be loaded; nothing was saved")
		return 1
	}

	for _, e := range edits {
		if err := page.UpdateField(e.key, e.field, e.value); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 2
		}
	}
	if !page.SaveAll(ctx) {
		return 1
	}
	return 0
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(os.Stderr)
		return string(password), nil
	}

	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(password), nil
}
