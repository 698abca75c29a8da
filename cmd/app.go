package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"itledger/internal/config"
	"itledger/internal/extract"
	"itledger/internal/ledger"
	"itledger/internal/logger"
	"itledger/internal/ocr"
	"itledger/internal/store"
)

// app is the state a command runs against. It is opened once per process by
// authenticate and travels in the command context.
type app struct {
	cfg    *config.Config
	kv     *store.SQLite
	ledger *ledger.Ledger
	in     *bufio.Reader
	// ttyFD is the stdin descriptor when it is a terminal, otherwise -1.
	ttyFD  int

	extractor extract.TextExtractor
	now       func() time.Time
}

type appKey struct{}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, in: bufio.NewReader(os.Stdin), ttyFD: -1, now: time.Now}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		a.ttyFD = fd
	}
	return a
}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

func (a *app) open(ctx context.Context) error {
	if a.ledger != nil {
		return nil
	}
	kv, err := store.Open(a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	a.kv = kv
	a.ledger = ledger.Open(ctx, kv, ledger.WithDefaultPassword(a.cfg.DefaultPassword))
	return nil
}

func (a *app) close() error {
	if closer, ok := a.extractor.(io.Closer); ok {
		_ = closer.Close()
	}
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}

// textExtractor returns the configured receipt reader, created on first use.
func (a *app) textExtractor() extract.TextExtractor {
	if a.extractor == nil {
		if a.cfg.Extractor == config.ExtractorVision {
			a.extractor = ocr.NewVisionExtractor(ocr.Credentials{
				JSON: a.cfg.GoogleCredentials,
				File: a.cfg.GoogleCredentialsFile,
			})
		} else {
			a.extractor = extract.NewPDFExtractor()
		}
	}
	return a.extractor
}

// prompt writes question to stderr and reads one line from stdin.
func (a *app) prompt(cmd *cobra.Command, question string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), question)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret is prompt with terminal echo off. Input that is not a terminal
// is read as a plain line.
func (a *app) promptSecret(cmd *cobra.Command, question string) (string, error) {
	if a.ttyFD < 0 {
		return a.prompt(cmd, question)
	}
	fmt.Fprint(cmd.ErrOrStderr(), question)
	secret, err := term.ReadPassword(a.ttyFD)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

func authenticate(cmd *cobra.Command, args []string) error {
	if !needsAuth(cmd) {
		return nil
	}
	log := logger.WithComponent("auth")

	a := appFrom(cmd)
	if a == nil {
		return errors.New("command context is not initialized")
	}
	if err := a.open(cmd.Context()); err != nil {
		return err
	}

	pass, _ := cmd.Flags().GetString("password")
	if pass == "" {
		pass = os.Getenv("ITLEDGER_PASSWORD")
	}
	if pass == "" {
		var err error
		if pass, err = a.promptSecret(cmd, "Clave de acceso: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	if !a.ledger.Login(cmd.Context(), pass) {
		log.Warn().Str("command", cmd.CommandPath()).Msg("Access denied")
		return errors.New("clave incorrecta")
	}
	log.Debug().Str("command", cmd.CommandPath()).Msg("Access granted")
	return nil
}

// needsAuth is false for the root command and cobra's help and completion commands.
func needsAuth(cmd *cobra.Command) bool {
	if cmd.Annotations[skipAuth] == "true" {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}
