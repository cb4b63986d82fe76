// Package admincli implements usersctl, a maintenance tool that works on the
// same storage as the server without going through HTTP.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/backup"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userkeeper/internal/server/services"
	"github.com/dmitrijs2005/userkeeper/internal/timex"
)

// ErrUsage marks bad command lines; main exits with status 2 for it.
var ErrUsage = errors.New("usage error")

// UserService is the part of services.UserService the commands call.
type UserService interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in *models.UserInput) (models.User, error)
	DeleteUserByID(ctx context.Context, id string) (models.User, error)
}

// Snapshotter takes a backup. nil means backups are not configured.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*backup.Result, error)
}

type App struct {
	users      UserService
	backups    Snapshotter
	in         *bufio.Reader
	out        io.Writer
	stdinIsTTY bool
}

func New(us UserService, bs Snapshotter, in io.Reader, out io.Writer) *App {
	return &App{users: us, backups: bs, in: bufio.NewReader(in), out: out}
}

// Open builds an App over the storage selected by cfg. The returned close
// function releases the storage.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, func() error, error) {
	stamper, err := timex.NewStamper(cfg.TimestampLayout, cfg.TimeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("timestamp config: %w", err)
	}

	rm, err := repomanager.New(ctx, cfg, stamper, log)
	if err != nil {
		return nil, nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, nil, err
	}

	bs, err := backup.FromConfig(ctx, cfg, rm.Users(), log)
	if err != nil {
		_ = rm.Close()
		return nil, nil, err
	}

	var snap Snapshotter
	if bs != nil {
		snap = bs
	}

	app := New(services.NewUserService(rm.Users(), cfg, log), snap, in, out)
	app.stdinIsTTY = true
	return app, rm.Close, nil
}

// SplitArgs separates global flags from the command and its arguments:
// "usersctl -f data.json list-users -json" gives ["-f", "data.json"] and
// ["list-users", "-json"].
func SplitArgs(args []string) (global, command []string) {
	for i, a := range args {
		if _, ok := commands[a]; ok {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
	return cmd.run(a, ctx, rest)
}

func (a *App) usage() {
	var b strings.Builder
	b.WriteString("usage: usersctl [global flags] <command> [args]\n\ncommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(&b, "  %-12s %s\n", name, commands[name].help)
	}
	b.WriteString("\nglobal flags are the server flags, e.g. -f <data file>, -d <dsn>, -c <config.json>\n")
	fmt.Fprint(a.out, b.String())
}
