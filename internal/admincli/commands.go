package admincli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

var errBackupsDisabled = errors.New("backups are not configured, set USERS_S3_BUCKET")

type command struct {
	help string
	run  func(a *App, ctx context.Context, args []string) error
}

// commands is filled in init because help refers back to it.
var commands map[string]command

func init() {
	commands = map[string]command{
		"add-user":    {help: "add-user -name <name> -email <email> [-password <pw>]", run: (*App).addUser},
		"list-users":  {help: "list-users [-json]", run: (*App).listUsers},
		"remove-user": {help: "remove-user <id>", run: (*App).removeUser},
		"backup":      {help: "upload a JSON snapshot to S3", run: (*App).backup},
		"help":        {help: "show this message", run: (*App).help},
	}
}

var commandOrder = []string{"add-user", "list-users", "remove-user", "backup", "help"}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (a *App) addUser(ctx context.Context, args []string) error {
	fs := a.newFlagSet("add-user")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password, prompted for when omitted")
	noPassword := fs.Bool("no-password", false, "do not prompt for a password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	in := &models.UserInput{Name: name, Email: email}
	switch {
	case *password != "":
		in.Password = password
	case !*noPassword:
		pw, err := a.promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pw != "" {
			in.Password = &pw
		}
	}

	u, err := a.users.CreateUser(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %s <%s> with id %s\n", u.Name, u.Email, u.ID)
	return nil
}

func (a *App) listUsers(ctx context.Context, args []string) error {
	fs := a.newFlagSet("list-users")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	users, err := a.users.GetAllUsers(ctx)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}
	return writeTable(a.out, users)
}

func writeTable(w io.Writer, users []models.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED\tUPDATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt, u.UpdatedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d user(s)\n", len(users))
	return err
}

func (a *App) removeUser(ctx context.Context, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: remove-user <id>", ErrUsage)
	}

	u, err := a.users.DeleteUserByID(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed user %s <%s>\n", u.ID, u.Email)
	return nil
}

func (a *App) backup(ctx context.Context, _ []string) error {
	if a.backups == nil {
		return errBackupsDisabled
	}

	res, err := a.backups.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "uploaded %d user(s) to s3://%s/%s\n", res.Count, res.Bucket, res.Key)
	if res.DownloadURL != "" {
		fmt.Fprintf(a.out, "download: %s\n", res.DownloadURL)
	}
	return nil
}

func (a *App) help(context.Context, []string) error {
	a.usage()
	return nil
}
