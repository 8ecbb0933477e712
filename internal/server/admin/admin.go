// Package admin implements the operator commands of cmd/admin: applying
// migrations, creating accounts and listing categories.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/recipehub/recipehub/internal/common"
	"github.com/recipehub/recipehub/internal/server/auth"
	"github.com/recipehub/recipehub/internal/server/models"
	"github.com/recipehub/recipehub/internal/server/services"
	"golang.org/x/term"
)

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("usage: admin [config flags] <migrate|create-user|categories> [command flags]")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type Registrar interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
}

type CategoryLister interface {
	Categories(ctx context.Context) ([]models.Category, error)
}

// Tool runs one admin command against the wired services.
type Tool struct {
	migrate    func(ctx context.Context) (int64, error)
	users      Registrar
	categories CategoryLister
	out        io.Writer
}

func NewTool(migrate func(ctx context.Context) (int64, error), users Registrar, categories CategoryLister, out io.Writer) *Tool {
	return &Tool{migrate: migrate, users: users, categories: categories, out: out}
}

// Commands lists the recognised command names.
func Commands() []string {
	return []string{"migrate", "create-user", "categories"}
}

// SplitCommand finds the command in args and returns it with the arguments
// that follow it. Anything before the command belongs to the config flags.
func SplitCommand(args []string) (string, []string, error) {
	for i, a := range args {
		for _, c := range Commands() {
			if a == c {
				return c, args[i+1:], nil
			}
		}
	}
	return "", nil, ErrUsage
}

func (t *Tool) Run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "migrate":
		return t.runMigrate(ctx)
	case "create-user":
		return t.runCreateUser(ctx, args)
	case "categories":
		return t.runCategories(ctx)
	default:
		return ErrUsage
	}
}

func (t *Tool) runMigrate(ctx context.Context) error {
	v, err := t.migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(t.out, "migrations applied, schema version %d\n", v)
	return nil
}

func (t *Tool) runCreateUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(t.out)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return errors.New("create-user: -email and -name are required")
	}

	pw, err := t.getPassword()
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}
	defer common.WipeByteArray(pw)

	if err := auth.ValidatePassword(string(pw)); err != nil {
		return fmt.Errorf("create-user: %w", err)
	}

	res, err := t.users.Register(ctx, services.RegisterInput{
		Email:    strings.TrimSpace(*email),
		Password: string(pw),
		Name:     strings.TrimSpace(*name),
	})
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}

	fmt.Fprintf(t.out, "created user %s (%s)\n", res.User.ID, res.User.Email)
	return nil
}

func (t *Tool) runCategories(ctx context.Context) error {
	list, err := t.categories.Categories(ctx)
	if err != nil {
		return fmt.Errorf("categories: %w", err)
	}

	tw := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tID")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Slug, c.Name, c.ID)
	}
	return tw.Flush()
}

// getPassword reads the password twice without echo.
func (t *Tool) getPassword() ([]byte, error) {
	fmt.Fprint(t.out, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(t.out, "Repeat password: ")
	again, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		common.WipeByteArray(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}
