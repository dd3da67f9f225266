// Command authctl is the operator tool for the auth service database. It
// reads the same environment as the service.
//
//	authctl useradd -email alice@example.com -username alice [-password ...]
//	authctl unlock -email alice@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aussiebroadwan/synapse/internal/auth/app"
	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/httpx"
)

const usage = `usage: authctl <command> [flags]

commands:
  useradd   create an account (prints a generated password when -password is omitted)
  unlock    clear a lockout and reset the failed-login counter
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "authctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	switch args[0] {
	case "useradd":
		return userAdd(ctx, cfg, args[1:], out)
	case "unlock":
		return unlock(ctx, cfg, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func userAdd(ctx context.Context, cfg app.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "account email (required)")
	username := fs.String("username", "", "display name (required)")
	password := fs.String("password", "", "initial password (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	generated := *password == ""
	if generated {
		p, err := cryptox.GeneratePassword()
		if err != nil {
			return err
		}
		*password = p
	}

	in := userAddInput{Email: *email, Username: *username, Password: *password}
	if details := httpx.ValidateStruct(in); details != nil {
		return fmt.Errorf("useradd: invalid input: %v", details)
	}

	users, closeStore, err := openUserService(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	u, err := users.CreateUser(ctx, *email, *username, *password)
	if err != nil {
		return fmt.Errorf("useradd: %w", err)
	}

	fmt.Fprintf(out, "created user %s (%s)\n", u.ID, u.Email)
	if generated {
		fmt.Fprintf(out, "password: %s\n", *password)
	}
	return nil
}

type userAddInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

func unlock(ctx context.Context, cfg app.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("unlock", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("unlock: -email is required")
	}

	users, closeStore, err := openUserService(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	u, err := users.Unlock(ctx, *email)
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	fmt.Fprintf(out, "unlocked user %s (%s)\n", u.ID, u.Email)
	return nil
}

func openUserService(cfg app.Config) (*service.UserService, func(), error) {
	cryptox.SetPepperPath(cfg.PepperFile)

	db, err := sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return &service.UserService{Store: db}, func() { _ = db.Close() }, nil
}
