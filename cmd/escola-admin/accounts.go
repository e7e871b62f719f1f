package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/escolafut/escola-api/internal/data"
	"github.com/escolafut/escola-api/internal/data/cryptoutil"
	"github.com/escolafut/escola-api/internal/domain/model"
)

const defaultSweepBatchSize = 500

var (
	errEmptySecret = errors.New("secret read from stdin is empty")

	requestValidator = validator.New(validator.WithRequiredStructEnabled())
)

type accountOptions struct {
	Name     string
	Email    string
	BranchID string
}

type linkOptions struct {
	GuardianID string
	StudentID  string
}

type adminActiveOptions struct {
	Email  string
	Active bool
}

// readSecret reads the first line of r. Secrets never travel as flags so they
// stay out of shell history and process listings.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errEmptySecret
	}
	return secret, nil
}

func hashSecret(r io.Reader) (string, error) {
	secret, err := readSecret(r)
	if err != nil {
		return "", err
	}
	return cryptoutil.NewPasswordHasher(cryptoutil.Argon2Params{}).Hash(secret)
}

func validateRequest(req any) error {
	if err := requestValidator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q", strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	return nil
}

func runHashPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	hash, err := hashSecret(cmdCtx.Stdin)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Stdout, "%s\n", hash)
}

func parseAccountFlags(name string, args []string, withBranch bool) (accountOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts accountOptions
	fs.StringVar(&opts.Name, "name", "", "Display name")
	fs.StringVar(&opts.Email, "email", "", "Login email")
	if withBranch {
		fs.StringVar(&opts.BranchID, "branch", "", "Branch ID the manager belongs to")
	}

	if err := fs.Parse(args); err != nil {
		return accountOptions{}, err
	}
	if strings.TrimSpace(opts.Email) == "" {
		return accountOptions{}, errors.New("--email is required")
	}
	if withBranch && strings.TrimSpace(opts.BranchID) == "" {
		return accountOptions{}, errors.New("--branch is required")
	}
	return opts, nil
}

func runCreateAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseAccountFlags("create-admin", args, false)
	if err != nil {
		return err
	}
	hash, err := hashSecret(cmdCtx.Stdin)
	if err != nil {
		return err
	}
	req := model.CreateAdminRequest{Name: opts.Name, Email: opts.Email, PasswordHash: hash}
	if err = validateRequest(req); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		acct, cerr := data.NewAdminRepo(db).CreateAdmin(ctx, req)
		if cerr != nil {
			return cerr
		}
		cmdCtx.Logger.Info("admin created", "admin_id", acct.ID, "email", acct.Email)
		return writef(cmdCtx.Stdout, "%s\n", acct.ID)
	})
}

func runCreateManager(cmdCtx *commandContext, args []string) error {
	opts, err := parseAccountFlags("create-manager", args, true)
	if err != nil {
		return err
	}
	hash, err := hashSecret(cmdCtx.Stdin)
	if err != nil {
		return err
	}
	req := model.CreateManagerRequest{
		Name:         opts.Name,
		Email:        opts.Email,
		BranchID:     opts.BranchID,
		PasswordHash: hash,
	}
	if err = validateRequest(req); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		acct, cerr := data.NewManagerRepo(db).CreateManager(ctx, req)
		if cerr != nil {
			return cerr
		}
		cmdCtx.Logger.Info("manager created", "manager_id", acct.ID, "branch_id", acct.BranchID)
		return writef(cmdCtx.Stdout, "%s\n", acct.ID)
	})
}

func runCreateGuardian(cmdCtx *commandContext, args []string) error {
	opts, err := parseAccountFlags("create-guardian", args, false)
	if err != nil {
		return err
	}
	hash, err := hashSecret(cmdCtx.Stdin)
	if err != nil {
		return err
	}
	req := model.CreateGuardianRequest{Name: opts.Name, Email: opts.Email, PasswordHash: hash}
	if err = validateRequest(req); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		acct, cerr := data.NewGuardianRepo(db).CreateGuardian(ctx, req)
		if cerr != nil {
			return cerr
		}
		cmdCtx.Logger.Info("guardian created", "guardian_id", acct.ID)
		return writef(cmdCtx.Stdout, "%s\n", acct.ID)
	})
}

func parseLinkFlags(args []string) (linkOptions, error) {
	fs := flag.NewFlagSet("link-student", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts linkOptions
	fs.StringVar(&opts.GuardianID, "guardian", "", "Guardian ID")
	fs.StringVar(&opts.StudentID, "student", "", "Student ID")

	if err := fs.Parse(args); err != nil {
		return linkOptions{}, err
	}
	if opts.GuardianID == "" || opts.StudentID == "" {
		return linkOptions{}, errors.New("--guardian and --student are required")
	}
	if err := requestValidator.Var(opts.GuardianID, "uuid"); err != nil {
		return linkOptions{}, errors.New("--guardian must be a UUID")
	}
	if err := requestValidator.Var(opts.StudentID, "uuid"); err != nil {
		return linkOptions{}, errors.New("--student must be a UUID")
	}
	return opts, nil
}

func runLinkStudent(cmdCtx *commandContext, args []string) error {
	opts, err := parseLinkFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		if lerr := data.NewGuardianRepo(db).LinkStudent(ctx, opts.GuardianID, opts.StudentID); lerr != nil {
			return lerr
		}
		cmdCtx.Logger.Info("student linked", "guardian_id", opts.GuardianID, "student_id", opts.StudentID)
		return nil
	})
}

func parseAdminActiveFlags(args []string) (adminActiveOptions, error) {
	fs := flag.NewFlagSet("set-admin-active", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := adminActiveOptions{Active: true}
	fs.StringVar(&opts.Email, "email", "", "Administrator email")
	fs.BoolVar(&opts.Active, "active", true, "Whether the administrator may log in")

	if err := fs.Parse(args); err != nil {
		return adminActiveOptions{}, err
	}
	if strings.TrimSpace(opts.Email) == "" {
		return adminActiveOptions{}, errors.New("--email is required")
	}
	return opts, nil
}

func runSetAdminActive(cmdCtx *commandContext, args []string) error {
	opts, err := parseAdminActiveFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		if serr := data.NewAdminRepo(db).SetAdminActive(ctx, opts.Email, opts.Active); serr != nil {
			return serr
		}
		cmdCtx.Logger.Info("admin updated", "email", data.NormalizeEmail(opts.Email), "active", opts.Active)
		return nil
	})
}

func parseSweepFlags(args []string) (int, error) {
	fs := flag.NewFlagSet("sweep-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	batch := fs.Int("batch", defaultSweepBatchSize, "Maximum rows deleted per statement")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if *batch <= 0 {
		return 0, errors.New("--batch must be greater than zero")
	}
	return *batch, nil
}

func runSweepSessions(cmdCtx *commandContext, args []string) error {
	batch, err := parseSweepFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewSessionRepo(db)
		var total int64
		for {
			n, derr := repo.DeleteExpired(ctx, batch)
			if derr != nil {
				return derr
			}
			total += n
			if n < int64(batch) {
				break
			}
		}
		cmdCtx.Logger.Info("expired sessions deleted", "count", total)
		return writef(cmdCtx.Stdout, "deleted %d expired sessions\n", total)
	})
}
