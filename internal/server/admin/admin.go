// Package admin implements the operator command line: creating and
// removing accounts and pulling task exports without going through the
// public API.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/filex"
	"github.com/dmitrijs2005/todokeeper/internal/netx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

type Accounts interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	DeleteAccount(ctx context.Context, username string) (int64, error)
}

type Exporter interface {
	Export(ctx context.Context, username, format string) (*services.ExportResult, error)
}

// PasswordReader prompts for a secret without echoing it.
type PasswordReader func(prompt string) (string, error)

var ErrUsage = errors.New("usage: accounts <register|delete|export> -u USERNAME [-f json|csv] [-o DIR]")

type Tool struct {
	accounts     Accounts
	exporter     Exporter
	readPassword PasswordReader
	download     func(ctx context.Context, url, path string) (int64, error)
	out          io.Writer
}

// NewTool builds the command runner. exporter may be nil when object
// storage is not configured.
func NewTool(accounts Accounts, exporter Exporter, readPassword PasswordReader, out io.Writer) *Tool {
	return &Tool{
		accounts:     accounts,
		exporter:     exporter,
		readPassword: readPassword,
		download:     netx.DownloadPresignedURL,
		out:          out,
	}
}

// Run executes one subcommand. args excludes the program name.
func (t *Tool) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("u", "", "account username")
	format := fs.String("f", "json", "export format (json or csv)")
	outDir := fs.String("o", ".", "directory for downloaded exports")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if strings.TrimSpace(*username) == "" {
		return ErrUsage
	}

	switch args[0] {
	case "register":
		return t.register(ctx, *username)
	case "delete":
		return t.delete(ctx, *username)
	case "export":
		return t.export(ctx, *username, *format, *outDir)
	}
	return ErrUsage
}

func (t *Tool) register(ctx context.Context, username string) error {
	password, err := t.readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := t.readPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	acc, err := t.accounts.Register(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "account %s registered (id %s)\n", acc.Username, acc.ID)
	return nil
}

func (t *Tool) delete(ctx context.Context, username string) error {
	removed, err := t.accounts.DeleteAccount(ctx, username)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "account %s deleted, %d task(s) removed\n", username, removed)
	return nil
}

func (t *Tool) export(ctx context.Context, username, format, outDir string) error {
	if t.exporter == nil {
		return errors.New("export requires object storage to be configured")
	}

	res, err := t.exporter.Export(ctx, username, format)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureDir(outDir)
	if err != nil {
		return err
	}

	dst := filepath.Join(dir, path.Base(res.Key))
	n, err := t.download(ctx, res.URL, dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "exported %d task(s) to %s (%d bytes)\n", res.Tasks, dst, n)
	return nil
}
