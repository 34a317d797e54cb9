package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/molo/molo-go/internal/client"
	"github.com/molo/molo-go/internal/client/export"
	"github.com/molo/molo-go/internal/client/seal"
	"github.com/molo/molo-go/internal/model"
)

// userError carries a message that is already fit for the terminal.
type userError string

func (e userError) Error() string { return string(e) }

func friendly(err error, action string) error {
	if err == nil {
		return nil
	}
	return userError(client.Friendly(err, action))
}

func (a *app) cmdStatus(ctx context.Context, _ []string) error {
	initialized, err := a.client.CheckInitStatus(ctx)
	if err != nil {
		return friendly(err, "reach server")
	}
	fmt.Fprintf(a.out, "server:      %s\n", a.cfg.Server)
	fmt.Fprintf(a.out, "initialized: %t\n", initialized)

	exp, err := a.client.TokenExpiry(ctx)
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "session:     logged out")
	case err != nil:
		fmt.Fprintln(a.out, "session:     unreadable token")
	case time.Now().After(exp):
		fmt.Fprintln(a.out, "session:     expired")
	default:
		fmt.Fprintf(a.out, "session:     valid until %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}

func (a *app) cmdInit(ctx context.Context, _ []string) error {
	pw, err := a.promptSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := a.promptSecret("Repeat password")
	if err != nil {
		return err
	}
	if pw != confirm {
		return userError("Passwords do not match")
	}
	if err := a.client.Initialize(ctx, pw); err != nil {
		if errors.Is(err, client.ErrBadRequest) {
			return userError("Diary is already initialized or the password is empty")
		}
		return friendly(err, "initialize")
	}
	fmt.Fprintln(a.out, "Diary initialized. Run `molo login` to start writing.")
	return nil
}

func (a *app) cmdLogin(ctx context.Context, _ []string) error {
	pw, err := a.promptSecret("Password")
	if err != nil {
		return err
	}
	resp, err := a.client.Login(ctx, pw)
	if err != nil {
		return friendly(err, "login")
	}
	fmt.Fprintf(a.out, "Logged in for %s.\n", time.Duration(resp.ExpiresIn)*time.Second)
	return nil
}

func (a *app) cmdLogout(ctx context.Context, _ []string) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) cmdList(ctx context.Context, _ []string) error {
	entries, err := a.client.List(ctx)
	if err != nil {
		return friendly(err, "load entries")
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Title,
			time.UnixMilli(e.UpdatedAt).Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return userError("usage: molo show <id>")
	}
	entry, err := a.client.Get(ctx, args[0])
	if err != nil {
		return friendly(err, "load entry")
	}
	content, err := a.open(entry.Content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "# %s\n%s\n\n%s\n", entry.Title, entry.Date, content)
	return nil
}

type entryFlags struct {
	fs    *pflag.FlagSet
	id    *string
	title *string
	date  *string
	file  *string
}

func (a *app) newEntryFlags(name string, withID bool) *entryFlags {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	f := &entryFlags{fs: fs}
	if withID {
		f.id = fs.String("id", "", "entry id (generated when empty)")
	}
	f.title = fs.StringP("title", "t", "", "entry title")
	f.date = fs.StringP("date", "d", time.Now().Format(time.DateOnly), "logical date of the entry")
	f.file = fs.StringP("file", "f", "", "read content from file instead of stdin")
	return f
}

func (a *app) entryRequest(f *entryFlags) (model.EntryRequest, error) {
	if *f.title == "" {
		return model.EntryRequest{}, userError("--title is required")
	}
	// Ask for the passphrase before stdin is consumed by the body.
	if a.cfg.Seal.Enabled {
		if _, err := a.getSealer(); err != nil {
			return model.EntryRequest{}, err
		}
	}
	body, err := a.readBody(*f.file)
	if err != nil {
		return model.EntryRequest{}, err
	}
	if body == "" {
		return model.EntryRequest{}, userError("entry content is empty")
	}
	content, err := a.seal(body)
	if err != nil {
		return model.EntryRequest{}, err
	}
	req := model.EntryRequest{Title: *f.title, Content: content, Date: *f.date}
	if f.id != nil {
		req.ID = *f.id
	}
	return req, nil
}

func (a *app) cmdWrite(ctx context.Context, args []string) error {
	f := a.newEntryFlags("write", true)
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	req, err := a.entryRequest(f)
	if err != nil {
		return err
	}
	entry, err := a.client.Save(ctx, req)
	if err != nil {
		return friendly(err, "save")
	}
	fmt.Fprintf(a.out, "Saved %s\n", entry.ID)
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	f := a.newEntryFlags("edit", false)
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if f.fs.NArg() != 1 {
		return userError("usage: molo edit <id> --title TITLE [--date DATE] [--file FILE]")
	}
	req, err := a.entryRequest(f)
	if err != nil {
		return err
	}
	entry, err := a.client.Update(ctx, f.fs.Arg(0), req)
	if err != nil {
		return friendly(err, "save")
	}
	fmt.Fprintf(a.out, "Updated %s\n", entry.ID)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return userError("usage: molo delete <id>")
	}
	if err := a.client.Delete(ctx, args[0]); err != nil {
		return friendly(err, "delete")
	}
	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	out := fs.StringP("out", "o", "", "output file (stdout when empty)")
	title := fs.String("title", "Molo diary", "document title")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := a.client.List(ctx)
	if err != nil {
		return friendly(err, "load entries")
	}
	for i := range entries {
		if entries[i].Content, err = a.open(entries[i].Content); err != nil {
			return err
		}
	}

	if *out == "" {
		return export.HTML(a.out, *title, entries)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := export.HTML(f, *title, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "Exported %d entries to %s\n", len(entries), *out)
	return nil
}

func (a *app) seal(content string) (string, error) {
	if !a.cfg.Seal.Enabled {
		return content, nil
	}
	s, err := a.getSealer()
	if err != nil {
		return "", err
	}
	return s.Seal(content)
}

func (a *app) open(content string) (string, error) {
	if !seal.IsSealed(content) {
		return content, nil
	}
	s, err := a.getSealer()
	if err != nil {
		return "", err
	}
	plain, err := s.Open(content)
	if errors.Is(err, seal.ErrWrongPassphrase) {
		return "", userError("Wrong passphrase")
	}
	return plain, err
}

func (a *app) getSealer() (*seal.Sealer, error) {
	if a.sealer != nil {
		return a.sealer, nil
	}
	pass, err := a.promptSecret("Seal passphrase")
	if err != nil {
		return nil, err
	}
	s, err := seal.New(pass, a.cfg.Seal.WorkFactor)
	if err != nil {
		return nil, userError("Seal passphrase is required")
	}
	a.sealer = s
	return s, nil
}
