// Command jobtrack is a CLI client for the JobTrack service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/and161185/jobtrack/internal/client/api"
	"github.com/and161185/jobtrack/internal/client/session"
	"github.com/and161185/jobtrack/internal/client/state"
	"github.com/and161185/jobtrack/internal/config"
	"github.com/and161185/jobtrack/internal/convert"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const usageText = `jobtrack CLI
Usage:
  jobtrack [-addr URL] <cmd> [args]

Commands:
  version
  register  -name <full name> -email <email> -password <password>
  login     -email <email> -password <password>        (saves session)
  logout
  whoami
  list      [-q <search>] [-status All|Applied|Interview|Offer|Rejected]
  stats
  get       -id <uuid>
  add       -company <name> -role <role> [-date] [-status] [-url] [-notes]
  edit      -id <uuid> [-company] [-role] [-date] [-status] [-url] [-notes]
  rm        -id <uuid>
`

// cli holds the wired client stack for one invocation.
type cli struct {
	sess  *session.Store
	api   *api.Client
	state *state.State
	out   io.Writer
	errw  io.Writer
}

func newCLI(apiURL, sessionPath string, out, errw io.Writer) (*cli, error) {
	sess := session.New(sessionPath)
	if _, err := sess.Load(); err != nil {
		return nil, err
	}
	client := api.New(apiURL, sess)
	st := state.New(client)
	sess.OnAuthChange(func(s *session.Session) {
		if s == nil {
			st.Reset()
		}
	})
	return &cli{sess: sess, api: client, state: st, out: out, errw: errw}, nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, sessionPath string, out, errw io.Writer) int {
	cfg, rest, err := config.LoadClient(args)
	if err != nil {
		fmt.Fprintln(errw, err)
		return 2
	}
	if len(rest) < 1 {
		fmt.Fprint(errw, usageText)
		return 2
	}
	c, err := newCLI(cfg.APIURL, sessionPath, out, errw)
	if err != nil {
		fmt.Fprintln(errw, err)
		return 1
	}
	if err := c.dispatch(ctx, rest[0], rest[1:]); err != nil {
		return c.fail(err)
	}
	return 0
}

func (c *cli) fail(err error) int {
	var apiErr *api.APIError
	var connErr *api.ConnectionError
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(c.errw, usageText)
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, api.ErrNotSignedIn):
		fmt.Fprintln(c.errw, "not signed in; run: jobtrack login")
	case errors.As(err, &apiErr):
		fmt.Fprintf(c.errw, "error (%d): %s\n", apiErr.Status, apiErr.Message)
	case errors.As(err, &connErr):
		fmt.Fprintf(c.errw, "cannot reach server: %v\n", connErr.Err)
	default:
		fmt.Fprintln(c.errw, err)
	}
	return 1
}

var errUsage = errors.New("usage")

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Fprintf(c.out, "jobtrack %s (%s)\n", version, buildDate)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := c.api.Register(ctx, *name, *email, *password)
		if err != nil {
			return err
		}
		return c.signIn(res)

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := c.api.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		return c.signIn(res)

	case "logout":
		if err := c.sess.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "signed out")
		return nil

	case "whoami":
		cur := c.sess.Current()
		if cur == nil {
			return api.ErrNotSignedIn
		}
		fmt.Fprintf(c.out, "%s <%s> id=%s\n", cur.FullName, cur.Email, cur.ID)
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		q := fs.String("q", "", "search company, role and notes")
		status := fs.String("status", state.StatusAll, "status filter")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := c.state.Refresh(ctx); err != nil {
			return err
		}
		printTable(c.out, c.state.Filtered(*q, *status))
		return nil

	case "stats":
		if err := c.state.Refresh(ctx); err != nil {
			return err
		}
		printStats(c.out, c.state.Stats())
		return nil

	case "get":
		fs := flag.NewFlagSet("get", flag.ContinueOnError)
		id := fs.String("id", "", "application id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errUsage
		}
		a, err := c.api.Get(ctx, *id)
		if err != nil {
			return err
		}
		printJSON(c.out, convert.ToApplicationDTO(a))
		return nil

	case "add":
		f := newApplicationFlags("add")
		if err := f.fs.Parse(args); err != nil {
			return err
		}
		in, err := f.input()
		if err != nil {
			return err
		}
		a, err := c.state.Add(ctx, in)
		if err != nil && !errors.Is(err, state.ErrStale) {
			return err
		}
		fmt.Fprintln(c.out, a.ID)
		return nil

	case "edit":
		f := newApplicationFlags("edit")
		id := f.fs.String("id", "", "application id")
		if err := f.fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errUsage
		}
		in, err := f.input()
		if err != nil {
			return err
		}
		if err := requireAny(in); err != nil {
			return err
		}
		a, err := c.state.Update(ctx, *id, in)
		if err != nil && !errors.Is(err, state.ErrStale) {
			return err
		}
		printJSON(c.out, convert.ToApplicationDTO(a))
		return nil

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ContinueOnError)
		id := fs.String("id", "", "application id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errUsage
		}
		if err := c.state.Remove(ctx, *id); err != nil && !errors.Is(err, state.ErrStale) {
			return err
		}
		fmt.Fprintln(c.out, "deleted")
		return nil

	default:
		return errUsage
	}
}

func (c *cli) signIn(res api.AuthResult) error {
	err := c.sess.Save(session.Session{
		ID:       res.User.ID,
		FullName: res.User.FullName,
		Email:    res.User.Email,
		Token:    res.Token,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s\n", res.User.Email)
	return nil
}

// main dispatches subcommands against the configured API.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	code := run(ctx, os.Args[1:], session.DefaultPath(), os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
