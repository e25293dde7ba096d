package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/and161185/jobtrack/internal/model"
)

// applicationFlags registers the editable application fields on fs.
type applicationFlags struct {
	fs      *flag.FlagSet
	company string
	role    string
	date    string
	status  string
	url     string
	notes   string
}

func newApplicationFlags(name string) *applicationFlags {
	f := &applicationFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.StringVar(&f.company, "company", "", "company name")
	f.fs.StringVar(&f.role, "role", "", "job role")
	f.fs.StringVar(&f.date, "date", "", "application date (YYYY-MM-DD or RFC 3339)")
	f.fs.StringVar(&f.status, "status", "", "Applied, Interview, Offer or Rejected")
	f.fs.StringVar(&f.url, "url", "", "job posting URL")
	f.fs.StringVar(&f.notes, "notes", "", "free-text notes")
	return f
}

// input builds an ApplicationInput from the flags that were actually set,
// so edit sends a partial update.
func (f *applicationFlags) input() (model.ApplicationInput, error) {
	var in model.ApplicationInput
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "company":
			in.CompanyName = trimmed(f.company)
		case "role":
			in.JobRole = trimmed(f.role)
		case "date":
			t, perr := model.ParseDate(f.date)
			if perr != nil {
				err = fmt.Errorf("bad -date %q: want YYYY-MM-DD", f.date)
				return
			}
			d := t.UTC().Format(time.RFC3339)
			in.ApplicationDate = &d
		case "status":
			st, ok := model.ParseStatus(strings.TrimSpace(f.status))
			if !ok {
				err = fmt.Errorf("bad -status %q", f.status)
				return
			}
			s := string(st)
			in.Status = &s
		case "url":
			in.JobURL = trimmed(f.url)
		case "notes":
			n := f.notes
			in.Notes = &n
		}
	})
	return in, err
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

var errNoFields = errors.New("nothing to change")

func requireAny(in model.ApplicationInput) error {
	if in.CompanyName == nil && in.JobRole == nil && in.ApplicationDate == nil &&
		in.Status == nil && in.JobURL == nil && in.Notes == nil {
		return errNoFields
	}
	return nil
}

func printTable(w io.Writer, apps []model.Application) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tCOMPANY\tROLE")
	for _, a := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.ApplicationDate.Format(time.DateOnly), a.Status, a.CompanyName, a.JobRole)
	}
	_ = tw.Flush()
}

func printStats(w io.Writer, st model.Stats) {
	fmt.Fprintf(w, "total=%d", st.Total)
	for _, s := range model.Statuses {
		n := 0
		switch s {
		case model.StatusApplied:
			n = st.Applied
		case model.StatusInterview:
			n = st.Interview
		case model.StatusOffer:
			n = st.Offer
		case model.StatusRejected:
			n = st.Rejected
		}
		fmt.Fprintf(w, " %s=%d", s, n)
	}
	fmt.Fprintln(w)
}
