// Command realtyctl is an interactive shell over the listing platform API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/realtyhub/realtyhub/internal/client"
	"github.com/realtyhub/realtyhub/internal/models"
)

var (
	version   string
	buildDate string
)

// repl runs the interactive shell loop until exit or end of input.
func repl(ctx context.Context, s *client.Session, p *client.Prompter, out io.Writer) {
	for {
		line, ok := p.Ask("realtyctl> ")
		if !ok {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Fprintln(out, "Available commands: help, login, whoami, listings [location], show <id>, bookmark <id>, logout, exit")
		case "login":
			email, password, ok := p.Credentials()
			if !ok {
				return
			}
			id, err := s.Login(ctx, email, password)
			if err != nil {
				report(out, err)
				continue
			}
			fmt.Fprintf(out, "Signed in as %s (%s)\n", id.Email, id.Role)
		case "whoami":
			if id := s.Identity(); id != nil {
				fmt.Fprintf(out, "%s %s %s\n", id.AccountID, id.Email, id.Role)
			} else {
				fmt.Fprintln(out, "anonymous")
			}
		case "listings":
			q := url.Values{}
			if len(args) > 1 {
				q.Set("location", strings.Join(args[1:], " "))
			}
			listings, err := s.Listings(ctx, q)
			if err != nil {
				report(out, err)
				continue
			}
			for _, l := range listings {
				fmt.Fprintf(out, "%s  %-40s %12.2f  %s\n", l.ID, l.Title, l.Price, l.City)
			}
		case "show":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: show <id>")
				continue
			}
			l, err := s.Listing(ctx, args[1])
			if err != nil {
				report(out, err)
				continue
			}
			b, _ := json.MarshalIndent(l, "", "  ")
			fmt.Fprintln(out, string(b))
		case "bookmark":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: bookmark <id>")
				continue
			}
			if _, err := s.Bookmark(ctx, args[1]); err != nil {
				report(out, err)
				continue
			}
			fmt.Fprintln(out, "Bookmarked")
		case "logout":
			if err := s.Logout(ctx); err != nil {
				report(out, err)
			}
			fmt.Fprintln(out, "Signed out")
		case "exit":
			fmt.Fprintln(out, "Bye")
			return
		default:
			fmt.Fprintln(out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func report(out io.Writer, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		fmt.Fprintln(out, "Wrong email or password")
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrInvalidSession):
		fmt.Fprintln(out, "Please log in first")
	case errors.Is(err, models.ErrNotFound):
		fmt.Fprintln(out, "Not found")
	case errors.Is(err, models.ErrConflict):
		fmt.Fprintln(out, "Already bookmarked")
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func main() {
	var (
		baseURL string
		caFile  string
		showVer bool
	)
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "PEM certificate to trust for HTTPS")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("realtyctl\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	var opts []client.Option
	if caFile != "" {
		opts = append(opts, client.WithCAFile(caFile))
	}
	s, err := client.NewSession(baseURL, opts...)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := s.Restore(ctx); err != nil {
		log.Fatal(err)
	}
	repl(ctx, s, client.NewPrompter(os.Stdin, os.Stdout), os.Stdout)
}
