// Command climb logs activity against a routemill server from the terminal.
//
//	climb -token $TOKEN send   <route-id>
//	climb -token $TOKEN comment <route-id> "use the heel hook" -beta
//
// Flags may come before or after the subcommand.
//	climb -token $TOKEN note   <route-id> "left foot first"
//	climb -token $TOKEN feed   <route-id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yungbote/routemill-backend/internal/clients/apiclient"
	"github.com/yungbote/routemill-backend/internal/clients/optimistic"
	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/platform/envutil"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type options struct {
	apiURL  string
	token   string
	beta    bool
	timeout time.Duration
	retries uint
	limit   int
	cursor  string

	cmd     string
	routeID uuid.UUID
	text    string
}

// parseArgs accepts flags before or after the subcommand and its positionals;
// everything after "--" is text.
func parseArgs(argv []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("climb", flag.ContinueOnError)
	fs.StringVar(&o.apiURL, "api", envutil.String("ROUTEMILL_API_URL", "http://localhost:8080"), "routemill API base url")
	fs.StringVar(&o.token, "token", envutil.String("ROUTEMILL_TOKEN", ""), "identity token")
	fs.BoolVar(&o.beta, "beta", false, "mark a comment as beta")
	fs.DurationVar(&o.timeout, "timeout", envutil.Duration("APPEND_TIMEOUT", 10*time.Second), "per-append timeout")
	fs.UintVar(&o.retries, "retries", 2, "retries for transient failures")
	fs.IntVar(&o.limit, "limit", 20, "feed page size")
	fs.StringVar(&o.cursor, "cursor", "", "feed cursor from a previous page")

	var positional []string
	rest := argv
	for len(rest) > 0 {
		if err := fs.Parse(rest); err != nil {
			return o, err
		}
		consumed := len(rest) - len(fs.Args())
		if consumed > 0 && rest[consumed-1] == "--" {
			positional = append(positional, fs.Args()...)
			break
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if len(positional) < 2 {
		return o, fmt.Errorf("usage: climb [flags] send|flash|attempt|comment|rate|note|feed <route-id> [text] [flags]")
	}
	o.cmd = strings.ToLower(positional[0])
	id, err := uuid.Parse(positional[1])
	if err != nil {
		return o, fmt.Errorf("invalid route id %q", positional[1])
	}
	o.routeID = id
	o.text = strings.Join(positional[2:], " ")
	return o, nil
}

func main() {
	_ = godotenv.Load()

	opts, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer log.Sync()

	client, err := apiclient.New(log, apiclient.Config{BaseURL: opts.apiURL, Token: opts.token, Timeout: opts.timeout + 5*time.Second})
	if err != nil {
		fatalf("init client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch opts.cmd {
	case "feed":
		printFeed(ctx, client, opts.routeID, opts.limit, opts.cursor)
	case "note":
		editor := optimistic.NewNoteEditor(client, opts.routeID, "", opts.timeout)
		editor.Edit(opts.text)
		if err := editor.Blur(ctx); err != nil {
			fatalf("save note: %v", err)
		}
		fmt.Printf("note saved: %q\n", editor.Saved())
	default:
		action, err := types.ParseActionType(strings.ToUpper(opts.cmd))
		if err != nil {
			fatalf("unknown command %q", opts.cmd)
		}
		if action == types.ActionRating {
			if _, err := types.ParseRating(opts.text); err != nil {
				fatalf("%v", err)
			}
		}
		actorID, err := subject(opts.token)
		if err != nil {
			fatalf("read token: %v", err)
		}
		ctrl := optimistic.NewController(log, client, optimistic.Config{
			Timeout:    opts.timeout,
			MaxRetries: opts.retries,
		})
		in := types.EventInput{
			ActorID:       actorID,
			RouteID:       &opts.routeID,
			ActionType:    action,
			IsBeta:        opts.beta,
			ClientEventID: uuid.NewString(),
		}
		if opts.text != "" {
			in.Content = &opts.text
		}
		entry := ctrl.Submit(ctx, in)
		printView(ctrl.View())
		if _, err := entry.Wait(ctx); err != nil {
			printView(ctrl.View())
			fatalf("%s failed: %v", opts.cmd, err)
		}
		page, err := client.RouteActivity(ctx, opts.routeID, opts.limit, "")
		if err == nil {
			events := make([]types.ActivityEvent, 0, len(page.Items))
			for _, it := range page.Items {
				events = append(events, types.ActivityEvent{
					ID:         it.ID,
					ActorID:    it.Actor.ID,
					RouteID:    &opts.routeID,
					ActionType: it.ActionType,
					Content:    it.Content,
					CreatedAt:  it.CreatedAt,
				})
			}
			ctrl.Refresh(events)
		}
		printView(ctrl.View())
	}
}

// subject reads the user id from the token without verifying it; the server
// does the verification.
func subject(token string) (uuid.UUID, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

func printView(items []optimistic.ViewItem) {
	fmt.Println("---")
	for _, it := range items {
		ev := it.Event
		fmt.Printf("%-11s %-8s %s %s\n", it.State, ev.ActionType, ev.CreatedAt.Local().Format(time.Kitchen), ev.ContentString())
	}
}

func printFeed(ctx context.Context, client apiclient.Client, routeID uuid.UUID, limit int, cursor string) {
	page, err := client.RouteActivity(ctx, routeID, limit, cursor)
	if err != nil {
		fatalf("load feed: %v", err)
	}
	for _, it := range page.Items {
		line := fmt.Sprintf("%s %s %s", it.CreatedAt.Local().Format(time.Stamp), it.Actor.Name, it.Verb)
		if it.Content != nil {
			line += ": " + *it.Content
		}
		if it.IsBeta {
			line += " [beta]"
		}
		fmt.Println(line)
	}
	if page.NextCursor != "" {
		fmt.Println("more: -cursor", page.NextCursor)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "climb: "+format+"\n", args...)
	os.Exit(1)
}
