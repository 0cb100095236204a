package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives.
type execIface interface {
	Capture(ctx context.Context, text string) error
	Next(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Mark(ctx context.Context, action, ref string) error
	SetScope(ctx context.Context, ref, scope string) error
	Review(ctx context.Context, date string) error
	Key(ctx context.Context, args []string) error
	SignIn(ctx context.Context, token string) error
	SignOut(ctx context.Context) error
	Sync(ctx context.Context) error
	ClearAll(ctx context.Context) error
}

const helpText = `Commands:
  add <text>                    capture a note (also: + <text>)
  next                          show the next task
  list [all|tasks|done] [word]  list items, newest first (also: l)
  done|undo|defer|today <id>    change an item (id prefix is enough)
  scope <id> <today|this_week|someday>
  delete <id>                   remove an item
  review [YYYY-MM-DD]           items completed on a day (default today)
  key set|clear|status          manage the Gemini API key
  signin [token]                enable sync with the mirror
  signout                       disable sync
  sync                          pull, merge and push now
  clear                         delete every item
  exit | quit`

// runREPL reads one command per line from scanner and dispatches it to a.
// Handler errors are printed and the loop continues. It returns on EOF or
// on "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sabo %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "add", "+":
			if rest == "" {
				printlnFn("Usage: add <text>")
				continue
			}
			err = a.Capture(ctx, rest)

		case "next":
			err = a.Next(ctx)

		case "l", "list":
			err = a.List(ctx, args)

		case "done", "undo", "defer", "today", "delete":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			err = a.Mark(ctx, cmd, args[0])

		case "scope":
			if len(args) != 2 {
				printlnFn("Usage: scope <id> <today|this_week|someday>")
				continue
			}
			err = a.SetScope(ctx, args[0], args[1])

		case "review":
			date := ""
			if len(args) > 0 {
				date = args[0]
			}
			err = a.Review(ctx, date)

		case "key":
			err = a.Key(ctx, args)

		case "signin":
			token := ""
			if len(args) > 0 {
				token = args[0]
			}
			err = a.SignIn(ctx, token)

		case "signout":
			err = a.SignOut(ctx)

		case "sync":
			err = a.Sync(ctx)

		case "clear":
			err = a.ClearAll(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
