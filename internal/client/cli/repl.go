package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	Passwd(ctx context.Context) error
	Sessions(ctx context.Context) error
	Posts(ctx context.Context, args []string) error
	MyPosts(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	NewPost(ctx context.Context) error
	EditPost(ctx context.Context, args []string) error
	DelPost(ctx context.Context, args []string) error
	Summarize(ctx context.Context, args []string) error
}

const (
	helpGuest  = "Available commands: register, login, help, exit"
	helpMember = "Available commands: whoami, profile, passwd, sessions, posts [n], myposts, " +
		"show <id>, newpost, editpost <id>, delpost <id>, summarize [id], logout, help, exit"
)

// runREPL reads a line from reader, parses the first token as the command
// and dispatches to a. The remaining tokens are passed as arguments to
// commands that take them. Handler errors are printed and the loop goes on.
// The loop exits on EOF, on context cancellation, or when the user types
// "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("blog%s> ", statusFn()))

		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpMember)
			} else {
				printlnFn(helpGuest)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "profile":
			err = a.Profile(ctx)
		case "passwd":
			err = a.Passwd(ctx)
		case "sessions":
			err = a.Sessions(ctx)
		case "posts":
			err = a.Posts(ctx, args)
		case "myposts":
			err = a.MyPosts(ctx)
		case "show":
			err = a.Show(ctx, args)
		case "newpost":
			err = a.NewPost(ctx)
		case "editpost":
			err = a.EditPost(ctx, args)
		case "delpost":
			err = a.DelPost(ctx, args)
		case "summarize":
			err = a.Summarize(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describeError(err))
		}
	}
}
