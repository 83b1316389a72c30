package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rendezvous-app/webclient/pkg/broadcast"
	"github.com/rendezvous-app/webclient/pkg/notifications"
	"github.com/rendezvous-app/webclient/pkg/session"
)

const helpText = "commands: list | read <id> | readall | quit"

// console is the terminal front end of one session.
type console struct {
	sess *session.Session
	out  io.Writer
	mu   sync.Mutex // serializes writes to out
}

func newConsole(sess *session.Session, out io.Writer) *console {
	return &console{sess: sess, out: out}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// start subscribes before starting the session so the history load and the
// first connect are printed.
func (c *console) start(ctx context.Context) error {
	sub := c.sess.State().Subscribe(ctx)
	if err := c.sess.Start(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	go c.follow(ctx, sub)
	return nil
}

// follow prints the changes arriving on sub until it closes.
func (c *console) follow(ctx context.Context, sub broadcast.Subscriber[notifications.Change]) {
	defer func() { _ = sub.Close() }()

	state, feed := c.sess.State(), c.sess.Feed()
	for msg := range sub.Receive(ctx) {
		change := msg.Data
		switch change.Kind {
		case notifications.ChangeAppended:
			if n, ok := state.Get(change.ID); ok {
				c.printf("%s", feed.Line(n))
			}
		case notifications.ChangeSeeded:
			c.printf("loaded %d notifications, %d unread", state.Len(), change.Unread)
		case notifications.ChangeConnectivity:
			if change.Connected {
				c.printf("live")
			} else {
				c.printf("offline, reconnecting")
			}
		}
	}
}

// run reads commands from in until quit, EOF or ctx ends.
func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.printf("%s", helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || !c.exec(ctx, line) {
				return nil
			}
		}
	}
}

// exec runs one command and reports whether to keep going.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	feed := c.sess.Feed()

	switch fields[0] {
	case "list", "ls":
		items := feed.All()
		if len(items) == 0 {
			c.printf("no notifications")
		}
		for _, n := range items {
			c.printf("%s", feed.Line(n))
		}
		c.printf("%d unread", feed.UnreadCount())
	case "read":
		if len(fields) != 2 {
			c.printf("usage: read <id>")
			return true
		}
		target, ok := feed.Open(ctx, fields[1])
		if !ok {
			c.printf("unknown notification %s", fields[1])
			return true
		}
		c.printf("open %s", target.Path)
	case "readall":
		if err := feed.MarkAllRead(ctx); err != nil {
			c.printf("mark all read: %v", err)
			return true
		}
		c.printf("all read")
	case "quit", "exit":
		return false
	default:
		c.printf("%s", helpText)
	}
	return true
}
