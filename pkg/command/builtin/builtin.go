// Package builtin provides the stock chat commands: help, trivia and notes.
package builtin

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ircbot/pkg/command"
	"ircbot/pkg/irc"
	"ircbot/pkg/notes"
)

// Deps carries what the stock handlers need.
type Deps struct {
	Registry  *command.Registry
	Prefix    string
	Notes     notes.Store
	MaxNotes  int
	MaxLength int
	Resources Resources
	// Rand returns a value in [0, n). Defaults to math/rand/v2.
	Rand func(n int) int
}

type handlers struct {
	Deps
}

// Register adds every stock command to deps.Registry in help order.
func Register(deps Deps) error {
	if deps.Registry == nil {
		return errors.New("builtin commands need a registry")
	}
	if deps.Rand == nil {
		deps.Rand = rand.IntN
	}

	h := &handlers{Deps: deps}
	entries := []command.Entry{
		{Name: "help", Usage: "help [command]", Description: "Shows available commands", Handler: command.HandlerFunc(h.help)},
		{Name: "roll", Usage: "roll", Description: "Rolls a number between 0 and 100", Handler: command.HandlerFunc(h.roll)},
		{Name: "flip", Usage: "flip", Description: "Flips a coin", Handler: command.HandlerFunc(h.flip)},
		{Name: "joke", Usage: "joke", Description: "Tells a random joke", Handler: command.HandlerFunc(h.joke)},
		{Name: "quote", Usage: "quote", Description: "Shares a random quote", Handler: command.HandlerFunc(h.quote)},
		{Name: "funfact", Usage: "funfact [category]", Description: "Shares a fun fact", Handler: command.HandlerFunc(h.funfact)},
	}
	if deps.Notes != nil {
		entries = append(entries,
			command.Entry{Name: "note-add", Usage: "note-add [text]", Description: "Add a note to the notes list", Handler: command.HandlerFunc(h.noteAdd)},
			command.Entry{Name: "note-read", Usage: "note-read", Description: "Read all stored notes", Handler: command.HandlerFunc(h.noteRead)},
			command.Entry{Name: "note-wipe", Usage: "note-wipe", Description: "Remove all stored notes", Handler: command.HandlerFunc(h.noteWipe)},
		)
	}

	for _, entry := range entries {
		if err := deps.Registry.Register(entry); err != nil {
			return err
		}
	}

	return nil
}

func (h *handlers) help(ctx context.Context, reply command.Replier, req command.Request) error {
	if name := req.Arg(0); name != "" {
		entry, ok := h.Registry.Lookup(name)
		if !ok || !h.Registry.IsEnabled(name) {
			return reply.Reply(ctx, req.Target, fmt.Sprintf("No info for command '%s' or command is disabled.", name))
		}
		return reply.Reply(ctx, req.Target, h.usageLine(entry))
	}

	enabled := h.Registry.Enabled()
	if len(enabled) == 0 {
		return reply.Reply(ctx, req.Target, "No commands are currently enabled.")
	}

	if err := reply.Reply(ctx, req.Target, "List of available commands:"); err != nil {
		return err
	}
	for _, entry := range enabled {
		if err := reply.Reply(ctx, req.Target, h.usageLine(entry)); err != nil {
			return err
		}
	}

	return nil
}

func (h *handlers) usageLine(entry command.Entry) string {
	return fmt.Sprintf("%s%s - %s", h.Prefix, entry.Usage, entry.Description)
}

func (h *handlers) roll(ctx context.Context, reply command.Replier, req command.Request) error {
	return reply.Reply(ctx, req.Target, fmt.Sprintf("%s rolled %d", req.User, h.Rand(101)))
}

func (h *handlers) flip(ctx context.Context, reply command.Replier, req command.Request) error {
	side := "Tails"
	if h.Rand(2) == 1 {
		side = "Heads"
	}
	return reply.Reply(ctx, req.Target, fmt.Sprintf("%s flipped %s", req.User, side))
}

func (h *handlers) joke(ctx context.Context, reply command.Replier, req command.Request) error {
	jokes := h.Resources.Jokes
	if len(jokes) == 0 {
		return reply.Reply(ctx, req.Target, "No jokes available")
	}
	return reply.Reply(ctx, req.Target, upperFirst(jokes[h.Rand(len(jokes))]))
}

func (h *handlers) quote(ctx context.Context, reply command.Replier, req command.Request) error {
	quotes := h.Resources.Quotes
	if len(quotes) == 0 {
		return reply.Reply(ctx, req.Target, "No quotes available.")
	}

	q := quotes[h.Rand(len(quotes))]
	return reply.Reply(ctx, req.Target, fmt.Sprintf("%s - %s", upperFirst(q.Text), titleCase(q.From)))
}

func (h *handlers) funfact(ctx context.Context, reply command.Replier, req command.Request) error {
	category := req.Arg(0)
	if category != "" {
		if len(h.Resources.Facts[category]) == 0 {
			return reply.Reply(ctx, req.Target, fmt.Sprintf("Unknown category: %s", category))
		}
	} else {
		categories := h.Resources.Categories()
		if len(categories) == 0 {
			return reply.Reply(ctx, req.Target, "No facts available")
		}
		category = categories[h.Rand(len(categories))]
	}

	facts := h.Resources.Facts[category]
	fact := facts[h.Rand(len(facts))]
	return reply.Reply(ctx, req.Target, fmt.Sprintf("%s: %s", titleCase(category), lowerFirst(fact)))
}

func (h *handlers) noteAdd(ctx context.Context, reply command.Replier, req command.Request) error {
	content := strings.Join(req.Args(), " ")
	if content == "" {
		return reply.Reply(ctx, req.Target, fmt.Sprintf("Invalid usage, try %shelp", h.Prefix))
	}

	stored, err := h.Notes.Read(ctx)
	if err != nil {
		return fmt.Errorf("read notes: %w", err)
	}
	if h.MaxNotes > 0 && len(stored) >= h.MaxNotes {
		return reply.Reply(ctx, req.Target, fmt.Sprintf("Maximum number of notes reached (%d)", h.MaxNotes))
	}

	if h.MaxLength > 0 {
		content = irc.Truncate(content, h.MaxLength)
	}
	if err := h.Notes.Add(ctx, req.User, content); err != nil {
		return fmt.Errorf("add note: %w", err)
	}

	return reply.Reply(ctx, req.Target, fmt.Sprintf("%s's note has been added!", req.User))
}

func (h *handlers) noteRead(ctx context.Context, reply command.Replier, req command.Request) error {
	stored, err := h.Notes.Read(ctx)
	if err != nil {
		return fmt.Errorf("read notes: %w", err)
	}
	if len(stored) == 0 {
		return reply.Reply(ctx, req.Target, "No notes stored")
	}

	for _, note := range stored {
		if err := reply.Reply(ctx, req.Target, notes.FormatLine(note)); err != nil {
			return err
		}
	}

	return nil
}

func (h *handlers) noteWipe(ctx context.Context, reply command.Replier, req command.Request) error {
	if err := h.Notes.Wipe(ctx); err != nil {
		return fmt.Errorf("wipe notes: %w", err)
	}
	return reply.Reply(ctx, req.Target, fmt.Sprintf("Notes wiped by %s", req.User))
}

// titleCase builds a fresh Caser per call; Casers carry state.
func titleCase(text string) string {
	return cases.Title(language.English).String(text)
}

func upperFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

func lowerFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return text
	}
	return string(unicode.ToLower(r)) + text[size:]
}
