package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/edgard/helpdeskbot/internal/app"
	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/desk"
	"github.com/edgard/helpdeskbot/internal/sanitize"
)

type chatDesk interface {
	HandleMessage(ctx context.Context, in desk.Inquiry) desk.Reply
	HandleAction(ctx context.Context, in desk.Inquiry, a desk.Action) desk.Reply
	Escalate(ctx context.Context, in desk.Inquiry, recordID int64, question string) desk.Reply
	OpenTicket(ctx context.Context, in desk.Inquiry, text string) desk.Reply
}

const chatHelp = `Type a question to get an answer. Local commands:
  /resolved   mark the last answer as resolved
  /escalate   open the last answer's ticket for IT staff
  /ticket ... open a ticket directly
  /quit       leave`

func chatCmd(opts *options) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the bot through the full answer and ticket pipeline",
		Long: `Runs the same pipeline as the Teams webhook: knowledge base, generator,
QuickBase ticket recording and conversation history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			user := desk.User{ID: "cli-" + uuid.NewString()[:8], Name: name, Email: email}
			return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.Desk, cfg.Messages, user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "requester email recorded on tickets")
	cmd.Flags().StringVar(&name, "name", "CLI User", "requester name recorded on tickets")
	return cmd
}

// chatLoop reads questions line by line until EOF or /quit.
func chatLoop(ctx context.Context, r io.Reader, w io.Writer, d chatDesk, m config.MessagesConfig, user desk.User) error {
	conversationID := uuid.NewString()
	plain := sanitize.NewPlainTextPolicy()
	fmt.Fprintln(w, chatHelp)

	var last desk.Reply
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		in := desk.Inquiry{
			Platform:       desk.PlatformCLI,
			ConversationID: conversationID,
			User:           user,
			Text:           line,
		}

		cmd, arg := desk.ParseCommand(line)
		var reply desk.Reply
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/resolved":
			reply = d.HandleAction(ctx, in, desk.Action{Name: desk.ActionResolved, RecordID: last.RecordID, Question: last.Question})
		case "/escalate":
			reply = d.Escalate(ctx, in, last.RecordID, last.Question)
		case desk.CommandTicket:
			reply = d.OpenTicket(ctx, in, arg)
		default:
			reply = d.HandleMessage(ctx, in)
		}

		if reply.Kind == desk.ReplyAnswer {
			reply.Text = plain.PlainText(reply.Text)
		}
		fmt.Fprintln(w, desk.RenderText(reply, m))
		if reply.Kind == desk.ReplyAnswer {
			fmt.Fprintf(w, "[source: %s]\n", reply.Answer.Source)
			last = reply
		}
	}
}
