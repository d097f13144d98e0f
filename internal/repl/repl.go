// Copyright (c) Microsoft. All rights reserved.

// Package repl runs the interactive conversation loop on top of a
// [chat.Client].
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dialkit/dialchat/chat"
)

// ExitCommand ends the session.
const ExitCommand = "exit"

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Session drives one conversation.
type Session struct {
	Client       chat.Client
	Conversation *chat.Conversation
	// Stream selects StreamCompletion over Completion.
	Stream bool
	// DefaultSystemPrompt is used when the user enters an empty one.
	DefaultSystemPrompt string
	In                  io.Reader
	Out                 io.Writer
	Logger              *slog.Logger
}

// Run asks for a system prompt, then relays user lines to the client until
// the user types exit or input ends. Failed requests are reported and the
// user turn that caused them is withdrawn from the conversation.
func (s *Session) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	in := bufio.NewScanner(s.In)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(s.Out, "Provide System prompt or press 'enter' to continue.")
	prompt, ok := s.readLine(in)
	if !ok {
		return in.Err()
	}
	if prompt != "" {
		s.Conversation.Add(chat.NewSystemMessage(prompt))
		fmt.Fprintln(s.Out, infoStyle.Render("System prompt successfully added to conversation."))
	} else {
		s.Conversation.Add(chat.NewSystemMessage(s.DefaultSystemPrompt))
		fmt.Fprintln(s.Out, infoStyle.Render(fmt.Sprintf("No System prompt provided. Will be used default System prompt: '%s'", s.DefaultSystemPrompt)))
	}
	fmt.Fprintln(s.Out)

	fmt.Fprintf(s.Out, "Type your question or '%s' to quit.\n", ExitCommand)
	for {
		line, ok := s.readLine(in)
		if !ok {
			return in.Err()
		}
		if line == ExitCommand {
			fmt.Fprintln(s.Out, "Exiting...")
			return nil
		}
		if line == "" {
			continue
		}

		s.Conversation.Add(chat.NewUserMessage(line))
		reply, err := s.complete(ctx)
		if err != nil {
			s.Conversation.DropLast(chat.RoleUser)
			logger.ErrorContext(ctx, "request failed",
				"conversation_id", s.Conversation.ID(),
				"error", err,
			)
			fmt.Fprintln(s.Out, errorStyle.Render("Error: "+err.Error()))
			continue
		}
		s.Conversation.Add(reply)
	}
}

func (s *Session) complete(ctx context.Context) (chat.Message, error) {
	history := s.Conversation.Messages()
	if s.Stream {
		return s.Client.StreamCompletion(ctx, history)
	}
	return s.Client.Completion(ctx, history)
}

func (s *Session) readLine(in *bufio.Scanner) (string, bool) {
	fmt.Fprint(s.Out, promptStyle.Render("> "))
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}
