package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JailtonJunior94/boardroom-go/pkg/boardroom"
	"github.com/JailtonJunior94/boardroom-go/pkg/boardroom/boardroomtest"
)

func (a *app) boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Consult the board and read its decision history",
	}

	var asJSON bool
	consult := &cobra.Command{
		Use:   "consult <context>",
		Short: "Ask the board for a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := decisionContext(args[0], asJSON)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Board().Consult(ctx, input)
			})
		},
	}
	consult.Flags().BoolVar(&asJSON, "json", false, "Send the context as a JSON value instead of a string")

	history := &cobra.Command{
		Use:   "history",
		Short: "List past decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Board().History(ctx)
			})
		},
	}

	cmd.AddCommand(consult, history)
	return cmd
}

func decisionContext(arg string, asJSON bool) (any, error) {
	if !asJSON {
		return arg, nil
	}
	if !json.Valid([]byte(arg)) {
		return nil, &boardroom.ClientError{
			Message: "context is not valid JSON",
			Status:  http.StatusBadRequest,
			Code:    boardroom.CodeInvalidRequest,
		}
	}
	return json.RawMessage(arg), nil
}

func (a *app) agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Talk to a single board member",
	}

	var threadID string
	var newThread bool
	agentOptions := func() []boardroom.AgentOption {
		if newThread {
			threadID = boardroom.NewThreadID()
			fmt.Fprintf(a.errOut, "thread: %s\n", threadID)
		}
		if threadID == "" {
			return nil
		}
		return []boardroom.AgentOption{boardroom.WithThreadID(threadID)}
	}

	consult := &cobra.Command{
		Use:   "consult <role> <prompt>",
		Short: "Ask an agent for advice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := agentOptions()
			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Agent(args[0]).Consult(ctx, args[1], opts...)
			})
		},
	}

	execute := &cobra.Command{
		Use:   "execute <role> <task>",
		Short: "Hand a task to an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := agentOptions()
			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Agent(args[0]).Execute(ctx, args[1], opts...)
			})
		},
	}

	for _, sub := range []*cobra.Command{consult, execute} {
		sub.Flags().StringVar(&threadID, "thread", "", "Continue an existing conversation")
		sub.Flags().BoolVar(&newThread, "new-thread", false, "Start a new conversation and print its id")
		sub.MarkFlagsMutuallyExclusive("thread", "new-thread")
	}

	cmd.AddCommand(consult, execute)
	return cmd
}

func (a *app) knowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the documents the board can draw on",
	}

	var title string
	upload := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, closer, err := boardroom.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Knowledge().Upload(ctx, file, title)
			})
		},
	}
	upload.Flags().StringVar(&title, "title", "", "Document title")

	list := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Knowledge().List(ctx)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *boardroom.Client) (boardroom.Result, error) {
				return c.Knowledge().Delete(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(upload, list, del)
	return cmd
}

// devServerCmd runs the in-memory fake service until interrupted.
func (a *app) devServerCmd() *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory fake of the service for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey = strings.TrimSpace(apiKey)
			if apiKey == "" {
				return boardroom.NewAuthRequiredError()
			}
			srv := boardroomtest.NewServer(apiKey)
			defer srv.Close()

			fmt.Fprintf(a.out, "BOARDROOM_BASE_URL=%s\n", srv.URL())
			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "accept-key", "dev", "API key the fake server accepts")
	return cmd
}
