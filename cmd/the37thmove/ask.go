package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Domnoval/THE-37TH-MOVE/internal/chat"
	"github.com/Domnoval/THE-37TH-MOVE/internal/config"
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Run one chat turn and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		personalityID, _ := cmd.Flags().GetString("personality")
		sessionToken, _ := cmd.Flags().GetString("session")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := buildRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		return runAsk(ctx, rt.chat, cmd.OutOrStdout(), chat.Request{
			Message:       strings.Join(args, " "),
			PersonalityID: personalityID,
			SessionToken:  sessionToken,
		})
	},
}

func init() {
	askCmd.Flags().StringP("personality", "p", "", "personality id (required)")
	askCmd.Flags().StringP("session", "s", "", "session token to continue")
	_ = askCmd.MarkFlagRequired("personality")
}

type turnRunner interface {
	Handle(ctx context.Context, req chat.Request) (chat.Reply, error)
}

func runAsk(ctx context.Context, svc turnRunner, out io.Writer, req chat.Request) error {
	reply, err := svc.Handle(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", reply.Personality.Name, reply.Message)
	fmt.Fprintf(out, "session: %s\n", reply.SessionToken)
	return nil
}
