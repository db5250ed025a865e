package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// consoleReplyToken stands in for the platform reply token in terminal chats.
const consoleReplyToken = "console"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	Long: `Starts an interactive session that behaves like a chat with the bot.
Type a question, or one of the bot commands such as "sync", "status" or "help".
Type "exit" or press Ctrl-D to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, release, err := openServices(cmd, ServiceOptions{Console: true, Out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer release()

	if svc.Chat == nil {
		return errors.New("chat service not configured")
	}
	if svc.Runner != nil {
		defer svc.Runner.Wait()
	}

	ctx := commandContext(cmd)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	cmd.Println(`Type a question, "help" for commands, or "exit" to quit.`)
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		err := svc.Chat.HandleText(ctx, driving.MessageEvent{
			ReplyToken: consoleReplyToken,
			Source:     svc.Requester,
			Text:       text,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
