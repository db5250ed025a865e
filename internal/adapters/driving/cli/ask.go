package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the passages most relevant to the question and answers from them.
With an LLM configured the answer is generated and cites its sources.
Otherwise the best passages are returned as they are.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question is empty")
	}

	svc, release, err := openServices(cmd, ServiceOptions{})
	if err != nil {
		return err
	}
	defer release()

	if svc.Query == nil {
		return errors.New("query service not configured")
	}

	answer, err := svc.Query.Ask(commandContext(cmd), question)
	if errors.Is(err, domain.ErrIndexEmpty) {
		return errors.New("nothing is indexed yet, run 'sercha-chat sync' first")
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	printAnswer(cmd, answer)
	return nil
}

type answerJSON struct {
	Answer    string       `json:"answer"`
	Generated bool         `json:"generated"`
	Sources   []sourceJSON `json:"sources"`
}

type sourceJSON struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Score      float64 `json:"score"`
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{
		Answer:    answer.Text,
		Generated: answer.Generated,
		Sources:   make([]sourceJSON, len(answer.Sources)),
	}
	for i, p := range answer.Sources {
		out.Sources[i] = sourceJSON{
			DocumentID: p.DocumentID.String(),
			Title:      p.Title,
			URL:        p.SourceURL,
			Score:      float64(p.Score),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, p := range answer.Sources {
		title := p.Title
		if title == "" {
			title = p.DocumentID.String()
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, float64(p.Score))
		if p.SourceURL != "" {
			cmd.Printf("      %s\n", p.SourceURL)
		}
	}
}
