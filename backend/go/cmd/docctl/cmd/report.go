package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/internal/document_service/service"
	"Paggo/backend/go/internal/llm"
	"Paggo/backend/go/internal/report"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var (
	reportOut       string
	reportLang      string
	reportQuestions []string
)

var reportCmd = &cobra.Command{
	Use:   "report [file-path]",
	Short: "Render an analysis PDF for a file",
	Long: `Extracts the text of a file and renders it into an analysis report.
Each --ask question is answered by the configured language model, in order,
with the earlier answers as conversation history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		res, err := extractFile(cmd, path, reportLang)
		if err != nil {
			return err
		}

		spec := report.Spec{ExtractedText: res.Text}
		if len(reportQuestions) > 0 {
			qas, err := askAll(cmd, res.Text, reportQuestions)
			if err != nil {
				return err
			}
			spec.Interactions = qas
		}

		mt, err := mimetype.DetectFile(path)
		if err != nil {
			return fmt.Errorf("detect content type: %w", err)
		}
		isImage, isPDF := strings.HasPrefix(mt.String(), "image/"), mt.Is("application/pdf")
		if isImage || isPDF {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if isImage {
				spec.Image = &report.Image{Data: data}
			} else {
				spec.SourcePDF = data
			}
		}

		rep, err := report.NewRenderer(nil, cliLog).Render(spec)
		if err != nil {
			return err
		}

		out := reportOut
		if out == "" {
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			out = base + "_with_analysis.pdf"
		}
		if err := os.WriteFile(out, rep.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		if rep.DegradedBlocks > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d text block(s) were rendered without non-ASCII characters\n", rep.DegradedBlocks)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (defaults to <name>_with_analysis.pdf)")
	reportCmd.Flags().StringVar(&reportLang, "lang", "", "OCR languages")
	reportCmd.Flags().StringArrayVar(&reportQuestions, "ask", nil, "question to answer about the document (repeatable)")
	rootCmd.AddCommand(reportCmd)
}

func askAll(cmd *cobra.Command, text string, questions []string) ([]report.QA, error) {
	provider, err := llm.NewProvider(cmd.Context(), cfg.LLM, cfg.Middleware.CircuitBreaker)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	answerer := conversation.NewAnswerer(provider, nil, cliLog)
	var (
		pairs [][2]string
		qas   []report.QA
	)
	for _, q := range questions {
		out, err := answerer.Answer(cmd.Context(), text, conversation.HistoryFromPairs(pairs), q)
		if err != nil {
			return nil, err
		}
		reply := service.Reply(out)
		pairs = append(pairs, [2]string{q, reply})
		qas = append(qas, report.QA{Question: q, Answer: reply})
	}
	return qas, nil
}
