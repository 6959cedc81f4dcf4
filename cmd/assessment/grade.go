package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/session"
	"github.com/studypilot/assessment-service/internal/validator"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade one set of answers against a quiz file",
	Long: `Reads a quiz ({"questions": [...]}) and a JSON array of answers, one
string per question with "" for unanswered, and prints the graded result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		quizPath, _ := cmd.Flags().GetString("quiz")
		answersPath, _ := cmd.Flags().GetString("answers")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		quiz, err := readQuiz(quizPath)
		if err != nil {
			return err
		}
		answers, err := readAnswers(answersPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		grader, closeCache, err := a.semanticGrader(ctx)
		if err != nil {
			return fmt.Errorf("init grader: %w", err)
		}
		defer closeCache()

		sess := session.New(a.orchestrator(grader), session.Config{Logger: a.logger})
		if err := sess.Configure(quiz, nil); err != nil {
			return err
		}
		for i, answer := range answers {
			if err := sess.SetAnswer(i, answer); err != nil {
				return fmt.Errorf("answer %d: %w", i, err)
			}
		}

		result, err := sess.Submit(ctx)
		if err != nil {
			return fmt.Errorf("grade: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	gradeCmd.Flags().String("quiz", "", "Path to the quiz JSON file")
	gradeCmd.Flags().String("answers", "", "Path to the answers JSON file")
	gradeCmd.Flags().Bool("json", false, "Print the full result as JSON")
	_ = gradeCmd.MarkFlagRequired("quiz")
	_ = gradeCmd.MarkFlagRequired("answers")
}

func readQuiz(path string) (*models.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz: %w", err)
	}
	var payload models.QuizPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse quiz: %w", err)
	}
	return validator.New().Question().ValidatePayload(payload)
}

func readAnswers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var answers []string
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return answers, nil
}

func printResult(w io.Writer, result *models.GradingResult) {
	fmt.Fprintf(w, "Score: %s\n", result.Summary)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, r := range result.Review {
		fmt.Fprintf(w, "%d. [%s] %s\n", r.Index+1, r.Type, r.Question)
		if !r.Answered {
			fmt.Fprintln(w, "   (unanswered)")
			continue
		}
		fmt.Fprintf(w, "   answer: %s\n", r.UserAnswer)
		switch {
		case r.IsCorrect != nil && *r.IsCorrect:
			fmt.Fprintln(w, "   correct")
		case r.IsCorrect != nil:
			fmt.Fprintf(w, "   incorrect, expected %s\n", r.CorrectAnswer)
		case r.Grade != nil:
			fmt.Fprintf(w, "   %d/100 (%s) %s\n", r.Grade.Score, r.Band, r.Grade.Feedback)
		}
	}
}
