package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/focus-md/focus/internal/database"
)

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getTerminalWidth() int {
	// Try to get terminal width from stdout
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	// Default width if terminal size cannot be determined
	return 80
}

// wrapString wraps a string to fit within maxWidth, accounting for multi-byte characters
func wrapString(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}

	s = strings.TrimSpace(s)
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0

	for _, r := range s {
		charWidth := runewidth.RuneWidth(r)

		if currentWidth+charWidth > maxWidth && currentWidth > 0 {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
			currentWidth = 0
		}

		currentLine.WriteRune(r)
		currentWidth += charWidth
	}

	if currentLine.Len() > 0 {
		result.WriteString(currentLine.String())
	}

	return result.String()
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
func confirm(cmd *cobra.Command, message string) (bool, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprint(cmd.ErrOrStderr(), message)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y", nil
}

// confirmTyped requires the user to type word exactly, for destructive operations.
func confirmTyped(cmd *cobra.Command, message, word string) (bool, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\nType '%s' to continue: ", message, word)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(answer) == word, nil
}

// decodeDocuments turns stored documents into values for JSON output.
func decodeDocuments(docs []database.Document) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		var rec map[string]any
		if err := json.Unmarshal(doc.Data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", doc.Key, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
