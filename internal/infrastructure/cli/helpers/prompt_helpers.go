package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptForYesNo asks a yes/no question on out and reads the answer from
// reader. An empty answer or closed input yields defaultValue.
func PromptForYesNo(out io.Writer, reader *bufio.Reader, promptText string, defaultValue bool) bool {
	fmt.Fprintf(out, "%s [%s]: ", promptText, yesNoLabel(defaultValue))

	answer, ok := readAnswer(reader)
	if !ok {
		return defaultValue
	}
	return answer == "y" || answer == "yes"
}

// PromptForConfirmation asks before a destructive action; the default is no.
func PromptForConfirmation(out io.Writer, reader *bufio.Reader, question string) bool {
	return PromptForYesNo(out, reader, question, false)
}

func yesNoLabel(defaultIsYes bool) string {
	if defaultIsYes {
		return "Y/n"
	}
	return "y/N"
}

// readAnswer returns the trimmed, lower-cased line, or false when nothing was typed.
func readAnswer(reader *bufio.Reader) (string, bool) {
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line, line != ""
}
