package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run commands interactively against one open store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inShell {
			return errors.New("already in a shell")
		}
		if _, err := openDB(); err != nil {
			return err
		}

		inShell = true
		defer func() { inShell = false }()

		startREPL(cmd.Root(), cmd.InOrStdin(), cmd.OutOrStdout())
		return nil
	},
}

// Starts an interactive command session
// Forwards commands to cobra
func startREPL(root *cobra.Command, in io.Reader, out io.Writer) {
	reader := bufio.NewScanner(in)
	quit = false

	for !quit {
		fmt.Fprint(out, "veeprom> ")

		if !reader.Scan() {
			fmt.Fprintln(out)
			return
		}

		// Get the command typed by the user
		input := strings.TrimSpace(reader.Text())

		// Check for blank input
		if input == "" {
			continue
		}

		// Pass the command back to root
		root.SetArgs(strings.Fields(input))

		if err := root.ExecuteContext(context.Background()); err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
