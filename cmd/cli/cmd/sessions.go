package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openconsole/openconsole/pkg/client"
	"github.com/openconsole/openconsole/pkg/types"
)

func apiClient() *client.Client {
	return client.NewClient(baseURL, apiKey)
}

func apiContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List console sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()

		infos, err := apiClient().ListSessions(ctx)
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			data, _ := json.MarshalIndent(infos, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		for _, info := range infos {
			state := "unstarted"
			if info.Started {
				state = "running"
			}
			if info.ExitCode != nil {
				state = fmt.Sprintf("exited(%d)", *info.ExitCode)
			}
			fmt.Printf("%s\t%s\t%s\n", info.Handle, state, info.Caption)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <command>",
	Short: "Create and start a session running a shell command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()

		pty, _ := cmd.Flags().GetBool("pty")
		caption, _ := cmd.Flags().GetString("caption")

		c := apiClient()
		info, err := c.CreateSession(ctx, types.CreateSessionRequest{
			Command: args[0],
			Caption: caption,
			Pty:     pty,
		})
		if err != nil {
			return err
		}
		if err := c.StartSession(ctx, info.Handle); err != nil {
			return err
		}
		fmt.Println(info.Handle)
		return nil
	},
}

var terminalCmd = &cobra.Command{
	Use:   "terminal [handle]",
	Short: "Create a terminal session, or reattach to a running one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()

		req := types.ReattachTerminalRequest{Cols: 80, Rows: 25}
		if len(args) == 1 {
			req.Handle = args[0]
			req.AllowRestart = true
		}

		c := apiClient()
		info, err := c.CreateTerminal(ctx, req)
		if err != nil {
			return err
		}
		if err := c.StartSession(ctx, info.Handle); err != nil {
			return err
		}
		fmt.Println(info.Handle)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <handle> <text>",
	Short: "Send a line of input to a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()

		echo, _ := cmd.Flags().GetBool("echo")
		return apiClient().WriteStdin(ctx, args[0], types.WriteStdinRequest{
			Text:      args[1] + "\n",
			EchoInput: echo,
		})
	},
}

var interruptCmd = &cobra.Command{
	Use:   "interrupt <handle>",
	Short: "Request termination of a session's process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()
		return apiClient().InterruptSession(ctx, args[0])
	},
}

var resizeCmd = &cobra.Command{
	Use:   "resize <handle> <cols> <rows>",
	Short: "Change a session's terminal dimensions",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()

		var cols, rows int
		if _, err := fmt.Sscanf(args[1]+" "+args[2], "%d %d", &cols, &rows); err != nil {
			return fmt.Errorf("cols and rows must be integers")
		}
		return apiClient().SetSize(ctx, args[0], cols, rows)
	},
}

var bufferCmd = &cobra.Command{
	Use:   "buffer <handle>",
	Short: "Print a session's buffered output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()

		if erase, _ := cmd.Flags().GetBool("erase"); erase {
			return apiClient().EraseBuffer(ctx, args[0])
		}
		buf, err := apiClient().GetBuffer(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(buf)
		return nil
	},
}

var captionCmd = &cobra.Command{
	Use:   "caption <handle> <text>",
	Short: "Set a session's caption",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()
		return apiClient().SetCaption(ctx, args[0], args[1])
	},
}

var titleCmd = &cobra.Command{
	Use:   "title <handle> <text>",
	Short: "Set a session's title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()
		return apiClient().SetTitle(ctx, args[0], args[1])
	},
}

var reapCmd = &cobra.Command{
	Use:   "reap <handle>",
	Short: "Remove a session and delete its persisted output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := apiContext()
		defer cancel()
		return apiClient().ReapSession(ctx, args[0])
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Output as JSON")
	runCmd.Flags().Bool("pty", false, "Allocate a pseudo-terminal")
	runCmd.Flags().String("caption", "", "Session caption")
	writeCmd.Flags().Bool("echo", true, "Echo the input into the session buffer")
	bufferCmd.Flags().Bool("erase", false, "Erase the buffer instead of printing it")

	rootCmd.AddCommand(listCmd, runCmd, terminalCmd, writeCmd,
		interruptCmd, resizeCmd, captionCmd, titleCmd, bufferCmd, reapCmd)
}
