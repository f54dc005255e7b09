package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/openconsole/openconsole/pkg/types"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow the daemon's session event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/events"

		header := http.Header{}
		if apiKey != "" {
			header.Set("X-API-Key", apiKey)
		}

		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", wsURL, err)
		}
		defer conn.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		go func() {
			<-sigCh
			conn.Close()
		}()

		for {
			var ev types.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return nil
			}
			line, _ := json.Marshal(ev)
			fmt.Println(string(line))
		}
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
