package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/openconsole/openconsole/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // auth happens at the API-key layer
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

const eventWriteTimeout = 5 * time.Second

// eventsWebSocket streams session events (output, prompts, exits, child
// process presence) to the client until it disconnects.
func (s *Server) eventsWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ch := s.events.On("*")
	defer s.events.Off("*", ch)

	// drain client frames so close is noticed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if len(ev.Args) == 0 {
				continue
			}
			payload, ok := ev.Args[0].(types.Event)
			if !ok {
				continue
			}
			ws.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := ws.WriteJSON(payload); err != nil {
				s.log.WithError(err).Debug("event stream closed")
				return nil
			}
		}
	}
}
