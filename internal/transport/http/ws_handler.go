package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pixelhunt/internal/app"
)

type WSHandler struct {
	service   *app.GameService
	upgrader  websocket.Upgrader
	tickEvery time.Duration
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickEvery: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and plays one game over the
// connection. All writes go through a single writer goroutine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		http.Error(w, "missing gameId", http.StatusBadRequest)
		return
	}
	initial, err := h.service.Get(r.Context(), gameID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("game", gameID).Msg("ws write failed")
				return
			}
		}
	}()

	// push gives up once the writer is gone so no sender blocks forever.
	push := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(tickerDone)
		if !h.service.IsTimed(gameID) {
			return
		}
		ticker := time.NewTicker(h.tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				view, _, err := h.service.Tick(r.Context(), gameID)
				if err != nil {
					return
				}
				select {
				case send <- outboundMessage{Type: "state", Payload: view}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
				if view.Finished {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push(outboundMessage{Type: "state", Payload: initial})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !push(h.dispatch(r, gameID, inbound)) {
			break
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, gameID string, in inboundMessage) outboundMessage {
	ctx := r.Context()
	switch in.Type {
	case "guess":
		var payload guessRequest
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return errorMessage("invalid guess payload")
		}
		out, err := h.service.Guess(ctx, gameID, payload.Guess)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage{Type: "guessResult", Payload: out}
	case "reveal":
		var payload revealRequest
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return errorMessage("invalid reveal payload")
		}
		view, err := h.service.RevealCell(ctx, gameID, payload.X, payload.Y, payload.Width, payload.Height)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage{Type: "state", Payload: view}
	case "skip":
		view, err := h.service.Skip(ctx, gameID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage{Type: "state", Payload: view}
	case "state":
		view, err := h.service.Get(ctx, gameID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage{Type: "state", Payload: view}
	default:
		return errorMessage("unsupported message type")
	}
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: "error", Payload: map[string]string{"message": msg}}
}
