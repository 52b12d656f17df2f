// Package websocket is the gateway between UI clients and the session
// pipeline. Requests arrive as JSON envelopes on text frames; recorded
// audio arrives on the binary frame following its announcing envelope, and
// synthesized replies leave the same way.
package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"voicechat/core"
	"voicechat/protocol"
	"voicechat/session"
	"voicechat/utils/audio"
)

type Gateway struct {
	manager  *session.Manager
	upgrader websocket.Upgrader
	logger   *core.Logger
}

func NewGateway(manager *session.Manager, logger *core.Logger) *Gateway {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Gateway{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(map[string]any{"component": "ws_gateway"}),
	}
}

// ServeHTTP upgrades the request and runs the connection loop until the
// client goes away.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", "error", err)
		return
	}
	c := &connection{
		conn:    conn,
		gateway: g,
		logger:  g.logger.With(map[string]any{"remote": conn.RemoteAddr().String()}),
	}
	c.run(r.Context())
}

// connection handles one client. Frames are processed one at a time in
// arrival order, so a client's submissions are naturally serialized; the
// per-session lock covers clients sharing a session across connections.
type connection struct {
	conn    *websocket.Conn
	gateway *Gateway
	logger  *core.Logger

	writeMu sync.Mutex // one writer at a time

	// pendingAudio holds the announced audio submission until its binary
	// frame arrives.
	pendingAudio *protocol.SubmitAudioPayload
}

func (c *connection) run(ctx context.Context) {
	defer c.conn.Close()
	c.logger.Info("client connected")

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.Info("client disconnected", "error", err)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			c.handleEnvelope(ctx, data)
		case websocket.BinaryMessage:
			c.handleBinary(ctx, data)
		}
	}
}

func (c *connection) handleEnvelope(ctx context.Context, data []byte) {
	msgType, payload, err := protocol.Unmarshal(data)
	if err != nil {
		c.sendError(protocol.CodeBadRequest, err.Error())
		return
	}

	switch msgType {
	case protocol.MsgInitSession:
		c.handleInitSession()

	case protocol.MsgSubmitText:
		p, err := protocol.UnmarshalPayload[protocol.SubmitTextPayload](payload)
		if err != nil {
			c.sendError(protocol.CodeBadRequest, err.Error())
			return
		}
		c.handleSubmitText(ctx, p)

	case protocol.MsgSubmitAudio:
		p, err := protocol.UnmarshalPayload[protocol.SubmitAudioPayload](payload)
		if err != nil {
			c.sendError(protocol.CodeBadRequest, err.Error())
			return
		}
		if p.Encoding == "" {
			p.Encoding = protocol.EncodingPCM16
		}
		c.pendingAudio = &p

	case protocol.MsgGetHistory:
		p, err := protocol.UnmarshalPayload[protocol.GetHistoryPayload](payload)
		if err != nil {
			c.sendError(protocol.CodeBadRequest, err.Error())
			return
		}
		c.handleGetHistory(p)

	case protocol.MsgSetSpeech:
		p, err := protocol.UnmarshalPayload[protocol.SetSpeechPayload](payload)
		if err != nil {
			c.sendError(protocol.CodeBadRequest, err.Error())
			return
		}
		c.handleSetSpeech(p)

	case protocol.MsgDiscardSession:
		p, err := protocol.UnmarshalPayload[protocol.DiscardSessionPayload](payload)
		if err != nil {
			c.sendError(protocol.CodeBadRequest, err.Error())
			return
		}
		c.gateway.manager.Discard(p.SessionID)

	default:
		c.sendError(protocol.CodeBadRequest, "unknown message type "+string(msgType))
	}
}

func (c *connection) handleInitSession() {
	sess, err := c.gateway.manager.InitializeSession()
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.sendEnvelope(protocol.MsgSession, protocol.SessionPayload{
		SessionID:     sess.ID(),
		SpeechEnabled: sess.SpeechEnabled(),
	})
}

func (c *connection) handleSubmitText(ctx context.Context, p protocol.SubmitTextPayload) {
	sess, err := c.gateway.manager.Get(p.SessionID)
	if err != nil {
		c.sendError(protocol.CodeUnknownSession, p.SessionID)
		return
	}

	result, err := sess.SubmitText(ctx, p.Text)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.sendReply(p.SessionID, result)
}

// handleBinary completes an announced audio submission with the recorded
// samples. Encodings other than raw PCM are converted here, before the
// normalizer; the core normalize contract stays raw-PCM only.
func (c *connection) handleBinary(ctx context.Context, data []byte) {
	if c.pendingAudio == nil {
		c.sendError(protocol.CodeBadRequest, "binary frame without a submit_audio envelope")
		return
	}
	p := *c.pendingAudio
	c.pendingAudio = nil

	sess, err := c.gateway.manager.Get(p.SessionID)
	if err != nil {
		c.sendError(protocol.CodeUnknownSession, p.SessionID)
		return
	}

	pcm, err := decodeSamples(data, p.Encoding)
	if err != nil {
		c.sendServiceError(err)
		return
	}

	result, err := sess.SubmitAudio(ctx, pcm)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.sendReply(p.SessionID, result)
}

func decodeSamples(data []byte, encoding protocol.AudioEncoding) ([]byte, error) {
	switch encoding {
	case protocol.EncodingPCM16:
		return data, nil
	case protocol.EncodingWAV:
		return audio.StripWAVHeaderIfPresent(data)
	case protocol.EncodingUlaw:
		return audio.DecodeUlawToPCM(data), nil
	case protocol.EncodingAlaw:
		return audio.DecodeAlawToPCM(data), nil
	default:
		return nil, errors.New("unsupported audio encoding " + string(encoding))
	}
}

func (c *connection) handleGetHistory(p protocol.GetHistoryPayload) {
	sess, err := c.gateway.manager.Get(p.SessionID)
	if err != nil {
		c.sendError(protocol.CodeUnknownSession, p.SessionID)
		return
	}

	history := sess.History()
	turns := make([]protocol.HistoryTurn, 0, len(history))
	for _, t := range history {
		turns = append(turns, protocol.HistoryTurn{Role: string(t.Role), Content: t.Content})
	}
	c.sendEnvelope(protocol.MsgHistory, protocol.HistoryPayload{
		SessionID: p.SessionID,
		Turns:     turns,
	})
}

func (c *connection) handleSetSpeech(p protocol.SetSpeechPayload) {
	sess, err := c.gateway.manager.Get(p.SessionID)
	if err != nil {
		c.sendError(protocol.CodeUnknownSession, p.SessionID)
		return
	}
	sess.SetSpeechEnabled(p.Enabled)
	c.sendEnvelope(protocol.MsgSpeech, protocol.SpeechPayload{
		SessionID: p.SessionID,
		Enabled:   p.Enabled,
	})
}

// sendReply writes the reply envelope and, when the reply was synthesized,
// the WAV image on the following binary frame.
func (c *connection) sendReply(sessionID string, result session.TurnResult) {
	payload := protocol.ReplyPayload{
		SessionID:       sessionID,
		TranscribedText: result.TranscribedText,
		ReplyText:       result.ReplyText,
		Warning:         result.Warning,
		HasAudio:        result.ReplyAudio != nil,
	}

	data, err := protocol.Marshal(protocol.MsgReply, payload)
	if err != nil {
		c.logger.Error("marshal reply", "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Warn("write reply", "error", err)
		return
	}
	if result.ReplyAudio != nil {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, result.ReplyAudio.Data); err != nil {
			c.logger.Warn("write reply audio", "error", err)
		}
	}
}

func (c *connection) sendEnvelope(msgType protocol.MessageType, payload interface{}) {
	data, err := protocol.Marshal(msgType, payload)
	if err != nil {
		c.logger.Error("marshal envelope", "type", string(msgType), "error", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Warn("write envelope", "type", string(msgType), "error", err)
	}
}

func (c *connection) sendError(code, message string) {
	c.sendEnvelope(protocol.MsgError, protocol.ErrorPayload{Code: code, Message: message})
}

// sendServiceError maps a pipeline error onto its protocol code.
func (c *connection) sendServiceError(err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAudioFormat):
		c.sendError(protocol.CodeInvalidAudioFormat, err.Error())
	case errors.Is(err, core.ErrInvalidTurn):
		c.sendError(protocol.CodeInvalidTurn, err.Error())
	case core.IsSpeechServiceError(err):
		c.sendError(protocol.CodeSpeechService, err.Error())
	case core.IsCompletionServiceError(err):
		c.sendError(protocol.CodeCompletionService, err.Error())
	case core.IsConfigurationError(err):
		c.sendError(protocol.CodeConfiguration, err.Error())
	default:
		c.sendError(protocol.CodeInternal, err.Error())
	}
}
