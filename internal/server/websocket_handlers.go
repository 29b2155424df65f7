package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WebSocketOCRRequest is a client message on /ws/ocr. Image is sent as a
// base64 JSON string, which encoding/json maps to bytes.
type WebSocketOCRRequest struct {
	Type     string `json:"type"` // "image"
	Image    []byte `json:"image,omitempty"`
	Filename string `json:"filename,omitempty"`
	MaxKB    string `json:"max_kb,omitempty"`
	Feature  string `json:"feature,omitempty"`
	Language string `json:"language,omitempty"`
}

// UnmarshalJSON accepts max_kb as a number or a string.
func (r *WebSocketOCRRequest) UnmarshalJSON(data []byte) error {
	type plain WebSocketOCRRequest
	aux := struct {
		*plain
		MaxKB json.RawMessage `json:"max_kb,omitempty"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.MaxKB) == 0 || string(aux.MaxKB) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(aux.MaxKB, &n); err == nil {
		r.MaxKB = n.String()
		return nil
	}
	return json.Unmarshal(aux.MaxKB, &r.MaxKB)
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketOCRResponse is a server message on /ws/ocr.
type WebSocketOCRResponse struct {
	Type      string       `json:"type"`
	Status    string       `json:"status"` // "processing", "completed", "error"
	Progress  float64      `json:"progress,omitempty"`
	Result    *scan.Result `json:"result,omitempty"`
	Message   string       `json:"message,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorType string       `json:"error_type,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return s.corsOrigin == "*" || origin == "" || origin == s.corsOrigin
		},
	}
}

// ocrWebSocketHandler handles WebSocket connections for streaming analysis.
func (s *Server) ocrWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn, getClientIP(r))
}

// handleWebSocketConnection processes messages until the client goes away.
// Every image message is charged to clientIP.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn, clientIP string) {
	conn.SetReadLimit(s.maxUploadBytes()*4/3 + 4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, clientIP, data)
		}
	}
}

// handleWebSocketMessage processes one request message.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, clientIP string, data []byte) {
	var req WebSocketOCRRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	switch req.Type {
	case "image":
		s.processWebSocketImage(ctx, conn, clientIP, req, requestID)
	default:
		s.sendWebSocketError(conn, requestID, "invalid_request", "Unsupported request type: "+req.Type)
	}
}

// processWebSocketImage analyzes one image and reports progress.
func (s *Server) processWebSocketImage(ctx context.Context, conn WebSocketConnWriter, clientIP string,
	req WebSocketOCRRequest, requestID string,
) {
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", "No image data provided")
		return
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.CheckRateLimit(clientIP, int64(len(req.Image))); err != nil {
			slog.Warn("WebSocket request rejected", "client", clientIP, "error", err)
			s.sendWebSocketError(conn, requestID, "rate_limited", err.Error())
			return
		}
	}

	opts, err := s.requestOptions(req.MaxKB, req.Feature, req.Language)
	if err != nil {
		s.sendWebSocketError(conn, requestID, "invalid_request", err.Error())
		return
	}

	s.sendWebSocketResponse(conn, WebSocketOCRResponse{
		Type:      "ocr_response",
		Status:    "processing",
		Message:   scan.AnalyzingMessage,
		RequestID: requestID,
	})

	name := req.Filename
	if name == "" {
		name = "websocket-" + requestID
	}

	actx, cancel := s.requestContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := s.analyze(actx, opts, name, req.Image)
	duration := time.Since(start)

	if err != nil {
		observeAnalysis("websocket_image", "error", 0, 0)
		errType := "processing_error"
		if statusForError(err) == http.StatusBadRequest {
			errType = "invalid_request"
		} else if errors.Is(err, context.DeadlineExceeded) {
			errType = "timeout"
		}
		s.sendWebSocketError(conn, requestID, errType, scan.UserMessage(err))
		return
	}

	status := "success"
	response := WebSocketOCRResponse{
		Type:      "ocr_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    res,
		RequestID: requestID,
	}
	if res.NoText {
		status = "no_text"
		response.Message = scan.NoTextMessage
	}
	observeAnalysis("websocket_image", status, duration.Seconds(), len(res.Text))

	s.sendWebSocketResponse(conn, response)
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketOCRResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketOCRResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
