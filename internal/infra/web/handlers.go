package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-exchange-assistant/internal/domain"
	"telegram-exchange-assistant/internal/domain/model"
	"telegram-exchange-assistant/internal/infra/logging"
	"telegram-exchange-assistant/internal/infra/worker"
)

const (
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxBodyBytes      = 1 << 20
)

var validate = validator.New()

type broadcastRequest struct {
	ChatID  int64  `json:"chat_id,string" validate:"required"`
	Message string `json:"message" validate:"required,max=4096"`
}

type messageResponse struct {
	MessageID int `json:"message_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.opts.WebhookSecret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.WebhookSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "bad secret token")
			return
		}
	}

	var up tgbotapi.Update
	if err := decodeJSON(r, &up); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}

	if err := s.updates.Enqueue(up); err != nil {
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Int("update_id", up.UpdateID).Msg("update not queued")
		// Telegram redelivers on non-2xx.
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrPoolStopped) {
			writeError(w, http.StatusServiceUnavailable, "busy")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.opts.Checks))
	healthy := true
	for name, p := range s.opts.Checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	msg := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		msg = "degraded"
	}
	writeJSON(w, status, struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}{msg, checks})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	id, err := s.accounts.Broadcast(r.Context(), req.ChatID, req.Message)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{MessageID: id})
}

func (s *Server) handleExchangeRateMsg(w http.ResponseWriter, r *http.Request) {
	sent, err := s.rates.BroadcastRequest(r.Context())
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		Sent    int    `json:"sent"`
	}{"success", sent})
}

func (s *Server) handlePaymentAccount(send func(context.Context, model.PaymentAccountRequest) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.PaymentAccountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "session_id, customer_id, group_id and currencies are required")
			return
		}

		id, err := send(r.Context(), req)
		if err != nil {
			s.writeUseCaseError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{MessageID: id})
	}
}

func (s *Server) handleCheckReceipt(w http.ResponseWriter, r *http.Request) {
	var req model.ReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "session_id, customer_id, group_id, file_id and file_name are required")
		return
	}

	id, err := s.payments.CheckReceipt(r.Context(), req)
	if err != nil {
		s.writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{MessageID: id})
}

// writeUseCaseError maps domain and Bot API errors onto HTTP statuses.
func (s *Server) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var tgErr *tgbotapi.Error
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "chat group not found")
	case errors.As(err, &tgErr):
		writeError(w, http.StatusBadRequest, tgErr.Message)
	case errors.Is(err, domain.ErrUpstream):
		s.logError(r, err)
		writeError(w, http.StatusBadGateway, "assistant unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout")
	default:
		s.logError(r, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logError(r *http.Request, err error) {
	l := logging.With(r.Context(), s.log)
	l.Error().Err(err).Str("path", r.URL.Path).Msg("api call failed")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
