package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"telegram-merchant-commerce/internal/domain"
	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/infra/logging"
	"telegram-merchant-commerce/internal/usecase"
)

// flexString accepts a JSON string or number and keeps it as text. Provider
// payloads carry 64-bit charge references that some stacks emit as numbers;
// converting at this boundary keeps big integers out of the core entirely.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// paymentWebhookRequest is the provider's payment-completed notification.
type paymentWebhookRequest struct {
	ChargeRef  flexString      `json:"charge_ref"`
	UserID     string          `json:"user_id"`
	ServiceID  string          `json:"service_id"`
	TierID     string          `json:"tier_id"`
	MerchantID string          `json:"merchant_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

func (s *Server) paymentWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if sig := r.Header.Get("X-Signature"); !VerifyWebhookSignature(s.hmacSecret, body, sig) {
			s.log.Warn().Str("signature", logging.Redact(sig, false)).Msg("webhook signature rejected")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req paymentWebhookRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		ctx = logging.WithChargeRef(ctx, string(req.ChargeRef))
		ctx = logging.WithUserID(ctx, req.UserID)
		ctx = logging.WithMerchantID(ctx, req.MerchantID)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logging.WithTraceID(ctx, reqID)
		}
		log := logging.With(ctx, s.log)

		outcome, err := s.reconcileUC.Reconcile(ctx, &model.PaymentEvent{
			ChargeRef:   string(req.ChargeRef),
			UserID:      req.UserID,
			ServiceID:   req.ServiceID,
			TierID:      req.TierID,
			MerchantID:  req.MerchantID,
			GrossAmount: req.Amount,
			Currency:    req.Currency,
		})
		if err != nil {
			// Hard failure after the retry ceiling: the provider's own
			// webhook retry gets another chance later.
			log.Error().Err(err).Msg("reconcile failed")
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		switch outcome.Result {
		case usecase.ResultApplied, usecase.ResultDuplicate:
			writeJSON(w, http.StatusOK, map[string]string{"status": string(outcome.Result)})
		default:
			if outcome.Reason == usecase.ReasonMalformed {
				writeJSON(w, http.StatusBadRequest, map[string]string{"status": "rejected", "reason": outcome.Reason})
				return
			}
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"status": "rejected", "reason": outcome.Reason})
		}
	}
}

func (s *Server) merchantBalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchantID")
		bal, err := s.ledgerUC.Balance(r.Context(), merchantID)
		if err != nil {
			http.Error(w, "Failed to get balance", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"merchant_id": merchantID,
			"balance":     bal.StringFixed(2),
		})
	}
}

func (s *Server) merchantLedgerHandler() http.HandlerFunc {
	type entryResponse struct {
		ID           string     `json:"id"`
		Amount       string     `json:"amount"`
		Type         string     `json:"type"`
		Description  string     `json:"description"`
		BalanceAfter string     `json:"balance_after"`
		PaymentID    *string    `json:"payment_id,omitempty"`
		CreatedAt    time.Time  `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchantID")
		entries, err := s.ledgerUC.Entries(r.Context(), merchantID, 100)
		if err != nil {
			http.Error(w, "Failed to list ledger", http.StatusInternalServerError)
			return
		}
		out := make([]entryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, entryResponse{
				ID:           e.ID,
				Amount:       e.Amount.StringFixed(2),
				Type:         string(e.Type),
				Description:  e.Description,
				BalanceAfter: e.BalanceAfter.StringFixed(2),
				PaymentID:    e.PaymentID,
				CreatedAt:    e.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) subscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		serviceID := r.URL.Query().Get("service_id")
		if userID == "" || serviceID == "" {
			http.Error(w, "user_id and service_id are required", http.StatusBadRequest)
			return
		}
		sub, err := s.subsUC.Get(r.Context(), userID, serviceID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Not Found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to get subscription", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func (s *Server) refundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID := chi.URLParam(r, "paymentID")
		p, err := s.reconcileUC.Refund(r.Context(), paymentID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Not Found", http.StatusNotFound)
			case errors.Is(err, domain.ErrInvalidTransition):
				http.Error(w, "Payment is not refundable", http.StatusConflict)
			default:
				http.Error(w, "Refund failed", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"payment_id": p.ID, "status": string(p.Status)})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
