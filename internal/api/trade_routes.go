package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/janda5134-web/solana-signer/internal/models"
	"github.com/janda5134-web/solana-signer/internal/trader"
)

const (
	headerTimestamp = "X-Timestamp"
	headerSign      = "X-Sign"
	headerRequestID = "X-Request-ID"
)

type tradeResponse struct {
	OK     bool   `json:"ok"`
	Tx     string `json:"tx"`
	Pubkey string `json:"pubkey"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set(headerRequestID, reqID)
	logger := log.WithFields(log.Fields{"component": "api", "request_id": reqID})

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return
		}
		logger.WithError(err).Error("read request body")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("read body: %v", err))
		return
	}

	started := time.Now()
	res, err := s.trader.Execute(r.Context(), &models.TradeRequest{
		RawBody:   body,
		Timestamp: r.Header.Get(headerTimestamp),
		Signature: r.Header.Get(headerSign),
	})
	if err != nil {
		kind := trader.KindOf(err)
		s.metrics.observe(kind.String(), started)
		if kind == trader.KindInternal {
			logger.WithError(err).Error("trade failed")
		} else {
			logger.WithField("reason", kind.String()).Info("trade rejected")
		}
		writeError(w, statusFor(kind), trader.CodeOf(err))
		return
	}

	s.metrics.observe("ok", started)
	logger.WithField("tx", res.Tx).Info("trade executed")
	writeJSON(w, http.StatusOK, tradeResponse{OK: true, Tx: res.Tx, Pubkey: res.Pubkey})
}

func statusFor(kind trader.Kind) int {
	switch kind {
	case trader.KindBadAuthentication:
		return http.StatusUnauthorized
	case trader.KindBadRequestBody:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
