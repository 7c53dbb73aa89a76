package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/transactions"
)

func (s *Server) ListTransactionsHandler() http.HandlerFunc {
	type response struct {
		Transactions []transactions.Transaction `json:"transactions"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityIDFromContext(r.Context())
		if !ok {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		listed, err := s.transactions.ListByUser(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Transactions: listed})
	}
}

func (s *Server) CreateTransactionHandler() http.HandlerFunc {
	type request struct {
		Kind         transactions.Kind `json:"kind"`
		AmountCents  int64             `json:"amountCents"`
		Counterparty string            `json:"counterparty"`
		Note         string            `json:"note"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityIDFromContext(r.Context())
		if !ok {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed transaction request")
			return
		}
		if !transactions.ValidKind(req.Kind) {
			writeBadRequest(w, "unknown transaction kind")
			return
		}
		if req.AmountCents <= 0 {
			writeBadRequest(w, "amount must be positive")
			return
		}

		txn := &transactions.Transaction{
			ID:           uuid.New().String(),
			UserID:       id,
			Kind:         req.Kind,
			AmountCents:  req.AmountCents,
			Counterparty: req.Counterparty,
			Note:         req.Note,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.transactions.Create(r.Context(), txn); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, txn)
	}
}
