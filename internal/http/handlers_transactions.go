package http

import (
	"net/http"

	"budgethelper/internal/core"
	"budgethelper/internal/services"
)

// transactionRoute reads the user id and transaction type shared by every
// transaction endpoint, writing the error response itself on failure.
func transactionRoute(w http.ResponseWriter, r *http.Request, op string) (int64, core.TransactionType, bool) {
	userID, err := ParseUserID(r)
	if err != nil {
		writeError(r.Context(), w, op, err)
		return 0, "", false
	}
	t, err := ParseTypeParam(r)
	if err != nil {
		writeError(r.Context(), w, op, err)
		return 0, "", false
	}
	return userID, t, true
}

func transactionInput(p *RequestBodyParser, userID int64, t core.TransactionType) services.TransactionInput {
	return services.TransactionInput{
		UserID:      userID,
		Type:        t,
		Amount:      p.Get("amount"),
		CategoryID:  p.Get("category_id"),
		Description: p.Get("description"),
		Currency:    p.Get("currency"),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, t, ok := transactionRoute(w, r, "list_transactions")
	if !ok {
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), userID, t)
	if err != nil {
		writeError(r.Context(), w, "list_transactions", err)
		return
	}
	NewResponse().JSON(newTransactionList(txs)).Write(w)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	userID, t, ok := transactionRoute(w, r, "record_transaction")
	if !ok {
		return
	}
	p := ParseBodyOrFail(w, r)
	if p == nil {
		return
	}

	tx, err := s.deps.Transactions.Record(r.Context(), transactionInput(p, userID, t))
	if err != nil {
		writeError(r.Context(), w, "record_transaction", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newTransactionResponse(tx)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, t, ok := transactionRoute(w, r, "get_transaction")
	if !ok {
		return
	}
	tx, err := s.deps.Transactions.Get(r.Context(), userID, t, r.PathValue("txID"))
	if err != nil {
		writeError(r.Context(), w, "get_transaction", err)
		return
	}
	NewResponse().JSON(newTransactionResponse(tx)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, t, ok := transactionRoute(w, r, "update_transaction")
	if !ok {
		return
	}
	p := ParseBodyOrFail(w, r)
	if p == nil {
		return
	}

	tx, err := s.deps.Transactions.Update(r.Context(), r.PathValue("txID"), transactionInput(p, userID, t))
	if err != nil {
		writeError(r.Context(), w, "update_transaction", err)
		return
	}
	NewResponse().JSON(newTransactionResponse(tx)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, t, ok := transactionRoute(w, r, "delete_transaction")
	if !ok {
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), userID, t, r.PathValue("txID")); err != nil {
		writeError(r.Context(), w, "delete_transaction", err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
