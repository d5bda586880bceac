// internal/api/handler/statement.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finledger/internal/api/middleware"
	"finledger/internal/api/types"
	"finledger/internal/domain"
	"finledger/internal/service"
	"finledger/internal/util"
)

// StatementHandler handles HTTP requests related to statements and balances.
type StatementHandler struct {
	service service.LedgerService
	logger  *zap.Logger
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(svc service.LedgerService, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{
		service: svc,
		logger:  logger,
	}
}

// StatementResponse is the wire form of a statement. Amounts are fixed-point strings.
type StatementResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SenderID    *string   `json:"sender_id,omitempty"`
	TransferID  *string   `json:"transfer_id,omitempty"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newStatementResponse(st *domain.Statement) StatementResponse {
	resp := StatementResponse{
		ID:          st.ID.String(),
		UserID:      st.UserID.String(),
		Description: st.Description,
		Amount:      st.Amount.StringFixed(domain.AmountScale),
		Type:        string(st.Type),
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
	if st.SenderID != nil {
		s := st.SenderID.String()
		resp.SenderID = &s
	}
	if st.TransferID != nil {
		s := st.TransferID.String()
		resp.TransferID = &s
	}
	return resp
}

func newStatementResponses(sts []domain.Statement) []StatementResponse {
	out := make([]StatementResponse, 0, len(sts))
	for i := range sts {
		out = append(out, newStatementResponse(&sts[i]))
	}
	return out
}

// BalanceResponse is the body of the balance endpoint.
type BalanceResponse struct {
	Statement []StatementResponse `json:"statement"`
	Balance   string              `json:"balance"`
}

// OperationRequest represents the request body for deposits, withdrawals and transfers.
type OperationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func decodeOperation(r *http.Request) (OperationRequest, error) {
	var req OperationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return req, util.NewError("decode request", util.KindInvalidInput, err)
	}
	return req, nil
}

// GetBalance returns the user's statements and current balance.
// GET /api/v1/statements/balance
func (h *StatementHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, h.logger, util.ErrInvalidToken)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, r, http.StatusOK, BalanceResponse{
		Statement: newStatementResponses(balance.Statements),
		Balance:   balance.Balance.StringFixed(domain.AmountScale),
	})
}

// Deposit handles the deposit request.
// POST /api/v1/statements/deposit
func (h *StatementHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.createStatement(w, r, domain.OperationTypeDeposit)
}

// Withdraw handles the withdraw request.
// POST /api/v1/statements/withdraw
func (h *StatementHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.createStatement(w, r, domain.OperationTypeWithdraw)
}

func (h *StatementHandler) createStatement(w http.ResponseWriter, r *http.Request, opType domain.OperationType) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, h.logger, util.ErrInvalidToken)
		return
	}

	req, err := decodeOperation(r)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	statement, err := h.service.CreateStatement(r.Context(), service.CreateStatementInput{
		UserID:      userID,
		Type:        opType,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, newStatementResponse(statement))
}

// Transfer handles the transfer request. The authenticated user is the sender.
// POST /api/v1/statements/transfer/{receiverID}
func (h *StatementHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, h.logger, util.ErrInvalidToken)
		return
	}

	receiverParam := chi.URLParam(r, "receiverID")
	if receiverParam == "" {
		h.MissingReceiver(w, r)
		return
	}
	// A receiver id that cannot name any user is reported as an unknown user.
	receiverID, err := uuid.Parse(receiverParam)
	if err != nil {
		respondWithError(w, r, h.logger, util.NewError("create transfer", util.KindUserNotFound, nil))
		return
	}

	req, err := decodeOperation(r)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	credit, err := h.service.CreateTransfer(r.Context(), service.CreateTransferInput{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, newStatementResponse(credit))
}

// MissingReceiver rejects a transfer without a receiver.
// POST /api/v1/statements/transfer
func (h *StatementHandler) MissingReceiver(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, h.logger, util.NewError("create transfer", util.KindInvalidReceiver, errors.New("receiver id is required")))
}

// GetStatementOperation returns one of the user's statements.
// GET /api/v1/statements/{statementID}
func (h *StatementHandler) GetStatementOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, h.logger, util.ErrInvalidToken)
		return
	}

	statementID, err := uuid.Parse(chi.URLParam(r, "statementID"))
	if err != nil {
		respondWithError(w, r, h.logger, util.NewError("get statement operation", util.KindStatementNotFound, nil))
		return
	}

	statement, err := h.service.GetStatementOperation(r.Context(), userID, statementID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, newStatementResponse(statement))
}

// GetStatementHistory handles the paginated history request.
// GET /api/v1/statements?limit=&offset=
func (h *StatementHandler) GetStatementHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, h.logger, util.ErrInvalidToken)
		return
	}

	// Parse query parameters for pagination
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = service.DefaultHistoryLimit
	}
	if limit > service.MaxHistoryLimit {
		limit = service.MaxHistoryLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	statements, total, err := h.service.GetStatementHistory(r.Context(), userID, limit, offset)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, r, http.StatusOK, types.PaginatedResponse[StatementResponse]{
		Data:       newStatementResponses(statements),
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}
