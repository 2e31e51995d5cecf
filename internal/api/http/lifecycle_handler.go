package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
	"github.com/EviewNicks/rental-baju-sub002/internal/engine"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
)

// PickupProcessor is the pickup surface the handler consumes.
type PickupProcessor interface {
	ProcessPickup(ctx context.Context, req *domain.PickupRequest) (*engine.PickupResult, error)
}

// ReturnProcessor is the return surface the handler consumes.
type ReturnProcessor interface {
	ProcessReturn(ctx context.Context, req *domain.ReturnRequest) (*engine.ReturnResult, error)
}

// LifecycleHandler exposes the pickup/return engines over HTTP. Validation
// failures map to 400, conflicts to 409, retryable infrastructure failures to
// 503 with a generic retry message.
type LifecycleHandler struct {
	pickup  PickupProcessor
	returns ReturnProcessor
	store   repository.TransactionStore
}

func NewLifecycleHandler(pickup PickupProcessor, returns ReturnProcessor, store repository.TransactionStore) *LifecycleHandler {
	return &LifecycleHandler{pickup: pickup, returns: returns, store: store}
}

// RegisterLifecycleRoutes wires the lifecycle endpoints onto the router.
func RegisterLifecycleRoutes(r *mux.Router, h *LifecycleHandler) {
	r.HandleFunc("/api/transactions/{id}/pickup", h.HandlePickup).Methods(http.MethodPost)
	r.HandleFunc("/api/transactions/{id}/return", h.HandleReturn).Methods(http.MethodPost)
	r.HandleFunc("/api/transactions/{id}", h.HandleGet).Methods(http.MethodGet)
}

type pickupLineDTO struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type pickupRequestDTO struct {
	Items []pickupLineDTO `json:"items"`
}

type conditionDTO struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type returnItemDTO struct {
	ItemID     string         `json:"itemId"`
	Conditions []conditionDTO `json:"conditions"`
}

type returnRequestDTO struct {
	Items            []returnItemDTO `json:"items"`
	ActualReturnTime *time.Time      `json:"actualReturnTime,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

type findingDTO struct {
	Severity domain.Severity `json:"severity"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	ItemID   string          `json:"itemId,omitempty"`
}

type responseDTO struct {
	Success  bool         `json:"success"`
	Findings []findingDTO `json:"findings,omitempty"`
	Result   any          `json:"result,omitempty"`
	Message  string       `json:"message,omitempty"`
}

func toFindingDTOs(findings []domain.Finding) []findingDTO {
	out := make([]findingDTO, 0, len(findings))
	for _, f := range findings {
		out = append(out, findingDTO{Severity: f.Severity, Code: f.Code, Message: f.Message, ItemID: f.ItemID})
	}
	return out
}

// HandlePickup processes a pickup batch for one transaction.
func (h *LifecycleHandler) HandlePickup(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["id"]

	var dto pickupRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, responseDTO{Success: false, Message: "invalid request body"})
		return
	}

	req := &domain.PickupRequest{TransactionID: transactionID}
	for _, l := range dto.Items {
		req.Lines = append(req.Lines, domain.PickupLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	result, err := h.pickup.ProcessPickup(r.Context(), req)
	if err != nil {
		writeEngineError(w, transactionID, err)
		return
	}

	body := responseDTO{Success: result.Success, Findings: toFindingDTOs(result.Findings)}
	if result.Success {
		body.Result = map[string]any{
			"transaction": result.Transaction,
			"items":       result.Items,
		}
		writeJSON(w, http.StatusOK, body)
		return
	}
	writeJSON(w, failureStatus(result.Findings), body)
}

// HandleReturn processes a return request for one transaction. Condition
// classification happens here, at the input boundary.
func (h *LifecycleHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["id"]

	var dto returnRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, responseDTO{Success: false, Message: "invalid request body"})
		return
	}

	req := &domain.ReturnRequest{
		TransactionID:    transactionID,
		ActualReturnTime: dto.ActualReturnTime,
		Notes:            dto.Notes,
	}
	for _, it := range dto.Items {
		item := domain.ReturnItem{ItemID: it.ItemID}
		for _, c := range it.Conditions {
			item.Conditions = append(item.Conditions, domain.ConditionInput{
				Description: c.Description,
				Class:       domain.ClassifyCondition(c.Description),
				Quantity:    c.Quantity,
			})
		}
		req.Items = append(req.Items, item)
	}

	result, err := h.returns.ProcessReturn(r.Context(), req)
	if err != nil {
		writeEngineError(w, transactionID, err)
		return
	}

	body := responseDTO{Success: result.Success, Findings: toFindingDTOs(result.Findings)}
	if result.Success {
		body.Result = map[string]any{
			"transaction":       result.Transaction,
			"items":             result.Items,
			"totalPenaltyCents": result.TotalPenaltyCents,
		}
		writeJSON(w, http.StatusOK, body)
		return
	}
	writeJSON(w, failureStatus(result.Findings), body)
}

// HandleGet returns the current snapshot view of a transaction.
func (h *LifecycleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["id"]

	snap, err := h.store.ReadSnapshot(r.Context(), transactionID)
	if err != nil {
		writeEngineError(w, transactionID, err)
		return
	}
	writeJSON(w, http.StatusOK, responseDTO{Success: true, Result: map[string]any{
		"transaction": snap.Transaction,
		"items":       snap.Items,
	}})
}

// failureStatus picks 409 for conflict findings and 400 for everything else.
func failureStatus(findings []domain.Finding) int {
	for _, f := range findings {
		switch f.Code {
		case domain.CodeAlreadyReturned, domain.CodeConcurrentPickupDetected:
			return http.StatusConflict
		}
	}
	return http.StatusBadRequest
}

func writeEngineError(w http.ResponseWriter, transactionID string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, responseDTO{Success: false, Message: "transaction not found"})
	case repository.IsRetryable(err):
		writeJSON(w, http.StatusServiceUnavailable, responseDTO{Success: false, Message: "temporary failure, please retry"})
	default:
		logger.Error("Lifecycle operation failed", "transaction_id", transactionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, responseDTO{Success: false, Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
