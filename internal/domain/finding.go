package domain

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Stable rule codes. Callers branch on these strings, so they must not change.
const (
	CodeInvalidTransactionStatus   = "INVALID_TRANSACTION_STATUS"
	CodeItemNotFound               = "ITEM_NOT_FOUND"
	CodePickupQuantityExceeded     = "PICKUP_QUANTITY_EXCEEDED"
	CodeItemAlreadyFullyPickedUp   = "ITEM_ALREADY_FULLY_PICKED_UP"
	CodeDuplicateItemsInBatch      = "DUPLICATE_ITEMS_IN_BATCH"
	CodeBatchItemLimitExceeded     = "BATCH_ITEM_LIMIT_EXCEEDED"
	CodeBatchQuantityLimitExceeded = "BATCH_QUANTITY_LIMIT_EXCEEDED"
	CodeConcurrentPickupDetected   = "CONCURRENT_PICKUP_DETECTED"
	CodeLostItemInvalidQuantity    = "LOST_ITEM_INVALID_QUANTITY"
	CodeReturnedItemInvalidQty     = "RETURNED_ITEM_INVALID_QUANTITY"
	CodeExcessTotalQuantity        = "EXCESS_TOTAL_QUANTITY"
	CodeAlreadyReturned            = "ALREADY_RETURNED"

	CodeEmptyBatch                  = "EMPTY_BATCH"
	CodeInvalidQuantity             = "INVALID_QUANTITY"
	CodeInvalidConditionDescription = "INVALID_CONDITION_DESCRIPTION"
	CodeItemAlreadyReturned         = "ITEM_ALREADY_RETURNED"
	CodeItemNotPickedUp             = "ITEM_NOT_PICKED_UP"
	CodeMissingConditionSplit       = "MISSING_CONDITION_SPLIT"
	CodePartialPickup               = "PARTIAL_PICKUP"
	CodeFullPickup                  = "FULL_PICKUP"
	CodeBatchQuantityHigh           = "BATCH_QUANTITY_HIGH"
	CodeOutsideOperatingHours       = "OUTSIDE_OPERATING_HOURS"
	CodeNonOperatingDay             = "NON_OPERATING_DAY"
)

// Finding is one validation verdict. Findings are transient: produced per
// validation call, consumed by the caller, never persisted.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	ItemID   string   `json:"item_id,omitempty"`
}

func ErrorFinding(code, message, itemID string) Finding {
	return Finding{Severity: SeverityError, Code: code, Message: message, ItemID: itemID}
}

func WarningFinding(code, message, itemID string) Finding {
	return Finding{Severity: SeverityWarning, Code: code, Message: message, ItemID: itemID}
}

func InfoFinding(code, message, itemID string) Finding {
	return Finding{Severity: SeverityInfo, Code: code, Message: message, ItemID: itemID}
}
