package auction

import "fmt"

// Result represents an operation result code
type Result int

// Operation result codes, organized by category the way ledger engines
// band theirs: tes for success, tec for operations that were processed
// but claimed a failure, tef/tem for operations rejected before any state
// was touched, ter for retryable conditions.
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199)
	// Operation was processed against current state and rejected.
	// State transitions forced on the way in (lazy expiry) persist.
	TecBID_TOO_LOW        Result = 100
	TecAUCTION_CLOSED     Result = 101
	TecNO_REFUND          Result = 102
	TecNOT_OWNER          Result = 103
	TecALREADY_ENDED      Result = 104
	TecPERMIT_EXPIRED     Result = 105
	TecBAD_NONCE          Result = 106
	TecINSUFFICIENT_FUNDS Result = 107
	TecINTERNAL           Result = 108

	// tef codes (-199 to -100)
	// Operation failed before touching state.
	TefFAILURE       Result = -199
	TefINTERNAL      Result = -192
	TefBAD_SIGNATURE Result = -186

	// tem codes (-299 to -200)
	// Operation is malformed and can never succeed.
	TemMALFORMED      Result = -299
	TemBAD_AMOUNT     Result = -298
	TemBAD_ACCOUNT    Result = -297
	TemBAD_DURATION   Result = -296
	TemBAD_EXPIRATION Result = -295
	TemBAD_PRICE      Result = -294
	TemINVALID        Result = -279

	// ter codes (-99 to -1)
	// Operation could not be processed now but may succeed later.
	TerRETRY      Result = -99
	TerNO_AUCTION Result = -96
)

// String returns the canonical code name
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecBID_TOO_LOW:
		return "tecBID_TOO_LOW"
	case TecAUCTION_CLOSED:
		return "tecAUCTION_CLOSED"
	case TecNO_REFUND:
		return "tecNO_REFUND"
	case TecNOT_OWNER:
		return "tecNOT_OWNER"
	case TecALREADY_ENDED:
		return "tecALREADY_ENDED"
	case TecPERMIT_EXPIRED:
		return "tecPERMIT_EXPIRED"
	case TecBAD_NONCE:
		return "tecBAD_NONCE"
	case TecINSUFFICIENT_FUNDS:
		return "tecINSUFFICIENT_FUNDS"
	case TecINTERNAL:
		return "tecINTERNAL"
	case TefFAILURE:
		return "tefFAILURE"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefBAD_SIGNATURE:
		return "tefBAD_SIGNATURE"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_ACCOUNT:
		return "temBAD_ACCOUNT"
	case TemBAD_DURATION:
		return "temBAD_DURATION"
	case TemBAD_EXPIRATION:
		return "temBAD_EXPIRATION"
	case TemBAD_PRICE:
		return "temBAD_PRICE"
	case TemINVALID:
		return "temINVALID"
	case TerRETRY:
		return "terRETRY"
	case TerNO_AUCTION:
		return "terNO_AUCTION"
	default:
		return fmt.Sprintf("unknownResult(%d)", int(r))
	}
}

// IsSuccess returns true for tesSUCCESS
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true for tec codes: the operation was processed and rejected
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true for tef codes
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true for tem codes: the operation is malformed
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true for ter codes
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// ShouldRetry returns true if the operation should be retried later
func (r Result) ShouldRetry() bool {
	return r.IsTer()
}

// IsApplied returns true if the operation was processed against state.
// This is true for tesSUCCESS and all tec codes.
func (r Result) IsApplied() bool {
	return r.IsSuccess() || r.IsTec()
}

// Message returns a human-readable message for the result. The tec
// messages are the exact strings contract callers match on.
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The operation was applied."
	case TecBID_TOO_LOW:
		return "Bid is not high enough."
	case TecAUCTION_CLOSED:
		return "Auction is already closed."
	case TecNO_REFUND:
		return "No refund available"
	case TecNOT_OWNER:
		return "Only the owner can end the auction"
	case TecALREADY_ENDED:
		return "The auction is already ended"
	case TecPERMIT_EXPIRED:
		return "Permit deadline has passed."
	case TecBAD_NONCE:
		return "Permit nonce does not match."
	case TecINSUFFICIENT_FUNDS:
		return "Insufficient token balance or allowance."
	case TemBAD_AMOUNT:
		return "Can only send positive amounts."
	case TemBAD_ACCOUNT:
		return "Account may not be zero."
	case TemBAD_DURATION:
		return "Auction must be open for at least one block."
	case TemBAD_EXPIRATION:
		return "Expiration must be in the future."
	case TemBAD_PRICE:
		return "Price parameters overflow."
	case TemINVALID:
		return "The operation is ill-formed."
	case TefBAD_SIGNATURE:
		return "Invalid signature."
	case TerNO_AUCTION:
		return "The auction does not exist."
	default:
		return r.String()
	}
}
