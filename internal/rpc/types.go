package rpc

import "fmt"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// AccountInfoResponse is the getAccountInfo response envelope.
type AccountInfoResponse struct {
	Result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value *AccountValue `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// AccountValue is the raw account payload (base64 data).
type AccountValue struct {
	Lamports uint64   `json:"lamports"`
	Owner    string   `json:"owner"`
	Data     []string `json:"data"` // [payload, encoding]
}

// ProgramAccountsResponse is the getProgramAccounts response envelope.
type ProgramAccountsResponse struct {
	Result []ProgramAccount `json:"result"`
	Error  *RPCError        `json:"error"`
}

// ProgramAccount is one (pubkey, account) pair from getProgramAccounts.
type ProgramAccount struct {
	Pubkey  string       `json:"pubkey"`
	Account AccountValue `json:"account"`
}

// MemcmpFilter matches account data bytes at a fixed offset.
type MemcmpFilter struct {
	Offset int    `json:"offset"`
	Bytes  string `json:"bytes"` // base58
}

// TokenBalanceResponse is the getTokenAccountBalance response envelope.
type TokenBalanceResponse struct {
	Result struct {
		Value struct {
			Amount   string `json:"amount"`
			Decimals uint8  `json:"decimals"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
