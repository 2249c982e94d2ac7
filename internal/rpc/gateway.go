package rpc

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
)

// ErrAccountNotFound is returned by GetAccountData when the account does not
// exist on-chain.
var ErrAccountNotFound = fmt.Errorf("account not found")

// GetAccountData fetches raw account bytes (base64-decoded).
func (c *Client) GetAccountData(ctx context.Context, pubkey string) ([]byte, error) {
	params := []any{
		pubkey,
		map[string]any{"encoding": "base64", "commitment": "confirmed"},
	}

	var resp AccountInfoResponse
	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if resp.Result.Value == nil {
		return nil, ErrAccountNotFound
	}

	return decodeAccountData(resp.Result.Value.Data)
}

// GetProgramAccounts enumerates program-owned accounts matching the given
// memcmp filters.
func (c *Client) GetProgramAccounts(ctx context.Context, programID string, filters []MemcmpFilter) ([]ProgramAccount, error) {
	opts := map[string]any{
		"encoding":   "base64",
		"commitment": "confirmed",
	}
	if len(filters) > 0 {
		fs := make([]map[string]any, 0, len(filters))
		for _, f := range filters {
			fs = append(fs, map[string]any{"memcmp": map[string]any{
				"offset": f.Offset,
				"bytes":  f.Bytes,
			}})
		}
		opts["filters"] = fs
	}

	params := []any{programID, opts}

	var resp ProgramAccountsResponse
	if err := c.Call(ctx, "getProgramAccounts", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// GetTokenAccountBalance fetches the raw token amount held by an account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account string) (uint64, error) {
	params := []any{account, map[string]any{"commitment": "confirmed"}}

	var resp TokenBalanceResponse
	if err := c.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, resp.Error
	}

	amount, err := strconv.ParseUint(resp.Result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %w", err)
	}
	return amount, nil
}

// DecodeAccountData decodes a ["payload", "encoding"] data tuple.
func decodeAccountData(data []string) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("empty account data")
	}
	if len(data) >= 2 && data[1] != "base64" {
		return nil, fmt.Errorf("unsupported account encoding: %s", data[1])
	}
	raw, err := base64.StdEncoding.DecodeString(data[0])
	if err != nil {
		return nil, fmt.Errorf("invalid base64 account data: %w", err)
	}
	return raw, nil
}

// DecodeAccount is the exported form used by the stream package.
func DecodeAccount(v *AccountValue) ([]byte, error) {
	if v == nil {
		return nil, ErrAccountNotFound
	}
	return decodeAccountData(v.Data)
}
