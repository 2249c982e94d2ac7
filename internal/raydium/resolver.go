package raydium

import (
	"context"
	"fmt"

	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/rpc"
)

// Resolver locates and refreshes pool accounts through the chain gateway.
type Resolver struct {
	client    *rpc.Client
	programID string
}

// NewResolver creates a resolver for the given pool program.
func NewResolver(client *rpc.Client, programID string) *Resolver {
	if programID == "" {
		programID = constants.ProgramAddresses["Raydium"]
	}
	return &Resolver{client: client, programID: programID}
}

// FindPoolByToken enumerates program accounts whose token_mint field matches
// the given token. Returns models.ErrNoPoolFound when no pool exists.
func (r *Resolver) FindPoolByToken(ctx context.Context, token string) (*Pool, error) {
	accounts, err := r.client.GetProgramAccounts(ctx, r.programID, []rpc.MemcmpFilter{
		{Offset: constants.PoolOffsetTokenMint, Bytes: token},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate pool accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, models.ErrNoPoolFound
	}

	// First matching pool wins; decode failures fall through to the next.
	for _, acc := range accounts {
		data, err := rpc.DecodeAccount(&acc.Account)
		if err != nil {
			continue
		}
		state, err := DecodePool(acc.Pubkey, data)
		if err != nil {
			continue
		}
		return &Pool{Address: acc.Pubkey, State: state}, nil
	}

	return nil, models.ErrNoPoolFound
}

// RefreshPool re-reads a pool account and decodes its current state.
func (r *Resolver) RefreshPool(ctx context.Context, address string) (*PoolState, error) {
	data, err := r.client.GetAccountData(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool account: %w", err)
	}
	return DecodePool(address, data)
}

// ProgramID returns the pool program this resolver filters on.
func (r *Resolver) ProgramID() string { return r.programID }
