package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/models"
	projectrpc "github.com/tradertony/snipe-agent/internal/rpc"
)

func TestClassifySendError(t *testing.T) {
	rejections := []string{
		"Transaction simulation failed: insufficient funds for rent",
		"custom program error: 0x1",
		"Transfer: would exceed maximum account balance",
		"invalid account data for instruction",
	}
	for _, msg := range rejections {
		err := classifySendError(&projectrpc.RPCError{Code: -32002, Message: msg})
		var rej *models.OnChainRejection
		require.ErrorAs(t, err, &rej, msg)
		assert.Equal(t, msg, rej.Reason)
	}

	transients := []string{
		"Blockhash not found",
		"node is behind by 42 slots",
		"Too many requests",
	}
	for _, msg := range transients {
		err := classifySendError(&projectrpc.RPCError{Code: -32005, Message: msg})
		var tr *models.TransientChainError
		require.ErrorAs(t, err, &tr, msg)
		assert.Equal(t, "sendTransaction", tr.Op)
	}
}
