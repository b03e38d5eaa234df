package wallet

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	walletAddr  = "0x1111111111111111111111111111111111111111"
	otherAddr   = "0x2222222222222222222222222222222222222222"
	tokenAddr   = "0x3333333333333333333333333333333333333333"
	wmaticAddr  = "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270"
	transferSig = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
)

func testContext() Context {
	return Context{
		WalletAddress:       walletAddr,
		WrappedMaticAddress: wmaticAddr,
	}
}

func checksum(addr string) string {
	return common.HexToAddress(addr).Hex()
}

func addressTopic(addr string) string {
	return "0x000000000000000000000000" + strings.TrimPrefix(addr, "0x")
}

func transferLog(token, from, to string, value int64) LogEvent {
	return LogEvent{
		SenderAddress:          token,
		SenderName:             "Test Token",
		SenderTickerSymbol:     "TST",
		SenderContractDecimals: 18,
		RawLogTopics: []string{
			transferSig,
			addressTopic(from),
			addressTopic(to),
		},
		RawLogData: fmt.Sprintf("0x%064x", value),
	}
}

func rawTx(from, to, value string, logs ...LogEvent) *RawTransaction {
	return &RawTransaction{
		TxHash:        "0xabc123",
		Successful:    true,
		FromAddress:   from,
		ToAddress:     to,
		Value:         value,
		FeesPaid:      "21000000000000",
		GasSpent:      21000,
		BlockSignedAt: time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		LogEvents:     logs,
	}
}

func TestDecodeTransaction_Erc20DirectTransferOut(t *testing.T) {
	tx := rawTx(walletAddr, tokenAddr, "0",
		transferLog(tokenAddr, walletAddr, otherAddr, 500))

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeSend, out.Type)
	assert.Equal(t, DirectionOut, out.Direction)
	assert.Equal(t, "Sent TST", out.Description)
	require.Len(t, out.Parts, 1)
	part := out.Parts[0]
	assert.Equal(t, checksum(walletAddr), part.From)
	assert.Equal(t, checksum(otherAddr), part.To)
	assert.Equal(t, "500", part.Amount)
	assert.Equal(t, DirectionOut, part.Direction)
	assert.Equal(t, checksum(tokenAddr), part.Token.Address)
	assert.False(t, part.Token.IsNative)
}

func TestDecodeTransaction_Erc20DirectTransferIn(t *testing.T) {
	tx := rawTx(otherAddr, tokenAddr, "0",
		transferLog(tokenAddr, otherAddr, walletAddr, 500))

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeReceive, out.Type)
	assert.Equal(t, DirectionIn, out.Direction)
	assert.Equal(t, "Received TST", out.Description)
	require.Len(t, out.Parts, 1)
	assert.Equal(t, DirectionIn, out.Parts[0].Direction)
}

func TestDecodeTransaction_WrappedMaticAlwaysOutgoing(t *testing.T) {
	// The wMATIC rule classifies the transfer as outgoing regardless of
	// which side the context wallet is on.
	tx := rawTx(otherAddr, wmaticAddr, "0",
		transferLog(wmaticAddr, otherAddr, walletAddr, 900))

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeSend, out.Type)
	assert.Equal(t, DirectionOut, out.Direction)
	require.Len(t, out.Parts, 1)
	assert.Equal(t, DirectionOut, out.Parts[0].Direction)
	assert.Equal(t, checksum(wmaticAddr), out.Parts[0].Token.Address)
}

func TestDecodeTransaction_SafeSetupWinsOverTransfers(t *testing.T) {
	safeSetup := LogEvent{
		SenderAddress: otherAddr,
		Decoded:       &DecodedEvent{Name: "SafeSetup"},
	}
	tx := rawTx(walletAddr, otherAddr, "0",
		safeSetup,
		transferLog(tokenAddr, walletAddr, otherAddr, 100))

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeSafeSetup, out.Type)
	assert.Equal(t, DirectionOut, out.Direction)
	assert.Empty(t, out.Parts)
}

func TestDecodeTransaction_MaticToGnosisSafe(t *testing.T) {
	safeReceived := LogEvent{
		SenderAddress: otherAddr,
		RawLogTopics: []string{
			"0x3d0ce9bfc3ed7d6862dbb28b2dea94561fe714a1b4d019aa8af39730d1ad7c3d",
			addressTopic(walletAddr),
		},
		RawLogData: fmt.Sprintf("0x%064x", 1000),
	}
	tx := rawTx(walletAddr, otherAddr, "1000", safeReceived)

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeSend, out.Type)
	assert.Equal(t, DirectionOut, out.Direction)
	require.Len(t, out.Parts, 1)
	assert.True(t, out.Parts[0].Token.IsNative)
	assert.Equal(t, "1000", out.Parts[0].Amount)
}

func TestDecodeTransaction_NativeTransfer(t *testing.T) {
	t.Run("outgoing", func(t *testing.T) {
		out := DecodeTransaction(rawTx(walletAddr, otherAddr, "7000"), testContext())

		assert.Equal(t, TypeSend, out.Type)
		assert.Equal(t, DirectionOut, out.Direction)
		assert.Equal(t, "Sent MATIC", out.Description)
		require.Len(t, out.Parts, 1)
		assert.Equal(t, "MATIC", out.Parts[0].Token.Symbol)
		assert.True(t, out.Parts[0].Token.IsNative)
	})

	t.Run("incoming", func(t *testing.T) {
		out := DecodeTransaction(rawTx(otherAddr, walletAddr, "7000"), testContext())

		assert.Equal(t, TypeReceive, out.Type)
		assert.Equal(t, DirectionIn, out.Direction)
		assert.Equal(t, "Received MATIC", out.Description)
	})
}

func TestDecodeTransaction_MultiTransferExecution(t *testing.T) {
	tx := rawTx(walletAddr, otherAddr, "300",
		transferLog(tokenAddr, walletAddr, otherAddr, 100),
		transferLog(tokenAddr, otherAddr, walletAddr, 200))

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeExecution, out.Type)
	require.Len(t, out.Parts, 3)
	assert.Equal(t, DirectionOut, out.Parts[0].Direction)
	assert.Equal(t, DirectionIn, out.Parts[1].Direction)
	assert.True(t, out.Parts[2].Token.IsNative)
	assert.Equal(t, "300", out.Parts[2].Amount)
}

func TestDecodeTransaction_FallbackExecution(t *testing.T) {
	unknown := LogEvent{
		SenderAddress: otherAddr,
		RawLogTopics:  []string{"0x" + strings.Repeat("ab", 32)},
	}

	t.Run("no value, no native part", func(t *testing.T) {
		out := DecodeTransaction(rawTx(walletAddr, otherAddr, "0", unknown), testContext())

		assert.Equal(t, TypeExecution, out.Type)
		assert.Empty(t, out.Parts)
	})

	t.Run("positive value attaches native part", func(t *testing.T) {
		// two SafeReceived logs defeat every rule, so the default
		// classification carries the native value
		safeReceived := LogEvent{
			SenderAddress: otherAddr,
			Decoded:       &DecodedEvent{Name: "SafeReceived"},
		}
		out := DecodeTransaction(rawTx(walletAddr, otherAddr, "5", safeReceived, safeReceived), testContext())

		assert.Equal(t, TypeExecution, out.Type)
		require.Len(t, out.Parts, 1)
		assert.True(t, out.Parts[0].Token.IsNative)
		assert.Equal(t, "5", out.Parts[0].Amount)
	})
}

func TestDecodeTransaction_UndecodableLogsAreDropped(t *testing.T) {
	// junk logs around a single Transfer must not defeat the direct rule
	junk := LogEvent{SenderAddress: otherAddr, RawLogTopics: []string{"0x" + strings.Repeat("cd", 32)}}
	tx := rawTx(walletAddr, tokenAddr, "0",
		junk,
		transferLog(tokenAddr, walletAddr, otherAddr, 42),
		junk)

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, TypeSend, out.Type)
	require.Len(t, out.Parts, 1)
	assert.Equal(t, "42", out.Parts[0].Amount)
}

func TestDecodeTransaction_FailedStatusAndGasFee(t *testing.T) {
	tx := rawTx(walletAddr, otherAddr, "0")
	tx.Successful = false
	tx.FeesPaid = "1500000000000000000"

	out := DecodeTransaction(tx, testContext())

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "1.5", out.GasFee)
	assert.Equal(t, tx.BlockSignedAt, out.Executed)
	assert.Equal(t, "0xabc123", out.Hash)
}
