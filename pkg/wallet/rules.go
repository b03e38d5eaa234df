package wallet

import (
	"fmt"
)

// classificationRule is a predicate+mapper pair: it returns a fully built
// WalletTransaction when the transaction matches its shape, nil otherwise.
// Rules are evaluated in order and the first match wins, so narrower rules
// must come before the generic ones they overlap with.
type classificationRule struct {
	name  string
	apply func(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction
}

// ruleContext is the normalized form of Context the rules work against
type ruleContext struct {
	walletAddress string
	wrappedMatic  string
}

// classificationRules is the fixed, ordered rule list. Order is semantically
// significant: MATIC-specific rules run before the generic native-transfer
// rule, which runs before the multi-part execution rule.
var classificationRules = []classificationRule{
	{name: "safe_setup", apply: safeSetupRule},
	{name: "matic_direct_transfer", apply: maticDirectTransferRule},
	{name: "matic_to_gnosis_safe", apply: maticToGnosisSafeRule},
	{name: "erc20_direct_transfer", apply: erc20DirectTransferRule},
	{name: "native_transfer", apply: nativeTransferRule},
	{name: "execution", apply: executionRule},
}

// safeSetupRule matches the deployment of a Gnosis safe: a SafeSetup event
// is present among the decoded logs.
func safeSetupRule(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction {
	if !hasEventNamed(events, eventSafeSetup) {
		return nil
	}

	out := baseTransaction(tx, rctx)
	out.Type = TypeSafeSetup
	out.Direction = DirectionOut
	out.Description = "Safe setup"
	return out
}

// maticDirectTransferRule matches a transaction whose only decoded log is a
// wMATIC Transfer: exactly one Transfer event, token contract is the wrapped
// MATIC address, no other decoded events.
func maticDirectTransferRule(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction {
	if rctx.wrappedMatic == "" || len(events) != 1 {
		return nil
	}
	ev := events[0]
	if ev.Decoded.Name != eventTransfer {
		return nil
	}
	if normalizeAddress(ev.SenderAddress) != rctx.wrappedMatic {
		return nil
	}

	part := partFromTransfer(&ev, rctx)
	// Direction is pinned to OUT here: the production classifier compared the
	// wallet address against itself in this path, so every wMATIC transfer
	// was historically classified as outgoing. Keep the observable behavior.
	part.Direction = DirectionOut

	out := baseTransaction(tx, rctx)
	out.Type = TypeSend
	out.Direction = DirectionOut
	out.Parts = []TransactionPart{part}
	out.Description = fmt.Sprintf("Sent %s", part.Token.Symbol)
	return out
}

// maticToGnosisSafeRule matches native MATIC deposited into a Gnosis safe:
// exactly one SafeReceived event and a positive native value.
func maticToGnosisSafeRule(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction {
	if len(events) != 1 || events[0].Decoded.Name != eventSafeReceived {
		return nil
	}
	if !hasPositiveValue(tx) {
		return nil
	}

	part := nativePart(tx, rctx)
	// Same pinned-OUT comparison as maticDirectTransferRule; preserved.
	part.Direction = DirectionOut

	out := baseTransaction(tx, rctx)
	out.Type = TypeSend
	out.Direction = DirectionOut
	out.Parts = []TransactionPart{part}
	out.Description = "Sent MATIC to safe"
	return out
}

// erc20DirectTransferRule matches a plain token transfer: exactly one
// decoded ERC-20 Transfer log and nothing else. The event-count precondition
// is what distinguishes a direct transfer from the same Transfer log
// appearing inside a larger multisig execution.
func erc20DirectTransferRule(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction {
	if len(events) != 1 || events[0].Decoded.Name != eventTransfer {
		return nil
	}

	part := partFromTransfer(&events[0], rctx)

	out := baseTransaction(tx, rctx)
	out.Direction = part.Direction
	if part.Direction == DirectionOut {
		out.Type = TypeSend
		out.Description = fmt.Sprintf("Sent %s", part.Token.Symbol)
	} else {
		out.Type = TypeReceive
		out.Description = fmt.Sprintf("Received %s", part.Token.Symbol)
	}
	out.Parts = []TransactionPart{part}
	return out
}

// nativeTransferRule matches a bare native-value transfer: no decoded log
// events and a positive value.
func nativeTransferRule(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction {
	if len(events) != 0 || !hasPositiveValue(tx) {
		return nil
	}

	part := nativePart(tx, rctx)

	out := baseTransaction(tx, rctx)
	out.Direction = part.Direction
	if part.Direction == DirectionOut {
		out.Type = TypeSend
		out.Description = "Sent MATIC"
	} else {
		out.Type = TypeReceive
		out.Description = "Received MATIC"
	}
	out.Parts = []TransactionPart{part}
	return out
}

// executionRule matches a multi-part execution: two or more decoded Transfer
// events. Each transfer becomes a part; a native part is appended when the
// outer transaction also carried value.
func executionRule(tx *RawTransaction, events []LogEvent, rctx ruleContext) *WalletTransaction {
	transfers := eventsNamed(events, eventTransfer)
	if len(transfers) < 2 {
		return nil
	}

	parts := make([]TransactionPart, 0, len(transfers)+1)
	for i := range transfers {
		parts = append(parts, partFromTransfer(&transfers[i], rctx))
	}
	if hasPositiveValue(tx) {
		parts = append(parts, nativePart(tx, rctx))
	}

	out := baseTransaction(tx, rctx)
	out.Type = TypeExecution
	out.Parts = parts
	out.Description = "Execution"
	return out
}

// Rule helpers

func baseTransaction(tx *RawTransaction, rctx ruleContext) *WalletTransaction {
	from := normalizeAddress(tx.FromAddress)
	direction := DirectionIn
	if from == rctx.walletAddress {
		direction = DirectionOut
	}

	status := StatusSuccess
	if !tx.Successful {
		status = StatusFailed
	}

	return &WalletTransaction{
		Hash:        tx.TxHash,
		FromAddress: from,
		ToAddress:   normalizeAddress(tx.ToAddress),
		Value:       tx.Value,
		Status:      status,
		Direction:   direction,
		GasFee:      formatGasFee(tx.FeesPaid),
		Executed:    tx.BlockSignedAt,
		Parts:       []TransactionPart{},
	}
}

func partFromTransfer(ev *LogEvent, rctx ruleContext) TransactionPart {
	from := normalizeAddress(ev.Decoded.Param("from"))
	to := normalizeAddress(ev.Decoded.Param("to"))

	direction := DirectionIn
	if from == rctx.walletAddress {
		direction = DirectionOut
	}

	return TransactionPart{
		Token: TokenInfo{
			Address:  normalizeAddress(ev.SenderAddress),
			Name:     ev.SenderName,
			Symbol:   ev.SenderTickerSymbol,
			Decimals: ev.SenderContractDecimals,
		},
		From:      from,
		To:        to,
		Amount:    ev.Decoded.Param("value"),
		Direction: direction,
	}
}

func nativePart(tx *RawTransaction, rctx ruleContext) TransactionPart {
	from := normalizeAddress(tx.FromAddress)

	direction := DirectionIn
	if from == rctx.walletAddress {
		direction = DirectionOut
	}

	return TransactionPart{
		Token:     nativeToken(),
		From:      from,
		To:        normalizeAddress(tx.ToAddress),
		Amount:    tx.Value,
		Direction: direction,
	}
}

func nativeToken() TokenInfo {
	return TokenInfo{
		Name:     "Matic",
		Symbol:   "MATIC",
		Decimals: 18,
		IsNative: true,
	}
}

func hasEventNamed(events []LogEvent, name string) bool {
	for i := range events {
		if events[i].Decoded.Name == name {
			return true
		}
	}
	return false
}

func eventsNamed(events []LogEvent, name string) []LogEvent {
	matched := make([]LogEvent, 0, len(events))
	for i := range events {
		if events[i].Decoded.Name == name {
			matched = append(matched, events[i])
		}
	}
	return matched
}
