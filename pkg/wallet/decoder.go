package wallet

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/superdao/reconciler/internal/metrics"
)

const nativeDecimals = 18

// DecodeTransaction classifies a raw chain transaction into exactly one
// WalletTransaction. It is pure and total: it never returns an error and
// never panics to the caller. Log events that fail to decode are dropped,
// and a transaction no rule recognizes falls through to a default
// EXECUTION-typed record.
func DecodeTransaction(tx *RawTransaction, wctx Context) *WalletTransaction {
	rctx := ruleContext{
		walletAddress: normalizeAddress(wctx.WalletAddress),
		wrappedMatic:  normalizeAddress(wctx.WrappedMaticAddress),
	}

	events := decodeLogEvents(tx.LogEvents)

	for _, rule := range classificationRules {
		if out := applyRule(rule, tx, events, rctx); out != nil {
			metrics.ClassifierRuleHits.WithLabelValues(rule.name).Inc()
			return out
		}
	}

	metrics.ClassifierRuleHits.WithLabelValues("default").Inc()
	return defaultTransaction(tx, rctx)
}

// applyRule runs a single rule, absorbing any panic from malformed input so
// one bad rule cannot break the classification pipeline.
func applyRule(rule classificationRule, tx *RawTransaction, events []LogEvent, rctx ruleContext) (out *WalletTransaction) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ClassifierRulePanics.WithLabelValues(rule.name).Inc()
			out = nil
		}
	}()
	return rule.apply(tx, events, rctx)
}

// defaultTransaction is the catch-all classification: EXECUTION typed, with
// a single native part attached only when the transaction carried value.
func defaultTransaction(tx *RawTransaction, rctx ruleContext) *WalletTransaction {
	out := baseTransaction(tx, rctx)
	out.Type = TypeExecution
	out.Description = "Execution"
	if hasPositiveValue(tx) {
		out.Parts = []TransactionPart{nativePart(tx, rctx)}
	}
	return out
}

// hasPositiveValue reports whether the outer transaction moved native value
func hasPositiveValue(tx *RawTransaction) bool {
	if tx.Value == "" {
		return false
	}
	v, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok {
		return false
	}
	return v.Sign() > 0
}

// formatGasFee converts a wei fee string into a decimal native-token amount
func formatGasFee(feesPaid string) string {
	if feesPaid == "" {
		return "0"
	}
	wei, ok := new(big.Int).SetString(feesPaid, 10)
	if !ok {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -nativeDecimals).String()
}
