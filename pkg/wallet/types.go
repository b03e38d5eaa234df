// Package wallet normalizes raw Covalent-shaped chain transactions into
// semantic wallet transactions via an ordered list of classification rules.
package wallet

import "time"

// Direction tells whether value moved out of or into the context wallet
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// TransactionType is the semantic class assigned to a transaction
type TransactionType string

const (
	TypeSend      TransactionType = "SEND"
	TypeReceive   TransactionType = "RECEIVE"
	TypeExecution TransactionType = "EXECUTION"
	TypeSafeSetup TransactionType = "SAFE_SETUP"
)

// TransactionStatus mirrors the on-chain execution outcome
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
)

// RawTransaction is the Covalent-shaped input: the outer transaction plus
// its log events, before any semantic interpretation.
type RawTransaction struct {
	TxHash        string     `json:"tx_hash"`
	Successful    bool       `json:"successful"`
	FromAddress   string     `json:"from_address"`
	ToAddress     string     `json:"to_address"`
	Value         string     `json:"value"`
	FeesPaid      string     `json:"fees_paid"`
	GasSpent      uint64     `json:"gas_spent"`
	BlockSignedAt time.Time  `json:"block_signed_at"`
	LogEvents     []LogEvent `json:"log_events"`
}

// LogEvent is a single raw log entry emitted by a contract during the
// transaction. Decoded is nil until decodeLogEvents has run, and stays nil
// for events whose ABI description could not be recovered.
type LogEvent struct {
	SenderAddress          string        `json:"sender_address"`
	SenderName             string        `json:"sender_name"`
	SenderTickerSymbol     string        `json:"sender_contract_ticker_symbol"`
	SenderContractDecimals int           `json:"sender_contract_decimals"`
	RawLogTopics           []string      `json:"raw_log_topics"`
	RawLogData             string        `json:"raw_log_data"`
	Decoded                *DecodedEvent `json:"decoded,omitempty"`
}

// DecodedEvent is the ABI description of a log event
type DecodedEvent struct {
	Name   string       `json:"name"`
	Params []EventParam `json:"params"`
}

// EventParam is one decoded event parameter
type EventParam struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Param returns the value of the named parameter, or "" if absent
func (e *DecodedEvent) Param(name string) string {
	for _, p := range e.Params {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// TokenInfo describes the asset moved by a transaction part
type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	IsNative bool   `json:"isNative"`
}

// TransactionPart is one semantic transfer extracted from the log events
// (or from the outer native value)
type TransactionPart struct {
	Token     TokenInfo `json:"token"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    string    `json:"amount"`
	Direction Direction `json:"direction"`
}

// WalletTransaction is the normalized view of a raw chain transaction.
// Exactly one is produced per input transaction.
type WalletTransaction struct {
	Hash        string            `json:"hash"`
	FromAddress string            `json:"fromAddress"`
	ToAddress   string            `json:"toAddress"`
	Value       string            `json:"value"`
	Status      TransactionStatus `json:"status"`
	Type        TransactionType   `json:"type"`
	Direction   Direction         `json:"direction"`
	Parts       []TransactionPart `json:"parts"`
	GasFee      string            `json:"gasFee"`
	Executed    time.Time         `json:"executed"`
	Description string            `json:"description"`
}

// Context carries the wallet the transaction is being classified for,
// plus chain-specific constants the rules need.
type Context struct {
	// WalletAddress is the address whose point of view defines direction
	WalletAddress string
	// WrappedMaticAddress is the wMATIC token contract on the target chain
	WrappedMaticAddress string
}
