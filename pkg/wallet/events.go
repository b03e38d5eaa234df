package wallet

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event names the rules key on
const (
	eventTransfer     = "Transfer"
	eventSafeSetup    = "SafeSetup"
	eventSafeReceived = "SafeReceived"
)

var (
	transferTopic     = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	safeSetupTopic    = crypto.Keccak256Hash([]byte("SafeSetup(address,address[],uint256,address,address)"))
	safeReceivedTopic = crypto.Keccak256Hash([]byte("SafeReceived(address,uint256)"))
)

// normalizeAddress returns the EIP-55 checksum form of an address so that
// comparisons between Covalent payloads (lowercase) and our own records
// (mixed case) are exact.
func normalizeAddress(addr string) string {
	if addr == "" {
		return ""
	}
	return common.HexToAddress(addr).Hex()
}

// decodeLogEvents fills in the ABI description of every log event that can
// be decoded. Events that cannot be decoded are dropped from the returned
// slice rather than failing the whole transaction.
func decodeLogEvents(events []LogEvent) []LogEvent {
	decoded := make([]LogEvent, 0, len(events))
	for _, ev := range events {
		if ev.Decoded == nil {
			ev.Decoded = decodeLogEvent(&ev)
		}
		if ev.Decoded == nil {
			continue
		}
		decoded = append(decoded, ev)
	}
	return decoded
}

// decodeLogEvent recovers the event description from raw topics. Only the
// events the classification rules key on are decoded; anything else is
// reported as undecodable and dropped by the caller.
func decodeLogEvent(ev *LogEvent) *DecodedEvent {
	if len(ev.RawLogTopics) == 0 {
		return nil
	}

	topic0 := common.HexToHash(ev.RawLogTopics[0])
	switch topic0 {
	case transferTopic:
		return decodeTransferEvent(ev)
	case safeSetupTopic:
		return &DecodedEvent{Name: eventSafeSetup}
	case safeReceivedTopic:
		return decodeSafeReceivedEvent(ev)
	default:
		return nil
	}
}

// decodeTransferEvent decodes an ERC-20 Transfer(address,address,uint256).
// ERC-721 Transfer shares the signature but carries the token id as a third
// indexed topic; both shapes are accepted, with the value taken from data
// for ERC-20 and from the topic for ERC-721.
func decodeTransferEvent(ev *LogEvent) *DecodedEvent {
	if len(ev.RawLogTopics) < 3 {
		return nil
	}

	from := topicToAddress(ev.RawLogTopics[1])
	to := topicToAddress(ev.RawLogTopics[2])
	if from == "" || to == "" {
		return nil
	}

	var value string
	if len(ev.RawLogTopics) == 4 {
		value = hexToDecimalString(ev.RawLogTopics[3])
	} else {
		value = hexToDecimalString(ev.RawLogData)
	}
	if value == "" {
		return nil
	}

	return &DecodedEvent{
		Name: eventTransfer,
		Params: []EventParam{
			{Name: "from", Type: "address", Value: from},
			{Name: "to", Type: "address", Value: to},
			{Name: "value", Type: "uint256", Value: value},
		},
	}
}

func decodeSafeReceivedEvent(ev *LogEvent) *DecodedEvent {
	if len(ev.RawLogTopics) < 2 {
		return nil
	}
	sender := topicToAddress(ev.RawLogTopics[1])
	if sender == "" {
		return nil
	}
	return &DecodedEvent{
		Name: eventSafeReceived,
		Params: []EventParam{
			{Name: "sender", Type: "address", Value: sender},
			{Name: "value", Type: "uint256", Value: hexToDecimalString(ev.RawLogData)},
		},
	}
}

// topicToAddress extracts an address from a 32-byte indexed topic
func topicToAddress(topic string) string {
	raw := strings.TrimPrefix(topic, "0x")
	if len(raw) != 64 {
		return ""
	}
	return common.HexToAddress("0x" + raw[24:]).Hex()
}

// hexToDecimalString converts 0x-prefixed hex data into a base-10 string
func hexToDecimalString(data string) string {
	raw := strings.TrimPrefix(data, "0x")
	if raw == "" {
		return "0"
	}
	n, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return ""
	}
	return n.String()
}
