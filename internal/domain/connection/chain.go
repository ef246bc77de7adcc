package connection

import "strings"

// Supported chains for wallet scanning
const (
	ChainEthereum = "ethereum"
	ChainSolana   = "solana"
	ChainCardano  = "cardano"
)

// DetectChain classifies a wallet address by shape. Detection happens once at
// connect time so scans never have to guess.
//
// Rules, in order:
//   - 0x prefix and 42 hex characters: ethereum (also covers BSC, same format)
//   - addr1 or stake1 prefix: cardano
//   - 32 to 44 base58 characters: solana
func DetectChain(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrUnsupportedChain
	}

	if strings.HasPrefix(address, "0x") {
		if len(address) == 42 && isHex(address[2:]) {
			return ChainEthereum, nil
		}
		return "", ErrUnsupportedChain
	}

	if strings.HasPrefix(address, "addr1") || strings.HasPrefix(address, "stake1") {
		return ChainCardano, nil
	}

	if len(address) >= 32 && len(address) <= 44 && isBase58(address) {
		return ChainSolana, nil
	}

	return "", ErrUnsupportedChain
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// isBase58 checks the Bitcoin base58 alphabet: no 0, O, I, or l.
func isBase58(s string) bool {
	for _, c := range s {
		switch {
		case c >= '1' && c <= '9':
		case c >= 'a' && c <= 'z' && c != 'l':
		case c >= 'A' && c <= 'Z' && c != 'I' && c != 'O':
		default:
			return false
		}
	}
	return true
}
