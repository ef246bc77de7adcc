package chainscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"nestegg/internal/domain/connection"
)

const (
	defaultTimeout = 30 * time.Second

	// balanceOf(address) selector
	balanceOfSelector = "0x70a08231"

	// Staking derivative contracts watched on EVM chains
	lidoStETHContract      = "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84"
	rocketPoolRETHContract = "0xae78736Cd615f374D3085123A210448E74Fc6393"
	pancakeCakePool        = "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"

	// Marinade liquid staking mint on Solana
	marinadeMSOLMint = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
)

// Reward is one staking position found during a wallet scan.
type Reward struct {
	Source string
	Token  string
	Amount float64
}

// Config carries the per-chain endpoints
type Config struct {
	EthereumRPCURL   string
	BSCRPCURL        string
	SolanaRPCURL     string
	BlockfrostURL    string
	BlockfrostAPIKey string
}

// Scanner reads staking positions from public chain APIs. It holds no keys,
// everything is read-only balance and reward lookups.
type Scanner struct {
	httpClient *http.Client
	cfg        Config
}

// Ensure Scanner implements ScannerInterface
var _ ScannerInterface = (*Scanner)(nil)

// NewScanner creates a new chain scanner
func NewScanner(cfg Config) *Scanner {
	return &Scanner{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		cfg: cfg,
	}
}

// Scan dispatches to the per-chain scan for a wallet address. Zero balances
// are omitted from the result.
func (s *Scanner) Scan(ctx context.Context, address, chain string) ([]Reward, error) {
	switch chain {
	case connection.ChainEthereum:
		return s.scanEVM(ctx, address)
	case connection.ChainSolana:
		return s.scanSolana(ctx, address)
	case connection.ChainCardano:
		return s.scanCardano(ctx, address)
	default:
		return nil, fmt.Errorf("unsupported chain %q: %w", chain, connection.ErrUnsupportedChain)
	}
}

// scanEVM checks staking derivative balances. An Ethereum-format address is
// valid on BSC too, so the CAKE pool is checked in the same pass.
func (s *Scanner) scanEVM(ctx context.Context, address string) ([]Reward, error) {
	checks := []struct {
		rpcURL   string
		contract string
		source   string
		token    string
	}{
		{s.cfg.EthereumRPCURL, lidoStETHContract, "lido", "ETH"},
		{s.cfg.EthereumRPCURL, rocketPoolRETHContract, "rocketpool", "ETH"},
		{s.cfg.BSCRPCURL, pancakeCakePool, "pancakeswap", "CAKE"},
	}

	var rewards []Reward
	for _, check := range checks {
		amount, err := s.erc20Balance(ctx, check.rpcURL, check.contract, address)
		if err != nil {
			return nil, fmt.Errorf("%s balance check failed: %w", check.source, err)
		}
		if amount > 0 {
			rewards = append(rewards, Reward{Source: check.source, Token: check.token, Amount: amount})
		}
	}
	return rewards, nil
}

// erc20Balance calls balanceOf(address) via eth_call and scales by 18
// decimals (all watched tokens use 18).
func (s *Scanner) erc20Balance(ctx context.Context, rpcURL, contract, address string) (float64, error) {
	data := balanceOfSelector + "000000000000000000000000" + strings.TrimPrefix(strings.ToLower(address), "0x")

	var result string
	err := s.jsonRPC(ctx, rpcURL, "eth_call", []any{
		map[string]string{"to": contract, "data": data},
		"latest",
	}, &result)
	if err != nil {
		return 0, err
	}

	return parseHexBalance(result, 18)
}

func parseHexBalance(hexResult string, decimals int) (float64, error) {
	hexResult = strings.TrimPrefix(hexResult, "0x")
	if hexResult == "" {
		return 0, nil
	}

	raw, ok := new(big.Int).SetString(hexResult, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex balance %q", hexResult)
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return value, nil
}

// solana RPC response shapes
type solanaBalanceResult struct {
	Value uint64 `json:"value"`
}

type solanaTokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						TokenAmount struct {
							UIAmount float64 `json:"uiAmount"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

func (s *Scanner) scanSolana(ctx context.Context, address string) ([]Reward, error) {
	var rewards []Reward

	var balance solanaBalanceResult
	if err := s.jsonRPC(ctx, s.cfg.SolanaRPCURL, "getBalance", []any{address}, &balance); err != nil {
		return nil, fmt.Errorf("solana balance check failed: %w", err)
	}
	if balance.Value > 0 {
		rewards = append(rewards, Reward{
			Source: "solana-native",
			Token:  "SOL",
			Amount: float64(balance.Value) / 1e9, // lamports
		})
	}

	var tokenAccounts solanaTokenAccountsResult
	err := s.jsonRPC(ctx, s.cfg.SolanaRPCURL, "getTokenAccountsByOwner", []any{
		address,
		map[string]string{"mint": marinadeMSOLMint},
		map[string]string{"encoding": "jsonParsed"},
	}, &tokenAccounts)
	if err != nil {
		return nil, fmt.Errorf("marinade balance check failed: %w", err)
	}

	var msol float64
	for _, acc := range tokenAccounts.Value {
		msol += acc.Account.Data.Parsed.Info.TokenAmount.UIAmount
	}
	if msol > 0 {
		rewards = append(rewards, Reward{Source: "marinade", Token: "SOL", Amount: msol})
	}

	return rewards, nil
}

type blockfrostReward struct {
	Epoch  int    `json:"epoch"`
	Amount string `json:"amount"` // lovelace
	PoolID string `json:"pool_id"`
}

func (s *Scanner) scanCardano(ctx context.Context, address string) ([]Reward, error) {
	url := fmt.Sprintf("%s/accounts/%s/rewards", strings.TrimSuffix(s.cfg.BlockfrostURL, "/"), address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("project_id", s.cfg.BlockfrostAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blockfrost request failed: %w", err)
	}
	defer resp.Body.Close()

	// Blockfrost returns 404 for addresses with no staking history
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("blockfrost API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var epochRewards []blockfrostReward
	if err := json.NewDecoder(resp.Body).Decode(&epochRewards); err != nil {
		return nil, fmt.Errorf("failed to decode rewards response: %w", err)
	}

	var total float64
	for _, r := range epochRewards {
		lovelace, ok := new(big.Int).SetString(r.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid reward amount %q", r.Amount)
		}
		value, _ := new(big.Float).Quo(new(big.Float).SetInt(lovelace), big.NewFloat(1e6)).Float64()
		total += value
	}

	if total == 0 {
		return nil, nil
	}
	return []Reward{{Source: "cardano-staking", Token: "ADA", Amount: total}}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Scanner) jsonRPC(ctx context.Context, rpcURL, method string, params []any, out any) error {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rpcURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("RPC error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal RPC result: %w", err)
	}
	return nil
}
