// Package chain implements domain.ContractReader over an Ethereum-compatible
// JSON-RPC endpoint using go-ethereum.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// Client executes read-only contract calls against a single RPC endpoint.
// Callers pass addresses as 0x hex strings and receive address outputs the
// same way; integer outputs narrower than 64 bits keep their native Go type,
// wider ones are *big.Int.
type Client struct {
	ec      *ethclient.Client
	timeout time.Duration
}

// Dial connects to the JSON-RPC endpoint. A failure here is a
// configuration/connectivity failure and fatal for the scan invocation.
func Dial(ctx context.Context, rpcURL string, callTimeout time.Duration) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Client{ec: ec, timeout: callTimeout}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.ec.Close()
}

// Call packs the named method with args, executes it against the contract at
// address on the latest state, and returns the decoded outputs.
func (c *Client) Call(ctx context.Context, address, method string, args ...any) ([]any, error) {
	m, ok := readerABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("chain: unknown method %q", method)
	}

	packArgs, err := coerceArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("chain: %s args: %w", method, err)
	}
	data, err := readerABI.Pack(method, packArgs...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	to := common.HexToAddress(address)
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.ec.CallContract(cctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s: %w", method, address, err)
	}

	vals, err := readerABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return normalizeOutputs(vals), nil
}

// coerceArgs converts caller-friendly argument types into what the ABI
// packer expects: hex strings become common.Address, plain ints become
// *big.Int for uint256 inputs.
func coerceArgs(inputs abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("want %d args, got %d", len(inputs), len(args))
	}
	out := make([]any, len(args))
	for i, arg := range args {
		switch inputs[i].Type.T {
		case abi.AddressTy:
			s, ok := arg.(string)
			if !ok {
				return nil, fmt.Errorf("arg %d: address must be a hex string, got %T", i, arg)
			}
			out[i] = common.HexToAddress(s)
		case abi.UintTy, abi.IntTy:
			switch n := arg.(type) {
			case *big.Int:
				out[i] = n
			case int:
				out[i] = big.NewInt(int64(n))
			case int64:
				out[i] = big.NewInt(n)
			case uint64:
				out[i] = new(big.Int).SetUint64(n)
			default:
				return nil, fmt.Errorf("arg %d: unsupported integer type %T", i, arg)
			}
		default:
			out[i] = arg
		}
	}
	return out, nil
}

// normalizeOutputs converts decoded ABI values into transport-agnostic
// types: addresses become hex strings so downstream packages never import
// go-ethereum.
func normalizeOutputs(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case common.Address:
			out[i] = t.Hex()
		case []common.Address:
			addrs := make([]string, len(t))
			for j, a := range t {
				addrs[j] = a.Hex()
			}
			out[i] = addrs
		default:
			out[i] = v
		}
	}
	return out
}

var _ domain.ContractReader = (*Client)(nil)
