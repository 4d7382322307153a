package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// readerABIJSON declares every read-only method the scanner calls, merged
// into one table so Call can resolve any method by name. Methods span the
// AMM factory/pair, ERC-20 metadata, masterchef/fairlaunch farms,
// comptroller lending markets and yield vaults.
const readerABIJSON = `[
  {"type":"function","stateMutability":"view","name":"getPair","inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"outputs":[{"name":"pair","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"getReserves","inputs":[],"outputs":[{"name":"_reserve0","type":"uint112"},{"name":"_reserve1","type":"uint112"},{"name":"_blockTimestampLast","type":"uint32"}]},
  {"type":"function","stateMutability":"view","name":"token0","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"token1","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","stateMutability":"view","name":"symbol","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","stateMutability":"view","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"poolLength","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"poolInfo","inputs":[{"name":"_pid","type":"uint256"}],"outputs":[{"name":"lpToken","type":"address"},{"name":"allocPoint","type":"uint256"},{"name":"lastRewardBlock","type":"uint256"},{"name":"accRewardPerShare","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"totalAllocPoint","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"cakePerBlock","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"BSWPerBlock","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"alpacaPerBlock","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"getAllMarkets","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","stateMutability":"view","name":"underlying","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"supplyRatePerBlock","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"borrowRatePerBlock","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"totalBorrows","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"exchangeRateStored","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"token","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"totalToken","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"vaultDebtVal","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var readerABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(readerABIJSON))
	if err != nil {
		panic("chain: parse reader ABI: " + err.Error())
	}
	readerABI = parsed
}
