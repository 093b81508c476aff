package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	id "charitydrive/pkg/domain"
)

const balanceKeyPrefix = "credit:balance:"

// transferScript moves ARGV[1] from KEYS[1] to KEYS[2] only if KEYS[1] can
// cover it. Returns the source balance before the move, or -1 when short.
var transferScript = redis.NewScript(`
local bal = tonumber(redis.call('GET', KEYS[1]) or '0')
local amt = tonumber(ARGV[1])
if bal < amt then
  return {-1, bal}
end
if amt > 0 and KEYS[1] ~= KEYS[2] then
  redis.call('DECRBY', KEYS[1], amt)
  redis.call('INCRBY', KEYS[2], amt)
end
return {0, bal}
`)

// Redis keeps one integer key per account. Transfers run as a single Lua
// script so the debit and credit are applied together.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func balanceKey(acct id.AccountID) string {
	return balanceKeyPrefix + acct.String()
}

func (r *Redis) Mint(ctx context.Context, acct id.AccountID, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := r.client.IncrBy(ctx, balanceKey(acct), amount).Err(); err != nil {
		return fmt.Errorf("mint credit: %w", err)
	}
	return nil
}

func (r *Redis) Transfer(ctx context.Context, from, to id.AccountID, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	res, err := transferScript.Run(ctx, r.client,
		[]string{balanceKey(from), balanceKey(to)},
		strconv.FormatInt(amount, 10),
	).Int64Slice()
	if err != nil {
		return fmt.Errorf("transfer credit: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("transfer credit: unexpected script reply %v", res)
	}
	if res[0] < 0 {
		return insufficient(res[1], amount)
	}
	return nil
}

func (r *Redis) BalanceOf(ctx context.Context, acct id.AccountID) (int64, error) {
	balance, err := r.client.Get(ctx, balanceKey(acct)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}
