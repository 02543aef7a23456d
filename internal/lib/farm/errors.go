package farm

import (
	"errors"

	"github.com/TxnLab/farm/internal/lib/fixedpoint"
)

var (
	ErrUnauthorized        = errors.New("caller is not authorized for this operation")
	ErrInvalidFeeBps       = errors.New("deposit fee basis points out of range")
	ErrInsufficientStake   = errors.New("withdrawal exceeds staked balance")
	ErrAssetTransferFailed = errors.New("asset transfer failed")
	ErrMintFailed          = errors.New("reward mint failed")
	ErrUnknownPool         = errors.New("unknown pool")
	ErrInvalidAccount      = errors.New("account identifier must not be empty")
	ErrClockRegression     = errors.New("clock went backwards")
	ErrCorruptState        = errors.New("ledger state violates an invariant")

	ErrArithmeticOverflow  = fixedpoint.ErrOverflow
	ErrArithmeticUnderflow = fixedpoint.ErrUnderflow
)
