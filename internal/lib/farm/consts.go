package farm

const (
	// MaxDepositFeeBps is 100% expressed in basis points.
	MaxDepositFeeBps = 10_000

	// DevShareDivisor sets the dev top-up: reward/DevShareDivisor is minted to the dev beneficiary on every
	// accrual, on top of the pool reward.
	DevShareDivisor = 10
)
