package bank

// Custody moves staked assets between participants and the custody account.
type Custody struct {
	ledger  *Ledger
	account string
}

func NewCustody(ledger *Ledger, account string) *Custody {
	return &Custody{ledger: ledger, account: account}
}

func (c *Custody) TransferIn(asset, from string, amount uint64) error {
	return c.ledger.Move(asset, from, c.account, amount)
}

func (c *Custody) TransferOut(asset, to string, amount uint64) error {
	return c.ledger.Move(asset, c.account, to, amount)
}

// Issuer mints and moves a single reward asset.
type Issuer struct {
	ledger *Ledger
	asset  string
}

func NewIssuer(ledger *Ledger, asset string) *Issuer {
	return &Issuer{ledger: ledger, asset: asset}
}

func (i *Issuer) Asset() string {
	return i.asset
}

// Balance is the reward asset held by account.
func (i *Issuer) Balance(account string) uint64 {
	return i.ledger.BalanceOf(i.asset, account)
}

func (i *Issuer) Mint(to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return i.ledger.Credit(i.asset, to, amount)
}

func (i *Issuer) Transfer(from, to string, amount uint64) error {
	return i.ledger.Move(i.asset, from, to, amount)
}
