package rpc

type Command string

const (
	FetchLastHeightCommand             Command = "fetch_last_height"
	FetchTransactionCommand            Command = "fetch_transaction"
	FetchHistoryCommand                Command = "fetch_history"
	SubscribeAddressCommand            Command = "subscribe_address"
	RenewAddressCommand                Command = "renew_address"
	FetchBlockHeaderCommand            Command = "fetch_block_header"
	FetchBlockTransactionHashesCommand Command = "fetch_block_transaction_hashes"
	FetchSpendCommand                  Command = "fetch_spend"
)

// Outpoint identifies a transaction output being spent.
type Outpoint struct {
	Hash  string `json:"hash"`
	Index uint32 `json:"index"`
}

func (c *Client) FetchLastHeight(h Handler) (*Call, error) {
	return c.Dispatch(FetchLastHeightCommand, nil, h)
}

func (c *Client) FetchTransaction(txHash string, h Handler) (*Call, error) {
	return c.Dispatch(FetchTransactionCommand, []any{txHash}, h)
}

func (c *Client) FetchHistory(address string, h Handler) (*Call, error) {
	return c.Dispatch(FetchHistoryCommand, []any{address}, h)
}

func (c *Client) FetchBlockHeader(index uint64, h Handler) (*Call, error) {
	return c.Dispatch(FetchBlockHeaderCommand, []any{index}, h)
}

func (c *Client) FetchBlockTransactionHashes(index uint64, h Handler) (*Call, error) {
	return c.Dispatch(FetchBlockTransactionHashesCommand, []any{index}, h)
}

func (c *Client) FetchSpend(outpoint Outpoint, h Handler) (*Call, error) {
	return c.Dispatch(FetchSpendCommand, []any{outpoint}, h)
}
