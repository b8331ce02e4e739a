package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	hyperliquid "github.com/sonirico/go-hyperliquid"
)

type HyperliquidClient struct {
	exchange *hyperliquid.Exchange
}

// NewHyperliquidClient builds an exchange client. Candle snapshots are public, so an empty key
// is replaced by a throwaway one that only serves to satisfy the SDK.
func NewHyperliquidClient(privateKeyHex string, baseURL string) (*HyperliquidClient, error) {
	privateKey, err := loadKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	pub, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	accountAddr := crypto.PubkeyToAddress(*pub).Hex()

	// Info and SpotMeta are fetched lazily by the SDK
	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		baseURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return &HyperliquidClient{exchange: ex}, nil
}

func loadKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate hyperliquid key: %w", err)
		}
		return key, nil
	}

	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse hyperliquid private key: %w", err)
	}
	return key, nil
}

// Info returns the SDK's public info endpoint client.
func (c *HyperliquidClient) Info() *hyperliquid.Info { return c.exchange.Info() }
