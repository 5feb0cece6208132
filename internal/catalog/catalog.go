// Package catalog holds the static list of image tokens users pick their
// graphical password from. The catalog is loaded once at startup and shared
// by the registration and login surfaces.
package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// defaultImages is the built-in catalog. Tokens are opaque to the
// verification logic; they only need to be stable across registration and
// login.
var defaultImages = []string{
	"anonymity.png", "bitcoin.png", "blackcoin.png",
	"block_chain.png", "centralized.png", "conversion.png",
	"currency_cap.png", "decentralized.png", "decryption.png",
	"digital_key.png", "disclosed_identity.png", "distributed.png",
	"dogecoin.png", "emercoin.png", "encryption.png", "ethereum.png",
	"feathercoin.png", "free.png", "ledger.png", "litecoin.png",
	"lost_key.png", "mastercoin.png", "miner.png", "miner2.png",
	"mining.png", "mining2.png", "mining_center.png",
	"mining_pool.png", "mining_pool2.png", "monero.png", "myriad.png",
	"namecoin.png", "no_double_spending.png", "nxt.png", "p2p.png",
	"peercoin.png", "ponzi_scheme.png", "primecoin.png", "pseudonimity.png",
	"pyramid_scheme.png", "receive.png", "ripple.png", "send.png",
	"siacoin.png", "stellar_lumen.png", "transaction.png",
	"tumbler.png", "wallet.png", "zcash.png", "zcoin.png",
}

type Catalog struct {
	tokens []string
	index  map[string]struct{}
}

// Default returns the built-in image catalog.
func Default() *Catalog {
	return newCatalog(defaultImages)
}

// Load reads a catalog from a file with one token per line. Blank lines and
// lines starting with '#' are skipped. An empty path returns the default
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image catalog: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read image catalog: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("image catalog %s is empty", path)
	}
	return newCatalog(tokens), nil
}

func newCatalog(tokens []string) *Catalog {
	index := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		index[tok] = struct{}{}
	}
	return &Catalog{tokens: tokens, index: index}
}

// Tokens returns a copy of the catalog so callers cannot mutate the shared
// list.
func (c *Catalog) Tokens() []string {
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

func (c *Catalog) Len() int { return len(c.tokens) }

func (c *Catalog) Contains(token string) bool {
	_, ok := c.index[token]
	return ok
}
