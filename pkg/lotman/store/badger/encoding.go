package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Key layout
//
// BadgerDB is a key-value store, so prefixed keys separate record kinds:
//
//	lot:<name>   JSON-encoded lotman.Lot
//	ctx:<key>    raw context value
//
// Lot keys sort by name, so a prefix scan yields lots in the order
// lotman.Store.ListLots promises.
const (
	prefixLot     = "lot:"
	prefixContext = "ctx:"
)

func keyLot(name string) []byte {
	return []byte(prefixLot + name)
}

func keyContext(key string) []byte {
	return []byte(prefixContext + key)
}

func encodeLot(lot *lotman.Lot) ([]byte, error) {
	data, err := json.Marshal(lot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lot %q: %w", lot.Name, err)
	}
	return data, nil
}

func decodeLot(data []byte) (*lotman.Lot, error) {
	lot := &lotman.Lot{}
	if err := json.Unmarshal(data, lot); err != nil {
		return nil, fmt.Errorf("failed to decode lot: %w", err)
	}
	return lot, nil
}
