package client

// --------------------------------------------------------------------------
// Read-Committed Transaction
// --------------------------------------------------------------------------

// Txn is a client-side transaction satisfying read committed isolation.
// Writes are buffered locally and only sent to the storage tier on Commit,
// reads observe the transaction's own buffered writes first. There is no
// cross-key atomicity: Commit flushes the buffer as independent puts.
type Txn struct {
	client      *Client
	writeBuffer map[string][]byte
}

// Txn begins a new read-committed transaction on this client
func (c *Client) Txn() *Txn {
	return &Txn{
		client:      c,
		writeBuffer: make(map[string][]byte),
	}
}

// GetLWW returns the buffered value if the transaction wrote the key,
// otherwise it reads through to the storage tier.
func (t *Txn) GetLWW(key string) ([]byte, error) {
	if value, ok := t.writeBuffer[key]; ok {
		return value, nil
	}
	return t.client.GetLWW(key)
}

// PutLWW buffers the value locally until Commit
func (t *Txn) PutLWW(key string, value []byte) {
	t.writeBuffer[key] = value
}

// Commit flushes all buffered writes to the storage tier. It stops at the
// first failing put, leaving the remaining writes buffered so Commit can
// be called again.
func (t *Txn) Commit() error {
	for key, value := range t.writeBuffer {
		if err := t.client.PutLWW(key, value); err != nil {
			return err
		}
		delete(t.writeBuffer, key)
	}
	return nil
}
