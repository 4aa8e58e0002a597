package rangestore

// Put writes a raw key/value pair, rejecting keys outside the range's
// span. Used for internal control writes and by tests; structured row
// writes go through Insert instead.
func (r *Range) Put(key, value []byte, sync bool) error {
	done, err := r.beginOp(true)
	if err != nil {
		return err
	}
	defer done()

	if err := r.checkKeyInRange(key); err != nil {
		return err
	}
	return r.eng.Put(key, value, sync)
}

// Get returns the raw value at key, or NotFound if absent.
func (r *Range) Get(key []byte) ([]byte, error) {
	done, err := r.beginOp(false)
	if err != nil {
		return nil, err
	}
	defer done()

	return r.eng.Get(key)
}

// Delete idempotently removes key.
func (r *Range) Delete(key []byte, sync bool) error {
	done, err := r.beginOp(true)
	if err != nil {
		return err
	}
	defer done()

	if err := r.checkKeyInRange(key); err != nil {
		return err
	}
	return r.eng.Delete(key, sync)
}
