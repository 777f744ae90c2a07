package engine

import (
	"fmt"
	"sync"

	"go.eeprom/internal/eeprom"
	"go.eeprom/internal/logger"
)

// Database serialises access to a Store, which has no locking of its own.
type Database struct {
	mu      sync.Mutex
	engine  *Engine
	store   *eeprom.Store
	log     *logger.Logger
	initErr error
}

func (db *Database) check() error {
	if db.initErr != nil {
		return fmt.Errorf("%w: %v", eeprom.ErrNotInitialized, db.initErr)
	}
	return nil
}

// Ready reports whether the store can serve requests without a format.
func (db *Database) Ready() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.initErr == nil
}

func (db *Database) Get(addr uint16) (uint16, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return 0, err
	}
	return db.store.Lookup(addr)
}

func (db *Database) Set(addr, val uint16) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return err
	}
	return db.store.Write(addr, val)
}

func (db *Database) Delete(addr uint16) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return false, err
	}
	return db.store.Delete(addr)
}

func (db *Database) GetArray(addr uint16, maxLen int) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return nil, err
	}
	return db.store.ReadArray(addr, maxLen)
}

func (db *Database) SetArray(addr uint16, data []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return err
	}
	return db.store.WriteArray(addr, data)
}

func (db *Database) DeleteArray(addr uint16) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return false, err
	}
	return db.store.DeleteArray(addr)
}

func (db *Database) GetBytes(addr uint16, n int) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return nil, err
	}
	return db.store.ReadBytes(addr, n)
}

func (db *Database) SetBytes(addr uint16, data []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.check(); err != nil {
		return err
	}
	return db.store.WriteBytes(addr, data)
}

func (db *Database) EraseCounter() uint32 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.store.EraseCounter()
}

func (db *Database) Stats() eeprom.Stats {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.store.Stats()
}

func (db *Database) Pages() []eeprom.PageInfo {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.store.Pages()
}

func (db *Database) Variables() map[uint16]uint16 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.store.Variables()
}

// Format wipes the store and clears any init failure.
func (db *Database) Format() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.store.Format(); err != nil {
		return err
	}
	db.initErr = nil
	db.log.Infof("store formatted")
	return nil
}

func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.engine == nil {
		return nil
	}
	err := db.engine.Close()
	db.engine = nil
	return err
}
