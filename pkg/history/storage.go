package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swap-exec/pkg/types"
)

const (
	DefaultStorageFileName = ".swap-exec-history.json"
)

// Storage persists settlement receipts to a JSON file.
type Storage struct {
	filePath string
	mu       sync.RWMutex
	receipts []types.SettlementReceipt
}

// receiptFile represents the JSON structure on disk.
type receiptFile struct {
	Receipts []types.SettlementReceipt `json:"receipts"`
}

// NewStorage creates a storage instance. An empty filePath defaults to a
// file in the user's home directory.
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
	}

	// Load existing receipts if the file exists; it is created on first save.
	if err := storage.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return storage, nil
}

// load reads receipts from the storage file.
func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file receiptFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}

	s.receipts = file.Receipts
	return nil
}

// save writes receipts to the storage file. Caller must hold the lock.
func (s *Storage) save() error {
	data, err := json.MarshalIndent(receiptFile{Receipts: s.receipts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// Add appends a settlement receipt and persists it.
func (s *Storage) Add(receipt types.SettlementReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts = append(s.receipts, receipt)
	return s.save()
}

// List returns all recorded receipts, newest last.
func (s *Storage) List() []types.SettlementReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := make([]types.SettlementReceipt, len(s.receipts))
	copy(receipts, s.receipts)
	return receipts
}
