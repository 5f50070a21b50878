package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// TableService defines the interface for table business logic. Claiming and
// releasing tables is not exposed here; those transitions happen only inside
// order open and close.
type TableService interface {
	GetTables(userID int64) ([]models.Table, error)
	GetTableByID(userID, tableID int64) (*models.Table, error)
	CreateTable(table *models.Table) (*models.Table, error)
	RenameTable(userID, tableID int64, name string) (*models.Table, error)
	DeleteTable(userID, tableID int64) error
}

type tableService struct {
	tableRepo repositories.TableRepository
	db        *sql.DB
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableRepository, db *sql.DB) TableService {
	return &tableService{tableRepo: tr, db: db}
}

func (s *tableService) GetTables(userID int64) ([]models.Table, error) {
	tables, err := s.tableRepo.GetTables(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) GetTableByID(userID, tableID int64) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByID(userID, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to get table by ID: %w", err)
	}
	return table, nil
}

func (s *tableService) CreateTable(table *models.Table) (*models.Table, error) {
	if strings.TrimSpace(table.Name) == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrValidation)
	}
	if table.Number <= 0 {
		return nil, fmt.Errorf("%w: table number must be positive", ErrValidation)
	}
	if _, err := s.tableRepo.CreateTable(s.db, table); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: number %d already exists", ErrDuplicateTableNumber, table.Number)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return table, nil
}

func (s *tableService) RenameTable(userID, tableID int64, name string) (*models.Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrValidation)
	}
	if err := s.tableRepo.RenameTable(s.db, userID, tableID, name); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to rename table: %w", err)
	}
	return s.GetTableByID(userID, tableID)
}

// DeleteTable refuses to remove a table that still has an active order. The
// table row is locked first; a concurrent order open claims the same row, so
// once the lock is held the active-order check cannot be invalidated before
// the delete commits.
func (s *tableService) DeleteTable(userID, tableID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.tableRepo.GetTableForUpdate(tx, userID, tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("failed to lock table for deletion: %w", err)
	}

	active, err := s.tableRepo.HasActiveOrder(tx, tableID)
	if err != nil {
		return fmt.Errorf("failed to check active orders before deleting table: %w", err)
	}
	if active {
		return fmt.Errorf("%w: close the order before deleting the table", ErrTableHasActiveOrder)
	}

	if err := s.tableRepo.DeleteTable(tx, userID, tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("failed to delete table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table deletion: %w", err)
	}
	return nil
}
