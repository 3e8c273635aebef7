// Package data provides data management functionality for the Mindnoscape application.
// It coordinates operations between the user and workbook managers.
package data

import (
	"context"
	"fmt"

	"mindnoscape/workbook/internal/idgen"
	"mindnoscape/workbook/internal/log"
	"mindnoscape/workbook/internal/metrics"
	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/storage"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "mindnoscape"

// DataManager is the main struct that coordinates all data operations
type DataManager struct {
	UserManager     *UserManager
	WorkbookManager *WorkbookManager
	Metrics         *metrics.Collector
	Config          *model.Config
	Logger          *log.Logger
}

// NewDataManager creates a new DataManager instance
func NewDataManager(userStore storage.UserStore, workbookStore storage.WorkbookStore, journalStore storage.JournalStore, cfg *model.Config, logger *log.Logger) (*DataManager, error) {
	idFactory, err := idgen.NewFactory(cfg.IDFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create id factory: %w", err)
	}

	m := &DataManager{
		Metrics: metrics.NewCollector(MetricsNamespace),
		Config:  cfg,
		Logger:  logger,
	}

	// Initialize UserManager
	m.UserManager, err = NewUserManager(userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create UserManager: %w", err)
	}

	// Initialize WorkbookManager
	m.WorkbookManager, err = NewWorkbookManager(workbookStore, journalStore, WorkbookManagerOptions{
		IDFactory: idFactory,
		ExportDir: cfg.ExportDir,
		Metrics:   m.Metrics,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create WorkbookManager: %w", err)
	}

	// Handle default user logic
	if cfg.DefaultUserActive && cfg.DefaultUser != "" {
		exists, err := m.UserManager.UserGet(model.UserInfo{Username: cfg.DefaultUser}, model.UserFilter{Username: true})
		if err != nil {
			return nil, fmt.Errorf("failed to check default user existence: %w", err)
		}
		if len(exists) == 0 {
			if _, err := m.UserManager.UserAdd(cfg.DefaultUser, cfg.DefaultUserPassword); err != nil {
				return nil, fmt.Errorf("failed to create default user: %w", err)
			}
		}
	}

	return m, nil
}

// UserDelete removes a user together with the workbooks the user owns.
func (m *DataManager) UserDelete(user *model.User) error {
	workbooks, err := m.WorkbookManager.WorkbookList(user)
	if err != nil {
		return fmt.Errorf("failed to list workbooks of user: %w", err)
	}
	for _, wb := range workbooks {
		if err := m.WorkbookManager.WorkbookDelete(user, wb.Name); err != nil {
			return fmt.Errorf("failed to delete workbook '%s': %w", wb.Name, err)
		}
	}
	if err := m.UserManager.UserDelete(user); err != nil {
		return err
	}
	m.Logger.Info(context.Background(), "User and workbooks deleted", log.Fields{"username": user.Username, "workbooks": len(workbooks)})
	return nil
}
