package core

import (
	"github.com/nodewee/picaxe/pkg/interfaces"
	"github.com/nodewee/picaxe/pkg/logger"
	"github.com/nodewee/picaxe/pkg/utils"
)

// CleanupManager removes the state a successful run no longer needs
type CleanupManager struct {
	logDir        string
	intermediates interfaces.IntermediateFileManager
	logger        *logger.Logger
}

// NewCleanupManager creates a cleanup manager over logDir and the
// intermediate directories
func NewCleanupManager(logDir string, intermediates interfaces.IntermediateFileManager, log *logger.Logger) *CleanupManager {
	return &CleanupManager{
		logDir:        logDir,
		intermediates: intermediates,
		logger:        log,
	}
}

// Cleanup empties the log directory, including logs of earlier runs, and
// removes every intermediate directory. Final outputs are never touched.
func (c *CleanupManager) Cleanup() error {
	removed, err := utils.RemoveDirContents(c.logDir)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to clean log directory").
			WithContext("path", c.logDir)
	}
	c.logger.Debug("Removed %d log files from %s", removed, c.logDir)

	if err := c.intermediates.Cleanup(); err != nil {
		return utils.WrapError(err, utils.ErrorTypeUnexpected, "failed to remove intermediate directories")
	}

	return nil
}
