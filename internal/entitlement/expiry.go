package entitlement

import (
	"log/slog"
	"time"

	"github.com/shoplyne/commerce-backend/internal/models"
	"gorm.io/gorm"
)

// StartTrialSweeper runs an hourly goroutine that marks TRIAL installations
// whose trial window has closed as EXPIRED. Expiry only changes status — the
// enabled flag is left alone, and re-enabling an EXPIRED installation is
// rejected by Toggle until a fresh install cycle.
func StartTrialSweeper(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				result := db.Model(&models.PluginInstallation{}).
					Where("status = ? AND trial_end_date < ?", models.InstallationTrial, time.Now().UTC()).
					Update("status", models.InstallationExpired)
				if result.Error != nil {
					slog.Error("trial expiry sweep failed", "error", result.Error)
				} else if result.RowsAffected > 0 {
					slog.Info("trial expiry sweep completed", "expired", result.RowsAffected)
				}
			case <-done:
				return
			}
		}
	}()
}
