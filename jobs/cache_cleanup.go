package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/services"
)

// exportRetention is how long finished CSV exports stay downloadable
const exportRetention = time.Hour

// CacheCleanupJob purges expired rows from the database-backed plot cache
// and drops stale export jobs
type CacheCleanupJob struct {
	CacheService  *services.CacheService
	ExportService *services.ExportService
}

func NewCacheCleanupJob(cacheService *services.CacheService, exportService *services.ExportService) *CacheCleanupJob {
	return &CacheCleanupJob{
		CacheService:  cacheService,
		ExportService: exportService,
	}
}

func (j *CacheCleanupJob) Start() {
	logrus.Info("Starting Cache Cleanup Job (runs every 30 minutes)...")
	ticker := time.NewTicker(30 * time.Minute)

	go func() {
		for range ticker.C {
			j.Run()
		}
	}()
}

func (j *CacheCleanupJob) Run() {
	logrus.Info("Running Cache Cleanup Job...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.CacheService.CleanupExpiredDB(ctx); err != nil {
		logrus.Errorf("Cache Cleanup Job: database cleanup failed: %v", err)
	}

	if dropped := j.ExportService.SweepExpired(exportRetention); dropped > 0 {
		logrus.Infof("Cache Cleanup Job: dropped %d expired exports", dropped)
	}

	logrus.Info("Cache Cleanup Job completed")
}
