package jobs

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShafHaider007/expo-portal/services"
)

// SessionSweepJob drops sessions that have been idle past the configured
// timeout, along with their plot views and selections
type SessionSweepJob struct {
	SessionService   *services.SessionService
	PlotService      *services.PlotService
	SelectionService *services.SelectionService
	MaxIdle          time.Duration
}

func NewSessionSweepJob(sessionService *services.SessionService, plotService *services.PlotService, selectionService *services.SelectionService, maxIdle time.Duration) *SessionSweepJob {
	return &SessionSweepJob{
		SessionService:   sessionService,
		PlotService:      plotService,
		SelectionService: selectionService,
		MaxIdle:          maxIdle,
	}
}

func (j *SessionSweepJob) Start() {
	interval := j.MaxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	logrus.Infof("Starting Session Sweep Job (runs every %v, idle timeout %v)...", interval, j.MaxIdle)
	ticker := time.NewTicker(interval)

	go func() {
		for range ticker.C {
			j.Run()
		}
	}()
}

func (j *SessionSweepJob) Run() {
	removed := j.SessionService.SweepIdle(j.MaxIdle)
	for _, sessionID := range removed {
		j.SelectionService.Clear(sessionID)
		j.PlotService.DropView(sessionID)
	}

	if len(removed) > 0 {
		logrus.Infof("Session Sweep Job completed: dropped %d idle sessions", len(removed))
	}
}
