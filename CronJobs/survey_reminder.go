package CronJobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"MediFlow/Models"
)

// SurveyNotifier pushes the ENCUESTA_PENDIENTE message to one user
type SurveyNotifier interface {
	SurveyPending(ctx context.Context, uid string, e Models.Encuesta) error
}

// SurveyReminder periodically reminds every linked usuario of the surveys
// they have not answered today
type SurveyReminder struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	notifier       SurveyNotifier
	location       *time.Location
	schedule       string
	runImmediately bool
	jobID          cron.EntryID

	// guards against overlapping runs
	running sync.Mutex
	now     func() time.Time
}

// NewSurveyReminder uses a six field cron schedule, e.g. "0 0 9 * * *" for
// 09:00:00 every day in loc
func NewSurveyReminder(db *gorm.DB, notifier SurveyNotifier, loc *time.Location, schedule string, runImmediately bool) *SurveyReminder {
	if loc == nil {
		loc = time.Local
	}
	return &SurveyReminder{
		cronScheduler:  cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		db:             db,
		notifier:       notifier,
		location:       loc,
		schedule:       schedule,
		runImmediately: runImmediately,
		now:            time.Now,
	}
}

func (s *SurveyReminder) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}
	s.cronScheduler.Start()
	log.Printf("Survey reminder scheduler started (%s)", s.schedule)

	if s.runImmediately {
		go s.run()
	}
	return nil
}

// Stop waits for a running reminder to finish
func (s *SurveyReminder) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		log.Println("Survey reminder scheduler stopped")
	}
}

// UpdateSchedule replaces the cron schedule
func (s *SurveyReminder) UpdateSchedule(schedule string) error {
	id, err := s.cronScheduler.AddFunc(schedule, s.run)
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	s.cronScheduler.Remove(s.jobID)
	s.jobID = id
	s.schedule = schedule
	log.Printf("Survey reminder schedule updated to: %s", schedule)
	return nil
}

func (s *SurveyReminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	sent, err := s.RunOnce(ctx)
	if err != nil {
		log.Printf("Error in survey reminder: %v", err)
		return
	}
	log.Printf("Survey reminder sent %d notifications", sent)
}

// RunOnce notifies every usuario with a Firebase uid of their first pending
// survey and returns how many pushes were sent. A failed push is logged and
// does not stop the run.
func (s *SurveyReminder) RunOnce(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		log.Println("Survey reminder already running, skipping")
		return 0, nil
	}
	defer s.running.Unlock()

	var usuarios []Models.Usuario
	if err := s.db.WithContext(ctx).Where("uid_firebase IS NOT NULL").Order("id").Find(&usuarios).Error; err != nil {
		return 0, fmt.Errorf("list usuarios: %w", err)
	}

	day := Models.Day(s.now(), s.location)
	sent := 0
	for _, u := range usuarios {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		pending, err := Models.PendingEncuestas(s.db.WithContext(ctx), u.ID, day)
		if err != nil {
			return sent, fmt.Errorf("pending encuestas of usuario %d: %w", u.ID, err)
		}
		if len(pending) == 0 {
			continue
		}
		if err := s.notifier.SurveyPending(ctx, *u.UIDFirebase, pending[0]); err != nil {
			log.Printf("survey reminder to usuario %d failed: %v", u.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
