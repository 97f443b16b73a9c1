package Preferences

import (
	"log"

	"gorm.io/gorm"
)

const (
	keyPending   = "pending_survey"
	keyPendingID = "pending_survey_id"
)

// PendingSurvey remembers a survey the user postponed
type PendingSurvey struct {
	Store *Store
}

// SetPending stores the flag. A nil id removes any stored id.
func (p PendingSurvey) SetPending(pending bool, id *string) error {
	return p.Store.DB.Transaction(func(tx *gorm.DB) error {
		s := &Store{DB: tx}
		if err := s.Set(keyPending, boolString(pending)); err != nil {
			return err
		}
		if id == nil {
			return s.Delete(keyPendingID)
		}
		return s.Set(keyPendingID, *id)
	})
}

func (p PendingSurvey) IsPending() bool {
	return p.Store.Bool(keyPending)
}

func (p PendingSurvey) PendingID() (string, bool) {
	v, ok, err := p.Store.Get(keyPendingID)
	if err != nil {
		log.Printf("preferences: reading pending survey id: %v", err)
		return "", false
	}
	return v, ok
}

func (p PendingSurvey) Clear() error {
	return p.SetPending(false, nil)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
