package session

import (
	"time"

	"github.com/abhisek/amcdrill/internal/grading"
)

// Summary holds the data displayed on the summary screen.
type Summary struct {
	SessionID string
	Contest   string
	Year      int
	Mode      Mode

	Score     int
	Attempted int
	Total     int
	Accuracy  float64

	Elapsed     time.Duration
	AverageTime time.Duration

	Attempts []grading.AttemptRecord
	Review   []grading.ReviewItem

	ResultsSaved bool
	SaveError    string
	// SavePending is set while a save is queued or in flight.
	SavePending bool
}

// buildSummary assembles a Summary. The caller holds c.mu.
func (c *Controller) buildSummary() Summary {
	st := c.snapshotLocked()
	s := Summary{
		SessionID:    st.SessionID,
		Contest:      c.cfg.Contest,
		Year:         c.cfg.Year,
		Mode:         c.cfg.Mode,
		Score:        st.Score,
		Attempted:    st.Attempted,
		Total:        st.Total,
		Elapsed:      time.Duration(st.ElapsedMs) * time.Millisecond,
		ResultsSaved: st.ResultsSaved,
		SaveError:    c.saveErr,
	}
	s.SavePending = c.saves != nil && c.completion != nil && c.completion.User != "" &&
		!s.ResultsSaved && s.SaveError == ""
	if c.sheet != nil {
		s.Accuracy = c.sheet.Accuracy()
		s.Attempts = c.sheet.Ledger().Records()
		s.AverageTime = c.sheet.Ledger().AverageTime()
		s.Review = c.sheet.Review()
	}
	return s
}
