package app

import (
	"log"
	"time"
)

// DateLayout is the calendar-date format used for all persisted dates.
const DateLayout = "2006-01-02"

// AdvanceStreak applies the completion-time streak rules. Same-day replays
// leave the streak untouched, playing on consecutive calendar days extends
// it, and any longer gap (or a corrupt persisted date) restarts it at 1.
// "Yesterday" is computed with calendar-day arithmetic rather than elapsed
// hours so DST shifts cannot miscount.
func AdvanceStreak(today time.Time, lastPlayed string, current int) int {
	if lastPlayed == "" {
		return 1
	}
	todayStr := today.Format(DateLayout)
	if lastPlayed == todayStr {
		return current
	}
	last, err := time.Parse(DateLayout, lastPlayed)
	if err != nil {
		log.Printf("app: unparsable last-played date %q, restarting streak: %v", lastPlayed, err)
		return 1
	}
	if last.AddDate(0, 0, 1).Format(DateLayout) == todayStr {
		return current + 1
	}
	return 1
}

// StreakExpired reports whether a persisted streak is stale at read time:
// the last play was neither today nor yesterday. Readers force the persisted
// streak to 0 when this returns true, so a user who stops playing never sees
// a leftover nonzero streak. An absent last-played date counts as expired;
// a nonzero streak without a backing date is corrupt state.
func StreakExpired(today time.Time, lastPlayed string) bool {
	if lastPlayed == "" {
		return true
	}
	todayStr := today.Format(DateLayout)
	if lastPlayed == todayStr {
		return false
	}
	last, err := time.Parse(DateLayout, lastPlayed)
	if err != nil {
		return true
	}
	return last.AddDate(0, 0, 1).Format(DateLayout) != todayStr
}
