package exchange

import (
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// JalaliDate formats a Gregorian instant as the 8-digit Jalali date string
// the operational endpoints key their per-day queries on.
func JalaliDate(t time.Time) string {
	return ptime.New(t).Format("yyyyMMdd")
}
