package exporter

import "time"

// TimestampLayout is how grid instants render in report files.
const TimestampLayout = "2006-01-02 15:04:05"

func formatInstant(t time.Time) string {
	return t.Format(TimestampLayout)
}
