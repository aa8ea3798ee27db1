package models

import "time"

// Now is the clock used for every stored timestamp. Values are kept in UTC so
// range filters compare the same way on MySQL and SQLite.
var Now = func() time.Time {
	return time.Now().UTC()
}
