package location

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once sync.Once
	loc  *time.Location
)

// Location returns the festival's time zone from settings.timezone, falling
// back to UTC when it is unset or unknown.
func Location() *time.Location {
	once.Do(func() {
		var err error
		loc, err = time.LoadLocation(viper.GetString("settings.timezone"))
		if err != nil {
			loc = time.UTC
		}
	})
	return loc
}
