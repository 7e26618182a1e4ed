package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
}

// force the timezone to be the extranet's (French) one, otherwise
// import timestamps and day boundaries shift depending on where the
// connector happens to run
func Now() time.Time {
	return time.Now().In(Location)
}
