package common

import "os"

func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Remove deletes a database file and its log file if they exist. Mostly useful in tests.
func Remove(dbFile string) {
	os.Remove(dbFile)
	os.Remove(dbFile + ".log")
}

// Contains tells whether arr contains x.
func Contains(arr []int, x int) bool {
	for _, n := range arr {
		if x == n {
			return true
		}
	}
	return false
}
