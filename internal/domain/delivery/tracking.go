package delivery

import "fmt"

// FormatTrackingNumber pads the number to the 9 digits the carrier expects
func FormatTrackingNumber(n int64) string {
	return fmt.Sprintf("%09d", n)
}
